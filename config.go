package doclai

import "github.com/ZaguanLabs/doclai/align"

// EngineConfig enumerates every tunable of the incremental pipeline.
type EngineConfig struct {
	// EnableEditTranslate routes similar fragments to minimal-diff edits.
	// When false they are translated afresh.
	EnableEditTranslate bool `koanf:"enable_edit_translate"`

	// Edit similarity threshold: EditSimilarityCeil for fragments shorter
	// than ShortFragmentRunes, EditSimilarityFloor above LongFragmentRunes,
	// linear in between.
	EditSimilarityFloor float64 `koanf:"edit_similarity_floor" validate:"gte=0,lte=1"`
	EditSimilarityCeil  float64 `koanf:"edit_similarity_ceil"  validate:"gte=0,lte=1"`
	ShortFragmentRunes  int     `koanf:"short_fragment_runes"  validate:"gte=0"`
	LongFragmentRunes   int     `koanf:"long_fragment_runes"   validate:"gte=0"`

	// BlockSimilarityFloor is the minimum similarity for two blocks to be
	// considered the same block, modified.
	BlockSimilarityFloor float64 `koanf:"block_similarity_floor" validate:"gte=0,lte=1"`
	WindowFraction       float64 `koanf:"window_fraction"        validate:"gte=0,lte=1"`

	BatchSize     int `koanf:"batch_size"     validate:"gte=1"`
	SingleRetries int `koanf:"single_retries" validate:"gte=0"`

	// Drift guard: an edit is rejected when the source changed at most
	// DriftSourceMax while the translation changed at least
	// max(DriftMinRatio, DriftFactor × source change), or when the
	// translation similarity drops under the edit threshold although the
	// source similarity stayed at or above DriftSourceHigh.
	DriftMinRatio   float64 `koanf:"drift_min_ratio"   validate:"gte=0,lte=1"`
	DriftFactor     float64 `koanf:"drift_factor"      validate:"gte=0"`
	DriftSourceMax  float64 `koanf:"drift_source_max"  validate:"gte=0,lte=1"`
	DriftSourceHigh float64 `koanf:"drift_source_high" validate:"gte=0,lte=1"`

	MemoSize                int `koanf:"memo_size"                 validate:"gte=0"`
	ParallelLookupThreshold int `koanf:"parallel_lookup_threshold" validate:"gte=0"`
}

// DefaultEngineConfig returns the tuned defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		EnableEditTranslate:     true,
		EditSimilarityFloor:     0.70,
		EditSimilarityCeil:      0.85,
		ShortFragmentRunes:      20,
		LongFragmentRunes:       100,
		BlockSimilarityFloor:    0.75,
		WindowFraction:          0.25,
		BatchSize:               20,
		SingleRetries:           2,
		DriftMinRatio:           0.08,
		DriftFactor:             2.5,
		DriftSourceMax:          0.15,
		DriftSourceHigh:         0.90,
		MemoSize:                align.DefaultMemoSize,
		ParallelLookupThreshold: 5,
	}
}

// EditFloor returns the similarity above which a fragment of n runes is
// edited rather than translated afresh.
func (c EngineConfig) EditFloor(n int) float64 {
	return align.AdaptiveFloor(n, c.EditSimilarityCeil, c.EditSimilarityFloor, c.ShortFragmentRunes, c.LongFragmentRunes)
}
