package doclai

import "github.com/ZaguanLabs/doclai/align"

// DriftGuard rejects edit results whose translation moved much further than
// their source did.
type DriftGuard struct {
	cfg  EngineConfig
	memo *align.Memo
}

// NewDriftGuard creates a guard using the drift thresholds of cfg.
func NewDriftGuard(cfg EngineConfig, memo *align.Memo) *DriftGuard {
	return &DriftGuard{cfg: cfg, memo: memo}
}

// Verdict explains an Accept decision.
type Verdict struct {
	Accepted         bool
	SourceChange     float64
	TranslationDrift float64
}

// Check evaluates an edit of oldTrans into newTrans made for the source
// change oldSrc -> newSrc.
func (g *DriftGuard) Check(oldSrc, newSrc, oldTrans, newTrans string) Verdict {
	srcSim := g.memo.Similarity(oldSrc, newSrc)
	transSim := g.memo.Similarity(oldTrans, newTrans)
	v := Verdict{
		Accepted:         true,
		SourceChange:     1 - srcSim,
		TranslationDrift: 1 - transSim,
	}

	limit := max(g.cfg.DriftMinRatio, g.cfg.DriftFactor*v.SourceChange)
	if v.SourceChange <= g.cfg.DriftSourceMax && v.TranslationDrift >= limit {
		v.Accepted = false
	}
	if srcSim >= g.cfg.DriftSourceHigh && transSim < g.cfg.EditFloor(runeLen(newSrc)) {
		v.Accepted = false
	}
	return v
}

// Accept reports whether the edit should be kept.
func (g *DriftGuard) Accept(oldSrc, newSrc, oldTrans, newTrans string) bool {
	return g.Check(oldSrc, newSrc, oldTrans, newTrans).Accepted
}
