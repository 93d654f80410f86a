package doclai

import "github.com/ZaguanLabs/doclai/align"

// DiffResult represents the block-level difference between two revisions
// of a document.
type DiffResult struct {
	// Added contains blocks with no counterpart in the previous revision.
	Added []Block

	// Removed contains previous blocks with no counterpart in the new revision.
	Removed []Block

	// Unchanged contains new blocks identical to a previous block.
	Unchanged []Block

	// Modified pairs new blocks with the similar previous block they replace.
	Modified []ModifiedBlock
}

// ModifiedBlock represents a block that was edited.
type ModifiedBlock struct {
	Old        Block
	New        Block
	Similarity float64
}

// DiffStats contains summary statistics for a diff.
type DiffStats struct {
	Added     int
	Removed   int
	Unchanged int
	Modified  int
}

// Stats returns summary statistics for the diff.
func (d *DiffResult) Stats() DiffStats {
	return DiffStats{
		Added:     len(d.Added),
		Removed:   len(d.Removed),
		Unchanged: len(d.Unchanged),
		Modified:  len(d.Modified),
	}
}

// HasChanges returns true if there are any differences.
func (d *DiffResult) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Modified) > 0
}

// NeedsTranslation returns the new blocks that carry text and changed.
func (d *DiffResult) NeedsTranslation() []Block {
	result := make([]Block, 0, len(d.Added)+len(d.Modified))
	for _, b := range d.Added {
		if b.Type.Translatable() {
			result = append(result, b)
		}
	}
	for _, m := range d.Modified {
		if m.New.Type.Translatable() {
			result = append(result, m.New)
		}
	}
	return result
}

// DiffBlocks aligns newDoc against oldDoc the way the engine does and
// classifies every block.
func DiffBlocks(oldDoc, newDoc Document, cfg EngineConfig) *DiffResult {
	matcher := align.NewMatcher(cfg.BlockSimilarityFloor, align.NewMemo(cfg.MemoSize))
	if cfg.WindowFraction > 0 {
		matcher.WindowFraction = cfg.WindowFraction
	}
	res := matcher.Align(blockItems(oldDoc), blockItems(newDoc))

	d := &DiffResult{}
	for i, b := range newDoc.Blocks {
		switch res.Kinds[i] {
		case align.MatchExact:
			d.Unchanged = append(d.Unchanged, b)
		case align.MatchModified:
			d.Modified = append(d.Modified, ModifiedBlock{
				Old:        oldDoc.Blocks[res.NewToOld[i]],
				New:        b,
				Similarity: res.Scores[i],
			})
		default:
			d.Added = append(d.Added, b)
		}
	}
	for o, n := range res.OldToNew(len(oldDoc.Blocks)) {
		if n == align.Unmatched {
			d.Removed = append(d.Removed, oldDoc.Blocks[o])
		}
	}
	return d
}

// Plan diffs two revisions of a document without calling the backend.
func (e *Engine) Plan(prevSource, source string) (*DiffResult, error) {
	if e.parser == nil {
		return nil, &ProcessorError{Message: "no document parser configured", ContentType: "markdown"}
	}
	return DiffBlocks(e.parser.Parse(prevSource), e.parser.Parse(source), e.cfg), nil
}
