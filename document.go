package doclai

import (
	"context"
	"strconv"
	"strings"

	"github.com/ZaguanLabs/doclai/align"
)

// translateJob is a fragment queued for fresh translation.
type translateJob struct {
	text   string
	ctx    string
	result string
}

// editJob is a fragment queued for a minimal-diff edit.
type editJob struct {
	item    EditItem
	outcome EditOutcome
	// Set when a rejected edit is retried as an insertion splice.
	insertion align.Insertion
	fragment  *translateJob
}

// documentRun holds the state of one TranslateDocument call.
type documentRun struct {
	e        *Engine
	req      DocumentRequest
	cfg      EngineConfig
	memo     *align.Memo
	splitter *align.Splitter
	guard    *DriftGuard
	disp     *Dispatcher

	translates []*translateJob
	edits      []*editJob
	stats      ProcessedContent
}

func newDocumentRun(e *Engine, req DocumentRequest) *documentRun {
	memo := align.NewMemo(e.cfg.MemoSize)
	return &documentRun{
		e:        e,
		req:      req,
		cfg:      e.cfg,
		memo:     memo,
		splitter: align.NewSplitter(),
		guard:    NewDriftGuard(e.cfg, memo),
		disp:     e.dispatcher(req.TargetLang),
	}
}

func (r *documentRun) translateText(text, ctx string) *translateJob {
	j := &translateJob{text: text, ctx: ctx}
	r.translates = append(r.translates, j)
	r.stats.TranslatedCount++
	return j
}

func (r *documentRun) editText(oldSrc, newSrc, oldTrans, ctx string) func() string {
	if !r.cfg.EnableEditTranslate {
		j := r.translateText(newSrc, ctx)
		return func() string { return j.result }
	}
	j := &editJob{item: EditItem{OldSource: oldSrc, NewSource: newSrc, OldTranslation: oldTrans}}
	r.edits = append(r.edits, j)
	return j.text
}

// text resolves an edit job after dispatch.
func (j *editJob) text() string {
	switch {
	case j.outcome.Accepted:
		return j.outcome.Text
	case j.fragment != nil:
		return align.Splice(j.item.OldTranslation, j.fragment.result, j.insertion.Kind, 0)
	default:
		return j.item.OldTranslation
	}
}

func (r *documentRun) translate(ctx context.Context) (*ProcessedContent, error) {
	parser := r.e.parser
	newDoc := parser.Parse(r.req.Source)
	r.stats.TotalBlocks = len(newDoc.Blocks)

	// An unchanged source keeps its translation byte for byte.
	if r.req.Source == r.req.PrevSource && r.req.PrevTranslation != "" {
		r.stats.Content = r.req.PrevTranslation
		r.stats.ReusedCount = len(newDoc.Blocks)
		return &r.stats, nil
	}
	if strings.TrimSpace(r.req.Source) == "" {
		r.stats.Content = r.req.Source
		return &r.stats, nil
	}

	var oldDoc, transDoc Document
	if r.req.PrevTranslation != "" {
		oldDoc = parser.Parse(r.req.PrevSource)
		transDoc = parser.Parse(r.req.PrevTranslation)
	}

	matcher := align.NewMatcher(r.cfg.BlockSimilarityFloor, r.memo)
	if r.cfg.WindowFraction > 0 {
		matcher.WindowFraction = r.cfg.WindowFraction
	}
	alignment := matcher.Align(blockItems(oldDoc), blockItems(newDoc))
	pairFrontmatter(oldDoc, newDoc, alignment)
	oldToTrans := mapTranslation(oldDoc, transDoc)

	renders := make([]func() string, len(newDoc.Blocks))
	for i, blk := range newDoc.Blocks {
		o := alignment.NewToOld[i]
		var oldBlk, transBlk *Block
		if o != align.Unmatched {
			oldBlk = &oldDoc.Blocks[o]
			if t := oldToTrans[o]; t != align.Unmatched {
				transBlk = &transDoc.Blocks[t]
			}
		}
		renders[i] = r.planBlock(blk, oldBlk, transBlk, alignment.Kinds[i])
	}

	if err := r.dispatch(ctx); err != nil {
		return nil, err
	}

	texts := make([]string, len(renders))
	for i, render := range renders {
		texts[i] = render()
	}
	r.stats.Content = Reconstruct(newDoc, texts)
	r.stats.CachedCount = r.disp.Stats.Cached
	return &r.stats, nil
}

// dispatch resolves every queued job. Edits refused by the drift guard are
// retried as insertion splices when the source change is a pure head or
// tail insertion, and otherwise keep the previous translation.
func (r *documentRun) dispatch(ctx context.Context) error {
	if err := r.runTranslates(ctx, r.translates); err != nil {
		return err
	}
	if len(r.edits) == 0 {
		return nil
	}

	items := make([]EditItem, len(r.edits))
	for i, j := range r.edits {
		items[i] = j.item
	}
	outcomes, err := r.disp.Edit(ctx, items, func(it EditItem, out string) bool {
		return r.guard.Accept(it.OldSource, it.NewSource, it.OldTranslation, out)
	})
	if err != nil {
		return err
	}

	var retries []*translateJob
	for i, j := range r.edits {
		j.outcome = outcomes[i]
		if j.outcome.Accepted {
			r.stats.EditedCount++
			continue
		}
		r.stats.DriftRejected++
		r.e.log.Info("drift rejected",
			"file", r.req.Path,
			"lang", r.req.TargetLang,
			"source", truncate(j.item.NewSource, 60),
		)
		ins, ok := r.memo.DetectInsertion(j.item.OldSource, j.item.NewSource)
		if !ok || ins.Kind == align.InsertMiddle {
			continue
		}
		j.insertion = ins
		j.fragment = &translateJob{text: ins.Fragment}
		retries = append(retries, j.fragment)
		r.stats.TranslatedCount++
		r.stats.SplicedCount++
	}
	return r.runTranslates(ctx, retries)
}

func (r *documentRun) runTranslates(ctx context.Context, jobs []*translateJob) error {
	if len(jobs) == 0 {
		return nil
	}
	texts := make([]string, len(jobs))
	contexts := make([]string, len(jobs))
	for i, j := range jobs {
		texts[i] = j.text
		contexts[i] = j.ctx
	}
	results, err := r.disp.Translate(ctx, texts, contexts)
	if err != nil {
		return err
	}
	for i, j := range jobs {
		j.result = results[i]
	}
	return nil
}

// planBlock decides how the translation of blk is produced and returns a
// function rendering it once all jobs are resolved.
func (r *documentRun) planBlock(blk Block, oldBlk, transBlk *Block, kind align.MatchKind) func() string {
	verbatim := func(s string) func() string { return func() string { return s } }

	if !blk.Type.Translatable() || strings.TrimSpace(blk.Plain) == "" {
		return verbatim(blk.Raw)
	}

	if kind == align.MatchExact && transBlk != nil {
		r.stats.ReusedCount++
		if oldBlk.Marker == blk.Marker {
			return verbatim(transBlk.Raw)
		}
		return verbatim(blk.Marker + transBlk.Content())
	}

	if blk.Type == BlockFrontmatter {
		return r.planFrontmatter(blk, oldBlk, transBlk)
	}

	content := blk.Content()
	wrap := func(f func() string) func() string {
		return func() string { return blk.Marker + f() }
	}

	if kind != align.MatchModified || transBlk == nil {
		j := r.translateText(content, blk.HeadingPath)
		return wrap(func() string { return j.result })
	}

	oldC, transC := oldBlk.Content(), transBlk.Content()
	if blk.Type.Atomic() {
		return wrap(r.planWhole(oldC, content, transC, blk.HeadingPath))
	}

	if f, ok := r.planInsertion(oldC, content, transC, blk.HeadingPath); ok {
		return wrap(f)
	}
	if f, ok := r.planSegments(oldC, content, transC, blk.HeadingPath); ok {
		return wrap(f)
	}
	return wrap(r.planWhole(oldC, content, transC, blk.HeadingPath))
}

func (r *documentRun) planWhole(oldC, newC, transC, ctx string) func() string {
	if r.memo.Similarity(oldC, newC) >= r.cfg.EditFloor(runeLen(newC)) {
		return r.editText(oldC, newC, transC, ctx)
	}
	j := r.translateText(newC, ctx)
	return func() string { return j.result }
}

// planInsertion handles a block whose new content is the old content plus
// one inserted run. Interior insertions are spliced only at a sentence
// boundary that exists in both the old source and its translation.
func (r *documentRun) planInsertion(oldC, newC, transC, ctx string) (func() string, bool) {
	ins, ok := r.memo.DetectInsertion(oldC, newC)
	if !ok {
		return nil, false
	}

	at := 0
	if ins.Kind == align.InsertMiddle {
		oldSegs := r.memo.Split(r.splitter, oldC)
		transSegs := r.memo.Split(r.splitter, transC)
		k, ok := align.BoundaryIndex(oldSegs, ins.Offset)
		if !ok || len(oldSegs) != len(transSegs) {
			return nil, false
		}
		if k < len(transSegs) {
			at = transSegs[k].Start + len(transSegs[k].Prefix)
		} else {
			at = len(transC)
		}
	}

	j := r.translateText(ins.Fragment, ctx)
	r.stats.SplicedCount++
	r.stats.ReusedCount++
	return func() string { return align.Splice(transC, j.result, ins.Kind, at) }, true
}

// planSegments works sentence by sentence when the old source and its
// translation segment one to one.
func (r *documentRun) planSegments(oldC, newC, transC, ctx string) (func() string, bool) {
	oldSegs := r.memo.Split(r.splitter, oldC)
	transSegs := r.memo.Split(r.splitter, transC)
	if len(oldSegs) == 0 || len(oldSegs) != len(transSegs) {
		return nil, false
	}
	newSegs := r.memo.Split(r.splitter, newC)
	al := r.memo.AlignSegments(oldSegs, newSegs, r.cfg.EditFloor)

	pieces := make([]func() string, len(newSegs))
	for n, seg := range newSegs {
		o := al.NewToOld[n]
		switch {
		case seg.Core == "":
			pieces[n] = nil
		case al.Kinds[n] == align.MatchExact:
			core := transSegs[o].Core
			r.stats.ReusedCount++
			pieces[n] = func() string { return core }
		case al.Kinds[n] == align.MatchModified:
			pieces[n] = r.editText(oldSegs[o].Core, seg.Core, transSegs[o].Core, ctx)
		default:
			j := r.translateText(seg.Core, ctx)
			pieces[n] = func() string { return j.result }
		}
	}

	return func() string {
		var b strings.Builder
		prevOld := align.Unmatched
		for n, piece := range pieces {
			if piece == nil {
				continue
			}
			text := strings.TrimSpace(piece())
			if text == "" {
				continue
			}
			o := al.NewToOld[n]
			switch {
			case b.Len() == 0:
				b.WriteString(text)
			case o != align.Unmatched && prevOld != align.Unmatched && o == prevOld+1:
				b.WriteString(transSegs[prevOld].Suffix + transSegs[o].Prefix + text)
			default:
				joined := align.Concat(b.String(), text)
				b.Reset()
				b.WriteString(joined)
			}
			prevOld = o
		}
		return transSegs[0].Prefix + b.String() + transSegs[len(transSegs)-1].Suffix
	}, true
}

// planFrontmatter translates the configured scalar fields of a frontmatter
// block, keeping the translated value of every field whose source value
// did not change.
func (r *documentRun) planFrontmatter(blk Block, oldBlk, transBlk *Block) func() string {
	fm := r.e.fm
	if fm == nil || len(r.e.fmKeys) == 0 {
		return func() string { return blk.Raw }
	}
	fields := fm.FrontmatterFields(blk.Raw, r.e.fmKeys)
	if len(fields) == 0 {
		return func() string { return blk.Raw }
	}

	prevValues := map[string]string{}
	prevTrans := map[string]string{}
	if oldBlk != nil && transBlk != nil {
		for _, f := range fm.FrontmatterFields(oldBlk.Raw, r.e.fmKeys) {
			prevValues[f.Key] = f.Value
		}
		for _, f := range fm.FrontmatterFields(transBlk.Raw, r.e.fmKeys) {
			prevTrans[f.Key] = f.Value
		}
	}

	jobs := map[string]*translateJob{}
	values := map[string]string{}
	for _, f := range fields {
		if prev, ok := prevValues[f.Key]; ok && prev == f.Value {
			if t, ok := prevTrans[f.Key]; ok {
				values[f.Key] = t
				r.stats.ReusedCount++
				continue
			}
		}
		jobs[f.Key] = r.translateText(f.Value, "")
	}

	return func() string {
		for k, j := range jobs {
			values[k] = strings.TrimSpace(j.result)
		}
		return fm.ReplaceFrontmatterFields(blk.Raw, fields, values)
	}
}

// pairFrontmatter pairs a leading frontmatter block with the previous one
// however much its fields changed, so unchanged fields keep their values.
func pairFrontmatter(oldDoc, newDoc Document, res align.Alignment) {
	if len(oldDoc.Blocks) == 0 || len(newDoc.Blocks) == 0 {
		return
	}
	if oldDoc.Blocks[0].Type != BlockFrontmatter || newDoc.Blocks[0].Type != BlockFrontmatter {
		return
	}
	if res.NewToOld[0] != align.Unmatched {
		return
	}
	for _, o := range res.NewToOld {
		if o == 0 {
			return
		}
	}
	res.NewToOld[0] = 0
	res.Kinds[0] = align.MatchModified
}

// blockItems converts blocks into matcher items.
func blockItems(doc Document) []align.Item {
	items := make([]align.Item, len(doc.Blocks))
	for i, b := range doc.Blocks {
		text := b.Plain
		if text == "" {
			text = b.Normalized
		}
		items[i] = align.Item{
			Kind:    string(b.Type),
			Key:     HashText(b.Normalized),
			Text:    text,
			Anchor:  b.Type == BlockHeading,
			Level:   b.Level,
			Context: b.HeadingPath,
		}
	}
	return items
}

// mapTranslation pairs the blocks of a source document with the blocks of
// its translation by structure (type and heading level), returning the
// translated index for every source block.
func mapTranslation(src, trans Document) []int {
	out := make([]int, len(src.Blocks))
	for i := range out {
		out[i] = align.Unmatched
	}
	shape := func(doc Document) []string {
		keys := make([]string, len(doc.Blocks))
		for i, b := range doc.Blocks {
			keys[i] = string(b.Type) + "/" + strconv.Itoa(b.Level)
		}
		return keys
	}
	for _, p := range align.LCS(shape(src), shape(trans)) {
		out[p.Old] = p.New
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
