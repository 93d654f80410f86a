// Package runner drives the engine over a set of source files and target
// languages.
package runner

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ZaguanLabs/doclai"
	"github.com/ZaguanLabs/doclai/logger"
	"github.com/ZaguanLabs/doclai/workspace"
)

// RevisionReader reads a file as it was at a revision.
type RevisionReader interface {
	Show(rev, path string) (content string, found bool, err error)
}

// Runner translates files with one engine.
type Runner struct {
	engine      *doclai.Engine
	layout      *workspace.Layout
	revs        RevisionReader
	base        string
	concurrency int
	dryRun      bool
	log         logger.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithRevisions reads previous sources from revs at base. Without it every
// file is treated as new.
func WithRevisions(revs RevisionReader, base string) Option {
	return func(r *Runner) {
		r.revs = revs
		r.base = base
	}
}

// WithConcurrency bounds the number of jobs running at once.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithDryRun translates without writing results.
func WithDryRun(dryRun bool) Option {
	return func(r *Runner) {
		r.dryRun = dryRun
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// New creates a Runner.
func New(engine *doclai.Engine, layout *workspace.Layout, opts ...Option) *Runner {
	r := &Runner{
		engine:      engine,
		layout:      layout,
		concurrency: 1,
		log:         logger.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result is the outcome of one (file, language) job.
type Result struct {
	File   workspace.File
	Lang   string
	Target string
	Stats  *doclai.ProcessedContent
	Err    error
}

// Report collects the results of a run in job order.
type Report struct {
	Results []Result
}

// Failed returns the results that carry an error.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Err joins every per-file error, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, res.Err)
	}
	return errors.Join(errs...)
}

// Totals sums the statistics of all successful jobs.
func (r *Report) Totals() doclai.ProcessedContent {
	var t doclai.ProcessedContent
	for _, res := range r.Results {
		if res.Stats == nil {
			continue
		}
		t.TotalBlocks += res.Stats.TotalBlocks
		t.ReusedCount += res.Stats.ReusedCount
		t.TranslatedCount += res.Stats.TranslatedCount
		t.EditedCount += res.Stats.EditedCount
		t.SplicedCount += res.Stats.SplicedCount
		t.CachedCount += res.Stats.CachedCount
		t.DriftRejected += res.Stats.DriftRejected
	}
	return t
}

// Run translates every file into every language. A failing job is recorded
// in the report and never stops the others. The returned error is only set
// when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, files []workspace.File, langs []string) (*Report, error) {
	type job struct {
		file workspace.File
		lang string
	}
	var jobs []job
	for _, f := range files {
		for _, lang := range langs {
			if r.engine.IsSourceLang(lang) {
				continue
			}
			jobs = append(jobs, job{file: f, lang: lang})
		}
	}

	report := &Report{Results: make([]Result, len(jobs))}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := r.translate(gctx, j.file, j.lang)
			if res.Err != nil {
				r.log.Error("translation failed", "file", j.file.Source, "lang", j.lang, "error", res.Err)
			}
			mu.Lock()
			report.Results[i] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, ctx.Err()
}

func (r *Runner) translate(ctx context.Context, f workspace.File, lang string) Result {
	target := r.layout.TargetPath(f, lang)
	res := Result{File: f, Lang: lang, Target: target}
	fail := func(err error) Result {
		res.Err = &doclai.FileError{Path: f.Source, Lang: lang, Cause: err}
		return res
	}

	source, exists, err := r.layout.Read(f.Source)
	if err != nil {
		return fail(err)
	}
	if !exists {
		r.log.Debug("source removed, skipping", "file", f.Source)
		return res
	}

	var prevSource string
	if r.revs != nil {
		prev, found, err := r.revs.Show(r.base, f.Source)
		if err != nil {
			r.log.Warn("previous revision unavailable, translating from scratch", "file", f.Source, "rev", r.base, "error", err)
		} else if found {
			prevSource = prev
		}
	}
	prevTrans, _, err := r.layout.Read(target)
	if err != nil {
		return fail(err)
	}
	if prevTrans == "" {
		prevSource = ""
	}

	var out *doclai.ProcessedContent
	switch f.Kind {
	case workspace.Tree:
		out, err = r.engine.TranslateTree(ctx, doclai.TreeRequest{
			Path:            f.Source,
			TargetLang:      lang,
			Source:          source,
			PrevSource:      prevSource,
			PrevTranslation: prevTrans,
		})
	default:
		out, err = r.engine.TranslateDocument(ctx, doclai.DocumentRequest{
			Path:            f.Source,
			TargetLang:      lang,
			Source:          source,
			PrevSource:      prevSource,
			PrevTranslation: prevTrans,
		})
	}
	if err != nil {
		return fail(err)
	}
	res.Stats = out

	if r.dryRun || out.Content == prevTrans {
		return res
	}
	if err := r.layout.Write(target, out.Content); err != nil {
		return fail(err)
	}
	r.log.Debug("wrote translation", "file", target)
	return res
}
