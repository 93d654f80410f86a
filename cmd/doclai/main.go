// Command doclai incrementally translates a documentation tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/doclai"
	"github.com/ZaguanLabs/doclai/cache"
	"github.com/ZaguanLabs/doclai/config"
	"github.com/ZaguanLabs/doclai/gitrev"
	"github.com/ZaguanLabs/doclai/logger"
	"github.com/ZaguanLabs/doclai/processor"
	"github.com/ZaguanLabs/doclai/provider"
	"github.com/ZaguanLabs/doclai/runner"
	"github.com/ZaguanLabs/doclai/workspace"
)

// Build-time variables (can be overridden with ldflags)
var (
	commit    = doclai.GitCommit
	buildDate = doclai.BuildDate
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// globalFlags are shared by every command.
type globalFlags struct {
	configFile  string
	targets     []string
	base        string
	head        string
	logLevel    string
	concurrency int
	dryRun      bool
	all         bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "doclai [files...]",
		Short: doclai.Description,
		Long: `doclai translates the source-language documents that changed between two
git revisions, reusing every block and sentence of the existing translations
that is still valid. Files may also be named explicitly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return translateCmd(cmd, &flags, args)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "Configuration file (default: "+config.DefaultFile+" when present)")
	pf.StringSliceVarP(&flags.targets, "target", "t", nil, "Target languages, comma separated (overrides content.targets)")
	pf.StringVar(&flags.base, "base", "", "Revision holding the previous sources (default: git.base)")
	pf.StringVar(&flags.head, "head", "", "Revision holding the new sources (default: git.head)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	f := root.Flags()
	f.IntVarP(&flags.concurrency, "concurrency", "j", 0, "Files translated in parallel (default: concurrency)")
	f.BoolVar(&flags.dryRun, "dry-run", false, "Translate without writing any file")
	f.BoolVar(&flags.all, "all", false, "Translate every source file instead of the changed ones")

	root.AddCommand(
		newPlanCmd(&flags),
		newVersionCmd(),
		newCacheCmd(&flags),
	)
	return root
}

func loadConfig(flags *globalFlags) (*config.Config, error) {
	overrides := map[string]any{}
	if len(flags.targets) > 0 {
		overrides["content.targets"] = flags.targets
	}
	if flags.base != "" {
		overrides["git.base"] = flags.base
	}
	if flags.head != "" {
		overrides["git.head"] = flags.head
	}
	if flags.logLevel != "" {
		overrides["log.level"] = flags.logLevel
	}
	if flags.concurrency > 0 {
		overrides["concurrency"] = flags.concurrency
	}
	return config.Load(config.Options{File: flags.configFile, Overrides: overrides})
}

func newLogger(cfg *config.Config, out io.Writer) logger.Logger {
	return logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		Output:     out,
		JSON:       cfg.Log.JSON,
		TimeFormat: "15:04:05",
	})
}

func newLayout(cfg *config.Config) *workspace.Layout {
	l := workspace.NewLayout(cfg.Git.Repo)
	l.Root = cfg.Content.Root
	l.SourceLocale = cfg.Content.SourceLocale
	l.Extensions = cfg.Content.Extensions
	l.TreeFiles = cfg.Content.TreeFiles
	l.Exclude = cfg.Content.Exclude
	return l
}

// selectFiles returns the named files, every source file with all, or the
// files changed between the configured revisions.
func selectFiles(layout *workspace.Layout, repo *gitrev.Repo, cfg *config.Config, all bool, args []string) ([]workspace.File, error) {
	switch {
	case len(args) > 0:
		return layout.Select(args), nil
	case all:
		return layout.Discover()
	case repo == nil:
		return nil, errors.New("not a git repository: name files explicitly or use --all")
	}
	changed, err := repo.ChangedFiles(cfg.Git.Base, cfg.Git.Head)
	if err != nil {
		return nil, fmt.Errorf("listing changed files: %w", err)
	}
	return layout.Select(changed), nil
}

func openRepo(cfg *config.Config, log logger.Logger) *gitrev.Repo {
	repo, err := gitrev.Open(cfg.Git.Repo)
	if err != nil {
		log.Warn("git history unavailable, translating from scratch", "error", err)
		return nil
	}
	return repo
}

func newProvider(cfg *config.Config) doclai.AIProvider {
	var p doclai.AIProvider = provider.NewOpenAIProvider(provider.OpenAIConfig{
		APIKey:      cfg.Backend.APIKey,
		Model:       cfg.Backend.Model,
		Temperature: float32(cfg.Backend.Temperature),
		BaseURL:     cfg.Backend.BaseURL,
		JSONMode:    cfg.Backend.JSONMode,
	})

	retryCfg := doclai.DefaultRetryConfig()
	retryCfg.MaxRetries = cfg.Backend.MaxRetries
	p = doclai.NewRetryableProvider(p, retryCfg)

	if cfg.Backend.RequestsPerMinute > 0 {
		p = doclai.NewRateLimitedProvider(p, doclai.RateLimitConfig{
			RequestsPerMinute: cfg.Backend.RequestsPerMinute,
			BurstSize:         cfg.Backend.Burst,
		})
	}
	return p
}

// openCache returns the configured cache, or nil when caching is disabled.
func openCache(ctx context.Context, cfg *config.Config) (doclai.TranslationCache, error) {
	switch {
	case cfg.Cache.RedisURL != "":
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			URL:       cfg.Cache.RedisURL,
			TTL:       cfg.Cache.TTL,
			KeyPrefix: cfg.Cache.KeyPrefix,
		})
	case cfg.Cache.Path != "":
		return cache.OpenFileCache(cfg.Cache.Path)
	}
	return nil, nil
}

func closeCache(c doclai.TranslationCache, log logger.Logger) {
	if f, ok := c.(doclai.FlushableCache); ok {
		if err := f.Flush(); err != nil {
			log.Error("failed to save cache", "error", err)
		}
	}
	if rc, ok := c.(*cache.RedisCache); ok {
		_ = rc.Close()
	}
}

func newEngine(cfg *config.Config, p doclai.AIProvider, c doclai.TranslationCache, log logger.Logger) *doclai.Engine {
	yml := processor.NewYAMLTreeParser()
	opts := []doclai.EngineOption{
		doclai.WithParser(processor.NewMarkdownParser()),
		doclai.WithTreeParser(yml),
		doclai.WithFrontmatter(yml, cfg.Content.FrontmatterKeys...),
		doclai.WithConfig(cfg.Engine),
		doclai.WithSourceLang(cfg.Content.SourceLang),
		doclai.WithStyle(doclai.TranslationStyle(cfg.Backend.Style)),
		doclai.WithLogger(log),
	}
	if c != nil {
		opts = append(opts, doclai.WithCache(c))
	}
	if cfg.Backend.Context != "" {
		opts = append(opts, doclai.WithContext(cfg.Backend.Context))
	}
	if len(cfg.Backend.ExcludedTerms) > 0 {
		opts = append(opts, doclai.WithExcludedTerms(cfg.Backend.ExcludedTerms))
	}
	if len(cfg.Backend.Glossary) > 0 {
		opts = append(opts, doclai.WithGlossary(cfg.Backend.Glossary))
	}
	return doclai.NewEngine(p, opts...)
}

func translateCmd(cmd *cobra.Command, flags *globalFlags, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if cfg.Backend.APIKey == "" {
		return errors.New("backend API key required (backend.api_key, DOCLAI_BACKEND_API_KEY or OPENAI_API_KEY)")
	}
	if len(cfg.Content.Targets) == 0 {
		return errors.New("no target languages configured (--target or content.targets)")
	}

	log := newLogger(cfg, cmd.ErrOrStderr())
	ctx = logger.ContextWithLogger(ctx, log)

	layout := newLayout(cfg)
	repo := openRepo(cfg, log)
	files, err := selectFiles(layout, repo, cfg, flags.all, args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Info("no changed source files")
		return nil
	}

	c, err := openCache(ctx, cfg)
	var cacheErr *doclai.CacheError
	switch {
	case errors.As(err, &cacheErr):
		log.Warn("cache unavailable, continuing without persistence", "error", err)
		c = cache.NewInMemoryCache(0)
	case err != nil:
		return err
	case c != nil:
		defer closeCache(c, log)
	}

	engine := newEngine(cfg, newProvider(cfg), c, log)
	opts := []runner.Option{
		runner.WithConcurrency(cfg.Concurrency),
		runner.WithDryRun(flags.dryRun),
		runner.WithLogger(log),
	}
	if repo != nil {
		opts = append(opts, runner.WithRevisions(repo, cfg.Git.Base))
	}

	log.Info("translating", "files", len(files), "targets", strings.Join(cfg.Content.Targets, ","))
	report, err := runner.New(engine, layout, opts...).Run(ctx, files, cfg.Content.Targets)
	if err != nil {
		return err
	}
	printReport(cmd.OutOrStdout(), report)

	if failed := report.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d translations failed", len(failed), len(report.Results))
	}
	return nil
}

func printReport(w io.Writer, report *runner.Report) {
	for _, res := range report.Results {
		if res.Err != nil {
			fmt.Fprintf(w, "FAIL %s: %v\n", res.Target, res.Err)
			continue
		}
		if res.Stats == nil {
			continue
		}
		fmt.Fprintf(w, "ok   %s reused=%d translated=%d edited=%d cached=%d\n",
			res.Target, res.Stats.ReusedCount, res.Stats.TranslatedCount, res.Stats.EditedCount, res.Stats.CachedCount)
	}
	t := report.Totals()
	fmt.Fprintf(w, "total: blocks=%d reused=%d translated=%d edited=%d spliced=%d cached=%d drift_rejected=%d\n",
		t.TotalBlocks, t.ReusedCount, t.TranslatedCount, t.EditedCount, t.SplicedCount, t.CachedCount, t.DriftRejected)
}

func newPlanCmd(flags *globalFlags) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "plan [files...]",
		Short: "Show the block-level changes of each source file without translating",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			log := newLogger(cfg, cmd.ErrOrStderr())
			layout := newLayout(cfg)
			repo := openRepo(cfg, log)

			files, err := selectFiles(layout, repo, cfg, all, args)
			if err != nil {
				return err
			}
			engine := newEngine(cfg, nil, nil, log)
			out := cmd.OutOrStdout()
			for _, f := range files {
				if f.Kind != workspace.Document {
					fmt.Fprintf(out, "%s: %s\n", f.Source, f.Kind)
					continue
				}
				source, _, err := layout.Read(f.Source)
				if err != nil {
					return err
				}
				var prev string
				if repo != nil {
					if prev, _, err = repo.Show(cfg.Git.Base, f.Source); err != nil {
						log.Warn("previous revision unavailable", "file", f.Source, "error", err)
					}
				}
				diff, err := engine.Plan(prev, source)
				if err != nil {
					return err
				}
				if !diff.HasChanges() {
					fmt.Fprintf(out, "%s: no changes\n", f.Source)
					continue
				}
				s := diff.Stats()
				fmt.Fprintf(out, "%s: unchanged=%d modified=%d added=%d removed=%d translate=%d\n",
					f.Source, s.Unchanged, s.Modified, s.Added, s.Removed, len(diff.NeedsTranslation()))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Plan every source file instead of the changed ones")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", doclai.Name, doclai.FullVersion())
			if commit != "unknown" && commit != "" {
				fmt.Fprintf(out, "  commit:  %s\n", commit)
			}
			if buildDate != "unknown" && buildDate != "" {
				fmt.Fprintf(out, "  built:   %s\n", buildDate)
			}
		},
	}
}
