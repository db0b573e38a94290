package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"CommunityScanner/internal/config"
	"CommunityScanner/internal/domain"
	"CommunityScanner/internal/infrastructure/browser"
	"CommunityScanner/internal/infrastructure/console"
	"CommunityScanner/internal/infrastructure/credentials"
	"CommunityScanner/internal/infrastructure/parser"
	"CommunityScanner/internal/infrastructure/reddit"
	"CommunityScanner/internal/infrastructure/spreadsheet"
	"CommunityScanner/internal/logging"
	"CommunityScanner/internal/ports"
	"CommunityScanner/internal/scanner"
	"CommunityScanner/internal/usecase"
)

// Application wires configs to sources, platform profiles and the pipeline.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	out      io.Writer
	registry *scanner.Registry
	profiles map[string]Profile
	store    *credentials.Store
}

// Option overrides a collaborator, mostly for tests.
type Option func(*options)

type options struct {
	out      io.Writer
	browser  ports.BrowserFactory
	prompter ports.Prompter
	now      func() time.Time
}

// WithOutput sends console reports to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithBrowser replaces the Chrome-backed browser factory.
func WithBrowser(f ports.BrowserFactory) Option {
	return func(o *options) { o.browser = f }
}

// WithPrompter replaces the terminal prompt used for missing credentials.
func WithPrompter(p ports.Prompter) Option {
	return func(o *options) { o.prompter = p }
}

// WithClock fixes the time used by the recency check.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// RunOptions are the per-invocation inputs of one platform search.
type RunOptions struct {
	Platform string
	Criteria domain.FilterCriteria
	// MaxLoads bounds "load more" expansions. Zero loads nothing beyond the
	// first page; UseConfiguredLoads (any negative value) takes discord.maxLoads.
	MaxLoads int
	Output   string
	Verbose  bool
}

// UseConfiguredLoads asks Run for the configured number of expansions.
const UseConfiguredLoads = -1

// Report describes what a run produced.
type Report struct {
	usecase.Result
	Written int
	Output  string
}

// New builds the application; no network or browser activity happens until Run.
func New(cfg config.Config, baseLogger *slog.Logger, opts ...Option) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	o := options{out: os.Stdout, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.browser == nil {
		o.browser = browser.Factory(browser.Options{
			ExecPath:     cfg.Browser.ExecPath,
			ShowWindow:   cfg.Browser.ShowWindow,
			UserAgent:    cfg.Browser.UserAgent,
			ClickTimeout: cfg.Browser.ClickTimeout,
		})
	}
	if o.prompter == nil {
		o.prompter = credentials.NewTerminalPrompter()
	}

	store := credentials.NewStore(cfg.Reddit.CredentialsPath, o.prompter, cfg.Reddit.UserAgent,
		baseLogger.With("component", "credentials"))

	directory := parser.NewDirectoryScanner(o.browser, parser.DirectoryOptions{
		BaseURL:      cfg.Discord.BaseURL,
		LoadMoreText: cfg.Discord.LoadMoreText,
		InitialWait:  cfg.Browser.InitialWait,
		ScrollWait:   cfg.Browser.ScrollWait,
		ClickWait:    cfg.Browser.ClickWait,
	}, baseLogger.With("component", "scanner.discord"))

	client := reddit.NewClient(reddit.Options{
		AuthURL:           cfg.Reddit.AuthURL,
		APIURL:            cfg.Reddit.APIURL,
		PageSize:          cfg.Reddit.PageSize,
		RequestsPerMinute: cfg.Reddit.RequestsPerMinute,
		RequestTimeout:    cfg.Reddit.RequestTimeout,
	}, baseLogger.With("component", "reddit.client"))
	redditSource := reddit.NewSource(client, store, reddit.SourceOptions{
		Listings:      cfg.Reddit.Listings,
		SearchQueries: cfg.Reddit.SearchQueries,
		WebURL:        cfg.Reddit.WebURL,
	}, baseLogger.With("component", "scanner.reddit"))

	registry := scanner.NewRegistry()
	registry.Register(directory)
	registry.Register(redditSource)

	enricherLogger := baseLogger.With("component", "enricher")
	profiles := map[string]Profile{
		PlatformDiscord: discordProfile(),
		PlatformReddit: redditProfile(client, o.now,
			reddit.NewRulesEnricher(client, enricherLogger),
			reddit.NewOnlineCounter(cfg.Reddit.PageUserAgent, cfg.Reddit.OnlineTimeout, enricherLogger),
		),
	}

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		out:      o.out,
		registry: registry,
		profiles: profiles,
		store:    store,
	}
}

// Platforms lists the names Run accepts.
func (a *Application) Platforms() []string {
	return a.registry.Names()
}

// Run searches one platform and writes accepted communities to opts.Output.
// No file is written when nothing is accepted.
func (a *Application) Run(ctx context.Context, opts RunOptions) (Report, error) {
	report := Report{Output: opts.Output}

	if err := spreadsheet.ValidatePath(opts.Output); err != nil {
		return report, err
	}
	profile, ok := a.profiles[opts.Platform]
	if !ok {
		return report, fmt.Errorf("unknown platform %q", opts.Platform)
	}
	source, err := a.registry.Resolve(profile.Source)
	if err != nil {
		return report, err
	}

	maxLoads := opts.MaxLoads
	if maxLoads < 0 {
		maxLoads = a.cfg.Discord.MaxLoads
	}

	reporter := console.NewReporter(a.out, profile.Fields, opts.Verbose)
	exporter := spreadsheet.NewExporter(a.cfg.Export.SheetName, profile.Columns)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:   source,
		Filter:   usecase.NewFilter(profile.Checks...),
		Enricher: profile.Enricher,
		Sinks:    []ports.RecordSink{reporter, exporter},
		Tracer:   reporter,
		Logger:   a.logger.With("component", "pipeline", "platform", opts.Platform),
	})

	res, err := pipeline.Run(ctx, scanner.Request{Keyword: opts.Criteria.Keyword, MaxLoads: maxLoads}, opts.Criteria)
	report.Result = res
	if err != nil {
		return report, err
	}

	if exporter.Len() == 0 {
		a.logger.Info("no communities matched", "platform", opts.Platform, "examined", res.Examined)
		return report, nil
	}
	if err := exporter.Flush(opts.Output); err != nil {
		return report, fmt.Errorf("export: %w", err)
	}
	report.Written = exporter.Len()
	reporter.Summary()

	a.logger.Info("export written", "path", opts.Output, "rows", report.Written)
	return report, nil
}

// SaveCredentials stores platform credentials, prompting for missing fields.
func (a *Application) SaveCredentials(ctx context.Context, partial domain.Credentials) (string, error) {
	if a.store == nil {
		return "", errors.New("credential store is not configured")
	}
	if _, err := a.store.Replace(ctx, partial); err != nil {
		return "", err
	}
	return a.store.Path(), nil
}
