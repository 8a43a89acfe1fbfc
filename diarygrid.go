// Package diarygrid turns a public film diary into a calendar-style
// activity visualization: it fetches paginated diary listings, parses
// watch events, aggregates them into a year-aligned weekly grid, and
// renders the grid as themed SVG plus a structured export record.
package diarygrid

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sourcegraph/conc"

	"diarygrid/internal/aggregate"
	"diarygrid/internal/browser"
	"diarygrid/internal/diary"
	"diarygrid/internal/export"
	"diarygrid/internal/fetch"
	"diarygrid/internal/letterboxd"
	"diarygrid/internal/pagecache"
	"diarygrid/internal/render"
)

// Request describes one pipeline run.
type Request struct {
	Username         string
	Years            []int
	WeekStart        aggregate.WeekStart
	Mode             aggregate.Mode
	UsernameGradient bool

	// ProbeEarlierYears makes an empty single-year result fall back to
	// the two preceding years before giving up.
	ProbeEarlierYears bool
}

// Result is everything a run produces. All fields are immutable once
// returned.
type Result struct {
	Entries   []diary.Entry
	Aggregate *aggregate.Aggregate
	Profile   diary.Profile
	SVGDark   string
	SVGLight  string
	Export    *export.Record

	// Years is the range actually rendered, which can differ from the
	// request when the earlier-year probe kicked in.
	Years []int
}

// Pipeline owns the transport stack and the shared automation session.
// One Pipeline serves many runs; Close releases the session.
type Pipeline struct {
	cfg     *Config
	logger  *slog.Logger
	session *browser.Session
	fetcher *fetch.Fetcher
	cache   *pagecache.Cache
}

// New assembles the pipeline. The browser is not launched until a run
// actually escalates to it.
func New(cfg *Config, logger *slog.Logger) (*Pipeline, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	homeURL := letterboxd.HomeURL(cfg.Source.BaseURL)

	session := browser.NewSession(browser.Config{
		RemoteURL:        cfg.Browser.Remote,
		BlockedResources: cfg.Browser.BlockedResources,
		Logger:           logger,
	})

	impersonating := fetch.NewImpersonatingTransport(homeURL, logger)
	fallback := fetch.NewBrowserTransport(session, homeURL, logger)

	opts := []fetch.Option{
		fetch.WithPrimary(impersonating, impersonating.Available),
		fetch.WithRecoverer(session),
	}

	var cache *pagecache.Cache
	if cfg.Cache.Path != "" {
		var err error
		cache, err = pagecache.Open(cfg.Cache.Path, cfg.Cache.TTL)
		if err != nil {
			session.Close()
			return nil, fmt.Errorf("diarygrid: open page cache: %w", err)
		}
		opts = append(opts, fetch.WithCache(cache))
	}

	fetcher := fetch.New(fetch.Config{
		BaseURL:       cfg.Source.BaseURL,
		MaxAttempts:   cfg.Source.MaxAttempts,
		PageDelay:     cfg.Source.PageDelay,
		TeardownAfter: cfg.Source.TeardownAfter,
		Logger:        logger,
	}, fallback, opts...)

	return &Pipeline{
		cfg:     cfg,
		logger:  logger,
		session: session,
		fetcher: fetcher,
		cache:   cache,
	}, nil
}

// newWithFetcher wires a ready-made fetcher, for tests that substitute
// fake transports.
func newWithFetcher(f *fetch.Fetcher, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{cfg: DefaultConfig(), logger: logger, fetcher: f}
}

// Run executes one fetch→parse→aggregate→render pass.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Username == "" {
		return nil, fmt.Errorf("diarygrid: username is required")
	}
	if len(req.Years) == 0 {
		return nil, fmt.Errorf("diarygrid: at least one year is required")
	}

	entries, years, err := p.fetchYears(ctx, req)
	if err != nil {
		return nil, err
	}

	profile, err := p.fetcher.Profile(ctx, req.Username)
	if err != nil {
		// Profile data is cosmetic: fall back to the raw username and
		// zeroed statistics rather than aborting the run.
		p.logger.Warn("diarygrid: profile fetch failed, using fallback",
			"username", req.Username, "error", err)
		profile = diary.FallbackProfile(req.Username)
	}

	agg := aggregate.Build(entries, aggregate.Options{
		Years:     years,
		WeekStart: req.WeekStart,
		Mode:      req.Mode,
	})

	renderOpts := render.Options{Mode: req.Mode, UsernameGradient: req.UsernameGradient}

	res := &Result{
		Entries:   entries,
		Aggregate: agg,
		Profile:   profile,
		Export:    export.Build(entries, agg, profile),
		Years:     years,
	}

	// Both theme variants are pure functions over the same inputs.
	var wg conc.WaitGroup
	wg.Go(func() { res.SVGDark = render.SVG(entries, agg, profile, renderOpts, render.Dark) })
	wg.Go(func() { res.SVGLight = render.SVG(entries, agg, profile, renderOpts, render.Light) })
	wg.Wait()

	return res, nil
}

// fetchYears walks the requested years in caller order. A failure on the
// first target blocks the run; later targets degrade to whatever was
// gathered.
func (p *Pipeline) fetchYears(ctx context.Context, req Request) ([]diary.Entry, []int, error) {
	var entries []diary.Entry
	var years []int

	for i, year := range req.Years {
		got, err := p.fetcher.DiaryYear(ctx, req.Username, year)
		if err != nil {
			if i == 0 {
				return nil, nil, fmt.Errorf("diarygrid: %w", err)
			}
			p.logger.Warn("diarygrid: year fetch failed, continuing with partial data",
				"year", year, "error", err)
			continue
		}
		entries = append(entries, got...)
		years = append(years, year)
	}

	// Zero entries is a valid outcome, not an error. For a single-year
	// request it optionally triggers a probe of nearby years.
	if len(entries) == 0 && len(req.Years) == 1 && req.ProbeEarlierYears {
		base := req.Years[0]
		for _, year := range []int{base - 1, base - 2} {
			p.logger.Info("diarygrid: empty year, probing earlier", "year", year)
			got, err := p.fetcher.DiaryYear(ctx, req.Username, year)
			if err != nil || len(got) == 0 {
				continue
			}
			return got, []int{year}, nil
		}
	}

	if len(years) == 0 {
		years = req.Years
	}
	return entries, years, nil
}

// Close releases the shared automation session and the page cache.
func (p *Pipeline) Close() error {
	if p.cache != nil {
		p.cache.Close()
	}
	if p.session != nil {
		return p.session.Close()
	}
	return nil
}
