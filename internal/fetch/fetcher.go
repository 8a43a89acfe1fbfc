package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"diarygrid/internal/diary"
	"diarygrid/internal/letterboxd"
	"diarygrid/internal/parse"
)

// SessionRecoverer tears down the automation session so the next call
// recreates it from scratch. Satisfied by *browser.Session.
type SessionRecoverer interface {
	Teardown()
}

// PageCache is an optional read-through cache consulted before the
// network. Satisfied by *pagecache.Cache.
type PageCache interface {
	Get(ctx context.Context, url string) (string, bool)
	Put(ctx context.Context, url, body string) error
}

// Config configures the Fetcher.
type Config struct {
	// BaseURL of the source site. Default: letterboxd.BaseURL.
	BaseURL string

	// MaxAttempts bounds retries per logical fetch target. Default: 6.
	MaxAttempts int

	// PageDelay is the fixed pause between successful page fetches
	// within one pagination run. Rate limiting the source is a design
	// requirement, not an optimization. Default: 2s.
	PageDelay time.Duration

	// TeardownAfter is the number of consecutive challenge failures
	// after which the whole automation session is recreated. Default: 3.
	TeardownAfter int

	// NavTimeout for attempt 1; each further attempt adds NavTimeoutStep
	// so a slow challenge resolution gets room without compounding
	// indefinitely. Defaults: 20s + 10s.
	NavTimeout     time.Duration
	NavTimeoutStep time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = letterboxd.BaseURL
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 6
	}
	if c.PageDelay <= 0 {
		c.PageDelay = 2 * time.Second
	}
	if c.TeardownAfter <= 0 {
		c.TeardownAfter = 3
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 20 * time.Second
	}
	if c.NavTimeoutStep <= 0 {
		c.NavTimeoutStep = 10 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Option configures optional Fetcher behavior.
type Option func(*Fetcher)

// WithPrimary sets the cheap transport tried first. available is probed
// per call and may be nil (always available).
func WithPrimary(t Transport, available func(context.Context) bool) Option {
	return func(f *Fetcher) {
		f.primary = t
		f.primaryOK = available
	}
}

// WithRecoverer sets the session teardown hook for challenge recovery.
func WithRecoverer(r SessionRecoverer) Option {
	return func(f *Fetcher) { f.recover = r }
}

// WithCache sets the read-through page cache.
func WithCache(c PageCache) Option {
	return func(f *Fetcher) { f.cache = c }
}

// WithSleep replaces the delay function. Tests run retries with zero
// real delay through this.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(f *Fetcher) { f.sleep = fn }
}

// WithBackoff replaces both backoff curves, for deterministic jitter in
// tests.
func WithBackoff(network, challenge Backoff) Option {
	return func(f *Fetcher) {
		f.netBackoff = network
		f.chBackoff = challenge
	}
}

// Fetcher owns retry, backoff, challenge recovery, and pagination order.
// It drives transports and never learns which one served a call beyond
// the error kinds they return.
type Fetcher struct {
	cfg Config

	primary   Transport
	primaryOK func(context.Context) bool
	fallback  Transport
	recover   SessionRecoverer
	cache     PageCache

	netBackoff Backoff
	chBackoff  Backoff
	sleep      func(context.Context, time.Duration) error

	// challengeStreak counts consecutive challenge-classified failures
	// across attempts; any other outcome resets it. The daemon shares
	// one Fetcher across requests, so the counter is mutex-guarded.
	mu              sync.Mutex
	challengeStreak int
}

func (f *Fetcher) bumpStreak() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.challengeStreak++
	return f.challengeStreak
}

func (f *Fetcher) resetStreak() {
	f.mu.Lock()
	f.challengeStreak = 0
	f.mu.Unlock()
}

// New creates a Fetcher around the mandatory fallback transport.
func New(cfg Config, fallback Transport, opts ...Option) *Fetcher {
	cfg.defaults()
	f := &Fetcher{
		cfg:        cfg,
		fallback:   fallback,
		netBackoff: networkBackoff(),
		chBackoff:  challengeBackoff(),
		sleep:      sleep,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// DiaryYear fetches and parses every diary page for one user and year,
// in ascending page order. A failure on page 1 is fatal for the target;
// a failure on a later page degrades to "no more pages" since partial
// diary data is still useful.
func (f *Fetcher) DiaryYear(ctx context.Context, username string, year int) ([]diary.Entry, error) {
	log := f.cfg.Logger

	var entries []diary.Entry
	pctx := parse.Context{}

	for page := 1; ; page++ {
		url := letterboxd.DiaryPageURL(f.cfg.BaseURL, username, year, page)

		html, err := f.fetchOne(ctx, url, RouteDiary)
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("fetch: diary year %d page 1: %w", year, err)
			}
			log.Warn("fetch: later page failed, treating as end of pagination",
				"year", year, "page", page, "error", err)
			break
		}

		res := parse.DiaryPage(html, year, pctx)
		entries = append(entries, res.Entries...)
		log.Info("fetch: diary page parsed",
			"year", year, "page", page, "entries", len(res.Entries), "has_next", res.HasNextPage)

		if len(res.Entries) == 0 || !res.HasNextPage {
			break
		}
		pctx = res.Context

		if err := f.sleep(ctx, f.cfg.PageDelay); err != nil {
			return entries, err
		}
	}

	return entries, nil
}

// Profile fetches and parses the public profile page.
func (f *Fetcher) Profile(ctx context.Context, username string) (diary.Profile, error) {
	url := letterboxd.ProfileURL(f.cfg.BaseURL, username)
	html, err := f.fetchOne(ctx, url, RouteProfile)
	if err != nil {
		return diary.Profile{}, fmt.Errorf("fetch: profile: %w", err)
	}
	p := parse.ProfilePage(html)
	p.Username = username
	return p, nil
}

// fetchOne retrieves a single URL through the transport stack with
// bounded retries. Challenge failures back off harder than network ones
// and periodically force a session teardown.
func (f *Fetcher) fetchOne(ctx context.Context, url string, route Route) (string, error) {
	log := f.cfg.Logger

	if f.cache != nil {
		if body, ok := f.cache.Get(ctx, url); ok {
			log.Debug("fetch: cache hit", "url", url)
			return body, nil
		}
	}

	var lastErr error
	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		actx, cancel := context.WithTimeout(ctx, f.cfg.NavTimeout+time.Duration(attempt-1)*f.cfg.NavTimeoutStep)
		body, err := f.attempt(actx, url, route)
		cancel()

		if err == nil {
			f.resetStreak()
			if f.cache != nil {
				if cerr := f.cache.Put(ctx, url, body); cerr != nil {
					log.Warn("fetch: cache put failed", "url", url, "error", cerr)
				}
			}
			return body, nil
		}
		lastErr = err

		var delay time.Duration
		if IsChallenge(err) {
			streak := f.bumpStreak()
			if f.recover != nil && streak%f.cfg.TeardownAfter == 0 {
				log.Info("fetch: consecutive challenges, recreating automation session",
					"streak", streak)
				f.recover.Teardown()
			}
			delay = f.chBackoff.Delay(attempt)
		} else {
			// A network or status failure breaks the run of challenges,
			// so the teardown counter starts over.
			f.resetStreak()
			delay = f.netBackoff.Delay(attempt)
		}

		if attempt == f.cfg.MaxAttempts {
			break
		}

		log.Warn("fetch: attempt failed, retrying",
			"url", url, "attempt", attempt, "delay", delay, "error", err)
		if serr := f.sleep(ctx, delay); serr != nil {
			return "", serr
		}
	}

	return "", fmt.Errorf("fetch: %d attempts exhausted: %w", f.cfg.MaxAttempts, lastErr)
}

// attempt runs one logical try: the impersonating client first when it
// is available, escalating to the browser transport when the cheap path
// is missing or itself reports a challenge.
func (f *Fetcher) attempt(ctx context.Context, url string, route Route) (string, error) {
	if f.primary != nil && (f.primaryOK == nil || f.primaryOK(ctx)) {
		body, err := f.primary.FetchPage(ctx, url, route)
		if err == nil {
			return body, nil
		}
		if !IsChallenge(err) || f.fallback == nil {
			return "", err
		}
		f.cfg.Logger.Debug("fetch: escalating to browser transport", "url", url)
	} else if f.fallback == nil {
		return "", fmt.Errorf("fetch: no transport available")
	}

	return f.fallback.FetchPage(ctx, url, route)
}
