// Package browser manages the shared browser-automation session used as
// the fallback transport: Chrome lifecycle via rod, stealth tabs,
// subresource blocking, and rotation/teardown as challenge recovery.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// Config configures the browser session.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string

	// BlockedResources lists subresource types to block on every tab
	// (images, fonts, media). Cuts load time and detection surface.
	BlockedResources []string

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.BlockedResources == nil {
		c.BlockedResources = []string{"images", "fonts", "media"}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Session is a lazily-created, shared Chrome handle. One Session serves
// a whole pipeline run; the fetcher owns its lifecycle and tears it down
// after repeated challenge failures or at the end of the run.
type Session struct {
	cfg     Config
	blocked blocklist

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	primed  bool
	closed  bool
}

// NewSession creates a Session. Chrome is not launched until the first
// Browser call.
func NewSession(cfg Config) *Session {
	cfg.defaults()
	return &Session{cfg: cfg, blocked: newBlocklist(cfg.BlockedResources)}
}

// Browser returns the connected rod handle, launching Chrome on first use.
func (s *Session) Browser(ctx context.Context) (*rod.Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("browser: session is closed")
	}
	if s.browser != nil {
		return s.browser, nil
	}

	b, err := s.launch()
	if err != nil {
		return nil, err
	}
	s.browser = b
	return b, nil
}

// Primed reports whether the warm-up visit already ran for the current
// Chrome instance.
func (s *Session) Primed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.primed
}

// SetPrimed marks the warm-up visit as done.
func (s *Session) SetPrimed(v bool) {
	s.mu.Lock()
	s.primed = v
	s.mu.Unlock()
}

// Teardown kills Chrome entirely. The next Browser call launches a fresh
// instance and the priming flag is reset, so recovery starts from a
// clean fingerprint.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Logger.Info("browser: tearing down session")
	s.cleanup()
	s.primed = false
}

// Close shuts the session down for good.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cleanup()
	return nil
}

func (s *Session) launch() (*rod.Browser, error) {
	log := s.cfg.Logger

	var wsURL string
	if s.cfg.RemoteURL != "" {
		wsURL = s.cfg.RemoteURL
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().Headless(true)
		// Anti-detection flags.
		l = l.Set("disable-blink-features", "AutomationControlled")

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		s.lnch = l
		log.Info("browser: launched local chrome")
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	return b, nil
}

func (s *Session) cleanup() {
	if s.browser != nil {
		s.browser.Close()
		s.browser = nil
	}
	if s.lnch != nil {
		s.lnch.Cleanup()
		s.lnch = nil
	}
}
