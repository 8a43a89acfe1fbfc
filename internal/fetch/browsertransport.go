package fetch

import (
	"context"
	"log/slog"
	"time"

	"diarygrid/internal/browser"
)

// BrowserTransport is the expensive path: a real rendered page via the
// shared automation session. Handles JS-gated checks the impersonating
// client cannot pass.
type BrowserTransport struct {
	session *browser.Session
	homeURL string
	logger  *slog.Logger
}

// NewBrowserTransport wraps an automation session. homeURL is visited
// once per Chrome instance before the first real request, to acquire
// baseline cookies and confirm the session itself is not challenged.
func NewBrowserTransport(session *browser.Session, homeURL string, logger *slog.Logger) *BrowserTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserTransport{session: session, homeURL: homeURL, logger: logger}
}

// FetchPage implements Transport.
func (t *BrowserTransport) FetchPage(ctx context.Context, url string, route Route) (string, error) {
	if !t.session.Primed() {
		if err := t.prime(ctx); err != nil {
			return "", err
		}
	}

	start := time.Now()
	html, err := t.navigate(ctx, url)
	if err != nil {
		return "", &FetchError{Kind: KindNetwork, URL: url, Err: err}
	}

	verdict := Classify(html, route)
	t.logger.Debug("fetch: browser transport",
		"url", url, "verdict", verdict.String(), "size", len(html), "duration", time.Since(start))

	if verdict == VerdictChallenge {
		return "", &FetchError{Kind: KindChallenge, URL: url}
	}
	return html, nil
}

// prime visits the home page once per Chrome instance. Its result is
// cached on the session, so rotation of a single tab keeps the warm
// cookies while a full teardown resets them.
func (t *BrowserTransport) prime(ctx context.Context) error {
	html, err := t.navigate(ctx, t.homeURL)
	if err != nil {
		return &FetchError{Kind: KindNetwork, URL: t.homeURL, Err: err}
	}
	if Classify(html, RouteHome) == VerdictChallenge {
		return &FetchError{Kind: KindChallenge, URL: t.homeURL}
	}
	t.session.SetPrimed(true)
	t.logger.Debug("fetch: browser session primed")
	return nil
}

func (t *BrowserTransport) navigate(ctx context.Context, url string) (string, error) {
	tab, err := browser.OpenTab(ctx, t.session, url)
	if err != nil {
		return "", err
	}
	defer tab.Close()

	return tab.HTML(ctx)
}
