package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// Statuses the blocking layer answers with. Combined with its response
// headers they classify as a challenge rather than a plain HTTP error.
var blockStatuses = map[int]bool{403: true, 429: true, 503: true}

// ImpersonatingTransport is the cheap path: a plain HTTP client whose
// TLS/header fingerprint is massaged to look like a real browser. No JS
// execution, so JS-gated checks defeat it and the caller escalates to
// the browser transport.
type ImpersonatingTransport struct {
	client *resty.Client
	logger *slog.Logger

	probeURL  string
	probeOnce sync.Once
	probeErr  error
}

// NewImpersonatingTransport builds the client. probeURL is fetched once,
// lazily, to decide whether this path works at all from the current
// network; the result is cached for the life of the process.
func NewImpersonatingTransport(probeURL string, logger *slog.Logger) *ImpersonatingTransport {
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err == nil {
		client.SetCookieJar(jar)
	}
	client.SetTimeout(30 * time.Second)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("User-Agent", chromeUA)
	client.SetHeaders(map[string]string{
		"Referer":                   "https://letterboxd.com/",
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.9",
		"Cache-Control":             "no-cache",
		"Pragma":                    "no-cache",
		"Upgrade-Insecure-Requests": "1",
	})

	return &ImpersonatingTransport{client: client, logger: logger, probeURL: probeURL}
}

// Available reports whether the impersonating path works. The probe runs
// once per process; a challenge or network failure on the home page
// means every later call would fail the same way.
func (t *ImpersonatingTransport) Available(ctx context.Context) bool {
	t.probeOnce.Do(func() {
		_, err := t.FetchPage(ctx, t.probeURL, RouteHome)
		t.probeErr = err
		if err != nil {
			t.logger.Info("fetch: impersonating transport unavailable", "error", err)
		}
	})
	return t.probeErr == nil
}

// FetchPage implements Transport.
func (t *ImpersonatingTransport) FetchPage(ctx context.Context, url string, route Route) (string, error) {
	start := time.Now()
	resp, err := t.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", &FetchError{Kind: KindNetwork, URL: url, Err: fmt.Errorf("http get: %w", err)}
	}

	status := resp.StatusCode()
	body := string(resp.Body())

	t.logger.Debug("fetch: http transport",
		"url", url, "status", status, "size", len(body), "duration", time.Since(start))

	if status >= 200 && status < 300 {
		if Classify(body, route) == VerdictChallenge {
			return "", &FetchError{Kind: KindChallenge, URL: url, StatusCode: status}
		}
		return body, nil
	}

	if t.isBlockResponse(resp, body) {
		return "", &FetchError{Kind: KindChallenge, URL: url, StatusCode: status}
	}
	return "", &FetchError{Kind: KindHTTPStatus, URL: url, StatusCode: status}
}

// isBlockResponse distinguishes the blocking layer's refusals from the
// origin's own error pages. A 403 is always treated as a block; 429 and
// 503 only when the response carries the vendor's headers or the body
// classifies as a challenge.
func (t *ImpersonatingTransport) isBlockResponse(resp *resty.Response, body string) bool {
	status := resp.StatusCode()
	if !blockStatuses[status] {
		return false
	}
	if status == 403 {
		return true
	}

	h := resp.Header()
	if h.Get("cf-ray") != "" || h.Get("cf-cache-status") != "" || h.Get("cf-mitigated") != "" {
		return true
	}
	if strings.Contains(strings.ToLower(h.Get("Server")), "cloudflare") {
		return true
	}
	return Classify(body, RouteHome) == VerdictChallenge
}
