// Package fetch implements the resilient acquisition layer: two
// interchangeable transports (an impersonating HTTP client and a
// browser-automation fallback), challenge classification, and the
// retrying paginated fetcher that drives them.
package fetch

import "context"

// Transport issues a single GET for a URL and returns the page text.
// Failures are always a *FetchError; callers see the three kinds and
// never learn which implementation served the call.
type Transport interface {
	FetchPage(ctx context.Context, url string, route Route) (string, error)
}
