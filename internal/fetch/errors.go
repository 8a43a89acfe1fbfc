package fetch

import (
	"errors"
	"fmt"
)

// Kind classifies a fetch failure. The fetcher's retry policy keys off
// the kind, never off the concrete transport that produced it.
type Kind int

const (
	// KindNetwork covers connection failures and timeouts.
	KindNetwork Kind = iota
	// KindHTTPStatus covers non-2xx responses that are not challenges.
	KindHTTPStatus
	// KindChallenge means the response was judged to be an anti-bot
	// interstitial rather than real content.
	KindChallenge
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindHTTPStatus:
		return "http_status"
	case KindChallenge:
		return "challenge"
	}
	return "unknown"
}

// FetchError is the error type surfaced by every Transport.
type FetchError struct {
	Kind       Kind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch: %s %s: %v", e.Kind, e.URL, e.Err)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch: %s %s: http %d", e.Kind, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch: %s %s", e.Kind, e.URL)
}

func (e *FetchError) Unwrap() error { return e.Err }

func kindOf(err error) (Kind, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}

// IsChallenge reports whether err is a challenge-classified fetch failure.
func IsChallenge(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindChallenge
}

// IsNetwork reports whether err is a connection or timeout failure.
func IsNetwork(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindNetwork
}
