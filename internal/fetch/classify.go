package fetch

import "strings"

// Route identifies which page shape the caller expects. The classifier
// uses it to short-circuit on a positive content check: if the expected
// markup is present, the page is real content no matter what phrases
// appear in it.
type Route int

const (
	RouteHome Route = iota
	RouteDiary
	RouteProfile
)

func (r Route) String() string {
	switch r {
	case RouteDiary:
		return "diary"
	case RouteProfile:
		return "profile"
	}
	return "home"
}

// Verdict is the outcome of challenge classification.
type Verdict int

const (
	// VerdictOK means the expected content for the route is present.
	VerdictOK Verdict = iota
	// VerdictChallenge means the page is an anti-bot interstitial.
	VerdictChallenge
	// VerdictUnknown means neither signal fired. Callers accept the
	// page; the parsers skip anything they cannot read anyway.
	VerdictUnknown
)

func (v Verdict) String() string {
	switch v {
	case VerdictOK:
		return "ok"
	case VerdictChallenge:
		return "challenge"
	}
	return "unknown"
}

// Strong markers are fingerprints of the challenge platform itself.
// Any one of them is conclusive.
var strongMarkers = []string{
	"cf-chl-",
	"_cf_chl_opt",
	"cf_chl_prog",
	"challenge-platform",
	"cf-turnstile",
	"challenges.cloudflare.com",
}

// Weak markers are phrases that also occur on ordinary pages that merely
// discuss bot protection. They only count when the page both names the
// blocking vendor and talks about verification.
var weakMarkers = []string{
	"checking your browser",
	"just a moment",
	"security challenge",
	"ddos protection",
	"access denied",
	"permission denied",
}

var verificationPhrases = []string{
	"verify you are human",
	"verifying you are human",
	"captcha",
	"complete the security check",
	"needs to review the security",
}

var contentMarkers = map[Route][]string{
	RouteHome:    {"id=\"content\"", "class=\"site-body\""},
	RouteDiary:   {"id=\"diary-table\"", "diary-entry-row"},
	RouteProfile: {"profile-header", "profile-summary"},
}

// Classify judges whether html is real content for the given route or an
// anti-bot interstitial. It is a pure function so the two-tier heuristic
// can be tested without a fetch path around it.
func Classify(html string, route Route) Verdict {
	lower := strings.ToLower(html)

	for _, m := range contentMarkers[route] {
		if strings.Contains(lower, m) {
			return VerdictOK
		}
	}

	for _, m := range strongMarkers {
		if strings.Contains(lower, m) {
			return VerdictChallenge
		}
	}

	weak := false
	for _, m := range weakMarkers {
		if strings.Contains(lower, m) {
			weak = true
			break
		}
	}
	if weak && strings.Contains(lower, "cloudflare") {
		for _, p := range verificationPhrases {
			if strings.Contains(lower, p) {
				return VerdictChallenge
			}
		}
	}

	return VerdictUnknown
}
