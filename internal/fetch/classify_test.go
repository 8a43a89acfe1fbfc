package fetch

import "testing"

func TestClassify_StrongMarker(t *testing.T) {
	html := `<html><head><script src="/cdn-cgi/challenge-platform/h/b/orchestrate"></script></head><body></body></html>`
	if v := Classify(html, RouteDiary); v != VerdictChallenge {
		t.Errorf("expected challenge, got %s", v)
	}
}

func TestClassify_WeakMarkerAlone(t *testing.T) {
	// A page that merely discusses bot protection must not classify as
	// a challenge.
	html := `<html><body><article><p>What does "checking your browser" actually mean?
	A look at DDoS protection vendors.</p></article></body></html>`
	if v := Classify(html, RouteHome); v != VerdictUnknown {
		t.Errorf("expected unknown, got %s", v)
	}
}

func TestClassify_WeakMarkerWithVendorButNoVerification(t *testing.T) {
	html := `<html><body><p>Cloudflare said "just a moment" in its earnings call.</p></body></html>`
	if v := Classify(html, RouteHome); v != VerdictUnknown {
		t.Errorf("expected unknown, got %s", v)
	}
}

func TestClassify_WeakTier(t *testing.T) {
	html := `<html><head><title>Just a moment...</title></head>
	<body>Checking your browser before accessing. Verify you are human.
	Performance and security by Cloudflare.</body></html>`
	if v := Classify(html, RouteDiary); v != VerdictChallenge {
		t.Errorf("expected challenge, got %s", v)
	}
}

func TestClassify_ContentShapeShortCircuits(t *testing.T) {
	// Expected markup present: accept the page even if it contains
	// phrases that would otherwise look suspicious.
	html := `<html><body><table id="diary-table"></table>
	<p>Checking your browser? Verify you are human? Cloudflare captcha drama explained.</p></body></html>`
	if v := Classify(html, RouteDiary); v != VerdictOK {
		t.Errorf("expected ok, got %s", v)
	}
}

func TestClassify_ProfileShape(t *testing.T) {
	html := `<html><body><section class="profile-header"><h1 class="title-3">Someone</h1></section></body></html>`
	if v := Classify(html, RouteProfile); v != VerdictOK {
		t.Errorf("expected ok, got %s", v)
	}
}

func TestClassify_PlainPage(t *testing.T) {
	html := `<html><body><p>hello</p></body></html>`
	if v := Classify(html, RouteDiary); v != VerdictUnknown {
		t.Errorf("expected unknown, got %s", v)
	}
}
