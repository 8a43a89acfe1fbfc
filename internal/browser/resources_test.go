package browser

import "testing"

func TestBlocklist(t *testing.T) {
	bl := newBlocklist([]string{"images", "Fonts", "media"})

	cases := map[string]bool{
		"Image":      true,
		"Font":       true,
		"Media":      true,
		"Stylesheet": false,
		"Document":   false,
		"Script":     false,
		"XHR":        false,
	}
	for resType, want := range cases {
		if got := bl.blocks(resType); got != want {
			t.Errorf("blocks(%q) = %v, want %v", resType, got, want)
		}
	}
}

func TestBlocklist_Empty(t *testing.T) {
	bl := newBlocklist(nil)
	if bl.blocks("Image") {
		t.Error("empty blocklist must not block anything")
	}
}

func TestBlocklist_Stylesheets(t *testing.T) {
	bl := newBlocklist([]string{"stylesheets"})
	if !bl.blocks("Stylesheet") {
		t.Error("expected stylesheet requests to be blocked")
	}
	if bl.blocks("Image") {
		t.Error("image requests must pass through")
	}
}
