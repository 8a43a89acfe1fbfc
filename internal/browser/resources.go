package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// blocklist is the set of subresource kinds a tab refuses to load,
// keyed by the plural config names (images, fonts, media, stylesheets).
type blocklist map[string]bool

// cdpAliases maps DevTools protocol resource types to config names.
var cdpAliases = map[string]string{
	"image":      "images",
	"font":       "fonts",
	"stylesheet": "stylesheets",
}

func newBlocklist(names []string) blocklist {
	bl := make(blocklist, len(names))
	for _, n := range names {
		bl[strings.ToLower(n)] = true
	}
	return bl
}

func (bl blocklist) blocks(resourceType string) bool {
	lower := strings.ToLower(resourceType)
	if name, ok := cdpAliases[lower]; ok {
		return bl[name]
	}
	return bl[lower]
}

// apply intercepts the tab's requests and fails the blocked kinds
// before they reach the network.
func (bl blocklist) apply(page *rod.Page) {
	router := page.HijackRequests()
	router.MustAdd("*", func(ctx *rod.Hijack) {
		if bl.blocks(string(ctx.Request.Type())) {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
}
