package parse

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"diarygrid/internal/diary"
)

// ProfilePage extracts public profile metadata. Anything it cannot find
// stays at its zero value; callers already carry a fallback profile for
// the case where the whole page is missing.
func ProfilePage(htmlText string) diary.Profile {
	var p diary.Profile

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return p
	}

	header := doc.Find(".profile-header")
	p.DisplayName = textOf(header.Find("h1.title-3").First())
	if p.DisplayName == "" {
		p.DisplayName = textOf(doc.Find(".profile-name h1").First())
	}

	if src, ok := header.Find(".profile-avatar img").First().Attr("src"); ok {
		p.AvatarURL = src
	}

	p.FilmCount = statValue(doc, "/films/")
	p.Followers = statValue(doc, "/followers/")
	p.Following = statValue(doc, "/following/")

	badge := header.Find("span.badge")
	switch {
	case badge.HasClass("-patron"):
		p.Tier = diary.TierPatron
	case badge.HasClass("-pro"):
		p.Tier = diary.TierPro
	}

	return p
}

// statValue reads the numeric value of the stats link whose href ends
// with the given suffix. The site renders counts like "1,234".
func statValue(doc *goquery.Document, suffix string) int {
	var out int
	doc.Find("ul.stats a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok || !strings.HasSuffix(href, suffix) {
			return true
		}
		raw := textOf(a.Find(".value"))
		raw = strings.ReplaceAll(raw, ",", "")
		if n, err := strconv.Atoi(raw); err == nil {
			out = n
		}
		return false
	})
	return out
}
