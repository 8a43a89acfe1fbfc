// Package parse converts diary and profile HTML into structured values.
// Both parsers are pure functions over their input; malformed rows are
// skipped individually and never affect their siblings.
package parse

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"diarygrid/internal/diary"
	"diarygrid/internal/htmlutil"
	"diarygrid/internal/letterboxd"
)

// stripTags removes any markup that survives into scraped strings before
// they reach the SVG or the JSON export.
var stripTags = bluemonday.StrictPolicy()

func cleanText(s string) string {
	return htmlutil.CollapseText(html.UnescapeString(stripTags.Sanitize(s)))
}

// textOf flattens a selection's text content through the shared node
// walker, then cleans it for output.
func textOf(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		b.WriteString(htmlutil.GetText(n))
	}
	return cleanText(b.String())
}

// Context carries the month/year stamped on an earlier row. Some row
// layouts only mark the month on the first row of a run; later rows
// inherit it. A row's own permalink date, when present, always wins.
type Context struct {
	Month time.Month
	Year  int
}

func (c Context) known() bool { return c.Month != 0 && c.Year != 0 }

// Result is the outcome of parsing one diary page.
type Result struct {
	Entries     []diary.Entry
	HasNextPage bool
	Context     Context
}

// dayPermalink matches the day-precision diary URL shape. It encodes
// year, month, and day unambiguously, so it overrides carried context.
var dayPermalink = regexp.MustCompile(`/for/(\d{4})/(\d{2})/(\d{2})/`)

// DiaryPage parses one diary listing page. Absence of the diary table or
// zero matched rows yields an empty result with HasNextPage false, which
// ends pagination regardless of any next link.
func DiaryPage(htmlText string, targetYear int, pctx Context) Result {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return Result{Context: pctx}
	}

	table := doc.Find("#diary-table")
	if table.Length() == 0 {
		return Result{Context: pctx}
	}

	rows := table.Find("tr.diary-entry-row")
	if rows.Length() == 0 {
		return Result{Context: pctx}
	}

	res := Result{Context: pctx}
	rows.Each(func(_ int, row *goquery.Selection) {
		entry, next, err := parseRow(res.Context, row, targetYear)
		res.Context = next
		if err != nil {
			return
		}
		res.Entries = append(res.Entries, entry)
	})

	res.HasNextPage = hasNextPage(doc)
	return res
}

// parseRow resolves one table row against the carried context, returning
// the updated context either way so a skipped row still advances the
// month/year stamp for its siblings.
func parseRow(pctx Context, row *goquery.Selection, targetYear int) (diary.Entry, Context, error) {
	next := advanceContext(pctx, row)

	date, err := resolveDate(next, row)
	if err != nil {
		return diary.Entry{}, next, err
	}
	if date.Year() != targetYear {
		return diary.Entry{}, next, fmt.Errorf("parse: row outside target year %d", targetYear)
	}

	film := row.Find("td.td-film-details h3 a")
	title := textOf(film)
	if title == "" {
		return diary.Entry{}, next, fmt.Errorf("parse: row without title")
	}

	entry := diary.Entry{
		Date:        date,
		Title:       title,
		ReleaseYear: textOf(row.Find("td.td-released")),
		Rewatch:     parseRewatch(row),
	}

	if href, ok := film.Attr("href"); ok && href != "" {
		entry.SourceURL = absoluteURL(href)
	}

	if marker, ok := ratingMarker(row); ok {
		// The site encodes ratings as an integer in [0, 10]; halving
		// gives the visible half-point scale. Absence means unrated,
		// distinct from a rating of zero.
		entry.Rating = float64(marker) / 2
		entry.Rated = true
	}

	return entry, next, nil
}

// advanceContext picks up a month/year stamp from the row's calendar
// cell, when present.
func advanceContext(pctx Context, row *goquery.Selection) Context {
	cal := row.Find("td.td-calendar .date")
	if cal.Length() == 0 {
		return pctx
	}

	next := pctx
	if m, ok := parseMonth(textOf(cal.Find("strong a"))); ok {
		next.Month = m
	}
	if y, err := strconv.Atoi(textOf(cal.Find("small"))); err == nil && y > 0 {
		next.Year = y
	}
	return next
}

// resolveDate prefers the row's own day permalink; the carried context
// plus the row's day number is the fallback.
func resolveDate(pctx Context, row *goquery.Selection) (time.Time, error) {
	day := row.Find("td.td-day a")

	if href, ok := day.Attr("href"); ok {
		if m := dayPermalink.FindStringSubmatch(href); m != nil {
			y, _ := strconv.Atoi(m[1])
			mo, _ := strconv.Atoi(m[2])
			d, _ := strconv.Atoi(m[3])
			return calendarDate(y, time.Month(mo), d)
		}
	}

	if !pctx.known() {
		return time.Time{}, fmt.Errorf("parse: no permalink and no carried month/year")
	}
	d, err := strconv.Atoi(textOf(day))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse: day number: %w", err)
	}
	return calendarDate(pctx.Year, pctx.Month, d)
}

// calendarDate builds a UTC date and rejects values that normalize to a
// different day (e.g. day 32 rolling into the next month).
func calendarDate(y int, m time.Month, d int) (time.Time, error) {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || t.Month() != m || t.Day() != d {
		return time.Time{}, fmt.Errorf("parse: invalid calendar date %d-%02d-%02d", y, m, d)
	}
	return t, nil
}

func parseMonth(s string) (time.Month, bool) {
	for _, layout := range []string{"Jan", "January"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Month(), true
		}
	}
	return 0, false
}

var ratedClass = regexp.MustCompile(`\brated-(\d{1,2})\b`)

// ratingMarker extracts the CSS-class-encoded 0..10 rating marker.
func ratingMarker(row *goquery.Selection) (int, bool) {
	span := row.Find("td.td-rating span.rating")
	class, ok := span.Attr("class")
	if !ok {
		return 0, false
	}
	m := ratedClass.FindStringSubmatch(class)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 0 || n > 10 {
		return 0, false
	}
	return n, true
}

func parseRewatch(row *goquery.Selection) bool {
	cell := row.Find("td.td-rewatch")
	if cell.Length() == 0 {
		return false
	}
	return !cell.HasClass("icon-status-off")
}

// hasNextPage detects an enabled next-pagination control. Malformed
// states are treated conservatively as "no more pages".
func hasNextPage(doc *goquery.Document) bool {
	next := doc.Find(".paginate-nextprev a.next")
	if next.Length() == 0 {
		return false
	}
	href, ok := next.First().Attr("href")
	return ok && href != ""
}

func absoluteURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return letterboxd.BaseURL + href
}
