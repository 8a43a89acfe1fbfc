// Package render turns an aggregate plus profile metadata into a
// fixed-geometry SVG document. Rendering is a pure function: identical
// inputs always produce byte-identical output, with no wall-clock reads.
package render

import (
	"fmt"
	"strings"
	"time"

	"diarygrid/internal/aggregate"
	"diarygrid/internal/diary"
)

// Fixed geometry. Canvas width follows the number of weeks; height is
// constant for one year and grows linearly per additional year.
const (
	cellSize = 12
	cellGap  = 3
	cellStep = cellSize + cellGap

	marginLeft   = 38
	marginRight  = 16
	headerHeight = 98
	monthRow     = 20
	yearGap      = 26
	legendHeight = 40
)

// Options configure a render pass.
type Options struct {
	Mode             aggregate.Mode
	UsernameGradient bool
}

// SVG renders the document for one theme variant.
func SVG(entries []diary.Entry, agg *aggregate.Aggregate, profile diary.Profile, opts Options, theme Theme) string {
	byDay := entriesByDay(entries)

	maxWeeks := 0
	for _, yg := range agg.Years {
		if yg.Weeks > maxWeeks {
			maxWeeks = yg.Weeks
		}
	}

	width := marginLeft + maxWeeks*cellStep + marginRight
	gridBlock := monthRow + 7*cellStep
	height := headerHeight + len(agg.Years)*gridBlock + max(0, len(agg.Years)-1)*yearGap + legendHeight

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="Helvetica, Arial, sans-serif">`, width, height, width, height)
	b.WriteByte('\n')

	if opts.UsernameGradient {
		writeGradientDefs(&b, theme)
	}

	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="%s"/>`, width, height, theme.Background)
	b.WriteByte('\n')

	writeHeader(&b, agg, profile, opts, theme, width)

	y := headerHeight
	for _, yg := range agg.Years {
		writeYearGrid(&b, yg, byDay, theme, y)
		y += gridBlock + yearGap
	}

	writeLegend(&b, opts.Mode, theme, height)

	b.WriteString("</svg>\n")
	return b.String()
}

func entriesByDay(entries []diary.Entry) map[time.Time][]diary.Entry {
	m := make(map[time.Time][]diary.Entry)
	for _, e := range entries {
		m[e.Date] = append(m[e.Date], e)
	}
	return m
}

func writeGradientDefs(b *strings.Builder, theme Theme) {
	b.WriteString(`<defs><linearGradient id="name-gradient" x1="0" y1="0" x2="1" y2="0">`)
	n := len(theme.GradientStops)
	for i, stop := range theme.GradientStops {
		offset := 0.0
		if n > 1 {
			offset = float64(i) / float64(n-1)
		}
		fmt.Fprintf(b, `<stop offset="%.0f%%" stop-color="%s"/>`, offset*100, stop)
	}
	b.WriteString("</linearGradient></defs>\n")
}

func writeHeader(b *strings.Builder, agg *aggregate.Aggregate, profile diary.Profile, opts Options, theme Theme, width int) {
	if profile.AvatarURL != "" {
		fmt.Fprintf(b, `<image x="16" y="18" width="48" height="48" href="%s"/>`, escape(profile.AvatarURL))
		b.WriteByte('\n')
	}

	nameFill := theme.Text
	if opts.UsernameGradient {
		nameFill = "url(#name-gradient)"
	}
	fmt.Fprintf(b, `<text x="76" y="38" font-size="20" font-weight="bold" fill="%s">%s</text>`, nameFill, escape(profile.DisplayName))
	b.WriteByte('\n')

	handleX := 76 + 11*len(profile.DisplayName)
	fmt.Fprintf(b, `<text x="%d" y="38" font-size="13" fill="%s">@%s</text>`, handleX, theme.SubText, escape(profile.Username))
	b.WriteByte('\n')

	writeBadge(b, profile.Tier, handleX+14+7*len(profile.Username), theme)

	fmt.Fprintf(b, `<text x="76" y="60" font-size="12" fill="%s">%s</text>`,
		theme.SubText, escape(statsLine(agg, profile)))
	b.WriteByte('\n')

	// Fixed-position logo: three dots in the top-right corner.
	for i, color := range theme.LogoDots {
		fmt.Fprintf(b, `<circle cx="%d" cy="34" r="7" fill="%s"/>`, width-58+i*17, color)
	}
	b.WriteByte('\n')
}

func writeBadge(b *strings.Builder, tier diary.MembershipTier, x int, theme Theme) {
	var fill, label string
	switch tier {
	case diary.TierPro:
		fill, label = theme.BadgePro, "PRO"
	case diary.TierPatron:
		fill, label = theme.BadgePatron, "PATRON"
	default:
		return
	}
	w := 14 + 7*len(label)
	fmt.Fprintf(b, `<rect x="%d" y="26" width="%d" height="16" rx="8" fill="%s"/>`, x, w, fill)
	fmt.Fprintf(b, `<text x="%d" y="38" font-size="10" font-weight="bold" fill="#14181c">%s</text>`, x+7, label)
	b.WriteByte('\n')
}

func statsLine(agg *aggregate.Aggregate, profile diary.Profile) string {
	parts := []string{
		fmt.Sprintf("%d films", agg.TotalFilms),
		fmt.Sprintf("%d days active", agg.DaysActive),
		fmt.Sprintf("%d day streak", agg.Streak.Length),
	}
	if profile.Followers > 0 || profile.Following > 0 {
		parts = append(parts,
			fmt.Sprintf("%d followers", profile.Followers),
			fmt.Sprintf("%d following", profile.Following))
	}
	return strings.Join(parts, " · ")
}

func writeYearGrid(b *strings.Builder, yg aggregate.YearGrid, byDay map[time.Time][]diary.Entry, theme Theme, top int) {
	fmt.Fprintf(b, `<text x="%d" y="%d" font-size="13" font-weight="bold" fill="%s">%d</text>`,
		marginLeft, top+12, theme.Text, yg.Year)
	b.WriteByte('\n')

	writeMonthLabels(b, yg, theme, top)

	gridTop := top + monthRow

	// Weekday labels on alternating rows, relative to the week start.
	startDay := yg.Start.Weekday()
	for _, row := range []int{1, 3, 5} {
		day := time.Weekday((int(startDay) + row) % 7)
		fmt.Fprintf(b, `<text x="4" y="%d" font-size="9" fill="%s">%s</text>`,
			gridTop+row*cellStep+cellSize-2, theme.SubText, day.String()[:3])
		b.WriteByte('\n')
	}

	for week := 0; week < yg.Weeks; week++ {
		for wd := 0; wd < 7; wd++ {
			cell := yg.Cells[wd][week]
			if !cell.InRange {
				continue
			}
			x := marginLeft + week*cellStep
			y := gridTop + wd*cellStep
			fmt.Fprintf(b, `<rect x="%d" y="%d" width="%d" height="%d" rx="2" fill="%s" data-date="%s" data-count="%d">`,
				x, y, cellSize, cellSize, theme.Levels[cell.Level],
				cell.Date.Format("2006-01-02"), cell.Count)
			if cell.Count > 0 {
				fmt.Fprintf(b, `<title>%s</title>`, escape(tooltip(cell, byDay[cell.Date])))
			}
			b.WriteString("</rect>\n")
		}
	}
}

// writeMonthLabels anchors each month label at the week column holding
// the first day of the month. Months whose first day precedes the
// aligned start carry no label.
func writeMonthLabels(b *strings.Builder, yg aggregate.YearGrid, theme Theme, top int) {
	for m := time.January; m <= time.December; m++ {
		first := time.Date(yg.Year, m, 1, 0, 0, 0, 0, time.UTC)
		if first.Before(yg.Start) {
			continue
		}
		week := int(first.Sub(yg.Start).Hours()/24) / 7
		if week >= yg.Weeks {
			continue
		}
		fmt.Fprintf(b, `<text x="%d" y="%d" font-size="9" fill="%s">%s</text>`,
			marginLeft+week*cellStep, top+monthRow-4, theme.SubText, m.String()[:3])
		b.WriteByte('\n')
	}
}

func tooltip(cell aggregate.Cell, entries []diary.Entry) string {
	var b strings.Builder
	noun := "films"
	if cell.Count == 1 {
		noun = "film"
	}
	fmt.Fprintf(&b, "%s: %d %s", cell.Date.Format("Jan 2, 2006"), cell.Count, noun)
	for _, e := range entries {
		b.WriteByte('\n')
		b.WriteString(e.Title)
		if e.ReleaseYear != "" {
			fmt.Fprintf(&b, " (%s)", e.ReleaseYear)
		}
		if e.Rated {
			fmt.Fprintf(&b, " %.1f/5", e.Rating)
		}
	}
	return b.String()
}

func writeLegend(b *strings.Builder, mode aggregate.Mode, theme Theme, height int) {
	low, high := "Less", "More"
	if mode == aggregate.ModeRating {
		low, high = "Low", "High"
	}

	y := height - legendHeight + 14
	fmt.Fprintf(b, `<text x="%d" y="%d" font-size="10" fill="%s">%s</text>`, marginLeft, y+10, theme.SubText, low)
	x := marginLeft + 34
	for _, color := range theme.Levels {
		fmt.Fprintf(b, `<rect x="%d" y="%d" width="%d" height="%d" rx="2" fill="%s"/>`, x, y, cellSize, cellSize, color)
		x += cellStep
	}
	fmt.Fprintf(b, `<text x="%d" y="%d" font-size="10" fill="%s">%s</text>`, x+4, y+10, theme.SubText, high)
	b.WriteByte('\n')
}

func escape(s string) string {
	return xmlReplacer.Replace(s)
}

var xmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)
