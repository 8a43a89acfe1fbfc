// Package aggregate folds diary entries into the calendar-grid model:
// week-aligned per-day counts, color levels, the longest streak, and the
// weekday and rating histograms.
package aggregate

import (
	"math"
	"sort"
	"time"

	"diarygrid/internal/diary"
)

// WeekStart selects which day begins a grid column.
type WeekStart int

const (
	WeekStartSunday WeekStart = iota
	WeekStartMonday
)

func (w WeekStart) Weekday() time.Weekday {
	if w == WeekStartMonday {
		return time.Monday
	}
	return time.Sunday
}

func (w WeekStart) String() string {
	if w == WeekStartMonday {
		return "monday"
	}
	return "sunday"
}

// Mode selects what the cell color levels encode.
type Mode int

const (
	// ModeCount colors by films per day relative to the busiest day.
	ModeCount Mode = iota
	// ModeRating colors populated days by their average rating bucket.
	ModeRating
)

func (m Mode) String() string {
	if m == ModeRating {
		return "rating"
	}
	return "count"
}

// Options configure aggregation.
type Options struct {
	Years     []int
	WeekStart WeekStart
	Mode      Mode
}

// Cell is one day slot in the grid. Padding introduced by week alignment
// keeps its slot for layout but is marked out of range.
type Cell struct {
	Date      time.Time
	Count     int
	AvgRating float64
	Level     int
	InRange   bool
}

// YearGrid is the aligned grid for a single year. Cells[weekday][week],
// with weekday index 0 always the configured week-start day.
type YearGrid struct {
	Year  int
	Start time.Time // aligned start, on the configured week-start day
	Weeks int
	Cells [][]Cell
}

// Streak is the longest run of consecutive unique dates with activity.
type Streak struct {
	Length int
	Start  time.Time
	End    time.Time
}

// Aggregate is everything the renderer and export need from the entries.
type Aggregate struct {
	Years      []YearGrid
	MaxCount   int
	TotalFilms int
	DaysActive int
	Streak     Streak

	// Weekday counts entries per calendar weekday, index 0 = Sunday.
	Weekday [7]int

	// Ratings counts rated entries per half-point bucket; index n holds
	// the count for rating (n+1)/2.
	Ratings [10]int
}

type dayStat struct {
	count      int
	ratingSum  float64
	ratedCount int
}

func (d *dayStat) avg() float64 {
	if d.ratedCount == 0 {
		return 0
	}
	return d.ratingSum / float64(d.ratedCount)
}

// Build aggregates entries for the requested years. Entries outside the
// years are dropped before any other computation.
func Build(entries []diary.Entry, opts Options) *Aggregate {
	if len(opts.Years) == 0 {
		return &Aggregate{}
	}

	years := make(map[int]bool, len(opts.Years))
	for _, y := range opts.Years {
		years[y] = true
	}

	days := make(map[time.Time]*dayStat)
	agg := &Aggregate{}

	for _, e := range entries {
		if !years[e.Date.Year()] {
			continue
		}
		agg.TotalFilms++
		agg.Weekday[int(e.Date.Weekday())]++
		if e.Rated {
			if n := int(math.Round(e.Rating * 2)); n >= 1 && n <= 10 {
				agg.Ratings[n-1]++
			}
		}

		d := days[e.Date]
		if d == nil {
			d = &dayStat{}
			days[e.Date] = d
		}
		d.count++
		if e.Rated {
			d.ratingSum += e.Rating
			d.ratedCount++
		}
	}

	agg.DaysActive = len(days)
	for _, d := range days {
		if d.count > agg.MaxCount {
			agg.MaxCount = d.count
		}
	}
	agg.Streak = longestStreak(days)

	sortedYears := append([]int(nil), opts.Years...)
	sort.Ints(sortedYears)
	for _, y := range sortedYears {
		agg.Years = append(agg.Years, buildYearGrid(y, days, opts, agg.MaxCount))
	}

	return agg
}

// buildYearGrid lays out one year: January 1 shifted backward to the
// prior occurrence of the week-start day, through December 31.
func buildYearGrid(year int, days map[time.Time]*dayStat, opts Options, maxCount int) YearGrid {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	dec31 := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	start := alignToWeekStart(jan1, opts.WeekStart)

	totalDays := int(dec31.Sub(start).Hours()/24) + 1
	weeks := (totalDays + 6) / 7

	cells := make([][]Cell, 7)
	for i := range cells {
		cells[i] = make([]Cell, weeks)
	}

	for i := 0; i < weeks*7; i++ {
		date := start.AddDate(0, 0, i)
		cell := Cell{
			Date:    date,
			InRange: !date.Before(jan1) && !date.After(dec31),
		}
		if d := days[date]; d != nil && cell.InRange {
			cell.Count = d.count
			cell.AvgRating = d.avg()
			cell.Level = level(d, opts.Mode, maxCount)
		}
		cells[i%7][i/7] = cell
	}

	return YearGrid{Year: year, Start: start, Weeks: weeks, Cells: cells}
}

// alignToWeekStart shifts a date backward to the nearest prior (or same)
// occurrence of the configured week-start day.
func alignToWeekStart(t time.Time, ws WeekStart) time.Time {
	shift := (int(t.Weekday()) - int(ws.Weekday()) + 7) % 7
	return t.AddDate(0, 0, -shift)
}

// level maps a day's stats to one of five color levels. Level 0 is
// reserved for empty days in both modes.
func level(d *dayStat, mode Mode, maxCount int) int {
	if d.count == 0 {
		return 0
	}
	if mode == ModeRating {
		switch avg := d.avg(); {
		case avg < 2.5:
			return 1
		case avg < 3.5:
			return 2
		case avg < 4.5:
			return 3
		default:
			return 4
		}
	}
	if maxCount <= 0 {
		return 0
	}
	l := int(math.Ceil(float64(d.count) / float64(maxCount) * 4))
	if l > 4 {
		l = 4
	}
	return l
}

// longestStreak scans the sorted set of unique active dates. Consecutive
// means exactly one calendar day apart; ties keep the earliest run.
func longestStreak(days map[time.Time]*dayStat) Streak {
	if len(days) == 0 {
		return Streak{}
	}

	dates := make([]time.Time, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	best := Streak{Length: 1, Start: dates[0], End: dates[0]}
	cur := best
	for i := 1; i < len(dates); i++ {
		if dates[i].Sub(dates[i-1]) == 24*time.Hour {
			cur.Length++
			cur.End = dates[i]
		} else {
			cur = Streak{Length: 1, Start: dates[i], End: dates[i]}
		}
		if cur.Length > best.Length {
			best = cur
		}
	}
	return best
}
