package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diarygrid/internal/diary"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func entry(t time.Time) diary.Entry {
	return diary.Entry{Date: t, Title: "film"}
}

func ratedEntry(t time.Time, rating float64) diary.Entry {
	return diary.Entry{Date: t, Title: "film", Rating: rating, Rated: true}
}

func TestBuild_SimpleYear(t *testing.T) {
	entries := []diary.Entry{
		entry(day(2024, time.January, 1)),
		entry(day(2024, time.January, 1)),
		entry(day(2024, time.January, 2)),
		entry(day(2024, time.January, 3)),
	}

	agg := Build(entries, Options{Years: []int{2024}})

	assert.Equal(t, 4, agg.TotalFilms)
	assert.Equal(t, 3, agg.DaysActive)
	assert.Equal(t, 2, agg.MaxCount)

	require.Len(t, agg.Years, 1)
	g := agg.Years[0]
	assert.Equal(t, 2024, g.Year)

	// The sum over all in-range cells equals the total entry count.
	var sum, populated int
	for _, row := range g.Cells {
		for _, c := range row {
			if c.InRange {
				sum += c.Count
			}
			if c.Count > 0 {
				populated++
			}
		}
	}
	assert.Equal(t, 4, sum)
	assert.Equal(t, 3, populated)
}

func TestBuild_WeekAlignment(t *testing.T) {
	// Jan 1 2024 is a Monday.
	jan1 := day(2024, time.January, 1)
	agg := Build([]diary.Entry{entry(jan1)}, Options{Years: []int{2024}, WeekStart: WeekStartSunday})

	g := agg.Years[0]
	assert.Equal(t, day(2023, time.December, 31), g.Start)
	assert.Equal(t, time.Sunday, g.Start.Weekday())

	// The Dec 31 2023 padding cell holds its slot but is out of range.
	pad := g.Cells[0][0]
	assert.Equal(t, day(2023, time.December, 31), pad.Date)
	assert.False(t, pad.InRange)
	assert.Zero(t, pad.Count)

	// Jan 1 lands in row 1 (Monday relative to a Sunday start), week 0.
	cell := g.Cells[1][0]
	assert.Equal(t, jan1, cell.Date)
	assert.True(t, cell.InRange)
	assert.Equal(t, 1, cell.Count)
}

func TestBuild_MondayWeekStart(t *testing.T) {
	jan1 := day(2024, time.January, 1)
	agg := Build([]diary.Entry{entry(jan1)}, Options{Years: []int{2024}, WeekStart: WeekStartMonday})

	g := agg.Years[0]
	// Jan 1 is itself a Monday, so no backward shift and no padding.
	assert.Equal(t, jan1, g.Start)
	assert.Equal(t, 1, g.Cells[0][0].Count)
	assert.True(t, g.Cells[0][0].InRange)
}

func TestBuild_GridCoversWholeYear(t *testing.T) {
	agg := Build(nil, Options{Years: []int{2023}})
	g := agg.Years[0]

	var inRange int
	for _, row := range g.Cells {
		for _, c := range row {
			if c.InRange {
				inRange++
			}
		}
	}
	assert.Equal(t, 365, inRange)

	leap := Build(nil, Options{Years: []int{2024}}).Years[0]
	inRange = 0
	for _, row := range leap.Cells {
		for _, c := range row {
			if c.InRange {
				inRange++
			}
		}
	}
	assert.Equal(t, 366, inRange)
}

func TestBuild_CountLevels(t *testing.T) {
	// Busiest day has 4 films, so levels are ceil(count/4*4) = count.
	var entries []diary.Entry
	for d := 1; d <= 4; d++ {
		for n := 0; n < d; n++ {
			entries = append(entries, entry(day(2024, time.June, d)))
		}
	}

	agg := Build(entries, Options{Years: []int{2024}, Mode: ModeCount})
	assert.Equal(t, 4, agg.MaxCount)

	got := map[int]int{}
	for _, row := range agg.Years[0].Cells {
		for _, c := range row {
			if c.Count > 0 {
				got[c.Count] = c.Level
			}
		}
	}
	assert.Equal(t, map[int]int{1: 1, 2: 2, 3: 3, 4: 4}, got)
}

func TestBuild_SingleActiveDayIsMaxLevel(t *testing.T) {
	agg := Build([]diary.Entry{entry(day(2024, time.June, 1))},
		Options{Years: []int{2024}, Mode: ModeCount})

	for _, row := range agg.Years[0].Cells {
		for _, c := range row {
			if c.Count > 0 {
				assert.Equal(t, 4, c.Level)
			}
		}
	}
}

func TestBuild_RatingModeBuckets(t *testing.T) {
	cases := []struct {
		ratings []float64
		level   int
	}{
		{[]float64{0.5}, 1},
		{[]float64{2.0, 2.5}, 1},  // avg 2.25
		{[]float64{2.5}, 2},       // boundary
		{[]float64{3.0, 3.5}, 2},  // avg 3.25
		{[]float64{3.5}, 3},       // boundary
		{[]float64{4.0, 4.5}, 3},  // avg 4.25
		{[]float64{4.5}, 4},       // boundary
		{[]float64{5.0}, 4},
	}

	for i, tc := range cases {
		d := day(2024, time.June, i+1)
		var entries []diary.Entry
		for _, r := range tc.ratings {
			entries = append(entries, ratedEntry(d, r))
		}
		agg := Build(entries, Options{Years: []int{2024}, Mode: ModeRating})

		found := false
		for _, row := range agg.Years[0].Cells {
			for _, c := range row {
				if c.Date.Equal(d) {
					assert.Equal(t, tc.level, c.Level, "ratings %v", tc.ratings)
					found = true
				}
			}
		}
		assert.True(t, found)
	}
}

func TestBuild_RatingModeUnratedDay(t *testing.T) {
	// A populated day with no rated entries has average zero, which
	// still falls in the lowest populated bucket, never back to empty.
	d := day(2024, time.June, 1)
	agg := Build([]diary.Entry{entry(d)}, Options{Years: []int{2024}, Mode: ModeRating})

	for _, row := range agg.Years[0].Cells {
		for _, c := range row {
			if c.Date.Equal(d) {
				assert.Equal(t, 1, c.Level)
				assert.Zero(t, c.AvgRating)
			}
		}
	}
}

func TestBuild_Streak(t *testing.T) {
	entries := []diary.Entry{
		entry(day(2024, time.March, 1)),
		entry(day(2024, time.March, 2)),
		entry(day(2024, time.March, 2)), // duplicate day, still one streak step
		entry(day(2024, time.March, 3)),
		entry(day(2024, time.March, 10)),
		entry(day(2024, time.March, 11)),
	}

	agg := Build(entries, Options{Years: []int{2024}})
	assert.Equal(t, 3, agg.Streak.Length)
	assert.Equal(t, day(2024, time.March, 1), agg.Streak.Start)
	assert.Equal(t, day(2024, time.March, 3), agg.Streak.End)
}

func TestBuild_StreakGapBreaks(t *testing.T) {
	entries := []diary.Entry{
		entry(day(2024, time.March, 1)),
		entry(day(2024, time.March, 3)),
	}
	agg := Build(entries, Options{Years: []int{2024}})
	assert.Equal(t, 1, agg.Streak.Length)
	// Ties keep the earliest run.
	assert.Equal(t, day(2024, time.March, 1), agg.Streak.Start)
}

func TestBuild_StreakAcrossYearBoundary(t *testing.T) {
	entries := []diary.Entry{
		entry(day(2023, time.December, 31)),
		entry(day(2024, time.January, 1)),
		entry(day(2024, time.January, 2)),
	}

	agg := Build(entries, Options{Years: []int{2023, 2024}})
	assert.Equal(t, 3, agg.Streak.Length)
	assert.Equal(t, day(2023, time.December, 31), agg.Streak.Start)
	assert.Equal(t, day(2024, time.January, 2), agg.Streak.End)
	require.Len(t, agg.Years, 2)
	assert.Equal(t, 2023, agg.Years[0].Year)
	assert.Equal(t, 2024, agg.Years[1].Year)
}

func TestBuild_Histograms(t *testing.T) {
	entries := []diary.Entry{
		ratedEntry(day(2024, time.January, 7), 0.5),  // Sunday
		ratedEntry(day(2024, time.January, 8), 5.0),  // Monday
		ratedEntry(day(2024, time.January, 8), 5.0),  // Monday
		entry(day(2024, time.January, 9)),            // Tuesday, unrated
	}

	agg := Build(entries, Options{Years: []int{2024}})

	assert.Equal(t, 1, agg.Weekday[0])
	assert.Equal(t, 2, agg.Weekday[1])
	assert.Equal(t, 1, agg.Weekday[2])

	assert.Equal(t, 1, agg.Ratings[0]) // 0.5 stars
	assert.Equal(t, 2, agg.Ratings[9]) // 5.0 stars
	var rated int
	for _, n := range agg.Ratings {
		rated += n
	}
	assert.Equal(t, 3, rated)
}

func TestBuild_FiltersToRequestedYears(t *testing.T) {
	entries := []diary.Entry{
		entry(day(2023, time.June, 1)),
		entry(day(2024, time.June, 1)),
	}

	agg := Build(entries, Options{Years: []int{2024}})
	assert.Equal(t, 1, agg.TotalFilms)
	assert.Equal(t, 1, agg.DaysActive)
}

func TestBuild_NoYears(t *testing.T) {
	agg := Build([]diary.Entry{entry(day(2024, time.June, 1))}, Options{})
	assert.Zero(t, agg.TotalFilms)
	assert.Empty(t, agg.Years)
}
