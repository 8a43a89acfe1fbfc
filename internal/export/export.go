// Package export builds the structured record mirroring what the SVG
// shows: per-day cells with film detail, month anchors, and aggregate
// stats, for consumers that want data instead of an image.
package export

import (
	"encoding/json"
	"time"

	"diarygrid/internal/aggregate"
	"diarygrid/internal/diary"
	"diarygrid/internal/letterboxd"
)

// Record is the top-level export document.
type Record struct {
	Success      bool          `json:"success"`
	Username     string        `json:"username"`
	Years        []int         `json:"years"`
	Profile      Profile       `json:"profile"`
	Stats        Stats         `json:"stats"`
	Days         []Day         `json:"days"`
	MonthAnchors []MonthAnchor `json:"monthAnchors"`
}

type Profile struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
	FilmCount   int    `json:"filmCount"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
	Tier        string `json:"tier"`
}

type Stats struct {
	Films        int    `json:"films"`
	DaysActive   int    `json:"daysActive"`
	StreakLength int    `json:"streakLength"`
	StreakStart  string `json:"streakStart,omitempty"`
	StreakEnd    string `json:"streakEnd,omitempty"`
}

// Day is one active date with its aggregate values and film detail.
type Day struct {
	Date      string   `json:"date"`
	Count     int      `json:"count"`
	AvgRating *float64 `json:"avgRating"`
	URL       string   `json:"url"`
	Films     []Film   `json:"films"`
}

type Film struct {
	Title   string   `json:"title"`
	Year    string   `json:"year"`
	Rating  *float64 `json:"rating"`
	Rewatch bool     `json:"rewatch"`
	URL     string   `json:"url,omitempty"`
}

// MonthAnchor points a month label at its grid week column.
type MonthAnchor struct {
	Year  int    `json:"year"`
	Month string `json:"month"`
	Week  int    `json:"week"`
}

// Build assembles the record. Days are emitted in ascending date order;
// films within a day keep diary document order.
func Build(entries []diary.Entry, agg *aggregate.Aggregate, profile diary.Profile) *Record {
	byDay := make(map[time.Time][]diary.Entry)
	for _, e := range entries {
		byDay[e.Date] = append(byDay[e.Date], e)
	}

	rec := &Record{
		Success:  true,
		Username: profile.Username,
		Profile: Profile{
			Username:    profile.Username,
			DisplayName: profile.DisplayName,
			Avatar:      profile.AvatarURL,
			FilmCount:   profile.FilmCount,
			Followers:   profile.Followers,
			Following:   profile.Following,
			Tier:        profile.Tier.String(),
		},
		Stats: Stats{
			Films:        agg.TotalFilms,
			DaysActive:   agg.DaysActive,
			StreakLength: agg.Streak.Length,
		},
	}
	if agg.Streak.Length > 0 {
		rec.Stats.StreakStart = agg.Streak.Start.Format("2006-01-02")
		rec.Stats.StreakEnd = agg.Streak.End.Format("2006-01-02")
	}

	for _, yg := range agg.Years {
		rec.Years = append(rec.Years, yg.Year)
		rec.MonthAnchors = append(rec.MonthAnchors, monthAnchors(yg)...)

		for i := 0; i < yg.Weeks*7; i++ {
			cell := yg.Cells[i%7][i/7]
			if !cell.InRange || cell.Count == 0 {
				continue
			}
			rec.Days = append(rec.Days, day(cell, byDay[cell.Date], profile.Username))
		}
	}

	return rec
}

func day(cell aggregate.Cell, entries []diary.Entry, username string) Day {
	d := Day{
		Date:  cell.Date.Format("2006-01-02"),
		Count: cell.Count,
		URL: letterboxd.DiaryDayURL(letterboxd.BaseURL, username,
			cell.Date.Year(), int(cell.Date.Month()), cell.Date.Day()),
	}

	rated := false
	for _, e := range entries {
		f := Film{Title: e.Title, Year: e.ReleaseYear, Rewatch: e.Rewatch, URL: e.SourceURL}
		if e.Rated {
			r := e.Rating
			f.Rating = &r
			rated = true
		}
		d.Films = append(d.Films, f)
	}
	if rated {
		avg := cell.AvgRating
		d.AvgRating = &avg
	}
	return d
}

func monthAnchors(yg aggregate.YearGrid) []MonthAnchor {
	var out []MonthAnchor
	for m := time.January; m <= time.December; m++ {
		first := time.Date(yg.Year, m, 1, 0, 0, 0, 0, time.UTC)
		if first.Before(yg.Start) {
			continue
		}
		week := int(first.Sub(yg.Start).Hours()/24) / 7
		if week >= yg.Weeks {
			continue
		}
		out = append(out, MonthAnchor{Year: yg.Year, Month: m.String()[:3], Week: week})
	}
	return out
}

// JSON serialises the record with stable indentation.
func (r *Record) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
