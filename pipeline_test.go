package diarygrid

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diarygrid/internal/fetch"
)

type pageTransport struct {
	pages map[string]string
	calls []string
}

func (t *pageTransport) FetchPage(_ context.Context, url string, _ fetch.Route) (string, error) {
	t.calls = append(t.calls, url)
	body, ok := t.pages[url]
	if !ok {
		return "", &fetch.FetchError{Kind: fetch.KindHTTPStatus, URL: url, StatusCode: 404,
			Err: fmt.Errorf("no fixture for %s", url)}
	}
	return body, nil
}

func diaryRow(date time.Time, title string, ratingMarker int) string {
	rating := ""
	if ratingMarker > 0 {
		rating = fmt.Sprintf(`<td class="td-rating"><span class="rating rated-%d"></span></td>`, ratingMarker)
	}
	return fmt.Sprintf(`<tr class="diary-entry-row">
<td class="td-day diary-day"><a href="/u/films/diary/for/%s/">%d</a></td>
<td class="td-film-details"><h3><a href="/film/%s/">%s</a></h3></td>
%s<td class="td-rewatch icon-status-off"></td>
</tr>`, date.Format("2006/01/02"), date.Day(), strings.ToLower(title), title, rating)
}

func diaryPage(rows ...string) string {
	return `<html><body><table id="diary-table"><tbody>` +
		strings.Join(rows, "\n") + `</tbody></table></body></html>`
}

func profilePage(name string) string {
	return `<html><body><div class="profile-header">
<h1 class="title-3">` + name + `</h1>
<div class="profile-avatar"><img src="https://a.ltrbxd.com/av.jpg"></div>
</div></body></html>`
}

func testPipeline(t *testing.T, pages map[string]string) (*Pipeline, *pageTransport) {
	t.Helper()
	transport := &pageTransport{pages: pages}
	f := fetch.New(fetch.Config{MaxAttempts: 2}, transport,
		fetch.WithSleep(func(context.Context, time.Duration) error { return nil }))
	return newWithFetcher(f, nil), transport
}

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func TestPipeline_Run(t *testing.T) {
	p, _ := testPipeline(t, map[string]string{
		"https://letterboxd.com/dana/films/diary/for/2024/page/1/": diaryPage(
			diaryRow(day(1), "Alpha", 8),
			diaryRow(day(2), "Beta", 0),
			diaryRow(day(3), "Gamma", 5),
		),
		"https://letterboxd.com/dana/": profilePage("Dana Example"),
	})

	res, err := p.Run(context.Background(), Request{Username: "dana", Years: []int{2024}})
	require.NoError(t, err)

	require.Len(t, res.Entries, 3)
	assert.Equal(t, []int{2024}, res.Years)
	assert.Equal(t, 3, res.Aggregate.TotalFilms)
	assert.Equal(t, 3, res.Aggregate.DaysActive)
	assert.Equal(t, 3, res.Aggregate.Streak.Length)
	assert.Equal(t, "Dana Example", res.Profile.DisplayName)
	assert.Equal(t, "dana", res.Profile.Username)

	assert.Contains(t, res.SVGDark, "Dana Example")
	assert.Contains(t, res.SVGDark, `data-date="2024-01-01" data-count="1"`)
	assert.Contains(t, res.SVGLight, "Dana Example")
	assert.NotEqual(t, res.SVGDark, res.SVGLight)

	require.NotNil(t, res.Export)
	assert.True(t, res.Export.Success)
	require.Len(t, res.Export.Days, 3)
	assert.Equal(t, "Alpha", res.Export.Days[0].Films[0].Title)
}

func TestPipeline_RunIsDeterministic(t *testing.T) {
	pages := map[string]string{
		"https://letterboxd.com/dana/films/diary/for/2024/page/1/": diaryPage(
			diaryRow(day(1), "Alpha", 8),
			diaryRow(day(1), "Beta", 4),
		),
		"https://letterboxd.com/dana/": profilePage("Dana"),
	}

	p1, _ := testPipeline(t, pages)
	a, err := p1.Run(context.Background(), Request{Username: "dana", Years: []int{2024}})
	require.NoError(t, err)

	p2, _ := testPipeline(t, pages)
	b, err := p2.Run(context.Background(), Request{Username: "dana", Years: []int{2024}})
	require.NoError(t, err)

	assert.Equal(t, a.SVGDark, b.SVGDark)
	assert.Equal(t, a.SVGLight, b.SVGLight)
}

func TestPipeline_ProfileFailureFallsBack(t *testing.T) {
	p, _ := testPipeline(t, map[string]string{
		"https://letterboxd.com/dana/films/diary/for/2024/page/1/": diaryPage(
			diaryRow(day(1), "Alpha", 0),
		),
	})

	res, err := p.Run(context.Background(), Request{Username: "dana", Years: []int{2024}})
	require.NoError(t, err)
	assert.Equal(t, "dana", res.Profile.DisplayName)
	assert.Zero(t, res.Profile.FilmCount)
}

func TestPipeline_FirstYearFailureIsFatal(t *testing.T) {
	p, _ := testPipeline(t, map[string]string{
		"https://letterboxd.com/dana/": profilePage("Dana"),
	})

	_, err := p.Run(context.Background(), Request{Username: "dana", Years: []int{2024}})
	require.Error(t, err)
}

func TestPipeline_LaterYearFailureDegrades(t *testing.T) {
	p, _ := testPipeline(t, map[string]string{
		"https://letterboxd.com/dana/films/diary/for/2023/page/1/": diaryPage(
			diaryRow(time.Date(2023, time.May, 4, 0, 0, 0, 0, time.UTC), "Alpha", 0),
		),
		"https://letterboxd.com/dana/": profilePage("Dana"),
	})

	res, err := p.Run(context.Background(), Request{Username: "dana", Years: []int{2023, 2024}})
	require.NoError(t, err)
	assert.Equal(t, []int{2023}, res.Years)
	assert.Len(t, res.Entries, 1)
}

func TestPipeline_ProbeEarlierYears(t *testing.T) {
	p, transport := testPipeline(t, map[string]string{
		"https://letterboxd.com/dana/films/diary/for/2026/page/1/": diaryPage(),
		"https://letterboxd.com/dana/films/diary/for/2025/page/1/": diaryPage(),
		"https://letterboxd.com/dana/films/diary/for/2024/page/1/": diaryPage(
			diaryRow(day(1), "Alpha", 0),
		),
		"https://letterboxd.com/dana/": profilePage("Dana"),
	})

	res, err := p.Run(context.Background(), Request{
		Username: "dana", Years: []int{2026}, ProbeEarlierYears: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2024}, res.Years)
	assert.Len(t, res.Entries, 1)

	assert.Contains(t, transport.calls, "https://letterboxd.com/dana/films/diary/for/2025/page/1/")
}

func TestPipeline_Validation(t *testing.T) {
	p, _ := testPipeline(t, nil)

	_, err := p.Run(context.Background(), Request{Years: []int{2024}})
	assert.Error(t, err)

	_, err = p.Run(context.Background(), Request{Username: "dana"})
	assert.Error(t, err)
}
