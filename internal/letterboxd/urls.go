// Package letterboxd holds the fixed URL shapes of the source site.
// The pipeline is not a general crawler: these templates are the only
// routes it ever requests.
package letterboxd

import "fmt"

// BaseURL is the canonical site origin.
const BaseURL = "https://letterboxd.com"

// DiaryPageURL returns the paginated diary listing for one user and year.
func DiaryPageURL(base, username string, year, page int) string {
	return fmt.Sprintf("%s/%s/films/diary/for/%d/page/%d/", base, username, year, page)
}

// DiaryDayURL returns the canonical listing URL for a single diary day.
func DiaryDayURL(base, username string, year, month, day int) string {
	return fmt.Sprintf("%s/%s/films/diary/for/%d/%02d/%02d/", base, username, year, month, day)
}

// ProfileURL returns the public profile page for a user.
func ProfileURL(base, username string) string {
	return fmt.Sprintf("%s/%s/", base, username)
}

// HomeURL returns the site home page, used for session priming.
func HomeURL(base string) string {
	return base + "/"
}
