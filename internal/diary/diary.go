// Package diary holds the value objects shared across the pipeline:
// watch entries and profile metadata. Everything here is produced once
// per run and never mutated afterwards.
package diary

import "time"

// Entry is one recorded watch event from the diary.
type Entry struct {
	// Date is the watch date at day precision, always UTC midnight.
	Date time.Time

	Title       string
	ReleaseYear string

	// Rating is a half-point value in [0.5, 5.0], valid only when Rated
	// is true. The site encodes it as an integer marker in [0, 10].
	Rating float64
	Rated  bool

	Rewatch bool

	// SourceURL is the absolute film page URL, empty when the row
	// carried no link.
	SourceURL string
}

// MembershipTier is the badge shown next to a profile name.
type MembershipTier int

const (
	TierNone MembershipTier = iota
	TierPro
	TierPatron
)

func (t MembershipTier) String() string {
	switch t {
	case TierPro:
		return "pro"
	case TierPatron:
		return "patron"
	}
	return "none"
}

// Profile is the public profile metadata, fetched once per run.
type Profile struct {
	Username    string
	DisplayName string
	AvatarURL   string
	Followers   int
	Following   int
	FilmCount   int
	Tier        MembershipTier
}

// FallbackProfile is used when the profile page cannot be retrieved:
// the run proceeds with the raw username and zeroed statistics.
func FallbackProfile(username string) Profile {
	return Profile{Username: username, DisplayName: username}
}
