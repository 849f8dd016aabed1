package tiktok

import "fmt"

// ItemRef identifies one video in a trending page. It carries just enough
// to request the full detail record.
type ItemRef struct {
	ID       string
	Username string
}

// WatchURL returns the canonical watch URL for the item, or "" when the
// author handle is unknown.
func (r ItemRef) WatchURL() string {
	if r.Username == "" || r.ID == "" {
		return ""
	}
	return fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", r.Username, r.ID)
}

// ItemDetail is the full metadata record for one video. Pointer fields are
// nil when the source omitted the value; absence is distinct from zero.
type ItemDetail struct {
	ID          string
	Caption     string
	CreateTime  int64 // epoch seconds, 0 when missing
	DurationSec *int
	Author      AuthorInfo
	Music       *MusicInfo
	Hashtags    []string // structured hashtag names, without the # prefix
	Stats       EngagementStats
	PlayURL     string // media address for byte download
}

// AuthorInfo holds the creator handle and profile stats.
type AuthorInfo struct {
	Handle        string
	FollowerCount *int
	VideoCount    *int
	TotalLikes    *int64
}

// MusicInfo describes the sound attached to a video. Original is tri-state:
// nil when the source did not say whether the sound is an original creation.
type MusicInfo struct {
	ID       string
	Title    string
	Original *bool
}

// EngagementStats are per-video counters, each optional.
type EngagementStats struct {
	PlayCount    *int64
	LikeCount    *int64
	CommentCount *int64
	ShareCount   *int64
}
