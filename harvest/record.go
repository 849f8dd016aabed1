package harvest

import (
	"strconv"
	"strings"
)

// CapturedItem is one successfully ingested video. A non-empty DownloadPath
// is the definition of "captured": the record is only written after the
// media bytes landed on disk. Pointer fields are nil when the source omitted
// the value — absence is semantically distinct from zero.
type CapturedItem struct {
	ID                string   `json:"video_id"`
	WatchURL          *string  `json:"watch_url"`
	Username          *string  `json:"username"`
	CreatorFollowers  *int     `json:"creator_followers"`
	CreatorVideoCount *int     `json:"creator_video_count"`
	CreatorTotalLikes *int64   `json:"creator_total_likes"`
	AvgLikesPerVideo  *float64 `json:"avg_likes_per_video"`
	CreateTimeISO     *string  `json:"create_time_iso"`
	DurationSec       *int     `json:"video_duration_sec"`
	Hashtags          []string `json:"hashtags"`
	UsesPopularSound  bool     `json:"uses_popular_sound"`
	MusicUsesCount    *int     `json:"music_uses_count"`
	PopularSoundReason string  `json:"popular_sound_reason"`
	Caption           string   `json:"caption"`
	PlayCount         *int64   `json:"play_count"`
	LikeCount         *int64   `json:"like_count"`
	CommentCount      *int64   `json:"comment_count"`
	ShareCount        *int64   `json:"share_count"`
	DownloadPath      string   `json:"download_path"`
}

// csvHeader is the fixed column order of the tabular output.
var csvHeader = []string{
	"video_id", "watch_url", "username",
	"creator_followers", "creator_video_count", "creator_total_likes",
	"avg_likes_per_video",
	"create_time_iso", "video_duration_sec",
	"hashtags", "uses_popular_sound", "music_uses_count", "popular_sound_reason",
	"caption", "play_count", "like_count", "comment_count", "share_count", "download_path",
}

// csvRecord renders the item in csvHeader order. Absent values become empty
// cells; hashtags are space-joined.
func (it *CapturedItem) csvRecord() []string {
	return []string{
		it.ID,
		strOrEmpty(it.WatchURL),
		strOrEmpty(it.Username),
		intOrEmpty(it.CreatorFollowers),
		intOrEmpty(it.CreatorVideoCount),
		int64OrEmpty(it.CreatorTotalLikes),
		floatOrEmpty(it.AvgLikesPerVideo),
		strOrEmpty(it.CreateTimeISO),
		intOrEmpty(it.DurationSec),
		strings.Join(it.Hashtags, " "),
		strconv.FormatBool(it.UsesPopularSound),
		intOrEmpty(it.MusicUsesCount),
		it.PopularSoundReason,
		it.Caption,
		int64OrEmpty(it.PlayCount),
		int64OrEmpty(it.LikeCount),
		int64OrEmpty(it.CommentCount),
		int64OrEmpty(it.ShareCount),
		it.DownloadPath,
	}
}

func strOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func intOrEmpty(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func int64OrEmpty(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func floatOrEmpty(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
