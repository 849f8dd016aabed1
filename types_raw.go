package tiktok

// Raw structs match TikTok JSON exactly. Numeric fields that the API may
// omit are pointers so "missing" survives decoding.

// Trending feed API response.

type trendingResponse struct {
	ItemList   []rawItem `json:"itemList"`
	HasMore    bool      `json:"hasMore"`
	StatusCode int       `json:"statusCode"`
}

// Item detail API response.

type itemDetailResponse struct {
	ItemInfo rawItemInfo `json:"itemInfo"`
}

type rawItemInfo struct {
	ItemStruct rawItem `json:"itemStruct"`
}

// Music/sound detail API responses. The usage count lives either under
// stats.videoCount or at the top level depending on the entity kind.

type entityDetailResponse struct {
	MusicInfo *rawEntityInfo `json:"musicInfo"`
	SoundInfo *rawEntityInfo `json:"soundInfo"`
}

type rawEntityInfo struct {
	Stats      *rawEntityStats `json:"stats"`
	VideoCount *int            `json:"videoCount"`
}

type rawEntityStats struct {
	VideoCount *int `json:"videoCount"`
}

// Shared raw video/author/music structs.

type rawItem struct {
	ID          string          `json:"id"`
	Desc        string          `json:"desc"`
	CreateTime  int64           `json:"createTime"`
	Author      rawAuthor       `json:"author"`
	AuthorStats *rawAuthorStats `json:"authorStats"`
	Music       *rawMusic       `json:"music"`
	Video       *rawVideoMeta   `json:"video"`
	Stats       *rawStats       `json:"stats"`
	TextExtra   []rawTextExtra  `json:"textExtra"`
}

type rawAuthor struct {
	UniqueID string `json:"uniqueId"`
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Verified bool   `json:"verified"`
}

type rawAuthorStats struct {
	FollowerCount *int   `json:"followerCount"`
	VideoCount    *int   `json:"videoCount"`
	HeartCount    *int64 `json:"heartCount"`
	Heart         *int64 `json:"heart"`
}

type rawMusic struct {
	ID       string `json:"id"`
	MusicID  string `json:"musicId"`
	IDStr    string `json:"idStr"`
	Title    string `json:"title"`
	Original *bool  `json:"original"`
}

// entityID returns whichever id variant the API populated.
func (m *rawMusic) entityID() string {
	if m == nil {
		return ""
	}
	switch {
	case m.ID != "":
		return m.ID
	case m.MusicID != "":
		return m.MusicID
	default:
		return m.IDStr
	}
}

type rawVideoMeta struct {
	Duration     *int   `json:"duration"`
	PlayAddr     string `json:"playAddr"`
	DownloadAddr string `json:"downloadAddr"`
}

type rawStats struct {
	PlayCount    *int64 `json:"playCount"`
	DiggCount    *int64 `json:"diggCount"`
	LikeCount    *int64 `json:"likeCount"`
	CommentCount *int64 `json:"commentCount"`
	ShareCount   *int64 `json:"shareCount"`
}

type rawTextExtra struct {
	HashtagName string `json:"hashtagName"`
}

// SSR (Server-Side Rendered) data structs for __UNIVERSAL_DATA_FOR_REHYDRATION__.
// Used as the fallback source of creator stats when the item detail record
// omits authorStats.

type universalData struct {
	DefaultScope defaultScope `json:"__DEFAULT_SCOPE__"`
}

type defaultScope struct {
	UserDetail userDetailWrapper `json:"webapp.user-detail"`
}

type userDetailWrapper struct {
	UserInfo rawUserInfo `json:"userInfo"`
}

type rawUserInfo struct {
	User  rawUserDetail `json:"user"`
	Stats rawUserStats  `json:"stats"`
}

type rawUserDetail struct {
	ID       string `json:"id"`
	UniqueID string `json:"uniqueId"`
	Nickname string `json:"nickname"`
	Verified bool   `json:"verified"`
}

type rawUserStats struct {
	FollowerCount *int   `json:"followerCount"`
	VideoCount    *int   `json:"videoCount"`
	HeartCount    *int64 `json:"heartCount"`
	Heart         *int64 `json:"heart"`
}

// parseItemRef converts a raw feed entry to a lightweight ItemRef.
func parseItemRef(raw rawItem) ItemRef {
	return ItemRef{
		ID:       raw.ID,
		Username: raw.Author.UniqueID,
	}
}

// parseItemDetail converts a raw TikTok item record to the public type.
func parseItemDetail(raw rawItem) *ItemDetail {
	d := &ItemDetail{
		ID:         raw.ID,
		Caption:    raw.Desc,
		CreateTime: raw.CreateTime,
		Author:     AuthorInfo{Handle: raw.Author.UniqueID},
	}
	if raw.AuthorStats != nil {
		d.Author.FollowerCount = raw.AuthorStats.FollowerCount
		d.Author.VideoCount = raw.AuthorStats.VideoCount
		d.Author.TotalLikes = totalLikes(raw.AuthorStats.HeartCount, raw.AuthorStats.Heart)
	}
	if raw.Music != nil {
		d.Music = &MusicInfo{
			ID:       raw.Music.entityID(),
			Title:    raw.Music.Title,
			Original: raw.Music.Original,
		}
	}
	if raw.Video != nil {
		d.DurationSec = raw.Video.Duration
		d.PlayURL = raw.Video.PlayAddr
		if d.PlayURL == "" {
			d.PlayURL = raw.Video.DownloadAddr
		}
	}
	if raw.Stats != nil {
		d.Stats = EngagementStats{
			PlayCount:    raw.Stats.PlayCount,
			LikeCount:    firstInt64(raw.Stats.DiggCount, raw.Stats.LikeCount),
			CommentCount: raw.Stats.CommentCount,
			ShareCount:   raw.Stats.ShareCount,
		}
	}
	for _, te := range raw.TextExtra {
		if te.HashtagName != "" {
			d.Hashtags = append(d.Hashtags, te.HashtagName)
		}
	}
	return d
}

// totalLikes prefers heartCount over the legacy heart field.
func totalLikes(heartCount, heart *int64) *int64 {
	if heartCount != nil {
		return heartCount
	}
	return heart
}

func firstInt64(vals ...*int64) *int64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
