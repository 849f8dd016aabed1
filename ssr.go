package tiktok

import (
	"bytes"
	"encoding/json"
	"fmt"
)

var (
	ssrTagOpen  = []byte(`<script id="__UNIVERSAL_DATA_FOR_REHYDRATION__" type="application/json">`)
	ssrTagClose = []byte(`</script>`)
)

// extractUniversalData finds and parses the __UNIVERSAL_DATA_FOR_REHYDRATION__
// JSON embedded in TikTok's server-rendered HTML.
func extractUniversalData(htmlBody []byte) (universalData, error) {
	start := bytes.Index(htmlBody, ssrTagOpen)
	if start == -1 {
		return universalData{}, fmt.Errorf("%w: rehydration script tag not found", ErrInvalidResponse)
	}
	start += len(ssrTagOpen)

	end := bytes.Index(htmlBody[start:], ssrTagClose)
	if end == -1 {
		return universalData{}, fmt.Errorf("%w: closing script tag not found", ErrInvalidResponse)
	}

	jsonBytes := htmlBody[start : start+end]

	var data universalData
	if err := json.Unmarshal(jsonBytes, &data); err != nil {
		return universalData{}, fmt.Errorf("unmarshal ssr data: %w", err)
	}
	return data, nil
}

// extractAuthorFromSSR pulls creator stats from parsed SSR data.
func extractAuthorFromSSR(data universalData) (AuthorInfo, error) {
	info := data.DefaultScope.UserDetail.UserInfo
	if info.User.UniqueID == "" {
		return AuthorInfo{}, fmt.Errorf("%w: user data missing in ssr response", ErrNotFound)
	}
	return AuthorInfo{
		Handle:        info.User.UniqueID,
		FollowerCount: info.Stats.FollowerCount,
		VideoCount:    info.Stats.VideoCount,
		TotalLikes:    totalLikes(info.Stats.HeartCount, info.Stats.Heart),
	}, nil
}
