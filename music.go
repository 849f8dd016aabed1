package tiktok

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
)

// EntityUsageCount looks up how many videos use a music/sound entity.
// kind is "music" or "sound" — TikTok exposes the same entity under two
// endpoints and either may know it. Returns (nil, nil) when the entity
// exists but carries no usage count, and ErrNotFound when it does not exist.
func (c *Client) EntityUsageCount(ctx context.Context, kind, id string) (*int, error) {
	if id == "" {
		return nil, fmt.Errorf("entity usage: id is required")
	}

	var rawURL string
	switch kind {
	case "music":
		rawURL = fmt.Sprintf("%s/api/music/detail/?musicId=%s", c.baseURL, url.QueryEscape(id))
	case "sound":
		rawURL = fmt.Sprintf("%s/api/sound/detail/?soundId=%s", c.baseURL, url.QueryEscape(id))
	default:
		return nil, fmt.Errorf("entity usage: unknown kind %q", kind)
	}

	c.browserMu.Lock()
	signedURL, err := c.signFunc(rawURL)
	c.browserMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("sign %s url: %w", kind, err)
	}

	c.waitForItem()

	resp, err := c.doRequest(ctx, "GET", signedURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result entityDetailResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode %s detail: %w", kind, err)
	}

	info := result.MusicInfo
	if info == nil {
		info = result.SoundInfo
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
	}

	// The count lives under stats.videoCount, with a top-level fallback.
	if info.Stats != nil && info.Stats.VideoCount != nil {
		return info.Stats.VideoCount, nil
	}
	return info.VideoCount, nil
}

// IsNotFound reports whether err means the looked-up entity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
