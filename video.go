package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// ItemDetail fetches the full metadata record for one video. When the detail
// endpoint omits creator stats, the author's profile page is parsed as a
// fallback (SSR rehydration data, pure HTTP).
func (c *Client) ItemDetail(ctx context.Context, ref ItemRef) (*ItemDetail, error) {
	if ref.ID == "" {
		return nil, fmt.Errorf("item detail: id is required")
	}

	rawURL := fmt.Sprintf("%s/api/item/detail/?itemId=%s", c.baseURL, ref.ID)

	c.browserMu.Lock()
	signedURL, err := c.signFunc(rawURL)
	c.browserMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("sign item detail url: %w", err)
	}

	c.waitForItem()

	resp, err := c.doRequest(ctx, "GET", signedURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result itemDetailResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode item detail: %w", err)
	}
	if result.ItemInfo.ItemStruct.ID == "" {
		return nil, fmt.Errorf("%w: item %q", ErrNotFound, ref.ID)
	}

	detail := parseItemDetail(result.ItemInfo.ItemStruct)
	if detail.Author.Handle == "" {
		detail.Author.Handle = ref.Username
	}

	if detail.Author.FollowerCount == nil && detail.Author.Handle != "" {
		if stats, err := c.creatorStats(ctx, detail.Author.Handle); err == nil {
			detail.Author.FollowerCount = stats.FollowerCount
			detail.Author.VideoCount = stats.VideoCount
			detail.Author.TotalLikes = stats.TotalLikes
		}
		// Stats stay absent on fallback failure; the record is still usable.
	}

	return detail, nil
}

// creatorStats fetches a creator profile via SSR HTML parsing.
// This is pure HTTP — no signing required.
func (c *Client) creatorStats(ctx context.Context, handle string) (AuthorInfo, error) {
	totalStart := time.Now()
	profileURL := c.baseURL + "/@" + handle

	c.waitForItem()

	resp, err := c.doRequest(ctx, "GET", profileURL, nil)
	if err != nil {
		return AuthorInfo{}, fmt.Errorf("get creator %q: %w", handle, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return AuthorInfo{}, fmt.Errorf("read creator page %q: %w", handle, err)
	}

	data, err := extractUniversalData(body)
	if err != nil {
		return AuthorInfo{}, fmt.Errorf("parse creator page %q: %w", handle, err)
	}

	info, err := extractAuthorFromSSR(data)
	if err != nil {
		return AuthorInfo{}, fmt.Errorf("extract creator %q: %w", handle, err)
	}

	perfLog("creatorStats: handle=%s total=%v body=%d bytes", handle, time.Since(totalStart), len(body))

	return info, nil
}

// MediaBytes downloads the raw media for an item using the shared HTTP
// client, so the session cookies travel with the request.
func (c *Client) MediaBytes(ctx context.Context, detail *ItemDetail) ([]byte, error) {
	if detail == nil || detail.PlayURL == "" {
		return nil, fmt.Errorf("media bytes: no play address for item %q", idOf(detail))
	}

	c.waitForItem()

	start := time.Now()
	resp, err := c.doRequest(ctx, "GET", detail.PlayURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch media %q: %w", detail.ID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read media %q: %w", detail.ID, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty media body for %q", ErrInvalidResponse, detail.ID)
	}

	perfLog("MediaBytes: id=%s bytes=%d total=%v", detail.ID, len(data), time.Since(start))

	return data, nil
}

func idOf(d *ItemDetail) string {
	if d == nil {
		return ""
	}
	return d.ID
}
