package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
)

// TrendingPage fetches one page of trending item references. Each call is an
// independent request: the feed is finite per call and not restartable, and
// consecutive calls may overlap or skip items — callers dedup by id.
// Requires an open session.
func (c *Client) TrendingPage(ctx context.Context, count int) ([]ItemRef, error) {
	if count <= 0 {
		return nil, fmt.Errorf("trending page: count must be positive, got %d", count)
	}

	rawURL := fmt.Sprintf(
		"%s/api/recommend/item_list/?count=%d&from_page=fyp",
		c.baseURL, count,
	)

	// Sign URL via browser JS (~50ms). Mutex protects single-threaded browser page.
	c.browserMu.Lock()
	signedURL, err := c.signFunc(rawURL)
	c.browserMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("sign trending url: %w", err)
	}

	// Rate limit before the HTTP call, not the signing.
	c.waitForFeed()

	resp, err := c.doRequest(ctx, "GET", signedURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result trendingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode trending response: %w", err)
	}

	// Non-zero status with no items is TikTok's soft throttle (10201 et al).
	if result.StatusCode != 0 && len(result.ItemList) == 0 {
		return nil, fmt.Errorf("%w: status_code=%d", ErrRateLimited, result.StatusCode)
	}

	refs := make([]ItemRef, 0, len(result.ItemList))
	for _, raw := range result.ItemList {
		refs = append(refs, parseItemRef(raw))
	}
	return refs, nil
}
