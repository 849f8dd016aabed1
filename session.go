package tiktok

import (
	"context"
	"fmt"
)

// OpenSession establishes the authenticated browser context. It is a no-op
// when a session is already open. The msToken set via WithMSToken (or loaded
// cookies) is planted before the first navigation so TikTok treats the
// session as warmed.
func (c *Client) OpenSession(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.browserMu.Lock()
	defer c.browserMu.Unlock()

	if c.browser != nil {
		return nil
	}
	if err := c.launchBrowser(); err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	return nil
}

// ResetSession tears down the current browser context and opens a fresh one.
// Teardown errors are ignored; a half-dead browser is exactly the situation
// a reset recovers from. Safe to call mid-page: callers must simply not
// issue further requests until it returns.
func (c *Client) ResetSession(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.browserMu.Lock()
	defer c.browserMu.Unlock()

	_ = c.closeBrowser()
	c.signingReady.Store(false)

	if err := c.launchBrowser(); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	return nil
}
