//go:build unittest

package tiktok

import "fmt"

func (c *Client) launchBrowser() error {
	return fmt.Errorf("browser: %w (build tag: unittest)", ErrBrowserNotReady)
}

func (c *Client) setupResourceBlocking() {}

func (c *Client) syncCookiesFromBrowser() error {
	return fmt.Errorf("sync cookies: %w (build tag: unittest)", ErrBrowserNotReady)
}

func (c *Client) signURL(rawURL string) (string, error) {
	if c.page == nil {
		return "", ErrBrowserNotReady
	}
	return "", ErrBrowserNotReady
}

func (c *Client) ensureSigningReady() error {
	if c.signingReady.Load() {
		return nil
	}
	return ErrBrowserNotReady
}

func (c *Client) closeBrowser() error {
	c.page = nil
	c.browser = nil
	return nil
}
