//go:build !unittest

package tiktok

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// launchBrowser starts the headless browser with stealth mode, plants the
// msToken cookie if one was provided, loads tiktok.com so the signing JS is
// available, and syncs the resulting cookies to the HTTP client.
// Caller must hold browserMu.
func (c *Client) launchBrowser() error {
	l := launcher.New().Headless(c.headless)
	if c.browserBin != "" {
		l = l.Bin(c.browserBin)
	}
	if c.proxy != "" {
		l = l.Proxy(c.proxy)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect browser: %w", err)
	}

	page, err := stealth.Page(browser)
	if err != nil {
		return fmt.Errorf("create stealth page: %w", err)
	}

	c.browser = browser
	c.page = page

	c.setupResourceBlocking()

	if c.msToken != "" {
		if err := c.page.SetCookies([]*proto.NetworkCookieParam{{
			Name:   "msToken",
			Value:  c.msToken,
			Domain: ".tiktok.com",
			Path:   "/",
		}}); err != nil {
			return fmt.Errorf("set msToken cookie: %w", err)
		}
	}

	if err := c.page.Navigate(c.baseURL); err != nil {
		return fmt.Errorf("navigate to tiktok: %w", err)
	}
	if err := c.page.WaitStable(2 * time.Second); err != nil {
		return fmt.Errorf("wait for page stable: %w", err)
	}

	// Cache that signing is ready after initial page load.
	c.signingReady.Store(true)

	// Sync browser cookies (including fresh msToken) to the HTTP client.
	return c.syncCookiesFromBrowser()
}

func (c *Client) setupResourceBlocking() {
	router := c.browser.HijackRequests()
	blocked := []string{"*.css", "*.png", "*.jpg", "*.jpeg", "*.woff*", "*.svg", "*analytics*"}
	for _, pattern := range blocked {
		router.MustAdd(pattern, func(ctx *rod.Hijack) {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		})
	}
	go router.Run()
}

// syncCookiesFromBrowser copies browser cookies to the HTTP client's cookie jar.
func (c *Client) syncCookiesFromBrowser() error {
	cookies, err := c.page.Cookies([]string{"https://www.tiktok.com"})
	if err != nil {
		return fmt.Errorf("get browser cookies: %w", err)
	}

	httpCookies := make([]*http.Cookie, 0, len(cookies))
	for _, ck := range cookies {
		httpCookies = append(httpCookies, &http.Cookie{
			Name:    ck.Name,
			Value:   ck.Value,
			Domain:  ck.Domain,
			Path:    ck.Path,
			Expires: time.Unix(int64(ck.Expires), 0),
		})
	}

	c.SetCookies(httpCookies)
	return nil
}

// signURL calls TikTok's frontierSign JS to generate the X-Bogus signature.
// frontierSign returns an object like {"X-Bogus": "xxx"} — we append those
// params to the original URL.
// Caller must hold browserMu.
func (c *Client) signURL(rawURL string) (string, error) {
	if c.page == nil {
		return "", ErrBrowserNotReady
	}

	if err := c.ensureSigningReady(); err != nil {
		return "", fmt.Errorf("ensure signing ready: %w", err)
	}

	// Timeout the JS eval to avoid hanging forever.
	page := c.page.Timeout(5 * time.Second)

	// Returns the signed URL directly by appending params from frontierSign.
	result, err := page.Eval(`(url) => {
		if (typeof window.byted_acrawler === 'undefined') {
			throw new Error('signing function not available');
		}
		const params = window.byted_acrawler.frontierSign(url);
		if (typeof params === 'string') {
			return params;
		}
		// frontierSign returns an object {X-Bogus: "xxx", ...}
		const u = new URL(url);
		for (const [k, v] of Object.entries(params)) {
			u.searchParams.set(k, v);
		}
		return u.toString();
	}`, rawURL)
	if err != nil {
		// Mark signing as not ready so next call will reload.
		c.signingReady.Store(false)
		return "", fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}

	return result.Value.String(), nil
}

// ensureSigningReady checks if the signing JS is available, reloading only if
// a previous call failed (cached via atomic bool to avoid overhead per call).
func (c *Client) ensureSigningReady() error {
	if c.signingReady.Load() {
		return nil
	}

	result, err := c.page.Timeout(3 * time.Second).Eval(`() => typeof window.byted_acrawler !== 'undefined'`)
	if err != nil || !result.Value.Bool() {
		if err := c.page.Navigate(c.baseURL); err != nil {
			return fmt.Errorf("reload for signing: %w", err)
		}
		if err := c.page.WaitStable(2 * time.Second); err != nil {
			return fmt.Errorf("wait after reload: %w", err)
		}
	}

	c.signingReady.Store(true)
	return nil
}

func (c *Client) closeBrowser() error {
	if c.page != nil {
		if err := c.page.Close(); err != nil {
			return fmt.Errorf("close page: %w", err)
		}
		c.page = nil
	}
	if c.browser != nil {
		if err := c.browser.Close(); err != nil {
			return fmt.Errorf("close browser: %w", err)
		}
		c.browser = nil
	}
	return nil
}
