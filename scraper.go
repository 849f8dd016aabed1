package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"golang.org/x/net/proxy"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

var tiktokURL, _ = url.Parse("https://www.tiktok.com")

// Client talks to TikTok. It uses pure HTTP for detail lookups and media
// downloads, and a headless browser for URL signing and session bootstrap.
// One Client holds at most one authenticated session; there is no pooling.
type Client struct {
	client    *http.Client
	proxy     string
	userAgent string
	baseURL   string // defaults to "https://www.tiktok.com"

	// Browser for URL signing and session cookies.
	browser      *rod.Browser
	page         *rod.Page
	browserMu    sync.Mutex
	signingReady atomic.Bool
	browserBin   string // launcher binary override, "" = bundled chromium
	headless     bool

	// signFunc signs a raw URL via browser JS. Replaceable for testing.
	signFunc func(rawURL string) (string, error)

	// Per-operation rate limiting.
	// Feed pages: ~30/min -> 2s min. Item lookups: ~60/min -> 1s min.
	feedDelay time.Duration
	itemDelay time.Duration
	lastFeed  time.Time
	lastItem  time.Time
	feedMu    sync.Mutex
	itemMu    sync.Mutex

	// Session token.
	msToken string
}

// defaultTransport returns an http.Transport optimized for scraping:
// connection pooling, keep-alive, and TLS handshake caching.
func defaultTransport() *http.Transport {
	return &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
}

// New creates a Client with sensible defaults. The browser is not launched
// until OpenSession is called.
func New() *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		client: &http.Client{
			Jar:       jar,
			Timeout:   15 * time.Second,
			Transport: defaultTransport(),
		},
		baseURL:   "https://www.tiktok.com",
		userAgent: defaultUserAgent,
		feedDelay: 2 * time.Second,
		itemDelay: time.Second,
		headless:  true,
	}
	c.signFunc = c.signURL
	return c
}

// WithFeedDelay sets the minimum delay between trending feed requests.
func (c *Client) WithFeedDelay(d time.Duration) *Client {
	c.feedDelay = d
	return c
}

// WithItemDelay sets the minimum delay between item detail, entity, and
// media requests.
func (c *Client) WithItemDelay(d time.Duration) *Client {
	c.itemDelay = d
	return c
}

// WithMSToken sets the msToken used to bootstrap the session.
func (c *Client) WithMSToken(token string) *Client {
	c.msToken = token
	return c
}

// WithBrowser overrides the browser binary used for the headless session.
func (c *Client) WithBrowser(bin string) *Client {
	c.browserBin = bin
	return c
}

// WithHeadless controls whether the browser runs headless. Default true.
func (c *Client) WithHeadless(headless bool) *Client {
	c.headless = headless
	return c
}

// SetProxy configures an HTTP/HTTPS or SOCKS5 proxy for the HTTP client.
// Connection pooling and keep-alive settings are preserved.
func (c *Client) SetProxy(proxyAddr string) error {
	if proxyAddr == "" {
		c.client.Transport = defaultTransport()
		c.proxy = ""
		return nil
	}

	u, err := url.Parse(proxyAddr)
	if err != nil {
		return fmt.Errorf("parse proxy url: %w", err)
	}

	base := defaultTransport()

	switch u.Scheme {
	case "http", "https":
		base.Proxy = http.ProxyURL(u)
		c.client.Transport = base
	case "socks5":
		var auth *proxy.Auth
		if u.User != nil {
			pass, _ := u.User.Password()
			auth = &proxy.Auth{User: u.User.Username(), Password: pass}
		}
		dialer, err := proxy.SOCKS5("tcp", u.Host, auth, proxy.Direct)
		if err != nil {
			return fmt.Errorf("socks5 proxy: %w", err)
		}
		dc, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return fmt.Errorf("socks5: context dialer not supported")
		}
		base.DialContext = dc.DialContext
		c.client.Transport = base
	default:
		return fmt.Errorf("unsupported proxy scheme: %s", u.Scheme)
	}

	c.proxy = proxyAddr
	return nil
}

// doRequest builds and executes an HTTP request with standard TikTok headers.
// No built-in rate limiting — callers use waitForFeed or waitForItem.
func (c *Client) doRequest(ctx context.Context, method, urlStr string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", "https://www.tiktok.com/")
	req.Header.Set("Origin", "https://www.tiktok.com")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		resp.Body.Close()
		return nil, ErrRateLimited
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrNotFound
	}

	return resp, nil
}

// waitForFeed enforces rate limiting for trending feed requests.
func (c *Client) waitForFeed() {
	c.feedMu.Lock()
	defer c.feedMu.Unlock()
	c.throttle(&c.lastFeed, c.feedDelay)
}

// waitForItem enforces rate limiting for detail/entity/media requests.
func (c *Client) waitForItem() {
	c.itemMu.Lock()
	defer c.itemMu.Unlock()
	c.throttle(&c.lastItem, c.itemDelay)
}

// throttle sleeps if needed to enforce min delay + jitter between requests.
func (c *Client) throttle(lastReq *time.Time, delay time.Duration) {
	if delay == 0 {
		return
	}
	elapsed := time.Since(*lastReq)
	jitter := time.Duration(rand.Int64N(int64(500 * time.Millisecond)))
	wait := delay + jitter - elapsed
	if wait > 0 {
		time.Sleep(wait)
	}
	*lastReq = time.Now()
}

// GetCookies returns the current session cookies for tiktok.com.
func (c *Client) GetCookies() []*http.Cookie {
	return c.client.Jar.Cookies(tiktokURL)
}

// SetCookies sets session cookies and extracts the msToken.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	c.client.Jar.SetCookies(tiktokURL, cookies)
	for _, ck := range cookies {
		if ck.Name == "msToken" {
			c.msToken = ck.Value
		}
	}
}

// SaveCookies writes session cookies to a JSON file.
func (c *Client) SaveCookies(path string) error {
	data, err := json.Marshal(c.GetCookies())
	if err != nil {
		return fmt.Errorf("marshal cookies: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// LoadCookies reads cookies from a JSON file and sets them on the client.
func (c *Client) LoadCookies(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read cookies file: %w", err)
	}
	var cookies []*http.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return fmt.Errorf("unmarshal cookies: %w", err)
	}
	c.SetCookies(cookies)
	return nil
}

// Close releases all resources including the headless browser if running.
func (c *Client) Close() error {
	return c.closeBrowser()
}
