package tiktok

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// trendingJSON returns a valid trending API response body.
func trendingJSON(count int, statusCode int) string {
	items := make([]string, 0, count)
	for i := range count {
		items = append(items, fmt.Sprintf(`{
			"id": "%d",
			"desc": "video %d",
			"createTime": 1706000000,
			"author": {"uniqueId": "user%d", "id": "%d"},
			"stats": {"playCount": %d, "diggCount": 50, "shareCount": 10, "commentCount": 5}
		}`, 1000+i, i, i, 200+i, (i+1)*1000))
	}
	return fmt.Sprintf(`{"itemList": [%s], "hasMore": true, "statusCode": %d}`,
		strings.Join(items, ","), statusCode)
}

// itemDetailJSON returns a valid item detail API response body.
func itemDetailJSON(id, handle string, withAuthorStats bool) string {
	authorStats := ""
	if withAuthorStats {
		authorStats = `"authorStats": {"followerCount": 5000, "videoCount": 40, "heartCount": 120000},`
	}
	return fmt.Sprintf(`{"itemInfo": {"itemStruct": {
		"id": "%s",
		"desc": "a caption #go",
		"createTime": 1706000000,
		"author": {"uniqueId": "%s"},
		%s
		"music": {"id": "m77", "title": "loop", "original": false},
		"video": {"duration": 21, "playAddr": "%s"},
		"stats": {"playCount": 123, "diggCount": 45, "commentCount": 6, "shareCount": 7},
		"textExtra": [{"hashtagName": "go"}]
	}}}`, id, handle, authorStats, "https://media.example/"+id)
}

// ---------------------------------------------------------------------------
// TrendingPage
// ---------------------------------------------------------------------------

func TestTrendingPage_Success(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/recommend/item_list/") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("count") != "5" {
			t.Errorf("expected count=5, got %q", r.URL.Query().Get("count"))
		}
		fmt.Fprint(w, trendingJSON(5, 0))
	}))
	defer srv.Close()

	c := newMockClient(srv.URL)
	refs, err := c.TrendingPage(context.Background(), 5)
	if err != nil {
		t.Fatalf("TrendingPage: %v", err)
	}
	if len(refs) != 5 {
		t.Fatalf("expected 5 refs, got %d", len(refs))
	}
	if refs[0].ID != "1000" || refs[0].Username != "user0" {
		t.Errorf("unexpected first ref: %+v", refs[0])
	}
}

func TestTrendingPage_InvalidCount(t *testing.T) {
	t.Parallel()
	c := newMockClient("http://unused")
	if _, err := c.TrendingPage(context.Background(), 0); err == nil {
		t.Error("expected error for zero count")
	}
}

func TestTrendingPage_ThrottleStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"itemList": [], "statusCode": 10201}`)
	}))
	defer srv.Close()

	c := newMockClient(srv.URL)
	_, err := c.TrendingPage(context.Background(), 10)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited for status 10201, got %v", err)
	}
}

func TestTrendingPage_EmptyList(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"itemList": [], "statusCode": 0}`)
	}))
	defer srv.Close()

	c := newMockClient(srv.URL)
	refs, err := c.TrendingPage(context.Background(), 10)
	if err != nil {
		t.Fatalf("TrendingPage: %v", err)
	}
	// The harvester decides what an empty page means; the client just
	// reports it.
	if len(refs) != 0 {
		t.Errorf("expected no refs, got %d", len(refs))
	}
}

func TestTrendingPage_SignError(t *testing.T) {
	t.Parallel()
	c := newMockClient("http://unused")
	c.signFunc = func(string) (string, error) { return "", ErrSigningFailed }
	_, err := c.TrendingPage(context.Background(), 10)
	if !errors.Is(err, ErrSigningFailed) {
		t.Errorf("expected ErrSigningFailed, got %v", err)
	}
}

func TestTrendingPage_NoBrowser(t *testing.T) {
	t.Parallel()
	c := New().WithFeedDelay(0)
	c.baseURL = "http://unused"
	_, err := c.TrendingPage(context.Background(), 10)
	if !errors.Is(err, ErrBrowserNotReady) {
		t.Errorf("expected ErrBrowserNotReady, got %v", err)
	}
}

func TestTrendingPage_ServerError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newMockClient(srv.URL)
	_, err := c.TrendingPage(context.Background(), 10)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestTrendingPage_InvalidJSON(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "not json")
	}))
	defer srv.Close()

	c := newMockClient(srv.URL)
	if _, err := c.TrendingPage(context.Background(), 10); err == nil {
		t.Error("expected decode error")
	}
}

// ---------------------------------------------------------------------------
// ItemDetail
// ---------------------------------------------------------------------------

func TestItemDetail_Success(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/item/detail/") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprint(w, itemDetailJSON("v9", "carol", true))
	}))
	defer srv.Close()

	c := newMockClient(srv.URL)
	d, err := c.ItemDetail(context.Background(), ItemRef{ID: "v9", Username: "carol"})
	if err != nil {
		t.Fatalf("ItemDetail: %v", err)
	}
	if d.ID != "v9" || d.Author.Handle != "carol" {
		t.Errorf("unexpected detail: %+v", d)
	}
	if d.Author.FollowerCount == nil || *d.Author.FollowerCount != 5000 {
		t.Errorf("expected followers from authorStats, got %v", d.Author.FollowerCount)
	}
	if d.Music == nil || d.Music.Original == nil || *d.Music.Original {
		t.Errorf("expected non-original music, got %+v", d.Music)
	}
}

func TestItemDetail_SSRFallbackForAuthorStats(t *testing.T) {
	t.Parallel()
	var profileHits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/item/detail/"):
			fmt.Fprint(w, itemDetailJSON("v10", "dave", false))
		case r.URL.Path == "/@dave":
			profileHits++
			fmt.Fprint(w, ssrPage("dave", "77", 900, 12, 36000))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := newMockClient(srv.URL)
	d, err := c.ItemDetail(context.Background(), ItemRef{ID: "v10", Username: "dave"})
	if err != nil {
		t.Fatalf("ItemDetail: %v", err)
	}
	if profileHits != 1 {
		t.Errorf("expected one profile fetch, got %d", profileHits)
	}
	if d.Author.FollowerCount == nil || *d.Author.FollowerCount != 900 {
		t.Errorf("expected followers from SSR fallback, got %v", d.Author.FollowerCount)
	}
	if d.Author.VideoCount == nil || *d.Author.VideoCount != 12 {
		t.Errorf("expected video count from SSR fallback, got %v", d.Author.VideoCount)
	}
}

func TestItemDetail_FallbackFailureKeepsRecord(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/item/detail/"):
			fmt.Fprint(w, itemDetailJSON("v11", "erin", false))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := newMockClient(srv.URL)
	d, err := c.ItemDetail(context.Background(), ItemRef{ID: "v11", Username: "erin"})
	if err != nil {
		t.Fatalf("ItemDetail should survive fallback failure: %v", err)
	}
	if d.Author.FollowerCount != nil {
		t.Errorf("expected absent followers, got %v", *d.Author.FollowerCount)
	}
}

func TestItemDetail_NotFound(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"itemInfo": {"itemStruct": {}}}`)
	}))
	defer srv.Close()

	c := newMockClient(srv.URL)
	_, err := c.ItemDetail(context.Background(), ItemRef{ID: "gone"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestItemDetail_EmptyID(t *testing.T) {
	t.Parallel()
	c := newMockClient("http://unused")
	if _, err := c.ItemDetail(context.Background(), ItemRef{}); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestItemDetail_InvalidJSON(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "{broken")
	}))
	defer srv.Close()

	c := newMockClient(srv.URL)
	if _, err := c.ItemDetail(context.Background(), ItemRef{ID: "x"}); err == nil {
		t.Error("expected decode error")
	}
}

// ---------------------------------------------------------------------------
// EntityUsageCount
// ---------------------------------------------------------------------------

func TestEntityUsageCount_MusicStats(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/music/detail/") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"musicInfo": {"stats": {"videoCount": 1500}}}`)
	}))
	defer srv.Close()

	c := newMockClient(srv.URL)
	count, err := c.EntityUsageCount(context.Background(), "music", "m1")
	if err != nil {
		t.Fatalf("EntityUsageCount: %v", err)
	}
	if count == nil || *count != 1500 {
		t.Errorf("expected 1500, got %v", count)
	}
}

func TestEntityUsageCount_TopLevelFallback(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"musicInfo": {"videoCount": 50}}`)
	}))
	defer srv.Close()

	c := newMockClient(srv.URL)
	count, err := c.EntityUsageCount(context.Background(), "music", "m2")
	if err != nil {
		t.Fatalf("EntityUsageCount: %v", err)
	}
	if count == nil || *count != 50 {
		t.Errorf("expected 50, got %v", count)
	}
}

func TestEntityUsageCount_SoundKind(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/sound/detail/") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"soundInfo": {"stats": {"videoCount": 7}}}`)
	}))
	defer srv.Close()

	c := newMockClient(srv.URL)
	count, err := c.EntityUsageCount(context.Background(), "sound", "s1")
	if err != nil {
		t.Fatalf("EntityUsageCount: %v", err)
	}
	if count == nil || *count != 7 {
		t.Errorf("expected 7, got %v", count)
	}
}

func TestEntityUsageCount_NoCount(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"musicInfo": {}}`)
	}))
	defer srv.Close()

	c := newMockClient(srv.URL)
	count, err := c.EntityUsageCount(context.Background(), "music", "m3")
	if err != nil {
		t.Fatalf("EntityUsageCount: %v", err)
	}
	if count != nil {
		t.Errorf("expected nil count, got %v", *count)
	}
}

func TestEntityUsageCount_NotFound(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	c := newMockClient(srv.URL)
	_, err := c.EntityUsageCount(context.Background(), "music", "m4")
	if !IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestEntityUsageCount_BadArgs(t *testing.T) {
	t.Parallel()
	c := newMockClient("http://unused")
	if _, err := c.EntityUsageCount(context.Background(), "music", ""); err == nil {
		t.Error("expected error for empty id")
	}
	if _, err := c.EntityUsageCount(context.Background(), "playlist", "x"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

// ---------------------------------------------------------------------------
// MediaBytes
// ---------------------------------------------------------------------------

func TestMediaBytes_Success(t *testing.T) {
	t.Parallel()
	payload := []byte("binary video bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	c := newMockClient(srv.URL)
	data, err := c.MediaBytes(context.Background(), &ItemDetail{ID: "v1", PlayURL: srv.URL + "/v1.mp4"})
	if err != nil {
		t.Fatalf("MediaBytes: %v", err)
	}
	if string(data) != string(payload) {
		t.Errorf("unexpected payload: %q", data)
	}
}

func TestMediaBytes_NoPlayURL(t *testing.T) {
	t.Parallel()
	c := newMockClient("http://unused")
	if _, err := c.MediaBytes(context.Background(), &ItemDetail{ID: "v1"}); err == nil {
		t.Error("expected error without play address")
	}
	if _, err := c.MediaBytes(context.Background(), nil); err == nil {
		t.Error("expected error for nil detail")
	}
}

func TestMediaBytes_EmptyBody(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newMockClient(srv.URL)
	_, err := c.MediaBytes(context.Background(), &ItemDetail{ID: "v1", PlayURL: srv.URL})
	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
}
