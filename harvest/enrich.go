package harvest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tiktok "github.com/TarekZSh/tiktok-virality-prediction"
)

// Enricher computes the derived fields of a CapturedItem. Every derivation
// is total: missing or malformed inputs become absent fields or a tagged
// reason string, never an error — enrichment must not abort an item.
type Enricher struct {
	src     Source
	cache   map[string]*int // sound id -> usage; nil value = unresolved
	minUses int
}

// NewEnricher creates an enricher that resolves sound usage through src and
// caches results (including unresolved lookups) in cache.
func NewEnricher(src Source, cache map[string]*int, minUses int) *Enricher {
	return &Enricher{src: src, cache: cache, minUses: minUses}
}

// Enrich builds the captured record from a full detail record. DownloadPath
// is left empty; the loop fills it in after the media write succeeds.
func (e *Enricher) Enrich(ctx context.Context, ref tiktok.ItemRef, d *tiktok.ItemDetail) *CapturedItem {
	item := &CapturedItem{
		ID:      d.ID,
		Caption: d.Caption,
	}

	handle := d.Author.Handle
	if handle == "" {
		handle = ref.Username
	}
	if handle != "" {
		item.Username = &handle
		watch := tiktok.ItemRef{ID: d.ID, Username: handle}.WatchURL()
		item.WatchURL = &watch
	}

	item.CreatorFollowers = d.Author.FollowerCount
	item.CreatorVideoCount = d.Author.VideoCount
	item.CreatorTotalLikes = d.Author.TotalLikes
	item.AvgLikesPerVideo = avgLikesPerVideo(d.Author.VideoCount, d.Author.TotalLikes)

	item.CreateTimeISO = isoTime(d.CreateTime)
	item.DurationSec = d.DurationSec
	item.Hashtags = extractHashtags(d.Hashtags, d.Caption)

	usage, lookupErr := e.soundUsage(ctx, d.Music)
	item.MusicUsesCount = usage
	item.UsesPopularSound, item.PopularSoundReason = popularSound(d.Music, usage, e.minUses, lookupErr)

	item.PlayCount = d.Stats.PlayCount
	item.LikeCount = d.Stats.LikeCount
	item.CommentCount = d.Stats.CommentCount
	item.ShareCount = d.Stats.ShareCount

	return item
}

// isoTime converts epoch seconds to an ISO-8601 UTC string. Unusable
// timestamps yield nil, never an error.
func isoTime(epoch int64) *string {
	if epoch <= 0 {
		return nil
	}
	s := time.Unix(epoch, 0).UTC().Format(time.RFC3339)
	return &s
}

// extractHashtags derives the hashtag list: structured tag names first,
// falling back to #-prefixed caption tokens when there are none. Tags are
// deduplicated case-insensitively, keeping first-seen casing and order.
func extractHashtags(names []string, caption string) []string {
	var tags []string
	for _, name := range names {
		if name != "" {
			tags = append(tags, "#"+name)
		}
	}
	if len(tags) == 0 {
		for _, w := range strings.Fields(caption) {
			if strings.HasPrefix(w, "#") {
				tags = append(tags, w)
			}
		}
	}

	seen := make(map[string]struct{}, len(tags))
	uniq := make([]string, 0, len(tags))
	for _, t := range tags {
		tl := strings.ToLower(t)
		if _, ok := seen[tl]; ok {
			continue
		}
		seen[tl] = struct{}{}
		uniq = append(uniq, t)
	}
	return uniq
}

// avgLikesPerVideo is present only when videoCount is a positive integer and
// totalLikes is known. Absence is distinct from a true zero.
func avgLikesPerVideo(videoCount *int, totalLikes *int64) *float64 {
	if videoCount == nil || *videoCount <= 0 || totalLikes == nil {
		return nil
	}
	avg := float64(*totalLikes) / float64(*videoCount)
	return &avg
}

// soundUsage resolves the usage count for the item's sound, consulting the
// cache first. On a miss it tries the entity as "music" then as "sound",
// accepting the first numeric count. The result is cached either way, so an
// unresolved sound is not re-queried every time it reappears. The returned
// string is an error tag ("" when the lookup did not raise).
func (e *Enricher) soundUsage(ctx context.Context, music *tiktok.MusicInfo) (*int, string) {
	if music == nil || music.ID == "" {
		return nil, ""
	}
	if cached, ok := e.cache[music.ID]; ok {
		return cached, ""
	}

	var firstErr error
	for _, kind := range []string{"music", "sound"} {
		count, err := e.src.EntityUsageCount(ctx, kind, music.ID)
		if err != nil {
			if firstErr == nil && !errors.Is(err, tiktok.ErrNotFound) {
				firstErr = err
			}
			continue
		}
		if count != nil {
			e.cache[music.ID] = count
			return count, ""
		}
	}

	e.cache[music.ID] = nil
	if firstErr != nil {
		return nil, firstErr.Error()
	}
	return nil, ""
}

// popularSound applies the popularity heuristic: a sound is popular when it
// is explicitly flagged non-original, or when its usage count reaches
// minUses. The reason string is a pipe-joined audit of which conditions had
// data, "no_reason" when none did, or an error tag when the lookup raised.
func popularSound(music *tiktok.MusicInfo, usage *int, minUses int, lookupErr string) (bool, string) {
	nonOriginal := music != nil && music.Original != nil && !*music.Original

	popular := nonOriginal || (usage != nil && *usage >= minUses)

	var reasons []string
	if nonOriginal {
		reasons = append(reasons, "non_original_sound")
	}
	if usage != nil {
		reasons = append(reasons, fmt.Sprintf("videoCount=%d", *usage))
	}
	if len(reasons) == 0 {
		if lookupErr != "" {
			return false, "error:" + lookupErr
		}
		return popular, "no_reason"
	}
	return popular, strings.Join(reasons, "|")
}
