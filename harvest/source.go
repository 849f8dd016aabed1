// Package harvest implements the trending-feed ingestion loop: paginated
// fetching under an opaque throttling regime, dedup across retried pages,
// backoff and session recovery, and per-record durable persistence until a
// target capture count is reached.
package harvest

import (
	"context"

	tiktok "github.com/TarekZSh/tiktok-virality-prediction"
)

// Source is the content platform as the harvester sees it. All calls may
// fail with an opaque error; the loop classifies every failure as item-level
// or page-level and never inspects error internals beyond nil-ness.
// *tiktok.Client satisfies this interface.
type Source interface {
	// OpenSession establishes the single authenticated session.
	OpenSession(ctx context.Context) error
	// ResetSession tears the session down (best effort) and reopens it.
	// Idempotent; safe to call mid-page.
	ResetSession(ctx context.Context) error
	// TrendingPage returns one finite, non-restartable batch of item refs.
	TrendingPage(ctx context.Context, count int) ([]tiktok.ItemRef, error)
	// ItemDetail fetches the full metadata record for one item.
	ItemDetail(ctx context.Context, ref tiktok.ItemRef) (*tiktok.ItemDetail, error)
	// EntityUsageCount resolves a music/sound usage count. kind is "music"
	// or "sound"; nil means the entity carries no count.
	EntityUsageCount(ctx context.Context, kind, id string) (*int, error)
	// MediaBytes downloads the raw media for an item.
	MediaBytes(ctx context.Context, detail *tiktok.ItemDetail) ([]byte, error)
}

var _ Source = (*tiktok.Client)(nil)
