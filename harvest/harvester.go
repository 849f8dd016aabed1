package harvest

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	tiktok "github.com/TarekZSh/tiktok-virality-prediction"
)

// Politeness pauses. Not a correctness requirement, but the feed throttles
// aggressively without them.
const (
	itemPauseMin = 300 * time.Millisecond
	itemPauseMax = 900 * time.Millisecond
	pagePauseMin = 1200 * time.Millisecond
	pagePauseMax = 2500 * time.Millisecond
)

// Harvester drives the ingestion run: one page request, one item pipeline,
// and one session at a time. No failure from items or pages escapes Run;
// everything is absorbed into the error counter and backoff decisions.
type Harvester struct {
	cfg    Config
	src    Source
	sink   *Sink
	enr    *Enricher
	state  *RunState
	policy *BackoffPolicy
	log    zerolog.Logger

	// Injectable for tests.
	sleep func(context.Context, time.Duration)
	rnd   func() float64
}

// Summary is what a finished run reports. An under-target Captured means the
// iteration ceiling (or a signal) stopped the run first; that is a normal
// completion, not an error.
type Summary struct {
	Captured  int
	Target    int
	Loops     int
	CSVPath   string
	JSONLPath string
}

// New wires a harvester from its collaborators. The sound-usage cache lives
// in the run state so the enricher and loop share one view of it.
func New(cfg Config, src Source, sink *Sink, log zerolog.Logger) *Harvester {
	state := NewRunState(cfg.TargetCount)
	return &Harvester{
		cfg:    cfg,
		src:    src,
		sink:   sink,
		enr:    NewEnricher(src, state.SoundUsage, cfg.PopularSoundMinUses),
		state:  state,
		policy: NewBackoffPolicy(cfg.BackoffBase, cfg.BackoffMax, cfg.BackoffJitter),
		log:    log,
		sleep:  sleepCtx,
		rnd:    rand.Float64,
	}
}

// PreloadSeen marks ids as already captured, typically replayed from a
// previous run's JSONL output. Preloaded ids count toward dedup but not
// toward this run's captured count.
func (h *Harvester) PreloadSeen(ids []string) {
	for _, id := range ids {
		if id != "" {
			h.state.Seen[id] = struct{}{}
		}
	}
}

// Run drives pages until the target is reached or the iteration ceiling is
// hit. The returned error is only ever the context's: every source failure
// is absorbed per the backoff policy.
func (h *Harvester) Run(ctx context.Context) (Summary, error) {
	if err := os.MkdirAll(h.cfg.DownloadDir, 0o755); err != nil {
		return h.summary(), fmt.Errorf("create download dir: %w", err)
	}
	if err := h.src.OpenSession(ctx); err != nil {
		return h.summary(), fmt.Errorf("open session: %w", err)
	}

	for !h.state.Done() && h.state.Loops < h.cfg.MaxLoops && ctx.Err() == nil {
		h.state.Loops++
		want := min(h.cfg.PageSize, h.state.Remaining())

		h.log.Info().
			Int("page", h.state.Loops).
			Int("need", h.state.Remaining()).
			Int("requesting", want).
			Msg("requesting trending page")

		refs, err := h.src.TrendingPage(ctx, want)
		if err == nil && len(refs) == 0 {
			// An empty page under active throttling is indistinguishable
			// from silent blocking; promote it to a page failure.
			err = tiktok.ErrEmptyPage
		}
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			h.pageFailure(ctx, err)
			continue
		}

		for _, ref := range refs {
			if h.state.Done() || ctx.Err() != nil {
				break
			}
			if ref.ID == "" {
				continue
			}
			if _, seen := h.state.Seen[ref.ID]; seen {
				continue
			}

			if err := h.captureItem(ctx, ref); err != nil {
				if ctx.Err() != nil {
					break
				}
				h.itemFailure(ctx, ref, err)
				continue
			}

			h.state.Seen[ref.ID] = struct{}{}
			h.state.Captured++
			h.state.ConsecutiveErrors = 0

			h.log.Info().
				Str("id", ref.ID).
				Int("captured", h.state.Captured).
				Int("target", h.state.Target).
				Msg("saved")

			h.pause(ctx, itemPauseMin, itemPauseMax)
		}

		h.pause(ctx, pagePauseMin, pagePauseMax)
	}

	return h.summary(), ctx.Err()
}

// captureItem runs the full per-item pipeline: detail fetch, enrichment,
// media download + write, durable append. Any error means the item is
// skipped and counted; the record is only appended once the media is on disk.
func (h *Harvester) captureItem(ctx context.Context, ref tiktok.ItemRef) error {
	detail, err := h.src.ItemDetail(ctx, ref)
	if err != nil {
		return fmt.Errorf("item detail: %w", err)
	}

	item := h.enr.Enrich(ctx, ref, detail)

	media, err := h.src.MediaBytes(ctx, detail)
	if err != nil {
		return fmt.Errorf("media fetch: %w", err)
	}

	path := filepath.Join(h.cfg.DownloadDir, detail.ID+".mp4")
	if err := os.WriteFile(path, media, 0o644); err != nil {
		return fmt.Errorf("media write: %w", err)
	}
	item.DownloadPath = path

	if err := h.sink.Append(item); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// itemFailure counts one failed item. The page goes on — a single bad item
// never aborts it — but crossing the threshold forces a session reset.
func (h *Harvester) itemFailure(ctx context.Context, ref tiktok.ItemRef, err error) {
	h.state.ConsecutiveErrors++
	h.log.Warn().
		Err(err).
		Str("id", ref.ID).
		Int("consecutive_errors", h.state.ConsecutiveErrors).
		Msg("item failed")

	if h.state.ConsecutiveErrors >= h.cfg.ResetSessionAfterErrors {
		h.resetSession(ctx)
	}
}

// pageFailure backs off exponentially on the shared error counter, then
// independently checks the session-reset threshold.
func (h *Harvester) pageFailure(ctx context.Context, err error) {
	h.state.ConsecutiveErrors++
	delay := h.policy.Delay(h.state.ConsecutiveErrors)

	h.log.Warn().
		Err(err).
		Int("consecutive_errors", h.state.ConsecutiveErrors).
		Dur("backoff", delay).
		Msg("page failed, backing off")

	h.sleep(ctx, delay)

	if h.state.ConsecutiveErrors >= h.cfg.ResetSessionAfterErrors {
		h.resetSession(ctx)
	}
}

func (h *Harvester) resetSession(ctx context.Context) {
	h.log.Info().Msg("recreating session to clear throttle/verification state")
	if err := h.src.ResetSession(ctx); err != nil {
		// Leave the counter as is; the next failure will try again.
		h.log.Error().Err(err).Msg("session reset failed")
		return
	}
	h.state.ConsecutiveErrors = 0
}

// pause sleeps a uniform random duration in [lo, hi].
func (h *Harvester) pause(ctx context.Context, lo, hi time.Duration) {
	d := lo + time.Duration(h.rnd()*float64(hi-lo))
	h.sleep(ctx, d)
}

func (h *Harvester) summary() Summary {
	csvPath, jsonlPath := h.sink.Paths()
	return Summary{
		Captured:  h.state.Captured,
		Target:    h.state.Target,
		Loops:     h.state.Loops,
		CSVPath:   csvPath,
		JSONLPath: jsonlPath,
	}
}
