package harvest

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffPolicy computes page-failure sleep times: exponential in the shared
// consecutive-error count, capped, plus uniform jitter. There is no retry
// ceiling here — the outer loop's iteration guard is the only hard stop.
type BackoffPolicy struct {
	Base   time.Duration
	Max    time.Duration
	Jitter time.Duration

	// rnd returns a uniform value in [0,1). Replaceable for tests.
	rnd func() float64
}

// NewBackoffPolicy builds a policy from the configured base/max/jitter.
func NewBackoffPolicy(base, max, jitter time.Duration) *BackoffPolicy {
	return &BackoffPolicy{Base: base, Max: max, Jitter: jitter, rnd: rand.Float64}
}

// Delay returns the sleep for the nth consecutive failure (n >= 1):
// min(Max, Base*2^min(n,6)) + uniform(0, Jitter). The exponent clamp keeps
// the multiplication from overflowing long before the cap applies.
func (p *BackoffPolicy) Delay(consecutive int) time.Duration {
	if consecutive < 0 {
		consecutive = 0
	}
	exp := consecutive
	if exp > 6 {
		exp = 6
	}
	d := time.Duration(float64(p.Base) * math.Pow(2, float64(exp)))
	if d > p.Max {
		d = p.Max
	}
	if p.Jitter > 0 {
		d += time.Duration(p.rnd() * float64(p.Jitter))
	}
	return d
}

// sleepCtx blocks for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
