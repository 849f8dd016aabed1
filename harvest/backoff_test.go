package harvest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelay_ExponentialGrowth(t *testing.T) {
	t.Parallel()
	p := NewBackoffPolicy(2*time.Second, 30*time.Second, 0)
	p.rnd = func() float64 { return 0 }

	tests := []struct {
		consecutive int
		want        time.Duration
	}{
		{1, 4 * time.Second},
		{2, 8 * time.Second},
		{3, 16 * time.Second},
		{4, 30 * time.Second}, // 32s capped
		{6, 30 * time.Second},
		{100, 30 * time.Second}, // exponent clamped at 6
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Delay(tt.consecutive), "consecutive=%d", tt.consecutive)
	}
}

func TestBackoffDelay_Monotonic(t *testing.T) {
	t.Parallel()
	p := NewBackoffPolicy(2*time.Second, 30*time.Second, 0)
	p.rnd = func() float64 { return 0 }

	prev := time.Duration(0)
	for n := 1; n <= 20; n++ {
		d := p.Delay(n)
		assert.GreaterOrEqual(t, d, prev, "delay must not shrink at n=%d", n)
		assert.LessOrEqual(t, d, 30*time.Second)
		prev = d
	}
}

func TestBackoffDelay_JitterBounded(t *testing.T) {
	t.Parallel()
	jitter := 800 * time.Millisecond
	p := NewBackoffPolicy(2*time.Second, 30*time.Second, jitter)

	for range 100 {
		d := p.Delay(10)
		assert.GreaterOrEqual(t, d, 30*time.Second)
		assert.Less(t, d, 30*time.Second+jitter)
	}
}

func TestBackoffDelay_NegativeInput(t *testing.T) {
	t.Parallel()
	p := NewBackoffPolicy(2*time.Second, 30*time.Second, 0)
	p.rnd = func() float64 { return 0 }
	assert.Equal(t, 2*time.Second, p.Delay(-3), "negative counts clamp to 2^0")
}

func TestSleepCtx_CancelCutsShort(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	sleepCtx(ctx, 5*time.Second)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSleepCtx_ZeroReturnsImmediately(t *testing.T) {
	t.Parallel()
	start := time.Now()
	sleepCtx(context.Background(), 0)
	sleepCtx(context.Background(), -time.Second)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
