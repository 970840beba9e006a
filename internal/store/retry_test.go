package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/sms-booking-bot/internal/booking"
)

type flakyStore struct {
	*MemoryStore
	failures int
	err      error
	calls    int
}

func (f *flakyStore) SaveProgress(ctx context.Context, identity string, p booking.Progress) error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return f.MemoryStore.SaveProgress(ctx, identity, p)
}

func newTestRetrying(inner Store, attempts int) (*Retrying, *[]time.Duration) {
	r := NewRetrying(inner, RetryPolicy{Attempts: attempts, BaseDelay: 10 * time.Millisecond, MaxDelay: 25 * time.Millisecond}, nil)
	var slept []time.Duration
	r.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return r, &slept
}

func TestRetryingRecoversFromContention(t *testing.T) {
	inner := &flakyStore{MemoryStore: NewMemoryStore(), failures: 2, err: fmt.Errorf("save: %w", ErrContention)}
	r, slept := newTestRetrying(inner, 4)

	err := r.SaveProgress(context.Background(), "+1", booking.Progress{City: "Adelaide"})
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, *slept)

	p, err := r.GetProgress(context.Background(), "+1")
	require.NoError(t, err)
	assert.Equal(t, "Adelaide", p.City)
}

func TestRetryingGivesUpAfterAttempts(t *testing.T) {
	inner := &flakyStore{MemoryStore: NewMemoryStore(), failures: 10, err: ErrContention}
	r, slept := newTestRetrying(inner, 3)

	err := r.SaveProgress(context.Background(), "+1", booking.Progress{})
	assert.ErrorIs(t, err, ErrContention)
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, *slept)
}

func TestRetryingDoesNotRetryOtherErrors(t *testing.T) {
	inner := &flakyStore{MemoryStore: NewMemoryStore(), failures: 10, err: errors.New("syntax error")}
	r, slept := newTestRetrying(inner, 4)

	err := r.SaveProgress(context.Background(), "+1", booking.Progress{})
	assert.Error(t, err)
	assert.Equal(t, 1, inner.calls)
	assert.Empty(t, *slept)
}
