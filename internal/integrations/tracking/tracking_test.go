package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/BearBump/ParcelBox/internal/models"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	calls int
}

func (p *countingProvider) GetTrackingData(ctx context.Context, req Request) (*models.TrackingData, error) {
	p.calls++
	return &models.TrackingData{Status: models.TrackingStatus{Code: "transit"}}, nil
}

type fakeRL struct {
	allowed bool
	err     error
	keys    []string
}

func (r *fakeRL) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	r.keys = append(r.keys, key)
	return r.allowed, 1, r.err
}

func TestCheckFound(t *testing.T) {
	require.ErrorIs(t, CheckFound(nil), ErrNotFound)
	require.ErrorIs(t, CheckFound(&models.TrackingData{Status: models.TrackingStatus{Code: "unknown"}, Carriers: []json.RawMessage{json.RawMessage(`"x"`)}}), ErrNotFound)
	require.ErrorIs(t, CheckFound(&models.TrackingData{Status: models.TrackingStatus{Code: "transit"}}), ErrNotFound)
	require.NoError(t, CheckFound(&models.TrackingData{Status: models.TrackingStatus{Code: "transit"}, Carriers: []json.RawMessage{json.RawMessage(`"x"`)}}))
}

func TestRateLimited_Disabled_ReturnsNext(t *testing.T) {
	next := &countingProvider{}
	require.Same(t, next, RateLimited(next, nil, 10))
	require.Same(t, next, RateLimited(next, &fakeRL{}, 0))
}

func TestRateLimited_AllowedAndThrottled(t *testing.T) {
	next := &countingProvider{}
	rl := &fakeRL{allowed: true}
	p := RateLimited(next, rl, 10).(*rateLimited)
	p.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	p.pause = time.Millisecond

	_, err := p.GetTrackingData(context.Background(), Request{TrackingNumber: "AB123"})
	require.NoError(t, err)
	require.Equal(t, []string{"rl:provider:202501020304"}, rl.keys)

	rl.allowed = false
	_, err = p.GetTrackingData(context.Background(), Request{TrackingNumber: "AB123"})
	require.NoError(t, err)
	require.Equal(t, 2, next.calls)
}

func TestRateLimited_LimiterError(t *testing.T) {
	next := &countingProvider{}
	want := errors.New("redis down")
	p := RateLimited(next, &fakeRL{err: want}, 10)

	_, err := p.GetTrackingData(context.Background(), Request{TrackingNumber: "AB123"})
	require.ErrorIs(t, err, want)
	require.Zero(t, next.calls)
}
