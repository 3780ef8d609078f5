package fake

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/BearBump/ParcelBox/internal/integrations/tracking"
	"github.com/stretchr/testify/require"
)

func TestClient_GetTrackingData_Deterministic(t *testing.T) {
	c := New()
	seenFound := false
	for i := 0; i < 50; i++ {
		tn := fmt.Sprintf("FAKE%05d", i)
		a, errA := c.GetTrackingData(context.Background(), tracking.Request{TrackingNumber: tn})
		b, errB := c.GetTrackingData(context.Background(), tracking.Request{TrackingNumber: tn})
		if errA != nil {
			require.True(t, errors.Is(errA, tracking.ErrNotFound))
			require.ErrorIs(t, errB, tracking.ErrNotFound)
			continue
		}
		seenFound = true
		require.NoError(t, errB)
		require.Equal(t, a.Status.Code, b.Status.Code)
		require.Len(t, a.Steps, 1)
		require.NotEmpty(t, a.Carriers)
		require.NoError(t, tracking.CheckFound(a))
	}
	require.True(t, seenFound)
}

func TestClient_GetTrackingData_ForcedCarrierAndCancel(t *testing.T) {
	c := New()
	for i := 0; i < 20; i++ {
		d, err := c.GetTrackingData(context.Background(), tracking.Request{TrackingNumber: fmt.Sprintf("F%05d", i), ForcedCarrier: "gls"})
		if err != nil {
			continue
		}
		require.Equal(t, "gls", d.Steps[0].Carrier.Slug)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetTrackingData(ctx, tracking.Request{TrackingNumber: "AB123"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestClient_ListCarriers(t *testing.T) {
	cs, err := New().ListCarriers(context.Background())
	require.NoError(t, err)
	require.Len(t, cs, 5)
	require.Equal(t, "colissimo", cs[0].Slug)
}
