package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOrder_DisplayLabel(t *testing.T) {
	require.Equal(t, "AB123", Order{TrackingNumber: "AB123"}.DisplayLabel())
	require.Equal(t, "Shoes", Order{TrackingNumber: "AB123", Label: "Shoes"}.DisplayLabel())
}

func TestTrackingData_Decode(t *testing.T) {
	raw := `{
  "status": {"code": "transit", "sublabel": "On its way", "label": "In transit"},
  "forecast": {"estimatedDeliveryDateMaxHumanReadable": "Friday", "estimatedDeliveryDateMax": "2025-03-07T18:00:00Z"},
  "transit": {"shippingDate": "2025-03-02 08:30:00"},
  "steps": [{"carrier": {"name": "Colissimo", "slug": "colissimo"}, "humanReadableStatus": "Sorting", "humanReadableTime": "Mon 08:30", "lines": [{"lineOriginal": "Pris en charge"}]}],
  "carriers": [{"slug": "colissimo"}]
}`
	var d TrackingData
	require.NoError(t, json.Unmarshal([]byte(raw), &d))
	require.Equal(t, "transit", d.Status.Code)
	require.Equal(t, "Friday", d.Forecast.EstimatedDeliveryDateMaxHumanReadable)
	require.Equal(t, time.Date(2025, 3, 7, 18, 0, 0, 0, time.UTC), d.Forecast.EstimatedDeliveryDateMax.UTC())
	require.Equal(t, time.Date(2025, 3, 2, 8, 30, 0, 0, time.UTC), d.Transit.ShippingDate.Time)
	require.Len(t, d.Steps, 1)
	require.Equal(t, "colissimo", d.Steps[0].Carrier.Slug)
	require.Equal(t, "Pris en charge", d.Steps[0].Lines[0].LineOriginal)
	require.Len(t, d.Carriers, 1)
}

func TestTimestamp_NullEmptyAndBad(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	require.True(t, ts.IsZero())
	require.NoError(t, json.Unmarshal([]byte(`""`), &ts))
	require.True(t, ts.IsZero())
	require.NoError(t, json.Unmarshal([]byte(`"2025-01-02"`), &ts))
	require.Equal(t, 2, ts.Day())

	require.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	require.Error(t, json.Unmarshal([]byte(`42`), &ts))

	b, err := json.Marshal(Timestamp{})
	require.NoError(t, err)
	require.Equal(t, "null", string(b))
}
