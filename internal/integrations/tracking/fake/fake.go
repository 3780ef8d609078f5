package fake

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"time"

	"github.com/BearBump/ParcelBox/internal/integrations/tracking"
	"github.com/BearBump/ParcelBox/internal/models"
)

// Client is an offline provider. The outcome is deterministic per tracking number:
// some numbers are delivered, some unknown, the rest in transit.
type Client struct {
	now func() time.Time
}

func New() *Client { return &Client{now: time.Now} }

var carriers = []models.StepCarrier{
	{Name: "Colissimo", Slug: "colissimo"},
	{Name: "Chronopost", Slug: "chronopost"},
	{Name: "DHL", Slug: "dhl"},
	{Name: "UPS", Slug: "ups"},
	{Name: "Mondial Relay", Slug: "mondial-relay"},
}

func (f *Client) GetTrackingData(ctx context.Context, req tracking.Request) (*models.TrackingData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(req.TrackingNumber))
	v := h.Sum32()

	if v%7 == 0 {
		return nil, tracking.ErrNotFound
	}

	now := f.now().UTC()
	shipped := now.Add(-time.Duration(1+v%4) * 24 * time.Hour)
	eta := shipped.Add(5 * 24 * time.Hour)

	status, sublabel := models.OrderStatusTransit, "Parcel in transit"
	if v%5 == 0 {
		status, sublabel = models.OrderStatusDelivered, "Parcel delivered"
	}

	c := carriers[int(v)%len(carriers)]
	if req.ForcedCarrier != "" {
		c = models.StepCarrier{Name: req.ForcedCarrier, Slug: req.ForcedCarrier}
	}
	rawCarrier, _ := json.Marshal(c.Slug)

	return &models.TrackingData{
		Status: models.TrackingStatus{Code: status, Sublabel: sublabel, Label: sublabel},
		Forecast: models.Forecast{
			EstimatedDeliveryDateMaxHumanReadable: eta.Format("Monday 2 January"),
			EstimatedDeliveryDateMax:              models.Timestamp{Time: eta},
		},
		Transit: models.Transit{ShippingDate: models.Timestamp{Time: shipped}},
		Steps: []models.TrackingStep{{
			Carrier:             c,
			HumanReadableStatus: sublabel,
			HumanReadableTime:   now.Format("Mon 15:04"),
			Lines:               []models.StepLine{{LineOriginal: "fake carrier update"}},
		}},
		Carriers: []json.RawMessage{rawCarrier},
	}, nil
}

func (f *Client) ListCarriers(ctx context.Context) ([]models.Carrier, error) {
	out := make([]models.Carrier, 0, len(carriers))
	for _, c := range carriers {
		out = append(out, models.Carrier{Name: c.Name, Slug: c.Slug})
	}
	return out, nil
}
