package orders

import (
	"context"
	"log/slog"

	"github.com/BearBump/ParcelBox/internal/integrations/tracking"
	"github.com/BearBump/ParcelBox/internal/models"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotFound            = errors.New("tracking number not found")
	ErrProviderUnavailable = errors.New("tracking provider unavailable")

	errNoSteps = errors.New("provider returned no steps")
)

// Detail is the full provider view of one tracking number.
type Detail struct {
	Order    models.Order
	Data     *models.TrackingData
	Progress float64
}

// Enrich fetches fresh status for every order. Orders are never dropped: a failed
// lookup degrades that order to the unknown fallback. The result keeps input order.
func (s *Store) Enrich(ctx context.Context, orders []models.Order, locale models.Locale) []models.Order {
	out := make([]models.Order, len(orders))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, o := range orders {
		g.Go(func() error {
			out[i] = s.enrichOne(ctx, o, locale)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (s *Store) enrichOne(ctx context.Context, o models.Order, locale models.Locale) models.Order {
	checkedAt := s.now().UTC()

	data, err := s.fetch(ctx, o, locale)
	if err == nil && len(data.Steps) == 0 {
		err = errNoSteps
	}
	if err != nil {
		slog.Debug("enrich order", "tracking_number", o.TrackingNumber, "error", err.Error())
		o = unknownFallback(o)
	} else {
		o = applyTrackingData(o, data)
	}
	o.CheckedAt = &checkedAt
	return o
}

func (s *Store) fetch(ctx context.Context, o models.Order, locale models.Locale) (*models.TrackingData, error) {
	data, err := s.provider.GetTrackingData(ctx, tracking.Request{
		TrackingNumber: o.TrackingNumber,
		Locale:         locale,
		ForcedCarrier:  o.ForcedCarrier,
	})
	if err != nil {
		return nil, err
	}
	if err := tracking.CheckFound(data); err != nil {
		return nil, err
	}
	return data, nil
}

// Detail looks up one tracking number, tracked or not, and computes its progress ratio.
func (s *Store) Detail(ctx context.Context, trackingNumber string, locale models.Locale) (*Detail, error) {
	tn, err := NormalizeTrackingNumber(trackingNumber)
	if err != nil {
		return nil, err
	}

	o := models.Order{TrackingNumber: tn}
	for _, existing := range s.Load(ctx) {
		if existing.TrackingNumber == tn {
			o = existing
			break
		}
	}

	data, err := s.fetch(ctx, o, locale)
	if errors.Is(err, tracking.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		slog.Warn("tracking detail", "tracking_number", tn, "error", err.Error())
		return nil, errors.Wrap(ErrProviderUnavailable, err.Error())
	}

	if len(data.Steps) == 0 {
		o = unknownFallback(o)
	} else {
		o = applyTrackingData(o, data)
	}

	return &Detail{
		Order:    o,
		Data:     data,
		Progress: ProgressRatio(data.Transit.ShippingDate.Time, data.Forecast.EstimatedDeliveryDateMax.Time, s.now()),
	}, nil
}

func applyTrackingData(o models.Order, d *models.TrackingData) models.Order {
	first := d.Steps[0].Carrier
	o.Status = d.Status.Code
	o.Sublabel = d.Status.Sublabel
	o.EstimatedDeliveryDate = d.Forecast.EstimatedDeliveryDateMaxHumanReadable
	o.Carrier = first.Name
	o.CarrierSlug = first.Slug
	o.IconPath = IconPath(first.Slug)
	return o
}

func unknownFallback(o models.Order) models.Order {
	o.Status = models.OrderStatusUnknown
	o.Sublabel = models.Unknown
	o.EstimatedDeliveryDate = models.Unknown
	o.Carrier = models.Unknown
	o.CarrierSlug = models.Unknown
	o.IconPath = UnknownIconPath
	return o
}
