package tracking

import (
	"context"

	"github.com/BearBump/ParcelBox/internal/models"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when the provider does not know the tracking number
// (status code "unknown" or no carrier attributed).
var ErrNotFound = errors.New("tracking number not found")

type Request struct {
	TrackingNumber string
	Locale         models.Locale
	ForcedCarrier  string
}

type Provider interface {
	GetTrackingData(ctx context.Context, req Request) (*models.TrackingData, error)
}

// CheckFound reports ErrNotFound for responses the provider uses to say "never heard of it".
func CheckFound(d *models.TrackingData) error {
	if d == nil || d.Status.Code == models.OrderStatusUnknown || len(d.Carriers) == 0 {
		return ErrNotFound
	}
	return nil
}

// CarrierLister exposes the carrier catalogue used for forced-carrier selection.
type CarrierLister interface {
	ListCarriers(ctx context.Context) ([]models.Carrier, error)
}
