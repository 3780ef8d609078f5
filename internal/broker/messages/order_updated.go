package messages

import (
	"time"

	"github.com/google/uuid"
)

// OrderUpdated carries a freshly computed enrichment for one order.
type OrderUpdated struct {
	EventID        string    `json:"event_id"`
	TrackingNumber string    `json:"tracking_number"`
	CheckedAt      time.Time `json:"checked_at"`

	Status                string `json:"status"`
	Sublabel              string `json:"sublabel,omitempty"`
	EstimatedDeliveryDate string `json:"estimated_delivery_date,omitempty"`
	Carrier               string `json:"carrier,omitempty"`
	CarrierSlug           string `json:"carrier_slug,omitempty"`
	IconPath              string `json:"icon_path,omitempty"`

	PreviousStatus string `json:"previous_status,omitempty"`
}

func NewEventID() string {
	return uuid.NewString()
}
