package models

import "time"

// Order statuses as reported by the tracking provider.
const (
	OrderStatusTransit   = "transit"
	OrderStatusDelivered = "delivered"
	OrderStatusUnknown   = "unknown"
)

// Unknown is the fallback value of every derived field when enrichment fails.
const Unknown = "Unknown"

// Order is one locally tracked shipment. TrackingNumber is the unique key.
type Order struct {
	TrackingNumber string `json:"trackingNumber"`
	Label          string `json:"label,omitempty"`
	ForcedCarrier  string `json:"forcedCarrier,omitempty"`

	Status                string `json:"status,omitempty"`
	Sublabel              string `json:"sublabel,omitempty"`
	EstimatedDeliveryDate string `json:"estimatedDeliveryDate,omitempty"`
	Carrier               string `json:"carrier,omitempty"`
	CarrierSlug           string `json:"carrier_slug,omitempty"`
	IconPath              string `json:"icon_path,omitempty"`

	CheckedAt *time.Time `json:"checkedAt,omitempty"`
}

// DisplayLabel returns the user label, or the tracking number when no label is set.
func (o Order) DisplayLabel() string {
	if o.Label != "" {
		return o.Label
	}
	return o.TrackingNumber
}

// Locale is passed explicitly to every provider call.
type Locale struct {
	Language string
	Timezone string
}

// Carrier is one entry of the provider's carrier catalogue.
type Carrier struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}
