package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// TrackingData is the provider response for a single tracking number.
type TrackingData struct {
	Status   TrackingStatus    `json:"status"`
	Forecast Forecast          `json:"forecast"`
	Transit  Transit           `json:"transit"`
	Steps    []TrackingStep    `json:"steps"`
	Carriers []json.RawMessage `json:"carriers"`
}

type TrackingStatus struct {
	Code     string `json:"code"`
	Sublabel string `json:"sublabel"`
	Label    string `json:"label"`
}

type Forecast struct {
	EstimatedDeliveryDateMaxHumanReadable string    `json:"estimatedDeliveryDateMaxHumanReadable"`
	EstimatedDeliveryDateMax              Timestamp `json:"estimatedDeliveryDateMax"`
}

type Transit struct {
	ShippingDate Timestamp `json:"shippingDate"`
}

type TrackingStep struct {
	Carrier             StepCarrier `json:"carrier"`
	HumanReadableStatus string      `json:"humanReadableStatus"`
	HumanReadableTime   string      `json:"humanReadableTime"`
	Lines               []StepLine  `json:"lines"`
}

type StepCarrier struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type StepLine struct {
	LineOriginal string `json:"lineOriginal"`
}

// Timestamp tolerates the handful of date layouts the provider emits, and null.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time = v
			return nil
		}
	}
	return fmt.Errorf("timestamp: unsupported format %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}
