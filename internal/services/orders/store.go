package orders

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/BearBump/ParcelBox/internal/broker/messages"
	"github.com/BearBump/ParcelBox/internal/integrations/tracking"
	"github.com/BearBump/ParcelBox/internal/models"
	"github.com/pkg/errors"
)

// KeyValueStore persists opaque string blobs.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Store owns the list of tracked orders. The whole list is read and written as one blob;
// mutating calls are serialized within the process.
type Store struct {
	kv          KeyValueStore
	provider    tracking.Provider
	key         string
	concurrency int
	now         func() time.Time

	mu sync.Mutex
}

func New(kv KeyValueStore, provider tracking.Provider, key string) *Store {
	if key == "" {
		key = "orders"
	}
	return &Store{
		kv:          kv,
		provider:    provider,
		key:         key,
		concurrency: 8,
		now:         time.Now,
	}
}

// WithConcurrency bounds the number of provider calls Enrich runs at once.
func (s *Store) WithConcurrency(n int) *Store {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

// Load returns the persisted orders. Read or decode failures yield an empty list.
func (s *Store) Load(ctx context.Context) []models.Order {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		slog.Warn("load orders", "key", s.key, "error", err.Error())
		return []models.Order{}
	}
	if !ok || raw == "" {
		return []models.Order{}
	}

	var stored []models.Order
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		slog.Warn("decode orders", "key", s.key, "error", err.Error())
		return []models.Order{}
	}

	out := make([]models.Order, 0, len(stored))
	for _, o := range stored {
		if o.TrackingNumber == "" {
			continue
		}
		out = append(out, o)
	}
	return out
}

// Save overwrites the persisted list.
func (s *Store) Save(ctx context.Context, orders []models.Order) error {
	if orders == nil {
		orders = []models.Order{}
	}
	b, err := json.Marshal(orders)
	if err != nil {
		return errors.Wrap(err, "encode orders")
	}
	if err := s.kv.Set(ctx, s.key, string(b)); err != nil {
		return errors.Wrap(err, "save orders")
	}
	return nil
}

// Add appends a new order. It reports false without writing when the tracking number
// is already tracked.
func (s *Store) Add(ctx context.Context, trackingNumber, label, forcedCarrier string) (bool, error) {
	tn, err := NormalizeTrackingNumber(trackingNumber)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orders := s.Load(ctx)
	if indexOf(orders, tn) >= 0 {
		return false, nil
	}
	orders = append(orders, models.Order{
		TrackingNumber: tn,
		Label:          strings.TrimSpace(label),
		ForcedCarrier:  strings.TrimSpace(forcedCarrier),
	})
	if err := s.Save(ctx, orders); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateLabel sets the label and forced carrier of an existing order.
func (s *Store) UpdateLabel(ctx context.Context, trackingNumber, label, forcedCarrier string) (bool, error) {
	return s.mutate(ctx, trackingNumber, func(orders []models.Order, i int) []models.Order {
		orders[i].Label = strings.TrimSpace(label)
		orders[i].ForcedCarrier = strings.TrimSpace(forcedCarrier)
		return orders
	})
}

// Remove deletes one order.
func (s *Store) Remove(ctx context.Context, trackingNumber string) (bool, error) {
	return s.mutate(ctx, trackingNumber, func(orders []models.Order, i int) []models.Order {
		return append(orders[:i], orders[i+1:]...)
	})
}

// RemoveAll clears the whole list.
func (s *Store) RemoveAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Save(ctx, []models.Order{})
}

// Refresh enriches every persisted order and writes the result back. Provider calls run
// without the store lock; orders added, edited or removed meanwhile are kept as they are
// now, and only derived fields are merged in. The merged list is returned even when the
// write fails.
func (s *Store) Refresh(ctx context.Context, locale models.Locale) ([]models.Order, error) {
	enriched := s.Enrich(ctx, s.Load(ctx), locale)
	byNumber := make(map[string]models.Order, len(enriched))
	for _, o := range enriched {
		byNumber[o.TrackingNumber] = o
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// перечитываем: пока ходили к провайдеру, список могли поменять
	merged := s.Load(ctx)
	for i := range merged {
		if e, ok := byNumber[merged[i].TrackingNumber]; ok {
			merged[i] = withDerived(merged[i], e)
		}
	}
	if err := s.Save(ctx, merged); err != nil {
		slog.Error("save refreshed orders", "count", len(merged), "error", err.Error())
		return merged, err
	}
	return merged, nil
}

// ApplyUpdate copies an asynchronously computed enrichment onto the matching order.
func (s *Store) ApplyUpdate(ctx context.Context, msg messages.OrderUpdated) (bool, error) {
	if msg.TrackingNumber == "" {
		return false, errors.New("tracking_number is required")
	}
	checkedAt := msg.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = s.now().UTC()
	}
	upd := models.Order{
		Status:                msg.Status,
		Sublabel:              msg.Sublabel,
		EstimatedDeliveryDate: msg.EstimatedDeliveryDate,
		Carrier:               msg.Carrier,
		CarrierSlug:           msg.CarrierSlug,
		IconPath:              IconPath(msg.CarrierSlug),
		CheckedAt:             &checkedAt,
	}
	return s.mutate(ctx, msg.TrackingNumber, func(orders []models.Order, i int) []models.Order {
		orders[i] = withDerived(orders[i], upd)
		return orders
	})
}

func (s *Store) mutate(ctx context.Context, trackingNumber string, fn func(orders []models.Order, i int) []models.Order) (bool, error) {
	tn := strings.ToUpper(strings.TrimSpace(trackingNumber))

	s.mu.Lock()
	defer s.mu.Unlock()

	orders := s.Load(ctx)
	i := indexOf(orders, tn)
	if i < 0 {
		return false, nil
	}
	if err := s.Save(ctx, fn(orders, i)); err != nil {
		return false, err
	}
	return true, nil
}

// withDerived copies the provider-derived fields of src onto dst.
func withDerived(dst, src models.Order) models.Order {
	dst.Status = src.Status
	dst.Sublabel = src.Sublabel
	dst.EstimatedDeliveryDate = src.EstimatedDeliveryDate
	dst.Carrier = src.Carrier
	dst.CarrierSlug = src.CarrierSlug
	dst.IconPath = src.IconPath
	dst.CheckedAt = src.CheckedAt
	return dst
}

func indexOf(orders []models.Order, trackingNumber string) int {
	for i, o := range orders {
		if o.TrackingNumber == trackingNumber {
			return i
		}
	}
	return -1
}
