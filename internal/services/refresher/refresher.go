package refresher

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BearBump/ParcelBox/internal/broker/messages"
	"github.com/BearBump/ParcelBox/internal/models"
	"golang.org/x/sync/errgroup"
)

type Orders interface {
	Load(ctx context.Context) []models.Order
	Enrich(ctx context.Context, orders []models.Order, locale models.Locale) []models.Order
}

type Producer interface {
	PublishJSON(ctx context.Context, topic, key string, v any) error
}

type schedule struct {
	nextCheckAt  time.Time
	unknownCount int32
}

// Refresher periodically enriches due orders and publishes the ones whose status changed.
type Refresher struct {
	orders   Orders
	producer Producer
	topic    string
	locale   models.Locale

	planner *Planner

	pollInterval   time.Duration
	batchSize      int
	concurrency    int
	publishRetries int
	retryBase      time.Duration
	now            func() time.Time

	mu        sync.Mutex
	schedules map[string]*schedule

	triggerCh chan struct{}

	startedAtUnixNano   int64
	lastCycleUnixNano   atomic.Int64
	lastTriggerUnixNano atomic.Int64
	totalChecked        atomic.Int64
	totalPublished      atomic.Int64
	totalErrors         atomic.Int64
	inFlight            atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(orders Orders, producer Producer, topic string, locale models.Locale) *Refresher {
	return &Refresher{
		orders:            orders,
		producer:          producer,
		topic:             topic,
		locale:            locale,
		planner:           NewPlanner(DefaultPlannerConfig(), nil),
		pollInterval:      30 * time.Second,
		batchSize:         100,
		concurrency:       4,
		publishRetries:    10,
		retryBase:         150 * time.Millisecond,
		now:               time.Now,
		schedules:         make(map[string]*schedule),
		triggerCh:         make(chan struct{}, 1),
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

func (r *Refresher) WithSettings(pollInterval time.Duration, batchSize, concurrency int) *Refresher {
	if pollInterval > 0 {
		r.pollInterval = pollInterval
	}
	if batchSize > 0 {
		r.batchSize = batchSize
	}
	if concurrency > 0 {
		r.concurrency = concurrency
	}
	return r
}

func (r *Refresher) WithPlanner(cfg PlannerConfig) *Refresher {
	r.planner = NewPlanner(cfg, nil)
	return r
}

// Trigger forces an immediate cycle that checks every order regardless of schedule.
// It never blocks; triggers coalesce while a cycle is pending.
func (r *Refresher) Trigger() {
	r.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	select {
	case r.triggerCh <- struct{}{}:
	default:
	}
}

type Stats struct {
	StartedAt      time.Time  `json:"startedAt"`
	LastCycleAt    *time.Time `json:"lastCycleAt,omitempty"`
	LastTriggerAt  *time.Time `json:"lastTriggerAt,omitempty"`
	Scheduled      int        `json:"scheduled"`
	TotalChecked   int64      `json:"totalChecked"`
	TotalPublished int64      `json:"totalPublished"`
	TotalErrors    int64      `json:"totalErrors"`
	InFlight       int64      `json:"inFlight"`
	LastError      string     `json:"lastError,omitempty"`
}

func (r *Refresher) Stats() Stats {
	st := Stats{
		StartedAt:      time.Unix(0, r.startedAtUnixNano).UTC(),
		TotalChecked:   r.totalChecked.Load(),
		TotalPublished: r.totalPublished.Load(),
		TotalErrors:    r.totalErrors.Load(),
		InFlight:       r.inFlight.Load(),
	}
	if n := r.lastCycleUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastCycleAt = &t
	}
	if n := r.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	r.mu.Lock()
	st.Scheduled = len(r.schedules)
	r.mu.Unlock()
	r.lastErrorMu.Lock()
	st.LastError = r.lastError
	r.lastErrorMu.Unlock()
	return st
}

func (r *Refresher) Run(ctx context.Context) error {
	t := time.NewTicker(r.pollInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			r.runOnce(ctx, false)
		case <-r.triggerCh:
			r.runOnce(ctx, true)
		}
	}
}

func (r *Refresher) runOnce(ctx context.Context, force bool) {
	now := r.now().UTC()
	r.lastCycleUnixNano.Store(now.UnixNano())

	current := r.orders.Load(ctx)
	due := r.selectDue(current, now, force)
	if len(due) == 0 {
		return
	}

	enriched := r.orders.Enrich(ctx, due, r.locale)
	r.totalChecked.Add(int64(len(enriched)))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i := range enriched {
		before, after := due[i], enriched[i]
		r.reschedule(after, now)
		if !changed(before, after) {
			continue
		}
		r.inFlight.Add(1)
		g.Go(func() error {
			defer r.inFlight.Add(-1)
			if err := r.publish(ctx, before, after); err != nil {
				r.recordError(err)
				slog.Error("publish order update", "tracking_number", after.TrackingNumber, "error", err.Error())
				return nil
			}
			r.totalPublished.Add(1)
			return nil
		})
	}
	_ = g.Wait()
}

// selectDue returns up to batchSize orders that were never checked or whose next check
// time has passed, and forgets schedules of orders that are gone.
func (r *Refresher) selectDue(current []models.Order, now time.Time, force bool) []models.Order {
	r.mu.Lock()
	defer r.mu.Unlock()

	present := make(map[string]struct{}, len(current))
	due := make([]models.Order, 0, len(current))
	for _, o := range current {
		present[o.TrackingNumber] = struct{}{}
		if len(due) >= r.batchSize {
			continue
		}
		s, ok := r.schedules[o.TrackingNumber]
		if force || !ok || !now.Before(s.nextCheckAt) {
			due = append(due, o)
		}
	}
	// заказ удалили из списка: расписание больше не нужно
	for tn := range r.schedules {
		if _, ok := present[tn]; !ok {
			delete(r.schedules, tn)
		}
	}
	return due
}

func (r *Refresher) reschedule(o models.Order, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.schedules[o.TrackingNumber]
	if !ok {
		s = &schedule{}
		r.schedules[o.TrackingNumber] = s
	}
	if o.Status == models.OrderStatusUnknown {
		s.unknownCount++
		s.nextCheckAt = now.Add(r.planner.BackoffDelay(s.unknownCount))
		return
	}
	s.unknownCount = 0
	s.nextCheckAt = now.Add(r.planner.NextCheckDelay(o.Status))
}

func (r *Refresher) publish(ctx context.Context, before, after models.Order) error {
	msg := messages.OrderUpdated{
		EventID:               messages.NewEventID(),
		TrackingNumber:        after.TrackingNumber,
		Status:                after.Status,
		Sublabel:              after.Sublabel,
		EstimatedDeliveryDate: after.EstimatedDeliveryDate,
		Carrier:               after.Carrier,
		CarrierSlug:           after.CarrierSlug,
		IconPath:              after.IconPath,
		PreviousStatus:        before.Status,
	}
	if after.CheckedAt != nil {
		msg.CheckedAt = *after.CheckedAt
	}

	// Kafka может быть ещё не готова сразу после старта, поэтому небольшой retry.
	var err error
	for i := 0; i < r.publishRetries; i++ {
		if err = r.producer.PublishJSON(ctx, r.topic, msg.TrackingNumber, msg); err == nil {
			return nil
		}
		if i == r.publishRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * r.retryBase):
		}
	}
	return err
}

func (r *Refresher) recordError(err error) {
	r.totalErrors.Add(1)
	r.lastErrorMu.Lock()
	r.lastError = err.Error()
	r.lastErrorMu.Unlock()
}

func changed(a, b models.Order) bool {
	return a.Status != b.Status ||
		a.Sublabel != b.Sublabel ||
		a.EstimatedDeliveryDate != b.EstimatedDeliveryDate ||
		a.Carrier != b.Carrier ||
		a.CarrierSlug != b.CarrierSlug
}
