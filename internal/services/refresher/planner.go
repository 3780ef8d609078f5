package refresher

import (
	"math/rand"
	"time"

	"github.com/BearBump/ParcelBox/internal/models"
)

type Rand interface {
	Intn(n int) int
}

type PlannerConfig struct {
	DeliveredDelay time.Duration // default: 24 hours

	InTransitMinDelay time.Duration // default: 30 minutes
	InTransitMaxDelay time.Duration // default: 120 minutes

	// Used for statuses outside the known vocabulary.
	UnknownDelay time.Duration // default: 15 minutes

	// Consecutive "unknown" results back off through these.
	Backoff1 time.Duration // default: 5 minutes
	Backoff2 time.Duration // default: 15 minutes
	Backoff3 time.Duration // default: 30 minutes
	Backoff4 time.Duration // default: 60 minutes
}

func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		DeliveredDelay: 24 * time.Hour,

		InTransitMinDelay: 30 * time.Minute,
		InTransitMaxDelay: 120 * time.Minute,

		UnknownDelay: 15 * time.Minute,

		Backoff1: 5 * time.Minute,
		Backoff2: 15 * time.Minute,
		Backoff3: 30 * time.Minute,
		Backoff4: 60 * time.Minute,
	}
}

type Planner struct {
	cfg PlannerConfig
	r   Rand
}

// NewPlanner fills zero or negative durations from DefaultPlannerConfig.
func NewPlanner(cfg PlannerConfig, r Rand) *Planner {
	def := DefaultPlannerConfig()
	orDefault := func(v *time.Duration, d time.Duration) {
		if *v <= 0 {
			*v = d
		}
	}
	orDefault(&cfg.DeliveredDelay, def.DeliveredDelay)
	orDefault(&cfg.InTransitMinDelay, def.InTransitMinDelay)
	orDefault(&cfg.InTransitMaxDelay, def.InTransitMaxDelay)
	orDefault(&cfg.UnknownDelay, def.UnknownDelay)
	orDefault(&cfg.Backoff1, def.Backoff1)
	orDefault(&cfg.Backoff2, def.Backoff2)
	orDefault(&cfg.Backoff3, def.Backoff3)
	orDefault(&cfg.Backoff4, def.Backoff4)
	// кривой конфиг: max меньше min, берём min
	if cfg.InTransitMaxDelay < cfg.InTransitMinDelay {
		cfg.InTransitMaxDelay = cfg.InTransitMinDelay
	}
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Planner{cfg: cfg, r: r}
}

func (p *Planner) Config() PlannerConfig {
	return p.cfg
}

func (p *Planner) NextCheckDelay(status string) time.Duration {
	switch status {
	case models.OrderStatusDelivered:
		return p.cfg.DeliveredDelay
	case models.OrderStatusTransit:
		min := p.cfg.InTransitMinDelay
		max := p.cfg.InTransitMaxDelay
		if max == min {
			return min
		}
		secMin := int(min.Seconds())
		secMax := int(max.Seconds())
		return time.Duration(secMin+p.r.Intn(secMax-secMin+1)) * time.Second
	default:
		return p.cfg.UnknownDelay
	}
}

// BackoffDelay is the wait after the n-th consecutive unknown result.
func (p *Planner) BackoffDelay(n int32) time.Duration {
	switch {
	case n <= 1:
		return p.cfg.Backoff1
	case n == 2:
		return p.cfg.Backoff2
	case n == 3:
		return p.cfg.Backoff3
	default:
		return p.cfg.Backoff4
	}
}
