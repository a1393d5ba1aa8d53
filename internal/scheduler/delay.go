package scheduler

import (
	"math/rand"
	"sync"
	"time"

	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/model"
)

// Delay ranges per decision-speed class, before scaling.
var speedRanges = map[model.DecisionSpeed][2]time.Duration{
	model.DecisionSpeedFast:     {30 * time.Second, 5 * time.Minute},
	model.DecisionSpeedModerate: {5 * time.Minute, 2 * time.Hour},
	model.DecisionSpeedSlow:     {2 * time.Hour, 24 * time.Hour},
}

// minDelay keeps scaled delays from collapsing to zero in immediate mode.
const minDelay = 5 * time.Millisecond

// DelayPlanner draws persona-conditioned delays from a single seedable
// source. Safe for concurrent use.
type DelayPlanner struct {
	scale float64
	max   time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewDelayPlanner creates a planner with the given global scale factor,
// maximum delay clamp, and seed.
func NewDelayPlanner(scale float64, max time.Duration, seed int64) *DelayPlanner {
	if scale <= 0 {
		scale = 1
	}
	if max <= 0 {
		max = 24 * time.Hour
	}
	return &DelayPlanner{
		scale: scale,
		max:   max,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// ReplyDelay draws the session's next reply delay from the persona's
// decision-speed range, scaled and clamped.
func (d *DelayPlanner) ReplyDelay(p *model.Persona) time.Duration {
	bounds, ok := speedRanges[p.DecisionSpeed]
	if !ok {
		bounds = speedRanges[model.DecisionSpeedModerate]
	}

	d.mu.Lock()
	raw := bounds[0] + time.Duration(d.rng.Int63n(int64(bounds[1]-bounds[0])))
	d.mu.Unlock()

	return d.clamp(time.Duration(float64(raw) * d.scale))
}

// Scale applies the planner's global scale factor to an absolute delay, e.g.
// a quirk's follow-up window.
func (d *DelayPlanner) Scale(delay time.Duration) time.Duration {
	return d.clamp(time.Duration(float64(delay) * d.scale))
}

// SpeedMax returns the scaled upper bound of the persona's delay class.
func (d *DelayPlanner) SpeedMax(p *model.Persona) time.Duration {
	bounds, ok := speedRanges[p.DecisionSpeed]
	if !ok {
		bounds = speedRanges[model.DecisionSpeedModerate]
	}
	return d.clamp(time.Duration(float64(bounds[1]) * d.scale))
}

func (d *DelayPlanner) clamp(delay time.Duration) time.Duration {
	if delay < minDelay {
		return minDelay
	}
	if delay > d.max {
		return d.max
	}
	return delay
}
