package simulation

import (
	"context"
	"fmt"
	"robot-route-service/internal/domain"
	"sync"
	"time"

	"go.uber.org/atomic"
)

const (
	DefaultSecondsPerTick = 1
	DefaultSimTimePerTick = 60 * time.Second

	clockDateLayout = "02.01.06"
	clockTimeLayout = "15:04"
)

// ClockState is a point-in-time view of the simulation clock.
type ClockState struct {
	Ticks          int64
	SecondsPerTick int
	DateTime       time.Time
	Date           string
	Time           string
}

// Clock advances a virtual date/time independently of route jobs.
type Clock struct {
	ticks          atomic.Int64
	secondsPerTick atomic.Int64

	// wall-clock length of one "second" of tick interval
	tickUnit   time.Duration
	simPerTick time.Duration
	now        func() time.Time
	changed    chan struct{}

	mu       sync.Mutex
	dateTime time.Time
}

func NewClock(secondsPerTick int, simPerTick, tickUnit time.Duration, now func() time.Time) *Clock {
	if secondsPerTick < 1 {
		secondsPerTick = DefaultSecondsPerTick
	}
	if simPerTick <= 0 {
		simPerTick = DefaultSimTimePerTick
	}
	if tickUnit <= 0 {
		tickUnit = time.Second
	}
	if now == nil {
		now = time.Now
	}

	c := &Clock{
		tickUnit:   tickUnit,
		simPerTick: simPerTick,
		now:        now,
		changed:    make(chan struct{}, 1),
		dateTime:   now(),
	}
	c.secondsPerTick.Store(int64(secondsPerTick))
	return c
}

// Run advances the clock until ctx is done. A speed change restarts the current wait.
func (c *Clock) Run(ctx context.Context) error {
	for {
		timer := time.NewTimer(time.Duration(c.secondsPerTick.Load()) * c.tickUnit)

		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-c.changed:
			timer.Stop()
			continue
		case <-timer.C:
			c.Advance()
		}
	}
}

// Advance moves the clock forward by one tick.
func (c *Clock) Advance() {
	c.mu.Lock()
	c.dateTime = c.dateTime.Add(c.simPerTick)
	c.ticks.Inc()
	c.mu.Unlock()
}

func (c *Clock) SetSecondsPerTick(n int) error {
	if n < 1 {
		return fmt.Errorf("set seconds per tick %d: %w", n, domain.ErrInvalidTickInterval)
	}
	c.secondsPerTick.Store(int64(n))

	select {
	case c.changed <- struct{}{}:
	default:
	}
	return nil
}

// Reset sets ticks to zero and the virtual date/time to now.
func (c *Clock) Reset() {
	c.mu.Lock()
	c.ticks.Store(0)
	c.dateTime = c.now()
	c.mu.Unlock()
}

func (c *Clock) State() ClockState {
	c.mu.Lock()
	dt := c.dateTime
	ticks := c.ticks.Load()
	c.mu.Unlock()

	return ClockState{
		Ticks:          ticks,
		SecondsPerTick: int(c.secondsPerTick.Load()),
		DateTime:       dt,
		Date:           dt.Format(clockDateLayout),
		Time:           dt.Format(clockTimeLayout),
	}
}
