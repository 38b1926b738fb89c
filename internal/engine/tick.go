package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Engine drives the simulation forward one day at a time. Steps run
// synchronously on the caller's goroutine; readers on other goroutines use
// Latest, which returns the snapshot taken after the most recent step.
type Engine struct {
	Sim      *Simulation
	Interval time.Duration // Pause between days; 0 runs flat out

	// OnDay is called after every step with the day's result and drained events.
	OnDay func(res DayResult, events []Event)

	mu      sync.RWMutex
	latest  Snapshot
	stop    chan struct{}
	stopped sync.Once
}

// NewEngine creates an engine around sim.
func NewEngine(sim *Simulation) *Engine {
	e := &Engine{Sim: sim, stop: make(chan struct{})}
	e.latest = sim.Snapshot()
	return e
}

// Step advances exactly one day.
func (e *Engine) Step() DayResult {
	q := NewEventQueue()
	res := e.Sim.AdvanceDay(q)
	snap := e.Sim.Snapshot()

	e.mu.Lock()
	e.latest = snap
	e.mu.Unlock()

	if e.OnDay != nil {
		e.OnDay(res, q.Drain())
	}
	return res
}

// RunDays advances up to n days. It returns early when the colony
// collapses, Stop is called, or ctx is done. Returns the number of days run.
func (e *Engine) RunDays(ctx context.Context, n int) (int, error) {
	var limiter *rate.Limiter
	if e.Interval > 0 {
		limiter = rate.NewLimiter(rate.Every(e.Interval), 1)
	}

	slog.Info("simulation engine started", "day", e.Sim.Day, "days", n, "interval", e.Interval)
	ran := 0
	for ran < n {
		select {
		case <-ctx.Done():
			slog.Info("simulation engine stopped", "day", e.Sim.Day, "reason", ctx.Err())
			return ran, ctx.Err()
		case <-e.stop:
			slog.Info("simulation engine stopped", "day", e.Sim.Day, "reason", "stop requested")
			return ran, nil
		default:
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return ran, err
			}
		}

		res := e.Step()
		ran++
		if res.Collapsed {
			slog.Warn("simulation engine halted", "day", res.Day, "reason", "colony collapsed")
			return ran, nil
		}
	}
	slog.Info("simulation engine finished", "day", e.Sim.Day, "days_run", ran)
	return ran, nil
}

// Stop makes RunDays return before its next step.
func (e *Engine) Stop() {
	e.stopped.Do(func() { close(e.stop) })
}

// Latest returns the snapshot taken after the most recent step.
func (e *Engine) Latest() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.latest
}
