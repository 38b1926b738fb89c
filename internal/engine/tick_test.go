package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	opts := DefaultOptions()
	opts.Seed = 11
	s, err := NewColony(opts)
	require.NoError(t, err)
	return NewEngine(s)
}

func TestRunDays(t *testing.T) {
	e := newTestEngine(t)
	var days []uint64
	var events int
	e.OnDay = func(res DayResult, ev []Event) {
		days = append(days, res.Day)
		events += len(ev)
	}

	n, err := e.RunDays(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, days)
	assert.GreaterOrEqual(t, events, 5, "at least one day_advanced per day")
	assert.Equal(t, uint64(6), e.Latest().Day)
}

func TestRunDaysCancelled(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := e.RunDays(ctx, 10)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
	assert.Equal(t, uint64(1), e.Latest().Day)
}

func TestStopHaltsRun(t *testing.T) {
	e := newTestEngine(t)
	e.OnDay = func(res DayResult, _ []Event) {
		if res.Day == 2 {
			e.Stop()
		}
	}

	n, err := e.RunDays(context.Background(), 10)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	e.Stop()
}

func TestRunDaysPaced(t *testing.T) {
	e := newTestEngine(t)
	e.Interval = 20 * time.Millisecond

	start := time.Now()
	n, err := e.RunDays(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	// The first step runs immediately; the next two wait one interval each.
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

func TestStepPublishesSnapshot(t *testing.T) {
	e := newTestEngine(t)
	before := e.Latest()

	e.Step()

	after := e.Latest()
	assert.Equal(t, before.Day+1, after.Day)
	assert.Len(t, after.Colonists, e.Sim.Population.Count())
	assert.NotEmpty(t, after.Market)
	assert.NotEmpty(t, after.Indices)
}
