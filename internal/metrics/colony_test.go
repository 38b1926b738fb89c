package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-colony/internal/economy"
	"github.com/talgya/mini-colony/internal/engine"
)

func TestObserveDay(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	opts := engine.DefaultOptions()
	opts.Seed = 3
	sim, err := engine.NewColony(opts)
	require.NoError(t, err)
	q := engine.NewEventQueue()
	res := sim.AdvanceDay(q)
	snap := sim.Snapshot()

	c.Observe(res, q.Drain(), snap)

	assert.Equal(t, float64(snap.Day), testutil.ToFloat64(c.day))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.days))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.events.WithLabelValues("day_advanced")))
	assert.Equal(t, float64(snap.Stats.Population), testutil.ToFloat64(c.population.WithLabelValues("total")))
	assert.Equal(t, snap.Resources[economy.Credits], testutil.ToFloat64(c.stock.WithLabelValues("credits")))
	assert.Equal(t, float64(snap.Counts["Mine"]), testutil.ToFloat64(c.buildings.WithLabelValues("Mine")))
	assert.Equal(t, float64(res.Births), testutil.ToFloat64(c.demographics.WithLabelValues("birth")))
	assert.Equal(t, 5, testutil.CollectAndCount(c.indexPrice))
}

func TestSetLeavesCountersAlone(t *testing.T) {
	c, err := NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)

	c.Set(engine.Snapshot{Day: 4, Collapsed: true, Counts: map[string]int{"Slum": 2}})

	assert.Equal(t, 4.0, testutil.ToFloat64(c.day))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.collapsed))
	assert.Zero(t, testutil.ToFloat64(c.days))
	assert.Equal(t, 1, testutil.CollectAndCount(c.buildings))
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)

	_, err = NewCollector(reg)
	assert.Error(t, err)
}
