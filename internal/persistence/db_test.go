package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-colony/internal/economy"
	"github.com/talgya/mini-colony/internal/engine"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "colony.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func grownColony(t *testing.T) *engine.Simulation {
	t.Helper()
	opts := engine.DefaultOptions()
	opts.Seed = 5
	sim, err := engine.NewColony(opts)
	require.NoError(t, err)
	_, err = sim.BuyShares(economy.Food, 3)
	require.NoError(t, err)
	_, err = sim.BuyShares(economy.Regolith, 2)
	require.NoError(t, err)
	_, err = sim.SellShares(economy.Food, 1)
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		sim.AdvanceDay(nil)
	}
	return sim
}

func TestLoadEmptyDatabase(t *testing.T) {
	db := openTemp(t)

	ok, err := db.HasSave()
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = db.LoadColony()
	assert.ErrorIs(t, err, ErrNoSave)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	db := openTemp(t)
	sim := grownColony(t)

	require.NoError(t, db.SaveColony(sim))
	ok, err := db.HasSave()
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := db.LoadColony()
	require.NoError(t, err)

	assert.Equal(t, sim.RunID, got.RunID)
	assert.Equal(t, sim.Seed, got.Seed)
	assert.Equal(t, sim.Day, got.Day)
	assert.Equal(t, sim.Pool.Stock, got.Pool.Stock)
	assert.Equal(t, sim.Stats, got.Stats)
	assert.Equal(t, sim.Population.NextID, got.Population.NextID)
	assert.Equal(t, sim.Population.Colonists, got.Population.Colonists)
	assert.Equal(t, sim.Buildings, got.Buildings)
	assert.Equal(t, sim.NextBuildingID, got.NextBuildingID)
	assert.Equal(t, sim.Commodities.Entries, got.Commodities.Entries)
	assert.Equal(t, sim.Indices.Indices, got.Indices.Indices)
	assert.Equal(t, sim.Indices.Portfolio.Holdings, got.Indices.Portfolio.Holdings)
	assert.Equal(t, sim.Indices.Ledger, got.Indices.Ledger)
	assert.Equal(t, sim.Indices.PendingNews, got.Indices.PendingNews)
	require.Len(t, got.Events, len(sim.Events))

	for _, b := range got.Buildings {
		assert.Equal(t, uint64(b.ID), got.Grid.Get(b.Position).Occupant, "occupancy restored for %s", b.Name)
	}
}

func TestTradeLedgerKeepsCents(t *testing.T) {
	db := openTemp(t)
	sim := grownColony(t)
	sim.Indices.Ledger[0].Price = economy.Cents(75)
	sim.Indices.Ledger[0].Total = economy.Cents(225)

	require.NoError(t, db.SaveColony(sim))
	got, err := db.LoadColony()
	require.NoError(t, err)

	require.Len(t, got.Indices.Ledger, len(sim.Indices.Ledger))
	assert.Equal(t, sim.Indices.Ledger[0], got.Indices.Ledger[0])
	assert.Equal(t, "75.00", got.Indices.Ledger[0].Price.StringFixed(2))
	for i, tr := range got.Indices.Ledger {
		assert.Equal(t, int32(-2), tr.Price.Exponent(), "trade %d price", i)
		assert.Equal(t, int32(-2), tr.Total.Exponent(), "trade %d total", i)
	}
}

func TestLoadedColonyContinuesIdentically(t *testing.T) {
	db := openTemp(t)
	sim := grownColony(t)
	require.NoError(t, db.SaveColony(sim))
	got, err := db.LoadColony()
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		want := sim.AdvanceDay(nil)
		have := got.AdvanceDay(nil)
		require.Equal(t, want, have, "day %d", want.Day)
	}

	assert.Equal(t, sim.Pool.Stock, got.Pool.Stock)
	assert.Equal(t, sim.Population.Colonists, got.Population.Colonists)
	assert.Equal(t, sim.Commodities.Entries, got.Commodities.Entries)
	assert.Equal(t, sim.Indices.Indices, got.Indices.Indices)
}

func TestSaveReplacesPreviousState(t *testing.T) {
	db := openTemp(t)
	sim := grownColony(t)
	require.NoError(t, db.SaveColony(sim))

	sim.AdvanceDay(nil)
	_, err := sim.SellShares(economy.Regolith, 2)
	require.NoError(t, err)
	require.NoError(t, db.SaveColony(sim))

	got, err := db.LoadColony()
	require.NoError(t, err)
	assert.Equal(t, sim.Day, got.Day)
	assert.Len(t, got.Indices.Ledger, 4)
	assert.Zero(t, got.Indices.Portfolio.Shares(economy.Regolith))
	assert.Equal(t, len(sim.Buildings), len(got.Buildings))
}

func TestRecentEvents(t *testing.T) {
	db := openTemp(t)
	sim := grownColony(t)
	require.NoError(t, db.SaveColony(sim))

	events, err := db.RecentEvents(3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	last := sim.Events[len(sim.Events)-1]
	assert.Equal(t, last.Kind, events[0].Kind)
	assert.Equal(t, last.Day, events[0].Day)
	assert.Equal(t, last.Description, events[0].Description)
}

func TestMetaKeyValue(t *testing.T) {
	db := openTemp(t)

	require.NoError(t, db.SaveMeta("operator", "ares"))
	v, err := db.GetMeta("operator")
	require.NoError(t, err)
	assert.Equal(t, "ares", v)
}
