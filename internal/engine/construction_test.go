package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-colony/internal/colony"
	"github.com/talgya/mini-colony/internal/economy"
	"github.com/talgya/mini-colony/internal/world"
)

func TestConstruct(t *testing.T) {
	s := bareSim(t, 0)
	q := NewEventQueue()
	at := world.HexCoord{Q: 1, R: 1}

	b, err := s.Construct(colony.KindSolarArray, at, q)

	require.NoError(t, err)
	assert.Equal(t, 600.0, s.Pool.Get(economy.Credits))
	assert.Equal(t, uint64(b.ID), s.Grid.Get(at).Occupant)
	got, ok := s.Building(b.ID)
	require.True(t, ok)
	assert.Same(t, b, got)
	assert.Equal(t, []EventKind{EventBuildingPlaced}, kinds(q.Drain()))
}

func TestConstructErrors(t *testing.T) {
	s := bareSim(t, 0)
	mustPlace(t, s, colony.KindMine, 0, 0)

	tests := []struct {
		name    string
		kind    colony.Kind
		at      world.HexCoord
		credits float64
		want    error
	}{
		{"slums are not for sale", colony.KindSlum, world.HexCoord{Q: 1}, 1000, colony.ErrUnknownBuilding},
		{"unknown kind", colony.Kind(200), world.HexCoord{Q: 1}, 1000, colony.ErrUnknownBuilding},
		{"off the map", colony.KindSolarArray, world.HexCoord{Q: 40}, 1000, world.ErrOutOfBounds},
		{"occupied", colony.KindSolarArray, world.HexCoord{}, 1000, world.ErrCellOccupied},
		{"needs ice", colony.KindIceExtractor, world.HexCoord{Q: 1}, 1000, ErrSurfaceMismatch},
		{"too expensive", colony.KindHospital, world.HexCoord{Q: 1}, 799, economy.ErrInsufficientCredits},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.Pool.Set(economy.Credits, tt.credits)
			_, err := s.Construct(tt.kind, tt.at, nil)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.credits, s.Pool.Get(economy.Credits), "no charge on failure")
			assert.Len(t, s.Buildings, 1)
		})
	}
}

func TestRemoveBuildingDetaches(t *testing.T) {
	s := bareSim(t, 2)
	mine := mustPlace(t, s, colony.KindMine, 0, 0)
	habitat := mustPlace(t, s, colony.KindHabitatBlock, 1, 0)
	require.True(t, s.AddWorker(mine.ID, nil))
	c := s.Population.Colonists[0]
	require.True(t, habitat.AddResident(c))

	require.NoError(t, s.RemoveBuilding(mine.ID, nil))
	require.NoError(t, s.RemoveBuilding(habitat.ID, nil))

	assert.False(t, c.Employed)
	assert.False(t, c.Housed())
	assert.Empty(t, s.Buildings)
	assert.False(t, s.Grid.Get(world.HexCoord{}).Occupied())
	assert.ErrorIs(t, s.RemoveBuilding(mine.ID, nil), colony.ErrUnknownBuilding)
}

func TestAddRemoveWorker(t *testing.T) {
	s := bareSim(t, 2)
	farm := mustPlace(t, s, colony.KindHydroponicFarm, 0, 0)
	q := NewEventQueue()

	require.True(t, s.AddWorker(farm.ID, q))
	require.True(t, s.AddWorker(farm.ID, q))
	assert.False(t, s.AddWorker(farm.ID, q), "nobody left to hire")
	assert.False(t, s.AddWorker(999, q))

	require.True(t, s.RemoveWorker(farm.ID, q))
	assert.Equal(t, 1, farm.AssignedWorkers())
	assert.False(t, s.Population.Colonists[0].Employed, "first hired leaves first")

	events := q.Drain()
	assert.Equal(t, []EventKind{EventWorkerAdded, EventWorkerAdded, EventWorkerRemoved}, kinds(events))
	assert.Equal(t, 1, events[2].Data["workers"])
	assert.Equal(t, farm.Name, events[2].Data["building"])
}

func TestAutoStaffSpreadsWorkers(t *testing.T) {
	s := bareSim(t, 5)
	mine := mustPlace(t, s, colony.KindMine, 0, 0)
	mustPlace(t, s, colony.KindSolarArray, 1, 0)
	hospital := mustPlace(t, s, colony.KindHospital, 2, 0)

	s.autoStaff(nil)

	assert.Equal(t, 3, mine.AssignedWorkers())
	assert.Equal(t, 2, hospital.AssignedWorkers())
	assert.Empty(t, s.Population.Unemployed())
}

func TestMarketTradesSettlePool(t *testing.T) {
	s := bareSim(t, 0)

	bought, cost, err := s.BuyResource(economy.Regolith, 10)
	require.NoError(t, err)
	assert.Equal(t, 10.0, bought)
	assert.InDelta(t, 55.0, cost, 1e-9)
	assert.InDelta(t, 60, s.Pool.Get(economy.Regolith), 1e-9)
	assert.InDelta(t, 945, s.Pool.Get(economy.Credits), 1e-9)

	sold, revenue, err := s.SellResource(economy.Fuel, 100)
	require.NoError(t, err)
	assert.Equal(t, 25.0, sold, "limited by stock")
	assert.Greater(t, revenue, 0.0)
	assert.Zero(t, s.Pool.Get(economy.Fuel))

	_, _, err = s.BuyResource(economy.Energy, 1)
	assert.ErrorIs(t, err, economy.ErrUnknownResource)

	trade, err := s.BuyShares(economy.Food, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Indices.Portfolio.Shares(economy.Food))
	assert.InDelta(t, 945+revenue-trade.Total.InexactFloat64(), s.Pool.Get(economy.Credits), 1e-6)
}
