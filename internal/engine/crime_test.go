package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-colony/internal/colony"
	"github.com/talgya/mini-colony/internal/world"
)

func TestPolicePatrolRadius(t *testing.T) {
	s := bareSim(t, 4)
	precinct := mustPlace(t, s, colony.KindPolicePrecinct, 0, 0)
	near := mustPlace(t, s, colony.KindMine, 1, 0)
	edge := mustPlace(t, s, colony.KindHydroponicFarm, 0, 2)
	far := mustPlace(t, s, colony.KindHabitatBlock, 3, 0)
	for i := 0; i < 4; i++ {
		require.True(t, s.AddWorker(precinct.ID, nil))
	}
	near.CrimeLevel, edge.CrimeLevel, far.CrimeLevel = 30, 5, 30

	s.applyPolicePatrols()

	assert.Equal(t, 18.0, near.CrimeLevel)
	assert.Zero(t, edge.CrimeLevel, "floored at zero")
	assert.Equal(t, 30.0, far.CrimeLevel, "outside the radius")
	assert.Zero(t, precinct.CrimeLevel)
}

func TestPolicePatrolBlockedByCliff(t *testing.T) {
	s := bareSim(t, 1)
	precinct := mustPlace(t, s, colony.KindPolicePrecinct, 0, 0)
	require.True(t, s.AddWorker(precinct.ID, nil))
	mine := mustPlace(t, s, colony.KindMine, 1, 0)
	mine.CrimeLevel = 20

	// Wall the precinct in: every neighbor two levels up.
	for _, n := range (world.HexCoord{}).Neighbors() {
		if c := s.Grid.Get(n); c != nil {
			c.Elevation = 2
		}
	}

	s.applyPolicePatrols()

	assert.Equal(t, 20.0, mine.CrimeLevel)
}

func TestUnstaffedPrecinctDoesNothing(t *testing.T) {
	s := bareSim(t, 0)
	mustPlace(t, s, colony.KindPolicePrecinct, 0, 0)
	mine := mustPlace(t, s, colony.KindMine, 1, 0)
	mine.CrimeLevel = 20

	s.applyPolicePatrols()

	assert.Equal(t, 20.0, mine.CrimeLevel)
}

func TestCrimeSpreadsOneHop(t *testing.T) {
	s := bareSim(t, 0)
	slum := mustPlace(t, s, colony.KindSlum, 0, 0)
	hospital := mustPlace(t, s, colony.KindHospital, 1, 0)
	beyond := mustPlace(t, s, colony.KindMine, 2, 0)
	slum.CrimeLevel, slum.IsCrimeSource = 50, true

	s.spreadCrime()

	assert.InDelta(t, 50*0.15/1.5, hospital.CrimeLevel, 1e-9, "divided by resistance")
	assert.Zero(t, beyond.CrimeLevel, "not transitive within a day")
	assert.Equal(t, 50.0, slum.CrimeLevel)
}

func TestCrimeSpreadUsesOpeningLevels(t *testing.T) {
	s := bareSim(t, 0)
	a := mustPlace(t, s, colony.KindMine, 0, 0)
	b := mustPlace(t, s, colony.KindMine, 1, 0)
	a.CrimeLevel, a.IsCrimeSource = 40, true
	b.CrimeLevel, b.IsCrimeSource = 20, true

	s.spreadCrime()

	assert.InDelta(t, 40+20*0.15, a.CrimeLevel, 1e-9)
	assert.InDelta(t, 20+40*0.15, b.CrimeLevel, 1e-9)
}

func TestCrimeBelowThresholdDoesNotSpread(t *testing.T) {
	s := bareSim(t, 0)
	a := mustPlace(t, s, colony.KindMine, 0, 0)
	b := mustPlace(t, s, colony.KindMine, 1, 0)
	a.CrimeLevel, a.IsCrimeSource = 10, true

	s.spreadCrime()

	assert.Zero(t, b.CrimeLevel)
}

func TestProcessCrimeLowersQuality(t *testing.T) {
	s := bareSim(t, 0)
	slum := mustPlace(t, s, colony.KindSlum, 0, 0)
	habitat := mustPlace(t, s, colony.KindHabitatBlock, 1, 0)

	for i := 0; i < 20; i++ {
		s.processCrime()
	}

	assert.Greater(t, habitat.CrimeLevel, 0.0)
	assert.Less(t, habitat.Residence.Quality, habitat.Residence.BaseQuality)
	assert.GreaterOrEqual(t, habitat.Residence.Quality, 1.0)
	assert.LessOrEqual(t, slum.CrimeLevel, 100.0)
}

func TestSlumSpawn(t *testing.T) {
	s := bareSim(t, 10)
	mine := mustPlace(t, s, colony.KindMine, 0, 0)
	for _, c := range s.Population.Colonists {
		c.DaysHomeless = 5
	}
	s.rng = scriptedSource{f: 0}
	q := NewEventQueue()
	var res DayResult

	s.processSlums(q, &res)

	require.True(t, res.SlumSpawned)
	require.Len(t, s.Buildings, 2)
	slum := s.Buildings[1]
	assert.True(t, slum.IsSlum())
	assert.Equal(t, 1, world.Distance(mine.Position, slum.Position))
	assert.Equal(t, uint64(slum.ID), s.Grid.Get(slum.Position).Occupant)
	assert.Equal(t, []EventKind{EventSlumSpawned}, kinds(q.Drain()))
	assert.Equal(t, 1, s.Stats.SlumsSpawned)
}

func TestNoSlumWithoutLongTermHomeless(t *testing.T) {
	s := bareSim(t, 10)
	mustPlace(t, s, colony.KindMine, 0, 0)
	for _, c := range s.Population.Colonists {
		c.DaysHomeless = 2
	}
	s.rng = scriptedSource{f: 0}
	var res DayResult

	s.processSlums(nil, &res)

	assert.False(t, res.SlumSpawned)
	assert.Len(t, s.Buildings, 1)
}

func TestSlumSpawnRollCanFail(t *testing.T) {
	s := bareSim(t, 1)
	mustPlace(t, s, colony.KindMine, 0, 0)
	s.Population.Colonists[0].DaysHomeless = 3
	// 1/10 + 3/30 = 0.2
	s.rng = scriptedSource{f: 0.25}
	var res DayResult

	s.processSlums(nil, &res)

	assert.False(t, res.SlumSpawned)
}
