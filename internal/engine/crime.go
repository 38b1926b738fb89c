// Crime: police patrols, per-building generation, spread between neighbors, slums.
package engine

import (
	"log/slog"

	"github.com/talgya/mini-colony/internal/colony"
	"github.com/talgya/mini-colony/internal/entropy"
)

const (
	crimeSpreadThreshold = 10.0
	crimeSpreadRate      = 0.15
	slumHomelessDays     = 3
)

// processCrime runs the daily crime cycle: patrols first, then generation,
// then a single hop of spread, then housing quality.
func (s *Simulation) processCrime() {
	s.applyPolicePatrols()

	for _, b := range s.Buildings {
		b.UpdateCrime(s.Population)
	}

	s.spreadCrime()

	for _, b := range s.Buildings {
		b.UpdateQualityFromCrime()
	}
}

// applyPolicePatrols lowers crime on every building a staffed precinct can
// reach within its radius, the precinct's own cell included.
func (s *Simulation) applyPolicePatrols() {
	for _, p := range s.Buildings {
		if p.Precinct == nil || !p.Active || p.AssignedWorkers() == 0 {
			continue
		}
		reduction := p.CrimeReduction()
		for _, coord := range s.Grid.CellsWithinRadius(p.Position, p.Precinct.Radius) {
			cell := s.Grid.Get(coord)
			if cell == nil || !cell.Occupied() {
				continue
			}
			if b := s.lookup(colony.BuildingID(cell.Occupant)); b != nil {
				b.ReduceCrime(reduction)
			}
		}
	}
}

// spreadCrime pushes crime from every source above the threshold onto its
// direct neighbors. Amounts come from levels before any spread today, so
// crime moves one hop per day.
func (s *Simulation) spreadCrime() {
	type outbreak struct {
		from   *colony.Building
		amount float64
	}
	var outbreaks []outbreak
	for _, b := range s.Buildings {
		if b.IsCrimeSource && b.CrimeLevel > crimeSpreadThreshold {
			outbreaks = append(outbreaks, outbreak{b, b.CrimeLevel * crimeSpreadRate})
		}
	}

	for _, o := range outbreaks {
		for _, id := range s.Grid.NeighborOccupants(o.from.Position) {
			n := s.lookup(colony.BuildingID(id))
			if n == nil || n == o.from {
				continue
			}
			resistance := n.CrimeResistance
			if resistance <= 0 {
				resistance = 1
			}
			n.AddCrime(o.amount / resistance)
		}
	}
}

// processSlums may raise a slum next to an existing building when colonists
// have gone without a home for several days.
func (s *Simulation) processSlums(q *EventQueue, res *DayResult) {
	count, days := 0, 0
	for _, c := range s.Population.Colonists {
		if !c.Housed() && c.DaysHomeless >= slumHomelessDays {
			count++
			days += c.DaysHomeless
		}
	}
	if count == 0 {
		return
	}

	avgDays := float64(days) / float64(count)
	chance := min(0.8, float64(count)/10+avgDays/30)
	if !entropy.Chance(s.rng, chance) {
		return
	}

	sites := s.Grid.SlumSites()
	if len(sites) == 0 {
		return
	}
	site := sites[s.rng.Intn(len(sites))]
	b, err := s.place(colony.KindSlum, site)
	if err != nil {
		slog.Warn("slum placement failed", "site", site.String(), "error", err)
		return
	}

	res.SlumSpawned = true
	s.Stats.SlumsSpawned++
	s.emit(q, EventSlumSpawned, "Slums have appeared due to housing shortages!",
		map[string]any{"building": uint64(b.ID), "position": site.String(), "homeless": count})
	slog.Info("slum spawned", "day", s.Day, "position", site.String(), "long_term_homeless", count)
}
