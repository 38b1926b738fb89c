// Population dynamics: housing, employment, health, settlement, births, deaths, departures.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/mini-colony/internal/colony"
	"github.com/talgya/mini-colony/internal/economy"
	"github.com/talgya/mini-colony/internal/entropy"
)

// processPopulation runs the population half of the day. Each stage reads
// what the previous one wrote, so the order is fixed.
func (s *Simulation) processPopulation(q *EventQueue, res *DayResult) {
	s.processHousing()
	s.processEmployment()
	s.processHealth()
	s.processCrime()
	s.processSlums(q, res)
	severe := s.processShortages(q)
	s.processColonists()
	s.processWages(q, res)
	s.processDemographics(q, res, severe)

	for _, c := range s.Population.Colonists {
		c.Clamp()
	}
}

// processHousing matches colonists to homes. The best paid choose first,
// against habitats ordered best first.
func (s *Simulation) processHousing() {
	habitats := s.sortedHabitats()
	for _, c := range s.Population.ByWageDesc() {
		var current *colony.Building
		if c.Housed() {
			current = s.lookup(c.Housing)
		}
		c.UpdateHousing(current, habitats)
	}
}

// processEmployment drops workplaces that no longer exist, then rebuilds
// every building's worker list from the colonists' side.
func (s *Simulation) processEmployment() {
	for _, c := range s.Population.Colonists {
		if c.Employed && s.lookup(c.Workplace) == nil {
			c.UnassignFromWorkplace()
		}
	}

	for _, b := range s.Buildings {
		b.Workers = b.Workers[:0]
	}
	for _, c := range s.Population.Colonists {
		if !c.Employed {
			continue
		}
		b := s.lookup(c.Workplace)
		if len(b.Workers) >= b.MaxWorkers {
			c.UnassignFromWorkplace()
			continue
		}
		b.Workers = append(b.Workers, c.ID)
	}
}

// processHealth applies the combined hospital boost to everyone.
func (s *Simulation) processHealth() {
	n := s.Population.Count()
	boost := 0.0
	for _, b := range s.Buildings {
		boost += b.HealthBoost(n)
	}
	if boost <= 0 {
		return
	}
	for _, c := range s.Population.Colonists {
		c.Health = min(100, c.Health+boost)
	}
}

// processShortages penalizes everyone when oxygen or food has run out.
// Reports whether the colony is in severe shortage.
func (s *Simulation) processShortages(q *EventQueue) bool {
	oxygenOut := s.Pool.Get(economy.Oxygen) <= 0
	foodOut := s.Pool.Get(economy.Food) <= 0
	if !oxygenOut && !foodOut {
		return false
	}

	for _, c := range s.Population.Colonists {
		c.Health -= 2
		c.Happiness -= 5
	}

	for _, r := range []economy.Resource{economy.Oxygen, economy.Food} {
		if s.Pool.Get(r) <= 0 {
			s.emit(q, EventResourceLow, fmt.Sprintf("The colony has run out of %s", r),
				map[string]any{"resource": r.String()})
		}
	}
	return true
}

func (s *Simulation) processColonists() {
	for _, c := range s.Population.Colonists {
		c.Update()
	}
}

// processWages pays the full wage bill or nothing. A shortfall zeroes
// credits and hits every employed colonist's happiness.
func (s *Simulation) processWages(q *EventQueue, res *DayResult) {
	total := s.Population.TotalWages()
	credits := s.Pool.Get(economy.Credits)
	if credits >= total {
		s.Pool.Set(economy.Credits, credits-total)
		return
	}

	employed := s.Population.Employed()
	for _, c := range employed {
		c.Happiness -= 40
	}
	s.Pool.Set(economy.Credits, 0)

	res.WageShortfall = true
	s.Stats.WageShortfalls++
	s.emit(q, EventWageWarning,
		fmt.Sprintf("Wages unpaid: owed %.2f, treasury held %.2f", total, credits),
		map[string]any{"owed": total, "credits": credits, "workers": len(employed)})
	slog.Warn("wage shortfall", "day", s.Day, "owed", total, "credits", credits, "workers", len(employed))
}

// Birth and death odds.
const (
	birthChance        = 0.3
	deathChanceSevere  = 0.4
	deathChanceSick    = 0.2
	deathChancePoor    = 0.1
	departureChance    = 0.10
	departureHappiness = 20
	departureDebt      = 50
)

// processDemographics rolls births, deaths, and departures from the
// colony's average condition.
func (s *Simulation) processDemographics(q *EventQueue, res *DayResult, severe bool) {
	p := s.Population
	avgHappiness := p.AverageHappiness()
	avgHealth := p.AverageHealth()
	n := float64(p.Count())

	thriving := avgHappiness > 70 &&
		s.Pool.Get(economy.Food) > n*2 &&
		s.Pool.Get(economy.Oxygen) > n*0.5 &&
		avgHealth > 60

	if thriving && entropy.Chance(s.rng, birthChance) && p.Count() < p.MaxPopulation {
		if c, ok := p.Add(s.rng); ok {
			res.Births++
			s.emit(q, EventPopulationIncrease, "Population increased! A new colonist has arrived.",
				map[string]any{"new_count": p.Count(), "colonist": uint64(c.ID)})
		}
	}

	deathChance := 0.0
	switch {
	case severe:
		deathChance = deathChanceSevere
	case avgHealth < 20:
		deathChance = deathChanceSick
	case avgHealth < 40:
		deathChance = deathChancePoor
	}

	var dead []colony.ColonistID
	for _, c := range p.Colonists {
		if entropy.Chance(s.rng, deathChance) {
			dead = append(dead, c.ID)
		}
	}
	for _, id := range dead {
		p.Remove(id, s.lookup)
		res.Deaths++
		s.emit(q, EventPopulationDecrease, "A colonist has died due to poor conditions.",
			map[string]any{"new_count": p.Count(), "colonist": uint64(id), "cause": "death"})
	}
	if len(dead) > 0 {
		slog.Info("colonists died", "day", s.Day, "count", len(dead), "avg_health", avgHealth, "shortage", severe)
	}

	var leaving []colony.ColonistID
	for _, c := range p.Colonists {
		if c.Happiness < departureHappiness || c.Debt > departureDebt {
			if entropy.Chance(s.rng, departureChance) {
				leaving = append(leaving, c.ID)
			}
		}
	}
	for _, id := range leaving {
		p.Remove(id, s.lookup)
		res.Departures++
		s.emit(q, EventPopulationDecrease, "A colonist has left the colony due to unhappiness and debt.",
			map[string]any{"new_count": p.Count(), "colonist": uint64(id), "cause": "departure"})
	}
	if len(leaving) > 0 {
		slog.Info("colonists departed", "day", s.Day, "count", len(leaving))
	}
}
