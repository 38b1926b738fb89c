package engine

import "github.com/talgya/mini-colony/internal/economy"

// Per-colonist daily consumption of life support.
var colonistUpkeep = economy.Amounts{
	economy.Oxygen: 0.1,
	economy.Food:   0.2,
	economy.Energy: 0.05,
}

// processResources settles the pool for the day.
func (s *Simulation) processResources() {
	s.Pool.Apply(s.DailyBalance())
}

// DailyBalance reports what today's settlement adds and removes. Effective
// production is judged against the current stock; consumption counts in full
// whether or not a building could operate. Rent from every housed colonist
// who can afford it is credited.
func (s *Simulation) DailyBalance() (production, consumption economy.Amounts) {
	consumption = colonistUpkeep.Scale(float64(s.Population.Count()))
	for _, b := range s.Buildings {
		production = production.Add(b.EffectiveProduction(s.Pool))
		consumption = consumption.Add(b.CurrentConsumption())
	}
	for _, c := range s.Population.Colonists {
		if c.Housed() && c.CanAffordRent() {
			production[economy.Credits] += c.RentCost
		}
	}
	return production, consumption
}
