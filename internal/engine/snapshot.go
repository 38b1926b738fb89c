package engine

import (
	"github.com/talgya/mini-colony/internal/colony"
	"github.com/talgya/mini-colony/internal/economy"
)

// Snapshot is a read-only copy of the colony taken between steps. Nothing in
// it aliases live simulation state.
type Snapshot struct {
	RunID     string                   `json:"run_id"`
	Day       uint64                   `json:"day"`
	Collapsed bool                     `json:"collapsed"`
	Resources economy.Amounts          `json:"resources"`
	Stats     SimStats                 `json:"stats"`
	Housing   HousingSummary           `json:"housing"`
	Counts    map[string]int           `json:"building_counts"`
	Colonists []colony.Colonist        `json:"colonists"`
	Buildings []BuildingView           `json:"buildings"`
	Market    []CommodityView          `json:"market"`
	Indices   []economy.MarketData     `json:"indices"`
	Holdings  map[economy.Resource]int `json:"holdings"`
	Portfolio economy.PortfolioValue   `json:"portfolio"`
	Trades    []economy.Trade          `json:"trades"`
	News      []economy.NewsEvent      `json:"pending_news"`
	Events    []Event                  `json:"events"`
}

// HousingSummary totals residential capacity.
type HousingSummary struct {
	Capacity  int `json:"capacity"`
	Vacancies int `json:"vacancies"`
	Housed    int `json:"housed"`
	Homeless  int `json:"homeless"`
}

// BuildingView is the display form of a building.
type BuildingView struct {
	ID         colony.BuildingID `json:"id"`
	Kind       colony.Kind       `json:"kind"`
	Name       string            `json:"name"`
	Position   string            `json:"position"`
	Active     bool              `json:"active"`
	Workers    int               `json:"workers"`
	MaxWorkers int               `json:"max_workers"`
	Crime      float64           `json:"crime_level"`
	Residents  int               `json:"residents,omitempty"`
	Capacity   int               `json:"capacity,omitempty"`
	Quality    float64           `json:"quality,omitempty"`
	Rent       float64           `json:"rent,omitempty"`
	Production economy.Amounts   `json:"production"`
}

// CommodityView is one resource's commodity market state.
type CommodityView struct {
	Resource economy.Resource `json:"resource"`
	economy.MarketInfo
	History []float64 `json:"price_history"`
}

const snapshotRecentEvents = 100

// Snapshot copies the current colony state.
func (s *Simulation) Snapshot() Snapshot {
	capacity, vacancies := s.HousingCapacity()
	snap := Snapshot{
		RunID:     s.RunID,
		Day:       s.Day,
		Collapsed: s.Collapsed,
		Resources: s.Pool.Stock,
		Stats:     s.Stats,
		Housing: HousingSummary{
			Capacity:  capacity,
			Vacancies: vacancies,
			Housed:    s.Population.HousedCount(),
			Homeless:  s.Population.HomelessCount(),
		},
		Counts:    make(map[string]int),
		Holdings:  make(map[economy.Resource]int),
		Portfolio: s.PortfolioValue(),
		Trades:    s.Indices.RecentTrades(20),
		Indices:   s.Indices.AllData(),
	}

	for k, n := range s.BuildingCounts() {
		snap.Counts[k.String()] = n
	}

	snap.Colonists = make([]colony.Colonist, len(s.Population.Colonists))
	for i, c := range s.Population.Colonists {
		snap.Colonists[i] = *c
	}

	snap.Buildings = make([]BuildingView, len(s.Buildings))
	for i, b := range s.Buildings {
		v := BuildingView{
			ID:         b.ID,
			Kind:       b.Kind,
			Name:       b.Name,
			Position:   b.Position.String(),
			Active:     b.Active,
			Workers:    b.AssignedWorkers(),
			MaxWorkers: b.MaxWorkers,
			Crime:      b.CrimeLevel,
			Production: b.EffectiveProduction(s.Pool),
		}
		if r := b.Residence; r != nil {
			v.Residents = len(r.Residents)
			v.Capacity = r.Capacity
			v.Quality = r.Quality
			v.Rent = r.Rent
		}
		snap.Buildings[i] = v
	}

	for _, r := range economy.Tradable {
		info, ok := s.Commodities.Info(r)
		if !ok {
			continue
		}
		snap.Market = append(snap.Market, CommodityView{
			Resource:   r,
			MarketInfo: info,
			History:    s.Commodities.History(r, 10),
		})
	}

	for r, n := range s.Indices.Portfolio.Holdings {
		snap.Holdings[r] = n
	}
	snap.News = append(snap.News, s.Indices.PendingNews...)

	events := s.Events
	if len(events) > snapshotRecentEvents {
		events = events[len(events)-snapshotRecentEvents:]
	}
	snap.Events = append([]Event(nil), events...)
	return snap
}
