// Package engine runs the colony: the authoritative simulation state, the
// fixed-order daily pipeline, and the clock that drives it.
package engine

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/talgya/mini-colony/internal/colony"
	"github.com/talgya/mini-colony/internal/economy"
	"github.com/talgya/mini-colony/internal/entropy"
	"github.com/talgya/mini-colony/internal/world"
)

// Grid is the adjacency oracle the simulation consumes. *world.Map satisfies it.
type Grid interface {
	Get(coord world.HexCoord) *world.Cell
	Occupy(coord world.HexCoord, id uint64) error
	Vacate(coord world.HexCoord)
	NeighborOccupants(coord world.HexCoord) []uint64
	CellsWithinRadius(center world.HexCoord, radius int) []world.HexCoord
	SlumSites() []world.HexCoord
}

// Options configures a new colony.
type Options struct {
	Seed              int64 // 0 picks a crypto-random seed
	MaxPopulation     int
	StartingColonists int
	MapRadius         int
	AutoStaff         bool
}

// DefaultOptions returns the settings of a standard colony.
func DefaultOptions() Options {
	return Options{
		MaxPopulation:     colony.DefaultMaxPopulation,
		StartingColonists: 10,
		MapRadius:         world.DefaultGenConfig().Radius,
		AutoStaff:         true,
	}
}

// Simulation holds the complete colony state. It is single-writer: one
// AdvanceDay call completes before any other mutation.
type Simulation struct {
	RunID     string
	Seed      int64
	Day       uint64 // Current day, starts at 1
	MapRadius int
	AutoStaff bool
	Collapsed bool

	Pool       *economy.Pool
	Population *colony.Population

	Buildings      []*colony.Building
	BuildingIndex  map[colony.BuildingID]*colony.Building
	NextBuildingID colony.BuildingID

	Grid        Grid
	Commodities *economy.CommodityMarket
	Indices     *economy.IndexMarket

	Events []Event // Recent events, bounded
	Stats  SimStats

	rng entropy.Source
}

// SimStats tracks aggregate colony statistics.
type SimStats struct {
	Population     int     `json:"population"`
	Employed       int     `json:"employed"`
	Homeless       int     `json:"homeless"`
	AvgHappiness   float64 `json:"avg_happiness"`
	AvgHealth      float64 `json:"avg_health"`
	TotalWages     float64 `json:"total_wages"`
	Births         int     `json:"births"`
	Deaths         int     `json:"deaths"`
	Departures     int     `json:"departures"`
	SlumsSpawned   int     `json:"slums_spawned"`
	WageShortfalls int     `json:"wage_shortfalls"`
}

// DayResult summarizes one AdvanceDay call.
type DayResult struct {
	Day           uint64 `json:"day"` // The day that was simulated
	Births        int    `json:"births"`
	Deaths        int    `json:"deaths"`
	Departures    int    `json:"departures"`
	SlumSpawned   bool   `json:"slum_spawned"`
	WageShortfall bool   `json:"wage_shortfall"`
	Collapsed     bool   `json:"collapsed"`
}

// NewColony creates a fresh colony: starting pool, starting colonists, the
// six starter buildings on a generated map, and both markets.
func NewColony(opts Options) (*Simulation, error) {
	if opts.Seed == 0 {
		opts.Seed = entropy.CryptoSeed()
	}
	if opts.MapRadius <= 0 {
		opts.MapRadius = world.DefaultGenConfig().Radius
	}

	gen := world.DefaultGenConfig()
	gen.Radius = opts.MapRadius
	gen.Seed = opts.Seed
	m := world.Generate(gen)

	s := &Simulation{
		RunID:          uuid.NewString(),
		Seed:           opts.Seed,
		Day:            1,
		MapRadius:      opts.MapRadius,
		AutoStaff:      opts.AutoStaff,
		Pool:           economy.NewPool(),
		Population:     colony.NewPopulation(opts.MaxPopulation),
		BuildingIndex:  make(map[colony.BuildingID]*colony.Building),
		NextBuildingID: 1,
		Grid:           m,
	}
	s.rng = entropy.Derive(s.Seed, entropy.StreamFounding)

	for i := 0; i < opts.StartingColonists; i++ {
		if _, ok := s.Population.Add(s.rng); !ok {
			break
		}
	}

	layout := world.StarterLayout()
	for i, k := range colony.StarterKinds {
		target := layout[i%len(layout)]
		spec, _ := colony.Lookup(k)
		req := spec.Surface
		if target.Surface != world.SurfaceAny {
			req = target.Surface
		}
		coord, ok := world.NearestFree(m, target.Coord, req)
		if !ok {
			return nil, fmt.Errorf("placing starter %s: no free %s cell", k, req)
		}
		if _, err := s.place(k, coord); err != nil {
			return nil, fmt.Errorf("placing starter %s: %w", k, err)
		}
	}

	s.Commodities = economy.NewCommodityMarket(s.rng)
	s.Indices = economy.NewIndexMarket(s.Commodities, s.rng)

	s.updateStats()
	slog.Info("colony founded",
		"run_id", s.RunID,
		"seed", s.Seed,
		"colonists", s.Population.Count(),
		"buildings", len(s.Buildings),
		"map", m.String(),
	)
	return s, nil
}

// Restore rebuilds the derived indexes of a simulation assembled from
// storage: the building index, grid occupancy, and market bindings.
func (s *Simulation) Restore() error {
	if s.Grid == nil {
		gen := world.DefaultGenConfig()
		gen.Radius = s.MapRadius
		gen.Seed = s.Seed
		s.Grid = world.Generate(gen)
	}
	s.Population.Reindex()

	s.BuildingIndex = make(map[colony.BuildingID]*colony.Building, len(s.Buildings))
	for _, b := range s.Buildings {
		s.BuildingIndex[b.ID] = b
		if b.ID >= s.NextBuildingID {
			s.NextBuildingID = b.ID + 1
		}
		if err := s.Grid.Occupy(b.Position, uint64(b.ID)); err != nil {
			return fmt.Errorf("restoring building %d: %w", b.ID, err)
		}
	}
	if s.NextBuildingID == 0 {
		s.NextBuildingID = 1
	}

	s.reseed()
	if s.Commodities == nil {
		s.Commodities = economy.NewCommodityMarket(s.rng)
	}
	if s.Indices == nil {
		s.Indices = economy.NewIndexMarket(s.Commodities, s.rng)
	}
	s.Indices.Attach(s.Commodities, s.rng)
	s.updateStats()
	return nil
}

// reseed derives the day's random source from the run seed so a restored
// colony continues with the same draws it would have made.
func (s *Simulation) reseed() {
	s.rng = entropy.Derive(s.Seed, int64(s.Day))
	if s.Commodities != nil {
		s.Commodities.SetSource(s.rng)
	}
	if s.Indices != nil {
		s.Indices.Attach(s.Commodities, s.rng)
	}
}

// Building resolves a building handle.
func (s *Simulation) Building(id colony.BuildingID) (*colony.Building, bool) {
	b, ok := s.BuildingIndex[id]
	return b, ok
}

func (s *Simulation) lookup(id colony.BuildingID) *colony.Building {
	return s.BuildingIndex[id]
}

// BuildingCounts tallies buildings by kind.
func (s *Simulation) BuildingCounts() map[colony.Kind]int {
	counts := make(map[colony.Kind]int)
	for _, b := range s.Buildings {
		counts[b.Kind]++
	}
	return counts
}

// HousingCapacity returns total residential capacity and free slots.
func (s *Simulation) HousingCapacity() (capacity, vacancies int) {
	for _, b := range s.Buildings {
		if b.IsResidential() {
			capacity += b.Residence.Capacity
			vacancies += b.Vacancies()
		}
	}
	return capacity, vacancies
}

// AdvanceDay runs the full daily pipeline in fixed order and increments the
// day counter. Events are published to q, which may be nil.
func (s *Simulation) AdvanceDay(q *EventQueue) DayResult {
	s.reseed()
	res := DayResult{Day: s.Day}

	if s.AutoStaff {
		s.autoStaff(q)
	}

	s.processResources()
	s.processPopulation(q, &res)
	s.Commodities.Update()
	s.Indices.Update(s.Day)

	s.Stats.Births += res.Births
	s.Stats.Deaths += res.Deaths
	s.Stats.Departures += res.Departures
	s.updateStats()

	s.Day++
	s.emit(q, EventDayAdvanced, fmt.Sprintf("Day %d has begun", s.Day), map[string]any{"day": s.Day})

	if s.Population.Count() <= 0 && !s.Collapsed {
		s.Collapsed = true
		s.emit(q, EventColonyCollapsed, "The colony has failed", map[string]any{"day": res.Day})
		slog.Warn("colony collapsed", "day", res.Day)
	}
	res.Collapsed = s.Collapsed

	s.logDailyReport(res)
	return res
}

func (s *Simulation) logDailyReport(res DayResult) {
	slog.Info("daily report",
		"day", res.Day,
		"population", s.Stats.Population,
		"employed", s.Stats.Employed,
		"homeless", s.Stats.Homeless,
		"births", res.Births,
		"deaths", res.Deaths,
		"departures", res.Departures,
		"avg_happiness", fmt.Sprintf("%.1f", s.Stats.AvgHappiness),
		"avg_health", fmt.Sprintf("%.1f", s.Stats.AvgHealth),
		"credits", fmt.Sprintf("%.2f", s.Pool.Get(economy.Credits)),
		"oxygen", fmt.Sprintf("%.1f", s.Pool.Get(economy.Oxygen)),
		"food", fmt.Sprintf("%.1f", s.Pool.Get(economy.Food)),
		"energy", fmt.Sprintf("%.1f", s.Pool.Get(economy.Energy)),
		"buildings", len(s.Buildings),
	)
}

func (s *Simulation) updateStats() {
	p := s.Population
	s.Stats.Population = p.Count()
	s.Stats.Employed = len(p.Employed())
	s.Stats.Homeless = p.HomelessCount()
	s.Stats.AvgHappiness = p.AverageHappiness()
	s.Stats.AvgHealth = p.AverageHealth()
	s.Stats.TotalWages = p.TotalWages()
}

// sortedHabitats returns residential buildings by descending effective
// quality; ties keep construction order.
func (s *Simulation) sortedHabitats() []*colony.Building {
	var out []*colony.Building
	for _, b := range s.Buildings {
		if b.IsResidential() {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Residence.Quality > out[j].Residence.Quality
	})
	return out
}
