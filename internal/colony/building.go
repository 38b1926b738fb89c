package colony

import (
	"math"

	"github.com/talgya/mini-colony/internal/economy"
	"github.com/talgya/mini-colony/internal/world"
)

// BuildingID is a unique identifier for a building. Zero means none.
type BuildingID uint64

// UnhappyThreshold is the happiness below which occupants generate crime.
const UnhappyThreshold = 40.0

// Roster resolves colonist handles. Population satisfies it.
type Roster interface {
	Colonist(id ColonistID) (*Colonist, bool)
}

// Residence is the housing payload of residential buildings.
type Residence struct {
	BaseQuality float64      `json:"base_quality"`
	Quality     float64      `json:"quality"` // Effective quality after crime
	Rent        float64      `json:"rent"`
	Capacity    int          `json:"capacity"`
	Residents   []ColonistID `json:"residents"`
	Slum        bool         `json:"slum"`
	CrimePerDay float64      `json:"crime_per_day"`
}

// Clinic is the health payload of hospitals.
type Clinic struct {
	Rate        float64 `json:"rate"`
	MaxCapacity int     `json:"max_capacity"`
}

// Precinct is the crime-reduction payload of police precincts.
type Precinct struct {
	ReductionPerWorker float64 `json:"reduction_per_worker"`
	Radius             int     `json:"radius"`
}

// Building is the shared record of every building kind. Workers and
// Residents hold handles into the population roster; a colonist's Workplace
// and Housing point back by BuildingID.
type Building struct {
	ID       BuildingID     `json:"id"`
	Kind     Kind           `json:"kind"`
	Name     string         `json:"name"`
	Position world.HexCoord `json:"position"`
	Active   bool           `json:"active"`

	MaxWorkers int          `json:"max_workers"`
	Workers    []ColonistID `json:"workers"`
	Profession Profession   `json:"profession"`
	BaseWage   float64      `json:"base_wage"`

	Consumption economy.Amounts `json:"consumption"`
	PerWorker   economy.Amounts `json:"per_worker"`
	Fixed       economy.Amounts `json:"fixed"`

	RequiredSurface world.Surface `json:"required_surface"`

	CrimeLevel      float64 `json:"crime_level"` // 0–100
	CrimeResistance float64 `json:"crime_resistance"`
	IsCrimeSource   bool    `json:"is_crime_source"`

	Residence *Residence `json:"residence,omitempty"`
	Clinic    *Clinic    `json:"clinic,omitempty"`
	Precinct  *Precinct  `json:"precinct,omitempty"`
}

// AssignedWorkers returns the number of colonists working here.
func (b *Building) AssignedWorkers() int {
	return len(b.Workers)
}

// HasWorker reports whether colonist id works here.
func (b *Building) HasWorker(id ColonistID) bool {
	return indexOf(b.Workers, id) >= 0
}

// AssignColonist employs c at the building's base wage.
func (b *Building) AssignColonist(c *Colonist) bool {
	return b.AssignColonistAtWage(c, b.BaseWage)
}

// AssignColonistAtWage employs c at wage. Fails without change when the
// building is full or c is already employed.
func (b *Building) AssignColonistAtWage(c *Colonist, wage float64) bool {
	if c.Employed || len(b.Workers) >= b.MaxWorkers {
		return false
	}
	b.Workers = append(b.Workers, c.ID)
	c.AssignToWorkplace(b, wage)
	return true
}

// RemoveColonist releases c from the building. Returns false if c does not work here.
func (b *Building) RemoveColonist(c *Colonist) bool {
	i := indexOf(b.Workers, c.ID)
	if i < 0 {
		return false
	}
	b.Workers = append(b.Workers[:i], b.Workers[i+1:]...)
	c.UnassignFromWorkplace()
	return true
}

// Production returns raw output: per-worker rates times assigned workers plus
// any fixed output. Inactive buildings produce nothing.
func (b *Building) Production() economy.Amounts {
	if !b.Active {
		return economy.Amounts{}
	}
	return b.PerWorker.Scale(float64(len(b.Workers))).Add(b.Fixed)
}

// CurrentConsumption returns consumption scaled by staffing ratio.
func (b *Building) CurrentConsumption() economy.Amounts {
	ratio := float64(len(b.Workers)) / float64(max(1, b.MaxWorkers))
	return b.Consumption.Scale(ratio)
}

// CanOperate reports whether the pool fully covers every consumption entry.
func (b *Building) CanOperate(pool *economy.Pool) bool {
	return pool.Covers(b.CurrentConsumption())
}

// CrimePenalty returns the production multiplier lost to crime.
func (b *Building) CrimePenalty() float64 {
	return math.Max(0, 1-b.CrimeLevel*0.01)
}

// EffectiveProduction returns production after the operability gate and crime penalty.
func (b *Building) EffectiveProduction(pool *economy.Pool) economy.Amounts {
	if !b.CanOperate(pool) {
		return economy.Amounts{}
	}
	return b.Production().Scale(b.CrimePenalty())
}

// UpdateCrime decays crime by 2, then adds generation from unhappy workers
// (2 each), unhappy residents (3 each), and slum conditions.
func (b *Building) UpdateCrime(r Roster) {
	b.CrimeLevel = math.Max(0, b.CrimeLevel-2)

	generation := 0.0
	for _, id := range b.Workers {
		if c, ok := r.Colonist(id); ok && c.Happiness < UnhappyThreshold {
			generation += 2
		}
	}
	if res := b.Residence; res != nil {
		for _, id := range res.Residents {
			if c, ok := r.Colonist(id); ok && c.Happiness < UnhappyThreshold {
				generation += 3
			}
		}
		if res.Slum {
			generation += res.CrimePerDay
		}
	}

	b.CrimeLevel = clamp(b.CrimeLevel+generation, 0, 100)
	b.IsCrimeSource = generation > 0
}

// AddCrime raises crime by amount, capped at 100.
func (b *Building) AddCrime(amount float64) {
	b.CrimeLevel = clamp(b.CrimeLevel+amount, 0, 100)
}

// ReduceCrime lowers crime by amount, floored at 0.
func (b *Building) ReduceCrime(amount float64) {
	b.CrimeLevel = clamp(b.CrimeLevel-amount, 0, 100)
}

// CrimeReduction returns the per-building reduction a precinct applies today.
func (b *Building) CrimeReduction() float64 {
	if b.Precinct == nil || !b.Active {
		return 0
	}
	return float64(len(b.Workers)) * b.Precinct.ReductionPerWorker
}

// UpdateQualityFromCrime recomputes effective housing quality: base quality
// minus two points per 100 crime, never below 1.
func (b *Building) UpdateQualityFromCrime() {
	if b.Residence == nil {
		return
	}
	penalty := b.CrimeLevel * 0.01
	b.Residence.Quality = math.Max(1.0, b.Residence.BaseQuality-2*penalty)
}

// HealthBoost returns the hospital's daily health boost for a population of
// the given size. Output is diluted when the population exceeds the capacity
// the current staff can serve.
func (b *Building) HealthBoost(population int) float64 {
	if b.Clinic == nil || !b.Active || population <= 0 {
		return 0
	}
	base := float64(len(b.Workers)) * b.Clinic.Rate
	staffing := float64(len(b.Workers)) / float64(max(1, b.MaxWorkers))
	capacity := float64(b.Clinic.MaxCapacity) * staffing

	pop := float64(population)
	boost := base * math.Min(1, capacity/pop)
	if pop > capacity {
		boost *= capacity / pop
	}
	return boost
}

// IsResidential reports whether the building houses colonists.
func (b *Building) IsResidential() bool {
	return b.Residence != nil
}

// IsSlum reports whether the building is a slum.
func (b *Building) IsSlum() bool {
	return b.Residence != nil && b.Residence.Slum
}

// Vacancies returns free housing slots (0 for non-residential buildings).
func (b *Building) Vacancies() int {
	if b.Residence == nil {
		return 0
	}
	return b.Residence.Capacity - len(b.Residence.Residents)
}

// HasResident reports whether colonist id lives here.
func (b *Building) HasResident(id ColonistID) bool {
	return b.Residence != nil && indexOf(b.Residence.Residents, id) >= 0
}

// AddResident houses c. Fails without change when the building is full,
// not residential, or c already lives here.
func (b *Building) AddResident(c *Colonist) bool {
	res := b.Residence
	if res == nil || len(res.Residents) >= res.Capacity || b.HasResident(c.ID) {
		return false
	}
	res.Residents = append(res.Residents, c.ID)
	c.moveIn(b)
	return true
}

// RemoveResident evicts c. Returns false if c does not live here.
func (b *Building) RemoveResident(c *Colonist) bool {
	if b.Residence == nil {
		return false
	}
	i := indexOf(b.Residence.Residents, c.ID)
	if i < 0 {
		return false
	}
	b.Residence.Residents = append(b.Residence.Residents[:i], b.Residence.Residents[i+1:]...)
	c.moveOut()
	return true
}

// SetRent updates the rent of a residential building.
func (b *Building) SetRent(rent float64) {
	if b.Residence != nil {
		b.Residence.Rent = math.Max(0, rent)
	}
}

// Occupants returns every colonist handle attached to the building.
func (b *Building) Occupants() []ColonistID {
	out := append([]ColonistID(nil), b.Workers...)
	if b.Residence != nil {
		out = append(out, b.Residence.Residents...)
	}
	return out
}

// Detach releases every worker and resident. Must run before the building is removed.
func (b *Building) Detach(r Roster) {
	for len(b.Workers) > 0 {
		id := b.Workers[0]
		if c, ok := r.Colonist(id); ok && b.RemoveColonist(c) {
			continue
		}
		b.Workers = b.Workers[1:]
	}
	if b.Residence == nil {
		return
	}
	for len(b.Residence.Residents) > 0 {
		id := b.Residence.Residents[0]
		if c, ok := r.Colonist(id); ok && b.RemoveResident(c) {
			continue
		}
		b.Residence.Residents = b.Residence.Residents[1:]
	}
}

func indexOf(ids []ColonistID, id ColonistID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
