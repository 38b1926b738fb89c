package colony

import (
	"sort"

	"github.com/talgya/mini-colony/internal/entropy"
)

// DefaultMaxPopulation caps the roster size.
const DefaultMaxPopulation = 1000

// Population owns the colonist roster. Buildings refer to colonists by handle only.
type Population struct {
	Colonists     []*Colonist `json:"colonists"`
	MaxPopulation int         `json:"max_population"`
	NextID        ColonistID  `json:"next_id"`

	index map[ColonistID]*Colonist
}

// NewPopulation creates an empty roster with the given cap.
func NewPopulation(maxPopulation int) *Population {
	if maxPopulation <= 0 {
		maxPopulation = DefaultMaxPopulation
	}
	return &Population{
		MaxPopulation: maxPopulation,
		NextID:        1,
		index:         make(map[ColonistID]*Colonist),
	}
}

// Reindex rebuilds the handle index after the roster is replaced (e.g. after loading).
func (p *Population) Reindex() {
	p.index = make(map[ColonistID]*Colonist, len(p.Colonists))
	for _, c := range p.Colonists {
		p.index[c.ID] = c
		if c.ID >= p.NextID {
			p.NextID = c.ID + 1
		}
	}
	if p.NextID == 0 {
		p.NextID = 1
	}
}

// Colonist resolves a handle.
func (p *Population) Colonist(id ColonistID) (*Colonist, bool) {
	c, ok := p.index[id]
	return c, ok
}

// Add creates a new colonist unless the roster is at its cap.
func (p *Population) Add(src entropy.Source) (*Colonist, bool) {
	if len(p.Colonists) >= p.MaxPopulation {
		return nil, false
	}
	if p.index == nil {
		p.Reindex()
	}
	c := NewColonist(p.NextID, src)
	p.NextID++
	p.Colonists = append(p.Colonists, c)
	p.index[c.ID] = c
	return c, true
}

// Insert adds an existing colonist to the roster.
func (p *Population) Insert(c *Colonist) {
	if p.index == nil {
		p.Reindex()
	}
	p.Colonists = append(p.Colonists, c)
	p.index[c.ID] = c
	if c.ID >= p.NextID {
		p.NextID = c.ID + 1
	}
}

// Remove drops a colonist after releasing their workplace and housing.
// lookup resolves the colonist's buildings; missing buildings are skipped.
func (p *Population) Remove(id ColonistID, lookup func(BuildingID) *Building) bool {
	c, ok := p.index[id]
	if !ok {
		return false
	}
	if c.Employed {
		if b := lookup(c.Workplace); b != nil {
			b.RemoveColonist(c)
		}
		c.UnassignFromWorkplace()
	}
	if c.Housed() {
		if b := lookup(c.Housing); b != nil {
			b.RemoveResident(c)
		}
		c.moveOut()
	}

	delete(p.index, id)
	for i, v := range p.Colonists {
		if v.ID == id {
			p.Colonists = append(p.Colonists[:i], p.Colonists[i+1:]...)
			break
		}
	}
	return true
}

// Count returns the roster size.
func (p *Population) Count() int {
	return len(p.Colonists)
}

// Employed returns employed colonists in roster order.
func (p *Population) Employed() []*Colonist {
	return p.filter(func(c *Colonist) bool { return c.Employed })
}

// Unemployed returns unemployed colonists in roster order.
func (p *Population) Unemployed() []*Colonist {
	return p.filter(func(c *Colonist) bool { return !c.Employed })
}

// FirstUnemployed returns the earliest unemployed colonist in the roster.
func (p *Population) FirstUnemployed() (*Colonist, bool) {
	for _, c := range p.Colonists {
		if !c.Employed {
			return c, true
		}
	}
	return nil, false
}

// HomelessCount returns how many colonists have no home.
func (p *Population) HomelessCount() int {
	return len(p.filter(func(c *Colonist) bool { return !c.Housed() }))
}

// HousedCount returns how many colonists have a home.
func (p *Population) HousedCount() int {
	return p.Count() - p.HomelessCount()
}

// AverageHappiness returns mean happiness, 50 for an empty colony.
func (p *Population) AverageHappiness() float64 {
	if len(p.Colonists) == 0 {
		return 50
	}
	sum := 0.0
	for _, c := range p.Colonists {
		sum += c.Happiness
	}
	return sum / float64(len(p.Colonists))
}

// AverageHealth returns mean health, 80 for an empty colony.
func (p *Population) AverageHealth() float64 {
	if len(p.Colonists) == 0 {
		return 80
	}
	sum := 0.0
	for _, c := range p.Colonists {
		sum += c.Health
	}
	return sum / float64(len(p.Colonists))
}

// TotalWages returns the daily wage bill of all employed colonists.
func (p *Population) TotalWages() float64 {
	sum := 0.0
	for _, c := range p.Colonists {
		if c.Employed {
			sum += c.Wage
		}
	}
	return sum
}

// AverageWage returns the mean wage of employed colonists, 0 if none.
func (p *Population) AverageWage() float64 {
	employed := p.Employed()
	if len(employed) == 0 {
		return 0
	}
	return p.TotalWages() / float64(len(employed))
}

// ByWageDesc returns the roster sorted by descending wage; ties keep roster order.
func (p *Population) ByWageDesc() []*Colonist {
	out := append([]*Colonist(nil), p.Colonists...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Wage > out[j].Wage })
	return out
}

// SetWageForAll sets the wage of every employed colonist. Returns how many changed.
func (p *Population) SetWageForAll(wage float64) int {
	wage = ClampWage(wage)
	n := 0
	for _, c := range p.Colonists {
		if c.SetWage(wage) {
			n++
		}
	}
	return n
}

// SetWageForBuilding sets the wage of everyone working at b.
func (p *Population) SetWageForBuilding(b *Building, wage float64) int {
	wage = ClampWage(wage)
	n := 0
	for _, id := range b.Workers {
		if c, ok := p.index[id]; ok && c.SetWage(wage) {
			n++
		}
	}
	return n
}

// SetWageForColonist sets one employed colonist's wage.
func (p *Population) SetWageForColonist(id ColonistID, wage float64) bool {
	c, ok := p.index[id]
	if !ok {
		return false
	}
	return c.SetWage(ClampWage(wage))
}

// SetWageForProfession sets the wage of every employed colonist in profession prof.
func (p *Population) SetWageForProfession(prof Profession, wage float64) int {
	wage = ClampWage(wage)
	n := 0
	for _, c := range p.Colonists {
		if c.Profession == prof && c.SetWage(wage) {
			n++
		}
	}
	return n
}

func (p *Population) filter(keep func(*Colonist) bool) []*Colonist {
	var out []*Colonist
	for _, c := range p.Colonists {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}
