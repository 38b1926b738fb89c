// Package colony provides the colonist and building data model, the building
// catalog, and the population roster.
package colony

import (
	"math"

	"github.com/talgya/mini-colony/internal/entropy"
)

// ColonistID is a unique identifier for a colonist.
type ColonistID uint64

// BaseLivingCost is each colonist's daily cost of living before rent and debt service.
const BaseLivingCost = 1.0

// Colonist is one member of the colony.
type Colonist struct {
	ID        ColonistID `json:"id"`
	Health    float64    `json:"health"`    // 0–100
	Happiness float64    `json:"happiness"` // 0–100

	// Employment
	Employed   bool       `json:"employed"`
	Workplace  BuildingID `json:"workplace,omitempty"`
	Profession Profession `json:"profession"`
	Wage       float64    `json:"wage"`

	// Finances
	Savings    float64 `json:"savings"`
	Debt       float64 `json:"debt"`
	LivingCost float64 `json:"living_cost"`

	// Housing snapshot taken on move-in
	Housing        BuildingID `json:"housing,omitempty"`
	HousingQuality float64    `json:"housing_quality"`
	RentCost       float64    `json:"rent_cost"`
	InSlum         bool       `json:"in_slum"`

	DaysUnemployed int `json:"days_unemployed"`
	DaysHomeless   int `json:"days_homeless"`
}

// NewColonist creates a colonist with randomized starting health (70–90) and
// happiness (40–60).
func NewColonist(id ColonistID, src entropy.Source) *Colonist {
	return &Colonist{
		ID:         id,
		Health:     float64(entropy.IntBetween(src, 70, 90)),
		Happiness:  float64(entropy.IntBetween(src, 40, 60)),
		LivingCost: BaseLivingCost,
	}
}

// Housed reports whether the colonist has a home.
func (c *Colonist) Housed() bool {
	return c.Housing != 0
}

// AssignToWorkplace records employment at b. The building reserves the slot.
func (c *Colonist) AssignToWorkplace(b *Building, wage float64) {
	c.Workplace = b.ID
	c.Profession = b.Profession
	c.Employed = true
	c.Wage = wage
}

// UnassignFromWorkplace clears employment.
func (c *Colonist) UnassignFromWorkplace() {
	c.Workplace = 0
	c.Profession = ProfessionNone
	c.Employed = false
	c.Wage = 0
}

// SetWage changes the wage of an employed colonist. Returns false if unemployed.
func (c *Colonist) SetWage(w float64) bool {
	if !c.Employed {
		return false
	}
	c.Wage = w
	return true
}

func (c *Colonist) moveIn(b *Building) {
	c.Housing = b.ID
	c.HousingQuality = b.Residence.Quality
	c.RentCost = b.Residence.Rent
	c.InSlum = b.Residence.Slum
}

func (c *Colonist) moveOut() {
	c.Housing = 0
	c.HousingQuality = 0
	c.RentCost = 0
	c.InSlum = false
}

// CalculateLivingCost returns base cost plus 1% debt service plus rent.
func (c *Colonist) CalculateLivingCost() float64 {
	cost := c.LivingCost + c.Debt*0.01
	if c.Housed() {
		cost += c.RentCost
	}
	return cost
}

// CanAffordRent reports whether savings plus wage cover the current rent.
func (c *Colonist) CanAffordRent() bool {
	if !c.Housed() {
		return false
	}
	return c.Savings+c.Wage >= c.RentCost
}

// CanAffordHousing reports whether an employed colonist's wage covers rent plus base living cost.
func (c *Colonist) CanAffordHousing(rent float64) bool {
	if !c.Employed {
		return false
	}
	return c.Wage >= rent+c.LivingCost
}

// WageSatisfaction returns the happiness contribution of wage relative to living cost.
func (c *Colonist) WageSatisfaction() float64 {
	cost := c.CalculateLivingCost()
	switch {
	case c.Wage <= cost:
		return -20
	case c.Wage <= cost*1.5:
		return 0
	case c.Wage <= cost*2:
		return 10
	default:
		return 20
	}
}

// HousingHappiness returns the happiness contribution of the current housing.
// The homeless penalty grows with every day spent without a home.
func (c *Colonist) HousingHappiness() float64 {
	if !c.Housed() {
		return -15 - float64(c.DaysHomeless)*0.5
	}
	if c.InSlum {
		return -10
	}

	burden := 5.0
	if c.Wage > 0 {
		burden = 0
		if ratio := c.RentCost / c.Wage; ratio > 0.3 {
			burden = (ratio - 0.3) * 15
		}
	}
	return c.HousingQuality*3 - burden
}

// UpdateHousing runs the daily housing decision. current is the building c
// lives in (nil if unhoused or missing). A colonist who can no longer afford
// rent is evicted and searches again tomorrow. The homeless take the best
// affordable regular vacancy, falling back to any slum; the housed only move
// for a strictly better affordable regular home. Reports whether c moved in
// somewhere.
func (c *Colonist) UpdateHousing(current *Building, candidates []*Building) bool {
	if c.Housed() && current == nil {
		c.moveOut()
	}
	if current != nil && !c.CanAffordRent() {
		current.RemoveResident(c)
		return false
	}

	var slums, regular []*Building
	for _, b := range candidates {
		if !b.IsResidential() {
			continue
		}
		if b.IsSlum() {
			slums = append(slums, b)
		} else {
			regular = append(regular, b)
		}
	}

	best := c.bestAffordable(regular)

	if current == nil {
		if best != nil && best.AddResident(c) {
			return true
		}
		for _, s := range slums {
			if s.Vacancies() > 0 && s.Residence.Quality > c.HousingQuality && s.AddResident(c) {
				return true
			}
		}
		return false
	}

	if best == nil || best == current {
		return false
	}
	current.RemoveResident(c)
	return best.AddResident(c)
}

func (c *Colonist) bestAffordable(habitats []*Building) *Building {
	var best *Building
	for _, h := range habitats {
		q := h.Residence.Quality
		if h.Vacancies() <= 0 || !c.CanAffordHousing(h.Residence.Rent) || q <= c.HousingQuality {
			continue
		}
		if best == nil || q > best.Residence.Quality {
			best = h
		}
	}
	return best
}

// Update runs the colonist's daily state transition: counters, happiness,
// health decay, living costs, and wage income.
func (c *Colonist) Update() {
	if c.Housed() {
		c.DaysHomeless = 0
	} else {
		c.DaysHomeless++
	}

	employment := 0.0
	if !c.Employed {
		employment = -5
	}
	unemployment := math.Min(20, float64(c.DaysUnemployed)*0.5)
	debt := math.Min(15, c.Debt*0.1)
	health := (c.Health - 50) / 10

	c.Happiness += c.WageSatisfaction() + employment + c.HousingHappiness() - unemployment - debt + health
	c.Happiness = clamp(c.Happiness, 0, 100)

	c.Health -= 0.1
	if c.Health < 30 {
		c.Health -= 0.5
	}

	if c.Employed {
		c.DaysUnemployed = 0
	} else {
		c.DaysUnemployed++
	}

	cost := c.CalculateLivingCost()
	if c.Savings >= cost {
		c.Savings -= cost
	} else {
		c.Debt += cost - c.Savings
		c.Savings = 0
	}

	if c.Employed && c.Wage > 0 {
		c.Savings += c.Wage
	}
}

// Clamp bounds health and happiness to [0, 100].
func (c *Colonist) Clamp() {
	c.Health = clamp(c.Health, 0, 100)
	c.Happiness = clamp(c.Happiness, 0, 100)
}
