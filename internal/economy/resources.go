// Package economy provides the colony resource ledger and the two price engines:
// the commodity market for physical goods and the index market for resource-linked shares.
package economy

import (
	"encoding/json"
	"fmt"
)

// Resource enumerates the stock kinds tracked by the colony ledger.
type Resource uint8

const (
	Oxygen Resource = iota
	Food
	Regolith
	Energy
	Credits
	Hydrogen
	Fuel
)

// NumResources is the total number of resource kinds.
const NumResources = 7

var resourceNames = [NumResources]string{
	"oxygen", "food", "regolith", "energy", "credits", "hydrogen", "fuel",
}

// AllResources lists every resource in ledger order.
var AllResources = [NumResources]Resource{Oxygen, Food, Regolith, Energy, Credits, Hydrogen, Fuel}

// Tradable lists the resources quoted on both markets, in quote order.
var Tradable = []Resource{Regolith, Food, Oxygen, Hydrogen, Fuel}

// String returns the lower-case resource name.
func (r Resource) String() string {
	if int(r) < len(resourceNames) {
		return resourceNames[r]
	}
	return fmt.Sprintf("resource(%d)", r)
}

// ParseResource looks up a resource by name.
func ParseResource(name string) (Resource, bool) {
	for i, n := range resourceNames {
		if n == name {
			return Resource(i), true
		}
	}
	return 0, false
}

// MarshalText encodes the resource by name (used for JSON map keys).
func (r Resource) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a resource name.
func (r *Resource) UnmarshalText(b []byte) error {
	res, ok := ParseResource(string(b))
	if !ok {
		return fmt.Errorf("unknown resource %q", string(b))
	}
	*r = res
	return nil
}

// Amounts is a fixed-size vector of quantities, one slot per resource.
type Amounts [NumResources]float64

// Add returns the element-wise sum.
func (a Amounts) Add(b Amounts) Amounts {
	for i := range a {
		a[i] += b[i]
	}
	return a
}

// Scale returns every quantity multiplied by f.
func (a Amounts) Scale(f float64) Amounts {
	for i := range a {
		a[i] *= f
	}
	return a
}

// IsZero returns true if all quantities are zero.
func (a Amounts) IsZero() bool {
	for _, v := range a {
		if v != 0 {
			return false
		}
	}
	return true
}

// MarshalJSON encodes only the non-zero entries, keyed by name.
func (a Amounts) MarshalJSON() ([]byte, error) {
	m := make(map[string]float64)
	for i, v := range a {
		if v != 0 {
			m[resourceNames[i]] = v
		}
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes a name-keyed object.
func (a *Amounts) UnmarshalJSON(b []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*a = Amounts{}
	for name, v := range m {
		r, ok := ParseResource(name)
		if !ok {
			return fmt.Errorf("unknown resource %q", name)
		}
		a[r] = v
	}
	return nil
}

// Pool is the colony's global stock ledger.
type Pool struct {
	Stock Amounts `json:"stock"`
}

// NewPool returns the starting stocks of a fresh colony.
func NewPool() *Pool {
	return &Pool{Stock: Amounts{
		Oxygen:   100,
		Food:     100,
		Regolith: 50,
		Energy:   75,
		Credits:  1000,
		Hydrogen: 0,
		Fuel:     25,
	}}
}

// Get returns the current stock of r.
func (p *Pool) Get(r Resource) float64 {
	return p.Stock[r]
}

// Set overwrites the stock of r, floored at 0.
func (p *Pool) Set(r Resource, v float64) {
	if v < 0 {
		v = 0
	}
	p.Stock[r] = v
}

// Add adjusts the stock of r by delta, floored at 0.
func (p *Pool) Add(r Resource, delta float64) {
	p.Set(r, p.Stock[r]+delta)
}

// Covers reports whether every positive entry of need is fully in stock.
func (p *Pool) Covers(need Amounts) bool {
	for i, v := range need {
		if v > 0 && p.Stock[i] < v {
			return false
		}
	}
	return true
}

// Spend deducts credits if the pool can cover them. Returns false without change otherwise.
func (p *Pool) Spend(amount float64) bool {
	if amount < 0 || p.Stock[Credits] < amount {
		return false
	}
	p.Stock[Credits] -= amount
	return true
}

// Apply adds production then subtracts consumption, flooring each stock at 0.
func (p *Pool) Apply(production, consumption Amounts) {
	for i := range p.Stock {
		p.Stock[i] += production[i]
	}
	for i := range p.Stock {
		p.Stock[i] -= consumption[i]
		if p.Stock[i] < 0 {
			p.Stock[i] = 0
		}
	}
}
