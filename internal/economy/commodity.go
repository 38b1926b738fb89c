package economy

import (
	"math"

	"github.com/talgya/mini-colony/internal/entropy"
)

// CommodityHistoryLimit bounds each resource's rolling price history.
const CommodityHistoryLimit = 30

// priceFloorRatio is the minimum price as a fraction of base price, shared by both markets.
const priceFloorRatio = 0.01

// PriceEntry is the price-formation state for one tradable resource.
type PriceEntry struct {
	Resource     Resource  `json:"resource"`
	BasePrice    float64   `json:"base_price"`
	Price        float64   `json:"price"`
	History      []float64 `json:"history"`
	Bought       float64   `json:"bought"` // Decaying player buy pressure
	Sold         float64   `json:"sold"`   // Decaying player sell pressure
	Depth        float64   `json:"depth"`  // Market capacity denominator for influence
	Elasticity   float64   `json:"elasticity"`
	RecoveryRate float64   `json:"recovery_rate"`
	BuyMarkup    float64   `json:"buy_markup"`
	SellFee      float64   `json:"sell_fee"`
}

func (e *PriceEntry) floor() float64 {
	return e.BasePrice * priceFloorRatio
}

// CommodityMarket prices physical resources from player pressure, elasticity, and mean reversion.
type CommodityMarket struct {
	Entries    map[Resource]*PriceEntry `json:"entries"`
	Volatility float64                  `json:"volatility"`

	rng entropy.Source
}

// MarketInfo is a display view of one resource's market state.
type MarketInfo struct {
	Price           float64 `json:"current_price"`
	BasePrice       float64 `json:"base_price"`
	PriceRatio      float64 `json:"price_ratio"`
	PlayerInfluence float64 `json:"player_influence"`
	Depth           float64 `json:"market_depth"`
	BuyMarkup       float64 `json:"buy_markup"`
	SellFee         float64 `json:"sell_fee"`
}

// NewCommodityMarket creates the market with its default price table.
func NewCommodityMarket(src entropy.Source) *CommodityMarket {
	type seed struct {
		base, depth, elasticity float64
	}
	table := map[Resource]seed{
		Regolith: {base: 5, depth: 10000, elasticity: 0.0002},
		Food:     {base: 8, depth: 5000, elasticity: 0.0003},
		Oxygen:   {base: 4, depth: 8000, elasticity: 0.00025},
		Hydrogen: {base: 3, depth: 10000, elasticity: 0.0002},
		Fuel:     {base: 10, depth: 3000, elasticity: 0.00035},
	}

	entries := make(map[Resource]*PriceEntry, len(table))
	for r, s := range table {
		entries[r] = &PriceEntry{
			Resource:     r,
			BasePrice:    s.base,
			Price:        s.base,
			Depth:        s.depth,
			Elasticity:   s.elasticity,
			RecoveryRate: 0.1,
			BuyMarkup:    1.1,
			SellFee:      0.9,
		}
	}

	return &CommodityMarket{
		Entries:    entries,
		Volatility: 0.15,
		rng:        src,
	}
}

// SetSource replaces the random source (used after restoring from storage).
func (m *CommodityMarket) SetSource(src entropy.Source) {
	m.rng = src
}

// Update runs the daily price step: reversion toward base, a random shock,
// history recording, and decay of player pressure.
func (m *CommodityMarket) Update() {
	for _, r := range Tradable {
		e, ok := m.Entries[r]
		if !ok {
			continue
		}
		e.Price += (e.BasePrice - e.Price) * e.RecoveryRate

		shock := entropy.Uniform(m.rng, 1-m.Volatility, 1+m.Volatility)
		e.Price = math.Max(e.floor(), e.Price*shock)
	}

	for _, r := range Tradable {
		e, ok := m.Entries[r]
		if !ok {
			continue
		}
		e.History = append(e.History, e.Price)
		if len(e.History) > CommodityHistoryLimit {
			e.History = e.History[len(e.History)-CommodityHistoryLimit:]
		}
		e.Bought *= 0.9
		e.Sold *= 0.9
	}
}

// ApplyPlayerInfluence moves the price by amount × elasticity: up when buying
// (uncapped), down when selling (floored at 1% of base).
func (m *CommodityMarket) ApplyPlayerInfluence(r Resource, amount float64, buying bool) {
	e, ok := m.Entries[r]
	if !ok {
		return
	}
	impact := amount * e.Elasticity
	if buying {
		e.Bought += amount
		e.Price *= 1 + impact
		return
	}
	e.Sold += amount
	e.Price = math.Max(e.Price*(1-impact), e.floor())
}

// InfluenceFactor returns the player's share of the market, in [0, 1].
func (m *CommodityMarket) InfluenceFactor(r Resource) float64 {
	e, ok := m.Entries[r]
	if !ok || e.Depth <= 0 {
		return 0
	}
	return math.Min((e.Bought+e.Sold)/e.Depth, 1.0)
}

// Buy quotes a purchase of amount units against the available credits. If the
// full amount is unaffordable, it is reduced to the largest affordable whole
// number of units. Returns the amount bought and its cost; the caller settles
// credits and stock.
func (m *CommodityMarket) Buy(r Resource, amount, credits float64) (bought, cost float64) {
	e, ok := m.Entries[r]
	if !ok || amount <= 0 {
		return 0, 0
	}

	unit := e.Price * e.BuyMarkup
	cost = RoundCents(amount * unit)
	if credits >= cost {
		m.ApplyPlayerInfluence(r, amount, true)
		return amount, cost
	}

	affordable := math.Min(math.Floor(credits/unit), amount)
	cost = RoundCents(affordable * unit)
	// Rounding to cents can land just above the budget.
	if cost > credits && affordable > 0 {
		affordable--
		cost = RoundCents(affordable * unit)
	}
	if affordable > 0 {
		m.ApplyPlayerInfluence(r, affordable, true)
	}
	return affordable, cost
}

// Sell quotes a sale of up to amount units limited by available stock. Returns
// the amount sold and its revenue after the sell fee.
func (m *CommodityMarket) Sell(r Resource, amount, available float64) (sold, revenue float64) {
	e, ok := m.Entries[r]
	if !ok {
		return 0, 0
	}

	sold = math.Min(amount, available)
	if sold <= 0 {
		return 0, 0
	}
	revenue = RoundCents(sold * e.Price * e.SellFee)
	m.ApplyPlayerInfluence(r, sold, false)
	return sold, revenue
}

// Price returns the current price of r, or 0 if r is not traded.
func (m *CommodityMarket) Price(r Resource) float64 {
	if e, ok := m.Entries[r]; ok {
		return e.Price
	}
	return 0
}

// PriceRatio returns current price over base price (1.0 if r is not traded).
func (m *CommodityMarket) PriceRatio(r Resource) float64 {
	e, ok := m.Entries[r]
	if !ok || e.BasePrice == 0 {
		return 1.0
	}
	return e.Price / e.BasePrice
}

// History returns up to the last n recorded prices of r.
func (m *CommodityMarket) History(r Resource, n int) []float64 {
	e, ok := m.Entries[r]
	if !ok {
		return nil
	}
	h := e.History
	if n > 0 && len(h) > n {
		h = h[len(h)-n:]
	}
	out := make([]float64, len(h))
	copy(out, h)
	return out
}

// Info returns the display view for r.
func (m *CommodityMarket) Info(r Resource) (MarketInfo, bool) {
	e, ok := m.Entries[r]
	if !ok {
		return MarketInfo{}, false
	}
	return MarketInfo{
		Price:           e.Price,
		BasePrice:       e.BasePrice,
		PriceRatio:      m.PriceRatio(r),
		PlayerInfluence: m.InfluenceFactor(r),
		Depth:           e.Depth,
		BuyMarkup:       e.BuyMarkup,
		SellFee:         e.SellFee,
	}, true
}
