package economy

import (
	"math"
	"testing"

	"pgregory.net/rapid"

	"github.com/talgya/mini-colony/internal/entropy"
)

// Any mix of trades and daily updates keeps every price finite and at or
// above one percent of its base.
func TestCommodityPricesStayAboveFloor(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := NewCommodityMarket(entropy.New(rapid.Int64().Draw(t, "seed")))
		steps := rapid.IntRange(1, 60).Draw(t, "steps")

		for i := 0; i < steps; i++ {
			r := rapid.SampledFrom(Tradable).Draw(t, "resource")
			amount := rapid.Float64Range(0, 1e6).Draw(t, "amount")
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				m.Buy(r, amount, rapid.Float64Range(0, 1e7).Draw(t, "credits"))
			case 1:
				m.Sell(r, amount, rapid.Float64Range(0, 1e6).Draw(t, "stock"))
			default:
				m.Update()
			}

			for _, res := range Tradable {
				e := m.Entries[res]
				if math.IsNaN(e.Price) || math.IsInf(e.Price, 0) {
					t.Fatalf("%s price not finite: %v", res, e.Price)
				}
				if e.Price < e.BasePrice*0.01-1e-9 {
					t.Fatalf("%s price %v below floor of base %v", res, e.Price, e.BasePrice)
				}
			}
		}
	})
}

// Buying never spends more credits than offered.
func TestBuyNeverOverspends(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := NewCommodityMarket(entropy.New(1))
		r := rapid.SampledFrom(Tradable).Draw(t, "resource")
		amount := rapid.Float64Range(0, 1e5).Draw(t, "amount")
		credits := rapid.Float64Range(0, 1e5).Draw(t, "credits")

		bought, cost := m.Buy(r, amount, credits)

		if cost > credits+1e-9 {
			t.Fatalf("spent %v with only %v credits", cost, credits)
		}
		if bought < 0 || bought > amount {
			t.Fatalf("bought %v of %v requested", bought, amount)
		}
	})
}
