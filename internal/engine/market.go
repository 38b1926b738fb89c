// Market trades settled against the colony's pool.
package engine

import (
	"fmt"
	"slices"

	"github.com/talgya/mini-colony/internal/economy"
)

// BuyResource purchases up to amount units of r with colony credits. The
// amount is reduced to what the treasury can afford.
func (s *Simulation) BuyResource(r economy.Resource, amount float64) (bought, cost float64, err error) {
	if !slices.Contains(economy.Tradable, r) {
		return 0, 0, fmt.Errorf("buy %s: %w", r, economy.ErrUnknownResource)
	}
	bought, cost = s.Commodities.Buy(r, amount, s.Pool.Get(economy.Credits))
	if bought > 0 {
		s.Pool.Add(r, bought)
		s.Pool.Add(economy.Credits, -cost)
	}
	return bought, cost, nil
}

// SellResource sells up to amount units of r from colony stock.
func (s *Simulation) SellResource(r economy.Resource, amount float64) (sold, revenue float64, err error) {
	if !slices.Contains(economy.Tradable, r) {
		return 0, 0, fmt.Errorf("sell %s: %w", r, economy.ErrUnknownResource)
	}
	sold, revenue = s.Commodities.Sell(r, amount, s.Pool.Get(r))
	if sold > 0 {
		s.Pool.Add(r, -sold)
		s.Pool.Add(economy.Credits, revenue)
	}
	return sold, revenue, nil
}

// BuyShares buys index shares with colony credits.
func (s *Simulation) BuyShares(r economy.Resource, shares int) (economy.Trade, error) {
	return s.Indices.BuyShares(r, shares, s.Pool)
}

// SellShares sells index shares for colony credits.
func (s *Simulation) SellShares(r economy.Resource, shares int) (economy.Trade, error) {
	return s.Indices.SellShares(r, shares, s.Pool)
}

// PortfolioValue values the colony's holdings against its treasury.
func (s *Simulation) PortfolioValue() economy.PortfolioValue {
	return s.Indices.Value(s.Pool.Get(economy.Credits))
}
