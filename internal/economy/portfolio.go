package economy

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Trade validation errors. A rejected trade changes no state.
var (
	ErrUnknownResource     = errors.New("unknown resource")
	ErrInvalidShares       = errors.New("invalid share amount")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInsufficientShares  = errors.New("insufficient shares")
)

// TradeAction is the side of a share trade.
type TradeAction string

const (
	ActionBuy  TradeAction = "buy"
	ActionSell TradeAction = "sell"
)

// Trade is one ledger entry. The ledger is for display only and plays no
// part in price formation.
type Trade struct {
	ID       uuid.UUID       `json:"id"`
	Day      uint64          `json:"day"`
	Action   TradeAction     `json:"action"`
	Resource Resource        `json:"resource"`
	Shares   int             `json:"shares"`
	Price    decimal.Decimal `json:"price"`
	Total    decimal.Decimal `json:"total"`
}

// Portfolio is the player's share holdings per index.
type Portfolio struct {
	Holdings map[Resource]int `json:"holdings"`
}

// NewPortfolio returns an empty portfolio with a zero entry per tradable resource.
func NewPortfolio() Portfolio {
	h := make(map[Resource]int, len(Tradable))
	for _, r := range Tradable {
		h[r] = 0
	}
	return Portfolio{Holdings: h}
}

// Shares returns the shares held of r.
func (p Portfolio) Shares(r Resource) int {
	return p.Holdings[r]
}

// BuyShares buys shares of r's index at the current price, paying from the
// pool's credits.
func (m *IndexMarket) BuyShares(r Resource, shares int, pool *Pool) (Trade, error) {
	ix, ok := m.Indices[r]
	if !ok {
		return Trade{}, fmt.Errorf("buy %s: %w", r, ErrUnknownResource)
	}
	if shares <= 0 {
		return Trade{}, fmt.Errorf("buy %d %s: %w", shares, ix.Ticker, ErrInvalidShares)
	}

	price := Cents(ix.Price)
	total := Cents(ix.Price * float64(shares))
	if !pool.Spend(total.InexactFloat64()) {
		return Trade{}, fmt.Errorf("buy %d %s for %s: %w", shares, ix.Ticker, total.StringFixed(2), ErrInsufficientCredits)
	}

	m.Portfolio.Holdings[r] += shares
	ix.Volume += shares
	return m.record(ActionBuy, r, shares, price, total), nil
}

// SellShares sells held shares of r's index at the current price, crediting the pool.
func (m *IndexMarket) SellShares(r Resource, shares int, pool *Pool) (Trade, error) {
	ix, ok := m.Indices[r]
	if !ok {
		return Trade{}, fmt.Errorf("sell %s: %w", r, ErrUnknownResource)
	}
	if shares <= 0 {
		return Trade{}, fmt.Errorf("sell %d %s: %w", shares, ix.Ticker, ErrInvalidShares)
	}
	if m.Portfolio.Holdings[r] < shares {
		return Trade{}, fmt.Errorf("sell %d %s (hold %d): %w", shares, ix.Ticker, m.Portfolio.Holdings[r], ErrInsufficientShares)
	}

	price := Cents(ix.Price)
	total := Cents(ix.Price * float64(shares))
	pool.Add(Credits, total.InexactFloat64())

	m.Portfolio.Holdings[r] -= shares
	ix.Volume += shares
	return m.record(ActionSell, r, shares, price, total), nil
}

func (m *IndexMarket) record(action TradeAction, r Resource, shares int, price, total decimal.Decimal) Trade {
	t := Trade{
		ID:       uuid.New(),
		Day:      m.Day,
		Action:   action,
		Resource: r,
		Shares:   shares,
		Price:    price,
		Total:    total,
	}
	m.Ledger = append(m.Ledger, t)
	return t
}

// PortfolioValue summarizes cash, holdings at market, and the day's change
// from price movement alone.
type PortfolioValue struct {
	Cash        float64 `json:"cash"`
	StockValue  float64 `json:"stock_value"`
	TotalValue  float64 `json:"total_value"`
	DailyChange float64 `json:"daily_change"`
}

// Value returns the portfolio valuation against the given cash balance.
func (m *IndexMarket) Value(cash float64) PortfolioValue {
	var stock, change float64
	for r, shares := range m.Portfolio.Holdings {
		ix, ok := m.Indices[r]
		if shares <= 0 || !ok {
			continue
		}
		stock += float64(shares) * ix.Price
		change += float64(shares) * (ix.Price - ix.PreviousClose)
	}
	if len(m.Ledger) == 0 {
		change = 0
	}
	return PortfolioValue{
		Cash:        cash,
		StockValue:  RoundCents(stock),
		TotalValue:  RoundCents(cash + stock),
		DailyChange: RoundCents(change),
	}
}

// RecentTrades returns up to the last n ledger entries, newest last.
func (m *IndexMarket) RecentTrades(n int) []Trade {
	l := m.Ledger
	if n > 0 && len(l) > n {
		l = l[len(l)-n:]
	}
	out := make([]Trade, len(l))
	copy(out, l)
	return out
}
