package economy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-colony/internal/entropy"
)

type fixedQuotes map[Resource]float64

func (q fixedQuotes) PriceRatio(r Resource) float64 {
	if v, ok := q[r]; ok {
		return v
	}
	return 1.0
}

func TestCommodityRatioContributesToSentiment(t *testing.T) {
	m := NewIndexMarket(fixedQuotes{Regolith: 1.3}, entropy.New(1))
	m.GlobalTrend = 0

	score := m.SentimentScore(m.Indices[Regolith])

	assert.InDelta(t, 0.09, score, 1e-9)
}

func TestCustomCommodityInfluence(t *testing.T) {
	m := NewIndexMarket(fixedQuotes{Food: 2.0}, entropy.New(1))
	m.CommodityInfluence = func(ratio float64) float64 { return ratio }

	assert.InDelta(t, 2.0, m.SentimentScore(m.Indices[Food]), 1e-9)
}

func TestMomentumCapped(t *testing.T) {
	assert.Zero(t, Momentum([]float64{1, 2, 3}))
	assert.InDelta(t, 0.1, Momentum([]float64{10, 11, 12, 13, 20}), 1e-9)
	assert.InDelta(t, -0.1, Momentum([]float64{20, 11, 12, 13, 10}), 1e-9)
	assert.InDelta(t, 0.04, Momentum([]float64{100, 100, 100, 100, 102}), 1e-9)
}

func TestClassifySentiment(t *testing.T) {
	assert.Equal(t, Bullish, classifySentiment(0.031))
	assert.Equal(t, Bearish, classifySentiment(-0.031))
	assert.Equal(t, Neutral, classifySentiment(0.03))
}

func TestIndexUpdateOncePerDay(t *testing.T) {
	m := NewIndexMarket(fixedQuotes{}, entropy.New(5))

	m.Update(1)
	price := m.Indices[Fuel].Price
	hist := len(m.Indices[Fuel].History)

	m.Update(1)
	assert.Equal(t, price, m.Indices[Fuel].Price)
	assert.Len(t, m.Indices[Fuel].History, hist)
}

func TestIndexFloorAndHistoryBound(t *testing.T) {
	m := NewIndexMarket(fixedQuotes{Regolith: 0.01, Food: 0.01, Oxygen: 0.01, Hydrogen: 0.01, Fuel: 0.01}, entropy.New(11))

	for day := uint64(1); day <= 400; day++ {
		m.Update(day)
		for _, r := range Tradable {
			ix := m.Indices[r]
			require.GreaterOrEqual(t, ix.Price, ix.BasePrice*0.01, "%s on day %d", ix.Ticker, day)
			require.LessOrEqual(t, len(ix.History), IndexHistoryLimit)
			require.Zero(t, ix.Volume)
		}
		require.GreaterOrEqual(t, m.GlobalVolatility, 0.05)
		require.LessOrEqual(t, m.GlobalVolatility, 0.4)
	}
}

func TestNewsAppliedExactlyOnce(t *testing.T) {
	m := NewIndexMarket(fixedQuotes{}, entropy.New(1))
	m.Day = 2
	m.Indices[Oxygen].Price = 100
	m.PendingNews = []NewsEvent{
		{Kind: SupplyNews, Resource: Oxygen, Impact: 0.1, Day: 2},
		{Kind: TechNews, Resource: Oxygen, Impact: 0.5, Day: 3},
	}

	m.applyPendingNews()
	assert.InDelta(t, 110.0, m.Indices[Oxygen].Price, 1e-9)
	require.Len(t, m.PendingNews, 1)
	assert.Equal(t, uint64(3), m.PendingNews[0].Day)

	m.applyPendingNews()
	assert.InDelta(t, 110.0, m.Indices[Oxygen].Price, 1e-9)
}

func TestStaleNewsDropped(t *testing.T) {
	m := NewIndexMarket(fixedQuotes{}, entropy.New(1))
	m.Day = 6
	m.Indices[Fuel].Price = 100
	m.PendingNews = []NewsEvent{
		{Kind: SupplyNews, Resource: Fuel, Impact: 0.2, Day: 4},
		{Kind: TechNews, Resource: Fuel, Impact: 0.3, Day: 9},
	}

	m.applyPendingNews()
	assert.InDelta(t, 100.0, m.Indices[Fuel].Price, 1e-9)
	require.Len(t, m.PendingNews, 1)
	assert.Equal(t, uint64(9), m.PendingNews[0].Day)
}

func TestScheduledNewsTargetsNextDay(t *testing.T) {
	m := NewIndexMarket(fixedQuotes{}, entropy.New(9))
	m.Day = 4

	for i := 0; i < 20; i++ {
		m.scheduleNews()
	}
	for _, ev := range m.PendingNews {
		assert.Equal(t, uint64(5), ev.Day)
		assert.NotEmpty(t, ev.Message)
		assert.NotZero(t, ev.Impact)
	}
}

func TestMeanReversionPullsTowardBase(t *testing.T) {
	ix := &Index{BasePrice: 100, Price: 200}
	for i := 0; i < 30; i++ {
		ix.History = append(ix.History, 100)
	}
	assert.Less(t, meanReversion(ix), 0.0)

	ix.History = ix.History[:5]
	assert.Zero(t, meanReversion(ix), "needs ten days of history")
}

func TestBuyAndSellShares(t *testing.T) {
	m := NewIndexMarket(fixedQuotes{}, entropy.New(1))
	m.Indices[Food].Price = 75
	pool := NewPool()

	trade, err := m.BuyShares(Food, 10, pool)
	require.NoError(t, err)
	assert.Equal(t, ActionBuy, trade.Action)
	assert.Equal(t, "750.00", trade.Total.StringFixed(2))
	assert.Equal(t, 250.0, pool.Get(Credits))
	assert.Equal(t, 10, m.Portfolio.Shares(Food))
	assert.Equal(t, 10, m.Indices[Food].Volume)

	m.Indices[Food].Price = 80
	trade, err = m.SellShares(Food, 4, pool)
	require.NoError(t, err)
	assert.Equal(t, "320.00", trade.Total.StringFixed(2))
	assert.Equal(t, 570.0, pool.Get(Credits))
	assert.Equal(t, 6, m.Portfolio.Shares(Food))
	assert.Len(t, m.RecentTrades(0), 2)
}

func TestShareTradeValidation(t *testing.T) {
	m := NewIndexMarket(fixedQuotes{}, entropy.New(1))
	pool := NewPool()

	tests := []struct {
		name   string
		trade  func() error
		target error
	}{
		{"unknown index", func() error { _, err := m.BuyShares(Energy, 1, pool); return err }, ErrUnknownResource},
		{"zero shares", func() error { _, err := m.BuyShares(Food, 0, pool); return err }, ErrInvalidShares},
		{"negative sell", func() error { _, err := m.SellShares(Food, -3, pool); return err }, ErrInvalidShares},
		{"too expensive", func() error { _, err := m.BuyShares(Fuel, 1000, pool); return err }, ErrInsufficientCredits},
		{"not held", func() error { _, err := m.SellShares(Oxygen, 1, pool); return err }, ErrInsufficientShares},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.trade()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), err.Error())
		})
	}

	assert.Equal(t, 1000.0, pool.Get(Credits))
	assert.Empty(t, m.Ledger)
}

func TestPortfolioValue(t *testing.T) {
	m := NewIndexMarket(fixedQuotes{}, entropy.New(1))
	pool := NewPool()
	m.Indices[Regolith].Price = 50
	_, err := m.BuyShares(Regolith, 10, pool)
	require.NoError(t, err)
	m.Indices[Regolith].PreviousClose = 45

	v := m.Value(pool.Get(Credits))

	assert.Equal(t, 500.0, v.Cash)
	assert.Equal(t, 500.0, v.StockValue)
	assert.Equal(t, 1000.0, v.TotalValue)
	assert.Equal(t, 50.0, v.DailyChange)
}
