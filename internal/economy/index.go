package economy

import (
	"math"

	"github.com/talgya/mini-colony/internal/entropy"
)

// IndexHistoryLimit bounds each index's price history.
const IndexHistoryLimit = 50

// Sentiment is the smoothed market mood of one index.
type Sentiment uint8

const (
	Neutral Sentiment = iota
	Bullish
	Bearish
)

var sentimentNames = [...]string{"neutral", "bullish", "bearish"}

func (s Sentiment) String() string {
	if int(s) < len(sentimentNames) {
		return sentimentNames[s]
	}
	return "neutral"
}

// MarshalText encodes the sentiment by name.
func (s Sentiment) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a sentiment name; unknown names decode as neutral.
func (s *Sentiment) UnmarshalText(b []byte) error {
	*s = Neutral
	for i, n := range sentimentNames {
		if n == string(b) {
			*s = Sentiment(i)
		}
	}
	return nil
}

// Index is one resource-linked tradable index.
type Index struct {
	Resource          Resource  `json:"resource"`
	Ticker            string    `json:"ticker"`
	BasePrice         float64   `json:"base_price"`
	Price             float64   `json:"current_price"`
	PreviousClose     float64   `json:"previous_close"`
	Volume            int       `json:"volume"` // Shares traded today, reset after the price step
	History           []float64 `json:"history"`
	Volatility        float64   `json:"volatility"`
	Sentiment         Sentiment `json:"sentiment"`
	SentimentMomentum float64   `json:"sentiment_momentum"`
	Beta              float64   `json:"beta"`
	MarketCap         float64   `json:"market_cap"`
}

func (ix *Index) floor() float64 {
	return ix.BasePrice * priceFloorRatio
}

// CommodityQuotes is the commodity price view the index market reads for sentiment.
type CommodityQuotes interface {
	PriceRatio(r Resource) float64
}

// IndexMarket prices resource indices from sentiment, momentum, beta to a
// global trend, and multi-horizon mean reversion.
type IndexMarket struct {
	Indices          map[Resource]*Index `json:"indices"`
	Day              uint64              `json:"day"`
	LastUpdateDay    uint64              `json:"last_update_day"`
	GlobalVolatility float64             `json:"global_volatility"`
	GlobalTrend      float64             `json:"global_trend"`
	PendingNews      []NewsEvent         `json:"pending_news"`
	Portfolio        Portfolio           `json:"portfolio"`
	Ledger           []Trade             `json:"ledger"`

	// CommodityInfluence maps a commodity price ratio to a sentiment contribution.
	CommodityInfluence func(ratio float64) float64 `json:"-"`

	quotes CommodityQuotes
	rng    entropy.Source
}

// DefaultCommodityInfluence weights the commodity ratio's distance from 1.0 at 30%.
func DefaultCommodityInfluence(ratio float64) float64 {
	return (ratio - 1.0) * 0.3
}

var tickers = map[Resource]string{
	Regolith: "RGLT",
	Food:     "FOOD",
	Oxygen:   "OXYG",
	Hydrogen: "HYDR",
	Fuel:     "FUEL",
}

var indexBasePrices = map[Resource]float64{
	Regolith: 45,
	Food:     75,
	Oxygen:   35,
	Hydrogen: 25,
	Fuel:     90,
}

// TickerFor returns the ticker symbol of r's index.
func TickerFor(r Resource) string {
	if t, ok := tickers[r]; ok {
		return t
	}
	name := []byte(r.String())
	if len(name) > 4 {
		name = name[:4]
	}
	for i, c := range name {
		if c >= 'a' && c <= 'z' {
			name[i] = c - 'a' + 'A'
		}
	}
	return string(name)
}

// NewIndexMarket creates one index per tradable resource with randomized
// volatility, beta, and market cap.
func NewIndexMarket(quotes CommodityQuotes, src entropy.Source) *IndexMarket {
	m := &IndexMarket{
		Indices:            make(map[Resource]*Index, len(Tradable)),
		GlobalVolatility:   0.1,
		Portfolio:          NewPortfolio(),
		CommodityInfluence: DefaultCommodityInfluence,
		quotes:             quotes,
		rng:                src,
	}
	for _, r := range Tradable {
		base := indexBasePrices[r]
		m.Indices[r] = &Index{
			Resource:      r,
			Ticker:        TickerFor(r),
			BasePrice:     base,
			Price:         base,
			PreviousClose: base,
			History:       []float64{base},
			Volatility:    entropy.Uniform(src, 0.08, 0.25),
			Sentiment:     Neutral,
			Beta:          entropy.Uniform(src, 0.7, 1.3),
			MarketCap:     base * float64(entropy.IntBetween(src, 50000, 200000)),
		}
	}
	return m
}

// Attach rebinds the commodity quotes and random source (used after restoring from storage).
func (m *IndexMarket) Attach(quotes CommodityQuotes, src entropy.Source) {
	m.quotes = quotes
	m.rng = src
	if m.CommodityInfluence == nil {
		m.CommodityInfluence = DefaultCommodityInfluence
	}
	if m.Portfolio.Holdings == nil {
		m.Portfolio = NewPortfolio()
	}
}

// Update advances the index market to day. Repeated calls for the same day are no-ops.
func (m *IndexMarket) Update(day uint64) {
	if day == m.LastUpdateDay {
		return
	}
	m.Day = day
	m.LastUpdateDay = day

	m.updateGlobalConditions()

	for _, r := range Tradable {
		ix, ok := m.Indices[r]
		if !ok {
			continue
		}
		m.updateSentiment(ix)
		m.updatePrice(ix)
	}

	m.applyPendingNews()

	if entropy.Chance(m.rng, 0.25) {
		m.scheduleNews()
	}
}

func (m *IndexMarket) updateGlobalConditions() {
	volChange := entropy.Uniform(m.rng, -0.02, 0.02)
	m.GlobalVolatility = clamp(m.GlobalVolatility+volChange, 0.05, 0.4)

	trendChange := entropy.Uniform(m.rng, -0.01, 0.01)
	m.GlobalTrend = m.GlobalTrend*0.9 + trendChange*0.1
}

// SentimentScore returns the unsmoothed sentiment sum for ix, excluding noise.
func (m *IndexMarket) SentimentScore(ix *Index) float64 {
	ratio := 1.0
	if m.quotes != nil {
		ratio = m.quotes.PriceRatio(ix.Resource)
	}
	influence := m.CommodityInfluence
	if influence == nil {
		influence = DefaultCommodityInfluence
	}
	return influence(ratio) + Momentum(ix.History)*0.4 + m.GlobalTrend*ix.Beta
}

func (m *IndexMarket) updateSentiment(ix *Index) {
	net := m.SentimentScore(ix) + entropy.Gauss(m.rng, 0, ix.Volatility*0.1)

	ix.SentimentMomentum = ix.SentimentMomentum*0.8 + net*0.2
	ix.Sentiment = classifySentiment(ix.SentimentMomentum)
}

func classifySentiment(momentum float64) Sentiment {
	switch {
	case momentum > 0.03:
		return Bullish
	case momentum < -0.03:
		return Bearish
	default:
		return Neutral
	}
}

// Momentum returns the 5-entry price change of history, doubled and capped to ±10%.
func Momentum(history []float64) float64 {
	if len(history) < 5 {
		return 0
	}
	recent := history[len(history)-5:]
	if recent[0] == 0 {
		return 0
	}
	change := (recent[4] - recent[0]) / recent[0]
	return clamp(change*2, -0.1, 0.1)
}

func (m *IndexMarket) updatePrice(ix *Index) {
	ix.PreviousClose = ix.Price

	var base float64
	switch ix.Sentiment {
	case Bullish:
		base = entropy.Uniform(m.rng, 0.005, 0.03)
	case Bearish:
		base = entropy.Uniform(m.rng, -0.03, -0.005)
	default:
		base = entropy.Uniform(m.rng, -0.01, 0.01)
	}

	global := m.GlobalTrend * ix.Beta

	volume := 0.0
	if ix.Volume > 1000 {
		volume = float64(ix.Volume) / 10000 * 0.01
	}

	noise := entropy.Gauss(m.rng, 0, ix.Volatility*m.GlobalVolatility)

	movement := base + global + volume + noise + meanReversion(ix)

	ix.Price = math.Max(ix.Price*(1+movement), ix.floor())
	ix.History = append(ix.History, ix.Price)
	if len(ix.History) > IndexHistoryLimit {
		ix.History = ix.History[len(ix.History)-IndexHistoryLimit:]
	}
	ix.Volume = 0
}

// meanReversion returns the reversion term once ten days of history exist.
// The blended deviation weighs the 30-day average at 50%, base price at 30%,
// and the 10-day average at 20%; reversion only engages beyond 15%.
func meanReversion(ix *Index) float64 {
	n := len(ix.History)
	if n < 10 {
		return 0
	}

	window := n
	if window > 30 {
		window = 30
	}
	avg30 := mean(ix.History[n-window:])
	avg10 := mean(ix.History[n-10:])

	devBase := (ix.Price - ix.BasePrice) / ix.BasePrice
	dev30 := (ix.Price - avg30) / avg30
	dev10 := (ix.Price - avg10) / avg10

	total := dev30*0.5 + devBase*0.3 + dev10*0.2
	if math.Abs(total) <= 0.15 {
		return 0
	}

	const strength = 0.08
	factor := strength * (math.Abs(total) - 0.15) / 0.85
	reversion := -total * factor

	if devBase > 0.5 {
		reversion += -devBase * 0.02
	}
	return reversion
}

// MarketData is a display view of one index.
type MarketData struct {
	Ticker        string    `json:"ticker"`
	Resource      Resource  `json:"resource"`
	Price         float64   `json:"current_price"`
	PreviousClose float64   `json:"previous_close"`
	Change        float64   `json:"change"`
	PercentChange float64   `json:"percent_change"`
	Volume        int       `json:"volume"`
	Sentiment     Sentiment `json:"sentiment"`
	Volatility    float64   `json:"volatility"`
	History       []float64 `json:"price_history"`
	MarketCap     float64   `json:"market_cap"`
	Beta          float64   `json:"beta"`
}

// Data returns the display view of r's index.
func (m *IndexMarket) Data(r Resource) (MarketData, bool) {
	ix, ok := m.Indices[r]
	if !ok {
		return MarketData{}, false
	}
	change := ix.Price - ix.PreviousClose
	pct := 0.0
	if ix.PreviousClose > 0 {
		pct = change / ix.PreviousClose * 100
	}
	h := ix.History
	if len(h) > 30 {
		h = h[len(h)-30:]
	}
	hist := make([]float64, len(h))
	copy(hist, h)
	return MarketData{
		Ticker:        ix.Ticker,
		Resource:      r,
		Price:         ix.Price,
		PreviousClose: ix.PreviousClose,
		Change:        change,
		PercentChange: pct,
		Volume:        ix.Volume,
		Sentiment:     ix.Sentiment,
		Volatility:    ix.Volatility,
		History:       hist,
		MarketCap:     ix.MarketCap,
		Beta:          ix.Beta,
	}, true
}

// AllData returns the display view of every index in quote order.
func (m *IndexMarket) AllData() []MarketData {
	out := make([]MarketData, 0, len(m.Indices))
	for _, r := range Tradable {
		if d, ok := m.Data(r); ok {
			out = append(out, d)
		}
	}
	return out
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
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
