package economy

import (
	"fmt"
	"math"
	"strings"

	"github.com/talgya/mini-colony/internal/entropy"
)

// NewsKind classifies a market news event.
type NewsKind string

const (
	SupplyNews     NewsKind = "supply_news"
	DemandNews     NewsKind = "demand_news"
	TechNews       NewsKind = "tech_news"
	RegulationNews NewsKind = "regulation"
)

type newsTemplate struct {
	kind    NewsKind
	message string
	impact  float64
}

var newsCatalog = []newsTemplate{
	{SupplyNews, "Supply chain developments affect %s market", 0.08},
	{DemandNews, "Demand shifts in %s sector", 0.10},
	{TechNews, "Technological breakthrough impacts %s", 0.06},
	{RegulationNews, "New regulations affect %s industry", 0.07},
}

// NewsEvent is a price shock scheduled for a future day. A broad event
// (Broad true) moves every index; otherwise only Resource moves.
type NewsEvent struct {
	Kind     NewsKind `json:"type"`
	Message  string   `json:"message"`
	Impact   float64  `json:"impact"`
	Resource Resource `json:"resource"`
	Broad    bool     `json:"broad"`
	Day      uint64   `json:"day"`
}

func (m *IndexMarket) scheduleNews() {
	t := newsCatalog[m.rng.Intn(len(newsCatalog))]

	ev := NewsEvent{Kind: t.kind, Day: m.Day + 1}
	if entropy.Chance(m.rng, 0.8) {
		r := Tradable[m.rng.Intn(len(Tradable))]
		ev.Resource = r
		ev.Impact = t.impact * entropy.Sign(m.rng)
		ev.Message = fmt.Sprintf(t.message, capitalize(r.String()))
	} else {
		ev.Broad = true
		ev.Impact = t.impact * 0.3 * entropy.Sign(m.rng)
		ev.Message = "Market-wide " + fmt.Sprintf(t.message, "prices")
	}
	ev.Impact *= 1 + m.GlobalVolatility

	m.PendingNews = append(m.PendingNews, ev)
}

// applyPendingNews applies every event scheduled for the current day and
// discards it. Events for later days stay queued; events whose day has
// already passed are dropped unapplied.
func (m *IndexMarket) applyPendingNews() {
	kept := m.PendingNews[:0]
	for _, ev := range m.PendingNews {
		if ev.Day > m.Day {
			kept = append(kept, ev)
			continue
		}
		if ev.Day < m.Day {
			continue
		}
		if ev.Broad {
			for _, r := range Tradable {
				ix, ok := m.Indices[r]
				if !ok {
					continue
				}
				variation := entropy.Uniform(m.rng, 0.8, 1.2)
				ix.Price = math.Max(ix.Price*(1+ev.Impact*variation), ix.floor())
			}
			continue
		}
		if ix, ok := m.Indices[ev.Resource]; ok {
			ix.Price = math.Max(ix.Price*(1+ev.Impact), ix.floor())
		}
	}
	m.PendingNews = kept
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
