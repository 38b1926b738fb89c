// Package metrics exports colony state as Prometheus gauges and counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/talgya/mini-colony/internal/economy"
	"github.com/talgya/mini-colony/internal/engine"
)

const namespace = "colony"

// Collector holds every colony metric. Observe is called once per simulated
// day with the post-step snapshot.
type Collector struct {
	day        prometheus.Gauge
	population *prometheus.GaugeVec
	happiness  prometheus.Gauge
	health     prometheus.Gauge
	wages      prometheus.Gauge
	collapsed  prometheus.Gauge

	stock     *prometheus.GaugeVec
	buildings *prometheus.GaugeVec
	housing   *prometheus.GaugeVec

	commodityPrice *prometheus.GaugeVec
	indexPrice     *prometheus.GaugeVec
	portfolio      *prometheus.GaugeVec

	demographics *prometheus.CounterVec
	events       *prometheus.CounterVec
	shortfalls   prometheus.Counter
	days         prometheus.Counter
}

// NewCollector creates the colony metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		day: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "day",
			Help:      "Current colony day",
		}),
		population: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "population",
				Help:      "Colonists by employment and housing status",
			},
			[]string{"status"},
		),
		happiness: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "average_happiness",
			Help:      "Mean colonist happiness (0-100)",
		}),
		health: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "average_health",
			Help:      "Mean colonist health (0-100)",
		}),
		wages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "daily_wages",
			Help:      "Total daily wage bill of employed colonists",
		}),
		collapsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "collapsed",
			Help:      "1 once the population has reached zero",
		}),
		stock: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "pool",
				Name:      "stock",
				Help:      "Resource stock in the colony pool",
			},
			[]string{"resource"},
		),
		buildings: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "buildings",
				Help:      "Buildings by kind",
			},
			[]string{"kind"},
		),
		housing: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "housing_slots",
				Help:      "Residential capacity and free slots",
			},
			[]string{"state"},
		),
		commodityPrice: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "market",
				Name:      "commodity_price",
				Help:      "Commodity market price per unit",
			},
			[]string{"resource"},
		),
		indexPrice: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "market",
				Name:      "index_price",
				Help:      "Resource index share price",
			},
			[]string{"ticker"},
		),
		portfolio: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "market",
				Name:      "portfolio_value",
				Help:      "Portfolio valuation components",
			},
			[]string{"component"},
		),
		demographics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "demographic_changes_total",
				Help:      "Births, deaths and departures",
			},
			[]string{"change"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Colony events published, by kind",
			},
			[]string{"kind"},
		),
		shortfalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wage_shortfalls_total",
			Help:      "Days on which the wage bill exceeded credits",
		}),
		days: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "days_simulated_total",
			Help:      "Days advanced by this process",
		}),
	}

	for _, m := range []prometheus.Collector{
		c.day, c.population, c.happiness, c.health, c.wages, c.collapsed,
		c.stock, c.buildings, c.housing,
		c.commodityPrice, c.indexPrice, c.portfolio,
		c.demographics, c.events, c.shortfalls, c.days,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Observe records one simulated day.
func (c *Collector) Observe(res engine.DayResult, events []engine.Event, snap engine.Snapshot) {
	c.days.Inc()
	c.demographics.WithLabelValues("birth").Add(float64(res.Births))
	c.demographics.WithLabelValues("death").Add(float64(res.Deaths))
	c.demographics.WithLabelValues("departure").Add(float64(res.Departures))
	if res.WageShortfall {
		c.shortfalls.Inc()
	}
	for _, e := range events {
		c.events.WithLabelValues(string(e.Kind)).Inc()
	}

	c.Set(snap)
}

// Set updates the gauges from a snapshot without touching the counters.
func (c *Collector) Set(snap engine.Snapshot) {
	c.day.Set(float64(snap.Day))
	c.population.WithLabelValues("total").Set(float64(snap.Stats.Population))
	c.population.WithLabelValues("employed").Set(float64(snap.Stats.Employed))
	c.population.WithLabelValues("homeless").Set(float64(snap.Stats.Homeless))
	c.happiness.Set(snap.Stats.AvgHappiness)
	c.health.Set(snap.Stats.AvgHealth)
	c.wages.Set(snap.Stats.TotalWages)
	if snap.Collapsed {
		c.collapsed.Set(1)
	} else {
		c.collapsed.Set(0)
	}

	for _, r := range economy.AllResources {
		c.stock.WithLabelValues(r.String()).Set(snap.Resources[r])
	}

	// Reset so demolished kinds leave the series.
	c.buildings.Reset()
	for kind, n := range snap.Counts {
		c.buildings.WithLabelValues(kind).Set(float64(n))
	}
	c.housing.WithLabelValues("capacity").Set(float64(snap.Housing.Capacity))
	c.housing.WithLabelValues("vacant").Set(float64(snap.Housing.Vacancies))

	for _, m := range snap.Market {
		c.commodityPrice.WithLabelValues(m.Resource.String()).Set(m.Price)
	}
	for _, ix := range snap.Indices {
		c.indexPrice.WithLabelValues(ix.Ticker).Set(ix.Price)
	}
	c.portfolio.WithLabelValues("cash").Set(snap.Portfolio.Cash)
	c.portfolio.WithLabelValues("stock").Set(snap.Portfolio.StockValue)
	c.portfolio.WithLabelValues("total").Set(snap.Portfolio.TotalValue)
}
