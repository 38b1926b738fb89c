package persistence

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/talgya/mini-colony/internal/colony"
	"github.com/talgya/mini-colony/internal/economy"
	"github.com/talgya/mini-colony/internal/engine"
	"github.com/talgya/mini-colony/internal/world"
)

const (
	metaDay           = "day"
	metaSeed          = "seed"
	metaRunID         = "run_id"
	metaMapRadius     = "map_radius"
	metaAutoStaff     = "auto_staff"
	metaCollapsed     = "collapsed"
	metaMaxPopulation = "max_population"
	metaNextColonist  = "next_colonist_id"
	metaNextBuilding  = "next_building_id"
	metaCommodityVol  = "commodity_volatility"
	metaIndexDay      = "index_day"
	metaIndexUpdated  = "index_last_update_day"
	metaGlobalVol     = "global_volatility"
	metaGlobalTrend   = "global_trend"
	metaStats         = "stats_json"
)

func saveMeta(tx *sqlx.Tx, sim *engine.Simulation) error {
	stats, err := json.Marshal(sim.Stats)
	if err != nil {
		return err
	}
	meta := map[string]string{
		metaDay:           formatUint(sim.Day),
		metaSeed:          strconv.FormatInt(sim.Seed, 10),
		metaRunID:         sim.RunID,
		metaMapRadius:     strconv.Itoa(sim.MapRadius),
		metaAutoStaff:     strconv.FormatBool(sim.AutoStaff),
		metaCollapsed:     strconv.FormatBool(sim.Collapsed),
		metaMaxPopulation: strconv.Itoa(sim.Population.MaxPopulation),
		metaNextColonist:  formatUint(uint64(sim.Population.NextID)),
		metaNextBuilding:  formatUint(uint64(sim.NextBuildingID)),
		metaCommodityVol:  formatFloat(sim.Commodities.Volatility),
		metaIndexDay:      formatUint(sim.Indices.Day),
		metaIndexUpdated:  formatUint(sim.Indices.LastUpdateDay),
		metaGlobalVol:     formatFloat(sim.Indices.GlobalVolatility),
		metaGlobalTrend:   formatFloat(sim.Indices.GlobalTrend),
		metaStats:         string(stats),
	}
	for k, v := range meta {
		if _, err := tx.Exec("INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
	}
	return nil
}

// metaReader parses typed values out of the meta table, keeping the first error.
type metaReader struct {
	values map[string]string
	err    error
}

func (m *metaReader) set(key string, err error) {
	if err != nil && m.err == nil {
		m.err = fmt.Errorf("meta %s: %w", key, err)
	}
}

func (m *metaReader) parseUint(key string) uint64 {
	v, err := strconv.ParseUint(m.values[key], 10, 64)
	m.set(key, err)
	return v
}

func (m *metaReader) parseInt(key string) int {
	v, err := strconv.Atoi(m.values[key])
	m.set(key, err)
	return v
}

func (m *metaReader) parseInt64(key string) int64 {
	v, err := strconv.ParseInt(m.values[key], 10, 64)
	m.set(key, err)
	return v
}

func (m *metaReader) parseFloat(key string) float64 {
	v, err := strconv.ParseFloat(m.values[key], 64)
	m.set(key, err)
	return v
}

func (m *metaReader) parseBool(key string) bool {
	v, err := strconv.ParseBool(m.values[key])
	m.set(key, err)
	return v
}

type metaRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

func (db *DB) loadMeta(sim *engine.Simulation) error {
	var rows []metaRow
	if err := db.conn.Select(&rows, "SELECT key, value FROM world_meta"); err != nil {
		return fmt.Errorf("load meta: %w", err)
	}
	m := &metaReader{values: make(map[string]string, len(rows))}
	for _, r := range rows {
		m.values[r.Key] = r.Value
	}
	if _, ok := m.values[metaDay]; !ok {
		return ErrNoSave
	}

	sim.Day = m.parseUint(metaDay)
	sim.Seed = m.parseInt64(metaSeed)
	sim.RunID = m.values[metaRunID]
	sim.MapRadius = m.parseInt(metaMapRadius)
	sim.AutoStaff = m.parseBool(metaAutoStaff)
	sim.Collapsed = m.parseBool(metaCollapsed)
	sim.NextBuildingID = colony.BuildingID(m.parseUint(metaNextBuilding))

	sim.Population = colony.NewPopulation(m.parseInt(metaMaxPopulation))
	sim.Population.NextID = colony.ColonistID(m.parseUint(metaNextColonist))

	sim.Commodities = &economy.CommodityMarket{
		Entries:    make(map[economy.Resource]*economy.PriceEntry),
		Volatility: m.parseFloat(metaCommodityVol),
	}
	sim.Indices = &economy.IndexMarket{
		Indices:          make(map[economy.Resource]*economy.Index),
		Day:              m.parseUint(metaIndexDay),
		LastUpdateDay:    m.parseUint(metaIndexUpdated),
		GlobalVolatility: m.parseFloat(metaGlobalVol),
		GlobalTrend:      m.parseFloat(metaGlobalTrend),
		Portfolio:        economy.NewPortfolio(),
	}

	if s := m.values[metaStats]; s != "" {
		m.set(metaStats, json.Unmarshal([]byte(s), &sim.Stats))
	}
	return m.err
}

type resourceRow struct {
	Resource string  `db:"resource"`
	Amount   float64 `db:"amount"`
}

func saveResources(tx *sqlx.Tx, sim *engine.Simulation) error {
	if _, err := tx.Exec("DELETE FROM resources"); err != nil {
		return err
	}
	for i, v := range sim.Pool.Stock {
		row := resourceRow{Resource: economy.Resource(i).String(), Amount: v}
		if _, err := tx.NamedExec("INSERT INTO resources (resource, amount) VALUES (:resource, :amount)", row); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) loadResources(sim *engine.Simulation) error {
	var rows []resourceRow
	if err := db.conn.Select(&rows, "SELECT resource, amount FROM resources"); err != nil {
		return err
	}
	sim.Pool = &economy.Pool{}
	for _, r := range rows {
		res, ok := economy.ParseResource(r.Resource)
		if !ok {
			return fmt.Errorf("%w: %q", economy.ErrUnknownResource, r.Resource)
		}
		sim.Pool.Set(res, r.Amount)
	}
	return nil
}

type colonistRow struct {
	ID             uint64  `db:"id"`
	Health         float64 `db:"health"`
	Happiness      float64 `db:"happiness"`
	Employed       bool    `db:"employed"`
	Workplace      uint64  `db:"workplace"`
	Profession     string  `db:"profession"`
	Wage           float64 `db:"wage"`
	Savings        float64 `db:"savings"`
	Debt           float64 `db:"debt"`
	LivingCost     float64 `db:"living_cost"`
	Housing        uint64  `db:"housing"`
	HousingQuality float64 `db:"housing_quality"`
	RentCost       float64 `db:"rent_cost"`
	InSlum         bool    `db:"in_slum"`
	DaysUnemployed int     `db:"days_unemployed"`
	DaysHomeless   int     `db:"days_homeless"`
}

func saveColonists(tx *sqlx.Tx, sim *engine.Simulation) error {
	if _, err := tx.Exec("DELETE FROM colonists"); err != nil {
		return err
	}

	stmt, err := tx.PrepareNamed(`INSERT INTO colonists
		(id, health, happiness, employed, workplace, profession, wage, savings, debt,
		 living_cost, housing, housing_quality, rent_cost, in_slum, days_unemployed, days_homeless)
		VALUES (:id, :health, :happiness, :employed, :workplace, :profession, :wage, :savings, :debt,
		 :living_cost, :housing, :housing_quality, :rent_cost, :in_slum, :days_unemployed, :days_homeless)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range sim.Population.Colonists {
		row := colonistRow{
			ID:             uint64(c.ID),
			Health:         c.Health,
			Happiness:      c.Happiness,
			Employed:       c.Employed,
			Workplace:      uint64(c.Workplace),
			Profession:     c.Profession.String(),
			Wage:           c.Wage,
			Savings:        c.Savings,
			Debt:           c.Debt,
			LivingCost:     c.LivingCost,
			Housing:        uint64(c.Housing),
			HousingQuality: c.HousingQuality,
			RentCost:       c.RentCost,
			InSlum:         c.InSlum,
			DaysUnemployed: c.DaysUnemployed,
			DaysHomeless:   c.DaysHomeless,
		}
		if _, err := stmt.Exec(row); err != nil {
			return fmt.Errorf("insert colonist %d: %w", c.ID, err)
		}
	}
	return nil
}

func (db *DB) loadColonists(sim *engine.Simulation) error {
	var rows []colonistRow
	if err := db.conn.Select(&rows, "SELECT * FROM colonists ORDER BY id"); err != nil {
		return err
	}
	for _, r := range rows {
		prof, ok := colony.ParseProfession(r.Profession)
		if !ok {
			return fmt.Errorf("colonist %d: unknown profession %q", r.ID, r.Profession)
		}
		sim.Population.Insert(&colony.Colonist{
			ID:             colony.ColonistID(r.ID),
			Health:         r.Health,
			Happiness:      r.Happiness,
			Employed:       r.Employed,
			Workplace:      colony.BuildingID(r.Workplace),
			Profession:     prof,
			Wage:           r.Wage,
			Savings:        r.Savings,
			Debt:           r.Debt,
			LivingCost:     r.LivingCost,
			Housing:        colony.BuildingID(r.Housing),
			HousingQuality: r.HousingQuality,
			RentCost:       r.RentCost,
			InSlum:         r.InSlum,
			DaysUnemployed: r.DaysUnemployed,
			DaysHomeless:   r.DaysHomeless,
		})
	}
	return nil
}

type buildingRow struct {
	ID         uint64  `db:"id"`
	Kind       string  `db:"kind"`
	Name       string  `db:"name"`
	PosQ       int     `db:"pos_q"`
	PosR       int     `db:"pos_r"`
	Active     bool    `db:"active"`
	CrimeLevel float64 `db:"crime_level"`
	StateJSON  string  `db:"state_json"`
}

func saveBuildings(tx *sqlx.Tx, sim *engine.Simulation) error {
	if _, err := tx.Exec("DELETE FROM buildings"); err != nil {
		return err
	}
	for _, b := range sim.Buildings {
		state, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("encode building %d: %w", b.ID, err)
		}
		row := buildingRow{
			ID:         uint64(b.ID),
			Kind:       b.Kind.String(),
			Name:       b.Name,
			PosQ:       b.Position.Q,
			PosR:       b.Position.R,
			Active:     b.Active,
			CrimeLevel: b.CrimeLevel,
			StateJSON:  string(state),
		}
		_, err = tx.NamedExec(`INSERT INTO buildings
			(id, kind, name, pos_q, pos_r, active, crime_level, state_json)
			VALUES (:id, :kind, :name, :pos_q, :pos_r, :active, :crime_level, :state_json)`, row)
		if err != nil {
			return fmt.Errorf("insert building %d: %w", b.ID, err)
		}
	}
	return nil
}

func (db *DB) loadBuildings(sim *engine.Simulation) error {
	var rows []buildingRow
	if err := db.conn.Select(&rows, "SELECT * FROM buildings ORDER BY id"); err != nil {
		return err
	}
	for _, r := range rows {
		kind, ok := colony.ParseKind(r.Kind)
		if !ok {
			return fmt.Errorf("building %d: %w: %q", r.ID, colony.ErrUnknownBuilding, r.Kind)
		}
		b := &colony.Building{}
		if err := json.Unmarshal([]byte(r.StateJSON), b); err != nil {
			return fmt.Errorf("decode building %d: %w", r.ID, err)
		}
		b.ID = colony.BuildingID(r.ID)
		b.Kind = kind
		b.Position = world.HexCoord{Q: r.PosQ, R: r.PosR}
		sim.Buildings = append(sim.Buildings, b)
	}
	return nil
}

type commodityRow struct {
	Resource     string  `db:"resource"`
	BasePrice    float64 `db:"base_price"`
	Price        float64 `db:"price"`
	Bought       float64 `db:"bought"`
	Sold         float64 `db:"sold"`
	Depth        float64 `db:"depth"`
	Elasticity   float64 `db:"elasticity"`
	RecoveryRate float64 `db:"recovery_rate"`
	BuyMarkup    float64 `db:"buy_markup"`
	SellFee      float64 `db:"sell_fee"`
	HistoryJSON  string  `db:"history_json"`
}

func saveCommodities(tx *sqlx.Tx, sim *engine.Simulation) error {
	if _, err := tx.Exec("DELETE FROM commodity_prices"); err != nil {
		return err
	}
	for r, e := range sim.Commodities.Entries {
		hist, err := json.Marshal(e.History)
		if err != nil {
			return err
		}
		row := commodityRow{
			Resource:     r.String(),
			BasePrice:    e.BasePrice,
			Price:        e.Price,
			Bought:       e.Bought,
			Sold:         e.Sold,
			Depth:        e.Depth,
			Elasticity:   e.Elasticity,
			RecoveryRate: e.RecoveryRate,
			BuyMarkup:    e.BuyMarkup,
			SellFee:      e.SellFee,
			HistoryJSON:  string(hist),
		}
		_, err = tx.NamedExec(`INSERT INTO commodity_prices
			(resource, base_price, price, bought, sold, depth, elasticity, recovery_rate, buy_markup, sell_fee, history_json)
			VALUES (:resource, :base_price, :price, :bought, :sold, :depth, :elasticity, :recovery_rate, :buy_markup, :sell_fee, :history_json)`, row)
		if err != nil {
			return fmt.Errorf("insert commodity %s: %w", r, err)
		}
	}
	return nil
}

func (db *DB) loadCommodities(sim *engine.Simulation) error {
	var rows []commodityRow
	if err := db.conn.Select(&rows, "SELECT * FROM commodity_prices"); err != nil {
		return err
	}
	for _, row := range rows {
		r, ok := economy.ParseResource(row.Resource)
		if !ok {
			return fmt.Errorf("%w: %q", economy.ErrUnknownResource, row.Resource)
		}
		e := &economy.PriceEntry{
			Resource:     r,
			BasePrice:    row.BasePrice,
			Price:        row.Price,
			Bought:       row.Bought,
			Sold:         row.Sold,
			Depth:        row.Depth,
			Elasticity:   row.Elasticity,
			RecoveryRate: row.RecoveryRate,
			BuyMarkup:    row.BuyMarkup,
			SellFee:      row.SellFee,
		}
		if err := json.Unmarshal([]byte(row.HistoryJSON), &e.History); err != nil {
			return fmt.Errorf("commodity %s history: %w", r, err)
		}
		sim.Commodities.Entries[r] = e
	}
	return nil
}

type indexRow struct {
	Resource          string  `db:"resource"`
	Ticker            string  `db:"ticker"`
	BasePrice         float64 `db:"base_price"`
	Price             float64 `db:"price"`
	PreviousClose     float64 `db:"previous_close"`
	Volume            int     `db:"volume"`
	Volatility        float64 `db:"volatility"`
	Sentiment         string  `db:"sentiment"`
	SentimentMomentum float64 `db:"sentiment_momentum"`
	Beta              float64 `db:"beta"`
	MarketCap         float64 `db:"market_cap"`
	HistoryJSON       string  `db:"history_json"`
}

func saveIndices(tx *sqlx.Tx, sim *engine.Simulation) error {
	if _, err := tx.Exec("DELETE FROM indices"); err != nil {
		return err
	}
	for r, ix := range sim.Indices.Indices {
		hist, err := json.Marshal(ix.History)
		if err != nil {
			return err
		}
		row := indexRow{
			Resource:          r.String(),
			Ticker:            ix.Ticker,
			BasePrice:         ix.BasePrice,
			Price:             ix.Price,
			PreviousClose:     ix.PreviousClose,
			Volume:            ix.Volume,
			Volatility:        ix.Volatility,
			Sentiment:         ix.Sentiment.String(),
			SentimentMomentum: ix.SentimentMomentum,
			Beta:              ix.Beta,
			MarketCap:         ix.MarketCap,
			HistoryJSON:       string(hist),
		}
		_, err = tx.NamedExec(`INSERT INTO indices
			(resource, ticker, base_price, price, previous_close, volume, volatility, sentiment,
			 sentiment_momentum, beta, market_cap, history_json)
			VALUES (:resource, :ticker, :base_price, :price, :previous_close, :volume, :volatility, :sentiment,
			 :sentiment_momentum, :beta, :market_cap, :history_json)`, row)
		if err != nil {
			return fmt.Errorf("insert index %s: %w", ix.Ticker, err)
		}
	}
	return nil
}

func (db *DB) loadIndices(sim *engine.Simulation) error {
	var rows []indexRow
	if err := db.conn.Select(&rows, "SELECT * FROM indices"); err != nil {
		return err
	}
	for _, row := range rows {
		r, ok := economy.ParseResource(row.Resource)
		if !ok {
			return fmt.Errorf("%w: %q", economy.ErrUnknownResource, row.Resource)
		}
		ix := &economy.Index{
			Resource:          r,
			Ticker:            row.Ticker,
			BasePrice:         row.BasePrice,
			Price:             row.Price,
			PreviousClose:     row.PreviousClose,
			Volume:            row.Volume,
			Volatility:        row.Volatility,
			SentimentMomentum: row.SentimentMomentum,
			Beta:              row.Beta,
			MarketCap:         row.MarketCap,
		}
		if err := ix.Sentiment.UnmarshalText([]byte(row.Sentiment)); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(row.HistoryJSON), &ix.History); err != nil {
			return fmt.Errorf("index %s history: %w", row.Ticker, err)
		}
		sim.Indices.Indices[r] = ix
	}
	return nil
}

type holdingRow struct {
	Resource string `db:"resource"`
	Shares   int    `db:"shares"`
}

type tradeRow struct {
	ID       uuid.UUID `db:"id"`
	Seq      int       `db:"seq"`
	Day      uint64    `db:"day"`
	Action   string    `db:"action"`
	Resource string    `db:"resource"`
	Shares   int       `db:"shares"`
	Price    string    `db:"price"`
	Total    string    `db:"total"`
}

func savePortfolio(tx *sqlx.Tx, sim *engine.Simulation) error {
	if _, err := tx.Exec("DELETE FROM holdings"); err != nil {
		return err
	}
	for r, n := range sim.Indices.Portfolio.Holdings {
		row := holdingRow{Resource: r.String(), Shares: n}
		if _, err := tx.NamedExec("INSERT INTO holdings (resource, shares) VALUES (:resource, :shares)", row); err != nil {
			return err
		}
	}

	if _, err := tx.Exec("DELETE FROM trades"); err != nil {
		return err
	}
	for i, t := range sim.Indices.Ledger {
		row := tradeRow{
			ID:       t.ID,
			Seq:      i,
			Day:      t.Day,
			Action:   string(t.Action),
			Resource: t.Resource.String(),
			Shares:   t.Shares,
			Price:    t.Price.StringFixed(2),
			Total:    t.Total.StringFixed(2),
		}
		_, err := tx.NamedExec(`INSERT INTO trades (id, seq, day, action, resource, shares, price, total)
			VALUES (:id, :seq, :day, :action, :resource, :shares, :price, :total)`, row)
		if err != nil {
			return fmt.Errorf("insert trade %s: %w", t.ID, err)
		}
	}
	return nil
}

func (db *DB) loadPortfolio(sim *engine.Simulation) error {
	var holdings []holdingRow
	if err := db.conn.Select(&holdings, "SELECT resource, shares FROM holdings"); err != nil {
		return err
	}
	for _, h := range holdings {
		r, ok := economy.ParseResource(h.Resource)
		if !ok {
			return fmt.Errorf("%w: %q", economy.ErrUnknownResource, h.Resource)
		}
		sim.Indices.Portfolio.Holdings[r] = h.Shares
	}

	var trades []tradeRow
	if err := db.conn.Select(&trades, "SELECT * FROM trades ORDER BY seq"); err != nil {
		return err
	}
	for _, t := range trades {
		r, ok := economy.ParseResource(t.Resource)
		if !ok {
			return fmt.Errorf("%w: %q", economy.ErrUnknownResource, t.Resource)
		}
		price, err := parseCents(t.Price)
		if err != nil {
			return fmt.Errorf("trade %s price: %w", t.ID, err)
		}
		total, err := parseCents(t.Total)
		if err != nil {
			return fmt.Errorf("trade %s total: %w", t.ID, err)
		}
		sim.Indices.Ledger = append(sim.Indices.Ledger, economy.Trade{
			ID:       t.ID,
			Day:      t.Day,
			Action:   economy.TradeAction(t.Action),
			Resource: r,
			Shares:   t.Shares,
			Price:    price,
			Total:    total,
		})
	}
	return nil
}

type newsRow struct {
	Kind     string  `db:"kind"`
	Message  string  `db:"message"`
	Impact   float64 `db:"impact"`
	Resource string  `db:"resource"`
	Broad    bool    `db:"broad"`
	Day      uint64  `db:"day"`
}

func saveNews(tx *sqlx.Tx, sim *engine.Simulation) error {
	if _, err := tx.Exec("DELETE FROM news"); err != nil {
		return err
	}
	for _, n := range sim.Indices.PendingNews {
		row := newsRow{
			Kind:     string(n.Kind),
			Message:  n.Message,
			Impact:   n.Impact,
			Resource: n.Resource.String(),
			Broad:    n.Broad,
			Day:      n.Day,
		}
		_, err := tx.NamedExec(`INSERT INTO news (kind, message, impact, resource, broad, day)
			VALUES (:kind, :message, :impact, :resource, :broad, :day)`, row)
		if err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) loadNews(sim *engine.Simulation) error {
	var rows []newsRow
	if err := db.conn.Select(&rows, "SELECT kind, message, impact, resource, broad, day FROM news ORDER BY id"); err != nil {
		return err
	}
	for _, row := range rows {
		r, _ := economy.ParseResource(row.Resource)
		sim.Indices.PendingNews = append(sim.Indices.PendingNews, economy.NewsEvent{
			Kind:     economy.NewsKind(row.Kind),
			Message:  row.Message,
			Impact:   row.Impact,
			Resource: r,
			Broad:    row.Broad,
			Day:      row.Day,
		})
	}
	return nil
}

type eventRow struct {
	Day         uint64 `db:"day"`
	Kind        string `db:"kind"`
	Description string `db:"description"`
	DataJSON    string `db:"data_json"`
}

func (r eventRow) event() (engine.Event, error) {
	e := engine.Event{Day: r.Day, Kind: engine.EventKind(r.Kind), Description: r.Description}
	if r.DataJSON != "" && r.DataJSON != "null" {
		if err := json.Unmarshal([]byte(r.DataJSON), &e.Data); err != nil {
			return e, fmt.Errorf("event data: %w", err)
		}
	}
	return e, nil
}

func saveEvents(tx *sqlx.Tx, sim *engine.Simulation) error {
	if _, err := tx.Exec("DELETE FROM events"); err != nil {
		return err
	}
	for _, e := range sim.Events {
		data, err := json.Marshal(e.Data)
		if err != nil {
			return err
		}
		_, err = tx.Exec("INSERT INTO events (day, kind, description, data_json) VALUES (?, ?, ?, ?)",
			e.Day, string(e.Kind), e.Description, string(data))
		if err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) loadEvents(sim *engine.Simulation) error {
	var rows []eventRow
	if err := db.conn.Select(&rows, "SELECT day, kind, description, data_json FROM events ORDER BY id"); err != nil {
		return err
	}
	for _, r := range rows {
		e, err := r.event()
		if err != nil {
			return err
		}
		sim.Events = append(sim.Events, e)
	}
	return nil
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// parseCents reads a ledger amount stored with two fixed decimals, keeping
// the cents exponent the economy package works in.
func parseCents(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return d.Round(2), nil
}
