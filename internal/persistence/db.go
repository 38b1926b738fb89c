// Package persistence provides SQLite-based colony state storage.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/mini-colony/internal/engine"
)

// ErrNoSave is returned by Load when the database holds no colony.
var ErrNoSave = errors.New("no saved colony")

// DB wraps a SQLite connection for colony state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS resources (
		resource TEXT PRIMARY KEY,
		amount REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS colonists (
		id INTEGER PRIMARY KEY,
		health REAL NOT NULL,
		happiness REAL NOT NULL,
		employed INTEGER NOT NULL,
		workplace INTEGER NOT NULL,
		profession TEXT NOT NULL,
		wage REAL NOT NULL,
		savings REAL NOT NULL,
		debt REAL NOT NULL,
		living_cost REAL NOT NULL,
		housing INTEGER NOT NULL,
		housing_quality REAL NOT NULL,
		rent_cost REAL NOT NULL,
		in_slum INTEGER NOT NULL,
		days_unemployed INTEGER NOT NULL,
		days_homeless INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS buildings (
		id INTEGER PRIMARY KEY,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		pos_q INTEGER NOT NULL,
		pos_r INTEGER NOT NULL,
		active INTEGER NOT NULL,
		crime_level REAL NOT NULL,
		state_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS commodity_prices (
		resource TEXT PRIMARY KEY,
		base_price REAL NOT NULL,
		price REAL NOT NULL,
		bought REAL NOT NULL,
		sold REAL NOT NULL,
		depth REAL NOT NULL,
		elasticity REAL NOT NULL,
		recovery_rate REAL NOT NULL,
		buy_markup REAL NOT NULL,
		sell_fee REAL NOT NULL,
		history_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS indices (
		resource TEXT PRIMARY KEY,
		ticker TEXT NOT NULL,
		base_price REAL NOT NULL,
		price REAL NOT NULL,
		previous_close REAL NOT NULL,
		volume INTEGER NOT NULL,
		volatility REAL NOT NULL,
		sentiment TEXT NOT NULL,
		sentiment_momentum REAL NOT NULL,
		beta REAL NOT NULL,
		market_cap REAL NOT NULL,
		history_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS holdings (
		resource TEXT PRIMARY KEY,
		shares INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		day INTEGER NOT NULL,
		action TEXT NOT NULL,
		resource TEXT NOT NULL,
		shares INTEGER NOT NULL,
		price TEXT NOT NULL,
		total TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS news (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		message TEXT NOT NULL,
		impact REAL NOT NULL,
		resource TEXT NOT NULL,
		broad INTEGER NOT NULL,
		day INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		day INTEGER NOT NULL,
		kind TEXT NOT NULL,
		description TEXT NOT NULL,
		data_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_day ON events(day);
	CREATE INDEX IF NOT EXISTS idx_trades_day ON trades(day);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveMeta stores a key-value pair in colony metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// HasSave reports whether a colony has been saved.
func (db *DB) HasSave() (bool, error) {
	_, err := db.GetMeta(metaDay)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// SaveColony performs a full save of all colony state in one transaction.
func (db *DB) SaveColony(sim *engine.Simulation) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	steps := []struct {
		name string
		fn   func(*sqlx.Tx, *engine.Simulation) error
	}{
		{"meta", saveMeta},
		{"resources", saveResources},
		{"colonists", saveColonists},
		{"buildings", saveBuildings},
		{"commodities", saveCommodities},
		{"indices", saveIndices},
		{"portfolio", savePortfolio},
		{"news", saveNews},
		{"events", saveEvents},
	}
	for _, s := range steps {
		if err := s.fn(tx, sim); err != nil {
			return fmt.Errorf("save %s: %w", s.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	slog.Info("colony state saved",
		"day", sim.Day,
		"colonists", sim.Population.Count(),
		"buildings", len(sim.Buildings),
		"trades", len(sim.Indices.Ledger),
	)
	return nil
}

// LoadColony restores the saved colony. Returns ErrNoSave on an empty database.
func (db *DB) LoadColony() (*engine.Simulation, error) {
	sim := &engine.Simulation{}
	if err := db.loadMeta(sim); err != nil {
		return nil, err
	}

	steps := []struct {
		name string
		fn   func(*engine.Simulation) error
	}{
		{"resources", db.loadResources},
		{"colonists", db.loadColonists},
		{"buildings", db.loadBuildings},
		{"commodities", db.loadCommodities},
		{"indices", db.loadIndices},
		{"portfolio", db.loadPortfolio},
		{"news", db.loadNews},
		{"events", db.loadEvents},
	}
	for _, s := range steps {
		if err := s.fn(sim); err != nil {
			return nil, fmt.Errorf("load %s: %w", s.name, err)
		}
	}

	if err := sim.Restore(); err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	slog.Info("colony state loaded", "day", sim.Day, "colonists", sim.Population.Count(), "buildings", len(sim.Buildings))
	return sim, nil
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var rows []eventRow
	err := db.conn.Select(&rows,
		"SELECT day, kind, description, data_json FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	out := make([]engine.Event, 0, len(rows))
	for _, r := range rows {
		e, err := r.event()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func formatUint(v uint64) string { return strconv.FormatUint(v, 10) }
