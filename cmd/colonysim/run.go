package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/talgya/mini-colony/internal/api"
	"github.com/talgya/mini-colony/internal/config"
	"github.com/talgya/mini-colony/internal/engine"
	"github.com/talgya/mini-colony/internal/metrics"
	"github.com/talgya/mini-colony/internal/persistence"
)

type runFlags struct {
	days  int
	seed  int64
	fresh bool
	api   bool
}

func newRunCommand() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Advance the colony, saving as it goes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("days") {
				cfg.Simulation.Days = f.days
			}
			if cmd.Flags().Changed("seed") {
				cfg.Simulation.Seed = f.seed
			}
			if f.api {
				cfg.API.Enabled = true
			}
			return run(cmd.Context(), cfg, f.fresh)
		},
	}
	cmd.Flags().IntVar(&f.days, "days", 0, "Days to simulate (overrides simulation.days)")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "Seed for a new colony (0 = random)")
	cmd.Flags().BoolVar(&f.fresh, "fresh", false, "Ignore any saved colony and found a new one")
	cmd.Flags().BoolVar(&f.api, "api", false, "Serve the read-only HTTP API")
	return cmd
}

func run(ctx context.Context, cfg *config.Config, fresh bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// ── Database ──────────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	db, err := persistence.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.Database.Path)

	// ── Load or found the colony ─────────────────────────────────────
	sim, err := loadOrFound(db, cfg, fresh)
	if err != nil {
		return err
	}

	eng := engine.NewEngine(sim)
	eng.Interval = cfg.Simulation.StepInterval

	// ── Metrics ───────────────────────────────────────────────────────
	var collector *metrics.Collector
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		collector, err = metrics.NewCollector(reg)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		collector.Set(eng.Latest())
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	saveEvery := uint64(cfg.Database.SaveEvery)
	eng.OnDay = func(res engine.DayResult, events []engine.Event) {
		if collector != nil {
			collector.Observe(res, events, eng.Latest())
		}
		if res.Day%saveEvery == 0 || res.Collapsed {
			if err := db.SaveColony(sim); err != nil {
				slog.Error("daily save failed", "day", res.Day, "error", err)
			}
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.API.Enabled {
		srv := &api.Server{
			Eng:            eng,
			DB:             db,
			Port:           cfg.API.Port,
			Limiter:        api.NewRateLimiter(cfg.API.RateLimit.RequestsPerSecond, cfg.API.RateLimit.Burst),
			Metrics:        metricsHandler,
			MetricsPath:    cfg.Metrics.Path,
			AllowedOrigins: cfg.API.AllowedOrigins,
		}
		srv.Start()
		defer func() {
			shutdown, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			if err := srv.Shutdown(shutdown); err != nil {
				slog.Error("HTTP shutdown failed", "error", err)
			}
		}()
	}

	// ── Run ───────────────────────────────────────────────────────────
	if sim.Collapsed {
		slog.Warn("colony has already collapsed, nothing to simulate", "day", sim.Day)
		return nil
	}
	ran, runErr := eng.RunDays(ctx, cfg.Simulation.Days)

	slog.Info("final save...")
	if err := db.SaveColony(sim); err != nil {
		return fmt.Errorf("final save: %w", err)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	fmt.Printf("Simulated %d days. Colony is on day %d with %d colonists.\n",
		ran, sim.Day, sim.Population.Count())
	return nil
}

func loadOrFound(db *persistence.DB, cfg *config.Config, fresh bool) (*engine.Simulation, error) {
	if !fresh {
		sim, err := db.LoadColony()
		if err == nil {
			slog.Info("resuming saved colony", "run_id", sim.RunID, "day", sim.Day)
			return sim, nil
		}
		if !errors.Is(err, persistence.ErrNoSave) {
			return nil, fmt.Errorf("load colony: %w", err)
		}
		slog.Info("no saved colony found, founding a new one")
	}

	sim, err := engine.NewColony(engine.Options{
		Seed:              cfg.Simulation.Seed,
		MaxPopulation:     cfg.Simulation.MaxPopulation,
		StartingColonists: cfg.Simulation.StartingColonists,
		MapRadius:         cfg.Simulation.MapRadius,
		AutoStaff:         cfg.Simulation.AutoStaff,
	})
	if err != nil {
		return nil, fmt.Errorf("found colony: %w", err)
	}
	if err := db.SaveColony(sim); err != nil {
		return nil, fmt.Errorf("initial save: %w", err)
	}
	return sim, nil
}
