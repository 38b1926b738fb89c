// Package api serves the colony over a read-only HTTP JSON API.
// Every handler reads the snapshot published after the last completed day,
// so requests never observe a half-advanced colony.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/talgya/mini-colony/internal/colony"
	"github.com/talgya/mini-colony/internal/engine"
	"github.com/talgya/mini-colony/internal/persistence"
)

// Snapshotter publishes the latest post-step colony snapshot. *engine.Engine satisfies it.
type Snapshotter interface {
	Latest() engine.Snapshot
}

// Server serves the colony state over HTTP.
type Server struct {
	Eng     Snapshotter
	DB      *persistence.DB // Optional: backs event queries beyond the in-memory window
	Port    int
	Limiter *RateLimiter // Optional

	// Metrics is mounted at MetricsPath when set.
	Metrics     http.Handler
	MetricsPath string

	AllowedOrigins []string

	srv  *http.Server
	done chan struct{}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/colonists", s.handleColonists)
	mux.HandleFunc("GET /api/buildings", s.handleBuildings)
	mux.HandleFunc("GET /api/market", s.handleMarket)
	mux.HandleFunc("GET /api/indices", s.handleIndices)
	mux.HandleFunc("GET /api/portfolio", s.handlePortfolio)
	mux.HandleFunc("GET /api/events", s.handleEvents)

	var h http.Handler = mux
	if s.Limiter != nil {
		h = s.Limiter.Middleware(h)
	}
	h = corsMiddleware(s.AllowedOrigins, h)

	if s.Metrics == nil {
		return h
	}
	// Scrapes bypass the limiter.
	path := s.MetricsPath
	if path == "" {
		path = "/metrics"
	}
	root := http.NewServeMux()
	root.Handle(path, s.Metrics)
	root.Handle("/", h)
	return root
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "metrics", s.Metrics != nil, "rate_limited", s.Limiter != nil)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	s.done = make(chan struct{})
	if s.Limiter != nil {
		go s.sweepLimiter(s.done)
	}
}

func (s *Server) sweepLimiter(done <-chan struct{}) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			s.Limiter.Cleanup()
		}
	}
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	close(s.done)
	err := s.srv.Shutdown(ctx)
	s.srv = nil
	return err
}

func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowed := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	for _, o := range origins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.Eng.Latest()
	status := map[string]any{
		"run_id":          snap.RunID,
		"day":             snap.Day,
		"collapsed":       snap.Collapsed,
		"resources":       snap.Resources,
		"population":      snap.Stats.Population,
		"employed":        snap.Stats.Employed,
		"homeless":        snap.Stats.Homeless,
		"avg_happiness":   snap.Stats.AvgHappiness,
		"avg_health":      snap.Stats.AvgHealth,
		"total_wages":     snap.Stats.TotalWages,
		"births":          snap.Stats.Births,
		"deaths":          snap.Stats.Deaths,
		"departures":      snap.Stats.Departures,
		"housing":         snap.Housing,
		"building_counts": snap.Counts,
	}
	writeJSON(w, status)
}

func (s *Server) handleColonists(w http.ResponseWriter, r *http.Request) {
	snap := s.Eng.Latest()
	colonists := snap.Colonists

	var keep func(c *colony.Colonist) bool
	switch r.URL.Query().Get("filter") {
	case "employed":
		keep = func(c *colony.Colonist) bool { return c.Employed }
	case "unemployed":
		keep = func(c *colony.Colonist) bool { return !c.Employed }
	case "homeless":
		keep = func(c *colony.Colonist) bool { return !c.Housed() }
	}
	if keep != nil {
		var filtered []colony.Colonist
		for i := range colonists {
			if keep(&colonists[i]) {
				filtered = append(filtered, colonists[i])
			}
		}
		colonists = filtered
	}

	limit := queryLimit(r, len(colonists), 1000)
	writeJSON(w, colonists[:min(limit, len(colonists))])
}

func (s *Server) handleBuildings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Eng.Latest().Buildings)
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	snap := s.Eng.Latest()
	writeJSON(w, map[string]any{
		"day":         snap.Day,
		"commodities": snap.Market,
	})
}

func (s *Server) handleIndices(w http.ResponseWriter, r *http.Request) {
	snap := s.Eng.Latest()
	writeJSON(w, map[string]any{
		"day":     snap.Day,
		"indices": snap.Indices,
		"news":    snap.News,
	})
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	snap := s.Eng.Latest()
	writeJSON(w, map[string]any{
		"holdings": snap.Holdings,
		"value":    snap.Portfolio,
		"trades":   snap.Trades,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 50, 500)

	events := s.Eng.Latest().Events
	if len(events) < limit && s.DB != nil {
		stored, err := s.DB.RecentEvents(limit)
		if err != nil {
			slog.Error("loading events", "error", err)
			http.Error(w, "event history unavailable", http.StatusInternalServerError)
			return
		}
		// Stored history ends at the last save; only use it when it reaches further back.
		if len(stored) > len(events) {
			slices.Reverse(stored)
			events = stored
		}
	}

	if kind := r.URL.Query().Get("kind"); kind != "" {
		var filtered []engine.Event
		for _, e := range events {
			if string(e.Kind) == kind {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}
	writeJSON(w, events[start:])
}

func queryLimit(r *http.Request, def, ceiling int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= ceiling {
			return n
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
