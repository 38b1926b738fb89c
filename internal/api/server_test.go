package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-colony/internal/engine"
	"github.com/talgya/mini-colony/internal/metrics"
)

func newTestServer(t *testing.T) (*Server, *engine.Engine) {
	t.Helper()
	opts := engine.DefaultOptions()
	opts.Seed = 21
	sim, err := engine.NewColony(opts)
	require.NoError(t, err)
	eng := engine.NewEngine(sim)
	eng.Step()
	eng.Step()
	return &Server{Eng: eng}, eng
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestStatus(t *testing.T) {
	s, eng := newTestServer(t)
	snap := eng.Latest()

	var body struct {
		Day       uint64             `json:"day"`
		RunID     string             `json:"run_id"`
		Resources map[string]float64 `json:"resources"`
		Counts    map[string]int     `json:"building_counts"`
		Pop       int                `json:"population"`
	}
	decode(t, get(t, s.Handler(), "/api/status"), &body)

	assert.Equal(t, snap.Day, body.Day)
	assert.Equal(t, snap.RunID, body.RunID)
	assert.Equal(t, snap.Stats.Population, body.Pop)
	assert.Contains(t, body.Resources, "credits")
	assert.Equal(t, 1, body.Counts["Mine"])
}

func TestColonistsFilterAndLimit(t *testing.T) {
	s, eng := newTestServer(t)
	snap := eng.Latest()

	var all []map[string]any
	decode(t, get(t, s.Handler(), "/api/colonists"), &all)
	assert.Len(t, all, len(snap.Colonists))

	var two []map[string]any
	decode(t, get(t, s.Handler(), "/api/colonists?limit=2"), &two)
	assert.Len(t, two, min(2, len(snap.Colonists)))

	employed := 0
	for _, c := range snap.Colonists {
		if c.Employed {
			employed++
		}
	}
	var got []map[string]any
	decode(t, get(t, s.Handler(), "/api/colonists?filter=employed"), &got)
	assert.Len(t, got, employed)
	for _, c := range got {
		assert.Equal(t, true, c["employed"])
	}

	// Filtering must not disturb the published snapshot.
	assert.Equal(t, snap.Colonists, eng.Latest().Colonists)
}

func TestMarketEndpoints(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	var market struct {
		Commodities []map[string]any `json:"commodities"`
	}
	decode(t, get(t, h, "/api/market"), &market)
	assert.Len(t, market.Commodities, 5)

	var indices struct {
		Indices []struct {
			Ticker string `json:"ticker"`
		} `json:"indices"`
	}
	decode(t, get(t, h, "/api/indices"), &indices)
	require.Len(t, indices.Indices, 5)

	var portfolio map[string]any
	decode(t, get(t, h, "/api/portfolio"), &portfolio)
	assert.Contains(t, portfolio, "holdings")
	assert.Contains(t, portfolio, "value")
}

func TestEventsKindFilter(t *testing.T) {
	s, _ := newTestServer(t)

	var events []struct {
		Kind string `json:"kind"`
		Day  uint64 `json:"day"`
	}
	decode(t, get(t, s.Handler(), "/api/events?kind=day_advanced"), &events)

	require.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, "day_advanced", e.Kind)
	}
}

func TestReadOnly(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/status", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRateLimitedPerIP(t *testing.T) {
	s, _ := newTestServer(t)
	s.Limiter = NewRateLimiter(1, 2)
	h := s.Handler()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, get(t, h, "/api/buildings").Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	req := httptest.NewRequest(http.MethodGet, "/api/buildings", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "separate bucket per client")
}

func TestMetricsBypassLimiter(t *testing.T) {
	s, eng := newTestServer(t)
	reg := prometheus.NewRegistry()
	c, err := metrics.NewCollector(reg)
	require.NoError(t, err)
	c.Set(eng.Latest())
	s.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	s.Limiter = NewRateLimiter(1, 1)
	h := s.Handler()

	get(t, h, "/api/status")
	for i := 0; i < 3; i++ {
		rec := get(t, h, "/metrics")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "colony_day")
	}
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t)
	s.AllowedOrigins = []string{"https://colony.example"}

	req := httptest.NewRequest(http.MethodOptions, "/api/status", nil)
	req.Header.Set("Origin", "https://colony.example")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://colony.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
