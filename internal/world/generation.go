// Colony map generation using layered simplex noise.
// Elevation is banded into three levels, then surfaces are derived from elevation.
package world

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/mini-colony/internal/entropy"
)

// GenConfig holds map generation parameters.
type GenConfig struct {
	Radius      int     // Hex grid radius
	Seed        int64   // Random seed (0 = random)
	LowBand     float64 // Normalized elevation below this is level 0
	HighBand    float64 // Normalized elevation at or above this is level 2
	MinIce      int     // Minimum ice cells guaranteed on low ground
	MinRegolith int     // Minimum regolith cells guaranteed
}

// DefaultGenConfig returns the standard colony map configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Radius:      6,
		LowBand:     0.3,
		HighBand:    0.6,
		MinIce:      3,
		MinRegolith: 3,
	}
}

// SmallTestConfig returns a tiny map for tests.
func SmallTestConfig() GenConfig {
	cfg := DefaultGenConfig()
	cfg.Radius = 3
	cfg.Seed = 42
	return cfg
}

// Generate creates a colony map with elevation levels and surfaces.
func Generate(cfg GenConfig) *Map {
	seed := cfg.Seed
	if seed == 0 {
		seed = entropy.CryptoSeed()
	}
	rng := entropy.Derive(seed, entropy.StreamTerrain)
	elevNoise := opensimplex.NewNormalized(seed)

	m := NewMap(cfg.Radius)

	raw := make(map[HexCoord]float64)
	lo, hi := math.Inf(1), math.Inf(-1)
	for q := -cfg.Radius; q <= cfg.Radius; q++ {
		for r := -cfg.Radius; r <= cfg.Radius; r++ {
			coord := HexCoord{Q: q, R: r}
			if !m.InBounds(coord) {
				continue
			}
			// Hex axial → cartesian: x = q + r*0.5, y = r * sqrt(3)/2
			x := float64(q) + float64(r)*0.5
			y := float64(r) * math.Sqrt(3.0) / 2.0

			v := octaveNoise(elevNoise, x, y, 3, 0.35, 0.5)
			raw[coord] = v
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	for coord, v := range raw {
		norm := 0.0
		if hi > lo {
			norm = (v - lo) / (hi - lo)
		}
		level := 1
		switch {
		case norm < cfg.LowBand:
			level = 0
		case norm >= cfg.HighBand:
			level = 2
		}
		m.Set(&Cell{Coord: coord, Elevation: level})
	}

	// Surfaces follow elevation: high ground is stone, low ground may hold ice.
	for _, coord := range m.Coords() {
		c := m.Cells[coord]
		switch c.Elevation {
		case 2:
			c.Surface = SurfaceStone
		case 0:
			c.Surface = SurfaceRegolith
			if entropy.Chance(rng, 0.3) {
				c.Surface = SurfaceIce
			}
		default:
			c.Surface = SurfaceRegolith
			if entropy.Chance(rng, 0.6) {
				c.Surface = SurfaceStone
			}
		}
	}

	ensureMinimumIce(m, cfg.MinIce, rng)
	ensureAccessibility(m)
	ensureMinimumRegolith(m, cfg.MinRegolith, rng)

	return m
}

// ensureMinimumIce converts random low non-ice cells to ice until min is met.
func ensureMinimumIce(m *Map, min int, rng entropy.Source) {
	if m.SurfaceCounts()[SurfaceIce] >= min {
		return
	}
	var low []HexCoord
	for _, coord := range m.Coords() {
		c := m.Cells[coord]
		if c.Elevation == 0 && c.Surface != SurfaceIce {
			low = append(low, coord)
		}
	}
	for need := min - m.SurfaceCounts()[SurfaceIce]; need > 0 && len(low) > 0; need-- {
		i := rng.Intn(len(low))
		m.Cells[low[i]].Surface = SurfaceIce
		low = append(low[:i], low[i+1:]...)
	}
}

// ensureMinimumRegolith converts random non-ice cells to regolith until min is met.
func ensureMinimumRegolith(m *Map, min int, rng entropy.Source) {
	if m.SurfaceCounts()[SurfaceRegolith] >= min {
		return
	}
	var candidates []HexCoord
	for _, coord := range m.Coords() {
		s := m.Cells[coord].Surface
		if s != SurfaceRegolith && s != SurfaceIce {
			candidates = append(candidates, coord)
		}
	}
	for need := min - m.SurfaceCounts()[SurfaceRegolith]; need > 0 && len(candidates) > 0; need-- {
		i := rng.Intn(len(candidates))
		m.Cells[candidates[i]].Surface = SurfaceRegolith
		candidates = append(candidates[:i], candidates[i+1:]...)
	}
}

// ensureAccessibility lowers or raises any cell cut off on all six sides to the
// most common elevation among its neighbors. Map edges count as cut off.
func ensureAccessibility(m *Map) {
	for _, coord := range m.Coords() {
		c := m.Cells[coord]
		blocked := 0
		var counts [MaxElevation + 1]int
		for _, n := range coord.Neighbors() {
			nc := m.Get(n)
			if nc == nil {
				blocked++
				continue
			}
			counts[nc.Elevation]++
			if d := c.Elevation - nc.Elevation; d >= 2 || d <= -2 {
				blocked++
			}
		}
		if blocked < 6 {
			continue
		}
		best, bestCount := 1, 0
		for level, n := range counts {
			if n > bestCount {
				best, bestCount = level, n
			}
		}
		c.Elevation = best
	}
}

// octaveNoise combines multiple noise octaves for natural-looking results.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
