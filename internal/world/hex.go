// Package world provides the colony hex grid: cells with surface and elevation,
// occupancy, and the adjacency queries the simulation core consumes.
// Uses axial coordinates (q, r) for the hex grid.
package world

import "fmt"

// HexCoord represents a position on the hex grid using axial coordinates.
// The third cube coordinate s is derived: s = -q - r.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the implicit third cube coordinate.
func (h HexCoord) S() int {
	return -h.Q - h.R
}

// Add returns the coordinate offset by d.
func (h HexCoord) Add(d HexCoord) HexCoord {
	return HexCoord{Q: h.Q + d.Q, R: h.R + d.R}
}

func (h HexCoord) String() string {
	return fmt.Sprintf("(%d,%d)", h.Q, h.R)
}

// Surface is the ground type of a cell. Construction may require a specific surface.
type Surface uint8

const (
	SurfaceAny      Surface = iota // Placement constraint only: no requirement
	SurfaceRegolith                // Loose mineral soil, minable
	SurfaceStone                   // Bedrock, common on high ground
	SurfaceIce                     // Frozen volatiles, low ground only
)

var surfaceNames = [...]string{"any", "regolith", "stone", "ice"}

func (s Surface) String() string {
	if int(s) < len(surfaceNames) {
		return surfaceNames[s]
	}
	return fmt.Sprintf("surface(%d)", s)
}

// MarshalText encodes the surface by name.
func (s Surface) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a surface name.
func (s *Surface) UnmarshalText(b []byte) error {
	for i, n := range surfaceNames {
		if n == string(b) {
			*s = Surface(i)
			return nil
		}
	}
	return fmt.Errorf("unknown surface %q", string(b))
}

// Satisfies reports whether a cell of surface s meets requirement req.
func (s Surface) Satisfies(req Surface) bool {
	return req == SurfaceAny || s == req
}

// MaxElevation is the highest elevation level. Levels are 0 (low), 1, and 2 (high).
const MaxElevation = 2

// Cell represents a single tile on the colony map.
type Cell struct {
	Coord     HexCoord `json:"coord"`
	Surface   Surface  `json:"surface"`
	Elevation int      `json:"elevation"`

	// Occupant is the ID of the building standing on this cell, 0 if empty.
	Occupant uint64 `json:"occupant,omitempty"`
}

// Occupied reports whether a building stands on the cell.
func (c *Cell) Occupied() bool {
	return c.Occupant != 0
}

// HexNeighborDirections defines the six neighbor offsets in axial coordinates.
var HexNeighborDirections = [6]HexCoord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// Neighbors returns the six adjacent hex coordinates.
func (h HexCoord) Neighbors() [6]HexCoord {
	var result [6]HexCoord
	for i, dir := range HexNeighborDirections {
		result[i] = h.Add(dir)
	}
	return result
}

// Distance returns the hex distance between two coordinates.
func Distance(a, b HexCoord) int {
	return maxAbs(a.Q-b.Q, a.R-b.R, a.S()-b.S())
}

func maxAbs(vals ...int) int {
	m := 0
	for _, v := range vals {
		if v < 0 {
			v = -v
		}
		if v > m {
			m = v
		}
	}
	return m
}
