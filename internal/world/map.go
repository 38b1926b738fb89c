package world

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds  = errors.New("cell out of bounds")
	ErrCellOccupied = errors.New("cell occupied")
)

// Map holds the colony hex grid.
type Map struct {
	Cells  map[HexCoord]*Cell `json:"-"` // All cells keyed by coordinate
	Radius int                `json:"radius"`
}

// NewMap creates an empty map with the given radius.
// A hex grid of radius R contains cells where max(|q|, |r|, |s|) <= R.
func NewMap(radius int) *Map {
	return &Map{
		Cells:  make(map[HexCoord]*Cell),
		Radius: radius,
	}
}

// Get returns the cell at the given coordinate, or nil if out of bounds.
func (m *Map) Get(coord HexCoord) *Cell {
	return m.Cells[coord]
}

// Set places a cell at its coordinate.
func (m *Map) Set(c *Cell) {
	m.Cells[c.Coord] = c
}

// InBounds returns true if the coordinate is within the map radius.
func (m *Map) InBounds(coord HexCoord) bool {
	return maxAbs(coord.Q, coord.R, coord.S()) <= m.Radius
}

// CellCount returns the total number of cells in the map.
func (m *Map) CellCount() int {
	return len(m.Cells)
}

// Coords returns every cell coordinate in a stable order (by r, then q).
func (m *Map) Coords() []HexCoord {
	out := make([]HexCoord, 0, len(m.Cells))
	for r := -m.Radius; r <= m.Radius; r++ {
		for q := -m.Radius; q <= m.Radius; q++ {
			c := HexCoord{Q: q, R: r}
			if _, ok := m.Cells[c]; ok {
				out = append(out, c)
			}
		}
	}
	return out
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(radius=%d, cells=%d)", m.Radius, m.CellCount())
}

// Accessible reports whether movement between two cells is possible: both
// exist and their elevations differ by less than 2.
func (m *Map) Accessible(a, b HexCoord) bool {
	ca, cb := m.Get(a), m.Get(b)
	if ca == nil || cb == nil {
		return false
	}
	d := ca.Elevation - cb.Elevation
	if d < 0 {
		d = -d
	}
	return d < 2
}

// Occupy records building id on the cell.
func (m *Map) Occupy(coord HexCoord, id uint64) error {
	c := m.Get(coord)
	if c == nil {
		return fmt.Errorf("occupy %s: %w", coord, ErrOutOfBounds)
	}
	if c.Occupied() {
		return fmt.Errorf("occupy %s (building %d): %w", coord, c.Occupant, ErrCellOccupied)
	}
	c.Occupant = id
	return nil
}

// Vacate clears the cell's occupant.
func (m *Map) Vacate(coord HexCoord) {
	if c := m.Get(coord); c != nil {
		c.Occupant = 0
	}
}

// NeighborOccupants returns the building IDs on accessible cells adjacent to coord.
func (m *Map) NeighborOccupants(coord HexCoord) []uint64 {
	var out []uint64
	for _, n := range coord.Neighbors() {
		c := m.Get(n)
		if c == nil || !c.Occupied() {
			continue
		}
		if m.Accessible(coord, n) {
			out = append(out, c.Occupant)
		}
	}
	return out
}

// CellsWithinRadius flood-fills from center over accessible steps, up to
// radius steps away. The result includes center and is in visit order.
func (m *Map) CellsWithinRadius(center HexCoord, radius int) []HexCoord {
	if m.Get(center) == nil {
		return nil
	}

	type item struct {
		coord HexCoord
		dist  int
	}
	visited := map[HexCoord]bool{center: true}
	queue := []item{{center, 0}}
	var out []HexCoord

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		out = append(out, cur.coord)

		if cur.dist >= radius {
			continue
		}
		for _, n := range cur.coord.Neighbors() {
			if visited[n] || m.Get(n) == nil {
				continue
			}
			if !m.Accessible(cur.coord, n) {
				continue
			}
			visited[n] = true
			queue = append(queue, item{n, cur.dist + 1})
		}
	}
	return out
}

// SlumSites returns unoccupied cells with at least one accessible occupied neighbor.
func (m *Map) SlumSites() []HexCoord {
	var out []HexCoord
	for _, coord := range m.Coords() {
		if m.Cells[coord].Occupied() {
			continue
		}
		if len(m.NeighborOccupants(coord)) > 0 {
			out = append(out, coord)
		}
	}
	return out
}

// SurfaceCounts tallies cells by surface.
func (m *Map) SurfaceCounts() map[Surface]int {
	counts := make(map[Surface]int)
	for _, c := range m.Cells {
		counts[c.Surface]++
	}
	return counts
}
