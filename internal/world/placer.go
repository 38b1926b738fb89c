// Site placement: finds free cells near a target, honoring surface requirements.
package world

import "sort"

// StarterTarget is a preferred location for one of the initial buildings.
type StarterTarget struct {
	Coord   HexCoord
	Surface Surface
}

// StarterLayout returns the preferred sites of the six starter buildings, in
// catalog order: mine, generator, oxygen, farm, hospital, habitat.
func StarterLayout() []StarterTarget {
	return []StarterTarget{
		{Coord: HexCoord{Q: -2, R: 0}, Surface: SurfaceRegolith},
		{Coord: HexCoord{Q: 0, R: -1}},
		{Coord: HexCoord{Q: 2, R: -1}},
		{Coord: HexCoord{Q: -1, R: 2}},
		{Coord: HexCoord{Q: 1, R: 1}},
		{Coord: HexCoord{Q: 0, R: 0}},
	}
}

// NearestFree returns the unoccupied cell closest to target whose surface
// satisfies req. Ties break by coordinate order. Returns false if none exists.
func NearestFree(m *Map, target HexCoord, req Surface) (HexCoord, bool) {
	var candidates []HexCoord
	for _, coord := range m.Coords() {
		c := m.Cells[coord]
		if c.Occupied() || !c.Surface.Satisfies(req) {
			continue
		}
		candidates = append(candidates, coord)
	}
	if len(candidates) == 0 {
		return HexCoord{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return Distance(candidates[i], target) < Distance(candidates[j], target)
	})
	return candidates[0], true
}
