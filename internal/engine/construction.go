// Construction authority and worker management.
package engine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/talgya/mini-colony/internal/colony"
	"github.com/talgya/mini-colony/internal/economy"
	"github.com/talgya/mini-colony/internal/world"
)

// ErrSurfaceMismatch is returned when a cell's surface cannot carry the building.
var ErrSurfaceMismatch = errors.New("surface does not suit building")

// checkSite validates that kind can stand on coord.
func (s *Simulation) checkSite(spec colony.Spec, coord world.HexCoord) error {
	cell := s.Grid.Get(coord)
	if cell == nil {
		return fmt.Errorf("site %s: %w", coord, world.ErrOutOfBounds)
	}
	if cell.Occupied() {
		return fmt.Errorf("site %s: %w", coord, world.ErrCellOccupied)
	}
	if !cell.Surface.Satisfies(spec.Surface) {
		return fmt.Errorf("%s on %s at %s: %w", spec.Key, cell.Surface, coord, ErrSurfaceMismatch)
	}
	return nil
}

// place instantiates kind at coord without charging for it.
func (s *Simulation) place(kind colony.Kind, coord world.HexCoord) (*colony.Building, error) {
	spec, ok := colony.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("place kind %d: %w", kind, colony.ErrUnknownBuilding)
	}
	if err := s.checkSite(spec, coord); err != nil {
		return nil, err
	}
	b, err := colony.New(kind, s.NextBuildingID, coord)
	if err != nil {
		return nil, err
	}
	if err := s.Grid.Occupy(coord, uint64(b.ID)); err != nil {
		return nil, err
	}
	s.NextBuildingID++
	s.Buildings = append(s.Buildings, b)
	s.BuildingIndex[b.ID] = b
	return b, nil
}

// Construct buys and places a catalog building. Nothing changes on error.
func (s *Simulation) Construct(kind colony.Kind, coord world.HexCoord, q *EventQueue) (*colony.Building, error) {
	spec, ok := colony.Lookup(kind)
	if !ok || !spec.Constructible {
		return nil, fmt.Errorf("construct %s: %w", kind, colony.ErrUnknownBuilding)
	}
	if err := s.checkSite(spec, coord); err != nil {
		return nil, fmt.Errorf("construct %s: %w", spec.Key, err)
	}
	if s.Pool.Get(economy.Credits) < spec.Price {
		return nil, fmt.Errorf("construct %s for %.0f credits: %w", spec.Key, spec.Price, economy.ErrInsufficientCredits)
	}

	b, err := s.place(kind, coord)
	if err != nil {
		return nil, fmt.Errorf("construct %s: %w", spec.Key, err)
	}
	s.Pool.Spend(spec.Price)

	s.emit(q, EventBuildingPlaced, fmt.Sprintf("%s constructed at %s", b.Name, coord),
		map[string]any{"building": b.Name, "id": uint64(b.ID), "position": coord.String(), "cost": spec.Price})
	return b, nil
}

// RemoveBuilding detaches everyone from the building, frees its cell, and
// deletes it.
func (s *Simulation) RemoveBuilding(id colony.BuildingID, q *EventQueue) error {
	b, ok := s.BuildingIndex[id]
	if !ok {
		return fmt.Errorf("remove building %d: %w", id, colony.ErrUnknownBuilding)
	}

	b.Detach(s.Population)
	s.Grid.Vacate(b.Position)
	delete(s.BuildingIndex, id)
	s.Buildings = slices.DeleteFunc(s.Buildings, func(x *colony.Building) bool { return x.ID == id })

	s.emit(q, EventBuildingRemoved, fmt.Sprintf("%s removed", b.Name),
		map[string]any{"building": b.Name, "id": uint64(id)})
	return nil
}

// AddWorker assigns the first unemployed colonist to the building. Reports
// false if the building is unknown, full, or nobody is looking for work.
func (s *Simulation) AddWorker(id colony.BuildingID, q *EventQueue) bool {
	b, ok := s.BuildingIndex[id]
	if !ok {
		return false
	}
	c, ok := s.Population.FirstUnemployed()
	if !ok || !b.AssignColonist(c) {
		return false
	}
	s.emit(q, EventWorkerAdded, fmt.Sprintf("Worker added to %s", b.Name),
		map[string]any{"building": b.Name, "workers": b.AssignedWorkers()})
	return true
}

// RemoveWorker releases the building's first assigned worker.
func (s *Simulation) RemoveWorker(id colony.BuildingID, q *EventQueue) bool {
	b, ok := s.BuildingIndex[id]
	if !ok || len(b.Workers) == 0 {
		return false
	}
	c, ok := s.Population.Colonist(b.Workers[0])
	if !ok || !b.RemoveColonist(c) {
		return false
	}
	s.emit(q, EventWorkerRemoved, fmt.Sprintf("Worker removed from %s", b.Name),
		map[string]any{"building": b.Name, "workers": b.AssignedWorkers()})
	return true
}

// autoStaff hands out unemployed colonists one at a time across buildings
// with vacancies until either runs out.
func (s *Simulation) autoStaff(q *EventQueue) {
	for {
		placed := false
		for _, b := range s.Buildings {
			if !b.Active || b.AssignedWorkers() >= b.MaxWorkers {
				continue
			}
			if !s.AddWorker(b.ID, q) {
				return
			}
			placed = true
		}
		if !placed {
			return
		}
	}
}
