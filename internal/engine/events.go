package engine

// EventKind tags a semantic event emitted by the simulation.
type EventKind string

const (
	EventPopulationIncrease EventKind = "population_increase"
	EventPopulationDecrease EventKind = "population_decrease"
	EventWorkerAdded        EventKind = "building_worker_added"
	EventWorkerRemoved      EventKind = "building_worker_removed"
	EventWageWarning        EventKind = "wage_warning"
	EventResourceLow        EventKind = "resource_low"
	EventSlumSpawned        EventKind = "slum_spawned"
	EventDayAdvanced        EventKind = "day_advanced"
	EventColonyCollapsed    EventKind = "colony_collapsed"
	EventBuildingPlaced     EventKind = "building_placed"
	EventBuildingRemoved    EventKind = "building_removed"
)

// Event is a notable occurrence in the colony.
type Event struct {
	Day         uint64         `json:"day"`
	Kind        EventKind      `json:"kind"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"`
}

// EventQueue collects events during a step. The caller drains it afterwards.
// A nil queue discards everything published to it.
type EventQueue struct {
	events []Event
}

// NewEventQueue returns an empty queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{}
}

// Publish appends an event.
func (q *EventQueue) Publish(e Event) {
	if q == nil {
		return
	}
	q.events = append(q.events, e)
}

// Len returns the number of undrained events.
func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.events)
}

// Drain returns all queued events and empties the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil {
		return nil
	}
	out := q.events
	q.events = nil
	return out
}

// maxRecentEvents bounds the event log kept on the simulation.
const maxRecentEvents = 1000

// emit records an event on the simulation log and publishes it to q.
func (s *Simulation) emit(q *EventQueue, kind EventKind, desc string, data map[string]any) {
	e := Event{Day: s.Day, Kind: kind, Description: desc, Data: data}
	s.Events = append(s.Events, e)
	if len(s.Events) > maxRecentEvents {
		s.Events = s.Events[len(s.Events)-maxRecentEvents:]
	}
	q.Publish(e)
}
