package pmugraph

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEvents is returned when nothing was selected for display
	ErrNoEvents = errors.New("at least one event must be selected")

	// ErrUnknownEvent is returned by Lookup for names the backend doesn't know
	ErrUnknownEvent = errors.New("unknown event")
)

// EventType groups events sharing a unit and an optional value range
type EventType interface {
	Name() string
	Unit() string
	// Range reports the valid range of values, ok is false when the axis
	// should auto-scale
	Range() (min, max float64, ok bool)
}

// Event is one monitored counter. Counters are enabled before the first
// Value call and disabled once when no longer displayed.
type Event interface {
	Name() string
	EventType() EventType
	Enable() error
	Disable() error
	Value() (float64, error)
}

// Backend enumerates and resolves events for one device
type Backend interface {
	Name() string
	Events() ([]Event, error)
	Lookup(name string) (Event, error)
}

type eventType struct {
	name     string
	unit     string
	min, max float64
	hasRange bool
}

func newEventType(name, unit string) *eventType {
	return &eventType{name: name, unit: unit}
}

func newRangedEventType(name, unit string, min, max float64) *eventType {
	return &eventType{name: name, unit: unit, min: min, max: max, hasRange: true}
}

func (t *eventType) Name() string { return t.name }
func (t *eventType) Unit() string { return t.unit }

func (t *eventType) Range() (float64, float64, bool) {
	return t.min, t.max, t.hasRange
}

// LookupEvents resolves names against the backend, in order
func LookupEvents(b Backend, names []string) ([]Event, error) {
	events := make([]Event, 0, len(names))
	for _, name := range names {
		e, err := b.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		events = append(events, e)
	}
	return events, nil
}

func unknownEvent(name string) error {
	return fmt.Errorf("%w %q", ErrUnknownEvent, name)
}
