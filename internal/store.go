package pmugraph

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"
)

type storeEntry struct {
	event   Event
	start   time.Time
	window  *Series
	history *Series

	lastErr error
	errors  int
}

// Store owns the counters being displayed and their recent samples, indexed
// by event name
type Store struct {
	mu      sync.RWMutex
	size    int
	now     func() time.Time
	entries []*storeEntry
	byName  map[string]*storeEntry

	closeOnce sync.Once
	closeErr  error
	closed    bool
}

// NewStore creates a store whose window series keep the last size samples
func NewStore(size int) *Store {
	return &Store{
		size:   size,
		now:    time.Now,
		byName: make(map[string]*storeEntry),
	}
}

// WindowSize returns the capacity of every window series
func (s *Store) WindowSize() int {
	return s.size
}

// Add enables the event's counter and starts its sample stream
func (s *Store) Add(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("store is closed")
	}
	if _, ok := s.byName[e.Name()]; ok {
		return fmt.Errorf("event %s added twice", e.Name())
	}
	if err := e.Enable(); err != nil {
		return fmt.Errorf("failed to enable %s: %w", e.Name(), err)
	}
	entry := &storeEntry{
		event:   e,
		start:   s.now(),
		window:  NewSeries(s.size),
		history: NewSeries(0),
	}
	s.entries = append(s.entries, entry)
	s.byName[e.Name()] = entry
	return nil
}

// Events returns the events in the order they were added
func (s *Store) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]Event, len(s.entries))
	for i, entry := range s.entries {
		events[i] = entry.event
	}
	return events
}

// Tick appends one sample to every event. A failing read only skips that
// event; the failures are returned by event name.
func (s *Store) Tick() map[string]error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}

	var failed map[string]error
	for _, entry := range s.entries {
		v, err := entry.event.Value()
		if err != nil {
			if failed == nil {
				failed = make(map[string]error)
			}
			failed[entry.event.Name()] = err
			if entry.lastErr == nil || entry.lastErr.Error() != err.Error() {
				log.Printf("Failed to read %s: %v", entry.event.Name(), err)
			}
			entry.lastErr = err
			entry.errors++
			continue
		}
		entry.lastErr = nil

		t := s.now().Sub(entry.start).Seconds()
		// timestamps must strictly increase even with a coarse clock
		if last, _, ok := entry.history.Last(); ok && t <= last {
			t = math.Nextafter(last, math.Inf(1))
		}
		entry.window.Push(t, v)
		entry.history.Push(t, v)
	}
	return failed
}

// Window returns copies of the event's bounded samples with x normalized to
// the oldest retained sample
func (s *Store) Window(name string) (xs, ys []float64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.byName[name]
	if !ok {
		return nil, nil, false
	}
	xs, ys = entry.window.Normalized()
	return xs, ys, true
}

// History returns copies of every sample of the event since it was added
func (s *Store) History(name string) (xs, ys []float64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.byName[name]
	if !ok {
		return nil, nil, false
	}
	return entry.history.Times(), entry.history.Values(), true
}

// Reading is the latest state of one event
type Reading struct {
	Event   Event
	Value   float64
	Samples int
	Errors  int
	Err     error
	OK      bool
}

// Readings returns the latest state of every event in insertion order
func (s *Store) Readings() []Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	readings := make([]Reading, len(s.entries))
	for i, entry := range s.entries {
		_, v, ok := entry.history.Last()
		readings[i] = Reading{
			Event:   entry.event,
			Value:   v,
			Samples: entry.history.Len(),
			Errors:  entry.errors,
			Err:     entry.lastErr,
			OK:      ok,
		}
	}
	return readings
}

// Close disables every counter. Only the first call does any work; later
// calls return the same result.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true
		var errs []error
		for _, entry := range s.entries {
			if err := entry.event.Disable(); err != nil {
				errs = append(errs, fmt.Errorf("failed to disable %s: %w", entry.event.Name(), err))
			}
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
