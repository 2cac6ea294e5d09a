package pmugraph

import (
	"errors"
	"time"
)

type fakeEvent struct {
	name      string
	eventType EventType
	values    []float64
	next      int
	failAt    map[int]error
	enabled   int
	disabled  int
	enableErr error
}

func newFakeEvent(name string, et EventType, values ...float64) *fakeEvent {
	return &fakeEvent{name: name, eventType: et, values: values, failAt: map[int]error{}}
}

func (e *fakeEvent) Name() string         { return e.name }
func (e *fakeEvent) EventType() EventType { return e.eventType }

func (e *fakeEvent) Enable() error {
	if e.enableErr != nil {
		return e.enableErr
	}
	e.enabled++
	return nil
}

func (e *fakeEvent) Disable() error {
	e.disabled++
	return nil
}

// Value returns the configured values in order, then repeats the last one
func (e *fakeEvent) Value() (float64, error) {
	i := e.next
	e.next++
	if err, ok := e.failAt[i]; ok {
		return 0, err
	}
	if len(e.values) == 0 {
		return float64(i), nil
	}
	return e.values[min(i, len(e.values)-1)], nil
}

var errRead = errors.New("read failed")

// fakeClock advances by step on every call
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func newFakeClock(step time.Duration) *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), step: step}
}

func (c *fakeClock) Now() time.Time {
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func sequence(from, to int) []float64 {
	out := make([]float64, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, float64(i))
	}
	return out
}
