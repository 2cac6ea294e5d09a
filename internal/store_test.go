package pmugraph

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testType = newEventType("hardware", "events/s")

func newTestStore(t *testing.T, size int, events ...Event) *Store {
	t.Helper()
	s := NewStore(size)
	s.now = newFakeClock(100 * time.Millisecond).Now
	for _, e := range events {
		require.NoError(t, s.Add(e))
	}
	return s
}

func TestStoreWindowExample(t *testing.T) {
	e := newFakeEvent("cpu-cycles", testType, sequence(1, 15)...)
	s := newTestStore(t, 10, e)

	for i := 0; i < 15; i++ {
		assert.Empty(t, s.Tick())
	}

	xs, ys, ok := s.Window("cpu-cycles")
	require.True(t, ok)
	assert.Equal(t, sequence(6, 15), ys)
	require.Len(t, xs, 10)
	assert.Equal(t, 0.0, xs[0])
	expected := []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}
	assert.InDeltaSlice(t, expected, xs, 1e-9)

	// the history keeps everything with times relative to the stream start
	hx, hy, ok := s.History("cpu-cycles")
	require.True(t, ok)
	assert.Equal(t, sequence(1, 15), hy)
	assert.InDelta(t, 0.1, hx[0], 1e-9)
	assert.InDelta(t, 1.5, hx[14], 1e-9)
}

func TestStoreWindowLengthAfterManyTicks(t *testing.T) {
	for _, w := range []int{1, 2, 10, 100} {
		e := newFakeEvent("instructions", testType)
		s := newTestStore(t, w, e)
		for i := 0; i < w*3+1; i++ {
			s.Tick()
			_, ys, _ := s.Window("instructions")
			assert.LessOrEqual(t, len(ys), w)
			if i+1 >= w {
				assert.Len(t, ys, w)
			}
		}
	}
}

func TestStoreTimestampsStrictlyIncrease(t *testing.T) {
	e := newFakeEvent("branches", testType)
	s := NewStore(5)
	frozen := time.Now()
	s.now = func() time.Time { return frozen }
	require.NoError(t, s.Add(e))

	var previous []float64
	for i := 0; i < 20; i++ {
		s.Tick()
		xs, _, _ := s.History("branches")
		for j := 1; j < len(xs); j++ {
			assert.Greater(t, xs[j], xs[j-1])
		}
		// stored timestamps never move
		for j := range previous {
			assert.Equal(t, previous[j], xs[j])
		}
		previous = xs
	}
}

func TestStoreReadErrorIsolated(t *testing.T) {
	good := newFakeEvent("good", testType, 1, 2, 3)
	bad := newFakeEvent("bad", testType, 7, 8, 9)
	bad.failAt[1] = errRead
	s := newTestStore(t, 10, good, bad)

	assert.Empty(t, s.Tick())
	failed := s.Tick()
	require.Len(t, failed, 1)
	assert.ErrorIs(t, failed["bad"], errRead)
	assert.Empty(t, s.Tick())

	_, goodValues, _ := s.Window("good")
	_, badValues, _ := s.Window("bad")
	assert.Equal(t, []float64{1, 2, 3}, goodValues)
	assert.Equal(t, []float64{7, 9}, badValues)

	readings := s.Readings()
	require.Len(t, readings, 2)
	assert.Equal(t, 1, readings[1].Errors)
	assert.NoError(t, readings[1].Err)
	assert.Equal(t, 9.0, readings[1].Value)
}

func TestStoreAddEnablesAndRejectsDuplicates(t *testing.T) {
	e := newFakeEvent("cache-misses", testType)
	s := newTestStore(t, 4, e)
	assert.Equal(t, 1, e.enabled)

	err := s.Add(newFakeEvent("cache-misses", testType))
	assert.Error(t, err)
	assert.Len(t, s.Events(), 1)

	broken := newFakeEvent("broken", testType)
	broken.enableErr = errors.New("permission denied")
	err = s.Add(broken)
	assert.ErrorContains(t, err, "permission denied")
	assert.Len(t, s.Events(), 1)
}

func TestStoreCloseDisablesExactlyOnce(t *testing.T) {
	a := newFakeEvent("a", testType)
	b := newFakeEvent("b", testType)
	s := newTestStore(t, 4, a, b)
	s.Tick()

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.Equal(t, 1, a.disabled)
	assert.Equal(t, 1, b.disabled)

	// nothing is read once closed
	assert.Nil(t, s.Tick())
	_, ys, _ := s.Window("a")
	assert.Len(t, ys, 1)
	assert.Error(t, s.Add(newFakeEvent("c", testType)))
}

func TestStoreUnknownEvent(t *testing.T) {
	s := newTestStore(t, 4)
	_, _, ok := s.Window("missing")
	assert.False(t, ok)
	_, _, ok = s.History("missing")
	assert.False(t, ok)
}
