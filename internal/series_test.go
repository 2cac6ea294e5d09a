package pmugraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeriesBoundedEvictsOldest(t *testing.T) {
	s := NewSeries(3)
	assert.True(t, s.Bounded())
	assert.Equal(t, 3, s.Cap())

	for i := 1; i <= 5; i++ {
		s.Push(float64(i), float64(i*10))
	}

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []float64{3, 4, 5}, s.Times())
	assert.Equal(t, []float64{30, 40, 50}, s.Values())

	ft, fv, ok := s.First()
	require.True(t, ok)
	assert.Equal(t, 3.0, ft)
	assert.Equal(t, 30.0, fv)

	lt, lv, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, 5.0, lt)
	assert.Equal(t, 50.0, lv)
}

func TestSeriesLengthNeverExceedsCapacity(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		pushes   int
		expected int
	}{
		{name: "empty", capacity: 4, pushes: 0, expected: 0},
		{name: "partially filled", capacity: 4, pushes: 3, expected: 3},
		{name: "exactly full", capacity: 4, pushes: 4, expected: 4},
		{name: "wrapped many times", capacity: 4, pushes: 41, expected: 4},
		{name: "capacity one", capacity: 1, pushes: 7, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSeries(tt.capacity)
			for i := 0; i < tt.pushes; i++ {
				s.Push(float64(i), float64(i))
				assert.LessOrEqual(t, s.Len(), tt.capacity)
			}
			assert.Equal(t, tt.expected, s.Len())
		})
	}
}

func TestSeriesUnbounded(t *testing.T) {
	s := NewSeries(0)
	assert.False(t, s.Bounded())
	assert.Equal(t, 0, s.Cap())

	for i := 0; i < 1000; i++ {
		s.Push(float64(i), float64(i))
	}
	assert.Equal(t, 1000, s.Len())
	assert.Equal(t, 0.0, s.Times()[0])
	assert.Equal(t, 999.0, s.Values()[999])
}

func TestSeriesNormalized(t *testing.T) {
	s := NewSeries(3)
	for _, ts := range []float64{1.5, 2.5, 3.5, 4.5} {
		s.Push(ts, ts*2)
	}

	xs, ys := s.Normalized()
	assert.Equal(t, []float64{0, 1, 2}, xs)
	assert.Equal(t, []float64{5, 7, 9}, ys)

	// the series itself keeps absolute timestamps
	assert.Equal(t, []float64{2.5, 3.5, 4.5}, s.Times())
}

func TestSeriesEmpty(t *testing.T) {
	s := NewSeries(5)
	_, _, ok := s.Last()
	assert.False(t, ok)
	_, _, ok = s.First()
	assert.False(t, ok)

	xs, ys := s.Normalized()
	assert.Empty(t, xs)
	assert.Empty(t, ys)
}
