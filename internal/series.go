package pmugraph

// Series holds (elapsed seconds, value) samples in insertion order. A
// bounded series is a ring over two fixed arrays and evicts its oldest
// sample once full. A capacity of zero or less grows without limit.
type Series struct {
	times    []float64
	values   []float64
	start    int
	count    int
	capacity int
}

func NewSeries(capacity int) *Series {
	s := &Series{capacity: capacity}
	if capacity > 0 {
		s.times = make([]float64, capacity)
		s.values = make([]float64, capacity)
	}
	return s
}

// Bounded reports whether the series evicts old samples
func (s *Series) Bounded() bool {
	return s.capacity > 0
}

func (s *Series) Len() int {
	return s.count
}

// Cap returns the capacity, or 0 for an unbounded series
func (s *Series) Cap() int {
	return max(s.capacity, 0)
}

func (s *Series) Push(t, v float64) {
	if !s.Bounded() {
		s.times = append(s.times, t)
		s.values = append(s.values, v)
		s.count++
		return
	}
	if s.count < s.capacity {
		i := (s.start + s.count) % s.capacity
		s.times[i] = t
		s.values[i] = v
		s.count++
		return
	}
	s.times[s.start] = t
	s.values[s.start] = v
	s.start = (s.start + 1) % s.capacity
}

func (s *Series) at(i int) int {
	if !s.Bounded() {
		return i
	}
	return (s.start + i) % s.capacity
}

// Last returns the newest sample
func (s *Series) Last() (t, v float64, ok bool) {
	if s.count == 0 {
		return 0, 0, false
	}
	i := s.at(s.count - 1)
	return s.times[i], s.values[i], true
}

// First returns the oldest retained sample
func (s *Series) First() (t, v float64, ok bool) {
	if s.count == 0 {
		return 0, 0, false
	}
	i := s.at(0)
	return s.times[i], s.values[i], true
}

// Times returns a copy of the timestamps, oldest first
func (s *Series) Times() []float64 {
	out := make([]float64, s.count)
	for i := range out {
		out[i] = s.times[s.at(i)]
	}
	return out
}

// Values returns a copy of the values, oldest first
func (s *Series) Values() []float64 {
	out := make([]float64, s.count)
	for i := range out {
		out[i] = s.values[s.at(i)]
	}
	return out
}

// Normalized returns the samples with the oldest retained timestamp
// subtracted, so the first x is always 0
func (s *Series) Normalized() (xs, ys []float64) {
	xs, ys = s.Times(), s.Values()
	if len(xs) == 0 {
		return xs, ys
	}
	t0 := xs[0]
	for i := range xs {
		xs[i] -= t0
	}
	return xs, ys
}
