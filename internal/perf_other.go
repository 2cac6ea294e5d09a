//go:build !linux

package pmugraph

import "errors"

// PerfBackend is unavailable outside Linux
type PerfBackend struct{}

func NewPerfBackend(pid int, sysRoot string) (*PerfBackend, error) {
	return nil, errors.New("perf events are only supported on Linux")
}

func (p *PerfBackend) Name() string { return "perf" }

func (p *PerfBackend) Events() ([]Event, error) {
	return nil, errors.New("perf events are only supported on Linux")
}

func (p *PerfBackend) Lookup(name string) (Event, error) {
	return nil, unknownEvent(name)
}
