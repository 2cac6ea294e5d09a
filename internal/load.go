package pmugraph

import (
	"errors"
	"fmt"

	"github.com/prometheus/procfs"
)

const (
	CPULoadEvent    = "cpu-load"
	MemoryLoadEvent = "memory-load"
)

var loadType = newRangedEventType("load", "%", 0, 100)

// NewLoadEvents returns the requested CPU and memory load events read from
// the proc filesystem mounted at mountPoint
func NewLoadEvents(mountPoint string, cpu, memory bool) ([]Event, error) {
	if !cpu && !memory {
		return nil, nil
	}
	fs, err := procfs.NewFS(mountPoint)
	if err != nil {
		return nil, fmt.Errorf("failed to open procfs at %s: %w", mountPoint, err)
	}
	var events []Event
	if cpu {
		events = append(events, &cpuLoadEvent{fs: fs})
	}
	if memory {
		events = append(events, &memoryLoadEvent{fs: fs})
	}
	return events, nil
}

type cpuLoadEvent struct {
	fs         procfs.FS
	busy, all  float64
	hasReading bool
}

func (e *cpuLoadEvent) Name() string         { return CPULoadEvent }
func (e *cpuLoadEvent) EventType() EventType { return loadType }

func (e *cpuLoadEvent) Enable() error {
	busy, all, err := e.read()
	if err != nil {
		return err
	}
	e.busy, e.all, e.hasReading = busy, all, true
	return nil
}

func (e *cpuLoadEvent) Disable() error {
	e.hasReading = false
	return nil
}

// Value returns the share of non-idle CPU time since the previous read
func (e *cpuLoadEvent) Value() (float64, error) {
	busy, all, err := e.read()
	if err != nil {
		return 0, err
	}
	if !e.hasReading {
		e.busy, e.all, e.hasReading = busy, all, true
		return 0, nil
	}
	dBusy, dAll := busy-e.busy, all-e.all
	e.busy, e.all = busy, all
	if dAll <= 0 {
		return 0, nil
	}
	return clamp(100*dBusy/dAll, 0, 100), nil
}

func (e *cpuLoadEvent) read() (busy, all float64, err error) {
	stat, err := e.fs.Stat()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read cpu statistics: %w", err)
	}
	c := stat.CPUTotal
	idle := c.Idle + c.Iowait
	all = c.User + c.Nice + c.System + c.Idle + c.Iowait + c.IRQ + c.SoftIRQ + c.Steal
	return all - idle, all, nil
}

type memoryLoadEvent struct {
	fs procfs.FS
}

func (e *memoryLoadEvent) Name() string         { return MemoryLoadEvent }
func (e *memoryLoadEvent) EventType() EventType { return loadType }
func (e *memoryLoadEvent) Enable() error        { return nil }
func (e *memoryLoadEvent) Disable() error       { return nil }

// Value returns the share of memory that is not available to new processes
func (e *memoryLoadEvent) Value() (float64, error) {
	info, err := e.fs.Meminfo()
	if err != nil {
		return 0, fmt.Errorf("failed to read memory statistics: %w", err)
	}
	if info.MemTotal == nil || *info.MemTotal == 0 {
		return 0, errors.New("meminfo has no MemTotal")
	}
	total := float64(*info.MemTotal)
	var available float64
	switch {
	case info.MemAvailable != nil:
		available = float64(*info.MemAvailable)
	case info.MemFree != nil:
		available = float64(*info.MemFree)
		if info.Buffers != nil {
			available += float64(*info.Buffers)
		}
		if info.Cached != nil {
			available += float64(*info.Cached)
		}
	}
	return clamp(100*(total-available)/total, 0, 100), nil
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

// ProcBackend only offers the load events
type ProcBackend struct {
	mountPoint string
}

func NewProcBackend(mountPoint string) *ProcBackend {
	return &ProcBackend{mountPoint: mountPoint}
}

func (p *ProcBackend) Name() string { return "proc" }

func (p *ProcBackend) Events() ([]Event, error) {
	return NewLoadEvents(p.mountPoint, true, true)
}

func (p *ProcBackend) Lookup(name string) (Event, error) {
	switch name {
	case CPULoadEvent, MemoryLoadEvent:
		events, err := NewLoadEvents(p.mountPoint, name == CPULoadEvent, name == MemoryLoadEvent)
		if err != nil {
			return nil, err
		}
		return events[0], nil
	}
	return nil, unknownEvent(name)
}
