package pmugraph

import (
	"errors"
	"fmt"
	"time"
)

// Config selects the device and the events to display
type Config struct {
	Device     string
	Events     []string
	CPULoad    bool
	MemoryLoad bool
	PID        int
	ProcRoot   string
	SysRoot    string
	Interval   time.Duration
	Window     time.Duration
}

// Validate checks the config without touching any device
func (c Config) Validate() error {
	if len(c.Events) == 0 && !c.CPULoad && !c.MemoryLoad {
		return ErrNoEvents
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be > 0, got %s", c.Interval)
	}
	if c.Window < c.Interval {
		return fmt.Errorf("window %s is shorter than the interval %s", c.Window, c.Interval)
	}
	return nil
}

// DeviceOptions returns the settings passed to OpenDevice
func (c Config) DeviceOptions() DeviceOptions {
	return DeviceOptions{PID: c.PID, ProcRoot: c.ProcRoot, SysRoot: c.SysRoot}
}

// OpenStore resolves the selected events and enables their counters. On
// failure every counter enabled so far is disabled again.
func OpenStore(c Config) (*Store, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var events []Event
	if len(c.Events) > 0 {
		backend, err := OpenDevice(c.Device, c.DeviceOptions())
		if err != nil {
			return nil, err
		}
		events, err = LookupEvents(backend, c.Events)
		if err != nil {
			return nil, err
		}
	}

	loads, err := NewLoadEvents(c.ProcRoot, c.CPULoad, c.MemoryLoad)
	if err != nil {
		return nil, err
	}
	events = append(events, loads...)

	store := NewStore(WindowSize(c.Window, c.Interval))
	for _, e := range events {
		if err := store.Add(e); err != nil {
			return nil, errors.Join(err, store.Close())
		}
	}
	return store, nil
}
