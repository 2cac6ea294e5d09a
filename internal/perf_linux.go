//go:build linux

package pmugraph

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
	"unsafe"

	"github.com/prometheus/procfs/sysfs"
	"golang.org/x/sys/unix"
)

var (
	hardwareType = newEventType("hardware", "events/s")
	softwareType = newEventType("software", "events/s")
)

var perfEventConfigs = []struct {
	name   string
	typ    uint32
	config uint64
}{
	{"cpu-cycles", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CPU_CYCLES},
	{"instructions", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_INSTRUCTIONS},
	{"cache-references", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CACHE_REFERENCES},
	{"cache-misses", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CACHE_MISSES},
	{"branches", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_BRANCH_INSTRUCTIONS},
	{"branch-misses", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_BRANCH_MISSES},
	{"bus-cycles", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_BUS_CYCLES},
	{"ref-cycles", unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_REF_CPU_CYCLES},
	{"cpu-clock", unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_CPU_CLOCK},
	{"task-clock", unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_TASK_CLOCK},
	{"page-faults", unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_PAGE_FAULTS},
	{"context-switches", unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_CONTEXT_SWITCHES},
	{"cpu-migrations", unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_CPU_MIGRATIONS},
	{"minor-faults", unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_PAGE_FAULTS_MIN},
	{"major-faults", unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_PAGE_FAULTS_MAJ},
}

// PerfBackend opens counters with perf_event_open(2)
type PerfBackend struct {
	pid  int
	cpus []int
}

// NewPerfBackend counts events of pid, or of every process on every online
// CPU listed under the sysfs mount point when pid is -1
func NewPerfBackend(pid int, sysRoot string) (*PerfBackend, error) {
	if pid < -1 {
		return nil, fmt.Errorf("invalid pid %d", pid)
	}
	if sysRoot == "" {
		sysRoot = "/sys"
	}
	p := &PerfBackend{pid: pid}
	if pid == -1 {
		cpus, err := onlineCPUs(sysRoot)
		if err != nil {
			return nil, err
		}
		p.cpus = cpus
	}
	return p, nil
}

// onlineCPUs returns the ids of the online CPUs, sorted. CPUs without an
// online file (usually cpu0) can't be taken offline.
func onlineCPUs(sysRoot string) ([]int, error) {
	sfs, err := sysfs.NewFS(sysRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to open sysfs at %s: %w", sysRoot, err)
	}
	all, err := sfs.CPUs()
	if err != nil {
		return nil, fmt.Errorf("failed to list cpus: %w", err)
	}
	var ids []int
	for _, cpu := range all {
		id, err := strconv.Atoi(cpu.Number())
		if err != nil {
			continue
		}
		online, err := os.ReadFile(filepath.Join(string(cpu), "online"))
		if errors.Is(err, fs.ErrNotExist) {
			ids = append(ids, id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("cpu%d: %w", id, err)
		}
		if strings.TrimSpace(string(online)) == "1" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no online cpu found under %s", sysRoot)
	}
	slices.Sort(ids)
	return ids, nil
}

func (p *PerfBackend) Name() string {
	if p.pid == -1 {
		return "perf"
	}
	return fmt.Sprintf("perf (pid %d)", p.pid)
}

func (p *PerfBackend) Events() ([]Event, error) {
	events := make([]Event, 0, len(perfEventConfigs))
	for _, cfg := range perfEventConfigs {
		e, err := p.Lookup(cfg.name)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].EventType().Name() < events[j].EventType().Name()
	})
	return events, nil
}

func (p *PerfBackend) Lookup(name string) (Event, error) {
	for _, cfg := range perfEventConfigs {
		if cfg.name != name {
			continue
		}
		et := hardwareType
		if cfg.typ == unix.PERF_TYPE_SOFTWARE {
			et = softwareType
		}
		return &perfEvent{
			name:      cfg.name,
			eventType: et,
			attr: unix.PerfEventAttr{
				Type:   cfg.typ,
				Config: cfg.config,
				Size:   uint32(unsafe.Sizeof(unix.PerfEventAttr{})),
				Bits:   unix.PerfBitDisabled | unix.PerfBitExcludeHv,
				// counts are scaled when the PMU multiplexes events
				Read_format: unix.PERF_FORMAT_TOTAL_TIME_ENABLED |
					unix.PERF_FORMAT_TOTAL_TIME_RUNNING,
			},
			pid:  p.pid,
			cpus: p.cpus,
		}, nil
	}
	return nil, unknownEvent(name)
}

type perfEvent struct {
	name      string
	eventType EventType
	attr      unix.PerfEventAttr
	pid       int
	cpus      []int

	fds      []int
	previous float64
	readAt   time.Time
}

func (e *perfEvent) Name() string         { return e.name }
func (e *perfEvent) EventType() EventType { return e.eventType }

// Enable opens one fd per CPU for system-wide counting, or a single fd
// following the process across CPUs
func (e *perfEvent) Enable() error {
	if e.fds != nil {
		return nil
	}
	targets := []int{-1}
	if e.pid == -1 {
		targets = e.cpus
	}

	for _, cpu := range targets {
		attr := e.attr
		fd, err := unix.PerfEventOpen(&attr, e.pid, cpu, -1, unix.PERF_FLAG_FD_CLOEXEC)
		if err != nil {
			e.closeAll()
			return fmt.Errorf("perf_event_open for %s: %w (try: sudo sysctl kernel.perf_event_paranoid=-1)", e.name, err)
		}
		e.fds = append(e.fds, fd)
	}

	for _, fd := range e.fds {
		if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_RESET, 0); err != nil {
			e.closeAll()
			return fmt.Errorf("reset %s: %w", e.name, err)
		}
		if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_ENABLE, 0); err != nil {
			e.closeAll()
			return fmt.Errorf("enable %s: %w", e.name, err)
		}
	}
	e.previous = 0
	e.readAt = time.Now()
	return nil
}

func (e *perfEvent) Disable() error {
	if e.fds == nil {
		return nil
	}
	var errs []error
	for _, fd := range e.fds {
		if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_DISABLE, 0); err != nil {
			errs = append(errs, fmt.Errorf("disable %s: %w", e.name, err))
		}
	}
	e.closeAll()
	return errors.Join(errs...)
}

// Value returns the counter rate per second since the previous read
func (e *perfEvent) Value() (float64, error) {
	if e.fds == nil {
		return 0, fmt.Errorf("%s is not enabled", e.name)
	}
	total, err := e.read()
	if err != nil {
		return 0, err
	}
	now := time.Now()
	elapsed := now.Sub(e.readAt).Seconds()
	delta := total - e.previous
	e.previous = total
	e.readAt = now
	if elapsed <= 0 || delta < 0 {
		return 0, nil
	}
	return delta / elapsed, nil
}

// perfReadSize is value, time enabled and time running
const perfReadSize = 24

func (e *perfEvent) read() (float64, error) {
	var total float64
	buf := make([]byte, perfReadSize)
	for i, fd := range e.fds {
		n, err := unix.Read(fd, buf)
		if err != nil {
			return 0, fmt.Errorf("read %s counter %d: %w", e.name, i, err)
		}
		if n != perfReadSize {
			return 0, fmt.Errorf("read %s counter %d: short read of %d bytes", e.name, i, n)
		}
		total += scaledCount(buf)
	}
	return total, nil
}

// scaledCount extrapolates a counter that only ran for part of the time it
// was enabled. A counter that never ran counts nothing.
func scaledCount(buf []byte) float64 {
	value := binary.NativeEndian.Uint64(buf[0:8])
	enabled := binary.NativeEndian.Uint64(buf[8:16])
	running := binary.NativeEndian.Uint64(buf[16:24])
	if running == 0 {
		return 0
	}
	if running >= enabled {
		return float64(value)
	}
	return float64(value) * float64(enabled) / float64(running)
}

func (e *perfEvent) closeAll() {
	for _, fd := range e.fds {
		if fd >= 0 {
			unix.Close(fd)
		}
	}
	e.fds = nil
}
