package pmugraph

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/common/expfmt"
	dto "github.com/prometheus/client_model/go"
)

// scrapes younger than this are shared between the events of one tick
const nodeExporterScrapeReuse = 20 * time.Millisecond

// NodeExporterBackend exposes the metric families of a node_exporter
// endpoint as events
type NodeExporterBackend struct {
	url    *url.URL
	client http.Client
	now    func() time.Time

	families  map[string]*dto.MetricFamily
	scrapedAt time.Time
	types     map[string]*eventType
}

func NewNodeExporterBackend(u *url.URL) (*NodeExporterBackend, error) {
	if u == nil || u.Host == "" {
		return nil, fmt.Errorf("invalid node_exporter url %v", u)
	}
	return &NodeExporterBackend{
		url: u,
		client: http.Client{
			Timeout: 5 * time.Second,
		},
		now:   time.Now,
		types: make(map[string]*eventType),
	}, nil
}

func (n *NodeExporterBackend) Name() string {
	return "node_exporter " + n.url.Host
}

// Check scrapes the endpoint once and verifies it looks like node_exporter
func (n *NodeExporterBackend) Check() error {
	families, err := n.scrape(true)
	if err != nil {
		return err
	}
	if len(families) == 0 {
		return fmt.Errorf("no metrics found at %s", n.url)
	}
	return nil
}

func (n *NodeExporterBackend) Events() ([]Event, error) {
	families, err := n.scrape(true)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(families))
	for name, f := range families {
		if supportedFamily(f) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	events := make([]Event, 0, len(names))
	for _, name := range names {
		events = append(events, n.newEvent(families[name]))
	}
	return events, nil
}

func (n *NodeExporterBackend) Lookup(name string) (Event, error) {
	families, err := n.scrape(false)
	if err != nil {
		return nil, err
	}
	f, ok := families[name]
	if !ok || !supportedFamily(f) {
		return nil, unknownEvent(name)
	}
	return n.newEvent(f), nil
}

func (n *NodeExporterBackend) newEvent(f *dto.MetricFamily) *nodeExporterEvent {
	typeName, unit, lo, hi, ranged := classifyMetric(f.GetName(), f.GetType())
	et, ok := n.types[typeName]
	if !ok {
		if ranged {
			et = newRangedEventType(typeName, unit, lo, hi)
		} else {
			et = newEventType(typeName, unit)
		}
		n.types[typeName] = et
	}
	return &nodeExporterEvent{
		backend:   n,
		name:      f.GetName(),
		counter:   isCounter(f),
		eventType: et,
	}
}

func (n *NodeExporterBackend) scrape(force bool) (map[string]*dto.MetricFamily, error) {
	now := n.now()
	if !force && n.families != nil && now.Sub(n.scrapedAt) < nodeExporterScrapeReuse {
		return n.families, nil
	}

	resp, err := n.client.Get(n.url.String())
	if err != nil {
		return nil, fmt.Errorf("error querying node exporter: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("node exporter returned %s", resp.Status)
	}

	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metrics: %w", err)
	}
	n.families = families
	n.scrapedAt = now
	return families, nil
}

func supportedFamily(f *dto.MetricFamily) bool {
	switch f.GetType() {
	case dto.MetricType_COUNTER, dto.MetricType_GAUGE, dto.MetricType_UNTYPED:
		return true
	}
	return false
}

// isCounter also treats untyped families named like counters as counters,
// so their values match the rate unit classifyMetric gives them
func isCounter(f *dto.MetricFamily) bool {
	switch f.GetType() {
	case dto.MetricType_COUNTER:
		return true
	case dto.MetricType_UNTYPED:
		return strings.HasSuffix(f.GetName(), "_total")
	}
	return false
}

// classifyMetric derives an event type from the metric naming conventions
func classifyMetric(name string, typ dto.MetricType) (typeName, unit string, lo, hi float64, ranged bool) {
	switch {
	case strings.HasSuffix(name, "_seconds_total"):
		return "seconds", "s/s", 0, 0, false
	case strings.HasSuffix(name, "_bytes_total"):
		return "bytes", "B/s", 0, 0, false
	case strings.HasSuffix(name, "_bytes"):
		return "bytes", "B", 0, 0, false
	case strings.HasSuffix(name, "_ratio"):
		return "ratio", "", 0, 1, true
	case strings.HasSuffix(name, "_total") || typ == dto.MetricType_COUNTER:
		return "count", "1/s", 0, 0, false
	}
	return "value", "", 0, 0, false
}

type nodeExporterEvent struct {
	backend   *NodeExporterBackend
	name      string
	counter   bool
	eventType EventType

	previous float64
	readAt   time.Time
	enabled  bool
}

func (e *nodeExporterEvent) Name() string         { return e.name }
func (e *nodeExporterEvent) EventType() EventType { return e.eventType }

func (e *nodeExporterEvent) Enable() error {
	if e.enabled {
		return nil
	}
	v, err := e.read()
	if err != nil {
		return err
	}
	e.previous = v
	e.readAt = e.backend.now()
	e.enabled = true
	return nil
}

func (e *nodeExporterEvent) Disable() error {
	e.enabled = false
	return nil
}

// Value returns gauges as read and counters as a rate per second
func (e *nodeExporterEvent) Value() (float64, error) {
	v, err := e.read()
	if err != nil {
		return 0, err
	}
	if !e.counter {
		return v, nil
	}

	now := e.backend.now()
	previous, readAt := e.previous, e.readAt
	e.previous, e.readAt = v, now
	if !e.enabled || readAt.IsZero() {
		e.enabled = true
		return 0, nil
	}
	// the counter might have been reset since the previous reading
	delta := v - previous
	if v < previous {
		delta = v
	}
	elapsed := now.Sub(readAt).Seconds()
	if elapsed <= 0 {
		return 0, nil
	}
	return delta / elapsed, nil
}

func (e *nodeExporterEvent) read() (float64, error) {
	families, err := e.backend.scrape(false)
	if err != nil {
		return 0, err
	}
	f, ok := families[e.name]
	if !ok {
		return 0, fmt.Errorf("metric %s disappeared from %s", e.name, e.backend.url.Host)
	}
	var sum float64
	for _, m := range f.GetMetric() {
		switch f.GetType() {
		case dto.MetricType_COUNTER:
			sum += m.GetCounter().GetValue()
		case dto.MetricType_GAUGE:
			sum += m.GetGauge().GetValue()
		default:
			sum += m.GetUntyped().GetValue()
		}
	}
	return sum, nil
}
