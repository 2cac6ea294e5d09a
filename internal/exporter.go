package pmugraph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

var (
	eventValueDesc = prometheus.NewDesc(
		"pmugraph_event_value",
		"The latest sampled value of an event.",
		[]string{"event", "event_type", "unit"}, nil,
	)
	eventSamplesDesc = prometheus.NewDesc(
		"pmugraph_event_samples",
		"The number of samples recorded for an event since it was enabled.",
		[]string{"event"}, nil,
	)
	eventReadErrorsDesc = prometheus.NewDesc(
		"pmugraph_event_read_errors_total",
		"The total number of failed reads of an event.",
		[]string{"event"}, nil,
	)
)

// Exporter exposes the latest readings of a Store as Prometheus metrics
type Exporter struct {
	store *Store
}

func NewExporter(store *Store) *Exporter {
	return &Exporter{store: store}
}

// Describe implements prometheus.Collector.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- eventValueDesc
	ch <- eventSamplesDesc
	ch <- eventReadErrorsDesc
}

// Collect implements prometheus.Collector.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	for _, r := range e.store.Readings() {
		name := r.Event.Name()
		if r.OK {
			ch <- prometheus.MustNewConstMetric(
				eventValueDesc,
				prometheus.GaugeValue,
				r.Value,
				name, r.Event.EventType().Name(), r.Event.EventType().Unit(),
			)
		}
		ch <- prometheus.MustNewConstMetric(
			eventSamplesDesc,
			prometheus.GaugeValue,
			float64(r.Samples),
			name,
		)
		ch <- prometheus.MustNewConstMetric(
			eventReadErrorsDesc,
			prometheus.CounterValue,
			float64(r.Errors),
			name,
		)
	}
}

// NewRegistry returns a registry holding only the exporter
func (e *Exporter) NewRegistry() (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(e); err != nil {
		return nil, fmt.Errorf("failed to register exporter: %w", err)
	}
	return reg, nil
}

// Listen binds addr for Serve, so a busy address is reported before the
// dashboard takes over the terminal
func (e *Exporter) Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics server: %w", err)
	}
	return ln, nil
}

// Serve exposes /metrics on ln until ctx is cancelled
func (e *Exporter) Serve(ctx context.Context, ln net.Listener) error {
	reg, err := e.NewRegistry()
	if err != nil {
		ln.Close()
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Serving metrics on %s/metrics", ln.Addr())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

// WriteText writes the current metrics in the Prometheus text format
func (e *Exporter) WriteText(w io.Writer) error {
	reg, err := e.NewRegistry()
	if err != nil {
		return err
	}
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, f := range families {
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("failed to encode %s: %w", f.GetName(), err)
		}
	}
	return nil
}

// Snapshot takes two samples one interval apart, so rate based events have
// a value, and writes them in the Prometheus text format
func Snapshot(ctx context.Context, store *Store, interval time.Duration, w io.Writer) error {
	store.Tick()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(interval):
	}
	store.Tick()
	return NewExporter(store).WriteText(w)
}
