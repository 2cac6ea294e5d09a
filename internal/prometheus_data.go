package pmugraph

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sort"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

var promqlType = newEventType("promql", "")

// PrometheusBackend treats PromQL expressions as events
type PrometheusBackend struct {
	client  api.Client
	url     *url.URL
	timeout time.Duration
}

func NewPrometheusBackend(prometheusURL *url.URL) (*PrometheusBackend, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus client: %w", err)
	}

	return &PrometheusBackend{
		client:  client,
		url:     prometheusURL,
		timeout: 5 * time.Second,
	}, nil
}

func (p *PrometheusBackend) Name() string {
	return "prometheus " + p.url.Host
}

func (p *PrometheusBackend) Check() error {
	v1api := v1.NewAPI(p.client)
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	// Test basic Prometheus API connectivity
	_, warnings, err := v1api.Query(ctx, "up", time.Now())
	if err != nil {
		return fmt.Errorf("prometheus API query failed: %w", err)
	}
	if len(warnings) > 0 {
		log.Printf("Prometheus warnings: %v", warnings)
	}
	return nil
}

// Events lists the metric names currently scraped by the server
func (p *PrometheusBackend) Events() ([]Event, error) {
	result, err := p.query(`count by (__name__) ({__name__=~".+"})`)
	if err != nil {
		return nil, err
	}
	vector, ok := result.(model.Vector)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %s", result.Type())
	}
	names := make([]string, 0, len(vector))
	for _, sample := range vector {
		names = append(names, string(sample.Metric[model.MetricNameLabel]))
	}
	sort.Strings(names)

	events := make([]Event, 0, len(names))
	for _, name := range names {
		events = append(events, &prometheusEvent{backend: p, expr: name})
	}
	return events, nil
}

// Lookup accepts any expression that evaluates without error
func (p *PrometheusBackend) Lookup(expr string) (Event, error) {
	if _, err := p.query(expr); err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrUnknownEvent, expr, err)
	}
	return &prometheusEvent{backend: p, expr: expr}, nil
}

func (p *PrometheusBackend) query(expr string) (model.Value, error) {
	v1api := v1.NewAPI(p.client)
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	result, warnings, err := v1api.Query(ctx, expr, time.Now())
	if err != nil {
		return nil, fmt.Errorf("error querying Prometheus: %w", err)
	}
	if len(warnings) > 0 {
		log.Printf("Prometheus warnings for %s: %v", expr, warnings)
	}
	return result, nil
}

type prometheusEvent struct {
	backend *PrometheusBackend
	expr    string
}

func (e *prometheusEvent) Name() string         { return e.expr }
func (e *prometheusEvent) EventType() EventType { return promqlType }
func (e *prometheusEvent) Enable() error        { return nil }
func (e *prometheusEvent) Disable() error       { return nil }

// Value sums every series the expression returns
func (e *prometheusEvent) Value() (float64, error) {
	result, err := e.backend.query(e.expr)
	if err != nil {
		return 0, err
	}
	switch v := result.(type) {
	case *model.Scalar:
		return float64(v.Value), nil
	case model.Vector:
		var sum float64
		for _, sample := range v {
			sum += float64(sample.Value)
		}
		return sum, nil
	}
	return 0, fmt.Errorf("%s: unsupported result type %s", e.expr, result.Type())
}
