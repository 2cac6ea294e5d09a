package pmugraph

import (
	"fmt"
	"log"
	"net/url"
	"strings"
)

const (
	DevicePerf = "perf"
	DeviceProc = "proc"
)

// DeviceOptions carries the settings shared by every device
type DeviceOptions struct {
	PID      int
	ProcRoot string
	SysRoot  string
}

// OpenDevice selects the backend named by device: "perf", "proc" or the URL
// of a Prometheus server or node_exporter endpoint
func OpenDevice(device string, opts DeviceOptions) (Backend, error) {
	switch device {
	case "", DevicePerf:
		return NewPerfBackend(opts.PID, opts.SysRoot)
	case DeviceProc:
		return NewProcBackend(opts.ProcRoot), nil
	}

	raw := device
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return nil, fmt.Errorf("unknown device %q: expected %s, %s or a URL", device, DevicePerf, DeviceProc)
	}
	b := TryConnectWithFallbacks(u)
	if b == nil {
		return nil, fmt.Errorf("no Prometheus or node_exporter found at %s", device)
	}
	return b, nil
}

// TryConnectWithFallbacks tries multiple URL variants, Prometheus first and
// node_exporter second, and returns the first backend that answers
func TryConnectWithFallbacks(baseURL *url.URL) Backend {
	variants := generateURLVariants(baseURL)

	for _, variant := range variants {
		log.Printf("Trying Prometheus backend: %s", variant)
		pd, err := NewPrometheusBackend(variant)
		if err != nil {
			log.Printf("Failed to create Prometheus client: %v", err)
			continue
		}
		if err := pd.Check(); err != nil {
			log.Printf("Prometheus check failed: %v", err)
			continue
		}
		log.Printf("Found Prometheus backend at %s", variant)
		return pd
	}

	for _, variant := range variants {
		log.Printf("Trying node_exporter backend: %s", variant)
		nd, err := NewNodeExporterBackend(variant)
		if err != nil {
			log.Printf("Failed to create node_exporter client: %v", err)
			continue
		}
		if err := nd.Check(); err != nil {
			log.Printf("Node exporter check failed: %v", err)
			continue
		}
		log.Printf("Found node_exporter backend at %s", variant)
		return nd
	}

	return nil
}

// generateURLVariants creates different URL combinations to try
func generateURLVariants(base *url.URL) []*url.URL {
	var variants []*url.URL
	hostname := base.Hostname()
	port := base.Port()
	path := base.Path

	// Schemes to try: the requested one first
	schemes := []string{"https", "http"}
	if base.Scheme == "http" {
		schemes = []string{"http", "https"}
	}

	// 9090 (Prometheus), 9100 (node_exporter)
	ports := []string{"9090", "9100"}
	if port != "" {
		ports = []string{port}
	}

	paths := []string{path}
	if path == "" || path == "/" {
		paths = []string{"", "/metrics"}
	}

	for _, scheme := range schemes {
		for _, p := range ports {
			for _, urlPath := range paths {
				variants = append(variants, &url.URL{
					Scheme: scheme,
					Host:   hostname + ":" + p,
					Path:   urlPath,
				})
			}
		}
	}

	return variants
}
