package pmugraph

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExporterCollect(t *testing.T) {
	good := newFakeEvent("cpu-cycles", testType, 3, 7)
	bad := newFakeEvent("instructions", testType)
	bad.failAt[0] = errRead
	store := newTestStore(t, 10, good, bad)
	exporter := NewExporter(store)

	// no samples yet, only counts
	assert.Equal(t, 4, testutil.CollectAndCount(exporter))

	store.Tick()
	assert.Equal(t, 5, testutil.CollectAndCount(exporter))
	assert.Equal(t, 1, testutil.CollectAndCount(exporter, "pmugraph_event_value"))

	expected := `
# HELP pmugraph_event_read_errors_total The total number of failed reads of an event.
# TYPE pmugraph_event_read_errors_total counter
pmugraph_event_read_errors_total{event="cpu-cycles"} 0
pmugraph_event_read_errors_total{event="instructions"} 1
`
	require.NoError(t, testutil.CollectAndCompare(exporter, strings.NewReader(expected), "pmugraph_event_read_errors_total"))
}

func TestExporterLint(t *testing.T) {
	store := newTestStore(t, 10, newFakeEvent("cpu-cycles", testType))
	store.Tick()
	problems, err := testutil.CollectAndLint(NewExporter(store))
	require.NoError(t, err)
	assert.Empty(t, problems)
}

func TestSnapshot(t *testing.T) {
	store := newTestStore(t, 10, newFakeEvent("cpu-cycles", testType, 3, 7))

	var buf bytes.Buffer
	require.NoError(t, Snapshot(context.Background(), store, time.Millisecond, &buf))
	out := buf.String()
	assert.Contains(t, out, `pmugraph_event_value{event="cpu-cycles",event_type="hardware",unit="events/s"} 7`)
	assert.Contains(t, out, `pmugraph_event_samples{event="cpu-cycles"} 2`)
}

func TestSnapshotCancelled(t *testing.T) {
	store := newTestStore(t, 10, newFakeEvent("cpu-cycles", testType))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := Snapshot(ctx, store, time.Hour, &buf)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, buf.String())
}

func TestExporterWriteText(t *testing.T) {
	store := newTestStore(t, 10, newFakeEvent("cpu-cycles", testType, 3))
	store.Tick()

	var buf bytes.Buffer
	require.NoError(t, NewExporter(store).WriteText(&buf))
	// families are written sorted by name
	assert.True(t, strings.HasPrefix(buf.String(), "# HELP pmugraph_event_read_errors_total "), buf.String())
	assert.Contains(t, buf.String(), "# HELP pmugraph_event_value The latest sampled value of an event.\n# TYPE pmugraph_event_value gauge\n")
}

func TestExporterServeStopsWithContext(t *testing.T) {
	store := newTestStore(t, 10, newFakeEvent("cpu-cycles", testType))
	exporter := NewExporter(store)
	ln, err := exporter.Listen("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- exporter.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), `pmugraph_event_samples{event="cpu-cycles"} 0`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestExporterListenAddressInUse(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { busy.Close() })

	store := newTestStore(t, 10, newFakeEvent("cpu-cycles", testType))
	_, err = NewExporter(store).Listen(busy.Addr().String())
	assert.ErrorContains(t, err, "metrics server")
}
