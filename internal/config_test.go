package pmugraph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	base := Config{Events: []string{"cpu-cycles"}, Interval: UpdateDuration(), Window: WindowDuration()}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		modify func(*Config)
		noEvts bool
	}{
		{"no events", func(c *Config) { c.Events = nil }, true},
		{"zero interval", func(c *Config) { c.Interval = 0 }, false},
		{"window shorter than interval", func(c *Config) { c.Window = time.Millisecond }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.modify(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Equal(t, tt.noEvts, err == ErrNoEvents)
		})
	}

	loadOnly := Config{MemoryLoad: true, Interval: time.Second, Window: time.Minute}
	assert.NoError(t, loadOnly.Validate())
}

func TestOpenStoreWithoutEvents(t *testing.T) {
	store, err := OpenStore(Config{Device: "unreachable:1", Interval: time.Second, Window: time.Minute})
	assert.ErrorIs(t, err, ErrNoEvents)
	assert.Nil(t, store)
}

func TestOpenStoreLoadEvents(t *testing.T) {
	root := t.TempDir()
	writeProcFile(t, root, "stat", "cpu  100 0 100 800 0 0 0 0 0 0\n")
	writeProcFile(t, root, "meminfo", "MemTotal:        1000 kB\nMemAvailable:     500 kB\n")

	store, err := OpenStore(Config{
		CPULoad:    true,
		MemoryLoad: true,
		ProcRoot:   root,
		Interval:   100 * time.Millisecond,
		Window:     10 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	assert.Equal(t, 100, store.WindowSize())
	require.Len(t, store.Events(), 2)
	assert.Empty(t, store.Tick())
	_, ys, ok := store.Window(MemoryLoadEvent)
	require.True(t, ok)
	assert.Equal(t, []float64{50}, ys)
}

func TestWindowSize(t *testing.T) {
	assert.Equal(t, 100, WindowSize(10*time.Second, 100*time.Millisecond))
	assert.Equal(t, 3, WindowSize(time.Second, 300*time.Millisecond))
	assert.Equal(t, 2, WindowSize(time.Second, time.Second))
	assert.Equal(t, 2, WindowSize(time.Second, 0))
}
