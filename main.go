package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	pmugraph "github.com/BayLibre/pmugraph/internal"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "pmugraph",
		Short: "Terminal charts of CPU performance counters",
		Long: `pmugraph polls performance events and draws them as scrolling charts,
next to a tree that toggles and recolours every event.

Examples:
  pmugraph -e cpu-cycles -e instructions
  pmugraph -e cache-misses --pid 4242 --window 30s
  pmugraph --cpu-load --memory-load
  pmugraph -d http://localhost:9100/metrics -e node_context_switches_total
  PMUGRAPH_EVENTS="cpu-cycles;branch-misses" pmugraph`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, v)
		},
	}

	// Flags shared by every command
	flags := rootCmd.PersistentFlags()
	flags.StringP("device", "d", pmugraph.DevicePerf, "Device to read events from: perf, proc or a Prometheus/node_exporter URL")
	flags.StringArrayP("event", "e", nil, "Event to display (repeatable, PMUGRAPH_EVENTS separates events with ';')")
	flags.Bool("cpu-load", false, "Display the cpu load")
	flags.Bool("memory-load", false, "Display the memory load")
	flags.Int("pid", -1, "Process to count perf events for (-1 counts the whole system)")
	flags.String("proc-root", "/proc", "Mount point of the proc filesystem")
	flags.String("sys-root", "/sys", "Mount point of the sys filesystem, used to find online CPUs")
	flags.Duration("interval", pmugraph.UpdateDuration(), "Time between two samples")
	flags.Duration("window", pmugraph.WindowDuration(), "Time span of the scrolling window")

	rootCmd.Flags().String("metrics-addr", "", "Serve the latest samples as Prometheus metrics on this address")
	rootCmd.Flags().String("log-file", "", "Write logs to this file while the dashboard runs")
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")

	// Bind flags to Viper keys (note: dashes in flags become underscores in viper)
	v.BindPFlag("device", flags.Lookup("device"))
	v.BindPFlag("cpu_load", flags.Lookup("cpu-load"))
	v.BindPFlag("memory_load", flags.Lookup("memory-load"))
	v.BindPFlag("pid", flags.Lookup("pid"))
	v.BindPFlag("proc_root", flags.Lookup("proc-root"))
	v.BindPFlag("sys_root", flags.Lookup("sys-root"))
	v.BindPFlag("interval", flags.Lookup("interval"))
	v.BindPFlag("window", flags.Lookup("window"))
	v.BindPFlag("metrics_addr", rootCmd.Flags().Lookup("metrics-addr"))
	v.BindPFlag("log_file", rootCmd.Flags().Lookup("log-file"))

	// Configure Viper for environment variables
	v.SetEnvPrefix("pmugraph")
	v.AutomaticEnv()
	// events are read raw: PromQL expressions hold commas and spaces
	v.BindEnv("events")

	rootCmd.AddCommand(newListCmd(v), newSnapshotCmd(v))
	return rootCmd
}

// eventSeparator splits PMUGRAPH_EVENTS, PromQL never uses it
const eventSeparator = ";"

func configFrom(cmd *cobra.Command, v *viper.Viper) pmugraph.Config {
	return pmugraph.Config{
		Device:     v.GetString("device"),
		Events:     selectedEvents(cmd, v),
		CPULoad:    v.GetBool("cpu_load"),
		MemoryLoad: v.GetBool("memory_load"),
		PID:        v.GetInt("pid"),
		ProcRoot:   v.GetString("proc_root"),
		SysRoot:    v.GetString("sys_root"),
		Interval:   v.GetDuration("interval"),
		Window:     v.GetDuration("window"),
	}
}

// selectedEvents takes every -e value as one event, or falls back to the
// environment
func selectedEvents(cmd *cobra.Command, v *viper.Viper) []string {
	if f := cmd.Flags().Lookup("event"); f != nil && f.Changed {
		events, _ := cmd.Flags().GetStringArray("event")
		return events
	}
	var events []string
	for _, e := range strings.Split(v.GetString("events"), eventSeparator) {
		if e = strings.TrimSpace(e); e != "" {
			events = append(events, e)
		}
	}
	return events
}

func run(cmd *cobra.Command, v *viper.Viper) error {
	// Handle --version flag first
	versionFlag, _ := cmd.Flags().GetBool("version")
	if versionFlag {
		fmt.Fprintf(cmd.OutOrStdout(), "pmugraph version %s\n", version)
		return nil
	}

	log.SetOutput(cmd.ErrOrStderr())

	cfg := configFrom(cmd, v)
	if err := cfg.Validate(); err != nil {
		return err
	}
	log.Printf("Starting pmugraph %s on %s", version, cfg.Device)

	store, err := pmugraph.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bind before the dashboard hides the logs
	if addr := v.GetString("metrics_addr"); addr != "" {
		exporter := pmugraph.NewExporter(store)
		ln, err := exporter.Listen(addr)
		if err != nil {
			return err
		}
		go func() {
			if err := exporter.Serve(ctx, ln); err != nil {
				log.Printf("Metrics server stopped: %v", err)
			}
		}()
	}

	// The dashboard owns the terminal, logs go to a file or nowhere
	if path := v.GetString("log_file"); path != "" {
		f, err := tea.LogToFile(path, "pmugraph")
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}
	defer log.SetOutput(cmd.ErrOrStderr())

	return pmugraph.Dashboard(ctx, store, cfg.Interval)
}

func newListCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the events a device offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.SetOutput(cmd.ErrOrStderr())
			cfg := configFrom(cmd, v)
			backend, err := pmugraph.OpenDevice(cfg.Device, cfg.DeviceOptions())
			if err != nil {
				return err
			}
			return pmugraph.ListEvents(cmd.OutOrStdout(), backend)
		},
	}
}

func newSnapshotCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Sample the selected events once and print them in the Prometheus text format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.SetOutput(cmd.ErrOrStderr())
			cfg := configFrom(cmd, v)
			store, err := pmugraph.OpenStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return pmugraph.Snapshot(ctx, store, cfg.Interval, cmd.OutOrStdout())
		},
	}
}
