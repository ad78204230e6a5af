package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "funcprof",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	def := Default()

	// Workload flags
	flags.IntP("workers", "w", def.Workers, "Number of worker goroutines, each with its own profiler")
	flags.IntP("calls", "n", def.Calls, "Calls per worker (0 means run until --duration)")
	flags.DurationP("duration", "d", 0, "How long to run (e.g. 10s, 1m)")
	flags.IntP("rate", "r", 0, "Calls per second per worker (0 means unlimited)")
	flags.Int("retries", 0, "Number of retries for a failed call")
	flags.Bool("log-failures", false, "Log each failed call at debug level")
	flags.Int("factorial", def.Factorial, "Argument of the computed factorial")
	flags.Duration("pause", 0, "Sleep inside each profiled call")
	flags.Int("fail-every", 0, "Fail every Nth call of the flaky site (0 disables it)")

	// Profiler flags
	flags.Duration("report-interval", def.ReportInterval, "Minimum wall time between reports per site (negative means final report only)")
	flags.Bool("percentiles", false, "Track p50/p90/p99 per site")
	flags.Bool("cpu-time", def.CPUTime, "Measure thread CPU time alongside wall time")
	flags.Bool("lock-threads", false, "Pin each worker to its OS thread for exact CPU time")
	flags.Bool("disabled", false, "Turn profiling into a no-op")
	flags.String("sink", string(def.Sink), "Live report destination: 'text', 'log', or 'none'")

	// Output flags
	flags.String("log-level", def.LogLevel, "Log level: debug, info, warn, error")
	flags.String("log-format", def.LogFormat, "Log format: console or json")
	flags.StringP("format", "f", string(def.Format), "Summary format: 'text', 'json', or 'yaml'")
	flags.StringP("output", "o", "", "Write the summary to this file instead of stdout")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Threshold flags
	flags.StringSlice("threshold", nil, "Per-site thresholds (repeatable, e.g., 'workload.Compute:avg < 5')")

	// Tracing flags
	flags.String("tracing-endpoint", "", "OTLP collector endpoint (enables span export)")
	flags.String("tracing-protocol", def.Tracing.Protocol, "OTLP protocol: 'grpc' or 'http'")
	flags.String("tracing-service-name", "", "Service name attached to exported spans")
	flags.Bool("tracing-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Float64("tracing-sample-rate", def.Tracing.SampleRate, "Fraction of report spans to sample (0.0-1.0)")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	ints := map[string]*int{
		"workers":    &cfg.Workers,
		"calls":      &cfg.Calls,
		"rate":       &cfg.Rate,
		"retries":    &cfg.Retries,
		"factorial":  &cfg.Factorial,
		"fail-every": &cfg.FailEvery,
	}
	for name, dst := range ints {
		if !fs.Changed(name) {
			continue
		}
		val, err := fs.GetInt(name)
		if err != nil {
			return err
		}
		*dst = val
	}

	durations := map[string]*time.Duration{
		"duration":        &cfg.Duration,
		"pause":           &cfg.Pause,
		"report-interval": &cfg.ReportInterval,
	}
	for name, dst := range durations {
		if !fs.Changed(name) {
			continue
		}
		val, err := fs.GetDuration(name)
		if err != nil {
			return err
		}
		*dst = val
	}

	bools := map[string]*bool{
		"log-failures":     &cfg.LogFailures,
		"percentiles":      &cfg.Percentiles,
		"cpu-time":         &cfg.CPUTime,
		"lock-threads":     &cfg.LockThreads,
		"disabled":         &cfg.Disabled,
		"tracing-insecure": &cfg.Tracing.Insecure,
	}
	for name, dst := range bools {
		if !fs.Changed(name) {
			continue
		}
		val, err := fs.GetBool(name)
		if err != nil {
			return err
		}
		*dst = val
	}

	strs := map[string]*string{
		"log-level":            &cfg.LogLevel,
		"log-format":           &cfg.LogFormat,
		"output":               &cfg.Output,
		"tracing-endpoint":     &cfg.Tracing.Endpoint,
		"tracing-protocol":     &cfg.Tracing.Protocol,
		"tracing-service-name": &cfg.Tracing.ServiceName,
	}
	for name, dst := range strs {
		if !fs.Changed(name) {
			continue
		}
		val, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(val)
	}

	if fs.Changed("sink") {
		val, err := fs.GetString("sink")
		if err != nil {
			return err
		}
		cfg.Sink = SinkKind(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("format") {
		val, err := fs.GetString("format")
		if err != nil {
			return err
		}
		cfg.Format = OutputFormat(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = val
	}

	return nil
}
