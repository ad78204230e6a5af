package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a Config.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}
	if flagSet.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(flagSet.Args(), " "))
	}

	configPath := flagSet.Lookup("config").Value.String()
	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := Default()
	cfg.ConfigFile = configPath

	if err := applyConfigSettings(&cfg, cfgViper.AllSettings()); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(&cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.Sink = SinkKind(strings.ToLower(string(cfg.Sink)))
	cfg.Format = OutputFormat(strings.ToLower(string(cfg.Format)))
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.Tracing.Protocol = strings.ToLower(cfg.Tracing.Protocol)

	return &cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	for _, f := range []struct {
		keys []string
		dst  *int
	}{
		{[]string{"workers", "concurrency"}, &cfg.Workers},
		{[]string{"calls", "total"}, &cfg.Calls},
		{[]string{"rate"}, &cfg.Rate},
		{[]string{"retries"}, &cfg.Retries},
		{[]string{"factorial"}, &cfg.Factorial},
		{[]string{"fail_every", "failEvery", "fail-every"}, &cfg.FailEvery},
	} {
		if raw, ok := lookupSetting(settings, f.keys...); ok {
			val, err := cast.ToIntE(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", f.keys[0], err)
			}
			*f.dst = val
		}
	}

	for _, f := range []struct {
		keys []string
		dst  *time.Duration
	}{
		{[]string{"duration"}, &cfg.Duration},
		{[]string{"pause"}, &cfg.Pause},
		{[]string{"report_interval", "reportInterval", "report-interval"}, &cfg.ReportInterval},
	} {
		if raw, ok := lookupSetting(settings, f.keys...); ok {
			val, err := toDuration(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", f.keys[0], err)
			}
			*f.dst = val
		}
	}

	for _, f := range []struct {
		keys []string
		dst  *bool
	}{
		{[]string{"log_failures", "logFailures", "log-failures"}, &cfg.LogFailures},
		{[]string{"percentiles"}, &cfg.Percentiles},
		{[]string{"cpu_time", "cpuTime", "cpu-time"}, &cfg.CPUTime},
		{[]string{"lock_threads", "lockThreads", "lock-threads"}, &cfg.LockThreads},
		{[]string{"disabled"}, &cfg.Disabled},
	} {
		if raw, ok := lookupSetting(settings, f.keys...); ok {
			val, err := cast.ToBoolE(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", f.keys[0], err)
			}
			*f.dst = val
		}
	}

	for _, f := range []struct {
		keys []string
		dst  *string
	}{
		{[]string{"log_level", "logLevel", "log-level"}, &cfg.LogLevel},
		{[]string{"log_format", "logFormat", "log-format"}, &cfg.LogFormat},
		{[]string{"output"}, &cfg.Output},
	} {
		if raw, ok := lookupSetting(settings, f.keys...); ok {
			val, err := cast.ToStringE(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", f.keys[0], err)
			}
			*f.dst = strings.TrimSpace(val)
		}
	}

	if raw, ok := lookupSetting(settings, "sink"); ok {
		val, err := cast.ToStringE(raw)
		if err != nil {
			return fmt.Errorf("sink: %w", err)
		}
		cfg.Sink = SinkKind(strings.TrimSpace(val))
	}
	if raw, ok := lookupSetting(settings, "format"); ok {
		val, err := cast.ToStringE(raw)
		if err != nil {
			return fmt.Errorf("format: %w", err)
		}
		cfg.Format = OutputFormat(strings.TrimSpace(val))
	}
	if raw, ok := lookupSetting(settings, "thresholds"); ok {
		val, err := toStringSlice(raw)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = val
	}
	if raw, ok := lookupSetting(settings, "tracing"); ok {
		tc, err := parseTracing(raw, cfg.Tracing)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		cfg.Tracing = tc
	}

	return nil
}

// parseTracing overlays a tracing section onto base.
func parseTracing(value interface{}, base TracingConfig) (TracingConfig, error) {
	if value == nil {
		return base, nil
	}
	settings, err := cast.ToStringMapE(value)
	if err != nil {
		return base, err
	}
	tc := base
	if raw, ok := lookupSetting(settings, "endpoint"); ok {
		val, err := cast.ToStringE(raw)
		if err != nil {
			return tc, fmt.Errorf("endpoint: %w", err)
		}
		tc.Endpoint = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "protocol"); ok {
		val, err := cast.ToStringE(raw)
		if err != nil {
			return tc, fmt.Errorf("protocol: %w", err)
		}
		tc.Protocol = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "service_name", "serviceName", "service-name"); ok {
		val, err := cast.ToStringE(raw)
		if err != nil {
			return tc, fmt.Errorf("service_name: %w", err)
		}
		tc.ServiceName = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "insecure"); ok {
		val, err := cast.ToBoolE(raw)
		if err != nil {
			return tc, fmt.Errorf("insecure: %w", err)
		}
		tc.Insecure = val
	}
	if raw, ok := lookupSetting(settings, "sample_rate", "sampleRate", "sample-rate"); ok {
		val, err := cast.ToFloat64E(raw)
		if err != nil {
			return tc, fmt.Errorf("sample_rate: %w", err)
		}
		tc.SampleRate = val
	}
	return tc, nil
}
