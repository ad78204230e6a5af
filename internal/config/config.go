package config

import (
	"fmt"
	"strings"
	"time"
)

// SinkKind selects where live profile reports go.
type SinkKind string

const (
	SinkText SinkKind = "text" // one line per report on stdout
	SinkLog  SinkKind = "log"  // structured log entries
	SinkNone SinkKind = "none" // reports are only collected for the summary
)

// OutputFormat selects the end-of-run summary rendering.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
)

type Config struct {
	Workers        int           `mapstructure:"workers"`
	Calls          int           `mapstructure:"calls"`
	Duration       time.Duration `mapstructure:"duration"`
	Rate           int           `mapstructure:"rate"`
	Retries        int           `mapstructure:"retries"`
	LogFailures    bool          `mapstructure:"log_failures"`
	Factorial      int           `mapstructure:"factorial"`
	Pause          time.Duration `mapstructure:"pause"`
	FailEvery      int           `mapstructure:"fail_every"`
	ReportInterval time.Duration `mapstructure:"report_interval"`
	Percentiles    bool          `mapstructure:"percentiles"`
	CPUTime        bool          `mapstructure:"cpu_time"`
	LockThreads    bool          `mapstructure:"lock_threads"`
	Disabled       bool          `mapstructure:"disabled"`
	Sink           SinkKind      `mapstructure:"sink"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`
	Format         OutputFormat  `mapstructure:"format"`
	Output         string        `mapstructure:"output"`
	Thresholds     []string      `mapstructure:"thresholds"`
	Tracing        TracingConfig `mapstructure:"tracing"`
	ConfigFile     string        `mapstructure:"-"`
}

// TracingConfig configures OTLP export of profile reports.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" (default) or "http"
	ServiceName string  `mapstructure:"service_name"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// Enabled reports whether an exporter endpoint is configured.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != ""
}

// MaxFactorial is the largest argument whose factorial fits in a uint64.
const MaxFactorial = 20

// Default returns the configuration used when neither flags nor a file set a value.
func Default() Config {
	return Config{
		Workers:        1,
		Calls:          1000,
		Factorial:      MaxFactorial,
		ReportInterval: time.Second,
		CPUTime:        true,
		Sink:           SinkText,
		LogLevel:       "info",
		LogFormat:      "console",
		Format:         FormatText,
		Tracing:        TracingConfig{Protocol: "grpc", SampleRate: 1.0},
	}
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// Warnings lists settings that are valid but likely to surprise.
func (c Config) Warnings() []string {
	var warnings []string
	if c.Workers > 256 {
		warnings = append(warnings, fmt.Sprintf("high worker count configured (%d), per-goroutine reports will be interleaved heavily", c.Workers))
	}
	if c.LockThreads && c.Workers > 64 {
		warnings = append(warnings, fmt.Sprintf("lock-threads pins %d OS threads for the whole run", c.Workers))
	}
	if c.Tracing.Enabled() && c.Tracing.Insecure {
		warnings = append(warnings, "tracing exporter TLS is disabled (insecure: true)")
	}
	return warnings
}

func (c Config) Validate() error {
	var issues []string

	if c.Workers < 1 {
		issues = append(issues, "workers must be >= 1")
	}
	if c.Calls < 0 {
		issues = append(issues, "calls must be >= 0")
	}
	if c.Duration < 0 {
		issues = append(issues, "duration must be >= 0")
	}
	if c.Calls == 0 && c.Duration == 0 {
		issues = append(issues, "either calls or duration must be set")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Retries < 0 {
		issues = append(issues, "retries must be >= 0")
	}
	if c.Factorial < 0 || c.Factorial > MaxFactorial {
		issues = append(issues, fmt.Sprintf("factorial must be between 0 and %d", MaxFactorial))
	}
	if c.Pause < 0 {
		issues = append(issues, "pause must be >= 0")
	}
	if c.FailEvery < 0 {
		issues = append(issues, "fail_every must be >= 0")
	}

	switch c.Sink {
	case SinkText, SinkLog, SinkNone:
	default:
		issues = append(issues, fmt.Sprintf("sink must be 'text', 'log', or 'none', got %q", c.Sink))
	}
	switch c.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		issues = append(issues, fmt.Sprintf("format must be 'text', 'json', or 'yaml', got %q", c.Format))
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "console", "json":
	default:
		issues = append(issues, fmt.Sprintf("log_format must be 'console' or 'json', got %q", c.LogFormat))
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		issues = append(issues, fmt.Sprintf("log_level %q is not supported", c.LogLevel))
	}

	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(t.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing: protocol must be 'grpc' or 'http', got %q", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing: sample_rate must be between 0.0 and 1.0, got %g", t.SampleRate))
	}
	return issues
}
