package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/torosent/funcprof/internal/config"
)

func TestParseFlagsDefaults(t *testing.T) {
	loader := config.NewLoader()

	cfg, err := loader.Load([]string{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Workers != 1 {
		t.Errorf("Workers = %d, want 1", cfg.Workers)
	}
	if cfg.Calls != 1000 {
		t.Errorf("Calls = %d, want 1000", cfg.Calls)
	}
	if cfg.Factorial != config.MaxFactorial {
		t.Errorf("Factorial = %d, want %d", cfg.Factorial, config.MaxFactorial)
	}
	if cfg.ReportInterval != time.Second {
		t.Errorf("ReportInterval = %s, want 1s", cfg.ReportInterval)
	}
	if !cfg.CPUTime {
		t.Error("CPUTime = false, want true")
	}
	if cfg.Sink != config.SinkText {
		t.Errorf("Sink = %q, want text", cfg.Sink)
	}
	if cfg.Format != config.FormatText {
		t.Errorf("Format = %q, want text", cfg.Format)
	}
	if cfg.Tracing.Enabled() {
		t.Error("tracing should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestHelpRequested(t *testing.T) {
	_, err := config.NewLoader().Load([]string{"--help"})
	if !errors.Is(err, config.ErrHelpRequested) {
		t.Fatalf("err = %v, want ErrHelpRequested", err)
	}
}

func TestLoadConfigFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{
		"workers": 4,
		"calls": 0,
		"duration": "2s",
		"rate": 100,
		"factorial": 12,
		"fail_every": 7,
		"report_interval": "250ms",
		"percentiles": true,
		"lock_threads": true,
		"format": "yaml",
		"thresholds": ["workload.Compute:p99 < 10", "*:count > 0"],
		"tracing": {"endpoint": "collector:4317", "insecure": true}
	}`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.NewLoader().Load([]string{"--config", path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, path)
	}
	if cfg.Workers != 4 || cfg.Calls != 0 || cfg.Duration != 2*time.Second {
		t.Errorf("workload = %d/%d/%s", cfg.Workers, cfg.Calls, cfg.Duration)
	}
	if cfg.Rate != 100 || cfg.Factorial != 12 || cfg.FailEvery != 7 {
		t.Errorf("rate/factorial/fail_every = %d/%d/%d", cfg.Rate, cfg.Factorial, cfg.FailEvery)
	}
	if cfg.ReportInterval != 250*time.Millisecond {
		t.Errorf("ReportInterval = %s", cfg.ReportInterval)
	}
	if !cfg.Percentiles || !cfg.LockThreads {
		t.Errorf("percentiles/lock_threads = %v/%v", cfg.Percentiles, cfg.LockThreads)
	}
	if cfg.Format != config.FormatYAML {
		t.Errorf("Format = %q, want yaml", cfg.Format)
	}
	if len(cfg.Thresholds) != 2 {
		t.Errorf("Thresholds = %v", cfg.Thresholds)
	}
	if !cfg.Tracing.Enabled() || !cfg.Tracing.Insecure || cfg.Tracing.Protocol != "grpc" {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
}

func TestLoadConfigFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(`
workers: 3
calls: 50
pause: 1ms
sink: log
log_format: json
cpu_time: false
`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.NewLoader().Load([]string{"--config", path, "--calls", "75"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Workers != 3 {
		t.Errorf("Workers = %d, want 3", cfg.Workers)
	}
	// Flags win over the file.
	if cfg.Calls != 75 {
		t.Errorf("Calls = %d, want 75", cfg.Calls)
	}
	if cfg.Pause != time.Millisecond {
		t.Errorf("Pause = %s, want 1ms", cfg.Pause)
	}
	if cfg.Sink != config.SinkLog || cfg.LogFormat != "json" {
		t.Errorf("sink/log_format = %q/%q", cfg.Sink, cfg.LogFormat)
	}
	if cfg.CPUTime {
		t.Error("CPUTime = true, want false")
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := config.NewLoader().Load([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestConfigValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"workers", func(c *config.Config) { c.Workers = 0 }, "workers must be >= 1"},
		{"calls", func(c *config.Config) { c.Calls = -1 }, "calls must be >= 0"},
		{"no stop condition", func(c *config.Config) { c.Calls = 0 }, "either calls or duration must be set"},
		{"rate", func(c *config.Config) { c.Rate = -1 }, "rate must be >= 0"},
		{"retries", func(c *config.Config) { c.Retries = -2 }, "retries must be >= 0"},
		{"factorial", func(c *config.Config) { c.Factorial = 21 }, "factorial must be between 0 and 20"},
		{"pause", func(c *config.Config) { c.Pause = -time.Millisecond }, "pause must be >= 0"},
		{"fail every", func(c *config.Config) { c.FailEvery = -1 }, "fail_every must be >= 0"},
		{"sink", func(c *config.Config) { c.Sink = "syslog" }, "sink must be"},
		{"format", func(c *config.Config) { c.Format = "xml" }, "format must be"},
		{"log format", func(c *config.Config) { c.LogFormat = "logfmt" }, "log_format must be"},
		{"log level", func(c *config.Config) { c.LogLevel = "trace" }, "log_level"},
		{"tracing protocol", func(c *config.Config) { c.Tracing.Protocol = "udp" }, "tracing: protocol"},
		{"tracing sample rate", func(c *config.Config) { c.Tracing.SampleRate = 2 }, "tracing: sample_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var verr config.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error type = %T, want ValidationError", err)
			}
			found := false
			for _, issue := range verr.Issues() {
				if strings.Contains(issue, tt.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("issues %v do not mention %q", verr.Issues(), tt.want)
			}
		})
	}
}

func TestNegativeReportIntervalIsValid(t *testing.T) {
	cfg := config.Default()
	cfg.ReportInterval = -1
	if err := cfg.Validate(); err != nil {
		t.Fatalf("negative interval selects final-only reports: %v", err)
	}
}

func TestWarnings(t *testing.T) {
	cfg := config.Default()
	if w := cfg.Warnings(); len(w) != 0 {
		t.Fatalf("default config warned: %v", w)
	}

	cfg.Workers = 300
	cfg.LockThreads = true
	cfg.Tracing.Endpoint = "localhost:4317"
	cfg.Tracing.Insecure = true
	w := cfg.Warnings()
	if len(w) != 3 {
		t.Fatalf("expected 3 warnings, got %v", w)
	}
	if !strings.Contains(w[0], "high worker count") {
		t.Errorf("first warning = %q", w[0])
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("warnings must not fail validation: %v", err)
	}
}
