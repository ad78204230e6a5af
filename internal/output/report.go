// Package output renders end-of-run profile summaries.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/torosent/funcprof/internal/metrics"
	"github.com/torosent/funcprof/internal/profiler"
	"github.com/torosent/funcprof/internal/threshold"
)

// Report is the summary of one run.
type Report struct {
	RunID          string             `json:"run_id" yaml:"run_id"`
	StartedAt      time.Time          `json:"started_at" yaml:"started_at"`
	Duration       time.Duration      `json:"-" yaml:"-"`
	DurationMs     float64            `json:"duration_ms" yaml:"duration_ms"`
	Workers        int                `json:"workers" yaml:"workers"`
	Calls          int64              `json:"calls" yaml:"calls"`
	Errors         int64              `json:"errors" yaml:"errors"`
	ErrorBreakdown map[string]int     `json:"error_breakdown,omitempty" yaml:"error_breakdown,omitempty"`
	Sites          []profiler.Stats   `json:"sites" yaml:"sites"`
	Thresholds     []threshold.Result `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
}

// NewReport fills in derived fields.
func NewReport(runID string, started time.Time, d time.Duration, workers int, calls, errs int64, sites []profiler.Stats) Report {
	return Report{
		RunID:      runID,
		StartedAt:  started,
		Duration:   d,
		DurationMs: metrics.Millis(d),
		Workers:    workers,
		Calls:      calls,
		Errors:     errs,
		Sites:      sites,
	}
}

// Write renders r in the named format: "text", "json" or "yaml".
func Write(w io.Writer, format string, r Report) error {
	switch strings.ToLower(format) {
	case "", "text":
		PrintReport(w, r)
		return nil
	case "json":
		return PrintJSONReport(w, r)
	case "yaml":
		return PrintYAMLReport(w, r)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, r Report) {
	fmt.Fprintln(w, "\n--- Function Profile Summary ---")
	if r.RunID != "" {
		fmt.Fprintf(w, "Run ID:            %s\n", r.RunID)
	}
	fmt.Fprintf(w, "Duration:          %s\n", r.Duration)
	fmt.Fprintf(w, "Workers:           %d\n", r.Workers)
	fmt.Fprintf(w, "Calls:             %d\n", r.Calls)
	fmt.Fprintf(w, "Failed:            %d\n", r.Errors)

	if len(r.ErrorBreakdown) > 0 {
		fmt.Fprintln(w, "\nFailures:")
		names := make([]string, 0, len(r.ErrorBreakdown))
		for name := range r.ErrorBreakdown {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s: %d\n", name, r.ErrorBreakdown[name])
		}
	}

	fmt.Fprintln(w, "\nSites:")
	if len(r.Sites) == 0 {
		fmt.Fprintln(w, "  None")
	} else {
		writeSiteTable(w, r.Sites)
	}

	if len(r.Thresholds) > 0 {
		fmt.Fprintln(w, "\nThresholds:")
		for _, res := range r.Thresholds {
			fmt.Fprintf(w, "  %s\n", res.Message)
		}
		if failed := threshold.Failed(r.Thresholds); failed > 0 {
			fmt.Fprintf(w, "  %d of %d checks failed\n", failed, len(r.Thresholds))
		}
	}
}

func writeSiteTable(w io.Writer, sites []profiler.Stats) {
	siteWidth := len("site")
	showPercentiles := false
	showCPU := false
	for _, s := range sites {
		if len(s.Site) > siteWidth {
			siteWidth = len(s.Site)
		}
		showPercentiles = showPercentiles || s.Wall.Percentiles
		showCPU = showCPU || s.CPU != nil
	}

	header := fmt.Sprintf("  %-*s %10s %8s %12s %12s %12s %12s",
		siteWidth, "site", "goroutine", "count", "avg (ms)", "total (ms)", "min (ms)", "max (ms)")
	if showPercentiles {
		header += fmt.Sprintf(" %12s %12s %12s", "p50 (ms)", "p90 (ms)", "p99 (ms)")
	}
	if showCPU {
		header += fmt.Sprintf(" %12s %12s", "cpu avg", "cpu total")
	}
	fmt.Fprintln(w, header)

	for _, s := range sites {
		line := fmt.Sprintf("  %-*s %10d %8d %12.5f %12.5f %12.5f %12.5f",
			siteWidth, s.Site, s.Goroutine, s.Count,
			s.Wall.MeanMs, s.Wall.TotalMs, s.Wall.MinMs, s.Wall.MaxMs)
		if showPercentiles {
			line += fmt.Sprintf(" %12.5f %12.5f %12.5f", s.Wall.P50Ms, s.Wall.P90Ms, s.Wall.P99Ms)
		}
		if showCPU {
			if s.CPU != nil {
				line += fmt.Sprintf(" %12.5f %12.5f", s.CPU.MeanMs, s.CPU.TotalMs)
			} else {
				line += fmt.Sprintf(" %12s %12s", "-", "-")
			}
		}
		fmt.Fprintln(w, line)
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// PrintYAMLReport outputs a YAML-formatted report.
func PrintYAMLReport(w io.Writer, r Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
