// Package threshold evaluates per-site assertions against profile snapshots.
package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/torosent/funcprof/internal/profiler"
)

// AnySite matches every profiled site.
const AnySite = "*"

// Threshold represents a performance assertion that can pass or fail.
type Threshold struct {
	Site      string  // e.g., "workload.Compute", or "*" for every site
	Aggregate string  // e.g., "avg", "p99", "cpu_total", "count"
	Operator  string  // e.g., "<", "<=", ">", ">=", "=="
	Value     float64 // milliseconds for timing aggregates, calls for count
	Raw       string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold against one
// goroutine's snapshot of a site.
type Result struct {
	Threshold Threshold `json:"-" yaml:"-"`
	Raw       string    `json:"threshold" yaml:"threshold"`
	Site      string    `json:"site,omitempty" yaml:"site,omitempty"`
	Goroutine int64     `json:"goroutine,omitempty" yaml:"goroutine,omitempty"`
	Actual    float64   `json:"actual" yaml:"actual"`
	Pass      bool      `json:"pass" yaml:"pass"`
	Message   string    `json:"message" yaml:"message"`
}

// Evaluator evaluates thresholds against collected snapshots.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks every threshold against every matching snapshot. A
// threshold that matches no snapshot fails.
func (e *Evaluator) Evaluate(stats []profiler.Stats) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	var results []Result
	for _, t := range e.thresholds {
		matched := false
		for _, s := range stats {
			if t.Site != AnySite && t.Site != s.Site {
				continue
			}
			matched = true
			results = append(results, evaluateOne(t, s))
		}
		if !matched {
			results = append(results, Result{
				Threshold: t,
				Raw:       t.Raw,
				Message:   fmt.Sprintf("✗ %s: no reports for site %q", t.Raw, t.Site),
			})
		}
	}
	return results
}

// Failed counts results that did not pass.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Pass {
			n++
		}
	}
	return n
}

func evaluateOne(t Threshold, s profiler.Stats) Result {
	res := Result{
		Threshold: t,
		Raw:       t.Raw,
		Site:      s.Site,
		Goroutine: s.Goroutine,
	}
	actual, err := extractValue(t.Aggregate, s)
	if err != nil {
		res.Message = fmt.Sprintf("error: %s [goroutine %d]: %v", t.Raw, s.Goroutine, err)
		return res
	}

	res.Actual = actual
	res.Pass = compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !res.Pass {
		status = "✗"
	}
	res.Message = fmt.Sprintf("%s %s [%s, goroutine %d]: %.5f %s %.5f",
		status, t.Raw, s.Site, s.Goroutine, actual, t.Operator, t.Value)
	return res
}

var thresholdPattern = regexp.MustCompile(`^(\S+):([a-z0-9_]+)\s*([<>=!]+)\s*([0-9]*\.?[0-9]+)$`)

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
// - "workload.Compute:avg < 5"      (mean wall time in ms)
// - "workload.Compute:p99 <= 20"    (wall percentile in ms, needs percentiles)
// - "workload.Flaky:cpu_total < 100" (total thread CPU time in ms)
// - "*:count >= 1000"               (calls, applied to every site)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := thresholdPattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: site:aggregate operator value, e.g., 'workload.Compute:avg < 5')", s)
	}

	site := matches[1]
	aggregate := matches[2]
	operator := matches[3]
	valueStr := matches[4]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	if !isValidAggregate(aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate: %q (supported: %s)", aggregate, strings.Join(validAggregates, ", "))
	}

	if !isValidOperator(operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Site:      site,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errors []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errors = append(errors, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errors, "; "))
	}

	return result, nil
}

var validAggregates = []string{
	"count", "avg", "min", "max", "total",
	"p50", "p90", "p99",
	"cpu_avg", "cpu_total", "cpu_max",
}

func isValidAggregate(aggregate string) bool {
	for _, v := range validAggregates {
		if aggregate == v {
			return true
		}
	}
	return false
}

func isValidOperator(operator string) bool {
	valid := []string{"<", "<=", ">", ">=", "=="}
	for _, v := range valid {
		if operator == v {
			return true
		}
	}
	return false
}

func extractValue(aggregate string, s profiler.Stats) (float64, error) {
	switch aggregate {
	case "count":
		return float64(s.Count), nil
	case "avg":
		return s.Wall.MeanMs, nil
	case "min":
		return s.Wall.MinMs, nil
	case "max":
		return s.Wall.MaxMs, nil
	case "total":
		return s.Wall.TotalMs, nil
	case "p50", "p90", "p99":
		if !s.Wall.Percentiles {
			return 0, fmt.Errorf("percentiles are not tracked (enable --percentiles)")
		}
		switch aggregate {
		case "p50":
			return s.Wall.P50Ms, nil
		case "p90":
			return s.Wall.P90Ms, nil
		default:
			return s.Wall.P99Ms, nil
		}
	case "cpu_avg", "cpu_total", "cpu_max":
		if s.CPU == nil {
			return 0, fmt.Errorf("thread CPU time is not tracked")
		}
		switch aggregate {
		case "cpu_avg":
			return s.CPU.MeanMs, nil
		case "cpu_total":
			return s.CPU.TotalMs, nil
		default:
			return s.CPU.MaxMs, nil
		}
	default:
		return 0, fmt.Errorf("unsupported aggregate %q", aggregate)
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	// Handle floating point comparison with small epsilon
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
