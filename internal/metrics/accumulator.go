package metrics

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	// Histogram bounds in nanoseconds: 1ns up to 60s, 3 significant figures.
	histLowest  = 1
	histHighest = 60_000_000_000
	histSigFigs = 3
)

// Accumulator records durations for a single owner goroutine.
type Accumulator struct {
	count uint64
	sum   time.Duration
	min   time.Duration
	max   time.Duration
	hist  *hdrhistogram.Histogram
}

// Summary is a point-in-time view of an Accumulator.
type Summary struct {
	Count uint64        `json:"count" yaml:"count"`
	Total time.Duration `json:"-" yaml:"-"`
	Min   time.Duration `json:"-" yaml:"-"`
	Max   time.Duration `json:"-" yaml:"-"`
	Mean  time.Duration `json:"-" yaml:"-"`
	P50   time.Duration `json:"-" yaml:"-"`
	P90   time.Duration `json:"-" yaml:"-"`
	P99   time.Duration `json:"-" yaml:"-"`

	// Percentiles is true when P50/P90/P99 were computed.
	Percentiles bool `json:"-" yaml:"-"`

	// JSON-friendly millisecond fields.
	TotalMs float64 `json:"total_ms" yaml:"total_ms"`
	MinMs   float64 `json:"min_ms" yaml:"min_ms"`
	MaxMs   float64 `json:"max_ms" yaml:"max_ms"`
	MeanMs  float64 `json:"mean_ms" yaml:"mean_ms"`
	P50Ms   float64 `json:"p50_ms,omitempty" yaml:"p50_ms,omitempty"`
	P90Ms   float64 `json:"p90_ms,omitempty" yaml:"p90_ms,omitempty"`
	P99Ms   float64 `json:"p99_ms,omitempty" yaml:"p99_ms,omitempty"`
}

// NewAccumulator returns an empty accumulator. With percentiles set it also
// keeps an HDR histogram, which costs a fixed few tens of kilobytes.
func NewAccumulator(percentiles bool) *Accumulator {
	a := &Accumulator{}
	if percentiles {
		a.hist = hdrhistogram.New(histLowest, histHighest, histSigFigs)
	}
	return a
}

// Record adds one sample. Negative durations count as zero.
func (a *Accumulator) Record(d time.Duration) {
	if d < 0 {
		d = 0
	}
	if a.count == 0 || d < a.min {
		a.min = d
	}
	if d > a.max {
		a.max = d
	}
	a.count++
	a.sum += d

	if a.hist != nil {
		ns := d.Nanoseconds()
		if ns < a.hist.LowestTrackableValue() {
			ns = a.hist.LowestTrackableValue()
		}
		if ns > a.hist.HighestTrackableValue() {
			ns = a.hist.HighestTrackableValue()
		}
		_ = a.hist.RecordValue(ns)
	}
}

// Count returns the number of samples recorded.
func (a *Accumulator) Count() uint64 {
	return a.count
}

// Summary computes the current view of the accumulator.
func (a *Accumulator) Summary() Summary {
	s := Summary{
		Count: a.count,
		Total: a.sum,
		Min:   a.min,
		Max:   a.max,
	}
	if a.count > 0 {
		s.Mean = time.Duration(int64(a.sum) / int64(a.count))
	}
	if a.hist != nil && a.hist.TotalCount() > 0 {
		s.Percentiles = true
		s.P50 = time.Duration(a.hist.ValueAtQuantile(50))
		s.P90 = time.Duration(a.hist.ValueAtQuantile(90))
		s.P99 = time.Duration(a.hist.ValueAtQuantile(99))
	}

	s.TotalMs = Millis(s.Total)
	s.MinMs = Millis(s.Min)
	s.MaxMs = Millis(s.Max)
	s.MeanMs = Millis(s.Mean)
	s.P50Ms = Millis(s.P50)
	s.P90Ms = Millis(s.P90)
	s.P99Ms = Millis(s.P99)
	return s
}

// Millis converts d to fractional milliseconds.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
