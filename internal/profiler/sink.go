package profiler

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Sink receives reports. Sinks are shared between goroutines and must be
// safe for concurrent use.
type Sink interface {
	Report(s Stats)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(s Stats)

// Report implements Sink.
func (f SinkFunc) Report(s Stats) { f(s) }

// MultiSink fans a report out to several sinks in order.
type MultiSink []Sink

// Report implements Sink.
func (m MultiSink) Report(s Stats) {
	for _, sink := range m {
		if sink != nil {
			sink.Report(s)
		}
	}
}

// Discard drops every report.
var Discard Sink = SinkFunc(func(Stats) {})

// FormatLine renders s as a single human-readable line.
func FormatLine(s Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s #%d, avg %.5fms, tot %.5fms, min %.5fms, max %.5fms",
		s.Prefix, s.Count, s.Wall.MeanMs, s.Wall.TotalMs, s.Wall.MinMs, s.Wall.MaxMs)
	if s.Wall.Percentiles {
		fmt.Fprintf(&b, ", p50 %.5fms, p90 %.5fms, p99 %.5fms",
			s.Wall.P50Ms, s.Wall.P90Ms, s.Wall.P99Ms)
	}
	if s.CPU != nil {
		fmt.Fprintf(&b, ", cpu avg %.5fms, cpu tot %.5fms", s.CPU.MeanMs, s.CPU.TotalMs)
	}
	if s.Final {
		b.WriteString(" (final)")
	}
	return b.String()
}

// WriterSink writes one FormatLine per report.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink returns a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	if w == nil {
		w = io.Discard
	}
	return &WriterSink{w: w}
}

// Report implements Sink.
func (s *WriterSink) Report(st Stats) {
	line := FormatLine(st)
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, line)
}

// LogSink emits reports as structured zap entries.
type LogSink struct {
	log *zap.Logger
}

// NewLogSink returns a sink logging at info level on log.
func NewLogSink(log *zap.Logger) *LogSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogSink{log: log}
}

// Report implements Sink.
func (s *LogSink) Report(st Stats) {
	fields := []zap.Field{
		zap.String("site", st.Site),
		zap.Int64("goroutine", st.Goroutine),
		zap.Uint64("count", st.Count),
		zap.Float64("avg_ms", st.Wall.MeanMs),
		zap.Float64("total_ms", st.Wall.TotalMs),
		zap.Float64("min_ms", st.Wall.MinMs),
		zap.Float64("max_ms", st.Wall.MaxMs),
	}
	if st.Wall.Percentiles {
		fields = append(fields,
			zap.Float64("p50_ms", st.Wall.P50Ms),
			zap.Float64("p90_ms", st.Wall.P90Ms),
			zap.Float64("p99_ms", st.Wall.P99Ms),
		)
	}
	if st.CPU != nil {
		fields = append(fields,
			zap.Float64("cpu_avg_ms", st.CPU.MeanMs),
			zap.Float64("cpu_total_ms", st.CPU.TotalMs),
		)
	}
	fields = append(fields, zap.Bool("final", st.Final))
	s.log.Info("function profile", fields...)
}

type recordKey struct {
	site      string
	goroutine int64
}

// Recorder keeps the latest report of every (goroutine, site) pair.
type Recorder struct {
	mu      sync.Mutex
	latest  map[recordKey]Stats
	reports int
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{latest: make(map[recordKey]Stats)}
}

// Report implements Sink.
func (r *Recorder) Report(st Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latest[recordKey{site: st.Site, goroutine: st.Goroutine}] = st
	r.reports++
}

// Reports returns how many reports have been received.
func (r *Recorder) Reports() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reports
}

// Stats returns the latest report per (goroutine, site), ordered by site and
// then goroutine.
func (r *Recorder) Stats() []Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Stats, 0, len(r.latest))
	for _, st := range r.latest {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Site == out[j].Site {
			return out[i].Goroutine < out[j].Goroutine
		}
		return out[i].Site < out[j].Site
	})
	return out
}
