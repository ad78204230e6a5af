package runner

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/torosent/funcprof/internal/metrics"
	"github.com/torosent/funcprof/internal/profiler"
)

// Task is one unit of work. call counts from 1 within each worker. The
// registry belongs to the calling worker.
type Task func(ctx context.Context, l *profiler.Local, call int) error

// Options configure the Runner.
type Options struct {
	Workers        int                         // number of worker goroutines
	Calls          int                         // calls per worker (0 means until Duration elapses)
	Duration       time.Duration               // overall time limit (0 means no duration cap)
	RatePerSecond  int                         // per-worker calls per second (0 means unlimited)
	Task           Task                        // work to execute (required)
	Profiler       profiler.Options            // options for every worker's registry
	Errors         *metrics.ErrorTally         // optional failure breakdown
	LimiterFactory func(rps int) *rate.Limiter // optional injection for tests
}

func (o *Options) normalize() {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.Calls < 0 {
		o.Calls = 0
	}
	if o.Duration < 0 {
		o.Duration = 0
	}
	if o.Calls == 0 && o.Duration == 0 {
		o.Calls = 1
	}
	if o.RatePerSecond < 0 {
		o.RatePerSecond = 0
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			return rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}
