package runner

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/torosent/funcprof/internal/logger"
	"github.com/torosent/funcprof/internal/profiler"
)

// Result captures execution summary.
type Result struct {
	Total    int64
	Errors   int64
	Duration time.Duration
}

// Runner executes a task on a pool of workers.
type Runner struct {
	opt Options
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt}
}

// Run blocks until every worker has finished. Worker registries are closed
// before Run returns, so all final reports have reached the sink.
func (r *Runner) Run(ctx context.Context) Result {
	start := time.Now()
	var total int64
	var errs int64

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if r.opt.Duration > 0 {
		deadlineCtx, deadlineCancel := context.WithTimeout(ctx, r.opt.Duration)
		ctx = deadlineCtx
		defer deadlineCancel()
	}

	log := logger.FromContext(ctx)
	group := profiler.NewGroup(r.opt.Profiler)
	for i := 0; i < r.opt.Workers; i++ {
		group.Go(func(l *profiler.Local) {
			limiter := r.opt.LimiterFactory(r.opt.RatePerSecond)
			workerCtx := profiler.NewContext(ctx, l)
			done := 0
			defer func() {
				log.Debug("worker finished",
					zap.Int64("goroutine", l.Goroutine()),
					zap.Int("calls", done),
				)
			}()
			for call := 1; r.opt.Calls == 0 || call <= r.opt.Calls; call++ {
				if workerCtx.Err() != nil {
					return
				}
				if err := limiter.Wait(workerCtx); err != nil {
					return
				}
				done++
				atomic.AddInt64(&total, 1)
				if r.opt.Task == nil {
					continue
				}
				if err := r.opt.Task(workerCtx, l, call); err != nil {
					atomic.AddInt64(&errs, 1)
					if r.opt.Errors != nil {
						r.opt.Errors.Record(err)
					}
				}
			}
		})
	}
	group.Wait()

	return Result{
		Total:    atomic.LoadInt64(&total),
		Errors:   atomic.LoadInt64(&errs),
		Duration: time.Since(start),
	}
}
