package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/torosent/funcprof/internal/config"
	"github.com/torosent/funcprof/internal/logger"
	"github.com/torosent/funcprof/internal/metrics"
	"github.com/torosent/funcprof/internal/output"
	"github.com/torosent/funcprof/internal/profiler"
	"github.com/torosent/funcprof/internal/runner"
	"github.com/torosent/funcprof/internal/threshold"
	"github.com/torosent/funcprof/internal/tracing"
	"github.com/torosent/funcprof/internal/workload"
)

const (
	baseRetryDelay  = 10 * time.Millisecond
	maxRetryDelay   = time.Second
	shutdownTimeout = 5 * time.Second
)

type jitterSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	log, err := logger.NewWithWriter(stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Flush(log)
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	runID := ulid.Make().String()
	log = log.With(zap.String("run_id", runID))
	ctx = logger.NewContext(ctx, log)

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if serr := provider.Shutdown(shutdownCtx); serr != nil {
			log.Warn("tracing shutdown failed", zap.Error(serr))
		}
	}()

	recorder := profiler.NewRecorder()
	sink := profiler.MultiSink{recorder}
	switch cfg.Sink {
	case config.SinkText:
		sink = append(sink, profiler.NewWriterSink(liveOutput(cfg, stdout, stderr)))
	case config.SinkLog:
		sink = append(sink, profiler.NewLogSink(log))
	}
	var result runner.Result
	if provider.Enabled() {
		spanCtx, runSpan := tracing.StartRunSpan(ctx, provider.Tracer(), runID)
		sink = append(sink, tracing.NewSpanSink(spanCtx, provider.Tracer()))
		defer func() {
			tracing.EndSpan(runSpan, err,
				attribute.Int64("funcprof.calls", result.Total),
				attribute.Int64("funcprof.errors", result.Errors),
			)
		}()
	}

	task := runner.Task(workload.Spec{
		N:         uint64(cfg.Factorial),
		Pause:     cfg.Pause,
		FailEvery: cfg.FailEvery,
	}.Task())
	if cfg.LogFailures {
		task = runner.WithLogging(task, logger.FailureLogger{Log: log})
	}
	if cfg.Retries > 0 {
		task = runner.WithRetry(task, newRetryPolicy(cfg.Retries))
	}

	tally := metrics.NewErrorTally()
	r := runner.New(runner.Options{
		Workers:       cfg.Workers,
		Calls:         cfg.Calls,
		Duration:      cfg.Duration,
		RatePerSecond: cfg.Rate,
		Task:          task,
		Errors:        tally,
		Profiler: profiler.Options{
			Interval:     cfg.ReportInterval,
			Sink:         sink,
			NoCPUTime:    !cfg.CPUTime,
			Percentiles:  cfg.Percentiles,
			LockOSThread: cfg.LockThreads,
			Disabled:     cfg.Disabled,
		},
	})

	log.Info("run started",
		zap.Int("workers", cfg.Workers),
		zap.Int("calls", cfg.Calls),
		zap.Duration("duration", cfg.Duration),
		zap.Bool("profiling", profiler.Enabled && !cfg.Disabled),
	)
	started := time.Now()
	result = r.Run(ctx)
	log.Info("run finished",
		zap.Int64("calls", result.Total),
		zap.Int64("errors", result.Errors),
		zap.Duration("elapsed", result.Duration),
	)

	report := output.NewReport(runID, started, result.Duration, cfg.Workers, result.Total, result.Errors, recorder.Stats())
	report.ErrorBreakdown = tally.Breakdown()
	report.Thresholds = threshold.NewEvaluator(thresholds).Evaluate(report.Sites)

	if cfg.Output != "" {
		if err := output.WriteFile(cfg.Output, string(cfg.Format), report); err != nil {
			return err
		}
		log.Info("report written", zap.String("path", cfg.Output), zap.String("format", string(cfg.Format)))
	} else if err := output.Write(stdout, string(cfg.Format), report); err != nil {
		return err
	}

	if failed := threshold.Failed(report.Thresholds); failed > 0 {
		for _, res := range report.Thresholds {
			if !res.Pass {
				log.Warn("threshold failed", zap.String("threshold", res.Raw), zap.String("result", res.Message))
			}
		}
		return fmt.Errorf("%d of %d threshold checks failed", failed, len(report.Thresholds))
	}
	return nil
}

// liveOutput keeps machine-readable summaries on stdout free of live report lines.
func liveOutput(cfg *config.Config, stdout, stderr io.Writer) io.Writer {
	if cfg.Output == "" && cfg.Format != config.FormatText {
		return stderr
	}
	return stdout
}

func newRetryPolicy(retries int) runner.RetryPolicy {
	source := &jitterSource{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}

	return runner.RetryPolicy{
		MaxAttempts: retries + 1,
		ShouldRetry: func(err error) bool {
			if err == nil {
				return false
			}
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		},
		DelayFunc: func(attempt int, err error) time.Duration {
			if attempt < 1 {
				attempt = 1
			}
			backoff := time.Duration(1<<uint(attempt-1)) * baseRetryDelay
			if backoff > maxRetryDelay {
				backoff = maxRetryDelay
			}
			return backoff + source.jitter(backoff/2)
		},
	}
}

func (j *jitterSource) jitter(max time.Duration) time.Duration {
	if j == nil || max <= 0 {
		return 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return time.Duration(j.rnd.Int63n(int64(max)))
}
