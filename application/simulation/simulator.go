// Package simulation provides instrumented stand-ins for downstream
// calls: each simulated operation runs inside a trace subsegment, injects
// latency drawn from a configured range, and fails with a configured
// probability. Handlers use it to exercise the full instrumentation
// pipeline without real dependencies.
package simulation

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"pulse-backend/pkg/logging"
	"pulse-backend/pkg/observability"

	"go.uber.org/zap"
)

// Operation outcome statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the outcome of one simulated operation
type Result struct {
	Status    string `json:"status"`
	Operation string `json:"operation"`
}

// LatencyRange bounds the uniform latency draw for one operation class
type LatencyRange struct {
	Min time.Duration
	Max time.Duration
}

// Simulator runs simulated downstream operations. Safe for concurrent
// use by multiple requests; the random source is guarded because
// math/rand sources are not.
type Simulator struct {
	recorder *observability.Recorder
	database LatencyRange
	external LatencyRange

	mu    sync.Mutex
	rng   *rand.Rand
	sleep func(time.Duration)
}

// Option customizes a Simulator, used by tests to pin down randomness
// and skip real sleeps
type Option func(*Simulator)

// WithRandSource replaces the random source used for failure draws and
// latency selection
func WithRandSource(src rand.Source) Option {
	return func(s *Simulator) {
		s.rng = rand.New(src)
	}
}

// WithSleep replaces the blocking delay implementation
func WithSleep(sleep func(time.Duration)) Option {
	return func(s *Simulator) {
		s.sleep = sleep
	}
}

// NewSimulator creates a simulator recording subsegments on the given
// recorder
func NewSimulator(recorder *observability.Recorder, database, external LatencyRange, opts ...Option) *Simulator {
	s := &Simulator{
		recorder: recorder,
		database: database,
		external: external,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SimulateDatabase runs a simulated database operation inside a
// subsegment named database_<name>
func (s *Simulator) SimulateDatabase(ctx context.Context, name string, failureRate float64) Result {
	return s.run(ctx, "database_"+name, name, s.database, failureRate,
		fmt.Sprintf("Database operation '%s'", name))
}

// SimulateExternalAPI runs a simulated external API call inside a
// subsegment named external_api_<name>
func (s *Simulator) SimulateExternalAPI(ctx context.Context, name string, failureRate float64) Result {
	return s.run(ctx, "external_api_"+name, name, s.external, failureRate,
		fmt.Sprintf("API call to '%s'", name))
}

// run performs exactly one latency sleep and one failure draw. Retries
// belong to callers, never here. The subsegment close is deferred so an
// early return or panic still balances the stack; with tracing disabled
// the recorder hands back an inert handle and the behavior below is
// otherwise identical.
func (s *Simulator) run(ctx context.Context, segmentName, operation string, latency LatencyRange, failureRate float64, describe string) Result {
	logger := logging.FromContext(ctx)

	sub := s.recorder.BeginSubsegment(ctx, segmentName)
	defer func() {
		if err := sub.Close(); err != nil {
			logger.Warn("failed to close operation subsegment",
				zap.String("operation", operation), zap.Error(err))
		}
	}()

	delay, failed := s.draw(latency, failureRate)
	s.sleep(delay)

	if failed {
		logger.Error(describe+" failed",
			zap.String("operation", operation),
			zap.Duration("simulated_latency", delay),
		)
		sub.RecordException(fmt.Sprintf("operation %s failure", operation))
		return Result{Status: StatusError, Operation: operation}
	}

	logger.Info(describe+" completed",
		zap.String("operation", operation),
		zap.Duration("simulated_latency", delay),
	)
	return Result{Status: StatusSuccess, Operation: operation}
}

// draw picks the latency and the failure outcome under one lock so
// concurrent requests never interleave reads of the random source
func (s *Simulator) draw(latency LatencyRange, failureRate float64) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delay := latency.Min
	if span := latency.Max - latency.Min; span > 0 {
		delay += time.Duration(s.rng.Float64() * float64(span))
	}
	return delay, s.rng.Float64() < failureRate
}
