package scenarios

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AntonStoeckl/eventqueries-go/eventqueries"
)

const (
	logMsgScenarioCompleted = "scenario completed"
	logAttrScenario         = "scenario"
	logAttrDurationMS       = "duration_ms"
)

// Result is the value a scenario produced.
type Result struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Value       any           `json:"value"`
	Duration    time.Duration `json:"-"`
}

// Runner executes scenarios against one event source.
type Runner struct {
	source     EventSource
	concurrent bool
	logger     eventqueries.Logger
}

type RunnerOption func(*Runner)

// Concurrently runs every scenario in its own goroutine. The source must be safe for concurrent use.
func Concurrently() RunnerOption {
	return func(r *Runner) {
		r.concurrent = true
	}
}

// WithLogger logs one info record per completed scenario.
func WithLogger(logger eventqueries.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

func NewRunner(source EventSource, options ...RunnerOption) Runner {
	r := Runner{source: source}
	for _, option := range options {
		option(&r)
	}

	return r
}

// Run executes scenarios and returns their results in scenario order.
// The first failure is returned as `scenario "<name>" failed: <cause>` and no results are returned.
func (r Runner) Run(ctx context.Context, scenarios []Scenario) ([]Result, error) {
	results := make([]Result, len(scenarios))

	if !r.concurrent {
		for i, scenario := range scenarios {
			result, err := r.runOne(ctx, scenario)
			if err != nil {
				return nil, err
			}

			results[i] = result
		}

		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, scenario := range scenarios {
		g.Go(func() error {
			result, err := r.runOne(gctx, scenario)
			if err != nil {
				return err
			}

			results[i] = result

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func (r Runner) runOne(ctx context.Context, scenario Scenario) (Result, error) {
	start := time.Now()

	value, err := scenario.Run(ctx, r.source.Events())
	if err != nil {
		return Result{}, fmt.Errorf("scenario %q failed: %w", scenario.Name, err)
	}

	duration := time.Since(start)
	if r.logger != nil {
		r.logger.Info(
			logMsgScenarioCompleted,
			logAttrScenario, scenario.Name,
			logAttrDurationMS, math.Round(float64(duration.Nanoseconds())/1e3)/1e3,
		)
	}

	return Result{Name: scenario.Name, Description: scenario.Description, Value: value, Duration: duration}, nil
}
