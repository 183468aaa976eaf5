// Package sagas runs multi-step operations as an ordered pipeline with
// per-step retry and optional compensation for the steps already applied.
package sagas

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Step is one unit of a saga. Execute receives the previous step's output.
// Compensate, when set, undoes the step if a later one fails.
type Step struct {
	Name       string
	Execute    func(ctx context.Context, data interface{}) (interface{}, error)
	Compensate func(ctx context.Context, data interface{}) error
	MaxRetries int
	RetryDelay time.Duration
}

// State tracks a saga through its lifecycle
type State string

const (
	StatePending     State = "PENDING"
	StateRunning     State = "RUNNING"
	StateCompleted   State = "COMPLETED"
	StateFailed      State = "FAILED"
	StateCompensated State = "COMPENSATED"
)

// Saga executes steps in order, compensating completed ones on failure
type Saga struct {
	id     string
	name   string
	steps  []Step
	state  State
	logger *zap.Logger
}

// New creates an empty saga
func New(name string, logger *zap.Logger) *Saga {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Saga{
		id:     uuid.New().String(),
		name:   name,
		state:  StatePending,
		logger: logger,
	}
}

// AddStep appends a step
func (s *Saga) AddStep(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// State returns the saga's current state
func (s *Saga) State() State {
	return s.state
}

// Execute runs every step in order. The first failure stops the pipeline,
// runs compensations for the completed steps in reverse order and returns
// the step's error.
func (s *Saga) Execute(ctx context.Context, initial interface{}) (interface{}, error) {
	s.state = StateRunning
	s.logger.Debug("saga started",
		zap.String("saga_id", s.id),
		zap.String("saga", s.name),
		zap.Int("steps", len(s.steps)),
	)

	data := initial
	var completed []appliedStep

	for i, step := range s.steps {
		result, err := s.runWithRetry(ctx, step, data)
		if err != nil {
			s.state = StateFailed
			s.logger.Warn("saga step failed",
				zap.String("saga_id", s.id),
				zap.String("step", step.Name),
				zap.Int("step_number", i+1),
				zap.Error(err),
			)
			s.compensate(ctx, completed)
			return nil, fmt.Errorf("saga %s failed at step %s: %w", s.name, step.Name, err)
		}

		data = result
		if step.Compensate != nil {
			completed = append(completed, appliedStep{step: step, data: data})
		}
	}

	s.state = StateCompleted
	return data, nil
}

func (s *Saga) runWithRetry(ctx context.Context, step Step, data interface{}) (interface{}, error) {
	var lastErr error
	for attempt := 0; attempt <= step.MaxRetries; attempt++ {
		if attempt > 0 && step.RetryDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(step.RetryDelay):
			}
		}
		result, err := step.Execute(ctx, data)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// appliedStep pairs a completed step with the data it produced, kept for
// compensation
type appliedStep struct {
	step Step
	data interface{}
}

func (s *Saga) compensate(ctx context.Context, completed []appliedStep) {
	for i := len(completed) - 1; i >= 0; i-- {
		entry := completed[i]
		if err := entry.step.Compensate(ctx, entry.data); err != nil {
			s.logger.Error("saga compensation failed",
				zap.String("saga_id", s.id),
				zap.String("step", entry.step.Name),
				zap.Error(err),
			)
			return
		}
	}
	s.state = StateCompensated
}
