// Package extensions lets deployments observe command dispatch without
// touching the handlers. Hooks run synchronously in registration order.
package extensions

import (
	"context"
	"fmt"
	"sync"
)

// HookPoint is a named point in the dispatch path where hooks run
type HookPoint string

const (
	HookBeforeCommand HookPoint = "before_command"
	HookAfterCommand  HookPoint = "after_command"
	HookCommandFailed HookPoint = "command_failed"

	// Attempt lifecycle points, fired by deployments that register their
	// own command wrappers
	HookAttemptOpened    HookPoint = "attempt_opened"
	HookFeedbackAttached HookPoint = "feedback_attached"
	HookAnswerRecorded   HookPoint = "answer_recorded"
)

// Hook is one callback. A non-nil error from a before hook aborts the
// command; errors from after and failure hooks are ignored by the caller.
type Hook func(ctx context.Context, data HookData) error

// HookData describes the dispatch being observed
type HookData struct {
	Command string
	Error   error
}

// HookManager holds registered hooks per point
type HookManager struct {
	hooks map[HookPoint][]Hook
	mu    sync.RWMutex
}

// NewHookManager creates an empty registry
func NewHookManager() *HookManager {
	return &HookManager{hooks: make(map[HookPoint][]Hook)}
}

// Register adds a hook at the given point
func (m *HookManager) Register(point HookPoint, hook Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks[point] = append(m.hooks[point], hook)
}

// Execute runs the hooks registered at the point, stopping at the first
// error
func (m *HookManager) Execute(ctx context.Context, point HookPoint, data HookData) error {
	m.mu.RLock()
	hooks := m.hooks[point]
	m.mu.RUnlock()

	for i, hook := range hooks {
		if err := hook(ctx, data); err != nil {
			return fmt.Errorf("hook %d at %s: %w", i, point, err)
		}
	}
	return nil
}

// Clear removes all hooks at the point
func (m *HookManager) Clear(point HookPoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.hooks, point)
}
