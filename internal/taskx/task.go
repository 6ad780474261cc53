// Package taskx provides the detached-task primitive used for work that
// outlives the HTTP response that spawned it: metadata registration on the
// upload path and result push-back on the callback path.
//
// A detached task is never awaited implicitly. Its outcome is observable
// only through an explicit Handle.Wait, the Runner's configured policy, or
// logging.
package taskx

import (
	"context"
	"fmt"
	"sync"

	"github.com/uploadthing/uploadthing-go/internal/logging"
)

// Policy controls what the Runner does with spawned tasks.
type Policy string

const (
	// PolicyIgnore is fire-and-forget: failures are logged, nothing joins.
	PolicyIgnore Policy = "ignore"
	// PolicyAwait tracks every task so the host can block in Runner.Wait
	// before the process exits. Forbidden in development mode, where the
	// metadata registration holds a live stream open and never completes
	// on its own.
	PolicyAwait Policy = "await"
	// PolicyCallback invokes the runner's OnDone hook with each outcome.
	PolicyCallback Policy = "callback"
)

// ParsePolicy validates a policy string from configuration.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyIgnore, PolicyAwait, PolicyCallback:
		return p, nil
	default:
		return "", fmt.Errorf("unknown daemon policy %q", s)
	}
}

// Handle is the join point for one spawned task.
type Handle struct {
	done chan struct{}

	mu  sync.Mutex
	err error
}

// Wait blocks until the task finishes and returns its error.
func (h *Handle) Wait() error {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Runner spawns detached tasks under one policy.
type Runner struct {
	policy Policy
	onDone func(name string, err error)
	logger logging.Logger

	wg sync.WaitGroup
}

// NewRunner builds a Runner. onDone may be nil unless policy is
// PolicyCallback, in which case outcomes would be silently dropped.
func NewRunner(policy Policy, onDone func(name string, err error), logger logging.Logger) *Runner {
	return &Runner{policy: policy, onDone: onDone, logger: logger}
}

// Go runs fn on its own goroutine with a context detached from the parent's
// cancellation: the spawning request finishing must not cancel the task.
// Errors never propagate to the spawner; they reach logs and, depending on
// policy, the OnDone hook or a Wait call.
func (r *Runner) Go(ctx context.Context, name string, fn func(ctx context.Context) error) *Handle {
	h := &Handle{done: make(chan struct{})}

	detached := context.WithoutCancel(ctx)

	if r.policy == PolicyAwait {
		r.wg.Add(1)
	}

	go func() {
		defer close(h.done)
		if r.policy == PolicyAwait {
			defer r.wg.Done()
		}

		err := fn(detached)

		h.mu.Lock()
		h.err = err
		h.mu.Unlock()

		if err != nil {
			r.logger.Error(detached, "detached task failed", "task", name, "error", err.Error())
		}
		if r.policy == PolicyCallback && r.onDone != nil {
			r.onDone(name, err)
		}
	}()

	return h
}

// Wait blocks until all tasks spawned under PolicyAwait have finished.
// Under other policies it returns immediately.
func (r *Runner) Wait() {
	r.wg.Wait()
}
