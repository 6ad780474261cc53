package taskx

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uploadthing/uploadthing-go/internal/logging"
)

func TestParsePolicy(t *testing.T) {
	for _, s := range []string{"ignore", "await", "callback"} {
		p, err := ParsePolicy(s)
		require.NoError(t, err)
		assert.Equal(t, Policy(s), p)
	}

	_, err := ParsePolicy("detach")
	assert.Error(t, err)
}

func TestHandle_WaitReturnsTaskError(t *testing.T) {
	r := NewRunner(PolicyIgnore, nil, logging.Noop{})
	boom := errors.New("boom")

	h := r.Go(context.Background(), "t", func(ctx context.Context) error {
		return boom
	})

	assert.ErrorIs(t, h.Wait(), boom)
}

func TestRunner_AwaitPolicyJoinsAllTasks(t *testing.T) {
	r := NewRunner(PolicyAwait, nil, logging.Noop{})

	var mu sync.Mutex
	done := 0
	for i := 0; i < 5; i++ {
		r.Go(context.Background(), "t", func(ctx context.Context) error {
			time.Sleep(10 * time.Millisecond)
			mu.Lock()
			done++
			mu.Unlock()
			return nil
		})
	}

	r.Wait()
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, done)
}

func TestRunner_CallbackPolicyReportsOutcome(t *testing.T) {
	got := make(chan error, 1)
	r := NewRunner(PolicyCallback, func(name string, err error) {
		assert.Equal(t, "register-metadata", name)
		got <- err
	}, logging.Noop{})

	boom := errors.New("network down")
	r.Go(context.Background(), "register-metadata", func(ctx context.Context) error {
		return boom
	})

	select {
	case err := <-got:
		assert.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatal("onDone never invoked")
	}
}

func TestRunner_TaskSurvivesParentCancellation(t *testing.T) {
	r := NewRunner(PolicyIgnore, nil, logging.Noop{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // parent already gone when the task runs

	h := r.Go(ctx, "t", func(ctx context.Context) error {
		return ctx.Err()
	})

	assert.NoError(t, h.Wait())
}
