package reconcore

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
)

func TestTaskPoolRunsAllTasks(t *testing.T) {
	pool := NewTaskPool(4, nil)

	var counter atomic.Int64
	for i := 0; i < 20; i++ {
		pool.Enqueue(fmt.Sprintf("task_%d", i), func() error {
			counter.Add(1)
			return nil
		})
	}
	pool.Join()

	if counter.Load() != 20 {
		t.Errorf("expected 20 tasks executed, got %d", counter.Load())
	}
	if len(pool.Errors()) != 0 {
		t.Errorf("expected no errors, got %v", pool.Errors())
	}
}

func TestTaskPoolCollectsErrors(t *testing.T) {
	pool := NewTaskPool(2, nil)

	failure := errors.New("boom")
	pool.Enqueue("ok", func() error { return nil })
	pool.Enqueue("fail_1", func() error { return failure })
	pool.Enqueue("fail_2", func() error { return failure })
	pool.Join()

	if got := len(pool.Errors()); got != 2 {
		t.Errorf("expected 2 errors, got %d", got)
	}
}

func TestTaskPoolSizeGuard(t *testing.T) {
	// Zero or negative pool sizes degrade to sequential execution instead
	// of deadlocking.
	pool := NewTaskPool(0, nil)

	done := false
	pool.Enqueue("only", func() error {
		done = true
		return nil
	})
	pool.Join()

	if !done {
		t.Error("task did not run")
	}
}
