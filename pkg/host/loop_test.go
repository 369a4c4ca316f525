package host

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLoopFIFOOrder(t *testing.T) {
	loop := NewLoop()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		loop.Post(func() { order = append(order, i) })
	}
	loop.RunUntilIdle()

	if len(order) != 5 {
		t.Fatalf("expected 5 tasks run, got %d", len(order))
	}
	for i, got := range order {
		if got != i {
			t.Errorf("task %d ran at position %d", got, i)
		}
	}
}

func TestLoopTasksCanPostTasks(t *testing.T) {
	loop := NewLoop()
	ran := false
	loop.Post(func() {
		loop.Post(func() { ran = true })
	})
	loop.RunUntilIdle()

	if !ran {
		t.Error("task posted by a task should run before idle")
	}
}

func TestLoopPostAfterClose(t *testing.T) {
	loop := NewLoop()
	loop.Close()
	if loop.Post(func() {}) {
		t.Error("Post after Close should return false")
	}
}

func TestLoopPostNil(t *testing.T) {
	loop := NewLoop()
	if loop.Post(nil) {
		t.Error("Post(nil) should return false")
	}
}

func TestLoopRunStopsOnClose(t *testing.T) {
	loop := NewLoop()
	done := make(chan error, 1)
	go func() {
		done <- loop.Run(context.Background())
	}()

	var mu sync.Mutex
	count := 0
	loop.Post(func() {
		mu.Lock()
		count++
		mu.Unlock()
	})

	// Give the loop a moment to drain, then close.
	time.Sleep(20 * time.Millisecond)
	loop.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v after Close, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("expected the posted task to run once, ran %d times", count)
	}
}

func TestLoopRunStopsOnContextCancel(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- loop.Run(ctx)
	}()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestLoopPanickingTaskDoesNotStopLoop(t *testing.T) {
	loop := NewLoop()
	ran := false
	loop.Post(func() { panic("boom") })
	loop.Post(func() { ran = true })
	loop.RunUntilIdle()

	if !ran {
		t.Error("task after a panicking task should still run")
	}
}
