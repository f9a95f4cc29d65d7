package engine

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestPoolRunsTasks(t *testing.T) {
	pool := NewPool(4, 16)

	var count atomic.Int64
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			count.Add(1)
		}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	wg.Wait()
	pool.Shutdown()

	if got := count.Load(); got != 10 {
		t.Errorf("ran %d tasks, want 10", got)
	}
}

func TestPoolBackpressure(t *testing.T) {
	pool := NewPool(1, 0)
	defer pool.Shutdown()

	block := make(chan struct{})
	started := make(chan struct{})

	if err := pool.Submit(func() {
		close(started)
		<-block
	}); err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}
	<-started

	// The single worker is busy and the queue holds nothing
	if err := pool.Submit(func() {}); err != ErrQueueFull {
		t.Errorf("got %v, want ErrQueueFull", err)
	}

	close(block)
}

func TestPoolRejectsAfterShutdown(t *testing.T) {
	pool := NewPool(2, 4)
	pool.Shutdown()

	if err := pool.Submit(func() {}); err != ErrPoolClosed {
		t.Errorf("got %v, want ErrPoolClosed", err)
	}
}
