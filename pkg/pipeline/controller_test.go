package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestControllerShutdownUnblocksWorkerParkedOnFullQueue guards spec §3's
// bounded-shutdown requirement: a worker parked on Queue.Put because its
// downstream consumer stopped reading (e.g. the Presenter already
// exited) must still be joined by Controller.Wait within a bounded time,
// not hang forever waiting on a sync.Cond that never observes ctx.
func TestControllerShutdownUnblocksWorkerParkedOnFullQueue(t *testing.T) {
	q := NewQueue[int](1)
	q.Put(0) // fill it so the next Put blocks

	ctrl := NewController(context.Background())
	ctrl.Go(func(ctx context.Context) error {
		q.Put(1) // blocks until Close, since nothing drains q
		if ctx.Err() != nil {
			return nil
		}
		return nil
	})

	ctrl.Stop(nil)
	q.Close() // the fix under test: wakes the parked Put

	done := make(chan error, 1)
	go func() { done <- ctrl.Wait() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("controller did not shut down within the bounded time (spec: 2s)")
	}
}
