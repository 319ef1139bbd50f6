package pipeline

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueuePutTakeOrder(t *testing.T) {
	q := NewQueue[int](4)
	q.Put(1)
	q.Put(2)
	q.Put(3)
	assert.Equal(t, 1, q.Take())
	assert.Equal(t, 2, q.Take())
	assert.Equal(t, 3, q.Take())
}

func TestQueueNeverExceedsCapacity(t *testing.T) {
	q := NewQueue[int](2)
	q.Put(1)
	q.Put(2)
	assert.Equal(t, 2, q.Len())

	done := make(chan struct{})
	go func() {
		q.Put(3) // must block until a slot frees up
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, q.Len(), "Put should block while queue is full")

	q.Take()
	<-done
	assert.Equal(t, 2, q.Len())
}

func TestQueueTakeBlocksUntilPut(t *testing.T) {
	q := NewQueue[string](1)
	var wg sync.WaitGroup
	wg.Add(1)
	var got string
	go func() {
		defer wg.Done()
		got = q.Take()
	}()

	time.Sleep(20 * time.Millisecond)
	q.Put("hello")
	wg.Wait()
	assert.Equal(t, "hello", got)
}

func TestQueueClearDropsBufferedItems(t *testing.T) {
	q := NewQueue[int](4)
	q.Put(1)
	q.Put(2)
	q.Clear()
	assert.Equal(t, 0, q.Len())

	// A producer blocked on a full queue must be released by Clear.
	q2 := NewQueue[int](1)
	q2.Put(1)
	done := make(chan struct{})
	go func() {
		q2.Put(2)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	q2.Clear()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Put did not unblock after Clear")
	}
}
