package pipeline

import (
	"sync"
	"testing"
	"time"
)

func TestQueueJoinWaitsForAcknowledgements(t *testing.T) {
	q := NewQueue(8)
	stop := make(chan struct{})

	for i := 0; i < 5; i++ {
		q.Push(Item{Name: "item"})
	}

	joined := make(chan struct{})
	go func() {
		q.Join()
		close(joined)
	}()

	select {
	case <-joined:
		t.Fatal("Join returned before any acknowledgements")
	case <-time.After(20 * time.Millisecond):
	}

	for i := 0; i < 5; i++ {
		if _, ok := q.Pop(stop); !ok {
			t.Fatal("Pop interrupted unexpectedly")
		}
		q.TaskDone()
	}

	select {
	case <-joined:
	case <-time.After(time.Second):
		t.Fatal("Join did not return after all acknowledgements")
	}
}

func TestQueueJoinIdempotent(t *testing.T) {
	q := NewQueue(4)
	stop := make(chan struct{})

	q.Push(Item{Name: "a"})
	msg, _ := q.Pop(stop)
	if msg.shutdown {
		t.Fatal("expected work item, got sentinel")
	}
	q.TaskDone()

	done := make(chan struct{})
	go func() {
		q.Join()
		q.Join()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("repeated Join blocked after completion")
	}
}

func TestQueueSentinelTagged(t *testing.T) {
	q := NewQueue(4)
	stop := make(chan struct{})

	q.PushShutdown()
	msg, ok := q.Pop(stop)
	if !ok {
		t.Fatal("Pop interrupted")
	}
	if !msg.shutdown {
		t.Fatal("sentinel not tagged as shutdown")
	}
	q.TaskDone()
	q.Join()
}

func TestQueuePopInterruptedByStop(t *testing.T) {
	q := NewQueue(4)
	stop := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, ok := q.Pop(stop); ok {
			t.Error("Pop returned a message from an empty queue")
		}
	}()

	close(stop)
	wg.Wait()
}

func TestQueueConcurrentProducersConsumers(t *testing.T) {
	q := NewQueue(16)
	stop := make(chan struct{})
	const producers, perProducer, consumers = 4, 25, 3

	var pwg sync.WaitGroup
	for p := 0; p < producers; p++ {
		pwg.Add(1)
		go func() {
			defer pwg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(Item{Name: "x"})
			}
		}()
	}

	for w := 0; w < consumers; w++ {
		go func() {
			for {
				msg, ok := q.Pop(stop)
				if !ok {
					return
				}
				if msg.shutdown {
					q.TaskDone()
					return
				}
				q.TaskDone()
			}
		}()
	}

	pwg.Wait()
	for w := 0; w < consumers; w++ {
		q.PushShutdown()
	}
	q.Join()
	if got := q.Pending(); got != 0 {
		t.Fatalf("expected 0 pending after join, got %d", got)
	}
}
