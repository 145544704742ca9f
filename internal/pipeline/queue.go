package pipeline

import (
	"sync"
)

// message is the tagged variant flowing through the build queue: either a
// work item or a shutdown sentinel. Modeling the sentinel explicitly forces
// exhaustive handling at the worker loop.
type message struct {
	item     Item
	shutdown bool
}

// Queue is a multi-producer/multi-consumer joinable queue. Every pushed
// message (items and sentinels alike) must be acknowledged with TaskDone;
// Join blocks until the acknowledged count matches the pushed count.
type Queue struct {
	ch chan message

	mu      sync.Mutex
	drained *sync.Cond
	pending int
}

// NewQueue creates a queue with the given channel capacity. Pushes beyond
// capacity block the producer, giving natural backpressure.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 64
	}
	q := &Queue{ch: make(chan message, capacity)}
	q.drained = sync.NewCond(&q.mu)
	return q
}

// Push enqueues a work item.
func (q *Queue) Push(it Item) {
	q.track()
	q.ch <- message{item: it}
}

// PushShutdown enqueues one shutdown sentinel. Each worker that observes a
// sentinel acknowledges it and exits, so exactly one sentinel per live
// worker guarantees a clean stop.
func (q *Queue) PushShutdown() {
	q.track()
	q.ch <- message{shutdown: true}
}

// Pop blocks until a message is available or stop is closed. The second
// return is false when the pop was interrupted by stop.
func (q *Queue) Pop(stop <-chan struct{}) (message, bool) {
	select {
	case msg := <-q.ch:
		return msg, true
	case <-stop:
		return message{}, false
	}
}

// TaskDone acknowledges one previously popped message.
func (q *Queue) TaskDone() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending--
	if q.pending <= 0 {
		q.drained.Broadcast()
	}
}

// Join blocks until every pushed message has been acknowledged. Calling
// Join after the queue has drained returns immediately.
func (q *Queue) Join() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.pending > 0 {
		q.drained.Wait()
	}
}

// Pending reports the number of pushed but not yet acknowledged messages.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}

func (q *Queue) track() {
	q.mu.Lock()
	q.pending++
	q.mu.Unlock()
}
