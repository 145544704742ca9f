package logstream

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap/zapcore"
)

// DefaultQueueSize bounds each sink's dispatch queue.
const DefaultQueueSize = 256

// Sink receives events from a Transport dispatch loop or an Aggregator.
type Sink interface {
	Consume(Event) error
	Close() error
}

// dispatcher owns one sink: a bounded queue plus the background loop that
// drains it.
type dispatcher struct {
	sink  Sink
	queue chan Event
	flush chan struct{}
	done  chan struct{}
}

func newDispatcher(sink Sink, queueSize int) *dispatcher {
	d := &dispatcher{
		sink:  sink,
		queue: make(chan Event, queueSize),
		flush: make(chan struct{}),
		done:  make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *dispatcher) loop() {
	defer close(d.done)
	for {
		select {
		case ev := <-d.queue:
			_ = d.sink.Consume(ev)
		case <-d.flush:
			for {
				select {
				case ev := <-d.queue:
					_ = d.sink.Consume(ev)
				default:
					return
				}
			}
		}
	}
}

// Transport forwards log events to its sinks asynchronously. It implements
// zapcore.Core, so a zap logger built on it turns every log call into an
// Event without any global logging state: each worker receives an explicit
// logger handle at construction.
type Transport struct {
	level     zapcore.LevelEnabler
	queueSize int
	fields    []zapcore.Field
	shared    *transportState
}

type transportState struct {
	dispatchers []*dispatcher
	closed      atomic.Bool
}

// NewTransport creates a transport at the given level with one dispatch
// loop per sink. queueSize <= 0 selects DefaultQueueSize.
func NewTransport(level zapcore.LevelEnabler, queueSize int, sinks ...Sink) *Transport {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	state := &transportState{}
	for _, s := range sinks {
		state.dispatchers = append(state.dispatchers, newDispatcher(s, queueSize))
	}
	return &Transport{level: level, queueSize: queueSize, shared: state}
}

// Emit queues an event for every sink. It never blocks: when a sink's
// queue is saturated, or the transport is closed, the event is dropped.
func (t *Transport) Emit(ev Event) {
	if t.shared.closed.Load() {
		return
	}
	for _, d := range t.shared.dispatchers {
		select {
		case d.queue <- ev:
		default:
		}
	}
}

// Close marks the transport closed, drains each queue with a bounded
// timeout, then releases the sinks. Events emitted after Close begins are
// best-effort.
func (t *Transport) Close(timeout time.Duration) error {
	if !t.shared.closed.CompareAndSwap(false, true) {
		return nil
	}
	// A closed channel keeps firing, so one absolute deadline covers
	// every dispatcher; time.After would spend its single value on the
	// first stuck sink and leave the rest waiting forever.
	deadline := make(chan struct{})
	timer := time.AfterFunc(timeout, func() { close(deadline) })
	defer timer.Stop()
	for _, d := range t.shared.dispatchers {
		close(d.flush)
	}
	var firstErr error
	for _, d := range t.shared.dispatchers {
		select {
		case <-d.done:
		case <-deadline:
		}
		if err := d.sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Enabled implements zapcore.Core.
func (t *Transport) Enabled(level zapcore.Level) bool {
	return t.level.Enabled(level)
}

// With implements zapcore.Core.
func (t *Transport) With(fields []zapcore.Field) zapcore.Core {
	clone := *t
	clone.fields = append(append([]zapcore.Field(nil), t.fields...), fields...)
	return &clone
}

// Check implements zapcore.Core.
func (t *Transport) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if t.Enabled(entry.Level) {
		return checked.AddCore(entry, t)
	}
	return checked
}

// Write implements zapcore.Core: the entry is rendered into a
// self-contained Event at the producing call site, then queued.
func (t *Transport) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	all := fields
	if len(t.fields) > 0 {
		all = append(append([]zapcore.Field(nil), t.fields...), fields...)
	}
	t.Emit(NewEvent(entry, all))
	return nil
}

// Sync implements zapcore.Core. Delivery is asynchronous; Sync is a no-op.
func (t *Transport) Sync() error { return nil }
