package logstream

import (
	"fmt"
	"io"
	"sync"
)

// ConsoleSink writes events as plain lines, levelname padded the way the
// terminal console expects.
type ConsoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleSink creates a console sink over w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

// Consume implements Sink.
func (s *ConsoleSink) Consume(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := ev.Logger
	if name == "" {
		name = "root"
	}
	_, err := fmt.Fprintf(s.w, "%-8s %s %s%s\n", ev.Level, name, ev.Message, renderFields(ev.Fields))
	return err
}

// Close implements Sink.
func (s *ConsoleSink) Close() error { return nil }

func renderFields(fields map[string]string) string {
	if len(fields) == 0 {
		return ""
	}
	out := ""
	for k, v := range fields {
		out += fmt.Sprintf(" %s=%s", k, v)
	}
	return out
}

// ChannelSink forwards events onto a channel, dropping when the receiver
// is not keeping up. Used to feed an in-process Aggregator and in tests.
type ChannelSink struct {
	ch chan Event
}

// NewChannelSink creates a channel sink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = DefaultQueueSize
	}
	return &ChannelSink{ch: make(chan Event, buffer)}
}

// Events returns the receive side of the sink.
func (s *ChannelSink) Events() <-chan Event { return s.ch }

// Consume implements Sink.
func (s *ChannelSink) Consume(ev Event) error {
	select {
	case s.ch <- ev:
	default:
	}
	return nil
}

// Close implements Sink.
func (s *ChannelSink) Close() error { return nil }

// FuncSink adapts a function into a Sink.
type FuncSink func(Event) error

// Consume implements Sink.
func (f FuncSink) Consume(ev Event) error { return f(ev) }

// Close implements Sink.
func (f FuncSink) Close() error { return nil }
