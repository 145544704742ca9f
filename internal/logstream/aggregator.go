package logstream

// Aggregator is the single consumer of forwarded log events. It dispatches
// every received event to all configured sinks. It owns the sinks' handler
// configuration: producers hold only a Transport handle.
type Aggregator struct {
	sinks []Sink
}

// NewAggregator creates an aggregator over the given sinks.
func NewAggregator(sinks ...Sink) *Aggregator {
	return &Aggregator{sinks: sinks}
}

// AddSink attaches another sink. Not safe to call once Listen is running.
func (a *Aggregator) AddSink(s Sink) {
	a.sinks = append(a.sinks, s)
}

// Listen dispatches events from source until stop fires or source closes,
// then drains whatever is immediately available and returns. Wrapped
// exactly once by the hosting process.
func (a *Aggregator) Listen(source <-chan Event, stop <-chan struct{}) {
	for {
		select {
		case ev, ok := <-source:
			if !ok {
				return
			}
			a.dispatch(ev)
		case <-stop:
			for {
				select {
				case ev, ok := <-source:
					if !ok {
						return
					}
					a.dispatch(ev)
				default:
					return
				}
			}
		}
	}
}

// Close releases all sinks.
func (a *Aggregator) Close() error {
	var firstErr error
	for _, s := range a.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (a *Aggregator) dispatch(ev Event) {
	for _, s := range a.sinks {
		_ = s.Consume(ev)
	}
}
