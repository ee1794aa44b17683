package sink

import (
	"errors"
	"fmt"
)

// MultiSink fans each block out to several sinks. A failing sink does not
// stop delivery to the others.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a new MultiSink.
func NewMultiSink(sinks []Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Add appends sink to the fan-out list.
func (s *MultiSink) Add(sink Sink) {
	s.sinks = append(s.sinks, sink)
}

func (s *MultiSink) Len() int { return len(s.sinks) }

func (s *MultiSink) Write(data []byte) error {
	var errs []error
	for i, sink := range s.sinks {
		if err := sink.Write(data); err != nil {
			errs = append(errs, fmt.Errorf("sink %d (%T): %w", i, sink, err))
		}
	}
	return errors.Join(errs...)
}

func (s *MultiSink) Close() error {
	var errs []error
	for i, sink := range s.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("sink %d (%T) close: %w", i, sink, err))
		}
	}
	return errors.Join(errs...)
}
