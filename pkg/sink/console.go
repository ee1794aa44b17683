package sink

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// ConsoleSink prints each block on its own line, to stdout by default.
type ConsoleSink struct {
	out io.Writer
	mu  sync.Mutex
}

// NewConsoleSink creates a ConsoleSink writing to stdout.
func NewConsoleSink() *ConsoleSink {
	return NewWriterSink(os.Stdout)
}

// NewWriterSink creates a ConsoleSink writing to w.
func NewWriterSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{out: w}
}

func (s *ConsoleSink) Write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.out, "%s\n", data)
	return err
}

func (s *ConsoleSink) Close() error {
	return nil
}
