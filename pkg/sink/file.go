package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileSink appends one block per line to a single file.
type FileSink struct {
	file *os.File
	mu   sync.Mutex
}

// NewFileSink opens path for appending, creating its directory if needed.
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("file sink: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("file sink: %w", err)
	}
	return &FileSink{file: f}, nil
}

func (s *FileSink) Write(data []byte) error {
	line := make([]byte, 0, len(data)+1)
	line = append(append(line, data...), '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.file.Write(line)
	return err
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
