package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"dumper/pkg/dump"
)

// ReplaySink appends each received block to the same (name, extension)
// stream of a local Dumper.
type ReplaySink struct {
	d *dump.Dumper
}

// NewReplaySink creates a ReplaySink writing through d. d should have no
// mirrors pointing back at the relay.
func NewReplaySink(d *dump.Dumper) *ReplaySink {
	return &ReplaySink{d: d}
}

func (s *ReplaySink) Write(data []byte) error {
	var b dump.Block
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("decode block: %w", err)
	}
	if b.Name == "" {
		return errors.New("block without name")
	}
	if !filepath.IsLocal(b.Name + b.Extension) {
		return fmt.Errorf("block name %q escapes the dump folder", b.Name+b.Extension)
	}
	return s.d.WriteText(b.Name, b.Extension, func(w io.Writer) error {
		_, err := io.WriteString(w, b.Content)
		return err
	})
}

func (s *ReplaySink) Close() error {
	return nil
}
