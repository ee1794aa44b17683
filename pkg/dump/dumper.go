// Package dump writes snapshots of in-memory values to append-only files
// for ad-hoc debugging. Output is gated by an enable flag and a folder; while
// either is off every call is a silent no-op.
package dump

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"dumper/pkg/sink"

	"github.com/google/uuid"
)

const (
	TextExtension = ".txt"
	JSONExtension = ".json"
	TSVExtension  = ".tsv"
)

// Config controls whether dumps are written and where.
type Config struct {
	Enabled bool
	// Folder is the output directory. Empty disables writes.
	Folder string
}

// Block is what a Dumper sends to its mirrors after each write.
type Block struct {
	Source    string    `json:"source"`
	Name      string    `json:"name"`
	Extension string    `json:"extension"`
	Content   string    `json:"content"`
	Time      time.Time `json:"time"`
}

// Option configures a Dumper.
type Option func(*Dumper)

// WithMirror forwards every written block to the given sinks.
func WithMirror(sinks ...sink.Sink) Option {
	return func(d *Dumper) {
		d.mirrors = append(d.mirrors, sinks...)
	}
}

// WithSource overrides the random source ID stamped on mirrored blocks.
func WithSource(id string) Option {
	return func(d *Dumper) {
		d.source = id
	}
}

// Dumper owns the enable/folder state and performs all file writes.
// It does no locking; configuration changes are seen by the next call.
type Dumper struct {
	enabled bool
	folder  string

	source  string
	mirrors []sink.Sink
}

// New creates a Dumper from cfg.
func New(cfg Config, opts ...Option) *Dumper {
	d := &Dumper{
		enabled: cfg.Enabled,
		folder:  cfg.Folder,
		source:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dumper) Enabled() bool { return d.enabled }

func (d *Dumper) SetEnabled(enabled bool) { d.enabled = enabled }

func (d *Dumper) Folder() string { return d.folder }

func (d *Dumper) SetFolder(folder string) { d.folder = folder }

// Source returns the ID stamped on blocks sent to mirrors.
func (d *Dumper) Source() string { return d.source }

// Active reports whether a write would reach the filesystem.
func (d *Dumper) Active() bool {
	return d.enabled && d.folder != ""
}

// ResolveFile returns the file for the (name, ext) stream. An empty ext means
// ".txt". The parent directory is created only while the Dumper is enabled
// and has a folder.
func (d *Dumper) ResolveFile(name, ext string) (File, error) {
	if ext == "" {
		ext = TextExtension
	}
	f := File{folder: d.folder, name: name, ext: ext}
	if !d.Active() {
		return f, nil
	}
	if err := os.MkdirAll(f.Dir(), 0o755); err != nil {
		return f, fmt.Errorf("create dump folder: %w", err)
	}
	return f, nil
}

// WriteText appends whatever write produces to the (name, ext) file. It does
// nothing when the Dumper is inactive or write is nil. The file is closed
// before WriteText returns, and an error from write is returned as is.
func (d *Dumper) WriteText(name, ext string, write func(w io.Writer) error) error {
	if !d.Active() || write == nil {
		return nil
	}
	f, err := d.ResolveFile(name, ext)
	if err != nil {
		return err
	}

	var copied *bytes.Buffer
	if len(d.mirrors) > 0 {
		copied = new(bytes.Buffer)
	}
	if err := appendFile(f.Path(), copied, write); err != nil {
		return err
	}
	if copied == nil {
		return nil
	}
	return d.mirror(f, copied.Bytes())
}

// Close closes all mirrors.
func (d *Dumper) Close() error {
	var errs []error
	for _, m := range d.mirrors {
		if err := m.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func appendFile(path string, copied *bytes.Buffer, write func(w io.Writer) error) (err error) {
	out, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open dump file: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close dump file: %w", cerr)
		}
	}()

	var w io.Writer = out
	if copied != nil {
		w = io.MultiWriter(out, copied)
	}
	return write(w)
}

func (d *Dumper) mirror(f File, content []byte) error {
	data, err := json.Marshal(Block{
		Source:    d.source,
		Name:      f.name,
		Extension: f.ext,
		Content:   string(content),
		Time:      time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	var errs []error
	for _, m := range d.mirrors {
		if err := m.Write(data); err != nil {
			errs = append(errs, fmt.Errorf("mirror %s%s: %w", f.name, f.ext, err))
		}
	}
	return errors.Join(errs...)
}
