package dump

import (
	"os"
	"path/filepath"
)

// File identifies the file behind one dump stream. It may not exist yet.
type File struct {
	folder string
	name   string
	ext    string
}

// Path returns folder/name+ext, or "" when no folder is configured.
func (f File) Path() string {
	if f.folder == "" {
		return ""
	}
	return filepath.Join(f.folder, f.name+f.ext)
}

// Dir returns the directory holding the file.
func (f File) Dir() string {
	p := f.Path()
	if p == "" {
		return ""
	}
	return filepath.Dir(p)
}

// Name returns the base file name including the extension.
func (f File) Name() string { return filepath.Base(f.name + f.ext) }

func (f File) Ext() string { return f.ext }

// Exists reports whether the file is present. It never fails.
func (f File) Exists() bool {
	p := f.Path()
	if p == "" {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func (f File) ReadAll() ([]byte, error) {
	if f.folder == "" {
		return nil, os.ErrNotExist
	}
	return os.ReadFile(f.Path())
}
