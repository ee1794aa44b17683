package dump

import (
	"os"
	"strconv"
)

// DefaultFolder is the process-wide dump folder unless DUMP_FOLDER is set.
const DefaultFolder = "dump"

var std = New(envConfig())

func envConfig() Config {
	cfg := Config{Folder: DefaultFolder}
	if v, ok := os.LookupEnv("DUMP_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Enabled = b
		}
	}
	if v, ok := os.LookupEnv("DUMP_FOLDER"); ok {
		cfg.Folder = v
	}
	return cfg
}

// Default returns the process-wide Dumper. It starts disabled unless
// DUMP_ENABLED says otherwise.
func Default() *Dumper { return std }

func Enabled() bool { return std.Enabled() }

func SetEnabled(enabled bool) { std.SetEnabled(enabled) }

func Folder() string { return std.Folder() }

func SetFolder(folder string) { std.SetFolder(folder) }

// Configure replaces the enable flag and folder of the process-wide Dumper.
func Configure(cfg Config) {
	std.SetEnabled(cfg.Enabled)
	std.SetFolder(cfg.Folder)
}

func orDefault(d *Dumper) *Dumper {
	if d == nil {
		return std
	}
	return d
}
