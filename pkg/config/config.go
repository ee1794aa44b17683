package config

import (
	"fmt"
	"io"
	"os"

	"dumper/pkg/dump"
	"dumper/pkg/relay"
	"dumper/pkg/sink"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Dump    DumpConfig   `yaml:"dump"`
	Mirrors []SinkConfig `yaml:"mirrors,omitempty"`
	Relay   RelayConfig  `yaml:"relay"`
}

type DumpConfig struct {
	Enabled bool   `yaml:"enabled"`
	Folder  string `yaml:"folder"`
}

type SinkConfig struct {
	Type      string           `yaml:"type"` // "console", "file", "http", "websocket"
	File      *FileConfig      `yaml:"file,omitempty"`
	Http      *HttpConfig      `yaml:"http,omitempty"`
	WebSocket *WebSocketConfig `yaml:"websocket,omitempty"`
}

type FileConfig struct {
	Path string `yaml:"path"`
}

type HttpConfig struct {
	URL         string `yaml:"url"`
	Method      string `yaml:"method"`
	ContentType string `yaml:"content_type"`
}

type WebSocketConfig struct {
	URL string `yaml:"url"`
}

type RelayConfig struct {
	Listen string `yaml:"listen"`
	Path   string `yaml:"path"`
	// Replay appends received blocks under Folder, keeping their stream names.
	Replay bool         `yaml:"replay"`
	Folder string       `yaml:"folder"`
	Sinks  []SinkConfig `yaml:"sinks,omitempty"`
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes YAML from r and fills in defaults.
func Parse(r io.Reader) (*Config, error) {
	cfg := Config{
		Dump: DumpConfig{Folder: dump.DefaultFolder},
		Relay: RelayConfig{
			Listen: ":8765",
			Path:   relay.DefaultPath,
			Folder: "relay",
		},
	}
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && err != io.EOF {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) DumpConfig() dump.Config {
	return dump.Config{Enabled: c.Dump.Enabled, Folder: c.Dump.Folder}
}

// NewDumper builds a Dumper with the configured mirrors.
func (c *Config) NewDumper() (*dump.Dumper, error) {
	mirrors, err := BuildSinks(c.Mirrors)
	if err != nil {
		return nil, err
	}
	return dump.New(c.DumpConfig(), dump.WithMirror(mirrors...)), nil
}

// BuildSinks creates one sink per entry. On error, sinks created so far are
// closed.
func BuildSinks(cfgs []SinkConfig) ([]sink.Sink, error) {
	var sinks []sink.Sink
	fail := func(err error) ([]sink.Sink, error) {
		for _, s := range sinks {
			_ = s.Close()
		}
		return nil, err
	}

	for i, sCfg := range cfgs {
		switch sCfg.Type {
		case "console":
			sinks = append(sinks, sink.NewConsoleSink())
		case "file":
			if sCfg.File == nil || sCfg.File.Path == "" {
				return fail(fmt.Errorf("sink %d: file sink configuration missing", i))
			}
			fs, err := sink.NewFileSink(sCfg.File.Path)
			if err != nil {
				return fail(fmt.Errorf("sink %d: %w", i, err))
			}
			sinks = append(sinks, fs)
		case "http":
			if sCfg.Http == nil || sCfg.Http.URL == "" {
				return fail(fmt.Errorf("sink %d: http sink configuration missing", i))
			}
			sinks = append(sinks, sink.NewHttpSink(sCfg.Http.URL, sCfg.Http.Method, sCfg.Http.ContentType))
		case "websocket":
			if sCfg.WebSocket == nil || sCfg.WebSocket.URL == "" {
				return fail(fmt.Errorf("sink %d: websocket sink configuration missing", i))
			}
			sinks = append(sinks, sink.NewWebSocketSink(sCfg.WebSocket.URL))
		default:
			return fail(fmt.Errorf("sink %d: unknown sink type: %q", i, sCfg.Type))
		}
	}
	return sinks, nil
}
