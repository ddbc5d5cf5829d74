package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the viewer.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	// LogLevel is one of debug|info|warn|error.
	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level"`
	// NoColor disables ANSI color on console output.
	NoColor bool `json:"no_color" yaml:"no_color" toml:"no_color"`
	// Addr is the HTTP listen address for the serve subcommand.
	Addr string `json:"addr" yaml:"addr" toml:"addr"`
	// DumpLimit caps the number of trace rows per track (0 = unlimited).
	DumpLimit int `json:"dump_limit" yaml:"dump_limit" toml:"dump_limit"`
	// MIDIPort names the MIDI output port used by the play subcommand.
	// Empty selects the first available port.
	MIDIPort string `json:"midi_port" yaml:"midi_port" toml:"midi_port"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
