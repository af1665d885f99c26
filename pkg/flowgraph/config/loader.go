package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// PathEnv names the environment variable Load falls back to when no path is
// given.
const PathEnv = "UITESTGEN_CONFIG"

type format struct {
	name   string
	decode func([]byte, any) error
}

var (
	yamlFormat = format{name: "yaml", decode: yaml.Unmarshal}
	jsonFormat = format{name: "json", decode: json.Unmarshal}
)

var formats = map[string]format{
	".yaml": yamlFormat,
	".yml":  yamlFormat,
	".json": jsonFormat,
}

// Load reads the settings file at path. An empty path falls back to the file
// named by $UITESTGEN_CONFIG; when that is unset too, Load returns an empty
// Config and callers use defaults and flags.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(PathEnv)
	}
	if path == "" {
		return New(nil), nil
	}
	return FromFile(path)
}

// FromFile loads a .yaml, .yml or .json file. The extension picks the
// decoder and is matched case-insensitively.
func FromFile(path string) (Config, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := formats[ext]
	if !ok {
		return Config{}, fmt.Errorf("unsupported config file extension: %q", ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return f.parse(data)
}

// FromYAML parses a YAML document into a Config.
func FromYAML(data []byte) (Config, error) { return yamlFormat.parse(data) }

// FromJSON parses a JSON object into a Config.
func FromJSON(data []byte) (Config, error) { return jsonFormat.parse(data) }

func (f format) parse(data []byte) (Config, error) {
	var m map[string]any
	if err := f.decode(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", f.name, err)
	}
	return New(m), nil
}
