package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFromPath reads a config file (YAML or JSON), applies the environment
// and validates the result. An empty path yields Default with the
// environment applied.
func LoadFromPath(path string) (*Config, error) {
	var (
		c   *Config
		err error
	)
	if path == "" {
		c = Default()
	} else {
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil, fmt.Errorf("read config: %w", rerr)
		}
		if c, err = Load(data, filepath.Ext(path)); err != nil {
			return nil, err
		}
	}
	if err := c.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("config env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load parses data over Default. ext is the file extension used as a format
// hint; an empty ext detects JSON by a leading '{'.
func Load(data []byte, ext string) (*Config, error) {
	decode := decodeYAML
	switch strings.ToLower(ext) {
	case ".json":
		decode = decodeJSON
	case ".yaml", ".yml":
	default:
		if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
			decode = decodeJSON
		}
	}
	c := Default()
	if err := decode(data, c); err != nil {
		return nil, err
	}
	return c, nil
}

func decodeJSON(data []byte, c *Config) error {
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config json: %w", err)
	}
	return nil
}

func decodeYAML(data []byte, c *Config) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	return nil
}
