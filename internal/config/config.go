// Package config loads the novellens client configuration from a YAML or
// JSON file and the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"novellens/internal/artifact"
	"novellens/internal/gateway"
)

// Defaults applied by Default and before a file is decoded.
const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 30 * time.Second
)

// Environment variables that override file values.
const (
	EnvBaseURL  = "NOVELLENS_BASE_URL"
	EnvToken    = "NOVELLENS_TOKEN"
	EnvTimeout  = "NOVELLENS_TIMEOUT"
	EnvLogLevel = "NOVELLENS_LOG_LEVEL"
)

// Config is the client configuration.
type Config struct {
	BaseURL  string   `yaml:"base_url" json:"base_url" validate:"required,url"`
	BasePath string   `yaml:"base_path" json:"base_path" validate:"omitempty,startswith=/"`
	Token    string   `yaml:"token" json:"token"`
	Timeout  Duration `yaml:"timeout" json:"timeout" validate:"gte=0"`
	Log      Log      `yaml:"log" json:"log"`
	Cache    Cache    `yaml:"cache" json:"cache"`
	Metrics  Metrics  `yaml:"metrics" json:"metrics"`
}

// Log selects the slog level and handler.
type Log struct {
	Level  string `yaml:"level" json:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" json:"format" validate:"omitempty,oneof=text json"`
}

// Cache tunes the analysis store.
type Cache struct {
	Coalesce bool     `yaml:"coalesce" json:"coalesce"`
	Kinds    []string `yaml:"kinds" json:"kinds" validate:"dive,artifact_kind"`
}

// Metrics configures the Prometheus endpoint of the serve command.
type Metrics struct {
	Addr string `yaml:"addr" json:"addr" validate:"omitempty,hostname_port"`
}

// Duration is a time.Duration written as "30s" in files and the
// environment.
type Duration time.Duration

// UnmarshalText accepts a Go duration string or a bare number of seconds.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := parseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalJSON accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return d.UnmarshalText([]byte(s))
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid duration %s", b)
	}
	*d = Duration(n * float64(time.Second))
	return nil
}

// MarshalText writes d in time.Duration notation.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return v, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		BaseURL:  DefaultBaseURL,
		BasePath: gateway.DefaultBasePath,
		Timeout:  Duration(DefaultTimeout),
		Log:      Log{Level: "info", Format: "text"},
		Cache:    Cache{Kinds: []string{string(artifact.KindRelationshipGraph)}},
	}
}

// ApplyEnv overrides c with the NOVELLENS_* variables that are set.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.Getenv)
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := getenv(EnvToken); v != "" {
		c.Token = v
	}
	if v := getenv(EnvTimeout); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Timeout = Duration(d)
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	return nil
}

// CachedKinds returns Cache.Kinds as artifact kinds. Validate guarantees they
// parse.
func (c *Config) CachedKinds() []artifact.Kind {
	out := make([]artifact.Kind, 0, len(c.Cache.Kinds))
	for _, s := range c.Cache.Kinds {
		if k, err := artifact.ParseKind(s); err == nil {
			out = append(out, k)
		}
	}
	return out
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("artifact_kind", func(fl validator.FieldLevel) bool {
		_, err := artifact.ParseKind(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks c and reports every invalid field in one error.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
