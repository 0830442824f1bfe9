package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"novellens/internal/artifact"
)

func TestLoad_YAML(t *testing.T) {
	data := []byte(`
base_url: https://novels.example.com
base_path: /api/v2
token: secret
timeout: 45s
log:
  level: debug
  format: json
cache:
  coalesce: true
  kinds: [relationship-graph, timeline]
metrics:
  addr: localhost:9090
`)
	c, err := Load(data, ".yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := &Config{
		BaseURL:  "https://novels.example.com",
		BasePath: "/api/v2",
		Token:    "secret",
		Timeout:  Duration(45 * time.Second),
		Log:      Log{Level: "debug", Format: "json"},
		Cache:    Cache{Coalesce: true, Kinds: []string{"relationship-graph", "timeline"}},
		Metrics:  Metrics{Addr: "localhost:9090"},
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if diff := cmp.Diff([]artifact.Kind{artifact.KindRelationshipGraph, artifact.KindTimeline}, c.CachedKinds()); diff != "" {
		t.Errorf("kinds (-want +got):\n%s", diff)
	}
}

func TestLoad_JSONDetectedAndDefaultsKept(t *testing.T) {
	c, err := Load([]byte(`{"base_url": "http://10.0.0.2:8000", "timeout": 5}`), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.BaseURL != "http://10.0.0.2:8000" || c.Timeout.Std() != 5*time.Second {
		t.Errorf("got %+v", c)
	}
	if c.BasePath != "/api/v1" || c.Log.Format != "text" {
		t.Errorf("defaults lost: %+v", c)
	}
}

func TestLoad_ParseError(t *testing.T) {
	if _, err := Load([]byte(`{"base_url": `), ".json"); err == nil || !strings.Contains(err.Error(), "parse config json") {
		t.Errorf("expected json parse error, got: %v", err)
	}
	if _, err := Load([]byte("timeout: forever\n"), ".yml"); err == nil {
		t.Error("expected yaml duration error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"default", func(*Config) {}, ""},
		{"missing base url", func(c *Config) { c.BaseURL = "" }, "BaseURL"},
		{"bad base url", func(c *Config) { c.BaseURL = "not a url" }, "BaseURL"},
		{"relative base path", func(c *Config) { c.BasePath = "api" }, "BasePath"},
		{"negative timeout", func(c *Config) { c.Timeout = Duration(-time.Second) }, "Timeout"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "Format"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "Level"},
		{"unknown kind", func(c *Config) { c.Cache.Kinds = []string{"graph"} }, "Kinds[0]"},
		{"bad metrics addr", func(c *Config) { c.Metrics.Addr = "9090" }, "Addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvBaseURL:  "http://backend:9000",
		EnvToken:    "tok",
		EnvTimeout:  "2m",
		EnvLogLevel: "warn",
	}
	c := Default()
	if err := c.applyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	if c.BaseURL != "http://backend:9000" || c.Token != "tok" || c.Timeout.Std() != 2*time.Minute || c.Log.Level != "warn" {
		t.Errorf("got %+v", c)
	}

	env[EnvTimeout] = "soon"
	if err := Default().applyEnv(func(k string) string { return env[k] }); err == nil {
		t.Error("expected invalid timeout error")
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "novellens.yaml")
	if err := os.WriteFile(path, []byte("base_url: http://localhost:8080\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvToken, "from-env")

	c, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if c.BaseURL != "http://localhost:8080" || c.Token != "from-env" {
		t.Errorf("got %+v", c)
	}

	if _, err := LoadFromPath(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected read error")
	}

	c, err = LoadFromPath("")
	if err != nil {
		t.Fatalf("LoadFromPath(\"\"): %v", err)
	}
	if c.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q", c.BaseURL)
	}
}
