// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config does not validate: %v", err)
	}
	if cfg.Platform.Service != "cap.platform" {
		t.Errorf("service = %q", cfg.Platform.Service)
	}
	if cfg.RequestTimeout() != 5*time.Second {
		t.Errorf("request timeout = %v, want 5s", cfg.RequestTimeout())
	}
	if cfg.Platform.Name == "" {
		t.Error("default platform name is empty")
	}
}

func TestLoadRequiresEnvironmentVariable(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")
	_, err := Load()
	if err == nil || !strings.HasPrefix(err.Error(), "CAP_CONFIG environment variable not set") {
		t.Errorf("Load = %v", err)
	}
}

func TestResolvePrefersFlag(t *testing.T) {
	fromEnvironment := writeFile(t, "env.yaml", "platform:\n  name: fromenv\n")
	fromFlag := writeFile(t, "flag.yaml", "platform:\n  name: fromflag\n")
	t.Setenv(EnvironmentVariable, fromEnvironment)

	cfg, err := Resolve(fromFlag)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Platform.Name != "fromflag" {
		t.Errorf("name = %q, want fromflag", cfg.Platform.Name)
	}

	cfg, err = Resolve("")
	if err != nil {
		t.Fatalf("Resolve(\"\"): %v", err)
	}
	if cfg.Platform.Name != "fromenv" {
		t.Errorf("name = %q, want fromenv", cfg.Platform.Name)
	}
}

func TestLoadFileYAML(t *testing.T) {
	path := writeFile(t, "platform.yaml", `
environment: staging
platform:
  name: platA
  socket_dir: /run/cap-test
  request_timeout: 750ms
router:
  delivery_rate: 100
  breaker:
    max_failures: 5
state:
  file: /var/lib/cap/state.snap
  compression: lz4
logging:
  level: debug
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Platform.Name != "platA" || cfg.Platform.SocketDir != "/run/cap-test" {
		t.Errorf("platform = %+v", cfg.Platform)
	}
	if cfg.RequestTimeout() != 750*time.Millisecond {
		t.Errorf("request timeout = %v", cfg.RequestTimeout())
	}
	if cfg.Router.DeliveryRate != 100 || cfg.Router.DeliveryBurst != 32 {
		t.Errorf("router = %+v", cfg.Router)
	}
	// Unset fields keep their defaults.
	if cfg.Router.Breaker.MaxFailures != 5 || cfg.BreakerTimeout() != 30*time.Second {
		t.Errorf("breaker = %+v", cfg.Router.Breaker)
	}
	if cfg.State.Compression != "lz4" || cfg.Logging.Level != "debug" || cfg.Logging.Format != "auto" {
		t.Errorf("state/logging = %+v %+v", cfg.State, cfg.Logging)
	}
}

func TestLoadFileJSONC(t *testing.T) {
	path := writeFile(t, "platform.jsonc", `{
	// Comments and trailing commas are accepted.
	"platform": {
		"name": "platB",
		"request_timeout": "2s", /* inline */
	},
	"state": {"compression": "none",},
}`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Platform.Name != "platB" || cfg.RequestTimeout() != 2*time.Second || cfg.State.Compression != "none" {
		t.Errorf("config = %+v", cfg)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	path := writeFile(t, "platform.yaml", `
environment: production
platform:
  name: platA
production:
  platform:
    socket_dir: /run/cap
  router:
    delivery_timeout: 500ms
development:
  platform:
    socket_dir: /tmp/dev
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Platform.SocketDir != "/run/cap" {
		t.Errorf("socket_dir = %q, want production override", cfg.Platform.SocketDir)
	}
	if cfg.DeliveryTimeout() != 500*time.Millisecond {
		t.Errorf("delivery timeout = %v", cfg.DeliveryTimeout())
	}
	if cfg.Platform.Name != "platA" {
		t.Errorf("name overridden to %q", cfg.Platform.Name)
	}
}

func TestProductionDefaultOverrides(t *testing.T) {
	cfg, err := LoadFile(writeFile(t, "platform.yaml", "environment: production\n"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("production log format = %q, want json", cfg.Logging.Format)
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("CAP_TEST_ROOT", "/srv/cap")
	t.Setenv("CAP_TEST_UNSET", "")
	tests := []struct {
		input, want string
	}{
		{"${CAP_TEST_ROOT}/sockets", "/srv/cap/sockets"},
		{"${CAP_TEST_UNSET:-/tmp}/cap", "/tmp/cap"},
		{"${CAP_TEST_UNSET}/cap", "/cap"},
		{"/plain/path", "/plain/path"},
	}
	for _, test := range tests {
		if got := expandVars(test.input); got != test.want {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad environment", func(c *Config) { c.Environment = "qa" }, "invalid environment"},
		{"empty name", func(c *Config) { c.Platform.Name = "" }, "platform.name is required"},
		{"name with at", func(c *Config) { c.Platform.Name = "a@b" }, "must not contain"},
		{"service with colon", func(c *Config) { c.Platform.Service = "cap:platform" }, "platform.service"},
		{"bad timeout", func(c *Config) { c.Platform.RequestTimeout = "soon" }, "platform.request_timeout"},
		{"zero timeout", func(c *Config) { c.Router.DeliveryTimeout = "0s" }, "must be positive"},
		{"burst without rate", func(c *Config) { c.Router.DeliveryRate = 5; c.Router.DeliveryBurst = 0 }, "delivery_burst"},
		{"compression", func(c *Config) { c.State.Compression = "gzip" }, "state.compression"},
		{"level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			cfg.Platform.Name = "platA"
			test.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Errorf("Validate = %v, want error containing %q", err, test.want)
			}
		})
	}
}

func TestEnsurePaths(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.Platform.SocketDir = filepath.Join(root, "sockets")
	cfg.State.File = filepath.Join(root, "state", "directory.snap")
	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths: %v", err)
	}
	for _, path := range []string{cfg.Platform.SocketDir, filepath.Dir(cfg.State.File)} {
		if info, err := os.Stat(path); err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", path, err)
		}
	}
}
