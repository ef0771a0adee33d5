package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/toolflow/logger"
)

func TestServiceConfigApplyDefaults(t *testing.T) {
	tests := []struct {
		name      string
		input     ServiceConfig
		wantEnv   string
		wantDebug bool
		wantLevel string
	}{
		{"empty gets development", ServiceConfig{}, "development", true, "debug"},
		{"staging keeps debug off", ServiceConfig{Environment: "staging"}, "staging", false, "info"},
		{"explicit level wins", ServiceConfig{Logging: logger.Config{Level: "warn"}}, "development", true, "warn"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.input
			cfg.ApplyDefaults()
			if cfg.Environment != tc.wantEnv {
				t.Errorf("Environment = %q, want %q", cfg.Environment, tc.wantEnv)
			}
			if cfg.Debug != tc.wantDebug {
				t.Errorf("Debug = %v, want %v", cfg.Debug, tc.wantDebug)
			}
			if cfg.Logging.Level != tc.wantLevel {
				t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, tc.wantLevel)
			}
		})
	}
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr string
	}{
		{"valid", ServiceConfig{Name: "svc", Environment: "production"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "service.name is required"},
		{"bad environment", ServiceConfig{Name: "svc", Environment: "qa"}, "service.environment"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			cfg.Logging.ApplyDefaults()
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Cache.MaxEntries != 10_000 {
		t.Errorf("Cache.MaxEntries = %d", cfg.Cache.MaxEntries)
	}
	if cfg.Telemetry.Tracing.SampleRate != 1.0 {
		t.Errorf("SampleRate = %v", cfg.Telemetry.Tracing.SampleRate)
	}
	if cfg.Telemetry.Metrics.Interval != 15*time.Second {
		t.Errorf("Metrics.Interval = %v", cfg.Telemetry.Metrics.Interval)
	}
	if len(cfg.Engine.DefinitionDirs) != 1 {
		t.Errorf("DefinitionDirs = %v", cfg.Engine.DefinitionDirs)
	}
	if cfg.Engine.RetryBackoff != 0 {
		t.Errorf("RetryBackoff should default to immediate, got %v", cfg.Engine.RetryBackoff)
	}
}

func TestConfigValidateConstraints(t *testing.T) {
	cfg := Config{Service: ServiceConfig{Name: "svc"}}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	cfg.Engine.MaxParallel = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative max_parallel")
	}

	cfg.Engine.MaxParallel = 0
	cfg.Telemetry.Tracing.SampleRate = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for sample_rate > 1")
	}
}

func TestLoadWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
service:
  name: ci-runner
  environment: staging
  logging:
    level: warn
    format: json
engine:
  retry_backoff: 250ms
  max_parallel: 4
cache:
  default_ttl: 1m
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load("ci-runner", WithConfigFile(configPath), WithEnvFile(filepath.Join(dir, "missing.env")))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Service.Environment != "staging" {
		t.Errorf("Environment = %q", cfg.Service.Environment)
	}
	if cfg.Service.Logging.Format != "json" || cfg.Service.Logging.Level != "warn" {
		t.Errorf("Logging = %+v", cfg.Service.Logging)
	}
	if cfg.Engine.RetryBackoff != 250*time.Millisecond {
		t.Errorf("RetryBackoff = %v", cfg.Engine.RetryBackoff)
	}
	if cfg.Engine.MaxParallel != 4 {
		t.Errorf("MaxParallel = %d", cfg.Engine.MaxParallel)
	}
	if cfg.Cache.DefaultTTL != time.Minute {
		t.Errorf("DefaultTTL = %v", cfg.Cache.DefaultTTL)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("engine:\n  max_parallel: 2\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("TOOLFLOW_ENGINE_MAX_PARALLEL", "8")
	t.Setenv("TOOLFLOW_SERVICE_ENVIRONMENT", "production")

	cfg, err := Load("env-test", WithConfigFile(configPath), WithEnvFile(filepath.Join(dir, "none")))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Engine.MaxParallel != 8 {
		t.Errorf("MaxParallel = %d, want env override 8", cfg.Engine.MaxParallel)
	}
	if cfg.Service.Environment != "production" {
		t.Errorf("Environment = %q", cfg.Service.Environment)
	}
	if cfg.Service.Name != "env-test" {
		t.Errorf("Name should default to the service name, got %q", cfg.Service.Name)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("TOOLFLOW_ENGINE_TOOL_CONCURRENCY=3\n"), 0o644); err != nil {
		t.Fatalf("failed to write env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("TOOLFLOW_ENGINE_TOOL_CONCURRENCY") })

	cfg, err := Load("dotenv-test", WithConfigFile(filepath.Join(dir, "none.yml")), WithEnvFile(envPath))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Engine.ToolConcurrency != 3 {
		t.Errorf("ToolConcurrency = %d, want 3", cfg.Engine.ToolConcurrency)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("nonexistent-service",
		WithConfigFile("/nonexistent/path.yml"),
		WithEnvFile("/nonexistent/.env"),
	)
	if err != nil {
		t.Fatalf("expected Load to succeed with missing file, got %v", err)
	}
	if cfg.Service.Name != "nonexistent-service" {
		t.Errorf("Name = %q", cfg.Service.Name)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("engine: [unclosed"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := Load("bad", WithConfigFile(configPath), WithEnvFile("/nonexistent/.env")); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestResolverWithMockFS(t *testing.T) {
	tests := []struct {
		name       string
		files      map[string]bool
		wantConfig string
		wantEnv    string
	}{
		{
			name:       "cmd directory first",
			files:      map[string]bool{"cmd/my-svc/config.yml": true, "config.yml": true, ".env": true},
			wantConfig: "cmd/my-svc/config.yml",
			wantEnv:    ".env",
		},
		{
			name:       "yaml extension",
			files:      map[string]bool{"config/config.yaml": true, ".env.my-svc": true, ".env": true},
			wantConfig: "config/config.yaml",
			wantEnv:    ".env.my-svc",
		},
		{
			name:  "nothing found",
			files: map[string]bool{},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resolver := &Resolver{FileSystem: &mockFS{files: tc.files}}
			files := resolver.ResolveFiles("my-svc", LoaderConfig{})
			if files.ConfigFile != tc.wantConfig {
				t.Errorf("ConfigFile = %q, want %q", files.ConfigFile, tc.wantConfig)
			}
			if files.EnvFile != tc.wantEnv {
				t.Errorf("EnvFile = %q, want %q", files.EnvFile, tc.wantEnv)
			}
		})
	}
}

func TestResolverExplicitPaths(t *testing.T) {
	resolver := &Resolver{FileSystem: &mockFS{files: map[string]bool{"config.yml": true}}}
	files := resolver.ResolveFiles("svc", LoaderConfig{ConfigFile: "/etc/tf.yml", EnvFile: "/etc/tf.env"})
	if files.ConfigFile != "/etc/tf.yml" || files.EnvFile != "/etc/tf.env" {
		t.Errorf("explicit paths not kept: %+v", files)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	fs := &mockFS{}
	WithFileSystem(fs)(&lc)
	WithConfigFile("/path/to/config.yml")(&lc)
	WithEnvFile("/path/to/.env")(&lc)

	if lc.FileSystem != fs {
		t.Error("expected FileSystem to be set")
	}
	if lc.ConfigFile != "/path/to/config.yml" {
		t.Errorf("ConfigFile = %q", lc.ConfigFile)
	}
	if lc.EnvFile != "/path/to/.env" {
		t.Errorf("EnvFile = %q", lc.EnvFile)
	}
}

func TestLoadTools(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
tools:
  golangci:
    lint:
      binary: golangci-lint
      args: [run]
      timeout: 2m
  git:
    status:
      binary: git
      args: [status, --short]
      dir: /src
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load("ci-runner", WithConfigFile(configPath), WithEnvFile(filepath.Join(dir, "missing.env")))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	lint := cfg.Tools["golangci"]["lint"]
	if lint.Binary != "golangci-lint" || lint.Timeout != 2*time.Minute || len(lint.Args) != 1 {
		t.Errorf("lint = %+v", lint)
	}
	status := cfg.Tools["git"]["status"]
	if status.Dir != "/src" || strings.Join(status.Args, " ") != "status --short" {
		t.Errorf("status = %+v", status)
	}
}

func TestValidateToolsRequireBinary(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("tools:\n  git:\n    status:\n      args: [status]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load("ci-runner", WithConfigFile(configPath), WithEnvFile(filepath.Join(dir, "missing.env"))); err == nil {
		t.Fatal("expected error for tool command without a binary")
	}
}
