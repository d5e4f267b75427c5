package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"kaldiark/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(tempHome, ".config", "kaldiark", "config.toml") {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}

	wantStore := filepath.Join(tempHome, ".local", "share", "kaldiark", "archives.db")
	if cfg.Store.Path != wantStore {
		t.Fatalf("unexpected store path: got %q want %q", cfg.Store.Path, wantStore)
	}
	if cfg.Reader.Duplicates != "reject" {
		t.Fatalf("expected reject duplicates by default, got %q", cfg.Reader.Duplicates)
	}
	if cfg.Writer.Precision != -1 {
		t.Fatalf("expected lossless precision by default, got %d", cfg.Writer.Precision)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "kaldiark.toml")

	custom := config.Default()
	custom.Reader.Duplicates = "Last-Wins"
	custom.Writer.Precision = 6
	custom.Store.Path = filepath.Join(tempDir, "store", "ark.db")
	custom.Logging.Format = "JSON"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Reader.Duplicates != "last_wins" {
		t.Fatalf("expected normalized duplicate policy, got %q", cfg.Reader.Duplicates)
	}
	if cfg.Writer.Precision != 6 {
		t.Fatalf("expected precision 6, got %d", cfg.Writer.Precision)
	}
	if cfg.Store.Path != custom.Store.Path {
		t.Fatalf("unexpected store path %q", cfg.Store.Path)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json format, got %q", cfg.Logging.Format)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(configPath, []byte("[reader]\nduplicate = \"reject\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for misspelled key")
	}
}

func TestEnvOverrides(t *testing.T) {
	tempDir := t.TempDir()
	storePath := filepath.Join(tempDir, "env.db")
	t.Setenv("KALDIARK_STORE_PATH", storePath)
	t.Setenv("KALDIARK_LOG_LEVEL", "DEBUG")

	cfg, _, _, err := config.Load(filepath.Join(tempDir, "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Store.Path != storePath {
		t.Fatalf("expected store path from env, got %q", cfg.Store.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected debug level from env, got %q", cfg.Logging.Level)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "duplicates = \"reject\"") {
		t.Fatalf("sample config missing duplicate policy: %s", contents)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Writer.Precision != -1 {
		t.Fatalf("unexpected sample precision %d", cfg.Writer.Precision)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"duplicates":    func(c *config.Config) { c.Reader.Duplicates = "first_wins" },
		"precision low": func(c *config.Config) { c.Writer.Precision = -2 },
		"precision big": func(c *config.Config) { c.Writer.Precision = 31 },
		"level":         func(c *config.Config) { c.Logging.Level = "verbose" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(base, "a", "b", "store.db")
	cfg.Logging.Dir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{filepath.Dir(cfg.Store.Path), cfg.Logging.Dir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
