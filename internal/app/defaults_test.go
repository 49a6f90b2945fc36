package app

import (
	"os"
	"path/filepath"
	"testing"

	"aplib-go/internal/config"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv("APLIB_CONFIG_PATH", "/custom/config.toml")
		t.Setenv("APLIB_HOME", "/custom/aplib")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		if defaults["config_path"] != "/custom/config.toml" {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], "/custom/config.toml")
		}
		if defaults["base_dir"] != "/custom/aplib" {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], "/custom/aplib")
		}
		if defaults["log_dir"] != "/custom/aplib/log" {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], "/custom/aplib/log")
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		t.Setenv("APLIB_CONFIG_PATH", "")
		t.Setenv("APLIB_HOME", "")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		homeDir, _ := os.UserHomeDir()

		wantConfig := filepath.Join(homeDir, ".config", "aplib.toml")
		if defaults["config_path"] != wantConfig {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], wantConfig)
		}

		wantBase := filepath.Join(homeDir, ".local", "share", "aplib")
		if defaults["base_dir"] != wantBase {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], wantBase)
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("APLIB_CONFIG_PATH", filepath.Join(dir, "absent.toml"))
		t.Setenv("APLIB_HOME", dir)

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.BaseDir != dir {
			t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, dir)
		}
	})

	t.Run("reads existing file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "aplib.toml")
		t.Setenv("APLIB_CONFIG_PATH", path)
		t.Setenv("APLIB_HOME", dir)

		want := config.NewConfig("/elsewhere")
		if err := config.Init(path, want); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.BaseDir != "/elsewhere" {
			t.Errorf("BaseDir = %q, want /elsewhere", cfg.BaseDir)
		}
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "aplib.toml")
		os.WriteFile(path, []byte("base_dir = "), 0644)
		t.Setenv("APLIB_CONFIG_PATH", path)

		if _, err := LoadConfig(); err == nil {
			t.Error("LoadConfig() expected error for malformed config")
		}
	})
}
