package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"aplib-go/internal/config"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - APLIB_CONFIG_PATH: config file location (default: ~/.config/aplib.toml)
//   - APLIB_HOME: base directory for aplib data (default: ~/.local/share/aplib)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// LoadConfig reads the config file named by the defaults. A missing file is
// not an error: the default config rooted at the default base dir is
// returned instead, so read-only commands work without `aplib config init`.
func LoadConfig() (*config.Config, error) {
	defaults, err := GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return config.NewConfig(defaults["base_dir"]), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// getConfigPath returns the config file path, checking APLIB_CONFIG_PATH env var first,
// then falling back to the default ~/.config/aplib.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("APLIB_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "aplib.toml"), nil
}

// getBaseDir returns the base directory for aplib data, checking APLIB_HOME env var first,
// then falling back to the XDG default ~/.local/share/aplib.
func getBaseDir() (string, error) {
	if path := os.Getenv("APLIB_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "aplib"), nil
}
