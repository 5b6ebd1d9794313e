// Package paths resolves configuration and database file locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// ConfigFileName is the configuration file looked up in the config
// directory and the working directory.
const ConfigFileName = "shelf.yaml"

// DefaultDatabaseName is the database file created next to the working
// directory when nothing else is configured.
const DefaultDatabaseName = "shelf.db"

// Environment variable names for location overrides.
const (
	EnvConfigDir = "SHELF_CONFIG_DIR"
	EnvDatabase  = "SHELF_DATABASE"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration
// directory.
//
// Linux:   $XDG_CONFIG_HOME/shelf (fallback ~/.config/shelf)
// macOS:   ~/Library/Application Support/shelf
// Windows: %APPDATA%/shelf
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "shelf"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "shelf"), nil
	default:
		// macOS and Windows use os.UserConfigDir which returns
		// ~/Library/Application Support on macOS and %APPDATA% on Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "shelf"), nil
	}
}

// ResolveConfigFile returns the configuration file path following the
// precedence chain: flag > SHELF_CONFIG_DIR env > working directory.
//
// A non-empty flag names the file itself and wins outright. The
// environment variable names a directory holding ConfigFileName. With
// neither set the file is expected in the working directory, so a
// repository-local shelf.yaml keeps working without any setup.
func ResolveConfigFile(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		abs, err := filepath.Abs(env)
		if err != nil {
			return "", err
		}
		return filepath.Join(abs, ConfigFileName), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, ConfigFileName), nil
}

// ResolveDatabase returns the database location following the precedence
// chain: configured DSN > SHELF_DATABASE env > $(CWD)/shelf.db.
func ResolveDatabase(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	if env := os.Getenv(EnvDatabase); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDatabaseName), nil
}
