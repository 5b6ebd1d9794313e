// Config loading for the shelf CLI.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/shelf/internal/paths"
	"github.com/mesh-intelligence/shelf/pkg/persist"
	"github.com/mesh-intelligence/shelf/pkg/schema"
)

const configFileType = "yaml"

// Config keys.
const (
	cfgKeyDriver        = "driver"
	cfgKeyDSN           = "dsn"
	cfgKeyDialect       = "dialect"
	cfgKeyCountStrategy = "count_strategy"
)

// loadConfig reads the config file using Viper. The --config flag wins,
// then SHELF_CONFIG_DIR, then shelf.yaml in the working directory; see
// paths.ResolveConfigFile. A missing file falls back to defaults targeting
// a local SQLite database, so a bare `shelf init && shelf ping` works.
func loadConfig(flag string) (persist.Config, error) {
	file, err := paths.ResolveConfigFile(flag)
	if err != nil {
		return persist.Config{}, fmt.Errorf("resolving config path: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(file)
	v.SetConfigType(configFileType)
	v.SetDefault(cfgKeyDriver, "sqlite")
	v.SetDefault(cfgKeyDialect, string(schema.DialectSQLite))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return persist.Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	dsn, err := paths.ResolveDatabase(v.GetString(cfgKeyDSN))
	if err != nil {
		return persist.Config{}, fmt.Errorf("resolving database path: %w", err)
	}

	cfg := persist.Config{
		Driver:        v.GetString(cfgKeyDriver),
		DSN:           dsn,
		Dialect:       v.GetString(cfgKeyDialect),
		CountStrategy: v.GetString(cfgKeyCountStrategy),
	}
	if err := cfg.Validate(); err != nil {
		return persist.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// writeDefaultConfig creates the config file with default values if it
// does not exist. Idempotent.
func writeDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dsn, err := paths.ResolveDatabase("")
	if err != nil {
		return fmt.Errorf("resolving database path: %w", err)
	}
	cfg := persist.Config{
		Driver:  "sqlite",
		DSN:     dsn,
		Dialect: string(schema.DialectSQLite),
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
