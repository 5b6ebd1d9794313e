package persist

import (
	"errors"
	"fmt"

	"github.com/mesh-intelligence/shelf/pkg/schema"
)

// Config holds connection parameters for Open.
type Config struct {
	Driver        string `json:"driver" yaml:"driver"`
	DSN           string `json:"dsn" yaml:"dsn"`
	Dialect       string `json:"dialect" yaml:"dialect"`
	CountStrategy string `json:"count_strategy,omitempty" yaml:"count_strategy,omitempty"`
}

// Config validation errors.
var (
	ErrDriverEmpty          = errors.New("driver must not be empty")
	ErrDSNEmpty             = errors.New("dsn must not be empty")
	ErrCountStrategyUnknown = errors.New("unknown count strategy")
)

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package (or schema.ErrDialectUnknown) on failure.
func (c Config) Validate() error {
	if c.Driver == "" {
		return ErrDriverEmpty
	}
	if c.DSN == "" {
		return ErrDSNEmpty
	}
	if _, err := schema.ParseDialect(c.Dialect); err != nil {
		return fmt.Errorf("%w: %q", err, c.Dialect)
	}
	if c.CountStrategy != "" {
		if _, err := ParseCountStrategy(c.CountStrategy); err != nil {
			return err
		}
	}
	return nil
}
