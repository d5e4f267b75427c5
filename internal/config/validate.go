package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateReader(); err != nil {
		return err
	}
	if err := c.validateWriter(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateReader() error {
	switch c.Reader.Duplicates {
	case "reject", "last_wins":
		return nil
	default:
		return fmt.Errorf("reader.duplicates must be \"reject\" or \"last_wins\", got %q", c.Reader.Duplicates)
	}
}

func (c *Config) validateWriter() error {
	if c.Writer.Precision < -1 {
		return errors.New("writer.precision must be -1 (lossless) or a non-negative digit count")
	}
	if c.Writer.Precision > 30 {
		return errors.New("writer.precision must not exceed 30")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}
