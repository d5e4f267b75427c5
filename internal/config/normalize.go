package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeReader()
	if err := c.normalizeStore(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeReader() {
	c.Reader.Duplicates = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(c.Reader.Duplicates)), "-", "_")
	if c.Reader.Duplicates == "" {
		c.Reader.Duplicates = defaultDuplicates
	}
}

func (c *Config) normalizeStore() error {
	if value, ok := os.LookupEnv("KALDIARK_STORE_PATH"); ok && strings.TrimSpace(value) != "" {
		c.Store.Path = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		c.Store.Path = defaultStorePath
	}
	var err error
	if c.Store.Path, err = expandPath(c.Store.Path); err != nil {
		return fmt.Errorf("store.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	if value, ok := os.LookupEnv("KALDIARK_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.Dir) != "" {
		var err error
		if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
			return fmt.Errorf("logging.dir: %w", err)
		}
	}
	return nil
}
