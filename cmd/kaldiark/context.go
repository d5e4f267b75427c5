package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"kaldiark/internal/ark"
	"kaldiark/internal/config"
	"kaldiark/internal/fileutil"
	"kaldiark/internal/logging"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
			if err := cfg.Validate(); err != nil {
				c.configErr = err
				return
			}
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

// logger builds a run-scoped logger. Output goes to the command's stderr, or
// to stderr plus the log file when logging.dir is configured.
func (c *commandContext) logger(cmd *cobra.Command, component string) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	var base *slog.Logger
	if cfg.Logging.Dir != "" {
		base, err = logging.NewFromConfig(cfg)
	} else {
		base, err = logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Writer: cmd.ErrOrStderr(),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	runCtx := logging.WithRunID(cmd.Context(), uuid.NewString())
	cmd.SetContext(runCtx)
	return logging.NewComponentLogger(logging.WithContext(runCtx, base), component), nil
}

func (c *commandContext) archiveReader(retain ark.RetainFilter, logger *slog.Logger) (ark.Reader, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return ark.Reader{}, err
	}
	policy, err := ark.ParseDuplicatePolicy(cfg.Reader.Duplicates)
	if err != nil {
		return ark.Reader{}, err
	}
	return ark.Reader{Retain: retain, Duplicates: policy, Logger: logger}, nil
}

func (c *commandContext) archiveWriter() (ark.Writer, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return ark.Writer{}, err
	}
	return ark.NewWriter(cfg.Writer.Precision), nil
}

// readArchive parses the archive at path ("-" for stdin) with the optional
// retain filter file applied.
func (c *commandContext) readArchive(path, filterPath string, logger *slog.Logger) (*ark.Archive, error) {
	retain, err := loadRetainFilter(filterPath, logger)
	if err != nil {
		return nil, err
	}
	reader, err := c.archiveReader(retain, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("reading kaldi archive", logging.String(logging.FieldSource, path))
	in, err := fileutil.OpenInput(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer in.Close()

	a, err := reader.Read(in)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	logger.Info("archive parsed", logging.Int("records", a.Len()))
	return a, nil
}

func loadRetainFilter(path string, logger *slog.Logger) (ark.RetainFilter, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	logger.Info("reading filter set", logging.String(logging.FieldSource, path))
	in, err := fileutil.OpenInput(path)
	if err != nil {
		return nil, fmt.Errorf("open filter: %w", err)
	}
	defer in.Close()
	retain, err := ark.ReadRetainFilter(in)
	if err != nil {
		return nil, err
	}
	logger.Debug("filter set loaded", logging.Int("ids", len(retain)))
	return retain, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
