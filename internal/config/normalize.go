package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRecorder()
	if err := c.normalizeCatalog(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	output := strings.TrimSpace(c.Paths.OutputDir)
	if output == "" || output == defaultOutputDir {
		if value, ok := os.LookupEnv(OutputDirEnv); ok && strings.TrimSpace(value) != "" {
			output = strings.TrimSpace(value)
		}
	}
	if output == "" {
		output = defaultOutputDir
	}

	var err error
	if c.Paths.OutputDir, err = expandPath(output); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRecorder() {
	c.Recorder.FilePrefix = strings.TrimSpace(c.Recorder.FilePrefix)
	if c.Recorder.FilePrefix == "" {
		c.Recorder.FilePrefix = defaultFilePrefix
	}
	if c.Recorder.EventQueueSize == 0 {
		c.Recorder.EventQueueSize = defaultEventQueueSize
	}
}

func (c *Config) normalizeCatalog() error {
	path := strings.TrimSpace(c.Catalog.Path)
	if path == "" {
		if c.Paths.LogDir == "" {
			c.Catalog.Path = ""
			return nil
		}
		c.Catalog.Path = filepath.Join(c.Paths.LogDir, defaultCatalogFile)
		return nil
	}
	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("catalog.path: %w", err)
	}
	c.Catalog.Path = expanded
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
