package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTrust()
	c.normalizeReader()
	if err := c.normalizeWatermark(); err != nil {
		return err
	}
	c.normalizeDownload()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTrust() {
	if value, ok := os.LookupEnv("CREDENCE_TRUST_ANCHORS_URL"); ok && strings.TrimSpace(value) != "" {
		c.Trust.AnchorsURL = value
	}
	if value, ok := os.LookupEnv("CREDENCE_TRUST_ALLOWED_URL"); ok && strings.TrimSpace(value) != "" {
		c.Trust.AllowedListURL = value
	}
	if value, ok := os.LookupEnv("CREDENCE_TRUST_POLICY_URL"); ok && strings.TrimSpace(value) != "" {
		c.Trust.PolicyURL = value
	}
	c.Trust.AnchorsURL = strings.TrimSpace(c.Trust.AnchorsURL)
	c.Trust.AllowedListURL = strings.TrimSpace(c.Trust.AllowedListURL)
	c.Trust.PolicyURL = strings.TrimSpace(c.Trust.PolicyURL)
	if c.Trust.FetchTimeout <= 0 {
		c.Trust.FetchTimeout = defaultFetchTimeout
	}
}

func (c *Config) normalizeReader() {
	c.Reader.Binary = strings.TrimSpace(c.Reader.Binary)
	if c.Reader.Binary == "" {
		c.Reader.Binary = defaultReaderBinary
	}
	if c.Reader.Timeout <= 0 {
		c.Reader.Timeout = defaultReaderTimeout
	}
	if c.Reader.MaxOutputKiB <= 0 {
		c.Reader.MaxOutputKiB = defaultMaxOutputKiB
	}
}

func (c *Config) normalizeWatermark() error {
	c.Watermark.Runtime = strings.TrimSpace(c.Watermark.Runtime)
	if c.Watermark.Runtime == "" {
		c.Watermark.Runtime = defaultRuntime
	}
	c.Watermark.Script = strings.TrimSpace(c.Watermark.Script)
	if c.Watermark.Script == "" {
		c.Watermark.Script = defaultScript
	}
	expanded, err := expandPath(c.Watermark.Script)
	if err != nil {
		return fmt.Errorf("watermark.script: %w", err)
	}
	c.Watermark.Script = expanded
	c.Watermark.ModelVariant = strings.TrimSpace(c.Watermark.ModelVariant)
	if c.Watermark.ModelVariant == "" {
		c.Watermark.ModelVariant = defaultModelVariant
	}
	if c.Watermark.Timeout <= 0 {
		c.Watermark.Timeout = defaultDecodeTimeout
	}
	if c.Watermark.MaxOutputKiB <= 0 {
		c.Watermark.MaxOutputKiB = defaultMaxOutputKiB
	}
	return nil
}

func (c *Config) normalizeDownload() {
	if c.Download.Timeout <= 0 {
		c.Download.Timeout = defaultDownloadTime
	}
	if c.Download.MaxMiB <= 0 {
		c.Download.MaxMiB = defaultDownloadMaxMiB
	}
}

func (c *Config) normalizeHistory() error {
	c.History.Path = strings.TrimSpace(c.History.Path)
	if c.History.Path == "" {
		c.History.Path = defaultHistoryPath
	}
	expanded, err := expandPath(c.History.Path)
	if err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	c.History.Path = expanded
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
