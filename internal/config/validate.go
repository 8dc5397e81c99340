package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTrust(); err != nil {
		return err
	}
	if err := c.validateWatermark(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTrust() error {
	for field, value := range map[string]string{
		"trust.anchors_url":      c.Trust.AnchorsURL,
		"trust.allowed_list_url": c.Trust.AllowedListURL,
		"trust.policy_url":       c.Trust.PolicyURL,
	} {
		if value == "" {
			continue // a missing trust document is non-fatal
		}
		parsed, err := url.Parse(value)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return fmt.Errorf("%s must be an absolute http(s) URL, got %q", field, value)
		}
	}
	return nil
}

func (c *Config) validateWatermark() error {
	variant := strings.ToUpper(c.Watermark.ModelVariant)
	if variant != "P" && variant != "Q" {
		return fmt.Errorf("watermark.model_variant must be \"P\" or \"Q\", got %q", c.Watermark.ModelVariant)
	}
	c.Watermark.ModelVariant = variant
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}
