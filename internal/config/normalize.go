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
	c.normalizeCatalog()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = ExpandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCatalog() {
	c.Catalog.APIKey = strings.TrimSpace(c.Catalog.APIKey)
	if value, ok := os.LookupEnv("CARDLEDGER_CATALOG_API_KEY"); ok && strings.TrimSpace(value) != "" {
		c.Catalog.APIKey = strings.TrimSpace(value)
	}
	c.Catalog.BaseURL = strings.TrimSpace(c.Catalog.BaseURL)
	if value, ok := os.LookupEnv("CARDLEDGER_CATALOG_URL"); ok && strings.TrimSpace(value) != "" {
		c.Catalog.BaseURL = strings.TrimSpace(value)
	}
	if c.Catalog.RequestTimeout <= 0 {
		c.Catalog.RequestTimeout = defaultCatalogTimeout
	}
	if c.Catalog.MaxResults <= 0 {
		c.Catalog.MaxResults = defaultCatalogMaxResults
	}
	c.Catalog.PlaceholderMarker = strings.TrimSpace(c.Catalog.PlaceholderMarker)
	if c.Catalog.PlaceholderMarker == "" {
		c.Catalog.PlaceholderMarker = defaultPlaceholderMarker
	}
	if c.Catalog.CacheTTLMinutes <= 0 {
		c.Catalog.CacheTTLMinutes = defaultCacheTTLMinutes
	}
	if c.Catalog.MinLookupIntervalMS < 0 {
		c.Catalog.MinLookupIntervalMS = defaultMinLookupIntervalMS
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
