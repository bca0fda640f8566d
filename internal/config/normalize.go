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
	c.normalizeRemoteCache()
	c.normalizeSync()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeRemoteCache() {
	c.RemoteCache.URL = strings.TrimRight(strings.TrimSpace(c.RemoteCache.URL), "/")
	c.RemoteCache.APIKey = strings.TrimSpace(c.RemoteCache.APIKey)
	if c.RemoteCache.APIKey == "" {
		if value, ok := os.LookupEnv("SEGUE_REMOTE_API_KEY"); ok {
			c.RemoteCache.APIKey = strings.TrimSpace(value)
		}
	}
	c.RemoteCache.Table = strings.TrimSpace(c.RemoteCache.Table)
	if c.RemoteCache.Table == "" {
		c.RemoteCache.Table = defaultRemoteTable
	}
	if c.RemoteCache.TimeoutSeconds <= 0 {
		c.RemoteCache.TimeoutSeconds = defaultRemoteTimeoutSeconds
	}
}

func (c *Config) normalizeSync() {
	if c.Sync.NavigationMinIntervalMS <= 0 {
		c.Sync.NavigationMinIntervalMS = defaultNavigationMinIntervalMS
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
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
}
