package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeGemini()
	c.normalizeGeneration()
	c.normalizePolling()
	if err := c.normalizeUploads(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeNotifications()
	return c.normalizeLogging()
}

func (c *Config) normalizeGemini() {
	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	if c.Gemini.APIKey == "" {
		if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok && strings.TrimSpace(value) != "" {
			c.Gemini.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("GOOGLE_API_KEY"); ok {
			c.Gemini.APIKey = strings.TrimSpace(value)
		}
	}
	c.Gemini.AllowedModels = dedupeTrimmed(c.Gemini.AllowedModels, false)
	if len(c.Gemini.AllowedModels) == 0 {
		c.Gemini.AllowedModels = append([]string(nil), defaultAllowedModels...)
	}
	c.Gemini.Model = strings.TrimSpace(c.Gemini.Model)
	if c.Gemini.Model == "" {
		c.Gemini.Model = c.Gemini.AllowedModels[0]
	}
}

func (c *Config) normalizeGeneration() {
	c.Generation.ResponseMIMEType = strings.TrimSpace(c.Generation.ResponseMIMEType)
	if c.Generation.ResponseMIMEType == "" {
		c.Generation.ResponseMIMEType = defaultResponseMIMEType
	}
}

func (c *Config) normalizePolling() {
	if c.Polling.IntervalSeconds <= 0 {
		c.Polling.IntervalSeconds = defaultPollInterval
	}
	if c.Polling.BackoffMultiplier <= 0 {
		c.Polling.BackoffMultiplier = defaultBackoffMultiplier
	}
	if c.Polling.MaxIntervalSeconds < c.Polling.IntervalSeconds {
		c.Polling.MaxIntervalSeconds = c.Polling.IntervalSeconds
	}
	if c.Polling.MaxWaitSeconds < 0 {
		c.Polling.MaxWaitSeconds = 0
	}
}

func (c *Config) normalizeUploads() error {
	var err error
	if strings.TrimSpace(c.Uploads.TempDir) == "" {
		c.Uploads.TempDir = defaultTempDir()
	}
	if c.Uploads.TempDir, err = expandPath(c.Uploads.TempDir); err != nil {
		return fmt.Errorf("uploads.temp_dir: %w", err)
	}
	exts := make([]string, 0, len(c.Uploads.AllowedExtensions))
	for _, ext := range c.Uploads.AllowedExtensions {
		exts = append(exts, strings.TrimPrefix(strings.TrimSpace(ext), "."))
	}
	c.Uploads.AllowedExtensions = dedupeTrimmed(exts, true)
	if len(c.Uploads.AllowedExtensions) == 0 {
		c.Uploads.AllowedExtensions = append([]string(nil), defaultAllowedExtensions...)
	}
	if c.Uploads.MaxUploadMB <= 0 {
		c.Uploads.MaxUploadMB = defaultMaxUploadMB
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	c.Server.AllowedOrigins = dedupeTrimmed(c.Server.AllowedOrigins, false)
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = append([]string(nil), defaultAllowedOrigins...)
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
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
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.LogDir) != "" {
		var err error
		if c.Logging.LogDir, err = expandPath(c.Logging.LogDir); err != nil {
			return fmt.Errorf("logging.log_dir: %w", err)
		}
	}
	return nil
}

func dedupeTrimmed(values []string, lower bool) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.TrimSpace(value)
		if lower {
			normalized = strings.ToLower(normalized)
		}
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}
