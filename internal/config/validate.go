package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. The API key is not checked here;
// see RequireAPIKey.
func (c *Config) Validate() error {
	if err := c.validateGemini(); err != nil {
		return err
	}
	if err := c.validateGeneration(); err != nil {
		return err
	}
	if err := c.validatePolling(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateGemini() error {
	if !c.ModelAllowed(c.Gemini.Model) {
		return fmt.Errorf("gemini.model %q is not listed in gemini.allowed_models", c.Gemini.Model)
	}
	return nil
}

func (c *Config) validateGeneration() error {
	g := c.Generation
	if g.Temperature < 0 {
		return errors.New("generation.temperature must be >= 0")
	}
	if g.TopP < 0 || g.TopP > 1 {
		return errors.New("generation.top_p must be between 0 and 1")
	}
	if g.TopK < 0 {
		return errors.New("generation.top_k must be >= 0")
	}
	if g.MaxOutputTokens <= 0 {
		return errors.New("generation.max_output_tokens must be positive")
	}
	return nil
}

func (c *Config) validatePolling() error {
	if c.Polling.BackoffMultiplier < 1 {
		return errors.New("polling.backoff_multiplier must be >= 1")
	}
	if c.Polling.MaxWaitSeconds > 0 && c.Polling.MaxWaitSeconds < c.Polling.IntervalSeconds {
		return errors.New("polling.max_wait_seconds must be 0 (unbounded) or at least polling.interval_seconds")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}
