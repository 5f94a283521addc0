package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"videolens/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// Gemini contains credentials and model selection for the hosted model.
type Gemini struct {
	APIKey        string   `toml:"api_key"`
	Model         string   `toml:"model"`
	AllowedModels []string `toml:"allowed_models"`
}

// Generation contains the sampling parameters passed verbatim to the model.
type Generation struct {
	Temperature      float32 `toml:"temperature"`
	TopP             float32 `toml:"top_p"`
	TopK             int32   `toml:"top_k"`
	MaxOutputTokens  int32   `toml:"max_output_tokens"`
	ResponseMIMEType string  `toml:"response_mime_type"`
}

// Prompts contains the default system instruction and user prompt.
type Prompts struct {
	SystemInstruction string `toml:"system_instruction"`
	InputPrompt       string `toml:"input_prompt"`
}

// Polling contains the readiness poll policy for uploaded assets.
type Polling struct {
	IntervalSeconds    int     `toml:"interval_seconds"`
	MaxIntervalSeconds int     `toml:"max_interval_seconds"`
	BackoffMultiplier  float64 `toml:"backoff_multiplier"`
	MaxWaitSeconds     int     `toml:"max_wait_seconds"`
}

// Uploads contains local staging and remote asset settings.
type Uploads struct {
	TempDir           string   `toml:"temp_dir"`
	AllowedExtensions []string `toml:"allowed_extensions"`
	MaxUploadMB       int      `toml:"max_upload_mb"`
	DeleteRemote      bool     `toml:"delete_remote"`
}

// Server contains HTTP presentation settings.
type Server struct {
	Bind           string   `toml:"bind"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Analysis       bool   `toml:"analysis"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	LogDir string `toml:"log_dir"`
}

// Config encapsulates all configuration values for videolens.
//
// Configuration sections by subsystem:
//   - Gemini: API key and model allow-list
//   - Generation: sampling parameters
//   - Prompts: default system instruction and input prompt
//   - Polling: upload readiness poll interval, backoff and max wait
//   - Uploads: staging directory, accepted extensions, remote cleanup
//   - Server: HTTP bind address and CORS origins
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and optional file directory
type Config struct {
	Gemini        Gemini        `toml:"gemini"`
	Generation    Generation    `toml:"generation"`
	Prompts       Prompts       `toml:"prompts"`
	Polling       Polling       `toml:"polling"`
	Uploads       Uploads       `toml:"uploads"`
	Server        Server        `toml:"server"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A .env file in the working directory is applied
// to the process environment first; variables that are already set win.
func Load(path string) (*Config, string, bool, error) {
	if err := loadDotEnv(dotEnvFile); err != nil {
		return nil, "", false, err
	}

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("videolens.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// RequireAPIKey reports a configuration error when no Gemini API key was found in
// the config file or the environment. Commands that talk to the model call it
// before doing any work.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.Gemini.APIKey) != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return services.Wrap(
		services.ErrConfiguration,
		"config",
		"gemini.api_key",
		fmt.Sprintf("API key is required. Set GEMINI_API_KEY (or add it to .env) or edit %s (create with 'videolens config init')", defaultPath),
		nil,
	)
}

// EnsureDirectories creates the staging root and, when configured, the log directory.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Uploads.TempDir}
	if strings.TrimSpace(c.Logging.LogDir) != "" {
		dirs = append(dirs, c.Logging.LogDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ModelAllowed reports whether name is on the model allow-list.
func (c *Config) ModelAllowed(name string) bool {
	name = strings.TrimSpace(name)
	for _, allowed := range c.Gemini.AllowedModels {
		if allowed == name {
			return true
		}
	}
	return false
}

// ExtensionAllowed reports whether the file name carries an accepted upload extension.
func (c *Config) ExtensionAllowed(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return false
	}
	for _, allowed := range c.Uploads.AllowedExtensions {
		if allowed == ext {
			return true
		}
	}
	return false
}

// PollInterval returns the initial readiness poll interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Polling.IntervalSeconds) * time.Second
}

// PollMaxInterval returns the cap applied to backoff growth.
func (c *Config) PollMaxInterval() time.Duration {
	return time.Duration(c.Polling.MaxIntervalSeconds) * time.Second
}

// PollMaxWait returns the total readiness wait budget; zero means unbounded.
func (c *Config) PollMaxWait() time.Duration {
	return time.Duration(c.Polling.MaxWaitSeconds) * time.Second
}

// MaxUploadBytes returns the request body limit for HTTP uploads.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Uploads.MaxUploadMB) << 20
}

// Redacted returns a copy safe to print, with credentials masked.
func (c Config) Redacted() Config {
	if key := strings.TrimSpace(c.Gemini.APIKey); key != "" {
		if len(key) > 4 {
			c.Gemini.APIKey = strings.Repeat("*", 8) + key[len(key)-4:]
		} else {
			c.Gemini.APIKey = strings.Repeat("*", 8)
		}
	}
	c.Gemini.AllowedModels = append([]string(nil), c.Gemini.AllowedModels...)
	c.Uploads.AllowedExtensions = append([]string(nil), c.Uploads.AllowedExtensions...)
	c.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	return c
}

// Encode renders the configuration as TOML.
func (c Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultTempDir() string {
	return filepath.Join(os.TempDir(), "videolens")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
