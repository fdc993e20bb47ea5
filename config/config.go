package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type ServerConfig struct {
	Addr         string `toml:"addr"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
}

type ProviderConfig struct {
	Type         string `toml:"type"`
	BaseURL      string `toml:"base_url,omitempty"`
	Model        string `toml:"model"`
	MaxTokens    int64  `toml:"max_tokens"`
	SystemPrompt string `toml:"system_prompt,omitempty"`
}

type ClientConfig struct {
	ServerURL string `toml:"server_url"`
}

// Settings is the on-disk TOML representation.
type Settings struct {
	DataDirectory string         `toml:"data_directory"`
	Server        ServerConfig   `toml:"server"`
	Provider      ProviderConfig `toml:"provider"`
	Client        ClientConfig   `toml:"client"`
}

// Config is the resolved runtime configuration: file settings, then
// environment overrides. APIKey only ever comes from the environment.
type Config struct {
	DataDirectory string
	Addr          string
	MaxBodyBytes  int64
	ProviderType  string
	BaseURL       string
	Model         string
	MaxTokens     int64
	SystemPrompt  string
	ServerURL     string
	APIKey        string
}

var Debug = false
var DebugLog *log.Logger

// ErrMissingCredential is returned by Validate when a hosted provider has no API key.
var ErrMissingCredential = errors.New("provider credential is not set")

var credentialEnvVars = map[string]string{
	"anthropic":  "ANTHROPIC_API_KEY",
	"openai":     "OPENAI_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
}

// CredentialEnvVar returns the environment variable holding the API key for a
// provider type, or "" when the provider needs none.
func CredentialEnvVar(providerType string) string {
	return credentialEnvVars[providerType]
}

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("STREAMCHAT_ADDR"); addr != "" {
		c.Addr = addr
	}
	if p := os.Getenv("STREAMCHAT_PROVIDER"); p != "" {
		c.ProviderType = p
	}
	if model := os.Getenv("STREAMCHAT_MODEL"); model != "" {
		c.Model = model
	}
	if baseURL := os.Getenv("STREAMCHAT_BASE_URL"); baseURL != "" {
		c.BaseURL = baseURL
	}
	if dataDir := os.Getenv("STREAMCHAT_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if serverURL := os.Getenv("STREAMCHAT_SERVER_URL"); serverURL != "" {
		c.ServerURL = serverURL
	}
	if v := os.Getenv("STREAMCHAT_MAX_TOKENS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			c.MaxTokens = n
		}
	}
	if envVar := CredentialEnvVar(c.ProviderType); envVar != "" {
		c.APIKey = os.Getenv(envVar)
	}
}

// Validate checks that the configuration can start a server.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("server address is empty")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive, got %d", c.MaxBodyBytes)
	}
	switch c.ProviderType {
	case "ollama":
		return nil
	case "anthropic", "openai", "openrouter":
		if c.APIKey == "" {
			return fmt.Errorf("%w: set %s in the environment or a .env file", ErrMissingCredential, CredentialEnvVar(c.ProviderType))
		}
		return nil
	default:
		return fmt.Errorf("unknown provider type: %s", c.ProviderType)
	}
}

func CheckDebug() bool {
	debug := os.Getenv("STREAMCHAT_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	if err := EnsureDataDirPermissions(dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not prepare data directory %s: %v\n", dataDir, err)
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// 0600: request bodies and provider errors end up in here
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (STREAMCHAT_DEBUG=%s) ===", os.Getenv("STREAMCHAT_DEBUG"))
	DebugLog.Printf("Log path: %s", logPath)
}

// Load resolves the configuration. A .env file in the working directory is
// loaded first; a missing settings file is not an error and yields defaults.
// An empty path means GetSettingsFilePath().
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = GetSettingsFilePath()
	}

	settings, err := LoadSettings(ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	cfg := &Config{
		DataDirectory: settings.DataDirectory,
		Addr:          settings.Server.Addr,
		MaxBodyBytes:  settings.Server.MaxBodyBytes,
		ProviderType:  settings.Provider.Type,
		BaseURL:       settings.Provider.BaseURL,
		Model:         settings.Provider.Model,
		MaxTokens:     settings.Provider.MaxTokens,
		SystemPrompt:  settings.Provider.SystemPrompt,
		ServerURL:     settings.Client.ServerURL,
	}
	cfg.applyEnvOverrides()

	return cfg, nil
}
