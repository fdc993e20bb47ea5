package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// LoadSettings reads settings from path on top of DefaultSettings. A missing
// file is not an error.
func LoadSettings(path string) (*Settings, error) {
	cfg := DefaultSettings()

	if !FileExists(path) {
		if DebugLog != nil {
			DebugLog.Printf("[Config] %s not found, using defaults", path)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	fillDefaults(cfg)
	return cfg, nil
}

// fillDefaults restores defaults for fields the file left blank.
func fillDefaults(cfg *Settings) {
	def := DefaultSettings()
	if cfg.DataDirectory == "" {
		cfg.DataDirectory = def.DataDirectory
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		cfg.Server.MaxBodyBytes = def.Server.MaxBodyBytes
	}
	if cfg.Provider.Type == "" {
		cfg.Provider.Type = def.Provider.Type
	}
	if cfg.Provider.MaxTokens <= 0 {
		cfg.Provider.MaxTokens = def.Provider.MaxTokens
	}
	if cfg.Provider.SystemPrompt == "" {
		cfg.Provider.SystemPrompt = def.Provider.SystemPrompt
	}
	if cfg.Client.ServerURL == "" {
		cfg.Client.ServerURL = def.Client.ServerURL
	}
}

func SaveSettings(cfg *Settings, path string) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create settings file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	return nil
}

// CreateDefaultSettings writes the commented template to path unless a file
// already exists there. It reports whether a file was written.
func CreateDefaultSettings(path string) (bool, error) {
	if FileExists(path) {
		return false, nil
	}
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	content := GenerateSettingsTemplate()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return false, fmt.Errorf("failed to write settings: %w", err)
	}

	return true, nil
}
