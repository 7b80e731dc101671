// Package config handles application configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dkoval/voicekey/internal/types"
)

const (
	appName        = "voicekey"
	configFileName = "config.json"

	// apiKeyPlaceholder is what a freshly generated config file contains.
	// Starting with it still in place is a configuration error.
	apiKeyPlaceholder = "YOUR_API_KEY_HERE"
)

// ErrNoAPIKey indicates the Gemini API key is missing or still the placeholder.
var ErrNoAPIKey = errors.New("gemini api key not configured")

// Default model identifiers, toggled with Ctrl+F9.
const (
	DefaultPrimaryModel   = "gemini-2.5-pro-preview-03-25"
	DefaultSecondaryModel = "gemini-2.5-flash-preview-04-17"
)

// Default instruction templates, one per prompt mode.
const (
	DefaultTranscribePrompt = "Слушай внимательно, и транскрибируй мои голосовые, и ничего лишнего кроме транскрибации не отправляй, я могу иногда смешивать языки русского и английского, транскрибируй их внимательно и тщательно."
	DefaultAssistantPrompt  = "Слушай внимательно, ты даешь ответ на мои вопросы, без воды, ясно и понятно."
)

// Config represents the application configuration.
type Config struct {
	APIKey           string `json:"api_key"`
	PrimaryModel     string `json:"primary_model,omitempty"`
	SecondaryModel   string `json:"secondary_model,omitempty"`
	TranscribePrompt string `json:"transcribe_prompt,omitempty"`
	AssistantPrompt  string `json:"assistant_prompt,omitempty"`

	// DebounceMS is the minimum interval between two accepted trigger
	// presses, in milliseconds.
	DebounceMS int `json:"debounce_ms,omitempty"`

	// AudioDir overrides where finished recordings are written.
	AudioDir string `json:"audio_dir,omitempty"`

	// HistoryTTLDays controls how long submission results are retained.
	HistoryTTLDays int `json:"history_ttl_days,omitempty"`

	DisableNotifications bool `json:"disable_notifications,omitempty"`
	DisableHistory       bool `json:"disable_history,omitempty"`
}

// Load loads configuration from the config file.
// Returns default config if the file doesn't exist. A missing file with
// GEMINI_API_KEY set in the environment is a valid configuration.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, fmt.Errorf("get config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := defaultConfig()
			// Write a template so the user has something to edit.
			if err := cfg.Save(); err != nil {
				return nil, fmt.Errorf("write default config: %w", err)
			}
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

// Save persists the configuration to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return fmt.Errorf("get config path: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// Validate reports whether the configuration is usable at startup.
func (c *Config) Validate() error {
	if c.APIKey == "" || c.APIKey == apiKeyPlaceholder {
		return ErrNoAPIKey
	}
	return nil
}

// DebounceWindow returns the trigger debounce interval.
func (c *Config) DebounceWindow() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// ModelName maps a model slot to the configured Gemini model identifier.
func (c *Config) ModelName(m types.Model) string {
	if m == types.ModelSecondary {
		return c.SecondaryModel
	}
	return c.PrimaryModel
}

// Prompt maps a prompt mode to its instruction template.
func (c *Config) Prompt(mode types.PromptMode) string {
	if mode == types.ModeTranscribe {
		return c.TranscribePrompt
	}
	return c.AssistantPrompt
}

// HistoryTTL returns the retention period for history entries.
func (c *Config) HistoryTTL() time.Duration {
	return time.Duration(c.HistoryTTLDays) * 24 * time.Hour
}

// AudioPath returns the directory for finished recording artifacts,
// creating it if needed.
func (c *Config) AudioPath() (string, error) {
	if c.AudioDir != "" {
		if err := os.MkdirAll(c.AudioDir, 0755); err != nil {
			return "", fmt.Errorf("create audio dir: %w", err)
		}
		return c.AudioDir, nil
	}
	return appDir("audio")
}

// HistoryPath returns the directory for the result history store.
func (c *Config) HistoryPath() (string, error) {
	return appDir("history")
}

// LogPath returns the append-only diagnostics log file path.
func LogPath() (string, error) {
	dir, err := appDir("logs")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName+".log"), nil
}

func (c *Config) applyDefaults() {
	def := defaultConfig()
	if c.PrimaryModel == "" {
		c.PrimaryModel = def.PrimaryModel
	}
	if c.SecondaryModel == "" {
		c.SecondaryModel = def.SecondaryModel
	}
	if c.TranscribePrompt == "" {
		c.TranscribePrompt = def.TranscribePrompt
	}
	if c.AssistantPrompt == "" {
		c.AssistantPrompt = def.AssistantPrompt
	}
	if c.DebounceMS <= 0 {
		c.DebounceMS = def.DebounceMS
	}
	if c.HistoryTTLDays <= 0 {
		c.HistoryTTLDays = def.HistoryTTLDays
	}
}

// applyEnv lets the environment override the API key so the config file
// never has to hold the secret.
func (c *Config) applyEnv() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.APIKey = key
	}
}

func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}

func appDir(sub string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	path := filepath.Join(dir, appName, sub)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("create %s dir: %w", sub, err)
	}
	return path, nil
}

func defaultConfig() *Config {
	return &Config{
		APIKey:           apiKeyPlaceholder,
		PrimaryModel:     DefaultPrimaryModel,
		SecondaryModel:   DefaultSecondaryModel,
		TranscribePrompt: DefaultTranscribePrompt,
		AssistantPrompt:  DefaultAssistantPrompt,
		DebounceMS:       600,
		HistoryTTLDays:   30,
	}
}
