package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dkorbelainen/sniptext/pkg/logging"
)

// Config holds the application configuration. Field defaults come from
// DefaultConfig; a YAML file only needs the keys it overrides.
type Config struct {
	// Hotkey configuration
	Hotkey        string `yaml:"hotkey"`
	DisplayServer string `yaml:"display_server"` // auto, wayland, x11

	// OCR configuration
	OCREngine              string   `yaml:"ocr_engine"` // ensemble, tesseract, ollama
	OCRModelPath           string   `yaml:"ocr_model_path"`
	OCRLanguage            string   `yaml:"ocr_language"` // eng, rus, eng+rus, ...
	OCRConfidenceThreshold float64  `yaml:"ocr_confidence_threshold"`
	AdaptiveEnsemble       bool     `yaml:"adaptive_ensemble"`
	BackendTimeout         Duration `yaml:"backend_timeout"`

	// Ollama backend
	OllamaURL   string `yaml:"ollama_url"`
	OllamaModel string `yaml:"ollama_model"`

	// Performance
	MaxImageSize int `yaml:"max_image_size"` // longest edge, pixels

	// Desktop integration commands. Empty slices select a default for
	// the resolved display server.
	CaptureSelectCommand  []string `yaml:"capture_select_command"`
	CaptureCommand        []string `yaml:"capture_command"`
	ClipboardCopyCommand  []string `yaml:"clipboard_copy_command"`
	ClipboardPasteCommand []string `yaml:"clipboard_paste_command"`
	NotifyCommand         []string `yaml:"notify_command"`

	// UI
	NotificationEnabled bool `yaml:"notification_enabled"`

	// Text correction
	EnableTextCorrection bool `yaml:"enable_text_correction"`
	AggressiveCorrection bool `yaml:"aggressive_correction"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// deprecatedKeys are dropped on load. They survive in config files
// written by earlier releases.
var deprecatedKeys = []string{
	"preprocessing_enabled",
	"preprocessing_mode",
	"save_history",
	"history_db_path",
	"max_history_items",
	"show_confidence_overlay",
	"context_aware_detection",
	"num_threads",
	"use_gpu",
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Hotkey:        "<ctrl>+<alt>+t",
		DisplayServer: "auto",

		OCREngine:              "ensemble",
		OCRModelPath:           defaultModelDir(),
		OCRLanguage:            "eng",
		OCRConfidenceThreshold: 0.6,
		AdaptiveEnsemble:       true,
		BackendTimeout:         Duration(30 * time.Second),

		OllamaURL:   "http://localhost:11434",
		OllamaModel: "llama3.2-vision",

		MaxImageSize: 4096,

		NotificationEnabled: true,

		EnableTextCorrection: true,
		AggressiveCorrection: false,

		LogLevel: "info",
	}
}

// DefaultPath returns the standard config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "sniptext", "config.yaml")
	}
	return filepath.Join(dir, "sniptext", "config.yaml")
}

func defaultModelDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "sniptext", "models")
	}
	return filepath.Join(home, ".local", "share", "sniptext", "models")
}

// ModelFile is the strategy model location under the model directory.
func (c *Config) ModelFile() string {
	return filepath.Join(c.OCRModelPath, "confidence_model.json")
}

// Load reads the configuration file at path, writing a default file on
// first run. Values absent from the file keep their defaults, and
// SNIPTEXT_* environment variables override a small set of fields.
func Load(path string) (*Config, error) {
	logger := logging.GetLogger("config")
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if saveErr := cfg.Save(path); saveErr != nil {
			logger.Warn().Err(saveErr).Str("path", path).Msg("Could not write default config")
		} else {
			logger.Info().Str("path", path).Msg("Created default config")
		}
		cfg.applyEnvOverrides()
		return cfg, cfg.Validate()
	}
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	for _, key := range deprecatedKeys {
		if _, ok := raw[key]; ok {
			logger.Warn().Str("key", key).Msg("Dropping deprecated config key")
		}
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating parent directories.
// Deprecated keys read from an old file are not written back.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("serializing config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// Validate checks enum fields and numeric ranges.
func (c *Config) Validate() error {
	switch c.OCREngine {
	case "ensemble", "tesseract", "ollama":
	default:
		return fmt.Errorf("ocr_engine must be ensemble, tesseract or ollama, got %q", c.OCREngine)
	}

	switch c.DisplayServer {
	case "auto", "wayland", "x11":
	default:
		return fmt.Errorf("display_server must be auto, wayland or x11, got %q", c.DisplayServer)
	}

	if c.BackendTimeout <= 0 {
		return fmt.Errorf("backend_timeout must be positive, got %s", time.Duration(c.BackendTimeout))
	}
	if c.MaxImageSize < 256 {
		return fmt.Errorf("max_image_size must be at least 256, got %d", c.MaxImageSize)
	}
	if c.OCRConfidenceThreshold < 0 || c.OCRConfidenceThreshold > 1 {
		return fmt.Errorf("ocr_confidence_threshold must be in [0,1], got %g", c.OCRConfidenceThreshold)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	c.Hotkey = getEnvOrDefault("SNIPTEXT_HOTKEY", c.Hotkey)
	c.OCREngine = getEnvOrDefault("SNIPTEXT_OCR_ENGINE", c.OCREngine)
	c.OCRLanguage = getEnvOrDefault("SNIPTEXT_OCR_LANGUAGE", c.OCRLanguage)
	c.OllamaURL = getEnvOrDefault("SNIPTEXT_OLLAMA_URL", c.OllamaURL)
	c.OllamaModel = getEnvOrDefault("SNIPTEXT_OLLAMA_MODEL", c.OllamaModel)
	c.LogLevel = getEnvOrDefault("SNIPTEXT_LOG_LEVEL", c.LogLevel)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
