package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "<ctrl>+<alt>+t", cfg.Hotkey)
	assert.Equal(t, "auto", cfg.DisplayServer)
	assert.Equal(t, "ensemble", cfg.OCREngine)
	assert.Equal(t, "eng", cfg.OCRLanguage)
	assert.True(t, cfg.AdaptiveEnsemble)
	assert.True(t, cfg.NotificationEnabled)
	assert.True(t, cfg.EnableTextCorrection)
	assert.False(t, cfg.AggressiveCorrection)
	assert.Equal(t, 30*time.Second, time.Duration(cfg.BackendTimeout))
	assert.NoError(t, cfg.Validate())
}

func TestLoadCreatesDefaultFileOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sniptext", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ensemble", cfg.OCREngine)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "default config file should be written")
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Hotkey = "<ctrl>+<shift>+s"
	cfg.OCREngine = "tesseract"
	cfg.OCRLanguage = "eng+rus"
	cfg.AdaptiveEnsemble = false
	cfg.BackendTimeout = Duration(45 * time.Second)
	cfg.CaptureCommand = []string{"grim", "-g", "{geometry}", "{output}"}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Hotkey, loaded.Hotkey)
	assert.Equal(t, cfg.OCREngine, loaded.OCREngine)
	assert.Equal(t, cfg.OCRLanguage, loaded.OCRLanguage)
	assert.False(t, loaded.AdaptiveEnsemble)
	assert.Equal(t, 45*time.Second, time.Duration(loaded.BackendTimeout))
	assert.Equal(t, cfg.CaptureCommand, loaded.CaptureCommand)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ocr_language: rus\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "rus", cfg.OCRLanguage)
	assert.Equal(t, "ensemble", cfg.OCREngine)
	assert.True(t, cfg.AdaptiveEnsemble)
	assert.Equal(t, 4096, cfg.MaxImageSize)
}

func TestLoadExplicitFalseOverridesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "adaptive_ensemble: false\nnotification_enabled: false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.AdaptiveEnsemble)
	assert.False(t, cfg.NotificationEnabled)
}

func TestLoadDropsDeprecatedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "ocr_engine: tesseract\nuse_gpu: true\nnum_threads: 4\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tesseract", cfg.OCREngine)

	require.NoError(t, cfg.Save(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "use_gpu")
	assert.NotContains(t, string(data), "num_threads")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SNIPTEXT_OCR_LANGUAGE", "rus")
	t.Setenv("SNIPTEXT_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "rus", cfg.OCRLanguage)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ocr_engine: [unclosed\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown engine", func(c *Config) { c.OCREngine = "easyocr" }},
		{"unknown display server", func(c *Config) { c.DisplayServer = "mir" }},
		{"zero timeout", func(c *Config) { c.BackendTimeout = 0 }},
		{"tiny max image size", func(c *Config) { c.MaxImageSize = 10 }},
		{"threshold out of range", func(c *Config) { c.OCRConfidenceThreshold = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDurationFromString(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend_timeout: 5s\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, time.Duration(cfg.BackendTimeout))
}

func TestDurationFromBareSeconds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend_timeout: 10\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, time.Duration(cfg.BackendTimeout))
}

func TestDurationRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend_timeout: soon\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestModelFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OCRModelPath = "/tmp/models"
	assert.Equal(t, filepath.Join("/tmp/models", "confidence_model.json"), cfg.ModelFile())
}
