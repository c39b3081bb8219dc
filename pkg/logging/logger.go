package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string `json:"level"`       // debug, info, warn, error
	Format     string `json:"format"`      // json, pretty
	OutputFile string `json:"output_file"` // file path for logs
	MaxSize    int64  `json:"max_size"`    // max file size in bytes
	Console    bool   `json:"console"`     // also log to console
}

// DefaultLogConfig returns sensible defaults
func DefaultLogConfig() *LogConfig {
	return &LogConfig{
		Level:      "info",
		Format:     "pretty",
		OutputFile: "",
		MaxSize:    100 * 1024 * 1024, // 100MB
		Console:    true,
	}
}

// SetupLogger configures the global logger
func SetupLogger(config *LogConfig) error {
	// Parse log level
	level, err := zerolog.ParseLevel(config.Level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)

	var writers []io.Writer

	// Console output
	if config.Console {
		if config.Format == "pretty" {
			writers = append(writers, zerolog.ConsoleWriter{
				Out:        os.Stderr,
				TimeFormat: time.RFC3339,
				NoColor:    false,
			})
		} else {
			writers = append(writers, os.Stderr)
		}
	}

	// File output
	if config.OutputFile != "" {
		// Ensure log directory exists
		logDir := filepath.Dir(config.OutputFile)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return err
		}

		logFile, err := os.OpenFile(config.OutputFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}

		writers = append(writers, logFile)
	}

	// Set up multi-writer
	if len(writers) > 1 {
		log.Logger = zerolog.New(io.MultiWriter(writers...)).With().Timestamp().Logger()
	} else if len(writers) == 1 {
		log.Logger = zerolog.New(writers[0]).With().Timestamp().Logger()
	}

	log.Debug().
		Str("level", config.Level).
		Str("format", config.Format).
		Str("output_file", config.OutputFile).
		Bool("console", config.Console).
		Msg("Logger initialized")

	return nil
}

// GetLogger returns a contextual logger
func GetLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// GetRequestLogger returns a logger for one recognition request
func GetRequestLogger(requestID, stage string) zerolog.Logger {
	return log.With().
		Str("request_id", requestID).
		Str("stage", stage).
		Logger()
}

// GetBackendLogger returns a logger for OCR backend operations
func GetBackendLogger(backend, operation string) zerolog.Logger {
	return log.With().
		Str("backend", backend).
		Str("operation", operation).
		Logger()
}
