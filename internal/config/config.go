// Package config holds the environment-driven runtime configuration.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Environment variable names.
const (
	PortEnvVar             = "PORT"
	UploadDirEnvVar        = "UPLOAD_DIR"
	MaxUploadBytesEnvVar   = "MAX_UPLOAD_BYTES"
	OCRLanguagesEnvVar     = "OCR_LANGUAGES"
	TransformTimeoutEnvVar = "TRANSFORM_TIMEOUT"
	LogLevelEnvVar         = "LOG_LEVEL"
)

// Defaults.
const (
	DefaultPort = 5000
	// DefaultMaxUploadBytes caps a whole multipart payload at 50MB.
	DefaultMaxUploadBytes = int64(50 * 1024 * 1024)
	// DefaultTransformTimeout bounds a single transform request; OCR and
	// image work are CPU-bound and input sizes are only capped by the upload
	// ceiling.
	DefaultTransformTimeout = 2 * time.Minute
)

// Config is the resolved runtime configuration.
type Config struct {
	Port             int
	UploadDir        string
	MaxUploadBytes   int64
	OCRLanguages     []string
	TransformTimeout time.Duration
}

// Load resolves configuration from the environment, applying defaults for
// anything unset or unparsable.
func Load() *Config {
	cfg := &Config{
		Port:             DefaultPort,
		UploadDir:        os.TempDir(),
		MaxUploadBytes:   DefaultMaxUploadBytes,
		OCRLanguages:     []string{"eng"},
		TransformTimeout: DefaultTransformTimeout,
	}

	if portStr := os.Getenv(PortEnvVar); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 && port < 65536 {
			cfg.Port = port
		}
	}

	if dir := os.Getenv(UploadDirEnvVar); dir != "" {
		cfg.UploadDir = dir
	}

	if sizeStr := os.Getenv(MaxUploadBytesEnvVar); sizeStr != "" {
		if size, err := strconv.ParseInt(sizeStr, 10, 64); err == nil && size > 0 {
			cfg.MaxUploadBytes = size
		}
	}

	if langs := os.Getenv(OCRLanguagesEnvVar); langs != "" {
		var parsed []string
		for _, lang := range strings.Split(langs, ",") {
			if lang = strings.TrimSpace(lang); lang != "" {
				parsed = append(parsed, lang)
			}
		}
		if len(parsed) > 0 {
			cfg.OCRLanguages = parsed
		}
	}

	if timeoutStr := os.Getenv(TransformTimeoutEnvVar); timeoutStr != "" {
		if timeout, err := time.ParseDuration(timeoutStr); err == nil && timeout > 0 {
			cfg.TransformTimeout = timeout
		}
	}

	return cfg
}

// ParseLogLevel parses the LOG_LEVEL environment variable, defaulting to
// InfoLevel when unset or invalid.
func ParseLogLevel() logrus.Level {
	levelStr := strings.ToLower(strings.TrimSpace(os.Getenv(LogLevelEnvVar)))
	if levelStr == "" {
		return logrus.InfoLevel
	}

	switch levelStr {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}
