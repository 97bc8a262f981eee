// Package config loads leafdoctor settings from the environment.
package config

import (
	"time"

	"go.uber.org/zap/zapcore"
)

// Config is the process configuration. It is loaded once at startup and
// not modified afterwards.
type Config struct {
	LogLevel string `envconfig:"LEAFDOC_LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Engine   EngineConfig
	DeepScan DeepScanConfig
}

// EngineConfig tunes the local diagnosis engine.
type EngineConfig struct {
	Stride       int `envconfig:"LEAFDOC_STRIDE" default:"4" validate:"min=1,max=64"`
	Workers      int `envconfig:"LEAFDOC_WORKERS" default:"1" validate:"min=1,max=256"`
	MaxDimension int `envconfig:"LEAFDOC_MAX_DIMENSION" default:"0" validate:"min=0"`
}

// DeepScanConfig points at the remote deep scan service. An empty URL
// disables deep scans.
type DeepScanConfig struct {
	URL     string        `envconfig:"LEAFDOC_DEEPSCAN_URL" validate:"omitempty,url"`
	Timeout time.Duration `envconfig:"LEAFDOC_DEEPSCAN_TIMEOUT" default:"30s" validate:"gt=0"`

	// Per-period scan allowances. -1 is unlimited.
	FreeScans    int `envconfig:"LEAFDOC_FREE_DEEPSCANS" default:"1" validate:"min=-1"`
	StewardScans int `envconfig:"LEAFDOC_STEWARD_DEEPSCANS" default:"5" validate:"min=-1"`
	PremiumScans int `envconfig:"LEAFDOC_PREMIUM_DEEPSCANS" default:"-1" validate:"min=-1"`

	// UsageFile persists scan counts between runs. Empty keeps them in
	// memory for the life of the process.
	UsageFile string `envconfig:"LEAFDOC_USAGE_FILE"`
}

// Enabled reports whether a deep scan service is configured.
func (c DeepScanConfig) Enabled() bool {
	return c.URL != ""
}

// Level returns the configured log level.
func (c *Config) Level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrParsing indicates an environment value could not be parsed into
	// its target type.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
	// ErrValidation indicates the configuration failed struct validation.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
)
