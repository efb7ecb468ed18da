package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/postura/internal/domain/posture"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if POSTURA_CONFIG is set
//  3. env (prefix POSTURA_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("POSTURA_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: POSTURA_ADDR, POSTURA_FRAME_QUEUE_SIZE, ...
	// Map env keys like POSTURA_FRAME_QUEUE_SIZE -> frame_queue_size (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("POSTURA_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "postura_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.CalibrationMinSamples > c.CalibrationSamples:
		return fmt.Errorf("%w: calibration_min_samples exceeds calibration_samples", ErrInvalidConfig)
	case c.MonitorWindow < 1 || c.PreviewWindow < 1:
		return fmt.Errorf("%w: smoother windows must be >= 1", ErrInvalidConfig)
	}
	if _, err := posture.Preset(c.Sensitivity); err != nil {
		if errors.Is(err, posture.ErrUnknownSensitivity) {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		return err
	}
	return nil
}
