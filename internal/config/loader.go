package config

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "BIZMAP_"
	envFileVar = "BIZMAP_CONFIG"
	maxZoom    = 22
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if BIZMAP_CONFIG is set
//  3. env (prefix BIZMAP_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envFileVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// BIZMAP_DATASET_URL -> dataset_url (flat keys, underscores preserved).
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(envPrefix))
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}
	// The file path variable is not a Config field.
	k.Delete("config")

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid field, wrapped with ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.DatasetURL) == "":
		return fmt.Errorf("%w: dataset_url must not be empty", ErrInvalidConfig)
	case c.DatasetTimeoutMS <= 0:
		return fmt.Errorf("%w: dataset_timeout_ms must be positive", ErrInvalidConfig)
	case c.MapZoom < 0 || c.MapZoom > maxZoom:
		return fmt.Errorf("%w: map_zoom must be within 0..%d", ErrInvalidConfig, maxZoom)
	case c.MapWidth <= 0 || c.MapHeight <= 0:
		return fmt.Errorf("%w: map_width and map_height must be positive", ErrInvalidConfig)
	case !validLatLon(c.MapDefaultLat, c.MapDefaultLon):
		return fmt.Errorf("%w: map default center %v,%v is out of range", ErrInvalidConfig, c.MapDefaultLat, c.MapDefaultLon)
	}

	switch strings.ToLower(strings.TrimSpace(c.UnknownCategoryPolicy)) {
	case "append", "skip":
	default:
		return fmt.Errorf("%w: unknown_category_policy %q (want append or skip)", ErrInvalidConfig, c.UnknownCategoryPolicy)
	}
	return nil
}

func validLatLon(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
