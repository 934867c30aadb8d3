// Package config loads runtime settings from the environment.
package config

import (
	"os"
	"strconv"
)

// Config holds the tunables of one invocation. Everything has a safe
// default; the environment (optionally seeded from a .env file by the
// CLI) overrides per deployment.
type Config struct {
	Imaging ImagingConfig
}

type ImagingConfig struct {
	// MaxPixels bounds the decoded pixel count of a single image.
	// Anything larger is treated as a decompression bomb.
	MaxPixels int64
}

// envInt64 reads an environment variable and parses it as a positive
// integer. Returns the default value if the env var is unset, empty, or
// invalid.
func envInt64(key string, defaultVal int64) int64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func Load() *Config {
	return &Config{
		Imaging: ImagingConfig{
			MaxPixels: envInt64("HWPX_MAX_PIXELS", 128_000_000),
		},
	}
}
