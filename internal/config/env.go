package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvConfig holds overrides read from PELOTON_* environment variables.
// Unset variables leave the pointer nil.
type EnvConfig struct {
	Dataset  *string  `env:"DATASET"`
	FPS      *int     `env:"FPS"`
	Window   *float64 `env:"WINDOW"`
	Addr     *string  `env:"ADDR"`
	LogLevel *string  `env:"LOG_LEVEL"`
}

// LoadEnv parses environment overrides.
func LoadEnv() (EnvConfig, error) {
	cfg, err := env.ParseAsWithOptions[EnvConfig](env.Options{Prefix: "PELOTON_"})
	if err != nil {
		return EnvConfig{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// Overlay applies environment overrides on top of the file config.
func (f FileConfig) Overlay(e EnvConfig) FileConfig {
	if e.Dataset != nil {
		f.Dataset.Source = e.Dataset
	}
	if e.FPS != nil {
		f.Animation.FPS = e.FPS
	}
	if e.Window != nil {
		f.Animation.Window = e.Window
	}
	if e.Addr != nil {
		f.Server.Addr = e.Addr
	}
	if e.LogLevel != nil {
		f.Log.Level = e.LogLevel
	}
	return f
}
