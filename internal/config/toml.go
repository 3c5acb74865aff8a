// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Animation AnimationConfig `toml:"animation"`
	Dataset   DatasetConfig   `toml:"dataset"`
	Server    ServerConfig    `toml:"server"`
	Log       LogConfig       `toml:"log"`
}

// AnimationConfig maps chart and playback settings.
type AnimationConfig struct {
	FPS      *int     `toml:"fps"`
	Step     *float64 `toml:"step"`
	NavStep  *float64 `toml:"nav-step"`
	Window   *float64 `toml:"window"`
	Penalty  *float64 `toml:"penalty"`
	Margin   *int     `toml:"margin"`
	Autoplay *bool    `toml:"autoplay"`
}

// DatasetConfig maps where the stage results come from.
type DatasetConfig struct {
	Source        *string `toml:"source"`
	AvatarPattern *string `toml:"avatar-pattern"`
}

// ServerConfig maps HTTP API settings.
type ServerConfig struct {
	Addr *string `toml:"addr"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
