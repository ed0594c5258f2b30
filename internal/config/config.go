package config

import (
	"context"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/framelift/framelift/pkg/util"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Extraction settings
	StepTime     float64 `yaml:"step_time"`      // seconds between scan samples
	BorderPx     int     `yaml:"border_px"`      // border re-added around trimmed photos
	MinPhotoPct  int     `yaml:"min_photo_pct"`  // minimum photo area as % of frame area
	IncludeText  bool    `yaml:"include_text"`   // keep caption text inside the border
	OutputSubdir string  `yaml:"output_subdir"`  // per-directory output folder name

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`

	// Immich photo server settings
	Immich ImmichConfig `yaml:"immich"`

	// Pushover notification settings
	Pushover PushoverConfig `yaml:"pushover"`
}

type FFmpegConfig struct {
	Threads int `yaml:"threads"`
}

type ImmichConfig struct {
	APIURL    string `yaml:"api_url"`
	APIKey    string `yaml:"api_key"`
	LibraryID string `yaml:"library_id"`
	ShareUser string `yaml:"share_user"`
}

type PushoverConfig struct {
	UserKey  string `yaml:"user_key"`
	AppToken string `yaml:"app_token"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func defaultConfig() *Config {
	return &Config{
		StepTime:     0.4,
		BorderPx:     5,
		MinPhotoPct:  25,
		IncludeText:  true,
		OutputSubdir: "extracted_photos",
		FFmpeg: FFmpegConfig{
			Threads: 0,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./framelift.yaml",
		"./framelift.yml",
		filepath.Join(os.Getenv("HOME"), ".framelift", "config.yaml"),
	}

	for _, path := range candidates {
		if util.FileExists(path) {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
