// Package config loads runtime settings from .env, an optional YAML file and
// the environment, in that order of precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tablescan/pkg/table"
)

// OCRConfig controls the optional per-cell recognizer.
type OCRConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Language       string `yaml:"language"`
	TessdataPrefix string `yaml:"tessdata_prefix"`
}

// MatchConfig tunes template matching.
type MatchConfig struct {
	Threshold uint8 `yaml:"threshold"`
}

// Config is built once at start-up and passed to every component.
type Config struct {
	UploadRoot     string                `yaml:"upload_root"`
	TemplateDir    string                `yaml:"template_directory"`
	ListenAddr     string                `yaml:"listen_addr"`
	MaxUploadBytes int64                 `yaml:"max_upload_bytes"`
	LogLevel       string                `yaml:"log_level"`
	Workers        int                   `yaml:"workers"`
	JPEGQuality    int                   `yaml:"jpeg_quality"`
	Header         bool                  `yaml:"header"`
	Grid           table.GridSpec        `yaml:"grid"`
	Detect         table.DetectOptions   `yaml:"detect"`
	Classify       table.ClassifyOptions `yaml:"classify"`
	Match          MatchConfig           `yaml:"match"`
	OCR            OCRConfig             `yaml:"ocr"`
}

// Default returns the settings used when nothing is configured: a 7x5 grid
// and the stock detector and classifier thresholds.
func Default() *Config {
	return &Config{
		UploadRoot:     "uploads",
		ListenAddr:     ":8081",
		MaxUploadBytes: 20 << 20,
		LogLevel:       "info",
		Workers:        4,
		JPEGQuality:    95,
		Header:         true,
		Grid:           table.GridSpec{Rows: 7, Columns: 5},
		Detect:         table.DefaultDetectOptions(),
		Classify:       table.DefaultClassifyOptions(),
		Match:          MatchConfig{Threshold: 127},
		OCR:            OCRConfig{Language: "jpn"},
	}
}

// Load reads ./.env when present, then the YAML file named by
// TABLESCAN_CONFIG, then environment overrides.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := Default()
	if path := os.Getenv("TABLESCAN_CONFIG"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadFile merges a YAML document into cfg. Keys absent from the file keep
// their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.UploadRoot = getEnvOrDefault("UPLOAD_ROOT", c.UploadRoot)
	c.TemplateDir = getEnvOrDefault("TEMPLATE_DIR", c.TemplateDir)
	c.ListenAddr = getEnvOrDefault("LISTEN_ADDR", c.ListenAddr)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
	c.OCR.Language = getEnvOrDefault("OCR_LANGUAGE", c.OCR.Language)
	c.OCR.TessdataPrefix = getEnvOrDefault("TESSDATA_PREFIX", c.OCR.TessdataPrefix)

	var err error
	if c.Grid.Rows, err = getEnvAsIntOrDefault("GRID_ROWS", c.Grid.Rows); err != nil {
		return err
	}
	if c.Grid.Columns, err = getEnvAsIntOrDefault("GRID_COLS", c.Grid.Columns); err != nil {
		return err
	}
	if c.Workers, err = getEnvAsIntOrDefault("WORKERS", c.Workers); err != nil {
		return err
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
		}
		c.MaxUploadBytes = n
	}
	if v := os.Getenv("OCR_ENABLED"); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("OCR_ENABLED: %w", err)
		}
		c.OCR.Enabled = b
	}
	return nil
}

// Validate checks the values that would otherwise fail deep in processing.
func (c *Config) Validate() error {
	if c.UploadRoot == "" {
		return fmt.Errorf("UPLOAD_ROOT is required")
	}
	if err := c.Grid.Validate(); err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	if c.Workers < 1 || c.Workers > 64 {
		return fmt.Errorf("WORKERS must be between 1 and 64, got %d", c.Workers)
	}
	if c.MaxUploadBytes < 1024 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be at least 1KB, got %d", c.MaxUploadBytes)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be between 1 and 100, got %d", c.JPEGQuality)
	}
	if c.Detect.MinArea <= 0 || c.Detect.MaxAspect < 1 {
		return fmt.Errorf("detect: min_area must be positive and max_aspect at least 1")
	}
	if c.Classify.MarginX < 0 || c.Classify.MarginX >= 0.5 || c.Classify.MarginY < 0 || c.Classify.MarginY >= 0.5 {
		return fmt.Errorf("classify: margins must be within [0, 0.5)")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
