// Package config provides configuration loading and validation for silt.
// Supports YAML files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for a silt GC engine instance.
type Config struct {
	Storage       StorageConfig       `yaml:"storage"`
	GC            GCConfig            `yaml:"gc"`
	Manifest      ManifestConfig      `yaml:"manifest"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	// Backend is "local" or "s3".
	Backend string `yaml:"backend" env:"SILT_STORAGE_BACKEND"`

	// Root is the table warehouse root for the local backend.
	Root string `yaml:"root" env:"SILT_STORAGE_ROOT"`

	Endpoint  string `yaml:"endpoint" env:"SILT_S3_ENDPOINT"`
	Bucket    string `yaml:"bucket" env:"SILT_S3_BUCKET"`
	Region    string `yaml:"region" env:"SILT_S3_REGION"`
	AccessKey string `yaml:"accessKey" env:"SILT_S3_ACCESS_KEY"`
	SecretKey string `yaml:"secretKey" env:"SILT_S3_SECRET_KEY"`
}

// GCConfig tunes the garbage-collection engine.
type GCConfig struct {
	// DeleteThreads bounds the parallelism of the shared deletion pool.
	DeleteThreads int `yaml:"deleteThreads" env:"SILT_GC_DELETE_THREADS"`

	// CleanEmptyDirectories enables the empty-directory sweep after data
	// file deletion. Leave off for pure object stores where directories
	// are free.
	CleanEmptyDirectories bool `yaml:"cleanEmptyDirectories" env:"SILT_GC_CLEAN_EMPTY_DIRS"`

	// ChangelogDecoupled leaves changelog manifest lists to a separate
	// changelog expiration instead of removing them with their snapshot.
	ChangelogDecoupled bool `yaml:"changelogDecoupled" env:"SILT_GC_CHANGELOG_DECOUPLED"`
}

// ManifestConfig configures manifest encoding.
type ManifestConfig struct {
	// Compression is one of "none", "snappy", "lz4", "zstd".
	Compression string `yaml:"compression" env:"SILT_MANIFEST_COMPRESSION"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"logLevel" env:"SILT_LOG_LEVEL"`
	LogFormat string `yaml:"logFormat" env:"SILT_LOG_FORMAT"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: "local",
			Region:  "us-east-1",
		},
		GC: GCConfig{
			DeleteThreads:         8,
			CleanEmptyDirectories: true,
		},
		Manifest: ManifestConfig{
			Compression: "zstd",
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Load returns the default configuration with environment overrides applied.
func Load() (*Config, error) {
	cfg := Default()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath reads a YAML config file, then applies environment overrides.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrideString(&c.Storage.Backend, "SILT_STORAGE_BACKEND")
	overrideString(&c.Storage.Root, "SILT_STORAGE_ROOT")
	overrideString(&c.Storage.Endpoint, "SILT_S3_ENDPOINT")
	overrideString(&c.Storage.Bucket, "SILT_S3_BUCKET")
	overrideString(&c.Storage.Region, "SILT_S3_REGION")
	overrideString(&c.Storage.AccessKey, "SILT_S3_ACCESS_KEY")
	overrideString(&c.Storage.SecretKey, "SILT_S3_SECRET_KEY")
	overrideInt(&c.GC.DeleteThreads, "SILT_GC_DELETE_THREADS")
	overrideBool(&c.GC.CleanEmptyDirectories, "SILT_GC_CLEAN_EMPTY_DIRS")
	overrideBool(&c.GC.ChangelogDecoupled, "SILT_GC_CHANGELOG_DECOUPLED")
	overrideString(&c.Manifest.Compression, "SILT_MANIFEST_COMPRESSION")
	overrideString(&c.Observability.LogLevel, "SILT_LOG_LEVEL")
	overrideString(&c.Observability.LogFormat, "SILT_LOG_FORMAT")
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "local":
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("config: storage.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}
	if c.GC.DeleteThreads <= 0 {
		return fmt.Errorf("config: gc.deleteThreads must be positive, got %d", c.GC.DeleteThreads)
	}
	switch c.Manifest.Compression {
	case "", "none", "snappy", "lz4", "zstd":
	default:
		return fmt.Errorf("config: unknown manifest compression %q", c.Manifest.Compression)
	}
	return nil
}

func overrideString(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func overrideInt(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			*target = parsed
		}
	}
}
