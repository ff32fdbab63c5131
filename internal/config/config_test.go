package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Storage.Backend != "local" {
		t.Errorf("default backend = %q, want local", cfg.Storage.Backend)
	}
	if cfg.GC.DeleteThreads != 8 {
		t.Errorf("default deleteThreads = %d, want 8", cfg.GC.DeleteThreads)
	}
	if !cfg.GC.CleanEmptyDirectories {
		t.Error("directory cleaning should default on")
	}
	if cfg.Manifest.Compression != "zstd" {
		t.Errorf("default compression = %q, want zstd", cfg.Manifest.Compression)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "silt.yaml")
	content := `
storage:
  backend: s3
  bucket: warehouse
  region: eu-west-1
gc:
  deleteThreads: 16
  changelogDecoupled: true
manifest:
  compression: lz4
observability:
  logLevel: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Storage.Backend != "s3" || cfg.Storage.Bucket != "warehouse" || cfg.Storage.Region != "eu-west-1" {
		t.Errorf("storage config mangled: %+v", cfg.Storage)
	}
	if cfg.GC.DeleteThreads != 16 || !cfg.GC.ChangelogDecoupled {
		t.Errorf("gc config mangled: %+v", cfg.GC)
	}
	if !cfg.GC.CleanEmptyDirectories {
		t.Error("unset fields must keep their defaults")
	}
	if cfg.Manifest.Compression != "lz4" {
		t.Errorf("compression = %q, want lz4", cfg.Manifest.Compression)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("logLevel = %q, want debug", cfg.Observability.LogLevel)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SILT_GC_DELETE_THREADS", "32")
	t.Setenv("SILT_GC_CLEAN_EMPTY_DIRS", "false")
	t.Setenv("SILT_MANIFEST_COMPRESSION", "snappy")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.GC.DeleteThreads != 32 {
		t.Errorf("deleteThreads = %d, want 32 from env", cfg.GC.DeleteThreads)
	}
	if cfg.GC.CleanEmptyDirectories {
		t.Error("env should turn directory cleaning off")
	}
	if cfg.Manifest.Compression != "snappy" {
		t.Errorf("compression = %q, want snappy from env", cfg.Manifest.Compression)
	}
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Storage.Backend = "ftp" }},
		{"s3 without bucket", func(c *Config) { c.Storage.Backend = "s3"; c.Storage.Bucket = "" }},
		{"zero delete threads", func(c *Config) { c.GC.DeleteThreads = 0 }},
		{"unknown compression", func(c *Config) { c.Manifest.Compression = "gzip" }},
	}
	for _, c := range cases {
		cfg := Default()
		c.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation failure", c.name)
		}
	}
}

func TestLoadFromPath_MissingFile(t *testing.T) {
	if _, err := LoadFromPath("/no/such/silt.yaml"); err == nil {
		t.Error("missing config file should fail")
	}
}
