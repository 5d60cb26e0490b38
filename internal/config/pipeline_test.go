package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPipelineSpec_ResolvesRelativePathsAndSchema(t *testing.T) {
	dir := t.TempDir()
	pipe := []byte(`schema_version: v1
source:
  kind: mqtt
  driver: paho
  config: mqtt_source.yml
checkpoint:
  path: state/last.json
sinks: [stdout]
`)
	if err := os.WriteFile(filepath.Join(dir, "pipeline.yml"), pipe, 0o644); err != nil {
		t.Fatalf("write pipeline: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "mqtt_source.yml"), []byte("schema_version: v1\n"), 0o644); err != nil {
		t.Fatalf("write mqtt cfg: %v", err)
	}

	cfg, err := LoadPipelineSpec(filepath.Join(dir, "pipeline.yml"))
	if err != nil {
		t.Fatalf("LoadPipelineSpec: %v", err)
	}
	if cfg.SchemaVersion != SupportedSchema {
		t.Fatalf("want schema %s, got %s", SupportedSchema, cfg.SchemaVersion)
	}
	if !filepath.IsAbs(cfg.Source.Config) {
		t.Fatalf("want absolute source config path, got %q", cfg.Source.Config)
	}
	if !filepath.IsAbs(cfg.Checkpoint.Path) {
		t.Fatalf("want absolute checkpoint path, got %q", cfg.Checkpoint.Path)
	}
}

func TestLoadPipelineSpec_InvalidSchema(t *testing.T) {
	dir := t.TempDir()
	pipe := []byte(`schema_version: v999
source: { kind: mqtt, driver: paho, config: cf.yml }
sinks: [stdout]
`)
	if err := os.WriteFile(filepath.Join(dir, "pipeline.yml"), pipe, 0o644); err != nil {
		t.Fatalf("write pipeline: %v", err)
	}
	_, err := LoadPipelineSpec(filepath.Join(dir, "pipeline.yml"))
	if err == nil {
		t.Fatal("expected error for invalid schema_version")
	}
}
