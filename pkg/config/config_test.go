package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if cfg.Grid.Rows != 7 || cfg.Grid.Columns != 5 {
		t.Fatalf("grid %+v", cfg.Grid)
	}
	if cfg.Detect.MinArea != 5000 || cfg.Classify.EmptyAbove != 0.95 || cfg.JPEGQuality != 95 {
		t.Fatalf("thresholds %+v %+v", cfg.Detect, cfg.Classify)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tablescan.yaml")
	doc := strings.Join([]string{
		"upload_root: " + dir,
		"template_directory: /srv/templates",
		"grid:",
		"  rows: 2",
		"  ratios:",
		"    - [0.5]",
		"    - [0.25, 0.75]",
		"classify:",
		"  empty_above: 0.9",
		"ocr:",
		"  enabled: true",
	}, "\n")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TABLESCAN_CONFIG", path)
	t.Setenv("TEMPLATE_DIR", "/env/templates")
	t.Setenv("WORKERS", "2")
	t.Setenv("OCR_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.UploadRoot != dir {
		t.Fatalf("upload root %q", cfg.UploadRoot)
	}
	if cfg.TemplateDir != "/env/templates" {
		t.Fatalf("environment should override the file: %q", cfg.TemplateDir)
	}
	if cfg.Grid.Uniform() || cfg.Grid.CellCount() != 5 {
		t.Fatalf("grid %+v", cfg.Grid)
	}
	if cfg.Classify.EmptyAbove != 0.9 || cfg.Classify.MarginX != 0.17 {
		t.Fatalf("classify %+v", cfg.Classify)
	}
	if cfg.Workers != 2 || cfg.OCR.Enabled {
		t.Fatalf("workers %d ocr %v", cfg.Workers, cfg.OCR.Enabled)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("TABLESCAN_CONFIG", "")
	t.Setenv("GRID_ROWS", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("zero rows accepted")
	}
	t.Setenv("GRID_ROWS", "seven")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "GRID_ROWS") {
		t.Fatalf("non-numeric rows: %v", err)
	}
	t.Setenv("GRID_ROWS", "")
	t.Setenv("OCR_ENABLED", "maybe")
	if _, err := Load(); err == nil {
		t.Fatalf("bad bool accepted")
	}
}

func TestLoadFileMissing(t *testing.T) {
	if err := Default().LoadFile(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Fatalf("missing file accepted")
	}
}
