package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, _, err := Load("", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if got := cfg.DescriptorPath(); got != "/app/input/input.json" {
		t.Errorf("unexpected descriptor path %q", got)
	}
	if got := cfg.AnalysisOutputPath(); got != "/app/output/challenge1b_output.json" {
		t.Errorf("unexpected output path %q", got)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DOCOUTLINE_INPUT_DIR", "/data/in")
	t.Setenv("DOCOUTLINE_MAX_UPLOAD_BYTES", "1024")
	t.Setenv("DOCOUTLINE_OCR_ENABLED", "false")
	t.Setenv("DOCOUTLINE_LOG_FORMAT", "text")

	cfg, _, err := Load("", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.InputDir != "/data/in" {
		t.Errorf("expected input dir from env, got %q", cfg.InputDir)
	}
	if cfg.MaxUploadBytes != 1024 {
		t.Errorf("expected 1024, got %d", cfg.MaxUploadBytes)
	}
	if cfg.OCREnabled {
		t.Errorf("expected OCR disabled from env")
	}
	if cfg.LogFormat != "text" {
		t.Errorf("expected text log format, got %q", cfg.LogFormat)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docoutline.yaml")
	data := "input_dir: /srv/in\noutput_dir: /srv/out\nport: 9000\nocr_dpi: 300\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := Load(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.InputDir != "/srv/in" || cfg.OutputDir != "/srv/out" {
		t.Errorf("unexpected dirs %q %q", cfg.InputDir, cfg.OutputDir)
	}
	if cfg.Port != "9000" || cfg.OCRDPI != 300 {
		t.Errorf("unexpected port/dpi %q %d", cfg.Port, cfg.OCRDPI)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected unset keys to keep defaults, got log level %q", cfg.LogLevel)
	}
}

func TestLoad_OverrideWinsOverEnv(t *testing.T) {
	t.Setenv("DOCOUTLINE_OUTPUT_DIR", "/from/env")

	cfg, v, err := Load("", func(v *viper.Viper) error {
		v.Set("output_dir", "/from/flag")
		v.Set("ocr_enabled", false)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OutputDir != "/from/flag" || cfg.OCREnabled {
		t.Errorf("expected override values, got %+v", cfg)
	}
	if v == nil || v.GetString("output_dir") != "/from/flag" {
		t.Error("expected the viper instance back")
	}

	if _, _, err := Load("", func(*viper.Viper) error { return os.ErrInvalid }); err == nil {
		t.Error("expected override error to propagate")
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestWriteDefault_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "docoutline.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, _, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("round trip mismatch: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty input dir", func(c *Config) { c.InputDir = "" }},
		{"empty output dir", func(c *Config) { c.OutputDir = "" }},
		{"bad port", func(c *Config) { c.Port = "http" }},
		{"port out of range", func(c *Config) { c.Port = "70000" }},
		{"zero upload", func(c *Config) { c.MaxUploadBytes = 0 }},
		{"low dpi", func(c *Config) { c.OCRDPI = 10 }},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
}

func TestAbsoluteFileNamesIgnoreDirs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DescriptorFile = "/etc/docoutline/input.json"
	if got := cfg.DescriptorPath(); got != "/etc/docoutline/input.json" {
		t.Errorf("expected absolute descriptor path kept, got %q", got)
	}
}

func TestEncodeYAML_MasksAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = "top-secret"
	var buf bytes.Buffer
	if err := cfg.EncodeYAML(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.Contains(buf.String(), "top-secret") {
		t.Error("expected api key to be masked")
	}
	if !strings.Contains(buf.String(), "input_dir: /app/input") {
		t.Errorf("unexpected yaml:\n%s", buf.String())
	}
	if cfg.APIKey != "top-secret" {
		t.Error("expected receiver to be left unchanged")
	}
}
