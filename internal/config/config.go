package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is prepended to every environment variable, e.g. DOCOUTLINE_INPUT_DIR.
const EnvPrefix = "DOCOUTLINE"

type Config struct {
	// Batch locations
	InputDir           string `mapstructure:"input_dir" yaml:"input_dir"`
	OutputDir          string `mapstructure:"output_dir" yaml:"output_dir"`
	DescriptorFile     string `mapstructure:"descriptor_file" yaml:"descriptor_file"`
	AnalysisOutputFile string `mapstructure:"analysis_output_file" yaml:"analysis_output_file"`

	// HTTP mode
	Port           string `mapstructure:"port" yaml:"port"`
	APIKey         string `mapstructure:"api_key" yaml:"api_key"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`

	// OCR title fallback
	OCREnabled  bool   `mapstructure:"ocr_enabled" yaml:"ocr_enabled"`
	OCRLanguage string `mapstructure:"ocr_language" yaml:"ocr_language"`
	OCRDPI      int    `mapstructure:"ocr_dpi" yaml:"ocr_dpi"`

	// PDF
	PDFFallbackPdftotext bool `mapstructure:"pdf_fallback_pdftotext" yaml:"pdf_fallback_pdftotext"`

	// Logging
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
}

// DefaultConfig returns the settings used when nothing else is configured.
func DefaultConfig() Config {
	return Config{
		InputDir:           "/app/input",
		OutputDir:          "/app/output",
		DescriptorFile:     "input.json",
		AnalysisOutputFile: "challenge1b_output.json",

		Port:           "8090",
		MaxUploadBytes: 52428800, // 50MB

		OCREnabled:  true,
		OCRLanguage: "eng",
		OCRDPI:      144,

		PDFFallbackPdftotext: true,

		LogFormat: "json",
		LogLevel:  "info",
	}
}

// newViper returns a viper instance with defaults, DOCOUTLINE_ environment
// variables and, when present, a config file. An explicit cfgFile must exist;
// otherwise docoutline.yaml is looked up in . and $HOME/.docoutline and may
// be absent.
func newViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()

	d := DefaultConfig()
	v.SetDefault("input_dir", d.InputDir)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("descriptor_file", d.DescriptorFile)
	v.SetDefault("analysis_output_file", d.AnalysisOutputFile)
	v.SetDefault("port", d.Port)
	v.SetDefault("api_key", d.APIKey)
	v.SetDefault("max_upload_bytes", d.MaxUploadBytes)
	v.SetDefault("ocr_enabled", d.OCREnabled)
	v.SetDefault("ocr_language", d.OCRLanguage)
	v.SetDefault("ocr_dpi", d.OCRDPI)
	v.SetDefault("pdf_fallback_pdftotext", d.PDFFallbackPdftotext)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("log_level", d.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("docoutline")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.docoutline")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return v, nil
}

// fromViper decodes the current viper state.
func fromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Load reads configuration from defaults, DOCOUTLINE_ environment variables
// and the config file, then lets override (which may be nil) set values such
// as command-line flags before decoding. The viper instance is returned so
// callers can Watch it.
func Load(cfgFile string, override func(*viper.Viper) error) (Config, *viper.Viper, error) {
	v, err := newViper(cfgFile)
	if err != nil {
		return Config{}, nil, err
	}
	if override != nil {
		if err := override(v); err != nil {
			return Config{}, nil, err
		}
	}
	cfg, err := fromViper(v)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, v, nil
}

func (c Config) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("input_dir is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.DescriptorFile == "" || c.AnalysisOutputFile == "" {
		return fmt.Errorf("descriptor_file and analysis_output_file are required")
	}
	if n, err := strconv.Atoi(c.Port); err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("port %q is not a valid TCP port", c.Port)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}
	if c.OCRDPI < 36 || c.OCRDPI > 1200 {
		return fmt.Errorf("ocr_dpi %d out of range 36..1200", c.OCRDPI)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("log_format must be json or text, got %q", c.LogFormat)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// DescriptorPath is where the analysis descriptor is read from. Relative
// names resolve against InputDir.
func (c Config) DescriptorPath() string {
	return resolve(c.InputDir, c.DescriptorFile)
}

// AnalysisOutputPath is where the analysis artifact is written.
func (c Config) AnalysisOutputPath() string {
	return resolve(c.OutputDir, c.AnalysisOutputFile)
}

func resolve(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return 0, fmt.Errorf("log_level %q: %w", s, err)
	}
	return level, nil
}

// Watch reloads the config file whenever it changes and hands every reload
// that validates to fn. It does nothing when no config file was read.
func Watch(v *viper.Viper, log *slog.Logger, fn func(Config)) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := fromViper(v)
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			log.Warn("config reload rejected", "file", e.Name, "error", err)
			return
		}
		log.Info("config reloaded", "file", e.Name, "op", e.Op.String())
		fn(cfg)
	})
	v.WatchConfig()
}

// EncodeYAML writes c as YAML with the API key masked.
func (c Config) EncodeYAML(w io.Writer) error {
	if c.APIKey != "" {
		c.APIKey = "********"
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// WriteDefault writes the default configuration as YAML to path.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	header := []byte(`# docoutline configuration
# Every key can be overridden with a DOCOUTLINE_<KEY> environment variable,
# e.g. DOCOUTLINE_INPUT_DIR=/data/in

`)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, append(header, data...), 0o644)
}
