package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/version"
)

var (
	cfgFile string

	// Populated by setup before a command runs.
	v        *viper.Viper
	cfg      config.Config
	logger   *slog.Logger
	logLevel = new(slog.LevelVar)
)

// flagKeys maps command-line flags to the config keys they override.
var flagKeys = map[string]string{
	"input-dir":  "input_dir",
	"output-dir": "output_dir",
	"log-level":  "log_level",
	"log-format": "log_format",
	"descriptor": "descriptor_file",
	"port":       "port",
	"no-ocr":     "ocr_enabled",
}

var rootCmd = &cobra.Command{
	Use:   "docoutline",
	Short: "Heading outlines and persona-driven section ranking for PDFs",
	Long: `docoutline reads PDF documents offline and produces:

  - a structured outline per document: title plus H1/H2/H3 headings with page numbers
  - a persona analysis over a document set: the sections most relevant to a
    persona and job, with refined subsections

Markdown, HTML, DOCX, text and CSV inputs are accepted alongside PDFs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("docoutline %s\n", version.String()))

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./docoutline.yaml or ~/.docoutline/docoutline.yaml)")
	pf.String("input-dir", "", "directory holding input documents and the descriptor")
	pf.String("output-dir", "", "directory for JSON artifacts")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.String("log-format", "", "log format: json or text")
}

// setup resolves configuration for cmd and installs the logger. Flags the
// user set override the config file and environment.
func setup(cmd *cobra.Command) error {
	var err error
	cfg, v, err = config.Load(cfgFile, func(v *viper.Viper) error {
		return bindFlags(cmd, v)
	})
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logLevel.Set(level)
	logger = newLogger(os.Stderr, cfg.LogFormat)
	slog.SetDefault(logger)
	return nil
}

// bindFlags points each flag the user set at its config key.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	for flag, key := range flagKeys {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		if flag == "no-ocr" {
			noOCR, err := cmd.Flags().GetBool(flag)
			if err != nil {
				return err
			}
			v.Set(key, !noOCR)
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s: %w", flag, err)
		}
	}
	return nil
}

// newLogger writes to w so stdout stays free for JSON output.
func newLogger(w io.Writer, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: logLevel}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
