package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docoutline/internal/pipeline"
	"github.com/dgallion1/docoutline/internal/report"
)

var (
	analyzePersona string
	analyzeJob     string
	analyzeOut     string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file ...]",
	Short: "Rank document sections for a persona and job",
	Long: `Rank the sections of a document set by relevance to a persona and a job.

Without arguments the descriptor (<input-dir>/input.json by default) names the
documents, persona and job, and the result is written to
<output-dir>/challenge1b_output.json. References that do not exist are skipped.
If no descriptor exists an example is printed.

With file arguments, --persona and --job replace the descriptor. Named files
that do not exist are skipped the same way.

Examples:
  docoutline analyze
  docoutline analyze --descriptor /data/collection1.json
  docoutline analyze a.pdf b.pdf --persona "HR professional" --job "Create onboarding forms" -o -`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(cmd); err != nil {
			return err
		}
		ctx := cmd.Context()
		proc := pipeline.NewProcessor(cfg, logger, nil)

		if len(args) > 0 {
			persona, job := strings.TrimSpace(analyzePersona), strings.TrimSpace(analyzeJob)
			if persona == "" || job == "" {
				return errors.New("--persona and --job are required with file arguments")
			}
			res, run := proc.AnalyzeRefs(ctx, "", args, persona, job)
			if res == nil {
				return fmt.Errorf("none of the %d named documents exist", len(args))
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			out := analyzeOut
			if out == "" {
				out = cfg.AnalysisOutputPath()
			}
			if out == "-" {
				return pipeline.EncodeJSON(cmd.OutOrStdout(), res)
			}
			if err := pipeline.WriteJSON(out, res); err != nil {
				return err
			}
			run.Output = out
			report.FormatRun(cmd.OutOrStdout(), run)
			return nil
		}

		if analyzePersona != "" || analyzeJob != "" || analyzeOut != "" {
			return errors.New("--persona, --job and -o require file arguments")
		}
		run, err := proc.AnalyzeDescriptor(ctx)
		if errors.Is(err, pipeline.ErrNoDescriptor) {
			report.FormatUsage(cmd.OutOrStdout(), cfg.DescriptorPath(), pipeline.UsageExample())
			return nil
		}
		if run != nil {
			report.FormatRun(cmd.OutOrStdout(), run)
		}
		return err
	},
}

func init() {
	f := analyzeCmd.Flags()
	f.String("descriptor", "", "descriptor file, relative to the input directory unless absolute")
	f.StringVar(&analyzePersona, "persona", "", "persona role, with file arguments")
	f.StringVar(&analyzeJob, "job", "", "job to be done, with file arguments")
	f.StringVarP(&analyzeOut, "output", "o", "", "output path with file arguments (- for stdout)")
	rootCmd.AddCommand(analyzeCmd)
}
