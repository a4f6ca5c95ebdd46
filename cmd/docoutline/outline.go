package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docoutline/internal/pipeline"
	"github.com/dgallion1/docoutline/internal/report"
)

var outlineOut string

var outlineCmd = &cobra.Command{
	Use:   "outline [file ...]",
	Short: "Extract title and heading outline",
	Long: `Extract the title and H1/H2/H3 outline of documents.

With no arguments every PDF in the input directory is processed, in name
order, into <output-dir>/<name>.json. Documents that cannot be parsed are
logged and skipped.

Examples:
  docoutline outline                        # all PDFs in the input directory
  docoutline outline a.pdf b.md             # write <output-dir>/a.json, b.json
  docoutline outline report.pdf -o -        # print one outline to stdout`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(cmd); err != nil {
			return err
		}
		ctx := cmd.Context()
		proc := pipeline.NewProcessor(cfg, logger, nil)

		if outlineOut != "" {
			if len(args) != 1 {
				return errors.New("-o requires exactly one input file")
			}
			res, _, err := proc.Outline(ctx, args[0])
			if err != nil {
				return err
			}
			if outlineOut == "-" {
				return pipeline.EncodeJSON(cmd.OutOrStdout(), res)
			}
			return pipeline.WriteJSON(outlineOut, res)
		}

		var (
			run *pipeline.Run
			err error
		)
		if len(args) == 0 {
			run, err = proc.OutlineDir(ctx)
		} else {
			run, err = proc.OutlineFiles(ctx, args, cfg.OutputDir)
		}
		if run != nil {
			report.FormatRun(cmd.OutOrStdout(), run)
		}
		return err
	},
}

func init() {
	outlineCmd.Flags().StringVarP(&outlineOut, "output", "o", "", "write a single outline to this path (- for stdout)")
	outlineCmd.Flags().Bool("no-ocr", false, "disable the OCR title fallback")
	rootCmd.AddCommand(outlineCmd)
}
