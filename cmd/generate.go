package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/bcsdlab/hwpx-report/internal/config"
	"github.com/bcsdlab/hwpx-report/internal/hwpx"
	"github.com/bcsdlab/hwpx-report/internal/imaging"
	"github.com/bcsdlab/hwpx-report/internal/records"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Fill an HWPX template with evidence records",
	Long: `Generate reads an ordered record manifest (YAML: title plus image
paths per record), replaces the template's record blocks with one block
per record and writes the result as a new HWPX file. The template is
never modified.

Examples:
  # Fill the monthly evidence template
  hwpx-report generate --template ledger.hwpx --records records.yaml --output 2026-08.hwpx

  # Without a progress bar (e.g. in CI)
  hwpx-report generate -t ledger.hwpx -r records.yaml -o out.hwpx --quiet`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringP("template", "t", "", "Path to the HWPX template")
	generateCmd.Flags().StringP("records", "r", "", "Path to the YAML records manifest")
	generateCmd.Flags().StringP("output", "o", "", "Path for the generated HWPX file")
	generateCmd.Flags().Bool("quiet", false, "Disable the progress bar")

	for _, flag := range []string{"template", "records", "output"} {
		if err := generateCmd.MarkFlagRequired(flag); err != nil {
			panic(fmt.Sprintf("flag error for --%s: %v", flag, err))
		}
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	templatePath := mustGetString(cmd, "template")
	recordsPath := mustGetString(cmd, "records")
	outputPath := mustGetString(cmd, "output")
	quiet := mustGetBool(cmd, "quiet")

	recs, err := records.LoadManifest(recordsPath)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return errors.New("records manifest is empty")
	}

	cfg := config.Load()
	packer := hwpx.NewPacker(imaging.NewInspector(cfg.Imaging.MaxPixels))

	if !quiet {
		bar := progressbar.Default(int64(len(recs)), "building blocks")
		packer.Progress = func(done, total int) {
			_ = bar.Add(1)
		}
	}

	if err := packer.PackToFile(templatePath, outputPath, recs); err != nil {
		var formatErr *hwpx.FormatError
		if errors.As(err, &formatErr) {
			return fmt.Errorf("template error: %w", formatErr)
		}
		return err
	}

	fmt.Fprintln(os.Stdout, outputPath)
	return nil
}
