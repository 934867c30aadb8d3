package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bcsdlab/hwpx-report/internal/config"
	"github.com/bcsdlab/hwpx-report/internal/imaging"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [image...]",
	Short: "Display image dimensions and resolution as the builder sees them",
	Long: `Inspect loads each image the way generate does (orientation
normalized, resolution read from metadata with a 96 DPI fallback) and
prints the result. Useful for checking why a record lays out the way it
does.

Examples:
  hwpx-report inspect receipt.jpg
  hwpx-report inspect --json scans/*.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().Bool("json", false, "Output as JSON")
}

type inspectResult struct {
	Path   string  `json:"path"`
	Width  int     `json:"width,omitempty"`
	Height int     `json:"height,omitempty"`
	DPIX   float64 `json:"dpi_x,omitempty"`
	DPIY   float64 `json:"dpi_y,omitempty"`
	Error  string  `json:"error,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	inspector := imaging.NewInspector(config.Load().Imaging.MaxPixels)
	results := make([]inspectResult, 0, len(args))
	for _, path := range args {
		img, err := inspector.Inspect(path)
		if err != nil {
			results = append(results, inspectResult{Path: path, Error: err.Error()})
			continue
		}
		results = append(results, inspectResult{
			Path:   path,
			Width:  img.Width,
			Height: img.Height,
			DPIX:   img.DPIX,
			DPIY:   img.DPIY,
		})
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tSIZE\tDPI")
	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(w, "%s\t-\t-\t(%s)\n", r.Path, r.Error)
			continue
		}
		fmt.Fprintf(w, "%s\t%dx%d\t%gx%g\n", r.Path, r.Width, r.Height, r.DPIX, r.DPIY)
	}
	return w.Flush()
}
