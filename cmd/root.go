package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hwpx-report",
	Short: "A CLI tool for assembling HWPX evidence documents from a template",
	Long: `hwpx-report fills an HWPX template with evidence records: every
record block in the template is replaced by one synthesized block per
input record, each holding the record's title and an auto-packed grid
of its images. The template archive is edited directly; no office
application is involved.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
