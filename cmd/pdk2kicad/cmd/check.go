package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/pdk2kicad/internal/errors"
	"github.com/OpenTraceLab/pdk2kicad/pkg/kicad/symlib"
)

var checkCmd = &cobra.Command{
	Use:   "check <kicad_sym-file>...",
	Short: "Check that symbol libraries are well formed",
	Long: `Parse each symbol library with an independent S-expression reader and
check its content: required properties, unique property ids and pin numbers,
a body rectangle and named pins for every symbol.

Examples:
  pdk2kicad check symbols/sky130B/*.kicad_sym`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	bad := 0
	for _, path := range args {
		report, err := symlib.VerifyFile(path)
		if err != nil {
			bad++
			pterm.Error.WithWriter(out).Printfln("%s: %v", path, err)
			continue
		}
		if !report.OK() {
			bad++
			pterm.Error.WithWriter(out).Printfln("%s: %d problems", path, len(report.Problems))
			for _, p := range report.Problems {
				fmt.Fprintf(out, "  %s\n", p)
			}
			continue
		}
		pterm.Success.WithWriter(out).Printfln("%s: %d symbols, %d pins", path, report.Symbols, report.Pins)
	}
	if bad > 0 {
		return errors.Newf("%d of %d libraries failed the check", bad, len(args))
	}
	return nil
}
