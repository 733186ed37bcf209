package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/pdk2kicad/pkg/kicad/symlib"
)

// Version is the release of the converter, set at build time with
// -ldflags "-X github.com/OpenTraceLab/pdk2kicad/cmd/pdk2kicad/cmd.Version=...".
var Version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "pdk2kicad %s\n", Version)
		fmt.Fprintf(out, "symbol library format %d\n", symlib.Version)
		if info, ok := debug.ReadBuildInfo(); ok {
			fmt.Fprintf(out, "built with %s\n", info.GoVersion)
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" {
					fmt.Fprintf(out, "revision %s\n", s.Value)
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
