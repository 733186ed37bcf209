package cmd

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/pdk2kicad/internal/errors"
	"github.com/OpenTraceLab/pdk2kicad/internal/logger"
)

var (
	// Global flags
	verbosity  int
	logJSON    bool
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "pdk2kicad",
	Short: "Generate KiCad symbol libraries from PDK cell libraries",
	Long: `Convert the LEF cell libraries of an open_pdks installation into KiCad
symbol libraries, one symbol per cell, optionally carrying the SPICE model
of each cell for simulation.

Examples:
  pdk2kicad convert --pdk-root /usr/share/pdk --pdk sky130B   # Every library of sky130B
  pdk2kicad convert --spice --link -j 8 -f                    # Link models, flat output
  pdk2kicad convert --lef cells.lef --model cells.spice --spice
  pdk2kicad parse cells.lef                                   # Inspect cells and pins
  pdk2kicad info symbols/sky130B/sky130_fd_sc_hd.kicad_sym    # Read a symbol library
  pdk2kicad check symbols/sky130B/*.kicad_sym                 # Well-formedness check`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Initialize(verbosity, logJSON)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func printError(err error) {
	pterm.Error.WithWriter(os.Stderr).Println(err)
	for _, hint := range errors.GetAllHints(err) {
		fmt.Fprintf(os.Stderr, "  hint: %s\n", hint)
	}
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log output (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write logs as JSON")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./pdk2kicad.toml)")
}
