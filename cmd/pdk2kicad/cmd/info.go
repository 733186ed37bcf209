package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/pdk2kicad/internal/errors"
	"github.com/OpenTraceLab/pdk2kicad/pkg/kicad/symlib"
)

var (
	infoJSON   bool
	infoSymbol string
)

var infoCmd = &cobra.Command{
	Use:   "info <kicad_sym-file>",
	Short: "Show the symbols of a KiCad symbol library",
	Long: `Read a KiCad symbol library and list its symbols. With --symbol, or -v,
the properties and pins of each listed symbol are shown as well.

Examples:
  pdk2kicad info symbols/sky130B/sky130_fd_sc_hd.kicad_sym
  pdk2kicad info --symbol inv_1 symbols/sky130B/sky130_fd_sc_hd.kicad_sym
  pdk2kicad info --json lib.kicad_sym`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "print the library as JSON")
	infoCmd.Flags().StringVar(&infoSymbol, "symbol", "", "only show this symbol, in detail")
}

func runInfo(cmd *cobra.Command, args []string) error {
	lib, err := symlib.ReadFile(args[0])
	if err != nil {
		return err
	}

	symbols := lib.Symbols
	if infoSymbol != "" {
		sym, ok := lib.Symbol(infoSymbol)
		if !ok {
			return errors.Newf("symbol %q not found in %s", infoSymbol, args[0])
		}
		symbols = []symlib.Symbol{*sym}
	}

	out := cmd.OutOrStdout()
	if infoJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(&symlib.Library{Version: lib.Version, Generator: lib.Generator, Symbols: symbols})
	}

	fmt.Fprintf(out, "Library: %s\n", args[0])
	fmt.Fprintf(out, "Version: %d, generator: %s\n", lib.Version, lib.Generator)
	fmt.Fprintf(out, "Symbols: %d\n\n", len(lib.Symbols))

	data := pterm.TableData{{"Symbol", "Pins", "Properties", "Value", "Model"}}
	for i := range symbols {
		sym := &symbols[i]
		value, _ := sym.Property("Value")
		model := "-"
		if device, ok := sym.Property("Sim.Device"); ok {
			model = device.Value
		}
		data = append(data, []string{
			sym.Name,
			strconv.Itoa(len(sym.Pins)),
			strconv.Itoa(len(sym.Properties)),
			value.Value,
			model,
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(out).Render()

	if infoSymbol != "" || verbosity > 0 {
		for i := range symbols {
			printSymbol(out, &symbols[i])
		}
	}
	return nil
}

func printSymbol(w io.Writer, sym *symlib.Symbol) {
	fmt.Fprintf(w, "\n%s (in_bom %t, on_board %t, units %v)\n", sym.Name, sym.InBOM, sym.OnBoard, sym.Units)
	for _, p := range sym.Properties {
		hidden := ""
		if p.Effects.Hide {
			hidden = " hidden"
		}
		fmt.Fprintf(w, "  %3d %-16s %q%s\n", p.ID, p.Key, p.Value, hidden)
	}
	for _, r := range sym.Rectangles {
		fmt.Fprintf(w, "  body (%s, %s) to (%s, %s)\n",
			symlib.Num(r.Start.X), symlib.Num(r.Start.Y), symlib.Num(r.End.X), symlib.Num(r.End.Y))
	}
	for _, p := range sym.Pins {
		fmt.Fprintf(w, "  pin %-4s %-12s %-13s %-8s (%s, %s) %s°\n",
			p.Number, p.Name, p.Electrical, p.Style,
			symlib.Num(p.Position.X), symlib.Num(p.Position.Y), symlib.Num(float64(p.Position.Angle)))
	}
}
