package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/pdk2kicad/pkg/cell"
	"github.com/OpenTraceLab/pdk2kicad/pkg/kicad/symlib"
	"github.com/OpenTraceLab/pdk2kicad/pkg/layout"
	"github.com/OpenTraceLab/pdk2kicad/pkg/lef"
)

var parseJSON bool

var parseCmd = &cobra.Command{
	Use:   "parse <lef-file>",
	Short: "Parse a LEF library and show its cells",
	Long: `Parse a LEF cell library, extract and lay out its cells, and print
every cell with its pins, their classification and placement.

Examples:
  pdk2kicad parse sky130_fd_sc_hd.lef
  pdk2kicad parse -I --json sky130_fd_sc_hd.lef > cells.json`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	f := parseCmd.Flags()
	f.BoolVar(&parseJSON, "json", false, "print cells as JSON")
	f.BoolP("ignore-pwr", "I", false, "drop power and ground pins")
	f.BoolP("dont-infer-pwr", "i", false, "do not guess supply pins from their names")
	f.StringP("split-char", "s", "", "keep only the part of a cell name after the last occurrence")
	f.BoolP("dont-strip", "D", false, "keep the <library>__ prefix of cell names")
	f.StringP("pdk", "p", "sky130B", "PDK variant recorded in the cell properties")
	f.String("unknown", "skip", "unknown LEF statements: skip or reject")
	f.Bool("no-strict", false, "recover from mismatched END names and duplicate pins")
}

// pinView is the printed form of a placed pin.
type pinView struct {
	Number     int            `json:"number"`
	Name       string         `json:"name"`
	Direction  cell.Direction `json:"direction"`
	Role       cell.Role      `json:"role"`
	Electrical string         `json:"electrical"`
	Style      string         `json:"style"`
	Placement  cell.Placement `json:"placement"`
}

type cellView struct {
	ID         string          `json:"id"`
	Bounds     cell.Bounds     `json:"bounds"`
	Counts     layout.Counts   `json:"counts"`
	Pins       []pinView       `json:"pins"`
	Properties []cell.Property `json:"properties"`
}

type libraryView struct {
	Library     string            `json:"library"`
	Source      string            `json:"source"`
	Unknown     int               `json:"unknown_statements"`
	IgnoredPins int               `json:"ignored_pins"`
	Diagnostics []cell.Diagnostic `json:"diagnostics,omitempty"`
	Cells       []cellView        `json:"cells"`
}

func runParse(cmd *cobra.Command, args []string) error {
	filename := args[0]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	parserOpts, err := cfg.ParserOptions()
	if err != nil {
		return err
	}
	parser, err := lef.NewParser(parserOpts...)
	if err != nil {
		return err
	}

	lib, err := parser.ParseFile(filename)
	if err != nil {
		return err
	}
	ex, err := cell.Extract(lib, filename, cfg.CellOptions())
	if err != nil {
		return err
	}

	view := libraryView{
		Library:     ex.Library,
		Source:      ex.Source,
		Unknown:     ex.Skipped,
		IgnoredPins: ex.IgnoredPins,
		Diagnostics: ex.Diagnostics,
		Cells:       make([]cellView, 0, len(ex.Cells)),
	}
	for _, c := range ex.Cells {
		placed, counts := layout.Place(c)
		cv := cellView{
			ID:         placed.ID,
			Bounds:     placed.Bounds,
			Counts:     counts,
			Properties: placed.SortedProperties(),
		}
		for _, p := range placed.Pins {
			cv.Pins = append(cv.Pins, pinView{
				Number:     p.Number,
				Name:       p.Name,
				Direction:  p.Direction,
				Role:       p.Role,
				Electrical: p.ElectricalType(),
				Style:      p.GraphicalStyle(),
				Placement:  p.Placement,
			})
		}
		view.Cells = append(view.Cells, cv)
	}

	out := cmd.OutOrStdout()
	if parseJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}
	printLibrary(out, &view)
	return nil
}

func printLibrary(w io.Writer, view *libraryView) {
	fmt.Fprintf(w, "Library: %s (%s)\n", view.Library, view.Source)
	fmt.Fprintf(w, "Cells: %d\n", len(view.Cells))
	if view.Unknown > 0 {
		fmt.Fprintf(w, "Unknown statements skipped: %d\n", view.Unknown)
	}
	if view.IgnoredPins > 0 {
		fmt.Fprintf(w, "Supply pins dropped: %d\n", view.IgnoredPins)
	}
	for _, d := range view.Diagnostics {
		fmt.Fprintf(w, "  note: %s\n", d)
	}
	fmt.Fprintln(w)

	for _, c := range view.Cells {
		fmt.Fprintf(w, "%s  %s x %s  pwr=%d gnd=%d in=%d out=%d iop=%d\n",
			c.ID, symlib.Num(c.Bounds.Width()), symlib.Num(c.Bounds.Height()),
			c.Counts.Power, c.Counts.Ground, c.Counts.Input, c.Counts.Output, c.Counts.IOP)

		data := pterm.TableData{{"#", "Pin", "Direction", "Role", "Type", "Style", "At"}}
		for _, p := range c.Pins {
			data = append(data, []string{
				strconv.Itoa(p.Number),
				p.Name,
				p.Direction.String(),
				p.Role.String(),
				p.Electrical,
				p.Style,
				fmt.Sprintf("(%s, %s) %s°", symlib.Num(p.Placement.X), symlib.Num(p.Placement.Y), symlib.Num(p.Placement.Rotation)),
			})
		}
		_ = pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(w).Render()
		fmt.Fprintln(w)
	}
}
