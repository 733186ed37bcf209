package cmd

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pterm/pterm"

	"github.com/OpenTraceLab/pdk2kicad/pkg/cell"
	"github.com/OpenTraceLab/pdk2kicad/pkg/pipeline"
)

func printSummary(w io.Writer, sum *pipeline.Summary) {
	data := pterm.TableData{
		{"Libraries", "Processed", "Skipped", "Failed", "Cells", "Pins", "Models hit", "Models missed"},
		{
			strconv.Itoa(sum.Files),
			strconv.Itoa(sum.Processed),
			strconv.Itoa(sum.Skipped),
			strconv.Itoa(sum.Failed),
			strconv.Itoa(sum.Cells),
			strconv.Itoa(sum.TotalPins()),
			strconv.Itoa(sum.ModelHits),
			strconv.Itoa(sum.ModelMisses),
		},
	}
	_ = pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).WithWriter(w).Render()

	roles := pterm.TableData{{"Role", "Pins"}}
	for _, role := range cell.Roles {
		roles = append(roles, []string{role.String(), strconv.Itoa(sum.Pins[role.String()])})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(roles).WithWriter(w).Render()
	fmt.Fprintln(w)

	for _, f := range sum.Warnings {
		pterm.Warning.WithWriter(w).Printfln("%s: %s", f.Stage, f.Error)
	}
	for _, f := range sum.Failures {
		pterm.Error.WithWriter(w).Printfln("%s: %s", f.Stage, f.Error)
	}
	if sum.Cancelled > 0 {
		pterm.Warning.WithWriter(w).Printfln("%d libraries not converted after the run was stopped", sum.Cancelled)
	}
	if sum.OK() {
		pterm.Success.WithWriter(w).Printfln("Wrote %d symbol libraries in %s", len(sum.Outputs), sum.Duration.Round(time.Millisecond))
	}
}
