package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/OpenTraceLab/pdk2kicad/internal/errors"
)

const testLibrary = `VERSION 5.7 ;
BUSBITCHARS "[]" ;
DIVIDERCHAR "/" ;
MACRO LIB__NAND2
  CLASS CORE ;
  SIZE 1.38 BY 2.72 ;
  PIN A
    DIRECTION INPUT ;
    USE SIGNAL ;
  END A
  PIN B
    DIRECTION INPUT ;
    USE SIGNAL ;
  END B
  PIN Y
    DIRECTION OUTPUT ;
    USE SIGNAL ;
  END Y
  PIN VPWR
    DIRECTION INOUT ;
    USE POWER ;
  END VPWR
  PIN VGND
    DIRECTION INOUT ;
    USE GROUND ;
  END VGND
END LIB__NAND2
END LIBRARY
`

const testModels = `.subckt LIB__NAND2 A B VGND VPWR Y
X0 Y A VPWR VPWR pfet
X1 Y B VPWR VPWR pfet
.ends
`

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

// resetFlags returns every flag of c and its children to its default, so
// that commands can run several times in one process.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, child := range c.Commands() {
		resetFlags(child)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

func convertFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	lef := writeFile(t, filepath.Join(dir, "LIB.lef"), testLibrary)
	model := writeFile(t, filepath.Join(dir, "LIB.spice"), testModels)
	out := filepath.Join(dir, "out")

	output, err := run(t, "convert", "--lef", lef, "--model", model, "--spice",
		"-o", out, "--progress=false", "--report", filepath.Join(out, "run.yaml"))
	if err != nil {
		t.Fatalf("Failed to convert: %v\nOutput: %s", err, output)
	}
	return filepath.Join(out, "sky130B", "LIB.kicad_sym")
}

func TestConvertE2E(t *testing.T) {
	dir := t.TempDir()
	lef := writeFile(t, filepath.Join(dir, "LIB.lef"), testLibrary)
	model := writeFile(t, filepath.Join(dir, "LIB.spice"), testModels)
	out := filepath.Join(dir, "out")
	report := filepath.Join(out, "run.yaml")

	output, err := run(t, "convert", "--lef", lef, "--model", model, "--spice",
		"-o", out, "-p", "sky130A", "-j", "2", "--progress=false", "--report", report)
	if err != nil {
		t.Fatalf("Unexpected error: %v\nOutput: %s", err, output)
	}

	for _, want := range []string{"Processed", "Wrote 1 symbol libraries", "Report written"} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing expected string: %q\nGot:\n%s", want, output)
		}
	}

	data, err := os.ReadFile(filepath.Join(out, "sky130A", "LIB.kicad_sym"))
	if err != nil {
		t.Fatalf("Failed to read symbol library: %v", err)
	}
	for _, want := range []string{`(symbol "NAND2"`, `"Sim.Device" "SPICE"`, `(property "Cell PDK" "sky130A"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Symbol library missing %q", want)
		}
	}

	rep, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	if !strings.Contains(string(rep), "model_hits: 1") {
		t.Errorf("Report missing model hit count:\n%s", rep)
	}
}

func TestConvertDiscoversPDK(t *testing.T) {
	root := t.TempDir()
	ref := filepath.Join(root, "gf180mcuC", "libs.ref")
	writeFile(t, filepath.Join(ref, "LIB", "lef", "LIB.lef"), testLibrary)
	writeFile(t, filepath.Join(ref, "LIB", "spice", "LIB.spice"), testModels)
	writeFile(t, filepath.Join(ref, "gf180mcu_fd_ip_sram", "lef", "sram.lef"), "not a library")
	out := filepath.Join(t.TempDir(), "symbols")

	output, err := run(t, "convert", "--pdk-root", root, "--pdk", "gf180mcuC", "--skip-sram",
		"--spice", "--link", "-f", "-o", out, "--progress=false")
	if err != nil {
		t.Fatalf("Unexpected error: %v\nOutput: %s", err, output)
	}

	data, err := os.ReadFile(filepath.Join(out, "gf180mcuC_LIB.kicad_sym"))
	if err != nil {
		t.Fatalf("Failed to read flattened output: %v", err)
	}
	if !strings.Contains(string(data), `"Sim.Device" "SUBCKT"`) {
		t.Errorf("Expected linked model properties")
	}
}

func TestConvertLinkNeedsSpice(t *testing.T) {
	dir := t.TempDir()
	lef := writeFile(t, filepath.Join(dir, "LIB.lef"), testLibrary)
	out := filepath.Join(dir, "out")

	_, err := run(t, "convert", "--lef", lef, "--link", "-o", out, "--progress=false")
	if err == nil || !strings.Contains(err.Error(), "--link needs --spice") {
		t.Fatalf("Expected --link without --spice to be rejected, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("Nothing should be written when the flags are rejected")
	}
}

func TestConvertMissingRoot(t *testing.T) {
	t.Setenv("PDK_ROOT", "")
	_, err := run(t, "convert", "--pdk-root", filepath.Join(t.TempDir(), "absent"), "--progress=false")
	if err == nil {
		t.Fatal("Expected error for absent PDK root")
	}
	if !errors.IsFatalForRun(err) {
		t.Errorf("Expected a missing input error, got %v", err)
	}
	if len(errors.GetAllHints(err)) == 0 {
		t.Errorf("Expected a hint on %v", err)
	}
}

func TestConvertReportsFailedLibrary(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, filepath.Join(dir, "LIB.lef"), testLibrary)
	bad := writeFile(t, filepath.Join(dir, "BAD.lef"), "MACRO X\n  SIZE 1 1 ;\nEND X\nEND LIBRARY\n")

	output, err := run(t, "convert", "--lef", good, "--lef", bad, "-o", filepath.Join(dir, "out"), "--progress=false")
	if err == nil {
		t.Fatal("Expected an error for the failing library")
	}
	if !errors.Is(err, errors.ErrSyntax) {
		t.Errorf("Expected a syntax error, got %v", err)
	}
	if !strings.Contains(err.Error(), "1 of 2 libraries failed") {
		t.Errorf("Unexpected error message: %v", err)
	}
	if !strings.Contains(output, "BAD.lef") {
		t.Errorf("Output should name the failing file:\n%s", output)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "sky130B", "LIB.kicad_sym")); err != nil {
		t.Errorf("Good library should still be written: %v", err)
	}
}

func TestParseE2E(t *testing.T) {
	lef := writeFile(t, filepath.Join(t.TempDir(), "LIB.lef"), testLibrary)

	output, err := run(t, "parse", lef)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for _, want := range []string{"Library: LIB", "Cells: 1", "NAND2", "power_in", "pwr=1 gnd=1 in=2 out=1 iop=0"} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing expected string: %q\nGot:\n%s", want, output)
		}
	}

	output, err = run(t, "parse", "-I", "--json", lef)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var view libraryView
	if err := json.Unmarshal([]byte(output), &view); err != nil {
		t.Fatalf("Failed to decode JSON output: %v", err)
	}
	if len(view.Cells) != 1 || len(view.Cells[0].Pins) != 3 {
		t.Fatalf("Expected one cell with 3 pins, got %+v", view.Cells)
	}
	if view.IgnoredPins != 2 {
		t.Errorf("Expected 2 dropped supply pins, got %d", view.IgnoredPins)
	}
	if got := view.Cells[0].Pins[2].Number; got != 3 {
		t.Errorf("Expected renumbered pin 3, got %d", got)
	}
}

func TestParseSyntaxError(t *testing.T) {
	lef := writeFile(t, filepath.Join(t.TempDir(), "BAD.lef"), "MACRO X\nEND X\n")
	_, err := run(t, "parse", lef)
	if err == nil || !errors.Is(err, errors.ErrSyntax) {
		t.Fatalf("Expected syntax error, got %v", err)
	}
}

func TestInfoE2E(t *testing.T) {
	path := convertFixture(t)

	output, err := run(t, "info", "--symbol", "NAND2", path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for _, want := range []string{"Symbols: 1", "NAND2", "SPICE", "Sim.Params", "pin 1"} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing expected string: %q\nGot:\n%s", want, output)
		}
	}

	if _, err := run(t, "info", "--symbol", "NOR2", path); err == nil {
		t.Errorf("Expected error for unknown symbol")
	}
}

func TestCheckE2E(t *testing.T) {
	path := convertFixture(t)

	output, err := run(t, "check", path)
	if err != nil {
		t.Fatalf("Unexpected error: %v\nOutput: %s", err, output)
	}
	if !strings.Contains(output, "1 symbols, 5 pins") {
		t.Errorf("Unexpected output:\n%s", output)
	}

	broken := writeFile(t, filepath.Join(t.TempDir(), "broken.kicad_sym"), "(kicad_symbol_lib (version 20211014)")
	if _, err := run(t, "check", broken); err == nil {
		t.Errorf("Expected check to fail on unbalanced input")
	}
}

func TestVersionE2E(t *testing.T) {
	output, err := run(t, "version")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(output, "pdk2kicad "+Version) || !strings.Contains(output, "20211014") {
		t.Errorf("Unexpected output:\n%s", output)
	}
}
