package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OpenTraceLab/pdk2kicad/internal/config"
	"github.com/OpenTraceLab/pdk2kicad/internal/errors"
	"github.com/OpenTraceLab/pdk2kicad/internal/logger"
	"github.com/OpenTraceLab/pdk2kicad/pkg/lef"
	"github.com/OpenTraceLab/pdk2kicad/pkg/pdk"
	"github.com/OpenTraceLab/pdk2kicad/pkg/pipeline"
	"github.com/OpenTraceLab/pdk2kicad/pkg/spice"
)

var (
	lefFiles   []string
	modelFiles []string
	progress   bool
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert PDK cell libraries into KiCad symbol libraries",
	Long: `Discover the cell libraries of a PDK (<pdk-root>/<pdk>/libs.ref/<library>/lef)
or take explicit LEF files, and write one KiCad symbol library per LEF file.

With --spice the SPICE model of each cell is embedded in its symbol; with
--spice --link the symbol references the model file instead.

Examples:
  pdk2kicad convert --pdk-root ~/.volare --pdk sky130A --skip-sram
  pdk2kicad convert -p gf180mcuC -o out -f -S
  pdk2kicad convert --lef cells.lef --model cells.spice --spice --report run.yaml`,
	Args: cobra.NoArgs,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	f := convertCmd.Flags()
	f.StringP("outdir", "o", "symbols", "output directory")
	f.BoolP("skip-existing", "S", false, "skip libraries whose output already exists")
	f.IntP("jobs", "j", 0, "parallel workers (default number of CPUs)")
	f.BoolP("ignore-pwr", "I", false, "drop power and ground pins")
	f.BoolP("dont-infer-pwr", "i", false, "do not guess supply pins from their names")
	f.StringP("split-char", "s", "", "keep only the part of a cell name after the last occurrence")
	f.String("pdk-root", "", "PDK installation root (env PDK_ROOT)")
	f.StringP("pdk", "p", "sky130B", "PDK variant, e.g. sky130A, sky130B, gf180mcuA..D")
	f.Bool("skip-sram", false, "skip SRAM macro libraries")
	f.BoolP("flatten", "f", false, "write <outdir>/<pdk>_<library>.kicad_sym instead of <outdir>/<pdk>/<library>.kicad_sym")
	f.BoolP("dont-strip", "D", false, "keep the <library>__ prefix of cell names")
	f.Bool("spice", false, "attach SPICE models, embedded in the symbol")
	f.Bool("link", false, "with --spice, reference the model file instead of embedding")
	f.String("unknown", "skip", "unknown LEF statements: skip or reject")
	f.Bool("no-strict", false, "recover from mismatched END names and duplicate pins instead of failing the library")
	f.Bool("fail-fast", false, "stop at the first failing library")
	f.String("report", "", "write a run report (.yaml, .yml or .json)")
	f.StringSliceVar(&lefFiles, "lef", nil, "convert these LEF files instead of discovering a PDK")
	f.StringSliceVar(&modelFiles, "model", nil, "SPICE files to take models from (with --lef)")
	f.BoolVar(&progress, "progress", true, "show a spinner while converting")
}

// flagKeys maps convert flags onto configuration keys.
var flagKeys = map[string]string{
	"outdir":        "outdir",
	"skip-existing": "skip_existing",
	"jobs":          "jobs",
	"ignore-pwr":    "ignore_power_pins",
	"split-char":    "name_split_delimiter",
	"pdk-root":      "pdk_root",
	"pdk":           "pdk",
	"skip-sram":     "skip_sram",
	"flatten":       "flatten",
	"unknown":       "unknown_statements",
	"fail-fast":     "fail_fast",
	"report":        "report",
}

// loadConfig merges the configuration sources with the flags of cmd that
// were set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := config.New()
	if err := applyFlags(cmd, v); err != nil {
		return nil, err
	}
	return config.Load(v, configFile)
}

func applyFlags(cmd *cobra.Command, v *viper.Viper) error {
	flags := cmd.Flags()
	for name, key := range flagKeys {
		if flag := flags.Lookup(name); flag != nil && flag.Changed {
			v.Set(key, flag.Value.String())
		}
	}

	negated := map[string]string{
		"dont-infer-pwr": "infer_power_from_name",
		"dont-strip":     "strip_library_prefix",
		"no-strict":      "strict",
	}
	for name, key := range negated {
		if on, err := flags.GetBool(name); err == nil && on {
			v.Set(key, false)
		}
	}

	link, _ := flags.GetBool("link")
	embed, _ := flags.GetBool("spice")
	switch {
	case link && !embed:
		return errors.WithHint(errors.New("--link needs --spice"), "use --spice --link to reference the model files")
	case link:
		v.Set("model_mode", spice.ModeLink.String())
	case embed:
		v.Set("model_mode", spice.ModeInline.String())
	}
	return nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.Logger

	parserOpts, err := cfg.ParserOptions()
	if err != nil {
		return err
	}
	parser, err := lef.NewParser(parserOpts...)
	if err != nil {
		return err
	}
	opts, err := cfg.PipelineOptions()
	if err != nil {
		return err
	}
	conv, err := pipeline.New(parser, opts, log)
	if err != nil {
		return err
	}

	in, err := inputs(cfg, opts.Models)
	if err != nil {
		return err
	}
	if len(in.LEFs) == 0 {
		return errors.WithHint(errors.New("no LEF files to convert"),
			"pass --lef or point --pdk-root at an open_pdks installation")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var spinner *pterm.SpinnerPrinter
	if progress && !logger.JSONOutput {
		spinner, _ = pterm.DefaultSpinner.WithRemoveWhenDone().Start(
			pterm.Sprintf("Converting %d libraries...", len(in.LEFs)))
	}
	sum, err := conv.Run(ctx, in)
	if spinner != nil {
		_ = spinner.Stop()
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printSummary(out, sum)
	if cfg.Report != "" {
		if err := writeReport(cfg.Report, sum); err != nil {
			return err
		}
		pterm.Info.WithWriter(out).Printfln("Report written to %s", cfg.Report)
	}

	if !sum.OK() {
		return errors.Wrapf(sum.Err(), "%d of %d libraries failed", sum.Failed, sum.Files)
	}
	return nil
}

// inputs resolves the files of the run, either from --lef/--model or by
// discovering the PDK tree.
func inputs(cfg *config.Config, mode spice.Mode) (pipeline.Input, error) {
	if len(lefFiles) > 0 {
		return pipeline.Input{LEFs: lefFiles, SPICE: modelFiles}, nil
	}
	if len(modelFiles) > 0 {
		return pipeline.Input{}, errors.New("--model needs --lef; discovered PDKs take models from their spice directories")
	}

	if !pdk.IsKnown(cfg.PDK) {
		logger.Logger.Warnw("unknown PDK variant", "pdk", cfg.PDK, "known", pdk.KnownPDKs)
	}
	tree, err := pdk.Discover(cfg.PDKRoot, cfg.PDK, cfg.SkipSRAM)
	if err != nil {
		return pipeline.Input{}, err
	}
	for _, name := range tree.SkippedSRAM {
		logger.Logger.Infow("skipping SRAM library", "library", name)
	}
	for _, name := range tree.NoLEF {
		logger.Logger.Warnw("library has no lef directory", "library", name)
	}
	for _, lib := range tree.Libraries {
		if mode != spice.ModeNone && len(lib.SPICE) == 0 {
			logger.Logger.Warnw("library has no spice models", "library", lib.Name)
		}
	}

	in := pipeline.Input{LEFs: tree.LEFs()}
	if mode != spice.ModeNone {
		in.SPICE = tree.SPICEFiles()
	}
	return in, nil
}
