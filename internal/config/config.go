// Package config loads the converter configuration.
//
// Values are merged by viper, lowest precedence first: defaults, a TOML
// file (--config, or pdk2kicad.toml in the working directory), PDK2KICAD_*
// environment variables (PDK_ROOT is honored for pdk_root) and finally
// command line flags bound by the CLI. The merged result is checked
// against an embedded CUE schema.
package config

import (
	_ "embed"
	"encoding/json"
	"runtime"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"github.com/OpenTraceLab/pdk2kicad/internal/errors"
	"github.com/OpenTraceLab/pdk2kicad/pkg/cell"
	"github.com/OpenTraceLab/pdk2kicad/pkg/lef"
	"github.com/OpenTraceLab/pdk2kicad/pkg/pipeline"
	"github.com/OpenTraceLab/pdk2kicad/pkg/spice"
)

//go:embed schema.cue
var schemaSource string

// EnvPrefix prefixes every environment variable read by the converter.
const EnvPrefix = "PDK2KICAD"

// FileName is the config file looked up in the working directory.
const FileName = "pdk2kicad"

// Config is the merged converter configuration.
type Config struct {
	PDKRoot string `mapstructure:"pdk_root" json:"pdk_root"`
	PDK     string `mapstructure:"pdk" json:"pdk"`
	OutDir  string `mapstructure:"outdir" json:"outdir"`
	Jobs    int    `mapstructure:"jobs" json:"jobs"`

	SkipSRAM     bool `mapstructure:"skip_sram" json:"skip_sram"`
	Flatten      bool `mapstructure:"flatten" json:"flatten"`
	SkipExisting bool `mapstructure:"skip_existing" json:"skip_existing"`

	IgnorePowerPins    bool   `mapstructure:"ignore_power_pins" json:"ignore_power_pins"`
	InferPowerFromName bool   `mapstructure:"infer_power_from_name" json:"infer_power_from_name"`
	NameSplitDelimiter string `mapstructure:"name_split_delimiter" json:"name_split_delimiter"`
	StripLibraryPrefix bool   `mapstructure:"strip_library_prefix" json:"strip_library_prefix"`

	ModelMode         string `mapstructure:"model_mode" json:"model_mode"`
	UnknownStatements string `mapstructure:"unknown_statements" json:"unknown_statements"`
	Strict            bool   `mapstructure:"strict" json:"strict"`
	FailFast          bool   `mapstructure:"fail_fast" json:"fail_fast"`

	Report string `mapstructure:"report" json:"report"`
}

// SetDefaults registers the default of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("pdk_root", "")
	v.SetDefault("pdk", "sky130B")
	v.SetDefault("outdir", "symbols")
	v.SetDefault("jobs", runtime.NumCPU())

	v.SetDefault("skip_sram", false)
	v.SetDefault("flatten", false)
	v.SetDefault("skip_existing", false)

	v.SetDefault("ignore_power_pins", false)
	v.SetDefault("infer_power_from_name", true)
	v.SetDefault("name_split_delimiter", "")
	v.SetDefault("strip_library_prefix", true)

	v.SetDefault("model_mode", spice.ModeNone.String())
	v.SetDefault("unknown_statements", lef.SkipUnknown.String())
	v.SetDefault("strict", true)
	v.SetDefault("fail_fast", false)

	v.SetDefault("report", "")
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// PDK2KICAD_PDK_ROOT wins over the conventional PDK_ROOT.
	_ = v.BindEnv("pdk_root", EnvPrefix+"_PDK_ROOT", "PDK_ROOT")
	SetDefaults(v)
	return v
}

// Load reads the config file into v, then unmarshals and validates the
// merged configuration. An explicit path must exist; without one, a
// pdk2kicad.toml in the working directory is used if present.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "read config")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with every key at its default.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate checks c against the CUE schema.
func (c *Config) Validate() error {
	data, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return errors.Wrap(err, "compile config schema")
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	value := ctx.CompileBytes(data)
	if err := value.Err(); err != nil {
		return errors.Wrap(err, "compile config")
	}
	if err := def.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return errors.WithHint(errors.Wrap(err, "invalid configuration"),
			"check the config file, PDK2KICAD_* environment variables and flags")
	}
	return nil
}

// CellOptions derives the extraction options.
func (c *Config) CellOptions() cell.Options {
	return cell.Options{
		NameSplitDelimiter: c.NameSplitDelimiter,
		StripLibraryPrefix: c.StripLibraryPrefix,
		IgnorePowerPins:    c.IgnorePowerPins,
		InferPowerFromName: c.InferPowerFromName,
		PDK:                c.PDK,
		Strict:             c.Strict,
	}
}

// ParserOptions derives the LEF parser options.
func (c *Config) ParserOptions() ([]lef.Option, error) {
	policy, err := lef.ParseUnknownPolicy(c.UnknownStatements)
	if err != nil {
		return nil, err
	}
	return []lef.Option{lef.WithUnknownPolicy(policy)}, nil
}

// PipelineOptions derives the run options.
func (c *Config) PipelineOptions() (pipeline.Options, error) {
	mode, err := spice.ParseMode(c.ModelMode)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Jobs:         c.Jobs,
		FailFast:     c.FailFast,
		Cell:         c.CellOptions(),
		Models:       mode,
		OutDir:       c.OutDir,
		PDK:          c.PDK,
		Flatten:      c.Flatten,
		SkipExisting: c.SkipExisting,
	}, nil
}
