package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/karlding/canmsggen/pkg/codec"
	"github.com/karlding/canmsggen/pkg/synth"
)

// DefaultBaseID is the CAN identifier of realtime broadcast group 0
const DefaultBaseID = 1520

// LogConfig controls the log output
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Config contains everything that shapes the generated accessors
type Config struct {
	// Mode is either "typed" or "multiview"
	Mode string `toml:"mode" yaml:"mode"`
	// Quirks is either "strict" or "corrected", and only affects multiview
	Quirks string `toml:"quirks" yaml:"quirks"`

	FlushTrailing bool   `toml:"flush_trailing" yaml:"flush_trailing"`
	WideFields    bool   `toml:"wide_fields" yaml:"wide_fields"`
	Validation    string `toml:"validation" yaml:"validation"`

	StructFormat string   `toml:"struct_format" yaml:"struct_format"`
	HeaderGuard  string   `toml:"header_guard" yaml:"header_guard"`
	Includes     []string `toml:"includes" yaml:"includes"`

	BaseID uint32 `toml:"base_id" yaml:"base_id"`

	Log LogConfig `toml:"log" yaml:"log"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Mode:          string(synth.ModeTyped),
		Quirks:        codec.QuirksStrict.String(),
		FlushTrailing: true,
		Validation:    string(synth.ValidationWarn),
		StructFormat:  synth.DefaultStructFormat,
		BaseID:        DefaultBaseID,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a TOML file, or a YAML file when the extension is .yaml or
// .yml, on top of the defaults
func Load(path string) (*Config, error) {
	conf := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, conf); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", path)
		}
	default:
		md, err := toml.Decode(string(data), conf)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.Newf("%s: unknown keys %v", path, undecoded)
		}
	}

	if err := conf.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return conf, nil
}

// Validate checks that every enumerated setting has a known value
func (c *Config) Validate() error {
	if _, err := c.StrategyOptions(); err != nil {
		return err
	}
	if _, err := synth.ParseValidation(c.Validation); err != nil {
		return err
	}
	switch synth.Mode(c.Mode) {
	case synth.ModeTyped, synth.ModeMultiView:
	default:
		return errors.Newf("unknown mode %q", c.Mode)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return errors.Newf("unknown log format %q", c.Log.Format)
	}
	if c.StructFormat != "" && strings.Count(c.StructFormat, "%") != 1 {
		return errors.Newf("struct_format %q must contain exactly one verb for the group id", c.StructFormat)
	}
	return nil
}

// StrategyOptions converts the configuration to synth.Options
func (c *Config) StrategyOptions() (synth.Options, error) {
	quirks, err := codec.ParseQuirks(c.Quirks)
	if err != nil {
		return synth.Options{}, err
	}
	return synth.Options{
		StructFormat: c.StructFormat,
		Wide:         c.WideFields,
		Quirks:       quirks,
	}, nil
}

// CodecOptions converts the configuration to codec.Options
func (c *Config) CodecOptions() (codec.Options, error) {
	quirks, err := codec.ParseQuirks(c.Quirks)
	if err != nil {
		return codec.Options{}, err
	}
	return codec.Options{Wide: c.WideFields, Quirks: quirks}, nil
}

// Generator builds a synth.Generator from the configuration
func (c *Config) Generator() (*synth.Generator, error) {
	opts, err := c.StrategyOptions()
	if err != nil {
		return nil, err
	}
	strategy, err := synth.New(synth.Mode(c.Mode), opts)
	if err != nil {
		return nil, err
	}
	validation, err := synth.ParseValidation(c.Validation)
	if err != nil {
		return nil, err
	}
	return &synth.Generator{
		Strategy:      strategy,
		FlushTrailing: c.FlushTrailing,
		Wide:          c.WideFields,
		Validation:    validation,
		HeaderGuard:   c.HeaderGuard,
		Includes:      c.Includes,
	}, nil
}
