// Package config loads mdx-build settings from flags, MDX_* environment
// variables and an optional mdx.yaml file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/3-lines-studio/mdx/internal/adapters/process"
	"github.com/3-lines-studio/mdx/internal/core"
)

const (
	KeyInput          = "input"
	KeyOutput         = "output"
	KeyConcurrency    = "concurrency"
	KeyLang           = "lang"
	KeyRuntime        = "runtime"
	KeyRuntimeDir     = "runtime-dir"
	KeyExternal       = "external"
	KeyExcludeProps   = "exclude-props"
	KeyDropUnsafeProp = "drop-unserializable-props"
	KeyRootID         = "root-id"
	KeyMinify         = "minify"
	KeyVerbose        = "verbose"
	KeyAddr           = "addr"
)

type Config struct {
	InputDir                string
	OutputDir               string
	Concurrency             int
	Lang                    string
	Runtime                 []string
	RuntimeDir              string
	External                []string
	ExcludeProps            []string
	DropUnserializableProps bool
	RootID                  string
	Minify                  bool
	Verbose                 bool
	Addr                    string
}

func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyInput, ".")
	v.SetDefault(KeyOutput, "_site")
	v.SetDefault(KeyConcurrency, 0)
	v.SetDefault(KeyLang, "en")
	v.SetDefault(KeyRuntime, slices.Clone(process.DefaultCommand))
	v.SetDefault(KeyExternal, []string{})
	v.SetDefault(KeyExcludeProps, core.DefaultExcludedProps)
	v.SetDefault(KeyRootID, core.DefaultRootID)
	v.SetDefault(KeyAddr, "localhost:8080")

	v.SetEnvPrefix("MDX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("mdx")
	v.SetConfigType("yaml")
	return v
}

// Load reads the optional config file from dir, binds flags and decodes
// the result. A missing config file is not an error.
func Load(v *viper.Viper, dir string, flags *pflag.FlagSet) (Config, error) {
	if dir != "" {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	cfg := Config{
		InputDir:                v.GetString(KeyInput),
		OutputDir:               v.GetString(KeyOutput),
		Concurrency:             v.GetInt(KeyConcurrency),
		Lang:                    v.GetString(KeyLang),
		Runtime:                 fields(v.GetStringSlice(KeyRuntime)),
		RuntimeDir:              v.GetString(KeyRuntimeDir),
		External:                v.GetStringSlice(KeyExternal),
		ExcludeProps:            v.GetStringSlice(KeyExcludeProps),
		DropUnserializableProps: v.GetBool(KeyDropUnsafeProp),
		RootID:                  v.GetString(KeyRootID),
		Minify:                  v.GetBool(KeyMinify),
		Verbose:                 v.GetBool(KeyVerbose),
		Addr:                    v.GetString(KeyAddr),
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("input dir cannot be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output dir cannot be empty")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency cannot be negative")
	}
	if len(c.Runtime) == 0 {
		return fmt.Errorf("runtime command cannot be empty")
	}
	return core.ValidateRootID(c.RootID)
}

// fields splits a runtime command given as one string ("node -") so env
// vars and flags can carry it unquoted.
func fields(values []string) []string {
	if len(values) == 1 {
		return strings.Fields(values[0])
	}
	return values
}
