// Package config loads headerpack settings from defaults, an optional
// .headerpack.yaml file, HEADERPACK_* environment variables and flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "headerpack"
	// FileName is the config file name without extension.
	FileName = ".headerpack"
	// FileExt is the config file extension.
	FileExt = "yaml"
	// EnvPrefix prefixes environment overrides, e.g. HEADERPACK_SOURCE_ROOT.
	EnvPrefix = "HEADERPACK"
)

// Keys, as used in the config file and environment.
const (
	KeySourceRoot = "source_root"
	KeyRootHeader = "root_header"
	KeyOutput     = "output"
	KeyLicense    = "license"
	KeyLibrary    = "library"
	KeyBanner     = "banner"
)

// Config holds the settings of one packing run.
type Config struct {
	SourceRoot string `mapstructure:"source_root"`
	RootHeader string `mapstructure:"root_header"`
	Output     string `mapstructure:"output"`  // "-" writes to stdout
	License    string `mapstructure:"license"` // empty skips the license text
	Library    string `mapstructure:"library"`
	Banner     bool   `mapstructure:"banner"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		SourceRoot: "src",
		RootHeader: "pax_gfx.h",
		Output:     "pax_packed_header.h",
		License:    "LICENSE",
		Library:    "PAX",
		Banner:     true,
	}
}

// LoadOptions controls where Load looks.
type LoadOptions struct {
	// ConfigFile, when set, is read exclusively and must exist.
	ConfigFile string
	// Dir is searched for .headerpack.yaml when ConfigFile is empty.
	Dir string
	// Flags maps flag names to keys; only flags the user changed override.
	Flags    *pflag.FlagSet
	FlagKeys map[string]string
}

// Load resolves the configuration. It returns the path of the config file
// that was read, or "" if none was.
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()

	d := Default()
	v.SetDefault(KeySourceRoot, d.SourceRoot)
	v.SetDefault(KeyRootHeader, d.RootHeader)
	v.SetDefault(KeyOutput, d.Output)
	v.SetDefault(KeyLicense, d.License)
	v.SetDefault(KeyLibrary, d.Library)
	v.SetDefault(KeyBanner, d.Banner)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("reading config %s: %w", opts.ConfigFile, err)
		}
	} else {
		dir := opts.Dir
		if dir == "" {
			dir = "."
		}
		v.SetConfigName(FileName)
		v.SetConfigType(FileExt)
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, "", fmt.Errorf("reading config: %w", err)
			}
		}
	}

	if opts.Flags != nil {
		for name, key := range opts.FlagKeys {
			f := opts.Flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, "", fmt.Errorf("binding flag --%s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, v.ConfigFileUsed(), nil
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	var missing []string
	if c.SourceRoot == "" {
		missing = append(missing, KeySourceRoot)
	}
	if c.RootHeader == "" {
		missing = append(missing, KeyRootHeader)
	}
	if c.Output == "" {
		missing = append(missing, KeyOutput)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// DefaultYAML renders Default as a config file body.
func DefaultYAML() string {
	d := Default()
	return fmt.Sprintf(`%s: %s
%s: %s
%s: %s
%s: %s
%s: %s
%s: %t`,
		KeySourceRoot, d.SourceRoot,
		KeyRootHeader, d.RootHeader,
		KeyOutput, d.Output,
		KeyLicense, d.License,
		KeyLibrary, d.Library,
		KeyBanner, d.Banner,
	)
}
