// Package config loads docgraph settings from docgraph.toml, the
// environment, and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/phobologic/docgraph/internal/derrors"
)

const (
	// FileName is the base name of the config file, without extension.
	FileName = "docgraph"

	DefaultDocumentationRoot = "/code"
)

// Formats lists the supported output formats.
var Formats = []string{"toon", "json"}

// Repository identifies the commit that code links point to.
type Repository struct {
	URL string `mapstructure:"url"`
	SHA string `mapstructure:"sha"`
}

type Config struct {
	Package           string     `mapstructure:"package"`
	SourceRoot        string     `mapstructure:"source_root"`
	DocumentationRoot string     `mapstructure:"documentation_root"`
	Repository        Repository `mapstructure:"repository"`
	Format            string     `mapstructure:"format"`
	MaxDeclarations   int        `mapstructure:"max_declarations"`
}

// New returns a viper instance that reads docgraph.toml from the given
// directories, or from the working directory and the user config directory
// when none are given. Environment variables prefixed DOCGRAPH_ override the
// file.
func New(dirs ...string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(FileName)
	v.SetConfigType("toml")

	if len(dirs) == 0 {
		dirs = append(dirs, ".")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			dirs = append(dirs, filepath.Join(xdg, "docgraph"))
		} else if home, err := os.UserHomeDir(); err == nil {
			dirs = append(dirs, filepath.Join(home, ".config", "docgraph"))
		}
	}
	for _, d := range dirs {
		v.AddConfigPath(d)
	}

	v.SetDefault("package", ".")
	v.SetDefault("documentation_root", DefaultDocumentationRoot)
	v.SetDefault("format", "toon")
	v.SetDefault("max_declarations", 0)

	v.SetEnvPrefix("DOCGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// No defaults for the repository keys: a default would clash with the
	// `repository = "url"` shorthand.
	_ = v.BindEnv("repository.url")
	_ = v.BindEnv("repository.sha")
	return v
}

// stringToRepositoryHookFunc accepts `repository = "https://host/repo"` as
// shorthand for a table with only a url.
func stringToRepositoryHookFunc() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(Repository{}) {
			return data, nil
		}
		if f.Kind() == reflect.String {
			return Repository{URL: data.(string)}, nil
		}
		return data, nil
	}
}

// Load reads the config file, if there is one, and decodes every setting
// known to v.
func Load(v *viper.Viper) (_ *Config, err error) {
	defer derrors.Wrap(&err, "config.Load")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       stringToRepositoryHookFunc(),
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("%w: %v", derrors.InvalidArgument, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings that are out of range.
func (c *Config) Validate() error {
	ok := false
	for _, f := range Formats {
		if c.Format == f {
			ok = true
		}
	}
	if !ok {
		return fmt.Errorf("%w: format %q, want one of %s", derrors.InvalidArgument, c.Format, strings.Join(Formats, ", "))
	}
	if c.MaxDeclarations < 0 {
		return fmt.Errorf("%w: max_declarations must not be negative", derrors.InvalidArgument)
	}
	return nil
}
