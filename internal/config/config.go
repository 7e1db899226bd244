// Package config loads medlit settings from a medlit.yaml file and the
// environment through viper. Command-line flags override what is loaded
// here.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/henrybloomingdale/medlit/internal/classify"
	"github.com/henrybloomingdale/medlit/internal/fulltext"
	"github.com/henrybloomingdale/medlit/internal/litsearch"
	"github.com/henrybloomingdale/medlit/internal/mesh"
	"github.com/henrybloomingdale/medlit/internal/ncbi"
	"github.com/henrybloomingdale/medlit/internal/pubmedweb"
	"github.com/henrybloomingdale/medlit/internal/query"
)

// AppName names the config file and its XDG directory.
const AppName = "medlit"

// EnvPrefix prefixes every environment override, e.g. MEDLIT_LIMIT.
const EnvPrefix = "MEDLIT"

// Config holds the settings a search needs.
type Config struct {
	APIKey            string `mapstructure:"api_key"`
	Email             string `mapstructure:"email"`
	Limit             int    `mapstructure:"limit"`
	Mode              string `mapstructure:"mode"`
	Policy            string `mapstructure:"policy"`
	RegionCountry     string `mapstructure:"region_country"`
	Concurrency       int    `mapstructure:"concurrency"`
	MirrorOrigin      string `mapstructure:"mirror_origin"`
	SearchOrigin      string `mapstructure:"search_origin"`
	EutilsOrigin      string `mapstructure:"eutils_origin"`
	TerminologyOrigin string `mapstructure:"terminology_origin"`
}

var (
	ErrInvalidLimit       = errors.New("limit must be between 1 and 100")
	ErrInvalidConcurrency = errors.New("concurrency must be positive")
)

// XDGConfigDir returns the per-user config directory, e.g. ~/.config/medlit.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// New returns a viper instance with defaults, search paths, and environment
// bindings set. file, when non-empty, replaces the search.
func New(file string) *viper.Viper {
	v := viper.New()

	v.SetDefault("api_key", "")
	v.SetDefault("email", ncbi.DefaultEmail)
	v.SetDefault("limit", query.DefaultLimit)
	v.SetDefault("mode", query.Structured.String())
	v.SetDefault("policy", classify.NameAllWords)
	v.SetDefault("region_country", query.DefaultCountry)
	v.SetDefault("concurrency", litsearch.DefaultConcurrency)
	v.SetDefault("mirror_origin", fulltext.DefaultMirror)
	v.SetDefault("search_origin", pubmedweb.DefaultOrigin)
	v.SetDefault("eutils_origin", ncbi.DefaultBaseURL)
	v.SetDefault("terminology_origin", mesh.DefaultOrigin)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(XDGConfigDir())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// NCBI_API_KEY is the variable NCBI's own documentation uses.
	_ = v.BindEnv("api_key", EnvPrefix+"_API_KEY", "NCBI_API_KEY")

	return v
}

// Load reads the config file if one exists and returns the merged settings.
// A missing file is not an error; an explicit file that cannot be read is.
func Load(file string) (*Config, string, error) {
	v := New(file)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, "", fmt.Errorf("reading config: %w", err)
		}
	}
	cfg, err := FromViper(v)
	if err != nil {
		return nil, "", err
	}
	return cfg, v.ConfigFileUsed(), nil
}

// FromViper decodes and validates the settings held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and enum names.
func (c *Config) Validate() error {
	if c.Limit < 1 || c.Limit > query.MaxLimit {
		return fmt.Errorf("%w (got %d)", ErrInvalidLimit, c.Limit)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("%w (got %d)", ErrInvalidConcurrency, c.Concurrency)
	}
	if _, err := query.ParseMode(c.Mode); err != nil {
		return err
	}
	if _, err := classify.ByName(c.Policy); err != nil {
		return err
	}
	return nil
}

// SearchMode returns the configured access mode.
func (c *Config) SearchMode() query.Mode {
	m, _ := query.ParseMode(c.Mode)
	return m
}

// ClassifierPolicy returns the configured classifier.
func (c *Config) ClassifierPolicy() classify.Policy {
	p, err := classify.ByName(c.Policy)
	if err != nil {
		return classify.AllWords{}
	}
	return p
}
