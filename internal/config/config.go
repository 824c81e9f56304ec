// Package config provides configuration management for codeplay using Viper
// for loading from files, environment variables and command-line flags.
//
// Settings come from .codeplay.yml, CODEPLAY_ prefixed environment variables
// (CODEPLAY_SERVER_PORT, CODEPLAY_STORAGE_DRIVER, ...) and flags bound by the
// commands, in increasing order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Playground PlaygroundConfig `mapstructure:"playground" yaml:"playground"`
	Preview    PreviewConfig    `mapstructure:"preview" yaml:"preview"`
	Storage    StorageConfig    `mapstructure:"storage" yaml:"storage"`
	Headless   HeadlessConfig   `mapstructure:"headless" yaml:"headless"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit" yaml:"rate_limit"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port" yaml:"port"`
	Host           string   `mapstructure:"host" yaml:"host"`
	Open           bool     `mapstructure:"open" yaml:"open"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	// TrustedProxies are IPs or CIDR ranges whose X-Forwarded-For is believed.
	TrustedProxies []string `mapstructure:"trusted_proxies" yaml:"trusted_proxies"`
	Environment    string   `mapstructure:"environment" yaml:"environment"`
}

type PlaygroundConfig struct {
	Debounce         time.Duration `mapstructure:"debounce" yaml:"debounce"`
	AutosaveInterval time.Duration `mapstructure:"autosave_interval" yaml:"autosave_interval"`
	ReleaseDelay     time.Duration `mapstructure:"release_delay" yaml:"release_delay"`
	LogLimit         int           `mapstructure:"log_limit" yaml:"log_limit"`
	// Source is a file whose contents drive the editor. Empty disables it.
	Source string `mapstructure:"source" yaml:"source"`
}

type PreviewConfig struct {
	ReactURL    string `mapstructure:"react_url" yaml:"react_url"`
	ReactDOMURL string `mapstructure:"react_dom_url" yaml:"react_dom_url"`
	BabelURL    string `mapstructure:"babel_url" yaml:"babel_url"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	Path   string `mapstructure:"path" yaml:"path"`
}

type HeadlessConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type RateLimitConfig struct {
	RenderPerSecond float64 `mapstructure:"render_per_second" yaml:"render_per_second"`
	Burst           int     `mapstructure:"burst" yaml:"burst"`
}

// Defaults for every key. They are registered with viper so that
// environment variables resolve even when no config file sets the key.
var defaults = map[string]interface{}{
	"server.port":                   8080,
	"server.host":                   "localhost",
	"server.open":                   true,
	"server.allowed_origins":        []string{},
	"server.trusted_proxies":        []string{},
	"server.environment":            "development",
	"playground.debounce":           "500ms",
	"playground.autosave_interval":  "30s",
	"playground.release_delay":      "1s",
	"playground.log_limit":          100,
	"playground.source":             "",
	"preview.react_url":             "https://unpkg.com/react@17/umd/react.development.js",
	"preview.react_dom_url":         "https://unpkg.com/react-dom@17/umd/react-dom.development.js",
	"preview.babel_url":             "https://unpkg.com/@babel/standalone/babel.min.js",
	"storage.driver":                "file",
	"storage.path":                  ".codeplay/playground.yml",
	"headless.timeout":              "2s",
	"rate_limit.render_per_second":  10.0,
	"rate_limit.burst":              20,
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// Load reads the global viper instance into a validated Config.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads v into a validated Config.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Slices set through env or flags arrive as a single string.
	if v.IsSet("server.allowed_origins") && len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("server.trusted_proxies") && len(config.Server.TrustedProxies) == 0 {
		config.Server.TrustedProxies = v.GetStringSlice("server.trusted_proxies")
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Address is host:port for the HTTP listener.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// URL is the address a browser should open.
func (c *ServerConfig) URL() string {
	host := c.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.Port)
}

// IsProduction reports whether the server runs with production settings.
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

var envKeyReplacer = strings.NewReplacer(".", "_")

// BindEnv makes v read CODEPLAY_<SECTION>_<KEY> environment variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix("CODEPLAY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(envKeyReplacer)
}
