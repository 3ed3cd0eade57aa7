// Package config defines the data structures related to configuration and
// includes functions for loading and checking it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/bankim/loan-engine/internal/cache"
	"github.com/bankim/loan-engine/internal/quote"
	"github.com/bankim/loan-engine/pkg/constants"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for the loan engine.
type Configuration struct {
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging,omitempty"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server,omitempty"`
	Rates    quote.Rates    `mapstructure:"rates" yaml:"rates"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache,omitempty"`
	Messages MessagesConfig `mapstructure:"messages" yaml:"messages,omitempty"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// ServerConfig holds the HTTP API options.
type ServerConfig struct {
	Address       string `mapstructure:"address" yaml:"address,omitempty"`
	MaxUploadSize string `mapstructure:"maxUploadSize" yaml:"maxUploadSize,omitempty"`
	SessionTTL    string `mapstructure:"sessionTTL" yaml:"sessionTTL,omitempty"`
}

// CacheConfig selects where derived quotes are cached.
type CacheConfig struct {
	Driver   string `mapstructure:"driver" yaml:"driver,omitempty"` // memory, redis
	Address  string `mapstructure:"address" yaml:"address,omitempty"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	DB       int    `mapstructure:"db" yaml:"db,omitempty"`
	TTL      string `mapstructure:"ttl" yaml:"ttl,omitempty"`
}

// MessagesConfig locates the localized error message catalog.
type MessagesConfig struct {
	Catalog         string `mapstructure:"catalog" yaml:"catalog,omitempty"`
	DefaultLanguage string `mapstructure:"defaultLanguage" yaml:"defaultLanguage,omitempty"`
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty"` // pretty, csv
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. A .env file next to the working directory is loaded
// first so its LOAN_* variables can override file values.
func LoadConfiguration(configPath string) (*Configuration, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxUploadSize", fmt.Sprintf("%d", constants.DefaultMaxBodySizeBytes))
	v.SetDefault("server.sessionTTL", fmt.Sprintf("%dm", constants.DefaultSessionTTLMinutes))
	v.SetDefault("cache.driver", constants.CacheDriverMemory)
	v.SetDefault("cache.ttl", fmt.Sprintf("%ds", constants.DefaultCacheTTLSeconds))
	v.SetDefault("messages.defaultLanguage", "he")
	v.SetDefault("output.format", constants.OutputFormatPretty)

	// AutomaticEnv only sees keys viper already knows about.
	for _, key := range []string{"rates.mortgage", "rates.mortgageRefinance", "rates.credit", "rates.creditRefinance", "cache.address", "cache.password", "cache.db", "messages.catalog", "logging.outputFile"} {
		_ = v.BindEnv(key)
	}
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Validate reports configuration errors that make the engine unusable.
func (c *Configuration) Validate() error {
	var problems []string
	for _, r := range c.rateSettings() {
		if r.value <= 0 {
			problems = append(problems, fmt.Sprintf("rates.%s must be greater than 0", r.name))
		}
	}

	switch c.Cache.Driver {
	case "", constants.CacheDriverMemory:
	case constants.CacheDriverRedis:
		if c.Cache.Address == "" {
			problems = append(problems, "cache.address is required for the redis driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("unsupported cache driver %q", c.Cache.Driver))
	}

	for _, d := range []struct{ key, value string }{
		{"server.sessionTTL", c.Server.SessionTTL},
		{"cache.ttl", c.Cache.TTL},
	} {
		if d.value == "" {
			continue
		}
		if _, err := time.ParseDuration(d.value); err != nil {
			problems = append(problems, fmt.Sprintf("%s: invalid duration %q", d.key, d.value))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings for settings that work but are probably unintended.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	for _, r := range c.rateSettings() {
		if r.value > 25 {
			warnings = append(warnings, fmt.Sprintf("rate %s is %.2f%%, check that it is an annual percentage", r.name, r.value))
		}
	}

	if ttl, err := time.ParseDuration(c.Server.SessionTTL); err == nil && ttl <= 0 {
		warnings = append(warnings, "server.sessionTTL is not positive, idle sessions will never expire")
	}
	if ttl, err := time.ParseDuration(c.Cache.TTL); err == nil && ttl <= 0 {
		warnings = append(warnings, "cache.ttl is not positive, cached quotes will never expire")
	}
	if c.Cache.Driver == constants.CacheDriverRedis && c.Cache.Password == "" {
		warnings = append(warnings, "redis cache configured without a password")
	}
	if c.Messages.Catalog != "" {
		if _, err := os.Stat(c.Messages.Catalog); err != nil {
			warnings = append(warnings, fmt.Sprintf("message catalog %s is not readable, using built-in messages", c.Messages.Catalog))
		}
	}

	return warnings
}

type rateSetting struct {
	name  string
	value float64
}

// rateSettings lists the configured rates in file order.
func (c *Configuration) rateSettings() []rateSetting {
	return []rateSetting{
		{"mortgage", c.Rates.Mortgage},
		{"mortgageRefinance", c.Rates.MortgageRefinance},
		{"credit", c.Rates.Credit},
		{"creditRefinance", c.Rates.CreditRefinance},
	}
}

// SessionTTL returns the idle session lifetime.
func (c *Configuration) SessionTTL() time.Duration {
	return durationOr(c.Server.SessionTTL, time.Duration(constants.DefaultSessionTTLMinutes)*time.Minute)
}

// CacheOptions converts the cache section for cache.New.
func (c *Configuration) CacheOptions() cache.Options {
	return cache.Options{
		Driver:   c.Cache.Driver,
		Address:  c.Cache.Address,
		Password: c.Cache.Password,
		DB:       c.Cache.DB,
		TTL:      durationOr(c.Cache.TTL, time.Duration(constants.DefaultCacheTTLSeconds)*time.Second),
		Prefix:   "loan-engine:",
	}
}

func durationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
