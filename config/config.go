// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package config loads server settings from defaults, an optional config file,
// the environment, and command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. ARES_DATA_PATH.
const EnvPrefix = "ARES"

const (
	DefaultAddr     = ":8787"
	DefaultDataPath = "ARES_memory_unificata_ext.jsonl"
)

// Config holds the settings for the query service.
type Config struct {
	Addr     string `mapstructure:"addr"`
	DataPath string `mapstructure:"data_path"`

	// PublicMode disables the API key gate. When false, gated endpoints
	// require ?key= to match APIKey or APIKeyHash (bcrypt).
	PublicMode bool   `mapstructure:"public_mode"`
	APIKey     string `mapstructure:"api_key"`
	APIKeyHash string `mapstructure:"api_key_hash"`

	RateLimit int `mapstructure:"rate_limit"` // requests per minute per client, 0 disables
	RateBurst int `mapstructure:"rate_burst"`
	// TrustProxy identifies clients by X-Forwarded-For. Enable only behind a proxy that sets it.
	TrustProxy bool `mapstructure:"trust_proxy"`

	CORS    bool `mapstructure:"cors"`
	Metrics bool `mapstructure:"metrics"`
	Warm    bool `mapstructure:"warm"` // load the dataset before accepting requests
}

var defaults = map[string]any{
	"addr":         DefaultAddr,
	"data_path":    DefaultDataPath,
	"public_mode":  true,
	"api_key":      "",
	"api_key_hash": "",
	"rate_limit":   0,
	"rate_burst":   20,
	"trust_proxy":  false,
	"cors":         true,
	"metrics":      true,
	"warm":         true,
}

// legacyEnv lists the unprefixed variable names the service has always honored.
var legacyEnv = map[string]string{
	"public_mode": "PUBLIC_MODE",
	"api_key":     "API_KEY",
}

// Load builds a Config. configFile may be empty. Flags whose names match a
// setting (dashes become underscores) override every other source when set.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key), legacy); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if _, ok := defaults[key]; !ok {
				return
			}
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = fmt.Errorf("bind flag %s: %w", f.Name, err)
			}
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings that can never work.
// A gated server without a key is allowed; requests then fail as misconfigured.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.DataPath == "" {
		errs = append(errs, errors.New("data_path is required"))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate_limit must be >= 0, got %d", c.RateLimit))
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		errs = append(errs, fmt.Errorf("rate_burst must be >= 1 when rate_limit is set, got %d", c.RateBurst))
	}
	if len(errs) != 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// AuthPolicy describes the auth gate for startup logs.
func (c *Config) AuthPolicy() string {
	switch {
	case c.PublicMode:
		return "public mode: all endpoints are open"
	case c.APIKey == "" && c.APIKeyHash == "":
		return "key required, but no api key is configured: gated endpoints will fail"
	default:
		return "key required on gated endpoints"
	}
}
