// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mdhender/aresmem/config"
	"github.com/spf13/pflag"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != config.DefaultAddr {
		t.Errorf("Addr: want %q, got %q", config.DefaultAddr, cfg.Addr)
	}
	if cfg.DataPath != config.DefaultDataPath {
		t.Errorf("DataPath: want %q, got %q", config.DefaultDataPath, cfg.DataPath)
	}
	if !cfg.PublicMode {
		t.Errorf("PublicMode: want true by default")
	}
	if cfg.RateLimit != 0 || cfg.TrustProxy || !cfg.CORS || !cfg.Metrics || !cfg.Warm {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("ARES_DATA_PATH", "/srv/ares.jsonl")
	t.Setenv("ARES_PUBLIC_MODE", "false")
	t.Setenv("ARES_API_KEY", "s3cret")
	t.Setenv("ARES_RATE_LIMIT", "120")
	t.Setenv("ARES_TRUST_PROXY", "true")

	cfg, err := config.Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataPath != "/srv/ares.jsonl" {
		t.Errorf("DataPath: want %q, got %q", "/srv/ares.jsonl", cfg.DataPath)
	}
	if cfg.PublicMode {
		t.Errorf("PublicMode: want false")
	}
	if cfg.APIKey != "s3cret" {
		t.Errorf("APIKey: want %q, got %q", "s3cret", cfg.APIKey)
	}
	if cfg.RateLimit != 120 {
		t.Errorf("RateLimit: want 120, got %d", cfg.RateLimit)
	}
	if !cfg.TrustProxy {
		t.Errorf("TrustProxy: want true")
	}
}

func TestLoad_LegacyEnvironment(t *testing.T) {
	t.Setenv("PUBLIC_MODE", "false")
	t.Setenv("API_KEY", "legacy")

	cfg, err := config.Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PublicMode || cfg.APIKey != "legacy" {
		t.Errorf("want legacy variables honored, got public %v key %q", cfg.PublicMode, cfg.APIKey)
	}
}

func TestLoad_FileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aresmem.yaml")
	data := "addr: \":9000\"\ndata_path: /from/file.jsonl\nmetrics: false\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("addr", config.DefaultAddr, "")
	flags.String("data-path", config.DefaultDataPath, "")
	flags.Bool("unrelated", false, "")
	if err := flags.Parse([]string{"--data-path", "/from/flag.jsonl"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := config.Load(path, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("Addr: want file value %q, got %q", ":9000", cfg.Addr)
	}
	if cfg.DataPath != "/from/flag.jsonl" {
		t.Errorf("DataPath: want flag value, got %q", cfg.DataPath)
	}
	if cfg.Metrics {
		t.Errorf("Metrics: want false from file")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"), nil); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	cfg := &config.Config{Addr: "", DataPath: "", RateLimit: -1}
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"addr", "data_path", "rate_limit"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestAuthPolicy(t *testing.T) {
	tests := []struct {
		cfg  config.Config
		want string
	}{
		{config.Config{PublicMode: true}, "public mode"},
		{config.Config{}, "no api key"},
		{config.Config{APIKeyHash: "$2a$..."}, "key required on gated"},
	}
	for _, tc := range tests {
		if got := tc.cfg.AuthPolicy(); !strings.Contains(got, tc.want) {
			t.Errorf("AuthPolicy(%+v): want %q in %q", tc.cfg, tc.want, got)
		}
	}
}
