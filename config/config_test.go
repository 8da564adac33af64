package config

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "zero max pages",
			mutate: func(cfg *Config) {
				cfg.MaxPages = 0
			},
			wantErr: "max pages",
		},
		{
			name: "empty base url",
			mutate: func(cfg *Config) {
				cfg.BaseURL = ""
			},
			wantErr: "base URL",
		},
		{
			name: "invalid url format",
			mutate: func(cfg *Config) {
				cfg.BaseURL = "http://"
			},
			wantErr: "base URL",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "port out of range",
			mutate: func(cfg *Config) {
				cfg.Port = 70000
			},
			wantErr: "port",
		},
		{
			name: "zero cache size",
			mutate: func(cfg *Config) {
				cfg.SearchCacheSize = 0
			},
			wantErr: "search cache",
		},
		{
			name: "unknown export format",
			mutate: func(cfg *Config) {
				cfg.ExportFile = "out/books.xml"
				cfg.ExportFormat = "xml"
			},
			wantErr: "export format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if got := cfg.Addr(); got != "0.0.0.0:5000" {
		t.Fatalf("addr = %q, want 0.0.0.0:5000", got)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("BOOKAPI_TEST_INT", " 42 ")
	value, ok, err := EnvInt("BOOKAPI_TEST_INT")
	if err != nil || !ok || value != 42 {
		t.Fatalf("EnvInt = (%d, %v, %v), want (42, true, nil)", value, ok, err)
	}

	t.Setenv("BOOKAPI_TEST_INT", "abc")
	if _, _, err := EnvInt("BOOKAPI_TEST_INT"); err == nil {
		t.Fatalf("expected parse error for non-integer value")
	}

	t.Setenv("BOOKAPI_TEST_INT", "")
	if _, ok, err := EnvInt("BOOKAPI_TEST_INT"); ok || err != nil {
		t.Fatalf("blank value should be treated as unset, got ok=%v err=%v", ok, err)
	}
}
