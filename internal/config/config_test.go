package config

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.MaxPages <= 0 {
		t.Error("expected positive page budget")
	}
	if cfg.FetchTimeout != 15*time.Second {
		t.Errorf("expected 15s fetch timeout, got %v", cfg.FetchTimeout)
	}
	if cfg.MaxFetchAttempts < cfg.MaxPages {
		t.Error("fetch budget must cover the page budget")
	}
	if cfg.PrimaryMinWords < cfg.SecondaryMinWords {
		t.Error("primary threshold must be at least as strict as the secondary one")
	}
	if cfg.DatabasePath != "" {
		t.Error("persistence must be opt-in")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AuditConfig)
		wantErr error
	}{
		{"zero max pages", func(c *AuditConfig) { c.MaxPages = 0 }, ErrInvalidMaxPages},
		{"zero link budget", func(c *AuditConfig) { c.MaxLinksToConsider = 0 }, ErrInvalidLinkBudget},
		{"fetch budget below page budget", func(c *AuditConfig) { c.MaxFetchAttempts = c.MaxPages - 1 }, ErrInvalidFetchBudget},
		{"zero timeout", func(c *AuditConfig) { c.FetchTimeout = 0 }, ErrInvalidTimeout},
		{"zero word limit", func(c *AuditConfig) { c.AggregateWordLimit = 0 }, ErrInvalidWordBudget},
		{"zero text cap", func(c *AuditConfig) { c.TextWordCap = 0 }, ErrInvalidWordBudget},
		{"inverted thresholds", func(c *AuditConfig) { c.PrimaryMinWords = 10; c.SecondaryMinWords = 50 }, ErrThresholdOrder},
		{"zero concurrency", func(c *AuditConfig) { c.Concurrency = 0 }, ErrInvalidConcurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateClampsNegativeDelay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequestDelay = -time.Second

	if err := cfg.Validate(); err != nil {
		t.Fatalf("negative delay should be clamped, not rejected: %v", err)
	}
	if cfg.RequestDelay != 0 {
		t.Errorf("expected delay clamped to 0, got %v", cfg.RequestDelay)
	}
}
