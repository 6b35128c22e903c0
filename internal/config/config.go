// Package config provides configuration management for the site
// auditor. All crawl and aggregation budgets are tunable here rather
// than hard-coded, since observed audit deployments disagree on the
// exact numbers.
package config

import "time"

// AuditConfig holds every knob for one site audit.
type AuditConfig struct {
	// Crawl budgets
	MaxPages           int `mapstructure:"max_pages" yaml:"max_pages"`                         // Pages accepted into the content set
	MaxLinksToConsider int `mapstructure:"max_links_to_consider" yaml:"max_links_to_consider"` // Candidates enqueued per parsed page
	MaxFetchAttempts   int `mapstructure:"max_fetch_attempts" yaml:"max_fetch_attempts"`       // Total fetches per crawl, seed included

	// Content thresholds (words)
	PrimaryMinWords     int `mapstructure:"primary_min_words" yaml:"primary_min_words"`         // Minimum for a page to become primary
	SecondaryMinWords   int `mapstructure:"secondary_min_words" yaml:"secondary_min_words"`     // Minimum for a crawled page to be kept
	MinAggregationWords int `mapstructure:"min_aggregation_words" yaml:"min_aggregation_words"` // Preferred minimum for sampled pages

	// Output budgets
	AggregateWordLimit   int `mapstructure:"aggregate_word_limit" yaml:"aggregate_word_limit"`     // Hard cap on merged text, bounds LLM token cost
	AggregateMaxHeadings int `mapstructure:"aggregate_max_headings" yaml:"aggregate_max_headings"` // Cap on merged headings
	MaxHeadings          int `mapstructure:"max_headings" yaml:"max_headings"`                     // Per-page h1-h3 cap
	TextWordCap          int `mapstructure:"text_word_cap" yaml:"text_word_cap"`                   // Per-page body text cap
	PreviewChars         int `mapstructure:"preview_chars" yaml:"preview_chars"`                   // TextPreview length

	// HTTP behavior
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout" yaml:"fetch_timeout"`     // Per-page fetch deadline
	RequestDelay   time.Duration `mapstructure:"request_delay" yaml:"request_delay"`     // Pause between sequential fetches
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`   // Response size cap
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent"`           // HTTP User-Agent header
	AcceptLanguage string        `mapstructure:"accept_language" yaml:"accept_language"` // HTTP Accept-Language header

	// CLI concerns
	Concurrency  int    `mapstructure:"concurrency" yaml:"concurrency"`     // Parallel independent audits (multi-URL invocations)
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"` // SQLite audit store, empty disables persistence
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	LogFile      string `mapstructure:"log_file" yaml:"log_file"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *AuditConfig {
	return &AuditConfig{
		MaxPages:             4,
		MaxLinksToConsider:   25,
		MaxFetchAttempts:     12,
		PrimaryMinWords:      100,
		SecondaryMinWords:    50,
		MinAggregationWords:  80,
		AggregateWordLimit:   2000,
		AggregateMaxHeadings: 20,
		MaxHeadings:          25,
		TextWordCap:          1500,
		PreviewChars:         800,
		FetchTimeout:         15 * time.Second,
		RequestDelay:         300 * time.Millisecond,
		MaxBodyBytes:         5 << 20, // 5MB
		UserAgent:            "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		AcceptLanguage:       "sv-SE,sv;q=0.9,en-US;q=0.8,en;q=0.7",
		Concurrency:          1,
		DatabasePath:         "",
		LogLevel:             "info",
	}
}

// Validate checks that the configuration is internally consistent.
func (c *AuditConfig) Validate() error {
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}
	if c.MaxLinksToConsider <= 0 {
		return ErrInvalidLinkBudget
	}
	if c.MaxFetchAttempts < c.MaxPages {
		return ErrInvalidFetchBudget
	}
	if c.FetchTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.AggregateWordLimit <= 0 || c.TextWordCap <= 0 {
		return ErrInvalidWordBudget
	}
	if c.PrimaryMinWords < c.SecondaryMinWords {
		return ErrThresholdOrder
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.RequestDelay < 0 {
		c.RequestDelay = 0
	}
	return nil
}
