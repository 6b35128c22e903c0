package config

import "errors"

var (
	// ErrInvalidMaxPages is returned when max_pages is not greater than 0
	ErrInvalidMaxPages = errors.New("max_pages must be greater than 0")
	// ErrInvalidLinkBudget is returned when max_links_to_consider is not greater than 0
	ErrInvalidLinkBudget = errors.New("max_links_to_consider must be greater than 0")
	// ErrInvalidFetchBudget is returned when max_fetch_attempts cannot cover the page budget
	ErrInvalidFetchBudget = errors.New("max_fetch_attempts must be at least max_pages")
	// ErrInvalidTimeout is returned when fetch_timeout is not greater than 0
	ErrInvalidTimeout = errors.New("fetch_timeout must be greater than 0")
	// ErrInvalidWordBudget is returned when a word budget is not greater than 0
	ErrInvalidWordBudget = errors.New("aggregate_word_limit and text_word_cap must be greater than 0")
	// ErrThresholdOrder is returned when the primary threshold is looser than the secondary one
	ErrThresholdOrder = errors.New("primary_min_words must not be lower than secondary_min_words")
	// ErrInvalidConcurrency is returned when concurrency is not greater than 0
	ErrInvalidConcurrency = errors.New("concurrency must be greater than 0")
)
