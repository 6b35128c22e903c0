package scrape

import (
	"errors"
	"testing"
)

func TestValidateAndNormalizeURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"bare domain", "example.com", "https://example.com", false},
		{"with scheme", "https://example.com/about", "https://example.com/about", false},
		{"http preserved", "http://example.com", "http://example.com", false},
		{"surrounding whitespace", "  example.com  ", "https://example.com", false},
		{"uppercase host", "https://EXAMPLE.com/Path", "https://example.com/Path", false},
		{"uppercase scheme", "HTTP://EXAMPLE.COM/about", "http://example.com/about", false},
		{"mixed case scheme", "HtTpS://example.com", "https://example.com", false},
		{"fragment dropped", "https://example.com/page#top", "https://example.com/page", false},
		{"default port removed", "https://example.com:443/", "https://example.com/", false},
		{"dot segments resolved", "https://example.com/a/../b", "https://example.com/b", false},
		{"swedish domain", "www.företaget.se", "https://www.företaget.se", false},
		{"empty", "", "", true},
		{"only whitespace", "   ", "", true},
		{"no hostname", "https:///path", "", true},
		{"not resolvable", "not a url at all", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateAndNormalizeURL(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ValidateAndNormalizeURL(%q) = %q, expected error", tt.input, got)
				}
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("expected *ValidationError, got %T: %v", err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateAndNormalizeURL(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ValidateAndNormalizeURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeURLIdempotent(t *testing.T) {
	inputs := []string{
		"example.com",
		"https://example.com/about",
		"  www.example.se/kontakt ",
		"HTTP://EXAMPLE.COM/Path/../Other",
	}

	for _, input := range inputs {
		once := NormalizeURL(input)
		twice := NormalizeURL(once)
		if once != twice {
			t.Errorf("normalization not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}
