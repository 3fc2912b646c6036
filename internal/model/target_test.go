package model

import (
	"errors"
	"testing"
)

// TestParseTarget tests building fetch origins from domain inputs.
func TestParseTarget(t *testing.T) {
	t.Parallel()

	t.Run("bare domain gets https primary and www fallback", func(t *testing.T) {
		t.Parallel()

		target, err := ParseTarget("example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if target.PrimaryURL() != "https://example.com" {
			t.Errorf("expected primary https://example.com, got %q", target.PrimaryURL())
		}
		if target.FallbackURL() != "https://www.example.com" {
			t.Errorf("expected fallback https://www.example.com, got %q", target.FallbackURL())
		}
		if target.Key() != "example.com" {
			t.Errorf("expected key example.com, got %q", target.Key())
		}
		if target.Raw() != "example.com" {
			t.Errorf("expected raw example.com, got %q", target.Raw())
		}
	})

	t.Run("input with scheme is used as-is", func(t *testing.T) {
		t.Parallel()

		target, err := ParseTarget("http://example.org/login")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if target.PrimaryURL() != "http://example.org/login" {
			t.Errorf("unexpected primary %q", target.PrimaryURL())
		}
		if target.FallbackURL() != "http://www.example.org/login" {
			t.Errorf("unexpected fallback %q", target.FallbackURL())
		}
		if target.Key() != "example.org" {
			t.Errorf("expected key example.org, got %q", target.Key())
		}
		if target.Raw() != "http://example.org/login" {
			t.Errorf("raw input must be preserved, got %q", target.Raw())
		}
	})

	t.Run("www host has no fallback", func(t *testing.T) {
		t.Parallel()

		target, err := ParseTarget("www.example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if target.HasFallback() {
			t.Errorf("expected no fallback, got %q", target.FallbackURL())
		}
	})

	t.Run("host with port keeps the port", func(t *testing.T) {
		t.Parallel()

		target, err := ParseTarget("example.com:8443")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if target.Hostname() != "example.com" {
			t.Errorf("expected hostname example.com, got %q", target.Hostname())
		}
		if target.FallbackURL() != "https://www.example.com:8443" {
			t.Errorf("unexpected fallback %q", target.FallbackURL())
		}
	})

	t.Run("rejects empty input", func(t *testing.T) {
		t.Parallel()

		_, err := ParseTarget("   ")
		if !errors.Is(err, ErrEmptyDomain) {
			t.Errorf("expected ErrEmptyDomain, got %v", err)
		}
	})

	t.Run("rejects input without host", func(t *testing.T) {
		t.Parallel()

		_, err := ParseTarget("https://")
		if !errors.Is(err, ErrInvalidDomain) {
			t.Errorf("expected ErrInvalidDomain, got %v", err)
		}
	})
}
