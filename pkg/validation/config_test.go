package validation

import (
	"errors"
	"net/netip"
	"strings"
	"testing"
)

func TestConfigValidator_Numbers(t *testing.T) {
	tests := []struct {
		name    string
		apply   func(*ConfigValidator)
		wantErr bool
	}{
		{"positive ok", func(cv *ConfigValidator) { cv.Positive("Nodes", 5) }, false},
		{"positive zero", func(cv *ConfigValidator) { cv.Positive("Nodes", 0) }, true},
		{"non-negative zero", func(cv *ConfigValidator) { cv.NonNegative("Workers", 0) }, false},
		{"non-negative below", func(cv *ConfigValidator) { cv.NonNegative("Workers", -1) }, true},
		{"range int inside", func(cv *ConfigValidator) { cv.RangeInt("Rounds", 3, 1, 10) }, false},
		{"range int outside", func(cv *ConfigValidator) { cv.RangeInt("Rounds", 11, 1, 10) }, true},
		{"range float inside", func(cv *ConfigValidator) { cv.RangeFloat("Loss", 0.5, 0, 100) }, false},
		{"range float outside", func(cv *ConfigValidator) { cv.RangeFloat("Loss", 101, 0, 100) }, true},
		{"one of", func(cv *ConfigValidator) { cv.OneOf("Strategy", "bfs", []string{"bfs", "auto"}) }, false},
		{"not one of", func(cv *ConfigValidator) { cv.OneOf("Strategy", "dfs", []string{"bfs", "auto"}) }, true},
		{"required", func(cv *ConfigValidator) { cv.Required("Output", "") }, true},
		{"unique", func(cv *ConfigValidator) { cv.Unique("Regions", []string{"a", "b", "a"}) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cv := NewConfigValidator("Config")
			tt.apply(cv)
			if err := cv.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidator_SumApprox(t *testing.T) {
	err := NewConfigValidator("Plan").SumApprox("Regions", []float64{0.3, 0.24, 0.3, 0.06, 0.06, 0.04}, 1.0, 0.01).Validate()
	if err != nil {
		t.Errorf("default proportions rejected: %v", err)
	}

	err = NewConfigValidator("Plan").SumApprox("Regions", []float64{0.5, 0.3}, 1.0, 0.01).Validate()
	if err == nil {
		t.Error("expected error for proportions summing to 0.8")
	}
}

func TestConfigValidator_DisjointPrefixes(t *testing.T) {
	names := []string{"a", "b", "c"}
	ok := []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/12"),
		netip.MustParsePrefix("10.16.0.0/12"),
		netip.MustParsePrefix("10.48.0.0/16"),
	}
	if err := NewConfigValidator("Plan").DisjointPrefixes("Regions", names, ok).Validate(); err != nil {
		t.Errorf("disjoint prefixes rejected: %v", err)
	}

	bad := []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/12"),
		netip.MustParsePrefix("10.1.0.0/16"),
		netip.MustParsePrefix("10.48.0.0/16"),
	}
	err := NewConfigValidator("Plan").DisjointPrefixes("Regions", names, bad).Validate()
	if err == nil {
		t.Fatal("overlapping prefixes accepted")
	}
	if strings.Contains(err.Error(), "errors") {
		t.Errorf("want exactly one error, got %v", err)
	}
	if !strings.Contains(err.Error(), "a (10.0.0.0/12) overlaps b (10.1.0.0/16)") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestConfigValidator_Validate(t *testing.T) {
	if err := NewConfigValidator("Config").Positive("Nodes", 1).Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	sentinel := errors.New("boom")
	err := NewConfigValidator("Config").
		Positive("Nodes", 0).
		Custom("Output", func() error { return sentinel }).
		When(false, func(cv *ConfigValidator) { cv.Required("Skipped", "") }).
		Validate()
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("err = %v should wrap the custom error", err)
	}
	if !strings.Contains(err.Error(), "2 errors") {
		t.Errorf("err = %v, want error count", err)
	}
}

func TestDefaultOrInt(t *testing.T) {
	if DefaultOrInt(0, 7) != 7 || DefaultOrInt(-3, 7) != 7 || DefaultOrInt(4, 7) != 4 {
		t.Error("DefaultOrInt returned unexpected value")
	}
}
