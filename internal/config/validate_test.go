package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidateDefaultIsClean(t *testing.T) {
	t.Parallel()
	if issues := Validate(Default()); len(issues) != 0 {
		t.Errorf("Validate(Default()) = %v, want no issues", issues)
	}
}

func TestValidateFindings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(*Config)
		path     string
		severity IssueSeverity
	}{
		{"empty listen", func(c *Config) { c.Listen = " " }, "listen", SeverityError},
		{"unknown store kind", func(c *Config) { c.Store.Kind = "oracle" }, "store.kind", SeverityError},
		{"empty dsn", func(c *Config) { c.Store.DSN = "" }, "store.dsn", SeverityError},
		{"negative retries", func(c *Config) { c.Fetch.MaxRetries = -1 }, "fetch.max_retries", SeverityError},
		{"negative timeout", func(c *Config) { c.Fetch.Timeout = Duration(-time.Second) }, "fetch", SeverityError},
		{"excessive retries", func(c *Config) { c.Fetch.MaxRetries = 50 }, "fetch.max_retries", SeverityWarning},
		{"zero grid", func(c *Config) { c.GridSize = 0 }, "grid_size", SeverityWarning},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(&cfg)

			issues := Validate(cfg)
			found := false
			for _, iss := range issues {
				if iss.Path == tt.path && iss.Severity == tt.severity {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() = %v, want %s issue at %s", issues, tt.severity, tt.path)
			}
		})
	}
}

func TestBlocking(t *testing.T) {
	t.Parallel()
	warn := []Issue{{Severity: SeverityWarning, Path: "x", Message: "y"}}
	if Blocking(warn) {
		t.Error("Blocking(warnings only) = true, want false")
	}
	if !Blocking(append(warn, Issue{Severity: SeverityError, Path: "z"})) {
		t.Error("Blocking(with error) = false, want true")
	}
}

func TestIssueError(t *testing.T) {
	t.Parallel()
	iss := Issue{Severity: SeverityError, Path: "store.dsn", Message: "dsn must not be empty"}
	if got := iss.Error(); !strings.Contains(got, "store.dsn") || !strings.Contains(got, "error") {
		t.Errorf("Error() = %q", got)
	}
}
