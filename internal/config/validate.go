package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block
	// startup.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding worth surfacing that does
	// not block startup.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is a dotted path
// into the config (e.g. "store.kind").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Validate performs static checks over a decoded Config and returns
// the findings; callers decide whether warnings are fatal.
func Validate(c Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.Listen) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "listen",
			Message:  "listen address must not be empty",
		})
	}

	switch c.Store.Kind {
	case "", "sqlite", "postgres":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "store.kind",
			Message:  fmt.Sprintf("unknown kind %q (want sqlite or postgres)", c.Store.Kind),
		})
	}
	if strings.TrimSpace(c.Store.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "store.dsn",
			Message:  "dsn must not be empty",
		})
	}

	if c.Fetch.MaxRetries < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "fetch.max_retries",
			Message:  "must not be negative",
		})
	}
	if c.Fetch.Timeout < 0 || c.Fetch.InitialBackoff < 0 || c.Fetch.MaxBackoff < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "fetch",
			Message:  "durations must not be negative",
		})
	}
	if c.Fetch.MaxRetries > 10 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "fetch.max_retries",
			Message:  "more than 10 retries makes failed imports very slow to surface",
		})
	}

	if c.GridSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "grid_size",
			Message:  "non-positive grid size falls back to the default",
		})
	}

	return issues
}

// Blocking reports whether any issue has error severity.
func Blocking(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}
