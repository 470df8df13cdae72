package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Violations maps a field name to a human-readable problem description.
// A validator records every offending field, not just the first.
type Violations map[string]string

// Empty reports whether no violations were recorded
func (v Violations) Empty() bool { return len(v) == 0 }

// Required records a violation when value is blank
func (v Violations) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v[field] = "is required"
	}
}

// MaxLen records a violation when value exceeds max characters
func (v Violations) MaxLen(field, value string, max int) {
	if len(value) > max {
		v[field] = "must be at most " + strconv.Itoa(max) + " characters"
	}
}

// Email records a violation when value is not a plausible email address
func (v Violations) Email(field, value string) {
	if value != "" && !emailPattern.MatchString(value) {
		v[field] = "is not a valid email address"
	}
}

// NonNegative records a violation when value is below zero
func (v Violations) NonNegative(field string, value float64) {
	if value < 0 {
		v[field] = "must not be negative"
	}
}

// ValidEmail reports whether value looks like an email address
func ValidEmail(value string) bool {
	return emailPattern.MatchString(value)
}
