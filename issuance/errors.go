package issuance

import (
	"errors"
	"strings"
)

var (
	ErrIssuanceNotFound = errors.New("tool issuance not found")
	// ErrNotIssued is returned for any transition attempted on a record that
	// already left the issued state.
	ErrNotIssued = errors.New("tool issuance is not in issued state")
)

// ValidationError lists the request fields that were absent or unusable.
type ValidationError struct {
	Missing []string `json:"missing,omitempty"`
	Invalid []string `json:"invalid,omitempty"`
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid fields: "+strings.Join(e.Invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) empty() bool { return len(e.Missing) == 0 && len(e.Invalid) == 0 }

func (e *ValidationError) missing(field string) { e.Missing = append(e.Missing, field) }
func (e *ValidationError) invalid(field string) { e.Invalid = append(e.Invalid, field) }
