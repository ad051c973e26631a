package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxNameLength   = 120
	maxFieldLength  = 40
	maxRollNoLength = 40
)

// ClaimValidator validates self-reported identity claims before matching
type ClaimValidator struct{}

// NewClaimValidator creates a new claim validator
func NewClaimValidator() *ClaimValidator {
	return &ClaimValidator{}
}

// ValidateClaim checks a verification claim's fields. Batch and branch are
// selected from closed lists in the UI, so only presence and size are checked
// here; their values gate the roster filter downstream.
func (v *ClaimValidator) ValidateClaim(name, rollNo, batch, branch string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("claim validation failed: name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return fmt.Errorf("claim validation failed: name exceeds %d characters", maxNameLength)
	}

	if strings.TrimSpace(batch) == "" {
		return fmt.Errorf("claim validation failed: batch is required")
	}
	if utf8.RuneCountInString(batch) > maxFieldLength {
		return fmt.Errorf("claim validation failed: batch exceeds %d characters", maxFieldLength)
	}

	if strings.TrimSpace(branch) == "" {
		return fmt.Errorf("claim validation failed: branch is required")
	}
	if utf8.RuneCountInString(branch) > maxFieldLength {
		return fmt.Errorf("claim validation failed: branch exceeds %d characters", maxFieldLength)
	}

	if utf8.RuneCountInString(rollNo) > maxRollNoLength {
		return fmt.Errorf("claim validation failed: roll number exceeds %d characters", maxRollNoLength)
	}

	return nil
}

// ValidateRequestMessage bounds the optional connection-request message
func (v *ClaimValidator) ValidateRequestMessage(message string, maxLength int) error {
	if utf8.RuneCountInString(message) > maxLength {
		return fmt.Errorf("message validation failed: message exceeds %d characters", maxLength)
	}
	return nil
}
