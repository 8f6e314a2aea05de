package main

import (
	"errors"
	"fmt"
	"strings"
)

// ErrElevationDeclined is returned when the user refuses the elevation
// prompt. Callers treat it as a clean abort, not a failure to report.
var ErrElevationDeclined = errors.New("elevation declined by user")

// permissionErrorMarkers is the fixed set of substrings, matched
// case-insensitively, that classify a remote error as
// permission-related. Kept deliberately broad: sftp servers and sudo
// phrase these many different ways.
var permissionErrorMarkers = []string{
	"permission",
	"denied",
	"access",
	"not permitted",
	"operation not allowed",
	"read-only",
	"cannot create",
	"cannot open",
	"failed to create",
}

// isPermissionError reports whether an error message looks like a
// privilege problem rather than a transport or input problem.
func isPermissionError(message string) bool {
	lower := strings.ToLower(message)
	for _, marker := range permissionErrorMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// ElevationPrompt asks the user to confirm running an operation with
// elevated privileges. The Wails message dialog implements it; tests
// inject a canned answer.
type ElevationPrompt interface {
	ConfirmElevation(operation, item string) bool
}

// ElevationPolicy decides whether a failed operation gets a privileged
// retry. The flow is confirm-once-then-retry: a second permission
// failure after elevation is surfaced as a hard error, never retried
// again.
type ElevationPolicy struct {
	prompt ElevationPrompt
}

// NewElevationPolicy creates a policy backed by the given prompt.
func NewElevationPolicy(prompt ElevationPrompt) *ElevationPolicy {
	return &ElevationPolicy{prompt: prompt}
}

// AttemptElevated inspects the error from a prior attempt at
// operation. Non-permission errors pass through untouched. Permission
// errors trigger a confirmation prompt; on consent retry runs the same
// logical operation through the privileged path and its outcome is
// final. Returns nil when the elevated retry succeeds.
func (ep *ElevationPolicy) AttemptElevated(operation, item string, previous error, retry func() error) error {
	if previous == nil {
		return nil
	}
	if !isPermissionError(previous.Error()) {
		return previous
	}

	if !ep.prompt.ConfirmElevation(operation, item) {
		return ErrElevationDeclined
	}

	if err := retry(); err != nil {
		return fmt.Errorf("%s failed with elevated privileges: %w", operation, err)
	}
	return nil
}
