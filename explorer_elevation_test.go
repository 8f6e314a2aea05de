package main

import (
	"errors"
	"testing"
)

type cannedPrompt struct {
	answer    bool
	asked     int
	operation string
	item      string
}

func (p *cannedPrompt) ConfirmElevation(operation, item string) bool {
	p.asked++
	p.operation = operation
	p.item = item
	return p.answer
}

func TestIsPermissionError(t *testing.T) {
	cases := []struct {
		message string
		want    bool
	}{
		{"Permission denied", true},
		{"sftp: \"ACCESS is denied\" (SSH_FX_PERMISSION_DENIED)", true},
		{"mkdir: cannot create directory '/etc/x': Read-only file system", true},
		{"operation not permitted", true},
		{"failed to create remote file", true},
		{"connection reset by peer", false},
		{"no such file or directory", false},
		{"", false},
	}

	for _, c := range cases {
		if got := isPermissionError(c.message); got != c.want {
			t.Errorf("isPermissionError(%q) = %v, want %v", c.message, got, c.want)
		}
	}
}

func TestAttemptElevatedNilError(t *testing.T) {
	prompt := &cannedPrompt{answer: true}
	policy := NewElevationPolicy(prompt)

	err := policy.AttemptElevated("delete", "/etc/hosts", nil, func() error {
		t.Fatal("retry should not run when there was no failure")
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prompt.asked != 0 {
		t.Fatal("prompt should not fire without a failure")
	}
}

func TestAttemptElevatedPassesThroughNonPermissionErrors(t *testing.T) {
	prompt := &cannedPrompt{answer: true}
	policy := NewElevationPolicy(prompt)
	previous := errors.New("connection reset by peer")

	err := policy.AttemptElevated("delete", "/etc/hosts", previous, func() error {
		t.Fatal("retry should not run for transport errors")
		return nil
	})
	if err != previous {
		t.Fatalf("expected the original error back, got %v", err)
	}
	if prompt.asked != 0 {
		t.Fatal("prompt should not fire for transport errors")
	}
}

func TestAttemptElevatedDeclined(t *testing.T) {
	prompt := &cannedPrompt{answer: false}
	policy := NewElevationPolicy(prompt)

	err := policy.AttemptElevated("delete", "/etc/hosts", errors.New("permission denied"), func() error {
		t.Fatal("retry should not run after the user declines")
		return nil
	})
	if !errors.Is(err, ErrElevationDeclined) {
		t.Fatalf("expected ErrElevationDeclined, got %v", err)
	}
	if prompt.asked != 1 {
		t.Fatalf("prompt should fire exactly once, fired %d times", prompt.asked)
	}
}

func TestAttemptElevatedRetrySucceeds(t *testing.T) {
	prompt := &cannedPrompt{answer: true}
	policy := NewElevationPolicy(prompt)

	retried := 0
	err := policy.AttemptElevated("rename", "notes.txt", errors.New("permission denied"), func() error {
		retried++
		return nil
	})
	if err != nil {
		t.Fatalf("elevated retry succeeded but got error: %v", err)
	}
	if retried != 1 {
		t.Fatalf("retry ran %d times, want 1", retried)
	}
	if prompt.operation != "rename" || prompt.item != "notes.txt" {
		t.Fatalf("prompt saw %q/%q", prompt.operation, prompt.item)
	}
}

func TestAttemptElevatedSecondFailureIsFinal(t *testing.T) {
	prompt := &cannedPrompt{answer: true}
	policy := NewElevationPolicy(prompt)

	inner := errors.New("permission denied")
	err := policy.AttemptElevated("delete", "/etc/hosts", errors.New("permission denied"), func() error {
		return inner
	})
	if err == nil {
		t.Fatal("expected a terminal error after the elevated retry failed")
	}
	if !errors.Is(err, inner) {
		t.Fatalf("terminal error should wrap the retry failure, got %v", err)
	}
	if prompt.asked != 1 {
		t.Fatalf("a failed elevated retry must not prompt again, prompted %d times", prompt.asked)
	}
}
