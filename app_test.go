package main

import (
	"testing"
)

func TestNewApp(t *testing.T) {
	app := NewApp()
	if app == nil {
		t.Fatal("NewApp() returned nil")
	}

	if app.terminal.sessions == nil {
		t.Fatal("NewApp() did not initialize sessions map")
	}

	if app.profiles.fileHistory == nil {
		t.Fatal("NewApp() did not initialize file history map")
	}

	if app.explorer == nil || app.elevation == nil || app.transfers == nil {
		t.Fatal("NewApp() did not wire the explorer core")
	}

	if app.openElevated == nil {
		t.Fatal("NewApp() did not initialize elevated-read tracking")
	}
}

func TestElevatedReadsTracking(t *testing.T) {
	app := NewApp()

	if app.openElevated.get("s1", "/etc/shadow") {
		t.Fatal("untracked file reported as elevated")
	}

	app.openElevated.set("s1", "/etc/shadow", true)
	if !app.openElevated.get("s1", "/etc/shadow") {
		t.Fatal("elevated read not remembered")
	}
	if app.openElevated.get("s2", "/etc/shadow") {
		t.Fatal("elevation leaked across sessions")
	}

	// Re-opening without elevation clears the memory.
	app.openElevated.set("s1", "/etc/shadow", false)
	if app.openElevated.get("s1", "/etc/shadow") {
		t.Fatal("plain re-open should clear the elevated flag")
	}
}

func TestGetAvailableShells(t *testing.T) {
	app := NewApp()

	shells := app.GetAvailableShells()

	// Should return at least one shell on any platform
	if len(shells) == 0 {
		t.Fatal("GetAvailableShells() returned empty list")
	}
}

func TestGetDefaultShell(t *testing.T) {
	app := NewApp()

	defaultShell := app.GetDefaultShell()
	if defaultShell == "" {
		t.Fatal("GetDefaultShell() returned empty string")
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}

	if cfg.SFTP.MaxPacketSize != DefaultSFTPMaxPacketSize {
		t.Fatalf("unexpected SFTP packet size default: %d", cfg.SFTP.MaxPacketSize)
	}
	if cfg.SFTP.ParallelTransfers != DefaultSFTPParallelTransfers {
		t.Fatalf("unexpected parallel transfer default: %d", cfg.SFTP.ParallelTransfers)
	}
	if !cfg.SFTP.UseConcurrentIO {
		t.Fatal("concurrent SFTP I/O should default to on")
	}
}
