package main

import (
	"os"
	"os/exec"
	"runtime"

	"github.com/aymanbagabas/go-pty"
)

// fileExists checks if a file exists using os.Stat
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// GetDefaultShell returns the default shell for the current platform
func (a *App) GetDefaultShell() string {
	switch runtime.GOOS {
	case "windows":
		// Check if PowerShell is available, otherwise use cmd
		if _, err := exec.LookPath("powershell.exe"); err == nil {
			return "powershell.exe"
		}
		return "cmd.exe"
	case "darwin":
		// Use zsh as default on macOS (default since macOS Catalina)
		if _, err := exec.LookPath("zsh"); err == nil {
			return "zsh"
		}
		return "bash"
	case "linux":
		// Check for common shells in order of preference
		shells := []string{"bash", "zsh", "sh"}
		for _, shell := range shells {
			if _, err := exec.LookPath(shell); err == nil {
				return shell
			}
		}
		return "sh" // Ultimate fallback
	default:
		return "sh"
	}
}

// GetAvailableShells returns a list of available shells on the system
func (a *App) GetAvailableShells() []string {
	var shells []string

	if runtime.GOOS == "windows" {
		for _, shell := range []string{"powershell.exe", "pwsh.exe", "cmd.exe"} {
			if _, err := exec.LookPath(shell); err == nil {
				shells = append(shells, shell)
			}
		}
		return shells
	}

	// For non-Windows, check common paths first
	commonPaths := map[string][]string{
		"bash": {"/bin/bash", "/usr/bin/bash", "/usr/local/bin/bash"},
		"zsh":  {"/bin/zsh", "/usr/bin/zsh", "/usr/local/bin/zsh"},
		"fish": {"/bin/fish", "/usr/bin/fish", "/usr/local/bin/fish"},
		"sh":   {"/bin/sh", "/usr/bin/sh"},
	}

	for shellName, paths := range commonPaths {
		for _, path := range paths {
			if fileExists(path) {
				shells = append(shells, shellName)
				break
			}
		}
	}

	return shells
}

// findShellExecutable finds a shell executable using standard PATH lookup
func findShellExecutable(shell string) (string, error) {
	return exec.LookPath(shell)
}

// configurePtyProcess applies platform process attributes to a shell
// command. Nothing to do on the platforms we ship for.
func configurePtyProcess(cmd *pty.Cmd) {
}
