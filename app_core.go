package main

import (
	"context"
	"fmt"
	"time"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	if err := a.loadConfig(); err != nil {
		fmt.Println("Error loading config:", err)
	}

	// Set initial window size and state using loaded/default config
	if a.config != nil && a.config.config != nil {
		cfg := a.config.config
		wailsRuntime.WindowSetSize(a.ctx, cfg.WindowWidth, cfg.WindowHeight)
		fmt.Printf("Initial window size set to: %d x %d\n", cfg.WindowWidth, cfg.WindowHeight)

		if cfg.WindowMaximized {
			wailsRuntime.WindowMaximise(a.ctx)
			fmt.Println("Window restored to maximized state")
		}
	}

	// Initialize profile management system
	if err := a.InitializeProfiles(); err != nil {
		fmt.Printf("Warning: Failed to initialize profiles: %v\n", err)
		// Continue without profiles - they're not critical for basic functionality
	}

	// Listen for frontend resize events
	wailsRuntime.EventsOn(a.ctx, "frontend:window:resized", a.handleFrontendResizeEvent)
	fmt.Println("Registered listener for window resize events.")
}

// shutdown is called during application shutdown
func (a *App) shutdown(ctx context.Context) {
	fmt.Println("Shutdown initiated...")

	// Stop the config debounce timer if it's running
	a.config.mutex.Lock()
	if a.config.debounceTimer != nil {
		a.config.debounceTimer.Stop()
	}
	a.config.mutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("Recovered from panic during shutdown: %v\n", r)
		}
	}()

	// Capture final window state so the next launch restores it
	if a.updateWindowState() {
		a.config.mutex.Lock()
		a.config.configDirty = true
		a.config.mutex.Unlock()
	}

	// Force save any pending config changes
	a.saveConfigIfDirty()

	// Stop profile watcher
	a.StopProfileWatcher()

	// Close all terminal and SSH sessions
	a.terminal.mutex.RLock()
	sessionIds := make([]string, 0, len(a.terminal.sessions))
	for sessionId := range a.terminal.sessions {
		sessionIds = append(sessionIds, sessionId)
	}
	a.terminal.mutex.RUnlock()

	a.ssh.sshSessionsMutex.RLock()
	for sessionId := range a.ssh.sshSessions {
		sessionIds = append(sessionIds, sessionId)
	}
	a.ssh.sshSessionsMutex.RUnlock()

	for _, sessionId := range sessionIds {
		fmt.Printf("Closing terminal session: %s\n", sessionId)
		if err := a.CloseShell(sessionId); err != nil {
			fmt.Printf("Error closing session %s: %v\n", sessionId, err)
		}
	}

	// Wait for sessions to close (with timeout)
	timeout := time.After(3 * time.Second)
	for _, sessionId := range sessionIds {
		select {
		case <-timeout:
			fmt.Printf("Timeout waiting for session %s to close\n", sessionId)
		default:
			if err := a.WaitForSessionClose(sessionId); err != nil {
				fmt.Printf("Session %s didn't close cleanly: %v\n", sessionId, err)
			}
		}
	}

	// Release everything the managers registered
	if err := a.Close(); err != nil {
		fmt.Printf("Error during resource cleanup: %v\n", err)
	}

	fmt.Println("Shutdown completed.")
}

// ShowMessageDialog shows a message dialog to the user
func (a *App) ShowMessageDialog(title, message string) {
	wailsRuntime.MessageDialog(a.ctx, wailsRuntime.MessageDialogOptions{
		Type:    wailsRuntime.InfoDialog,
		Title:   title,
		Message: message,
	})
}
