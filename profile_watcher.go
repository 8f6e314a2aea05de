package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// Watcher constants
const (
	WatcherDebounceMs = 300 * time.Millisecond
)

// ProfileUpdate describes a profile file change for the frontend
type ProfileUpdate struct {
	Type      string `json:"type"` // "created", "modified", "deleted"
	FilePath  string `json:"filePath"`
	ProfileID string `json:"profileId"`
}

// StartProfileWatcher starts monitoring profile files for changes
func (a *App) StartProfileWatcher() error {
	profilesDir, err := a.GetProfilesDirectory()
	if err != nil {
		return fmt.Errorf("failed to get profiles directory: %w", err)
	}

	// Stop existing watcher if running
	if a.profiles.profileWatcher != nil {
		a.StopProfileWatcher()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	err = watcher.Add(profilesDir)
	if err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch profiles directory: %w", err)
	}

	pw := &ProfileWatcher{
		watchDir: profilesDir,
		stopChan: make(chan bool, 1),
		doneChan: make(chan struct{}),
	}
	a.profiles.profileWatcher = pw

	go func() {
		defer func() {
			if r := recover(); r != nil {
				fmt.Printf("Profile watcher panic recovered: %v\n", r)
			}
			watcher.Close()
			close(pw.doneChan) // Signal that the goroutine has exited
		}()

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				a.handleProfileFileEvent(event)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				fmt.Printf("Profile watcher error: %v\n", err)

			case <-pw.stopChan:
				return
			}
		}
	}()

	fmt.Printf("Profile file watcher started for directory: %s\n", profilesDir)
	return nil
}

// StopProfileWatcher stops the profile file watcher and waits for it to exit
func (a *App) StopProfileWatcher() {
	pw := a.profiles.profileWatcher
	if pw == nil {
		return
	}

	// Cancel any pending debounce timer
	pw.debounceMutex.Lock()
	if pw.debounceTimer != nil {
		pw.debounceTimer.Stop()
		pw.debounceTimer = nil
	}
	pw.debounceMutex.Unlock()

	// Send stop signal
	select {
	case pw.stopChan <- true:
	default:
	}

	// Wait for the goroutine to actually exit (with timeout)
	select {
	case <-pw.doneChan:
	case <-time.After(2 * time.Second):
		fmt.Println("Warning: Profile watcher goroutine did not exit in time")
	}

	a.profiles.profileWatcher = nil
	fmt.Println("Profile file watcher stopped")
}

// handleProfileFileEvent processes file system events for profile files
func (a *App) handleProfileFileEvent(event fsnotify.Event) {
	baseName := filepath.Base(event.Name)

	// Only process YAML files
	if !strings.HasSuffix(strings.ToLower(baseName), ".yaml") {
		return
	}

	var updateType string
	switch {
	case event.Op&fsnotify.Write == fsnotify.Write:
		updateType = ProfileUpdateModified
		a.handleProfileFileModified(event.Name)
	case event.Op&fsnotify.Create == fsnotify.Create:
		updateType = ProfileUpdateCreated
		a.handleProfileFileModified(event.Name)
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		updateType = ProfileUpdateDeleted
		a.handleProfileFileRemoved(baseName)
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		updateType = ProfileUpdateDeleted
		a.handleProfileFileRemoved(baseName)
	default:
		return // Ignore chmod and other events
	}

	if a.ctx != nil {
		wailsRuntime.EventsEmit(a.ctx, "profile:updated", ProfileUpdate{
			Type:      updateType,
			FilePath:  event.Name,
			ProfileID: profileIDFromFilename(baseName),
		})
	}

	// Debounced refresh signal — coalesces rapid events into one reload
	a.emitProfileChangedDebounced()
}

// emitProfileChangedDebounced debounces the profile:file:changed event to the frontend.
// Multiple rapid file events are coalesced into a single frontend refresh.
func (a *App) emitProfileChangedDebounced() {
	pw := a.profiles.profileWatcher
	if pw == nil || a.ctx == nil {
		return
	}

	pw.debounceMutex.Lock()
	defer pw.debounceMutex.Unlock()

	if pw.debounceTimer != nil {
		pw.debounceTimer.Stop()
	}

	pw.debounceTimer = time.AfterFunc(WatcherDebounceMs, func() {
		if a.ctx != nil {
			wailsRuntime.EventsEmit(a.ctx, "profile:file:changed", nil)
		}
	})
}

// handleProfileFileModified reloads a created or modified profile file
func (a *App) handleProfileFileModified(filePath string) {
	profile, err := a.LoadProfile(filePath)
	if err != nil {
		fmt.Printf("Warning: Failed to reload modified profile %s: %v\n", filePath, err)
		return
	}

	a.profiles.mutex.Lock()
	a.profiles.profiles[profile.ID] = profile
	a.profiles.mutex.Unlock()

	// External edits may have touched the file history too
	a.profiles.historyFor(profile.ID).Load(profile.FileHistory)

	fmt.Printf("Reloaded modified profile: %s\n", profile.Name)
}

// handleProfileFileRemoved removes a deleted profile from memory
func (a *App) handleProfileFileRemoved(baseName string) {
	id := profileIDFromFilename(baseName)
	if id == "" {
		return
	}

	a.profiles.mutex.Lock()
	if _, exists := a.profiles.profiles[id]; exists {
		delete(a.profiles.profiles, id)
		delete(a.profiles.fileHistory, id)
		fmt.Printf("Removed deleted profile from memory: %s\n", id)
	}
	a.profiles.mutex.Unlock()
}

// profileIDFromFilename extracts the profile ID from a Name-ID.yaml filename
func profileIDFromFilename(baseName string) string {
	name := strings.TrimSuffix(baseName, ".yaml")
	parts := strings.Split(name, "-")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-1]
}

// GetWatcherStatus returns the current status of the profile watcher
func (a *App) GetWatcherStatus() map[string]interface{} {
	status := map[string]interface{}{
		"running":      false,
		"watchDir":     "",
		"profileCount": 0,
	}

	if a.profiles.profileWatcher != nil {
		status["running"] = true
		status["watchDir"] = a.profiles.profileWatcher.watchDir
	}

	a.profiles.mutex.RLock()
	status["profileCount"] = len(a.profiles.profiles)
	a.profiles.mutex.RUnlock()

	return status
}

// RestartProfileWatcher safely restarts the profile watcher
func (a *App) RestartProfileWatcher() error {
	a.StopProfileWatcher()
	return a.StartProfileWatcher()
}
