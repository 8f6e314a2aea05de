package main

import (
	"errors"
	"fmt"
	"sync"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// Explorer event names consumed by the frontend
const (
	EventExplorerListing  = "explorer-listing"
	EventExplorerError    = "explorer-error"
	EventExplorerState    = "explorer-state"
	EventExplorerTransfer = "explorer-transfer"
)

// wailsExplorerEvents bridges coordinator output onto the Wails event
// bus. Each topic carries one typed payload struct.
type wailsExplorerEvents struct {
	app *App
}

func (w *wailsExplorerEvents) ListingReady(event ListingReadyEvent) {
	if w.app.ctx != nil {
		wailsRuntime.EventsEmit(w.app.ctx, EventExplorerListing, event)
	}
}

func (w *wailsExplorerEvents) NavigationError(event NavigationErrorEvent) {
	if w.app.ctx != nil {
		wailsRuntime.EventsEmit(w.app.ctx, EventExplorerError, event)
	}
}

func (w *wailsExplorerEvents) SessionState(event SessionStateEvent) {
	if w.app.ctx != nil {
		wailsRuntime.EventsEmit(w.app.ctx, EventExplorerState, event)
	}
}

// wailsElevationPrompt asks for elevation consent through a native
// message dialog.
type wailsElevationPrompt struct {
	app *App
}

func (w *wailsElevationPrompt) ConfirmElevation(operation, item string) bool {
	if w.app.ctx == nil {
		return false
	}

	result, err := wailsRuntime.MessageDialog(w.app.ctx, wailsRuntime.MessageDialogOptions{
		Type:          wailsRuntime.QuestionDialog,
		Title:         "Elevated privileges required",
		Message:       fmt.Sprintf("%s of %q was denied. Retry with elevated privileges (sudo)?", operation, item),
		Buttons:       []string{"Retry elevated", "Cancel"},
		DefaultButton: "Retry elevated",
		CancelButton:  "Cancel",
	})
	if err != nil {
		fmt.Printf("Elevation dialog failed: %v\n", err)
		return false
	}
	return result == "Retry elevated"
}

// elevatedReads remembers which open files needed elevation so the
// matching save goes through the privileged path without re-prompting.
// Owned by the App; NewApp creates it.
type elevatedReads struct {
	paths map[string]bool
	mutex sync.Mutex
}

func newElevatedReads() *elevatedReads {
	return &elevatedReads{paths: make(map[string]bool)}
}

func (er *elevatedReads) set(sessionID, path string, elevated bool) {
	er.mutex.Lock()
	defer er.mutex.Unlock()
	key := sessionID + "\x00" + path
	if elevated {
		er.paths[key] = true
	} else {
		delete(er.paths, key)
	}
}

func (er *elevatedReads) get(sessionID, path string) bool {
	er.mutex.Lock()
	defer er.mutex.Unlock()
	return er.paths[sessionID+"\x00"+path]
}

// Explorer bindings (called from the frontend)

// ExplorerPanelShown reports the explorer panel becoming visible.
func (a *App) ExplorerPanelShown() {
	a.explorer.PanelShown()
}

// ExplorerPanelHidden reports the explorer panel being hidden.
func (a *App) ExplorerPanelHidden() {
	a.explorer.PanelHidden()
}

// NavigateExplorer navigates the visible panel to path.
func (a *App) NavigateExplorer(path string) {
	a.explorer.Navigate(path)
}

// NavigateExplorerUp navigates to the parent directory.
func (a *App) NavigateExplorerUp() {
	a.explorer.NavigateUp()
}

// NavigateExplorerElevated retries a denied listing through sudo.
func (a *App) NavigateExplorerElevated(path string) {
	a.explorer.NavigateElevated(path)
}

// RefreshExplorer forces a fresh listing of the current directory.
func (a *App) RefreshExplorer() {
	a.explorer.Refresh()
}

// OpenRemoteFile reads a file for preview/editing, transparently
// retrying through sudo when plain SFTP is denied and the user
// consents. The access lands in the owning profile's file history.
func (a *App) OpenRemoteFile(sessionID, remotePath, fileName string) (map[string]interface{}, error) {
	content, err := a.GetRemoteFileContent(sessionID, remotePath)
	elevated := false

	if err != nil {
		elevationErr := a.elevation.AttemptElevated("Open", fileName, err, func() error {
			var retryErr error
			content, retryErr = a.GetRemoteFileContentElevated(sessionID, remotePath)
			return retryErr
		})
		if elevationErr != nil {
			if errors.Is(elevationErr, ErrElevationDeclined) {
				return nil, elevationErr
			}
			return nil, fmt.Errorf("failed to open %s: %w", remotePath, elevationErr)
		}
		elevated = true
	}

	// Remember elevation for the matching save
	a.openElevated.set(sessionID, remotePath, elevated)

	a.recordFileAccess(sessionID, remotePath, fileName)

	return map[string]interface{}{
		"path":     remotePath,
		"content":  content,
		"elevated": elevated,
	}, nil
}

// SaveRemoteFile writes edited content back. Files that were opened
// elevated are saved through the privileged path without another
// prompt; otherwise a denied save offers elevation once.
func (a *App) SaveRemoteFile(sessionID, remotePath, content string) error {
	if a.openElevated.get(sessionID, remotePath) {
		return a.UpdateRemoteFileContentElevated(sessionID, remotePath, content)
	}

	err := a.UpdateRemoteFileContent(sessionID, remotePath, content)
	if err == nil {
		return nil
	}

	elevationErr := a.elevation.AttemptElevated("Save", remotePath, err, func() error {
		return a.UpdateRemoteFileContentElevated(sessionID, remotePath, content)
	})
	if elevationErr == nil {
		a.openElevated.set(sessionID, remotePath, true)
	}
	return elevationErr
}

// CreateExplorerDirectory creates a directory in the current listing,
// with the confirm-then-elevate retry on permission failure.
func (a *App) CreateExplorerDirectory(sessionID, remotePath string) error {
	err := a.CreateRemoteDirectory(sessionID, remotePath)
	if err != nil {
		err = a.elevation.AttemptElevated("Create directory", remotePath, err, func() error {
			return a.CreateRemoteDirectoryElevated(sessionID, remotePath)
		})
	}
	if err != nil {
		return err
	}

	a.explorer.NotifyMutation(sessionID, parentPath(remotePath))
	return nil
}

// RenameExplorerEntry renames a file or directory.
func (a *App) RenameExplorerEntry(sessionID, oldPath, newPath string) error {
	err := a.RenameRemotePath(sessionID, oldPath, newPath)
	if err != nil {
		err = a.elevation.AttemptElevated("Rename", oldPath, err, func() error {
			return a.RenameRemotePathElevated(sessionID, oldPath, newPath)
		})
	}
	if err != nil {
		return err
	}

	a.explorer.NotifyMutation(sessionID, parentPath(oldPath))
	if parentPath(newPath) != parentPath(oldPath) {
		a.explorer.NotifyMutation(sessionID, parentPath(newPath))
	}
	return nil
}

// DeleteExplorerEntry deletes a file or directory (recursively).
func (a *App) DeleteExplorerEntry(sessionID, remotePath string) error {
	err := a.DeleteRemotePath(sessionID, remotePath)
	if err != nil {
		err = a.elevation.AttemptElevated("Delete", remotePath, err, func() error {
			return a.DeleteRemotePathElevated(sessionID, remotePath)
		})
	}
	if err != nil {
		return err
	}

	a.explorer.NotifyMutation(sessionID, parentPath(remotePath))
	return nil
}

// UploadToExplorer uploads local files into a remote directory.
func (a *App) UploadToExplorer(sessionID string, localPaths []string, remoteDir string) error {
	err := a.UploadRemoteFiles(sessionID, localPaths, remoteDir)
	if err != nil {
		err = a.elevation.AttemptElevated("Upload", remoteDir, err, func() error {
			return a.UploadRemoteFilesElevated(sessionID, localPaths, remoteDir)
		})
	}
	if err != nil {
		return err
	}

	a.explorer.NotifyMutation(sessionID, remoteDir)
	return nil
}

// DownloadExplorerEntry downloads a remote file or directory to a
// local destination.
func (a *App) DownloadExplorerEntry(sessionID, remotePath, localPath string) error {
	return a.DownloadRemoteDirectory(sessionID, remotePath, localPath)
}

// CancelExplorerTransfer cancels the in-flight transfer batch.
func (a *App) CancelExplorerTransfer() {
	a.transfers.Cancel()
}

// emitAggregateProgress forwards the reduced transfer signal to the
// frontend. Wired as the aggregator's progress callback.
func (a *App) emitAggregateProgress(aggregate AggregateProgress) {
	if a.ctx != nil {
		wailsRuntime.EventsEmit(a.ctx, EventExplorerTransfer, aggregate)
	}
}

// handleBatchFinished runs when a transfer batch ends. Successful
// uploads change the remote listing, so the current directory is
// refreshed; downloads do not.
func (a *App) handleBatchFinished(direction string, err error) {
	if err != nil {
		fmt.Printf("Transfer batch (%s) failed: %v\n", direction, err)
		return
	}
	if direction == "upload" {
		a.explorer.Refresh()
	}
}

// recordFileAccess notes a file open in the owning profile's history
// and schedules the profile save.
func (a *App) recordFileAccess(sessionID, remotePath, fileName string) {
	profileID := a.profileForSession(sessionID)
	if profileID == "" {
		return
	}

	store := a.profiles.historyFor(profileID)
	store.Record(remotePath, fileName)

	if err := a.persistFileHistory(profileID); err != nil {
		fmt.Printf("Failed to persist file history for profile %s: %v\n", profileID, err)
	}
}

// GetFileHistory returns the profile's file history ordered by access
// count, most recent first on ties.
func (a *App) GetFileHistory(profileID string) []*FileHistoryEntry {
	return a.profiles.historyFor(profileID).List()
}

// profileForSession resolves which profile owns the tab bound to a
// session, or "" for ad hoc connections.
func (a *App) profileForSession(sessionID string) string {
	a.terminal.mutex.RLock()
	defer a.terminal.mutex.RUnlock()

	for _, tab := range a.terminal.tabs {
		if tab.SessionID == sessionID {
			return tab.ProfileID
		}
	}
	return ""
}
