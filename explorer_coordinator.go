package main

import (
	"fmt"
	"sort"
	"sync"
)

// Explorer session states reported to the frontend
const (
	ExplorerStatePlaceholder = "placeholder"
	ExplorerStateReady       = "ready"
)

// RemoteFS is the remote file API the coordinator navigates against.
// The App's SFTP layer implements it; tests inject a fake.
type RemoteFS interface {
	RemoteWorkingDirectory(sessionID string) (string, error)
	ListRemoteFiles(sessionID, path string) ([]RemoteFileEntry, error)
	ListRemoteFilesElevated(sessionID, path string) ([]RemoteFileEntry, error)
	CloseExplorerSession(sessionID string) error
}

// TabProvider reports which tab currently drives the terminal view.
type TabProvider interface {
	ActiveTab() *Tab
}

// ExplorerEvents receives the coordinator's output signals.
type ExplorerEvents interface {
	ListingReady(event ListingReadyEvent)
	NavigationError(event NavigationErrorEvent)
	SessionState(event SessionStateEvent)
}

// ListingReadyEvent carries a directory listing ready for display.
type ListingReadyEvent struct {
	SessionID   string            `json:"sessionId"`
	Path        string            `json:"path"`
	Breadcrumbs []Breadcrumb      `json:"breadcrumbs"`
	Entries     []RemoteFileEntry `json:"entries"`
	FromCache   bool              `json:"fromCache"`
}

// NavigationErrorEvent carries a failed navigation. CanRetryElevated is
// set when the failure was classified as permission-related and the
// caller may offer an elevated retry.
type NavigationErrorEvent struct {
	SessionID        string `json:"sessionId"`
	Path             string `json:"path"`
	Message          string `json:"message"`
	CanRetryElevated bool   `json:"canRetryElevated"`
}

// SessionStateEvent reports whether the explorer has a usable session
// ("ready") or the frontend should show the select-a-session
// placeholder.
type SessionStateEvent struct {
	State     string `json:"state"`
	SessionID string `json:"sessionId,omitempty"`
	TabID     string `json:"tabId,omitempty"`
}

// trackedSession is one remote session the coordinator is holding,
// either foreground (driving the visible panel) or background (parked
// while another tab is shown). Path is preserved verbatim while
// parked.
type trackedSession struct {
	SessionID   string
	TabID       string
	Path        string
	WorkDir     string
	Breadcrumbs []Breadcrumb
}

// ExplorerCoordinator owns the explorer's session state machine: at
// most one foreground and one background session, promoted and demoted
// as the panel shows/hides and the active tab changes. All remote
// listing traffic for the panel flows through here.
type ExplorerCoordinator struct {
	fs     RemoteFS
	tabs   TabProvider
	events ExplorerEvents
	cache  *DirectoryCache

	foreground *trackedSession
	background *trackedSession
	visible    bool
	mutex      sync.Mutex
}

// NewExplorerCoordinator creates a coordinator with no tracked
// sessions. Dependencies are injected so the state machine is testable
// without a frontend or a live SSH connection.
func NewExplorerCoordinator(fs RemoteFS, tabs TabProvider, events ExplorerEvents) *ExplorerCoordinator {
	return &ExplorerCoordinator{
		fs:     fs,
		tabs:   tabs,
		events: events,
		cache:  NewDirectoryCache(),
	}
}

// PanelShown handles the explorer panel becoming visible. The
// coordinator syncs to whatever tab is currently active.
func (ec *ExplorerCoordinator) PanelShown() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()

	ec.visible = true
	ec.syncToTab(ec.tabs.ActiveTab())
}

// PanelHidden handles the explorer panel being hidden. The foreground
// session is parked in the background slot with its path intact; the
// remote connection stays open so showing the panel again restores the
// exact same view.
func (ec *ExplorerCoordinator) PanelHidden() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()

	ec.visible = false
	if ec.foreground == nil {
		return
	}

	if ec.background != nil && ec.background.SessionID != ec.foreground.SessionID {
		ec.teardown(ec.background)
	}
	ec.background = ec.foreground
	ec.foreground = nil
}

// ActiveTabChanged handles the user switching tabs. While the panel is
// hidden the signal is ignored; PanelShown re-syncs against the active
// tab anyway.
func (ec *ExplorerCoordinator) ActiveTabChanged(tab *Tab) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()

	if !ec.visible {
		return
	}
	ec.syncToTab(tab)
}

// TabDisconnected tears down any tracked session owned by the given
// tab. If the foreground session is lost the caller-facing state drops
// to the placeholder.
func (ec *ExplorerCoordinator) TabDisconnected(tab *Tab) {
	if tab == nil {
		return
	}

	ec.mutex.Lock()
	defer ec.mutex.Unlock()

	if ec.background != nil && ec.background.TabID == tab.ID {
		ec.teardown(ec.background)
		ec.background = nil
	}
	if ec.foreground != nil && ec.foreground.TabID == tab.ID {
		ec.teardown(ec.foreground)
		ec.foreground = nil
		ec.events.SessionState(SessionStateEvent{State: ExplorerStatePlaceholder})
	}
}

// syncToTab drives the promote/demote transitions so that the session
// matching the active, remote-capable tab ends up foreground. Callers
// hold the mutex.
func (ec *ExplorerCoordinator) syncToTab(tab *Tab) {
	if !tab.isRemoteCapable() {
		// Local shell, failed connection, or no tab at all: nothing to
		// explore. Background sessions survive; their tabs are still
		// connected.
		if ec.foreground != nil {
			if ec.background != nil && ec.background.SessionID != ec.foreground.SessionID {
				ec.teardown(ec.background)
			}
			ec.background = ec.foreground
			ec.foreground = nil
		}
		ec.events.SessionState(SessionStateEvent{State: ExplorerStatePlaceholder})
		return
	}

	// Already foreground: nothing to do.
	if ec.foreground != nil && ec.foreground.SessionID == tab.SessionID {
		return
	}

	// The target is parked in the background slot: swap it in and
	// restore its last path.
	if ec.background != nil && ec.background.SessionID == tab.SessionID {
		promoted := ec.background
		ec.background = ec.foreground
		ec.foreground = promoted
		ec.restoreForeground()
		return
	}

	// New session entirely: park the current foreground, evict any
	// prior background (it is unrelated to the new target), and open.
	if ec.foreground != nil {
		if ec.background != nil {
			ec.teardown(ec.background)
		}
		ec.background = ec.foreground
		ec.foreground = nil
	}
	ec.openForeground(tab)
}

// openForeground starts tracking a fresh session for the given tab,
// resolves its working directory, and issues the initial listing.
func (ec *ExplorerCoordinator) openForeground(tab *Tab) {
	workDir, err := ec.fs.RemoteWorkingDirectory(tab.SessionID)
	if err != nil || workDir == "" {
		fmt.Printf("Failed to resolve working directory for session %s: %v\n", tab.SessionID, err)
		workDir = "/"
	}
	workDir = cleanRemotePath(workDir)

	ec.foreground = &trackedSession{
		SessionID: tab.SessionID,
		TabID:     tab.ID,
		WorkDir:   workDir,
	}
	ec.events.SessionState(SessionStateEvent{
		State:     ExplorerStateReady,
		SessionID: tab.SessionID,
		TabID:     tab.ID,
	})
	ec.list(ec.foreground, workDir, true, false)
}

// restoreForeground brings a parked session back on screen at its
// preserved path. Restoration trusts the cache when a listing is
// available; explicit navigation never does.
func (ec *ExplorerCoordinator) restoreForeground() {
	sess := ec.foreground
	ec.events.SessionState(SessionStateEvent{
		State:     ExplorerStateReady,
		SessionID: sess.SessionID,
		TabID:     sess.TabID,
	})

	if sess.Path == "" {
		// Session was parked before its first listing resolved.
		ec.list(sess, sess.WorkDir, true, false)
		return
	}
	ec.list(sess, sess.Path, false, true)
}

// Navigate handles an explicit user navigation to path. Navigating to
// the current path is a no-op; an empty path is rejected without any
// network call.
func (ec *ExplorerCoordinator) Navigate(path string) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()

	sess := ec.foreground
	if sess == nil {
		ec.events.NavigationError(NavigationErrorEvent{
			Path:    path,
			Message: "no active explorer session",
		})
		return
	}
	if path == "" {
		ec.events.NavigationError(NavigationErrorEvent{
			SessionID: sess.SessionID,
			Message:   "path cannot be empty",
		})
		return
	}
	if cleanRemotePath(path) == sess.Path {
		return
	}
	ec.list(sess, path, true, true)
}

// NavigateUp navigates to the parent of the current directory.
func (ec *ExplorerCoordinator) NavigateUp() {
	ec.mutex.Lock()
	current := ""
	if ec.foreground != nil {
		current = ec.foreground.Path
	}
	ec.mutex.Unlock()

	ec.Navigate(parentPath(current))
}

// NavigateElevated retries a permission-denied listing through the
// privileged API variant. A second failure is terminal: the error is
// surfaced without a further retry affordance.
func (ec *ExplorerCoordinator) NavigateElevated(path string) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()

	sess := ec.foreground
	if sess == nil || path == "" {
		return
	}

	entries, err := ec.fs.ListRemoteFilesElevated(sess.SessionID, path)
	if err != nil {
		fmt.Printf("Elevated listing of %s failed: %v\n", path, err)
		ec.events.NavigationError(NavigationErrorEvent{
			SessionID: sess.SessionID,
			Path:      path,
			Message:   err.Error(),
		})
		return
	}
	ec.applyListing(sess, path, entries, false)
}

// Refresh forces a fresh listing of the current directory.
func (ec *ExplorerCoordinator) Refresh() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()

	sess := ec.foreground
	if sess == nil || sess.Path == "" {
		return
	}
	ec.list(sess, sess.Path, true, false)
}

// NotifyMutation records that dir's contents changed (create, rename,
// delete, upload). The cached listing is dropped and, if dir is on
// screen, a fresh listing is issued immediately.
func (ec *ExplorerCoordinator) NotifyMutation(sessionID, dir string) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()

	ec.cache.Invalidate(sessionID, dir)

	sess := ec.foreground
	if sess != nil && sess.SessionID == sessionID && sess.Path == dir {
		ec.list(sess, dir, true, false)
	}
}

// CurrentPath returns the foreground session's current path, or "".
func (ec *ExplorerCoordinator) CurrentPath() string {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()

	if ec.foreground == nil {
		return ""
	}
	return ec.foreground.Path
}

// CurrentSessionID returns the foreground session's ID, or "".
func (ec *ExplorerCoordinator) CurrentSessionID() string {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()

	if ec.foreground == nil {
		return ""
	}
	return ec.foreground.SessionID
}

// list resolves a listing for sess at path and publishes the result.
// force drops any cached entry first; restoration passes force=false
// and serves the cache when it can. allowFallback permits one retry
// against the session's working directory on a non-permission failure.
func (ec *ExplorerCoordinator) list(sess *trackedSession, path string, force, allowFallback bool) {
	path = cleanRemotePath(path)

	if force {
		ec.cache.Invalidate(sess.SessionID, path)
	} else if cached, ok := ec.cache.Get(sess.SessionID, path); ok {
		ec.applyListing(sess, path, cached, true)
		return
	}

	entries, err := ec.fs.ListRemoteFiles(sess.SessionID, path)
	if err != nil {
		if isPermissionError(err.Error()) {
			ec.events.NavigationError(NavigationErrorEvent{
				SessionID:        sess.SessionID,
				Path:             path,
				Message:          err.Error(),
				CanRetryElevated: true,
			})
			return
		}

		if allowFallback && path != sess.WorkDir {
			fmt.Printf("Listing %s failed (%v), falling back to %s\n", path, err, sess.WorkDir)
			ec.list(sess, sess.WorkDir, true, false)
			return
		}

		ec.events.NavigationError(NavigationErrorEvent{
			SessionID: sess.SessionID,
			Path:      path,
			Message:   err.Error(),
		})
		return
	}

	ec.cache.Put(sess.SessionID, path, entries)
	ec.applyListing(sess, path, entries, false)
}

// applyListing commits path as the session's current location and
// publishes the display-ready entry list.
func (ec *ExplorerCoordinator) applyListing(sess *trackedSession, path string, entries []RemoteFileEntry, fromCache bool) {
	sess.Path = path
	sess.Breadcrumbs = breadcrumbsFor(path)

	ec.events.ListingReady(ListingReadyEvent{
		SessionID:   sess.SessionID,
		Path:        path,
		Breadcrumbs: sess.Breadcrumbs,
		Entries:     presentEntries(path, entries),
		FromCache:   fromCache,
	})
}

// teardown closes a tracked session's explorer resources and drops its
// cached listings.
func (ec *ExplorerCoordinator) teardown(sess *trackedSession) {
	if err := ec.fs.CloseExplorerSession(sess.SessionID); err != nil {
		fmt.Printf("Failed to close explorer session %s: %v\n", sess.SessionID, err)
	}
	ec.cache.ClearSession(sess.SessionID)
}

// presentEntries produces the display order for a raw listing: the
// synthesized ".." parent first (except at the root), then directories,
// then files, lexicographic by name within each group. The raw cache
// contents are never mutated.
func presentEntries(path string, entries []RemoteFileEntry) []RemoteFileEntry {
	sorted := make([]RemoteFileEntry, len(entries))
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].IsDir != sorted[j].IsDir {
			return sorted[i].IsDir
		}
		return sorted[i].Name < sorted[j].Name
	})

	if path == "/" {
		return sorted
	}

	parent := RemoteFileEntry{
		Name:  "..",
		Path:  parentPath(path),
		IsDir: true,
	}
	return append([]RemoteFileEntry{parent}, sorted...)
}
