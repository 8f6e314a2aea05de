package main

import (
	"errors"
	"fmt"
	"testing"
)

// fakeRemoteFS is an in-memory RemoteFS with per-path listings and
// injectable failures. It counts list calls so tests can tell cache
// hits from real fetches.
type fakeRemoteFS struct {
	workDirs      map[string]string
	workDirErr    error
	listings      map[string][]RemoteFileEntry // key: sessionID + "|" + path
	listErrors    map[string]error
	listCalls     map[string]int
	elevatedCalls int
	closed        []string
}

func newFakeRemoteFS() *fakeRemoteFS {
	return &fakeRemoteFS{
		workDirs:   make(map[string]string),
		listings:   make(map[string][]RemoteFileEntry),
		listErrors: make(map[string]error),
		listCalls:  make(map[string]int),
	}
}

func fsKey(sessionID, path string) string {
	return sessionID + "|" + path
}

func (f *fakeRemoteFS) RemoteWorkingDirectory(sessionID string) (string, error) {
	if f.workDirErr != nil {
		return "", f.workDirErr
	}
	return f.workDirs[sessionID], nil
}

func (f *fakeRemoteFS) ListRemoteFiles(sessionID, path string) ([]RemoteFileEntry, error) {
	key := fsKey(sessionID, path)
	f.listCalls[key]++
	if err := f.listErrors[key]; err != nil {
		return nil, err
	}
	entries, ok := f.listings[key]
	if !ok {
		return nil, fmt.Errorf("no such file or directory: %s", path)
	}
	return entries, nil
}

func (f *fakeRemoteFS) ListRemoteFilesElevated(sessionID, path string) ([]RemoteFileEntry, error) {
	f.elevatedCalls++
	entries, ok := f.listings[fsKey(sessionID, path)]
	if !ok {
		return nil, fmt.Errorf("no such file or directory: %s", path)
	}
	return entries, nil
}

func (f *fakeRemoteFS) CloseExplorerSession(sessionID string) error {
	f.closed = append(f.closed, sessionID)
	return nil
}

type fakeTabProvider struct {
	tab *Tab
}

func (f *fakeTabProvider) ActiveTab() *Tab { return f.tab }

// recordingEvents captures every coordinator output for assertions.
type recordingEvents struct {
	listings []ListingReadyEvent
	errors   []NavigationErrorEvent
	states   []SessionStateEvent
}

func (r *recordingEvents) ListingReady(e ListingReadyEvent)       { r.listings = append(r.listings, e) }
func (r *recordingEvents) NavigationError(e NavigationErrorEvent) { r.errors = append(r.errors, e) }
func (r *recordingEvents) SessionState(e SessionStateEvent)       { r.states = append(r.states, e) }

func (r *recordingEvents) lastListing(t *testing.T) ListingReadyEvent {
	t.Helper()
	if len(r.listings) == 0 {
		t.Fatal("no listings published")
	}
	return r.listings[len(r.listings)-1]
}

func (r *recordingEvents) lastState(t *testing.T) SessionStateEvent {
	t.Helper()
	if len(r.states) == 0 {
		t.Fatal("no session states published")
	}
	return r.states[len(r.states)-1]
}

func sshTab(id, sessionID string) *Tab {
	return &Tab{
		ID:             id,
		SessionID:      sessionID,
		ConnectionType: "ssh",
		Status:         "connected",
	}
}

func newTestCoordinator() (*ExplorerCoordinator, *fakeRemoteFS, *fakeTabProvider, *recordingEvents) {
	fs := newFakeRemoteFS()
	tabs := &fakeTabProvider{}
	events := &recordingEvents{}
	return NewExplorerCoordinator(fs, tabs, events), fs, tabs, events
}

func TestPanelShownWithConnectedSSHTab(t *testing.T) {
	coord, fs, tabs, events := newTestCoordinator()

	fs.workDirs["sess1"] = "/home/alice"
	fs.listings[fsKey("sess1", "/home/alice")] = []RemoteFileEntry{
		{Name: "notes.txt", Path: "/home/alice/notes.txt"},
	}
	tabs.tab = sshTab("tab1", "sess1")

	coord.PanelShown()

	if state := events.lastState(t); state.State != ExplorerStateReady || state.SessionID != "sess1" {
		t.Fatalf("expected ready state for sess1, got %+v", state)
	}
	listing := events.lastListing(t)
	if listing.Path != "/home/alice" || listing.FromCache {
		t.Fatalf("expected fresh workdir listing, got %+v", listing)
	}
	if coord.CurrentPath() != "/home/alice" {
		t.Fatalf("current path = %q", coord.CurrentPath())
	}
}

func TestPanelShownWithLocalTabShowsPlaceholder(t *testing.T) {
	coord, _, tabs, events := newTestCoordinator()

	tabs.tab = &Tab{ID: "tab1", ConnectionType: "local", Status: "connected"}
	coord.PanelShown()

	if state := events.lastState(t); state.State != ExplorerStatePlaceholder {
		t.Fatalf("local tab should yield placeholder, got %+v", state)
	}

	tabs.tab = nil
	coord.PanelShown()
	if state := events.lastState(t); state.State != ExplorerStatePlaceholder {
		t.Fatalf("nil tab should yield placeholder, got %+v", state)
	}
	if len(events.listings) != 0 {
		t.Fatal("no listing should be issued without a remote session")
	}
}

func TestPanelHideShowRestoresExactPathFromCache(t *testing.T) {
	coord, fs, tabs, events := newTestCoordinator()

	fs.workDirs["sess1"] = "/home/alice"
	fs.listings[fsKey("sess1", "/home/alice")] = nil
	fs.listings[fsKey("sess1", "/home/alice/projects")] = []RemoteFileEntry{{Name: "skiff"}}
	tabs.tab = sshTab("tab1", "sess1")

	coord.PanelShown()
	coord.Navigate("/home/alice/projects")
	fetches := fs.listCalls[fsKey("sess1", "/home/alice/projects")]

	coord.PanelHidden()
	if len(fs.closed) != 0 {
		t.Fatal("hiding the panel must not close the remote session")
	}

	coord.PanelShown()

	listing := events.lastListing(t)
	if listing.Path != "/home/alice/projects" {
		t.Fatalf("restored path = %q, want the parked path back unchanged", listing.Path)
	}
	if !listing.FromCache {
		t.Fatal("restoration should trust the cached listing")
	}
	if fs.listCalls[fsKey("sess1", "/home/alice/projects")] != fetches {
		t.Fatal("restoration triggered a network fetch despite a warm cache")
	}
}

func TestNavigateAlwaysRefetches(t *testing.T) {
	coord, fs, tabs, _ := newTestCoordinator()

	fs.workDirs["sess1"] = "/home"
	fs.listings[fsKey("sess1", "/home")] = nil
	fs.listings[fsKey("sess1", "/etc")] = nil
	tabs.tab = sshTab("tab1", "sess1")

	coord.PanelShown()
	coord.Navigate("/etc")
	coord.Navigate("/home")
	coord.Navigate("/etc")

	if got := fs.listCalls[fsKey("sess1", "/etc")]; got != 2 {
		t.Fatalf("explicit navigation must bypass the cache, got %d fetches", got)
	}
}

func TestNavigateEmptyPathRejected(t *testing.T) {
	coord, fs, tabs, events := newTestCoordinator()

	fs.workDirs["sess1"] = "/home"
	fs.listings[fsKey("sess1", "/home")] = nil
	tabs.tab = sshTab("tab1", "sess1")
	coord.PanelShown()

	calls := len(fs.listCalls)
	coord.Navigate("")

	if len(events.errors) != 1 || events.errors[0].Message != "path cannot be empty" {
		t.Fatalf("expected empty-path error, got %v", events.errors)
	}
	if len(fs.listCalls) != calls {
		t.Fatal("empty path must not reach the remote")
	}
}

func TestNavigateToCurrentPathIsNoOp(t *testing.T) {
	coord, fs, tabs, events := newTestCoordinator()

	fs.workDirs["sess1"] = "/home"
	fs.listings[fsKey("sess1", "/home")] = nil
	tabs.tab = sshTab("tab1", "sess1")
	coord.PanelShown()

	published := len(events.listings)
	coord.Navigate("/home")

	if len(events.listings) != published {
		t.Fatal("navigating to the current path should do nothing")
	}

	// Spelling variants of the current path are the same no-op.
	coord.Navigate("/home/")
	coord.Navigate("//home")

	if len(events.listings) != published {
		t.Fatal("unnormalized spellings of the current path should not refetch")
	}
}

func TestNavigateWithoutSessionReportsError(t *testing.T) {
	coord, _, _, events := newTestCoordinator()

	coord.Navigate("/etc")
	if len(events.errors) != 1 || events.errors[0].Message != "no active explorer session" {
		t.Fatalf("expected no-session error, got %v", events.errors)
	}
}

func TestPermissionFailureOffersElevatedRetry(t *testing.T) {
	coord, fs, tabs, events := newTestCoordinator()

	fs.workDirs["sess1"] = "/home"
	fs.listings[fsKey("sess1", "/home")] = nil
	fs.listErrors[fsKey("sess1", "/root")] = errors.New("permission denied")
	tabs.tab = sshTab("tab1", "sess1")
	coord.PanelShown()

	coord.Navigate("/root")

	if len(events.errors) != 1 {
		t.Fatalf("expected one navigation error, got %d", len(events.errors))
	}
	navErr := events.errors[0]
	if !navErr.CanRetryElevated {
		t.Fatal("permission failure should offer an elevated retry")
	}
	if coord.CurrentPath() != "/home" {
		t.Fatal("failed navigation must not move the current path")
	}

	// The elevated retry resolves the same path via the privileged API.
	fs.listings[fsKey("sess1", "/root")] = []RemoteFileEntry{{Name: ".bashrc"}}
	coord.NavigateElevated("/root")

	if fs.elevatedCalls != 1 {
		t.Fatalf("expected 1 elevated call, got %d", fs.elevatedCalls)
	}
	if events.lastListing(t).Path != "/root" || coord.CurrentPath() != "/root" {
		t.Fatal("elevated retry should land on the requested path")
	}
}

func TestNonPermissionFailureFallsBackToWorkdirOnce(t *testing.T) {
	coord, fs, tabs, events := newTestCoordinator()

	fs.workDirs["sess1"] = "/home"
	fs.listings[fsKey("sess1", "/home")] = nil
	fs.listErrors[fsKey("sess1", "/gone")] = errors.New("no such file or directory")
	tabs.tab = sshTab("tab1", "sess1")
	coord.PanelShown()

	coord.Navigate("/gone")

	if listing := events.lastListing(t); listing.Path != "/home" {
		t.Fatalf("expected fallback to the working directory, got %q", listing.Path)
	}
	if coord.CurrentPath() != "/home" {
		t.Fatalf("current path after fallback = %q", coord.CurrentPath())
	}

	// When the working directory itself fails there is nothing left to
	// fall back to: the error is surfaced instead of looping.
	fs.listErrors[fsKey("sess1", "/home")] = errors.New("connection lost")
	coord.Navigate("/gone")
	if len(events.errors) == 0 {
		t.Fatal("expected a surfaced error when the fallback also fails")
	}
}

func TestNotifyMutationRefreshesVisibleDirectory(t *testing.T) {
	coord, fs, tabs, events := newTestCoordinator()

	fs.workDirs["sess1"] = "/home"
	fs.listings[fsKey("sess1", "/home")] = []RemoteFileEntry{{Name: "a"}}
	tabs.tab = sshTab("tab1", "sess1")
	coord.PanelShown()

	fs.listings[fsKey("sess1", "/home")] = []RemoteFileEntry{{Name: "a"}, {Name: "b"}}
	coord.NotifyMutation("sess1", "/home")

	listing := events.lastListing(t)
	if listing.FromCache {
		t.Fatal("mutation refresh must not serve the stale cache")
	}
	// Two real entries plus the synthesized "..".
	if len(listing.Entries) != 3 {
		t.Fatalf("expected refreshed listing with parent entry, got %+v", listing.Entries)
	}

	// A mutation in a directory that is not on screen only drops the
	// cache; no listing is issued.
	published := len(events.listings)
	coord.NotifyMutation("sess1", "/elsewhere")
	if len(events.listings) != published {
		t.Fatal("off-screen mutation should not publish a listing")
	}
}

func TestTabDisconnectedDropsToPlaceholder(t *testing.T) {
	coord, fs, tabs, events := newTestCoordinator()

	fs.workDirs["sess1"] = "/home"
	fs.listings[fsKey("sess1", "/home")] = nil
	tab := sshTab("tab1", "sess1")
	tabs.tab = tab
	coord.PanelShown()

	coord.TabDisconnected(tab)

	if state := events.lastState(t); state.State != ExplorerStatePlaceholder {
		t.Fatalf("expected placeholder after disconnect, got %+v", state)
	}
	if len(fs.closed) != 1 || fs.closed[0] != "sess1" {
		t.Fatalf("expected explorer session teardown, got %v", fs.closed)
	}
	if coord.CurrentSessionID() != "" {
		t.Fatal("no session should remain tracked after disconnect")
	}
}

func TestTabSwitchParksAndRestoresSessions(t *testing.T) {
	coord, fs, tabs, events := newTestCoordinator()

	fs.workDirs["sess1"] = "/home/alice"
	fs.workDirs["sess2"] = "/home/bob"
	fs.listings[fsKey("sess1", "/home/alice")] = nil
	fs.listings[fsKey("sess1", "/var/log")] = nil
	fs.listings[fsKey("sess2", "/home/bob")] = nil
	tab1 := sshTab("tab1", "sess1")
	tab2 := sshTab("tab2", "sess2")

	tabs.tab = tab1
	coord.PanelShown()
	coord.Navigate("/var/log")

	coord.ActiveTabChanged(tab2)
	if coord.CurrentSessionID() != "sess2" {
		t.Fatalf("foreground session = %q, want sess2", coord.CurrentSessionID())
	}
	if len(fs.closed) != 0 {
		t.Fatal("parking a session must not close it")
	}

	coord.ActiveTabChanged(tab1)
	if coord.CurrentSessionID() != "sess1" {
		t.Fatalf("foreground session = %q, want sess1 back", coord.CurrentSessionID())
	}
	listing := events.lastListing(t)
	if listing.Path != "/var/log" || !listing.FromCache {
		t.Fatalf("switch-back should restore the parked path from cache, got %+v", listing)
	}
}

func TestTabChangeIgnoredWhileHidden(t *testing.T) {
	coord, fs, tabs, _ := newTestCoordinator()

	fs.workDirs["sess1"] = "/home"
	fs.listings[fsKey("sess1", "/home")] = nil
	tabs.tab = sshTab("tab1", "sess1")
	coord.PanelShown()
	coord.PanelHidden()

	coord.ActiveTabChanged(sshTab("tab2", "sess2"))
	if coord.CurrentSessionID() != "" {
		t.Fatal("tab changes must be ignored while the panel is hidden")
	}
}

func TestNavigateUpUsesParentPath(t *testing.T) {
	coord, fs, tabs, events := newTestCoordinator()

	fs.workDirs["sess1"] = "/home/alice/docs"
	fs.listings[fsKey("sess1", "/home/alice/docs")] = nil
	fs.listings[fsKey("sess1", "/home/alice")] = nil
	tabs.tab = sshTab("tab1", "sess1")
	coord.PanelShown()

	coord.NavigateUp()

	if listing := events.lastListing(t); listing.Path != "/home/alice" {
		t.Fatalf("NavigateUp landed on %q, want /home/alice", listing.Path)
	}
}

func TestListingEntriesSortedWithParentFirst(t *testing.T) {
	coord, fs, tabs, events := newTestCoordinator()

	fs.workDirs["sess1"] = "/data"
	fs.listings[fsKey("sess1", "/data")] = []RemoteFileEntry{
		{Name: "zebra.txt"},
		{Name: "logs", IsDir: true},
		{Name: "alpha.txt"},
		{Name: "bin", IsDir: true},
	}
	tabs.tab = sshTab("tab1", "sess1")
	coord.PanelShown()

	entries := events.lastListing(t).Entries
	wantNames := []string{"..", "bin", "logs", "alpha.txt", "zebra.txt"}
	if len(entries) != len(wantNames) {
		t.Fatalf("expected %d entries, got %d", len(wantNames), len(entries))
	}
	for i, name := range wantNames {
		if entries[i].Name != name {
			t.Errorf("entry %d = %q, want %q", i, entries[i].Name, name)
		}
	}
	if entries[0].Path != "/" || !entries[0].IsDir {
		t.Fatalf("parent entry should point at /, got %+v", entries[0])
	}
}

func TestWorkdirFailureDefaultsToRoot(t *testing.T) {
	coord, fs, tabs, events := newTestCoordinator()

	fs.workDirErr = errors.New("session not found")
	fs.listings[fsKey("sess1", "/")] = []RemoteFileEntry{{Name: "etc", IsDir: true}}
	tabs.tab = sshTab("tab1", "sess1")

	coord.PanelShown()

	if listing := events.lastListing(t); listing.Path != "/" {
		t.Fatalf("unresolvable workdir should fall back to /, got %q", listing.Path)
	}
}
