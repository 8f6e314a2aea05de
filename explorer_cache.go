package main

import "sync"

// listingKey identifies one cached directory listing. The path is the
// exact string the listing was stored under; no normalization happens
// here so "/var/log" and "/var/log/" are distinct entries.
type listingKey struct {
	sessionID string
	path      string
}

// DirectoryCache holds directory listings per (session, path). Entries
// never expire on their own; staleness is handled by explicit
// invalidation from the mutation paths and by forced refreshes on
// navigation.
type DirectoryCache struct {
	entries map[listingKey][]RemoteFileEntry
	mutex   sync.RWMutex
}

// NewDirectoryCache creates an empty directory cache.
func NewDirectoryCache() *DirectoryCache {
	return &DirectoryCache{
		entries: make(map[listingKey][]RemoteFileEntry),
	}
}

// Get returns the cached listing for (sessionID, path) and whether one
// exists. The returned slice is a copy; callers may reorder or filter
// it freely.
func (dc *DirectoryCache) Get(sessionID, path string) ([]RemoteFileEntry, bool) {
	dc.mutex.RLock()
	defer dc.mutex.RUnlock()

	entries, exists := dc.entries[listingKey{sessionID: sessionID, path: path}]
	if !exists {
		return nil, false
	}

	result := make([]RemoteFileEntry, len(entries))
	copy(result, entries)
	return result, true
}

// Put stores a listing for (sessionID, path), replacing any previous
// entry. The slice is copied on the way in.
func (dc *DirectoryCache) Put(sessionID, path string, entries []RemoteFileEntry) {
	stored := make([]RemoteFileEntry, len(entries))
	copy(stored, entries)

	dc.mutex.Lock()
	defer dc.mutex.Unlock()
	dc.entries[listingKey{sessionID: sessionID, path: path}] = stored
}

// Invalidate drops the cached listing for (sessionID, path), if any.
// Invalidating an absent entry is a no-op.
func (dc *DirectoryCache) Invalidate(sessionID, path string) {
	dc.mutex.Lock()
	defer dc.mutex.Unlock()
	delete(dc.entries, listingKey{sessionID: sessionID, path: path})
}

// ClearSession drops every cached listing belonging to a session. Used
// when a session is torn down or its connection is lost.
func (dc *DirectoryCache) ClearSession(sessionID string) {
	dc.mutex.Lock()
	defer dc.mutex.Unlock()

	for key := range dc.entries {
		if key.sessionID == sessionID {
			delete(dc.entries, key)
		}
	}
}

// Len returns the number of cached listings across all sessions.
func (dc *DirectoryCache) Len() int {
	dc.mutex.RLock()
	defer dc.mutex.RUnlock()
	return len(dc.entries)
}
