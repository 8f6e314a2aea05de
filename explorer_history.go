package main

import (
	"sort"
	"sync"
	"time"
)

// FileHistoryStore keeps the ordered record of remote files opened
// under one connection profile. Internally entries are held in
// recency order (most recent first); List applies the display
// ordering. Persistence is the owning profile's job — Snapshot hands
// back the raw recency-ordered entries for that.
type FileHistoryStore struct {
	entries []*FileHistoryEntry
	maxSize int
	mutex   sync.RWMutex
}

// NewFileHistoryStore creates an empty store trimmed to maxSize
// entries.
func NewFileHistoryStore(maxSize int) *FileHistoryStore {
	return &FileHistoryStore{
		entries: make([]*FileHistoryEntry, 0),
		maxSize: maxSize,
	}
}

// Load replaces the store's contents with entries restored from
// profile storage, assumed to already be in recency order. Anything
// beyond the cap is dropped from the tail.
func (fh *FileHistoryStore) Load(entries []*FileHistoryEntry) {
	fh.mutex.Lock()
	defer fh.mutex.Unlock()

	fh.entries = make([]*FileHistoryEntry, 0, len(entries))
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		fh.entries = append(fh.entries, entry)
	}
	if len(fh.entries) > fh.maxSize {
		fh.entries = fh.entries[:fh.maxSize]
	}
}

// Record notes that path was opened. An existing entry is bumped to
// the front with its access count incremented; a new entry is
// front-inserted. The tail is trimmed past the cap, so the
// least-recently-used entry is the one that falls off.
func (fh *FileHistoryStore) Record(path, displayName string) {
	now := time.Now()

	fh.mutex.Lock()
	defer fh.mutex.Unlock()

	for i, entry := range fh.entries {
		if entry.Path == path {
			entry.AccessCount++
			entry.LastAccessed = now
			fh.entries = append(fh.entries[:i], fh.entries[i+1:]...)
			fh.entries = append([]*FileHistoryEntry{entry}, fh.entries...)
			return
		}
	}

	entry := &FileHistoryEntry{
		Path:          path,
		FileName:      displayName,
		AccessCount:   1,
		FirstAccessed: now,
		LastAccessed:  now,
	}
	fh.entries = append([]*FileHistoryEntry{entry}, fh.entries...)
	if len(fh.entries) > fh.maxSize {
		fh.entries = fh.entries[:fh.maxSize]
	}
}

// List returns entries ordered by access count descending, ties broken
// by most recent access. The returned entries are copies; mutating
// them does not touch the store.
func (fh *FileHistoryStore) List() []*FileHistoryEntry {
	fh.mutex.RLock()
	defer fh.mutex.RUnlock()

	result := make([]*FileHistoryEntry, 0, len(fh.entries))
	for _, entry := range fh.entries {
		copied := *entry
		result = append(result, &copied)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].AccessCount != result[j].AccessCount {
			return result[i].AccessCount > result[j].AccessCount
		}
		return result[i].LastAccessed.After(result[j].LastAccessed)
	})
	return result
}

// Snapshot returns the entries in recency order for persistence.
func (fh *FileHistoryStore) Snapshot() []*FileHistoryEntry {
	fh.mutex.RLock()
	defer fh.mutex.RUnlock()

	result := make([]*FileHistoryEntry, 0, len(fh.entries))
	for _, entry := range fh.entries {
		copied := *entry
		result = append(result, &copied)
	}
	return result
}

// Len returns the number of tracked files.
func (fh *FileHistoryStore) Len() int {
	fh.mutex.RLock()
	defer fh.mutex.RUnlock()
	return len(fh.entries)
}
