package main

import (
	"fmt"
	"testing"
	"time"
)

func TestFileHistoryRecordNewAndRepeat(t *testing.T) {
	store := NewFileHistoryStore(MaxFileHistory)

	store.Record("/etc/hosts", "hosts")
	store.Record("/etc/passwd", "passwd")
	store.Record("/etc/hosts", "hosts")
	store.Record("/etc/hosts", "hosts")

	if store.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", store.Len())
	}

	list := store.List()
	if list[0].Path != "/etc/hosts" || list[0].AccessCount != 3 {
		t.Fatalf("expected /etc/hosts with count 3 first, got %+v", list[0])
	}
	if list[1].Path != "/etc/passwd" || list[1].AccessCount != 1 {
		t.Fatalf("expected /etc/passwd with count 1 second, got %+v", list[1])
	}
}

func TestFileHistoryListOrdersByCountThenRecency(t *testing.T) {
	store := NewFileHistoryStore(MaxFileHistory)

	older := &FileHistoryEntry{
		Path: "/old", FileName: "old", AccessCount: 2,
		LastAccessed: time.Now().Add(-time.Hour),
	}
	newer := &FileHistoryEntry{
		Path: "/new", FileName: "new", AccessCount: 2,
		LastAccessed: time.Now(),
	}
	frequent := &FileHistoryEntry{
		Path: "/frequent", FileName: "frequent", AccessCount: 9,
		LastAccessed: time.Now().Add(-24 * time.Hour),
	}
	store.Load([]*FileHistoryEntry{newer, older, frequent})

	list := store.List()
	if list[0].Path != "/frequent" {
		t.Fatalf("highest count should come first, got %s", list[0].Path)
	}
	if list[1].Path != "/new" || list[2].Path != "/old" {
		t.Fatalf("ties should break by recency: got %s then %s", list[1].Path, list[2].Path)
	}
}

func TestFileHistoryTrimsLeastRecentlyUsed(t *testing.T) {
	store := NewFileHistoryStore(3)

	store.Record("/a", "a")
	store.Record("/b", "b")
	store.Record("/c", "c")
	// Touch /a so /b becomes least recently used.
	store.Record("/a", "a")
	store.Record("/d", "d")

	if store.Len() != 3 {
		t.Fatalf("expected cap of 3, got %d", store.Len())
	}

	for _, entry := range store.Snapshot() {
		if entry.Path == "/b" {
			t.Fatal("least-recently-used entry /b should have been trimmed")
		}
	}
}

func TestFileHistoryLoadSkipsNilAndTrims(t *testing.T) {
	store := NewFileHistoryStore(2)

	store.Load([]*FileHistoryEntry{
		{Path: "/one", AccessCount: 1},
		nil,
		{Path: "/two", AccessCount: 1},
		{Path: "/three", AccessCount: 1},
	})

	if store.Len() != 2 {
		t.Fatalf("expected 2 entries after load, got %d", store.Len())
	}
	snapshot := store.Snapshot()
	if snapshot[0].Path != "/one" || snapshot[1].Path != "/two" {
		t.Fatalf("load changed the persisted order: %+v", snapshot)
	}
}

func TestFileHistorySnapshotKeepsRecencyOrder(t *testing.T) {
	store := NewFileHistoryStore(MaxFileHistory)

	for i := 0; i < 5; i++ {
		store.Record(fmt.Sprintf("/f%d", i), fmt.Sprintf("f%d", i))
	}

	snapshot := store.Snapshot()
	if snapshot[0].Path != "/f4" || snapshot[4].Path != "/f0" {
		t.Fatalf("snapshot should be most-recent-first: %s ... %s", snapshot[0].Path, snapshot[4].Path)
	}

	// Snapshot entries are copies.
	snapshot[0].AccessCount = 99
	if store.Snapshot()[0].AccessCount == 99 {
		t.Fatal("snapshot returned live store entries")
	}
}
