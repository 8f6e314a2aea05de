package main

import (
	"testing"
)

func TestDirectoryCachePutGet(t *testing.T) {
	cache := NewDirectoryCache()

	entries := []RemoteFileEntry{
		{Name: "a.txt", Path: "/home/a.txt"},
		{Name: "b", Path: "/home/b", IsDir: true},
	}
	cache.Put("session_1", "/home", entries)

	got, ok := cache.Get("session_1", "/home")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 2 || got[0].Name != "a.txt" {
		t.Fatalf("unexpected cached entries: %+v", got)
	}

	// Different session, same path: miss.
	if _, ok := cache.Get("session_2", "/home"); ok {
		t.Fatal("cache leaked across sessions")
	}
}

func TestDirectoryCacheExactStringKeys(t *testing.T) {
	cache := NewDirectoryCache()
	cache.Put("s", "/var/log", []RemoteFileEntry{{Name: "syslog"}})

	// Keys are exact strings; no normalization happens in the cache.
	if _, ok := cache.Get("s", "/var/log/"); ok {
		t.Fatal("trailing-slash path should be a distinct key")
	}
	if _, ok := cache.Get("s", "/var/log"); !ok {
		t.Fatal("exact key should hit")
	}
}

func TestDirectoryCacheCopySemantics(t *testing.T) {
	cache := NewDirectoryCache()
	original := []RemoteFileEntry{{Name: "keep"}}
	cache.Put("s", "/d", original)

	// Mutating the caller's slice must not change the cache.
	original[0].Name = "mutated"
	got, _ := cache.Get("s", "/d")
	if got[0].Name != "keep" {
		t.Fatal("cache stored a reference to the caller's slice")
	}

	// Mutating the returned slice must not change the cache either.
	got[0].Name = "mutated"
	again, _ := cache.Get("s", "/d")
	if again[0].Name != "keep" {
		t.Fatal("cache returned its internal slice")
	}
}

func TestDirectoryCacheInvalidate(t *testing.T) {
	cache := NewDirectoryCache()
	cache.Put("s", "/d", nil)

	cache.Invalidate("s", "/d")
	if _, ok := cache.Get("s", "/d"); ok {
		t.Fatal("entry survived invalidation")
	}

	// Invalidating an absent entry is a no-op.
	cache.Invalidate("s", "/missing")
}

func TestDirectoryCacheClearSession(t *testing.T) {
	cache := NewDirectoryCache()
	cache.Put("s1", "/a", nil)
	cache.Put("s1", "/b", nil)
	cache.Put("s2", "/a", nil)

	cache.ClearSession("s1")

	if _, ok := cache.Get("s1", "/a"); ok {
		t.Fatal("s1 entry survived ClearSession")
	}
	if _, ok := cache.Get("s2", "/a"); !ok {
		t.Fatal("ClearSession removed another session's entry")
	}
	if cache.Len() != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", cache.Len())
	}
}
