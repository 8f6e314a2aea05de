package main

import (
	"testing"
)

func TestCleanRemotePath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/", "/"},
		{"/home/user", "/home/user"},
		{"/home/user/", "/home/user"},
		{"//var//log", "/var/log"},
		{"", "/"},
		{"relative/path", "/"},
		{"~", "/"},
		{"///", "/"},
	}

	for _, c := range cases {
		if got := cleanRemotePath(c.in); got != c.want {
			t.Errorf("cleanRemotePath(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParentPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/home/user/docs", "/home/user"},
		{"/home", "/"},
		{"/", "/"},
		{"/var/log/", "/var"}, // trailing slash stripped first
	}

	for _, c := range cases {
		if got := parentPath(c.in); got != c.want {
			t.Errorf("parentPath(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParentPathRepeatedAscentTerminates(t *testing.T) {
	path := "/a/b/c"
	if got := parentPath(parentPath(path)); got != "/a" {
		t.Fatalf("double ascent from %q = %q, want /a", path, got)
	}

	// Ascending from the root must stay at the root forever.
	path = "/a"
	for i := 0; i < 5; i++ {
		path = parentPath(path)
	}
	if path != "/" {
		t.Fatalf("repeated ascent did not terminate at root, got %q", path)
	}
}

func TestBreadcrumbsForRoot(t *testing.T) {
	crumbs := breadcrumbsFor("/")
	if len(crumbs) != 1 {
		t.Fatalf("expected 1 crumb for root, got %d", len(crumbs))
	}
	if crumbs[0].Label != rootCrumbLabel || crumbs[0].Path != "/" {
		t.Fatalf("unexpected root crumb: %+v", crumbs[0])
	}
	if crumbs[0].IsNavigable {
		t.Fatal("the root crumb is the current directory at /, it must not be navigable")
	}
}

func TestBreadcrumbsForNestedPath(t *testing.T) {
	crumbs := breadcrumbsFor("/home/user/docs")

	want := []Breadcrumb{
		{Label: rootCrumbLabel, Path: "/", IsNavigable: true},
		{Label: "home", Path: "/home", IsNavigable: true},
		{Label: "user", Path: "/home/user", IsNavigable: true},
		{Label: "docs", Path: "/home/user/docs", IsNavigable: false},
	}

	if len(crumbs) != len(want) {
		t.Fatalf("expected %d crumbs, got %d", len(want), len(crumbs))
	}
	for i := range want {
		if crumbs[i] != want[i] {
			t.Errorf("crumb %d = %+v, want %+v", i, crumbs[i], want[i])
		}
	}
}

func TestBreadcrumbsForUnresolvedPath(t *testing.T) {
	// Paths the server never resolved map to the root crumb only.
	crumbs := breadcrumbsFor("relative")
	if len(crumbs) != 1 || crumbs[0].Path != "/" {
		t.Fatalf("unresolved path should produce the root crumb, got %+v", crumbs)
	}
}
