package main

import (
	"strings"
	"testing"
)

func TestIsNewerVersion(t *testing.T) {
	cases := []struct {
		current string
		latest  string
		want    bool
	}{
		{"v1.0.0", "v1.0.1", true},
		{"v1.0.1", "v1.0.0", false},
		{"1.2.3", "1.2.3", false},
		{"v1.9.0", "v1.10.0", true},
		{"dev", "v1.0.0", true},
		{"dev", "dev", false},
		{"not-a-version", "v1.0.0", true},
		{"v1.0.0", "not-a-version", false},
	}

	for _, c := range cases {
		if got := isNewerVersion(c.current, c.latest); got != c.want {
			t.Errorf("isNewerVersion(%q, %q) = %v, want %v", c.current, c.latest, got, c.want)
		}
	}
}

func TestGetAssetNameForPlatform(t *testing.T) {
	name := getAssetNameForPlatform()
	if name == "" {
		t.Fatal("asset name should never be empty")
	}
	if !strings.HasPrefix(name, "skiff-") {
		t.Fatalf("asset name %q should carry the release prefix", name)
	}
}

func TestGetVersionInfo(t *testing.T) {
	app := NewApp()

	info := app.GetVersionInfo()
	if info == nil {
		t.Fatal("GetVersionInfo() returned nil")
	}
	if info.Version == "" || info.Platform == "" || info.Arch == "" {
		t.Fatalf("version info incomplete: %+v", info)
	}
}
