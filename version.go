package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// Version information - will be set via ldflags at build time
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const latestReleaseURL = "https://api.github.com/repos/skiff-term/skiff/releases/latest"

// VersionInfo represents version information
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
	Arch      string `json:"arch"`
}

// UpdateInfo reports whether a newer release is available and where to
// get it.
type UpdateInfo struct {
	Available      bool   `json:"available"`
	LatestVersion  string `json:"latestVersion"`
	CurrentVersion string `json:"currentVersion"`
	DownloadURL    string `json:"downloadUrl"`
	ReleaseNotes   string `json:"releaseNotes"`
	Size           int64  `json:"size"`
}

// githubRelease is the subset of the GitHub release API response the
// update check reads.
type githubRelease struct {
	TagName    string `json:"tag_name"`
	Body       string `json:"body"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
	Assets     []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
		Size               int64  `json:"size"`
	} `json:"assets"`
}

// GetVersionInfo returns current application version information
func (a *App) GetVersionInfo() *VersionInfo {
	return &VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// CheckForUpdates compares the running version against the latest
// GitHub release. Installing the update is left to the user; the
// result carries the download link for the current platform.
func (a *App) CheckForUpdates() (*UpdateInfo, error) {
	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Get(latestReleaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch release info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to decode release info: %w", err)
	}

	// Drafts and prereleases never count as updates
	if release.Draft || release.Prerelease {
		return &UpdateInfo{
			Available:      false,
			CurrentVersion: Version,
			LatestVersion:  Version,
		}, nil
	}

	info := &UpdateInfo{
		CurrentVersion: Version,
		LatestVersion:  release.TagName,
		ReleaseNotes:   release.Body,
		Available:      isNewerVersion(Version, release.TagName),
	}
	if !info.Available {
		return info, nil
	}

	assetName := getAssetNameForPlatform()
	for _, asset := range release.Assets {
		if asset.Name == assetName {
			info.DownloadURL = asset.BrowserDownloadURL
			info.Size = asset.Size
			break
		}
	}
	if info.DownloadURL == "" {
		return nil, fmt.Errorf("no suitable binary found for platform %s/%s", runtime.GOOS, runtime.GOARCH)
	}

	return info, nil
}

// getAssetNameForPlatform returns the release asset name for the
// current platform.
func getAssetNameForPlatform() string {
	switch runtime.GOOS {
	case "windows":
		return "skiff-windows-amd64.exe"
	case "darwin":
		if runtime.GOARCH == "arm64" {
			return "skiff-darwin-arm64.zip"
		}
		return "skiff-darwin-amd64.zip"
	case "linux":
		return "skiff-linux-amd64"
	default:
		return fmt.Sprintf("skiff-%s-%s", runtime.GOOS, runtime.GOARCH)
	}
}

// isNewerVersion reports whether latest is a newer semantic version
// than current. Dev builds treat any tagged release as an update.
func isNewerVersion(current, latest string) bool {
	if strings.HasPrefix(current, "dev") {
		return !strings.HasPrefix(latest, "dev")
	}

	currentVer, err := semver.NewVersion(strings.TrimPrefix(current, "v"))
	if err != nil {
		// Unparseable running version: assume the release is newer
		return true
	}

	latestVer, err := semver.NewVersion(strings.TrimPrefix(latest, "v"))
	if err != nil {
		return false
	}

	return latestVer.GreaterThan(currentVer)
}
