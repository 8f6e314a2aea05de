package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Additional profile constants that extend the ones in types.go
const (
	MaxProfileName = 255
	MaxFileSize    = 1024 * 1024 // 1MB
)

// ProfileError represents a structured profile operation error
type ProfileError struct {
	Op        string
	ProfileID string
	Path      string
	Err       error
}

func (e *ProfileError) Error() string {
	return fmt.Sprintf("profile %s %s %s: %v", e.Op, e.ProfileID, e.Path, e.Err)
}

// sanitizeFilename ensures a filename is safe for all operating systems
func sanitizeFilename(filename string) string {
	// Replace spaces with underscores
	filename = strings.ReplaceAll(filename, " ", "_")

	// Replace path separators
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")

	// Replace other problematic characters for Windows/Unix compatibility
	filename = strings.ReplaceAll(filename, ":", "_")
	filename = strings.ReplaceAll(filename, "*", "_")
	filename = strings.ReplaceAll(filename, "?", "_")
	filename = strings.ReplaceAll(filename, "\"", "_")
	filename = strings.ReplaceAll(filename, "<", "_")
	filename = strings.ReplaceAll(filename, ">", "_")
	filename = strings.ReplaceAll(filename, "|", "_")

	// Remove any remaining control characters
	reg := regexp.MustCompile(`[[:cntrl:]]`)
	filename = reg.ReplaceAllString(filename, "_")

	// Trim dots and spaces from the end (Windows doesn't like these)
	filename = strings.TrimRight(filename, ". ")

	// Ensure filename isn't empty
	if filename == "" {
		filename = "unnamed"
	}

	return filename
}

// validateProfilePath validates that the path is within the profiles directory
func (a *App) validateProfilePath(path string) error {
	profilesDir, err := a.GetProfilesDirectory()
	if err != nil {
		return err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	if !strings.HasPrefix(absPath, profilesDir) {
		return fmt.Errorf("invalid profile path: outside profiles directory")
	}

	return nil
}

// validateProfile validates profile data before operations
func (a *App) validateProfile(profile *Profile) error {
	if profile.Name == "" {
		return fmt.Errorf("profile name cannot be empty")
	}

	if len(profile.Name) > MaxProfileName {
		return fmt.Errorf("profile name exceeds maximum length of %d", MaxProfileName)
	}

	if profile.Type == ProfileTypeSSH && profile.SSHConfig == nil {
		return fmt.Errorf("SSH profile requires SSH config")
	}

	return nil
}

// generateID creates a unique identifier
func generateID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// CreateProfile creates a new local shell profile with validation
func (a *App) CreateProfile(name, profileType, shell, icon string) (*Profile, error) {
	a.profiles.mutex.Lock()
	defer a.profiles.mutex.Unlock()

	// Check profile count limit
	if len(a.profiles.profiles) >= MaxProfiles {
		return nil, fmt.Errorf("profile limit reached (%d)", MaxProfiles)
	}

	id := generateID()
	now := time.Now()

	profile := &Profile{
		ID:           id,
		Name:         name,
		Icon:         icon,
		Type:         profileType,
		Shell:        shell,
		Created:      now,
		LastModified: now,
	}

	// Validate profile data
	if err := a.validateProfile(profile); err != nil {
		return nil, &ProfileError{
			Op:        "create",
			ProfileID: id,
			Err:       err,
		}
	}

	if err := a.saveProfileInternal(profile); err != nil {
		return nil, &ProfileError{
			Op:        "save",
			ProfileID: id,
			Err:       err,
		}
	}

	return profile, nil
}

// CreateSSHProfile creates a new SSH connection profile with validation
func (a *App) CreateSSHProfile(name, icon string, sshConfig *SSHConfig) (*Profile, error) {
	a.profiles.mutex.Lock()
	defer a.profiles.mutex.Unlock()

	if len(a.profiles.profiles) >= MaxProfiles {
		return nil, fmt.Errorf("profile limit reached (%d)", MaxProfiles)
	}

	id := generateID()
	now := time.Now()

	profile := &Profile{
		ID:           id,
		Name:         name,
		Icon:         icon,
		Type:         ProfileTypeSSH,
		SSHConfig:    sshConfig,
		Created:      now,
		LastModified: now,
	}

	if err := a.validateProfile(profile); err != nil {
		return nil, &ProfileError{
			Op:        "create",
			ProfileID: id,
			Err:       err,
		}
	}
	if err := sshConfig.Validate(); err != nil {
		return nil, &ProfileError{
			Op:        "validate",
			ProfileID: id,
			Err:       err,
		}
	}

	if err := a.saveProfileInternal(profile); err != nil {
		return nil, &ProfileError{
			Op:        "save",
			ProfileID: id,
			Err:       err,
		}
	}

	return profile, nil
}

// DeleteProfile removes a profile with proper cleanup
func (a *App) DeleteProfile(id string) error {
	a.profiles.mutex.Lock()
	defer a.profiles.mutex.Unlock()

	profile, exists := a.profiles.profiles[id]
	if !exists {
		return &ProfileError{
			Op:        "delete",
			ProfileID: id,
			Err:       fmt.Errorf("profile not found"),
		}
	}

	// Find and delete the profile file
	filename := fmt.Sprintf("%s-%s.yaml", profile.Name, profile.ID)
	filename = sanitizeFilename(filename)

	profilesDir, err := a.GetProfilesDirectory()
	if err != nil {
		return &ProfileError{
			Op:        "delete",
			ProfileID: id,
			Path:      profilesDir,
			Err:       err,
		}
	}

	filePath := filepath.Join(profilesDir, filename)

	// Validate path before deletion
	if err := a.validateProfilePath(filePath); err != nil {
		return &ProfileError{
			Op:        "validate",
			ProfileID: id,
			Path:      filePath,
			Err:       err,
		}
	}

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return &ProfileError{
			Op:        "delete",
			ProfileID: id,
			Path:      filePath,
			Err:       err,
		}
	}

	// Remove from memory, history store included
	delete(a.profiles.profiles, id)
	delete(a.profiles.fileHistory, id)

	return nil
}

// GetProfileByID retrieves a profile by its ID with proper validation
func (a *App) GetProfileByID(profileID string) (*Profile, error) {
	a.profiles.mutex.RLock()
	defer a.profiles.mutex.RUnlock()

	if profileID == "" {
		return nil, &ProfileError{
			Op:        "get",
			ProfileID: profileID,
			Err:       fmt.Errorf("profile ID cannot be empty"),
		}
	}

	profile, exists := a.profiles.profiles[profileID]
	if !exists {
		return nil, &ProfileError{
			Op:        "get",
			ProfileID: profileID,
			Err:       fmt.Errorf("profile not found"),
		}
	}

	return profile, nil
}

// GetProfiles returns all profiles sorted for display: explicit sort
// order first, then by name.
func (a *App) GetProfiles() []*Profile {
	a.profiles.mutex.RLock()
	defer a.profiles.mutex.RUnlock()

	profiles := make([]*Profile, 0, len(a.profiles.profiles))
	for _, profile := range a.profiles.profiles {
		profiles = append(profiles, profile)
	}

	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].SortOrder != profiles[j].SortOrder {
			return profiles[i].SortOrder < profiles[j].SortOrder
		}
		return profiles[i].Name < profiles[j].Name
	})

	return profiles
}

// SaveProfile saves a profile to file (wrapper for external compatibility)
func (a *App) SaveProfile(profile *Profile) error {
	a.profiles.mutex.Lock()
	defer a.profiles.mutex.Unlock()
	return a.saveProfileInternal(profile)
}

// CreateDefaultProfiles creates some default profiles if none exist
func (a *App) CreateDefaultProfiles() error {
	type defaultShell struct {
		name  string
		shell string
		icon  string
	}

	defaultShells := []defaultShell{
		{"Bash", "bash", "💻"},
		{"Zsh", "zsh", "⚫"},
		{"PowerShell", "powershell.exe", "🔷"},
	}

	// Only create profiles for shells that are actually available
	availableSet := make(map[string]bool)
	for _, s := range a.GetAvailableShells() {
		availableSet[s] = true
	}

	for _, shell := range defaultShells {
		if !availableSet[shell.shell] {
			continue
		}
		if _, err := a.CreateProfile(shell.name, ProfileTypeLocal, shell.shell, shell.icon); err != nil {
			fmt.Printf("Warning: Failed to create default profile %s: %v\n", shell.name, err)
		}
	}

	return nil
}

// updateProfileUsage bumps usage tracking when a tab is opened from a profile
func (a *App) updateProfileUsage(profileID string) error {
	a.profiles.mutex.Lock()
	defer a.profiles.mutex.Unlock()

	profile, exists := a.profiles.profiles[profileID]
	if !exists {
		return fmt.Errorf("profile not found: %s", profileID)
	}

	profile.LastUsed = time.Now()
	profile.UsageCount++

	return a.saveProfileInternal(profile)
}
