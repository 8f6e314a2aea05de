package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// GetProfilesDirectory returns the full path to the profiles directory
func (a *App) GetProfilesDirectory() (string, error) {
	// Check if a custom profiles path is configured
	if a.config != nil && a.config.config != nil && a.config.config.ProfilesPath != "" {
		return a.config.config.ProfilesPath, nil
	}

	// Fall back to default path
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, ConfigDirName, ProfilesDirName), nil
}

// InitializeProfiles sets up the profile management system
func (a *App) InitializeProfiles() error {
	// Ensure profiles directory exists
	profilesDir, err := a.GetProfilesDirectory()
	if err != nil {
		return fmt.Errorf("failed to get profiles directory: %w", err)
	}

	if err := os.MkdirAll(profilesDir, ConfigDirMode); err != nil {
		return fmt.Errorf("failed to create profiles directory: %w", err)
	}

	// Load existing profiles
	if err := a.LoadProfiles(); err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}

	// Create default profiles if none exist
	a.profiles.mutex.RLock()
	profileCount := len(a.profiles.profiles)
	a.profiles.mutex.RUnlock()

	if profileCount == 0 {
		if err := a.CreateDefaultProfiles(); err != nil {
			return fmt.Errorf("failed to create default profiles: %w", err)
		}
	}

	// Start file watcher
	if err := a.StartProfileWatcher(); err != nil {
		return fmt.Errorf("failed to start profile watcher: %w", err)
	}

	return nil
}

// LoadProfiles loads all profiles from the profiles directory
func (a *App) LoadProfiles() error {
	profilesDir, err := a.GetProfilesDirectory()
	if err != nil {
		return err
	}

	// Clear existing profiles and their history stores
	a.profiles.mutex.Lock()
	a.profiles.profiles = make(map[string]*Profile)
	a.profiles.fileHistory = make(map[string]*FileHistoryStore)
	a.profiles.mutex.Unlock()

	// Walk through all files in profiles directory
	err = filepath.WalkDir(profilesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip directories and non-yaml files
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".yaml") {
			return nil
		}

		// Validate file size
		info, err := d.Info()
		if err != nil {
			fmt.Printf("Warning: Failed to get file info for %s: %v\n", path, err)
			return nil
		}
		if info.Size() > MaxFileSize {
			fmt.Printf("Warning: File %s exceeds maximum size limit, skipping\n", path)
			return nil
		}

		profile, err := a.LoadProfile(path)
		if err != nil {
			fmt.Printf("Warning: Failed to load profile %s: %v\n", path, err)
			return nil // Continue loading other files
		}

		a.profiles.mutex.Lock()
		a.profiles.profiles[profile.ID] = profile
		a.profiles.mutex.Unlock()

		// Seed the in-memory file history from the persisted entries
		a.profiles.historyFor(profile.ID).Load(profile.FileHistory)

		return nil
	})

	if err != nil {
		return fmt.Errorf("failed to walk profiles directory: %w", err)
	}

	a.profiles.mutex.RLock()
	profileCount := len(a.profiles.profiles)
	a.profiles.mutex.RUnlock()

	fmt.Printf("Loaded %d profiles\n", profileCount)
	return nil
}

// LoadProfile loads a single profile from file with validation
func (a *App) LoadProfile(filePath string) (*Profile, error) {
	// Validate file path
	if err := a.validateProfilePath(filePath); err != nil {
		return nil, fmt.Errorf("invalid file path: %w", err)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	// Check for empty file
	if len(data) == 0 {
		return nil, fmt.Errorf("profile file is empty")
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile YAML: %w", err)
	}

	// Validate loaded profile
	if err := a.validateProfile(&profile); err != nil {
		return nil, fmt.Errorf("invalid profile data: %w", err)
	}

	return &profile, nil
}

// findProfileFile finds the existing file for a profile by ID
func (a *App) findProfileFile(profileID string) (string, error) {
	if profileID == "" {
		return "", fmt.Errorf("profile ID cannot be empty")
	}

	profilesDir, err := a.GetProfilesDirectory()
	if err != nil {
		return "", err
	}

	// Walk through all files in profiles directory to find the one with matching ID
	var foundFile string
	err = filepath.WalkDir(profilesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip directories and non-yaml files
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".yaml") {
			return nil
		}

		// Profile files are in format: Name-ID.yaml
		parts := strings.Split(d.Name(), "-")
		if len(parts) >= 2 {
			id := strings.TrimSuffix(parts[len(parts)-1], ".yaml")
			if id == profileID {
				foundFile = path
				return filepath.SkipAll // Stop walking once found
			}
		}

		return nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to search for profile file: %w", err)
	}

	return foundFile, nil
}

// saveProfileInternal saves a profile to file without mutex locking (internal use)
func (a *App) saveProfileInternal(profile *Profile) error {
	if profile == nil {
		return fmt.Errorf("profile cannot be nil")
	}

	profilesDir, err := a.GetProfilesDirectory()
	if err != nil {
		return err
	}

	profile.LastModified = time.Now()

	data, err := yaml.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	filename := fmt.Sprintf("%s-%s.yaml", profile.Name, profile.ID)
	filename = sanitizeFilename(filename)

	filePath := filepath.Join(profilesDir, filename)

	// Validate file path
	if err := a.validateProfilePath(filePath); err != nil {
		return fmt.Errorf("invalid file path: %w", err)
	}

	// Temporarily stop the file watcher to prevent race conditions
	wasWatcherRunning := a.profiles.profileWatcher != nil
	if wasWatcherRunning {
		a.StopProfileWatcher()
	}

	// Find and delete any existing file for this profile ID (handles renames)
	existingFile, err := a.findProfileFile(profile.ID)
	if err == nil && existingFile != "" && existingFile != filePath {
		// Only delete if it's a different file (different name)
		if deleteErr := os.Remove(existingFile); deleteErr != nil && !os.IsNotExist(deleteErr) {
			fmt.Printf("Warning: Failed to delete old profile file %s: %v\n", existingFile, deleteErr)
		}
	}

	if err := os.WriteFile(filePath, data, ConfigFileMode); err != nil {
		// Restart watcher before returning error
		if wasWatcherRunning {
			go func() {
				if watchErr := a.StartProfileWatcher(); watchErr != nil {
					fmt.Printf("Warning: Failed to restart profile watcher: %v\n", watchErr)
				}
			}()
		}
		return fmt.Errorf("failed to write profile file: %w", err)
	}

	// Update in memory
	a.profiles.profiles[profile.ID] = profile

	// Restart the file watcher
	if wasWatcherRunning {
		go func() {
			if watchErr := a.StartProfileWatcher(); watchErr != nil {
				fmt.Printf("Warning: Failed to restart profile watcher: %v\n", watchErr)
			}
		}()
	}

	return nil
}

// historyFor returns the file history store for a profile, creating an
// empty one on first use.
func (pm *ProfileManager) historyFor(profileID string) *FileHistoryStore {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	store, exists := pm.fileHistory[profileID]
	if !exists {
		store = NewFileHistoryStore(MaxFileHistory)
		pm.fileHistory[profileID] = store
	}
	return store
}

// persistFileHistory flushes a profile's in-memory file history into the
// profile YAML on disk.
func (a *App) persistFileHistory(profileID string) error {
	store := a.profiles.historyFor(profileID)

	a.profiles.mutex.Lock()
	defer a.profiles.mutex.Unlock()

	profile, exists := a.profiles.profiles[profileID]
	if !exists {
		return fmt.Errorf("profile not found: %s", profileID)
	}

	profile.FileHistory = store.Snapshot()
	return a.saveProfileInternal(profile)
}
