package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
	"gopkg.in/yaml.v2"
)

// getConfigPath returns the full path to the config file
func (a *App) getConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, ConfigDirName, ConfigFileName), nil
}

// ensureConfigDir creates the config directory if it doesn't exist
func (a *App) ensureConfigDir() error {
	configPath, err := a.getConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, ConfigDirMode); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}
	return nil
}

// loadConfig loads configuration from file or creates default
func (a *App) loadConfig() error {
	configPath, err := a.getConfigPath()
	if err != nil {
		fmt.Printf("Warning: %v. Using default config.\n", err)
		return nil // Continue with default config
	}

	// Ensure config directory exists
	if err := a.ensureConfigDir(); err != nil {
		fmt.Printf("Warning: %v. Using default config.\n", err)
		return nil
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Printf("Config file not found at %s - creating with default values.\n", configPath)
		return a.saveConfig() // Create default config file
	}

	// Load existing config
	data, err := os.ReadFile(configPath)
	if err != nil {
		fmt.Printf("Warning: Failed to read config file %s: %v. Using default config.\n", configPath, err)
		return nil
	}

	if err := yaml.Unmarshal(data, a.config.config); err != nil {
		fmt.Printf("Warning: Failed to parse config file %s: %v. Using default config.\n", configPath, err)
		a.config.config = DefaultConfig() // Reset to default on parse error
		return nil
	}

	// Migrate legacy configuration to platform-specific format
	if migrated := a.migrateLegacyConfig(); migrated {
		fmt.Println("Migrated legacy shell configuration to platform-specific format")
		a.markConfigDirty() // Save the migrated config
	}

	fmt.Printf("Config loaded successfully from %s\n", configPath)
	return nil
}

// saveConfig saves the current application configuration to a file
func (a *App) saveConfig() error {
	if a.config == nil || a.config.config == nil {
		return fmt.Errorf("config is nil, cannot save")
	}

	configPath, err := a.getConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	if err := a.ensureConfigDir(); err != nil {
		return fmt.Errorf("failed to ensure config directory: %w", err)
	}

	data, err := yaml.Marshal(a.config.config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, ConfigFileMode); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", configPath, err)
	}

	return nil
}

// markConfigDirty flags the configuration as needing a save and resets the debounce timer.
func (a *App) markConfigDirty() {
	a.config.mutex.Lock()
	defer a.config.mutex.Unlock()

	a.config.configDirty = true
	if a.config.debounceTimer != nil {
		a.config.debounceTimer.Stop()
	}

	a.config.debounceTimer = time.AfterFunc(DebounceDelay, func() {
		if a.ctx != nil { // Check if app is still running
			fmt.Println("Debounce timer fired. Attempting to save config.")
			a.saveConfigIfDirty()
		}
	})
}

// saveConfigIfDirty checks the dirty flag and saves the configuration if it's set.
func (a *App) saveConfigIfDirty() {
	a.config.mutex.Lock()
	defer a.config.mutex.Unlock()

	if !a.config.configDirty {
		return // Nothing to save
	}

	if err := a.saveConfig(); err != nil {
		fmt.Printf("Error saving config: %v\n", err)
		// Keep config dirty so it will be retried later
		return
	}

	fmt.Println("Config saved successfully.")
	a.config.configDirty = false
}

// updateWindowState updates the config with current window state and marks dirty if changed
func (a *App) updateWindowState() bool {
	if a.ctx == nil || a.config == nil || a.config.config == nil {
		return false
	}

	width, height := wailsRuntime.WindowGetSize(a.ctx)
	isMaximized := wailsRuntime.WindowIsMaximised(a.ctx)

	cfg := a.config.config
	configChanged := false

	if cfg.WindowWidth != width || cfg.WindowHeight != height {
		cfg.WindowWidth = width
		cfg.WindowHeight = height
		fmt.Printf("Window dimensions updated to %dx%d\n", width, height)
		configChanged = true
	}

	if cfg.WindowMaximized != isMaximized {
		cfg.WindowMaximized = isMaximized
		fmt.Printf("Window maximized state updated to %t\n", isMaximized)
		configChanged = true
	}

	return configChanged
}

// handleFrontendResizeEvent is called when the frontend signals that window resizing has finished.
func (a *App) handleFrontendResizeEvent(optionalData ...interface{}) {
	if a.ctx == nil || a.config == nil {
		fmt.Println("Resize event: Context or config not ready.")
		return
	}

	if a.updateWindowState() {
		fmt.Println("Window state changed, marking config dirty.")
		a.markConfigDirty()
	}
}

// SetDefaultShell updates the platform-specific default shell in the configuration and marks it dirty.
func (a *App) SetDefaultShell(shellPath string) error {
	if a.config == nil || a.config.config == nil {
		return fmt.Errorf("config not initialized, cannot set default shell")
	}

	currentShell := a.getPlatformDefaultShell()
	if currentShell != shellPath {
		a.setPlatformDefaultShell(shellPath)
		fmt.Printf("Default shell for %s set to: %s\n", getOSName(), shellPath)
		a.markConfigDirty()
	}
	return nil
}

// getPlatformDefaultShell returns the configured default shell for the current platform
func (a *App) getPlatformDefaultShell() string {
	if a.config == nil || a.config.config == nil {
		return ""
	}

	switch runtime.GOOS {
	case "windows":
		return a.config.config.DefaultShells.Windows
	case "darwin":
		return a.config.config.DefaultShells.Darwin
	default:
		return a.config.config.DefaultShells.Linux
	}
}

// setPlatformDefaultShell sets the platform-specific default shell configuration
func (a *App) setPlatformDefaultShell(shellPath string) {
	switch runtime.GOOS {
	case "windows":
		a.config.config.DefaultShells.Windows = shellPath
	case "darwin":
		a.config.config.DefaultShells.Darwin = shellPath
	default:
		// For other Unix-like systems, use Linux configuration
		a.config.config.DefaultShells.Linux = shellPath
	}
}

// getOSName returns a human-readable OS name for logging
func getOSName() string {
	switch runtime.GOOS {
	case "windows":
		return "Windows"
	case "darwin":
		return "macOS"
	case "linux":
		return "Linux"
	default:
		return runtime.GOOS
	}
}

// migrateLegacyConfig migrates legacy default_shell configuration to platform-specific format
func (a *App) migrateLegacyConfig() bool {
	if a.config == nil || a.config.config == nil {
		return false
	}

	cfg := a.config.config
	if cfg.DefaultShell == "" {
		return false
	}

	// Only migrate to the current platform if it's not already set
	if a.getPlatformDefaultShell() == "" {
		a.setPlatformDefaultShell(cfg.DefaultShell)
		fmt.Printf("Migrated legacy shell '%s' to %s configuration\n", cfg.DefaultShell, getOSName())
	}

	// Clear the legacy field after migration either way
	cfg.DefaultShell = ""
	return true
}

// GetCurrentDefaultShellSetting returns the platform-specific default shell string from the configuration.
// This is intended for populating UI elements.
func (a *App) GetCurrentDefaultShellSetting() string {
	return a.getPlatformDefaultShell()
}

// GetTheme returns the configured theme preference
func (a *App) GetTheme() string {
	if a.config == nil || a.config.config == nil {
		return DefaultTheme
	}
	return a.config.config.Theme
}

// SetTheme updates the theme preference
func (a *App) SetTheme(theme string) error {
	valid := false
	for _, t := range AllowedThemes {
		if theme == t {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid theme: %s", theme)
	}

	if a.config.config.Theme != theme {
		a.config.config.Theme = theme
		a.markConfigDirty()
	}
	return nil
}

// GetProfilesPath returns the configured profiles directory path
func (a *App) GetProfilesPath() string {
	if a.config == nil || a.config.config == nil {
		return ""
	}
	return a.config.config.ProfilesPath
}

// SetProfilesPath updates the profiles directory path in the configuration and marks it dirty
func (a *App) SetProfilesPath(path string) error {
	if a.config == nil || a.config.config == nil {
		return fmt.Errorf("config not initialized, cannot set profiles path")
	}

	if a.config.config.ProfilesPath != path {
		a.config.config.ProfilesPath = path
		fmt.Printf("Profiles path updated to: %s\n", path)
		a.markConfigDirty()

		// Reload profiles from the new directory
		if err := a.LoadProfiles(); err != nil {
			fmt.Printf("Warning: Failed to reload profiles from new path: %v\n", err)
			// Don't return error here as the config update was successful
		} else {
			fmt.Println("Profiles reloaded from new directory")
		}
	}
	return nil
}
