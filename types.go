package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aymanbagabas/go-pty"
	"github.com/pkg/sftp" // Import for SFTP client
)

// Strongly-typed IDs for type safety
type SessionID string
type ProfileID string
type TabID string

// Connection status constants
type ConnectionStatus int

const (
	StatusConnecting ConnectionStatus = iota
	StatusConnected
	StatusFailed
	StatusDisconnected
)

// String representation for JSON serialization
func (cs ConnectionStatus) String() string {
	switch cs {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusFailed:
		return "failed"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Profile type constants
const (
	ProfileTypeLocal = "local"
	ProfileTypeSSH   = "ssh"
)

// Connection type constants
const (
	ConnectionTypeLocal = "local"
	ConnectionTypeSSH   = "ssh"
)

// Profile update type constants
const (
	ProfileUpdateCreated  = "created"
	ProfileUpdateModified = "modified"
	ProfileUpdateDeleted  = "deleted"
)

// Resource limits
const (
	MaxSessions    = 50
	MaxProfiles    = 1000
	MaxFileHistory = 100

	// Collection size limits for infrastructure
	MaxSSHSessions = 25
	MaxSFTPClients = 25
)

// Validation interface for type validation
type Validator interface {
	Validate() error
}

// Cleanup interface for resource management
type Cleanup interface {
	Close() error
}

// String methods for typed IDs to maintain compatibility
func (s SessionID) String() string {
	return string(s)
}

func (p ProfileID) String() string {
	return string(p)
}

func (t TabID) String() string {
	return string(t)
}

// Manager structs for focused responsibilities

// TerminalManager handles terminal sessions and tabs
type TerminalManager struct {
	sessions        map[string]*TerminalSession
	tabs            map[string]*Tab
	activeTabId     string
	mutex           sync.RWMutex
	resourceManager *ResourceManager
}

// ActiveTab returns the tab currently driving the terminal view, or nil.
func (tm *TerminalManager) ActiveTab() *Tab {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	if tm.activeTabId == "" {
		return nil
	}
	return tm.tabs[tm.activeTabId]
}

// ProfileManager handles connection profiles and their remote file history
type ProfileManager struct {
	profiles        map[string]*Profile
	profileWatcher  *ProfileWatcher
	fileHistory     map[string]*FileHistoryStore // keyed by profile ID
	mutex           sync.RWMutex
	resourceManager *ResourceManager
}

// SSHManager handles SSH connections and SFTP operations
type SSHManager struct {
	sshSessions      map[string]*SSHSession
	sftpClients      map[string]*sftp.Client
	sshSessionsMutex sync.RWMutex // Dedicated mutex for SSH sessions
	sftpClientsMutex sync.RWMutex
	transfers        map[string]*TransferState
	transfersMutex   sync.RWMutex
	resourceManager  *ResourceManager
}

// ConfigManager handles application configuration
type ConfigManager struct {
	config          *AppConfig
	configDirty     bool
	debounceTimer   *time.Timer
	mutex           sync.RWMutex
	resourceManager *ResourceManager
}

// App struct represents the main application with focused managers
type App struct {
	ctx             context.Context
	terminal        *TerminalManager
	profiles        *ProfileManager
	ssh             *SSHManager
	config          *ConfigManager
	explorer        *ExplorerCoordinator
	transfers       *TransferAggregator
	elevation       *ElevationPolicy
	openElevated    *elevatedReads
	resourceManager *ResourceManager
	mutex           sync.RWMutex
}

// Close implements the Cleanup interface for App
func (a *App) Close() error {
	// Stop all managers in reverse order
	if a.profiles != nil && a.profiles.resourceManager != nil {
		a.profiles.resourceManager.Cleanup()
	}
	if a.terminal != nil && a.terminal.resourceManager != nil {
		a.terminal.resourceManager.Cleanup()
	}
	if a.ssh != nil && a.ssh.resourceManager != nil {
		a.ssh.resourceManager.Cleanup()
	}
	if a.config != nil && a.config.resourceManager != nil {
		a.config.resourceManager.Cleanup()
	}
	if a.resourceManager != nil {
		a.resourceManager.Cleanup()
	}
	return nil
}

// TerminalSession represents a PTY session (exactly like VS Code)
type TerminalSession struct {
	pty      pty.Pty
	cmd      *pty.Cmd
	done     chan bool
	closed   chan bool
	cols     int
	rows     int
	cleaning int32 // Using atomic int32 for thread-safe access
}

// requestClose atomically sets the session as closing
func (ts *TerminalSession) requestClose() {
	atomic.StoreInt32(&ts.cleaning, 1)
}

// isClosing atomically checks if the session is closing
func (ts *TerminalSession) isClosing() bool {
	return atomic.LoadInt32(&ts.cleaning) == 1
}

// Close implements the Cleanup interface for TerminalSession
func (ts *TerminalSession) Close() error {
	if ts.isClosing() {
		return nil // Already cleaning
	}
	ts.requestClose()

	if ts.pty != nil {
		ts.pty.Close()
	}
	if ts.cmd != nil && ts.cmd.Process != nil {
		ts.cmd.Process.Kill()
	}

	// Close channels if they exist
	if ts.done != nil {
		close(ts.done)
	}
	if ts.closed != nil {
		close(ts.closed)
	}

	return nil
}

// Tab represents a terminal tab
type Tab struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	SessionID      string     `json:"sessionId"`
	Shell          string     `json:"shell"`
	IsActive       bool       `json:"isActive"`
	ConnectionType string     `json:"connectionType"` // "local" or "ssh"
	SSHConfig      *SSHConfig `json:"sshConfig,omitempty"`
	ProfileID      string     `json:"profileId,omitempty"` // ID of the profile this tab was created from
	Created        time.Time  `json:"created"`
	Status         string     `json:"status"`                 // "connecting", "connected", "failed", "disconnected"
	ErrorMessage   string     `json:"errorMessage,omitempty"` // Store error details for failed connections
}

// Validate implements the Validator interface for Tab
func (t *Tab) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("tab ID cannot be empty")
	}
	if t.Title == "" {
		return fmt.Errorf("tab title cannot be empty")
	}
	if t.SessionID == "" {
		return fmt.Errorf("tab session ID cannot be empty")
	}
	if t.ConnectionType != ConnectionTypeLocal && t.ConnectionType != ConnectionTypeSSH {
		return fmt.Errorf("invalid connection type: %s", t.ConnectionType)
	}
	if t.ConnectionType == ConnectionTypeSSH && t.SSHConfig == nil {
		return fmt.Errorf("SSH config required for SSH connection type")
	}
	return nil
}

// isRemoteCapable reports whether this tab can back a remote explorer
// session: a connected SSH tab. Local and disconnected tabs cannot.
func (t *Tab) isRemoteCapable() bool {
	return t != nil && t.ConnectionType == ConnectionTypeSSH && t.Status == StatusConnected.String()
}

// SSHConfig represents SSH connection configuration
type SSHConfig struct {
	Host                  string `json:"host"`
	Port                  int    `json:"port"`
	Username              string `json:"username"`
	Password              string `json:"password,omitempty"`              // Optional, prefer key auth
	KeyPath               string `json:"keyPath,omitempty"`               // Path to SSH private key
	AllowKeyAutoDiscovery bool   `json:"allowKeyAutoDiscovery,omitempty"` // Allow automatic SSH key discovery
}

// Validate implements the Validator interface for SSHConfig
func (ssh *SSHConfig) Validate() error {
	if ssh.Host == "" {
		return fmt.Errorf("SSH host cannot be empty")
	}
	if ssh.Port <= 0 || ssh.Port > 65535 {
		return fmt.Errorf("SSH port must be between 1 and 65535, got: %d", ssh.Port)
	}
	if ssh.Username == "" {
		return fmt.Errorf("SSH username cannot be empty")
	}
	return nil
}

// FileHistoryEntry represents a file access history entry
type FileHistoryEntry struct {
	Path          string    `yaml:"path" json:"path"`                    // Full remote file path
	FileName      string    `yaml:"file_name" json:"fileName"`           // File name for display
	AccessCount   int       `yaml:"access_count" json:"accessCount"`     // Number of times accessed
	FirstAccessed time.Time `yaml:"first_accessed" json:"firstAccessed"` // First time this file was accessed
	LastAccessed  time.Time `yaml:"last_accessed" json:"lastAccessed"`   // Most recent access time
}

// Profile represents a terminal profile configuration
type Profile struct {
	ID           string              `yaml:"id" json:"id"`
	Name         string              `yaml:"name" json:"name"`
	Icon         string              `yaml:"icon" json:"icon"`
	Type         string              `yaml:"type" json:"type"` // "local" or "ssh"
	Shell        string              `yaml:"shell" json:"shell"`
	WorkingDir   string              `yaml:"working_dir" json:"workingDir"`
	SSHConfig    *SSHConfig          `yaml:"ssh_config,omitempty" json:"sshConfig,omitempty"`
	SortOrder    int                 `yaml:"sort_order" json:"sortOrder"`
	Created      time.Time           `yaml:"created" json:"created"`
	LastModified time.Time           `yaml:"last_modified" json:"lastModified"`
	LastUsed     time.Time           `yaml:"last_used,omitempty" json:"lastUsed,omitempty"`       // For MRU sorting
	UsageCount   int                 `yaml:"usage_count,omitempty" json:"usageCount,omitempty"`   // For popularity sorting
	FileHistory  []*FileHistoryEntry `yaml:"file_history,omitempty" json:"fileHistory,omitempty"` // Remote file access history
}

// Validate implements the Validator interface for Profile
func (p *Profile) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("profile ID cannot be empty")
	}
	if p.Name == "" {
		return fmt.Errorf("profile name cannot be empty")
	}
	if p.Type != ProfileTypeLocal && p.Type != ProfileTypeSSH {
		return fmt.Errorf("invalid profile type: %s", p.Type)
	}
	if p.Type == ProfileTypeSSH && p.SSHConfig != nil {
		if err := p.SSHConfig.Validate(); err != nil {
			return fmt.Errorf("invalid SSH config: %w", err)
		}
	}
	if len(p.FileHistory) > MaxFileHistory {
		return fmt.Errorf("too many file history entries: %d, maximum allowed: %d", len(p.FileHistory), MaxFileHistory)
	}
	return nil
}

// ProfileWatcher handles file system watching for profile changes
type ProfileWatcher struct {
	watchDir      string
	stopChan      chan bool
	doneChan      chan struct{}
	debounceTimer *time.Timer
	debounceMutex sync.Mutex
}

// RemoteFileEntry represents a file or directory entry on a remote SFTP server.
type RemoteFileEntry struct {
	Name          string    `json:"name"`                    // Name of the file or directory
	Path          string    `json:"path"`                    // Full remote path
	IsDir         bool      `json:"isDir"`                   // True if this entry is a directory
	IsSymlink     bool      `json:"isSymlink"`               // True if this entry is a symbolic link
	SymlinkTarget string    `json:"symlinkTarget,omitempty"` // Target path if IsSymlink is true
	Size          int64     `json:"size"`                    // Size in bytes
	Mode          string    `json:"mode"`                    // File mode string (e.g., "drwxr-xr-x")
	ModifiedTime  time.Time `json:"modifiedTime"`            // Last modification time
}

// Config constants
const (
	ConfigFileName  = "config.yaml"
	ConfigDirName   = "Skiff"
	ProfilesDirName = "Profiles"
	DebounceDelay   = 1 * time.Second
	ConfigFileMode  = 0600
	ConfigDirMode   = 0750
)

// NewApp creates a new App application struct with manager components
func NewApp() *App {
	// Create main resource manager
	mainRM := NewResourceManager()

	// Create terminal manager with resource management
	terminalRM := NewResourceManager()
	terminal := &TerminalManager{
		sessions:        make(map[string]*TerminalSession),
		tabs:            make(map[string]*Tab),
		activeTabId:     "",
		resourceManager: terminalRM,
	}
	mainRM.Register(terminal.resourceManager)

	// Create profile manager with resource management
	profileRM := NewResourceManager()
	profiles := &ProfileManager{
		profiles:        make(map[string]*Profile),
		fileHistory:     make(map[string]*FileHistoryStore),
		resourceManager: profileRM,
	}
	mainRM.Register(profiles.resourceManager)

	// Create SSH manager with resource management
	sshRM := NewResourceManager()
	ssh := &SSHManager{
		sshSessions:     make(map[string]*SSHSession),
		sftpClients:     make(map[string]*sftp.Client),
		transfers:       make(map[string]*TransferState),
		resourceManager: sshRM,
	}
	mainRM.Register(ssh.resourceManager)

	// Create config manager with resource management
	configRM := NewResourceManager()
	config := &ConfigManager{
		config:          DefaultConfig(),
		resourceManager: configRM,
	}
	mainRM.Register(config.resourceManager)

	// Create the app
	app := &App{
		terminal:        terminal,
		profiles:        profiles,
		ssh:             ssh,
		config:          config,
		resourceManager: mainRM,
	}

	// Explorer core wiring: the app's SFTP layer serves remote listings, the
	// terminal manager reports the active tab, and results go out as events.
	app.explorer = NewExplorerCoordinator(app, terminal, &wailsExplorerEvents{app: app})
	app.elevation = NewElevationPolicy(&wailsElevationPrompt{app: app})
	app.openElevated = newElevatedReads()
	app.transfers = NewTransferAggregator(
		app.emitAggregateProgress,
		app.handleBatchFinished,
		app.abortActiveTransfer,
	)

	return app
}

// ResourceManager handles overall resource lifecycle
type ResourceManager struct {
	resources []Cleanup
	mutex     sync.Mutex
}

// NewResourceManager creates a new resource manager
func NewResourceManager() *ResourceManager {
	return &ResourceManager{
		resources: make([]Cleanup, 0),
	}
}

// Register adds a resource for lifecycle management
func (rm *ResourceManager) Register(resource Cleanup) {
	rm.mutex.Lock()
	defer rm.mutex.Unlock()
	rm.resources = append(rm.resources, resource)
}

// Cleanup closes all registered resources
func (rm *ResourceManager) Cleanup() error {
	rm.mutex.Lock()
	defer rm.mutex.Unlock()

	var lastError error
	for _, resource := range rm.resources {
		if err := resource.Close(); err != nil {
			lastError = err
		}
	}
	rm.resources = rm.resources[:0]
	return lastError
}

// Close implements the Cleanup interface for ResourceManager
func (rm *ResourceManager) Close() error {
	return rm.Cleanup()
}
