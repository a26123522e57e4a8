package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bulbctl/bulbctl/internal/control"
	"github.com/bulbctl/bulbctl/internal/discovery"
)

const (
	appName    = "bulbctl"
	configFile = "config.yaml"

	// CurrentVersion is the settings file format version
	CurrentVersion = 1
)

// Settings represents the entire settings file
type Settings struct {
	Version   int              `yaml:"version"`
	Discovery discovery.Config `yaml:"discovery"`
	Control   ControlSettings  `yaml:"control"`
	LogLevel  string           `yaml:"log_level,omitempty"` // Overridden by --log-level and BULBCTL_LOG_LEVEL
}

// ControlSettings configures the control exchange
type ControlSettings struct {
	Timeout    time.Duration `yaml:"timeout"`     // Bound on each of connect, write and read (0 = none)
	BufferSize int           `yaml:"buffer_size"` // Maximum reply size read
}

// NewSettings creates Settings with default values
func NewSettings() *Settings {
	return &Settings{
		Version:   CurrentVersion,
		Discovery: discovery.DefaultConfig(),
		Control: ControlSettings{
			Timeout:    control.DefaultTimeout,
			BufferSize: control.DefaultBufferSize,
		},
	}
}

// Validate checks the settings for unusable values
func (s *Settings) Validate() error {
	if s.Version > CurrentVersion {
		return fmt.Errorf("settings version %d is newer than supported version %d", s.Version, CurrentVersion)
	}
	if err := s.Discovery.Validate(); err != nil {
		return fmt.Errorf("discovery: %w", err)
	}
	if s.Control.Timeout < 0 {
		return fmt.Errorf("control: timeout must not be negative")
	}
	if s.Control.BufferSize <= 0 {
		return fmt.Errorf("control: buffer size must be positive")
	}
	return nil
}

// NewControlClient creates a control client configured from the settings
func (s *Settings) NewControlClient() *control.Client {
	client := control.NewClient()
	client.Timeout = s.Control.Timeout
	client.BufferSize = s.Control.BufferSize
	return client
}

// GetConfigDir returns the OS-appropriate configuration directory for the application.
//   - Linux: $XDG_CONFIG_HOME/bulbctl or $HOME/.config/bulbctl
//   - macOS: $HOME/.config/bulbctl
//   - Windows: %LOCALAPPDATA%\bulbctl
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the default settings file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Load reads settings from path, or from the default location when path is
// empty. A missing file yields the defaults.
func Load(path string) (*Settings, error) {
	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}

	settings := NewSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if settings.Version == 0 {
		settings.Version = CurrentVersion
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return settings, nil
}

// Save writes the settings to path, or to the default location when path
// is empty. The write is atomic (temporary file + rename).
func (s *Settings) Save(path string) error {
	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
	}

	// User-only permissions
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := s.Marshal()
	if err != nil {
		return err
	}

	header := []byte(`# bulbctl settings
# Durations use Go syntax, e.g. 1200ms or 5s.
#
# Location: ` + path + `

`)
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// Marshal renders the settings as YAML
func (s *Settings) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
