// config.go: settings struct and functions to load and save the
// RetroView configuration.
package conf

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// MainSettings contains application-wide settings.
type MainSettings struct {
	Name string // name of this node, used in log files
	Log  LogSettings
}

// LogSettings contains settings for application logging.
type LogSettings struct {
	Enabled bool   // true to enable file logging
	Path    string // path to log file
	Debug   bool   // true to log at debug level
}

// StoreSettings contains settings for the card store.
type StoreSettings struct {
	Path string // path to the SQLite store file
}

// ImportSettings contains settings for batch metadata import.
type ImportSettings struct {
	ChunkSize   int      // number of files processed per chunk
	Concurrency int      // concurrent file imports within a chunk
	Extensions  []string // recognized metadata file extensions
}

// ImageServiceSettings contains settings for the remote image service.
type ImageServiceSettings struct {
	BaseURL        string  // image service endpoint
	TimeoutSeconds int     // per-request timeout
	RatePerSecond  float64 // request rate limit
	Concurrency    int     // concurrent fetch/decode operations
	FailureTTLMin  int     // minutes a failed fetch is suppressed before retry
}

// CacheSettings contains settings for the tiered image cache.
type CacheSettings struct {
	MemoryLimitBytes int64  // in-memory cache budget
	DiskPath         string // disk cache directory
	ThumbnailSize    int    // thumbnail long-edge in pixels
	Concurrency      int    // concurrent thumbnail generations
}

// ArchiveSettings contains settings for store snapshots.
type ArchiveSettings struct {
	StagingPath string // directory where pending archive imports are staged
}

// Settings contains all application settings.
type Settings struct {
	Debug bool // true to enable debug mode

	Main         MainSettings
	Store        StoreSettings
	Import       ImportSettings
	ImageService ImageServiceSettings
	Cache        CacheSettings
	Archive      ArchiveSettings
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a
// Settings instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Set default values for each configuration parameter,
	// function defined in defaults.go
	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, continue with defaults and write one
			// out so the user has something to edit.
			return createDefaultConfig(configPaths[0])
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the current (default) settings to configDir.
func createDefaultConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return fmt.Errorf("error unmarshaling defaults: %w", err)
	}
	if err := SaveYAMLConfig(configPath, settings); err != nil {
		return err
	}

	log.Printf("Created default config file at %s", configPath)
	return nil
}

// GetDefaultConfigPaths returns the config search paths in priority order:
// current directory first, then the user config directory.
func GetDefaultConfigPaths() ([]string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("error resolving user config dir: %w", err)
	}
	return []string{
		".",
		filepath.Join(userConfigDir, "retroview"),
	}, nil
}

// Setting returns the current settings instance, initializing it if necessary
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}

// GetSettings returns the current settings instance.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SaveYAMLConfig writes settings to configPath atomically via a temp file.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temp config file: %w", err)
	}
	tempName := tempFile.Name()

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		os.Remove(tempName)
		return fmt.Errorf("error writing temp config file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("error closing temp config file: %w", err)
	}

	if err := os.Rename(tempName, configPath); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("error replacing config file: %w", err)
	}
	return nil
}

// SidecarPaths returns the WAL and SHM sidecar paths for the configured
// store file.
func (s *StoreSettings) SidecarPaths() []string {
	return []string{s.Path + "-wal", s.Path + "-shm"}
}
