/*
Package config manages TOML config for the spellbroker runtime.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/spellbroker/spellbroker/internal/utils"
)

// ConfigDirEnv overrides config directory discovery when set.
const ConfigDirEnv = "SPELLBROKER_CONFIG_DIR"

// Config holds the entire config structure.
type Config struct {
	Broker  BrokerConfig  `toml:"broker"`
	Suggest SuggestConfig `toml:"suggest"`
	Server  ServerConfig  `toml:"server"`
}

// BrokerConfig has broker and word-list location options.
type BrokerConfig struct {
	// UserConfigDir holds personal/exclude word lists and the user's
	// ordering file. Empty means discover via GetConfigDir.
	UserConfigDir string `toml:"user_config_dir"`
	// SystemConfigDir holds the system-wide ordering file.
	SystemConfigDir string `toml:"system_config_dir"`
	// DictDir is where the wordlist provider looks for <tag>.txt files.
	DictDir string `toml:"dict_dir"`
}

// SuggestConfig tunes suggestion output.
type SuggestConfig struct {
	// MaxSuggestions caps how many suggestions a server response carries.
	// 0 means unlimited.
	MaxSuggestions int `toml:"max_suggestions"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	MaxWordLen int `toml:"max_word_len"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. SPELLBROKER_CONFIG_DIR environment override
// 2. ~/.config/spellbroker
// 3. Current executable dir
func GetConfigDir() (string, error) {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		if result := utils.CheckDirStatus(dir); result.Writable {
			return dir, nil
		}
		log.Warnf("Config dir from %s is not writable: %s", ConfigDirEnv, dir)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", "spellbroker")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml.
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [ConfigDir]/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err == nil {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using builtin defaults...", err)
		return DefaultConfig(), "", nil
	}
	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values. Directory fields are
// left empty and resolved lazily against GetConfigDir.
func DefaultConfig() *Config {
	return &Config{
		Broker: BrokerConfig{
			SystemConfigDir: "/usr/share/spellbroker",
		},
		Suggest: SuggestConfig{
			MaxSuggestions: 15,
		},
		Server: ServerConfig{
			MaxWordLen: 128,
		},
	}
}

// InitConfig loads config from file or creates default if missing.
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using builtin defaults...", configDir, err)
		return DefaultConfig(), nil
	}
	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using builtin defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}
	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using builtin defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file, layering the file over defaults so a
// partial config keeps builtin values for everything it omits.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig writes the config to a TOML file.
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// ResolveUserConfigDir returns the directory for the user's word lists and
// ordering file, honoring an explicit setting before discovery.
func (c *Config) ResolveUserConfigDir() (string, error) {
	if c.Broker.UserConfigDir != "" {
		if err := utils.EnsureDir(c.Broker.UserConfigDir); err != nil {
			return "", err
		}
		return c.Broker.UserConfigDir, nil
	}
	return GetConfigDir()
}
