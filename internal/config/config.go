// Copyright (c) 2025 ToeiRei
// Lockbox - encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// package config resolves where the vault files live. It reads an optional
// lockbox.yaml via Viper, layered under environment variables and CLI
// flags; on first run it creates the storage directory and writes a default
// config file so the paths are discoverable.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config holds everything the CLI needs to construct a vault session.
type Config struct {
	Storage  StorageConfig `mapstructure:"storage" yaml:"storage"`
	Language string        `mapstructure:"language" yaml:"language"`
	Debug    bool          `mapstructure:"debug" yaml:"debug"`
}

// StorageConfig locates the persisted vault files.
type StorageConfig struct {
	// Database is the SQLite file holding the credential table.
	Database string `mapstructure:"database" yaml:"database"`
	// PasswordFile holds the bcrypt digest of the master password.
	PasswordFile string `mapstructure:"password_file" yaml:"password_file"`
}

// LockPath returns the session lock file, placed next to the database.
func (s StorageConfig) LockPath() string {
	return filepath.Join(filepath.Dir(s.Database), "lockbox.lock")
}

// DefaultStorageDir returns the directory holding the vault files when the
// user has not configured one (~/.lockbox).
func DefaultStorageDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".lockbox"), nil
}

// getConfigPath returns the full path for the configuration file.
func getConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Lockbox")
		default: // Linux, macOS, etc.
			configDir = "/etc/lockbox"
		}
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "lockbox")
	}

	return filepath.Join(configDir, "lockbox.yaml"), nil
}

// Defaults returns the default settings map fed into Viper.
func Defaults() (map[string]any, error) {
	storageDir, err := DefaultStorageDir()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"storage.database":      filepath.Join(storageDir, "lockbox.db"),
		"storage.password_file": filepath.Join(storageDir, "lockbox.key"),
		"language":              "en",
		"debug":                 false,
	}, nil
}

// LoadConfig builds the effective configuration from defaults, the config
// file, LOCKBOX_* environment variables, and the command's flags, in
// ascending precedence.
func LoadConfig(cmd *cobra.Command, explicitConfigFile string) (Config, error) {
	var c Config
	v := viper.New()

	defaults, err := Defaults()
	if err != nil {
		return c, err
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("lockbox")
	v.SetConfigType("yaml")

	// An explicit --config path has the highest precedence for file-based
	// configuration.
	if explicitConfigFile != "" {
		v.SetConfigFile(explicitConfigFile)
	}

	if userConfigPath, err := getConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := getConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; anything else is fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix("lockbox")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return c, err
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, nil
}

// EnsureStorage creates the directories for the database and password file
// if they do not exist yet.
func EnsureStorage(c Config) error {
	for _, p := range []string{c.Storage.Database, c.Storage.PasswordFile} {
		dir := filepath.Dir(p)
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("could not create storage directory %s: %w", dir, err)
		}
	}
	return nil
}

// WriteConfigFile persists the configuration as YAML to the user (or
// system) config location, creating the directory when needed.
func WriteConfigFile(c *Config, system bool) error {
	path, err := getConfigPath(system)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	// 0600 because the file names the vault's key material locations.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}

	return nil
}

// ConfigFileExists reports whether a user or system config file is present.
func ConfigFileExists() bool {
	for _, system := range []bool{false, true} {
		if path, err := getConfigPath(system); err == nil {
			if _, err := os.Stat(path); err == nil {
				return true
			}
		}
	}
	return false
}
