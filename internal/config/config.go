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

// Config is the typed view of the Opsdesk configuration.
type Config struct {
	Database struct {
		Type string `mapstructure:"type" yaml:"type"`
	} `mapstructure:"database" yaml:"database"`
	Incidents struct {
		DSN string `mapstructure:"dsn" yaml:"dsn"`
	} `mapstructure:"incidents" yaml:"incidents"`
	Cyber struct {
		DSN string `mapstructure:"dsn" yaml:"dsn"`
	} `mapstructure:"cyber" yaml:"cyber"`
	Tickets struct {
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"tickets" yaml:"tickets"`
	Admin struct {
		Username string `mapstructure:"username" yaml:"username"`
		Password string `mapstructure:"password" yaml:"password"`
	} `mapstructure:"admin" yaml:"admin"`
	Language string `mapstructure:"language" yaml:"language"`
	Debug    bool   `mapstructure:"debug" yaml:"debug"`
}

// getConfigPath returns the full path for the configuration file.
func getConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		// System-wide configuration paths
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Opsdesk")
		default: // Linux, macOS, etc.
			configDir = "/etc/opsdesk"
		}
	} else {
		// User-specific configuration paths
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "opsdesk")
	}

	return filepath.Join(configDir, "opsdesk.yaml"), nil
}

// LoadConfig builds the configuration from defaults, the opsdesk.yaml config
// file (user dir, system dir, CWD, or the --config override), OPSDESK_*
// environment variables, and bound CLI flags, in ascending precedence.
// flagBindings maps config keys to flag names for flags whose name does not
// match the key (like "database.type" backed by --db-type); those need an
// explicit per-key bind because BindPFlags registers flags under their own
// names only.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, flagBindings map[string]string, additionalConfigFilePath *string) (T, error) {
	var c T
	v := viper.New()

	// 1. Set defaults
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// 2. Set up file search (opsdesk.yaml)
	v.SetConfigName("opsdesk")
	v.SetConfigType("yaml")

	// 3. An explicit config file path has the highest precedence for
	// file-based configuration.
	if additionalConfigFilePath != nil && *additionalConfigFilePath != "" {
		v.SetConfigFile(*additionalConfigFilePath)
	}

	// 4. Add standard config locations
	if userConfigPath, err := getConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := getConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".") // Look for opsdesk.yaml in current dir

	// 5. Read in the primary config file.
	if err := v.ReadInConfig(); err != nil {
		// It's okay if the file is not found, but other errors are fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	// 6. Read from environment variables
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix("opsdesk")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 7. CLI flags
	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
		for key, name := range flagBindings {
			f := cmd.Flags().Lookup(name)
			if f == nil {
				f = cmd.PersistentFlags().Lookup(name)
			}
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return c, err
			}
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, nil
}

// WriteConfigFile persists c as YAML to the standard config location.
func WriteConfigFile[T any](c *T, system bool) error {
	path, err := getConfigPath(system)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	// 0600 since the file may contain the admin credential.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return err
	}

	return nil
}
