// Package settings loads the CLI settings from flags, REDB_CONNECT_*
// environment variables, an optional settings file and an optional .env file.
package settings

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/redbco/redb-connect/pkg/catalog"
	"github.com/redbco/redb-connect/pkg/keyring"
	"github.com/redbco/redb-connect/pkg/logger"
)

const (
	ServiceName = "redb-connect"
	EnvPrefix   = "REDB_CONNECT"
)

// Settings is the resolved CLI configuration.
type Settings struct {
	Catalog     string        `mapstructure:"catalog"`
	EnvFile     string        `mapstructure:"env_file"`
	LogLevel    string        `mapstructure:"log_level"`
	LogFile     string        `mapstructure:"log_file"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Limit       int           `mapstructure:"limit"`
	KeyringPath string        `mapstructure:"keyring_path"`
	UseKeyring  bool          `mapstructure:"keyring"`
}

// Defaults registers the default values on v.
func Defaults(v *viper.Viper) {
	v.SetDefault("catalog", catalog.DefaultPath)
	v.SetDefault("env_file", ".env")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("limit", 100)
	v.SetDefault("keyring_path", keyring.GetDefaultKeyringPath())
	v.SetDefault("keyring", true)
}

// Load reads the settings file (when configFile is set), binds flags whose
// names match setting keys with dashes for underscores, and applies
// REDB_CONNECT_* overrides.
func Load(v *viper.Viper, configFile string, flags *pflag.FlagSet) (*Settings, error) {
	Defaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks value ranges.
func (s *Settings) Validate() error {
	if _, err := logger.ParseLevel(s.LogLevel); err != nil {
		return err
	}
	if s.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", s.Timeout)
	}
	if s.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", s.Limit)
	}
	return nil
}

// LoadEnvFile loads the .env file into the process environment without
// overriding variables that are already set. A missing default file is not
// an error; a missing file that was asked for explicitly is.
func (s *Settings) LoadEnvFile(explicit bool) error {
	if s.EnvFile == "" {
		return nil
	}
	if _, err := os.Stat(s.EnvFile); err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("env file %s: %w", s.EnvFile, err)
	}
	if err := godotenv.Load(s.EnvFile); err != nil {
		return fmt.Errorf("error loading env file %s: %w", s.EnvFile, err)
	}
	return nil
}

// NewLogger builds the CLI logger. Console output goes to stderr so that
// command output on stdout stays machine readable.
func (s *Settings) NewLogger(version string) (*logger.Logger, error) {
	level, err := logger.ParseLevel(s.LogLevel)
	if err != nil {
		return nil, err
	}
	log := logger.NewWithWriter(ServiceName, version, os.Stderr)
	log.SetLevel(level)
	if s.LogFile != "" {
		log.EnableFileOutput(s.LogFile, 10, 3, 28)
	}
	return log, nil
}

// Keyring opens the secret store used for ${keyring:service/user} placeholders.
func (s *Settings) Keyring() *keyring.KeyringManager {
	return keyring.NewKeyringManager(s.KeyringPath, keyring.GetMasterPasswordFromEnv(), 2*time.Second)
}

// Lookup returns the placeholder lookup: keyring references from the
// keyring, everything else from the environment.
func (s *Settings) Lookup() catalog.Lookup {
	if !s.UseKeyring {
		return os.LookupEnv
	}
	return keyring.Lookup(s.Keyring(), os.LookupEnv)
}
