// Package config loads application configuration from flags, environment
// variables, and an optional passvault.yaml file.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ericfisherdev/passvault/internal/domain/model"
)

// EnvPrefix is prepended to every configuration key to form its environment
// variable name, e.g. PASSVAULT_ENCRYPTION_KEY.
const EnvPrefix = "PASSVAULT"

// Configuration keys.
const (
	KeyEncryptionKey   = "encryption_key"
	KeyListenAddr      = "listen_addr"
	KeyDBPath          = "db_path"
	KeyClientOrigin    = "client_origin"
	KeyPrincipalHeader = "principal_header"
	KeyLogLevel        = "log_level"
)

// encryptionKeyHexLen is the hex length of a 32-byte AES-256 key.
const encryptionKeyHexLen = 64

// flagNames maps configuration keys to the command-line flags that override them.
var flagNames = map[string]string{
	KeyListenAddr:      "listen-addr",
	KeyDBPath:          "db-path",
	KeyClientOrigin:    "client-origin",
	KeyPrincipalHeader: "principal-header",
	KeyLogLevel:        "log-level",
}

// Config holds the validated application configuration.
type Config struct {
	EncryptionKey   SecretKey `mapstructure:"encryption_key"`
	ListenAddr      string    `mapstructure:"listen_addr"`
	DBPath          string    `mapstructure:"db_path"`
	ClientOrigin    string    `mapstructure:"client_origin"`
	PrincipalHeader string    `mapstructure:"principal_header"`
	LogLevel        string    `mapstructure:"log_level"`
}

// Defaults returns the default value of every optional key.
func Defaults() map[string]any {
	return map[string]any{
		KeyEncryptionKey:   "",
		KeyListenAddr:      "127.0.0.1:8080",
		KeyDBPath:          "passvault.db",
		KeyClientOrigin:    "http://localhost:3000",
		KeyPrincipalHeader: "X-Authenticated-Principal",
		KeyLogLevel:        "info",
	}
}

// Load resolves configuration with precedence flag > environment > config
// file > default. flags may be nil; when it defines a "config" flag, that
// file is read instead of searching the standard locations.
//
// PASSVAULT_ENCRYPTION_KEY is required and must be 64 hex characters. Any
// problem with it yields model.ErrConfigurationFailure.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v, err := newViper(flags)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: decode config: %v", model.ErrConfigurationFailure, err)
	}

	cfg.EncryptionKey = SecretKey(strings.TrimSpace(string(cfg.EncryptionKey)))
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ListenAddr resolves only the listen address, with the same sources and
// precedence as Load. It does not read or validate the encryption key, so
// processes that never touch the vault, such as the container healthcheck,
// can locate the server.
func ListenAddr(flags *pflag.FlagSet) (string, error) {
	v, err := newViper(flags)
	if err != nil {
		return "", err
	}
	return v.GetString(KeyListenAddr), nil
}

// newViper layers defaults, the config file, PASSVAULT_* environment
// variables and flags.
func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetConfigName("passvault")
	v.SetConfigType("yaml")
	if path := configFileFlag(flags); path != "" {
		v.SetConfigFile(path)
	} else {
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "passvault"))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; a malformed one is not.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: read config file: %v", model.ErrConfigurationFailure, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range flagNames {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	return v, nil
}

func configFileFlag(flags *pflag.FlagSet) string {
	if flags == nil || flags.Lookup("config") == nil {
		return ""
	}
	path, err := flags.GetString("config")
	if err != nil {
		return ""
	}
	return path
}

func (c *Config) validate() error {
	envName := EnvPrefix + "_" + strings.ToUpper(KeyEncryptionKey)

	switch {
	case c.EncryptionKey == "":
		return fmt.Errorf("%w: %s is required", model.ErrConfigurationFailure, envName)
	case len(c.EncryptionKey) != encryptionKeyHexLen:
		return fmt.Errorf("%w: %s must be %d hex characters, got %d",
			model.ErrConfigurationFailure, envName, encryptionKeyHexLen, len(c.EncryptionKey))
	}
	if _, err := hex.DecodeString(string(c.EncryptionKey)); err != nil {
		return fmt.Errorf("%w: %s is not valid hex", model.ErrConfigurationFailure, envName)
	}

	if _, err := c.SlogLevel(); err != nil {
		return fmt.Errorf("%w: %s_%s: %v", model.ErrConfigurationFailure, EnvPrefix, strings.ToUpper(KeyLogLevel), err)
	}

	if strings.TrimSpace(c.PrincipalHeader) == "" {
		return fmt.Errorf("%w: %s_%s must not be empty", model.ErrConfigurationFailure, EnvPrefix, strings.ToUpper(KeyPrincipalHeader))
	}

	return nil
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, err
	}
	return level, nil
}
