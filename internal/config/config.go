// Package config loads the credkit configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/n1/credkit/internal/secretstore"
)

// Store backends selectable by name.
const (
	StoreDefault  = "default"
	StoreMemory   = "memory"
	StoreKeyring  = "keyring"
	StoreSQLite   = "sqlite"
	StoreKeychain = "keychain"
)

// File is the on-disk configuration.
type File struct {
	Store         string `yaml:"store"`
	Database      string `yaml:"database"`
	Accessibility string `yaml:"accessibility"`
	Sync          string `yaml:"sync"`
	LogLevel      string `yaml:"log_level"`
}

// Options controls where Load looks.
type Options struct {
	// ConfigPath is an explicit file; it must exist when set.
	ConfigPath string
	// HomeDir overrides the user's home directory.
	HomeDir string
}

// Defaults returns the configuration used when no file exists.
func Defaults(homeDir string) File {
	return File{
		Store:    StoreDefault,
		Database: filepath.Join(homeDir, ".local", "share", "credkit", "credkit.db"),
		Sync:     "any",
		LogLevel: "warn",
	}
}

// DefaultPath is the configuration file read when none is given.
func DefaultPath(homeDir string) string {
	return filepath.Join(homeDir, ".config", "credkit", "config.yaml")
}

// Load reads the configuration and fills unset fields with defaults. It
// returns the path of the file read, or "" when none was found.
func Load(opts Options) (File, string, error) {
	if opts.HomeDir == "" {
		if hd, err := os.UserHomeDir(); err == nil {
			opts.HomeDir = hd
		}
	}
	cfg := Defaults(opts.HomeDir)

	path := opts.ConfigPath
	if path == "" {
		path = DefaultPath(opts.HomeDir)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && opts.ConfigPath == "" {
			return cfg, "", nil
		}
		return File{}, "", fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return File{}, "", fmt.Errorf("invalid config file '%s': %w", path, err)
	}
	cfg.merge(f)
	if err := cfg.Validate(); err != nil {
		return File{}, "", fmt.Errorf("invalid config file '%s': %w", path, err)
	}
	return cfg, path, nil
}

func (f *File) merge(o File) {
	if o.Store != "" {
		f.Store = o.Store
	}
	if o.Database != "" {
		f.Database = o.Database
	}
	if o.Accessibility != "" {
		f.Accessibility = o.Accessibility
	}
	if o.Sync != "" {
		f.Sync = o.Sync
	}
	if o.LogLevel != "" {
		f.LogLevel = o.LogLevel
	}
}

// Validate checks the enumerated fields.
func (f File) Validate() error {
	switch f.Store {
	case StoreDefault, StoreMemory, StoreKeyring, StoreSQLite, StoreKeychain:
	default:
		return fmt.Errorf("unknown store %q", f.Store)
	}
	if f.Store == StoreSQLite && f.Database == "" {
		return errors.New("sqlite store requires a database path")
	}
	if _, err := secretstore.ParseSync(f.Sync); err != nil {
		return err
	}
	if _, err := zerolog.ParseLevel(f.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", f.LogLevel, err)
	}
	return nil
}
