// Package config resolves which backend the CLI connects to.
//
// Each setting is taken from the first source that provides it:
//
//  1. command-line flags
//  2. environment variables (SAILORS_DRIVER, SAILORS_DSN)
//  3. a .env file (./.env unless another file is named)
//  4. defaults: the sqlite3 driver with the file sailors.db
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"

	"github.com/roach88/sailors/internal/store"
)

// Environment variables read by Load.
const (
	EnvDriver = "SAILORS_DRIVER"
	EnvDSN    = "SAILORS_DSN"
)

// Defaults used when no source sets a value.
const (
	DefaultDriver  = store.DriverSQLite
	DefaultDSN     = "sailors.db"
	DefaultEnvFile = ".env"
)

// Flags holds the values given on the command line. Empty means unset.
type Flags struct {
	Driver string
	DSN    string

	// EnvFile names the .env file. When set, the file must exist; the
	// default ./.env is skipped silently when absent.
	EnvFile string
}

// Config is the resolved backend configuration.
type Config struct {
	Driver string
	DSN    string
}

// Store returns the store configuration.
func (c Config) Store() store.Config {
	return store.Config{Driver: c.Driver, DSN: c.DSN}
}

// Load resolves the configuration. The process environment is read but
// never modified; values from the .env file only fill gaps.
func Load(f Flags) (Config, error) {
	file, err := readEnvFile(f.EnvFile)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Driver: firstSet(f.Driver, os.Getenv(EnvDriver), file[EnvDriver], DefaultDriver),
		DSN:    firstSet(f.DSN, os.Getenv(EnvDSN), file[EnvDSN], DefaultDSN),
	}

	if !slices.Contains(store.Drivers(), cfg.Driver) {
		return Config{}, fmt.Errorf("%w %q (supported: %s)",
			store.ErrUnknownDriver, cfg.Driver, strings.Join(store.Drivers(), ", "))
	}
	return cfg, nil
}

func readEnvFile(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return values, nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
