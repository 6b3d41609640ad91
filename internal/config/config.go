// Package config resolves the tool's configuration once, at startup, and
// hands an explicit Config to every constructor that needs one. Nothing
// outside this package reads the config directory ambiently.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvConfigDir overrides the configuration directory lookup entirely.
const EnvConfigDir = "DATAPACK_CONFIG_DIR"

// Config is the resolved configuration threaded into builders and readers.
type Config struct {
	Dir            string // configuration directory
	ProfileDir     string // profile schema YAML files (<Dir>/profiles)
	CatalogPath    string // sqlite catalog location (<Dir>/catalog.db)
	DefaultProfile string // optional profile applied when none is given
}

// fileConfig is the shape of an optional <Dir>/config.yml.
type fileConfig struct {
	DefaultProfile string `yaml:"default_profile"`
	Catalog        struct {
		Path string `yaml:"path"`
	} `yaml:"catalog"`
}

// Resolve determines the configuration directory — explicit env override,
// else $XDG_CONFIG_HOME/datapack, else ~/.config/datapack — and applies any
// config.yml found there.
func Resolve() (Config, error) {
	dir := os.Getenv(EnvConfigDir)
	if dir == "" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			dir = filepath.Join(xdg, "datapack")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return Config{}, fmt.Errorf("resolve config dir: %w", err)
			}
			dir = filepath.Join(home, ".config", "datapack")
		}
	}
	cfg := Config{
		Dir:         dir,
		ProfileDir:  filepath.Join(dir, "profiles"),
		CatalogPath: filepath.Join(dir, "catalog.db"),
	}
	raw, err := os.ReadFile(filepath.Join(dir, "config.yml"))
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config.yml: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return Config{}, fmt.Errorf("parse config.yml: %w", err)
	}
	if fc.DefaultProfile != "" {
		cfg.DefaultProfile = fc.DefaultProfile
	}
	if fc.Catalog.Path != "" {
		cfg.CatalogPath = fc.Catalog.Path
	}
	return cfg, nil
}
