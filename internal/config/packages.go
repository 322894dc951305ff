package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed packages.toml
var defaultPackagesTOML string

// Packages holds the system and Python package sets installed by the
// dependency and Python-environment stages.
type Packages struct {
	Apt struct {
		Packages []string `toml:"packages"`
	} `toml:"apt"`
	Pip struct {
		Packages []string `toml:"packages"`
	} `toml:"pip"`
}

// DefaultPackages returns the embedded manifest.
func DefaultPackages() (Packages, error) {
	var pkgs Packages
	if _, err := toml.Decode(defaultPackagesTOML, &pkgs); err != nil {
		return pkgs, fmt.Errorf("parsing embedded packages.toml: %w", err)
	}
	return pkgs, nil
}

// LoadPackages returns the manifest from the given path, or the embedded
// default when path is empty.
func LoadPackages(path string) (Packages, error) {
	if path == "" {
		return DefaultPackages()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Packages{}, fmt.Errorf("reading packages manifest: %w", err)
	}

	var pkgs Packages
	if _, err := toml.Decode(string(data), &pkgs); err != nil {
		return pkgs, fmt.Errorf("parsing %s: %w", path, err)
	}
	return pkgs, nil
}
