package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath names an explicit config file
	EnvConfigPath = "AUTOADOPT_CONFIG"
	// ConfigFileName is looked up in the working directory
	ConfigFileName = "autoadopt.yaml"
	// ConfigDirName is the directory under the user and system config roots
	ConfigDirName = "autoadopt"
)

// Location is one place a config file may live
type Location struct {
	Path string
	// Source names where the path came from: env, workdir, xdg, home or system
	Source string
}

// SearchPaths returns the config locations in lookup order:
//
//	$AUTOADOPT_CONFIG
//	./autoadopt.yaml
//	$XDG_CONFIG_HOME/autoadopt/config.yaml
//	~/.config/autoadopt/config.yaml
//	/etc/autoadopt/config.yaml
//
// Locations whose environment variable is unset are skipped.
func SearchPaths() []Location {
	var locs []Location
	if path := os.Getenv(EnvConfigPath); path != "" {
		locs = append(locs, Location{Path: path, Source: "env"})
	}

	workdir := ConfigFileName
	if abs, err := filepath.Abs(ConfigFileName); err == nil {
		workdir = abs
	}
	locs = append(locs, Location{Path: workdir, Source: "workdir"})

	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		locs = append(locs, Location{Path: filepath.Join(xdgHome, ConfigDirName, "config.yaml"), Source: "xdg"})
	}
	if home := os.Getenv("HOME"); home != "" {
		locs = append(locs, Location{Path: filepath.Join(home, ".config", ConfigDirName, "config.yaml"), Source: "home"})
	}
	return append(locs, Location{Path: filepath.Join("/etc", ConfigDirName, "config.yaml"), Source: "system"})
}

// FindConfigPath returns the first existing file from SearchPaths, or ""
func FindConfigPath() string {
	for _, loc := range SearchPaths() {
		if fileExists(loc.Path) {
			return loc.Path
		}
	}
	return ""
}

// DefaultConfigPath returns where a new config file is written. The
// explicit env path wins; otherwise the per-user location is preferred over
// the working directory and the system path is never chosen.
func DefaultConfigPath() string {
	rank := map[string]int{"env": 0, "xdg": 1, "home": 2, "workdir": 3}
	best, bestRank := ConfigFileName, len(rank)
	for _, loc := range SearchPaths() {
		if r, ok := rank[loc.Source]; ok && r < bestRank {
			best, bestRank = loc.Path, r
		}
	}
	return best
}

// EnsureConfigDir creates the directory holding configPath
func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0o755)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
