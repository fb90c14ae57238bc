package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	// ClaudeRoot is the Claude home holding projects/, used when import is
	// given no path.
	ClaudeRoot string `toml:"claude_root"`
	// CoworkRoots replace the well-known locations searched in auto mode.
	CoworkRoots []string `toml:"cowork_roots"`
	DBPath      string   `toml:"db_path"`
	LogLevel    string   `toml:"log_level"`
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(filepath.Join(home, ".config", "ais", "config.toml"), home)
}

// LoadFrom reads cfgPath over the defaults for home. A missing file leaves
// the defaults in place.
func LoadFrom(cfgPath, home string) (*Config, error) {
	cfg := &Config{
		ClaudeRoot: filepath.Join(home, ".claude"),
		DBPath:     filepath.Join(home, ".config", "ais", "ais.db"),
		LogLevel:   "warn",
	}

	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	// expand ~ in paths
	cfg.ClaudeRoot = expandHome(cfg.ClaudeRoot, home)
	cfg.DBPath = expandHome(cfg.DBPath, home)
	for i, r := range cfg.CoworkRoots {
		cfg.CoworkRoots[i] = expandHome(r, home)
	}

	return cfg, nil
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
