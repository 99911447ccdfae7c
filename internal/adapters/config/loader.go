// Package config provides the configuration loader for stitch.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.trai.ch/stitch/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	// EnvPrefix prefixes every environment variable that overrides a config key.
	EnvPrefix = "STITCH"
	// PathEnvVar names an explicit config file, bypassing discovery.
	PathEnvVar = "STITCH_CONFIG"
)

// Loader implements ports.ConfigLoader on top of viper.
type Loader struct {
	getenv func(string) string
}

// NewLoader creates a new Loader reading the process environment.
func NewLoader() *Loader {
	return &Loader{getenv: os.Getenv}
}

// NewLoaderWithEnv creates a Loader reading variables through getenv.
func NewLoaderWithEnv(getenv func(string) string) *Loader {
	return &Loader{getenv: getenv}
}

// Load reads the configuration for cwd.
//
// The file named by STITCH_CONFIG wins. Otherwise the nearest stitch.yaml in cwd or one
// of its parents is used. Without a file the defaults apply. STITCH_* variables override
// individual keys either way, e.g. STITCH_REGISTRY_KIND or STITCH_LOG_TRACE.
func (l *Loader) Load(cwd string) (*domain.Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	baseDir := cwd
	path := l.getenv(PathEnvVar)
	if path == "" {
		path = findConfigFile(cwd)
	}
	if path != "" {
		if !filepath.IsAbs(path) {
			path = filepath.Join(cwd, path)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "file", path)
		}
		baseDir = filepath.Dir(path)
	}

	var file fileConfig
	if err := v.Unmarshal(&file); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrInvalidConfig.Error()), "file", path)
	}

	cfg := file.toDomain(baseDir)
	if err := cfg.Validate(); err != nil {
		if path != "" {
			return nil, zerr.With(err, "file", path)
		}
		return nil, err
	}
	return cfg, nil
}

// findConfigFile walks from cwd towards the root and returns the first stitch.yaml found.
func findConfigFile(cwd string) string {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return ""
		}
		currentDir = parentDir
	}
}
