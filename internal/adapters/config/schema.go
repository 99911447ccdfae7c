package config

import (
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/viper"
	"go.trai.ch/stitch/internal/core/domain"
)

// fileConfig mirrors the layout of stitch.yaml.
type fileConfig struct {
	Registry struct {
		Kind    string        `mapstructure:"kind"`
		Path    string        `mapstructure:"path"`
		URL     string        `mapstructure:"url"`
		Timeout time.Duration `mapstructure:"timeout"`
		S3      struct {
			Bucket          string `mapstructure:"bucket"`
			Prefix          string `mapstructure:"prefix"`
			Region          string `mapstructure:"region"`
			Endpoint        string `mapstructure:"endpoint"`
			AccessKeyID     string `mapstructure:"access_key_id"`
			SecretAccessKey string `mapstructure:"secret_access_key"`
		} `mapstructure:"s3"`
		Cache struct {
			Enabled bool          `mapstructure:"enabled"`
			Dir     string        `mapstructure:"dir"`
			TTL     time.Duration `mapstructure:"ttl"`
		} `mapstructure:"cache"`
	} `mapstructure:"registry"`

	Resolver struct {
		Concurrency int `mapstructure:"concurrency"`
	} `mapstructure:"resolver"`

	Conventions struct {
		CanonicalPrefix string `mapstructure:"canonical_prefix"`
		RawPattern      string `mapstructure:"raw_pattern"`
		ReservedSegment string `mapstructure:"reserved_segment"`
		ComponentsDir   string `mapstructure:"components_dir"`
		Extension       string `mapstructure:"extension"`
		EntryPath       string `mapstructure:"entry_path"`
	} `mapstructure:"conventions"`

	// Baseline manifests are lists of "name@version" strings. Package names may contain
	// dots, which viper would otherwise split into nested keys.
	Baseline struct {
		Dependencies    []string `mapstructure:"dependencies"`
		DevDependencies []string `mapstructure:"dev_dependencies"`
	} `mapstructure:"baseline"`

	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`

	Log struct {
		Format string `mapstructure:"format"`
		Trace  bool   `mapstructure:"trace"`
	} `mapstructure:"log"`
}

// setDefaults registers every key so that environment overrides apply to all of them.
func setDefaults(v *viper.Viper) {
	d := domain.DefaultConfig()

	v.SetDefault("registry.kind", string(d.Registry.Kind))
	v.SetDefault("registry.path", d.Registry.Path)
	v.SetDefault("registry.url", d.Registry.URL)
	v.SetDefault("registry.timeout", d.Registry.Timeout)
	v.SetDefault("registry.s3.bucket", "")
	v.SetDefault("registry.s3.prefix", "")
	v.SetDefault("registry.s3.region", "")
	v.SetDefault("registry.s3.endpoint", "")
	v.SetDefault("registry.s3.access_key_id", "")
	v.SetDefault("registry.s3.secret_access_key", "")
	v.SetDefault("registry.cache.enabled", d.Registry.Cache.Enabled)
	v.SetDefault("registry.cache.dir", d.Registry.Cache.Dir)
	v.SetDefault("registry.cache.ttl", d.Registry.Cache.TTL)

	v.SetDefault("resolver.concurrency", d.Resolver.Concurrency)

	v.SetDefault("conventions.canonical_prefix", d.Conventions.CanonicalPrefix)
	v.SetDefault("conventions.raw_pattern", d.Conventions.RawPattern)
	v.SetDefault("conventions.reserved_segment", d.Conventions.ReservedSegment)
	v.SetDefault("conventions.components_dir", d.Conventions.ComponentsDir)
	v.SetDefault("conventions.extension", d.Conventions.Extension)
	v.SetDefault("conventions.entry_path", d.Conventions.EntryPath)

	v.SetDefault("baseline.dependencies", manifestList(d.Baseline.Dependencies))
	v.SetDefault("baseline.dev_dependencies", manifestList(d.Baseline.DevDependencies))

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.trace", d.Log.Trace)
}

func (f *fileConfig) toDomain(baseDir string) *domain.Config {
	cfg := &domain.Config{
		Registry: domain.RegistryConfig{
			Kind:    domain.RegistryKind(f.Registry.Kind),
			Path:    resolvePath(baseDir, f.Registry.Path),
			URL:     f.Registry.URL,
			Timeout: f.Registry.Timeout,
			S3: domain.S3Config{
				Bucket:          f.Registry.S3.Bucket,
				Prefix:          f.Registry.S3.Prefix,
				Region:          f.Registry.S3.Region,
				Endpoint:        f.Registry.S3.Endpoint,
				AccessKeyID:     f.Registry.S3.AccessKeyID,
				SecretAccessKey: f.Registry.S3.SecretAccessKey,
			},
			Cache: domain.CacheConfig{
				Enabled: f.Registry.Cache.Enabled,
				Dir:     resolvePath(baseDir, f.Registry.Cache.Dir),
				TTL:     f.Registry.Cache.TTL,
			},
		},
		Resolver: domain.ResolverConfig{Concurrency: f.Resolver.Concurrency},
		Conventions: domain.Conventions{
			CanonicalPrefix: f.Conventions.CanonicalPrefix,
			RawPattern:      f.Conventions.RawPattern,
			ReservedSegment: f.Conventions.ReservedSegment,
			ComponentsDir:   f.Conventions.ComponentsDir,
			Extension:       f.Conventions.Extension,
			EntryPath:       f.Conventions.EntryPath,
		},
		Baseline: domain.Baseline{
			Dependencies:    domain.ManifestFromList(f.Baseline.Dependencies),
			DevDependencies: domain.ManifestFromList(f.Baseline.DevDependencies),
		},
		Server: domain.ServerConfig{Addr: f.Server.Addr},
		Log: domain.LogConfig{
			Format: f.Log.Format,
			Trace:  f.Log.Trace,
		},
	}
	return cfg
}

func resolvePath(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

// manifestList renders a manifest as sorted "name@version" strings.
func manifestList(m domain.Manifest) []string {
	out := make([]string, 0, len(m))
	for name, version := range m {
		out = append(out, domain.Dependency{Name: name, Version: version}.String())
	}
	slices.Sort(out)
	return out
}
