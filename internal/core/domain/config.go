package domain

import (
	"runtime"
	"time"

	"go.trai.ch/zerr"
)

// RegistryKind selects the registry backend.
type RegistryKind string

const (
	// RegistryBundled serves the sample components compiled into the binary.
	RegistryBundled RegistryKind = "bundled"
	// RegistryFilesystem serves records from a local directory.
	RegistryFilesystem RegistryKind = "filesystem"
	// RegistryHTTP serves records from an HTTP endpoint.
	RegistryHTTP RegistryKind = "http"
	// RegistryS3 serves records from an S3 compatible bucket.
	RegistryS3 RegistryKind = "s3"
)

// Log formats.
const (
	LogFormatAuto   = "auto"
	LogFormatPretty = "pretty"
	LogFormatJSON   = "json"
)

const (
	// DefaultRegistryTimeout bounds a single registry fetch for network backends.
	DefaultRegistryTimeout = 30 * time.Second
	// DefaultCacheTTL is how long a cached registry record stays fresh on disk.
	DefaultCacheTTL = 24 * time.Hour
	// DefaultServerAddr is the listen address of the HTTP API.
	DefaultServerAddr = ":8080"
)

// Config is the fully loaded stitch configuration.
type Config struct {
	Registry    RegistryConfig
	Resolver    ResolverConfig
	Conventions Conventions
	Baseline    Baseline
	Server      ServerConfig
	Log         LogConfig
}

// RegistryConfig configures the registry backend.
type RegistryConfig struct {
	Kind    RegistryKind
	Path    string
	URL     string
	Timeout time.Duration
	S3      S3Config
	Cache   CacheConfig
}

// S3Config configures the S3 registry backend.
type S3Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// CacheConfig configures the registry record cache.
type CacheConfig struct {
	Enabled bool
	Dir     string
	TTL     time.Duration
}

// ResolverConfig configures the resolution engine.
type ResolverConfig struct {
	// Concurrency bounds the number of in-flight fetches per round.
	Concurrency int
}

// Baseline holds the manifests every file set is seeded with.
type Baseline struct {
	Dependencies    Manifest
	DevDependencies Manifest
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string
}

// LogConfig configures logging output.
type LogConfig struct {
	Format string
	// Trace logs a summary line for every finished span.
	Trace bool
}

// DefaultBaseline returns the framework level dependencies every sandbox needs.
func DefaultBaseline() Baseline {
	return Baseline{
		Dependencies: Manifest{
			"react":          "^18.2.0",
			"react-dom":      "^18.2.0",
			"clsx":           "^2.1.0",
			"tailwind-merge": "^2.2.0",
		},
		DevDependencies: Manifest{
			"typescript":       "^5.4.0",
			"@types/react":     "^18.2.0",
			"@types/react-dom": "^18.2.0",
		},
	}
}

// DefaultConfig returns the configuration used when no config file is present.
func DefaultConfig() *Config {
	return &Config{
		Registry: RegistryConfig{
			Kind:    RegistryBundled,
			Timeout: DefaultRegistryTimeout,
			Cache: CacheConfig{
				Dir: DefaultRegistryCachePath(),
				TTL: DefaultCacheTTL,
			},
		},
		Resolver:    ResolverConfig{Concurrency: runtime.NumCPU()},
		Conventions: DefaultConventions(),
		Baseline:    DefaultBaseline(),
		Server:      ServerConfig{Addr: DefaultServerAddr},
		Log:         LogConfig{Format: LogFormatAuto},
	}
}

// Validate checks the configuration for values no component can work with.
func (c *Config) Validate() error {
	switch c.Registry.Kind {
	case RegistryBundled:
	case RegistryFilesystem:
		if c.Registry.Path == "" {
			return zerr.With(ErrInvalidConfig, "field", "registry.path")
		}
	case RegistryHTTP:
		if c.Registry.URL == "" {
			return zerr.With(ErrInvalidConfig, "field", "registry.url")
		}
	case RegistryS3:
		if c.Registry.S3.Bucket == "" {
			return zerr.With(ErrInvalidConfig, "field", "registry.s3.bucket")
		}
	default:
		return zerr.With(ErrUnknownRegistryKind, "kind", string(c.Registry.Kind))
	}

	if c.Resolver.Concurrency < 1 {
		return zerr.With(ErrInvalidConfig, "field", "resolver.concurrency")
	}

	switch c.Log.Format {
	case LogFormatAuto, LogFormatPretty, LogFormatJSON:
	default:
		return zerr.With(ErrInvalidConfig, "field", "log.format")
	}

	return c.Conventions.Validate()
}
