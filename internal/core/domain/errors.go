package domain

import "go.trai.ch/zerr"

var (
	// ErrComponentNotFound is returned when a registry has no record for a component identifier.
	ErrComponentNotFound = zerr.New("component not found")

	// ErrRegistryTransport is returned when the underlying registry store fails to answer.
	ErrRegistryTransport = zerr.New("registry transport failure")

	// ErrInvalidRecord is returned when a registry record cannot be decoded or fails validation.
	ErrInvalidRecord = zerr.New("invalid component record")

	// ErrEmptySource is returned when a component record carries no source block.
	ErrEmptySource = zerr.New("component record has no source")

	// ErrEmptyEntryID is returned when a resolution request has no entry identifier.
	ErrEmptyEntryID = zerr.New("entry identifier is required")

	// ErrEntryReadFailed is returned when the entry source file cannot be read.
	ErrEntryReadFailed = zerr.New("failed to read entry source")

	// ErrScaffoldReadFailed is returned when a scaffold file cannot be read.
	ErrScaffoldReadFailed = zerr.New("failed to read scaffold file")

	// ErrInvalidScaffoldSpec is returned when a scaffold flag is not of the form path=file.
	ErrInvalidScaffoldSpec = zerr.New("invalid scaffold spec, expected path=file")

	// ErrConfigReadFailed is returned when the config file exists but cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrInvalidConfig is returned when the loaded configuration fails validation.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrUnknownRegistryKind is returned when registry.kind names an unsupported backend.
	ErrUnknownRegistryKind = zerr.New("unknown registry kind, expected bundled, filesystem, http or s3")

	// ErrNonIdempotentConventions is returned when the canonical prefix matches the raw pattern.
	ErrNonIdempotentConventions = zerr.New("canonical prefix must not match the raw registry pattern")

	// ErrInvalidRawPattern is returned when the raw registry pattern is not a valid regular expression.
	ErrInvalidRawPattern = zerr.New("invalid raw registry pattern")

	// ErrCacheMiss is returned when a registry cache entry is absent or stale.
	ErrCacheMiss = zerr.New("cache miss")

	// ErrCacheCreateFailed is returned when the registry cache directory cannot be created.
	ErrCacheCreateFailed = zerr.New("failed to create registry cache directory")

	// ErrCacheWriteFailed is returned when a registry cache entry cannot be written.
	ErrCacheWriteFailed = zerr.New("failed to write registry cache entry")

	// ErrOutputWriteFailed is returned when the virtual file set cannot be materialized.
	ErrOutputWriteFailed = zerr.New("failed to write output")

	// ErrOutputPathOutsideRoot is returned when a virtual path escapes the output directory.
	ErrOutputPathOutsideRoot = zerr.New("output path is outside output directory")

	// ErrWatcherStartFailed is returned when the file watcher cannot be started.
	ErrWatcherStartFailed = zerr.New("failed to start file watcher")

	// ErrServerFailed is returned when the HTTP API server stops unexpectedly.
	ErrServerFailed = zerr.New("http server failed")
)
