package domain

import "path/filepath"

const (
	// StitchDirName is the name of the internal workspace directory.
	StitchDirName = ".stitch"

	// CacheDirName is the name of the cache directory.
	CacheDirName = "cache"

	// RegistryCacheDirName is the name of the registry record cache directory.
	RegistryCacheDirName = "registry"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "stitch.yaml"

	// RegistryIgnoreFile is the name of the ignore file honoured by filesystem registries.
	RegistryIgnoreFile = ".registryignore"

	// PackageManifestFile is the name of the manifest written next to materialized files.
	PackageManifestFile = "package.json"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultStitchPath returns the default root directory for stitch metadata.
func DefaultStitchPath() string {
	return StitchDirName
}

// DefaultRegistryCachePath returns the default path for the registry record cache.
// It joins .stitch, cache, and registry.
func DefaultRegistryCachePath() string {
	return filepath.Join(StitchDirName, CacheDirName, RegistryCacheDirName)
}
