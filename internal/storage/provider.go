// Package storage defines the workspace file-system abstraction. All
// paths are relative to the workspace root and forward-slash separated.
package storage

import "io/fs"

// Provider is the interface for workspace file operations.
type Provider interface {
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Stat returns file info for path.
	Stat(path string) (fs.FileInfo, error)
	// ReadDir lists the entries of the directory at path.
	ReadDir(path string) ([]fs.DirEntry, error)
	// Root returns the absolute workspace root.
	Root() string
}
