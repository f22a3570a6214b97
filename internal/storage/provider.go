// Package storage defines the photo blob storage abstraction.
package storage

import "time"

// BlobInfo is lightweight metadata for a stored photo blob.
type BlobInfo struct {
	Name      string // file name relative to the photos root
	SizeBytes int64
	Checksum  string
	ModTime   time.Time
}

// Provider is the interface for photo blob operations.
type Provider interface {
	// List returns metadata for every image blob under the photos root.
	List() ([]BlobInfo, error)
	// Read returns the raw bytes of the blob with the given name.
	Read(name string) ([]byte, error)
	// Write atomically writes content under name.
	Write(name string, content []byte) error
	// Delete removes the blob with the given name.
	Delete(name string) error
}
