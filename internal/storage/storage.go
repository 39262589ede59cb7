// Package storage adapts the hosted object store behind a small interface.
// The workflow only needs upload, public URL resolution, and removal (for
// rolling back an upload when a submission fails part-way).
package storage

import "context"

// Store is the object storage collaborator.
type Store interface {
	// Upload writes bytes under the given path and returns an opaque
	// reference for later URL resolution or removal.
	Upload(ctx context.Context, path string, data []byte) (string, error)
	// PublicURL resolves a reference into a browser-reachable URL.
	PublicURL(ref string) string
	// Remove deletes a previously uploaded object. Removing a missing object
	// is not an error.
	Remove(ctx context.Context, ref string) error
}
