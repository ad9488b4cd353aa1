// Package blob stores snapshot content outside the snapshots metadata row.
// Content is addressed by its sha256 hash, so writes are idempotent and a
// stored object is never rewritten.
package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var ErrNotFound = errors.New("blob not found")

// Store reads and writes content-addressed blobs.
type Store interface {
	// Put stores content under its hash. Writing the same hash twice is a no-op.
	Put(ctx context.Context, hash string, content []byte) error
	Get(ctx context.Context, hash string) ([]byte, error)
}

// Hash returns the lowercase hex sha256 of content, the snapshot address used
// across versions, permalinks and the object store.
func Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
