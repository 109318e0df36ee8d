// Package blobstore declares the content-addressed blob store port used
// to hold AES-encrypted key slices (spec.md §1, §4.5).
package blobstore

// BlobStore is the injected content-addressed store.
type BlobStore interface {
	Put(data []byte) (cid string, err error)
	Get(cid string) ([]byte, error)
}
