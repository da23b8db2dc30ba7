package ports

import (
	"context"
	"io"
)

// BlobStore keeps the binary content of uploaded documents under flat names.
type BlobStore interface {
	// Put writes r under name and returns the number of bytes stored.
	Put(ctx context.Context, name string, r io.Reader) (int64, error)
	// Open fails with domain.ErrBlobNotFound when nothing is stored under name.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Delete removes name; a missing blob is not an error.
	Delete(ctx context.Context, name string) error
}
