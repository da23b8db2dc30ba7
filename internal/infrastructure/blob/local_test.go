package blob

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/docvault/document-service/internal/core/domain"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	fsys := afero.NewMemMapFs()
	store := NewLocalStore(fsys)
	ctx := context.Background()

	n, err := store.Put(ctx, "abc.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	require.Equal(t, int64(5), n)

	rc, err := store.Open(ctx, "abc.txt")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "hello", string(body))

	require.NoError(t, store.Delete(ctx, "abc.txt"))
	_, err = store.Open(ctx, "abc.txt")
	require.ErrorIs(t, err, domain.ErrBlobNotFound)
}

func TestLocalStore_DeleteMissingIsNoop(t *testing.T) {
	store := NewLocalStore(afero.NewMemMapFs())
	require.NoError(t, store.Delete(context.Background(), "gone.pdf"))
}

func TestLocalStore_DoesNotOverwrite(t *testing.T) {
	store := NewLocalStore(afero.NewMemMapFs())
	ctx := context.Background()

	_, err := store.Put(ctx, "dup.txt", strings.NewReader("one"))
	require.NoError(t, err)
	_, err = store.Put(ctx, "dup.txt", strings.NewReader("two"))
	require.Error(t, err)
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestLocalStore_PartialWriteIsRemoved(t *testing.T) {
	fsys := afero.NewMemMapFs()
	store := NewLocalStore(fsys)

	_, err := store.Put(context.Background(), "big.bin", failingReader{err: domain.ErrFileTooLarge})
	require.ErrorIs(t, err, domain.ErrTooLarge)

	exists, err := afero.Exists(fsys, "big.bin")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestLocalStore_RejectsPathNames(t *testing.T) {
	store := NewLocalStore(afero.NewMemMapFs())
	ctx := context.Background()

	for _, name := range []string{"", "..", "../etc/passwd", "a/b.txt", `a\b.txt`} {
		_, err := store.Put(ctx, name, strings.NewReader("x"))
		require.Error(t, err, name)
	}
}
