package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndOpen(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "/uploads/")
	require.NoError(t, err)
	store.now = func() time.Time { return time.Unix(0, 42) }

	url, err := store.Save(context.Background(), "../SOP v2 (final).pdf", []byte("pdf-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/42_SOP_v2_final_.pdf", url)

	f, err := store.Open(url)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck
	content, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "pdf-bytes", string(content))

	require.NoError(t, store.Delete(url))
	require.NoError(t, store.Delete(url))
}

func TestLocalStorageSaveHonoursCancelledContext(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Save(ctx, "evidence.jpg", []byte("x"))
	require.Error(t, err)
}

func TestLocalStorageBlankNameFallsBack(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)

	url, err := store.Save(context.Background(), "   ", []byte("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, "_upload"))
}
