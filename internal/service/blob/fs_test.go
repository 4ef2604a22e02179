package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFSStoreCreatesCategoryDirs(t *testing.T) {
	root := t.TempDir()

	_, err := NewFSStore(root)
	require.NoError(t, err)

	for _, c := range []Category{CategoryTemplate, CategoryPaper, CategoryAttachment} {
		info, err := os.Stat(filepath.Join(root, string(c)))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestNewFSStoreRequiresRoot(t *testing.T) {
	_, err := NewFSStore("")
	require.Error(t, err)
}

func TestFSStorePutAndOpen(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	content := []byte("hello")
	key, err := store.Put(context.Background(), CategoryPaper, "thesis.docx", content)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, "_thesis.docx"))
	assert.Contains(t, key, string(CategoryPaper))

	rc, err := store.Open(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestFSStorePutSanitizesFilename(t *testing.T) {
	root := t.TempDir()
	store, err := NewFSStore(root)
	require.NoError(t, err)

	key, err := store.Put(context.Background(), CategoryPaper, "../../etc/passwd", []byte("x"))
	require.NoError(t, err)

	abs, err := filepath.Abs(key)
	require.NoError(t, err)
	absRoot, err := filepath.Abs(root)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(abs, absRoot))
	assert.True(t, strings.HasSuffix(key, "_passwd"))
}

func TestFSStoreDeleteIdempotent(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	key, err := store.Put(context.Background(), CategoryPaper, "a.docx", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), key))
	// повторное удаление того же ключа не считается ошибкой
	require.NoError(t, store.Delete(context.Background(), key))

	exists, err := store.Exists(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFSStoreExists(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	key, err := store.Put(context.Background(), CategoryAttachment, "b.pdf", []byte("x"))
	require.NoError(t, err)

	exists, err := store.Exists(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, exists)
}
