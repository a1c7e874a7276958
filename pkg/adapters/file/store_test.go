package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/cerebro/pkg/adapters/file"
	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/aretw0/cerebro/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Store implements ProfileStore
var _ ports.ProfileStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	ports.RunProfileStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(ctx, domain.NewProfile("p1", "Ada")))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "p1.json", entries[0].Name())
}

func TestFileStore_RejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	store := file.New(filepath.Join(dir, "profiles"))

	err := store.Save(context.Background(), domain.NewProfile("../escape", "x"))
	assert.Error(t, err)

	_, err = os.Stat(filepath.Join(dir, "escape.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "absent"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
