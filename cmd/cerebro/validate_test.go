package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunValidate_BundledExercises(t *testing.T) {
	n, err := runValidate(context.Background(), filepath.Join("..", "..", "exercises"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRunValidate_Broken(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.md"), []byte("---\nid: empty\ntitle: Empty\n---\n"), 0644))

	_, err := runValidate(context.Background(), dir)
	assert.Error(t, err)
}
