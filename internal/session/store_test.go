package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "k", "v1"))
	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	require.NoError(t, s.Set(ctx, "k", "v2"))
	v, _ = s.Get(ctx, "k")
	assert.Equal(t, "v2", v)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Delete(ctx, "k"))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "slots")
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFileStoreSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := NewFileStore(dir)
	require.NoError(t, err)
	s := New(first, WithLoginDelay(0))
	ok, err := s.Login(ctx, "student@college.edu", "student123")
	require.NoError(t, err)
	require.True(t, ok)

	second, err := NewFileStore(dir)
	require.NoError(t, err)
	restored := New(second)
	restored.Init(ctx)
	u, ok := restored.Current()
	require.True(t, ok)
	assert.Equal(t, "student@college.edu", u.Email)
}

func TestFileStoreCorruptSlot(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, SlotKey+".json"), []byte("\x00garbage"), 0o644))

	fs, err := NewFileStore(dir)
	require.NoError(t, err)
	s := New(fs)
	s.Init(ctx)
	_, ok := s.Current()
	assert.False(t, ok)
}
