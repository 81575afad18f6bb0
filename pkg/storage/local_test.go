package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "todos/a.yaml", []byte("a")))
	require.NoError(t, s.Write(ctx, "todos/b.yaml", []byte("b")))

	got, err := s.Read(ctx, "todos/a.yaml")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), got)

	paths, err := s.List(ctx, "todos")
	require.NoError(t, err)
	assert.Equal(t, []string{"todos/a.yaml", "todos/b.yaml"}, paths)

	ok, err := s.Exists(ctx, "todos/a.yaml")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, "todos/a.yaml"))
	_, err = s.Read(ctx, "todos/a.yaml")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "todos/a.yaml"), ErrNotFound)
}

func TestLocalStorage_ListMissingPrefix(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	paths, err := s.List(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestLocalStorage_StaysInsideBase(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, err := NewLocalStorage(base)
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "../../escape.txt", []byte("x")))
	ok, err := s.Exists(ctx, "escape.txt")
	require.NoError(t, err)
	assert.True(t, ok)
}
