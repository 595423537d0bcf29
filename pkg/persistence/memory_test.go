package persistence_test

import (
	"testing"

	"github.com/chartrunner/chartrunner/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoragePutGetDelete(t *testing.T) {
	s := persistence.NewMemoryStorage()
	require.NoError(t, s.Put("k", []byte("v")))
	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, s.Delete("k"))
	_, err = s.Get("k")
	require.Error(t, err)
}

func TestMemoryStorageListPrefix(t *testing.T) {
	s := persistence.NewMemoryStorage()
	require.NoError(t, s.Put("a", []byte("1")))
	require.NoError(t, s.Put("a/backup-0", []byte("2")))
	require.NoError(t, s.Put("b", []byte("3")))

	keys, err := s.ListPrefix("a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/backup-0"}, keys)
}
