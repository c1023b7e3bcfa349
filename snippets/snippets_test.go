package snippets

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valyxo/store"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "valyxo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return NewManager(s)
}

func TestManager_CRUD(t *testing.T) {
	m := newTestManager(t)

	t.Run("add and get", func(t *testing.T) {
		require.NoError(t, m.Add("hello", `print "hi"`))
		body, err := m.Get("hello")
		require.NoError(t, err)
		assert.Equal(t, `print "hi"`, body)
	})

	t.Run("empty name or body is rejected", func(t *testing.T) {
		require.Error(t, m.Add("", "print x"))
		require.Error(t, m.Add("x", "   "))
	})

	t.Run("get of a missing snippet hints at list", func(t *testing.T) {
		_, err := m.Get("ghost")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "snippet list")
	})

	t.Run("list is sorted", func(t *testing.T) {
		require.NoError(t, m.Add("zulu", "print z"))
		require.NoError(t, m.Add("alpha", "print a"))
		all, err := m.List()
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "alpha", all[0].Name)
		assert.Equal(t, "zulu", all[2].Name)
	})

	t.Run("search matches names and bodies case-insensitively", func(t *testing.T) {
		hits, err := m.Search("ZULU")
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "zulu", hits[0].Name)

		hits, err = m.Search(`"hi"`)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "hello", hits[0].Name)
	})

	t.Run("delete of a missing snippet errors", func(t *testing.T) {
		require.NoError(t, m.Delete("zulu"))
		require.Error(t, m.Delete("zulu"))
	})
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "print x", Preview("print x"))
	assert.Equal(t, "line one ...", Preview("line one\nline two"))
	long := "set verylongname = 111111111111111111111111111111111111111111111111111111"
	assert.Len(t, Preview(long), 60)
}
