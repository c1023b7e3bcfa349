package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFS(t *testing.T) *FS {
	t.Helper()
	fs, err := New(t.TempDir())
	require.NoError(t, err)
	return fs
}

func TestFS_ReadWrite(t *testing.T) {
	fs := newTestFS(t)

	t.Run("write then read round-trips", func(t *testing.T) {
		require.NoError(t, fs.WriteFile("hello.txt", "hi there"))
		content, err := fs.ReadFile("hello.txt")
		require.NoError(t, err)
		assert.Equal(t, "hi there", content)
	})

	t.Run("write creates parent directories", func(t *testing.T) {
		require.NoError(t, fs.WriteFile("a/b/c.txt", "deep"))
		assert.True(t, fs.Exists("a/b/c.txt"))
	})

	t.Run("reading a missing file is a user error", func(t *testing.T) {
		_, err := fs.ReadFile("missing.txt")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot read file")
	})
}

func TestFS_Jail(t *testing.T) {
	fs := newTestFS(t)

	t.Run("dot-dot escape is rejected", func(t *testing.T) {
		_, err := fs.ReadFile("../../etc/passwd")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "escapes the workspace")
	})

	t.Run("absolute virtual paths stay inside the root", func(t *testing.T) {
		require.NoError(t, fs.WriteFile("/top.txt", "x"))
		content, err := fs.ReadFile("/top.txt")
		require.NoError(t, err)
		assert.Equal(t, "x", content)
	})

	t.Run("dot-dot inside the tree normalizes instead of escaping", func(t *testing.T) {
		require.NoError(t, fs.Mkdir("sub"))
		require.NoError(t, fs.Chdir("sub"))
		_, err := fs.ReadFile("../top.txt")
		require.NoError(t, err)
		require.NoError(t, fs.Chdir("/"))
	})

	t.Run("cd above the root clamps to the root", func(t *testing.T) {
		require.NoError(t, fs.Chdir(".."))
		assert.Equal(t, "/", fs.Cwd())
	})

	t.Run("removing the root is rejected", func(t *testing.T) {
		err := fs.Remove("/")
		require.Error(t, err)
	})
}

func TestFS_DirectoryOps(t *testing.T) {
	fs := newTestFS(t)
	require.NoError(t, fs.Mkdir("proj"))
	require.NoError(t, fs.WriteFile("proj/main.vx", "print hi"))
	require.NoError(t, fs.WriteFile("proj/notes.txt", "todo"))

	t.Run("list is sorted by name", func(t *testing.T) {
		entries, err := fs.List("proj")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "main.vx", entries[0].Name)
		assert.Equal(t, "notes.txt", entries[1].Name)
	})

	t.Run("cd updates the virtual cwd and relative resolution", func(t *testing.T) {
		require.NoError(t, fs.Chdir("proj"))
		assert.Equal(t, "/proj", fs.Cwd())
		content, err := fs.ReadFile("main.vx")
		require.NoError(t, err)
		assert.Equal(t, "print hi", content)
		require.NoError(t, fs.Chdir("/"))
	})

	t.Run("cd into a file fails", func(t *testing.T) {
		err := fs.Chdir("proj/main.vx")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})

	t.Run("glob matches against the cwd", func(t *testing.T) {
		require.NoError(t, fs.Chdir("proj"))
		matches, err := fs.Glob("*.vx")
		require.NoError(t, err)
		assert.Equal(t, []string{"/proj/main.vx"}, matches)
		require.NoError(t, fs.Chdir("/"))
	})
}

func TestFS_Grep(t *testing.T) {
	fs := newTestFS(t)
	require.NoError(t, fs.WriteFile("one.txt", "alpha\nbeta\ngamma"))
	require.NoError(t, fs.WriteFile("two.txt", "beta max"))

	t.Run("single file", func(t *testing.T) {
		matches, err := fs.Grep("beta", "one.txt")
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "/one.txt", matches[0].Path)
		assert.Equal(t, 2, matches[0].Line)
		assert.Equal(t, "beta", matches[0].Text)
	})

	t.Run("directory searches each file inside", func(t *testing.T) {
		matches, err := fs.Grep("beta", ".")
		require.NoError(t, err)
		assert.Len(t, matches, 2)
	})

	t.Run("no matches yields an empty result", func(t *testing.T) {
		matches, err := fs.Grep("delta", "one.txt")
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}
