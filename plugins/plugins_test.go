package plugins

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valyxo/logging"
)

func writePlugin(t *testing.T, dir, name, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0644))
}

func newTestHost(t *testing.T, dir string) *Host {
	t.Helper()
	logger := logging.NewDefaultLoggerWithConfig(logging.LoggerConfig{
		Level:   logging.LevelFatal,
		Writers: []logging.Writer{logging.NewNullWriter()},
	})
	h := NewHost(dir, logger)
	t.Cleanup(h.Close)
	return h
}

func TestHost_LoadAndRun(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, "greet.lua", `
valyxo.register("greet", function(args)
  local who = args[1] or "world"
  return "hello " .. who
end)

valyxo.register("count", function(args)
  return tostring(#args)
end)
`)

	h := newTestHost(t, dir)
	require.NoError(t, h.Load())

	t.Run("registered commands are visible sorted", func(t *testing.T) {
		cmds := h.Commands()
		require.Len(t, cmds, 2)
		assert.Equal(t, "count", cmds[0].Name)
		assert.Equal(t, "greet", cmds[1].Name)
		assert.Equal(t, "greet.lua", cmds[1].Plugin)
	})

	t.Run("run passes arguments as a table", func(t *testing.T) {
		out, err := h.Run("greet", []string{"dev"})
		require.NoError(t, err)
		assert.Equal(t, "hello dev", out)

		out, err = h.Run("count", []string{"a", "b", "c"})
		require.NoError(t, err)
		assert.Equal(t, "3", out)
	})

	t.Run("missing arguments fall back inside the handler", func(t *testing.T) {
		out, err := h.Run("greet", nil)
		require.NoError(t, err)
		assert.Equal(t, "hello world", out)
	})

	t.Run("unknown command is a user error", func(t *testing.T) {
		_, err := h.Run("teleport", nil)
		require.Error(t, err)
	})
}

func TestHost_BrokenPluginIsSkipped(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, "bad.lua", `this is not lua at all (`)
	writePlugin(t, dir, "good.lua", `valyxo.register("ok", function(args) return "fine" end)`)

	h := newTestHost(t, dir)
	require.NoError(t, h.Load())

	assert.True(t, h.Has("ok"))
	out, err := h.Run("ok", nil)
	require.NoError(t, err)
	assert.Equal(t, "fine", out)
}

func TestHost_MissingDirectory(t *testing.T) {
	h := newTestHost(t, filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, h.Load())
	assert.Empty(t, h.Commands())
}

func TestHost_ReloadReplacesCommands(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, "a.lua", `valyxo.register("one", function(args) return "1" end)`)

	h := newTestHost(t, dir)
	require.NoError(t, h.Load())
	require.True(t, h.Has("one"))

	require.NoError(t, os.Remove(filepath.Join(dir, "a.lua")))
	writePlugin(t, dir, "b.lua", `valyxo.register("two", function(args) return "2" end)`)

	require.NoError(t, h.Load())
	assert.False(t, h.Has("one"))
	assert.True(t, h.Has("two"))
}
