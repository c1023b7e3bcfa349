package man

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual_Lookup(t *testing.T) {
	m, err := NewManual("")
	require.NoError(t, err)

	t.Run("built-in page resolves", func(t *testing.T) {
		page, err := m.Lookup("run")
		require.NoError(t, err)
		assert.Contains(t, page.Synopsis, "run")
	})

	t.Run("unknown page hints at the list", func(t *testing.T) {
		_, err := m.Lookup("teleport")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "man list")
	})

	t.Run("names include the core pages sorted", func(t *testing.T) {
		names := m.Names()
		assert.Contains(t, names, "valyxo")
		assert.Contains(t, names, "script")
		assert.IsType(t, []string{}, names)
		for i := 1; i < len(names); i++ {
			assert.LessOrEqual(t, names[i-1], names[i])
		}
	})
}

func TestManual_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "man.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"name": "run", "synopsis": "run - custom", "text": "overridden"},
		{"name": "extra", "synopsis": "extra - new page", "text": "added"}
	]`), 0644))

	m, err := NewManual(path)
	require.NoError(t, err)

	page, err := m.Lookup("run")
	require.NoError(t, err)
	assert.Equal(t, "overridden", page.Text)

	page, err = m.Lookup("extra")
	require.NoError(t, err)
	assert.Equal(t, "added", page.Text)
}

func TestRender(t *testing.T) {
	out := Render(Page{
		Synopsis: "x - does x",
		Text:     "line one\nline two",
		Examples: []string{"x now"},
	})
	assert.Contains(t, out, "NAME\n    x - does x")
	assert.Contains(t, out, "    line one\n    line two")
	assert.Contains(t, out, "EXAMPLES\n    x now")
}
