// Package themes manages named ANSI color palettes for the shell display.
// Custom themes persist as JSON next to the shell database.
package themes

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"valyxo/errors"
)

// Theme is one named palette. Fields hold bare ANSI SGR sequences.
type Theme struct {
	Name    string `json:"name"`
	Prompt  string `json:"prompt"`
	Banner  string `json:"banner"`
	Error   string `json:"error"`
	Info    string `json:"info"`
	Accent  string `json:"accent"`
	Success string `json:"success"`
}

const reset = "\x1b[0m"

var builtins = []Theme{
	{
		Name:    "default",
		Prompt:  "\x1b[36m",
		Banner:  "\x1b[35m",
		Error:   "\x1b[31m",
		Info:    "\x1b[90m",
		Accent:  "\x1b[33m",
		Success: "\x1b[32m",
	},
	{
		Name:    "mono",
		Prompt:  "",
		Banner:  "",
		Error:   "",
		Info:    "",
		Accent:  "",
		Success: "",
	},
	{
		Name:    "ocean",
		Prompt:  "\x1b[34m",
		Banner:  "\x1b[36m",
		Error:   "\x1b[91m",
		Info:    "\x1b[37m",
		Accent:  "\x1b[96m",
		Success: "\x1b[94m",
	},
}

// Manager holds the theme table and the active selection
type Manager struct {
	themes map[string]Theme
	active string
	path   string // custom themes file, may be empty
}

// NewManager creates a manager seeded with the built-in themes. A non-empty
// path loads custom themes from that JSON file when it exists.
func NewManager(path string) (*Manager, error) {
	m := &Manager{
		themes: make(map[string]Theme),
		active: "default",
		path:   path,
	}
	for _, theme := range builtins {
		m.themes[theme.Name] = theme
	}
	if path != "" {
		if err := m.loadCustom(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Manager) loadCustom() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.NewSystemError("THEME_LOAD_FAILED", "cannot read themes file").Wrap(err)
	}
	var custom []Theme
	if err := json.Unmarshal(data, &custom); err != nil {
		return errors.NewSystemError("THEME_LOAD_FAILED", "themes file is not valid JSON").Wrap(err)
	}
	for _, theme := range custom {
		if theme.Name != "" {
			m.themes[theme.Name] = theme
		}
	}
	return nil
}

// Save persists the non-builtin themes to the themes file
func (m *Manager) Save() error {
	if m.path == "" {
		return nil
	}
	var custom []Theme
	for name, theme := range m.themes {
		if !isBuiltin(name) {
			custom = append(custom, theme)
		}
	}
	sort.Slice(custom, func(i, j int) bool { return custom[i].Name < custom[j].Name })
	data, err := json.MarshalIndent(custom, "", "  ")
	if err != nil {
		return errors.NewSystemError("THEME_SAVE_FAILED", "cannot encode themes").Wrap(err)
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return errors.NewSystemError("THEME_SAVE_FAILED", "cannot write themes file").Wrap(err)
	}
	return nil
}

func isBuiltin(name string) bool {
	for _, theme := range builtins {
		if theme.Name == name {
			return true
		}
	}
	return false
}

// Active returns the currently selected theme
func (m *Manager) Active() Theme {
	return m.themes[m.active]
}

// SetActive switches the active theme
func (m *Manager) SetActive(name string) error {
	if _, ok := m.themes[name]; !ok {
		return errors.NewUserError("NO_SUCH_THEME", fmt.Sprintf("no such theme: '%s'", name)).
			WithHint("list available themes with: theme list")
	}
	m.active = name
	return nil
}

// Get returns a theme by name
func (m *Manager) Get(name string) (Theme, bool) {
	theme, ok := m.themes[name]
	return theme, ok
}

// Add registers a custom theme and persists it
func (m *Manager) Add(theme Theme) error {
	if theme.Name == "" {
		return errors.NewUserError("BAD_THEME", "theme name cannot be empty")
	}
	if isBuiltin(theme.Name) {
		return errors.NewUserError("BAD_THEME", fmt.Sprintf("cannot overwrite built-in theme: '%s'", theme.Name))
	}
	m.themes[theme.Name] = theme
	return m.Save()
}

// Names returns all theme names sorted, the active one first marked by the
// caller via Active().Name
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.themes))
	for name := range m.themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Paint wraps text in a color sequence when enabled. Empty colors and
// disabled output pass the text through untouched.
func Paint(enabled bool, color, text string) string {
	if !enabled || color == "" {
		return text
	}
	return color + text + reset
}
