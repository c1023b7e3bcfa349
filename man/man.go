// Package man holds the shell's built-in manual pages. A JSON file in the
// workspace can add pages or override the built-in text.
package man

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"valyxo/errors"
)

// Page is one manual entry
type Page struct {
	Name     string   `json:"name"`
	Synopsis string   `json:"synopsis"`
	Text     string   `json:"text"`
	Examples []string `json:"examples,omitempty"`
}

var builtinPages = []Page{
	{
		Name:     "valyxo",
		Synopsis: "valyxo - developer ecosystem shell",
		Text: "Valyxo is a sandboxed developer shell with a built-in scripting\n" +
			"language. All file operations stay inside the workspace directory.\n" +
			"Type 'help' for the command list, 'enter script' for the script\n" +
			"console and 'man <command>' for details on a command.",
	},
	{
		Name:     "script",
		Synopsis: "enter script - interactive ValyxoScript console",
		Text: "ValyxoScript statements: set <var> = <expr>, print <items>,\n" +
			"if [cond] then [cmd] else [cmd], vars, import \"file.vx\" and\n" +
			"function calls. Blocks: for <var> in <a> to <b> { }, while [cond] { },\n" +
			"if [cond] then { } else { }, func name(params) { }. Loops share an\n" +
			"iteration ceiling per session. Leave the console with 'exit'.",
		Examples: []string{
			"set total = 0",
			"for i in 1 to 10 {",
			"set total = total + i",
			"}",
			"print total",
		},
	},
	{
		Name:     "run",
		Synopsis: "run <file.vx> [&] - execute a script file",
		Text: "Runs a ValyxoScript file from the workspace. With a trailing '&'\n" +
			"the script runs as a background job; see 'man jobs'. File execution\n" +
			"stops at the first error.",
		Examples: []string{"run build.vx", "run watch.vx &"},
	},
	{
		Name:     "jobs",
		Synopsis: "jobs / kill <id> - background job control",
		Text: "'jobs' lists background scripts with status and duration.\n" +
			"'kill <id>' requests a cooperative stop; the script halts at its\n" +
			"next statement boundary.",
	},
	{
		Name:     "nano",
		Synopsis: "nano <file> - minimal line editor",
		Text: "Opens a line-based editor on a workspace file. Type lines to\n" +
			"append; ':w' saves, ':q' quits, ':wq' does both, ':d' drops the\n" +
			"last line and ':p' prints the buffer.",
	},
	{
		Name:     "snippet",
		Synopsis: "snippet add|get|list|delete|search|run - stored script fragments",
		Text: "Snippets are named script fragments kept in the shell database.\n" +
			"'snippet add <name> <body>' stores one line; 'snippet run <name>'\n" +
			"executes a snippet in the script runtime.",
	},
	{
		Name:     "theme",
		Synopsis: "theme [list|set <name>|add <name> [base]] - display colors",
		Text: "Switches the active color palette. 'theme add' saves a copy of a\n" +
			"base palette (the active one by default) under a new name into\n" +
			"themes.json in the workspace, where its colors can be edited.",
		Examples: []string{"theme add night ocean", "nano themes.json", "theme set night"},
	},
	{
		Name:     "keybind",
		Synopsis: "keybind [list|set <alias> <template>|unset <alias>] - command aliases",
		Text: "Binds a one-word alias to a command template. Templates may use\n" +
			"$1..$9 for positional arguments and $* for the whole tail.",
		Examples: []string{"keybind set r run $1 &", "r main.vx"},
	},
	{
		Name:     "package",
		Synopsis: "package [list|install|uninstall|search|info] - script packages",
		Text: "Manages ValyxoScript packages. Built-in packages ship with the\n" +
			"shell; local packages live under the workspace packages directory\n" +
			"with a package.json manifest. The installed set is recorded in\n" +
			"packages.json.",
		Examples: []string{"package install math", "package search json", "package info string"},
	},
	{
		Name:     "plugin",
		Synopsis: "plugin [list|reload] - Lua plugin commands",
		Text: "Lua files in the plugins directory register extra shell commands\n" +
			"through valyxo.register(name, handler). 'plugin reload' rescans the\n" +
			"directory.",
	},
	{
		Name:     "git",
		Synopsis: "git <args> - git passthrough",
		Text:     "Runs the system git binary inside the workspace directory and\nshows its output.",
	},
	{
		Name:     "create",
		Synopsis: "create <template> <name> - stamp a project template",
		Text:     "Creates a new project directory from a built-in template.\n'create list' shows available templates.",
	},
	{
		Name:     "chat",
		Synopsis: "enter chat - built-in assistant",
		Text:     "A small canned-response assistant for quick questions about the\nshell. Leave with 'exit'.",
	},
	{
		Name:     "import",
		Synopsis: `import "file.vx" - include another script`,
		Text: "Inside ValyxoScript, import reads a workspace file and runs its\n" +
			"lines through the current interpreter, sharing variables and\n" +
			"functions. Import is a statement; it cannot appear inside an\n" +
			"expression.",
	},
}

// Manual is the page table
type Manual struct {
	pages map[string]Page
}

// NewManual builds the manual from the built-in pages. A non-empty overrides
// path merges pages from that JSON file on top.
func NewManual(overridesPath string) (*Manual, error) {
	m := &Manual{pages: make(map[string]Page)}
	for _, page := range builtinPages {
		m.pages[page.Name] = page
	}
	if overridesPath != "" {
		if err := m.loadOverrides(overridesPath); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Manual) loadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.NewSystemError("MAN_LOAD_FAILED", "cannot read manual overrides").Wrap(err)
	}
	var pages []Page
	if err := json.Unmarshal(data, &pages); err != nil {
		return errors.NewSystemError("MAN_LOAD_FAILED", "manual overrides file is not valid JSON").Wrap(err)
	}
	for _, page := range pages {
		if page.Name != "" {
			m.pages[page.Name] = page
		}
	}
	return nil
}

// Lookup returns a page by name
func (m *Manual) Lookup(name string) (Page, error) {
	page, ok := m.pages[name]
	if !ok {
		return Page{}, errors.NewUserError("NO_SUCH_PAGE", fmt.Sprintf("no manual entry for '%s'", name)).
			WithHint("see the full list with: man list")
	}
	return page, nil
}

// Names returns all page names sorted
func (m *Manual) Names() []string {
	names := make([]string, 0, len(m.pages))
	for name := range m.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render formats a page for terminal display
func Render(page Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "NAME\n    %s\n\n", page.Synopsis)
	fmt.Fprintf(&b, "DESCRIPTION\n")
	for _, line := range strings.Split(page.Text, "\n") {
		fmt.Fprintf(&b, "    %s\n", line)
	}
	if len(page.Examples) > 0 {
		fmt.Fprintf(&b, "\nEXAMPLES\n")
		for _, example := range page.Examples {
			fmt.Fprintf(&b, "    %s\n", example)
		}
	}
	return b.String()
}
