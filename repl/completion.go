package repl

import (
	"sort"
	"strings"
)

// shellCommands is the static completion base; dynamic names (snippets,
// themes, plugin commands, man pages) come from the REPL at completion time
var shellCommands = []string{
	"help", "man", "ls", "cd", "cat", "mkdir", "grep", "nano",
	"run", "jobs", "kill", "history", "vars",
	"theme", "snippet", "keybind", "package", "plugin", "git", "create",
	"enter script", "enter chat", "quit", "exit",
}

// Completer implements readline.AutoCompleter over the live shell state
type Completer struct {
	repl *REPL
}

// NewCompleter creates a completer bound to a REPL
func NewCompleter(r *REPL) *Completer {
	return &Completer{repl: r}
}

// Do completes the word being typed at pos
func (c *Completer) Do(line []rune, pos int) ([][]rune, int) {
	prefix := string(line[:pos])
	candidates := c.candidatesFor(prefix)

	word := prefix
	if idx := strings.LastIndexByte(prefix, ' '); idx >= 0 {
		word = prefix[idx+1:]
	}

	var completions [][]rune
	for _, candidate := range candidates {
		if strings.HasPrefix(candidate, word) && candidate != word {
			completions = append(completions, []rune(candidate[len(word):]))
		}
	}
	return completions, len(word)
}

// candidatesFor picks the candidate set from the first word of the line
func (c *Completer) candidatesFor(prefix string) []string {
	fields := strings.Fields(prefix)
	if len(fields) == 0 || (len(fields) == 1 && !strings.HasSuffix(prefix, " ")) {
		all := append([]string{}, shellCommands...)
		for _, cmd := range c.repl.plugs.Commands() {
			all = append(all, cmd.Name)
		}
		sort.Strings(all)
		return all
	}

	switch fields[0] {
	case "man":
		return c.repl.manual.Names()
	case "theme":
		if len(fields) >= 2 && fields[1] == "set" {
			return c.repl.themes.Names()
		}
		if len(fields) >= 4 && fields[1] == "add" {
			return c.repl.themes.Names()
		}
		return []string{"list", "set", "add"}
	case "snippet":
		if len(fields) >= 2 && (fields[1] == "get" || fields[1] == "run" || fields[1] == "delete") {
			return c.snippetNames()
		}
		return []string{"add", "get", "list", "delete", "search", "run"}
	case "keybind":
		return []string{"list", "set", "unset"}
	case "package":
		if len(fields) >= 2 && (fields[1] == "install" || fields[1] == "uninstall" || fields[1] == "info") {
			return c.packageNames()
		}
		return []string{"list", "install", "uninstall", "search", "info"}
	case "plugin":
		return []string{"list", "reload"}
	case "create":
		return append([]string{"list"}, c.repl.templateNames()...)
	case "enter":
		return []string{"script", "chat"}
	case "ls", "cd", "cat", "grep", "nano", "run", "mkdir":
		return c.fileNames()
	}
	return nil
}

func (c *Completer) snippetNames() []string {
	all, err := c.repl.snips.List()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(all))
	for _, s := range all {
		names = append(names, s.Name)
	}
	return names
}

func (c *Completer) packageNames() []string {
	available := c.repl.pkgs.Available()
	names := make([]string, 0, len(available))
	for _, pkg := range available {
		names = append(names, pkg.Name)
	}
	return names
}

func (c *Completer) fileNames() []string {
	entries, err := c.repl.fs.List(".")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name
		if entry.IsDir {
			name += "/"
		}
		names = append(names, name)
	}
	return names
}
