// Package keybinds maps short aliases to command templates. Bindings
// persist as JSON so they survive sessions.
package keybinds

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"valyxo/errors"
)

// Binding is one alias to command-template mapping. Templates may reference
// arguments as $1..$9 and the whole tail as $*.
type Binding struct {
	Alias    string `json:"alias"`
	Template string `json:"template"`
}

// Table holds the binding set
type Table struct {
	bindings map[string]string
	path     string // persistence file, may be empty
}

// NewTable creates a binding table, loading any persisted bindings from path
func NewTable(path string) (*Table, error) {
	t := &Table{bindings: make(map[string]string), path: path}
	if path != "" {
		if err := t.load(); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) load() error {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.NewSystemError("KEYBIND_LOAD_FAILED", "cannot read keybinds file").Wrap(err)
	}
	var bindings []Binding
	if err := json.Unmarshal(data, &bindings); err != nil {
		return errors.NewSystemError("KEYBIND_LOAD_FAILED", "keybinds file is not valid JSON").Wrap(err)
	}
	for _, b := range bindings {
		if b.Alias != "" {
			t.bindings[b.Alias] = b.Template
		}
	}
	return nil
}

func (t *Table) save() error {
	if t.path == "" {
		return nil
	}
	all := t.List()
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return errors.NewSystemError("KEYBIND_SAVE_FAILED", "cannot encode keybinds").Wrap(err)
	}
	if err := os.WriteFile(t.path, data, 0644); err != nil {
		return errors.NewSystemError("KEYBIND_SAVE_FAILED", "cannot write keybinds file").Wrap(err)
	}
	return nil
}

// Bind registers an alias, overwriting any previous template
func (t *Table) Bind(alias, template string) error {
	alias = strings.TrimSpace(alias)
	if alias == "" || strings.ContainsAny(alias, " \t") {
		return errors.NewUserError("BAD_ALIAS", "alias must be a single word")
	}
	if strings.TrimSpace(template) == "" {
		return errors.NewUserError("BAD_TEMPLATE", "command template cannot be empty")
	}
	t.bindings[alias] = template
	return t.save()
}

// Unbind removes an alias
func (t *Table) Unbind(alias string) error {
	if _, ok := t.bindings[alias]; !ok {
		return errors.NewUserError("NO_SUCH_ALIAS", fmt.Sprintf("no such keybind: '%s'", alias))
	}
	delete(t.bindings, alias)
	return t.save()
}

// List returns all bindings sorted by alias
func (t *Table) List() []Binding {
	all := make([]Binding, 0, len(t.bindings))
	for alias, template := range t.bindings {
		all = append(all, Binding{Alias: alias, Template: template})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Alias < all[j].Alias })
	return all
}

// Expand rewrites an input line whose first word is a bound alias. Lines
// that start with anything else come back unchanged.
func (t *Table) Expand(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return line
	}
	template, ok := t.bindings[fields[0]]
	if !ok {
		return line
	}

	args := fields[1:]
	expanded := template
	for i, arg := range args {
		if i >= 9 {
			break
		}
		expanded = strings.ReplaceAll(expanded, fmt.Sprintf("$%d", i+1), arg)
	}
	expanded = strings.ReplaceAll(expanded, "$*", strings.Join(args, " "))

	// templates without placeholders get the tail appended
	if expanded == template && len(args) > 0 {
		expanded = template + " " + strings.Join(args, " ")
	}
	return expanded
}
