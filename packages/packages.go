// Package packages manages ValyxoScript packages: a set of built-ins, local
// packages living under the workspace packages dir with a package.json
// manifest, and a JSON registry of what is installed.
package packages

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"valyxo/errors"
)

// Package describes one package. Installed is only meaningful on results of
// Available and Search.
type Package struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Builtin     bool     `json:"builtin,omitempty"`
	Functions   []string `json:"functions,omitempty"`
	Installed   bool     `json:"-"`
}

// manifest is the package.json shape of a local package
type manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Exports     []string `json:"exports"`
}

var builtins = []Package{
	{
		Name:        "math",
		Version:     "1.0.0",
		Description: "Mathematical functions and constants",
		Builtin:     true,
		Functions:   []string{"abs", "min", "max", "round", "floor", "ceil", "sqrt", "pow", "pi", "e"},
	},
	{
		Name:        "string",
		Version:     "1.0.0",
		Description: "String manipulation utilities",
		Builtin:     true,
		Functions:   []string{"upper", "lower", "trim", "split", "join", "replace", "contains", "startswith", "endswith"},
	},
	{
		Name:        "array",
		Version:     "1.0.0",
		Description: "Array/list utilities",
		Builtin:     true,
		Functions:   []string{"len", "push", "pop", "shift", "unshift", "slice", "reverse", "sort", "find", "filter", "map"},
	},
	{
		Name:        "file",
		Version:     "1.0.0",
		Description: "File system operations",
		Builtin:     true,
		Functions:   []string{"read", "write", "append", "exists", "delete", "copy", "move", "list_dir"},
	},
	{
		Name:        "http",
		Version:     "1.0.0",
		Description: "HTTP request utilities",
		Builtin:     true,
		Functions:   []string{"get", "post", "put", "delete", "json_parse", "json_stringify"},
	},
	{
		Name:        "time",
		Version:     "1.0.0",
		Description: "Date and time utilities",
		Builtin:     true,
		Functions:   []string{"now", "timestamp", "format", "parse", "sleep", "timer"},
	},
	{
		Name:        "random",
		Version:     "1.0.0",
		Description: "Random number generation",
		Builtin:     true,
		Functions:   []string{"random", "randint", "choice", "shuffle", "uuid"},
	},
	{
		Name:        "json",
		Version:     "1.0.0",
		Description: "JSON parsing and serialization",
		Builtin:     true,
		Functions:   []string{"parse", "stringify", "pretty"},
	},
}

// Manager holds the installed-package registry. dir is where local packages
// live, path is the registry file.
type Manager struct {
	dir       string
	path      string
	installed map[string]Package
}

// NewManager creates a manager over a packages dir and a registry file,
// loading the registry when it exists
func NewManager(dir, path string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.NewSystemError("PACKAGES_DIR_FAILED", "cannot create packages directory").Wrap(err)
	}
	m := &Manager{
		dir:       dir,
		path:      path,
		installed: make(map[string]Package),
	}
	if err := m.loadRegistry(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) loadRegistry() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.NewSystemError("REGISTRY_LOAD_FAILED", "cannot read package registry").Wrap(err)
	}
	if err := json.Unmarshal(data, &m.installed); err != nil {
		return errors.NewSystemError("REGISTRY_LOAD_FAILED", "package registry is not valid JSON").Wrap(err)
	}
	return nil
}

func (m *Manager) saveRegistry() error {
	data, err := json.MarshalIndent(m.installed, "", "  ")
	if err != nil {
		return errors.NewSystemError("REGISTRY_SAVE_FAILED", "cannot encode package registry").Wrap(err)
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return errors.NewSystemError("REGISTRY_SAVE_FAILED", "cannot write package registry").Wrap(err)
	}
	return nil
}

// Install installs a built-in or local package and returns what was
// installed
func (m *Manager) Install(name string) (Package, error) {
	if pkg, ok := builtinByName(name); ok {
		m.installed[name] = pkg
		return pkg, m.saveRegistry()
	}

	pkg, err := m.readLocal(name)
	if err != nil {
		return Package{}, err
	}
	m.installed[name] = pkg
	return pkg, m.saveRegistry()
}

// readLocal loads a local package's manifest from dir/<name>/package.json
func (m *Manager) readLocal(name string) (Package, error) {
	manifestPath := filepath.Join(m.dir, name, "package.json")
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return Package{}, errors.NewUserError("NO_SUCH_PACKAGE", fmt.Sprintf("package not found: '%s'", name)).
			WithHint("list available packages with: package list")
	}
	var mf manifest
	if err := json.Unmarshal(data, &mf); err != nil {
		return Package{}, errors.NewUserError("BAD_MANIFEST",
			fmt.Sprintf("package '%s' has an invalid package.json", name)).Wrap(err)
	}
	pkg := Package{
		Name:        name,
		Version:     mf.Version,
		Description: mf.Description,
		Functions:   mf.Exports,
	}
	if pkg.Version == "" {
		pkg.Version = "1.0.0"
	}
	return pkg, nil
}

// Uninstall removes a package from the registry. Local package files are
// removed too; built-ins only leave the registry.
func (m *Manager) Uninstall(name string) error {
	pkg, ok := m.installed[name]
	if !ok {
		return errors.NewUserError("NOT_INSTALLED", fmt.Sprintf("package not installed: '%s'", name)).
			WithHint("list installed packages with: package list")
	}
	if !pkg.Builtin {
		if err := os.RemoveAll(filepath.Join(m.dir, name)); err != nil {
			return errors.NewSystemError("UNINSTALL_FAILED",
				fmt.Sprintf("cannot remove package files for '%s'", name)).Wrap(err)
		}
	}
	delete(m.installed, name)
	return m.saveRegistry()
}

// IsInstalled reports whether a package is in the registry
func (m *Manager) IsInstalled(name string) bool {
	_, ok := m.installed[name]
	return ok
}

// Installed returns the registry contents sorted by name
func (m *Manager) Installed() []Package {
	out := make([]Package, 0, len(m.installed))
	for _, pkg := range m.installed {
		pkg.Installed = true
		out = append(out, pkg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Available returns every built-in and local package, sorted, with the
// Installed flag set from the registry
func (m *Manager) Available() []Package {
	out := make([]Package, 0, len(builtins))
	seen := make(map[string]bool)
	for _, pkg := range builtins {
		pkg.Installed = m.IsInstalled(pkg.Name)
		out = append(out, pkg)
		seen[pkg.Name] = true
	}

	entries, err := os.ReadDir(m.dir)
	if err == nil {
		for _, entry := range entries {
			if !entry.IsDir() || seen[entry.Name()] {
				continue
			}
			pkg, err := m.readLocal(entry.Name())
			if err != nil {
				continue
			}
			pkg.Installed = m.IsInstalled(pkg.Name)
			out = append(out, pkg)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Search matches available packages by name or description,
// case-insensitively
func (m *Manager) Search(query string) []Package {
	query = strings.ToLower(query)
	var hits []Package
	for _, pkg := range m.Available() {
		if strings.Contains(strings.ToLower(pkg.Name), query) ||
			strings.Contains(strings.ToLower(pkg.Description), query) {
			hits = append(hits, pkg)
		}
	}
	return hits
}

// Info returns one package, installed or merely available
func (m *Manager) Info(name string) (Package, error) {
	if pkg, ok := m.installed[name]; ok {
		pkg.Installed = true
		return pkg, nil
	}
	if pkg, ok := builtinByName(name); ok {
		return pkg, nil
	}
	if pkg, err := m.readLocal(name); err == nil {
		return pkg, nil
	}
	return Package{}, errors.NewUserError("NO_SUCH_PACKAGE", fmt.Sprintf("no such package: '%s'", name)).
		WithHint("list available packages with: package list")
}

func builtinByName(name string) (Package, bool) {
	for _, pkg := range builtins {
		if pkg.Name == name {
			return pkg, true
		}
	}
	return Package{}, false
}
