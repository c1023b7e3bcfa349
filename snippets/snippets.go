// Package snippets manages named script fragments persisted in the shell
// database.
package snippets

import (
	"fmt"
	"sort"
	"strings"

	"valyxo/errors"
	"valyxo/store"
)

// Snippet is one stored fragment
type Snippet struct {
	Name string
	Body string
}

// Manager provides snippet operations over the store
type Manager struct {
	store *store.Store
}

// NewManager creates a snippet manager
func NewManager(s *store.Store) *Manager {
	return &Manager{store: s}
}

// Add stores a snippet, overwriting any existing one with the same name
func (m *Manager) Add(name, body string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.NewUserError("BAD_SNIPPET_NAME", "snippet name cannot be empty")
	}
	if strings.TrimSpace(body) == "" {
		return errors.NewUserError("EMPTY_SNIPPET", "snippet body cannot be empty")
	}
	return m.store.PutSnippet(name, body)
}

// Get returns a snippet body by name
func (m *Manager) Get(name string) (string, error) {
	body, ok, err := m.store.GetSnippet(name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.NewUserError("NO_SUCH_SNIPPET", fmt.Sprintf("no such snippet: '%s'", name)).
			WithHint("list stored snippets with: snippet list")
	}
	return body, nil
}

// Delete removes a snippet by name
func (m *Manager) Delete(name string) error {
	_, ok, err := m.store.GetSnippet(name)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewUserError("NO_SUCH_SNIPPET", fmt.Sprintf("no such snippet: '%s'", name))
	}
	return m.store.DeleteSnippet(name)
}

// List returns all snippets sorted by name
func (m *Manager) List() ([]Snippet, error) {
	var all []Snippet
	err := m.store.EachSnippet(func(name, body string) error {
		all = append(all, Snippet{Name: name, Body: body})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

// Search returns snippets whose name or body contains the term,
// case-insensitively
func (m *Manager) Search(term string) ([]Snippet, error) {
	term = strings.ToLower(term)
	var hits []Snippet
	err := m.store.EachSnippet(func(name, body string) error {
		if strings.Contains(strings.ToLower(name), term) || strings.Contains(strings.ToLower(body), term) {
			hits = append(hits, Snippet{Name: name, Body: body})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hits, nil
}

// Preview returns the first line of a body, truncated for listings
func Preview(body string) string {
	line := body
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		line = body[:idx] + " ..."
	}
	if len(line) > 60 {
		line = line[:57] + "..."
	}
	return line
}
