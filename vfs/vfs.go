// Package vfs confines all shell file access to a single workspace
// directory. Every path the user types is resolved against a virtual
// working directory inside that root, and nothing resolves outside it.
package vfs

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"valyxo/errors"
)

// Entry describes one directory listing entry
type Entry struct {
	Name  string
	IsDir bool
	Size  int64
}

// Match is one grep hit: the virtual path, line number and line text
type Match struct {
	Path string
	Line int
	Text string
}

// FS is a filesystem jailed under Root. The zero value is not usable;
// construct with New.
type FS struct {
	root string // absolute, cleaned
	cwd  string // virtual path, always starts with "/"
}

// New creates a jailed filesystem rooted at dir, creating it if needed
func New(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.NewSystemError("BAD_WORKSPACE", "cannot resolve workspace path").Wrap(err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, errors.NewSystemError("BAD_WORKSPACE", "cannot create workspace directory").Wrap(err)
	}
	return &FS{root: abs, cwd: "/"}, nil
}

// Root returns the absolute host path of the workspace root
func (fs *FS) Root() string {
	return fs.root
}

// Cwd returns the virtual working directory, always absolute and "/"-rooted
func (fs *FS) Cwd() string {
	return fs.cwd
}

// resolve maps a user path to a host path, rejecting anything that would
// land outside the root
func (fs *FS) resolve(p string) (string, error) {
	virtual := fs.virtualPath(p)
	host := filepath.Join(fs.root, filepath.FromSlash(strings.TrimPrefix(virtual, "/")))
	host = filepath.Clean(host)
	if host != fs.root && !strings.HasPrefix(host, fs.root+string(filepath.Separator)) {
		return "", errors.NewUserError("PATH_ESCAPE", fmt.Sprintf("path escapes the workspace: '%s'", p)).
			WithHint("paths are confined to the workspace directory")
	}
	return host, nil
}

// virtualPath normalizes a user path against the virtual cwd
func (fs *FS) virtualPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return fs.cwd
	}
	if !strings.HasPrefix(p, "/") {
		p = path.Join(fs.cwd, p)
	}
	return path.Clean(p)
}

// Chdir changes the virtual working directory
func (fs *FS) Chdir(p string) error {
	virtual := fs.virtualPath(p)
	host, err := fs.resolve(virtual)
	if err != nil {
		return err
	}
	info, err := os.Stat(host)
	if err != nil {
		return errors.NewUserError("NO_SUCH_DIR", fmt.Sprintf("no such directory: '%s'", p))
	}
	if !info.IsDir() {
		return errors.NewUserError("NOT_A_DIR", fmt.Sprintf("not a directory: '%s'", p))
	}
	fs.cwd = virtual
	return nil
}

// Mkdir creates a directory, with parents
func (fs *FS) Mkdir(p string) error {
	host, err := fs.resolve(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(host, 0755); err != nil {
		return errors.NewSystemError("MKDIR_FAILED", fmt.Sprintf("cannot create directory: '%s'", p)).Wrap(err)
	}
	return nil
}

// List returns the entries of a directory sorted by name
func (fs *FS) List(p string) ([]Entry, error) {
	host, err := fs.resolve(p)
	if err != nil {
		return nil, err
	}
	dirEntries, err := os.ReadDir(host)
	if err != nil {
		return nil, errors.NewUserError("NO_SUCH_DIR", fmt.Sprintf("cannot list: '%s'", p)).Wrap(err)
	}
	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		entry := Entry{Name: de.Name(), IsDir: de.IsDir()}
		if info, err := de.Info(); err == nil {
			entry.Size = info.Size()
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// ReadFile returns the contents of a file
func (fs *FS) ReadFile(p string) (string, error) {
	host, err := fs.resolve(p)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(host)
	if err != nil {
		return "", errors.NewUserError("NO_SUCH_FILE", fmt.Sprintf("cannot read file: '%s'", p)).Wrap(err)
	}
	return string(data), nil
}

// WriteFile writes a file, creating parent directories as needed
func (fs *FS) WriteFile(p, content string) error {
	host, err := fs.resolve(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(host), 0755); err != nil {
		return errors.NewSystemError("WRITE_FAILED", fmt.Sprintf("cannot create parent directory for: '%s'", p)).Wrap(err)
	}
	if err := os.WriteFile(host, []byte(content), 0644); err != nil {
		return errors.NewSystemError("WRITE_FAILED", fmt.Sprintf("cannot write file: '%s'", p)).Wrap(err)
	}
	return nil
}

// Remove deletes a file or an empty directory
func (fs *FS) Remove(p string) error {
	host, err := fs.resolve(p)
	if err != nil {
		return err
	}
	if host == fs.root {
		return errors.NewUserError("PATH_ESCAPE", "cannot remove the workspace root")
	}
	if err := os.Remove(host); err != nil {
		return errors.NewUserError("REMOVE_FAILED", fmt.Sprintf("cannot remove: '%s'", p)).Wrap(err)
	}
	return nil
}

// Exists reports whether a path exists inside the workspace
func (fs *FS) Exists(p string) bool {
	host, err := fs.resolve(p)
	if err != nil {
		return false
	}
	_, err = os.Stat(host)
	return err == nil
}

// Glob returns virtual paths matching a pattern relative to the cwd
func (fs *FS) Glob(pattern string) ([]string, error) {
	base, err := fs.resolve(".")
	if err != nil {
		return nil, err
	}
	hostMatches, err := filepath.Glob(filepath.Join(base, pattern))
	if err != nil {
		return nil, errors.NewUserError("BAD_PATTERN", fmt.Sprintf("invalid glob pattern: '%s'", pattern)).Wrap(err)
	}
	var matches []string
	for _, m := range hostMatches {
		rel, err := filepath.Rel(fs.root, m)
		if err != nil {
			continue
		}
		matches = append(matches, "/"+filepath.ToSlash(rel))
	}
	sort.Strings(matches)
	return matches, nil
}

// Grep searches files for a literal substring. A directory target searches
// every regular file directly inside it.
func (fs *FS) Grep(needle, target string) ([]Match, error) {
	host, err := fs.resolve(target)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(host)
	if err != nil {
		return nil, errors.NewUserError("NO_SUCH_FILE", fmt.Sprintf("cannot grep: '%s'", target)).Wrap(err)
	}

	var files []string
	if info.IsDir() {
		dirEntries, err := os.ReadDir(host)
		if err != nil {
			return nil, errors.NewUserError("NO_SUCH_DIR", fmt.Sprintf("cannot grep: '%s'", target)).Wrap(err)
		}
		for _, de := range dirEntries {
			if !de.IsDir() {
				files = append(files, filepath.Join(host, de.Name()))
			}
		}
	} else {
		files = []string{host}
	}

	var matches []Match
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(fs.root, file)
		if err != nil {
			continue
		}
		virtual := "/" + filepath.ToSlash(rel)
		for num, line := range strings.Split(string(data), "\n") {
			if strings.Contains(line, needle) {
				matches = append(matches, Match{Path: virtual, Line: num + 1, Text: line})
			}
		}
	}
	return matches, nil
}

// HostPath maps a virtual path to its host location. Used by subprocess
// commands that need a real directory to run in.
func (fs *FS) HostPath(p string) (string, error) {
	return fs.resolve(p)
}
