package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"valyxo/vfs"
)

// Editor is the minimal line editor behind the nano command. Lines typed
// append to the buffer; colon commands control it (:w save, :q quit,
// :wq both, :d drop last line, :p print buffer).
type Editor struct {
	fs  *vfs.FS
	in  *bufio.Scanner
	out io.Writer
}

// NewEditor creates an editor reading commands from in
func NewEditor(fs *vfs.FS, in io.Reader, out io.Writer) *Editor {
	return &Editor{fs: fs, in: bufio.NewScanner(in), out: out}
}

// Edit opens a file in the editor loop and returns when the user quits
func (e *Editor) Edit(path string) error {
	var lines []string
	if e.fs.Exists(path) {
		content, err := e.fs.ReadFile(path)
		if err != nil {
			return err
		}
		if content != "" {
			lines = strings.Split(strings.TrimSuffix(content, "\n"), "\n")
		}
	}

	fmt.Fprintf(e.out, "editing %s (%d lines) - :w save, :q quit, :wq both, :d drop last, :p print\n", path, len(lines))

	dirty := false
	for {
		fmt.Fprint(e.out, ": ")
		if !e.in.Scan() {
			break
		}
		line := e.in.Text()

		switch strings.TrimSpace(line) {
		case ":w":
			if err := e.save(path, lines); err != nil {
				return err
			}
			dirty = false
			fmt.Fprintf(e.out, "wrote %s\n", path)
		case ":q":
			if dirty {
				fmt.Fprintln(e.out, "unsaved changes discarded")
			}
			return nil
		case ":wq":
			if err := e.save(path, lines); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "wrote %s\n", path)
			return nil
		case ":d":
			if len(lines) > 0 {
				lines = lines[:len(lines)-1]
				dirty = true
			}
		case ":p":
			for num, text := range lines {
				fmt.Fprintf(e.out, "%3d  %s\n", num+1, text)
			}
		default:
			lines = append(lines, line)
			dirty = true
		}
	}
	return nil
}

func (e *Editor) save(path string, lines []string) error {
	content := strings.Join(lines, "\n")
	if content != "" {
		content += "\n"
	}
	return e.fs.WriteFile(path, content)
}
