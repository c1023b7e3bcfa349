package repl

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"valyxo/errors"
	"valyxo/themes"
)

// DisplayManager renders shell output. Colors turn on only when stdout is
// a terminal and the active theme defines them.
type DisplayManager struct {
	out    io.Writer
	themes *themes.Manager
	colors bool
}

// NewDisplayManager creates a display manager writing to stdout
func NewDisplayManager(tm *themes.Manager, forceColors bool) *DisplayManager {
	colors := forceColors || isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	return &DisplayManager{out: os.Stdout, themes: tm, colors: colors}
}

// NewDisplayManagerWithWriter creates a display manager for tests
func NewDisplayManagerWithWriter(w io.Writer, tm *themes.Manager, colors bool) *DisplayManager {
	return &DisplayManager{out: w, themes: tm, colors: colors}
}

// ColorsEnabled reports whether output is painted
func (d *DisplayManager) ColorsEnabled() bool {
	return d.colors
}

func (d *DisplayManager) paint(color, text string) string {
	return themes.Paint(d.colors, color, text)
}

// Banner prints the welcome banner
func (d *DisplayManager) Banner(version string) {
	theme := d.themes.Active()
	fmt.Fprintln(d.out, d.paint(theme.Banner, "Valyxo "+version+" - developer ecosystem shell"))
	fmt.Fprintln(d.out, d.paint(theme.Info, "Type 'help' for commands, 'man valyxo' for an overview, 'quit' to leave."))
	fmt.Fprintln(d.out)
}

// Prompt builds the shell prompt for the current virtual directory
func (d *DisplayManager) Prompt(cwd string) string {
	theme := d.themes.Active()
	return d.paint(theme.Prompt, "valyxo:"+cwd+"> ")
}

// ScriptPrompt builds the script console prompt; open reports whether a
// block is awaiting its closing brace
func (d *DisplayManager) ScriptPrompt(open bool) string {
	theme := d.themes.Active()
	if open {
		return d.paint(theme.Prompt, "... ")
	}
	return d.paint(theme.Prompt, "vx> ")
}

// ChatPrompt builds the chat mode prompt
func (d *DisplayManager) ChatPrompt() string {
	theme := d.themes.Active()
	return d.paint(theme.Prompt, "chat> ")
}

// Print writes plain output
func (d *DisplayManager) Print(text string) {
	fmt.Fprint(d.out, text)
	if !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(d.out)
	}
}

// Info writes dimmed informational output
func (d *DisplayManager) Info(text string) {
	theme := d.themes.Active()
	fmt.Fprintln(d.out, d.paint(theme.Info, text))
}

// Success writes a success line
func (d *DisplayManager) Success(text string) {
	theme := d.themes.Active()
	fmt.Fprintln(d.out, d.paint(theme.Success, text))
}

// Error renders an error. Script errors keep their structured form with
// line, context and hint; everything else prints as a single line.
func (d *DisplayManager) Error(err error) {
	theme := d.themes.Active()
	if scriptErr, ok := errors.AsScriptError(err); ok {
		fmt.Fprintln(d.out, d.paint(theme.Error, scriptErr.Error()))
		return
	}
	fmt.Fprintln(d.out, d.paint(theme.Error, "error: "+err.Error()))
}

// Writer exposes the underlying writer for script output
func (d *DisplayManager) Writer() io.Writer {
	return d.out
}
