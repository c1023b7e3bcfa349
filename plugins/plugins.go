// Package plugins hosts Lua shell extensions. Every *.lua file in the
// plugin directory runs once at load time and registers commands through
// the valyxo.register(name, handler) API; handlers receive the argument
// list as a table and return the text to display.
package plugins

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"valyxo/errors"
	"valyxo/logging"
)

// Command is one plugin-provided shell command
type Command struct {
	Name   string
	Plugin string // source file the command came from
	state  *lua.LState
	fn     *lua.LFunction
}

// Host loads plugin files and dispatches their commands
type Host struct {
	dir      string
	log      logging.Logger
	states   []*lua.LState
	commands map[string]*Command
}

// NewHost creates a plugin host over a directory. The directory may not
// exist yet; Load treats that as zero plugins.
func NewHost(dir string, log logging.Logger) *Host {
	return &Host{
		dir:      dir,
		log:      log.WithComponent("plugins"),
		commands: make(map[string]*Command),
	}
}

// Load scans the plugin directory and (re)loads every *.lua file. A broken
// plugin is logged and skipped; it never takes down the shell.
func (h *Host) Load() error {
	h.closeStates()
	h.commands = make(map[string]*Command)

	entries, err := os.ReadDir(h.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.NewSystemError("PLUGIN_DIR_FAILED", "cannot read plugin directory").Wrap(err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".lua") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		if err := h.loadFile(filepath.Join(h.dir, name)); err != nil {
			h.log.Warn("plugin failed to load",
				logging.StringField("plugin", name),
				logging.ErrorField("error", err))
		}
	}
	return nil
}

func (h *Host) loadFile(path string) error {
	L := lua.NewState()
	pluginName := filepath.Base(path)

	valyxoTable := L.NewTable()
	L.SetField(valyxoTable, "register", L.NewFunction(func(L *lua.LState) int {
		cmdName := L.CheckString(1)
		fn := L.CheckFunction(2)
		h.commands[cmdName] = &Command{
			Name:   cmdName,
			Plugin: pluginName,
			state:  L,
			fn:     fn,
		}
		return 0
	}))
	L.SetGlobal("valyxo", valyxoTable)

	if err := L.DoFile(path); err != nil {
		L.Close()
		return errors.NewSystemError("PLUGIN_LOAD_FAILED", fmt.Sprintf("plugin error in %s", pluginName)).Wrap(err)
	}

	h.states = append(h.states, L)
	return nil
}

// Commands returns the registered command names sorted
func (h *Host) Commands() []Command {
	names := make([]string, 0, len(h.commands))
	for name := range h.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Command, 0, len(names))
	for _, name := range names {
		out = append(out, *h.commands[name])
	}
	return out
}

// Has reports whether a plugin command with this name exists
func (h *Host) Has(name string) bool {
	_, ok := h.commands[name]
	return ok
}

// Run invokes a plugin command with the given arguments and returns the
// text the handler produced
func (h *Host) Run(name string, args []string) (string, error) {
	cmd, ok := h.commands[name]
	if !ok {
		return "", errors.NewUserError("NO_SUCH_PLUGIN_COMMAND", fmt.Sprintf("no such plugin command: '%s'", name))
	}

	L := cmd.state
	argsTable := L.NewTable()
	for i, arg := range args {
		L.RawSetInt(argsTable, i+1, lua.LString(arg))
	}

	if err := L.CallByParam(lua.P{Fn: cmd.fn, NRet: 1, Protect: true}, argsTable); err != nil {
		return "", errors.NewSystemError("PLUGIN_RUN_FAILED", fmt.Sprintf("plugin command '%s' failed", name)).
			Wrap(err).
			WithField("plugin", cmd.Plugin)
	}

	ret := L.Get(-1)
	L.Pop(1)
	if ret == lua.LNil {
		return "", nil
	}
	return lua.LVAsString(ret), nil
}

// Close shuts down all plugin states
func (h *Host) Close() {
	h.closeStates()
	h.commands = make(map[string]*Command)
}

func (h *Host) closeStates() {
	for _, L := range h.states {
		L.Close()
	}
	h.states = nil
}
