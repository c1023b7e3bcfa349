package repl

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"valyxo/errors"
	"valyxo/jobmanager"
	"valyxo/logging"
	"valyxo/man"
	"valyxo/script"
	"valyxo/snippets"
	"valyxo/templates"
)

// executeShell runs one shell-mode command line
func (r *REPL) executeShell(line string, editorInput io.Reader) error {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil
	}

	if _, err := r.db.AddHistory(trimmed); err != nil {
		r.log.Debug("history write failed", logging.ErrorField("error", err))
	}

	expanded := r.binds.Expand(trimmed)
	fields := strings.Fields(expanded)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		r.cmdHelp()
		return nil
	case "man":
		return r.cmdMan(args)
	case "ls":
		return r.cmdLs(args)
	case "cd":
		return r.cmdCd(args)
	case "cat":
		return r.cmdCat(args)
	case "mkdir":
		return r.cmdMkdir(args)
	case "grep":
		return r.cmdGrep(args)
	case "nano":
		return r.cmdNano(args, editorInput)
	case "run":
		return r.cmdRun(args)
	case "jobs":
		r.cmdJobs()
		return nil
	case "kill":
		return r.cmdKill(args)
	case "history":
		return r.cmdHistory()
	case "vars":
		r.cmdVars()
		return nil
	case "theme":
		return r.cmdTheme(args)
	case "snippet":
		return r.cmdSnippet(expanded, args)
	case "keybind":
		return r.cmdKeybind(expanded, args)
	case "package":
		return r.cmdPackage(args)
	case "plugin":
		return r.cmdPlugin(args)
	case "git":
		return r.cmdGit(args)
	case "create":
		return r.cmdCreate(args)
	case "enter":
		return r.cmdEnter(args)
	case "quit", "exit":
		r.running = false
		return nil
	}

	if r.plugs.Has(cmd) {
		out, err := r.plugs.Run(cmd, args)
		if err != nil {
			return err
		}
		if out != "" {
			r.display.Print(out)
		}
		return nil
	}

	return errors.NewUserError("UNKNOWN_COMMAND", fmt.Sprintf("unknown command: '%s'", cmd)).
		WithHint("type 'help' for the command list")
}

func (r *REPL) cmdHelp() {
	var b strings.Builder
	b.WriteString("Commands:\n")
	b.WriteString("  files     ls, cd, cat, mkdir, grep, nano\n")
	b.WriteString("  scripts   run <file.vx> [&], jobs, kill <id>, vars, enter script\n")
	b.WriteString("  tools     snippet, theme, keybind, package, plugin, git, create, history\n")
	b.WriteString("  other     man <topic>, enter chat, quit\n")
	if cmds := r.plugs.Commands(); len(cmds) > 0 {
		b.WriteString("  plugins  ")
		for _, cmd := range cmds {
			b.WriteString(" " + cmd.Name)
		}
		b.WriteString("\n")
	}
	r.display.Print(b.String())
}

func (r *REPL) cmdMan(args []string) error {
	if len(args) == 0 {
		args = []string{"valyxo"}
	}
	if args[0] == "list" {
		r.display.Print("Manual pages: " + strings.Join(r.manual.Names(), ", "))
		return nil
	}
	page, err := r.manual.Lookup(args[0])
	if err != nil {
		return err
	}
	r.display.Print(man.Render(page))
	return nil
}

func (r *REPL) cmdLs(args []string) error {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}
	if strings.ContainsAny(target, "*?[") {
		matches, err := r.fs.Glob(target)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			r.display.Info("no matches")
			return nil
		}
		r.display.Print(strings.Join(matches, "\n"))
		return nil
	}
	entries, err := r.fs.List(target)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		r.display.Info("(empty)")
		return nil
	}
	var b strings.Builder
	for _, entry := range entries {
		if entry.IsDir {
			fmt.Fprintf(&b, "%s/\n", entry.Name)
		} else {
			fmt.Fprintf(&b, "%-40s %6d\n", entry.Name, entry.Size)
		}
	}
	r.display.Print(b.String())
	return nil
}

func (r *REPL) cmdCd(args []string) error {
	target := "/"
	if len(args) > 0 {
		target = args[0]
	}
	return r.fs.Chdir(target)
}

func (r *REPL) cmdCat(args []string) error {
	if len(args) == 0 {
		return errors.NewUserError("MISSING_ARG", "cat needs a file").WithHint("use: cat <file>")
	}
	content, err := r.fs.ReadFile(args[0])
	if err != nil {
		return err
	}
	r.display.Print(content)
	return nil
}

func (r *REPL) cmdMkdir(args []string) error {
	if len(args) == 0 {
		return errors.NewUserError("MISSING_ARG", "mkdir needs a path").WithHint("use: mkdir <dir>")
	}
	return r.fs.Mkdir(args[0])
}

func (r *REPL) cmdGrep(args []string) error {
	if len(args) < 2 {
		return errors.NewUserError("MISSING_ARG", "grep needs a term and a target").
			WithHint("use: grep <term> <file-or-dir>")
	}
	matches, err := r.fs.Grep(args[0], args[1])
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		r.display.Info("no matches")
		return nil
	}
	var b strings.Builder
	for _, match := range matches {
		fmt.Fprintf(&b, "%s:%d: %s\n", match.Path, match.Line, match.Text)
	}
	r.display.Print(b.String())
	return nil
}

func (r *REPL) cmdNano(args []string, editorInput io.Reader) error {
	if len(args) == 0 {
		return errors.NewUserError("MISSING_ARG", "nano needs a file").WithHint("use: nano <file>")
	}
	editor := NewEditor(r.fs, editorInput, r.display.Writer())
	return editor.Edit(args[0])
}

func (r *REPL) cmdRun(args []string) error {
	background := false
	if len(args) > 0 && args[len(args)-1] == "&" {
		background = true
		args = args[:len(args)-1]
	}
	if len(args) != 1 {
		return errors.NewUserError("MISSING_ARG", "run needs a script file").
			WithHint("use: run <file.vx> [&]")
	}
	file := args[0]

	src, err := r.fs.ReadFile(file)
	if err != nil {
		return err
	}

	if !background {
		rt := r.newRuntime(r.display.Writer())
		return rt.RunProgram(src)
	}

	id, err := r.jobs.Submit(file, func(job *jobmanager.Job) error {
		rt := r.newRuntime(job, script.WithStopCheck(job.StopRequested))
		return rt.RunProgram(src)
	})
	if err != nil {
		return err
	}
	r.display.Info(fmt.Sprintf("[job %d] %s started", id, file))
	return nil
}

func (r *REPL) cmdJobs() {
	jobs := r.jobs.ListJobs()
	if len(jobs) == 0 {
		r.display.Info("no jobs")
		return
	}
	var b strings.Builder
	for _, job := range jobs {
		b.WriteString(job.String() + "\n")
	}
	r.display.Print(b.String())
}

func (r *REPL) cmdKill(args []string) error {
	if len(args) == 0 {
		return errors.NewUserError("MISSING_ARG", "kill needs a job id").WithHint("use: kill <id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return errors.NewUserError("BAD_JOB_ID", fmt.Sprintf("not a job id: '%s'", args[0]))
	}
	if err := r.jobs.Kill(jobmanager.JobID(id)); err != nil {
		return err
	}
	r.display.Info(fmt.Sprintf("[job %d] stop requested", id))
	return nil
}

func (r *REPL) cmdHistory() error {
	cmds, err := r.db.History(20)
	if err != nil {
		return err
	}
	var b strings.Builder
	for i, cmd := range cmds {
		fmt.Fprintf(&b, "%3d  %s\n", i+1, cmd)
	}
	r.display.Print(b.String())
	return nil
}

func (r *REPL) cmdVars() {
	bindings := r.runtime.Vars()
	if len(bindings) == 0 {
		r.display.Info("no variables set")
		return
	}
	var b strings.Builder
	for _, binding := range bindings {
		fmt.Fprintf(&b, "%s = %s\n", binding.Name, binding.Value)
	}
	r.display.Print(b.String())
}

func (r *REPL) cmdTheme(args []string) error {
	if len(args) == 0 || args[0] == "list" {
		active := r.themes.Active().Name
		var names []string
		for _, name := range r.themes.Names() {
			if name == active {
				name = "* " + name
			} else {
				name = "  " + name
			}
			names = append(names, name)
		}
		r.display.Print(strings.Join(names, "\n"))
		return nil
	}
	switch args[0] {
	case "set":
		if len(args) != 2 {
			break
		}
		if err := r.themes.SetActive(args[1]); err != nil {
			return err
		}
		r.display.Success("theme: " + args[1])
		return nil
	case "add":
		if len(args) != 2 && len(args) != 3 {
			break
		}
		base := r.themes.Active()
		if len(args) == 3 {
			picked, ok := r.themes.Get(args[2])
			if !ok {
				return errors.NewUserError("NO_SUCH_THEME", fmt.Sprintf("no such theme: '%s'", args[2])).
					WithHint("list available themes with: theme list")
			}
			base = picked
		}
		base.Name = args[1]
		if err := r.themes.Add(base); err != nil {
			return err
		}
		r.display.Success("theme saved: " + args[1] + " (edit themes.json to customize colors)")
		return nil
	}
	return errors.NewUserError("BAD_ARGS", "invalid theme command").
		WithHint("use: theme list | theme set <name> | theme add <name> [base]")
}

func (r *REPL) cmdSnippet(line string, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "add":
		if len(args) < 3 {
			return errors.NewUserError("MISSING_ARG", "snippet add needs a name and a body").
				WithHint("use: snippet add <name> <script line>")
		}
		body := tailAfter(line, 3)
		if err := r.snips.Add(args[1], body); err != nil {
			return err
		}
		r.display.Success("snippet stored: " + args[1])
		return nil
	case "get":
		if len(args) != 2 {
			return errors.NewUserError("MISSING_ARG", "snippet get needs a name")
		}
		body, err := r.snips.Get(args[1])
		if err != nil {
			return err
		}
		r.display.Print(body)
		return nil
	case "list":
		all, err := r.snips.List()
		if err != nil {
			return err
		}
		if len(all) == 0 {
			r.display.Info("no snippets stored")
			return nil
		}
		var b strings.Builder
		for _, s := range all {
			fmt.Fprintf(&b, "%-20s %s\n", s.Name, snippets.Preview(s.Body))
		}
		r.display.Print(b.String())
		return nil
	case "delete":
		if len(args) != 2 {
			return errors.NewUserError("MISSING_ARG", "snippet delete needs a name")
		}
		if err := r.snips.Delete(args[1]); err != nil {
			return err
		}
		r.display.Success("snippet deleted: " + args[1])
		return nil
	case "search":
		if len(args) < 2 {
			return errors.NewUserError("MISSING_ARG", "snippet search needs a term")
		}
		hits, err := r.snips.Search(strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			r.display.Info("no matches")
			return nil
		}
		var b strings.Builder
		for _, s := range hits {
			fmt.Fprintf(&b, "%-20s %s\n", s.Name, snippets.Preview(s.Body))
		}
		r.display.Print(b.String())
		return nil
	case "run":
		if len(args) != 2 {
			return errors.NewUserError("MISSING_ARG", "snippet run needs a name")
		}
		body, err := r.snips.Get(args[1])
		if err != nil {
			return err
		}
		// snippets run in the session interpreter, sharing its variables
		return r.runtime.RunProgram(body)
	}
	return errors.NewUserError("BAD_ARGS", fmt.Sprintf("unknown snippet command: '%s'", args[0])).
		WithHint("use: snippet add|get|list|delete|search|run")
}

func (r *REPL) cmdKeybind(line string, args []string) error {
	if len(args) == 0 || args[0] == "list" {
		all := r.binds.List()
		if len(all) == 0 {
			r.display.Info("no keybinds set")
			return nil
		}
		var b strings.Builder
		for _, binding := range all {
			fmt.Fprintf(&b, "%-10s %s\n", binding.Alias, binding.Template)
		}
		r.display.Print(b.String())
		return nil
	}
	switch args[0] {
	case "set":
		if len(args) < 3 {
			return errors.NewUserError("MISSING_ARG", "keybind set needs an alias and a template").
				WithHint("use: keybind set <alias> <command template>")
		}
		template := tailAfter(line, 3)
		if err := r.binds.Bind(args[1], template); err != nil {
			return err
		}
		r.display.Success("keybind set: " + args[1])
		return nil
	case "unset":
		if len(args) != 2 {
			return errors.NewUserError("MISSING_ARG", "keybind unset needs an alias")
		}
		if err := r.binds.Unbind(args[1]); err != nil {
			return err
		}
		r.display.Success("keybind removed: " + args[1])
		return nil
	}
	return errors.NewUserError("BAD_ARGS", fmt.Sprintf("unknown keybind command: '%s'", args[0])).
		WithHint("use: keybind list | keybind set <alias> <template> | keybind unset <alias>")
}

func (r *REPL) cmdPackage(args []string) error {
	if len(args) == 0 || args[0] == "list" {
		available := r.pkgs.Available()
		var b strings.Builder
		for _, pkg := range available {
			marker := "  "
			if pkg.Installed {
				marker = "* "
			}
			fmt.Fprintf(&b, "%s%-10s %-8s %s\n", marker, pkg.Name, pkg.Version, pkg.Description)
		}
		r.display.Print(b.String())
		return nil
	}
	switch args[0] {
	case "install":
		if len(args) != 2 {
			return errors.NewUserError("MISSING_ARG", "package install needs a name")
		}
		pkg, err := r.pkgs.Install(args[1])
		if err != nil {
			return err
		}
		r.display.Success(fmt.Sprintf("installed %s@%s", pkg.Name, pkg.Version))
		return nil
	case "uninstall":
		if len(args) != 2 {
			return errors.NewUserError("MISSING_ARG", "package uninstall needs a name")
		}
		if err := r.pkgs.Uninstall(args[1]); err != nil {
			return err
		}
		r.display.Success("uninstalled " + args[1])
		return nil
	case "search":
		if len(args) < 2 {
			return errors.NewUserError("MISSING_ARG", "package search needs a term")
		}
		hits := r.pkgs.Search(strings.Join(args[1:], " "))
		if len(hits) == 0 {
			r.display.Info("no matches")
			return nil
		}
		var b strings.Builder
		for _, pkg := range hits {
			fmt.Fprintf(&b, "%-10s %-8s %s\n", pkg.Name, pkg.Version, pkg.Description)
		}
		r.display.Print(b.String())
		return nil
	case "info":
		if len(args) != 2 {
			return errors.NewUserError("MISSING_ARG", "package info needs a name")
		}
		pkg, err := r.pkgs.Info(args[1])
		if err != nil {
			return err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%s@%s\n%s\n", pkg.Name, pkg.Version, pkg.Description)
		if len(pkg.Functions) > 0 {
			fmt.Fprintf(&b, "functions: %s\n", strings.Join(pkg.Functions, ", "))
		}
		r.display.Print(b.String())
		return nil
	}
	return errors.NewUserError("BAD_ARGS", fmt.Sprintf("unknown package command: '%s'", args[0])).
		WithHint("use: package list | install <name> | uninstall <name> | search <term> | info <name>")
}

func (r *REPL) cmdPlugin(args []string) error {
	if len(args) == 0 || args[0] == "list" {
		cmds := r.plugs.Commands()
		if len(cmds) == 0 {
			r.display.Info("no plugin commands loaded")
			return nil
		}
		var b strings.Builder
		for _, cmd := range cmds {
			fmt.Fprintf(&b, "%-20s from %s\n", cmd.Name, cmd.Plugin)
		}
		r.display.Print(b.String())
		return nil
	}
	if args[0] == "reload" {
		if err := r.plugs.Load(); err != nil {
			return err
		}
		r.display.Success(fmt.Sprintf("plugins reloaded: %d commands", len(r.plugs.Commands())))
		return nil
	}
	return errors.NewUserError("BAD_ARGS", fmt.Sprintf("unknown plugin command: '%s'", args[0])).
		WithHint("use: plugin list | plugin reload")
}

func (r *REPL) cmdGit(args []string) error {
	if r.git == nil {
		return errors.NewSystemError("GIT_MISSING", "git is not available on this system")
	}
	out, err := r.git.Run(context.Background(), args)
	if out != "" {
		r.display.Print(out)
	}
	return err
}

func (r *REPL) cmdCreate(args []string) error {
	if len(args) == 0 || args[0] == "list" {
		var b strings.Builder
		for _, name := range templates.Names() {
			desc, _ := templates.Describe(name)
			fmt.Fprintf(&b, "%-10s %s\n", name, desc)
		}
		r.display.Print(b.String())
		return nil
	}
	if len(args) != 2 {
		return errors.NewUserError("MISSING_ARG", "create needs a template and a project name").
			WithHint("use: create <template> <name>")
	}
	if err := templates.Stamp(r.fs, args[0], args[1]); err != nil {
		return err
	}
	r.display.Success(fmt.Sprintf("created %s from template %s", args[1], args[0]))
	return nil
}

func (r *REPL) cmdEnter(args []string) error {
	if len(args) != 1 {
		return errors.NewUserError("BAD_ARGS", "enter needs a mode").
			WithHint("use: enter script | enter chat")
	}
	switch args[0] {
	case "script":
		r.mode = modeScript
		r.display.Info("script console - 'exit' returns to the shell")
		return nil
	case "chat":
		r.mode = modeChat
		r.display.Info("chat mode - 'exit' returns to the shell")
		return nil
	}
	return errors.NewUserError("BAD_ARGS", fmt.Sprintf("unknown mode: '%s'", args[0])).
		WithHint("use: enter script | enter chat")
}

// templateNames feeds the completer
func (r *REPL) templateNames() []string {
	return templates.Names()
}

// tailAfter returns the remainder of a line after its first n
// whitespace-separated tokens, preserving internal spacing
func tailAfter(line string, n int) string {
	rest := strings.TrimSpace(line)
	for i := 0; i < n; i++ {
		idx := strings.IndexFunc(rest, unicode.IsSpace)
		if idx < 0 {
			return ""
		}
		rest = strings.TrimSpace(rest[idx:])
	}
	return rest
}
