// Package repl implements the interactive Valyxo shell: command dispatch,
// the script and chat consoles, and the readline loop.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"valyxo/chat"
	"valyxo/errors"
	"valyxo/gitcmd"
	"valyxo/jobmanager"
	"valyxo/keybinds"
	"valyxo/logging"
	"valyxo/man"
	"valyxo/packages"
	"valyxo/plugins"
	"valyxo/script"
	"valyxo/snippets"
	"valyxo/store"
	"valyxo/themes"
	"valyxo/vfs"
)

// Version is stamped into the banner
const Version = "0.6.0"

type mode int

const (
	modeShell mode = iota
	modeScript
	modeChat
)

// Config contains configuration for the shell
type Config struct {
	WorkspaceDir  string
	HistoryFile   string // readline history, defaults under the workspace
	HistorySize   int
	MaxIterations int
	JobLimit      int
	ForceColors   bool
	ShowBanner    bool
	Logger        logging.Logger
}

// REPL is the interactive shell. One instance owns one workspace, one
// session interpreter and one set of managers.
type REPL struct {
	cfg     Config
	log     logging.Logger
	fs      *vfs.FS
	display *DisplayManager
	themes  *themes.Manager
	binds   *keybinds.Table
	manual  *man.Manual
	chat    *chat.Assistant
	db      *store.Store
	snips   *snippets.Manager
	pkgs    *packages.Manager
	plugs   *plugins.Host
	jobs    *jobmanager.Manager
	git     *gitcmd.Runner // nil when no git binary exists
	runtime *script.Runtime

	mode    mode
	running bool
}

// New creates a shell over the given workspace
func New(cfg Config) (*REPL, error) {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewDefaultLogger()
	}
	if cfg.HistorySize == 0 {
		cfg.HistorySize = 1000
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = script.DefaultMaxIterations
	}
	if cfg.JobLimit == 0 {
		cfg.JobLimit = 4
	}

	fs, err := vfs.New(cfg.WorkspaceDir)
	if err != nil {
		return nil, err
	}
	if cfg.HistoryFile == "" {
		cfg.HistoryFile = filepath.Join(fs.Root(), ".valyxo_history")
	}

	themeManager, err := themes.NewManager(filepath.Join(fs.Root(), "themes.json"))
	if err != nil {
		return nil, err
	}
	bindTable, err := keybinds.NewTable(filepath.Join(fs.Root(), "keybinds.json"))
	if err != nil {
		return nil, err
	}
	manual, err := man.NewManual(filepath.Join(fs.Root(), "man.json"))
	if err != nil {
		return nil, err
	}
	db, err := store.Open(filepath.Join(fs.Root(), "valyxo.db"))
	if err != nil {
		return nil, err
	}
	pkgs, err := packages.NewManager(
		filepath.Join(fs.Root(), "packages"),
		filepath.Join(fs.Root(), "packages.json"))
	if err != nil {
		return nil, err
	}

	r := &REPL{
		cfg:    cfg,
		log:    cfg.Logger.WithComponent("repl"),
		fs:     fs,
		themes: themeManager,
		binds:  bindTable,
		manual: manual,
		chat:   chat.NewAssistant(),
		db:     db,
		snips:  snippets.NewManager(db),
		pkgs:   pkgs,
		jobs:   jobmanager.NewManager(cfg.JobLimit),
	}
	r.display = NewDisplayManager(themeManager, cfg.ForceColors)
	r.plugs = plugins.NewHost(filepath.Join(fs.Root(), "plugins"), cfg.Logger)
	r.runtime = r.newRuntime(r.display.Writer())

	if git, err := gitcmd.NewRunner(fs); err == nil {
		r.git = git
	} else {
		r.log.Debug("git passthrough disabled", logging.ErrorField("error", err))
	}

	if err := r.plugs.Load(); err != nil {
		r.log.Warn("plugin scan failed", logging.ErrorField("error", err))
	}

	return r, nil
}

// newRuntime builds a script runtime wired to the sandboxed filesystem
func (r *REPL) newRuntime(out io.Writer, opts ...script.Option) *script.Runtime {
	base := []script.Option{
		script.WithOutput(out),
		script.WithMaxIterations(r.cfg.MaxIterations),
		script.WithImportLoader(r.fs.ReadFile),
	}
	return script.New(append(base, opts...)...)
}

// Close releases the shell's resources
func (r *REPL) Close() {
	r.jobs.Shutdown()
	r.plugs.Close()
	if err := r.db.Close(); err != nil {
		r.log.Warn("closing the shell database failed", logging.ErrorField("error", err))
	}
}

// Run starts the shell loop, picking interactive or piped mode by stdin
func (r *REPL) Run() error {
	r.running = true
	defer r.Close()

	if r.cfg.ShowBanner {
		r.display.Banner(Version)
	}

	if isInteractive() {
		return r.runInteractive()
	}
	return r.runPiped()
}

func isInteractive() bool {
	fileInfo, _ := os.Stdin.Stat()
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

func (r *REPL) runInteractive() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          r.prompt(),
		HistoryFile:     r.cfg.HistoryFile,
		HistoryLimit:    r.cfg.HistorySize,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		AutoComplete:    NewCompleter(r),
	})
	if err != nil {
		return errors.NewSystemError("READLINE_INIT_FAILED", "failed to initialize readline").Wrap(err)
	}
	defer func() {
		if err := rl.Close(); err != nil {
			r.log.Warn("failed to close readline", logging.ErrorField("error", err))
		}
	}()

	for r.running {
		r.drainNotifications()
		rl.SetPrompt(r.prompt())

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if r.mode != modeShell {
				r.leaveMode()
				continue
			}
			if len(line) == 0 {
				break
			}
			continue
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.NewSystemError("READ_FAILED", "failed to read input").Wrap(err)
		}

		r.dispatch(line, os.Stdin)
	}
	return nil
}

// runPiped processes stdin line by line without prompts
func (r *REPL) runPiped() error {
	scanner := bufio.NewScanner(os.Stdin)
	for r.running && scanner.Scan() {
		r.drainNotifications()
		r.dispatch(scanner.Text(), os.Stdin)
	}
	return scanner.Err()
}

// prompt returns the prompt for the current mode
func (r *REPL) prompt() string {
	switch r.mode {
	case modeScript:
		return r.display.ScriptPrompt(r.runtime.Open())
	case modeChat:
		return r.display.ChatPrompt()
	default:
		return r.display.Prompt(r.fs.Cwd())
	}
}

// dispatch routes one input line by mode. editorInput feeds the nano
// command when it runs.
func (r *REPL) dispatch(line string, editorInput io.Reader) {
	switch r.mode {
	case modeScript:
		r.dispatchScript(line)
	case modeChat:
		r.dispatchChat(line)
	default:
		if err := r.executeShell(line, editorInput); err != nil {
			r.display.Error(err)
			r.log.ErrorScript(err)
		}
	}
}

func (r *REPL) dispatchScript(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "exit" && !r.runtime.Open() {
		r.leaveMode()
		return
	}
	if err := r.runtime.FeedLine(line); err != nil {
		// interactive scripting reports and carries on
		r.display.Error(err)
		r.log.ErrorScript(err)
	}
}

func (r *REPL) dispatchChat(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	if trimmed == "exit" {
		r.leaveMode()
		return
	}
	r.display.Print(r.chat.Respond(trimmed))
}

func (r *REPL) leaveMode() {
	if r.mode == modeScript {
		if err := r.runtime.Finish(); err != nil {
			r.display.Error(err)
		}
	}
	r.mode = modeShell
}

// drainNotifications reports background jobs that finished since the last
// prompt
func (r *REPL) drainNotifications() {
	for {
		select {
		case n, ok := <-r.jobs.Notifications():
			if !ok {
				return
			}
			switch n.Status {
			case jobmanager.StatusCompleted:
				r.display.Success(fmt.Sprintf("[job %d] %s finished", n.JobID, n.Script))
			case jobmanager.StatusStopped:
				r.display.Info(fmt.Sprintf("[job %d] %s stopped", n.JobID, n.Script))
			default:
				r.display.Error(errors.NewUserError("JOB_FAILED",
					fmt.Sprintf("[job %d] %s failed: %v", n.JobID, n.Script, n.Error)))
			}
			if job, err := r.jobs.GetJob(n.JobID); err == nil {
				if out := job.Output(); out != "" {
					r.display.Print(out)
				}
			}
		default:
			return
		}
	}
}
