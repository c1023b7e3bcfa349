package repl

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valyxo/jobmanager"
	"valyxo/logging"
)

// newTestREPL builds a shell over a temp workspace with captured output
func newTestREPL(t *testing.T) (*REPL, *bytes.Buffer) {
	t.Helper()
	logger := logging.NewDefaultLoggerWithConfig(logging.LoggerConfig{
		Level:   logging.LevelFatal,
		Writers: []logging.Writer{logging.NewNullWriter()},
	})
	r, err := New(Config{WorkspaceDir: t.TempDir(), Logger: logger})
	require.NoError(t, err)
	t.Cleanup(r.Close)

	var out bytes.Buffer
	r.display = NewDisplayManagerWithWriter(&out, r.themes, false)
	r.runtime = r.newRuntime(&out)
	return r, &out
}

func shell(t *testing.T, r *REPL, line string) error {
	t.Helper()
	return r.executeShell(line, strings.NewReader(""))
}

func TestREPL_FileCommands(t *testing.T) {
	r, out := newTestREPL(t)

	require.NoError(t, shell(t, r, "mkdir proj"))
	require.NoError(t, shell(t, r, "cd proj"))
	assert.Equal(t, "/proj", r.fs.Cwd())

	require.NoError(t, r.fs.WriteFile("note.txt", "hello world"))
	require.NoError(t, shell(t, r, "cat note.txt"))
	assert.Contains(t, out.String(), "hello world")

	out.Reset()
	require.NoError(t, shell(t, r, "ls"))
	assert.Contains(t, out.String(), "note.txt")

	out.Reset()
	require.NoError(t, shell(t, r, "grep hello note.txt"))
	assert.Contains(t, out.String(), "/proj/note.txt:1: hello world")

	err := shell(t, r, "cat missing.txt")
	require.Error(t, err)
}

func TestREPL_LsGlob(t *testing.T) {
	r, out := newTestREPL(t)

	require.NoError(t, r.fs.WriteFile("build.vx", "print 1"))
	require.NoError(t, r.fs.WriteFile("notes.txt", "x"))

	require.NoError(t, shell(t, r, "ls *.vx"))
	assert.Contains(t, out.String(), "/build.vx")
	assert.NotContains(t, out.String(), "notes.txt")

	out.Reset()
	require.NoError(t, shell(t, r, "ls *.zip"))
	assert.Contains(t, out.String(), "no matches")
}

func TestREPL_RunForeground(t *testing.T) {
	r, out := newTestREPL(t)

	require.NoError(t, r.fs.WriteFile("hello.vx", "set x = 21 * 2\nprint x"))
	require.NoError(t, shell(t, r, "run hello.vx"))
	assert.Contains(t, out.String(), "42")
}

func TestREPL_RunAbortsOnFirstError(t *testing.T) {
	r, out := newTestREPL(t)

	require.NoError(t, r.fs.WriteFile("bad.vx", "print before\nbogus command\nprint after"))
	err := shell(t, r, "run bad.vx")
	require.Error(t, err)
	assert.Contains(t, out.String(), "before")
	assert.NotContains(t, out.String(), "after")
}

func TestREPL_RunBackgroundJob(t *testing.T) {
	r, out := newTestREPL(t)

	require.NoError(t, r.fs.WriteFile("bg.vx", "print from background"))
	require.NoError(t, shell(t, r, "run bg.vx &"))
	assert.Contains(t, out.String(), "started")

	// wait for the job to finish, then drain the notification
	deadline := time.Now().Add(3 * time.Second)
	for r.jobs.RunningCount() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(10 * time.Millisecond)
	r.drainNotifications()
	assert.Contains(t, out.String(), "from background")
	assert.Contains(t, out.String(), "finished")

	jobs := r.jobs.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, jobmanager.StatusCompleted, jobs[0].GetStatus())
}

func TestREPL_ScriptMode(t *testing.T) {
	r, out := newTestREPL(t)

	require.NoError(t, shell(t, r, "enter script"))
	assert.Equal(t, modeScript, r.mode)

	r.dispatch("set x = 10", nil)
	r.dispatch("for i in 1 to 3 {", nil)
	assert.True(t, r.runtime.Open())
	r.dispatch("set x = x + i", nil)
	r.dispatch("}", nil)
	r.dispatch("print x", nil)
	assert.Contains(t, out.String(), "16")

	r.dispatch("exit", nil)
	assert.Equal(t, modeShell, r.mode)

	// session variables survive for the vars command
	out.Reset()
	r.cmdVars()
	assert.Contains(t, out.String(), "x = 16")
}

func TestREPL_ScriptModeReportsAndContinues(t *testing.T) {
	r, out := newTestREPL(t)

	require.NoError(t, shell(t, r, "enter script"))
	r.dispatch("nonsense here", nil)
	assert.Contains(t, out.String(), "unknown command")

	out.Reset()
	r.dispatch("print still alive", nil)
	assert.Contains(t, out.String(), "still alive")
}

func TestREPL_ChatMode(t *testing.T) {
	r, out := newTestREPL(t)

	require.NoError(t, shell(t, r, "enter chat"))
	r.dispatch("how do jobs work?", nil)
	assert.Contains(t, out.String(), "jobs")

	r.dispatch("exit", nil)
	assert.Equal(t, modeShell, r.mode)
}

func TestREPL_SnippetCommands(t *testing.T) {
	r, out := newTestREPL(t)

	require.NoError(t, shell(t, r, "snippet add answer set answer = 42"))
	require.NoError(t, shell(t, r, "snippet run answer"))

	out.Reset()
	r.cmdVars()
	assert.Contains(t, out.String(), "answer = 42")

	out.Reset()
	require.NoError(t, shell(t, r, "snippet list"))
	assert.Contains(t, out.String(), "answer")

	require.NoError(t, shell(t, r, "snippet delete answer"))
	require.Error(t, shell(t, r, "snippet get answer"))
}

func TestREPL_KeybindExpansion(t *testing.T) {
	r, out := newTestREPL(t)

	require.NoError(t, r.fs.WriteFile("go.vx", "print bound"))
	require.NoError(t, shell(t, r, "keybind set x run $1"))
	require.NoError(t, shell(t, r, "x go.vx"))
	assert.Contains(t, out.String(), "bound")
}

func TestREPL_ThemeCommands(t *testing.T) {
	r, out := newTestREPL(t)

	require.NoError(t, shell(t, r, "theme list"))
	assert.Contains(t, out.String(), "* default")

	require.NoError(t, shell(t, r, "theme set ocean"))
	assert.Equal(t, "ocean", r.themes.Active().Name)

	require.Error(t, shell(t, r, "theme set nope"))
}

func TestREPL_ThemeAdd(t *testing.T) {
	r, _ := newTestREPL(t)

	require.NoError(t, shell(t, r, "theme add night ocean"))
	assert.True(t, r.fs.Exists("themes.json"))

	ocean, _ := r.themes.Get("ocean")
	night, ok := r.themes.Get("night")
	require.True(t, ok)
	assert.Equal(t, ocean.Prompt, night.Prompt)

	require.NoError(t, shell(t, r, "theme set night"))
	assert.Equal(t, "night", r.themes.Active().Name)

	require.Error(t, shell(t, r, "theme add default"), "built-ins stay untouchable")
	require.Error(t, shell(t, r, "theme add other missing"))
}

func TestREPL_PackageCommands(t *testing.T) {
	r, out := newTestREPL(t)

	require.NoError(t, shell(t, r, "package install math"))
	assert.Contains(t, out.String(), "installed math@1.0.0")

	out.Reset()
	require.NoError(t, shell(t, r, "package list"))
	assert.Contains(t, out.String(), "* math")
	assert.Contains(t, out.String(), "  string")

	out.Reset()
	require.NoError(t, shell(t, r, "package info string"))
	assert.Contains(t, out.String(), "String manipulation utilities")
	assert.Contains(t, out.String(), "upper")

	out.Reset()
	require.NoError(t, shell(t, r, "package search json"))
	assert.Contains(t, out.String(), "JSON parsing")

	require.NoError(t, shell(t, r, "package uninstall math"))
	require.Error(t, shell(t, r, "package uninstall math"))
	require.Error(t, shell(t, r, "package install nope"))
}

func TestREPL_CreateTemplate(t *testing.T) {
	r, out := newTestREPL(t)

	require.NoError(t, shell(t, r, "create script demo"))
	assert.True(t, r.fs.Exists("demo/main.vx"))

	out.Reset()
	require.NoError(t, shell(t, r, "run demo/main.vx"))
	assert.Contains(t, out.String(), "Hello from demo")
}

func TestREPL_UnknownCommand(t *testing.T) {
	r, _ := newTestREPL(t)

	err := shell(t, r, "frobnicate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "help")
}

func TestREPL_HistoryCommand(t *testing.T) {
	r, out := newTestREPL(t)

	require.NoError(t, shell(t, r, "ls"))
	require.NoError(t, shell(t, r, "jobs"))
	out.Reset()
	require.NoError(t, shell(t, r, "history"))
	assert.Contains(t, out.String(), "ls")
	assert.Contains(t, out.String(), "jobs")
}

func TestREPL_QuitStopsTheLoop(t *testing.T) {
	r, _ := newTestREPL(t)
	r.running = true
	require.NoError(t, shell(t, r, "quit"))
	assert.False(t, r.running)
}

func TestEditor(t *testing.T) {
	r, out := newTestREPL(t)

	input := strings.NewReader("print one\nprint two\n:d\nprint three\n:wq\n")
	require.NoError(t, r.cmdNano([]string{"draft.vx"}, input))
	assert.Contains(t, out.String(), "wrote draft.vx")

	content, err := r.fs.ReadFile("draft.vx")
	require.NoError(t, err)
	assert.Equal(t, "print one\nprint three\n", content)

	// reopening shows the existing lines
	out.Reset()
	input = strings.NewReader(":p\n:q\n")
	require.NoError(t, r.cmdNano([]string{"draft.vx"}, input))
	assert.Contains(t, out.String(), "print one")
}

func TestCompleter(t *testing.T) {
	r, _ := newTestREPL(t)
	c := NewCompleter(r)

	t.Run("completes command names", func(t *testing.T) {
		line := []rune("hel")
		completions, length := c.Do(line, len(line))
		require.NotEmpty(t, completions)
		assert.Equal(t, 3, length)
		assert.Equal(t, "p", string(completions[0]))
	})

	t.Run("completes theme names after theme set", func(t *testing.T) {
		line := []rune("theme set oc")
		completions, _ := c.Do(line, len(line))
		require.NotEmpty(t, completions)
		assert.Equal(t, "ean", string(completions[0]))
	})

	t.Run("completes files for cat", func(t *testing.T) {
		require.NoError(t, r.fs.WriteFile("notes.txt", "x"))
		line := []rune("cat no")
		completions, _ := c.Do(line, len(line))
		require.NotEmpty(t, completions)
		assert.Equal(t, "tes.txt", string(completions[0]))
	})
}
