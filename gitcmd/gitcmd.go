// Package gitcmd passes git commands through to the system binary,
// confined to the workspace directory.
package gitcmd

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"valyxo/errors"
	"valyxo/vfs"
)

// DefaultTimeout bounds a single git invocation
const DefaultTimeout = 30 * time.Second

// Runner executes git subcommands inside the workspace
type Runner struct {
	fs      *vfs.FS
	timeout time.Duration
	gitPath string
}

// NewRunner creates a runner. It fails when no git binary is on PATH.
func NewRunner(fs *vfs.FS) (*Runner, error) {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		return nil, errors.NewSystemError("GIT_MISSING", "git binary not found on PATH").Wrap(err)
	}
	return &Runner{fs: fs, timeout: DefaultTimeout, gitPath: gitPath}, nil
}

// Run executes one git command in the virtual cwd and returns its combined
// output. A non-zero exit comes back as a user error carrying the output.
func (r *Runner) Run(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.NewUserError("GIT_NO_ARGS", "git needs a subcommand").
			WithHint("example: git status")
	}

	dir, err := r.fs.HostPath(".")
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.gitPath, args...)
	cmd.Dir = dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return out.String(), errors.NewSystemError("GIT_TIMEOUT", "git command timed out")
		}
		return out.String(), errors.NewUserError("GIT_FAILED",
			strings.TrimSpace("git "+strings.Join(args, " ")+" failed")).
			Wrap(err).
			WithContext(strings.TrimSpace(out.String()))
	}
	return out.String(), nil
}
