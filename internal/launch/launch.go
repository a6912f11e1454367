// Package launch runs the patched installer under the privilege boundary.
package launch

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/justyntemme/customDefenderInstall/internal/install"
)

type Launcher struct {
	// ParentDir is where scratch directories are created. Defaults to the
	// system temp dir.
	ParentDir string
	// SudoCmd is the privilege escalation command. Defaults to "sudo";
	// empty disables escalation (tests, already-root invocations).
	SudoCmd string
	// WorkDir is where the installer itself runs. Empty means the invoking
	// process's working directory. The installer's own work folder is
	// relative to this - it must never land inside the scratch dir, which
	// is removed unconditionally.
	WorkDir string
}

func New() *Launcher {
	return &Launcher{SudoCmd: "sudo"}
}

// Launch writes the script into a freshly created scratch directory, executes
// it with "-c <console>" followed by the passthrough args verbatim, and
// returns the child's exit code. The scratch directory holds only the tool's
// copy of the script and is removed on every exit path; the installer runs in
// WorkDir, so its own working folder survives whenever the retention patch
// told the script to keep it. Signals reach the child through the shared
// terminal - the launcher never traps them.
func (l *Launcher) Launch(ctx context.Context, script []byte, req *install.Request) (int, error) {
	parent := l.ParentDir
	if parent == "" {
		parent = os.TempDir()
	}

	dir := filepath.Join(parent, "defenderctl-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0700); err != nil {
		return 0, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "defender.sh")
	if err := os.WriteFile(path, script, 0700); err != nil {
		return 0, fmt.Errorf("writing patched script: %w", err)
	}

	cmd := exec.CommandContext(ctx, l.command(), l.args(path, req)...)
	if l.WorkDir != "" {
		cmd.Dir = l.WorkDir
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr

	log.Printf("running installer...")
	err := cmd.Run()
	if exit, ok := err.(*exec.ExitError); ok {
		return exit.ExitCode(), nil
	}
	if err != nil {
		return 0, fmt.Errorf("starting installer: %w", err)
	}
	return 0, nil
}

func (l *Launcher) command() string {
	if l.SudoCmd != "" {
		return l.SudoCmd
	}
	return "bash"
}

func (l *Launcher) args(path string, req *install.Request) []string {
	args := []string{}
	if l.SudoCmd != "" {
		args = append(args, "bash")
	}
	args = append(args, path, "-c", req.Console)
	return append(args, req.Passthrough...)
}
