package helper

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	appErrors "repoup/internal/errors"
)

var (
	// Swapped out by tests; the real ones replace or spawn processes.
	executablePath = os.Executable
	execProcess    = syscall.Exec
	startDetached  = func(cmd *exec.Cmd) error {
		if err := cmd.Start(); err != nil {
			return err
		}
		return cmd.Process.Release()
	}
)

type relauncher struct {
	argv []string
	dir  string
}

// relaunch starts the configured command, or re-executes the current
// binary with the same arguments when none is configured. The caller must
// have restored the terminal first.
func (r relauncher) relaunch() error {
	if len(r.argv) > 0 {
		//nolint:gosec // G204: the relaunch command comes from user configuration
		cmd := exec.Command(r.argv[0], r.argv[1:]...)
		cmd.Dir = r.dir
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := startDetached(cmd); err != nil {
			return appErrors.New(appErrors.CodeRelaunchFailed,
				fmt.Sprintf("start %s", commandLine(r.argv[0], r.argv[1:])), err)
		}
		return nil
	}

	exe, err := executablePath()
	if err != nil {
		return appErrors.New(appErrors.CodeRelaunchFailed, "locate current executable", err)
	}
	if err := execProcess(exe, os.Args, os.Environ()); err != nil {
		return appErrors.New(appErrors.CodeRelaunchFailed, fmt.Sprintf("exec %s", exe), err)
	}
	return nil
}
