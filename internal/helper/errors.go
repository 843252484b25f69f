package helper

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	appErrors "repoup/internal/errors"
)

const maxErrorSnippetLen = 400

// CommandError wraps a failed external command (git, the build tool).
type CommandError struct {
	Cmd    string
	Output string
	Err    error
}

func (e CommandError) Error() string {
	if detail := e.Detail(); detail != "" {
		return fmt.Sprintf("%s failed: %s", e.Cmd, detail)
	}
	return fmt.Sprintf("%s failed", e.Cmd)
}

func (e CommandError) Unwrap() error {
	return e.Err
}

// Detail is the command's output when it printed any, otherwise the
// underlying error text.
func (e CommandError) Detail() string {
	if out := strings.TrimSpace(e.Output); out != "" {
		return out
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

func commandLine(bin string, args []string) string {
	return strings.Join(append([]string{bin}, args...), " ")
}

func snippet(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) > maxErrorSnippetLen {
		s = s[:maxErrorSnippetLen] + "..."
	}
	return s
}

// classifyCommandError attaches a structured code to a failed command.
func classifyCommandError(code appErrors.Code, bin string, args []string, err error, out []byte) error {
	cmdErr := CommandError{Cmd: commandLine(bin, args), Output: snippet(out), Err: err}
	switch {
	case errors.Is(err, exec.ErrNotFound):
		if code == appErrors.CodeGitFailed {
			code = appErrors.CodeGitNotFound
		}
		return appErrors.New(code, fmt.Sprintf("%s binary not found in PATH", bin), cmdErr)
	case errors.Is(err, context.DeadlineExceeded):
		cmdErr.Output = "timed out"
		return appErrors.New(code, cmdErr.Error(), cmdErr)
	default:
		return appErrors.New(code, cmdErr.Error(), cmdErr)
	}
}
