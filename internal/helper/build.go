package helper

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"

	appErrors "repoup/internal/errors"
)

type buildRunner struct {
	argv   []string
	dir    string
	marker string
}

// run executes the build. A build fails when it exits non-zero or prints
// the failure marker; some build scripts report errors but exit 0.
func (b buildRunner) run(ctx context.Context) error {
	if len(b.argv) == 0 {
		return appErrors.New(appErrors.CodeConfigurationError, "build command is empty", nil)
	}
	bin, args := b.argv[0], b.argv[1:]
	//nolint:gosec // G204: the build command comes from user configuration
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = b.dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return classifyCommandError(appErrors.CodeBuildFailed, bin, args, err, out)
	}
	if line, found := markerLine(string(out), b.marker); found {
		cmdErr := CommandError{Cmd: commandLine(bin, args), Output: line}
		return appErrors.New(appErrors.CodeBuildFailed, fmt.Sprintf("%s reported a failed build", cmdErr.Cmd), cmdErr)
	}
	return nil
}

func markerLine(out, marker string) (string, bool) {
	if strings.TrimSpace(marker) == "" {
		return "", false
	}
	scanner := bufio.NewScanner(strings.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := scanner.Text(); strings.Contains(line, marker) {
			return strings.TrimSpace(line), true
		}
	}
	return "", false
}
