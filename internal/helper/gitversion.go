package helper

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	appErrors "repoup/internal/errors"
)

// MinGitVersion is the oldest git with `branch --show-current`.
var MinGitVersion = GitVersion{Major: 2, Minor: 22, Patch: 0}

// GitVersion is a parsed `git --version`.
type GitVersion struct {
	Major int
	Minor int
	Patch int
	Raw   string
}

// gitVersionRegex accepts "git version 2.43.0", "git version 2.39.3 (Apple Git-146)"
// and "git version 2.45.1.windows.1".
var gitVersionRegex = regexp.MustCompile(`(?:^|\s)v?(\d+)\.(\d+)(?:\.(\d+))?`)

// ParseGitVersion extracts the version from `git --version` output.
func ParseGitVersion(s string) (GitVersion, error) {
	matches := gitVersionRegex.FindStringSubmatch(s)
	if matches == nil {
		return GitVersion{}, fmt.Errorf("invalid git version: %q", s)
	}
	major, _ := strconv.Atoi(matches[1])
	minor, _ := strconv.Atoi(matches[2])
	patch := 0
	if matches[3] != "" {
		patch, _ = strconv.Atoi(matches[3])
	}
	return GitVersion{Major: major, Minor: minor, Patch: patch, Raw: s}, nil
}

func (v GitVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or 1 as v is older than, equal to or newer than other.
func (v GitVersion) Compare(other GitVersion) int {
	if v.Major != other.Major {
		return compareInt(v.Major, other.Major)
	}
	if v.Minor != other.Minor {
		return compareInt(v.Minor, other.Minor)
	}
	return compareInt(v.Patch, other.Patch)
}

// LessThan returns true if v < other.
func (v GitVersion) LessThan(other GitVersion) bool {
	return v.Compare(other) < 0
}

func compareInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// checkVersion rejects a git that is known to be too old. A git whose
// version cannot be determined is given the benefit of the doubt; the
// real command will report its own error.
func (g *gitCLI) checkVersion(ctx context.Context) error {
	g.versionOnce.Do(func() {
		out, err := g.output(ctx, "--version")
		if err != nil {
			return
		}
		v, err := ParseGitVersion(out)
		if err != nil || !v.LessThan(MinGitVersion) {
			return
		}
		g.versionErr = appErrors.New(appErrors.CodeGitFailed,
			fmt.Sprintf("git %s is too old", v),
			CommandError{
				Cmd:    commandLine(g.bin, []string{"--version"}),
				Output: fmt.Sprintf("git %s is too old; %s or newer is required", v, MinGitVersion),
			})
	})
	return g.versionErr
}
