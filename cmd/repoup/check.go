package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"repoup/internal/helper"
	"repoup/internal/update"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// checkReport is the result of a non-interactive check. It is also the
// JSON document printed by `check --json`.
type checkReport struct {
	Repo     *helper.RepoInfo `json:"repo,omitempty"`
	Pending  []helper.Commit  `json:"pending"`
	UpToDate bool             `json:"upToDate"`
	Errors   []checkFailure   `json:"errors,omitempty"`
}

type checkFailure struct {
	Step string `json:"step"`
	helper.Failure
}

func (r checkReport) failed() bool {
	return len(r.Errors) > 0
}

func newCheckCmd(d deps) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Print the repository identity and pending upstream commits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := d.newHelper()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			var opts []update.FetcherOption
			if store := openOptionalHistory(ctx, d); store != nil {
				defer store.Close()
				opts = append(opts, update.WithRecorder(store))
			}
			report := runCheck(ctx, update.NewFetcher(h, opts...))
			if jsonOutput {
				enc := json.NewEncoder(d.stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return fmt.Errorf("encode report: %w", err)
				}
			} else {
				printCheckReport(d.stdout, report)
			}
			if report.failed() {
				return errSilent
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
	return cmd
}

// runCheck fetches repo info first so the recorded check carries the
// current HEAD.
func runCheck(ctx context.Context, f *update.Fetcher) checkReport {
	var report checkReport
	infoRes := f.FetchRepoInfo(ctx)
	if info, ok := infoRes.Value(); ok {
		report.Repo = &info
	} else {
		failure, _ := infoRes.Failure()
		report.Errors = append(report.Errors, checkFailure{Step: "repo info", Failure: failure})
	}

	commitsRes := f.FetchPendingCommits(ctx)
	if commits, ok := commitsRes.Value(); ok {
		report.Pending = commits
		report.UpToDate = len(commits) == 0
	} else {
		failure, _ := commitsRes.Failure()
		report.Errors = append(report.Errors, checkFailure{Step: "pending commits", Failure: failure})
	}
	if report.Pending == nil {
		report.Pending = []helper.Commit{}
	}
	return report
}

var (
	reportTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	reportDimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4"))
	reportHashStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F1FA8C"))
	reportOKStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#50FA7B"))
	reportWarnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFB86C"))
	reportErrStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5555"))
)

func printCheckReport(w io.Writer, r checkReport) {
	if r.Repo != nil {
		line := reportTitleStyle.Render(helper.RepoSlug(r.Repo.RepositoryURL)) +
			" " + reportHashStyle.Render(helper.ShortHash(r.Repo.CurrentCommitHash))
		if r.Repo.Branch != "" {
			line += reportDimStyle.Render(" on " + r.Repo.Branch)
		}
		fmt.Fprintln(w, line)
	}

	for _, e := range r.Errors {
		fmt.Fprintln(w, reportErrStyle.Render("Failed to check updates ("+e.Step+")"))
		if e.Cmd == "" {
			fmt.Fprintln(w, "  An unknown error occurred")
			continue
		}
		fmt.Fprintf(w, "  Error occurred when running: %s\n", e.Cmd)
		if e.Message != "" {
			fmt.Fprintln(w, reportDimStyle.Render("  "+e.Message))
		}
	}
	if r.failed() {
		return
	}

	switch len(r.Pending) {
	case 0:
		fmt.Fprintln(w, reportOKStyle.Render("Up to Date!"))
		return
	case 1:
		fmt.Fprintln(w, reportWarnStyle.Render("There is 1 Update"))
	default:
		fmt.Fprintln(w, reportWarnStyle.Render(fmt.Sprintf("There are %d Updates", len(r.Pending))))
	}
	for _, c := range r.Pending {
		fmt.Fprintf(w, "  %s %s %s\n", reportHashStyle.Render(c.ShortHash), c.Message, reportDimStyle.Render("- "+c.Author))
	}
}
