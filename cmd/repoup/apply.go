package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"repoup/internal/debug"
	"repoup/internal/helper"
	"repoup/internal/update"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func newApplyCmd(d deps) *cobra.Command {
	var restart bool
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Pull upstream commits and rebuild without opening the UI",
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
			return runApply(ctx, d, h, restart)
		},
	}
	cmd.Flags().BoolVar(&restart, "restart", false, "Relaunch the application after a successful update")
	return cmd
}

func runApply(ctx context.Context, d deps, h helper.Helper, restart bool) error {
	applier := update.NewApplier(h)
	var sp *stepSpinner
	if isTerminal(d.stderr) {
		sp = newStepSpinner(d.stderr, defaultSpinnerInterval)
		applier.OnStep(sp.Step)
	}
	outcome, err := applier.Apply(ctx)
	sp.Stop()
	if err != nil {
		return err
	}

	switch outcome.Phase() {
	case update.PhaseFailedUpdate:
		printFailure(d.stderr, "Failed to update. Check the console for more info", outcome.Failure)
		return errSilent
	case update.PhaseFailedRebuild:
		printFailure(d.stderr, "The Build failed. Please try manually building the new update", outcome.Failure)
		return errSilent
	}

	fmt.Fprintln(d.stdout, reportOKStyle.Render("Update Success!"))
	if !restart {
		fmt.Fprintln(d.stdout, "Restart the application to apply the changes.")
		return applier.Dismiss()
	}
	debug.Log("relaunching after apply")
	debug.Close()
	if err := applier.Restart(); err != nil {
		return fmt.Errorf("relaunch: %w", err)
	}
	return nil
}

func printFailure(w io.Writer, headline string, f helper.Failure) {
	fmt.Fprintln(w, reportErrStyle.Render("Welp! ")+headline)
	if f.Cmd == "" {
		fmt.Fprintln(w, "  An unknown error occurred")
		return
	}
	fmt.Fprintf(w, "  Error occurred when running: %s\n", f.Cmd)
	if f.Message != "" {
		fmt.Fprintln(w, reportDimStyle.Render("  "+f.Message))
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
