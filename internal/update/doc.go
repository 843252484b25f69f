// Package update drives the two updater workflows on top of a helper.Helper.
//
// This package handles:
//   - Fetching repository info and the commits waiting upstream
//   - Recording each completed check in the check history
//   - Applying an update (pull, then rebuild) as an explicit state machine
//
// It is isolated from UI concerns. The TUI and the check/apply commands
// present the Results and Outcomes it returns however they want.
//
// Example usage:
//
//	fetcher := update.NewFetcher(h, update.WithRecorder(store))
//	res := fetcher.FetchPendingCommits(ctx)
//	if commits, ok := res.Value(); ok && len(commits) > 0 {
//	    outcome, err := update.NewApplier(h).Apply(ctx)
//	    // inspect outcome.Phase
//	}
package update
