package main

import (
	"context"
	"fmt"
	"strings"

	"repoup/internal/config"
	"repoup/internal/debug"
	"repoup/internal/helper"
	"repoup/internal/ui"
	"repoup/internal/ui/theme"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type globalFlags struct {
	repo       string
	remote     string
	backend    string
	configPath string
	debug      bool
}

// flagKeys maps global flags onto the config keys they override.
var flagKeys = map[string]string{
	"repo":    config.KeyRepoPath,
	"remote":  config.KeyRepoRemote,
	"backend": config.KeyBackend,
}

func newRootCmd(d deps) *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "repoup",
		Short: "Check for, pull and rebuild upstream updates of a source install",
		Long: `repoup shows the commits waiting upstream of the current checkout and,
on request, pulls them, rebuilds the application and offers to relaunch it.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setup(cmd.Flags(), flags)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), d)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.repo, "repo", "", "Path to the checkout to update (default: current directory)")
	pf.StringVar(&flags.remote, "remote", "", "Upstream remote name (default: origin)")
	pf.StringVar(&flags.backend, "backend", "", "Git backend: cli or native")
	pf.StringVar(&flags.configPath, "config", "", "Project config file (default: discovered .repoup/config.yaml)")
	pf.BoolVar(&flags.debug, "debug", false, "Write a debug log to ~/.repoup/debug.log")

	root.AddCommand(newCheckCmd(d), newApplyCmd(d), newVersionCmd(d))
	return root
}

// setup loads configuration, applies explicitly set flags on top and
// starts the debug log.
func setup(fs *pflag.FlagSet, flags *globalFlags) error {
	var opts []config.Option
	if path := strings.TrimSpace(flags.configPath); path != "" {
		opts = append(opts, config.WithProjectConfig(path))
	}
	if err := config.Initialize(opts...); err != nil {
		return fmt.Errorf("initialize config: %w", err)
	}
	if err := config.ApplyOverrides(collectOverrides(fs)); err != nil {
		return fmt.Errorf("apply flags: %w", err)
	}
	if err := debug.Init(flags.debug); err != nil {
		return fmt.Errorf("initialize debug log: %w", err)
	}
	if name := config.GetString(config.KeyTheme); name != "" && !theme.SetTheme(name) {
		debug.Logf("unknown theme %q, keeping %s", name, theme.CurrentName())
	}
	return nil
}

// collectOverrides returns only the flags the user actually set so config
// files and environment variables keep their say otherwise.
func collectOverrides(fs *pflag.FlagSet) map[string]any {
	overrides := map[string]any{}
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		overrides[key] = strings.TrimSpace(f.Value.String())
	}
	return overrides
}

func runTUI(ctx context.Context, d deps) error {
	h, relaunch, err := runUpdater(ctx, d)
	if err != nil || !relaunch {
		return err
	}
	debug.Log("relaunching after update")
	debug.Close()
	if err := h.Relaunch(); err != nil {
		return fmt.Errorf("relaunch: %w", err)
	}
	return nil
}

// runUpdater runs the modal and releases the history store and watcher
// before returning, so a relaunch starts from a clean slate.
func runUpdater(ctx context.Context, d deps) (helper.Helper, bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	h, err := d.newHelper()
	if err != nil {
		return nil, false, err
	}

	cfg := ui.Config{
		Helper:       h,
		Links:        config.GetBool(config.KeyLinks),
		OutputFormat: config.GetString(config.KeyOutputFormat),
	}
	if store := openOptionalHistory(ctx, d); store != nil {
		defer store.Close()
		cfg.Recorder = store
		cfg.History = store
	}
	if d.startWatch != nil {
		w, err := d.startWatch(ctx, h)
		if err != nil {
			debug.Logf("watch disabled: %v", err)
		} else if w != nil {
			defer w.Close()
			cfg.WatchEvents = w.Events()
		}
	}

	app, err := ui.NewApp(cfg)
	if err != nil {
		return nil, false, fmt.Errorf("initialize UI: %w", err)
	}
	if err := d.runProgram(app); err != nil {
		return nil, false, fmt.Errorf("run UI: %w", err)
	}
	return h, app.RelaunchRequested(), nil
}
