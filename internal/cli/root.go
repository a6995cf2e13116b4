// Package cli defines the command tree. The bare command launches the
// interactive browser; subcommands cover login, daemon inspection and
// admin control for scripted use.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/stavren/modelsync/internal/tui"
)

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "modelsync",
		Short: "Browse a model catalog and drive downloads through a daemon",
		Long: `modelsync keeps a local mirror of a download daemon's queue and
completed set, reconciles it at startup, and follows the daemon's push
channel to project live per-item status. Run without arguments for the
interactive browser.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}
			defer app.close()
			return runBrowser(cmd.Context(), app)
		},
	}

	root.AddCommand(
		newLoginCmd(),
		newStatusCmd(),
		newMetricsCmd(),
		newQueueCmd(),
		newPauseCmd(),
		newResumeCmd(),
		newStopCmd(),
		newVersionCmd(version),
	)
	return root
}

// runBrowser starts reconciliation, the push channel consumer and the
// interactive UI, tearing everything down when the UI exits.
func runBrowser(ctx context.Context, app *appContext) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream := app.stream()
	go stream.Run(ctx)
	go app.engine.Run(ctx, stream)

	// Startup reconciliation and the resubmission pass run behind the UI;
	// the browser is usable on local state immediately.
	go func() {
		if err := app.engine.Reconcile(ctx); err != nil {
			app.logger.Warn("startup reconciliation incomplete", "error", err)
		}
		app.engine.SubmitAll(ctx)
	}()

	return tui.Run(ctx, tui.Options{
		Service: app.engine,
		Catalog: app.catalog,
		Stream:  stream,
		Config:  app.cfg,
		Notices: app.notices,
		Logger:  app.logger,
	})
}
