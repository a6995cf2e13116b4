package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stavren/modelsync/internal/daemon"
)

// Admin commands require an admin-role token; the check is advisory (the
// daemon enforces it with a 403) but gives a clearer local error first.
func adminCommand(use, short, done string, run func(context.Context, *daemon.Client) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}
			defer app.close()

			if !daemon.IsAdminToken(app.store.Token()) {
				return fmt.Errorf("%s requires an admin token; run `modelsync login --role admin`", use)
			}
			if err := run(cmd.Context(), app.daemon); err != nil {
				return err
			}
			fmt.Println(done)
			return nil
		},
	}
}

func newPauseCmd() *cobra.Command {
	return adminCommand("pause", "Pause the daemon's downloads", "Daemon paused.",
		func(ctx context.Context, c *daemon.Client) error { return c.Pause(ctx) })
}

func newResumeCmd() *cobra.Command {
	return adminCommand("resume", "Resume the daemon's downloads", "Daemon resumed.",
		func(ctx context.Context, c *daemon.Client) error { return c.Resume(ctx) })
}

func newStopCmd() *cobra.Command {
	return adminCommand("stop", "Stop the daemon", "Daemon stopping.",
		func(ctx context.Context, c *daemon.Client) error { return c.Stop(ctx) })
}
