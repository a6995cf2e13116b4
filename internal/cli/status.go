package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the daemon's running state and queue size",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}
			defer app.close()

			status, err := app.daemon.Status(cmd.Context())
			if err != nil {
				return err
			}

			state := "stopped"
			if status.Running {
				state = "running"
				if status.Paused {
					state = "paused"
				}
			}
			fmt.Printf("Daemon:     %s\n", state)
			fmt.Printf("Queue size: %d\n", status.QueueSize)
			return nil
		},
	}
}
