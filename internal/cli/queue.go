package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newQueueCmd() *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List the download queue",
		Long: `Lists the daemon's current queue. With --local the locally
persisted mirror is printed instead, without contacting the daemon.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}
			defer app.close()

			entries := app.store.Queue()
			if !local {
				entries, err = app.daemon.QueueSnapshot(cmd.Context())
				if err != nil {
					return err
				}
			}

			if len(entries) == 0 {
				fmt.Println("Queue is empty.")
				return nil
			}
			for i, e := range entries {
				if e.ModelVersionID != "" {
					fmt.Printf("%3d. model %s version %s\n", i+1, e.ModelID, e.ModelVersionID)
				} else {
					fmt.Printf("%3d. model %s\n", i+1, e.ModelID)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "print the local mirror instead of asking the daemon")
	return cmd
}
