package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMetricsCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show the daemon's download metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}
			defer app.close()

			metrics, err := app.daemon.Metrics(cmd.Context())
			if err != nil {
				return err
			}

			if raw {
				fmt.Println(string(metrics.Raw))
				return nil
			}
			fmt.Printf("Total downloads:   %d\n", metrics.TotalDownloads)
			fmt.Printf("Unique successful: %d\n", metrics.UniqueSuccessful)
			fmt.Printf("Unique failed:     %d\n", metrics.UniqueFailed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the raw metrics JSON")
	return cmd
}
