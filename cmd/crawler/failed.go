package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shelfsync/backend/internal/infrastructure/report"
	"github.com/shelfsync/backend/internal/infrastructure/state"
)

func newFailedCommand(c *cli) *cobra.Command {
	var (
		runID string
		retry bool
	)

	cmd := &cobra.Command{
		Use:   "failed",
		Short: "List the URLs that failed in earlier batch runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := state.Open(cmd.Context(), c.cfg.Batch.StatePath, c.log)
			if err != nil {
				return err
			}
			defer store.Close()

			failed, err := store.FailedURLs(cmd.Context(), runID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(failed) == 0 {
				fmt.Fprintln(out, "No failed URLs.")
			} else {
				report.NewTableRenderer(out, 0).RenderFailedURLs(failed)
			}

			st, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "State: %d done, %d failed.\n", st.Done, st.Failed)

			if retry {
				n, err := store.Retry(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Released %d failed URLs for the next run.\n", n)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "only list failures of this run")
	cmd.Flags().BoolVar(&retry, "retry", false, "release the failed URLs so the next batch attempts them again")
	return cmd
}
