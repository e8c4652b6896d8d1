package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the last run and the number of forwarded files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.load(cmd)
			if err != nil {
				return err
			}
			f, err := c.forwarder(cfg)
			if err != nil {
				return err
			}
			defer f.Close()

			st, err := f.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("read status: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "records:  %d\n", st.Records)
			if st.LastRun.IsEmpty() {
				fmt.Fprintln(out, "last run: never")
				return nil
			}
			r := st.LastRun
			fmt.Fprintf(out, "last run: %s (%s, %s mode)\n", r.FinishedAt.Format(time.RFC3339), r.Outcome, r.Mode)
			fmt.Fprintf(out, "  sent=%d duplicates=%d skipped=%d rolled_back=%d\n", r.Sent, r.Duplicates, r.Skipped, r.RolledBack)
			if r.FolderMissing {
				fmt.Fprintln(out, "  folder was missing")
			}
			if r.Error != "" {
				fmt.Fprintf(out, "  error: %s\n", r.Error)
			}
			return nil
		},
	}
}
