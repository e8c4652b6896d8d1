package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRunCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Scan the folder once and forward new files",
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

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if res := f.Run(ctx); !res.Succeeded() {
				return fmt.Errorf("transfer failed: %w", res.Err)
			}
			return nil
		},
	}
}
