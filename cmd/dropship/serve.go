package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bft-labs/dropship/internal/cliconfig"
	"github.com/bft-labs/dropship/internal/ports"
	"github.com/bft-labs/dropship/internal/server"
)

const shutdownGrace = 10 * time.Second

func newServeCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /transfer/ and run a scan per request",
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

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			watcher := cliconfig.NewWatcher(c.cfgPath, c.cfg, c.changed, c.logger, func(next cliconfig.Config) {
				if next.StoreDriver != cfg.StoreDriver || next.StorePath != cfg.StorePath || next.StateDir != cfg.StateDir {
					c.logger.Warn("store settings changed, restart to apply",
						ports.String("store_driver", next.StoreDriver),
						ports.String("store_path", next.StorePath),
					)
				}
				if next.ListenAddr != cfg.ListenAddr {
					c.logger.Warn("listen address changed, restart to apply", ports.String("listen", next.ListenAddr))
				}
				if err := f.Reconfigure(libConfig(next)); err != nil {
					c.logger.Warn("config reload rejected, keeping previous settings", ports.Err(err))
				}
			})
			if err := watcher.Start(ctx); err != nil {
				c.logger.Warn("config watcher disabled", ports.String("path", c.cfgPath), ports.Err(err))
			}
			defer watcher.Stop()

			srv := server.New(f, c.logger)
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start(cfg.ListenAddr)
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case <-sigCh:
				c.logger.Info("received signal, stopping...")
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("serve: %w", err)
				}
				return nil
			}

			if err := srv.Shutdown(shutdownGrace); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}
}
