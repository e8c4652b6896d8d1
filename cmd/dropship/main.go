package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	logAdapter "github.com/bft-labs/dropship/internal/adapters/log"
	"github.com/bft-labs/dropship/internal/adapters/store"
	"github.com/bft-labs/dropship/internal/cliconfig"
	"github.com/bft-labs/dropship/internal/ports"
	"github.com/bft-labs/dropship/pkg/dropship"
)

const helpDescription = `
Forward the files of a folder to an HTTP receiver, each file exactly once.

Highlights:
  - Skips files already sent, matched by content or by the file on disk after a rename.
  - Sequential mode sends one file per request; bulk mode sends all and rolls back on failure.
  - Run once from cron with "run", or trigger over HTTP with "serve".
  - Configure via file, env, or flags.
`

var exampleUsage = strings.TrimSpace(`
  dropship run --folder /srv/inbox --receive-url http://receiver:8000/files/
  FILES_FOLDER_PATH=/srv/inbox FILE_RECEIVE_URL=http://receiver:8000/files/ dropship serve
  dropship status --config $HOME/.dropship/config.toml
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// cli carries flag values and the loaded settings shared by subcommands.
type cli struct {
	cfg     cliconfig.Config
	cfgPath string
	changed map[string]bool
	logger  *logAdapter.ZerologAdapter
}

// load layers file and env over the flags and builds the logger.
func (c *cli) load(cmd *cobra.Command) (cliconfig.Config, error) {
	if c.cfgPath == "" {
		c.cfgPath = cliconfig.DefaultConfigPath()
	}

	c.changed = map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { c.changed[f.Name] = true })

	cfg, err := cliconfig.Load(c.cfg, c.cfgPath, c.changed)
	if err != nil {
		return cliconfig.Config{}, fmt.Errorf("load config: %w", err)
	}

	level, err := logAdapter.ParseLevel(cfg.LogLevel)
	if err != nil {
		return cliconfig.Config{}, err
	}
	c.logger = logAdapter.NewZerologAdapter(level)
	zl := c.logger.Logger()
	zl.Info().Interface("config", cfg).Msg("configuration")
	return cfg, nil
}

func (c *cli) forwarder(cfg cliconfig.Config) (*dropship.Forwarder, error) {
	f, err := dropship.New(libConfig(cfg), dropship.WithLogger(c.logger))
	if err != nil {
		return nil, fmt.Errorf("create forwarder: %w", err)
	}
	return f, nil
}

func libConfig(cfg cliconfig.Config) dropship.Config {
	pace := cfg.PaceDelay
	if pace == 0 {
		// Zero means no pacing on the command line; the library reads zero as unset.
		pace = -1
	}
	return dropship.Config{
		FolderPath:  cfg.FolderPath,
		ReceiveURL:  cfg.ReceiveURL,
		Bulk:        cfg.Bulk,
		PaceDelay:   pace,
		HTTPTimeout: cfg.HTTPTimeout,
		StoreDriver: cfg.StoreDriver,
		StorePath:   cfg.StorePath,
		StateDir:    cfg.StateDir,
	}
}

func newRootCommand() *cobra.Command {
	c := &cli{cfg: cliconfig.DefaultConfig()}

	root := &cobra.Command{
		Use:           "dropship",
		Short:         "Forward the files of a folder to an HTTP receiver exactly once",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgPath, "config", "", "path to config file (default: $HOME/.dropship/config.toml)")
	flags.StringVar(&c.cfg.FolderPath, "folder", c.cfg.FolderPath, "folder whose files are forwarded")
	flags.StringVar(&c.cfg.ReceiveURL, "receive-url", c.cfg.ReceiveURL, "URL files are posted to")
	flags.BoolVar(&c.cfg.Bulk, "bulk", c.cfg.Bulk, "send all new files in one request")
	flags.DurationVar(&c.cfg.PaceDelay, "pace", c.cfg.PaceDelay, "pause between files in sequential mode")
	flags.DurationVar(&c.cfg.HTTPTimeout, "timeout", c.cfg.HTTPTimeout, "HTTP timeout per request")
	flags.StringVar(&c.cfg.StoreDriver, "store-driver", c.cfg.StoreDriver, fmt.Sprintf("identity store backend (%s)", strings.Join(store.Drivers, ", ")))
	flags.StringVar(&c.cfg.StorePath, "store-path", c.cfg.StorePath, "identity store location (defaults inside state-dir)")
	flags.StringVar(&c.cfg.StateDir, "state-dir", c.cfg.StateDir, "state directory for the store and status.json (default: $HOME/.dropship)")
	flags.StringVar(&c.cfg.ListenAddr, "listen", c.cfg.ListenAddr, "listen address for serve")
	flags.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "log level (debug, info, warn, error)")

	root.AddCommand(newRunCommand(c), newServeCommand(c), newStatusCommand(c))
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logAdapter.NewZerologAdapter(zerolog.InfoLevel).Error("dropship", ports.Err(err))
		os.Exit(1)
	}
}
