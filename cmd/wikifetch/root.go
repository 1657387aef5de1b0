package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"WikiFetch/internal/app"
	"WikiFetch/internal/config"
	"WikiFetch/internal/logging"
)

// cli carries state shared by all subcommands of one invocation.
type cli struct {
	configPath string
	cfg        config.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "wikifetch",
		Short: "Fetch, cache and search wiki articles",
		Long: `wikifetch downloads wiki articles, caches them in the configured store
and announces every completed fetch to its subscribers.

Example usage:
  wikifetch fetch Cat                 # Fetch from the default site
  wikifetch fetch --site de Katze     # Fetch from de.wikipedia.org
  wikifetch search cats               # Full-text search
  wikifetch serve --addr :8080        # Run the HTTP API`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.cfg = config.Load(c.configPath)
			c.logger = logging.NewWithWriter(cmd.ErrOrStderr(), c.cfg.Logging.Level, c.cfg.Logging.Format)
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default is $WIKIFETCH_CONFIG)")

	root.AddCommand(
		newFetchCmd(c),
		newSearchCmd(c),
		newServeCmd(c),
		newVersionCmd(),
	)
	return root
}

// withApp builds the application for one command run and closes it after.
func (c *cli) withApp(ctx context.Context, fn func(*app.Application) error) error {
	application, err := app.New(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			c.logger.Warn("close application", "error", err)
		}
	}()
	return fn(application)
}
