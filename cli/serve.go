// ABOUTME: serve command: HTTP API, lead webhook, and background calendar sync
// ABOUTME: Reloads the log level from the config file while running
package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harperreed/prospecta/config"
	"github.com/harperreed/prospecta/logging"
	"github.com/harperreed/prospecta/metrics"
	"github.com/harperreed/prospecta/web"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server", "run"},
	Short:   "Start the HTTP API and lead webhook",
	Long: `Start the HTTP server: Google OAuth endpoints, calendar sync, the inbound
lead webhook, the REST API, /health, and /metrics.

GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET, GOOGLE_REDIRECT_URI, and
PROSPECTA_PROJECT_ID must be set.`,
	RunE: runServe,
}

var serveFlags struct {
	Addr string
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.Addr, "addr", "", "Listen address (overrides config)")
	RootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	m := metrics.NewMetrics("prospecta")
	return withApp(cmd, appOptions{requireGoogle: true, metrics: m}, func(ctx context.Context, a *app) error {
		if serveFlags.Addr != "" {
			a.cfg.Server.Addr = serveFlags.Addr
		}

		srv, err := web.NewServer(a.cfg.Server, web.Deps{
			Tokens:    a.tokens,
			Calendar:  a.calendar,
			Events:    a.events,
			Prospects: a.prospects,
			Users:     a.users,
			Finance:   a.finance,
			Metrics:   m,
			Logger:    a.logger,
		})
		if err != nil {
			return fmt.Errorf("failed to build server: %w", err)
		}

		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		watchLogLevel(ctx, a)
		if a.cfg.Calendar.SyncInterval > 0 {
			go srv.AutoSync(ctx, a.cfg.Calendar.SyncInterval)
		}
		return srv.Run(ctx)
	})
}

// watchLogLevel applies log level changes from the config file while serving.
func watchLogLevel(ctx context.Context, a *app) {
	err := config.Watch(ctx, globalFlags.Config, func(cfg *config.Config) {
		lvl, err := logging.ParseLevel(cfg.Log.Level)
		if err != nil {
			a.logger.Warn("ignoring config reload", "err", err)
			return
		}
		a.logger.SetLevel(lvl)
		a.logger.Info("config reloaded", "level", lvl.String())
	}, func(err error) {
		a.logger.Warn("config reload failed", "err", err)
	})
	if err != nil {
		a.logger.Debug("config file not watched", "path", globalFlags.Config, "err", err)
	}
}
