// ABOUTME: Wires configuration into a document store, the domain services, and Google clients
// ABOUTME: Commands open an app, use what they need, and close it on the way out
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/harperreed/prospecta/charm"
	"github.com/harperreed/prospecta/config"
	"github.com/harperreed/prospecta/db"
	"github.com/harperreed/prospecta/logging"
	"github.com/harperreed/prospecta/metrics"
	"github.com/harperreed/prospecta/services"
	"github.com/harperreed/prospecta/store"
	"github.com/harperreed/prospecta/sync"
)

type app struct {
	cfg     *config.Config
	logger  *log.Logger
	docs    store.Documents
	metrics *metrics.Metrics

	prospects *services.ProspectService
	users     *services.UserService
	finance   *services.FinanceService
	events    *services.EventStore

	// Set only when Google is configured.
	tokens   *sync.TokenManager
	calendar *sync.CalendarService
}

type appOptions struct {
	// requireGoogle fails fast when any Google or project variable is missing.
	requireGoogle bool
	metrics       *metrics.Metrics
}

// openApp loads config from the global flags and builds everything a command may need.
func openApp(opts appOptions) (*app, error) {
	cfg, err := config.Load(globalFlags.Config)
	if err != nil {
		return nil, err
	}
	if globalFlags.Verbose {
		cfg.Log.Level = "debug"
	}

	if opts.requireGoogle {
		err = cfg.Validate()
	} else {
		err = cfg.ValidateStore()
	}
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	docs, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("document store opened", "backend", cfg.Store.Backend, "path", cfg.Store.Path)

	a := &app{cfg: cfg, logger: logger, docs: docs, metrics: opts.metrics}

	var svcOpts []services.Option
	if opts.metrics != nil {
		svcOpts = append(svcOpts, services.WithRecorder(opts.metrics))
	}
	a.prospects = services.NewProspectService(docs, svcOpts...)
	a.users = services.NewUserService(docs, svcOpts...)
	a.finance = services.NewFinanceService(docs, svcOpts...)
	a.events = services.NewEventStore(docs, append(svcOpts, services.WithCalendarDefaults(cfg.Calendar.Settings()))...)

	if cfg.Validate() == nil {
		a.wireGoogle()
	}
	return a, nil
}

func (a *app) wireGoogle() {
	syncOpts := []sync.Option{sync.WithLogger(a.logger)}
	if a.metrics != nil {
		syncOpts = append(syncOpts, sync.WithRecorder(a.metrics))
	}

	a.tokens = sync.NewTokenManager(sync.NewOAuthConfig(a.cfg.Google), credentialStore(a.cfg, a.docs), syncOpts...)
	calOpts := append(syncOpts, sync.WithSettings(a.events))
	a.calendar = sync.NewCalendarService(a.tokens, a.events, a.docs, a.cfg.Calendar.CalendarID, a.cfg.Calendar.Endpoint, calOpts...)
}

// requireCalendar returns an error naming the missing variable when Google is not configured.
func (a *app) requireCalendar() error {
	if a.calendar != nil {
		return nil
	}
	return a.cfg.Validate()
}

func (a *app) Close() error {
	return a.docs.Close()
}

// OpenStore opens the configured document store backend.
func OpenStore(cfg *config.Config) (store.Documents, error) {
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		s, err := db.Open(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendBadger:
		c, err := charm.OpenLocal(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.BackendCharm:
		c, err := charm.Open(&charm.Config{
			Host:           cfg.Charm.Host,
			AutoSync:       cfg.Charm.AutoSync,
			StaleThreshold: cfg.Charm.StaleThreshold,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.BackendMemory:
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func credentialStore(cfg *config.Config, docs store.Documents) sync.CredentialStore {
	if cfg.Store.Credentials == config.CredentialsFile {
		return sync.NewFileCredentials(cfg.Store.TokenFile)
	}
	return sync.NewDocumentCredentials(docs, cfg.ProjectID)
}

// withApp opens the app, runs fn, and closes it.
func withApp(cmd *cobra.Command, opts appOptions, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Warn("failed to close store", "err", err)
		}
	}()
	return fn(cmd.Context(), a)
}
