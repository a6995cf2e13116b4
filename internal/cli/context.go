package cli

import (
	"fmt"
	"log/slog"

	"github.com/stavren/modelsync/internal/catalog"
	"github.com/stavren/modelsync/internal/config"
	"github.com/stavren/modelsync/internal/daemon"
	"github.com/stavren/modelsync/internal/engine"
	"github.com/stavren/modelsync/internal/log"
	"github.com/stavren/modelsync/internal/notify"
	"github.com/stavren/modelsync/internal/store"
)

// appContext wires the shared dependencies every command needs. Built once
// per invocation; commands pull what they use.
type appContext struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.ClientStore
	daemon  *daemon.Client
	catalog *catalog.Client
	engine  *engine.Service

	// Notices raised by the engine, drained by the TUI when one is
	// attached. Headless commands rely on the log sink alone.
	notices chan notify.Notice
}

func newAppContext() (*appContext, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	st, err := store.NewClientStore(config.DataDir())
	if err != nil {
		return nil, fmt.Errorf("failed to open local state: %w", err)
	}

	dmn := daemon.NewClient(cfg.Daemon.URL, st.Token, logger)
	cat := catalog.NewClient(cfg.Catalog.URL, cfg.Catalog.APIKey, logger)

	notices := make(chan notify.Notice, 32)
	notifier := notify.Fanout{
		notify.LogNotifier{Logger: logger},
		notify.Func(func(level notify.Level, message string) {
			select {
			case notices <- notify.Notice{Level: level, Message: message}:
			default:
			}
		}),
	}

	return &appContext{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		daemon:  dmn,
		catalog: cat,
		engine:  engine.NewService(st, dmn, notifier, logger),
		notices: notices,
	}, nil
}

func (a *appContext) close() {
	if a.store != nil {
		a.store.Close()
	}
}

// stream builds the push-channel client from the configured daemon URL.
func (a *appContext) stream() *daemon.StreamClient {
	return daemon.NewStreamClient(
		a.cfg.Daemon.WebSocketURL(),
		a.store.Token,
		a.cfg.Sync.ReconnectDelay,
		a.cfg.Sync.PollInterval,
		a.logger,
	)
}
