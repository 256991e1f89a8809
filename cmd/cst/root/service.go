package root

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cleanstreak/internal/calendar"
	"cleanstreak/internal/config"
	"cleanstreak/internal/engine"
	"cleanstreak/internal/failsafe"
	"cleanstreak/internal/remote"
	"cleanstreak/internal/storage"
	"cleanstreak/internal/ui"
)

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if os.Getenv("CST_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig() (config.Config, error) {
	path, err := config.DefaultPath()
	if err != nil {
		return config.Config{}, err
	}
	return config.Load(path)
}

func openBackend(ctx context.Context, cfg config.Config, log *slog.Logger) (storage.Backend, error) {
	switch cfg.Backend {
	case config.BackendBadger:
		return storage.OpenBadger(storage.DefaultBadgerConfig(filepath.Join(cfg.DataDir, "badger")))
	default:
		db, err := storage.OpenSQLite(ctx, filepath.Join(cfg.DataDir, "streaks.db"))
		if err != nil {
			return nil, err
		}
		return storage.NewSQLiteBackend(db), nil
	}
}

// cliNotifier prints anomaly remediation messages to the terminal.
type cliNotifier struct{}

func (cliNotifier) Notify(message string) {
	fmt.Fprintln(os.Stderr, ui.Warn.Render(ui.IconWarn+" "+message))
}

func openService(ctx context.Context) (*engine.Service, config.Config, func(), error) {
	log := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return nil, config.Config{}, nil, err
	}

	backend, err := openBackend(ctx, cfg, log)
	if err != nil {
		return nil, config.Config{}, nil, err
	}

	adapter := storage.NewAdapter(ctx, backend, log)

	var client remote.Client
	if cfg.Remote.Enabled && cfg.Remote.BaseURL != "" {
		client = remote.NewHTTPClient(cfg.Remote.BaseURL, cfg.RemoteTimeout(), log)
	}

	svc := engine.NewService(engine.Options{
		Adapter:      adapter,
		Failsafe:     failsafe.New(adapter, log),
		History:      calendar.NewModel(adapter, log, time.Now),
		Remote:       client,
		Logger:       log,
		Notifier:     cliNotifier{},
		Anomaly:      cfg.Anomaly,
		RecheckDelay: 2 * time.Second,
	})

	if client != nil {
		// Only long-lived sessions (the TUI) live long enough to see a tick.
		svc.StartReconcileLoop(cfg.UserID, cfg.SyncEvery())
	}

	cleanup := func() {
		svc.Close()
		_ = backend.Close()
	}
	return svc, cfg, cleanup, nil
}
