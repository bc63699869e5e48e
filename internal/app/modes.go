package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"bookscope/internal/book"
	"bookscope/internal/domain"
	"bookscope/internal/feed"
	"bookscope/internal/notify"
	"bookscope/internal/server"
	"bookscope/internal/server/handler"
	"bookscope/internal/server/ws"
	"bookscope/internal/venue"

	// Venue adapters register themselves with the venue factory.
	_ "bookscope/internal/venue/binance"
	_ "bookscope/internal/venue/bybit"
	_ "bookscope/internal/venue/okx"
)

// archiveLockKey serialises the scheduled archival pass against the manual
// trigger endpoint across processes.
const archiveLockKey = "archive:simulations"

// FeedMode runs only the venue ingestion pipelines: WebSocket streams in,
// canonical books out to Redis.
func (a *App) FeedMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting feed mode")

	g, ctx := errgroup.WithContext(ctx)

	if err := a.startFeeds(ctx, g, deps); err != nil {
		return fmt.Errorf("feed mode: %w", err)
	}

	return g.Wait()
}

// ServerMode runs only the HTTP and WebSocket API over whatever books the
// feed processes have cached, plus the scheduled archival pass when enabled.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)

	a.startHTTPServer(ctx, g, deps)
	a.startArchiveLoop(ctx, g, deps)

	return g.Wait()
}

// FullMode runs the venue feeds and the API server in one process.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	if err := a.startFeeds(ctx, g, deps); err != nil {
		return fmt.Errorf("full mode: %w", err)
	}
	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps)
	} else {
		a.logger.WarnContext(ctx, "server.enabled is false, running feeds only")
	}
	a.startArchiveLoop(ctx, g, deps)

	return g.Wait()
}

// startFeeds adds one feed runner goroutine per enabled venue to the group.
func (a *App) startFeeds(ctx context.Context, g *errgroup.Group, deps *Dependencies) error {
	builder := book.Builder{
		Strict: a.cfg.Sim.Strict,
		Logger: a.logger,
	}

	started := 0
	for _, e := range a.cfg.Venues.Each() {
		if !e.Cfg.Enabled {
			continue
		}
		adapter, err := venue.New(e.Name, e.Cfg.Symbol, e.Cfg.WsURL)
		if err != nil {
			return fmt.Errorf("venue %s: %w", e.Name, err)
		}
		runner := feed.NewRunner(adapter, builder, deps.BookCache, deps.SignalBus, deps.Notifier, a.logger)
		g.Go(func() error {
			return runner.Run(ctx)
		})
		started++
	}

	a.logger.InfoContext(ctx, "venue feeds started", slog.Int("venues", started))
	return nil
}

// enabledVenues returns the tags of all enabled venues, for the WS status
// snapshot.
func (a *App) enabledVenues() []string {
	var names []string
	for _, e := range a.cfg.Venues.Each() {
		if e.Cfg.Enabled {
			names = append(names, e.Name)
		}
	}
	return names
}

// startHTTPServer adds the WebSocket hub and HTTP server goroutines to the
// group. The server is shut down gracefully when the context is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		Venues:    a.enabledVenues(),
		StartedAt: time.Now().UTC(),
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	checks := make(map[string]handler.HealthCheckFunc, len(deps.HealthChecks))
	for name, check := range deps.HealthChecks {
		checks[name] = check
	}

	handlers := server.Handlers{
		Health:   handler.NewHealthHandler(checks, a.logger),
		Venues:   handler.NewVenueHandler(deps.BookCache, deps.SimulationStore, a.logger),
		Books:    handler.NewBookHandler(deps.BookCache, a.logger),
		Simulate: handler.NewSimulateHandler(deps.BookCache, deps.SimulationStore, deps.SignalBus, a.logger),
	}
	if deps.AuditStore != nil {
		handlers.Audit = handler.NewAuditHandler(deps.AuditStore, a.logger)
	}
	if deps.Archiver != nil {
		handlers.Archive = handler.NewArchiveHandler(deps.Archiver, deps.BlobReader, deps.LockManager, a.logger)
	}

	srv := server.NewServer(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKey:          a.cfg.Server.APIKey,
		RateLimit:       a.cfg.Server.RateLimit,
		RateLimitWindow: a.cfg.Server.RateLimitWindow.Duration,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

// startArchiveLoop adds the scheduled archival goroutine to the group when
// archival is enabled and an archiver was wired.
func (a *App) startArchiveLoop(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if !a.cfg.Archive.Enabled || deps.Archiver == nil {
		return
	}

	interval := a.cfg.Archive.Interval.Duration
	logger := a.logger.With(slog.String("component", "archive"))

	g.Go(func() error {
		logger.InfoContext(ctx, "scheduled archival started",
			slog.Duration("interval", interval),
			slog.Int("retention_days", a.cfg.Archive.RetentionDays),
		)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				a.runArchivePass(ctx, deps, logger)
			}
		}
	})
}

// runArchivePass archives simulation runs older than the retention cutoff.
// The distributed lock keeps the pass from racing a manual trigger or another
// process; losing the lock is not an error.
func (a *App) runArchivePass(ctx context.Context, deps *Dependencies, logger *slog.Logger) {
	before := time.Now().UTC().AddDate(0, 0, -a.cfg.Archive.RetentionDays)

	unlock, err := deps.LockManager.Acquire(ctx, archiveLockKey, 5*time.Minute)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			logger.InfoContext(ctx, "archival pass already running elsewhere, skipping")
			return
		}
		logger.ErrorContext(ctx, "acquire archive lock", slog.String("error", err.Error()))
		return
	}
	defer unlock()

	archived, err := deps.Archiver.ArchiveSimulations(ctx, before)
	if err != nil {
		logger.ErrorContext(ctx, "scheduled archival failed", slog.String("error", err.Error()))
		if deps.Notifier != nil {
			_ = deps.Notifier.Notify(ctx, notify.EventError,
				"Archival failed",
				fmt.Sprintf("Scheduled archival pass failed: %v", err),
			)
		}
		return
	}

	logger.InfoContext(ctx, "scheduled archival completed",
		slog.Int64("archived", archived),
		slog.Time("before", before),
	)
	if archived > 0 && deps.Notifier != nil {
		_ = deps.Notifier.Notify(ctx, notify.EventArchiveCompleted,
			"Archival completed",
			fmt.Sprintf("Archived %d simulation runs older than %s.", archived, before.Format(time.RFC3339)),
		)
	}
}
