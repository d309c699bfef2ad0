package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/arisanhub/arisand/internal/domain"
	"github.com/arisanhub/arisand/internal/poll"
	"github.com/arisanhub/arisand/internal/server"
	"github.com/arisanhub/arisand/internal/server/handler"
	"github.com/arisanhub/arisand/internal/server/ws"
	"github.com/arisanhub/arisand/internal/service"
)

// services bundles the domain services shared by the modes.
type services struct {
	groups   *service.GroupService
	activity *service.ActivityService
	users    *service.UserService
	sync     *service.SyncService
}

// buildServices constructs the domain services on top of the wired
// dependencies. Write operations stay disabled when no wallet key was
// configured.
func (a *App) buildServices(deps *Dependencies) *services {
	var tx service.TxRunner
	if deps.Orchestrator != nil {
		tx = deps.Orchestrator
	}

	groupSvc := service.NewGroupService(
		deps.Reader, tx,
		deps.GroupStore, deps.JoinStore, deps.WinnerStore,
		deps.GroupCache, deps.BalanceCache, deps.SignalBus,
		deps.Notifier, a.logger,
	)
	activitySvc := service.NewActivityService(deps.History, deps.WinnerStore, deps.UserStore, a.logger)
	userSvc := service.NewUserService(deps.UserStore, a.logger)
	syncSvc := service.NewSyncService(
		deps.Reader, deps.GroupStore, deps.JoinStore,
		deps.GroupCache, deps.LockManager, deps.SignalBus, a.logger,
	)

	return &services{
		groups:   groupSvc,
		activity: activitySvc,
		users:    userSvc,
		sync:     syncSvc,
	}
}

// ServeMode runs the HTTP API and WebSocket hub.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)
	svcs := a.buildServices(deps)
	a.startHTTPServer(ctx, g, deps, svcs)
	return g.Wait()
}

// SyncMode runs the chain-to-mirror reconciliation loop without the API.
func (a *App) SyncMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting sync mode")

	g, ctx := errgroup.WithContext(ctx)
	svcs := a.buildServices(deps)
	a.startSyncPoller(ctx, g, svcs)
	return g.Wait()
}

// ArchiveMode runs only the cold-storage archiving loop.
func (a *App) ArchiveMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting archive mode")

	if deps.Archiver == nil {
		return fmt.Errorf("app: archive mode requires an s3 bucket to be configured")
	}

	g, ctx := errgroup.WithContext(ctx)
	a.startArchivePoller(ctx, g, deps)
	return g.Wait()
}

// FullMode runs the API, the reconciliation loop, and (when S3 is configured)
// the archiving loop together.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	svcs := a.buildServices(deps)

	a.startSyncPoller(ctx, g, svcs)

	if deps.Archiver != nil {
		a.startArchivePoller(ctx, g, deps)
	} else {
		a.logger.InfoContext(ctx, "archiving disabled, no s3 bucket configured")
	}

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, svcs)
	}

	return g.Wait()
}

// startHTTPServer adds the HTTP server and WebSocket hub goroutines to the
// given errgroup. The server is shut down gracefully when the context is
// cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, svcs *services) {
	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		StartedAt: time.Now().UTC(),
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	srv := server.NewServer(
		server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
			APIKey:      a.cfg.Server.APIKey,
			RateLimit:   a.cfg.Server.RateLimit,
			RateWindow:  a.cfg.Server.RateWindow.Duration,
		},
		server.Handlers{
			Health:   handler.NewHealthHandler(a.logger),
			Groups:   handler.NewGroupHandler(svcs.groups, a.logger),
			Activity: handler.NewActivityHandler(svcs.activity, a.logger),
			Users:    handler.NewUserHandler(svcs.users, a.logger),
		},
		hub,
		deps.RateLimiter,
		a.logger,
	)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

// startSyncPoller adds the chain-to-mirror reconciliation poller to the given
// errgroup.
func (a *App) startSyncPoller(ctx context.Context, g *errgroup.Group, svcs *services) {
	p := poll.New("group-sync", a.cfg.Poll.SyncInterval.Duration, svcs.sync.Sync, a.logger)
	g.Go(func() error {
		return p.Run(ctx)
	})
}

// startArchivePoller adds the cold-storage archiving poller to the given
// errgroup.
func (a *App) startArchivePoller(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	p := poll.New("archive", a.cfg.Poll.ArchiveInterval.Duration, func(ctx context.Context) error {
		return a.archiveOnce(ctx, deps)
	}, a.logger)
	g.Go(func() error {
		return p.Run(ctx)
	})
}

// archiveOnce runs one archiving pass: winner rows recorded before the start
// of the current month go to the monthly archive, and every known group's
// event feed is snapshotted.
func (a *App) archiveOnce(ctx context.Context, deps *Dependencies) error {
	now := time.Now().UTC()
	cutoff := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	count, err := deps.Archiver.ArchiveWinners(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("app: archive winners: %w", err)
	}
	if count > 0 {
		a.logger.InfoContext(ctx, "archived winner rows",
			slog.Int64("count", count),
			slog.String("cutoff", cutoff.Format("2006-01")),
		)
	}

	var groups []domain.Group
	if deps.Reader != nil {
		groups = deps.Reader.ListGroups(ctx)
	}
	for _, g := range groups {
		addr := g.Address
		events := deps.History.GroupHistory(ctx, common.HexToAddress(addr))
		if err := deps.Archiver.ArchiveHistory(ctx, addr, events); err != nil {
			a.logger.WarnContext(ctx, "failed to archive group history",
				slog.String("group", addr),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}
