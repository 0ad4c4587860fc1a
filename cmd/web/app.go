package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/AdamBeresnev/esports-bracket/internal/config"
	"github.com/AdamBeresnev/esports-bracket/internal/events"
	"github.com/AdamBeresnev/esports-bracket/internal/live"
	"github.com/AdamBeresnev/esports-bracket/internal/metrics"
	"github.com/AdamBeresnev/esports-bracket/internal/provision"
	"github.com/AdamBeresnev/esports-bracket/internal/service"
	"github.com/AdamBeresnev/esports-bracket/internal/store"
	"github.com/ThreeDotsLabs/watermill"
	wmmetrics "github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

type application struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	pubsub   *gochannel.GoChannel

	tournaments *service.TournamentService
	teams       *service.TeamService
	matches     *service.MatchService
	vetoes      *service.VetoService

	hub         *live.Hub
	provisioner *provision.Client
}

func newApplication(cfg *config.Config, logger *slog.Logger, database *sqlx.DB, registry *prometheus.Registry) (*application, error) {
	engine, err := bracket.NewVetoEngine(cfg.Bracket.MapPool)
	if err != nil {
		return nil, fmt.Errorf("failed to build veto engine: %w", err)
	}

	m := metrics.New(registry)
	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermill.NewSlogLogger(logger))

	deps := service.Deps{
		Logger:  logger,
		Events:  events.NewPublisher(pubsub),
		Metrics: m,
		Locks:   service.NewLocks(),
	}
	tournamentStore := store.NewTournamentStore(database)
	teamStore := store.NewTeamStore(database)
	policy := bracket.DelayPolicy{Grace: cfg.Bracket.DelayGrace, MinShift: cfg.Bracket.MinShift}

	matches := service.NewMatchService(database, tournamentStore, teamStore, deps, policy)
	matches.SetEmbedParent(cfg.HTTP.EmbedParent)

	app := &application{
		cfg:         cfg,
		logger:      logger,
		registry:    registry,
		metrics:     m,
		pubsub:      pubsub,
		tournaments: service.NewTournamentService(database, tournamentStore, teamStore, deps),
		teams:       service.NewTeamService(teamStore, deps),
		matches:     matches,
		vetoes:      service.NewVetoService(matches, engine),
		hub:         live.NewHub(logger, m),
	}
	if cfg.Provision.WebhookURL != "" {
		app.provisioner = provision.NewClient(cfg.Provision, logger, m)
	}
	return app, nil
}

func (app *application) newEventRouter() (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: shutdownTimeout}, watermill.NewSlogLogger(app.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create event router: %w", err)
	}
	metricsBuilder := wmmetrics.NewPrometheusMetricsBuilder(app.registry, "bracket", "events")
	metricsBuilder.AddPrometheusRouterMetrics(router)
	router.AddMiddleware(middleware.Recoverer)

	app.hub.AddHandlers(router, app.pubsub)
	if app.provisioner != nil {
		app.provisioner.AddHandler(router, app.pubsub)
	} else {
		app.logger.Info("provisioning disabled, no webhook configured")
	}
	return router, nil
}

// serve runs the HTTP server, the event router and the websocket hub until
// ctx is cancelled or one of them fails.
func (app *application) serve(ctx context.Context) error {
	router, err := app.newEventRouter()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         app.cfg.HTTP.Addr,
		Handler:      app.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.hub.Run(gctx)
	})
	g.Go(func() error {
		return router.Run(gctx)
	})
	g.Go(func() error {
		select {
		case <-router.Running():
		case <-gctx.Done():
			return nil
		}
		app.logger.Info("starting server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info("shutting down server", "timeout", shutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return app.pubsub.Close()
	})

	err = g.Wait()
	app.logger.Info("application exited")
	return err
}
