package main

import (
	"context"
	"net/http"

	"github.com/AdamBeresnev/esports-bracket/internal/live"
	"github.com/AdamBeresnev/esports-bracket/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: app.cfg.HTTP.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(middleware.Instrument(app.metrics))

	r.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{Registry: app.registry}))

	ws := live.NewHandler(app.hub, app.cfg.HTTP.AllowedOrigins, func(ctx context.Context, id uuid.UUID) (any, error) {
		return app.tournaments.GetTournamentData(ctx, id)
	})
	r.Get("/ws/tournaments/{id}", ws.ServeWS)

	r.Route("/tournaments", func(r chi.Router) {
		r.Get("/", app.listTournaments)
		r.Post("/", app.createTournament)
		r.Get("/{id}", app.getTournament)
		r.Post("/{id}/bracket", app.generateBracket)
	})

	r.Route("/teams", func(r chi.Router) {
		r.Get("/", app.listTeams)
		r.Post("/", app.createTeam)
		r.Get("/{id}", app.getTeam)
		r.Put("/{id}", app.updateTeam)
	})

	r.Route("/matches/{id}", func(r chi.Router) {
		r.Get("/", app.getMatch)
		r.Put("/schedule", app.scheduleMatch)
		r.Put("/teams", app.assignTeams)
		r.Put("/best-of", app.setBestOf)
		r.Put("/stream", app.setStream)
		r.Post("/start", app.startMatch)
		r.Post("/finish", app.finishMatch)
		r.Post("/cancel", app.cancelMatch)
		r.Post("/score", app.adjustScore)

		r.Get("/veto", app.getVeto)
		r.Post("/veto", app.startVeto)
		r.Delete("/veto", app.resetVeto)
		r.Post("/veto/choose", app.chooseMap)
		r.Post("/veto/undo", app.undoVeto)
	})

	return r
}
