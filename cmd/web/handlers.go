package main

import (
	"net/http"

	"github.com/AdamBeresnev/esports-bracket/internal/httputil"
	"github.com/AdamBeresnev/esports-bracket/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func urlID(w http.ResponseWriter, r *http.Request, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.BadRequest(w, "Invalid "+what+" ID", err)
		return uuid.Nil, false
	}
	return id, true
}

func readBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httputil.ReadJSON(w, r, dst); err != nil {
		httputil.BadRequest(w, err.Error(), nil)
		return false
	}
	return true
}

func respond(w http.ResponseWriter, status int, data any) {
	if err := httputil.WriteJSON(w, status, data); err != nil {
		httputil.InternalServerError(w, "Failed to write response", err)
	}
}

func (app *application) listTournaments(w http.ResponseWriter, r *http.Request) {
	tournaments, err := app.tournaments.ListTournaments(r.Context())
	if err != nil {
		httputil.Error(w, "Failed to get tournaments", err)
		return
	}
	respond(w, http.StatusOK, tournaments)
}

func (app *application) createTournament(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	if !readBody(w, r, &in) {
		return
	}
	t, err := app.tournaments.CreateTournament(r.Context(), in.Name)
	if err != nil {
		httputil.Error(w, "Failed to create tournament", err)
		return
	}
	respond(w, http.StatusCreated, t)
}

func (app *application) getTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "tournament")
	if !ok {
		return
	}
	data, err := app.tournaments.GetTournamentData(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to get tournament", err)
		return
	}
	respond(w, http.StatusOK, data)
}

func (app *application) generateBracket(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "tournament")
	if !ok {
		return
	}
	var in struct {
		// Seed order: index 0 is seed 1.
		Teams     []uuid.UUID `json:"teams"`
		Overwrite bool        `json:"overwrite"`
	}
	if !readBody(w, r, &in) {
		return
	}
	matches, err := app.tournaments.GenerateBracket(r.Context(), id, in.Teams, in.Overwrite)
	if err != nil {
		httputil.Error(w, "Failed to generate bracket", err)
		return
	}
	respond(w, http.StatusCreated, matches)
}

func (app *application) listTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := app.teams.ListTeams(r.Context())
	if err != nil {
		httputil.Error(w, "Failed to get teams", err)
		return
	}
	respond(w, http.StatusOK, teams)
}

func (app *application) createTeam(w http.ResponseWriter, r *http.Request) {
	var in service.TeamInput
	if !readBody(w, r, &in) {
		return
	}
	team, err := app.teams.CreateTeam(r.Context(), in)
	if err != nil {
		httputil.Error(w, "Failed to create team", err)
		return
	}
	respond(w, http.StatusCreated, team)
}

func (app *application) getTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "team")
	if !ok {
		return
	}
	team, err := app.teams.GetTeam(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to get team", err)
		return
	}
	respond(w, http.StatusOK, team)
}

func (app *application) updateTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "team")
	if !ok {
		return
	}
	var in service.TeamInput
	if !readBody(w, r, &in) {
		return
	}
	team, err := app.teams.UpdateTeam(r.Context(), id, in)
	if err != nil {
		httputil.Error(w, "Failed to update team", err)
		return
	}
	respond(w, http.StatusOK, team)
}
