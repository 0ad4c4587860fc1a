package main

import (
	"net/http"
	"time"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/AdamBeresnev/esports-bracket/internal/httputil"
	"github.com/AdamBeresnev/esports-bracket/internal/utils"
)

func (app *application) getMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "match")
	if !ok {
		return
	}
	m, err := app.matches.GetMatch(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to get match", err)
		return
	}
	respond(w, http.StatusOK, m)
}

func (app *application) scheduleMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "match")
	if !ok {
		return
	}
	var in struct {
		ScheduledAt time.Time `json:"scheduled_at"`
	}
	if !readBody(w, r, &in) {
		return
	}
	if in.ScheduledAt.IsZero() {
		httputil.BadRequest(w, "scheduled_at is required", nil)
		return
	}
	m, err := app.matches.ScheduleMatch(r.Context(), id, in.ScheduledAt)
	if err != nil {
		httputil.Error(w, "Failed to schedule match", err)
		return
	}
	respond(w, http.StatusOK, m)
}

func (app *application) assignTeams(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "match")
	if !ok {
		return
	}
	var in struct {
		Team1ID string `json:"team1_id"`
		Team2ID string `json:"team2_id"`
	}
	if !readBody(w, r, &in) {
		return
	}
	team1, err := utils.ParseOptionalUUID(in.Team1ID)
	if err != nil {
		httputil.BadRequest(w, "Invalid team1_id", err)
		return
	}
	team2, err := utils.ParseOptionalUUID(in.Team2ID)
	if err != nil {
		httputil.BadRequest(w, "Invalid team2_id", err)
		return
	}
	m, err := app.matches.AssignTeams(r.Context(), id, team1, team2)
	if err != nil {
		httputil.Error(w, "Failed to assign teams", err)
		return
	}
	respond(w, http.StatusOK, m)
}

func (app *application) setBestOf(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "match")
	if !ok {
		return
	}
	var in struct {
		BestOf int `json:"best_of"`
	}
	if !readBody(w, r, &in) {
		return
	}
	m, err := app.matches.SetBestOf(r.Context(), id, in.BestOf)
	if err != nil {
		httputil.Error(w, "Failed to set best-of", err)
		return
	}
	respond(w, http.StatusOK, m)
}

func (app *application) setStream(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "match")
	if !ok {
		return
	}
	var in struct {
		URL string `json:"url"`
	}
	if !readBody(w, r, &in) {
		return
	}
	m, err := app.matches.SetStreamURL(r.Context(), id, in.URL)
	if err != nil {
		httputil.Error(w, "Failed to set stream", err)
		return
	}
	respond(w, http.StatusOK, m)
}

// startMatch takes an optional body; without started_at the server clock is
// used.
func (app *application) startMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "match")
	if !ok {
		return
	}
	var in struct {
		StartedAt *time.Time `json:"started_at"`
	}
	if r.ContentLength != 0 && !readBody(w, r, &in) {
		return
	}
	res, err := app.matches.StartMatch(r.Context(), id, utils.OrZero(in.StartedAt))
	if err != nil {
		httputil.Error(w, "Failed to start match", err)
		return
	}
	respond(w, http.StatusOK, res)
}

func (app *application) finishMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "match")
	if !ok {
		return
	}
	var in struct {
		Team1Score *int `json:"team1_score"`
		Team2Score *int `json:"team2_score"`
	}
	if !readBody(w, r, &in) {
		return
	}
	if in.Team1Score == nil || in.Team2Score == nil {
		httputil.BadRequest(w, "team1_score and team2_score are required", nil)
		return
	}
	res, err := app.matches.FinishMatch(r.Context(), id, *in.Team1Score, *in.Team2Score)
	if err != nil {
		httputil.Error(w, "Failed to finish match", err)
		return
	}
	respond(w, http.StatusOK, res)
}

func (app *application) cancelMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "match")
	if !ok {
		return
	}
	m, err := app.matches.CancelMatch(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to cancel match", err)
		return
	}
	respond(w, http.StatusOK, m)
}

func (app *application) adjustScore(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "match")
	if !ok {
		return
	}
	var in struct {
		Slot  bracket.Slot `json:"slot"`
		Delta int          `json:"delta"`
	}
	if !readBody(w, r, &in) {
		return
	}
	m, err := app.matches.AdjustScore(r.Context(), id, in.Slot, in.Delta)
	if err != nil {
		httputil.Error(w, "Failed to adjust score", err)
		return
	}
	respond(w, http.StatusOK, m)
}

func (app *application) getVeto(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "match")
	if !ok {
		return
	}
	v, err := app.vetoes.GetVeto(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to get veto", err)
		return
	}
	respond(w, http.StatusOK, v)
}

func (app *application) startVeto(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "match")
	if !ok {
		return
	}
	var in struct {
		FirstTeam bracket.Slot `json:"first_team"`
	}
	if !readBody(w, r, &in) {
		return
	}
	v, err := app.vetoes.StartVeto(r.Context(), id, in.FirstTeam)
	if err != nil {
		httputil.Error(w, "Failed to start veto", err)
		return
	}
	respond(w, http.StatusCreated, v)
}

func (app *application) chooseMap(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "match")
	if !ok {
		return
	}
	var in struct {
		Map string `json:"map"`
	}
	if !readBody(w, r, &in) {
		return
	}
	v, err := app.vetoes.ChooseMap(r.Context(), id, in.Map)
	if err != nil {
		httputil.Error(w, "Failed to record veto step", err)
		return
	}
	respond(w, http.StatusOK, v)
}

func (app *application) undoVeto(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "match")
	if !ok {
		return
	}
	v, err := app.vetoes.UndoVeto(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to undo veto step", err)
		return
	}
	respond(w, http.StatusOK, v)
}

func (app *application) resetVeto(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "match")
	if !ok {
		return
	}
	m, err := app.vetoes.ResetVeto(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to reset veto", err)
		return
	}
	respond(w, http.StatusOK, m)
}
