package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/AdamBeresnev/esports-bracket/internal/config"
	"github.com/AdamBeresnev/esports-bracket/internal/db"
	"github.com/AdamBeresnev/esports-bracket/internal/live"
	"github.com/AdamBeresnev/esports-bracket/internal/service"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	database.SetMaxOpenConns(1)

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	require.NoError(t, db.RunMigrations(database), "Failed to apply migrations")
	t.Cleanup(func() { database.Close() })
	return database
}

type testServer struct {
	app *application
	srv *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app, err := newApplication(config.Default(), slog.New(slog.DiscardHandler), setupTestDB(t), prometheus.NewRegistry())
	require.NoError(t, err)
	srv := httptest.NewServer(app.routes())
	t.Cleanup(func() {
		srv.Close()
		app.pubsub.Close()
	})
	return &testServer{app: app, srv: srv}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

// setupBracket creates eight teams and a tournament with a generated bracket.
func (s *testServer) setupBracket(t *testing.T) (uuid.UUID, map[bracket.Round]bracket.Match) {
	t.Helper()
	faker := gofakeit.New(7)

	teams := make([]uuid.UUID, 0, 8)
	for i := range 8 {
		status, body := s.do(t, http.MethodPost, "/teams", map[string]string{
			"name": fmt.Sprintf("%s %d", faker.Company(), i),
			"tag":  faker.LetterN(4),
		})
		require.Equal(t, http.StatusCreated, status, string(body))
		teams = append(teams, decode[bracket.Team](t, body).ID)
	}

	status, body := s.do(t, http.MethodPost, "/tournaments", map[string]string{"name": faker.AppName() + " Major"})
	require.Equal(t, http.StatusCreated, status, string(body))
	tournament := decode[bracket.Tournament](t, body)

	status, body = s.do(t, http.MethodPost, "/tournaments/"+tournament.ID.String()+"/bracket", map[string]any{"teams": teams})
	require.Equal(t, http.StatusCreated, status, string(body))

	byRound := map[bracket.Round]bracket.Match{}
	for _, m := range decode[[]bracket.Match](t, body) {
		byRound[m.Round] = m
	}
	require.Len(t, byRound, 14)
	return tournament.ID, byRound
}

func TestTournamentFlow(t *testing.T) {
	s := newTestServer(t)
	tournamentID, rounds := s.setupBracket(t)

	status, body := s.do(t, http.MethodGet, "/tournaments/"+tournamentID.String(), nil)
	require.Equal(t, http.StatusOK, status)
	data := decode[service.TournamentData](t, body)
	assert.Len(t, data.Teams, 8)
	assert.Len(t, data.Matches, 14)
	assert.Equal(t, bracket.TournamentStarted, data.Tournament.Status)

	qf1 := rounds[bracket.WinnerQuarter1]
	status, body = s.do(t, http.MethodPost, "/matches/"+qf1.ID.String()+"/start", nil)
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = s.do(t, http.MethodPost, "/matches/"+qf1.ID.String()+"/finish", map[string]int{"team1_score": 16, "team2_score": 9})
	require.Equal(t, http.StatusOK, status, string(body))
	res := decode[service.FinishResult](t, body)
	assert.Equal(t, bracket.MatchFinished, res.Match.Status)
	require.Len(t, res.Advanced, 2)

	status, body = s.do(t, http.MethodGet, "/matches/"+rounds[bracket.WinnerSemi1].ID.String(), nil)
	require.Equal(t, http.StatusOK, status)
	ws1 := decode[bracket.Match](t, body)
	require.NotNil(t, ws1.Team1ID)
	assert.Equal(t, *qf1.Team1ID, *ws1.Team1ID)
	assert.Equal(t, bracket.MatchPending, ws1.Status)
}

func TestErrorStatuses(t *testing.T) {
	s := newTestServer(t)
	tournamentID, rounds := s.setupBracket(t)
	qf2 := rounds[bracket.WinnerQuarter2].ID.String()

	_, body := s.do(t, http.MethodGet, "/tournaments/"+tournamentID.String(), nil)
	var seeded []uuid.UUID
	for _, team := range decode[service.TournamentData](t, body).Teams {
		seeded = append(seeded, team.ID)
	}

	testCases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"bad id", http.MethodGet, "/matches/nope", nil, http.StatusBadRequest},
		{"unknown match", http.MethodGet, "/matches/" + uuid.NewString(), nil, http.StatusNotFound},
		{"unknown tournament", http.MethodGet, "/tournaments/" + uuid.NewString(), nil, http.StatusNotFound},
		{"finish before start", http.MethodPost, "/matches/" + qf2 + "/finish", map[string]int{"team1_score": 1, "team2_score": 0}, http.StatusConflict},
		{"missing scores", http.MethodPost, "/matches/" + qf2 + "/finish", map[string]int{"team1_score": 1}, http.StatusBadRequest},
		{"unknown field", http.MethodPut, "/matches/" + qf2 + "/best-of", map[string]int{"bo": 3}, http.StatusBadRequest},
		{"unsupported best-of", http.MethodPut, "/matches/" + qf2 + "/best-of", map[string]int{"best_of": 5}, http.StatusBadRequest},
		{"bracket exists", http.MethodPost, "/tournaments/" + tournamentID.String() + "/bracket", map[string]any{"teams": seeded}, http.StatusConflict},
		{"short seeding", http.MethodPost, "/tournaments/" + tournamentID.String() + "/bracket", map[string]any{"teams": seeded[:7]}, http.StatusBadRequest},
		{"invalid team", http.MethodPost, "/teams", map[string]string{"name": " ", "tag": "x"}, http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := s.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.want, status, string(body))
			assert.Contains(t, string(body), `"error"`)
		})
	}

	status, _ := s.do(t, http.MethodPost, "/matches/"+qf2+"/start", map[string]any{"started_at": time.Now().UTC()})
	require.Equal(t, http.StatusOK, status)
	status, body = s.do(t, http.MethodPost, "/matches/"+qf2+"/finish", map[string]int{"team1_score": 13, "team2_score": 13})
	assert.Equal(t, http.StatusBadRequest, status, string(body))
}

func TestVetoEndpoints(t *testing.T) {
	s := newTestServer(t)
	_, rounds := s.setupBracket(t)
	path := "/matches/" + rounds[bracket.WinnerQuarter3].ID.String() + "/veto"

	status, _ := s.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusConflict, status)

	status, body := s.do(t, http.MethodPost, path, map[string]string{"first_team": "team2"})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, _ = s.do(t, http.MethodPost, path+"/choose", map[string]string{"map": "cache"})
	assert.Equal(t, http.StatusBadRequest, status)

	var view service.VetoView
	for _, m := range []string{"ancient", "anubis", "dust2", "inferno", "mirage", "nuke"} {
		status, body = s.do(t, http.MethodPost, path+"/choose", map[string]string{"map": m})
		require.Equal(t, http.StatusOK, status, string(body))
		view = decode[service.VetoView](t, body)
	}
	require.NotNil(t, view.VetoSession)
	assert.True(t, view.Completed)
	assert.Equal(t, []string{"train"}, view.Maps)

	status, _ = s.do(t, http.MethodPost, path+"/choose", map[string]string{"map": "train"})
	assert.Equal(t, http.StatusConflict, status)

	status, body = s.do(t, http.MethodPost, path+"/undo", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	view = decode[service.VetoView](t, body)
	assert.False(t, view.Completed)
	assert.Len(t, view.Steps, 5)

	status, _ = s.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = s.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusConflict, status)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/teams", nil)

	status, body := s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `bracket_http_requests_total{method="GET",route="/teams`)
}

func TestLiveUpdates(t *testing.T) {
	s := newTestServer(t)
	tournamentID, rounds := s.setupBracket(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.app.hub.Run(ctx)
	router, err := s.app.newEventRouter()
	require.NoError(t, err)
	go router.Run(ctx)
	<-router.Running()

	url := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws/tournaments/" + tournamentID.String()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() live.Message {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var m live.Message
		require.NoError(t, conn.ReadJSON(&m))
		return m
	}
	assert.Equal(t, live.TypeSnapshot, read().Type)
	require.Eventually(t, func() bool { return s.app.hub.RoomSize(tournamentID) == 1 }, time.Second, 10*time.Millisecond)

	qf4 := rounds[bracket.WinnerQuarter4].ID.String()
	status, _ := s.do(t, http.MethodPost, "/matches/"+qf4+"/start", nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = s.do(t, http.MethodPost, "/matches/"+qf4+"/finish", map[string]int{"team1_score": 2, "team2_score": 16})
	require.Equal(t, http.StatusOK, status)

	m := read()
	assert.Equal(t, live.TypeAdvancement, m.Type)
	assert.Equal(t, tournamentID.String(), m.RoomID)
}
