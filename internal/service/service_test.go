package service

import (
	"context"
	"testing"
	"time"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/AdamBeresnev/esports-bracket/internal/db"
	"github.com/AdamBeresnev/esports-bracket/internal/events"
	"github.com/AdamBeresnev/esports-bracket/internal/metrics"
	"github.com/AdamBeresnev/esports-bracket/internal/store"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
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

type fixture struct {
	db          *sqlx.DB
	store       *store.TournamentStore
	pubsub      *gochannel.GoChannel
	tournaments *TournamentService
	teams       *TeamService
	matches     *MatchService
	vetoes      *VetoService
	now         time.Time
	faker       *gofakeit.Faker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	database := setupTestDB(t)
	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 32}, watermill.NopLogger{})
	t.Cleanup(func() { pubsub.Close() })

	f := &fixture{
		db:     database,
		store:  store.NewTournamentStore(database),
		pubsub: pubsub,
		now:    time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		faker:  gofakeit.New(42),
	}
	deps := Deps{
		Events:  events.NewPublisher(pubsub),
		Metrics: metrics.New(prometheus.NewRegistry()),
		Locks:   NewLocks(),
		Now:     func() time.Time { return f.now },
	}

	teamStore := store.NewTeamStore(database)
	engine, err := bracket.NewVetoEngine(bracket.DefaultMapPool)
	require.NoError(t, err)

	f.tournaments = NewTournamentService(database, f.store, teamStore, deps)
	f.teams = NewTeamService(teamStore, deps)
	f.matches = NewMatchService(database, f.store, teamStore, deps, bracket.DefaultDelayPolicy)
	f.vetoes = NewVetoService(f.matches, engine)
	return f
}

func (f *fixture) seedTeams(t *testing.T, n int) []uuid.UUID {
	t.Helper()
	ids := make([]uuid.UUID, 0, n)
	for range n {
		team, err := f.teams.CreateTeam(context.Background(), TeamInput{
			Name: f.faker.Company(),
			Tag:  f.faker.LetterN(4),
		})
		require.NoError(t, err)
		ids = append(ids, team.ID)
	}
	return ids
}

// generate creates a tournament and a bracket seeded in the order returned.
func (f *fixture) generate(t *testing.T) (uuid.UUID, []uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	tournament, err := f.tournaments.CreateTournament(ctx, f.faker.AppName()+" Major")
	require.NoError(t, err)

	seeds := f.seedTeams(t, bracket.TeamCount)
	_, err = f.tournaments.GenerateBracket(ctx, tournament.ID, seeds, false)
	require.NoError(t, err)
	return tournament.ID, seeds
}

func (f *fixture) byRound(t *testing.T, tournamentID uuid.UUID) map[bracket.Round]bracket.Match {
	t.Helper()
	matches, err := f.store.GetMatches(context.Background(), tournamentID)
	require.NoError(t, err)
	out := make(map[bracket.Round]bracket.Match, len(matches))
	for _, m := range matches {
		out[m.Round] = m
	}
	return out
}

func (f *fixture) match(t *testing.T, tournamentID uuid.UUID, round bracket.Round) bracket.Match {
	t.Helper()
	m, ok := f.byRound(t, tournamentID)[round]
	require.True(t, ok, "no slot for %s", round)
	return m
}

// play starts and finishes the slot of round with the given score.
func (f *fixture) play(t *testing.T, tournamentID uuid.UUID, round bracket.Round, s1, s2 int) *FinishResult {
	t.Helper()
	ctx := context.Background()
	m := f.match(t, tournamentID, round)

	_, err := f.matches.StartMatch(ctx, m.ID, f.now)
	require.NoError(t, err, "start %s", round)
	res, err := f.matches.FinishMatch(ctx, m.ID, s1, s2)
	require.NoError(t, err, "finish %s", round)
	return res
}

func (f *fixture) subscribe(t *testing.T, topic string) <-chan *message.Message {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ch, err := f.pubsub.Subscribe(ctx, topic)
	require.NoError(t, err)
	return ch
}

func receive(t *testing.T, ch <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case msg := <-ch:
		msg.Ack()
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func expectNoEvent(t *testing.T, ch <-chan *message.Message) {
	t.Helper()
	select {
	case msg := <-ch:
		msg.Ack()
		t.Fatalf("unexpected event %s", msg.Payload)
	case <-time.After(100 * time.Millisecond):
	}
}
