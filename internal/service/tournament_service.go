package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/AdamBeresnev/esports-bracket/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

type TournamentService struct {
	db    *sqlx.DB
	store *store.TournamentStore
	teams *store.TeamStore
	deps  *Deps
}

func NewTournamentService(db *sqlx.DB, store *store.TournamentStore, teams *store.TeamStore, deps Deps) *TournamentService {
	return &TournamentService{db: db, store: store, teams: teams, deps: deps.withDefaults()}
}

type TournamentData struct {
	Tournament  *bracket.Tournament `json:"tournament"`
	Teams       []bracket.Team      `json:"teams"`
	Seeds       []bracket.Seed      `json:"seeds"`
	Matches     []bracket.Match     `json:"matches"`
	NextMatchID *uuid.UUID          `json:"next_match_id"`
	Layout      bracket.Layout      `json:"layout"`
}

func (s *TournamentService) CreateTournament(ctx context.Context, name string) (*bracket.Tournament, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrInvalidInput)
	}

	tournament := &bracket.Tournament{
		ID:        uuid.New(),
		Name:      name,
		Status:    bracket.TournamentDraft,
		CreatedAt: s.deps.now(),
	}
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return s.store.CreateTournament(ctx, tx, tournament)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return tournament, nil
}

func (s *TournamentService) ListTournaments(ctx context.Context) ([]bracket.Tournament, error) {
	return s.store.ListTournaments(ctx)
}

// GetTournamentData loads the tournament with its seeding, teams and slots.
func (s *TournamentService) GetTournamentData(ctx context.Context, id uuid.UUID) (*TournamentData, error) {
	var data TournamentData

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.store.GetTournament(gctx, id)
		if err != nil {
			return lookupErr("tournament", id, err)
		}
		data.Tournament = t
		return nil
	})
	g.Go(func() error {
		teams, err := s.teams.GetTournamentTeams(gctx, id)
		if err != nil {
			return fmt.Errorf("failed to get teams: %w", err)
		}
		data.Teams = teams
		return nil
	})
	g.Go(func() error {
		seeds, err := s.store.GetSeeds(gctx, id)
		if err != nil {
			return fmt.Errorf("failed to get seeds: %w", err)
		}
		data.Seeds = seeds
		return nil
	})
	g.Go(func() error {
		matches, err := s.store.GetMatches(gctx, id)
		if err != nil {
			return fmt.Errorf("failed to get matches: %w", err)
		}
		data.Matches = matches
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	data.NextMatchID = nextMatch(data.Matches)
	data.Layout = bracket.NewLayout(data.Teams, data.Matches)
	return &data, nil
}

// nextMatch picks the earliest scheduled slot that has not been played.
func nextMatch(matches []bracket.Match) *uuid.UUID {
	var next *bracket.Match
	for i := range matches {
		m := &matches[i]
		if m.Status != bracket.MatchScheduled && m.Status != bracket.MatchLive {
			continue
		}
		if m.Status == bracket.MatchLive {
			return &m.ID
		}
		if next == nil || earlier(m, next) {
			next = m
		}
	}
	if next == nil {
		return nil
	}
	return &next.ID
}

func earlier(a, b *bracket.Match) bool {
	switch {
	case a.ScheduledAt != nil && b.ScheduledAt != nil:
		return a.ScheduledAt.Before(*b.ScheduledAt)
	case a.ScheduledAt != nil:
		return true
	case b.ScheduledAt != nil:
		return false
	}
	return bracket.PlayIndex(a.Round) < bracket.PlayIndex(b.Round)
}

// GenerateBracket seeds teams (in seed order) into a fresh bracket. An
// existing bracket is replaced only when overwrite is set.
func (s *TournamentService) GenerateBracket(ctx context.Context, tournamentID uuid.UUID, teams []uuid.UUID, overwrite bool) ([]bracket.Match, error) {
	if err := validateSeeding(teams); err != nil {
		return nil, err
	}

	unlock := s.deps.Locks.Lock(tournamentID)
	defer unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := s.store.GetTournamentTx(ctx, tx, tournamentID); err != nil {
		return nil, lookupErr("tournament", tournamentID, err)
	}

	known, err := s.teams.GetTeamsTx(ctx, tx, teams)
	if err != nil {
		return nil, fmt.Errorf("failed to get teams: %w", err)
	}
	if len(known) != len(teams) {
		return nil, fmt.Errorf("%w: %d of %d teams exist", ErrUnknownTeam, len(known), len(teams))
	}

	existing, err := s.store.CountMatchesTx(ctx, tx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count matches: %w", err)
	}
	if existing > 0 {
		if !overwrite {
			return nil, ErrBracketExists
		}
		if err := s.store.DeleteMatchesTx(ctx, tx, tournamentID); err != nil {
			return nil, fmt.Errorf("failed to delete matches: %w", err)
		}
	}

	matches := generateDoubleElimBracket(tournamentID, teams, s.deps.now())
	if err := s.store.CreateMatches(ctx, tx, matches); err != nil {
		return nil, fmt.Errorf("failed to create matches: %w", err)
	}

	seeds := make([]bracket.Seed, 0, len(teams))
	for i, id := range teams {
		seeds = append(seeds, bracket.Seed{TournamentID: tournamentID, TeamID: id, Seed: i + 1})
	}
	if err := s.store.ReplaceSeedsTx(ctx, tx, tournamentID, seeds); err != nil {
		return nil, fmt.Errorf("failed to save seeds: %w", err)
	}

	if err := s.store.UpdateTournamentStatusTx(ctx, tx, tournamentID, bracket.TournamentStarted); err != nil {
		return nil, fmt.Errorf("failed to update tournament status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.deps.Logger.InfoContext(ctx, "bracket generated",
		"tournament_id", tournamentID, "matches", len(matches), "overwrite", existing > 0)
	return matches, nil
}
