package store

import (
	"context"
	"errors"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrVersionConflict is returned when a compare-and-set update matched no row
// because another writer got there first.
var ErrVersionConflict = errors.New("row version changed")

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

func (s *TournamentStore) CreateTournament(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO tournaments (id, name, status, created_at)
        VALUES (:id, :name, :status, :created_at)`, tournament)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := s.db.GetContext(ctx, &tournament, s.db.Rebind("SELECT * FROM tournaments WHERE id = ?"), id)
	if err != nil {
		return nil, err
	}
	return &tournament, nil
}

func (s *TournamentStore) GetTournamentTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := tx.GetContext(ctx, &tournament, tx.Rebind("SELECT * FROM tournaments WHERE id = ?"), id)
	if err != nil {
		return nil, err
	}
	return &tournament, nil
}

func (s *TournamentStore) ListTournaments(ctx context.Context) ([]bracket.Tournament, error) {
	var tournaments []bracket.Tournament
	err := s.db.SelectContext(ctx, &tournaments, "SELECT * FROM tournaments ORDER BY created_at DESC")
	return tournaments, err
}

func (s *TournamentStore) UpdateTournamentStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status bracket.TournamentStatus) error {
	_, err := tx.ExecContext(ctx, tx.Rebind("UPDATE tournaments SET status = ? WHERE id = ?"), status, id)
	return err
}

// ReplaceSeedsTx drops any previous seeding of the tournament and writes seeds.
func (s *TournamentStore) ReplaceSeedsTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, seeds []bracket.Seed) error {
	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM tournament_teams WHERE tournament_id = ?"), tournamentID); err != nil {
		return err
	}
	if len(seeds) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO tournament_teams (tournament_id, team_id, seed)
        VALUES (:tournament_id, :team_id, :seed)`, seeds)
	return err
}

func (s *TournamentStore) GetSeeds(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Seed, error) {
	var seeds []bracket.Seed
	err := s.db.SelectContext(ctx, &seeds,
		s.db.Rebind("SELECT * FROM tournament_teams WHERE tournament_id = ? ORDER BY seed ASC"), tournamentID)
	return seeds, err
}
