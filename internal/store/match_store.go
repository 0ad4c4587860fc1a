package store

import (
	"context"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	matchColumns = `id, tournament_id, round, bracket_side, round_number, match_order,
        team1_id, team2_id, team1_score, team2_score, status, winner_id, is_live,
        best_of, map_name, stream_url, veto_first_team, scheduled_at, started_at,
        finished_at, version, created_at`

	createMatchQuery = `INSERT INTO matches (` + matchColumns + `)
        VALUES (:id, :tournament_id, :round, :bracket_side, :round_number, :match_order,
        :team1_id, :team2_id, :team1_score, :team2_score, :status, :winner_id, :is_live,
        :best_of, :map_name, :stream_url, :veto_first_team, :scheduled_at, :started_at,
        :finished_at, :version, :created_at)`

	// Compare-and-set on version. Topology columns never change after creation.
	updateMatchQuery = `UPDATE matches SET
        team1_id = :team1_id,
        team2_id = :team2_id,
        team1_score = :team1_score,
        team2_score = :team2_score,
        status = :status,
        winner_id = :winner_id,
        is_live = :is_live,
        best_of = :best_of,
        map_name = :map_name,
        stream_url = :stream_url,
        veto_first_team = :veto_first_team,
        scheduled_at = :scheduled_at,
        started_at = :started_at,
        finished_at = :finished_at,
        version = version + 1
        WHERE id = :id AND version = :version`

	matchOrder = " ORDER BY round_number ASC, match_order ASC"
)

func (s *TournamentStore) CreateMatches(ctx context.Context, tx *sqlx.Tx, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, createMatchQuery, matches)
	return err
}

// DeleteMatchesTx removes every slot of a tournament. Veto steps go with them.
func (s *TournamentStore) DeleteMatchesTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM matches WHERE tournament_id = ?"), tournamentID)
	return err
}

func (s *TournamentStore) CountMatchesTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) (int, error) {
	var n int
	err := tx.GetContext(ctx, &n, tx.Rebind("SELECT COUNT(*) FROM matches WHERE tournament_id = ?"), tournamentID)
	return n, err
}

func (s *TournamentStore) GetMatch(ctx context.Context, id uuid.UUID) (*bracket.Match, error) {
	var match bracket.Match
	err := s.db.GetContext(ctx, &match, s.db.Rebind("SELECT * FROM matches WHERE id = ?"), id)
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *TournamentStore) GetMatchTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Match, error) {
	var match bracket.Match
	err := tx.GetContext(ctx, &match, tx.Rebind("SELECT * FROM matches WHERE id = ?"), id)
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *TournamentStore) GetMatchByRoundTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, round bracket.Round) (*bracket.Match, error) {
	var match bracket.Match
	err := tx.GetContext(ctx, &match,
		tx.Rebind("SELECT * FROM matches WHERE tournament_id = ? AND round = ?"), tournamentID, round)
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *TournamentStore) GetMatches(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := s.db.SelectContext(ctx, &matches,
		s.db.Rebind("SELECT * FROM matches WHERE tournament_id = ?"+matchOrder), tournamentID)
	return matches, err
}

func (s *TournamentStore) GetMatchesTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := tx.SelectContext(ctx, &matches,
		tx.Rebind("SELECT * FROM matches WHERE tournament_id = ?"+matchOrder), tournamentID)
	return matches, err
}

// UpdateMatch writes every mutable column if the stored version still equals
// match.Version, and bumps match.Version on success.
func (s *TournamentStore) UpdateMatch(ctx context.Context, tx *sqlx.Tx, match *bracket.Match) error {
	res, err := tx.NamedExecContext(ctx, updateMatchQuery, match)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVersionConflict
	}
	match.Version++
	return nil
}
