package store

import (
	"context"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type TeamStore struct {
	db *sqlx.DB
}

const (
	getTeamQuery    = "SELECT * FROM teams WHERE id = ?"
	listTeamsQuery  = "SELECT * FROM teams ORDER BY name ASC"
	createTeamQuery = `
		INSERT INTO teams (id, name, tag, created_at) VALUES
		(:id, :name, :tag, :created_at)
	`
	updateTeamQuery = `
		UPDATE teams SET
		name = :name,
		tag = :tag
		WHERE id = :id
	`
	getTournamentTeamsQuery = `
		SELECT t.* FROM teams t
		JOIN tournament_teams tt ON tt.team_id = t.id
		WHERE tt.tournament_id = ?
		ORDER BY tt.seed ASC
	`
)

func NewTeamStore(db *sqlx.DB) *TeamStore {
	return &TeamStore{db: db}
}

func (s *TeamStore) GetTeam(ctx context.Context, id uuid.UUID) (*bracket.Team, error) {
	var team bracket.Team
	err := s.db.GetContext(ctx, &team, s.db.Rebind(getTeamQuery), id)
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (s *TeamStore) ListTeams(ctx context.Context) ([]bracket.Team, error) {
	var teams []bracket.Team
	err := s.db.SelectContext(ctx, &teams, listTeamsQuery)
	return teams, err
}

func (s *TeamStore) CreateTeam(ctx context.Context, team *bracket.Team) error {
	_, err := s.db.NamedExecContext(ctx, createTeamQuery, team)
	return err
}

// UpdateTeam reports whether a row with the team's id existed.
func (s *TeamStore) UpdateTeam(ctx context.Context, team *bracket.Team) (bool, error) {
	res, err := s.db.NamedExecContext(ctx, updateTeamQuery, team)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *TeamStore) GetTournamentTeams(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Team, error) {
	var teams []bracket.Team
	err := s.db.SelectContext(ctx, &teams, s.db.Rebind(getTournamentTeamsQuery), tournamentID)
	return teams, err
}

// GetTeamsTx returns the teams among ids that exist.
func (s *TeamStore) GetTeamsTx(ctx context.Context, tx *sqlx.Tx, ids []uuid.UUID) ([]bracket.Team, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In("SELECT * FROM teams WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	var teams []bracket.Team
	err = tx.SelectContext(ctx, &teams, tx.Rebind(query), args...)
	return teams, err
}
