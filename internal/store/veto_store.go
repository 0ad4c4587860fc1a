package store

import (
	"context"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// vetoStepRow carries the owning match id, which bracket.VetoStep leaves out.
type vetoStepRow struct {
	MatchID uuid.UUID `db:"match_id"`
	bracket.VetoStep
}

func (s *TournamentStore) InsertVetoStepsTx(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID, steps []bracket.VetoStep) error {
	if len(steps) == 0 {
		return nil
	}
	rows := make([]vetoStepRow, 0, len(steps))
	for _, step := range steps {
		rows = append(rows, vetoStepRow{MatchID: matchID, VetoStep: step})
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO veto_steps (match_id, step_order, team, action, map)
        VALUES (:match_id, :step_order, :team, :action, :map)`, rows)
	return err
}

func (s *TournamentStore) GetVetoStepsTx(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID) ([]bracket.VetoStep, error) {
	var steps []bracket.VetoStep
	err := tx.SelectContext(ctx, &steps, tx.Rebind(`SELECT step_order, team, action, map
        FROM veto_steps WHERE match_id = ? ORDER BY step_order ASC`), matchID)
	return steps, err
}

// TruncateVetoStepsTx keeps the first keep steps of a match's veto.
func (s *TournamentStore) TruncateVetoStepsTx(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID, keep int) error {
	_, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM veto_steps WHERE match_id = ? AND step_order > ?"), matchID, keep)
	return err
}
