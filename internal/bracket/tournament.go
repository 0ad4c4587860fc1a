package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentDraft     TournamentStatus = "draft"
	TournamentStarted   TournamentStatus = "started"
	TournamentCompleted TournamentStatus = "completed"
)

// TeamCount is the only supported bracket size.
const TeamCount = 8

type Tournament struct {
	ID        uuid.UUID        `db:"id" json:"id"`
	Name      string           `db:"name" json:"name"`
	Status    TournamentStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// Seed links a team to a tournament at a seeding position, 1 being the top seed.
type Seed struct {
	TournamentID uuid.UUID `db:"tournament_id" json:"tournament_id"`
	TeamID       uuid.UUID `db:"team_id" json:"team_id"`
	Seed         int       `db:"seed" json:"seed"`
}
