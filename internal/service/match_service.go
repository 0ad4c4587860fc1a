package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/AdamBeresnev/esports-bracket/internal/events"
	"github.com/AdamBeresnev/esports-bracket/internal/store"
	"github.com/AdamBeresnev/esports-bracket/internal/stream"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type MatchService struct {
	db     *sqlx.DB
	store  *store.TournamentStore
	teams  *store.TeamStore
	deps   *Deps
	policy bracket.DelayPolicy
	// Host the Twitch player is embedded on.
	embedParent string
}

func NewMatchService(db *sqlx.DB, store *store.TournamentStore, teams *store.TeamStore, deps Deps, policy bracket.DelayPolicy) *MatchService {
	return &MatchService{db: db, store: store, teams: teams, deps: deps.withDefaults(), policy: policy}
}

func (s *MatchService) SetEmbedParent(host string) {
	s.embedParent = host
}

func (s *MatchService) GetMatch(ctx context.Context, id uuid.UUID) (*bracket.Match, error) {
	m, err := s.store.GetMatch(ctx, id)
	if err != nil {
		return nil, lookupErr("match", id, err)
	}
	return m, nil
}

// mutate runs fn on a fresh copy of the match under the tournament lock and
// one transaction, then writes the match back with compare-and-set. fn
// returns write=false to skip the write.
func (s *MatchService) mutate(ctx context.Context, id uuid.UUID, op string, fn func(tx *sqlx.Tx, m *bracket.Match) (write bool, err error)) (m *bracket.Match, err error) {
	defer func() { s.deps.Metrics.Transition(op, err) }()

	// Tournament ids never change, so the lock key can be read outside the tx.
	current, err := s.store.GetMatch(ctx, id)
	if err != nil {
		return nil, lookupErr("match", id, err)
	}
	unlock := s.deps.Locks.Lock(current.TournamentID)
	defer unlock()

	err = inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		m, err = s.store.GetMatchTx(ctx, tx, id)
		if err != nil {
			return lookupErr("match", id, err)
		}
		write, err := fn(tx, m)
		if err != nil || !write {
			return err
		}
		if err := s.store.UpdateMatch(ctx, tx, m); err != nil {
			return writeErr("match", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConcurrentUpdate) {
			s.deps.Metrics.Conflict()
		}
		return nil, err
	}
	return m, nil
}

type StartResult struct {
	Match *bracket.Match `json:"match"`
	Delay time.Duration  `json:"delay"`
	// Shift is zero when the start was within the grace period.
	Shift   time.Duration `json:"shift"`
	Shifted []uuid.UUID   `json:"shifted"`
}

// StartMatch puts a scheduled match live. A start later than the grace period
// pushes back every later unplayed match of the tournament.
func (s *MatchService) StartMatch(ctx context.Context, id uuid.UUID, at time.Time) (*StartResult, error) {
	if at.IsZero() {
		at = s.deps.now()
	}
	res := &StartResult{Shifted: []uuid.UUID{}}

	m, err := s.mutate(ctx, id, "start", func(tx *sqlx.Tx, m *bracket.Match) (bool, error) {
		original := m.ScheduledAt
		delay, err := m.Start(at)
		if err != nil {
			return false, guard("start", m, err)
		}
		res.Delay = delay

		if original == nil {
			return true, nil
		}
		shift, ok := s.policy.Shift(delay)
		if !ok {
			return true, nil
		}

		all, err := s.store.GetMatchesTx(ctx, tx, m.TournamentID)
		if err != nil {
			return false, fmt.Errorf("failed to get matches: %w", err)
		}
		for _, other := range bracket.ShiftSchedule(all, m.ID, *original, shift) {
			if err := s.store.UpdateMatch(ctx, tx, other); err != nil {
				return false, writeErr(string(other.Round), err)
			}
			res.Shifted = append(res.Shifted, other.ID)
		}
		res.Shift = shift
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	res.Match = m

	if res.Shift > 0 {
		s.deps.Metrics.ScheduleShifted()
		s.deps.Logger.InfoContext(ctx, "schedule shifted",
			"match_id", m.ID, "delay", res.Delay, "shift", res.Shift, "shifted", len(res.Shifted))
		s.deps.publish(ctx, events.ScheduleShifted{
			TournamentID: m.TournamentID,
			MatchID:      m.ID,
			Delay:        res.Delay,
			Shift:        res.Shift,
			Shifted:      res.Shifted,
		})
	}
	return res, nil
}

type FinishResult struct {
	Match    *bracket.Match `json:"match"`
	Advanced []Placement    `json:"advanced"`
}

// FinishMatch records the final score and advances winner and loser in the
// same transaction.
func (s *MatchService) FinishMatch(ctx context.Context, id uuid.UUID, team1Score, team2Score int) (*FinishResult, error) {
	var (
		result   bracket.Result
		advanced []Placement
	)
	m, err := s.mutate(ctx, id, "finish", func(tx *sqlx.Tx, m *bracket.Match) (bool, error) {
		var err error
		result, err = m.Finish(team1Score, team2Score, s.deps.now())
		if err != nil {
			return false, guard("finish", m, err)
		}
		if err := s.store.UpdateMatch(ctx, tx, m); err != nil {
			return false, writeErr("match", err)
		}

		advanced, err = s.advance(ctx, tx, m, result)
		if err != nil {
			return false, err
		}

		if m.Round == bracket.GrandFinal {
			if err := s.store.UpdateTournamentStatusTx(ctx, tx, m.TournamentID, bracket.TournamentCompleted); err != nil {
				return false, fmt.Errorf("failed to update tournament status: %w", err)
			}
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	if advanced == nil {
		advanced = []Placement{}
	}

	s.deps.Logger.InfoContext(ctx, "match finished",
		"match_id", m.ID, "round", m.Round, "winner_id", result.Winner, "repeat", result.Repeat)
	if anyChanged(advanced) {
		s.deps.publish(ctx, advancementEvent(m, result, advanced))
	}
	return &FinishResult{Match: m, Advanced: advanced}, nil
}

// CancelMatch ends a match without a winner. Nothing is advanced, and
// anything advanced earlier stays where it is.
func (s *MatchService) CancelMatch(ctx context.Context, id uuid.UUID) (*bracket.Match, error) {
	return s.mutate(ctx, id, "cancel", func(_ *sqlx.Tx, m *bracket.Match) (bool, error) {
		changed, err := m.Cancel()
		return changed, guard("cancel", m, err)
	})
}

func (s *MatchService) AdjustScore(ctx context.Context, id uuid.UUID, slot bracket.Slot, delta int) (*bracket.Match, error) {
	return s.mutate(ctx, id, "score", func(_ *sqlx.Tx, m *bracket.Match) (bool, error) {
		return true, guard("score", m, m.AdjustScore(slot, delta))
	})
}

func (s *MatchService) ScheduleMatch(ctx context.Context, id uuid.UUID, at time.Time) (*bracket.Match, error) {
	if at.IsZero() {
		return nil, fmt.Errorf("%w: scheduled time is required", ErrInvalidInput)
	}
	return s.mutate(ctx, id, "schedule", func(_ *sqlx.Tx, m *bracket.Match) (bool, error) {
		return true, guard("schedule", m, m.Schedule(at))
	})
}

// AssignTeams sets one or both teams of an unplayed match by hand. A nil id
// leaves that side as it is.
func (s *MatchService) AssignTeams(ctx context.Context, id uuid.UUID, team1, team2 *uuid.UUID) (*bracket.Match, error) {
	var ids []uuid.UUID
	for _, t := range []*uuid.UUID{team1, team2} {
		if t != nil {
			ids = append(ids, *t)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one team is required", ErrInvalidInput)
	}

	return s.mutate(ctx, id, "assign", func(tx *sqlx.Tx, m *bracket.Match) (bool, error) {
		known, err := s.teams.GetTeamsTx(ctx, tx, ids)
		if err != nil {
			return false, fmt.Errorf("failed to get teams: %w", err)
		}
		if len(known) != len(uniq(ids)) {
			return false, ErrUnknownTeam
		}
		return true, guard("assign", m, m.Assign(team1, team2))
	})
}

func (s *MatchService) SetBestOf(ctx context.Context, id uuid.UUID, n int) (*bracket.Match, error) {
	return s.mutate(ctx, id, "best_of", func(_ *sqlx.Tx, m *bracket.Match) (bool, error) {
		return true, guard("best_of", m, m.SetBestOf(n))
	})
}

// SetStreamURL stores the embeddable form of raw. An empty raw clears it.
func (s *MatchService) SetStreamURL(ctx context.Context, id uuid.UUID, raw string) (*bracket.Match, error) {
	embed, err := stream.Normalize(raw, s.embedParent)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return s.mutate(ctx, id, "stream", func(_ *sqlx.Tx, m *bracket.Match) (bool, error) {
		if embed.Kind == stream.KindNone {
			m.StreamURL = nil
		} else {
			m.StreamURL = &embed.URL
		}
		return true, nil
	})
}

func anyChanged(placements []Placement) bool {
	for _, p := range placements {
		if p.Changed {
			return true
		}
	}
	return false
}

func uniq(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	var out []uuid.UUID
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
