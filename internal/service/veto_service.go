package service

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/AdamBeresnev/esports-bracket/internal/events"
	"github.com/AdamBeresnev/esports-bracket/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// VetoService runs the map veto of a match. All operations require the match
// to be scheduled; the session is rebuilt from stored steps every time.
type VetoService struct {
	matches *MatchService
	store   *store.TournamentStore
	engine  *bracket.VetoEngine
	deps    *Deps
}

func NewVetoService(matches *MatchService, engine *bracket.VetoEngine) *VetoService {
	return &VetoService{matches: matches, store: matches.store, engine: engine, deps: matches.deps}
}

type VetoView struct {
	MatchID uuid.UUID `json:"match_id"`
	*bracket.VetoSession
}

func (s *VetoService) session(ctx context.Context, tx *sqlx.Tx, m *bracket.Match) (*bracket.VetoSession, error) {
	if m.VetoFirstTeam == nil {
		return nil, guard("veto", m, bracket.ErrVetoNotStarted)
	}
	steps, err := s.store.GetVetoStepsTx(ctx, tx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get veto steps: %w", err)
	}
	session, err := s.engine.Session(m.BestOf, *m.VetoFirstTeam, steps)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild veto of match %s: %w", m.ID, err)
	}
	return session, nil
}

func requireScheduled(op string, m *bracket.Match) error {
	if m.Status != bracket.MatchScheduled {
		return guard(op, m, bracket.ErrInvalidStatus)
	}
	if !m.HasBothTeams() {
		return guard(op, m, bracket.ErrTeamsNotSet)
	}
	return nil
}

func (s *VetoService) GetVeto(ctx context.Context, matchID uuid.UUID) (*VetoView, error) {
	var view *VetoView
	err := inTx(ctx, s.matches.db, func(tx *sqlx.Tx) error {
		m, err := s.store.GetMatchTx(ctx, tx, matchID)
		if err != nil {
			return lookupErr("match", matchID, err)
		}
		session, err := s.session(ctx, tx, m)
		if err != nil {
			return err
		}
		view = &VetoView{MatchID: m.ID, VetoSession: session}
		return nil
	})
	return view, err
}

// StartVeto opens a session with first acting first.
func (s *VetoService) StartVeto(ctx context.Context, matchID uuid.UUID, first bracket.Slot) (*VetoView, error) {
	var session *bracket.VetoSession
	m, err := s.matches.mutate(ctx, matchID, "veto_start", func(tx *sqlx.Tx, m *bracket.Match) (bool, error) {
		if err := requireScheduled("veto_start", m); err != nil {
			return false, err
		}
		if m.VetoFirstTeam != nil {
			return false, guard("veto_start", m, bracket.ErrVetoAlreadyStarted)
		}
		if !first.Valid() {
			return false, guard("veto_start", m, bracket.ErrInvalidSlot)
		}
		var err error
		if session, err = s.engine.Session(m.BestOf, first, nil); err != nil {
			return false, guard("veto_start", m, err)
		}
		m.VetoFirstTeam = &first
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &VetoView{MatchID: m.ID, VetoSession: session}, nil
}

// ChooseMap applies the next ban or pick. When it completes the veto the
// leftover is recorded, the first map is stored on the match and a map
// resolved event goes out.
func (s *VetoService) ChooseMap(ctx context.Context, matchID uuid.UUID, mapName string) (*VetoView, error) {
	var session *bracket.VetoSession
	m, err := s.matches.mutate(ctx, matchID, "veto_choose", func(tx *sqlx.Tx, m *bracket.Match) (bool, error) {
		if err := requireScheduled("veto_choose", m); err != nil {
			return false, err
		}
		current, err := s.session(ctx, tx, m)
		if err != nil {
			return false, err
		}
		added, err := s.engine.Choose(current, mapName)
		if err != nil {
			return false, guard("veto_choose", m, err)
		}
		if err := s.store.InsertVetoStepsTx(ctx, tx, m.ID, added); err != nil {
			return false, fmt.Errorf("failed to save veto step: %w", err)
		}
		for _, step := range added {
			s.deps.Metrics.VetoStep(string(step.Action))
		}

		if session, err = s.session(ctx, tx, m); err != nil {
			return false, err
		}
		if session.Completed {
			m.MapName = &session.Maps[0]
		}
		// The version bump serializes concurrent choices on one match.
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if session.Completed {
		s.deps.Logger.InfoContext(ctx, "veto completed", "match_id", m.ID, "maps", session.Maps)
		s.deps.publish(ctx, events.MapResolved{
			TournamentID: m.TournamentID,
			MatchID:      m.ID,
			Round:        m.Round,
			BestOf:       m.BestOf,
			Team1ID:      m.Team1ID,
			Team2ID:      m.Team2ID,
			Maps:         session.Maps,
			ResolvedAt:   s.deps.now(),
		})
	}
	return &VetoView{MatchID: m.ID, VetoSession: session}, nil
}

// UndoVeto removes the latest ban or pick, and the leftover with it. An empty
// history is left as it is.
func (s *VetoService) UndoVeto(ctx context.Context, matchID uuid.UUID) (*VetoView, error) {
	var session *bracket.VetoSession
	m, err := s.matches.mutate(ctx, matchID, "veto_undo", func(tx *sqlx.Tx, m *bracket.Match) (bool, error) {
		if err := requireScheduled("veto_undo", m); err != nil {
			return false, err
		}
		current, err := s.session(ctx, tx, m)
		if err != nil {
			return false, err
		}
		keep := bracket.Undo(current.Steps)
		if keep == len(current.Steps) {
			session = current
			return false, nil
		}
		if err := s.store.TruncateVetoStepsTx(ctx, tx, m.ID, keep); err != nil {
			return false, fmt.Errorf("failed to remove veto steps: %w", err)
		}
		if session, err = s.engine.Session(m.BestOf, *m.VetoFirstTeam, current.Steps[:keep]); err != nil {
			return false, err
		}
		m.MapName = nil
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &VetoView{MatchID: m.ID, VetoSession: session}, nil
}

// ResetVeto discards the session entirely, completed or not.
func (s *VetoService) ResetVeto(ctx context.Context, matchID uuid.UUID) (*bracket.Match, error) {
	return s.matches.mutate(ctx, matchID, "veto_reset", func(tx *sqlx.Tx, m *bracket.Match) (bool, error) {
		if err := requireScheduled("veto_reset", m); err != nil {
			return false, err
		}
		if m.VetoFirstTeam == nil {
			return false, nil
		}
		if err := s.store.TruncateVetoStepsTx(ctx, tx, m.ID, 0); err != nil {
			return false, fmt.Errorf("failed to remove veto steps: %w", err)
		}
		m.VetoFirstTeam = nil
		m.MapName = nil
		return true, nil
	})
}
