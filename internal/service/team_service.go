package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/AdamBeresnev/esports-bracket/internal/store"
	"github.com/google/uuid"
)

type TeamService struct {
	store *store.TeamStore
	deps  *Deps
}

func NewTeamService(store *store.TeamStore, deps Deps) *TeamService {
	return &TeamService{store: store, deps: deps.withDefaults()}
}

type TeamInput struct {
	Name string `json:"name"`
	Tag  string `json:"tag"`
}

func (in TeamInput) normalize() (TeamInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Tag = strings.ToUpper(strings.TrimSpace(in.Tag))
	var errs []error
	if in.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if in.Tag == "" || len(in.Tag) > 8 {
		errs = append(errs, errors.New("tag must be 1 to 8 characters"))
	}
	if err := errors.Join(errs...); err != nil {
		return in, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return in, nil
}

func (s *TeamService) CreateTeam(ctx context.Context, in TeamInput) (*bracket.Team, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	team := &bracket.Team{ID: uuid.New(), Name: in.Name, Tag: in.Tag, CreatedAt: s.deps.now()}
	if err := s.store.CreateTeam(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

func (s *TeamService) UpdateTeam(ctx context.Context, id uuid.UUID, in TeamInput) (*bracket.Team, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	team, err := s.store.GetTeam(ctx, id)
	if err != nil {
		return nil, lookupErr("team", id, err)
	}
	team.Name, team.Tag = in.Name, in.Tag
	ok, err := s.store.UpdateTeam(ctx, team)
	if err != nil {
		return nil, fmt.Errorf("failed to update team: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("team %s: %w", id, ErrNotFound)
	}
	return team, nil
}

func (s *TeamService) GetTeam(ctx context.Context, id uuid.UUID) (*bracket.Team, error) {
	team, err := s.store.GetTeam(ctx, id)
	if err != nil {
		return nil, lookupErr("team", id, err)
	}
	return team, nil
}

func (s *TeamService) ListTeams(ctx context.Context) ([]bracket.Team, error) {
	return s.store.ListTeams(ctx)
}
