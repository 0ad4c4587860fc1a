package bracket

import (
	"fmt"
	"slices"
)

type VetoAction string

const (
	VetoBan      VetoAction = "ban"
	VetoPick     VetoAction = "pick"
	VetoLeftover VetoAction = "leftover"
)

// Actor is relative to the team that acts first in a veto.
type Actor int

const (
	FirstActor Actor = iota
	SecondActor
)

type ScriptStep struct {
	Actor  Actor
	Action VetoAction
}

// VetoStep is one persisted ban, pick or leftover. Order starts at 1.
type VetoStep struct {
	Team   Slot       `db:"team" json:"team"`
	Action VetoAction `db:"action" json:"action"`
	Map    string     `db:"map" json:"map"`
	Order  int        `db:"step_order" json:"order"`
}

// DefaultMapPool is the seven map competitive pool.
var DefaultMapPool = []string{"ancient", "anubis", "dust2", "inferno", "mirage", "nuke", "train"}

var (
	firstBan   = ScriptStep{FirstActor, VetoBan}
	secondBan  = ScriptStep{SecondActor, VetoBan}
	firstPick  = ScriptStep{FirstActor, VetoPick}
	secondPick = ScriptStep{SecondActor, VetoPick}
)

var defaultScripts = map[int][]ScriptStep{
	1: {firstBan, secondBan, firstBan, secondBan, firstBan, secondBan},
	3: {firstBan, secondBan, firstPick, secondPick, firstBan, secondBan},
}

// NextStep is the action the script expects next.
type NextStep struct {
	Team   Slot       `json:"team"`
	Action VetoAction `json:"action"`
}

// VetoSession is always recomputed from the persisted steps.
type VetoSession struct {
	FirstTeam Slot       `json:"first_team"`
	BestOf    int        `json:"best_of"`
	Steps     []VetoStep `json:"steps"`
	Maps      []string   `json:"maps"`
	Completed bool       `json:"completed"`
	Remaining []string   `json:"remaining"`
	Next      *NextStep  `json:"next,omitempty"`
}

// VetoEngine sequences bans and picks over a fixed map pool.
type VetoEngine struct {
	pool    []string
	scripts map[int][]ScriptStep
}

// NewVetoEngine validates that every script leaves exactly one map over.
func NewVetoEngine(pool []string) (*VetoEngine, error) {
	return newVetoEngine(pool, defaultScripts)
}

func newVetoEngine(pool []string, scripts map[int][]ScriptStep) (*VetoEngine, error) {
	if len(pool) < 2 {
		return nil, fmt.Errorf("%w: map pool needs at least 2 maps, got %d", ErrConfiguration, len(pool))
	}
	seen := make(map[string]bool, len(pool))
	for _, m := range pool {
		if m == "" {
			return nil, fmt.Errorf("%w: empty map name in pool", ErrConfiguration)
		}
		if seen[m] {
			return nil, fmt.Errorf("%w: map %q listed twice", ErrConfiguration, m)
		}
		seen[m] = true
	}
	for bestOf, script := range scripts {
		if len(script) != len(pool)-1 {
			return nil, fmt.Errorf("%w: best-of-%d script has %d steps for a pool of %d maps",
				ErrConfiguration, bestOf, len(script), len(pool))
		}
		picks := 0
		for _, step := range script {
			switch step.Action {
			case VetoPick:
				picks++
			case VetoBan:
			default:
				return nil, fmt.Errorf("%w: best-of-%d script contains %q", ErrConfiguration, bestOf, step.Action)
			}
		}
		if picks+1 != bestOf {
			return nil, fmt.Errorf("%w: best-of-%d script has %d picks", ErrConfiguration, bestOf, picks)
		}
	}
	return &VetoEngine{pool: slices.Clone(pool), scripts: scripts}, nil
}

func (e *VetoEngine) Pool() []string {
	return slices.Clone(e.pool)
}

func (e *VetoEngine) script(bestOf int) ([]ScriptStep, error) {
	script, ok := e.scripts[bestOf]
	if !ok {
		return nil, ErrUnsupportedBestOf
	}
	return script, nil
}

func actingTeam(first Slot, a Actor) Slot {
	if a == FirstActor {
		return first
	}
	return first.Other()
}

// Session rebuilds the session state from persisted steps.
func (e *VetoEngine) Session(bestOf int, first Slot, steps []VetoStep) (*VetoSession, error) {
	script, err := e.script(bestOf)
	if err != nil {
		return nil, err
	}
	if !first.Valid() {
		return nil, ErrInvalidSlot
	}

	s := &VetoSession{FirstTeam: first, BestOf: bestOf, Steps: slices.Clone(steps)}
	if s.Steps == nil {
		s.Steps = []VetoStep{}
	}
	used := make(map[string]bool, len(steps))
	for i, step := range steps {
		if step.Order != i+1 {
			return nil, fmt.Errorf("%w: veto step %d has order %d", ErrConfiguration, i+1, step.Order)
		}
		if step.Action == VetoLeftover {
			if i != len(script) || i != len(steps)-1 {
				return nil, fmt.Errorf("%w: leftover recorded at step %d", ErrConfiguration, step.Order)
			}
			s.Completed = true
		} else {
			if i >= len(script) {
				return nil, fmt.Errorf("%w: %d veto steps for a %d step script", ErrConfiguration, len(steps), len(script))
			}
			want := script[i]
			if step.Action != want.Action || step.Team != actingTeam(first, want.Actor) {
				return nil, fmt.Errorf("%w: veto step %d is %s by %s, script expects %s by %s", ErrConfiguration,
					step.Order, step.Action, step.Team, want.Action, actingTeam(first, want.Actor))
			}
		}
		used[step.Map] = true
	}

	for _, m := range e.pool {
		if !used[m] {
			s.Remaining = append(s.Remaining, m)
		}
	}
	if s.Remaining == nil {
		s.Remaining = []string{}
	}

	if s.Completed {
		s.Maps = mapList(bestOf, s.Steps)
	} else {
		s.Maps = []string{}
		if len(steps) < len(script) {
			next := script[len(steps)]
			s.Next = &NextStep{Team: actingTeam(first, next.Actor), Action: next.Action}
		}
	}
	return s, nil
}

// mapList is the picks in pick order followed by the leftover decider.
func mapList(bestOf int, steps []VetoStep) []string {
	maps := make([]string, 0, bestOf)
	var leftover string
	for _, step := range steps {
		switch step.Action {
		case VetoPick:
			maps = append(maps, step.Map)
		case VetoLeftover:
			leftover = step.Map
		}
	}
	return append(maps, leftover)
}

// Choose applies the next script step with the given map and returns the
// steps to append: one, or two when the step completes the veto and the
// remaining map is recorded as leftover.
func (e *VetoEngine) Choose(s *VetoSession, mapName string) ([]VetoStep, error) {
	if s.Completed {
		return nil, ErrVetoCompleted
	}
	script, err := e.script(s.BestOf)
	if err != nil {
		return nil, err
	}
	pos := len(s.Steps)
	if pos >= len(script) {
		return nil, ErrVetoExhausted
	}
	if !slices.Contains(e.pool, mapName) {
		return nil, ErrMapUnknown
	}
	if !slices.Contains(s.Remaining, mapName) {
		return nil, ErrMapUsed
	}

	want := script[pos]
	added := []VetoStep{{
		Team:   actingTeam(s.FirstTeam, want.Actor),
		Action: want.Action,
		Map:    mapName,
		Order:  pos + 1,
	}}

	if pos+1 == len(script) {
		var left []string
		for _, m := range s.Remaining {
			if m != mapName {
				left = append(left, m)
			}
		}
		if len(left) != 1 {
			return nil, fmt.Errorf("%w: %d maps remain after the last veto step", ErrConfiguration, len(left))
		}
		// Nobody chooses the leftover; it is recorded against the first team.
		added = append(added, VetoStep{
			Team:   s.FirstTeam,
			Action: VetoLeftover,
			Map:    left[0],
			Order:  pos + 2,
		})
	}
	return added, nil
}

// Undo returns how many steps to keep after removing the most recent ban or
// pick. A trailing leftover is removed along with the step it depends on.
// An empty history keeps zero.
func Undo(steps []VetoStep) int {
	n := len(steps)
	if n == 0 {
		return 0
	}
	if steps[n-1].Action == VetoLeftover {
		n--
	}
	if n > 0 {
		n--
	}
	return n
}
