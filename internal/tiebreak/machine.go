package tiebreak

import (
	"fmt"
	"sort"

	"github.com/aatrey56/fpl-league-hub/internal/model"
)

// State is the resolution state of one tie group.
type State int

const (
	StateTied State = iota
	StateResolved
	StateExhausted
	StateCoinToss
	StatePending
)

var stateNames = map[State]string{
	StateTied:      "tied",
	StateResolved:  "resolved",
	StateExhausted: "exhausted",
	StateCoinToss:  "coin_toss",
	StatePending:   "pending",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Ledger answers questions about already-fetched history.
type Ledger interface {
	// Net returns a team's net score for a round, false if it has no data.
	Net(teamID, round int) (int, bool)
	// Leaders returns the ids of the top net-score group across all teams.
	Leaders(round int) ([]int, bool)
}

// Input describes one tie to resolve.
type Input struct {
	Group model.TieGroup
	// Later lists the completed rounds after Group.Round in ascending order.
	Later []int
	// Pending is the earliest scheduled round after Group.Round that has
	// not completed; zero when the schedule has no such round. The cascade
	// never looks past it, and a tie still level when it is reached waits.
	Pending int
}

// Comparison records one cascade round.
type Comparison struct {
	Round   int               `json:"gameweek"`
	Scores  []model.TeamScore `json:"scores"`
	Leaders []int             `json:"leaders"`
	Bundled bool              `json:"bundled"`
}

// Machine walks a tie group through later rounds one step at a time.
type Machine struct {
	in     Input
	ledger Ledger

	state    State
	pos      int
	tied     []model.TeamScore
	bundle   []int
	bundling bool
	steps    []Comparison
	winner   model.TeamScore
	decided  int
}

func NewMachine(in Input, ledger Ledger) *Machine {
	tied := append([]model.TeamScore(nil), in.Group.Teams...)
	sort.Slice(tied, func(i, j int) bool { return tied[i].TeamID < tied[j].TeamID })
	m := &Machine{
		in:       in,
		ledger:   ledger,
		state:    StateTied,
		tied:     tied,
		bundle:   []int{in.Group.Round},
		bundling: true,
	}
	switch {
	case len(tied) == 1:
		m.winner = tied[0]
		m.state = StateResolved
	case in.Pending != 0 && (len(in.Later) == 0 || in.Later[0] > in.Pending):
		m.state = StatePending
	}
	return m
}

func (m *Machine) State() State {
	return m.state
}

// Tied returns the teams still in contention.
func (m *Machine) Tied() []model.TeamScore {
	return append([]model.TeamScore(nil), m.tied...)
}

// Step evaluates the next later round and returns the new state. Terminal
// states are returned unchanged.
func (m *Machine) Step() State {
	if m.state != StateTied {
		return m.state
	}
	if m.pos >= len(m.in.Later) || (m.in.Pending != 0 && m.in.Later[m.pos] > m.in.Pending) {
		m.state = StateExhausted
		if m.in.Pending != 0 {
			m.state = StatePending
		}
		return m.state
	}
	round := m.in.Later[m.pos]
	m.pos++

	cmp := Comparison{Round: round, Scores: make([]model.TeamScore, 0, len(m.tied))}
	best := 0
	for _, t := range m.tied {
		net, ok := m.ledger.Net(t.TeamID, round)
		if !ok {
			continue
		}
		cmp.Scores = append(cmp.Scores, model.TeamScore{TeamID: t.TeamID, TeamName: t.TeamName, Score: net})
		if len(cmp.Scores) == 1 || net > best {
			best = net
		}
	}
	for _, s := range cmp.Scores {
		if s.Score == best {
			cmp.Leaders = append(cmp.Leaders, s.TeamID)
		}
	}

	if m.bundling {
		if top, ok := m.ledger.Leaders(round); ok && sameSet(top, teamIDs(m.tied)) && len(cmp.Leaders) == len(m.tied) {
			m.bundle = append(m.bundle, round)
			cmp.Bundled = true
		} else {
			m.bundling = false
		}
	}
	m.steps = append(m.steps, cmp)

	switch {
	case len(cmp.Leaders) == 0, len(cmp.Leaders) == len(m.tied):
		// Nobody had data, or the tie persists unchanged.
	case len(cmp.Leaders) == 1:
		m.winner = m.member(cmp.Leaders[0])
		m.decided = round
		m.state = StateResolved
	default:
		m.tied = m.keep(cmp.Leaders)
	}
	return m.state
}

// Run steps until a terminal state.
func (m *Machine) Run() State {
	for m.state == StateTied {
		m.Step()
	}
	return m.state
}

func (m *Machine) member(teamID int) model.TeamScore {
	for _, t := range m.tied {
		if t.TeamID == teamID {
			return t
		}
	}
	return model.TeamScore{TeamID: teamID}
}

func (m *Machine) keep(ids []int) []model.TeamScore {
	out := make([]model.TeamScore, 0, len(ids))
	for _, t := range m.tied {
		for _, id := range ids {
			if t.TeamID == id {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

func teamIDs(ts []model.TeamScore) []int {
	out := make([]int, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.TeamID)
	}
	return out
}

func sameSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[int]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		if seen[id] == 0 {
			return false
		}
		seen[id]--
	}
	return true
}
