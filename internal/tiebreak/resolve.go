package tiebreak

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aatrey56/fpl-league-hub/internal/model"
)

// Outcome is the terminal result for one tie group.
type Outcome struct {
	State State          `json:"state"`
	Group model.TieGroup `json:"group"`
	// Winner carries the winner's score in the tied round. Unset when pending.
	Winner model.TeamScore `json:"winner"`
	// Rounds lists every round awarded by this resolution, the tied round first.
	Rounds      []int        `json:"awarded_gameweeks"`
	DecidedBy   int          `json:"decided_by_gameweek,omitempty"`
	Comparisons []Comparison `json:"comparisons"`
	// Remaining is the coin-toss field, or the teams still level when pending.
	Remaining []model.TeamScore `json:"remaining,omitempty"`
	Narrative string            `json:"narrative"`
}

// Awarded reports whether the outcome assigns a winner.
func (o Outcome) Awarded() bool {
	return o.State == StateResolved || o.State == StateCoinToss
}

// Resolve runs the cascade for one tie group. The picker is consulted only
// when later rounds cannot separate the teams.
func Resolve(in Input, ledger Ledger, picker Picker) Outcome {
	m := NewMachine(in, ledger)
	state := m.Run()

	out := Outcome{
		State:       state,
		Group:       in.Group,
		Comparisons: m.steps,
	}
	switch state {
	case StatePending:
		out.Remaining = m.Tied()
		out.Narrative = fmt.Sprintf("GW%d tie between %s on %d points awaits GW%d.",
			in.Group.Round, joinNames(in.Group.Teams), in.Group.Score, in.Pending)
		if n := len(out.Comparisons); n > 0 {
			out.Narrative += fmt.Sprintf(" %s still level after GW%d.", joinNames(out.Remaining), out.Comparisons[n-1].Round)
		}
		return out
	case StateExhausted:
		out.State = StateCoinToss
		out.Remaining = m.Tied()
		if picker == nil {
			picker = NewPicker()
		}
		m.winner = out.Remaining[picker.Pick(len(out.Remaining))]
	}

	out.Winner = m.winner
	for _, t := range in.Group.Teams {
		if t.TeamID == m.winner.TeamID {
			out.Winner = t
		}
	}
	out.Rounds = append([]int(nil), m.bundle...)
	sort.Ints(out.Rounds)
	out.DecidedBy = m.decided
	out.Narrative = narrate(out)
	return out
}

func narrate(o Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "GW%d tie between %s on %d points", o.Group.Round, joinNames(o.Group.Teams), o.Group.Score)
	switch o.State {
	case StateResolved:
		if o.DecidedBy == 0 {
			fmt.Fprintf(&b, " awarded to %s.", o.Winner.TeamName)
			break
		}
		fmt.Fprintf(&b, " broken in GW%d: %s", o.DecidedBy, formatScores(o.Comparisons[len(o.Comparisons)-1].Scores))
		fmt.Fprintf(&b, ". %s wins.", o.Winner.TeamName)
	case StateCoinToss:
		if len(o.Comparisons) == 0 {
			b.WriteString(" with no later completed gameweek")
		} else {
			fmt.Fprintf(&b, " still level after GW%d", o.Comparisons[len(o.Comparisons)-1].Round)
		}
		fmt.Fprintf(&b, ". %s won the coin toss among %s.", o.Winner.TeamName, joinNames(o.Remaining))
	}
	if len(o.Rounds) > 1 {
		extra := make([]string, 0, len(o.Rounds)-1)
		for _, r := range o.Rounds[1:] {
			extra = append(extra, fmt.Sprintf("GW%d", r))
		}
		fmt.Fprintf(&b, " Also awards %s.", strings.Join(extra, ", "))
	}
	return b.String()
}

func joinNames(ts []model.TeamScore) string {
	names := make([]string, 0, len(ts))
	for _, t := range ts {
		name := t.TeamName
		if name == "" {
			name = fmt.Sprintf("entry %d", t.TeamID)
		}
		names = append(names, name)
	}
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}

func formatScores(ts []model.TeamScore) string {
	parts := make([]string, 0, len(ts))
	for _, t := range ts {
		name := t.TeamName
		if name == "" {
			name = fmt.Sprintf("entry %d", t.TeamID)
		}
		parts = append(parts, fmt.Sprintf("%s %d", name, t.Score))
	}
	return strings.Join(parts, ", ")
}
