// Package results turns per-round team histories into round winners and
// season aggregates.
package results

import (
	"sort"

	"github.com/aatrey56/fpl-league-hub/internal/model"
	"github.com/aatrey56/fpl-league-hub/internal/tiebreak"
)

// How a round was awarded.
const (
	ViaOutright = "outright"
	ViaTieBreak = "tiebreak"
	ViaCoinToss = "coin_toss"
)

// Input is everything the compiler needs. It performs no I/O.
type Input struct {
	Teams []model.Team
	// Records maps team id to round to that team's record. Teams absent
	// for a round are excluded from that round.
	Records map[int]map[int]model.GameweekRecord
	Rounds  []model.Round
}

// Award is one round's winner.
type Award struct {
	Round    int    `json:"gameweek"`
	TeamID   int    `json:"entry_id"`
	TeamName string `json:"entry_name"`
	Points   int    `json:"net_points"`
	Via      string `json:"via"`
}

// Season is the compiled output.
type Season struct {
	CompletedRounds []int              `json:"completed_gameweeks"`
	WinRecords      []model.WinRecord  `json:"standings"`
	Awards          []Award            `json:"awards"`
	TieBreaks       []tiebreak.Outcome `json:"tie_breaks"`
	Unresolved      []tiebreak.Outcome `json:"unresolved"`
}

// TopGroup returns the teams sharing the highest net score in a round,
// ordered by team id. The bool is false when no team has a record.
func TopGroup(round int, teams []model.Team, records map[int]map[int]model.GameweekRecord) (model.TieGroup, bool) {
	g := model.TieGroup{Round: round}
	for _, t := range teams {
		rec, ok := records[t.ID][round]
		if !ok {
			continue
		}
		net := rec.Net()
		switch {
		case len(g.Teams) == 0 || net > g.Score:
			g.Score = net
			g.Teams = []model.TeamScore{{TeamID: t.ID, TeamName: t.Name, Score: net}}
		case net == g.Score:
			g.Teams = append(g.Teams, model.TeamScore{TeamID: t.ID, TeamName: t.Name, Score: net})
		}
	}
	sort.Slice(g.Teams, func(i, j int) bool { return g.Teams[i].TeamID < g.Teams[j].TeamID })
	return g, len(g.Teams) > 0
}

// CompletedRounds returns the ids of completed rounds in ascending order.
func CompletedRounds(rounds []model.Round) []int {
	var out []int
	for _, r := range rounds {
		if r.Completed() {
			out = append(out, r.ID)
		}
	}
	sort.Ints(out)
	return out
}

type ledger struct {
	in Input
}

func (l ledger) Net(teamID, round int) (int, bool) {
	rec, ok := l.in.Records[teamID][round]
	if !ok {
		return 0, false
	}
	return rec.Net(), true
}

func (l ledger) Leaders(round int) ([]int, bool) {
	g, ok := TopGroup(round, l.in.Teams, l.in.Records)
	if !ok {
		return nil, false
	}
	return g.IDs(), true
}

// Compile attributes each completed round to one team and builds the season
// aggregates. A nil picker falls back to tiebreak.NewPicker.
func Compile(in Input, picker tiebreak.Picker) *Season {
	if picker == nil {
		picker = tiebreak.NewPicker()
	}
	completed := CompletedRounds(in.Rounds)
	season := &Season{
		CompletedRounds: completed,
		Awards:          []Award{},
		TieBreaks:       []tiebreak.Outcome{},
		Unresolved:      []tiebreak.Outcome{},
	}

	byID := make(map[int]*model.WinRecord, len(in.Teams))
	for _, t := range in.Teams {
		byID[t.ID] = &model.WinRecord{
			TeamID:      t.ID,
			TeamName:    t.Name,
			ManagerName: t.ManagerName,
			RoundsWon:   []model.RoundWin{},
		}
	}

	award := func(round, teamID int, via string) {
		rec := in.Records[teamID][round]
		w := byID[teamID]
		if w == nil {
			return
		}
		w.Wins++
		w.RoundsWon = append(w.RoundsWon, model.RoundWin{Round: round, Points: rec.Net()})
		season.Awards = append(season.Awards, Award{
			Round:    round,
			TeamID:   teamID,
			TeamName: w.TeamName,
			Points:   rec.Net(),
			Via:      via,
		})
	}

	l := ledger{in: in}
	done := make(map[int]bool, len(completed))
	for i, round := range completed {
		if done[round] {
			continue
		}
		g, ok := TopGroup(round, in.Teams, in.Records)
		if !ok {
			continue
		}
		done[round] = true
		if len(g.Teams) == 1 {
			award(round, g.Teams[0].TeamID, ViaOutright)
			continue
		}

		out := tiebreak.Resolve(tiebreak.Input{
			Group:   g,
			Later:   completed[i+1:],
			Pending: firstIncompleteAfter(round, in.Rounds),
		}, l, picker)

		if !out.Awarded() {
			season.Unresolved = append(season.Unresolved, out)
			continue
		}
		season.TieBreaks = append(season.TieBreaks, out)
		via := ViaTieBreak
		if out.State == tiebreak.StateCoinToss {
			via = ViaCoinToss
		}
		for _, r := range out.Rounds {
			if r != round && done[r] {
				continue
			}
			done[r] = true
			award(r, out.Winner.TeamID, via)
		}
	}
	sort.Slice(season.Awards, func(i, j int) bool { return season.Awards[i].Round < season.Awards[j].Round })

	for _, t := range in.Teams {
		w := byID[t.ID]
		accumulate(w, in.Records[t.ID], completed)
		sort.Slice(w.RoundsWon, func(i, j int) bool { return w.RoundsWon[i].Round < w.RoundsWon[j].Round })
		season.WinRecords = append(season.WinRecords, *w)
	}
	SortStandings(season.WinRecords)
	return season
}

func accumulate(w *model.WinRecord, recs map[int]model.GameweekRecord, completed []int) {
	for _, round := range completed {
		rec, ok := recs[round]
		if !ok {
			continue
		}
		w.TotalPoints += rec.Net()
		w.BenchPoints += rec.BenchPoints
		// Strictly greater keeps the earliest round on ties.
		if w.BestRound.Round == 0 || rec.Points > w.BestRound.Points {
			w.BestRound = model.BestRound{Round: round, Points: rec.Points}
		}
	}
}

// firstIncompleteAfter returns the earliest scheduled round after round
// that has not completed, or zero when every later round is final.
func firstIncompleteAfter(round int, rounds []model.Round) int {
	next := 0
	for _, r := range rounds {
		if r.ID > round && !r.Completed() && (next == 0 || r.ID < next) {
			next = r.ID
		}
	}
	return next
}

// SortStandings orders by wins, then total points, then name.
func SortStandings(ws []model.WinRecord) {
	sort.SliceStable(ws, func(i, j int) bool {
		a, b := ws[i], ws[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if a.TeamName != b.TeamName {
			return a.TeamName < b.TeamName
		}
		return a.TeamID < b.TeamID
	})
}
