package archive

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aatrey56/fpl-league-hub/internal/results"
	"github.com/aatrey56/fpl-league-hub/internal/tiebreak"
)

type runRow struct {
	RunID           uuid.UUID
	LeagueID        int
	CompiledAt      time.Time
	CompletedRounds []int32
}

type awardRow struct {
	Gameweek  int
	EntryID   int
	EntryName string
	NetPoints int
	Via       string
}

type winRow struct {
	EntryID      int
	EntryName    string
	Wins         int
	TotalPoints  int
	BenchPoints  int
	BestGameweek int
	BestPoints   int
}

type tieRow struct {
	Gameweek  int
	State     string
	Tied      []int32
	Winner    *int
	DecidedBy *int
	Awarded   []int32
	Narrative string
}

// Rows is one compile run flattened for insertion.
type Rows struct {
	Run       runRow
	Awards    []awardRow
	Records   []winRow
	TieBreaks []tieRow
}

// BuildRows flattens a season. Pending ties are stored with no winner.
func BuildRows(runID uuid.UUID, leagueID int, season *results.Season, compiledAt time.Time) Rows {
	r := Rows{Run: runRow{
		RunID:           runID,
		LeagueID:        leagueID,
		CompiledAt:      compiledAt,
		CompletedRounds: int32s(season.CompletedRounds),
	}}
	for _, a := range season.Awards {
		r.Awards = append(r.Awards, awardRow{
			Gameweek:  a.Round,
			EntryID:   a.TeamID,
			EntryName: a.TeamName,
			NetPoints: a.Points,
			Via:       a.Via,
		})
	}
	for _, w := range season.WinRecords {
		r.Records = append(r.Records, winRow{
			EntryID:      w.TeamID,
			EntryName:    w.TeamName,
			Wins:         w.Wins,
			TotalPoints:  w.TotalPoints,
			BenchPoints:  w.BenchPoints,
			BestGameweek: w.BestRound.Round,
			BestPoints:   w.BestRound.Points,
		})
	}
	for _, group := range [][]tiebreak.Outcome{season.TieBreaks, season.Unresolved} {
		for _, o := range group {
			row := tieRow{
				Gameweek:  o.Group.Round,
				State:     o.State.String(),
				Tied:      int32s(o.Group.IDs()),
				Awarded:   int32s(o.Rounds),
				Narrative: o.Narrative,
			}
			if o.Awarded() {
				winner := o.Winner.TeamID
				row.Winner = &winner
			}
			if o.DecidedBy != 0 {
				d := o.DecidedBy
				row.DecidedBy = &d
			}
			r.TieBreaks = append(r.TieBreaks, row)
		}
	}
	return r
}

func (r Rows) queue(b *pgx.Batch) {
	b.Queue(`
		INSERT INTO compile_runs (run_id, league_id, compiled_at, completed_rounds)
		VALUES ($1, $2, $3, $4)
	`, r.Run.RunID, r.Run.LeagueID, r.Run.CompiledAt, r.Run.CompletedRounds)

	for _, a := range r.Awards {
		b.Queue(`
			INSERT INTO round_awards (run_id, gameweek, entry_id, entry_name, net_points, via)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, r.Run.RunID, a.Gameweek, a.EntryID, a.EntryName, a.NetPoints, a.Via)
	}
	for _, w := range r.Records {
		b.Queue(`
			INSERT INTO win_records (run_id, entry_id, entry_name, wins, total_points, bench_points, best_gameweek, best_points)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, r.Run.RunID, w.EntryID, w.EntryName, w.Wins, w.TotalPoints, w.BenchPoints, w.BestGameweek, w.BestPoints)
	}
	for _, t := range r.TieBreaks {
		b.Queue(`
			INSERT INTO tie_breaks (run_id, gameweek, state, tied_entries, winner_entry_id, decided_by, awarded_gameweeks, narrative)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, r.Run.RunID, t.Gameweek, t.State, t.Tied, t.Winner, t.DecidedBy, t.Awarded, t.Narrative)
	}
}

func int32s(in []int) []int32 {
	out := make([]int32, 0, len(in))
	for _, v := range in {
		out = append(out, int32(v))
	}
	return out
}
