package league

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/aatrey56/fpl-league-hub/internal/model"
	"github.com/aatrey56/fpl-league-hub/internal/results"
)

// SeasonReport wraps the compiled season with the inputs it was built from.
type SeasonReport struct {
	LeagueID int             `json:"league_id"`
	Teams    []model.Team    `json:"teams"`
	Season   *results.Season `json:"season"`
	// Records holds team id -> round -> record for every fetched history.
	Records      map[int]map[int]model.GameweekRecord `json:"-"`
	MissingTeams []int                                `json:"missing_teams,omitempty"`
	// RoundsInferred is set when the schedule was unavailable and completed
	// rounds were inferred from the histories.
	RoundsInferred bool `json:"rounds_inferred,omitempty"`
}

// Team returns the win record and per-round history for one team.
func (r *SeasonReport) Team(teamID int) (model.WinRecord, []model.GameweekRecord, bool) {
	for _, w := range r.Season.WinRecords {
		if w.TeamID != teamID {
			continue
		}
		recs := make([]model.GameweekRecord, 0, len(r.Records[teamID]))
		for _, rec := range r.Records[teamID] {
			recs = append(recs, rec)
		}
		sort.Slice(recs, func(i, j int) bool { return recs[i].Round < recs[j].Round })
		return w, recs, true
	}
	return model.WinRecord{}, nil, false
}

// SeasonWinners fetches every roster team's history and compiles round
// winners. All history is fetched before any tie is resolved.
func (s *Service) SeasonWinners(ctx context.Context, leagueID int) (*SeasonReport, error) {
	if leagueID == 0 {
		return nil, fmt.Errorf("%w: league id is required", ErrConfiguration)
	}

	var (
		roster []model.Team
		rounds []model.Round
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		roster = s.roster(gctx, leagueID)
		return nil
	})
	g.Go(func() error {
		v, err := call(gctx, s.opts.CallTimeout, s.gw.Rounds)
		if err != nil {
			s.logger.Warn("schedule unavailable", "err", err)
			return nil
		}
		rounds = v
		return nil
	})
	_ = g.Wait()

	histories := s.fanOut(ctx, "history", len(roster), func(c context.Context, i int) (any, error) {
		return s.gw.TeamHistory(c, roster[i].ID)
	})

	report := &SeasonReport{
		LeagueID: leagueID,
		Teams:    roster,
		Records:  make(map[int]map[int]model.GameweekRecord, len(roster)),
	}
	for i, team := range roster {
		h, _ := histories[i].(*model.TeamHistory)
		if h == nil {
			report.MissingTeams = append(report.MissingTeams, team.ID)
			continue
		}
		report.Records[team.ID] = h.ByRound()
	}

	if len(rounds) == 0 {
		rounds = inferRounds(report.Records)
		report.RoundsInferred = len(rounds) > 0
	}

	report.Season = results.Compile(results.Input{
		Teams:   roster,
		Records: report.Records,
		Rounds:  rounds,
	}, s.opts.NewPicker())

	s.logger.Info("season compiled",
		"league_id", leagueID,
		"teams", len(roster),
		"missing", len(report.MissingTeams),
		"completed_rounds", len(report.Season.CompletedRounds),
		"tie_breaks", len(report.Season.TieBreaks),
		"unresolved", len(report.Season.Unresolved),
	)
	return report, nil
}

// inferRounds treats every round present in any history as completed except
// the latest, which may still be in play.
func inferRounds(records map[int]map[int]model.GameweekRecord) []model.Round {
	seen := make(map[int]bool)
	for _, recs := range records {
		for round := range recs {
			seen[round] = true
		}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]model.Round, 0, len(ids))
	for i, id := range ids {
		done := i < len(ids)-1
		out = append(out, model.Round{ID: id, Finished: done, DataChecked: done, IsCurrent: !done})
	}
	return out
}
