package league

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aatrey56/fpl-league-hub/internal/model"
	"github.com/aatrey56/fpl-league-hub/internal/points"
	"github.com/aatrey56/fpl-league-hub/internal/results"
)

// TeamRound is one team's live valuation for a round.
type TeamRound struct {
	Team   model.Team           `json:"team"`
	Result *points.Result       `json:"result"`
	Record model.GameweekRecord `json:"record"`
	// Upstream is the entry-history row the upstream published, if any.
	Upstream model.GameweekRecord `json:"upstream"`
}

// RoundReport is the league's view of one round.
type RoundReport struct {
	LeagueID int             `json:"league_id"`
	Round    int             `json:"gameweek"`
	Teams    []TeamRound     `json:"teams"`
	Top      *model.TieGroup `json:"top_group,omitempty"`
	// MissingTeams lists roster teams whose squad could not be fetched.
	MissingTeams   []int    `json:"missing_teams,omitempty"`
	MissingSources []string `json:"missing_sources,omitempty"`
	// Degraded is set when no player points were available, so every squad
	// valued at zero and Top is left out.
	Degraded bool `json:"degraded,omitempty"`
	// Points is the player scoring the report was valued against.
	Points *RoundPoints `json:"-"`
}

// GameweekScores values every roster team's squad for a round using
// reconstructed player points.
func (s *Service) GameweekScores(ctx context.Context, leagueID, round int) (*RoundReport, error) {
	if leagueID == 0 {
		return nil, fmt.Errorf("%w: league id is required", ErrConfiguration)
	}
	if round < 1 {
		return nil, fmt.Errorf("%w: gameweek must be >= 1, got %d", ErrConfiguration, round)
	}

	var (
		roster []model.Team
		rp     *RoundPoints
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		roster = s.roster(gctx, leagueID)
		return nil
	})
	g.Go(func() error {
		var err error
		rp, err = s.PlayerPoints(gctx, round)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	squads := s.fanOut(ctx, "squad", len(roster), func(c context.Context, i int) (any, error) {
		return s.gw.Squad(c, roster[i].ID, round)
	})

	report := &RoundReport{
		LeagueID:       leagueID,
		Round:          round,
		Teams:          make([]TeamRound, 0, len(roster)),
		MissingSources: rp.Missing,
		Degraded:       len(rp.Scores) == 0,
		Points:         rp,
	}
	pts := rp.Points()
	records := make(map[int]map[int]model.GameweekRecord, len(roster))
	for i, team := range roster {
		sq, _ := squads[i].(*model.Squad)
		if sq == nil {
			report.MissingTeams = append(report.MissingTeams, team.ID)
			continue
		}
		res := points.BuildResult(team.ID, round, sq, pts)
		up := sq.EntryHistory
		prev := up.TotalPoints - up.NetPoints
		if prev < 0 {
			prev = 0
		}
		rec := res.Record(prev)
		report.Teams = append(report.Teams, TeamRound{Team: team, Result: res, Record: rec, Upstream: up})
		records[team.ID] = map[int]model.GameweekRecord{round: rec}
	}
	if report.Degraded {
		s.logger.Warn("no player points, round left without a top group", "gameweek", round, "missing", rp.Missing)
		return report, nil
	}
	if top, ok := results.TopGroup(round, roster, records); ok {
		report.Top = &top
	}
	return report, nil
}

// roster fetches the league roster, degrading to empty on failure.
func (s *Service) roster(ctx context.Context, leagueID int) []model.Team {
	teams, err := call(ctx, s.opts.CallTimeout, func(c context.Context) ([]model.Team, error) {
		return s.gw.StandingsRoster(c, leagueID)
	})
	if err != nil {
		s.logger.Warn("roster unavailable", "league_id", leagueID, "err", err)
		return nil
	}
	return teams
}

// fanOut runs n calls with bounded concurrency. Each call gets its own
// timeout and writes only its own slot. Failed calls leave a nil slot.
func (s *Service) fanOut(ctx context.Context, what string, n int, fn func(ctx context.Context, i int) (any, error)) []any {
	out := make([]any, n)
	if n == 0 {
		return out
	}
	start := time.Now()
	var fetched, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			v, err := call(gctx, s.opts.CallTimeout, func(c context.Context) (any, error) {
				return fn(c, i)
			})
			if err != nil {
				s.logger.Warn("upstream call failed", "call", what, "index", i, "err", err)
				failed.Add(1)
				return nil
			}
			out[i] = v
			fetched.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Debug("fan-out complete",
		"call", what,
		"requested", n,
		"fetched", fetched.Load(),
		"errors", failed.Load(),
		"duration", time.Since(start),
	)
	return out
}
