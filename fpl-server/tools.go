package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/aatrey56/fpl-league-hub/internal/league"
	"github.com/aatrey56/fpl-league-hub/internal/model"
	"github.com/aatrey56/fpl-league-hub/internal/results"
	"github.com/aatrey56/fpl-league-hub/internal/tiebreak"
)

// Hub is the slice of league.Service the tools call.
type Hub interface {
	CurrentRound(ctx context.Context) (int, error)
	PlayerPoints(ctx context.Context, round int) (*league.RoundPoints, error)
	GameweekScores(ctx context.Context, leagueID, round int) (*league.RoundReport, error)
	SeasonWinners(ctx context.Context, leagueID int) (*league.SeasonReport, error)
}

type PlayerPointsArgs struct {
	GW        int `json:"gw,omitempty" jsonschema:"Gameweek (0 = current)"`
	ElementID int `json:"element_id,omitempty" jsonschema:"Player element id (optional, all players when omitted)"`
	Limit     int `json:"limit,omitempty" jsonschema:"Return only the top N players (0 = all)"`
}

type LeagueGWArgs struct {
	LeagueID int `json:"league_id,omitempty" jsonschema:"Classic league id (default from config)"`
	GW       int `json:"gw,omitempty" jsonschema:"Gameweek (0 = current)"`
}

type LeagueArgs struct {
	LeagueID int `json:"league_id,omitempty" jsonschema:"Classic league id (default from config)"`
}

type TeamSeasonArgs struct {
	LeagueID int `json:"league_id,omitempty" jsonschema:"Classic league id (default from config)"`
	EntryID  int `json:"entry_id" jsonschema:"Entry id (required)"`
}

// tools binds the MCP handlers to a hub and the configured default league.
type tools struct {
	hub      Hub
	leagueID int
}

func (t *tools) league(id int) int {
	if id != 0 {
		return id
	}
	return t.leagueID
}

func (t *tools) resolveGW(ctx context.Context, gw int) (int, error) {
	if gw > 0 {
		return gw, nil
	}
	if gw < 0 {
		return 0, fmt.Errorf("%w: gameweek must be positive", league.ErrConfiguration)
	}
	return t.hub.CurrentRound(ctx)
}

func (t *tools) buildPlayerPoints(ctx context.Context, args PlayerPointsArgs) (any, error) {
	gw, err := t.resolveGW(ctx, args.GW)
	if err != nil {
		return nil, err
	}
	rp, err := t.hub.PlayerPoints(ctx, gw)
	if err != nil {
		return nil, err
	}
	if args.ElementID != 0 {
		for _, p := range rp.Players {
			if p.Element == args.ElementID {
				return map[string]any{
					"gameweek":        gw,
					"player":          p,
					"missing_sources": rp.Missing,
				}, nil
			}
		}
		return nil, fmt.Errorf("player %d: %w in gameweek %d", args.ElementID, model.ErrNotFound, gw)
	}
	players := rp.Players
	if args.Limit > 0 && args.Limit < len(players) {
		players = players[:args.Limit]
	}
	return map[string]any{
		"gameweek":        gw,
		"count":           len(rp.Players),
		"players":         players,
		"missing_sources": rp.Missing,
	}, nil
}

func (t *tools) buildGameweekScores(ctx context.Context, args LeagueGWArgs) (any, error) {
	gw, err := t.resolveGW(ctx, args.GW)
	if err != nil {
		return nil, err
	}
	report, err := t.hub.GameweekScores(ctx, t.league(args.LeagueID), gw)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(report.Teams, func(i, j int) bool {
		return report.Teams[i].Record.Net() > report.Teams[j].Record.Net()
	})
	return report, nil
}

type winnersOutput struct {
	LeagueID        int                `json:"league_id"`
	CompletedRounds []int              `json:"completed_gameweeks"`
	Standings       []model.WinRecord  `json:"standings"`
	Awards          []results.Award    `json:"awards"`
	Pending         []tiebreak.Outcome `json:"pending_ties,omitempty"`
	MissingTeams    []int              `json:"missing_teams,omitempty"`
	RoundsInferred  bool               `json:"rounds_inferred,omitempty"`
}

func (t *tools) buildGameweekWinners(ctx context.Context, args LeagueArgs) (any, error) {
	report, err := t.hub.SeasonWinners(ctx, t.league(args.LeagueID))
	if err != nil {
		return nil, err
	}
	s := report.Season
	return winnersOutput{
		LeagueID:        report.LeagueID,
		CompletedRounds: s.CompletedRounds,
		Standings:       s.WinRecords,
		Awards:          s.Awards,
		Pending:         s.Unresolved,
		MissingTeams:    report.MissingTeams,
		RoundsInferred:  report.RoundsInferred,
	}, nil
}

type tieBreaksOutput struct {
	LeagueID   int                `json:"league_id"`
	TieBreaks  []tiebreak.Outcome `json:"tie_breaks"`
	Unresolved []tiebreak.Outcome `json:"unresolved"`
}

func (t *tools) buildTieBreaks(ctx context.Context, args LeagueArgs) (any, error) {
	report, err := t.hub.SeasonWinners(ctx, t.league(args.LeagueID))
	if err != nil {
		return nil, err
	}
	out := tieBreaksOutput{
		LeagueID:   report.LeagueID,
		TieBreaks:  report.Season.TieBreaks,
		Unresolved: report.Season.Unresolved,
	}
	if out.TieBreaks == nil {
		out.TieBreaks = []tiebreak.Outcome{}
	}
	if out.Unresolved == nil {
		out.Unresolved = []tiebreak.Outcome{}
	}
	return out, nil
}

type teamSeasonOutput struct {
	LeagueID int                    `json:"league_id"`
	Record   model.WinRecord        `json:"record"`
	Rank     int                    `json:"rank"`
	History  []model.GameweekRecord `json:"history"`
	// TieBreaks lists every resolution the team took part in.
	TieBreaks []tiebreak.Outcome `json:"tie_breaks"`
}

func (t *tools) buildTeamSeason(ctx context.Context, args TeamSeasonArgs) (any, error) {
	if args.EntryID == 0 {
		return nil, fmt.Errorf("entry_id is required")
	}
	report, err := t.hub.SeasonWinners(ctx, t.league(args.LeagueID))
	if err != nil {
		return nil, err
	}
	rec, history, ok := report.Team(args.EntryID)
	if !ok {
		return nil, fmt.Errorf("entry %d: %w in league %d", args.EntryID, model.ErrNotFound, report.LeagueID)
	}
	out := teamSeasonOutput{
		LeagueID:  report.LeagueID,
		Record:    rec,
		History:   history,
		TieBreaks: []tiebreak.Outcome{},
	}
	for i, w := range report.Season.WinRecords {
		if w.TeamID == args.EntryID {
			out.Rank = i + 1
		}
	}
	for _, list := range [][]tiebreak.Outcome{report.Season.TieBreaks, report.Season.Unresolved} {
		for _, o := range list {
			if o.Group.Contains(args.EntryID) {
				out.TieBreaks = append(out.TieBreaks, o)
			}
		}
	}
	return out, nil
}
