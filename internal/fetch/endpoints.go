package fetch

import (
	"context"
	"fmt"
	"sort"

	jsoniter "github.com/json-iterator/go"

	"github.com/aatrey56/fpl-league-hub/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type bootstrapResponse struct {
	Events []struct {
		ID          int  `json:"id"`
		Finished    bool `json:"finished"`
		DataChecked bool `json:"data_checked"`
		IsCurrent   bool `json:"is_current"`
	} `json:"events"`
	Teams []struct {
		ID        int    `json:"id"`
		Name      string `json:"name"`
		ShortName string `json:"short_name"`
	} `json:"teams"`
	Elements []struct {
		ID          int    `json:"id"`
		FirstName   string `json:"first_name"`
		SecondName  string `json:"second_name"`
		WebName     string `json:"web_name"`
		ElementType int    `json:"element_type"`
		Team        int    `json:"team"`
	} `json:"elements"`
}

type fixtureResponse struct {
	ID       int  `json:"id"`
	Event    int  `json:"event"`
	TeamH    int  `json:"team_h"`
	TeamA    int  `json:"team_a"`
	Started  bool `json:"started"`
	Finished bool `json:"finished"`
	Stats    []struct {
		Identifier string            `json:"identifier"`
		H          []model.StatEntry `json:"h"`
		A          []model.StatEntry `json:"a"`
	} `json:"stats"`
}

type liveResponse struct {
	Elements []struct {
		ID    int `json:"id"`
		Stats struct {
			Minutes               int `json:"minutes"`
			CleanSheets           int `json:"clean_sheets"`
			GoalsConceded         int `json:"goals_conceded"`
			Saves                 int `json:"saves"`
			Bonus                 int `json:"bonus"`
			DefensiveContribution int `json:"defensive_contribution"`
			TotalPoints           int `json:"total_points"`
		} `json:"stats"`
	} `json:"elements"`
}

type entryHistoryRow struct {
	Event              int `json:"event"`
	Points             int `json:"points"`
	TotalPoints        int `json:"total_points"`
	EventTransfersCost int `json:"event_transfers_cost"`
	PointsOnBench      int `json:"points_on_bench"`
}

func (r entryHistoryRow) record() model.GameweekRecord {
	return model.GameweekRecord{
		Round:        r.Event,
		Points:       r.Points,
		TransferCost: r.EventTransfersCost,
		NetPoints:    r.Points - r.EventTransfersCost,
		TotalPoints:  r.TotalPoints,
		BenchPoints:  r.PointsOnBench,
	}
}

type picksResponse struct {
	ActiveChip   *string         `json:"active_chip"`
	EntryHistory entryHistoryRow `json:"entry_history"`
	Picks        []model.Pick    `json:"picks"`
}

type historyResponse struct {
	Current []entryHistoryRow `json:"current"`
	Chips   []struct {
		Name  string `json:"name"`
		Event int    `json:"event"`
	} `json:"chips"`
}

type standingsResponse struct {
	Standings struct {
		HasNext bool `json:"has_next"`
		Page    int  `json:"page"`
		Results []struct {
			Entry      int    `json:"entry"`
			EntryName  string `json:"entry_name"`
			PlayerName string `json:"player_name"`
		} `json:"results"`
	} `json:"standings"`
}

// maxStandingsPages bounds the roster walk if the upstream never clears has_next.
const maxStandingsPages = 50

func (c *Client) bootstrap(ctx context.Context) (*bootstrapResponse, error) {
	var resp bootstrapResponse
	if err := c.getJSON(ctx, "/bootstrap-static/", "bootstrap/bootstrap-static.json", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Catalog reads players and clubs from /bootstrap-static/.
func (c *Client) Catalog(ctx context.Context) (*model.Catalog, error) {
	resp, err := c.bootstrap(ctx)
	if err != nil {
		return nil, err
	}
	cat := &model.Catalog{
		Players: make([]model.Player, 0, len(resp.Elements)),
		Clubs:   make([]model.Club, 0, len(resp.Teams)),
	}
	for _, e := range resp.Elements {
		pos := model.Position(e.ElementType)
		if pos < model.PositionGoalkeeper || pos > model.PositionForward {
			pos = model.PositionUnknown
		}
		cat.Players = append(cat.Players, model.Player{
			ID:         e.ID,
			FirstName:  e.FirstName,
			SecondName: e.SecondName,
			WebName:    e.WebName,
			Position:   pos,
			ClubID:     e.Team,
		})
	}
	for _, t := range resp.Teams {
		cat.Clubs = append(cat.Clubs, model.Club{ID: t.ID, Name: t.Name, ShortName: t.ShortName})
	}
	return cat, nil
}

// Rounds reads the events table from /bootstrap-static/.
func (c *Client) Rounds(ctx context.Context) ([]model.Round, error) {
	resp, err := c.bootstrap(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Round, 0, len(resp.Events))
	for _, e := range resp.Events {
		out = append(out, model.Round{
			ID:          e.ID,
			Finished:    e.Finished,
			DataChecked: e.DataChecked,
			IsCurrent:   e.IsCurrent,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Fixtures reads /fixtures/?event={gw}. Home and away stat entries are
// flattened into one list per identifier.
func (c *Client) Fixtures(ctx context.Context, round int) ([]model.Fixture, error) {
	var resp []fixtureResponse
	err := c.getJSON(ctx,
		fmt.Sprintf("/fixtures/?event=%d", round),
		fmt.Sprintf("gw/%d/fixtures.json", round),
		&resp,
	)
	if err != nil {
		return nil, err
	}
	out := make([]model.Fixture, 0, len(resp))
	for _, f := range resp {
		fx := model.Fixture{
			ID:       f.ID,
			Round:    f.Event,
			TeamH:    f.TeamH,
			TeamA:    f.TeamA,
			Started:  f.Started,
			Finished: f.Finished,
			Stats:    make([]model.FixtureStat, 0, len(f.Stats)),
		}
		for _, s := range f.Stats {
			entries := make([]model.StatEntry, 0, len(s.H)+len(s.A))
			entries = append(entries, s.H...)
			entries = append(entries, s.A...)
			fx.Stats = append(fx.Stats, model.FixtureStat{Identifier: s.Identifier, Entries: entries})
		}
		out = append(out, fx)
	}
	return out, nil
}

// LiveStats reads /event/{gw}/live/ keyed by element id.
func (c *Client) LiveStats(ctx context.Context, round int) (map[int]model.LivePlayerStat, error) {
	var resp liveResponse
	err := c.getJSON(ctx,
		fmt.Sprintf("/event/%d/live/", round),
		fmt.Sprintf("gw/%d/live.json", round),
		&resp,
	)
	if err != nil {
		return nil, err
	}
	out := make(map[int]model.LivePlayerStat, len(resp.Elements))
	for _, e := range resp.Elements {
		out[e.ID] = model.LivePlayerStat{
			Element:               e.ID,
			Minutes:               e.Stats.Minutes,
			CleanSheet:            e.Stats.CleanSheets > 0,
			GoalsConceded:         e.Stats.GoalsConceded,
			Saves:                 e.Stats.Saves,
			Bonus:                 e.Stats.Bonus,
			DefensiveContribution: e.Stats.DefensiveContribution,
			TotalPoints:           e.Stats.TotalPoints,
		}
	}
	return out, nil
}

// Squad reads /entry/{id}/event/{gw}/picks/.
func (c *Client) Squad(ctx context.Context, teamID, round int) (*model.Squad, error) {
	var resp picksResponse
	err := c.getJSON(ctx,
		fmt.Sprintf("/entry/%d/event/%d/picks/", teamID, round),
		fmt.Sprintf("entry/%d/gw/%d/picks.json", teamID, round),
		&resp,
	)
	if err != nil {
		return nil, err
	}
	sq := &model.Squad{
		TeamID:          teamID,
		Round:           round,
		Picks:           resp.Picks,
		TransferPenalty: resp.EntryHistory.EventTransfersCost,
		EntryHistory:    resp.EntryHistory.record(),
	}
	if resp.ActiveChip != nil {
		sq.ActiveChip = *resp.ActiveChip
		sq.EntryHistory.Chip = *resp.ActiveChip
	}
	if sq.EntryHistory.Round == 0 {
		sq.EntryHistory.Round = round
	}
	return sq, nil
}

// TeamHistory reads /entry/{id}/history/.
func (c *Client) TeamHistory(ctx context.Context, teamID int) (*model.TeamHistory, error) {
	var resp historyResponse
	err := c.getJSON(ctx,
		fmt.Sprintf("/entry/%d/history/", teamID),
		fmt.Sprintf("entry/%d/history.json", teamID),
		&resp,
	)
	if err != nil {
		return nil, err
	}
	h := &model.TeamHistory{
		TeamID:    teamID,
		PerRound:  make([]model.GameweekRecord, 0, len(resp.Current)),
		ChipsUsed: make([]model.ChipUse, 0, len(resp.Chips)),
	}
	for _, r := range resp.Current {
		h.PerRound = append(h.PerRound, r.record())
	}
	for _, ch := range resp.Chips {
		h.ChipsUsed = append(h.ChipsUsed, model.ChipUse{Name: ch.Name, Round: ch.Event})
	}
	return h, nil
}

// StandingsRoster walks /leagues-classic/{id}/standings/ until has_next is
// false and returns the roster in standings order.
func (c *Client) StandingsRoster(ctx context.Context, leagueID int) ([]model.Team, error) {
	var out []model.Team
	seen := make(map[int]bool)
	for page := 1; page <= maxStandingsPages; page++ {
		var resp standingsResponse
		err := c.getJSON(ctx,
			fmt.Sprintf("/leagues-classic/%d/standings/?page_standings=%d", leagueID, page),
			fmt.Sprintf("league/%d/standings/page_%d.json", leagueID, page),
			&resp,
		)
		if err != nil {
			return nil, err
		}
		for _, r := range resp.Standings.Results {
			if seen[r.Entry] {
				continue
			}
			seen[r.Entry] = true
			out = append(out, model.Team{ID: r.Entry, Name: r.EntryName, ManagerName: r.PlayerName})
		}
		if !resp.Standings.HasNext {
			return out, nil
		}
	}
	c.logger.Warn("standings paging stopped at limit", "league_id", leagueID, "pages", maxStandingsPages)
	return out, nil
}
