package model

import "errors"

// ErrNotFound marks a record the upstream answered for but did not contain.
var ErrNotFound = errors.New("not found")

// Position is the catalog position class (FPL element_type).
type Position int

const (
	PositionUnknown    Position = 0
	PositionGoalkeeper Position = 1
	PositionDefender   Position = 2
	PositionMidfielder Position = 3
	PositionForward    Position = 4
)

func (p Position) String() string {
	switch p {
	case PositionGoalkeeper:
		return "GK"
	case PositionDefender:
		return "DEF"
	case PositionMidfielder:
		return "MID"
	case PositionForward:
		return "FWD"
	default:
		return "UNK"
	}
}

// Fixture stat identifiers as published by the upstream fixtures feed.
const (
	StatGoalsScored           = "goals_scored"
	StatAssists               = "assists"
	StatOwnGoals              = "own_goals"
	StatPenaltiesSaved        = "penalties_saved"
	StatPenaltiesMissed       = "penalties_missed"
	StatYellowCards           = "yellow_cards"
	StatRedCards              = "red_cards"
	StatSaves                 = "saves"
	StatBonus                 = "bonus"
	StatBPS                   = "bps"
	StatDefensiveContribution = "defensive_contribution"
)

// StatEntry is one player's value for a fixture stat.
type StatEntry struct {
	Element int `json:"element"`
	Value   int `json:"value"`
}

// FixtureStat groups home and away entries for one identifier.
type FixtureStat struct {
	Identifier string      `json:"identifier"`
	Entries    []StatEntry `json:"entries"`
}

type Fixture struct {
	ID       int           `json:"id"`
	Round    int           `json:"event"`
	TeamH    int           `json:"team_h"`
	TeamA    int           `json:"team_a"`
	Started  bool          `json:"started"`
	Finished bool          `json:"finished"`
	Stats    []FixtureStat `json:"stats"`
}

// LivePlayerStat is the per-round live row for a player. Bonus is taken
// verbatim from the feed; TotalPoints is the upstream aggregate and is only
// kept for comparison.
type LivePlayerStat struct {
	Element               int  `json:"element"`
	Minutes               int  `json:"minutes"`
	CleanSheet            bool `json:"clean_sheet"`
	GoalsConceded         int  `json:"goals_conceded"`
	Saves                 int  `json:"saves"`
	Bonus                 int  `json:"bonus"`
	DefensiveContribution int  `json:"defensive_contribution"`
	TotalPoints           int  `json:"total_points"`
}

type Player struct {
	ID         int      `json:"id"`
	FirstName  string   `json:"first_name"`
	SecondName string   `json:"second_name"`
	WebName    string   `json:"web_name"`
	Position   Position `json:"position"`
	ClubID     int      `json:"club_id"`
}

// DisplayName prefers the short web name.
func (p Player) DisplayName() string {
	if p.WebName != "" {
		return p.WebName
	}
	if p.SecondName == "" {
		return p.FirstName
	}
	if p.FirstName == "" {
		return p.SecondName
	}
	return p.FirstName + " " + p.SecondName
}

type Club struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

// Catalog is the season-long player and club list. Treat as immutable once
// published by the catalog cache.
type Catalog struct {
	Players []Player `json:"players"`
	Clubs   []Club   `json:"clubs"`
}

// Positions indexes the catalog by player id.
func (c *Catalog) Positions() map[int]Position {
	if c == nil {
		return map[int]Position{}
	}
	out := make(map[int]Position, len(c.Players))
	for _, p := range c.Players {
		out[p.ID] = p.Position
	}
	return out
}

// Player looks up a catalog entry by id.
func (c *Catalog) Player(id int) (Player, bool) {
	if c == nil {
		return Player{}, false
	}
	for _, p := range c.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// Round is a gameweek as listed by the upstream events table.
type Round struct {
	ID          int  `json:"id"`
	Finished    bool `json:"finished"`
	DataChecked bool `json:"data_checked"`
	IsCurrent   bool `json:"is_current"`
}

// Completed reports whether the round's points are final.
func (r Round) Completed() bool {
	return r.Finished && r.DataChecked
}

// Team is one row of the mini-league roster.
type Team struct {
	ID          int    `json:"entry_id"`
	Name        string `json:"entry_name"`
	ManagerName string `json:"manager_name"`
}

// Pick is one squad slot for a round. Slots 1..11 start, 12..15 are bench.
type Pick struct {
	Element       int  `json:"element"`
	Slot          int  `json:"position"`
	Multiplier    int  `json:"multiplier"`
	IsCaptain     bool `json:"is_captain"`
	IsViceCaptain bool `json:"is_vice_captain"`
}

// Starter reports whether the pick counts towards the gross total.
func (p Pick) Starter() bool {
	return p.Slot >= 1 && p.Slot <= 11
}

type Squad struct {
	TeamID          int            `json:"entry_id"`
	Round           int            `json:"gameweek"`
	Picks           []Pick         `json:"picks"`
	ActiveChip      string         `json:"active_chip,omitempty"`
	TransferPenalty int            `json:"transfer_penalty"`
	EntryHistory    GameweekRecord `json:"entry_history"`
}

// GameweekRecord is one team's result for one round.
type GameweekRecord struct {
	Round        int    `json:"gameweek"`
	Points       int    `json:"points"`
	TransferCost int    `json:"transfer_cost"`
	NetPoints    int    `json:"net_points"`
	TotalPoints  int    `json:"total_points"`
	BenchPoints  int    `json:"bench_points"`
	Chip         string `json:"chip,omitempty"`
}

// Net is gross points minus the transfer penalty.
func (r GameweekRecord) Net() int {
	return r.Points - r.TransferCost
}

type ChipUse struct {
	Name  string `json:"name"`
	Round int    `json:"gameweek"`
}

type TeamHistory struct {
	TeamID    int              `json:"entry_id"`
	PerRound  []GameweekRecord `json:"per_round"`
	ChipsUsed []ChipUse        `json:"chips_used"`
}

// ByRound indexes the history and stamps the chip used in each round.
func (h *TeamHistory) ByRound() map[int]GameweekRecord {
	out := make(map[int]GameweekRecord)
	if h == nil {
		return out
	}
	chips := make(map[int]string, len(h.ChipsUsed))
	for _, c := range h.ChipsUsed {
		chips[c.Round] = c.Name
	}
	for _, r := range h.PerRound {
		if r.Chip == "" {
			r.Chip = chips[r.Round]
		}
		out[r.Round] = r
	}
	return out
}

// TeamScore is a team's net score in a tie comparison.
type TeamScore struct {
	TeamID   int    `json:"entry_id"`
	TeamName string `json:"entry_name"`
	Score    int    `json:"score"`
}

// TieGroup is the set of teams sharing the top net score in a round.
type TieGroup struct {
	Round int         `json:"gameweek"`
	Score int         `json:"score"`
	Teams []TeamScore `json:"teams"`
}

// IDs returns the member team ids in group order.
func (g TieGroup) IDs() []int {
	out := make([]int, 0, len(g.Teams))
	for _, t := range g.Teams {
		out = append(out, t.TeamID)
	}
	return out
}

// Contains reports whether teamID is a member.
func (g TieGroup) Contains(teamID int) bool {
	for _, t := range g.Teams {
		if t.TeamID == teamID {
			return true
		}
	}
	return false
}

type RoundWin struct {
	Round  int `json:"gameweek"`
	Points int `json:"points"`
}

type BestRound struct {
	Round  int `json:"gameweek"`
	Points int `json:"points"`
}

// WinRecord is a team's season-long tally.
type WinRecord struct {
	TeamID      int        `json:"entry_id"`
	TeamName    string     `json:"entry_name"`
	ManagerName string     `json:"manager_name,omitempty"`
	Wins        int        `json:"wins"`
	RoundsWon   []RoundWin `json:"rounds_won"`
	TotalPoints int        `json:"total_points"`
	BenchPoints int        `json:"bench_points"`
	BestRound   BestRound  `json:"best_round"`
}
