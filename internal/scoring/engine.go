package scoring

import (
	"sort"

	"github.com/aatrey56/fpl-league-hub/internal/model"
)

// Item is one line of a player's breakdown.
type Item struct {
	Stat   string `json:"stat"`
	Value  int    `json:"value"`
	Points int    `json:"points"`
}

// PlayerScore is the reconstructed total for one player in one round.
type PlayerScore struct {
	Element  int            `json:"element"`
	Position model.Position `json:"position"`
	Minutes  int            `json:"minutes"`
	Total    int            `json:"total"`
	Upstream int            `json:"upstream_total"`
	Items    []Item         `json:"items"`
}

// Engine converts raw fixture events and live stats into fantasy points.
// It holds no state beyond its rules and is safe for concurrent use.
type Engine struct {
	rules Rules
}

func NewEngine(rules Rules) *Engine {
	return &Engine{rules: rules}
}

// Points returns the fantasy-points map for a round.
func (e *Engine) Points(fixtures []model.Fixture, live map[int]model.LivePlayerStat, positions map[int]model.Position) map[int]int {
	scores := e.Score(fixtures, live, positions)
	out := make(map[int]int, len(scores))
	for id, s := range scores {
		out[id] = s.Total
	}
	return out
}

// Score returns the full per-player breakdown for a round. Players absent
// from the catalog are scored without the position-gated rules. An empty
// live feed yields an empty map.
func (e *Engine) Score(fixtures []model.Fixture, live map[int]model.LivePlayerStat, positions map[int]model.Position) map[int]PlayerScore {
	out := make(map[int]PlayerScore, len(live))
	if len(live) == 0 {
		return out
	}

	events := collectEvents(fixtures)

	ids := make([]int, 0, len(live)+len(events))
	seen := make(map[int]bool, len(live)+len(events))
	for id := range live {
		ids = append(ids, id)
		seen[id] = true
	}
	for id := range events {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	for _, id := range ids {
		out[id] = e.scorePlayer(id, positions[id], live[id], events[id])
	}
	return out
}

// collectEvents sums fixture stat values per player and identifier across
// every fixture of the round.
func collectEvents(fixtures []model.Fixture) map[int]map[string]int {
	out := make(map[int]map[string]int)
	for _, f := range fixtures {
		for _, st := range f.Stats {
			for _, entry := range st.Entries {
				if entry.Element == 0 {
					continue
				}
				byStat := out[entry.Element]
				if byStat == nil {
					byStat = make(map[string]int)
					out[entry.Element] = byStat
				}
				byStat[st.Identifier] += entry.Value
			}
		}
	}
	return out
}

func (e *Engine) scorePlayer(id int, pos model.Position, stat model.LivePlayerStat, events map[string]int) PlayerScore {
	r := e.rules
	ps := PlayerScore{
		Element:  id,
		Position: pos,
		Minutes:  stat.Minutes,
		Upstream: stat.TotalPoints,
		Items:    make([]Item, 0, 4),
	}
	add := func(name string, value, points int) {
		if points == 0 {
			return
		}
		ps.Items = append(ps.Items, Item{Stat: name, Value: value, Points: points})
		ps.Total += points
	}

	played := stat.Minutes > 0
	switch {
	case stat.Minutes >= r.FullMinutes:
		add("minutes", stat.Minutes, r.FullMinutesPoints)
	case played:
		add("minutes", stat.Minutes, r.AppearancePoints)
	}

	if pos != model.PositionUnknown && played {
		if stat.CleanSheet && stat.Minutes >= r.FullMinutes {
			add("clean_sheets", 1, r.CleanSheet[pos])
		}
		if concedesPoints(pos) && r.ConcededPer > 0 {
			add("goals_conceded", stat.GoalsConceded, (stat.GoalsConceded/r.ConcededPer)*r.GoalsConceded)
		}
		if pos == model.PositionGoalkeeper && r.SavesPer > 0 {
			add(model.StatSaves, stat.Saves, (stat.Saves/r.SavesPer)*r.SavesPoints)
		}
	}

	if goals := events[model.StatGoalsScored]; goals != 0 && pos != model.PositionUnknown {
		add(model.StatGoalsScored, goals, goals*r.GoalsScored[pos])
	}
	add(model.StatAssists, events[model.StatAssists], events[model.StatAssists]*r.Assist)
	add(model.StatYellowCards, events[model.StatYellowCards], events[model.StatYellowCards]*r.YellowCard)
	add(model.StatRedCards, events[model.StatRedCards], events[model.StatRedCards]*r.RedCard)
	add(model.StatPenaltiesSaved, events[model.StatPenaltiesSaved], events[model.StatPenaltiesSaved]*r.PenaltySaved)
	add(model.StatPenaltiesMissed, events[model.StatPenaltiesMissed], events[model.StatPenaltiesMissed]*r.PenaltyMissed)
	add(model.StatOwnGoals, events[model.StatOwnGoals], events[model.StatOwnGoals]*r.OwnGoal)

	if limit, ok := r.DefensiveThreshold[pos]; ok {
		count := events[model.StatDefensiveContribution]
		if count == 0 {
			count = stat.DefensiveContribution
		}
		if count > limit {
			add(model.StatDefensiveContribution, count, r.DefensiveBonus)
		}
	}

	add(model.StatBonus, stat.Bonus, stat.Bonus)
	return ps
}
