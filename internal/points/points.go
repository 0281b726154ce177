package points

import (
	"sort"
	"time"

	"github.com/aatrey56/fpl-league-hub/internal/model"
	"github.com/aatrey56/fpl-league-hub/internal/store"
)

type PlayerPoints struct {
	Element    int  `json:"element"`
	Slot       int  `json:"position"`
	Starter    bool `json:"starter"`
	Points     int  `json:"points"`
	Multiplier int  `json:"multiplier"`
	Total      int  `json:"total"`
}

type Result struct {
	EntryID        int            `json:"entry_id"`
	Gameweek       int            `json:"gameweek"`
	GeneratedAtUTC string         `json:"generated_at_utc"`
	Players        []PlayerPoints `json:"players"`
	Gross          int            `json:"total_points"`
	BenchPoints    int            `json:"bench_points"`
	TransferCost   int            `json:"transfer_cost"`
	Chip           string         `json:"chip,omitempty"`
}

// BuildResult values a squad against a round's points map. Starters count
// points x multiplier; bench slots only feed BenchPoints. Players missing
// from the map score 0.
func BuildResult(entryID int, gw int, squad *model.Squad, playerPoints map[int]int) *Result {
	res := &Result{
		EntryID:        entryID,
		Gameweek:       gw,
		GeneratedAtUTC: time.Now().UTC().Format(time.RFC3339),
		Players:        make([]PlayerPoints, 0, 15),
	}
	if squad == nil {
		return res
	}
	res.TransferCost = squad.TransferPenalty
	res.Chip = squad.ActiveChip

	for _, p := range squad.Picks {
		base := playerPoints[p.Element]
		pp := PlayerPoints{
			Element:    p.Element,
			Slot:       p.Slot,
			Starter:    p.Starter(),
			Points:     base,
			Multiplier: p.Multiplier,
		}
		if pp.Starter {
			pp.Total = base * p.Multiplier
			res.Gross += pp.Total
		} else {
			res.BenchPoints += base
		}
		res.Players = append(res.Players, pp)
	}
	sort.Slice(res.Players, func(i, j int) bool {
		return res.Players[i].Slot < res.Players[j].Slot
	})
	return res
}

// Record converts the result into a GameweekRecord. prevTotal is the team's
// cumulative total before this round.
func (r *Result) Record(prevTotal int) model.GameweekRecord {
	net := r.Gross - r.TransferCost
	return model.GameweekRecord{
		Round:        r.Gameweek,
		Points:       r.Gross,
		TransferCost: r.TransferCost,
		NetPoints:    net,
		TotalPoints:  prevTotal + net,
		BenchPoints:  r.BenchPoints,
		Chip:         r.Chip,
	}
}

func WriteResult(path string, result *Result) error {
	return store.WriteJSONFile(path, result)
}
