package scoring

import "github.com/aatrey56/fpl-league-hub/internal/model"

// Rules holds the point values the engine applies. DefaultRules matches the
// current season's scoring table.
type Rules struct {
	FullMinutes       int // minutes needed for the full appearance award
	AppearancePoints  int // 1..FullMinutes-1 minutes
	FullMinutesPoints int // FullMinutes or more

	CleanSheet     map[model.Position]int
	GoalsScored    map[model.Position]int
	GoalsConceded  int // per ConcededPer goals, GK/DEF only
	ConcededPer    int
	SavesPoints    int // per SavesPer saves, GK only
	SavesPer       int
	Assist         int
	YellowCard     int
	RedCard        int
	PenaltySaved   int
	PenaltyMissed  int
	OwnGoal        int
	DefensiveBonus int

	// DefensiveThreshold is exclusive: the count must exceed it.
	DefensiveThreshold map[model.Position]int
}

// DefaultRules returns the standard scoring table.
func DefaultRules() Rules {
	return Rules{
		FullMinutes:       60,
		AppearancePoints:  1,
		FullMinutesPoints: 2,
		CleanSheet: map[model.Position]int{
			model.PositionGoalkeeper: 4,
			model.PositionDefender:   4,
			model.PositionMidfielder: 1,
		},
		GoalsScored: map[model.Position]int{
			model.PositionGoalkeeper: 6,
			model.PositionDefender:   6,
			model.PositionMidfielder: 5,
			model.PositionForward:    4,
		},
		GoalsConceded:  -1,
		ConcededPer:    2,
		SavesPoints:    1,
		SavesPer:       3,
		Assist:         3,
		YellowCard:     -1,
		RedCard:        -3,
		PenaltySaved:   5,
		PenaltyMissed:  -2,
		OwnGoal:        -2,
		DefensiveBonus: 2,
		DefensiveThreshold: map[model.Position]int{
			model.PositionDefender:   10,
			model.PositionMidfielder: 12,
		},
	}
}

func concedesPoints(pos model.Position) bool {
	return pos == model.PositionGoalkeeper || pos == model.PositionDefender
}
