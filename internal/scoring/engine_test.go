package scoring

import (
	"reflect"
	"testing"

	"github.com/aatrey56/fpl-league-hub/internal/model"
)

const (
	gk  = model.PositionGoalkeeper
	def = model.PositionDefender
	mid = model.PositionMidfielder
	fwd = model.PositionForward
)

// fixtureWith builds a single fixture carrying the given stat entries.
func fixtureWith(stats map[string][]model.StatEntry) model.Fixture {
	f := model.Fixture{ID: 1, Round: 1, Started: true, Finished: true}
	for id, entries := range stats {
		f.Stats = append(f.Stats, model.FixtureStat{Identifier: id, Entries: entries})
	}
	return f
}

func pointsFor(t *testing.T, element int, pos model.Position, live model.LivePlayerStat, fixtures ...model.Fixture) int {
	t.Helper()
	live.Element = element
	e := NewEngine(DefaultRules())
	got := e.Points(fixtures, map[int]model.LivePlayerStat{element: live}, map[int]model.Position{element: pos})
	pts, ok := got[element]
	if !ok {
		t.Fatalf("element %d missing from points map", element)
	}
	return pts
}

// ---------------------------------------------------------------------------
// Worked scenarios
// ---------------------------------------------------------------------------

func TestScore_GoalkeeperCleanSheetWithLateConcession(t *testing.T) {
	// 90 mins, clean sheet flag, 2 saves, 1 conceded: 2 + 4 + 0 - 0.
	got := pointsFor(t, 1, gk, model.LivePlayerStat{Minutes: 90, CleanSheet: true, Saves: 2, GoalsConceded: 1})
	if got != 6 {
		t.Fatalf("points = %d, want 6", got)
	}
}

func TestScore_DefenderConcedesButHitsDefensiveThreshold(t *testing.T) {
	f := fixtureWith(map[string][]model.StatEntry{
		model.StatDefensiveContribution: {{Element: 2, Value: 11}},
	})
	got := pointsFor(t, 2, def, model.LivePlayerStat{Minutes: 90, GoalsConceded: 3}, f)
	if got != 3 {
		t.Fatalf("points = %d, want 3 (2 mins - 1 conceded + 2 defensive)", got)
	}
}

func TestScore_MidfielderDefensiveThresholdIsExclusive(t *testing.T) {
	tests := []struct {
		actions int
		want    int
	}{
		{12, 2},
		{13, 4},
	}
	for _, tt := range tests {
		f := fixtureWith(map[string][]model.StatEntry{
			model.StatDefensiveContribution: {{Element: 3, Value: tt.actions}},
		})
		got := pointsFor(t, 3, mid, model.LivePlayerStat{Minutes: 90}, f)
		if got != tt.want {
			t.Errorf("actions=%d: points = %d, want %d", tt.actions, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Rules
// ---------------------------------------------------------------------------

func TestScore_Minutes(t *testing.T) {
	tests := []struct {
		minutes int
		want    int
	}{
		{0, 0},
		{1, 1},
		{59, 1},
		{60, 2},
		{90, 2},
	}
	for _, tt := range tests {
		if got := pointsFor(t, 4, fwd, model.LivePlayerStat{Minutes: tt.minutes}); got != tt.want {
			t.Errorf("minutes=%d: points = %d, want %d", tt.minutes, got, tt.want)
		}
	}
}

func TestScore_CleanSheetByPosition(t *testing.T) {
	tests := []struct {
		pos  model.Position
		want int
	}{
		{gk, 6},
		{def, 6},
		{mid, 3},
		{fwd, 2},
	}
	for _, tt := range tests {
		got := pointsFor(t, 5, tt.pos, model.LivePlayerStat{Minutes: 90, CleanSheet: true})
		if got != tt.want {
			t.Errorf("%s: points = %d, want %d", tt.pos, got, tt.want)
		}
	}
}

func TestScore_CleanSheetNeedsSixtyMinutes(t *testing.T) {
	got := pointsFor(t, 6, def, model.LivePlayerStat{Minutes: 59, CleanSheet: true})
	if got != 1 {
		t.Fatalf("points = %d, want 1 (appearance only)", got)
	}
}

func TestScore_GoalsByPositionAndEventValue(t *testing.T) {
	tests := []struct {
		pos   model.Position
		goals int
		want  int
	}{
		{gk, 1, 2 + 6},
		{def, 2, 2 + 12},
		{mid, 1, 2 + 5},
		{fwd, 3, 2 + 12},
	}
	for _, tt := range tests {
		f := fixtureWith(map[string][]model.StatEntry{
			model.StatGoalsScored: {{Element: 7, Value: tt.goals}},
		})
		got := pointsFor(t, 7, tt.pos, model.LivePlayerStat{Minutes: 90}, f)
		if got != tt.want {
			t.Errorf("%s goals=%d: points = %d, want %d", tt.pos, tt.goals, got, tt.want)
		}
	}
}

func TestScore_EventRules(t *testing.T) {
	tests := []struct {
		name string
		stat string
		val  int
		want int
	}{
		{"assists", model.StatAssists, 2, 2 + 6},
		{"yellow", model.StatYellowCards, 1, 2 - 1},
		{"red", model.StatRedCards, 1, 2 - 3},
		{"pen saved", model.StatPenaltiesSaved, 1, 2 + 5},
		{"pen missed", model.StatPenaltiesMissed, 1, 2 - 2},
		{"own goals", model.StatOwnGoals, 2, 2 - 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fixtureWith(map[string][]model.StatEntry{tt.stat: {{Element: 8, Value: tt.val}}})
			if got := pointsFor(t, 8, mid, model.LivePlayerStat{Minutes: 90}, f); got != tt.want {
				t.Fatalf("points = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScore_GoalsConcededAndSavesFloor(t *testing.T) {
	got := pointsFor(t, 9, gk, model.LivePlayerStat{Minutes: 90, GoalsConceded: 5, Saves: 7})
	// 2 mins - 2 (5/2) + 2 (7/3)
	if got != 2 {
		t.Fatalf("points = %d, want 2", got)
	}
	// Saves are goalkeeper-only; conceded is GK/DEF only.
	if got := pointsFor(t, 9, mid, model.LivePlayerStat{Minutes: 90, GoalsConceded: 5, Saves: 7}); got != 2 {
		t.Fatalf("midfielder points = %d, want 2", got)
	}
}

func TestScore_DefensiveContributionIgnoredForForwards(t *testing.T) {
	f := fixtureWith(map[string][]model.StatEntry{
		model.StatDefensiveContribution: {{Element: 10, Value: 20}},
	})
	if got := pointsFor(t, 10, fwd, model.LivePlayerStat{Minutes: 90}, f); got != 2 {
		t.Fatalf("points = %d, want 2", got)
	}
}

func TestScore_DefensiveContributionAccumulatesAcrossFixtures(t *testing.T) {
	first := fixtureWith(map[string][]model.StatEntry{model.StatDefensiveContribution: {{Element: 11, Value: 6}}})
	second := fixtureWith(map[string][]model.StatEntry{model.StatDefensiveContribution: {{Element: 11, Value: 5}}})
	if got := pointsFor(t, 11, def, model.LivePlayerStat{Minutes: 180}, first, second); got != 4 {
		t.Fatalf("points = %d, want 4 (11 actions over two fixtures)", got)
	}
}

func TestScore_BonusIsVerbatim(t *testing.T) {
	// Fixture bonus/bps entries never override the live bonus value.
	f := fixtureWith(map[string][]model.StatEntry{
		model.StatBonus: {{Element: 12, Value: 1}},
		model.StatBPS:   {{Element: 12, Value: 40}},
	})
	if got := pointsFor(t, 12, fwd, model.LivePlayerStat{Minutes: 90, Bonus: 3}, f); got != 5 {
		t.Fatalf("points = %d, want 5", got)
	}
}

// ---------------------------------------------------------------------------
// Edge cases
// ---------------------------------------------------------------------------

func TestScore_NonParticipantScoresZero(t *testing.T) {
	got := pointsFor(t, 13, def, model.LivePlayerStat{Minutes: 0, GoalsConceded: 4})
	if got != 0 {
		t.Fatalf("points = %d, want 0", got)
	}
}

func TestScore_UnknownPositionSkipsGatedRules(t *testing.T) {
	e := NewEngine(DefaultRules())
	f := fixtureWith(map[string][]model.StatEntry{
		model.StatGoalsScored: {{Element: 14, Value: 1}},
		model.StatAssists:     {{Element: 14, Value: 1}},
	})
	live := map[int]model.LivePlayerStat{14: {Element: 14, Minutes: 90, CleanSheet: true, GoalsConceded: 4}}
	got := e.Points([]model.Fixture{f}, live, map[int]model.Position{})
	if got[14] != 5 {
		t.Fatalf("points = %d, want 5 (mins + assist only)", got[14])
	}
}

func TestScore_EmptyLiveFeed(t *testing.T) {
	e := NewEngine(DefaultRules())
	f := fixtureWith(map[string][]model.StatEntry{model.StatGoalsScored: {{Element: 1, Value: 1}}})
	got := e.Points([]model.Fixture{f}, nil, map[int]model.Position{1: fwd})
	if len(got) != 0 {
		t.Fatalf("len = %d, want empty map", len(got))
	}
}

func TestScore_EventOnlyPlayerIncluded(t *testing.T) {
	e := NewEngine(DefaultRules())
	f := fixtureWith(map[string][]model.StatEntry{model.StatOwnGoals: {{Element: 99, Value: 1}}})
	live := map[int]model.LivePlayerStat{1: {Element: 1, Minutes: 90}}
	got := e.Points([]model.Fixture{f}, live, map[int]model.Position{1: fwd, 99: def})
	if got[99] != -2 {
		t.Fatalf("event-only player = %d, want -2", got[99])
	}
}

func TestScore_Deterministic(t *testing.T) {
	e := NewEngine(DefaultRules())
	f := fixtureWith(map[string][]model.StatEntry{
		model.StatGoalsScored: {{Element: 1, Value: 1}, {Element: 2, Value: 2}},
		model.StatAssists:     {{Element: 3, Value: 1}},
	})
	live := map[int]model.LivePlayerStat{
		1: {Element: 1, Minutes: 90, Bonus: 2},
		2: {Element: 2, Minutes: 70},
		3: {Element: 3, Minutes: 30, CleanSheet: true},
	}
	pos := map[int]model.Position{1: fwd, 2: mid, 3: def}

	first := e.Score([]model.Fixture{f}, live, pos)
	for i := 0; i < 20; i++ {
		if again := e.Score([]model.Fixture{f}, live, pos); !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %v vs %v", i, first, again)
		}
	}
}

func TestScore_BreakdownSumsToTotal(t *testing.T) {
	e := NewEngine(DefaultRules())
	f := fixtureWith(map[string][]model.StatEntry{
		model.StatGoalsScored: {{Element: 1, Value: 1}},
		model.StatYellowCards: {{Element: 1, Value: 1}},
	})
	live := map[int]model.LivePlayerStat{1: {Element: 1, Minutes: 90, CleanSheet: true, Bonus: 1, TotalPoints: 11}}
	ps := e.Score([]model.Fixture{f}, live, map[int]model.Position{1: def})[1]

	sum := 0
	for _, it := range ps.Items {
		sum += it.Points
	}
	if sum != ps.Total {
		t.Fatalf("items sum %d != total %d", sum, ps.Total)
	}
	if ps.Total != 12 {
		t.Fatalf("total = %d, want 12", ps.Total)
	}
	if ps.Upstream != 11 {
		t.Fatalf("upstream = %d, want 11", ps.Upstream)
	}
}
