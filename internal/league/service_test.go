package league

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/aatrey56/fpl-league-hub/internal/model"
)

// fakeGateway serves canned data and can fail or stall per team.
type fakeGateway struct {
	mu sync.Mutex

	fixtures  []model.Fixture
	fixErr    error
	live      map[int]model.LivePlayerStat
	liveErr   error
	rounds    []model.Round
	roundsErr error
	squads    map[int]*model.Squad
	histories map[int]*model.TeamHistory
	roster    []model.Team
	rosterErr error
	fail      map[int]bool
	stall     map[int]bool

	calls       int
	inflight    int
	maxInflight int
}

func (f *fakeGateway) enter() func() {
	f.mu.Lock()
	f.calls++
	f.inflight++
	if f.inflight > f.maxInflight {
		f.maxInflight = f.inflight
	}
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.inflight--
		f.mu.Unlock()
	}
}

func (f *fakeGateway) team(ctx context.Context, teamID int) error {
	if f.stall[teamID] {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.fail[teamID] {
		return errors.New("boom")
	}
	// Keep branches overlapping so the concurrency cap is observable.
	time.Sleep(5 * time.Millisecond)
	return nil
}

func (f *fakeGateway) Fixtures(ctx context.Context, round int) ([]model.Fixture, error) {
	defer f.enter()()
	return f.fixtures, f.fixErr
}

func (f *fakeGateway) LiveStats(ctx context.Context, round int) (map[int]model.LivePlayerStat, error) {
	defer f.enter()()
	return f.live, f.liveErr
}

func (f *fakeGateway) Rounds(ctx context.Context) ([]model.Round, error) {
	defer f.enter()()
	return f.rounds, f.roundsErr
}

func (f *fakeGateway) Squad(ctx context.Context, teamID, round int) (*model.Squad, error) {
	defer f.enter()()
	if err := f.team(ctx, teamID); err != nil {
		return nil, err
	}
	sq, ok := f.squads[teamID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return sq, nil
}

func (f *fakeGateway) TeamHistory(ctx context.Context, teamID int) (*model.TeamHistory, error) {
	defer f.enter()()
	if err := f.team(ctx, teamID); err != nil {
		return nil, err
	}
	h, ok := f.histories[teamID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return h, nil
}

func (f *fakeGateway) StandingsRoster(ctx context.Context, leagueID int) ([]model.Team, error) {
	defer f.enter()()
	return f.roster, f.rosterErr
}

type catalogFunc func(ctx context.Context) (*model.Catalog, error)

func (f catalogFunc) Get(ctx context.Context) (*model.Catalog, error) { return f(ctx) }

func staticCatalog() CatalogSource {
	cat := &model.Catalog{
		Players: []model.Player{
			{ID: 1, WebName: "Haaland", Position: model.PositionForward, ClubID: 13},
			{ID: 2, WebName: "Rice", Position: model.PositionMidfielder, ClubID: 1},
		},
	}
	return catalogFunc(func(context.Context) (*model.Catalog, error) { return cat, nil })
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(gw Gateway, opts Options) *Service {
	opts.Logger = quietLogger()
	return NewService(gw, staticCatalog(), opts)
}

func roundData() *fakeGateway {
	return &fakeGateway{
		fixtures: []model.Fixture{{
			ID: 1, Round: 5, Finished: true,
			Stats: []model.FixtureStat{{Identifier: model.StatGoalsScored, Entries: []model.StatEntry{{Element: 1, Value: 1}}}},
		}},
		live: map[int]model.LivePlayerStat{
			1: {Element: 1, Minutes: 90, TotalPoints: 6},
			2: {Element: 2, Minutes: 30, TotalPoints: 1},
		},
		roster: []model.Team{{ID: 10, Name: "Alpha"}, {ID: 20, Name: "Bravo"}},
	}
}

func hist(teamID int, recs ...model.GameweekRecord) *model.TeamHistory {
	return &model.TeamHistory{TeamID: teamID, PerRound: recs}
}

func rec(round, points, cost int) model.GameweekRecord {
	return model.GameweekRecord{Round: round, Points: points, TransferCost: cost, NetPoints: points - cost}
}

func completed(n, total int) []model.Round {
	out := make([]model.Round, 0, total)
	for i := 1; i <= total; i++ {
		out = append(out, model.Round{ID: i, Finished: i <= n, DataChecked: i <= n})
	}
	return out
}

// ---------------------------------------------------------------------------
// Configuration errors
// ---------------------------------------------------------------------------

func TestMissingLeagueIsConfigurationError(t *testing.T) {
	gw := &fakeGateway{}
	svc := newTestService(gw, Options{})
	ctx := context.Background()

	if _, err := svc.SeasonWinners(ctx, 0); !errors.Is(err, ErrConfiguration) {
		t.Errorf("SeasonWinners: got %v, want ErrConfiguration", err)
	}
	if _, err := svc.GameweekScores(ctx, 0, 3); !errors.Is(err, ErrConfiguration) {
		t.Errorf("GameweekScores: got %v, want ErrConfiguration", err)
	}
	if _, err := svc.PlayerPoints(ctx, 0); !errors.Is(err, ErrConfiguration) {
		t.Errorf("PlayerPoints: got %v, want ErrConfiguration", err)
	}
	if gw.calls != 0 {
		t.Errorf("gateway should not be called, calls=%d", gw.calls)
	}
}

// ---------------------------------------------------------------------------
// PlayerPoints
// ---------------------------------------------------------------------------

func TestPlayerPoints(t *testing.T) {
	svc := newTestService(roundData(), Options{})
	rp, err := svc.PlayerPoints(context.Background(), 5)
	if err != nil {
		t.Fatalf("PlayerPoints: %v", err)
	}
	if got := rp.Points(); got[1] != 6 || got[2] != 1 {
		t.Errorf("points: %v", got)
	}
	if len(rp.Players) != 2 || rp.Players[0].Element != 1 || rp.Players[0].Name != "Haaland" {
		t.Errorf("players: %+v", rp.Players)
	}
	if len(rp.Missing) != 0 {
		t.Errorf("missing: %v", rp.Missing)
	}
}

func TestPlayerPoints_DegradesWhenFixturesFail(t *testing.T) {
	gw := roundData()
	gw.fixErr = errors.New("upstream 503")
	svc := newTestService(gw, Options{})

	rp, err := svc.PlayerPoints(context.Background(), 5)
	if err != nil {
		t.Fatalf("should degrade, got %v", err)
	}
	if !reflect.DeepEqual(rp.Missing, []string{"fixtures"}) {
		t.Errorf("missing: %v", rp.Missing)
	}
	// Without fixture events the goal is gone, minutes still count.
	if got := rp.Points()[1]; got != 2 {
		t.Errorf("points for 1: got %d, want 2", got)
	}
}

func TestPlayerPoints_DegradesWhenCatalogFails(t *testing.T) {
	svc := NewService(roundData(), catalogFunc(func(context.Context) (*model.Catalog, error) {
		return nil, errors.New("bootstrap down")
	}), Options{Logger: quietLogger()})

	rp, err := svc.PlayerPoints(context.Background(), 5)
	if err != nil {
		t.Fatalf("should degrade, got %v", err)
	}
	// Unknown positions drop the goal and keep minutes.
	if got := rp.Points()[1]; got != 2 {
		t.Errorf("points for 1: got %d, want 2", got)
	}
	if rp.Players[0].Name != "" {
		t.Errorf("no catalog means no name, got %q", rp.Players[0].Name)
	}
}

// ---------------------------------------------------------------------------
// GameweekScores
// ---------------------------------------------------------------------------

func TestGameweekScores(t *testing.T) {
	gw := roundData()
	gw.squads = map[int]*model.Squad{
		10: {
			TeamID: 10, Round: 5, TransferPenalty: 4,
			Picks: []model.Pick{
				{Element: 1, Slot: 1, Multiplier: 2, IsCaptain: true},
				{Element: 2, Slot: 12, Multiplier: 1},
			},
			EntryHistory: model.GameweekRecord{Round: 5, Points: 54, TransferCost: 4, NetPoints: 50, TotalPoints: 100},
		},
		20: {
			TeamID: 20, Round: 5,
			Picks: []model.Pick{
				{Element: 2, Slot: 1, Multiplier: 1},
				{Element: 1, Slot: 13, Multiplier: 1},
			},
		},
	}
	svc := newTestService(gw, Options{})

	rep, err := svc.GameweekScores(context.Background(), 77, 5)
	if err != nil {
		t.Fatalf("GameweekScores: %v", err)
	}
	if len(rep.Teams) != 2 {
		t.Fatalf("teams: %+v", rep.Teams)
	}
	a := rep.Teams[0].Record
	if a.Points != 12 || a.NetPoints != 8 || a.BenchPoints != 1 || a.TotalPoints != 58 {
		t.Errorf("team 10 record: %+v", a)
	}
	b := rep.Teams[1].Record
	if b.Points != 1 || b.BenchPoints != 6 || b.TotalPoints != 1 {
		t.Errorf("team 20 record: %+v", b)
	}
	if rep.Top == nil || !reflect.DeepEqual(rep.Top.IDs(), []int{10}) || rep.Top.Score != 8 {
		t.Errorf("top group: %+v", rep.Top)
	}
	if rep.Degraded {
		t.Error("report should not be degraded")
	}
	if rep.Points == nil || rep.Points.Round != 5 || len(rep.Points.Players) != 2 {
		t.Errorf("report should carry the round's player points: %+v", rep.Points)
	}
}

func TestGameweekScores_MissingLiveLeavesNoTopGroup(t *testing.T) {
	gw := roundData()
	gw.liveErr = errors.New("live feed down")
	gw.squads = map[int]*model.Squad{
		10: {TeamID: 10, Picks: []model.Pick{{Element: 1, Slot: 1, Multiplier: 1}}},
		20: {TeamID: 20, Picks: []model.Pick{{Element: 2, Slot: 1, Multiplier: 1}}},
	}
	svc := newTestService(gw, Options{})

	rep, err := svc.GameweekScores(context.Background(), 77, 5)
	if err != nil {
		t.Fatalf("GameweekScores: %v", err)
	}
	if !rep.Degraded {
		t.Error("report should be flagged degraded")
	}
	if rep.Top != nil {
		t.Errorf("an all-zero round must not report a top group: %+v", rep.Top)
	}
	if !reflect.DeepEqual(rep.MissingSources, []string{"live"}) {
		t.Errorf("missing sources: %v", rep.MissingSources)
	}
	if len(rep.Teams) != 2 {
		t.Errorf("squads should still be listed: %d", len(rep.Teams))
	}
}

func TestGameweekScores_MissingSquadDegrades(t *testing.T) {
	gw := roundData()
	gw.squads = map[int]*model.Squad{
		10: {TeamID: 10, Picks: []model.Pick{{Element: 1, Slot: 1, Multiplier: 1}}},
	}
	gw.fail = map[int]bool{20: true}
	svc := newTestService(gw, Options{})

	rep, err := svc.GameweekScores(context.Background(), 77, 5)
	if err != nil {
		t.Fatalf("GameweekScores: %v", err)
	}
	if len(rep.Teams) != 1 || !reflect.DeepEqual(rep.MissingTeams, []int{20}) {
		t.Errorf("teams %d missing %v", len(rep.Teams), rep.MissingTeams)
	}
}

func TestGameweekScores_RosterFailureIsEmpty(t *testing.T) {
	gw := roundData()
	gw.rosterErr = errors.New("timeout")
	svc := newTestService(gw, Options{})

	rep, err := svc.GameweekScores(context.Background(), 77, 5)
	if err != nil {
		t.Fatalf("GameweekScores: %v", err)
	}
	if len(rep.Teams) != 0 || rep.Top != nil {
		t.Errorf("expected empty report, got %+v", rep)
	}
}

// ---------------------------------------------------------------------------
// SeasonWinners
// ---------------------------------------------------------------------------

func seasonData() *fakeGateway {
	return &fakeGateway{
		roster: []model.Team{{ID: 1, Name: "Alpha"}, {ID: 2, Name: "Bravo"}, {ID: 3, Name: "Charlie"}},
		rounds: completed(2, 38),
		histories: map[int]*model.TeamHistory{
			1: hist(1, rec(1, 70, 0), rec(2, 40, 0)),
			2: hist(2, rec(1, 60, 0), rec(2, 65, 4)),
			3: hist(3, rec(1, 20, 0), rec(2, 30, 0)),
		},
	}
}

func TestSeasonWinners(t *testing.T) {
	svc := newTestService(seasonData(), Options{})
	rep, err := svc.SeasonWinners(context.Background(), 9)
	if err != nil {
		t.Fatalf("SeasonWinners: %v", err)
	}
	s := rep.Season
	if len(s.Awards) != 2 || s.Awards[0].TeamID != 1 || s.Awards[1].TeamID != 2 {
		t.Fatalf("awards: %+v", s.Awards)
	}
	// Both have one win; team 2 leads on total points (121 vs 110).
	if s.WinRecords[0].TeamID != 2 {
		t.Errorf("leader: %+v", s.WinRecords[0])
	}
	w, recs, ok := rep.Team(2)
	if !ok || w.Wins != 1 || w.TotalPoints != 121 || len(recs) != 2 {
		t.Errorf("team 2: %+v %+v", w, recs)
	}
}

func TestSeasonWinners_FailedHistoryExcluded(t *testing.T) {
	gw := seasonData()
	gw.fail = map[int]bool{1: true}
	svc := newTestService(gw, Options{})

	rep, err := svc.SeasonWinners(context.Background(), 9)
	if err != nil {
		t.Fatalf("SeasonWinners: %v", err)
	}
	if !reflect.DeepEqual(rep.MissingTeams, []int{1}) {
		t.Errorf("missing: %v", rep.MissingTeams)
	}
	if rep.Season.Awards[0].TeamID != 2 {
		t.Errorf("round 1 should go to team 2 without team 1's data: %+v", rep.Season.Awards[0])
	}
}

func TestSeasonWinners_PerCallTimeout(t *testing.T) {
	gw := seasonData()
	gw.stall = map[int]bool{3: true}
	svc := newTestService(gw, Options{CallTimeout: 30 * time.Millisecond})

	start := time.Now()
	rep, err := svc.SeasonWinners(context.Background(), 9)
	if err != nil {
		t.Fatalf("SeasonWinners: %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("stalled call was not cut off")
	}
	if !reflect.DeepEqual(rep.MissingTeams, []int{3}) {
		t.Errorf("missing: %v", rep.MissingTeams)
	}
	if len(rep.Season.Awards) != 2 {
		t.Errorf("other teams should still be compiled: %+v", rep.Season.Awards)
	}
}

func TestSeasonWinners_ConcurrencyBounded(t *testing.T) {
	gw := &fakeGateway{rounds: completed(1, 1), histories: map[int]*model.TeamHistory{}}
	for id := 1; id <= 12; id++ {
		gw.roster = append(gw.roster, model.Team{ID: id})
		gw.histories[id] = hist(id, rec(1, id, 0))
	}
	svc := newTestService(gw, Options{Concurrency: 3})

	if _, err := svc.SeasonWinners(context.Background(), 9); err != nil {
		t.Fatalf("SeasonWinners: %v", err)
	}
	// Roster and schedule run together before the history fan-out.
	if gw.maxInflight > 3 {
		t.Errorf("max in flight: got %d, want <= 3", gw.maxInflight)
	}
}

func TestSeasonWinners_InfersRoundsWhenScheduleFails(t *testing.T) {
	gw := seasonData()
	gw.rounds = nil
	gw.roundsErr = errors.New("bootstrap down")
	svc := newTestService(gw, Options{})

	rep, err := svc.SeasonWinners(context.Background(), 9)
	if err != nil {
		t.Fatalf("SeasonWinners: %v", err)
	}
	if !rep.RoundsInferred {
		t.Error("RoundsInferred should be set")
	}
	// Round 2 is the latest seen and treated as in play.
	if !reflect.DeepEqual(rep.Season.CompletedRounds, []int{1}) {
		t.Errorf("completed: %v", rep.Season.CompletedRounds)
	}
}

func TestSeasonWinners_SeededCoinTossIsStable(t *testing.T) {
	gw := &fakeGateway{
		roster: []model.Team{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "C"}},
		rounds: completed(1, 1),
		histories: map[int]*model.TeamHistory{
			1: hist(1, rec(1, 50, 0)),
			2: hist(2, rec(1, 50, 0)),
			3: hist(3, rec(1, 50, 0)),
		},
	}
	svc := newTestService(gw, Options{NewPicker: PickerForSeed(11)})

	first, err := svc.SeasonWinners(context.Background(), 9)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.SeasonWinners(context.Background(), 9)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first.Season.Awards, second.Season.Awards) {
		t.Errorf("awards differ: %+v vs %+v", first.Season.Awards, second.Season.Awards)
	}
}

// ---- CurrentRound ----

func TestCurrentRound(t *testing.T) {
	cases := []struct {
		name    string
		rounds  []model.Round
		want    int
		wantErr bool
	}{
		{"flagged current", []model.Round{{ID: 1, Finished: true}, {ID: 2, IsCurrent: true}, {ID: 3}}, 2, false},
		{"latest finished", []model.Round{{ID: 1, Finished: true}, {ID: 2, Finished: true}, {ID: 3}}, 2, false},
		{"preseason", []model.Round{{ID: 1}, {ID: 2}}, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(&fakeGateway{rounds: tc.rounds}, Options{})
			got, err := svc.CurrentRound(context.Background())
			if tc.wantErr {
				if !errors.Is(err, model.ErrNotFound) {
					t.Fatalf("err = %v, want ErrNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CurrentRound: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %d, want %d", got, tc.want)
			}
		})
	}
}
