package league

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/aatrey56/fpl-league-hub/internal/model"
	"github.com/aatrey56/fpl-league-hub/internal/scoring"
)

// PlayerLine is one player's reconstructed score with catalog context.
type PlayerLine struct {
	scoring.PlayerScore
	Name   string `json:"name"`
	ClubID int    `json:"club_id"`
}

// RoundPoints is the scoring output for one round.
type RoundPoints struct {
	Round   int                         `json:"gameweek"`
	Scores  map[int]scoring.PlayerScore `json:"-"`
	Catalog *model.Catalog              `json:"-"`
	Players []PlayerLine                `json:"players"`
	Missing []string                    `json:"missing_sources,omitempty"`
}

// Points returns the points map in the shape squad valuation wants.
func (rp *RoundPoints) Points() map[int]int {
	out := make(map[int]int, len(rp.Scores))
	for id, s := range rp.Scores {
		out[id] = s.Total
	}
	return out
}

// PlayerPoints scores every player for a round. Failed sources are logged
// and treated as empty.
func (s *Service) PlayerPoints(ctx context.Context, round int) (*RoundPoints, error) {
	if round < 1 {
		return nil, fmt.Errorf("%w: gameweek must be >= 1, got %d", ErrConfiguration, round)
	}

	var (
		fixtures []model.Fixture
		live     map[int]model.LivePlayerStat
		cat      *model.Catalog
		mu       sync.Mutex
		missing  []string
	)
	absent := func(source string, err error) {
		s.logger.Warn("upstream source unavailable", "source", source, "gameweek", round, "err", err)
		mu.Lock()
		missing = append(missing, source)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := call(gctx, s.opts.CallTimeout, func(c context.Context) ([]model.Fixture, error) {
			return s.gw.Fixtures(c, round)
		})
		if err != nil {
			absent("fixtures", err)
			return nil
		}
		fixtures = v
		return nil
	})
	g.Go(func() error {
		v, err := call(gctx, s.opts.CallTimeout, func(c context.Context) (map[int]model.LivePlayerStat, error) {
			return s.gw.LiveStats(c, round)
		})
		if err != nil {
			absent("live", err)
			return nil
		}
		live = v
		return nil
	})
	g.Go(func() error {
		v, err := call(gctx, s.opts.CallTimeout, s.catalog.Get)
		if err != nil {
			absent("catalog", err)
			return nil
		}
		cat = v
		return nil
	})
	_ = g.Wait()

	scores := s.engine.Score(fixtures, live, cat.Positions())
	rp := &RoundPoints{
		Round:   round,
		Scores:  scores,
		Catalog: cat,
		Players: make([]PlayerLine, 0, len(scores)),
		Missing: missing,
	}
	sort.Strings(rp.Missing)
	for id, sc := range scores {
		line := PlayerLine{PlayerScore: sc}
		if p, ok := cat.Player(id); ok {
			line.Name = p.DisplayName()
			line.ClubID = p.ClubID
		}
		rp.Players = append(rp.Players, line)
	}
	sort.Slice(rp.Players, func(i, j int) bool {
		a, b := rp.Players[i], rp.Players[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.Element < b.Element
	})
	return rp, nil
}
