// Package league orchestrates upstream fetches for one request and feeds
// the scoring, valuation and results packages.
package league

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aatrey56/fpl-league-hub/internal/model"
	"github.com/aatrey56/fpl-league-hub/internal/scoring"
	"github.com/aatrey56/fpl-league-hub/internal/tiebreak"
)

// ErrConfiguration is returned without retry when a request cannot be
// served with the given settings.
var ErrConfiguration = errors.New("configuration error")

// Gateway is the upstream surface the service needs.
type Gateway interface {
	Fixtures(ctx context.Context, round int) ([]model.Fixture, error)
	LiveStats(ctx context.Context, round int) (map[int]model.LivePlayerStat, error)
	Rounds(ctx context.Context) ([]model.Round, error)
	Squad(ctx context.Context, teamID, round int) (*model.Squad, error)
	TeamHistory(ctx context.Context, teamID int) (*model.TeamHistory, error)
	StandingsRoster(ctx context.Context, leagueID int) ([]model.Team, error)
}

// CatalogSource hands out the shared catalog snapshot.
type CatalogSource interface {
	Get(ctx context.Context) (*model.Catalog, error)
}

type Options struct {
	Concurrency int
	CallTimeout time.Duration
	Rules       *scoring.Rules
	// NewPicker is called once per season compile.
	NewPicker func() tiebreak.Picker
	Logger    *slog.Logger
}

type Service struct {
	gw      Gateway
	catalog CatalogSource
	engine  *scoring.Engine
	opts    Options
	logger  *slog.Logger
}

func NewService(gw Gateway, catalog CatalogSource, opts Options) *Service {
	if opts.Concurrency < 1 {
		opts.Concurrency = 8
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 10 * time.Second
	}
	if opts.NewPicker == nil {
		opts.NewPicker = tiebreak.NewPicker
	}
	rules := scoring.DefaultRules()
	if opts.Rules != nil {
		rules = *opts.Rules
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		gw:      gw,
		catalog: catalog,
		engine:  scoring.NewEngine(rules),
		opts:    opts,
		logger:  logger,
	}
}

// PickerForSeed returns a picker factory: seeded per run when seed is
// non-zero, runtime-random otherwise.
func PickerForSeed(seed uint64) func() tiebreak.Picker {
	if seed == 0 {
		return tiebreak.NewPicker
	}
	return func() tiebreak.Picker { return tiebreak.NewSeededPicker(seed) }
}

// call runs fn under its own timeout.
func call[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(cctx)
}

// CurrentRound returns the round flagged current upstream, falling back to
// the latest finished one.
func (s *Service) CurrentRound(ctx context.Context) (int, error) {
	rounds, err := call(ctx, s.opts.CallTimeout, s.gw.Rounds)
	if err != nil {
		return 0, fmt.Errorf("schedule: %w", err)
	}
	latest := 0
	for _, r := range rounds {
		if r.IsCurrent {
			return r.ID, nil
		}
		if r.Finished && r.ID > latest {
			latest = r.ID
		}
	}
	if latest == 0 {
		return 0, fmt.Errorf("current gameweek: %w", model.ErrNotFound)
	}
	return latest, nil
}
