package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aatrey56/fpl-league-hub/internal/archive"
	"github.com/aatrey56/fpl-league-hub/internal/catalog"
	"github.com/aatrey56/fpl-league-hub/internal/config"
	"github.com/aatrey56/fpl-league-hub/internal/fetch"
	"github.com/aatrey56/fpl-league-hub/internal/league"
	"github.com/aatrey56/fpl-league-hub/internal/model"
	"github.com/aatrey56/fpl-league-hub/internal/points"
	"github.com/aatrey56/fpl-league-hub/internal/store"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to YAML config (defaults only when empty)")
		leagueID    = flag.Int("league", 0, "classic league id (overrides config)")
		gwMin       = flag.Int("gw-min", 1, "minimum gameweek to value (default 1)")
		gwMax       = flag.Int("gw-max", 0, "maximum gameweek to value (0 = current)")
		rawRoot     = flag.String("raw-root", "", "root directory for raw JSON (overrides config)")
		derivedRoot = flag.String("derived-root", "", "root directory for derived JSON (overrides config)")
		sleepMS     = flag.Int("sleep-ms", -1, "sleep between requests in ms (-1 = config)")
		refresh     = flag.Bool("refresh", false, "refetch every payload even when cached")
		live        = flag.Bool("live", false, "disable cache reads and raw writes")
		seed        = flag.Uint64("seed", 0, "coin-toss seed (overrides config when non-zero)")
		archiveRun  = flag.Bool("archive", false, "archive the compiled season to PostgreSQL")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadAndValidate(*configPath)
		must(err)
		cfg = loaded
	}
	if *leagueID != 0 {
		cfg.League.ID = *leagueID
	}
	if *rawRoot != "" {
		cfg.Upstream.RawRoot = *rawRoot
	}
	if *derivedRoot != "" {
		cfg.DerivedRoot = *derivedRoot
	}
	if *sleepMS >= 0 {
		cfg.Upstream.Sleep = time.Duration(*sleepMS) * time.Millisecond
	}
	if *live {
		cfg.Upstream.Live = true
	}
	if *seed != 0 {
		cfg.TieBreak.Seed = *seed
	}
	if *archiveRun {
		cfg.Archive.Enabled = true
		must(cfg.Validate())
	}
	if cfg.League.ID == 0 {
		log.Fatal("league id is required (--league or league.id in config)")
	}

	logger := cfg.Log.NewLogger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := fetch.FromConfig(cfg.Upstream, logger)
	client.Refresh = *refresh
	cat := catalog.New(client.Catalog,
		catalog.WithLoadTimeout(cfg.Fanout.CallTimeout),
		catalog.WithLogger(logger),
	)
	svc := league.NewService(client, cat, league.Options{
		Concurrency: cfg.Fanout.Concurrency,
		CallTimeout: cfg.Fanout.CallTimeout,
		NewPicker:   league.PickerForSeed(cfg.TieBreak.Seed),
		Logger:      logger,
	})

	minGW := *gwMin
	if minGW < 1 {
		minGW = 1
	}
	maxGW := *gwMax
	if maxGW == 0 {
		current, err := svc.CurrentRound(ctx)
		must(err)
		maxGW = current
	}

	for gw := minGW; gw <= maxGW; gw++ {
		logger.Info("valuing gameweek", "gw", gw)
		must(buildRound(ctx, svc, cfg.DerivedRoot, cfg.League.ID, gw))
	}

	report, err := svc.SeasonWinners(ctx, cfg.League.ID)
	must(err)
	must(writeJSON(cfg.DerivedRoot, fmt.Sprintf("league/%d/season.json", cfg.League.ID), report))
	logger.Info("season compiled",
		"league", cfg.League.ID,
		"completed", len(report.Season.CompletedRounds),
		"awards", len(report.Season.Awards),
		"tie_breaks", len(report.Season.TieBreaks),
		"pending", len(report.Season.Unresolved),
		"missing_teams", len(report.MissingTeams),
	)

	if cfg.Archive.Enabled {
		must(archiveSeason(ctx, cfg.Archive, logger, cfg.League.ID, report))
	}

	logger.Info("done")
}

// buildRound writes the player points table, the league round report and
// one points result per team. The round is fetched once and the points
// table comes from the report.
func buildRound(ctx context.Context, svc *league.Service, derivedRoot string, leagueID, gw int) error {
	report, err := svc.GameweekScores(ctx, leagueID, gw)
	if err != nil {
		return err
	}
	if err := writeJSON(derivedRoot, fmt.Sprintf("points/gw/%d/players.json", gw), report.Points); err != nil {
		return err
	}
	if err := writeJSON(derivedRoot, fmt.Sprintf("league/%d/gw/%d/scores.json", leagueID, gw), report); err != nil {
		return err
	}
	for _, tr := range report.Teams {
		outPath := filepath.Join(derivedRoot, fmt.Sprintf("points/%d/entry/%d/gw/%d.json", leagueID, tr.Team.ID, gw))
		if err := points.WriteResult(outPath, tr.Result); err != nil {
			return err
		}
	}
	return nil
}

func archiveSeason(ctx context.Context, cfg config.ArchiveConfig, logger *slog.Logger, leagueID int, report *league.SeasonReport) error {
	pool, err := archive.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	arc := archive.New(pool, logger)
	if err := arc.EnsureSchema(ctx); err != nil {
		return err
	}
	runID, err := arc.Save(ctx, leagueID, report.Season)
	if err != nil {
		return err
	}
	logger.Info("season archived", "run_id", runID)
	return nil
}

func writeJSON(derivedRoot, rel string, v any) error {
	return store.WriteJSONFile(filepath.Join(derivedRoot, rel), v)
}

func must(err error) {
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			log.Fatalf("%v (run without --live, or with --refresh, to fetch it)", err)
		}
		log.Fatal(err)
	}
}
