package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aatrey56/fpl-league-hub/internal/results"
)

// Schema creates the archive tables. Safe to run repeatedly.
const Schema = `
CREATE TABLE IF NOT EXISTS compile_runs (
	run_id            UUID PRIMARY KEY,
	league_id         INTEGER NOT NULL,
	compiled_at       TIMESTAMPTZ NOT NULL,
	completed_rounds  INTEGER[] NOT NULL
);

CREATE TABLE IF NOT EXISTS round_awards (
	run_id      UUID NOT NULL REFERENCES compile_runs (run_id) ON DELETE CASCADE,
	gameweek    INTEGER NOT NULL,
	entry_id    INTEGER NOT NULL,
	entry_name  TEXT NOT NULL,
	net_points  INTEGER NOT NULL,
	via         TEXT NOT NULL,
	PRIMARY KEY (run_id, gameweek)
);

CREATE TABLE IF NOT EXISTS win_records (
	run_id         UUID NOT NULL REFERENCES compile_runs (run_id) ON DELETE CASCADE,
	entry_id       INTEGER NOT NULL,
	entry_name     TEXT NOT NULL,
	wins           INTEGER NOT NULL,
	total_points   INTEGER NOT NULL,
	bench_points   INTEGER NOT NULL,
	best_gameweek  INTEGER NOT NULL,
	best_points    INTEGER NOT NULL,
	PRIMARY KEY (run_id, entry_id)
);

CREATE TABLE IF NOT EXISTS tie_breaks (
	run_id             UUID NOT NULL REFERENCES compile_runs (run_id) ON DELETE CASCADE,
	gameweek           INTEGER NOT NULL,
	state              TEXT NOT NULL,
	tied_entries       INTEGER[] NOT NULL,
	winner_entry_id    INTEGER,
	decided_by         INTEGER,
	awarded_gameweeks  INTEGER[] NOT NULL,
	narrative          TEXT NOT NULL,
	PRIMARY KEY (run_id, gameweek)
);
`

// DB is the subset of *pgxpool.Pool the archive uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type Archive struct {
	db     DB
	logger *slog.Logger
	now    func() time.Time
}

func New(db DB, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archive{db: db, logger: logger, now: time.Now}
}

// EnsureSchema creates the archive tables if they are missing.
func (a *Archive) EnsureSchema(ctx context.Context) error {
	if _, err := a.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure archive schema: %w", err)
	}
	return nil
}

// Save writes one compile run in a single batch and returns its run id.
func (a *Archive) Save(ctx context.Context, leagueID int, season *results.Season) (uuid.UUID, error) {
	start := time.Now()
	rows := BuildRows(uuid.New(), leagueID, season, a.now().UTC())

	batch := &pgx.Batch{}
	rows.queue(batch)

	br := a.db.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return uuid.Nil, fmt.Errorf("archive run %s statement %d: %w", rows.Run.RunID, i, err)
		}
	}

	a.logger.Info("season archived",
		"run_id", rows.Run.RunID,
		"league_id", leagueID,
		"awards", len(rows.Awards),
		"tie_breaks", len(rows.TieBreaks),
		"duration", time.Since(start),
	)
	return rows.Run.RunID, nil
}
