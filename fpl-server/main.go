package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aatrey56/fpl-league-hub/internal/catalog"
	"github.com/aatrey56/fpl-league-hub/internal/config"
	"github.com/aatrey56/fpl-league-hub/internal/fetch"
	"github.com/aatrey56/fpl-league-hub/internal/league"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to YAML config (defaults only when empty)")
		addr        = flag.String("addr", "", "HTTP listen address (overrides config)")
		mcpPath     = flag.String("path", "", "HTTP path for MCP endpoint (overrides config)")
		rawRoot     = flag.String("raw-root", "", "root directory for raw JSON (overrides config)")
		leagueID    = flag.Int("league", 0, "default classic league id (overrides config)")
		live        = flag.Bool("live", false, "bypass the raw cache entirely")
		requireAuth = flag.Bool("require-auth", true, "require API key auth via server.api_key or FPL_HUB_API_KEY")
		authHeader  = flag.String("auth-header", "X-API-Key", "HTTP header to read API key from")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadAndValidate(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *mcpPath != "" {
		cfg.Server.MCPPath = *mcpPath
	}
	if *rawRoot != "" {
		cfg.Upstream.RawRoot = *rawRoot
	}
	if *leagueID != 0 {
		cfg.League.ID = *leagueID
	}
	if *live {
		cfg.Upstream.Live = true
	}

	logger := cfg.Log.NewLogger(os.Stderr)

	apiKey := strings.TrimSpace(cfg.Server.APIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("FPL_HUB_API_KEY"))
	}
	if *requireAuth && apiKey == "" {
		log.Fatal("FPL_HUB_API_KEY is required (set env var, server.api_key, or run with --require-auth=false)")
	}

	client := fetch.FromConfig(cfg.Upstream, logger)
	cat := catalog.New(client.Catalog,
		catalog.WithTTL(cfg.Catalog.RefreshInterval),
		catalog.WithLoadTimeout(cfg.Fanout.CallTimeout),
		catalog.WithLogger(logger),
	)
	svc := league.NewService(client, cat, league.Options{
		Concurrency: cfg.Fanout.Concurrency,
		CallTimeout: cfg.Fanout.CallTimeout,
		NewPicker:   league.PickerForSeed(cfg.TieBreak.Seed),
		Logger:      logger,
	})

	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "fpl-league-hub",
			Version: "0.1.0",
		},
		nil,
	)
	registry := registerTools(server, &tools{hub: svc, leagueID: cfg.League.ID})

	handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           newRouter(cfg.Server.MCPPath, apiKey, *authHeader, registry, handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", "err", err)
		}
	}()

	logger.Info("MCP HTTP server listening",
		"addr", cfg.Server.Addr,
		"path", cfg.Server.MCPPath,
		"league", cfg.League.ID,
		"live", cfg.Upstream.Live,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func registerTools(server *mcp.Server, t *tools) []toolInfo {
	registry := make([]toolInfo, 0, 8)

	addTool(server, &registry, &mcp.Tool{
		Name:        "player_points",
		Description: "Reconstructed fantasy points per player for a gameweek, with the scoring breakdown",
	}, jsonTool(t.buildPlayerPoints))

	addTool(server, &registry, &mcp.Tool{
		Name:        "gameweek_scores",
		Description: "Live squad valuation for every team in the league for a gameweek",
	}, jsonTool(t.buildGameweekScores))

	addTool(server, &registry, &mcp.Tool{
		Name:        "gameweek_winners",
		Description: "Gameweek win counts and per-gameweek awards for the league",
	}, jsonTool(t.buildGameweekWinners))

	addTool(server, &registry, &mcp.Tool{
		Name:        "tie_breaks",
		Description: "Tie resolutions with narratives, plus ties still awaiting a gameweek",
	}, jsonTool(t.buildTieBreaks))

	addTool(server, &registry, &mcp.Tool{
		Name:        "team_season",
		Description: "One team's win record, gameweek history and tie involvement",
	}, jsonTool(t.buildTeamSeason))

	return registry
}
