// Command schema-inventory lists the field types found in the raw upstream
// cache and flags any field the decoders rely on that has gone missing.
package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/aatrey56/fpl-league-hub/internal/store"
)

func main() {
	var (
		rawRoot  = flag.String("raw-root", "data/raw", "root directory for raw JSON")
		outPath  = flag.String("out", "data/derived/schema_inventory.json", "output path")
		maxFiles = flag.Int("max-files", 0, "max files per endpoint (0 = no limit)")
		strict   = flag.Bool("strict", false, "exit non-zero when a required field is missing")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	inv := Inventory{
		GeneratedAtUTC: time.Now().UTC().Format(time.RFC3339),
		RawRoot:        *rawRoot,
		Endpoints:      make([]Endpoint, 0, len(cachedEndpoints)),
	}
	drift := false
	for _, fam := range cachedEndpoints {
		ep, err := scanEndpoint(*rawRoot, fam, *maxFiles)
		if err != nil {
			logger.Error("scan failed", "endpoint", fam.Name, "err", err)
			continue
		}
		if ep.FilesScanned == 0 {
			logger.Warn("no cached files", "endpoint", fam.Name, "glob", fam.Glob)
		}
		if len(ep.Missing) > 0 {
			drift = true
			logger.Warn("required fields missing", "endpoint", fam.Name, "paths", ep.Missing)
		}
		inv.Endpoints = append(inv.Endpoints, ep)
	}

	if err := store.WriteJSONFile(*outPath, inv); err != nil {
		logger.Error("write inventory", "err", err)
		os.Exit(1)
	}
	logger.Info("wrote inventory", "path", *outPath, "endpoints", len(inv.Endpoints))
	if drift && *strict {
		os.Exit(2)
	}
}
