// Command import loads a feast JSON file into the SQLite database.
//
// Usage:
//
//	go run ./cmd/import -json data/synaxarium.json -db data/feasts.db
//
// This tool:
// 1. Parses the JSON file and resolves every month name
// 2. Creates/opens the SQLite database and runs migrations
// 3. Optionally seeds the built-in feast tables
// 4. Upserts all feasts in a single transaction
// 5. Checks that the stored tables still build a valid catalog
//
// The import is idempotent: rows are keyed on (category, month, day, name),
// so running it twice only refreshes positions.
//
// File format:
//
//	{
//	  "metadata": {"source": "...", "generated_at": "..."},
//	  "feasts": [
//	    {"category": "saint", "month": "መስከረም", "day": 4, "name": "..."},
//	    {"category": "monthly", "day": 16, "name": "ኪዳነ ምሕረት"}
//	  ]
//	}
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/zapponejosh/feast-calendar-api/internal/calendar"
	"github.com/zapponejosh/feast-calendar-api/internal/database"
)

func main() {
	jsonPath := flag.String("json", "data/feasts.json", "Path to feast JSON file")
	dbPath := flag.String("db", "data/feasts.db", "Path to SQLite database")
	seed := flag.Bool("seed", true, "Seed the built-in feast tables before importing")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	if err := run(*jsonPath, *dbPath, *seed, logger); err != nil {
		logger.Error("import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("import complete")
}

func run(jsonPath, dbPath string, seed bool, logger *slog.Logger) error {
	ctx := context.Background()
	startTime := time.Now()

	// =========================================================================
	// Step 1: Read and parse JSON
	// =========================================================================
	logger.Info("reading JSON file", slog.String("path", jsonPath))

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("read JSON file: %w", err)
	}

	feasts, importData, err := parseFeasts(data)
	if err != nil {
		return err
	}

	logger.Info("parsed JSON",
		slog.Int("feasts", len(feasts)),
		slog.String("source", importData.Metadata.Source),
		slog.String("generated_at", importData.Metadata.GeneratedAt),
	)

	// =========================================================================
	// Step 2: Open database and run migrations
	// =========================================================================
	logger.Info("opening database", slog.String("path", dbPath))

	db, err := database.Open(database.DefaultConfig(dbPath), logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	migrated, err := db.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("migrations complete", slog.Int("applied", migrated))

	if seed {
		n, err := db.SeedFeasts(ctx, calendar.DefaultFeasts())
		if err != nil {
			return fmt.Errorf("seed built-in feasts: %w", err)
		}
		logger.Info("built-in feasts seeded", slog.Int("count", n))
	}

	// =========================================================================
	// Step 3: Import in a transaction
	// =========================================================================
	logger.Info("starting import")

	err = db.WithTx(ctx, func(tx *database.Tx) error {
		return importFeasts(ctx, tx, feasts, logger)
	})
	if err != nil {
		return fmt.Errorf("import data: %w", err)
	}

	// =========================================================================
	// Step 4: Verify import
	// =========================================================================
	if _, err := calendar.LoadCatalog(ctx, db); err != nil {
		return fmt.Errorf("verify catalog: %w", err)
	}

	stats, err := db.GetFeastStats(ctx)
	if err != nil {
		return fmt.Errorf("count feasts: %w", err)
	}

	elapsed := time.Since(startTime)

	logger.Info("import verified",
		slog.Int("total", stats.Total),
		slog.Duration("elapsed", elapsed),
	)

	fmt.Println()
	fmt.Println("=== Import Summary ===")
	fmt.Printf("Rows in file:        %d\n", len(feasts))
	for _, c := range database.ValidFeastCategories() {
		fmt.Printf("%-20s %d\n", string(c)+":", stats.ByCategory[c])
	}
	fmt.Printf("Total stored:        %d\n", stats.Total)
	fmt.Printf("Time elapsed:        %v\n", elapsed.Round(time.Millisecond))

	return nil
}

// parseFeasts decodes the file and converts every row. All bad rows are
// reported together.
func parseFeasts(data []byte) ([]database.Feast, *database.ImportData, error) {
	var importData database.ImportData
	if err := json.Unmarshal(data, &importData); err != nil {
		return nil, nil, fmt.Errorf("parse JSON: %w", err)
	}
	if len(importData.Feasts) == 0 {
		return nil, nil, errors.New("file contains no feasts")
	}

	var errs []error
	feasts := make([]database.Feast, 0, len(importData.Feasts))
	for i, in := range importData.Feasts {
		f, err := calendar.FeastFromImport(in)
		if err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", i+1, err))
			continue
		}
		feasts = append(feasts, f)
	}
	if len(errs) > 0 {
		return nil, nil, errors.Join(errs...)
	}

	calendar.AssignPositions(feasts)
	return feasts, &importData, nil
}

func importFeasts(ctx context.Context, tx *database.Tx, feasts []database.Feast, logger *slog.Logger) error {
	for i := range feasts {
		if err := tx.UpsertFeast(ctx, &feasts[i]); err != nil {
			return fmt.Errorf("feast %d (%s): %w", i+1, feasts[i].Name, err)
		}

		if (i+1)%100 == 0 {
			logger.Debug("import progress",
				slog.Int("feast", i+1),
				slog.Int("total", len(feasts)),
			)
		}
	}
	return nil
}
