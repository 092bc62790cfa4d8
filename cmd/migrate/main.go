// Command migrate loads the local JSON datasets into PostgreSQL.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/nndrao/stomp-server/internal/adapter/localfile"
	"github.com/nndrao/stomp-server/internal/adapter/postgres"
	"github.com/nndrao/stomp-server/internal/domain"
	"github.com/nndrao/stomp-server/internal/platform/logging"
)

func main() {
	var (
		databaseURL = flag.String("database", os.Getenv("DATABASE_URL"), "PostgreSQL URL (or set DATABASE_URL env)")
		dataDir     = flag.String("dir", "data", "Directory holding positions.json and trades.json")
		upsert      = flag.Bool("upsert", false, "Upsert into existing rows instead of replacing each dataset")
		verbose     = flag.Bool("verbose", false, "Verbose logging")
	)
	flag.Parse()

	if *databaseURL == "" {
		log.Fatal("Database URL required (--database or DATABASE_URL env)")
	}

	level := "info"
	if *verbose {
		level = "debug"
	}
	logging.InitLogger(level, "text")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.Connect(ctx, *databaseURL, nil)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	files := localfile.NewStore(*dataDir)
	store := postgres.NewRecordStore(pool)

	for _, kind := range domain.Kinds {
		if err := migrateKind(ctx, files, store, kind, *upsert); err != nil {
			log.Fatalf("Migration of %s failed: %v", kind, err)
		}
	}

	slog.Info("Migration complete")
}

func migrateKind(ctx context.Context, files *localfile.Store, store *postgres.RecordStore, kind domain.Kind, upsert bool) error {
	start := time.Now()

	records, err := files.Read(kind)
	if err != nil {
		return err
	}
	slog.Info("Loaded local records", "kind", kind, "path", files.Path(kind), "records", len(records))

	var written int64
	if upsert {
		written, err = store.Upsert(ctx, kind, records)
	} else {
		written, err = store.Replace(ctx, kind, records)
	}
	if err != nil {
		return err
	}

	total, err := store.Count(ctx, kind)
	if err != nil {
		return err
	}

	slog.Info("Migrated records",
		"kind", kind,
		"written", written,
		"total", total,
		"upsert", upsert,
		"duration", time.Since(start),
	)
	return nil
}
