// Command seed creates the snapshot table in Postgres and imports snapshot
// files saved by the file store, so a shop can move from SNAPSHOT_DIR to
// DATABASE_URL without losing saved sessions.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sureshodi/anandhaa/internal/snapshot"
)

func main() {
	_ = godotenv.Load()

	dir := flag.String("dir", "", "Snapshot directory to import (default SNAPSHOT_DIR)")
	schemaOnly := flag.Bool("schema-only", false, "Create the table and exit")
	flag.Parse()

	if *dir == "" {
		*dir = os.Getenv("SNAPSHOT_DIR")
	}
	if *dir == "" {
		*dir = "snapshots"
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	pg := snapshot.NewPGStore(pool)
	if err := pg.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}
	if *schemaOnly {
		log.Println("Schema ready")
		return
	}

	files, err := snapshot.NewFileStore(*dir)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *dir, err)
	}
	n, err := importSnapshots(ctx, files, pg)
	if err != nil {
		log.Fatalf("Import failed after %d snapshots: %v", n, err)
	}
	log.Printf("Imported %d snapshots from %s", n, *dir)
}

// importSnapshots copies every snapshot in src to dst, overwriting
// same-named entries.
func importSnapshots(ctx context.Context, src, dst snapshot.Store) (int, error) {
	entries, err := src.List(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.Error != "" {
			log.Printf("Skipping %s: %s", e.Name, e.Error)
			continue
		}
		snap, err := src.Load(ctx, e.Name)
		if err != nil {
			log.Printf("Skipping %s: %v", e.Name, err)
			continue
		}
		if err := dst.Save(ctx, e.Name, snap); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
