package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/samirrijal/multimap/internal/adapters/postgres"
	"github.com/samirrijal/multimap/internal/core/domain"
	"github.com/samirrijal/multimap/internal/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|seed FILE>")
	}

	cfg, err := config.Load("multimap-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		runMigrations(ctx, db)
	case "seed":
		if len(os.Args) < 3 {
			log.Fatal("usage: migrate seed FILE")
		}
		seedRenditions(ctx, db, os.Args[2])
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func runMigrations(ctx context.Context, db *postgres.DB) {
	files, err := filepath.Glob("migrations/*.sql")
	if err != nil {
		log.Fatalf("list migrations: %v", err)
	}
	sort.Strings(files)

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}

		if _, err := db.Pool.Exec(ctx, string(data)); err != nil {
			log.Fatalf("exec %s: %v", f, err)
		}

		fmt.Printf("OK  %s\n", f)
	}

	log.Println("all migrations applied")
}

// seedRenditions loads a JSON array of renditions into the media library.
func seedRenditions(ctx context.Context, db *postgres.DB, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}

	var rows []domain.Rendition
	if err := json.Unmarshal(data, &rows); err != nil {
		log.Fatalf("parse %s: %v", path, err)
	}

	repo := postgres.NewMediaRepo(db)
	for i := range rows {
		if rows[i].Size == "" {
			rows[i].Size = domain.RenditionMedium
		}
		if err := repo.UpsertRendition(ctx, &rows[i]); err != nil {
			log.Fatalf("upsert %d/%s: %v", rows[i].AttachmentID, rows[i].Size, err)
		}
	}

	log.Printf("seeded %d renditions", len(rows))
}
