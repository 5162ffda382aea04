package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/duelcraft/battle-server-go/internal/card"
	"github.com/duelcraft/battle-server-go/internal/config"
	"github.com/duelcraft/battle-server-go/internal/repository"
	"go.uber.org/zap"
)

// Imports the YAML card seed into the PostgreSQL catalog table.
//
//	go run ./scripts/import_cards.go -cards config/cards.yaml
func main() {
	cardsPath := flag.String("cards", "config/cards.yaml", "path to the YAML card seed")
	configPath := flag.String("config", "", "optional server configuration file")
	flag.Parse()

	ctx := context.Background()

	absPath, err := filepath.Abs(*cardsPath)
	if err != nil {
		log.Fatalf("Failed to get absolute path: %v", err)
	}

	fmt.Println("=== Battle Card Import ===")
	fmt.Printf("Seed file: %s\n", absPath)

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		log.Fatalf("Seed file not found: %s", absPath)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}

	logger := zap.NewNop()
	catalog, err := card.LoadFile(absPath, logger)
	if err != nil {
		log.Fatalf("Failed to read seed: %v", err)
	}
	defs := catalog.Definitions()
	fmt.Printf("Found %d cards in seed\n", len(defs))

	fmt.Printf("Connecting to database...\n")
	db, err := repository.NewDB(ctx, cfg.Database, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	fmt.Println("✓ Database connection established")

	repo := repository.NewCardRepository(db, logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to prepare schema: %v", err)
	}

	startTime := time.Now()
	imported, failed := 0, 0
	for _, def := range defs {
		if err := repo.Upsert(ctx, def); err != nil {
			log.Printf("Failed to import card %d (%s): %v", def.ID, def.Name, err)
			failed++
			continue
		}
		imported++
	}

	fmt.Println("\n=== Import Complete ===")
	fmt.Printf("✓ Successfully imported: %d cards\n", imported)
	if failed > 0 {
		fmt.Printf("✗ Failed to import: %d cards\n", failed)
	}
	fmt.Printf("Time taken: %s\n", time.Since(startTime))

	var finalCount int64
	if err := db.QueryRow(ctx, "SELECT COUNT(*) FROM battle_cards").Scan(&finalCount); err == nil {
		fmt.Printf("\nTotal cards in database: %d\n", finalCount)
	}
}
