package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/pantryshare/backend/config"
	"github.com/pantryshare/backend/internal/database"
	"github.com/pantryshare/backend/internal/service"
)

// Loads a name,unit CSV dataset into the ingredient catalog. Reruns are
// safe: rows that already exist are skipped.
func main() {
	path := flag.String("file", "data/ingredients.csv", "path to the ingredients CSV file")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *path, err)
	}
	defer func() { _ = f.Close() }()

	catalog := service.NewCatalogService(db)
	created, err := catalog.ImportIngredientsCSV(context.Background(), f)
	if err != nil {
		log.Fatalf("Import failed after %d rows: %v", created, err)
	}
	log.Printf("Loaded %d ingredients from %s", created, *path)
}
