package main

import (
	"context"
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/amara/opportunity-finder/internal/api"
	"github.com/amara/opportunity-finder/internal/db"
	"github.com/amara/opportunity-finder/internal/scrape"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	reg, err := scrape.LoadRegistry("")
	if err != nil {
		log.Fatalf("Failed to load source registry: %v", err)
	}

	store := db.NewStore(pool)
	pipeline := scrape.NewPipeline(store, store, nil, nil)
	orch := scrape.NewOrchestrator(pipeline, scrape.NewScrapers(reg))

	srv := api.NewServer(pool, orch)
	log.Printf("Server starting on port %s...", port)
	if err := srv.Start(port); err != nil {
		log.Fatal(err)
	}
}
