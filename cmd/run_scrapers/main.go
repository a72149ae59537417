package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/amara/opportunity-finder/internal/db"
	"github.com/amara/opportunity-finder/internal/scrape"
)

// run_scrapers executes the scraping pipeline directly against the
// database, without going through the API. Intended for cron:
//
//	run_scrapers            run every scraper
//	run_scrapers all        same
//	run_scrapers grant      run just the grant scraper
func main() {
	selector := "all"
	if len(os.Args) > 1 {
		selector = os.Args[1]
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

	log.Printf("Starting scraper run: %s", selector)
	summary, err := orch.RunAll(ctx, selector)
	if err != nil {
		log.Fatalf("Scraper run failed: %v", err)
	}

	renderSummary(summary)

	if summary.AnyFailed() {
		os.Exit(1)
	}
}

func renderSummary(summary *scrape.RunSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Scraper", "Status", "Scraped", "Added", "Updated", "Rejected", "Duration"})

	for _, typ := range scrape.Types {
		for name, r := range summary.Results {
			if r.Type != typ {
				continue
			}
			status := "success"
			if !r.Success {
				status = "FAILED: " + r.Error
			}
			t.AppendRow(table.Row{
				name, status,
				r.Stats.Scraped, r.Stats.Added, r.Stats.Updated, r.Stats.Rejected,
				r.Duration.Round(time.Millisecond).String(),
			})
		}
	}

	t.AppendFooter(table.Row{
		"total", fmt.Sprintf("%.1fs", summary.ExecutionSeconds),
		summary.TotalScraped, summary.TotalAdded, summary.TotalUpdated, "", "",
	})
	t.Render()
}
