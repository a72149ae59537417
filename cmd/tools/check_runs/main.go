package main

import (
	"context"
	"log"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/amara/opportunity-finder/internal/db"
)

func main() {
	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	runs, err := db.NewStore(pool).ListRuns(ctx, 15)
	if err != nil {
		log.Fatal(err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Source", "Type", "Status", "Scraped", "Added", "Updated", "Duration", "Started At"})

	for _, r := range runs {
		duration := "Running..."
		if r.CompletedAt != nil {
			duration = r.CompletedAt.Sub(r.StartedAt).Round(time.Second).String()
		}

		status := r.Status
		if r.ErrorMessage != nil && *r.ErrorMessage != "" {
			status += ": " + *r.ErrorMessage
		}

		t.AppendRow(table.Row{
			r.SourceName, r.ScraperType, status,
			r.ItemsScraped, r.ItemsAdded, r.ItemsUpdated,
			duration, r.StartedAt.Format("2006-01-02 15:04:05"),
		})
	}
	t.Render()
}
