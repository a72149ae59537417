package scrape

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// SaveOutcome classifies what SaveCandidate did with one candidate.
type SaveOutcome int

const (
	SaveAdded SaveOutcome = iota
	SaveUpdated
	SaveRejected
	SaveFailed
)

// Pipeline wires candidates through validation into the store. One
// pipeline is shared by all scrapers in a run; it owns no per-run state.
type Pipeline struct {
	Store     OpportunityStore
	Runs      RunLogStore
	Fetcher   Fetcher
	Validator *Validator

	// BeforeSave, when set, may enrich a candidate before validation.
	// Scrapers that can recover missing fields from secondary documents
	// hook in here.
	BeforeSave func(ctx context.Context, c *Candidate)
}

func NewPipeline(store OpportunityStore, runs RunLogStore, fetcher Fetcher, validator *Validator) *Pipeline {
	if fetcher == nil {
		fetcher = NewHTTPFetcher()
	}
	if validator == nil {
		validator = NewValidator(NewHTTPFetcher())
	}
	return &Pipeline{Store: store, Runs: runs, Fetcher: fetcher, Validator: validator}
}

// SaveCandidate runs the quality gate and upserts the candidate on pass.
// A repository error is a per-item failure: logged, counted as nothing,
// never fatal to the run.
func (p *Pipeline) SaveCandidate(ctx context.Context, c Candidate) SaveOutcome {
	if p.BeforeSave != nil {
		p.BeforeSave(ctx, &c)
	}
	c.Title = CleanText(c.Title)
	c.Organization = CleanText(c.Organization)
	c.Location = CleanText(c.Location)
	c.Country = CleanText(c.Country)
	c.ApplicationURL = CanonicalizeURL(strings.TrimSpace(c.ApplicationURL))
	c.SourceURL = CanonicalizeURL(strings.TrimSpace(c.SourceURL))

	result := p.Validator.Validate(ctx, c)
	if !result.Valid {
		log.Printf("[%s] Rejected %q: %s", c.Type, c.Title, strings.Join(result.Errors, "; "))
		return SaveRejected
	}

	outcome, err := p.Store.Upsert(ctx, c.Record())
	if err != nil {
		log.Printf("[%s] Failed to save %q: %v", c.Type, c.Title, err)
		return SaveFailed
	}
	if outcome == UpsertCreated {
		return SaveAdded
	}
	return SaveUpdated
}

// apply folds one save outcome into the run counters. Failed items count
// toward nothing: items_scraped reflects only successfully processed
// items, and a rejection is a processed item.
func (s *RunStats) apply(outcome SaveOutcome) {
	switch outcome {
	case SaveAdded:
		s.Scraped++
		s.Added++
	case SaveUpdated:
		s.Scraped++
		s.Updated++
	case SaveRejected:
		s.Scraped++
		s.Rejected++
	}
}

// RunResult is the uniform outcome RunScraper reports for one scraper.
type RunResult struct {
	Scraper  string        `json:"scraper"`
	Type     Type          `json:"type"`
	Success  bool          `json:"success"`
	Stats    RunStats      `json:"stats"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// RunScraper executes one scraper inside the uniform run contract: a run
// record is opened before Scrape and completed exactly once with a
// terminal status, even if Scrape returns an error or panics.
func RunScraper(ctx context.Context, s Scraper, p *Pipeline) RunResult {
	start := time.Now()

	var runID string
	if p.Runs != nil {
		id, err := p.Runs.StartRun(ctx, s.Name(), string(s.Type()), start)
		if err != nil {
			log.Printf("[%s] Failed to create run record: %v", s.Type(), err)
		} else {
			runID = id
		}
	}

	log.Printf("[%s] Starting scraper: %s", s.Type(), s.Name())
	stats, err := safeScrape(ctx, s, p)
	duration := time.Since(start)

	result := RunResult{
		Scraper:  s.Name(),
		Type:     s.Type(),
		Stats:    stats,
		Duration: duration,
	}

	completion := RunCompletion{
		ItemsScraped:     stats.Scraped,
		ItemsAdded:       stats.Added,
		ItemsUpdated:     stats.Updated,
		ExecutionSeconds: duration.Seconds(),
	}

	if err != nil {
		result.Success = false
		result.Error = err.Error()
		completion.Status = "failed"
		completion.ErrorMessage = err.Error()
		log.Printf("[%s] Scraper failed after %s: %v", s.Type(), duration.Round(time.Millisecond), err)
	} else {
		result.Success = true
		completion.Status = "success"
		log.Printf("[%s] Scraper finished in %s: %d scraped, %d added, %d updated, %d rejected",
			s.Type(), duration.Round(time.Millisecond), stats.Scraped, stats.Added, stats.Updated, stats.Rejected)
	}

	if runID != "" {
		if err := p.Runs.CompleteRun(ctx, runID, completion); err != nil {
			log.Printf("[%s] Failed to complete run record %s: %v", s.Type(), runID, err)
		}
	}

	return result
}

// safeScrape converts a panic inside Scrape into a failed run instead of
// taking down the whole orchestrator invocation.
func safeScrape(ctx context.Context, s Scraper, p *Pipeline) (stats RunStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scraper panic: %v", r)
		}
	}()
	return s.Scrape(ctx, p)
}

// RunSummary aggregates one orchestrator invocation. Totals are summed
// only over scrapers whose run succeeded; per-scraper outcomes, including
// failures, live in Results.
type RunSummary struct {
	ExecutionSeconds float64              `json:"execution_time"`
	TotalScraped     int                  `json:"total_scraped"`
	TotalAdded       int                  `json:"total_added"`
	TotalUpdated     int                  `json:"total_updated"`
	Results          map[string]RunResult `json:"results"`
}

// AnyFailed reports whether any scraper's run failed. Callers wanting a
// non-zero exit code for scheduler alerting use this; it is not part of
// the orchestrator's own success contract.
func (s *RunSummary) AnyFailed() bool {
	for _, r := range s.Results {
		if !r.Success {
			return true
		}
	}
	return false
}

// Orchestrator runs the configured scrapers sequentially. One scraper
// failing never prevents the next from running.
type Orchestrator struct {
	Pipeline *Pipeline
	Scrapers []Scraper
}

func NewOrchestrator(p *Pipeline, scrapers []Scraper) *Orchestrator {
	return &Orchestrator{Pipeline: p, Scrapers: scrapers}
}

// RunAll executes either every scraper in order, or just the one matching
// the named type. Unknown selectors are the only error; individual
// scraper failures are reported inside the summary.
func (o *Orchestrator) RunAll(ctx context.Context, selector string) (*RunSummary, error) {
	selected := o.Scrapers
	if selector != "" && selector != "all" {
		if !ValidType(selector) {
			return nil, fmt.Errorf("unknown scraper type: %q", selector)
		}
		selected = nil
		for _, s := range o.Scrapers {
			if string(s.Type()) == selector {
				selected = append(selected, s)
			}
		}
		if len(selected) == 0 {
			return nil, fmt.Errorf("no scraper registered for type %q", selector)
		}
	}

	start := time.Now()
	summary := &RunSummary{Results: make(map[string]RunResult, len(selected))}

	for _, s := range selected {
		result := RunScraper(ctx, s, o.Pipeline)
		summary.Results[string(s.Type())] = result
		if result.Success {
			summary.TotalScraped += result.Stats.Scraped
			summary.TotalAdded += result.Stats.Added
			summary.TotalUpdated += result.Stats.Updated
		}
	}

	summary.ExecutionSeconds = time.Since(start).Seconds()
	return summary, nil
}
