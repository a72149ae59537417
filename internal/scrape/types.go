package scrape

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/amara/opportunity-finder/internal/models"
)

// Type identifies which kind of opportunity a scraper produces.
type Type string

const (
	TypeScholarship Type = "scholarship"
	TypeJob         Type = "job"
	TypeInternship  Type = "internship"
	TypeGrant       Type = "grant"
	TypeCompetition Type = "competition"
)

// Types lists all opportunity types in the fixed order the orchestrator
// runs them.
var Types = []Type{TypeScholarship, TypeJob, TypeInternship, TypeGrant, TypeCompetition}

// ValidType reports whether s names a known opportunity type.
func ValidType(s string) bool {
	for _, t := range Types {
		if string(t) == s {
			return true
		}
	}
	return false
}

// Candidate is an opportunity extracted from a source, before validation.
// Candidates are transient: they either pass the quality gate and become a
// models.Opportunity row, or are rejected and dropped.
type Candidate struct {
	Title          string
	Type           Type
	Organization   string
	Description    string
	Location       string
	Country        string
	Deadline       *time.Time
	ApplicationURL string
	Requirements   string
	Benefits       string
	Eligibility    string
	Amount         string
	Currency       string
	SourceURL      string
}

// Record converts a candidate into the persisted form.
func (c Candidate) Record() models.Opportunity {
	return models.Opportunity{
		Title:          c.Title,
		Type:           string(c.Type),
		Organization:   c.Organization,
		Description:    c.Description,
		Location:       c.Location,
		Country:        c.Country,
		Deadline:       c.Deadline,
		ApplicationURL: c.ApplicationURL,
		Requirements:   c.Requirements,
		Benefits:       c.Benefits,
		Eligibility:    c.Eligibility,
		Amount:         c.Amount,
		Currency:       c.Currency,
		SourceURL:      c.SourceURL,
		IsActive:       true,
	}
}

// RunStats holds the counters for one scraper run. Routines return their
// own stats and the caller folds them together, so a routine can be tested
// without a scraper instance.
type RunStats struct {
	Scraped  int
	Added    int
	Updated  int
	Rejected int
}

// Merge folds another delta into s.
func (s *RunStats) Merge(other RunStats) {
	s.Scraped += other.Scraped
	s.Added += other.Added
	s.Updated += other.Updated
	s.Rejected += other.Rejected
}

// FetchedDocument is the raw result of a page fetch.
type FetchedDocument struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        io.ReadCloser
	FetchedAt   time.Time
}

// Fetcher retrieves raw content from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedDocument, error)
}

// URLProber checks whether an application URL is likely reachable.
// Implementations must not return an error: unreachability is a validation
// signal, not a failure.
type URLProber interface {
	Probe(ctx context.Context, url string) bool
}

// FetchError reports a non-200 response on a page fetch.
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status code %d", e.URL, e.StatusCode)
}

// UpsertOutcome classifies the result of an identity-keyed upsert.
type UpsertOutcome int

const (
	UpsertCreated UpsertOutcome = iota
	UpsertUpdated
)

// OpportunityStore is the persistence collaborator the pipeline writes to.
type OpportunityStore interface {
	Upsert(ctx context.Context, opp models.Opportunity) (UpsertOutcome, error)
}

// RunLogStore records scraper run lifecycle events.
type RunLogStore interface {
	StartRun(ctx context.Context, sourceName, scraperType string, startedAt time.Time) (string, error)
	CompleteRun(ctx context.Context, runID string, c RunCompletion) error
}

// RunCompletion carries the terminal state of a run record.
type RunCompletion struct {
	Status           string // success or failed
	ItemsScraped     int
	ItemsAdded       int
	ItemsUpdated     int
	ErrorMessage     string
	ExecutionSeconds float64
}
