package models

import (
	"time"

	"github.com/google/uuid"
)

// Opportunity is a persisted listing. (Title, Organization) is the natural
// key: re-scraping the same listing updates the existing row.
type Opportunity struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Type           string     `json:"type"` // scholarship, job, internship, grant, competition
	Organization   string     `json:"organization"`
	Description    string     `json:"description"`
	Location       string     `json:"location"`
	Country        string     `json:"country"`
	Deadline       *time.Time `json:"deadline"`
	ApplicationURL string     `json:"application_url"`
	Requirements   string     `json:"requirements"`
	Benefits       string     `json:"benefits"`
	Eligibility    string     `json:"eligibility"`
	Amount         string     `json:"amount"` // display string, not numeric
	Currency       string     `json:"currency"`
	SourceURL      string     `json:"source_url"`
	IsActive       bool       `json:"is_active"`
	ScrapedAt      time.Time  `json:"scraped_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ScraperRun is one execution of one scraper, kept as an audit trail.
// Status moves running -> success|failed exactly once and is never reset.
type ScraperRun struct {
	ID               uuid.UUID  `json:"id"`
	SourceName       string     `json:"source_name"`
	ScraperType      string     `json:"scraper_type"`
	Status           string     `json:"status"` // running, success, failed
	ItemsScraped     int        `json:"items_scraped"`
	ItemsAdded       int        `json:"items_added"`
	ItemsUpdated     int        `json:"items_updated"`
	ErrorMessage     *string    `json:"error_message"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at"`
	ExecutionSeconds float64    `json:"execution_time_seconds"`
}
