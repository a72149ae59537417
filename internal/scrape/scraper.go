package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

// Scraper extracts candidates for one opportunity type from its configured
// sources. Scrape returns the run counters; run bookkeeping (record,
// status, duration) belongs to RunScraper, not the scraper itself.
type Scraper interface {
	Name() string
	Type() Type
	Scrape(ctx context.Context, p *Pipeline) (RunStats, error)
}

// NewScrapers builds the five concrete scrapers from the registry, in the
// fixed order the orchestrator runs them.
func NewScrapers(reg *Registry) []Scraper {
	return []Scraper{
		&ScholarshipScraper{reg: reg},
		&JobScraper{reg: reg},
		&InternshipScraper{reg: reg},
		&GrantScraper{reg: reg},
		&CompetitionScraper{reg: reg},
	}
}

// scrapeListing pulls one listing index page via colly and emits a
// candidate per matched item. typeKeywords is the cheap relevance filter
// applied before validation: title/summary keyword checks cost a string
// scan, validation costs a network probe.
func scrapeListing(ctx context.Context, p *Pipeline, reg *Registry, src SourceConfig, typ Type, typeKeywords []string) (RunStats, error) {
	stats := RunStats{}
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if src.Selectors.Container == "" {
		return stats, fmt.Errorf("source %q: selector 'container' is required", src.ID)
	}

	baseURL, err := url.Parse(src.BaseURL)
	if err != nil {
		return stats, fmt.Errorf("source %q: invalid base URL: %w", src.ID, err)
	}

	cfg := CollyConfig{AllowedDomains: []string{baseURL.Hostname()}}
	if src.Fetch.TimeoutSeconds > 0 {
		cfg.RequestTimeout = time.Duration(src.Fetch.TimeoutSeconds) * time.Second
	}
	if src.Fetch.RateLimitRPS > 0 {
		cfg.DomainDelay = time.Duration(float64(time.Second) / src.Fetch.RateLimitRPS)
	}
	collector := newCollector(cfg)

	var fetchErr error

	collector.OnHTML(src.Selectors.Container, func(e *colly.HTMLElement) {
		// One bad listing item must not take down the rest of the page.
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[%s] Skipping item on %s: %v", src.ID, e.Request.URL, r)
			}
		}()

		c, ok := candidateFromListing(e, reg, src, typ)
		if !ok {
			return
		}
		if !relevantListing(c, typeKeywords) {
			return
		}
		stats.apply(p.SaveCandidate(ctx, c))
	})

	collector.OnRequest(func(r *colly.Request) {
		log.Printf("[%s] Visiting: %s", src.ID, r.URL)
	})
	collector.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("fetch %s: %w", r.Request.URL, err)
	})

	if err := collector.Visit(src.BaseURL); err != nil {
		return stats, fmt.Errorf("source %q: %w", src.ID, err)
	}
	collector.Wait()

	if fetchErr != nil {
		return stats, fmt.Errorf("source %q: %w", src.ID, fetchErr)
	}
	return stats, nil
}

// candidateFromListing extracts one candidate from a listing item using
// the source's selectors, filling gaps with the source defaults.
func candidateFromListing(e *colly.HTMLElement, reg *Registry, src SourceConfig, typ Type) (Candidate, bool) {
	sel := src.Selectors

	title := CleanText(e.ChildText(sel.Title))

	linkAttr := sel.LinkAttr
	if linkAttr == "" {
		linkAttr = "href"
	}
	var link string
	if sel.Link == "" || sel.Link == "." {
		link = strings.TrimSpace(e.Attr(linkAttr))
	} else {
		link = strings.TrimSpace(e.ChildAttr(sel.Link, linkAttr))
	}
	if title == "" || link == "" {
		return Candidate{}, false
	}
	link = e.Request.AbsoluteURL(link)

	summary := ""
	if sel.Summary != "" {
		summary = CleanText(e.ChildText(sel.Summary))
	}

	organization := src.Organization
	if sel.Organization != "" {
		if org := CleanText(e.ChildText(sel.Organization)); org != "" {
			organization = org
		}
	}

	location := reg.FallbackLocation(src)
	if sel.Location != "" {
		if loc := CleanText(e.ChildText(sel.Location)); loc != "" {
			location = loc
		}
	}

	c := Candidate{
		Title:          title,
		Type:           typ,
		Organization:   organization,
		Description:    summary,
		Location:       location,
		Country:        reg.FallbackCountry(src),
		ApplicationURL: link,
		SourceURL:      e.Request.URL.String(),
	}

	if sel.Deadline != "" {
		if dt, ok := ParseDeadline(e.ChildText(sel.Deadline)); ok {
			c.Deadline = &dt
		}
	}
	if c.Deadline == nil {
		if dt, ok := deadlineFromText(summary); ok {
			c.Deadline = &dt
		}
	}
	if c.Deadline == nil {
		dt := defaultDeadline(reg.DeadlineDays(src))
		c.Deadline = &dt
	}

	return c, true
}

// relevantListing is the pre-validation keyword gate: the item must match
// the scraper's type keywords (when any are configured) and carry at least
// one geographic-relevance term.
func relevantListing(c Candidate, typeKeywords []string) bool {
	text := c.Title + " " + c.Description
	if len(typeKeywords) > 0 && !containsAnyFold(text, typeKeywords) {
		return false
	}
	return containsAnyFold(text+" "+c.Location+" "+c.Country, relevanceTerms)
}

// deadlineFromText looks for a labeled deadline phrase inside free text.
func deadlineFromText(text string) (time.Time, bool) {
	lower := strings.ToLower(text)
	idx := strings.Index(lower, "deadline")
	if idx == -1 {
		idx = strings.Index(lower, "apply by")
	}
	if idx == -1 {
		idx = strings.Index(lower, "closing date")
	}
	if idx == -1 {
		return time.Time{}, false
	}
	end := idx + 120
	if end > len(text) {
		end = len(text)
	}
	return ParseDeadline(text[idx:end])
}

// defaultDeadline computes the per-type fallback application window.
func defaultDeadline(days int) time.Time {
	return toEndOfDay(time.Now().UTC().AddDate(0, 0, days))
}

// wpPost mirrors the subset of the WordPress REST post shape the wp_posts
// routine consumes.
type wpPost struct {
	Link  string `json:"link"`
	Title struct {
		Rendered string `json:"rendered"`
	} `json:"title"`
	Content struct {
		Rendered string `json:"rendered"`
	} `json:"content"`
	Excerpt struct {
		Rendered string `json:"rendered"`
	} `json:"excerpt"`
}

// scrapeWordPress pulls one page of posts from a WordPress REST API and
// emits a candidate per relevant post. Many of the aggregator sites the
// registry points at are WordPress installs, which makes this far more
// robust than scraping their themes.
func scrapeWordPress(ctx context.Context, p *Pipeline, reg *Registry, src SourceConfig, typ Type, typeKeywords []string) (RunStats, error) {
	stats := RunStats{}

	apiURL := src.BaseURL
	if !strings.Contains(apiURL, "wp-json") {
		u, err := url.Parse(apiURL)
		if err != nil {
			return stats, fmt.Errorf("source %q: invalid base URL: %w", src.ID, err)
		}
		u.Path = "/wp-json/wp/v2/posts"
		u.RawQuery = "per_page=20"
		apiURL = u.String()
	}

	log.Printf("[%s] Fetching: %s", src.ID, apiURL)
	doc, err := p.Fetcher.Fetch(ctx, apiURL)
	if err != nil {
		return stats, fmt.Errorf("source %q: %w", src.ID, err)
	}
	defer doc.Body.Close()

	body, err := io.ReadAll(doc.Body)
	if err != nil {
		return stats, fmt.Errorf("source %q: read failed: %w", src.ID, err)
	}

	var posts []wpPost
	if err := json.Unmarshal(body, &posts); err != nil {
		return stats, fmt.Errorf("source %q: decode failed: %w", src.ID, err)
	}

	for _, post := range posts {
		title := CleanText(post.Title.Rendered)
		if title == "" || post.Link == "" {
			continue
		}

		description := CleanText(SanitizeHTML(post.Content.Rendered))
		if description == "" {
			description = CleanText(SanitizeHTML(post.Excerpt.Rendered))
		}

		c := Candidate{
			Title:          title,
			Type:           typ,
			Organization:   src.Organization,
			Description:    description,
			Location:       reg.FallbackLocation(src),
			Country:        reg.FallbackCountry(src),
			ApplicationURL: post.Link,
			SourceURL:      apiURL,
		}
		if dt, ok := deadlineFromText(description); ok {
			c.Deadline = &dt
		} else {
			dt := defaultDeadline(reg.DeadlineDays(src))
			c.Deadline = &dt
		}

		if !relevantListing(c, typeKeywords) {
			continue
		}
		stats.apply(p.SaveCandidate(ctx, c))
	}

	return stats, nil
}

// scrapeCurated emits candidates from a source's hand-maintained entries.
// Curated records go through the exact same validation and upsert path as
// live-scraped ones.
func scrapeCurated(ctx context.Context, p *Pipeline, reg *Registry, src SourceConfig, typ Type) RunStats {
	stats := RunStats{}
	for _, entry := range src.Curated {
		if err := ctx.Err(); err != nil {
			return stats
		}

		days := entry.DeadlineDays
		if days <= 0 {
			days = reg.DeadlineDays(src)
		}
		deadline := defaultDeadline(days)

		location := entry.Location
		if location == "" {
			location = reg.FallbackLocation(src)
		}
		country := entry.Country
		if country == "" {
			country = reg.FallbackCountry(src)
		}

		c := Candidate{
			Title:          entry.Title,
			Type:           typ,
			Organization:   entry.Organization,
			Description:    entry.Description,
			Location:       location,
			Country:        country,
			Deadline:       &deadline,
			ApplicationURL: entry.ApplicationURL,
			Requirements:   entry.Requirements,
			Benefits:       entry.Benefits,
			Eligibility:    entry.Eligibility,
			Amount:         entry.Amount,
			Currency:       entry.Currency,
			SourceURL:      entry.ApplicationURL,
		}
		stats.apply(p.SaveCandidate(ctx, c))
	}
	return stats
}

// runRoutines executes a scraper's per-source routines with routine-level
// isolation: a failed page fetch aborts only that source's contribution.
// The scraper as a whole fails only when every routine failed and nothing
// was produced, which distinguishes total connectivity loss from one flaky
// site.
func runRoutines(ctx context.Context, p *Pipeline, reg *Registry, typ Type, sources []SourceConfig, typeKeywords []string) (RunStats, error) {
	stats := RunStats{}
	attempted := 0
	failed := 0
	var lastErr error

	for _, src := range sources {
		var rs RunStats
		var err error

		switch src.Strategy {
		case "curated":
			rs = scrapeCurated(ctx, p, reg, src, typ)
		case "wp_posts":
			attempted++
			rs, err = scrapeWordPress(ctx, p, reg, src, typ, typeKeywords)
		case "html_listing":
			attempted++
			rs, err = scrapeListing(ctx, p, reg, src, typ, typeKeywords)
		default:
			log.Printf("[%s] Unknown strategy %q for source %q, skipping", typ, src.Strategy, src.ID)
			continue
		}

		// Partial counts survive a routine failure: items already saved
		// before the fetch broke are real.
		stats.Merge(rs)
		if err != nil {
			failed++
			lastErr = err
			log.Printf("[%s] Routine failed: %v", typ, err)
		}
	}

	if attempted > 0 && failed == attempted && stats.Scraped == 0 {
		return stats, fmt.Errorf("all %d live routines failed: %w", attempted, lastErr)
	}
	return stats, nil
}
