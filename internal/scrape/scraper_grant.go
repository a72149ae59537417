package scrape

import (
	"context"
	"strings"
)

var grantKeywords = []string{
	"grant", "grants", "funding", "fund", "donor", "call for proposals",
	"call for applications", "seed funding", "accelerator", "incubator",
	"catalytic", "philanthropy", "entrepreneurship programme",
	"entrepreneurship program",
}

// GrantScraper covers grant and funding-call listings. Donor calls often
// publish the real deadline only inside an attached guidelines PDF, so
// candidates pointing at a PDF get a deadline extraction pass before
// validation.
type GrantScraper struct {
	reg *Registry
}

func (s *GrantScraper) Name() string { return "grant_scraper" }
func (s *GrantScraper) Type() Type   { return TypeGrant }

func (s *GrantScraper) Scrape(ctx context.Context, p *Pipeline) (RunStats, error) {
	pp := *p
	pp.BeforeSave = func(ctx context.Context, c *Candidate) {
		if !strings.HasSuffix(strings.ToLower(c.ApplicationURL), ".pdf") {
			return
		}
		if dt, ok := DeadlineFromPDF(ctx, pp.Fetcher, c.ApplicationURL); ok {
			c.Deadline = &dt
		}
	}
	return runRoutines(ctx, &pp, s.reg, TypeGrant, s.reg.ForType(TypeGrant), grantKeywords)
}
