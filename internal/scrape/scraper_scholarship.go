package scrape

import "context"

var scholarshipKeywords = []string{
	"scholarship", "scholarships", "fellowship", "fellowships",
	"bursary", "bursaries", "studentship", "tuition", "study grant",
	"masters funding", "phd funding", "postgraduate award",
}

// ScholarshipScraper covers scholarship and fellowship listings.
type ScholarshipScraper struct {
	reg *Registry
}

func (s *ScholarshipScraper) Name() string { return "scholarship_scraper" }
func (s *ScholarshipScraper) Type() Type   { return TypeScholarship }

func (s *ScholarshipScraper) Scrape(ctx context.Context, p *Pipeline) (RunStats, error) {
	return runRoutines(ctx, p, s.reg, TypeScholarship, s.reg.ForType(TypeScholarship), scholarshipKeywords)
}
