package scrape

import "context"

var internshipKeywords = []string{
	"internship", "internships", "intern", "trainee", "traineeship",
	"graduate programme", "graduate program", "attachment",
	"young professionals", "apprenticeship",
}

// InternshipScraper covers internship and graduate-programme listings.
type InternshipScraper struct {
	reg *Registry
}

func (s *InternshipScraper) Name() string { return "internship_scraper" }
func (s *InternshipScraper) Type() Type   { return TypeInternship }

func (s *InternshipScraper) Scrape(ctx context.Context, p *Pipeline) (RunStats, error) {
	return runRoutines(ctx, p, s.reg, TypeInternship, s.reg.ForType(TypeInternship), internshipKeywords)
}
