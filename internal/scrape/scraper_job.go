package scrape

import "context"

var jobKeywords = []string{
	"job", "jobs", "vacancy", "vacancies", "hiring", "recruitment",
	"career", "careers", "position", "employment", "officer", "manager",
	"analyst", "engineer", "consultant", "specialist", "coordinator",
}

// JobScraper covers job and vacancy listings.
type JobScraper struct {
	reg *Registry
}

func (s *JobScraper) Name() string { return "job_scraper" }
func (s *JobScraper) Type() Type   { return TypeJob }

func (s *JobScraper) Scrape(ctx context.Context, p *Pipeline) (RunStats, error) {
	return runRoutines(ctx, p, s.reg, TypeJob, s.reg.ForType(TypeJob), jobKeywords)
}
