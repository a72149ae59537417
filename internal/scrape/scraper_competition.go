package scrape

import "context"

var competitionKeywords = []string{
	"competition", "competitions", "challenge", "hackathon", "contest",
	"prize", "award", "awards", "pitch", "innovation challenge",
	"startup challenge", "essay competition",
}

// CompetitionScraper covers competitions, challenges and prizes.
type CompetitionScraper struct {
	reg *Registry
}

func (s *CompetitionScraper) Name() string { return "competition_scraper" }
func (s *CompetitionScraper) Type() Type   { return TypeCompetition }

func (s *CompetitionScraper) Scrape(ctx context.Context, p *Pipeline) (RunStats, error) {
	return runRoutines(ctx, p, s.reg, TypeCompetition, s.reg.ForType(TypeCompetition), competitionKeywords)
}
