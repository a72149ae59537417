package scrape

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const minDescriptionLen = 100

const minTitleLen = 10

// relevanceTerms is the geographic-relevance keyword set. Deliberately
// permissive: a listing phrased generically ("open to all") passes, because
// showing an irrelevant opportunity costs less than silently dropping a
// relevant one.
var relevanceTerms = []string{
	"africa", "african", "sub-saharan",
	"algeria", "angola", "benin", "botswana", "burkina faso", "burundi",
	"cameroon", "cape verde", "chad", "comoros", "congo", "djibouti",
	"egypt", "eritrea", "eswatini", "ethiopia", "gabon", "gambia", "ghana",
	"guinea", "ivory coast", "cote d'ivoire", "kenya", "lesotho", "liberia",
	"libya", "madagascar", "malawi", "mali", "mauritania", "mauritius",
	"morocco", "mozambique", "namibia", "niger", "nigeria", "rwanda",
	"senegal", "seychelles", "sierra leone", "somalia", "south africa",
	"south sudan", "sudan", "tanzania", "togo", "tunisia", "uganda",
	"zambia", "zimbabwe",
	// broad-inclusion terms
	"worldwide", "international", "global", "developing countries",
	"developing world", "open to all", "any nationality", "all nationalities",
	"low-income countries", "remote",
}

// ValidationResult carries the quality-gate outcome and every rule
// violation found, so operators see the complete rejection picture.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// Validator is the quality gate for candidates. All rules are evaluated
// independently (no short-circuiting) so rejection reasons are complete.
// The URL probe is the one piece of I/O; it may be slow or flaky and
// callers must tolerate that.
type Validator struct {
	Prober URLProber
	Now    func() time.Time
}

func NewValidator(prober URLProber) *Validator {
	return &Validator{Prober: prober, Now: time.Now}
}

// Validate checks a candidate against the quality rules and returns every
// violation. A candidate is valid only with zero violations.
func (v *Validator) Validate(ctx context.Context, c Candidate) ValidationResult {
	var errs []string

	if strings.TrimSpace(c.ApplicationURL) == "" {
		errs = append(errs, "application URL is missing")
	} else if v.Prober != nil && !v.Prober.Probe(ctx, c.ApplicationURL) {
		errs = append(errs, fmt.Sprintf("application URL is unreachable: %s", c.ApplicationURL))
	}

	if n := utf8.RuneCountInString(c.Description); n < minDescriptionLen {
		errs = append(errs, fmt.Sprintf("description too short: %d chars, minimum %d", n, minDescriptionLen))
	}

	if c.Deadline != nil {
		now := v.now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if c.Deadline.Before(today) {
			errs = append(errs, fmt.Sprintf("deadline already passed: %s", c.Deadline.Format("2006-01-02")))
		}
	}

	if strings.TrimSpace(c.Organization) == "" {
		errs = append(errs, "organization is missing")
	}

	if title := strings.TrimSpace(c.Title); title == "" {
		errs = append(errs, "title is missing")
	} else if n := utf8.RuneCountInString(title); n < minTitleLen {
		errs = append(errs, fmt.Sprintf("title too short: %d chars, minimum %d", n, minTitleLen))
	}

	geoText := strings.Join([]string{c.Description, c.Eligibility, c.Location, c.Country, c.Requirements}, " ")
	if !containsAnyFold(geoText, relevanceTerms) {
		errs = append(errs, "no African or broad-inclusion relevance terms found")
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func (v *Validator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}
