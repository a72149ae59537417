package scrape

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config/sources.yaml
var sourcesYAML embed.FS

// Registry holds the configuration for all scrape sources.
type Registry struct {
	Defaults DefaultsConfig `yaml:"defaults"`
	Sources  []SourceConfig `yaml:"sources"`
}

// DefaultsConfig carries the per-type fallbacks applied when a source or a
// listing does not provide a value. The deadline windows reflect realistic
// application windows per opportunity type; treat them as configuration,
// not tuning knobs.
type DefaultsConfig struct {
	DeadlineDays map[string]int `yaml:"deadline_days"`
	Location     string         `yaml:"location"`
	Country      string         `yaml:"country"`
}

// SourceConfig defines a single source one scraper extracts from.
type SourceConfig struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Type         string `yaml:"type"`     // opportunity type this source feeds
	Strategy     string `yaml:"strategy"` // html_listing, wp_posts, curated
	BaseURL      string `yaml:"base_url,omitempty"`
	Organization string `yaml:"organization,omitempty"` // fallback when not extractable
	Location     string `yaml:"location,omitempty"`
	Country      string `yaml:"country,omitempty"`
	DeadlineDays int    `yaml:"deadline_days,omitempty"` // overrides the type default

	Fetch     FetchConfig    `yaml:"fetch,omitempty"`
	Selectors SelectorConfig `yaml:"selectors,omitempty"`
	Curated   []CuratedEntry `yaml:"curated,omitempty"`
}

// FetchConfig defines HTTP fetching configuration for a source.
type FetchConfig struct {
	TimeoutSeconds int     `yaml:"timeout_seconds,omitempty"` // default 30
	RateLimitRPS   float64 `yaml:"rate_limit_rps,omitempty"`  // default 1.0
}

// SelectorConfig holds the structural queries for one source's listing
// page. Each source owns its selectors so a markup change on one site
// cannot silently affect another's parsing.
type SelectorConfig struct {
	Container    string `yaml:"container"`
	Title        string `yaml:"title,omitempty"`
	Link         string `yaml:"link,omitempty"`
	LinkAttr     string `yaml:"link_attr,omitempty"` // default href
	Summary      string `yaml:"summary,omitempty"`
	Organization string `yaml:"organization,omitempty"`
	Deadline     string `yaml:"deadline,omitempty"`
	Location     string `yaml:"location,omitempty"`
}

// CuratedEntry is a hand-maintained listing for sources that are vetted
// rather than live-crawled. Curated entries still pass through the same
// validation and upsert path as scraped ones.
type CuratedEntry struct {
	Title          string `yaml:"title"`
	Organization   string `yaml:"organization"`
	Description    string `yaml:"description"`
	Location       string `yaml:"location,omitempty"`
	Country        string `yaml:"country,omitempty"`
	ApplicationURL string `yaml:"application_url"`
	Requirements   string `yaml:"requirements,omitempty"`
	Benefits       string `yaml:"benefits,omitempty"`
	Eligibility    string `yaml:"eligibility,omitempty"`
	Amount         string `yaml:"amount,omitempty"`
	Currency       string `yaml:"currency,omitempty"`
	DeadlineDays   int    `yaml:"deadline_days,omitempty"`
}

// LoadRegistry reads the embedded sources.yaml. The path, when non-empty,
// is used as a filesystem fallback for local development.
func LoadRegistry(path string) (*Registry, error) {
	data, err := sourcesYAML.ReadFile("config/sources.yaml")
	if err != nil && path != "" {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sources config: %w", err)
	}

	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse sources config: %w", err)
	}

	for i, src := range reg.Sources {
		if src.ID == "" || src.Name == "" {
			return nil, fmt.Errorf("source %d: id and name are required", i)
		}
		if !ValidType(src.Type) {
			return nil, fmt.Errorf("source %q: unknown type %q", src.ID, src.Type)
		}
	}

	return &reg, nil
}

// ForType returns the sources feeding one opportunity type, in file order.
func (r *Registry) ForType(t Type) []SourceConfig {
	var out []SourceConfig
	for _, src := range r.Sources {
		if src.Type == string(t) {
			out = append(out, src)
		}
	}
	return out
}

// DeadlineDays resolves the default application window for a source.
func (r *Registry) DeadlineDays(src SourceConfig) int {
	if src.DeadlineDays > 0 {
		return src.DeadlineDays
	}
	if d, ok := r.Defaults.DeadlineDays[src.Type]; ok && d > 0 {
		return d
	}
	return 30
}

// FallbackLocation resolves the location default for a source.
func (r *Registry) FallbackLocation(src SourceConfig) string {
	if src.Location != "" {
		return src.Location
	}
	if r.Defaults.Location != "" {
		return r.Defaults.Location
	}
	return "Africa"
}

// FallbackCountry resolves the country default for a source.
func (r *Registry) FallbackCountry(src SourceConfig) string {
	if src.Country != "" {
		return src.Country
	}
	if r.Defaults.Country != "" {
		return r.Defaults.Country
	}
	return "Multiple Countries"
}
