package scrape

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const listingHTML = `<!DOCTYPE html>
<html><body>
<div class="listing">
  <article class="post">
    <h2 class="entry-title"><a href="/fellowship-2026">African Graduate Research Fellowship 2026</a></h2>
    <div class="entry-summary">Fully funded fellowship for postgraduate students from Kenya, Nigeria and Ghana covering tuition and a living stipend for two years of study. Deadline: 30 June 2026.</div>
  </article>
  <article class="post">
    <h2 class="entry-title"><a href="/cooking-class">Italian Cooking Class</a></h2>
    <div class="entry-summary">Learn to make pasta from scratch in our evening classes held every Tuesday in the city center, beginners welcome.</div>
  </article>
  <article class="post">
    <h2 class="entry-title"><a></a></h2>
    <div class="entry-summary">Broken markup with no link target at all.</div>
  </article>
</div>
</body></html>`

func listingSource(baseURL string) SourceConfig {
	return SourceConfig{
		ID:           "test_listing",
		Name:         "Test Listing",
		Type:         "scholarship",
		Strategy:     "html_listing",
		BaseURL:      baseURL,
		Organization: "Test Aggregator",
		Selectors: SelectorConfig{
			Container: "article.post",
			Title:     "h2.entry-title a",
			Link:      "h2.entry-title a",
			Summary:   ".entry-summary",
		},
	}
}

func testRegistry() *Registry {
	return &Registry{
		Defaults: DefaultsConfig{
			DeadlineDays: map[string]int{"scholarship": 60, "job": 30, "internship": 45, "grant": 90, "competition": 45},
			Location:     "Africa",
			Country:      "Multiple Countries",
		},
	}
}

func TestScrapeListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, listingHTML)
	}))
	defer srv.Close()

	store := newFakeStore()
	p := testPipeline(store, newFakeRunLog())
	reg := testRegistry()
	src := listingSource(srv.URL)

	stats, err := scrapeListing(context.Background(), p, reg, src, TypeScholarship, scholarshipKeywords)
	if err != nil {
		t.Fatalf("scrapeListing: %v", err)
	}

	// The cooking class misses the type keywords, the broken article has
	// no link; only the fellowship survives.
	if stats.Added != 1 || stats.Scraped != 1 {
		t.Fatalf("stats = %+v, want exactly 1 added", stats)
	}

	var saved bool
	for _, row := range store.rows {
		if !strings.Contains(row.Title, "Fellowship") {
			continue
		}
		saved = true
		if row.Organization != "Test Aggregator" {
			t.Errorf("organization = %q, want source fallback", row.Organization)
		}
		if !strings.HasPrefix(row.ApplicationURL, srv.URL) {
			t.Errorf("application URL not absolutized: %q", row.ApplicationURL)
		}
		if row.Deadline == nil {
			t.Fatal("deadline missing")
		}
		if row.Deadline.Format("2006-01-02") != "2026-06-30" {
			t.Errorf("deadline = %s, want 2026-06-30 from summary text", row.Deadline.Format("2006-01-02"))
		}
		if row.Location != "Africa" || row.Country != "Multiple Countries" {
			t.Errorf("defaults not applied: %q / %q", row.Location, row.Country)
		}
	}
	if !saved {
		t.Fatal("fellowship listing was not saved")
	}
}

func TestScrapeListingFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := testPipeline(newFakeStore(), newFakeRunLog())
	_, err := scrapeListing(context.Background(), p, testRegistry(), listingSource(srv.URL), TypeScholarship, nil)
	if err == nil {
		t.Fatal("expected an error for a 503 listing page")
	}
}

// fakeFetcher serves canned responses keyed by URL substring.
type fakeFetcher struct {
	body   string
	status int
	err    error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*FetchedDocument, error) {
	if f.err != nil {
		return nil, f.err
	}
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	return &FetchedDocument{
		URL:        url,
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(f.body)),
		FetchedAt:  time.Now(),
	}, nil
}

const wpPostsJSON = `[
  {
    "link": "https://jobs.example.org/program-officer",
    "title": {"rendered": "Program Officer &#8211; East Africa"},
    "content": {"rendered": "<p>We are hiring a program officer to manage education grants across Kenya, Uganda and Tanzania. The role includes travel, partner management and reporting, and requires five years of experience.</p>"},
    "excerpt": {"rendered": "<p>Hiring in East Africa.</p>"}
  },
  {
    "link": "https://jobs.example.org/bake-sale",
    "title": {"rendered": "Annual Bake Sale"},
    "content": {"rendered": "<p>Join our annual community bake sale with cakes, cookies and pies from neighborhood volunteers this weekend.</p>"},
    "excerpt": {"rendered": ""}
  }
]`

func TestScrapeWordPress(t *testing.T) {
	store := newFakeStore()
	p := testPipeline(store, newFakeRunLog())
	p.Fetcher = &fakeFetcher{body: wpPostsJSON}

	src := SourceConfig{
		ID:           "test_wp",
		Name:         "Test WP",
		Type:         "job",
		Strategy:     "wp_posts",
		BaseURL:      "https://jobs.example.org",
		Organization: "Example Careers",
	}

	stats, err := scrapeWordPress(context.Background(), p, testRegistry(), src, TypeJob, jobKeywords)
	if err != nil {
		t.Fatalf("scrapeWordPress: %v", err)
	}

	// The bake sale has no job keywords and no geographic relevance.
	if stats.Added != 1 {
		t.Fatalf("stats = %+v, want 1 added", stats)
	}

	for _, row := range store.rows {
		if !strings.Contains(row.Title, "Program Officer") {
			t.Errorf("unexpected row saved: %q", row.Title)
			continue
		}
		if strings.Contains(row.Title, "&#8211;") {
			t.Errorf("entities not decoded in title: %q", row.Title)
		}
		if strings.Contains(row.Description, "<p>") {
			t.Errorf("markup left in description: %q", row.Description)
		}
		if row.Deadline == nil {
			t.Error("expected the default deadline window to be applied")
		}
	}
}

func TestScrapeWordPressBadJSON(t *testing.T) {
	p := testPipeline(newFakeStore(), newFakeRunLog())
	p.Fetcher = &fakeFetcher{body: "<html>not json</html>"}

	src := SourceConfig{ID: "test_wp", Name: "Test WP", Type: "job", Strategy: "wp_posts", BaseURL: "https://jobs.example.org"}
	if _, err := scrapeWordPress(context.Background(), p, testRegistry(), src, TypeJob, nil); err == nil {
		t.Fatal("expected a decode error")
	}
}

func TestScrapeCurated(t *testing.T) {
	store := newFakeStore()
	p := testPipeline(store, newFakeRunLog())
	reg := testRegistry()

	src := SourceConfig{
		ID:       "test_curated",
		Name:     "Test Curated",
		Type:     "grant",
		Strategy: "curated",
		Curated: []CuratedEntry{
			{
				Title:          "Continental Founders Seed Grant",
				Organization:   "Example Philanthropy",
				Description:    strings.Repeat("Seed funding for early-stage founders across Africa building local solutions. ", 2),
				ApplicationURL: "https://example.org/seed-grant",
				Amount:         "Up to $25,000",
				Currency:       "USD",
				DeadlineDays:   120,
			},
		},
	}

	stats := scrapeCurated(context.Background(), p, reg, src, TypeGrant)
	if stats.Added != 1 {
		t.Fatalf("stats = %+v, want 1 added", stats)
	}

	for _, row := range store.rows {
		if row.Deadline == nil {
			t.Fatal("curated entry must receive a deadline")
		}
		wantDay := time.Now().UTC().AddDate(0, 0, 120).Format("2006-01-02")
		if row.Deadline.Format("2006-01-02") != wantDay {
			t.Errorf("deadline = %s, want %s from entry window", row.Deadline.Format("2006-01-02"), wantDay)
		}
		if row.Location != "Africa" {
			t.Errorf("location fallback not applied: %q", row.Location)
		}
		if row.Amount != "Up to $25,000" {
			t.Errorf("amount = %q", row.Amount)
		}
	}
}

// A failing live routine must not suppress the curated routine's output,
// and the scraper as a whole only fails when every live routine failed
// with nothing scraped.
func TestRunRoutinesIsolation(t *testing.T) {
	store := newFakeStore()
	p := testPipeline(store, newFakeRunLog())
	p.Fetcher = &fakeFetcher{err: context.DeadlineExceeded}
	reg := testRegistry()

	sources := []SourceConfig{
		{ID: "dead_wp", Name: "Dead WP", Type: "grant", Strategy: "wp_posts", BaseURL: "https://down.example.org"},
		{ID: "ok_curated", Name: "OK Curated", Type: "grant", Strategy: "curated", Curated: []CuratedEntry{{
			Title:          "Continental Founders Seed Grant",
			Organization:   "Example Philanthropy",
			Description:    strings.Repeat("Seed funding for early-stage founders across Africa building local solutions. ", 2),
			ApplicationURL: "https://example.org/seed-grant",
		}}},
	}

	stats, err := runRoutines(context.Background(), p, reg, TypeGrant, sources, nil)
	if err != nil {
		t.Fatalf("runRoutines should tolerate one failed routine: %v", err)
	}
	if stats.Added != 1 {
		t.Fatalf("stats = %+v, want the curated item saved", stats)
	}

	// Only failing live routines and no output: now it is a scraper failure.
	liveOnly := []SourceConfig{
		{ID: "dead_wp", Name: "Dead WP", Type: "grant", Strategy: "wp_posts", BaseURL: "https://down.example.org"},
	}
	if _, err := runRoutines(context.Background(), p, reg, TypeGrant, liveOnly, nil); err == nil {
		t.Fatal("expected failure when every live routine failed")
	}
}

func TestRelevantListing(t *testing.T) {
	tests := []struct {
		name     string
		c        Candidate
		keywords []string
		want     bool
	}{
		{
			name:     "type keyword and geography match",
			c:        Candidate{Title: "Graduate Scholarship", Description: "for students in Ghana"},
			keywords: scholarshipKeywords,
			want:     true,
		},
		{
			name:     "missing type keyword",
			c:        Candidate{Title: "Cooking Class", Description: "evening classes in Accra, Ghana"},
			keywords: scholarshipKeywords,
			want:     false,
		},
		{
			name:     "no geographic relevance",
			c:        Candidate{Title: "Graduate Scholarship", Description: "for local residents only"},
			keywords: scholarshipKeywords,
			want:     false,
		},
		{
			name:     "location field carries the relevance",
			c:        Candidate{Title: "Graduate Scholarship", Description: "tuition support", Location: "Nairobi, Kenya"},
			keywords: scholarshipKeywords,
			want:     true,
		},
		{
			name: "no keywords configured means type filter off",
			c:    Candidate{Title: "Anything", Description: "open to all applicants worldwide"},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := relevantListing(tt.c, tt.keywords); got != tt.want {
				t.Errorf("relevantListing = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewScrapersOrder(t *testing.T) {
	scrapers := NewScrapers(testRegistry())
	if len(scrapers) != len(Types) {
		t.Fatalf("expected %d scrapers, got %d", len(Types), len(scrapers))
	}
	for i, s := range scrapers {
		if s.Type() != Types[i] {
			t.Errorf("scraper %d has type %s, want %s", i, s.Type(), Types[i])
		}
		if s.Name() == "" {
			t.Errorf("scraper %d has no name", i)
		}
	}
}
