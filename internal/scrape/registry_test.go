package scrape

import "testing"

func TestLoadRegistry(t *testing.T) {
	reg, err := LoadRegistry("")
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}

	if len(reg.Sources) == 0 {
		t.Fatal("expected at least one source")
	}

	for _, typ := range Types {
		if len(reg.ForType(typ)) == 0 {
			t.Errorf("no sources configured for type %s", typ)
		}
		if d, ok := reg.Defaults.DeadlineDays[string(typ)]; !ok || d <= 0 {
			t.Errorf("no default deadline window for type %s", typ)
		}
	}

	seen := make(map[string]bool)
	for _, src := range reg.Sources {
		if seen[src.ID] {
			t.Errorf("duplicate source id %q", src.ID)
		}
		seen[src.ID] = true

		switch src.Strategy {
		case "html_listing":
			if src.BaseURL == "" || src.Selectors.Container == "" {
				t.Errorf("source %q: html_listing needs base_url and a container selector", src.ID)
			}
		case "wp_posts":
			if src.BaseURL == "" {
				t.Errorf("source %q: wp_posts needs base_url", src.ID)
			}
		case "curated":
			if len(src.Curated) == 0 {
				t.Errorf("source %q: curated strategy without entries", src.ID)
			}
		default:
			t.Errorf("source %q: unknown strategy %q", src.ID, src.Strategy)
		}
	}
}

// Curated entries skip extraction but not validation, so they must already
// satisfy the quality gate or they would be silently rejected on every run.
func TestCuratedEntriesPassValidation(t *testing.T) {
	reg, err := LoadRegistry("")
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}

	for _, src := range reg.Sources {
		for _, entry := range src.Curated {
			if len(entry.Title) < minTitleLen {
				t.Errorf("source %q entry %q: title too short", src.ID, entry.Title)
			}
			if entry.Organization == "" {
				t.Errorf("source %q entry %q: missing organization", src.ID, entry.Title)
			}
			if len(entry.Description) < minDescriptionLen {
				t.Errorf("source %q entry %q: description below %d chars", src.ID, entry.Title, minDescriptionLen)
			}
			if entry.ApplicationURL == "" {
				t.Errorf("source %q entry %q: missing application URL", src.ID, entry.Title)
			}
			if !containsAnyFold(entry.Description+" "+entry.Location+" "+entry.Country, relevanceTerms) {
				t.Errorf("source %q entry %q: no relevance terms", src.ID, entry.Title)
			}
		}
	}
}

func TestRegistryFallbacks(t *testing.T) {
	reg := &Registry{
		Defaults: DefaultsConfig{
			DeadlineDays: map[string]int{"scholarship": 60},
			Location:     "Africa",
			Country:      "Multiple Countries",
		},
	}

	src := SourceConfig{Type: "scholarship"}
	if d := reg.DeadlineDays(src); d != 60 {
		t.Errorf("DeadlineDays = %d, want 60 from type default", d)
	}

	src.DeadlineDays = 14
	if d := reg.DeadlineDays(src); d != 14 {
		t.Errorf("DeadlineDays = %d, want 14 from source override", d)
	}

	unknown := SourceConfig{Type: "job"}
	if d := reg.DeadlineDays(unknown); d != 30 {
		t.Errorf("DeadlineDays = %d, want global fallback 30", d)
	}

	if loc := reg.FallbackLocation(SourceConfig{Location: "Lagos"}); loc != "Lagos" {
		t.Errorf("FallbackLocation = %q", loc)
	}
	if loc := reg.FallbackLocation(SourceConfig{}); loc != "Africa" {
		t.Errorf("FallbackLocation = %q, want Africa", loc)
	}
	if c := reg.FallbackCountry(SourceConfig{}); c != "Multiple Countries" {
		t.Errorf("FallbackCountry = %q", c)
	}
}
