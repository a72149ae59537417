package scrape

import (
	"regexp"
	"strings"
	"time"
)

// ParseDeadline interprets a free-text date expression as a calendar date.
// Returns false on any ambiguity or parse failure; callers always have a
// deterministic per-type default to fall back on.
func ParseDeadline(text string) (time.Time, bool) {
	text = cleanDateString(text)
	if text == "" {
		return time.Time{}, false
	}

	// ISO first, most reliable.
	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", text); err == nil {
		return toEndOfDay(t), true
	}

	englishFormats := []string{
		"2 January 2006",
		"02 January 2006",
		"January 2, 2006",
		"January 2 2006",
		"Jan 2, 2006",
		"2 Jan 2006",
		"02 Jan 2006",
		"01/02/2006",
		"2006/01/02",
	}
	for _, format := range englishFormats {
		if t, err := time.Parse(format, text); err == nil {
			return toEndOfDay(t), true
		}
	}

	if t := parseDateWithRegex(text); !t.IsZero() {
		return toEndOfDay(t), true
	}

	return time.Time{}, false
}

// toEndOfDay sets the time to the last instant of the day in UTC, so a
// deadline "today" is still in the future during the day it falls on.
func toEndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, time.UTC)
}

var (
	isoDateRe   = regexp.MustCompile(`\b(20\d{2})-(\d{2})-(\d{2})\b`)
	slashDateRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(20\d{2})\b`)
	monthNameRe = regexp.MustCompile(`\b(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(20\d{2})\b`)
	dayFirstRe  = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\.?,?\s+(20\d{2})\b`)
)

// parseDateWithRegex extracts a date embedded in surrounding prose.
func parseDateWithRegex(text string) time.Time {
	if m := isoDateRe.FindString(text); m != "" {
		if t, err := time.Parse("2006-01-02", m); err == nil {
			return t
		}
	}

	if m := slashDateRe.FindStringSubmatch(text); len(m) == 4 {
		// Month-first, then day-first for sources using UK ordering.
		for _, layout := range []string{"1/2/2006", "2/1/2006"} {
			if t, err := time.Parse(layout, m[1]+"/"+m[2]+"/"+m[3]); err == nil {
				return t
			}
		}
	}

	if m := monthNameRe.FindStringSubmatch(text); len(m) == 4 {
		for _, layout := range []string{"January 2 2006", "Jan 2 2006"} {
			if t, err := time.Parse(layout, m[1]+" "+m[2]+" "+m[3]); err == nil {
				return t
			}
		}
	}

	if m := dayFirstRe.FindStringSubmatch(text); len(m) == 4 {
		for _, layout := range []string{"2 January 2006", "2 Jan 2006"} {
			if t, err := time.Parse(layout, m[1]+" "+m[2]+" "+m[3]); err == nil {
				return t
			}
		}
	}

	return time.Time{}
}

// cleanDateString removes common label prefixes before parsing.
func cleanDateString(s string) string {
	s = CleanText(s)
	prefixes := []string{
		"Application deadline:", "Closing date:", "Deadline:", "Due date:",
		"Apply by:", "Applications close:", "Expires:", "Ends:", "Closes:",
	}
	sLower := strings.ToLower(s)
	for _, p := range prefixes {
		if idx := strings.Index(sLower, strings.ToLower(p)); idx != -1 {
			s = s[idx+len(p):]
			sLower = sLower[idx+len(p):]
		}
	}
	return strings.TrimSpace(s)
}
