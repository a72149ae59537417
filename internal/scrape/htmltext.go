package scrape

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var ugcPolicy = bluemonday.UGCPolicy()

// SanitizeHTML strips scripts, iframes and unsafe attributes from scraped
// markup before any further processing.
func SanitizeHTML(s string) string {
	return ugcPolicy.Sanitize(s)
}

// CleanText strips markup, decodes HTML entities, collapses whitespace runs
// to single spaces and trims the ends. Idempotent: cleaning already-clean
// text is a no-op.
func CleanText(raw string) string {
	// Entities can decode into markup, so strip repeatedly until the text
	// stops changing. Candidates pass through here more than once.
	text := raw
	for strings.ContainsAny(text, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
		if err != nil {
			break
		}
		next := doc.Text()
		if next == text {
			break
		}
		text = next
	}
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	return strings.Join(strings.Fields(text), " ")
}

// TruncateText cuts a string to max length, appending ellipsis if truncated.
func TruncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	if maxLen > 3 {
		return text[:maxLen-3] + "..."
	}
	return text[:maxLen]
}

// CanonicalizeURL normalizes host case, drops fragments and removes common
// tracking parameters so the same listing always yields the same URL.
func CanonicalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		if strings.HasPrefix(k, "utm_") {
			q.Del(k)
		}
	}
	for _, p := range []string{"fbclid", "gclid", "mc_cid", "mc_eid", "ref", "session"} {
		q.Del(p)
	}

	u.RawQuery = q.Encode()
	return u.String()
}

// containsAnyFold reports whether the case-folded haystack contains any of
// the given terms.
func containsAnyFold(haystack string, terms []string) bool {
	h := strings.ToLower(haystack)
	for _, term := range terms {
		if strings.Contains(h, strings.ToLower(term)) {
			return true
		}
	}
	return false
}
