package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
	"time"

	rpdf "rsc.io/pdf"
)

// maxPDFBytes caps how much of a guidelines document we are willing to
// pull for a deadline hunt.
const maxPDFBytes = 10 << 20

var pdfDateSnippetRe = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b20\d{2}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`(?i)\b\d{1,2}/\d{1,2}/20\d{2}\b`),
	regexp.MustCompile(`(?i)\b\d{1,2}(?:st|nd|rd|th)?\s+(?:of\s+)?(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)\.?,?\s+20\d{2}\b`),
	regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)\.?\s+\d{1,2}(?:st|nd|rd|th)?,?\s+20\d{2}\b`),
}

var pdfDeadlineHints = []string{
	"deadline", "closing date", "applications close", "apply by",
	"submission date", "closes on", "due date",
}

// DeadlineFromPDF downloads a PDF and hunts its text for a dated deadline
// phrase. When several dated phrases sit near a deadline label, the latest
// future one wins, matching how calls list opening and closing dates
// together. A missing or unparseable PDF is not an error for the caller:
// the candidate simply keeps whatever deadline it already had.
func DeadlineFromPDF(ctx context.Context, fetcher Fetcher, pdfURL string) (time.Time, bool) {
	doc, err := fetcher.Fetch(ctx, pdfURL)
	if err != nil {
		log.Printf("PDF fetch failed for %s: %v", pdfURL, err)
		return time.Time{}, false
	}
	defer doc.Body.Close()

	content, err := io.ReadAll(io.LimitReader(doc.Body, maxPDFBytes))
	if err != nil {
		log.Printf("PDF read failed for %s: %v", pdfURL, err)
		return time.Time{}, false
	}

	text, err := extractPDFText(content)
	if err != nil {
		log.Printf("PDF text extraction failed for %s: %v", pdfURL, err)
		return time.Time{}, false
	}

	return deadlineFromPDFText(text, time.Now().UTC())
}

// extractPDFText flattens a PDF's pages to plain text. The parser panics
// on malformed files, so the panic is converted to an error here.
func extractPDFText(content []byte) (text string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("pdf parser panic: %v", recovered)
			text = ""
		}
	}()

	reader, err := rpdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		for _, fragment := range page.Content().Text {
			builder.WriteString(fragment.S)
			builder.WriteString(" ")
		}
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

// deadlineFromPDFText scans extracted text for dated snippets and picks
// the best candidate: labeled dates beat unlabeled ones, later future
// dates beat earlier ones, and strictly past dates are ignored.
func deadlineFromPDFText(text string, now time.Time) (time.Time, bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var best time.Time
	bestLabeled := false
	found := false

	for _, expr := range pdfDateSnippetRe {
		for _, loc := range expr.FindAllStringIndex(text, -1) {
			token := strings.TrimSpace(text[loc[0]:loc[1]])
			parsed, ok := ParseDeadline(token)
			if !ok || parsed.Before(today) {
				continue
			}

			start := loc[0] - 80
			if start < 0 {
				start = 0
			}
			snippet := strings.ToLower(text[start:loc[1]])
			labeled := containsAnyFold(snippet, pdfDeadlineHints)

			better := !found ||
				(labeled && !bestLabeled) ||
				(labeled == bestLabeled && parsed.After(best))
			if better {
				best = parsed
				bestLabeled = labeled
				found = true
			}
		}
	}

	return best, found
}
