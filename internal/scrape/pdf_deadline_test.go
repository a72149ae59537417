package scrape

import (
	"testing"
	"time"
)

func TestDeadlineFromPDFText(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		text string
		want string // yyyy-mm-dd, empty means not found
	}{
		{
			name: "labeled deadline wins over other dates",
			text: "Programme launched on 10 January 2026. Application deadline: 30 June 2026. Award decisions will be communicated to every shortlisted applicant once the external review period, which takes about ten weeks, has finished, with results announced 15 August 2026.",
			want: "2026-06-30",
		},
		{
			name: "unlabeled future date is still used",
			text: "All submissions must arrive by 12 May 2026 at the latest.",
			want: "2026-05-12",
		},
		{
			name: "past dates are ignored",
			text: "The previous call closed on 1 February 2026.",
			want: "",
		},
		{
			name: "iso date with closing label",
			text: "Closing date 2026-09-01 applies to all tracks.",
			want: "2026-09-01",
		},
		{
			name: "no dates",
			text: "This document describes the grant guidelines and eligibility rules.",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := deadlineFromPDFText(tt.text, now)

			if tt.want == "" {
				if found {
					t.Fatalf("expected no deadline, got %v", got)
				}
				return
			}
			if !found {
				t.Fatalf("expected %s, found nothing", tt.want)
			}
			if got.Format("2006-01-02") != tt.want {
				t.Errorf("deadline = %s, want %s", got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestExtractPDFTextRejectsGarbage(t *testing.T) {
	if _, err := extractPDFText([]byte("definitely not a pdf")); err == nil {
		t.Fatal("expected an error for non-PDF bytes")
	}
}
