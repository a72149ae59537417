package scrape

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "text/html")
			io.WriteString(w, "<html>hello</html>")
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher()
	ctx := context.Background()

	doc, err := f.Fetch(ctx, srv.URL+"/ok")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	defer doc.Body.Close()

	body, _ := io.ReadAll(doc.Body)
	if string(body) != "<html>hello</html>" {
		t.Errorf("body = %q", body)
	}
	if doc.ContentType != "text/html" {
		t.Errorf("content type = %q", doc.ContentType)
	}

	_, err = f.Fetch(ctx, srv.URL+"/missing")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fe.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", fe.StatusCode)
	}
}

func TestProbe(t *testing.T) {
	var sawGetFallback bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/redirected":
			// Redirect targets count as reachable.
			http.Redirect(w, r, "/ok", http.StatusFound)
		case "/gone":
			w.WriteHeader(http.StatusNotFound)
		case "/error":
			w.WriteHeader(http.StatusInternalServerError)
		case "/no-head":
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			sawGetFallback = true
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher()
	ctx := context.Background()

	tests := []struct {
		path string
		want bool
	}{
		{"/ok", true},
		{"/redirected", true},
		{"/gone", false},
		{"/error", false},
		{"/no-head", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := f.Probe(ctx, srv.URL+tt.path); got != tt.want {
				t.Errorf("Probe(%s) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}

	if !sawGetFallback {
		t.Error("expected a GET fallback after 405 on HEAD")
	}

	if f.Probe(ctx, "http://127.0.0.1:1/unreachable") {
		t.Error("connection failure must probe false, not panic")
	}
}
