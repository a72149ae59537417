package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-for-round-trip")

	userID := uuid.New()
	token, err := generateToken(userID, true)
	if err != nil {
		t.Fatalf("generateToken: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotID uuid.UUID
	var gotAdmin bool
	handler := Middleware(func(c echo.Context) error {
		id, err := GetUserIDFromContext(c)
		if err != nil {
			return err
		}
		gotID = id
		gotAdmin, _ = c.Get(string(IsAdminKey)).(bool)
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("middleware rejected a valid token: %v", err)
	}
	if gotID != userID {
		t.Errorf("user ID = %s, want %s", gotID, userID)
	}
	if !gotAdmin {
		t.Error("admin claim lost in round trip")
	}
}

func TestMiddlewareRejectsBadTokens(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-for-round-trip")

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
	}

	e := echo.New()
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())

			err := Middleware(next)(c)
			httpErr, ok := err.(*echo.HTTPError)
			if !ok {
				t.Fatalf("expected *echo.HTTPError, got %v", err)
			}
			if httpErr.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", httpErr.Code)
			}
		})
	}
}

func TestAuthenticatedMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-for-round-trip")
	t.Setenv("ADMIN_SECRET", "ops-secret")

	e := echo.New()
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	// A regular (non-admin) user token is enough.
	token, err := generateToken(uuid.New(), false)
	if err != nil {
		t.Fatalf("generateToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	c := e.NewContext(req, httptest.NewRecorder())
	if err := AuthenticatedMiddleware(next)(c); err != nil {
		t.Fatalf("non-admin user token rejected: %v", err)
	}

	// The cron secret passes without any token.
	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Admin-Secret", "ops-secret")
	c = e.NewContext(req, httptest.NewRecorder())
	if err := AuthenticatedMiddleware(next)(c); err != nil {
		t.Fatalf("valid secret rejected: %v", err)
	}

	// Anonymous requests do not.
	req = httptest.NewRequest(http.MethodPost, "/", nil)
	c = e.NewContext(req, httptest.NewRecorder())
	err = AuthenticatedMiddleware(next)(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous request, got %v", err)
	}
}

func TestAdminMiddlewareSecretHeader(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-for-round-trip")
	t.Setenv("ADMIN_SECRET", "ops-secret")

	e := echo.New()
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Admin-Secret", "ops-secret")
	c := e.NewContext(req, httptest.NewRecorder())
	if err := AdminMiddleware(next)(c); err != nil {
		t.Fatalf("valid admin secret rejected: %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Admin-Secret", "wrong")
	c = e.NewContext(req, httptest.NewRecorder())
	if err := AdminMiddleware(next)(c); err == nil {
		t.Fatal("wrong admin secret must not pass")
	}

	// A non-admin user token is not enough either.
	token, err := generateToken(uuid.New(), false)
	if err != nil {
		t.Fatalf("generateToken: %v", err)
	}
	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	c = e.NewContext(req, httptest.NewRecorder())
	err = AdminMiddleware(next)(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin token, got %v", err)
	}

	// An admin token passes without the header.
	adminToken, err := generateToken(uuid.New(), true)
	if err != nil {
		t.Fatalf("generateToken: %v", err)
	}
	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	c = e.NewContext(req, httptest.NewRecorder())
	if err := AdminMiddleware(next)(c); err != nil {
		t.Fatalf("admin token rejected: %v", err)
	}
}
