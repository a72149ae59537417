package api

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/amara/opportunity-finder/internal/auth"
	"github.com/amara/opportunity-finder/internal/db"
	"github.com/amara/opportunity-finder/internal/scrape"
)

type Server struct {
	Store       *db.Store
	AuthService *auth.Service
	Orch        *scrape.Orchestrator
	Echo        *echo.Echo
	DB          *pgxpool.Pool
}

func NewServer(pool *pgxpool.Pool, orch *scrape.Orchestrator) *Server {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// CORS: allow frontend origins from env or default to localhost
	allowedOrigins := []string{"http://localhost:4200"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-Admin-Secret"},
	}))

	s := &Server{
		DB:          pool,
		Store:       db.NewStore(pool),
		AuthService: auth.NewService(pool),
		Orch:        orch,
		Echo:        e,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)

	api := s.Echo.Group("/api/v1")
	api.GET("/opportunities", s.handleListOpportunities)
	api.GET("/opportunities/:id", s.handleGetOpportunity)
	api.GET("/stats", s.handleGetStats)
	api.GET("/runs", s.handleListRuns)

	api.POST("/auth/signup", s.handleSignup)
	api.POST("/auth/login", s.handleLogin)

	// Any logged-in user (or the cron secret) may trigger a scrape; the
	// maintenance endpoints stay admin-only.
	api.POST("/scrape/:type", s.handleTriggerScrape, auth.AuthenticatedMiddleware)

	admin := api.Group("")
	admin.Use(auth.AdminMiddleware)
	admin.POST("/admin/deactivate-expired", s.handleDeactivateExpired)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) handleSignup(c echo.Context) error {
	var req auth.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	resp, err := s.AuthService.Signup(c.Request().Context(), req)
	if err != nil {
		if err == auth.ErrUserExists {
			return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleLogin(c echo.Context) error {
	var req auth.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	resp, err := s.AuthService.Login(c.Request().Context(), req)
	if err != nil {
		if err == auth.ErrInvalidCreds {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleListOpportunities(c echo.Context) error {
	limit := 20
	offset := 0
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	if o, err := strconv.Atoi(c.QueryParam("offset")); err == nil && o >= 0 {
		offset = o
	}

	typ := c.QueryParam("type")
	if typ != "" && !scrape.ValidType(typ) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown opportunity type: " + typ})
	}

	result, err := s.Store.ListOpportunities(c.Request().Context(), db.ListParams{
		Type:     typ,
		Country:  c.QueryParam("country"),
		Query:    c.QueryParam("q"),
		Inactive: c.QueryParam("include_inactive") == "true",
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		c.Logger().Errorf("Failed to list opportunities: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetOpportunity(c echo.Context) error {
	opp, err := s.Store.GetOpportunity(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Opportunity not found"})
	}
	return c.JSON(http.StatusOK, opp)
}

func (s *Server) handleGetStats(c echo.Context) error {
	stats, err := s.Store.GetStats(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("Failed to get stats: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleListRuns(c echo.Context) error {
	limit := 15
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}

	runs, err := s.Store.ListRuns(c.Request().Context(), limit)
	if err != nil {
		c.Logger().Errorf("Failed to list runs: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"runs": runs})
}

// handleTriggerScrape runs the requested scrapers synchronously and reports
// the per-scraper outcomes. A failed scraper within a completed orchestration
// is still a 200: the caller reads the results to see what broke.
func (s *Server) handleTriggerScrape(c echo.Context) error {
	selector := c.Param("type")

	summary, err := s.Orch.RunAll(c.Request().Context(), selector)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": err.Error(),
		})
	}

	message := "Scraping completed successfully"
	if summary.AnyFailed() {
		message = "Scraping completed with failures"
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": message,
		"data": map[string]interface{}{
			"execution_time": summary.ExecutionSeconds,
			"total_scraped":  summary.TotalScraped,
			"total_added":    summary.TotalAdded,
			"total_updated":  summary.TotalUpdated,
			"results":        summary.Results,
		},
	})
}

func (s *Server) handleDeactivateExpired(c echo.Context) error {
	count, err := s.Store.DeactivateExpired(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("Failed to deactivate expired: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":     true,
		"deactivated": count,
		"at":          time.Now().UTC().Format(time.RFC3339),
	})
}
