package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scooper-dashboard/config"
	"scooper-dashboard/models"
	"scooper-dashboard/services"
	"scooper-dashboard/table"
	"scooper-dashboard/utils"
)

// Dashboard is the slice of services.Dashboard the API needs.
type Dashboard interface {
	Build(ctx context.Context) (*models.Snapshot, error)
	RecentPlacements(ctx context.Context, k int) ([]models.EnrichedPlacement, []models.LookupFailure, error)
	Changelog(ctx context.Context, registry string) (*table.Table, error)
	EnergyStarRaw(ctx context.Context, f services.EnergyStarFilter) (*table.Table, []string, error)
	RegistryRaw(ctx context.Context, registry string, newest bool) (*table.Table, error)
	PlacementsRaw(ctx context.Context, brand string) (*table.Table, []string, error)
	Insights() *services.InsightService
	CanonicalBrand(raw string) string
	CanonicalBrands(raw []string) []string
}

type Server struct {
	engine    *gin.Engine
	dashboard Dashboard
	views     config.ViewRules
	logger    *utils.Logger
}

type tableResponse struct {
	Columns []string             `json:"columns"`
	Rows    []map[string]*string `json:"rows"`
	Total   int                  `json:"total"`
}

func renderTable(t *table.Table) tableResponse {
	return tableResponse{Columns: t.Columns(), Rows: t.Maps(), Total: t.Len()}
}

// NewServer builds the engine and registers every route.
func NewServer(d Dashboard, views config.ViewRules, reg *prometheus.Registry, logger *utils.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))
	r.Use(ErrorHandlingMiddleware())

	s := &Server{engine: r, dashboard: d, views: views, logger: logger}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	api := r.Group("/api")
	api.GET("/status", s.status)
	api.GET("/certifications", s.certifications)
	api.GET("/certifications/recent", s.recentCertifications)
	api.GET("/placements/recent", s.recentPlacements)
	api.GET("/placements/raw", s.placementsRaw)
	api.GET("/brands/current", s.currentBrands)
	api.GET("/brands/changelog", s.brandChangelog)
	api.GET("/insights", s.insights)
	api.GET("/changelogs/:registry", s.registryChangelog)
	api.GET("/raw/:registry", s.registryRaw)

	return s
}

// Handler exposes the engine for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[http] listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("[http] shutting down")
	return srv.Shutdown(shutdownCtx)
}

func requestLogger(logger *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("[http] %s %s %d %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func (s *Server) snapshot(c *gin.Context) (*models.Snapshot, bool) {
	snap, err := s.dashboard.Build(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return nil, false
	}
	return snap, true
}

func (s *Server) status(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"generated_at": snap.GeneratedAt,
		"feeds":        snap.Feeds,
		"failed_feeds": snap.FailedFeeds(),
		"total_feeds":  len(snap.Feeds),
		"refresh":      snap.Refresh,
	})
}

func (s *Server) certifications(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": snap.Timeline.Events, "total": snap.Timeline.Len()})
}

func (s *Server) recentCertifications(c *gin.Context) {
	k, err := parseK(c.Query("k"), s.views.RecentCertifications)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": snap.Timeline.Recent(k), "k": k})
}

func (s *Server) recentPlacements(c *gin.Context) {
	k, err := parseK(c.Query("k"), s.views.RecentPlacements)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	placements, failures, err := s.dashboard.RecentPlacements(c.Request.Context(), k)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if placements == nil {
		placements = []models.EnrichedPlacement{}
	}
	c.JSON(http.StatusOK, gin.H{"placements": placements, "lookup_failures": failures, "k": k})
}

func (s *Server) placementsRaw(c *gin.Context) {
	t, brands, err := s.dashboard.PlacementsRaw(c.Request.Context(), c.Query("brand"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"table": renderTable(t), "brands": brands})
}

func (s *Server) currentBrands(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": snap.CurrentCounts})
}

func (s *Server) brandChangelog(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	if brand := s.dashboard.CanonicalBrand(c.Query("brand")); brand != "" {
		c.JSON(http.StatusOK, gin.H{"dates": snap.Changelog.Dates, "brand": brand, "counts": snap.Changelog.Column(brand)})
		return
	}
	c.JSON(http.StatusOK, snap.Changelog)
}

func (s *Server) insights(c *gin.Context) {
	sources, err := parseSources(c.QueryArray("source"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	f := services.InsightFilter{
		Sources:     sources,
		Brands:      s.dashboard.CanonicalBrands(splitList(c.QueryArray("brand"))),
		FromQuarter: strings.ToUpper(c.Query("from")),
		ToQuarter:   strings.ToUpper(c.Query("to")),
		Quarter:     strings.ToUpper(c.Query("quarter")),
	}
	c.JSON(http.StatusOK, s.dashboard.Insights().Generate(snap.Timeline, f))
}

func (s *Server) registryChangelog(c *gin.Context) {
	t, err := s.dashboard.Changelog(c.Request.Context(), c.Param("registry"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, renderTable(t))
}

func (s *Server) registryRaw(c *gin.Context) {
	ctx := c.Request.Context()
	registry := c.Param("registry")

	if registry == "energy-star" {
		reman, err := parseOptionalBool(c.Query("remanufactured"))
		if err != nil {
			AbortWithError(c, err)
			return
		}
		switch c.Query("sort_by") {
		case "", "date_available_on_market", "date_qualified":
		default:
			AbortWithError(c, fmt.Errorf("%w: cannot sort by %q", ErrInvalidRequest, c.Query("sort_by")))
			return
		}
		t, countries, err := s.dashboard.EnergyStarRaw(ctx, services.EnergyStarFilter{
			ProductType:     c.Query("product_type"),
			Brand:           c.Query("brand"),
			Country:         c.Query("country"),
			ColorCapability: c.Query("color"),
			Remanufactured:  reman,
			SortBy:          c.Query("sort_by"),
		})
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"table": renderTable(t), "countries": countries})
		return
	}

	order := c.DefaultQuery("order", "newest")
	if order != "newest" && order != "oldest" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	t, err := s.dashboard.RegistryRaw(ctx, registry, order == "newest")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"table": renderTable(t)})
}
