package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"pl_adjuster/config"
	"pl_adjuster/models"
	"pl_adjuster/pipeline"
	"pl_adjuster/pricelabs"
	"pl_adjuster/pricing"
	"pl_adjuster/storage"
)

// Server exposes the adjustment pipeline over HTTP for the browser
// front-end.
type Server struct {
	cfg    *config.Config
	api    pricelabs.API
	runner *pipeline.Runner
	store  *storage.SQLiteStore
}

func NewServer(cfg *config.Config, api pricelabs.API, runner *pipeline.Runner, store *storage.SQLiteStore) *Server {
	return &Server{
		cfg:    cfg,
		api:    api,
		runner: runner,
		store:  store,
	}
}

func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	if s.cfg.Web.Password != "" {
		api.Use(s.requirePassword())
	}
	api.GET("/listings", s.handleListings)
	api.POST("/update-prices", s.handleUpdatePrices)
	api.GET("/runs", s.handleRuns)
	api.GET("/runs/:id/outcomes", s.handleRunOutcomes)

	return router
}

// HTTPServer wraps the router in an http.Server on the configured addr.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Web.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// requirePassword gates the API behind the shared ADJUST_WEB_PASSWORD.
func (s *Server) requirePassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-Adjust-Password") != s.cfg.Web.Password {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "invalid or missing password",
			})
			return
		}
		c.Next()
	}
}

func (s *Server) handleListings(c *gin.Context) {
	listings, err := s.api.GetListings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	active, err := pricing.SelectListings(listings, nil, c.Query("pms"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"listings": active,
	})
}

type updateRequest struct {
	Increase   bool     `json:"increase"`
	DryRun     bool     `json:"dry_run"`
	ListingIDs []string `json:"listing_ids"`
	PMS        string   `json:"pms"`
}

func (s *Server) handleUpdatePrices(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	opts := pipeline.Options{
		Increase: req.Increase,
		DryRun:   req.DryRun,
		Source:   models.RunSourceWeb,
	}
	report, err := s.runner.AdjustAll(c.Request.Context(), req.ListingIDs, req.PMS, opts)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pricing.ErrNoListings) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"status": "error", "message": err.Error()})
		return
	}

	if req.DryRun {
		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"run_id":  report.RunID,
			"summary": report.Outcomes,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"run_id":    report.RunID,
		"total":     report.Total,
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"results":   report.Outcomes,
	})
}

func (s *Server) handleRuns(c *gin.Context) {
	runs, err := s.store.GetRecentRuns(c.Request.Context(), 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "runs": runs})
}

func (s *Server) handleRunOutcomes(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid run id"})
		return
	}
	outcomes, err := s.store.GetOutcomesForRun(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "results": outcomes})
}
