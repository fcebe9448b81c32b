package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"archive.alpha.io/archive/internal/provider"
)

const (
	healthStatusOK       = "ok"
	healthStatusDegraded = "degraded"
)

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// GetLiveness handles GET /health/live.
func (s *Server) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: healthStatusOK})
}

// GetReadiness handles GET /health/ready.
// Upstream sources are not part of readiness; see GetSourceHealth.
func (s *Server) GetReadiness(c *gin.Context) {
	checks := make(map[string]string)
	allHealthy := true

	if s.db == nil {
		checks["database"] = "unconfigured"
		allHealthy = false
	} else if err := s.db.Ping(c.Request.Context()); err != nil {
		checks["database"] = "error"
		allHealthy = false
	} else {
		checks["database"] = "ok"
	}

	status := healthStatusOK
	httpStatus := http.StatusOK
	if !allHealthy {
		status = healthStatusDegraded
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, healthResponse{
		Status: status,
		Checks: checks,
	})
}

// GetSourceHealth handles GET /health/sources.
func (s *Server) GetSourceHealth(c *gin.Context) {
	sources := []provider.SourceHealth{}
	if s.health != nil {
		sources = append(sources, s.health.All()...)
	}
	c.JSON(http.StatusOK, gin.H{"sources": sources})
}
