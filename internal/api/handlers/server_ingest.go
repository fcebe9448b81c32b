package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"archive.alpha.io/archive/internal/domain"
	apperrors "archive.alpha.io/archive/internal/pkg/errors"
	"archive.alpha.io/archive/internal/pkg/logger"
	"archive.alpha.io/archive/internal/provider"
)

// TriggerIngest handles POST /public-data/ingest.
// The optional JSON body carries the fetch parameters for every source.
func (s *Server) TriggerIngest(c *gin.Context) {
	var params provider.Params
	if err := c.ShouldBindJSON(&params); err != nil && !errors.Is(err, io.EOF) {
		_ = c.Error(apperrors.ErrInvalidIngestParams(err))
		return
	}
	if err := params.Validate(); err != nil {
		_ = c.Error(apperrors.ErrInvalidIngestParams(err))
		return
	}

	ctx, cancel := s.ingestContext(c.Request.Context())
	defer cancel()

	logger.Info("manual ingestion triggered", zap.Any("params", params))
	result := s.ingester.IngestAll(ctx, params)
	c.JSON(http.StatusOK, result)
}

// TriggerCultureIngest handles POST /public-data/ingest/culture.
func (s *Server) TriggerCultureIngest(c *gin.Context) {
	s.triggerSource(c, domain.SourceCultureDataPortal)
}

// TriggerCulturalIngest handles POST /public-data/ingest/cultural.
func (s *Server) TriggerCulturalIngest(c *gin.Context) {
	s.triggerSource(c, domain.SourceCulturalDataPortal)
}

func (s *Server) triggerSource(c *gin.Context, name string) {
	var params provider.Params
	if err := c.ShouldBindQuery(&params); err != nil {
		_ = c.Error(apperrors.ErrInvalidIngestParams(err))
		return
	}
	if err := params.Validate(); err != nil {
		_ = c.Error(apperrors.ErrInvalidIngestParams(err))
		return
	}

	ctx, cancel := s.ingestContext(c.Request.Context())
	defer cancel()

	logger.Info("manual source ingestion triggered", zap.String("source", name), zap.Any("params", params))
	result, err := s.ingester.IngestSource(ctx, name, params)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type enqueueIngestRequest struct {
	Source string          `json:"source"`
	Params provider.Params `json:"params"`
}

// EnqueueIngest handles POST /public-data/ingest/async.
// The run happens on a worker; the response carries the job id.
func (s *Server) EnqueueIngest(c *gin.Context) {
	if s.enqueuer == nil {
		_ = c.Error(apperrors.New(apperrors.CodeJobQueueUnavailable, "job queue is not configured", http.StatusServiceUnavailable))
		return
	}

	var req enqueueIngestRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		_ = c.Error(apperrors.ErrInvalidIngestParams(err))
		return
	}
	if err := req.Params.Validate(); err != nil {
		_ = c.Error(apperrors.ErrInvalidIngestParams(err))
		return
	}
	if req.Source != "" && !s.knownSource(req.Source) {
		_ = c.Error(apperrors.ErrUnknownSource(req.Source))
		return
	}

	job, err := s.enqueuer.EnqueueIngest(c.Request.Context(), req.Source, req.Params)
	if err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.CodeEnqueueFailed, "failed to enqueue ingestion", http.StatusInternalServerError))
		return
	}
	logger.Info("ingestion enqueued",
		zap.String("source", req.Source),
		zap.Int64("job_id", job.JobID),
		zap.Bool("duplicate", job.Duplicate),
	)
	c.JSON(http.StatusAccepted, job)
}

func (s *Server) knownSource(name string) bool {
	switch name {
	case domain.SourceCultureDataPortal, domain.SourceCulturalDataPortal:
		return true
	}
	return false
}

func (s *Server) ingestContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.ingestTimeout > 0 {
		return context.WithTimeout(parent, s.ingestTimeout)
	}
	return context.WithCancel(parent)
}
