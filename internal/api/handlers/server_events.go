package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"archive.alpha.io/archive/internal/domain"
	apperrors "archive.alpha.io/archive/internal/pkg/errors"
)

type listEventsQuery struct {
	Cursor   string `form:"cursor"`
	Size     int    `form:"size"`
	Location string `form:"location"`
	Title    string `form:"title"`
	Category string `form:"category"`
}

// ListPublicEvents handles GET /public-events.
func (s *Server) ListPublicEvents(c *gin.Context) {
	var q listEventsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.CodeInvalidQuery, "invalid query parameters", http.StatusBadRequest))
		return
	}
	if q.Size < 0 {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeInvalidQuery, "size must not be negative"))
		return
	}

	filter := domain.ListFilter{
		Cursor:   q.Cursor,
		Size:     q.Size,
		Location: q.Location,
		Title:    q.Title,
	}
	if q.Category != "" {
		cat, ok := domain.ParseCategory(q.Category)
		if !ok {
			_ = c.Error(apperrors.BadRequest(apperrors.CodeInvalidQuery, "unknown category: "+q.Category).
				WithParams(map[string]interface{}{"category": q.Category}))
			return
		}
		filter.Category = cat
	}

	page, err := s.events.ListActive(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toPublicEventPage(page))
}

// GetPublicEvent handles GET /public-events/:id.
func (s *Server) GetPublicEvent(c *gin.Context) {
	e, err := s.events.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toPublicEvent(e))
}
