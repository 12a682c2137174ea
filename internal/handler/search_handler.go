package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/bedriftssok/internal/dto"
	"github.com/octobees/bedriftssok/internal/entity"
	"github.com/octobees/bedriftssok/internal/logger"
	middleware "github.com/octobees/bedriftssok/internal/middleware"
)

const searchFailed = "Failed to search BRREG API"

// CompanySearcher queries the business registry.
type CompanySearcher interface {
	Search(ctx context.Context, filters entity.SearchFilters) (entity.SearchResult, error)
}

// SearchHandler serves registry searches.
type SearchHandler struct {
	searcher CompanySearcher
	log      *zap.Logger
}

// NewSearchHandler constructs a search handler.
func NewSearchHandler(searcher CompanySearcher, log *zap.Logger) *SearchHandler {
	return &SearchHandler{searcher: searcher, log: logger.OrNop(log)}
}

// Search handles POST /api/search.
func (h *SearchHandler) Search(c echo.Context) error {
	rid := middleware.RequestIDFromContext(c)

	var req dto.SearchRequest
	if err := c.Bind(&req); err != nil {
		h.log.Warn("invalid search payload", zap.String("request_id", rid), zap.Error(err))
		return Error(c, http.StatusInternalServerError, searchFailed, errorDetails(err))
	}

	filters := req.Filters
	filters.EnhetType = strings.ToLower(strings.TrimSpace(filters.EnhetType))
	if filters.MinAnsatte < 0 {
		filters.MinAnsatte = 0
	}

	result, err := h.searcher.Search(c.Request().Context(), filters)
	if err != nil {
		h.log.Error("registry search failed", zap.String("request_id", rid), zap.Error(err))
		return Error(c, http.StatusInternalServerError, searchFailed, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}
