package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/bedriftssok/internal/discovery"
	"github.com/octobees/bedriftssok/internal/dto"
	"github.com/octobees/bedriftssok/internal/logger"
	middleware "github.com/octobees/bedriftssok/internal/middleware"
)

const scrapePhoneFailed = "Failed to scrape phone number"

// PhoneDiscoverer finds a phone number for a company.
type PhoneDiscoverer interface {
	Discover(ctx context.Context, req discovery.Request) discovery.Result
}

// PhoneHandler serves the phone discovery endpoint.
type PhoneHandler struct {
	discoverer PhoneDiscoverer
	log        *zap.Logger
}

// NewPhoneHandler constructs a phone handler.
func NewPhoneHandler(discoverer PhoneDiscoverer, log *zap.Logger) *PhoneHandler {
	return &PhoneHandler{discoverer: discoverer, log: logger.OrNop(log)}
}

// ScrapePhone handles POST /api/scrape-phone. Finding nothing is a 200 with
// null phoneNumber and source.
func (h *PhoneHandler) ScrapePhone(c echo.Context) error {
	var req dto.ScrapePhoneRequest
	if err := c.Bind(&req); err != nil {
		h.log.Warn("invalid scrape-phone payload",
			zap.String("request_id", middleware.RequestIDFromContext(c)),
			zap.Error(err),
		)
		return Error(c, http.StatusInternalServerError, scrapePhoneFailed, errorDetails(err))
	}

	result := h.discoverer.Discover(c.Request().Context(), discovery.Request{
		CompanyName: req.CompanyName,
		OrgNumber:   req.OrgNumber,
		Website:     req.Website,
	})

	return c.JSON(http.StatusOK, dto.ScrapePhoneResponse{
		Success:       true,
		PhoneNumber:   result.PhoneNumber,
		Source:        result.Source,
		CompanyName:   req.CompanyName,
		OrgNumber:     req.OrgNumber,
		Website:       result.Website,
		WebsiteSource: result.WebsiteSource,
	})
}

func errorDetails(err error) string {
	if he, ok := err.(*echo.HTTPError); ok {
		if he.Internal != nil {
			return he.Internal.Error()
		}
		return fmt.Sprint(he.Message)
	}
	return err.Error()
}
