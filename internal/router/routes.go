package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/octobees/bedriftssok/internal/config"
	"github.com/octobees/bedriftssok/internal/handler"
	middlewarepkg "github.com/octobees/bedriftssok/internal/middleware"
)

const scrapePhonePath = "/api/scrape-phone"

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Phone  *handler.PhoneHandler
	Search *handler.SearchHandler
	Export *handler.ExportHandler
}

// Register wires all HTTP routes for the API. Metrics are served from gatherer;
// a nil gatherer falls back to the default prometheus registry.
func Register(e *echo.Echo, cfg *config.Config, gatherer prometheus.Gatherer, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := e.Group("/api")
	if handlers.Phone != nil {
		api.POST("/scrape-phone", handlers.Phone.ScrapePhone, middlewarepkg.RateLimiter(cfg.RateLimitScrape, scrapePhonePath))
	}
	if handlers.Search != nil {
		api.POST("/search", handlers.Search.Search)
	}
	if handlers.Export != nil {
		api.POST("/export/:format", handlers.Export.Export)
	}
}
