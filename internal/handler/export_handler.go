package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/bedriftssok/internal/dto"
	"github.com/octobees/bedriftssok/internal/export"
	"github.com/octobees/bedriftssok/internal/logger"
	middleware "github.com/octobees/bedriftssok/internal/middleware"
)

// ExportHandler renders posted rows as downloadable files.
type ExportHandler struct {
	log *zap.Logger
}

// NewExportHandler constructs an export handler.
func NewExportHandler(log *zap.Logger) *ExportHandler {
	return &ExportHandler{log: logger.OrNop(log)}
}

// Export handles POST /api/export/:format where format is csv or xlsx.
func (h *ExportHandler) Export(c echo.Context) error {
	format, err := export.ParseFormat(c.Param("format"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "Unsupported export format", err.Error())
	}

	var req dto.ExportRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "Invalid export payload", errorDetails(err))
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, req.Data); err != nil {
		h.log.Error("export failed",
			zap.String("request_id", middleware.RequestIDFromContext(c)),
			zap.String("format", string(format)),
			zap.Error(err),
		)
		return Error(c, http.StatusInternalServerError, "Failed to export data", err.Error())
	}

	name := export.Filename(req.Filename, format)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, format.ContentType(), buf.Bytes())
}
