package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imaker-dev/restro-backend-sub002/internal/dto"
	"github.com/imaker-dev/restro-backend-sub002/internal/service"
	"github.com/imaker-dev/restro-backend-sub002/pkg/response"
)

const (
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	reportDefaultDays = 30
)

// ReportHandler usage report endpoints
type ReportHandler struct {
	reportSvc service.ReportService
	logger    *zap.Logger
}

// NewReportHandler creates a ReportHandler
func NewReportHandler(reportSvc service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc, logger: logger}
}

func (h *ReportHandler) bindRange(c *gin.Context) (service.DateRange, bool) {
	var req dto.DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return service.DateRange{}, false
	}
	rng, err := h.reportSvc.ResolveRange(req.From, req.To, reportDefaultDays)
	if err != nil {
		writeError(c, h.logger, err)
		return service.DateRange{}, false
	}
	return rng, true
}

// GetTableReport GET /api/v1/tables/:id/report?from=&to=
func (h *ReportHandler) GetTableReport(c *gin.Context) {
	rng, ok := h.bindRange(c)
	if !ok {
		return
	}
	report, err := h.reportSvc.GetTableReport(c.Request.Context(), c.Param("id"), rng)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, report)
}

// GetFloorReport GET /api/v1/floors/:id/report?from=&to=
func (h *ReportHandler) GetFloorReport(c *gin.Context) {
	rng, ok := h.bindRange(c)
	if !ok {
		return
	}
	report, err := h.reportSvc.GetFloorReport(c.Request.Context(), c.Param("id"), rng)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, report)
}

// ExportFloorReport GET /api/v1/floors/:id/report/export?from=&to=
func (h *ReportHandler) ExportFloorReport(c *gin.Context) {
	rng, ok := h.bindRange(c)
	if !ok {
		return
	}
	buf, filename, err := h.reportSvc.ExportFloorReport(c.Request.Context(), c.Param("id"), rng)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	response.Attachment(c, xlsxContentType, filename, buf.Bytes())
}
