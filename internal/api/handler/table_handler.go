package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imaker-dev/restro-backend-sub002/internal/dto"
	"github.com/imaker-dev/restro-backend-sub002/internal/service"
	"github.com/imaker-dev/restro-backend-sub002/pkg/response"
)

// TableHandler table registry and status endpoints
type TableHandler struct {
	tableSvc      service.TableService
	projectionSvc service.ProjectionService
	logger        *zap.Logger
}

// NewTableHandler creates a TableHandler
func NewTableHandler(tableSvc service.TableService, projectionSvc service.ProjectionService, logger *zap.Logger) *TableHandler {
	return &TableHandler{tableSvc: tableSvc, projectionSvc: projectionSvc, logger: logger}
}

// CreateTable POST /api/v1/tables
func (h *TableHandler) CreateTable(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if !CheckOutlet(c, req.OutletID) {
		return
	}

	table, err := h.tableSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.Created(c, table)
}

// ListTables GET /api/v1/tables?outlet_id=&floor_id=&section_id=&status=
func (h *TableHandler) ListTables(c *gin.Context) {
	var req dto.TableListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}
	if !CheckOutlet(c, req.OutletID) {
		return
	}

	tables, err := h.tableSvc.List(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"list": tables})
}

// GetTable GET /api/v1/tables/:id
func (h *TableHandler) GetTable(c *gin.Context) {
	table, err := h.tableSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if !CheckOutlet(c, table.OutletID) {
		return
	}
	response.OK(c, table)
}

// UpdateTable PUT /api/v1/tables/:id
func (h *TableHandler) UpdateTable(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.UpdateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	table, err := h.tableSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, table)
}

// DeleteTable DELETE /api/v1/tables/:id
func (h *TableHandler) DeleteTable(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	if err := h.tableSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, nil)
}

// UpdateStatus PUT /api/v1/tables/:id/status
func (h *TableHandler) UpdateStatus(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	table, err := h.tableSvc.UpdateStatus(c.Request.Context(), c.Param("id"), &req, actorID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, table)
}

// GetHistory GET /api/v1/tables/:id/history?limit=
func (h *TableHandler) GetHistory(c *gin.Context) {
	var req dto.HistoryListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	history, err := h.tableSvc.GetHistory(c.Request.Context(), c.Param("id"), req.Limit)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"list": history})
}

// GetDetails GET /api/v1/tables/:id/details
func (h *TableHandler) GetDetails(c *gin.Context) {
	details, err := h.projectionSvc.GetFullDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, details)
}
