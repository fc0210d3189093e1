package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imaker-dev/restro-backend-sub002/internal/dto"
	"github.com/imaker-dev/restro-backend-sub002/internal/service"
	"github.com/imaker-dev/restro-backend-sub002/pkg/response"
)

// MergeHandler merge group endpoints
type MergeHandler struct {
	mergeSvc service.MergeService
	logger   *zap.Logger
}

// NewMergeHandler creates a MergeHandler
func NewMergeHandler(mergeSvc service.MergeService, logger *zap.Logger) *MergeHandler {
	return &MergeHandler{mergeSvc: mergeSvc, logger: logger}
}

// MergeTables POST /api/v1/tables/:id/merge; :id is the primary
func (h *MergeHandler) MergeTables(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.MergeTablesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	group, err := h.mergeSvc.Merge(c.Request.Context(), c.Param("id"), &req, actorID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.Created(c, group)
}

// UnmergeTables POST /api/v1/tables/:id/unmerge; :id may be the primary or any secondary
func (h *MergeHandler) UnmergeTables(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.mergeSvc.Unmerge(c.Request.Context(), c.Param("id"), actorID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, result)
}

// GetMergedTables GET /api/v1/tables/:id/merged
func (h *MergeHandler) GetMergedTables(c *gin.Context) {
	group, err := h.mergeSvc.GetMergedTables(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, group)
}

// AuditCapacity GET /api/v1/outlets/:outlet_id/capacity-audit
func (h *MergeHandler) AuditCapacity(c *gin.Context) {
	outletID := c.Param("outlet_id")
	if !CheckOutlet(c, outletID) {
		return
	}

	audit, err := h.mergeSvc.AuditCapacity(c.Request.Context(), outletID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, audit)
}
