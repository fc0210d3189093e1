package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imaker-dev/restro-backend-sub002/internal/service"
	"github.com/imaker-dev/restro-backend-sub002/pkg/response"
)

// ShiftHandler floor day-session endpoints
type ShiftHandler struct {
	shiftSvc service.ShiftService
	logger   *zap.Logger
}

// NewShiftHandler creates a ShiftHandler
func NewShiftHandler(shiftSvc service.ShiftService, logger *zap.Logger) *ShiftHandler {
	return &ShiftHandler{shiftSvc: shiftSvc, logger: logger}
}

// OpenShift POST /api/v1/floors/:id/shift/open
func (h *ShiftHandler) OpenShift(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	shift, err := h.shiftSvc.Open(c.Request.Context(), c.Param("id"), actorID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.Created(c, shift)
}

// CloseShift POST /api/v1/floors/:id/shift/close
func (h *ShiftHandler) CloseShift(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	shift, err := h.shiftSvc.Close(c.Request.Context(), c.Param("id"), actorID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, shift)
}

// GetShift GET /api/v1/floors/:id/shift
func (h *ShiftHandler) GetShift(c *gin.Context) {
	status, err := h.shiftSvc.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, status)
}
