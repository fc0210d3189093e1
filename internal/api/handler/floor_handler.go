package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imaker-dev/restro-backend-sub002/internal/dto"
	"github.com/imaker-dev/restro-backend-sub002/internal/service"
	"github.com/imaker-dev/restro-backend-sub002/pkg/response"
)

// FloorHandler floor, section and floor view endpoints
type FloorHandler struct {
	floorSvc      service.FloorService
	projectionSvc service.ProjectionService
	logger        *zap.Logger
}

// NewFloorHandler creates a FloorHandler
func NewFloorHandler(floorSvc service.FloorService, projectionSvc service.ProjectionService, logger *zap.Logger) *FloorHandler {
	return &FloorHandler{floorSvc: floorSvc, projectionSvc: projectionSvc, logger: logger}
}

// CreateFloor POST /api/v1/floors
func (h *FloorHandler) CreateFloor(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.CreateFloorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if !CheckOutlet(c, req.OutletID) {
		return
	}

	floor, err := h.floorSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.Created(c, floor)
}

// ListFloors GET /api/v1/floors?outlet_id=
func (h *FloorHandler) ListFloors(c *gin.Context) {
	var req dto.FloorListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}
	if !CheckOutlet(c, req.OutletID) {
		return
	}

	floors, err := h.floorSvc.List(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"list": floors})
}

// GetFloor GET /api/v1/floors/:id
func (h *FloorHandler) GetFloor(c *gin.Context) {
	floor, err := h.floorSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if !CheckOutlet(c, floor.OutletID) {
		return
	}
	response.OK(c, floor)
}

// CreateSection POST /api/v1/floors/:id/sections
func (h *FloorHandler) CreateSection(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	section, err := h.floorSvc.CreateSection(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.Created(c, section)
}

// ListSections GET /api/v1/floors/:id/sections
func (h *FloorHandler) ListSections(c *gin.Context) {
	sections, err := h.floorSvc.ListSections(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"list": sections})
}

// GetFloorTables GET /api/v1/floors/:id/tables
func (h *FloorHandler) GetFloorTables(c *gin.Context) {
	view, err := h.projectionSvc.GetTablesByFloor(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, view)
}
