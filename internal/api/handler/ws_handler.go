package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imaker-dev/restro-backend-sub002/internal/api/middleware"
	"github.com/imaker-dev/restro-backend-sub002/internal/realtime"
	"github.com/imaker-dev/restro-backend-sub002/internal/service"
	"github.com/imaker-dev/restro-backend-sub002/pkg/response"
)

// FloorHub joins a websocket connection to a floor room
type FloorHub interface {
	ServeWS(w http.ResponseWriter, r *http.Request, room string) error
}

// WSHandler realtime floor subscription
type WSHandler struct {
	floorSvc service.FloorService
	hub      FloorHub
	logger   *zap.Logger
}

// NewWSHandler creates a WSHandler
func NewWSHandler(floorSvc service.FloorService, hub FloorHub, logger *zap.Logger) *WSHandler {
	return &WSHandler{floorSvc: floorSvc, hub: hub, logger: logger}
}

// SubscribeFloor GET /api/v1/ws/floors/:floor_id?outlet_id=&token=
func (h *WSHandler) SubscribeFloor(c *gin.Context) {
	if h.hub == nil {
		response.Error(c, http.StatusServiceUnavailable, 50001, "realtime updates are disabled")
		return
	}

	floor, err := h.floorSvc.GetByID(c.Request.Context(), c.Param("floor_id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if outletID := c.Query("outlet_id"); outletID != "" && outletID != floor.OutletID {
		response.BadRequest(c, 10001, "floor does not belong to this outlet")
		return
	}
	if !CheckOutlet(c, floor.OutletID) {
		return
	}

	room := realtime.RoomKey(floor.OutletID, floor.FloorID)
	if err := h.hub.ServeWS(c.Writer, c.Request, room); err != nil {
		// the upgrader has already written the error response
		h.logger.Warn("websocket upgrade failed",
			zap.String("room", room),
			zap.String("user_id", c.GetString(middleware.CtxUserID)),
			zap.Error(err),
		)
	}
}
