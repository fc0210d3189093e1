package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imaker-dev/restro-backend-sub002/internal/api/middleware"
	"github.com/imaker-dev/restro-backend-sub002/internal/service"
)

// ScopeHandler guards /:id routes: the referenced table or floor must belong to the caller's outlet.
// Merge secondaries are held to the primary's outlet by the merge service.
type ScopeHandler struct {
	scope  service.OutletScope
	logger *zap.Logger
}

// NewScopeHandler creates a ScopeHandler
func NewScopeHandler(scope service.OutletScope, logger *zap.Logger) *ScopeHandler {
	return &ScopeHandler{scope: scope, logger: logger}
}

// Table checks the :id table
func (h *ScopeHandler) Table() gin.HandlerFunc {
	return h.check(h.scope.TableOutlet)
}

// Floor checks the :id floor
func (h *ScopeHandler) Floor() gin.HandlerFunc {
	return h.check(h.scope.FloorOutlet)
}

func (h *ScopeHandler) check(resolve func(ctx context.Context, id string) (string, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		// outlet-wide token
		if c.GetString(middleware.CtxOutletID) == "" {
			c.Next()
			return
		}

		outletID, err := resolve(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, h.logger, err)
			c.Abort()
			return
		}
		if !CheckOutlet(c, outletID) {
			c.Abort()
			return
		}
		c.Next()
	}
}
