package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imaker-dev/restro-backend-sub002/internal/api/middleware"
	pkgerrors "github.com/imaker-dev/restro-backend-sub002/pkg/errors"
	"github.com/imaker-dev/restro-backend-sub002/pkg/response"
)

// MustGetUserID extracts the authenticated user id. On false a 401 has been written; return.
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(middleware.CtxUserID)
	if s == "" {
		response.Unauthorized(c, 10002, "unauthenticated")
		return "", false
	}
	return s, true
}

// CheckOutlet rejects access to another outlet. Tokens without an outlet claim are outlet-wide.
func CheckOutlet(c *gin.Context, outletID string) bool {
	own := c.GetString(middleware.CtxOutletID)
	if own == "" || own == outletID {
		return true
	}
	response.Forbidden(c, 10003, "no access to this outlet")
	return false
}

// bindError 400 for a request that failed binding
func bindError(c *gin.Context, err error) {
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "invalid request parameters", err.Error())
}

// writeError maps business errors by kind; anything else is logged and hidden behind 500
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	if biz, ok := pkgerrors.AsBiz(err); ok {
		switch biz.Kind {
		case pkgerrors.KindValidation:
			response.BadRequest(c, biz.Code, biz.Message)
		case pkgerrors.KindNotFound:
			response.NotFound(c, biz.Code, biz.Message)
		case pkgerrors.KindConflict:
			response.Conflict(c, biz.Code, biz.Message)
		case pkgerrors.KindPreconditionFailed:
			response.PreconditionFailed(c, biz.Code, biz.Message)
		case pkgerrors.KindForbidden:
			response.Forbidden(c, biz.Code, biz.Message)
		default:
			response.BadRequest(c, biz.Code, biz.Message)
		}
		return
	}
	if errors.Is(err, pkgerrors.ErrOptimisticLock) {
		response.Conflict(c, 20009, err.Error())
		return
	}

	_ = c.Error(err)
	logger.Error("request failed",
		zap.String("path", c.FullPath()),
		zap.String("user_id", c.GetString(middleware.CtxUserID)),
		zap.Error(err),
	)
	response.InternalError(c)
}
