package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imaker-dev/restro-backend-sub002/internal/collab"
	"github.com/imaker-dev/restro-backend-sub002/pkg/jwt"
	"github.com/imaker-dev/restro-backend-sub002/pkg/redis"
	"github.com/imaker-dev/restro-backend-sub002/pkg/response"
)

// Context keys set by JWTAuth
const (
	CtxUserID   = "user_id"
	CtxRole     = "role"
	CtxOutletID = "outlet_id"
	CtxTokenJTI = "token_jti"
	CtxTokenExp = "token_exp"
)

// JWTAuth validates the bearer access token issued by the staff identity service.
// rdb nil skips the blacklist check.
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "invalid authorization header")
			c.Abort()
			return
		}

		if !authenticate(c, jwtMgr, rdb, logger, parts[1]) {
			return
		}
		c.Next()
	}
}

// WSAuth same as JWTAuth but reads the token from the "token" query parameter,
// since browsers cannot set headers on a websocket handshake.
func WSAuth(jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			response.Unauthorized(c, 10002, "missing token")
			c.Abort()
			return
		}
		if !authenticate(c, jwtMgr, rdb, logger, token) {
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger, token string) bool {
	claims, err := jwtMgr.ParseToken(token)
	if err != nil {
		response.Unauthorized(c, 10002, "token invalid or expired")
		c.Abort()
		return false
	}

	if claims.TokenType != "access" {
		response.Unauthorized(c, 10002, "invalid token type")
		c.Abort()
		return false
	}

	if rdb != nil && claims.ID != "" {
		revoked, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID)
		if err != nil {
			// fail open: redis outage must not lock the floor out
			logger.Warn("token blacklist check failed", zap.Error(err))
		} else if revoked {
			response.Unauthorized(c, 10002, "token has been revoked")
			c.Abort()
			return false
		}
	}

	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxRole, claims.Role)
	c.Set(CtxOutletID, claims.OutletID)
	c.Set(CtxTokenJTI, claims.ID)
	if claims.ExpiresAt != nil {
		c.Set(CtxTokenExp, claims.ExpiresAt.Time)
	} else {
		c.Set(CtxTokenExp, time.Time{})
	}

	ctx := collab.WithActor(c.Request.Context(), collab.Actor{
		ID:       claims.UserID,
		Role:     claims.Role,
		OutletID: claims.OutletID,
	})
	ctx = collab.WithBearer(ctx, token)
	c.Request = c.Request.WithContext(ctx)
	return true
}

// RoleAuth allows only the listed roles
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(CtxRole)
		if role == "" {
			response.Unauthorized(c, 10002, "unauthenticated")
			c.Abort()
			return
		}

		for _, r := range allowedRoles {
			if role == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "insufficient permissions")
		c.Abort()
	}
}
