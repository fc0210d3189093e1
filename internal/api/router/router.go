package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imaker-dev/restro-backend-sub002/config"
	"github.com/imaker-dev/restro-backend-sub002/internal/api/handler"
	"github.com/imaker-dev/restro-backend-sub002/internal/api/middleware"
	"github.com/imaker-dev/restro-backend-sub002/pkg/jwt"
	"github.com/imaker-dev/restro-backend-sub002/pkg/redis"
)

// Roles allowed to change the floor plan and read reports
var managerRoles = []string{"admin", "manager"}

// Roles allowed to open and close a floor's shift
var shiftRoles = []string{"admin", "manager", "captain"}

// Setup builds the gin engine. rdb may be nil.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	if cfg.Server.MaxBodyBytes > 0 {
		r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		// websocket handshake carries the token as a query parameter
		v1.GET("/ws/floors/:floor_id", middleware.WSAuth(jwtMgr, rdb, logger), h.WS.SubscribeFloor)

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
		authorized.Use(middleware.RateLimit(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window, logger))
		{
			tables := authorized.Group("/tables")
			{
				tables.GET("", h.Table.ListTables)
				tables.POST("", middleware.RoleAuth(managerRoles...), h.Table.CreateTable)
			}

			// every /tables/:id route is held to the caller's outlet
			table := authorized.Group("/tables/:id", h.Scope.Table())
			{
				table.GET("", h.Table.GetTable)
				table.PUT("", middleware.RoleAuth(managerRoles...), h.Table.UpdateTable)
				table.DELETE("", middleware.RoleAuth(managerRoles...), h.Table.DeleteTable)
				table.PUT("/status", h.Table.UpdateStatus)
				table.GET("/history", h.Table.GetHistory)
				table.GET("/details", h.Table.GetDetails)

				table.POST("/session/start", h.Session.StartSession)
				table.POST("/session/end", h.Session.EndSession)
				table.POST("/session/transfer", h.Session.TransferSession) // elevation checked in service
				table.GET("/session/active", h.Session.GetActiveSession)
				table.GET("/session/current", h.Session.GetCurrentSession)
				table.GET("/sessions", h.Session.ListSessions)

				table.POST("/merge", h.Merge.MergeTables)
				table.POST("/unmerge", h.Merge.UnmergeTables)
				table.GET("/merged", h.Merge.GetMergedTables)

				table.GET("/report", middleware.RoleAuth(managerRoles...), h.Report.GetTableReport)
			}

			floors := authorized.Group("/floors")
			{
				floors.GET("", h.Floor.ListFloors)
				floors.POST("", middleware.RoleAuth(managerRoles...), h.Floor.CreateFloor)
			}

			floor := authorized.Group("/floors/:id", h.Scope.Floor())
			{
				floor.GET("", h.Floor.GetFloor)
				floor.GET("/sections", h.Floor.ListSections)
				floor.POST("/sections", middleware.RoleAuth(managerRoles...), h.Floor.CreateSection)
				floor.GET("/tables", h.Floor.GetFloorTables)

				floor.GET("/shift", h.Shift.GetShift)
				floor.POST("/shift/open", middleware.RoleAuth(shiftRoles...), h.Shift.OpenShift)
				floor.POST("/shift/close", middleware.RoleAuth(shiftRoles...), h.Shift.CloseShift)

				floor.GET("/report", middleware.RoleAuth(managerRoles...), h.Report.GetFloorReport)
				floor.GET("/report/export", middleware.RoleAuth(managerRoles...), h.Report.ExportFloorReport)
			}

			authorized.GET("/outlets/:outlet_id/capacity-audit", middleware.RoleAuth(managerRoles...), h.Merge.AuditCapacity)
		}
	}

	return r
}
