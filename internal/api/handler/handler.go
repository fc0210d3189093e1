package handler

import (
	"go.uber.org/zap"

	"github.com/imaker-dev/restro-backend-sub002/internal/service"
)

// Handler aggregate of all HTTP handlers
type Handler struct {
	Table   *TableHandler
	Session *SessionHandler
	Merge   *MergeHandler
	Floor   *FloorHandler
	Shift   *ShiftHandler
	Report  *ReportHandler
	WS      *WSHandler
	Scope   *ScopeHandler
}

// NewHandler creates the handler aggregate. hub may be nil when realtime is disabled.
func NewHandler(svc *service.Service, hub FloorHub, logger *zap.Logger) *Handler {
	return &Handler{
		Table:   NewTableHandler(svc.Table, svc.Projection, logger),
		Session: NewSessionHandler(svc.Session, svc.Report, logger),
		Merge:   NewMergeHandler(svc.Merge, logger),
		Floor:   NewFloorHandler(svc.Floor, svc.Projection, logger),
		Shift:   NewShiftHandler(svc.Shift, logger),
		Report:  NewReportHandler(svc.Report, logger),
		WS:      NewWSHandler(svc.Floor, hub, logger),
		Scope:   NewScopeHandler(svc.Scope, logger),
	}
}
