package service

import (
	"go.uber.org/zap"

	"github.com/imaker-dev/restro-backend-sub002/config"
	"github.com/imaker-dev/restro-backend-sub002/internal/repository"
)

// Deps collaborator ports; nil entries fall back to no-op adapters
// (ShiftLookup falls back to the local shift_sessions table).
type Deps struct {
	Shifts      ShiftLookup
	Orders      OrderLookup
	Billing     BillingLookup
	Permissions PermissionChecker
	Broadcaster Broadcaster
	Cache       Cache
}

// Service aggregate of all services
type Service struct {
	Floor      FloorService
	Shift      ShiftService
	Table      TableService
	Session    SessionService
	Merge      MergeService
	Projection ProjectionService
	Report     ReportService
	Scope      OutletScope
}

// NewService wires the services
func NewService(cfg *config.Config, repo *repository.Repository, deps Deps, logger *zap.Logger) *Service {
	floorCfg := &cfg.Floor
	loc := floorCfg.Location()

	if deps.Orders == nil {
		deps.Orders = noopOrders{}
	}
	if deps.Billing == nil {
		deps.Billing = noopBilling{}
	}
	if deps.Permissions == nil {
		deps.Permissions = denyAll{}
	}
	if deps.Broadcaster == nil {
		deps.Broadcaster = noopBroadcaster{}
	}
	if deps.Cache == nil {
		deps.Cache = noopCache{}
	}

	n := newNotifier(deps.Broadcaster, deps.Cache, logger)
	shiftSvc := NewShiftService(repo, loc, n, logger)
	if deps.Shifts == nil {
		deps.Shifts = shiftSvc
	}
	gate := NewShiftGate(deps.Shifts, loc)

	return &Service{
		Floor:      NewFloorService(repo, logger),
		Shift:      shiftSvc,
		Table:      NewTableService(repo, n, deps.Cache, floorCfg, logger),
		Session:    NewSessionService(repo, gate, deps.Permissions, n, logger),
		Merge:      NewMergeService(repo, n, logger),
		Projection: NewProjectionService(repo, gate, deps.Orders, deps.Billing, deps.Cache, floorCfg, logger),
		Report:     NewReportService(repo, loc, logger),
		Scope:      NewOutletScope(repo, logger),
	}
}
