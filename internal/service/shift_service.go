package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/imaker-dev/restro-backend-sub002/internal/dto"
	"github.com/imaker-dev/restro-backend-sub002/internal/model"
	"github.com/imaker-dev/restro-backend-sub002/internal/repository"
)

// ShiftService floor day-sessions. Also serves as the default ShiftLookup.
type ShiftService interface {
	ShiftLookup
	Open(ctx context.Context, floorID, actorID string) (*dto.ShiftResponse, error)
	Close(ctx context.Context, floorID, actorID string) (*dto.ShiftResponse, error)
	Status(ctx context.Context, floorID string) (*dto.ShiftStatusResponse, error)
}

type shiftService struct {
	repo     *repository.Repository
	loc      *time.Location
	now      func() time.Time
	notifier *notifier
	logger   *zap.Logger
}

// NewShiftService creates a ShiftService; business dates are computed in loc.
// Open and close drop the floor's cached view, which carries shift_open.
func NewShiftService(repo *repository.Repository, loc *time.Location, n *notifier, logger *zap.Logger) ShiftService {
	if loc == nil {
		loc = time.UTC
	}
	return &shiftService{repo: repo, loc: loc, now: time.Now, notifier: n, logger: logger}
}

func (s *shiftService) today() string {
	return s.now().In(s.loc).Format(businessDateLayout)
}

// ────────────────────── IsShiftOpen ──────────────────────

func (s *shiftService) IsShiftOpen(ctx context.Context, outletID, floorID, localDate string) (bool, error) {
	_, err := s.repo.Shift.GetOpen(ctx, outletID, floorID, localDate)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		s.logger.Error("shift lookup failed", zap.String("floor_id", floorID), zap.Error(err))
		return false, err
	}
	return true, nil
}

// ────────────────────── Open ──────────────────────

func (s *shiftService) Open(ctx context.Context, floorID, actorID string) (*dto.ShiftResponse, error) {
	floor, err := s.loadFloor(ctx, floorID)
	if err != nil {
		return nil, err
	}

	date := s.today()
	if _, err := s.repo.Shift.GetOpen(ctx, floor.OutletID, floor.FloorID, date); err == nil {
		return nil, ErrShiftAlreadyOpen.Withf("Shift already open for %s on %s", floor.Name, date)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("shift lookup failed", zap.String("floor_id", floorID), zap.Error(err))
		return nil, err
	}

	shift := &model.ShiftSession{
		OutletID:     floor.OutletID,
		FloorID:      floor.FloorID,
		BusinessDate: date,
		Status:       model.ShiftStatusOpen,
		OpenedBy:     actorID,
		OpenedAt:     s.now().UTC(),
	}
	if err := s.repo.Shift.Create(ctx, shift); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrShiftAlreadyOpen.Withf("Shift already open for %s on %s", floor.Name, date)
		}
		s.logger.Error("open shift failed", zap.String("floor_id", floorID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("shift opened",
		zap.String("floor_id", floorID),
		zap.String("business_date", date),
		zap.String("actor_id", actorID))
	s.notifier.floorChanged(ctx, floor.OutletID, floor.FloorID, model.EventShiftOpened, actorID, map[string]interface{}{
		"shift_id":      shift.ShiftID,
		"business_date": date,
	})
	return toShiftResponse(shift), nil
}

// ────────────────────── Close ──────────────────────

func (s *shiftService) Close(ctx context.Context, floorID, actorID string) (*dto.ShiftResponse, error) {
	floor, err := s.loadFloor(ctx, floorID)
	if err != nil {
		return nil, err
	}

	date := s.today()
	shift, err := s.repo.Shift.GetOpen(ctx, floor.OutletID, floor.FloorID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotOpen.Withf("No open shift for %s on %s", floor.Name, date)
		}
		s.logger.Error("shift lookup failed", zap.String("floor_id", floorID), zap.Error(err))
		return nil, err
	}

	now := s.now().UTC()
	if err := s.repo.Shift.Close(ctx, shift.ShiftID, actorID, now); err != nil {
		s.logger.Error("close shift failed", zap.String("shift_id", shift.ShiftID), zap.Error(err))
		return nil, err
	}
	shift.Status = model.ShiftStatusClosed
	shift.ClosedBy = &actorID
	shift.ClosedAt = &now

	s.logger.Info("shift closed",
		zap.String("floor_id", floorID),
		zap.String("business_date", date),
		zap.String("actor_id", actorID))
	s.notifier.floorChanged(ctx, floor.OutletID, floor.FloorID, model.EventShiftClosed, actorID, map[string]interface{}{
		"shift_id":      shift.ShiftID,
		"business_date": date,
	})
	return toShiftResponse(shift), nil
}

// ────────────────────── Status ──────────────────────

func (s *shiftService) Status(ctx context.Context, floorID string) (*dto.ShiftStatusResponse, error) {
	floor, err := s.loadFloor(ctx, floorID)
	if err != nil {
		return nil, err
	}

	date := s.today()
	resp := &dto.ShiftStatusResponse{FloorID: floor.FloorID, BusinessDate: date}

	shift, err := s.repo.Shift.GetOpen(ctx, floor.OutletID, floor.FloorID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return resp, nil
		}
		s.logger.Error("shift lookup failed", zap.String("floor_id", floorID), zap.Error(err))
		return nil, err
	}
	resp.IsOpen = true
	resp.Shift = toShiftResponse(shift)
	return resp, nil
}

func (s *shiftService) loadFloor(ctx context.Context, floorID string) (*model.Floor, error) {
	floor, err := s.repo.Floor.GetByID(ctx, floorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFloorNotFound
		}
		s.logger.Error("load floor failed", zap.String("floor_id", floorID), zap.Error(err))
		return nil, err
	}
	return floor, nil
}

func toShiftResponse(shift *model.ShiftSession) *dto.ShiftResponse {
	resp := &dto.ShiftResponse{
		ShiftID:      shift.ShiftID,
		OutletID:     shift.OutletID,
		FloorID:      shift.FloorID,
		BusinessDate: shift.BusinessDate,
		Status:       shift.Status,
		OpenedBy:     shift.OpenedBy,
		OpenedAt:     formatTime(shift.OpenedAt),
		ClosedBy:     shift.ClosedBy,
	}
	if shift.ClosedAt != nil {
		closed := formatTime(*shift.ClosedAt)
		resp.ClosedAt = &closed
	}
	return resp
}
