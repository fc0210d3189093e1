package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/imaker-dev/restro-backend-sub002/internal/model"
)

// ShiftRepository floor day-session data access
type ShiftRepository interface {
	Create(ctx context.Context, shift *model.ShiftSession) error
	GetOpen(ctx context.Context, outletID, floorID, businessDate string) (*model.ShiftSession, error)
	GetLatestByFloor(ctx context.Context, floorID string) (*model.ShiftSession, error)
	Close(ctx context.Context, shiftID, closedBy string, at time.Time) error
}

type shiftRepo struct {
	db *gorm.DB
}

func NewShiftRepo(db *gorm.DB) ShiftRepository {
	return &shiftRepo{db: db}
}

func (r *shiftRepo) Create(ctx context.Context, shift *model.ShiftSession) error {
	return r.db.WithContext(ctx).Create(shift).Error
}

func (r *shiftRepo) GetOpen(ctx context.Context, outletID, floorID, businessDate string) (*model.ShiftSession, error) {
	var shift model.ShiftSession
	err := r.db.WithContext(ctx).
		Where("outlet_id = ? AND floor_id = ? AND business_date = ? AND status = ?",
			outletID, floorID, businessDate, model.ShiftStatusOpen).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) GetLatestByFloor(ctx context.Context, floorID string) (*model.ShiftSession, error) {
	var shift model.ShiftSession
	err := r.db.WithContext(ctx).
		Where("floor_id = ?", floorID).
		Order("opened_at DESC").
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) Close(ctx context.Context, shiftID, closedBy string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.ShiftSession{}).
		Where("shift_id = ? AND status = ?", shiftID, model.ShiftStatusOpen).
		Updates(map[string]interface{}{
			"status":    model.ShiftStatusClosed,
			"closed_by": closedBy,
			"closed_at": at,
		}).Error
}
