package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/imaker-dev/restro-backend-sub002/internal/model"
)

// HistoryRepository append-only table history; no update or delete
type HistoryRepository interface {
	Create(ctx context.Context, entry *model.TableHistory) error
	BatchCreate(ctx context.Context, entries []model.TableHistory) error
	ListRecent(ctx context.Context, tableID string, limit int) ([]model.TableHistory, error)
	CountByEvent(ctx context.Context, tableID, eventType string, from, to time.Time) (int64, error)
}

type historyRepo struct {
	db *gorm.DB
}

func NewHistoryRepo(db *gorm.DB) HistoryRepository {
	return &historyRepo{db: db}
}

func (r *historyRepo) Create(ctx context.Context, entry *model.TableHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *historyRepo) BatchCreate(ctx context.Context, entries []model.TableHistory) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

// ListRecent newest first
func (r *historyRepo) ListRecent(ctx context.Context, tableID string, limit int) ([]model.TableHistory, error) {
	var entries []model.TableHistory
	err := r.db.WithContext(ctx).
		Where("table_id = ?", tableID).
		Order("history_id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *historyRepo) CountByEvent(ctx context.Context, tableID, eventType string, from, to time.Time) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&model.TableHistory{}).
		Where("table_id = ? AND event_type = ?", tableID, eventType)
	if !from.IsZero() {
		query = query.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("created_at < ?", to)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}
