package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/imaker-dev/restro-backend-sub002/internal/model"
)

// SessionRepository table session data access
type SessionRepository interface {
	Create(ctx context.Context, session *model.TableSession) error
	GetByID(ctx context.Context, id string) (*model.TableSession, error)
	GetActiveByTable(ctx context.Context, tableID string) (*model.TableSession, error)
	GetLatestByTable(ctx context.Context, tableID string) (*model.TableSession, error)
	ListActiveByTables(ctx context.Context, tableIDs []string) ([]model.TableSession, error)
	ListByTable(ctx context.Context, tableID string, from, to time.Time) ([]model.TableSession, error)
	Complete(ctx context.Context, sessionID, endedBy string, endedAt time.Time) error
	Reassign(ctx context.Context, sessionID, assignedTo string) error
	LinkOrder(ctx context.Context, sessionID, orderID string) error
}

type sessionRepo struct {
	db *gorm.DB
}

func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.TableSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.TableSession, error) {
	var session model.TableSession
	err := r.db.WithContext(ctx).Where("session_id = ?", id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) GetActiveByTable(ctx context.Context, tableID string) (*model.TableSession, error) {
	var session model.TableSession
	err := r.db.WithContext(ctx).
		Where("table_id = ? AND status = ?", tableID, model.SessionStatusActive).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetLatestByTable the most recently started session regardless of status
func (r *sessionRepo) GetLatestByTable(ctx context.Context, tableID string) (*model.TableSession, error) {
	var session model.TableSession
	err := r.db.WithContext(ctx).
		Where("table_id = ?", tableID).
		Order("started_at DESC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) ListActiveByTables(ctx context.Context, tableIDs []string) ([]model.TableSession, error) {
	var sessions []model.TableSession
	if len(tableIDs) == 0 {
		return sessions, nil
	}
	err := r.db.WithContext(ctx).
		Where("table_id IN ? AND status = ?", tableIDs, model.SessionStatusActive).
		Find(&sessions).Error
	return sessions, err
}

// ListByTable sessions started in [from, to), oldest first. Zero bounds are open.
func (r *sessionRepo) ListByTable(ctx context.Context, tableID string, from, to time.Time) ([]model.TableSession, error) {
	query := r.db.WithContext(ctx).Where("table_id = ?", tableID)
	if !from.IsZero() {
		query = query.Where("started_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("started_at < ?", to)
	}

	var sessions []model.TableSession
	err := query.Order("started_at ASC").Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepo) Complete(ctx context.Context, sessionID, endedBy string, endedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.TableSession{}).
		Where("session_id = ? AND status = ?", sessionID, model.SessionStatusActive).
		Updates(map[string]interface{}{
			"status":     model.SessionStatusCompleted,
			"ended_by":   endedBy,
			"ended_at":   endedAt,
			"updated_at": time.Now(),
		}).Error
}

func (r *sessionRepo) Reassign(ctx context.Context, sessionID, assignedTo string) error {
	return r.db.WithContext(ctx).
		Model(&model.TableSession{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"assigned_to": assignedTo,
			"updated_at":  time.Now(),
		}).Error
}

func (r *sessionRepo) LinkOrder(ctx context.Context, sessionID, orderID string) error {
	return r.db.WithContext(ctx).
		Model(&model.TableSession{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"order_id":   orderID,
			"updated_at": time.Now(),
		}).Error
}
