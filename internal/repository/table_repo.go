package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/imaker-dev/restro-backend-sub002/internal/model"
	pkgerrors "github.com/imaker-dev/restro-backend-sub002/pkg/errors"
)

// TableFilter list filters; empty fields are ignored
type TableFilter struct {
	OutletID        string
	FloorID         string
	SectionID       string
	Status          string
	IsActive        *bool
	IncludeInactive bool
}

// TableRepository table data access
type TableRepository interface {
	Create(ctx context.Context, table *model.Table) error
	GetByID(ctx context.Context, id string) (*model.Table, error)
	GetByIDForUpdate(ctx context.Context, id string) (*model.Table, error)
	ListByIDsForUpdate(ctx context.Context, ids []string) ([]model.Table, error)
	GetByOutletAndNumber(ctx context.Context, outletID, tableNumber string) (*model.Table, error)
	List(ctx context.Context, filter TableFilter) ([]model.Table, error)
	ListByFloor(ctx context.Context, floorID string) ([]model.Table, error)
	Update(ctx context.Context, table *model.Table) error
	UpdateStatus(ctx context.Context, id, status, actorID string) error
	SetCapacity(ctx context.Context, id string, capacity int) error
	SaveLayout(ctx context.Context, layout *model.TableLayout) error
	SoftDelete(ctx context.Context, id, deletedBy string) error
}

type tableRepo struct {
	db *gorm.DB
}

func NewTableRepo(db *gorm.DB) TableRepository {
	return &tableRepo{db: db}
}

func (r *tableRepo) Create(ctx context.Context, table *model.Table) error {
	return r.db.WithContext(ctx).Omit("Floor", "Section").Create(table).Error
}

func (r *tableRepo) GetByID(ctx context.Context, id string) (*model.Table, error) {
	var table model.Table
	err := r.db.WithContext(ctx).
		Preload("Floor").Preload("Section").Preload("Layout").
		Where("table_id = ?", id).
		First(&table).Error
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *tableRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Table, error) {
	var table model.Table
	err := forUpdate(r.db.WithContext(ctx)).
		Where("table_id = ?", id).
		First(&table).Error
	if err != nil {
		return nil, err
	}
	return &table, nil
}

// ListByIDsForUpdate locks rows in table_id order so concurrent batches cannot deadlock
func (r *tableRepo) ListByIDsForUpdate(ctx context.Context, ids []string) ([]model.Table, error) {
	var tables []model.Table
	if len(ids) == 0 {
		return tables, nil
	}
	err := forUpdate(r.db.WithContext(ctx)).
		Where("table_id IN ?", ids).
		Order("table_id ASC").
		Find(&tables).Error
	return tables, err
}

func (r *tableRepo) GetByOutletAndNumber(ctx context.Context, outletID, tableNumber string) (*model.Table, error) {
	var table model.Table
	err := r.db.WithContext(ctx).
		Where("outlet_id = ? AND table_number = ?", outletID, tableNumber).
		First(&table).Error
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *tableRepo) List(ctx context.Context, filter TableFilter) ([]model.Table, error) {
	query := r.db.WithContext(ctx).
		Preload("Floor").Preload("Section").Preload("Layout").
		Model(&model.Table{})

	if filter.OutletID != "" {
		query = query.Where("outlet_id = ?", filter.OutletID)
	}
	if filter.FloorID != "" {
		query = query.Where("floor_id = ?", filter.FloorID)
	}
	if filter.SectionID != "" {
		query = query.Where("section_id = ?", filter.SectionID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	} else if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}

	var tables []model.Table
	err := query.Order("display_order ASC, table_number ASC").Find(&tables).Error
	return tables, err
}

func (r *tableRepo) ListByFloor(ctx context.Context, floorID string) ([]model.Table, error) {
	var tables []model.Table
	err := r.db.WithContext(ctx).
		Preload("Section").Preload("Layout").
		Where("floor_id = ? AND is_active = ?", floorID, true).
		Order("display_order ASC, table_number ASC").
		Find(&tables).Error
	return tables, err
}

// Update writes registry fields under the optimistic lock. Status and capacity have their own paths.
func (r *tableRepo) Update(ctx context.Context, table *model.Table) error {
	oldVersion := table.Version
	result := r.db.WithContext(ctx).
		Model(&model.Table{}).
		Where("table_id = ? AND version = ?", table.TableID, oldVersion).
		Updates(map[string]interface{}{
			"floor_id":      table.FloorID,
			"section_id":    table.SectionID,
			"table_number":  table.TableNumber,
			"name":          table.Name,
			"base_capacity": table.BaseCapacity,
			"capacity":      table.Capacity,
			"min_capacity":  table.MinCapacity,
			"shape":         table.Shape,
			"is_mergeable":  table.IsMergeable,
			"is_splittable": table.IsSplittable,
			"display_order": table.DisplayOrder,
			"is_active":     table.IsActive,
			"updated_by":    table.UpdatedBy,
			"updated_at":    time.Now(),
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	table.Version = oldVersion + 1
	return nil
}

func (r *tableRepo) UpdateStatus(ctx context.Context, id, status, actorID string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
		"version":    gorm.Expr("version + 1"),
	}
	if actorID != "" {
		updates["updated_by"] = actorID
	}
	return r.db.WithContext(ctx).
		Model(&model.Table{}).
		Where("table_id = ?", id).
		Updates(updates).Error
}

func (r *tableRepo) SetCapacity(ctx context.Context, id string, capacity int) error {
	return r.db.WithContext(ctx).
		Model(&model.Table{}).
		Where("table_id = ?", id).
		Updates(map[string]interface{}{
			"capacity":   capacity,
			"updated_at": time.Now(),
			"version":    gorm.Expr("version + 1"),
		}).Error
}

func (r *tableRepo) SaveLayout(ctx context.Context, layout *model.TableLayout) error {
	layout.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "table_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"pos_x", "pos_y", "width", "height", "rotation", "updated_at"}),
		}).
		Create(layout).Error
}

func (r *tableRepo) SoftDelete(ctx context.Context, id, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Table{}).
		Where("table_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_at": time.Now(),
			"deleted_by": deletedBy,
			"is_active":  false,
		}).Error
}
