package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/imaker-dev/restro-backend-sub002/internal/model"
)

// MergeRepository table merge record data access
type MergeRepository interface {
	Create(ctx context.Context, merge *model.TableMerge) error
	ListActiveByPrimary(ctx context.Context, primaryID string) ([]model.TableMerge, error)
	GetActiveBySecondary(ctx context.Context, secondaryID string) (*model.TableMerge, error)
	CountActiveByPrimary(ctx context.Context, primaryID string) (int64, error)
	ListActiveByTables(ctx context.Context, tableIDs []string) ([]model.TableMerge, error)
	ListActiveByOutlet(ctx context.Context, outletID string) ([]model.TableMerge, error)
	CountByPrimarySince(ctx context.Context, primaryID string, from, to time.Time) (int64, error)
	MarkUnmerged(ctx context.Context, mergeIDs []string, unmergedBy string, at time.Time) error
}

type mergeRepo struct {
	db *gorm.DB
}

func NewMergeRepo(db *gorm.DB) MergeRepository {
	return &mergeRepo{db: db}
}

func (r *mergeRepo) Create(ctx context.Context, merge *model.TableMerge) error {
	return r.db.WithContext(ctx).Omit("Primary", "Secondary").Create(merge).Error
}

func (r *mergeRepo) ListActiveByPrimary(ctx context.Context, primaryID string) ([]model.TableMerge, error) {
	var merges []model.TableMerge
	err := r.db.WithContext(ctx).
		Preload("Secondary").
		Where("primary_table_id = ? AND unmerged_at IS NULL", primaryID).
		Order("merged_at ASC, secondary_table_id ASC").
		Find(&merges).Error
	return merges, err
}

func (r *mergeRepo) GetActiveBySecondary(ctx context.Context, secondaryID string) (*model.TableMerge, error) {
	var merge model.TableMerge
	err := r.db.WithContext(ctx).
		Where("secondary_table_id = ? AND unmerged_at IS NULL", secondaryID).
		First(&merge).Error
	if err != nil {
		return nil, err
	}
	return &merge, nil
}

func (r *mergeRepo) CountActiveByPrimary(ctx context.Context, primaryID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.TableMerge{}).
		Where("primary_table_id = ? AND unmerged_at IS NULL", primaryID).
		Count(&count).Error
	return count, err
}

// ListActiveByTables active records touching any of the tables, as primary or secondary
func (r *mergeRepo) ListActiveByTables(ctx context.Context, tableIDs []string) ([]model.TableMerge, error) {
	var merges []model.TableMerge
	if len(tableIDs) == 0 {
		return merges, nil
	}
	err := r.db.WithContext(ctx).
		Where("unmerged_at IS NULL AND (primary_table_id IN ? OR secondary_table_id IN ?)", tableIDs, tableIDs).
		Find(&merges).Error
	return merges, err
}

func (r *mergeRepo) ListActiveByOutlet(ctx context.Context, outletID string) ([]model.TableMerge, error) {
	var merges []model.TableMerge
	err := r.db.WithContext(ctx).
		Joins("JOIN tables ON tables.table_id = table_merges.primary_table_id").
		Where("tables.outlet_id = ? AND table_merges.unmerged_at IS NULL", outletID).
		Find(&merges).Error
	return merges, err
}

func (r *mergeRepo) CountByPrimarySince(ctx context.Context, primaryID string, from, to time.Time) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&model.TableMerge{}).
		Where("primary_table_id = ?", primaryID)
	if !from.IsZero() {
		query = query.Where("merged_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("merged_at < ?", to)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *mergeRepo) MarkUnmerged(ctx context.Context, mergeIDs []string, unmergedBy string, at time.Time) error {
	if len(mergeIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.TableMerge{}).
		Where("merge_id IN ? AND unmerged_at IS NULL", mergeIDs).
		Updates(map[string]interface{}{
			"unmerged_by": unmergedBy,
			"unmerged_at": at,
		}).Error
}
