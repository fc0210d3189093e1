package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/imaker-dev/restro-backend-sub002/internal/model"
)

// FloorRepository floor data access
type FloorRepository interface {
	Create(ctx context.Context, floor *model.Floor) error
	GetByID(ctx context.Context, id string) (*model.Floor, error)
	ListByOutlet(ctx context.Context, outletID string) ([]model.Floor, error)
}

// SectionRepository section data access
type SectionRepository interface {
	Create(ctx context.Context, section *model.Section) error
	GetByID(ctx context.Context, id string) (*model.Section, error)
	ListByFloor(ctx context.Context, floorID string) ([]model.Section, error)
}

// ── Floor ──

type floorRepo struct {
	db *gorm.DB
}

func NewFloorRepo(db *gorm.DB) FloorRepository {
	return &floorRepo{db: db}
}

func (r *floorRepo) Create(ctx context.Context, floor *model.Floor) error {
	return r.db.WithContext(ctx).Create(floor).Error
}

func (r *floorRepo) GetByID(ctx context.Context, id string) (*model.Floor, error) {
	var floor model.Floor
	err := r.db.WithContext(ctx).Where("floor_id = ?", id).First(&floor).Error
	if err != nil {
		return nil, err
	}
	return &floor, nil
}

func (r *floorRepo) ListByOutlet(ctx context.Context, outletID string) ([]model.Floor, error) {
	var floors []model.Floor
	err := r.db.WithContext(ctx).
		Where("outlet_id = ?", outletID).
		Order("display_order ASC, name ASC").
		Find(&floors).Error
	return floors, err
}

// ── Section ──

type sectionRepo struct {
	db *gorm.DB
}

func NewSectionRepo(db *gorm.DB) SectionRepository {
	return &sectionRepo{db: db}
}

func (r *sectionRepo) Create(ctx context.Context, section *model.Section) error {
	return r.db.WithContext(ctx).Create(section).Error
}

func (r *sectionRepo) GetByID(ctx context.Context, id string) (*model.Section, error) {
	var section model.Section
	err := r.db.WithContext(ctx).Where("section_id = ?", id).First(&section).Error
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *sectionRepo) ListByFloor(ctx context.Context, floorID string) ([]model.Section, error) {
	var sections []model.Section
	err := r.db.WithContext(ctx).
		Where("floor_id = ?", floorID).
		Order("display_order ASC, name ASC").
		Find(&sections).Error
	return sections, err
}
