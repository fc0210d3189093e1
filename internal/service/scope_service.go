package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/imaker-dev/restro-backend-sub002/internal/repository"
)

// OutletScope resolves the outlet owning a table or floor, for request scoping
type OutletScope interface {
	TableOutlet(ctx context.Context, tableID string) (string, error)
	FloorOutlet(ctx context.Context, floorID string) (string, error)
}

type outletScope struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewOutletScope creates an OutletScope
func NewOutletScope(repo *repository.Repository, logger *zap.Logger) OutletScope {
	return &outletScope{repo: repo, logger: logger}
}

func (s *outletScope) TableOutlet(ctx context.Context, tableID string) (string, error) {
	table, err := s.repo.Table.GetByID(ctx, tableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrTableNotFound
		}
		s.logger.Error("resolve table outlet failed", zap.String("table_id", tableID), zap.Error(err))
		return "", err
	}
	return table.OutletID, nil
}

func (s *outletScope) FloorOutlet(ctx context.Context, floorID string) (string, error) {
	floor, err := s.repo.Floor.GetByID(ctx, floorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrFloorNotFound
		}
		s.logger.Error("resolve floor outlet failed", zap.String("floor_id", floorID), zap.Error(err))
		return "", err
	}
	return floor.OutletID, nil
}
