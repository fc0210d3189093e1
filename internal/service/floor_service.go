package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/imaker-dev/restro-backend-sub002/internal/dto"
	"github.com/imaker-dev/restro-backend-sub002/internal/model"
	"github.com/imaker-dev/restro-backend-sub002/internal/repository"
)

// FloorService floors and sections
type FloorService interface {
	Create(ctx context.Context, req *dto.CreateFloorRequest, callerID string) (*dto.FloorResponse, error)
	GetByID(ctx context.Context, id string) (*dto.FloorResponse, error)
	List(ctx context.Context, req *dto.FloorListRequest) ([]dto.FloorResponse, error)
	CreateSection(ctx context.Context, floorID string, req *dto.CreateSectionRequest, callerID string) (*dto.SectionResponse, error)
	ListSections(ctx context.Context, floorID string) ([]dto.SectionResponse, error)
}

type floorService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewFloorService creates a FloorService
func NewFloorService(repo *repository.Repository, logger *zap.Logger) FloorService {
	return &floorService{repo: repo, logger: logger}
}

func (s *floorService) Create(ctx context.Context, req *dto.CreateFloorRequest, callerID string) (*dto.FloorResponse, error) {
	floor := &model.Floor{
		OutletID:     req.OutletID,
		Name:         req.Name,
		DisplayOrder: req.DisplayOrder,
		IsActive:     true,
	}
	floor.CreatedBy = &callerID
	floor.UpdatedBy = &callerID

	if err := s.repo.Floor.Create(ctx, floor); err != nil {
		s.logger.Error("create floor failed", zap.Error(err))
		return nil, err
	}
	return toFloorResponse(floor), nil
}

func (s *floorService) GetByID(ctx context.Context, id string) (*dto.FloorResponse, error) {
	floor, err := s.repo.Floor.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFloorNotFound
		}
		s.logger.Error("get floor failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toFloorResponse(floor), nil
}

func (s *floorService) List(ctx context.Context, req *dto.FloorListRequest) ([]dto.FloorResponse, error) {
	floors, err := s.repo.Floor.ListByOutlet(ctx, req.OutletID)
	if err != nil {
		s.logger.Error("list floors failed", zap.Error(err))
		return nil, err
	}

	result := make([]dto.FloorResponse, 0, len(floors))
	for i := range floors {
		result = append(result, *toFloorResponse(&floors[i]))
	}
	return result, nil
}

func (s *floorService) CreateSection(ctx context.Context, floorID string, req *dto.CreateSectionRequest, callerID string) (*dto.SectionResponse, error) {
	if _, err := s.repo.Floor.GetByID(ctx, floorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFloorNotFound
		}
		s.logger.Error("get floor failed", zap.String("id", floorID), zap.Error(err))
		return nil, err
	}

	section := &model.Section{
		FloorID:      floorID,
		Name:         req.Name,
		DisplayOrder: req.DisplayOrder,
		IsActive:     true,
	}
	section.CreatedBy = &callerID
	section.UpdatedBy = &callerID

	if err := s.repo.Section.Create(ctx, section); err != nil {
		s.logger.Error("create section failed", zap.Error(err))
		return nil, err
	}
	return toSectionResponse(section), nil
}

func (s *floorService) ListSections(ctx context.Context, floorID string) ([]dto.SectionResponse, error) {
	if _, err := s.repo.Floor.GetByID(ctx, floorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFloorNotFound
		}
		s.logger.Error("get floor failed", zap.String("id", floorID), zap.Error(err))
		return nil, err
	}

	sections, err := s.repo.Section.ListByFloor(ctx, floorID)
	if err != nil {
		s.logger.Error("list sections failed", zap.Error(err))
		return nil, err
	}

	result := make([]dto.SectionResponse, 0, len(sections))
	for i := range sections {
		result = append(result, *toSectionResponse(&sections[i]))
	}
	return result, nil
}

func toFloorResponse(f *model.Floor) *dto.FloorResponse {
	return &dto.FloorResponse{
		FloorID:      f.FloorID,
		OutletID:     f.OutletID,
		Name:         f.Name,
		DisplayOrder: f.DisplayOrder,
		IsActive:     f.IsActive,
		CreatedAt:    formatTime(f.CreatedAt),
	}
}

func toSectionResponse(s *model.Section) *dto.SectionResponse {
	return &dto.SectionResponse{
		SectionID:    s.SectionID,
		FloorID:      s.FloorID,
		Name:         s.Name,
		DisplayOrder: s.DisplayOrder,
		IsActive:     s.IsActive,
	}
}
