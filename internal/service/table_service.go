package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/imaker-dev/restro-backend-sub002/config"
	"github.com/imaker-dev/restro-backend-sub002/internal/dto"
	"github.com/imaker-dev/restro-backend-sub002/internal/model"
	"github.com/imaker-dev/restro-backend-sub002/internal/repository"
	pkgerrors "github.com/imaker-dev/restro-backend-sub002/pkg/errors"
)

// TableService table registry, status transitions and the per-table timeline
type TableService interface {
	Create(ctx context.Context, req *dto.CreateTableRequest, callerID string) (*dto.TableResponse, error)
	GetByID(ctx context.Context, id string) (*dto.TableResponse, error)
	List(ctx context.Context, req *dto.TableListRequest) ([]dto.TableResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateTableRequest, callerID string) (*dto.TableResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	UpdateStatus(ctx context.Context, id string, req *dto.UpdateStatusRequest, actorID string) (*dto.TableResponse, error)
	GetHistory(ctx context.Context, id string, limit int) ([]dto.HistoryResponse, error)
}

type tableService struct {
	repo     *repository.Repository
	notifier *notifier
	cache    Cache
	cfg      *config.FloorConfig
	logger   *zap.Logger
}

// NewTableService creates a TableService
func NewTableService(repo *repository.Repository, n *notifier, cache Cache, cfg *config.FloorConfig, logger *zap.Logger) TableService {
	return &tableService{repo: repo, notifier: n, cache: cache, cfg: cfg, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *tableService) Create(ctx context.Context, req *dto.CreateTableRequest, callerID string) (*dto.TableResponse, error) {
	if _, err := validatePlacement(ctx, s.repo, req.OutletID, req.FloorID, req.SectionID); err != nil {
		return nil, failed(s.logger, "validate placement", err)
	}

	minCapacity := req.MinCapacity
	if minCapacity == 0 {
		minCapacity = 1
	}
	if minCapacity > req.Capacity {
		return nil, ErrMinCapacityExceeds.Withf("Min capacity %d exceeds capacity %d", minCapacity, req.Capacity)
	}

	shape := req.Shape
	if shape == "" {
		shape = model.TableShapeSquare
	}
	mergeable := true
	if req.IsMergeable != nil {
		mergeable = *req.IsMergeable
	}
	splittable := false
	if req.IsSplittable != nil {
		splittable = *req.IsSplittable
	}

	table := &model.Table{
		OutletID:     req.OutletID,
		FloorID:      req.FloorID,
		SectionID:    req.SectionID,
		TableNumber:  req.TableNumber,
		Name:         req.Name,
		BaseCapacity: req.Capacity,
		Capacity:     req.Capacity,
		MinCapacity:  minCapacity,
		Shape:        shape,
		IsMergeable:  mergeable,
		IsSplittable: splittable,
		DisplayOrder: req.DisplayOrder,
		Status:       model.TableStatusAvailable,
		IsActive:     true,
	}
	table.Version = 1
	table.CreatedBy = &callerID
	table.UpdatedBy = &callerID
	if req.Layout != nil {
		table.Layout = &model.TableLayout{
			PosX:     req.Layout.PosX,
			PosY:     req.Layout.PosY,
			Width:    req.Layout.Width,
			Height:   req.Layout.Height,
			Rotation: req.Layout.Rotation,
		}
	}

	err := s.repo.RunInTx(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Table.GetByOutletAndNumber(ctx, req.OutletID, req.TableNumber); err == nil {
			return ErrTableNumberExists.Withf("Table %s already exists in this outlet", req.TableNumber)
		} else if !isNotFound(err) {
			return err
		}

		if err := tx.Table.Create(ctx, table); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrTableNumberExists.Withf("Table %s already exists in this outlet", req.TableNumber)
			}
			return err
		}

		return tx.History.Create(ctx, &model.TableHistory{
			TableID:   table.TableID,
			EventType: model.EventTableCreated,
			ActorID:   callerID,
			Payload: map[string]interface{}{
				"table_number": table.TableNumber,
				"capacity":     table.Capacity,
				"status":       table.Status,
			},
		})
	})
	if err != nil {
		return nil, failed(s.logger, "create table", err, zap.String("table_number", req.TableNumber))
	}

	s.notifier.tableChanged(ctx, table, model.EventTableCreated, callerID, map[string]interface{}{
		"status":   table.Status,
		"capacity": table.Capacity,
	})

	return s.GetByID(ctx, table.TableID)
}

// ────────────────────── GetByID ──────────────────────

func (s *tableService) GetByID(ctx context.Context, id string) (*dto.TableResponse, error) {
	table, err := s.repo.Table.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTableNotFound
		}
		s.logger.Error("get table failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toTableResponse(table), nil
}

// ────────────────────── List ──────────────────────

func (s *tableService) List(ctx context.Context, req *dto.TableListRequest) ([]dto.TableResponse, error) {
	key := outletCacheKey(req.OutletID)
	field := listCacheField(req)

	if raw, ok, err := s.cache.Get(ctx, key, field); err != nil {
		s.logger.Warn("table list cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		var cached []dto.TableResponse
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return cached, nil
		}
	}

	// taken before the load so a concurrent invalidation voids the write-back
	gen, cacheable := cacheGeneration(ctx, s.cache, key, s.logger)

	tables, err := s.repo.Table.List(ctx, repository.TableFilter{
		OutletID:  req.OutletID,
		FloorID:   req.FloorID,
		SectionID: req.SectionID,
		Status:    req.Status,
		IsActive:  req.IsActive,
	})
	if err != nil {
		s.logger.Error("list tables failed", zap.Error(err))
		return nil, err
	}

	result := make([]dto.TableResponse, 0, len(tables))
	for i := range tables {
		result = append(result, *toTableResponse(&tables[i]))
	}

	if raw, err := json.Marshal(result); cacheable && err == nil {
		if err := s.cache.Set(ctx, key, field, string(raw), gen, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("table list cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return result, nil
}

func listCacheField(req *dto.TableListRequest) string {
	active := "default"
	if req.IsActive != nil {
		active = fmt.Sprintf("%t", *req.IsActive)
	}
	return fmt.Sprintf("list:floor=%s:section=%s:status=%s:active=%s", req.FloorID, req.SectionID, req.Status, active)
}

// ────────────────────── Update ──────────────────────

func (s *tableService) Update(ctx context.Context, id string, req *dto.UpdateTableRequest, callerID string) (*dto.TableResponse, error) {
	var (
		table    *model.Table
		oldFloor string
	)

	err := s.repo.RunInTx(ctx, func(tx *repository.Repository) error {
		var err error
		table, err = tx.Table.GetByIDForUpdate(ctx, id)
		if err != nil {
			if isNotFound(err) {
				return ErrTableNotFound
			}
			return err
		}
		oldFloor = table.FloorKey()

		if req.Version != nil && *req.Version != table.Version {
			return ErrTableVersionConflict.Withf("Table %s was modified by another request (version %d, current %d)",
				table.TableNumber, *req.Version, table.Version)
		}

		var changed []string

		// ── placement ──
		floorChanged := req.FloorID != nil && (table.FloorID == nil || *req.FloorID != *table.FloorID)
		if floorChanged {
			if err := s.ensureNotInMergeGroup(ctx, tx, table, "move to another floor"); err != nil {
				return err
			}
			table.FloorID = req.FloorID
			table.SectionID = nil
			changed = append(changed, "floor_id")
		}
		if req.SectionID != nil {
			table.SectionID = req.SectionID
			changed = append(changed, "section_id")
		}
		if floorChanged || req.SectionID != nil {
			if _, err := validatePlacement(ctx, tx, table.OutletID, table.FloorID, table.SectionID); err != nil {
				return err
			}
		}

		// ── number ──
		if req.TableNumber != nil && *req.TableNumber != table.TableNumber {
			other, err := tx.Table.GetByOutletAndNumber(ctx, table.OutletID, *req.TableNumber)
			if err == nil && other.TableID != table.TableID {
				return ErrTableNumberExists.Withf("Table %s already exists in this outlet", *req.TableNumber)
			}
			if err != nil && !isNotFound(err) {
				return err
			}
			table.TableNumber = *req.TableNumber
			changed = append(changed, "table_number")
		}

		// ── capacity ──
		if req.Capacity != nil && *req.Capacity != table.BaseCapacity {
			if table.Status == model.TableStatusMerged {
				return ErrTableCapacityLocked.Withf("Table %s is merged; capacity cannot change until it is unmerged", table.TableNumber)
			}
			// a merge primary keeps its merged seats on top of the new base
			delta := *req.Capacity - table.BaseCapacity
			table.BaseCapacity = *req.Capacity
			table.Capacity += delta
			if table.Capacity < 1 {
				table.Capacity = 1
			}
			changed = append(changed, "capacity")
		}
		if req.MinCapacity != nil {
			table.MinCapacity = *req.MinCapacity
			changed = append(changed, "min_capacity")
		}
		if table.MinCapacity > table.BaseCapacity {
			return ErrMinCapacityExceeds.Withf("Min capacity %d exceeds capacity %d", table.MinCapacity, table.BaseCapacity)
		}

		// ── attributes ──
		if req.Name != nil {
			table.Name = *req.Name
			changed = append(changed, "name")
		}
		if req.Shape != nil {
			table.Shape = *req.Shape
			changed = append(changed, "shape")
		}
		if req.IsMergeable != nil {
			table.IsMergeable = *req.IsMergeable
			changed = append(changed, "is_mergeable")
		}
		if req.IsSplittable != nil {
			table.IsSplittable = *req.IsSplittable
			changed = append(changed, "is_splittable")
		}
		if req.DisplayOrder != nil {
			table.DisplayOrder = *req.DisplayOrder
			changed = append(changed, "display_order")
		}
		if req.IsActive != nil && *req.IsActive != table.IsActive {
			if !*req.IsActive {
				if err := s.ensureNoSession(ctx, tx, table, "deactivate"); err != nil {
					return err
				}
				if err := s.ensureNotInMergeGroup(ctx, tx, table, "deactivate"); err != nil {
					return err
				}
			}
			table.IsActive = *req.IsActive
			changed = append(changed, "is_active")
		}

		table.UpdatedBy = &callerID
		if err := tx.Table.Update(ctx, table); err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				return ErrTableVersionConflict
			}
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrTableNumberExists.Withf("Table %s already exists in this outlet", table.TableNumber)
			}
			return err
		}

		if req.Layout != nil {
			if err := tx.Table.SaveLayout(ctx, &model.TableLayout{
				TableID:  table.TableID,
				PosX:     req.Layout.PosX,
				PosY:     req.Layout.PosY,
				Width:    req.Layout.Width,
				Height:   req.Layout.Height,
				Rotation: req.Layout.Rotation,
			}); err != nil {
				return err
			}
			changed = append(changed, "layout")
		}

		return tx.History.Create(ctx, &model.TableHistory{
			TableID:   table.TableID,
			EventType: model.EventTableUpdated,
			ActorID:   callerID,
			Payload:   map[string]interface{}{"changed": changed},
		})
	})
	if err != nil {
		return nil, failed(s.logger, "update table", err, zap.String("id", id))
	}

	if oldFloor != "" && oldFloor != table.FloorKey() {
		s.notifier.invalidate(ctx, table.OutletID, oldFloor)
	}
	s.notifier.tableChanged(ctx, table, model.EventTableUpdated, callerID, map[string]interface{}{
		"capacity": table.Capacity,
		"status":   table.Status,
	})

	return s.GetByID(ctx, table.TableID)
}

// ────────────────────── Delete ──────────────────────

func (s *tableService) Delete(ctx context.Context, id string, callerID string) error {
	var table *model.Table

	err := s.repo.RunInTx(ctx, func(tx *repository.Repository) error {
		var err error
		table, err = tx.Table.GetByIDForUpdate(ctx, id)
		if err != nil {
			if isNotFound(err) {
				return ErrTableNotFound
			}
			return err
		}

		if err := s.ensureNoSession(ctx, tx, table, "delete"); err != nil {
			return err
		}
		if err := s.ensureNotInMergeGroup(ctx, tx, table, "delete"); err != nil {
			return err
		}

		if err := tx.Table.SoftDelete(ctx, table.TableID, callerID); err != nil {
			return err
		}
		return tx.History.Create(ctx, &model.TableHistory{
			TableID:   table.TableID,
			EventType: model.EventTableDeleted,
			ActorID:   callerID,
			Payload:   map[string]interface{}{"table_number": table.TableNumber},
		})
	})
	if err != nil {
		return failed(s.logger, "delete table", err, zap.String("id", id))
	}

	s.notifier.tableChanged(ctx, table, model.EventTableDeleted, callerID, nil)
	return nil
}

// ────────────────────── UpdateStatus ──────────────────────

// UpdateStatus applies an externally driven transition. merged is owned by the merge
// coordinator; blocked may only return to available.
func (s *tableService) UpdateStatus(ctx context.Context, id string, req *dto.UpdateStatusRequest, actorID string) (*dto.TableResponse, error) {
	to := req.Status
	if !model.IsValidTableStatus(to) {
		return nil, ErrInvalidTableStatus.Withf("Invalid table status %q", to)
	}
	if to == model.TableStatusMerged {
		return nil, ErrTableInvalidState.WithMessage("Status merged can only be set by merging tables")
	}

	var (
		table *model.Table
		from  string
	)

	err := s.repo.RunInTx(ctx, func(tx *repository.Repository) error {
		var err error
		table, err = tx.Table.GetByIDForUpdate(ctx, id)
		if err != nil {
			if isNotFound(err) {
				return ErrTableNotFound
			}
			return err
		}
		from = table.Status

		if from == model.TableStatusMerged {
			return ErrTableMerged.Withf("Table %s is merged into another table; unmerge it first", table.TableNumber)
		}
		if from == to {
			return ErrTableInvalidState.Withf("Table %s is already %s", table.TableNumber, to)
		}
		if from == model.TableStatusBlocked && to != model.TableStatusAvailable {
			return ErrTableInvalidState.Withf("Table %s is blocked; make it available first", table.TableNumber)
		}

		session, err := tx.Session.GetActiveByTable(ctx, table.TableID)
		if err != nil && !isNotFound(err) {
			return err
		}
		if isNotFound(err) {
			session = nil
		}

		switch to {
		case model.TableStatusOccupied, model.TableStatusRunning, model.TableStatusBilling:
			if session == nil {
				return ErrSessionRequired.Withf("Table %s has no active session; start one before marking it %s", table.TableNumber, to)
			}
		case model.TableStatusAvailable, model.TableStatusReserved:
			if session != nil {
				return ErrSessionStillActive.Withf("Table %s has an active session; end it before marking it %s", table.TableNumber, to)
			}
		}

		payload := map[string]interface{}{"from": from, "to": to}
		if req.Reason != "" {
			payload["reason"] = req.Reason
		}

		if req.OrderID != nil && *req.OrderID != "" {
			if session == nil {
				return ErrSessionRequired.Withf("Table %s has no active session to link order %s to", table.TableNumber, *req.OrderID)
			}
			if err := tx.Session.LinkOrder(ctx, session.SessionID, *req.OrderID); err != nil {
				return err
			}
			payload["order_id"] = *req.OrderID
		}
		if session != nil {
			payload["session_id"] = session.SessionID
		}

		if err := tx.Table.UpdateStatus(ctx, table.TableID, to, actorID); err != nil {
			return err
		}
		table.Status = to

		return tx.History.Create(ctx, &model.TableHistory{
			TableID:   table.TableID,
			EventType: model.EventStatusChanged,
			ActorID:   actorID,
			Payload:   payload,
		})
	})
	if err != nil {
		return nil, failed(s.logger, "update table status", err, zap.String("id", id), zap.String("to", to))
	}

	data := map[string]interface{}{"from": from, "to": to}
	if req.OrderID != nil {
		data["order_id"] = *req.OrderID
	}
	s.notifier.tableChanged(ctx, table, model.EventStatusChanged, actorID, data)

	return s.GetByID(ctx, table.TableID)
}

// ────────────────────── GetHistory ──────────────────────

func (s *tableService) GetHistory(ctx context.Context, id string, limit int) ([]dto.HistoryResponse, error) {
	if _, err := s.repo.Table.GetByID(ctx, id); err != nil {
		if isNotFound(err) {
			return nil, ErrTableNotFound
		}
		s.logger.Error("get table failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if limit <= 0 {
		limit = s.cfg.HistoryDefaultLimit
	}
	if limit > s.cfg.HistoryMaxLimit {
		limit = s.cfg.HistoryMaxLimit
	}

	entries, err := s.repo.History.ListRecent(ctx, id, limit)
	if err != nil {
		s.logger.Error("list history failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	result := make([]dto.HistoryResponse, 0, len(entries))
	for i := range entries {
		result = append(result, toHistoryResponse(&entries[i]))
	}
	return result, nil
}

// ── guards ──

func (s *tableService) ensureNoSession(ctx context.Context, tx *repository.Repository, table *model.Table, action string) error {
	_, err := tx.Session.GetActiveByTable(ctx, table.TableID)
	if err == nil {
		return ErrTableHasSession.Withf("Table %s has an active session; cannot %s", table.TableNumber, action)
	}
	if !isNotFound(err) {
		return err
	}
	return nil
}

func (s *tableService) ensureNotInMergeGroup(ctx context.Context, tx *repository.Repository, table *model.Table, action string) error {
	if table.Status == model.TableStatusMerged {
		return ErrTableInMergeGroup.Withf("Table %s is merged into another table; cannot %s", table.TableNumber, action)
	}
	count, err := tx.Merge.CountActiveByPrimary(ctx, table.TableID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrTableInMergeGroup.Withf("Table %s has %d merged tables; cannot %s", table.TableNumber, count, action)
	}
	return nil
}

// validatePlacement checks the floor exists, is active and belongs to the outlet, and that the
// section belongs to the floor
func validatePlacement(ctx context.Context, repo *repository.Repository, outletID string, floorID, sectionID *string) (*model.Floor, error) {
	if floorID == nil {
		if sectionID != nil {
			return nil, ErrSectionFloorMismatch.WithMessage("A section requires a floor")
		}
		return nil, nil
	}

	floor, err := repo.Floor.GetByID(ctx, *floorID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrFloorNotFound
		}
		return nil, err
	}
	if !floor.IsActive {
		return nil, ErrFloorInactive.Withf("Floor %s is inactive", floor.Name)
	}
	if floor.OutletID != outletID {
		return nil, ErrFloorOutletMismatch.Withf("Floor %s does not belong to this outlet", floor.Name)
	}

	if sectionID != nil {
		section, err := repo.Section.GetByID(ctx, *sectionID)
		if err != nil {
			if isNotFound(err) {
				return nil, ErrSectionNotFound
			}
			return nil, err
		}
		if section.FloorID != floor.FloorID {
			return nil, ErrSectionFloorMismatch.Withf("Section %s is not on floor %s", section.Name, floor.Name)
		}
	}
	return floor, nil
}
