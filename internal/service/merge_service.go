package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/imaker-dev/restro-backend-sub002/internal/dto"
	"github.com/imaker-dev/restro-backend-sub002/internal/model"
	"github.com/imaker-dev/restro-backend-sub002/internal/repository"
)

// MergeService combines tables into one billable unit and splits them again
type MergeService interface {
	Merge(ctx context.Context, primaryID string, req *dto.MergeTablesRequest, actorID string) (*dto.MergeGroupResponse, error)
	Unmerge(ctx context.Context, tableID, actorID string) (*dto.UnmergeResponse, error)
	GetMergedTables(ctx context.Context, tableID string) (*dto.MergeGroupResponse, error)
	AuditCapacity(ctx context.Context, outletID string) (*dto.CapacityAuditResponse, error)
}

type mergeService struct {
	repo     *repository.Repository
	notifier *notifier
	logger   *zap.Logger
}

// NewMergeService creates a MergeService
func NewMergeService(repo *repository.Repository, n *notifier, logger *zap.Logger) MergeService {
	return &mergeService{repo: repo, notifier: n, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// Merge
// ═══════════════════════════════════════════════════════════
//
// Every secondary is validated before anything is written, inside the same transaction
// that holds the row locks, so a rejected batch leaves all tables untouched and two
// overlapping merges cannot both succeed.

func (s *mergeService) Merge(ctx context.Context, primaryID string, req *dto.MergeTablesRequest, actorID string) (*dto.MergeGroupResponse, error) {
	if err := validateSecondaryIDs(primaryID, req.SecondaryTableIDs); err != nil {
		return nil, err
	}

	var (
		primary     *model.Table
		secondaries []*model.Table
		records     []model.TableMerge
		sessionID   *string
		before      int
	)

	err := s.repo.RunInTx(ctx, func(tx *repository.Repository) error {
		ids := append([]string{primaryID}, req.SecondaryTableIDs...)
		locked, err := tx.Table.ListByIDsForUpdate(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[string]*model.Table, len(locked))
		for i := range locked {
			byID[locked[i].TableID] = &locked[i]
		}

		primary = byID[primaryID]
		if primary == nil {
			return ErrTableNotFound
		}
		if err := checkPrimary(primary); err != nil {
			return err
		}

		session, err := tx.Session.GetActiveByTable(ctx, primary.TableID)
		if err != nil && !isNotFound(err) {
			return err
		}
		if err == nil {
			sessionID = &session.SessionID
		}

		// ── validate all ──
		secondaries = make([]*model.Table, 0, len(req.SecondaryTableIDs))
		for _, id := range req.SecondaryTableIDs {
			sec := byID[id]
			if sec == nil {
				return ErrMergeTableNotFound.Withf("Table %s not found", id)
			}
			if err := checkSecondary(primary, sec); err != nil {
				return err
			}
			count, err := tx.Merge.CountActiveByPrimary(ctx, sec.TableID)
			if err != nil {
				return err
			}
			if count > 0 {
				return ErrSecondaryIsPrimary.Withf("Table %s already has tables merged into it", sec.TableNumber)
			}
			secondaries = append(secondaries, sec)
		}

		// ── apply ──
		now := time.Now().UTC()
		added := 0
		for _, sec := range secondaries {
			rec := model.TableMerge{
				PrimaryTableID:    primary.TableID,
				SecondaryTableID:  sec.TableID,
				SessionID:         sessionID,
				SecondaryCapacity: sec.BaseCapacity,
				MergedBy:          actorID,
				MergedAt:          now,
			}
			if err := tx.Merge.Create(ctx, &rec); err != nil {
				return err
			}
			if err := tx.Table.UpdateStatus(ctx, sec.TableID, model.TableStatusMerged, actorID); err != nil {
				return err
			}
			sec.Status = model.TableStatusMerged
			added += rec.SecondaryCapacity
			records = append(records, rec)
		}

		before = primary.Capacity
		primary.Capacity += added
		if err := tx.Table.SetCapacity(ctx, primary.TableID, primary.Capacity); err != nil {
			return err
		}

		// ── history ──
		secIDs := make([]string, 0, len(secondaries))
		secNumbers := make([]string, 0, len(secondaries))
		for _, sec := range secondaries {
			secIDs = append(secIDs, sec.TableID)
			secNumbers = append(secNumbers, sec.TableNumber)
		}

		entries := []model.TableHistory{{
			TableID:   primary.TableID,
			EventType: model.EventTablesMerged,
			ActorID:   actorID,
			Payload: map[string]interface{}{
				"role":            "primary",
				"secondaries":     secIDs,
				"table_numbers":   secNumbers,
				"added_capacity":  added,
				"capacity_before": before,
				"capacity_after":  primary.Capacity,
				"session_id":      sessionID,
			},
		}}
		for _, rec := range records {
			entries = append(entries, model.TableHistory{
				TableID:   rec.SecondaryTableID,
				EventType: model.EventTablesMerged,
				ActorID:   actorID,
				Payload: map[string]interface{}{
					"role":             "secondary",
					"primary_table_id": primary.TableID,
					"merge_id":         rec.MergeID,
					"capacity":         rec.SecondaryCapacity,
				},
			})
		}
		return tx.History.BatchCreate(ctx, entries)
	})
	if err != nil {
		return nil, failed(s.logger, "merge tables", err, zap.String("primary_id", primaryID))
	}

	resp := &dto.MergeGroupResponse{
		PrimaryTableID:     primary.TableID,
		PrimaryTableNumber: primary.TableNumber,
		SessionID:          sessionID,
		Capacity:           primary.Capacity,
		BaseCapacity:       primary.BaseCapacity,
		Secondaries:        make([]dto.MergedTableResponse, 0, len(records)),
	}
	ids := make([]string, 0, len(records))
	numbers := make([]string, 0, len(records))
	for i, rec := range records {
		resp.Secondaries = append(resp.Secondaries, toMergedTableResponse(&rec, secondaries[i].TableNumber))
		ids = append(ids, rec.SecondaryTableID)
		numbers = append(numbers, secondaries[i].TableNumber)
	}

	s.notifier.groupChanged(ctx, primary, ids, numbers, model.EventTablesMerged, model.TableStatusMerged, actorID, map[string]interface{}{
		"secondaries":     numbers,
		"capacity_before": before,
		"capacity":        primary.Capacity,
	})
	return resp, nil
}

func validateSecondaryIDs(primaryID string, ids []string) error {
	if len(ids) == 0 {
		return ErrMergeNoSecondaries
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == primaryID {
			return ErrMergeSelf
		}
		if seen[id] {
			return ErrMergeDuplicateTable.Withf("Table %s is listed more than once", id)
		}
		seen[id] = true
	}
	return nil
}

func checkPrimary(primary *model.Table) error {
	switch {
	case !primary.IsActive:
		return ErrTableInvalidState.Withf("Table %s is inactive", primary.TableNumber)
	case primary.Status == model.TableStatusMerged:
		return ErrPrimaryMerged.Withf("Table %s is itself merged into another table", primary.TableNumber)
	case primary.Status == model.TableStatusBlocked:
		return ErrPrimaryBlocked.Withf("Table %s is blocked", primary.TableNumber)
	}
	return nil
}

func checkSecondary(primary, sec *model.Table) error {
	switch {
	case !sec.IsActive:
		return ErrSecondaryInactive.Withf("Table %s is inactive", sec.TableNumber)
	case sec.OutletID != primary.OutletID:
		return ErrMergeOutletMismatch.Withf("Table %s belongs to another outlet", sec.TableNumber)
	case !sec.IsMergeable:
		return ErrTableNotMergeable.Withf("Table %s is not mergeable", sec.TableNumber)
	case sec.FloorKey() != primary.FloorKey():
		return ErrMergeCrossFloor.Withf("Table %s is on a different floor than table %s", sec.TableNumber, primary.TableNumber)
	case sec.Status != model.TableStatusAvailable:
		return ErrSecondaryUnavailable.Withf("Table %s is currently %s", sec.TableNumber, sec.Status)
	}
	return nil
}

// ═══════════════════════════════════════════════════════════
// Unmerge
// ═══════════════════════════════════════════════════════════
//
// Accepts either end of a merge: a secondary id is first resolved to its primary,
// then the primary's whole group is dissolved.

func (s *mergeService) Unmerge(ctx context.Context, tableID, actorID string) (*dto.UnmergeResponse, error) {
	var (
		primary *model.Table
		release *mergeRelease
	)

	err := s.repo.RunInTx(ctx, func(tx *repository.Repository) error {
		primaryID, err := resolvePrimary(ctx, tx, tableID)
		if err != nil {
			return err
		}

		records, err := tx.Merge.ListActiveByPrimary(ctx, primaryID)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return s.noActiveMerge(ctx, tx, tableID)
		}

		// lock the whole group in id order, then re-read under the lock
		ids := []string{primaryID}
		for _, rec := range records {
			ids = append(ids, rec.SecondaryTableID)
		}
		locked, err := tx.Table.ListByIDsForUpdate(ctx, ids)
		if err != nil {
			return err
		}
		for i := range locked {
			if locked[i].TableID == primaryID {
				primary = &locked[i]
			}
		}
		if primary == nil {
			return ErrTableNotFound
		}

		records, err = tx.Merge.ListActiveByPrimary(ctx, primaryID)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return ErrNoActiveMerge.Withf("Table %s has no active merge", primary.TableNumber)
		}

		release, err = releaseMergeGroup(ctx, tx, primary, records, actorID, "unmerge")
		return err
	})
	if err != nil {
		return nil, failed(s.logger, "unmerge tables", err, zap.String("table_id", tableID))
	}

	s.notifier.groupChanged(ctx, primary, release.releasedIDs, release.releasedNumbers,
		model.EventTablesUnmerged, model.TableStatusAvailable, actorID, map[string]interface{}{
		"released":        release.releasedNumbers,
		"capacity_before": release.capacityBefore,
		"capacity":        release.capacityAfter,
	})

	return &dto.UnmergeResponse{
		PrimaryTableID: primary.TableID,
		Capacity:       release.capacityAfter,
		ReleasedTables: release.releasedIDs,
	}, nil
}

// resolvePrimary maps a secondary id to its primary; any other id is returned as is
func resolvePrimary(ctx context.Context, repo *repository.Repository, tableID string) (string, error) {
	rec, err := repo.Merge.GetActiveBySecondary(ctx, tableID)
	if err == nil {
		return rec.PrimaryTableID, nil
	}
	if !isNotFound(err) {
		return "", err
	}
	return tableID, nil
}

func (s *mergeService) noActiveMerge(ctx context.Context, tx *repository.Repository, tableID string) error {
	table, err := tx.Table.GetByID(ctx, tableID)
	if err != nil {
		if isNotFound(err) {
			return ErrTableNotFound
		}
		return err
	}
	return ErrNoActiveMerge.Withf("Table %s has no active merge", table.TableNumber)
}

// mergeRelease outcome of dissolving a merge group
type mergeRelease struct {
	releasedIDs     []string
	releasedNumbers []string
	removed         int
	capacityBefore  int
	capacityAfter   int
}

// releaseMergeGroup closes every active record of primary, returns the secondaries to available
// and takes back exactly the capacity the merge added, never dropping below one seat.
// Shared by unmerge and session end; must run inside the caller's transaction with primary locked.
func releaseMergeGroup(ctx context.Context, tx *repository.Repository, primary *model.Table, records []model.TableMerge, actorID, trigger string) (*mergeRelease, error) {
	out := &mergeRelease{capacityBefore: primary.Capacity}
	if len(records) == 0 {
		out.capacityAfter = primary.Capacity
		return out, nil
	}

	now := time.Now().UTC()
	mergeIDs := make([]string, 0, len(records))
	for _, rec := range records {
		mergeIDs = append(mergeIDs, rec.MergeID)
		out.removed += rec.SecondaryCapacity
	}
	if err := tx.Merge.MarkUnmerged(ctx, mergeIDs, actorID, now); err != nil {
		return nil, err
	}

	entries := make([]model.TableHistory, 0, len(records)+1)
	for _, rec := range records {
		if err := tx.Table.UpdateStatus(ctx, rec.SecondaryTableID, model.TableStatusAvailable, actorID); err != nil {
			return nil, err
		}
		number := rec.SecondaryTableID
		if rec.Secondary != nil {
			number = rec.Secondary.TableNumber
		}
		out.releasedIDs = append(out.releasedIDs, rec.SecondaryTableID)
		out.releasedNumbers = append(out.releasedNumbers, number)
		entries = append(entries, model.TableHistory{
			TableID:   rec.SecondaryTableID,
			EventType: model.EventTablesUnmerged,
			ActorID:   actorID,
			Payload: map[string]interface{}{
				"role":             "secondary",
				"primary_table_id": primary.TableID,
				"merge_id":         rec.MergeID,
				"trigger":          trigger,
			},
		})
	}

	capacity := primary.Capacity - out.removed
	if capacity < 1 {
		capacity = 1
	}
	if err := tx.Table.SetCapacity(ctx, primary.TableID, capacity); err != nil {
		return nil, err
	}
	primary.Capacity = capacity
	out.capacityAfter = capacity

	entries = append(entries, model.TableHistory{
		TableID:   primary.TableID,
		EventType: model.EventTablesUnmerged,
		ActorID:   actorID,
		Payload: map[string]interface{}{
			"role":             "primary",
			"released":         out.releasedIDs,
			"removed_capacity": out.removed,
			"capacity_before":  out.capacityBefore,
			"capacity_after":   out.capacityAfter,
			"trigger":          trigger,
		},
	})
	if err := tx.History.BatchCreate(ctx, entries); err != nil {
		return nil, err
	}
	return out, nil
}

// ────────────────────── GetMergedTables ──────────────────────

func (s *mergeService) GetMergedTables(ctx context.Context, tableID string) (*dto.MergeGroupResponse, error) {
	if _, err := s.repo.Table.GetByID(ctx, tableID); err != nil {
		if isNotFound(err) {
			return nil, ErrTableNotFound
		}
		s.logger.Error("get table failed", zap.String("id", tableID), zap.Error(err))
		return nil, err
	}

	primaryID, err := resolvePrimary(ctx, s.repo, tableID)
	if err != nil {
		s.logger.Error("resolve merge primary failed", zap.String("id", tableID), zap.Error(err))
		return nil, err
	}

	primary, err := s.repo.Table.GetByID(ctx, primaryID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTableNotFound
		}
		s.logger.Error("get table failed", zap.String("id", primaryID), zap.Error(err))
		return nil, err
	}

	records, err := s.repo.Merge.ListActiveByPrimary(ctx, primaryID)
	if err != nil {
		s.logger.Error("list merges failed", zap.String("id", primaryID), zap.Error(err))
		return nil, err
	}

	resp := &dto.MergeGroupResponse{
		PrimaryTableID:     primary.TableID,
		PrimaryTableNumber: primary.TableNumber,
		Capacity:           primary.Capacity,
		BaseCapacity:       primary.BaseCapacity,
		Secondaries:        make([]dto.MergedTableResponse, 0, len(records)),
	}
	for i := range records {
		number := ""
		if records[i].Secondary != nil {
			number = records[i].Secondary.TableNumber
		}
		resp.Secondaries = append(resp.Secondaries, toMergedTableResponse(&records[i], number))
		if resp.SessionID == nil {
			resp.SessionID = records[i].SessionID
		}
	}
	return resp, nil
}

// ────────────────────── AuditCapacity ──────────────────────

// AuditCapacity compares each table's stored capacity with base + Σ active merge records.
// Diagnostic only; nothing is repaired.
func (s *mergeService) AuditCapacity(ctx context.Context, outletID string) (*dto.CapacityAuditResponse, error) {
	tables, err := s.repo.Table.List(ctx, repository.TableFilter{OutletID: outletID, IncludeInactive: true})
	if err != nil {
		s.logger.Error("list tables failed", zap.String("outlet_id", outletID), zap.Error(err))
		return nil, err
	}
	records, err := s.repo.Merge.ListActiveByOutlet(ctx, outletID)
	if err != nil {
		s.logger.Error("list merges failed", zap.String("outlet_id", outletID), zap.Error(err))
		return nil, err
	}

	merged := make(map[string]int, len(records))
	for _, rec := range records {
		merged[rec.PrimaryTableID] += rec.SecondaryCapacity
	}

	resp := &dto.CapacityAuditResponse{OutletID: outletID, Checked: len(tables), Drifts: []dto.CapacityDrift{}}
	for _, t := range tables {
		expected := t.BaseCapacity + merged[t.TableID]
		if expected == t.Capacity {
			continue
		}
		resp.Drifts = append(resp.Drifts, dto.CapacityDrift{
			TableID:     t.TableID,
			TableNumber: t.TableNumber,
			Base:        t.BaseCapacity,
			MergedSum:   merged[t.TableID],
			Expected:    expected,
			Actual:      t.Capacity,
		})
	}
	sort.Slice(resp.Drifts, func(i, j int) bool { return resp.Drifts[i].TableNumber < resp.Drifts[j].TableNumber })

	if len(resp.Drifts) > 0 {
		s.logger.Warn("capacity drift detected", zap.String("outlet_id", outletID), zap.Int("tables", len(resp.Drifts)))
	}
	return resp, nil
}
