package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/imaker-dev/restro-backend-sub002/internal/dto"
	"github.com/imaker-dev/restro-backend-sub002/internal/model"
	"github.com/imaker-dev/restro-backend-sub002/internal/repository"
)

// SessionService dining session lifecycle
type SessionService interface {
	Start(ctx context.Context, tableID string, req *dto.StartSessionRequest, actorID string) (*dto.SessionResponse, error)
	End(ctx context.Context, tableID, actorID string) (*dto.EndSessionResponse, error)
	Transfer(ctx context.Context, tableID string, req *dto.TransferSessionRequest, actorID string) (*dto.SessionResponse, error)
	GetActive(ctx context.Context, tableID string) (*dto.SessionResponse, error)
	GetCurrent(ctx context.Context, tableID string) (*dto.SessionResponse, error)
	History(ctx context.Context, tableID string, from, to time.Time) ([]dto.SessionResponse, error)
}

type sessionService struct {
	repo        *repository.Repository
	gate        *ShiftGate
	permissions PermissionChecker
	notifier    *notifier
	logger      *zap.Logger
}

// NewSessionService creates a SessionService
func NewSessionService(repo *repository.Repository, gate *ShiftGate, permissions PermissionChecker, n *notifier, logger *zap.Logger) SessionService {
	return &sessionService{repo: repo, gate: gate, permissions: permissions, notifier: n, logger: logger}
}

func canSeat(status string) bool {
	return status == model.TableStatusAvailable || status == model.TableStatusReserved
}

// ═══════════════════════════════════════════════════════════
// Start
// ═══════════════════════════════════════════════════════════
//
//  1. table must be available or reserved
//  2. the table's floor must have an open shift for today's local date
//  3. session insert + status occupied + history in one transaction, rechecked under the row lock

func (s *sessionService) Start(ctx context.Context, tableID string, req *dto.StartSessionRequest, actorID string) (*dto.SessionResponse, error) {
	table, err := s.repo.Table.GetByID(ctx, tableID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTableNotFound
		}
		s.logger.Error("get table failed", zap.String("id", tableID), zap.Error(err))
		return nil, err
	}
	if !canSeat(table.Status) {
		return nil, ErrTableInvalidState.Withf("Table %s is currently %s", table.TableNumber, table.Status)
	}

	if err := s.gate.Check(ctx, table); err != nil {
		return nil, failed(s.logger, "shift gate", err, zap.String("table_id", tableID))
	}

	var session *model.TableSession
	from := table.Status

	err = s.repo.RunInTx(ctx, func(tx *repository.Repository) error {
		locked, err := tx.Table.GetByIDForUpdate(ctx, tableID)
		if err != nil {
			if isNotFound(err) {
				return ErrTableNotFound
			}
			return err
		}
		if !canSeat(locked.Status) {
			return ErrTableInvalidState.Withf("Table %s is currently %s", locked.TableNumber, locked.Status)
		}
		from = locked.Status

		if _, err := tx.Session.GetActiveByTable(ctx, tableID); err == nil {
			return ErrTableInvalidState.Withf("Table %s already has an active session", locked.TableNumber)
		} else if !isNotFound(err) {
			return err
		}

		session = &model.TableSession{
			TableID:    tableID,
			GuestCount: req.GuestCount,
			GuestName:  req.GuestName,
			GuestPhone: req.GuestPhone,
			StartedBy:  actorID,
			AssignedTo: actorID,
			StartedAt:  time.Now().UTC(),
			Status:     model.SessionStatusActive,
			Notes:      req.Notes,
		}
		if err := tx.Session.Create(ctx, session); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrTableInvalidState.Withf("Table %s already has an active session", locked.TableNumber)
			}
			return err
		}

		if err := tx.Table.UpdateStatus(ctx, tableID, model.TableStatusOccupied, actorID); err != nil {
			return err
		}
		table.Status = model.TableStatusOccupied

		return tx.History.Create(ctx, &model.TableHistory{
			TableID:   tableID,
			EventType: model.EventSessionStarted,
			ActorID:   actorID,
			Payload: map[string]interface{}{
				"session_id":  session.SessionID,
				"guest_count": session.GuestCount,
				"from":        from,
				"to":          model.TableStatusOccupied,
			},
		})
	})
	if err != nil {
		return nil, failed(s.logger, "start session", err, zap.String("table_id", tableID))
	}

	s.logger.Info("session started",
		zap.String("table_id", tableID),
		zap.String("session_id", session.SessionID),
		zap.String("actor_id", actorID))

	s.notifier.tableChanged(ctx, table, model.EventSessionStarted, actorID, map[string]interface{}{
		"session_id":  session.SessionID,
		"guest_count": session.GuestCount,
		"status":      model.TableStatusOccupied,
	})

	return toSessionResponse(session, time.Now()), nil
}

// ═══════════════════════════════════════════════════════════
// End
// ═══════════════════════════════════════════════════════════
//
// The single cleanup point for merges: any secondaries still attached to the table are
// released and its capacity restored in the same transaction, so a table never stays
// merged without a live session behind it.

func (s *sessionService) End(ctx context.Context, tableID, actorID string) (*dto.EndSessionResponse, error) {
	var (
		table   *model.Table
		session *model.TableSession
		release *mergeRelease
		from    string
	)

	err := s.repo.RunInTx(ctx, func(tx *repository.Repository) error {
		var err error
		table, err = tx.Table.GetByIDForUpdate(ctx, tableID)
		if err != nil {
			if isNotFound(err) {
				return ErrTableNotFound
			}
			return err
		}
		from = table.Status

		session, err = tx.Session.GetActiveByTable(ctx, tableID)
		if err != nil {
			if isNotFound(err) {
				return ErrSessionNotFound.Withf("Table %s has no active session", table.TableNumber)
			}
			return err
		}

		now := time.Now().UTC()
		if err := tx.Session.Complete(ctx, session.SessionID, actorID, now); err != nil {
			return err
		}
		session.Status = model.SessionStatusCompleted
		session.EndedBy = &actorID
		session.EndedAt = &now

		records, err := tx.Merge.ListActiveByPrimary(ctx, tableID)
		if err != nil {
			return err
		}
		release, err = releaseMergeGroup(ctx, tx, table, records, actorID, "session_end")
		if err != nil {
			return err
		}

		if err := tx.Table.UpdateStatus(ctx, tableID, model.TableStatusAvailable, actorID); err != nil {
			return err
		}
		table.Status = model.TableStatusAvailable

		return tx.History.Create(ctx, &model.TableHistory{
			TableID:   tableID,
			EventType: model.EventSessionEnded,
			ActorID:   actorID,
			Payload: map[string]interface{}{
				"session_id":       session.SessionID,
				"duration_minutes": minutesBetween(session.StartedAt, now),
				"guest_count":      session.GuestCount,
				"from":             from,
				"released_tables":  release.releasedIDs,
			},
		})
	})
	if err != nil {
		return nil, failed(s.logger, "end session", err, zap.String("table_id", tableID))
	}

	s.logger.Info("session ended",
		zap.String("table_id", tableID),
		zap.String("session_id", session.SessionID),
		zap.Int("released", len(release.releasedIDs)))

	s.notifier.groupChanged(ctx, table, release.releasedIDs, release.releasedNumbers,
		model.EventSessionEnded, model.TableStatusAvailable, actorID, map[string]interface{}{
		"session_id": session.SessionID,
		"status":     model.TableStatusAvailable,
		"released":   release.releasedNumbers,
		"capacity":   table.Capacity,
	})

	released := release.releasedIDs
	if released == nil {
		released = []string{}
	}
	return &dto.EndSessionResponse{
		Session:        *toSessionResponse(session, time.Now()),
		ReleasedTables: released,
		Capacity:       table.Capacity,
	}, nil
}

// ────────────────────── Transfer ──────────────────────

func (s *sessionService) Transfer(ctx context.Context, tableID string, req *dto.TransferSessionRequest, actorID string) (*dto.SessionResponse, error) {
	elevated, err := s.permissions.IsElevated(ctx, actorID)
	if err != nil {
		s.logger.Error("permission check failed", zap.String("actor_id", actorID), zap.Error(err))
		return nil, ErrPermissionUnavailable
	}
	if !elevated {
		return nil, ErrTransferForbidden
	}

	var (
		table     *model.Table
		session   *model.TableSession
		fromActor string
	)

	err = s.repo.RunInTx(ctx, func(tx *repository.Repository) error {
		var err error
		table, err = tx.Table.GetByIDForUpdate(ctx, tableID)
		if err != nil {
			if isNotFound(err) {
				return ErrTableNotFound
			}
			return err
		}

		session, err = tx.Session.GetActiveByTable(ctx, tableID)
		if err != nil {
			if isNotFound(err) {
				return ErrSessionNotFound.Withf("Table %s has no active session", table.TableNumber)
			}
			return err
		}
		if session.AssignedTo == req.NewActorID {
			return ErrTransferSameActor
		}

		fromActor = session.AssignedTo
		if err := tx.Session.Reassign(ctx, session.SessionID, req.NewActorID); err != nil {
			return err
		}
		session.AssignedTo = req.NewActorID

		return tx.History.Create(ctx, &model.TableHistory{
			TableID:   tableID,
			EventType: model.EventSessionTransferred,
			ActorID:   actorID,
			Payload: map[string]interface{}{
				"session_id": session.SessionID,
				"from_actor": fromActor,
				"to_actor":   req.NewActorID,
			},
		})
	})
	if err != nil {
		return nil, failed(s.logger, "transfer session", err, zap.String("table_id", tableID))
	}

	s.notifier.tableChanged(ctx, table, model.EventSessionTransferred, actorID, map[string]interface{}{
		"session_id": session.SessionID,
		"from_actor": fromActor,
		"to_actor":   req.NewActorID,
	})

	return toSessionResponse(session, time.Now()), nil
}

// ────────────────────── queries ──────────────────────

func (s *sessionService) GetActive(ctx context.Context, tableID string) (*dto.SessionResponse, error) {
	table, err := s.loadTable(ctx, tableID)
	if err != nil {
		return nil, err
	}

	session, err := s.repo.Session.GetActiveByTable(ctx, tableID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrSessionNotFound.Withf("Table %s has no active session", table.TableNumber)
		}
		s.logger.Error("get active session failed", zap.String("table_id", tableID), zap.Error(err))
		return nil, err
	}
	return toSessionResponse(session, time.Now()), nil
}

// GetCurrent the active session, or nil when the table is free
func (s *sessionService) GetCurrent(ctx context.Context, tableID string) (*dto.SessionResponse, error) {
	if _, err := s.loadTable(ctx, tableID); err != nil {
		return nil, err
	}

	session, err := s.repo.Session.GetActiveByTable(ctx, tableID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		s.logger.Error("get active session failed", zap.String("table_id", tableID), zap.Error(err))
		return nil, err
	}
	return toSessionResponse(session, time.Now()), nil
}

// History sessions started in [from, to); zero bounds are open
func (s *sessionService) History(ctx context.Context, tableID string, from, to time.Time) ([]dto.SessionResponse, error) {
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return nil, ErrInvalidDateRange.WithMessage("from must be before to")
	}
	if _, err := s.loadTable(ctx, tableID); err != nil {
		return nil, err
	}

	sessions, err := s.repo.Session.ListByTable(ctx, tableID, from, to)
	if err != nil {
		s.logger.Error("list sessions failed", zap.String("table_id", tableID), zap.Error(err))
		return nil, err
	}

	now := time.Now()
	result := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		result = append(result, *toSessionResponse(&sessions[i], now))
	}
	return result, nil
}

func (s *sessionService) loadTable(ctx context.Context, tableID string) (*model.Table, error) {
	table, err := s.repo.Table.GetByID(ctx, tableID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTableNotFound
		}
		s.logger.Error("get table failed", zap.String("id", tableID), zap.Error(err))
		return nil, err
	}
	return table, nil
}
