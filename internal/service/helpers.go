package service

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/imaker-dev/restro-backend-sub002/internal/dto"
	"github.com/imaker-dev/restro-backend-sub002/internal/model"
	pkgerrors "github.com/imaker-dev/restro-backend-sub002/pkg/errors"
)

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// failed logs infrastructure errors; business errors pass through untouched
func failed(logger *zap.Logger, op string, err error, fields ...zap.Field) error {
	if _, ok := pkgerrors.AsBiz(err); ok {
		return err
	}
	logger.Error(op+" failed", append(fields, zap.Error(err))...)
	return err
}

func minutesBetween(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start) / time.Minute)
}

func toTableResponse(t *model.Table) *dto.TableResponse {
	resp := &dto.TableResponse{
		TableID:      t.TableID,
		OutletID:     t.OutletID,
		FloorID:      t.FloorID,
		SectionID:    t.SectionID,
		TableNumber:  t.TableNumber,
		Name:         t.Name,
		Capacity:     t.Capacity,
		BaseCapacity: t.BaseCapacity,
		MinCapacity:  t.MinCapacity,
		Shape:        t.Shape,
		IsMergeable:  t.IsMergeable,
		IsSplittable: t.IsSplittable,
		DisplayOrder: t.DisplayOrder,
		Status:       t.Status,
		IsActive:     t.IsActive,
		Version:      t.Version,
		CreatedAt:    formatTime(t.CreatedAt),
		UpdatedAt:    formatTime(t.UpdatedAt),
	}
	if t.Floor != nil {
		resp.FloorName = t.Floor.Name
	}
	if t.Section != nil {
		resp.SectionName = t.Section.Name
	}
	if t.Layout != nil {
		resp.Layout = &dto.LayoutResponse{
			PosX:     t.Layout.PosX,
			PosY:     t.Layout.PosY,
			Width:    t.Layout.Width,
			Height:   t.Layout.Height,
			Rotation: t.Layout.Rotation,
		}
	}
	return resp
}

func toSessionResponse(s *model.TableSession, now time.Time) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		SessionID:       s.SessionID,
		TableID:         s.TableID,
		GuestCount:      s.GuestCount,
		GuestName:       s.GuestName,
		GuestPhone:      s.GuestPhone,
		StartedBy:       s.StartedBy,
		AssignedTo:      s.AssignedTo,
		StartedAt:       formatTime(s.StartedAt),
		EndedBy:         s.EndedBy,
		Status:          s.Status,
		Notes:           s.Notes,
		OrderID:         s.OrderID,
		DurationMinutes: int(s.Duration(now) / time.Minute),
	}
	if s.EndedAt != nil {
		ended := formatTime(*s.EndedAt)
		resp.EndedAt = &ended
	}
	return resp
}

func toHistoryResponse(h *model.TableHistory) dto.HistoryResponse {
	return dto.HistoryResponse{
		HistoryID: h.HistoryID,
		TableID:   h.TableID,
		EventType: h.EventType,
		ActorID:   h.ActorID,
		Payload:   h.Payload,
		CreatedAt: formatTime(h.CreatedAt),
	}
}

func toMergedTableResponse(m *model.TableMerge, tableNumber string) dto.MergedTableResponse {
	return dto.MergedTableResponse{
		MergeID:     m.MergeID,
		TableID:     m.SecondaryTableID,
		TableNumber: tableNumber,
		Capacity:    m.SecondaryCapacity,
		MergedBy:    m.MergedBy,
		MergedAt:    formatTime(m.MergedAt),
	}
}
