package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session statuses
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
)

// TableSession one dining engagement on a table (table_sessions)
// At most one active row per table (partial unique index).
type TableSession struct {
	SessionID  string     `gorm:"type:uuid;primaryKey"                                                                         json:"session_id"`
	TableID    string     `gorm:"type:uuid;not null;index;uniqueIndex:uq_table_sessions_active,where:status = 'active'"          json:"table_id"`
	GuestCount int        `gorm:"not null"                                                                                     json:"guest_count"`
	GuestName  string     `gorm:"type:varchar(100)"                                                                            json:"guest_name,omitempty"`
	GuestPhone string     `gorm:"type:varchar(20)"                                                                             json:"guest_phone,omitempty"`
	StartedBy  string     `gorm:"type:varchar(64);not null"                                                                    json:"started_by"`
	AssignedTo string     `gorm:"type:varchar(64);not null"                                                                    json:"assigned_to"`
	StartedAt  time.Time  `gorm:"not null"                                                                                     json:"started_at"`
	EndedBy    *string    `gorm:"type:varchar(64)"                                                                             json:"ended_by,omitempty"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	Status     string     `gorm:"type:varchar(20);not null"                                                                    json:"status"`
	Notes      string     `gorm:"type:varchar(500)"                                                                            json:"notes,omitempty"`
	OrderID    *string    `gorm:"type:varchar(64)"                                                                             json:"order_id,omitempty"`
	CreatedAt  time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"                                                           json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"                                                           json:"updated_at"`
}

func (TableSession) TableName() string { return "table_sessions" }

func (s *TableSession) BeforeCreate(_ *gorm.DB) error {
	if s.SessionID == "" {
		s.SessionID = uuid.NewString()
	}
	return nil
}

// Duration seated time up to end (or until now for an active session)
func (s *TableSession) Duration(now time.Time) time.Duration {
	end := now
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	if end.Before(s.StartedAt) {
		return 0
	}
	return end.Sub(s.StartedAt)
}
