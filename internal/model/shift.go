package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Shift statuses
const (
	ShiftStatusOpen   = "open"
	ShiftStatusClosed = "closed"
)

// Floor-level broadcast events; never written to table_history
const (
	EventShiftOpened = "shift_opened"
	EventShiftClosed = "shift_closed"
)

// ShiftSession a floor's operating day (shift_sessions)
// BusinessDate is the outlet-local calendar date (YYYY-MM-DD).
type ShiftSession struct {
	ShiftID      string     `gorm:"type:uuid;primaryKey"                                                                  json:"shift_id"`
	OutletID     string     `gorm:"type:varchar(64);not null;index"                                                       json:"outlet_id"`
	FloorID      string     `gorm:"type:uuid;not null;uniqueIndex:uq_shift_sessions_open,where:status = 'open'"           json:"floor_id"`
	BusinessDate string     `gorm:"type:varchar(10);not null;uniqueIndex:uq_shift_sessions_open,where:status = 'open'"    json:"business_date"`
	Status       string     `gorm:"type:varchar(20);not null"                                                             json:"status"`
	OpenedBy     string     `gorm:"type:varchar(64);not null"                                                             json:"opened_by"`
	OpenedAt     time.Time  `gorm:"not null"                                                                              json:"opened_at"`
	ClosedBy     *string    `gorm:"type:varchar(64)"                                                                      json:"closed_by,omitempty"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
}

func (ShiftSession) TableName() string { return "shift_sessions" }

func (s *ShiftSession) BeforeCreate(_ *gorm.DB) error {
	if s.ShiftID == "" {
		s.ShiftID = uuid.NewString()
	}
	return nil
}
