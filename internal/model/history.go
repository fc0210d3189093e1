package model

import (
	"time"

	"gorm.io/datatypes"
)

// History event types
const (
	EventTableCreated       = "table_created"
	EventTableUpdated       = "table_updated"
	EventTableDeleted       = "table_deleted"
	EventStatusChanged      = "status_changed"
	EventSessionStarted     = "session_started"
	EventSessionEnded       = "session_ended"
	EventSessionTransferred = "session_transferred"
	EventTablesMerged       = "tables_merged"
	EventTablesUnmerged     = "tables_unmerged"
)

// TableHistory append-only audit trail (table_history)
type TableHistory struct {
	HistoryID uint64            `gorm:"primaryKey;autoIncrement"           json:"history_id"`
	TableID   string            `gorm:"type:uuid;not null;index"           json:"table_id"`
	EventType string            `gorm:"type:varchar(40);not null"          json:"event_type"`
	ActorID   string            `gorm:"type:varchar(64)"                   json:"actor_id,omitempty"`
	Payload   datatypes.JSONMap `gorm:"type:jsonb"                         json:"payload,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (TableHistory) TableName() string { return "table_history" }
