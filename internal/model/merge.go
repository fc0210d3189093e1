package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TableMerge directed primary → secondary edge (table_merges)
// Active while UnmergedAt is nil. SecondaryCapacity is captured at merge time and is exactly
// what unmerge subtracts from the primary.
type TableMerge struct {
	MergeID           string     `gorm:"type:uuid;primaryKey"                                                                       json:"merge_id"`
	PrimaryTableID    string     `gorm:"type:uuid;not null;index"                                                                   json:"primary_table_id"`
	SecondaryTableID  string     `gorm:"type:uuid;not null;uniqueIndex:uq_table_merges_active_secondary,where:unmerged_at IS NULL"  json:"secondary_table_id"`
	SessionID         *string    `gorm:"type:uuid"                                                                                  json:"session_id,omitempty"`
	SecondaryCapacity int        `gorm:"not null"                                                                                   json:"secondary_capacity"`
	MergedBy          string     `gorm:"type:varchar(64);not null"                                                                  json:"merged_by"`
	MergedAt          time.Time  `gorm:"not null"                                                                                   json:"merged_at"`
	UnmergedBy        *string    `gorm:"type:varchar(64)"                                                                           json:"unmerged_by,omitempty"`
	UnmergedAt        *time.Time `json:"unmerged_at,omitempty"`

	Primary   *Table `gorm:"foreignKey:PrimaryTableID;references:TableID"   json:"primary,omitempty"`
	Secondary *Table `gorm:"foreignKey:SecondaryTableID;references:TableID" json:"secondary,omitempty"`
}

func (TableMerge) TableName() string { return "table_merges" }

func (m *TableMerge) BeforeCreate(_ *gorm.DB) error {
	if m.MergeID == "" {
		m.MergeID = uuid.NewString()
	}
	return nil
}

// IsActive reports whether the merge has not been undone
func (m *TableMerge) IsActive() bool { return m.UnmergedAt == nil }
