package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Table statuses. The set is closed.
const (
	TableStatusAvailable = "available"
	TableStatusOccupied  = "occupied"
	TableStatusRunning   = "running"
	TableStatusReserved  = "reserved"
	TableStatusBilling   = "billing"
	TableStatusBlocked   = "blocked"
	TableStatusMerged    = "merged"
)

// TableStatuses every valid table status in display order
var TableStatuses = []string{
	TableStatusAvailable,
	TableStatusOccupied,
	TableStatusRunning,
	TableStatusReserved,
	TableStatusBilling,
	TableStatusBlocked,
	TableStatusMerged,
}

// IsValidTableStatus reports whether s belongs to the closed status set
func IsValidTableStatus(s string) bool {
	for _, st := range TableStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// Table shapes
const (
	TableShapeRound     = "round"
	TableShapeSquare    = "square"
	TableShapeRectangle = "rectangle"
	TableShapeOval      = "oval"
	TableShapeBooth     = "booth"
)

// Table a physical seating unit (tables)
//
// Capacity is the effective capacity: BaseCapacity plus the captured capacity of every
// secondary currently merged into this table.
type Table struct {
	TableID      string  `gorm:"type:uuid;primaryKey"                                                                  json:"table_id"`
	OutletID     string  `gorm:"type:varchar(64);not null;uniqueIndex:uq_tables_outlet_number,where:deleted_at IS NULL" json:"outlet_id"`
	FloorID      *string `gorm:"type:uuid;index"                                                                       json:"floor_id,omitempty"`
	SectionID    *string `gorm:"type:uuid"                                                                             json:"section_id,omitempty"`
	TableNumber  string  `gorm:"type:varchar(20);not null;uniqueIndex:uq_tables_outlet_number,where:deleted_at IS NULL" json:"table_number"`
	Name         string  `gorm:"type:varchar(100)"                                                                     json:"name"`
	BaseCapacity int     `gorm:"not null"                                                                              json:"base_capacity"`
	Capacity     int     `gorm:"not null"                                                                              json:"capacity"`
	MinCapacity  int     `gorm:"not null"                                                                              json:"min_capacity"`
	Shape        string  `gorm:"type:varchar(20);not null"                                                             json:"shape"`
	IsMergeable  bool    `gorm:"not null"                                                                              json:"is_mergeable"`
	IsSplittable bool    `gorm:"not null"                                                                              json:"is_splittable"`
	DisplayOrder int     `gorm:"not null"                                                                              json:"display_order"`
	Status       string  `gorm:"type:varchar(20);not null;index"                                                       json:"status"`
	IsActive     bool    `gorm:"not null"                                                                              json:"is_active"`
	VersionedModel

	Floor   *Floor       `gorm:"foreignKey:FloorID;references:FloorID"     json:"floor,omitempty"`
	Section *Section     `gorm:"foreignKey:SectionID;references:SectionID" json:"section,omitempty"`
	Layout  *TableLayout `gorm:"foreignKey:TableID;references:TableID"     json:"layout,omitempty"`
}

func (Table) TableName() string { return "tables" }

func (t *Table) BeforeCreate(_ *gorm.DB) error {
	if t.TableID == "" {
		t.TableID = uuid.NewString()
	}
	return nil
}

// FloorKey returns the floor id or "" for tables not placed on a floor
func (t *Table) FloorKey() string {
	if t.FloorID == nil {
		return ""
	}
	return *t.FloorID
}

// TableLayout position of a table on the floor plan (table_layouts, one row per table)
type TableLayout struct {
	TableID   string    `gorm:"type:uuid;primaryKey"               json:"table_id"`
	PosX      float64   `gorm:"not null"                           json:"pos_x"`
	PosY      float64   `gorm:"not null"                           json:"pos_y"`
	Width     float64   `gorm:"not null"                           json:"width"`
	Height    float64   `gorm:"not null"                           json:"height"`
	Rotation  float64   `gorm:"not null"                           json:"rotation"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (TableLayout) TableName() string { return "table_layouts" }
