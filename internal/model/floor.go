package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Floor a dining floor of an outlet (floors)
type Floor struct {
	FloorID      string `gorm:"type:uuid;primaryKey"            json:"floor_id"`
	OutletID     string `gorm:"type:varchar(64);not null;index" json:"outlet_id"`
	Name         string `gorm:"type:varchar(100);not null"      json:"name"`
	DisplayOrder int    `gorm:"not null"                        json:"display_order"`
	IsActive     bool   `gorm:"not null"                        json:"is_active"`
	SoftDeleteModel
}

func (Floor) TableName() string { return "floors" }

func (f *Floor) BeforeCreate(_ *gorm.DB) error {
	if f.FloorID == "" {
		f.FloorID = uuid.NewString()
	}
	return nil
}

// Section a named area inside a floor (sections)
type Section struct {
	SectionID    string `gorm:"type:uuid;primaryKey"       json:"section_id"`
	FloorID      string `gorm:"type:uuid;not null;index"   json:"floor_id"`
	Name         string `gorm:"type:varchar(100);not null" json:"name"`
	DisplayOrder int    `gorm:"not null"                   json:"display_order"`
	IsActive     bool   `gorm:"not null"                   json:"is_active"`
	SoftDeleteModel
}

func (Section) TableName() string { return "sections" }

func (s *Section) BeforeCreate(_ *gorm.DB) error {
	if s.SectionID == "" {
		s.SectionID = uuid.NewString()
	}
	return nil
}
