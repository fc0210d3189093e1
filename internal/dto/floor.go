package dto

// ── floor / section / shift DTO ──

// CreateFloorRequest create floor request
type CreateFloorRequest struct {
	OutletID     string `json:"outlet_id"     binding:"required,max=64"`
	Name         string `json:"name"          binding:"required,max=100"`
	DisplayOrder int    `json:"display_order" binding:"omitempty,min=0"`
}

// FloorListRequest floors of an outlet
type FloorListRequest struct {
	OutletID string `form:"outlet_id" binding:"required"`
}

// CreateSectionRequest create section request
type CreateSectionRequest struct {
	Name         string `json:"name"          binding:"required,max=100"`
	DisplayOrder int    `json:"display_order" binding:"omitempty,min=0"`
}

// FloorResponse floor
type FloorResponse struct {
	FloorID      string `json:"floor_id"`
	OutletID     string `json:"outlet_id"`
	Name         string `json:"name"`
	DisplayOrder int    `json:"display_order"`
	IsActive     bool   `json:"is_active"`
	CreatedAt    string `json:"created_at"`
}

// SectionResponse section
type SectionResponse struct {
	SectionID    string `json:"section_id"`
	FloorID      string `json:"floor_id"`
	Name         string `json:"name"`
	DisplayOrder int    `json:"display_order"`
	IsActive     bool   `json:"is_active"`
}

// ShiftResponse a floor day-session
type ShiftResponse struct {
	ShiftID      string  `json:"shift_id"`
	OutletID     string  `json:"outlet_id"`
	FloorID      string  `json:"floor_id"`
	BusinessDate string  `json:"business_date"`
	Status       string  `json:"status"`
	OpenedBy     string  `json:"opened_by"`
	OpenedAt     string  `json:"opened_at"`
	ClosedBy     *string `json:"closed_by,omitempty"`
	ClosedAt     *string `json:"closed_at,omitempty"`
}

// ShiftStatusResponse gate state of a floor for the current local date
type ShiftStatusResponse struct {
	FloorID      string         `json:"floor_id"`
	BusinessDate string         `json:"business_date"`
	IsOpen       bool           `json:"is_open"`
	Shift        *ShiftResponse `json:"shift,omitempty"`
}
