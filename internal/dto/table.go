package dto

// ── table registry DTO ──

// LayoutRequest floor plan placement
type LayoutRequest struct {
	PosX     float64 `json:"pos_x"`
	PosY     float64 `json:"pos_y"`
	Width    float64 `json:"width"    binding:"omitempty,min=0"`
	Height   float64 `json:"height"   binding:"omitempty,min=0"`
	Rotation float64 `json:"rotation" binding:"omitempty,min=0,max=360"`
}

// CreateTableRequest create table request
type CreateTableRequest struct {
	OutletID     string         `json:"outlet_id"     binding:"required,max=64"`
	FloorID      *string        `json:"floor_id"      binding:"omitempty,uuid"`
	SectionID    *string        `json:"section_id"    binding:"omitempty,uuid"`
	TableNumber  string         `json:"table_number"  binding:"required,max=20"`
	Name         string         `json:"name"          binding:"omitempty,max=100"`
	Capacity     int            `json:"capacity"      binding:"required,min=1,max=100"`
	MinCapacity  int            `json:"min_capacity"  binding:"omitempty,min=1"`
	Shape        string         `json:"shape"         binding:"omitempty,oneof=round square rectangle oval booth"`
	IsMergeable  *bool          `json:"is_mergeable"`
	IsSplittable *bool          `json:"is_splittable"`
	DisplayOrder int            `json:"display_order" binding:"omitempty,min=0"`
	Layout       *LayoutRequest `json:"layout"`
}

// UpdateTableRequest partial update; nil fields are left unchanged
type UpdateTableRequest struct {
	FloorID      *string        `json:"floor_id"      binding:"omitempty,uuid"`
	SectionID    *string        `json:"section_id"    binding:"omitempty,uuid"`
	TableNumber  *string        `json:"table_number"  binding:"omitempty,min=1,max=20"`
	Name         *string        `json:"name"          binding:"omitempty,max=100"`
	Capacity     *int           `json:"capacity"      binding:"omitempty,min=1,max=100"`
	MinCapacity  *int           `json:"min_capacity"  binding:"omitempty,min=1"`
	Shape        *string        `json:"shape"         binding:"omitempty,oneof=round square rectangle oval booth"`
	IsMergeable  *bool          `json:"is_mergeable"`
	IsSplittable *bool          `json:"is_splittable"`
	DisplayOrder *int           `json:"display_order" binding:"omitempty,min=0"`
	IsActive     *bool          `json:"is_active"`
	Version      *int           `json:"version"       binding:"omitempty,min=1"`
	Layout       *LayoutRequest `json:"layout"`
}

// TableListRequest list query
type TableListRequest struct {
	OutletID  string `form:"outlet_id"  binding:"required"`
	FloorID   string `form:"floor_id"   binding:"omitempty,uuid"`
	SectionID string `form:"section_id" binding:"omitempty,uuid"`
	Status    string `form:"status"     binding:"omitempty,oneof=available occupied running reserved billing blocked merged"`
	IsActive  *bool  `form:"is_active"`
}

// UpdateStatusRequest status transition request
type UpdateStatusRequest struct {
	Status  string  `json:"status"   binding:"required"`
	Reason  string  `json:"reason"   binding:"omitempty,max=200"`
	OrderID *string `json:"order_id" binding:"omitempty,max=64"`
}

// HistoryListRequest timeline query
type HistoryListRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// LayoutResponse floor plan placement
type LayoutResponse struct {
	PosX     float64 `json:"pos_x"`
	PosY     float64 `json:"pos_y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
}

// TableResponse denormalized table
type TableResponse struct {
	TableID      string          `json:"table_id"`
	OutletID     string          `json:"outlet_id"`
	FloorID      *string         `json:"floor_id,omitempty"`
	FloorName    string          `json:"floor_name,omitempty"`
	SectionID    *string         `json:"section_id,omitempty"`
	SectionName  string          `json:"section_name,omitempty"`
	TableNumber  string          `json:"table_number"`
	Name         string          `json:"name,omitempty"`
	Capacity     int             `json:"capacity"`
	BaseCapacity int             `json:"base_capacity"`
	MinCapacity  int             `json:"min_capacity"`
	Shape        string          `json:"shape"`
	IsMergeable  bool            `json:"is_mergeable"`
	IsSplittable bool            `json:"is_splittable"`
	DisplayOrder int             `json:"display_order"`
	Status       string          `json:"status"`
	IsActive     bool            `json:"is_active"`
	Version      int             `json:"version"`
	Layout       *LayoutResponse `json:"layout,omitempty"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
}

// HistoryResponse one audit entry
type HistoryResponse struct {
	HistoryID uint64                 `json:"history_id"`
	TableID   string                 `json:"table_id"`
	EventType string                 `json:"event_type"`
	ActorID   string                 `json:"actor_id,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	CreatedAt string                 `json:"created_at"`
}
