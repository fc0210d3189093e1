package dto

// ── status projection / floor view DTO ──

// MergedIntoResponse the primary a merged table belongs to
type MergedIntoResponse struct {
	MergeID            string `json:"merge_id"`
	PrimaryTableID     string `json:"primary_table_id"`
	PrimaryTableNumber string `json:"primary_table_number,omitempty"`
	MergedAt           string `json:"merged_at"`
}

// TableDetailsResponse full assembled view of one table
type TableDetailsResponse struct {
	Table         TableResponse         `json:"table"`
	StatusSummary string                `json:"status_summary"`
	Session       *SessionResponse      `json:"session,omitempty"`
	Owner         string                `json:"owner,omitempty"`
	Order         *OrderSummary         `json:"order,omitempty"`
	PendingKOTs   []KOTSummary          `json:"pending_kots,omitempty"`
	Invoice       *InvoiceSummary       `json:"invoice,omitempty"`
	Merges        []MergedTableResponse `json:"merges,omitempty"`
	MergedInto    *MergedIntoResponse   `json:"merged_into,omitempty"`
	History       []HistoryResponse     `json:"history"`
	Warnings      []string              `json:"warnings,omitempty"`
}

// FloorSessionBrief session fields shown on a floor tile
type FloorSessionBrief struct {
	SessionID       string `json:"session_id"`
	GuestCount      int    `json:"guest_count"`
	AssignedTo      string `json:"assigned_to"`
	StartedAt       string `json:"started_at"`
	DurationMinutes int    `json:"duration_minutes"`
}

// FloorOrderBrief order fields shown on a floor tile
type FloorOrderBrief struct {
	OrderID     string  `json:"order_id"`
	OrderNumber string  `json:"order_number,omitempty"`
	Status      string  `json:"status"`
	GrandTotal  float64 `json:"grand_total"`
	ItemCount   int     `json:"item_count"`
	PendingKOTs int     `json:"pending_kots"`
}

// FloorTableItem one tile of the floor view
type FloorTableItem struct {
	TableResponse
	Session    *FloorSessionBrief `json:"session,omitempty"`
	Order      *FloorOrderBrief   `json:"order,omitempty"`
	MergedWith []string           `json:"merged_with,omitempty"`
	MergedInto *string            `json:"merged_into,omitempty"`
}

// FloorSectionGroup tables of one section; SectionID nil groups unsectioned tables
type FloorSectionGroup struct {
	SectionID   *string          `json:"section_id"`
	SectionName string           `json:"section_name"`
	Tables      []FloorTableItem `json:"tables"`
}

// FloorTablesResponse floor view
type FloorTablesResponse struct {
	Floor        FloorResponse       `json:"floor"`
	BusinessDate string              `json:"business_date"`
	ShiftOpen    bool                `json:"shift_open"`
	Sections     []FloorSectionGroup `json:"sections"`
	StatusCounts map[string]int      `json:"status_counts"`
	TotalTables  int                 `json:"total_tables"`
}
