package dto

// ── merge DTO ──

// MergeTablesRequest merge secondaries into the path table
type MergeTablesRequest struct {
	SecondaryTableIDs []string `json:"secondary_table_ids" binding:"required,min=1,dive,uuid"`
}

// MergedTableResponse one active merge edge
type MergedTableResponse struct {
	MergeID     string `json:"merge_id"`
	TableID     string `json:"table_id"`
	TableNumber string `json:"table_number"`
	Capacity    int    `json:"capacity"`
	MergedBy    string `json:"merged_by"`
	MergedAt    string `json:"merged_at"`
}

// MergeGroupResponse a primary and its active secondaries
type MergeGroupResponse struct {
	PrimaryTableID     string                `json:"primary_table_id"`
	PrimaryTableNumber string                `json:"primary_table_number"`
	SessionID          *string               `json:"session_id,omitempty"`
	Capacity           int                   `json:"capacity"`
	BaseCapacity       int                   `json:"base_capacity"`
	Secondaries        []MergedTableResponse `json:"secondaries"`
}

// UnmergeResponse result of dissolving a merge group
type UnmergeResponse struct {
	PrimaryTableID string   `json:"primary_table_id"`
	Capacity       int      `json:"capacity"`
	ReleasedTables []string `json:"released_tables"`
}

// CapacityDrift a table whose stored capacity disagrees with its merge records
type CapacityDrift struct {
	TableID     string `json:"table_id"`
	TableNumber string `json:"table_number"`
	Base        int    `json:"base_capacity"`
	MergedSum   int    `json:"merged_capacity"`
	Expected    int    `json:"expected"`
	Actual      int    `json:"actual"`
}

// CapacityAuditResponse capacity consistency report for an outlet
type CapacityAuditResponse struct {
	OutletID string          `json:"outlet_id"`
	Checked  int             `json:"checked"`
	Drifts   []CapacityDrift `json:"drifts"`
}
