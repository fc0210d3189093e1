package dto

// ── report DTO ──

// TableReportResponse usage of one table over a date range
type TableReportResponse struct {
	TableID            string  `json:"table_id"`
	TableNumber        string  `json:"table_number"`
	Status             string  `json:"status"`
	From               string  `json:"from"`
	To                 string  `json:"to"`
	Sessions           int     `json:"sessions"`
	CompletedSessions  int     `json:"completed_sessions"`
	TotalGuests        int     `json:"total_guests"`
	AvgPartySize       float64 `json:"avg_party_size"`
	TotalSeatedMinutes int     `json:"total_seated_minutes"`
	AvgSeatedMinutes   float64 `json:"avg_seated_minutes"`
	MergesAsPrimary    int64   `json:"merges_as_primary"`
	StatusChanges      int64   `json:"status_changes"`
}

// FloorReportTotals aggregate over a floor
type FloorReportTotals struct {
	Sessions           int     `json:"sessions"`
	TotalGuests        int     `json:"total_guests"`
	TotalSeatedMinutes int     `json:"total_seated_minutes"`
	AvgPartySize       float64 `json:"avg_party_size"`
	MergesAsPrimary    int64   `json:"merges_as_primary"`
}

// FloorReportResponse per-table usage of a floor over a date range
type FloorReportResponse struct {
	FloorID            string                `json:"floor_id"`
	FloorName          string                `json:"floor_name"`
	From               string                `json:"from"`
	To                 string                `json:"to"`
	Tables             []TableReportResponse `json:"tables"`
	Totals             FloorReportTotals     `json:"totals"`
	StatusDistribution map[string]int        `json:"status_distribution"`
}
