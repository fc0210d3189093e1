package dto

// ── session DTO ──

// StartSessionRequest seat guests at a table
type StartSessionRequest struct {
	GuestCount int    `json:"guest_count" binding:"required,min=1,max=100"`
	GuestName  string `json:"guest_name"  binding:"omitempty,max=100"`
	GuestPhone string `json:"guest_phone" binding:"omitempty,max=20"`
	Notes      string `json:"notes"       binding:"omitempty,max=500"`
}

// TransferSessionRequest reassign the owning actor
type TransferSessionRequest struct {
	NewActorID string `json:"new_actor_id" binding:"required,max=64"`
}

// DateRangeRequest from/to query; YYYY-MM-DD (outlet local) or RFC 3339
type DateRangeRequest struct {
	From   string `form:"from"`
	To     string `form:"to"`
	Format string `form:"format" binding:"omitempty,oneof=json ics"`
}

// SessionResponse dining session
type SessionResponse struct {
	SessionID       string  `json:"session_id"`
	TableID         string  `json:"table_id"`
	GuestCount      int     `json:"guest_count"`
	GuestName       string  `json:"guest_name,omitempty"`
	GuestPhone      string  `json:"guest_phone,omitempty"`
	StartedBy       string  `json:"started_by"`
	AssignedTo      string  `json:"assigned_to"`
	StartedAt       string  `json:"started_at"`
	EndedBy         *string `json:"ended_by,omitempty"`
	EndedAt         *string `json:"ended_at,omitempty"`
	Status          string  `json:"status"`
	Notes           string  `json:"notes,omitempty"`
	OrderID         *string `json:"order_id,omitempty"`
	DurationMinutes int     `json:"duration_minutes"`
}

// EndSessionResponse ended session plus the tables released from its merge group
type EndSessionResponse struct {
	Session        SessionResponse `json:"session"`
	ReleasedTables []string        `json:"released_tables"`
	Capacity       int             `json:"capacity"`
}
