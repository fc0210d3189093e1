package service

import (
	pkgerrors "github.com/imaker-dev/restro-backend-sub002/pkg/errors"
)

// Business errors. Handlers map them by Kind; the Code is stable for clients.
// Call sites re-issue them with WithMessage/Withf so the reason names the table involved.

// ── table registry ──

var (
	ErrTableNotFound        = pkgerrors.NotFound(20001, "table not found")
	ErrTableNumberExists    = pkgerrors.Conflict(20002, "table number already exists in this outlet")
	ErrTableInvalidState    = pkgerrors.Conflict(20003, "table is not in a valid state for this action")
	ErrTableCapacityLocked  = pkgerrors.Conflict(20004, "capacity cannot change while the table is merged")
	ErrTableHasSession      = pkgerrors.Conflict(20005, "table has an active session")
	ErrInvalidTableStatus   = pkgerrors.Validation(20006, "invalid table status")
	ErrTableMerged          = pkgerrors.Conflict(20007, "table is merged")
	ErrTableInMergeGroup    = pkgerrors.Conflict(20008, "table is part of an active merge")
	ErrTableVersionConflict = pkgerrors.Conflict(20009, "table was modified by another request, reload and retry")
	ErrMinCapacityExceeds   = pkgerrors.Validation(20010, "min capacity cannot exceed capacity")
)

// ── floor / section ──

var (
	ErrFloorNotFound        = pkgerrors.NotFound(21001, "floor not found")
	ErrFloorInactive        = pkgerrors.Conflict(21002, "floor is inactive")
	ErrFloorOutletMismatch  = pkgerrors.Validation(21003, "floor does not belong to this outlet")
	ErrSectionNotFound      = pkgerrors.NotFound(21004, "section not found")
	ErrSectionFloorMismatch = pkgerrors.Validation(21005, "section does not belong to this floor")
)

// ── shift ──

var (
	ErrShiftClosed      = pkgerrors.PreconditionFailed(22001, "shift not opened")
	ErrShiftAlreadyOpen = pkgerrors.Conflict(22002, "shift already open")
	ErrShiftNotOpen     = pkgerrors.NotFound(22003, "no open shift")
)

// ── session ──

var (
	ErrSessionNotFound       = pkgerrors.NotFound(23001, "no active session")
	ErrTransferForbidden     = pkgerrors.Forbidden(23002, "only elevated roles can transfer a session")
	ErrSessionRequired       = pkgerrors.Conflict(23003, "status requires an active session")
	ErrSessionStillActive    = pkgerrors.Conflict(23004, "end the active session first")
	ErrTransferSameActor     = pkgerrors.Validation(23005, "session is already assigned to this actor")
	ErrPermissionUnavailable = pkgerrors.PreconditionFailed(23006, "permission check unavailable")
)

// ── merge ──

var (
	ErrMergeNoSecondaries   = pkgerrors.Validation(24001, "at least one secondary table is required")
	ErrMergeDuplicateTable  = pkgerrors.Validation(24002, "secondary table listed more than once")
	ErrMergeSelf            = pkgerrors.Validation(24003, "a table cannot be merged into itself")
	ErrTableNotMergeable    = pkgerrors.Conflict(24004, "table is not mergeable")
	ErrMergeCrossFloor      = pkgerrors.Conflict(24005, "tables are on different floors")
	ErrSecondaryUnavailable = pkgerrors.Conflict(24006, "secondary table is not available")
	ErrPrimaryMerged        = pkgerrors.Conflict(24007, "primary table is itself merged")
	ErrNoActiveMerge        = pkgerrors.NotFound(24008, "no active merge for this table")
	ErrSecondaryIsPrimary   = pkgerrors.Conflict(24009, "secondary table is the primary of another merge")
	ErrPrimaryBlocked       = pkgerrors.Conflict(24010, "primary table is blocked")
	ErrMergeTableNotFound   = pkgerrors.NotFound(24011, "merge table not found")
	ErrMergeOutletMismatch  = pkgerrors.Conflict(24012, "tables belong to different outlets")
	ErrSecondaryInactive    = pkgerrors.Conflict(24013, "secondary table is inactive")
)

// ── report ──

var (
	ErrInvalidDateRange = pkgerrors.Validation(25001, "invalid date range")
)
