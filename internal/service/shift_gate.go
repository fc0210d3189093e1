package service

import (
	"context"
	"time"

	"github.com/imaker-dev/restro-backend-sub002/internal/model"
)

// businessDateLayout local calendar date used as the shift key
const businessDateLayout = "2006-01-02"

// ShiftGate decides whether seating is allowed on a floor right now.
// The date is taken from the outlet's wall clock, not UTC, so a late dinner
// does not fall into the next day's shift.
type ShiftGate struct {
	lookup ShiftLookup
	loc    *time.Location
	now    func() time.Time
}

// NewShiftGate creates a gate over lookup in the outlet timezone
func NewShiftGate(lookup ShiftLookup, loc *time.Location) *ShiftGate {
	if loc == nil {
		loc = time.UTC
	}
	return &ShiftGate{lookup: lookup, loc: loc, now: time.Now}
}

// LocalDate current business date in the outlet timezone
func (g *ShiftGate) LocalDate() string {
	return g.now().In(g.loc).Format(businessDateLayout)
}

// IsOpen reports whether the floor has an open shift today
func (g *ShiftGate) IsOpen(ctx context.Context, outletID, floorID string) (bool, error) {
	return g.lookup.IsShiftOpen(ctx, outletID, floorID, g.LocalDate())
}

// Check returns ErrShiftClosed naming the floor when no shift is open
func (g *ShiftGate) Check(ctx context.Context, table *model.Table) error {
	if table.FloorID == nil {
		return nil
	}
	open, err := g.IsOpen(ctx, table.OutletID, *table.FloorID)
	if err != nil {
		return err
	}
	if !open {
		name := *table.FloorID
		if table.Floor != nil {
			name = table.Floor.Name
		}
		return ErrShiftClosed.Withf("Shift not opened for %s", name)
	}
	return nil
}
