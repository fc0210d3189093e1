package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/imaker-dev/restro-backend-sub002/internal/model"
)

func setupTestShiftService(now time.Time, loc *time.Location) (*shiftService, *testEnv) {
	env := setupTestEnv()
	n := newNotifier(env.broadcaster, env.cache, zap.NewNop())
	svc := NewShiftService(env.repo, loc, n, zap.NewNop()).(*shiftService)
	svc.now = func() time.Time { return now }
	return svc, env
}

func TestShiftService_OpenStatusClose(t *testing.T) {
	now := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	svc, _ := setupTestShiftService(now, time.UTC)
	ctx := context.Background()

	st, err := svc.Status(ctx, testFloorID)
	if err != nil {
		t.Fatalf("Status should succeed: %v", err)
	}
	if st.IsOpen || st.BusinessDate != "2026-03-02" {
		t.Errorf("expected closed on 2026-03-02, got %+v", st)
	}

	shift, err := svc.Open(ctx, testFloorID, "manager-1")
	if err != nil {
		t.Fatalf("Open should succeed: %v", err)
	}
	if shift.Status != model.ShiftStatusOpen || shift.OutletID != testOutlet {
		t.Errorf("unexpected shift %+v", shift)
	}

	if _, err := svc.Open(ctx, testFloorID, "manager-1"); !errors.Is(err, ErrShiftAlreadyOpen) {
		t.Errorf("expected ErrShiftAlreadyOpen, got: %v", err)
	}

	open, err := svc.IsShiftOpen(ctx, testOutlet, testFloorID, "2026-03-02")
	if err != nil || !open {
		t.Errorf("expected shift open, got %t / %v", open, err)
	}
	if open, _ := svc.IsShiftOpen(ctx, testOutlet, testFloorID, "2026-03-03"); open {
		t.Error("expected no shift on the next date")
	}

	closed, err := svc.Close(ctx, testFloorID, "manager-1")
	if err != nil {
		t.Fatalf("Close should succeed: %v", err)
	}
	if closed.Status != model.ShiftStatusClosed || closed.ClosedAt == nil {
		t.Errorf("unexpected closed shift %+v", closed)
	}
	if _, err := svc.Close(ctx, testFloorID, "manager-1"); !errors.Is(err, ErrShiftNotOpen) {
		t.Errorf("expected ErrShiftNotOpen, got: %v", err)
	}
}

func TestShiftService_FloorNotFound(t *testing.T) {
	svc, _ := setupTestShiftService(time.Now(), time.UTC)

	if _, err := svc.Open(context.Background(), "floor-x", "manager-1"); !errors.Is(err, ErrFloorNotFound) {
		t.Errorf("expected ErrFloorNotFound, got: %v", err)
	}
}

func TestShiftService_BusinessDateUsesOutletTimezone(t *testing.T) {
	kolkata := time.FixedZone("IST", 5*3600+1800)
	// 20:00 UTC is already the next morning in Kolkata
	now := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	svc, _ := setupTestShiftService(now, kolkata)

	shift, err := svc.Open(context.Background(), testFloorID, "manager-1")
	if err != nil {
		t.Fatalf("Open should succeed: %v", err)
	}
	if shift.BusinessDate != "2026-03-02" {
		t.Errorf("expected local date 2026-03-02, got %s", shift.BusinessDate)
	}
}

// ── ShiftGate ──

func TestShiftGate_LocalDate(t *testing.T) {
	gate := NewShiftGate(&fakeShiftLookup{}, time.FixedZone("PST", -8*3600))
	gate.now = func() time.Time { return time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC) }

	if got := gate.LocalDate(); got != "2026-03-01" {
		t.Errorf("expected 2026-03-01, got %s", got)
	}
}

func TestShiftGate_Check(t *testing.T) {
	lookup := &fakeShiftLookup{open: map[string]bool{"floor-a": true}}
	gate := NewShiftGate(lookup, time.UTC)
	ctx := context.Background()

	open := &model.Table{OutletID: testOutlet, FloorID: strPtr("floor-a")}
	if err := gate.Check(ctx, open); err != nil {
		t.Errorf("expected open floor to pass: %v", err)
	}

	closed := &model.Table{OutletID: testOutlet, FloorID: strPtr("floor-b"), Floor: &model.Floor{Name: "Rooftop"}}
	err := gate.Check(ctx, closed)
	if !errors.Is(err, ErrShiftClosed) || err.Error() != "Shift not opened for Rooftop" {
		t.Errorf("expected ErrShiftClosed naming Rooftop, got: %v", err)
	}

	if err := gate.Check(ctx, &model.Table{OutletID: testOutlet}); err != nil {
		t.Errorf("expected table without floor to pass: %v", err)
	}
}

func TestShiftService_OpenCloseRefreshFloorView(t *testing.T) {
	now := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	svc, env := setupTestShiftService(now, time.UTC)
	ctx := context.Background()
	key := floorCacheKey(testFloorID)

	// a floor view cached while the shift was closed
	env.cache.seed(key, "view", `{"shift_open":false}`)

	if _, err := svc.Open(ctx, testFloorID, "manager-1"); err != nil {
		t.Fatalf("Open should succeed: %v", err)
	}
	if _, ok, _ := env.cache.Get(ctx, key, "view"); ok {
		t.Error("expected floor view dropped after Open")
	}

	env.cache.seed(key, "view", `{"shift_open":true}`)
	if _, err := svc.Close(ctx, testFloorID, "manager-1"); err != nil {
		t.Fatalf("Close should succeed: %v", err)
	}
	if _, ok, _ := env.cache.Get(ctx, key, "view"); ok {
		t.Error("expected floor view dropped after Close")
	}

	got := env.broadcaster.names()
	if len(got) != 2 || got[0] != model.EventShiftOpened || got[1] != model.EventShiftClosed {
		t.Errorf("unexpected events %v", got)
	}
	for _, e := range env.broadcaster.events {
		if e.FloorID != testFloorID || e.OutletID != testOutlet || e.ActorID != "manager-1" {
			t.Errorf("unexpected event envelope %+v", e)
		}
	}
}

func TestShiftService_BroadcastFailureDoesNotFailOpen(t *testing.T) {
	svc, env := setupTestShiftService(time.Now(), time.UTC)
	env.broadcaster.err = errors.New("redis down")
	env.cache.err = errors.New("redis down")

	if _, err := svc.Open(context.Background(), testFloorID, "manager-1"); err != nil {
		t.Fatalf("Open should succeed despite side-channel failure: %v", err)
	}
	if len(env.shifts.shifts) != 1 {
		t.Error("expected shift row persisted")
	}
}
