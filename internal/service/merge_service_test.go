package service

import (
	"context"
	"errors"
	"testing"

	"github.com/imaker-dev/restro-backend-sub002/internal/dto"
	"github.com/imaker-dev/restro-backend-sub002/internal/model"
)

func mergeReq(ids ...string) *dto.MergeTablesRequest {
	return &dto.MergeTablesRequest{SecondaryTableIDs: ids}
}

// ── Merge ──

func TestMergeService_Merge_Success(t *testing.T) {
	env := setupFloorEnv()
	sess := startSession(t, env, "tbl-T1", 5)

	resp, err := env.svc.Merge.Merge(context.Background(), "tbl-T1", mergeReq("tbl-T2"), testWaiter)
	if err != nil {
		t.Fatalf("Merge should succeed: %v", err)
	}
	if resp.Capacity != 6 || resp.BaseCapacity != 4 {
		t.Errorf("expected capacity 6 over base 4, got %d/%d", resp.Capacity, resp.BaseCapacity)
	}
	if resp.SessionID == nil || *resp.SessionID != sess.SessionID {
		t.Errorf("expected merge linked to session %s, got %v", sess.SessionID, resp.SessionID)
	}
	if len(resp.Secondaries) != 1 || resp.Secondaries[0].TableNumber != "T2" || resp.Secondaries[0].Capacity != 2 {
		t.Errorf("unexpected secondaries: %+v", resp.Secondaries)
	}

	t1, t2 := env.table(t, "tbl-T1"), env.table(t, "tbl-T2")
	if t1.Capacity != 6 || t1.BaseCapacity != 4 {
		t.Errorf("expected T1 capacity 6 base 4, got %d/%d", t1.Capacity, t1.BaseCapacity)
	}
	if t1.Status != model.TableStatusOccupied {
		t.Errorf("expected T1 to stay occupied, got %s", t1.Status)
	}
	if t2.Status != model.TableStatusMerged {
		t.Errorf("expected T2 merged, got %s", t2.Status)
	}
	if env.activeMerges() != 1 {
		t.Errorf("expected one active merge, got %d", env.activeMerges())
	}
}

func TestMergeService_Merge_MultipleSecondaries(t *testing.T) {
	env := setupFloorEnv()

	resp, err := env.svc.Merge.Merge(context.Background(), "tbl-T1", mergeReq("tbl-T3", "tbl-T2"), testWaiter)
	if err != nil {
		t.Fatalf("Merge should succeed: %v", err)
	}
	if resp.Capacity != 10 {
		t.Errorf("expected capacity 10, got %d", resp.Capacity)
	}
	if resp.SessionID != nil {
		t.Errorf("expected no session link on a free primary, got %v", *resp.SessionID)
	}
	if len(resp.Secondaries) != 2 || resp.Secondaries[0].TableNumber != "T3" {
		t.Errorf("expected secondaries in request order, got %+v", resp.Secondaries)
	}
}

func TestMergeService_Merge_RejectedBatchChangesNothing(t *testing.T) {
	env := setupFloorEnv()
	env.seedTable("T4", 2, testFloorID)
	startSession(t, env, "tbl-T1", 6)
	env.table(t, "tbl-T3").Status = model.TableStatusOccupied
	before := len(env.history.entries)

	_, err := env.svc.Merge.Merge(context.Background(), "tbl-T1", mergeReq("tbl-T2", "tbl-T3", "tbl-T4"), testWaiter)
	if !errors.Is(err, ErrSecondaryUnavailable) {
		t.Fatalf("expected ErrSecondaryUnavailable, got: %v", err)
	}

	if got := env.table(t, "tbl-T1").Capacity; got != 4 {
		t.Errorf("expected T1 capacity unchanged, got %d", got)
	}
	for _, id := range []string{"tbl-T2", "tbl-T4"} {
		if got := env.table(t, id).Status; got != model.TableStatusAvailable {
			t.Errorf("expected %s to stay available, got %s", id, got)
		}
	}
	if env.activeMerges() != 0 {
		t.Errorf("expected no merge records, got %d", env.activeMerges())
	}
	if len(env.history.entries) != before {
		t.Errorf("expected no history written, got %d new entries", len(env.history.entries)-before)
	}
}

func TestMergeService_Merge_RequestValidation(t *testing.T) {
	env := setupFloorEnv()
	ctx := context.Background()

	cases := []struct {
		name string
		ids  []string
		want error
	}{
		{"empty", nil, ErrMergeNoSecondaries},
		{"self", []string{"tbl-T1"}, ErrMergeSelf},
		{"duplicate", []string{"tbl-T2", "tbl-T2"}, ErrMergeDuplicateTable},
		{"missing secondary", []string{"tbl-T9"}, ErrMergeTableNotFound},
	}
	for _, tc := range cases {
		_, err := env.svc.Merge.Merge(ctx, "tbl-T1", mergeReq(tc.ids...), testWaiter)
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got: %v", tc.name, tc.want, err)
		}
	}

	if _, err := env.svc.Merge.Merge(ctx, "tbl-T9", mergeReq("tbl-T2"), testWaiter); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("missing primary: expected ErrTableNotFound, got: %v", err)
	}
}

func TestMergeService_Merge_SecondaryRules(t *testing.T) {
	cases := []struct {
		name  string
		setup func(env *testEnv)
		want  error
	}{
		{"not mergeable", func(env *testEnv) { env.tables.tables["tbl-T2"].IsMergeable = false }, ErrTableNotMergeable},
		{"inactive", func(env *testEnv) { env.tables.tables["tbl-T2"].IsActive = false }, ErrSecondaryInactive},
		{"reserved", func(env *testEnv) { env.tables.tables["tbl-T2"].Status = model.TableStatusReserved }, ErrSecondaryUnavailable},
		{"other outlet", func(env *testEnv) { env.tables.tables["tbl-T2"].OutletID = "outlet-2" }, ErrMergeOutletMismatch},
		{"other floor", func(env *testEnv) {
			other := "floor-terrace"
			env.tables.tables["tbl-T2"].FloorID = &other
		}, ErrMergeCrossFloor},
	}
	for _, tc := range cases {
		env := setupFloorEnv()
		tc.setup(env)

		_, err := env.svc.Merge.Merge(context.Background(), "tbl-T1", mergeReq("tbl-T2"), testWaiter)
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got: %v", tc.name, tc.want, err)
		}
	}
}

func TestMergeService_Merge_PrimaryRules(t *testing.T) {
	env := setupFloorEnv()
	ctx := context.Background()

	if _, err := env.svc.Merge.Merge(ctx, "tbl-T1", mergeReq("tbl-T2"), testWaiter); err != nil {
		t.Fatalf("Merge should succeed: %v", err)
	}

	// T2 is a secondary now and cannot lead a group
	if _, err := env.svc.Merge.Merge(ctx, "tbl-T2", mergeReq("tbl-T3"), testWaiter); !errors.Is(err, ErrPrimaryMerged) {
		t.Errorf("expected ErrPrimaryMerged, got: %v", err)
	}
	// T1 leads a group and cannot be absorbed
	if _, err := env.svc.Merge.Merge(ctx, "tbl-T3", mergeReq("tbl-T1"), testWaiter); !errors.Is(err, ErrSecondaryIsPrimary) {
		t.Errorf("expected ErrSecondaryIsPrimary, got: %v", err)
	}

	env.table(t, "tbl-T3").Status = model.TableStatusBlocked
	env.seedTable("T4", 2, testFloorID)
	if _, err := env.svc.Merge.Merge(ctx, "tbl-T3", mergeReq("tbl-T4"), testWaiter); !errors.Is(err, ErrPrimaryBlocked) {
		t.Errorf("expected ErrPrimaryBlocked, got: %v", err)
	}
}

func TestMergeService_Merge_AlreadyMergedSecondary(t *testing.T) {
	env := setupFloorEnv()
	ctx := context.Background()

	if _, err := env.svc.Merge.Merge(ctx, "tbl-T1", mergeReq("tbl-T2"), testWaiter); err != nil {
		t.Fatalf("Merge should succeed: %v", err)
	}
	_, err := env.svc.Merge.Merge(ctx, "tbl-T3", mergeReq("tbl-T2"), testWaiter)
	if !errors.Is(err, ErrSecondaryUnavailable) {
		t.Errorf("expected ErrSecondaryUnavailable, got: %v", err)
	}
	if env.activeMerges() != 1 {
		t.Errorf("expected a single active merge for T2, got %d", env.activeMerges())
	}
}

// ── Unmerge ──

func TestMergeService_Unmerge_BySecondaryID(t *testing.T) {
	env := setupFloorEnv()
	ctx := context.Background()
	startSession(t, env, "tbl-T1", 8)

	if _, err := env.svc.Merge.Merge(ctx, "tbl-T1", mergeReq("tbl-T2", "tbl-T3"), testWaiter); err != nil {
		t.Fatalf("Merge should succeed: %v", err)
	}

	resp, err := env.svc.Merge.Unmerge(ctx, "tbl-T2", testWaiter)
	if err != nil {
		t.Fatalf("Unmerge should succeed: %v", err)
	}
	if resp.PrimaryTableID != "tbl-T1" {
		t.Errorf("expected primary T1, got %s", resp.PrimaryTableID)
	}
	if resp.Capacity != 4 {
		t.Errorf("expected capacity 4, got %d", resp.Capacity)
	}
	if len(resp.ReleasedTables) != 2 {
		t.Errorf("expected both secondaries released, got %v", resp.ReleasedTables)
	}

	if got := env.table(t, "tbl-T1").Status; got != model.TableStatusOccupied {
		t.Errorf("expected T1 to keep its session status, got %s", got)
	}
	for _, id := range []string{"tbl-T2", "tbl-T3"} {
		if got := env.table(t, id).Status; got != model.TableStatusAvailable {
			t.Errorf("expected %s available, got %s", id, got)
		}
	}
	if env.activeMerges() != 0 {
		t.Errorf("expected no active merges, got %d", env.activeMerges())
	}

	// the session survives an unmerge
	if sess, _ := env.svc.Session.GetCurrent(ctx, "tbl-T1"); sess == nil {
		t.Error("expected T1 session to remain active")
	}
}

func TestMergeService_Unmerge_NoActiveMerge(t *testing.T) {
	env := setupFloorEnv()

	if _, err := env.svc.Merge.Unmerge(context.Background(), "tbl-T1", testWaiter); !errors.Is(err, ErrNoActiveMerge) {
		t.Errorf("expected ErrNoActiveMerge, got: %v", err)
	}
	if _, err := env.svc.Merge.Unmerge(context.Background(), "missing", testWaiter); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("expected ErrTableNotFound, got: %v", err)
	}
}

func TestMergeService_Unmerge_CapacityFloorsAtOne(t *testing.T) {
	env := setupFloorEnv()
	ctx := context.Background()

	if _, err := env.svc.Merge.Merge(ctx, "tbl-T1", mergeReq("tbl-T3"), testWaiter); err != nil {
		t.Fatalf("Merge should succeed: %v", err)
	}
	env.table(t, "tbl-T1").Capacity = 2

	resp, err := env.svc.Merge.Unmerge(ctx, "tbl-T1", testWaiter)
	if err != nil {
		t.Fatalf("Unmerge should succeed: %v", err)
	}
	if resp.Capacity != 1 {
		t.Errorf("expected capacity floored at 1, got %d", resp.Capacity)
	}
}

func TestMergeService_MergeUnmergeRoundTrip(t *testing.T) {
	env := setupFloorEnv()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := env.svc.Merge.Merge(ctx, "tbl-T1", mergeReq("tbl-T2", "tbl-T3"), testWaiter); err != nil {
			t.Fatalf("round %d: Merge should succeed: %v", i, err)
		}
		if _, err := env.svc.Merge.Unmerge(ctx, "tbl-T3", testWaiter); err != nil {
			t.Fatalf("round %d: Unmerge should succeed: %v", i, err)
		}
		if got := env.table(t, "tbl-T1").Capacity; got != 4 {
			t.Fatalf("round %d: expected capacity 4, got %d", i, got)
		}
	}
}

// ── GetMergedTables ──

func TestMergeService_GetMergedTables_FromSecondary(t *testing.T) {
	env := setupFloorEnv()
	ctx := context.Background()

	if _, err := env.svc.Merge.Merge(ctx, "tbl-T1", mergeReq("tbl-T2"), testWaiter); err != nil {
		t.Fatalf("Merge should succeed: %v", err)
	}

	group, err := env.svc.Merge.GetMergedTables(ctx, "tbl-T2")
	if err != nil {
		t.Fatalf("GetMergedTables should succeed: %v", err)
	}
	if group.PrimaryTableID != "tbl-T1" || group.Capacity != 6 {
		t.Errorf("expected T1 group with 6 seats, got %s/%d", group.PrimaryTableID, group.Capacity)
	}
	if len(group.Secondaries) != 1 || group.Secondaries[0].TableNumber != "T2" {
		t.Errorf("unexpected secondaries: %+v", group.Secondaries)
	}

	solo, err := env.svc.Merge.GetMergedTables(ctx, "tbl-T3")
	if err != nil {
		t.Fatalf("GetMergedTables should succeed: %v", err)
	}
	if len(solo.Secondaries) != 0 {
		t.Errorf("expected empty group for T3, got %+v", solo.Secondaries)
	}
}

// ── AuditCapacity ──

func TestMergeService_AuditCapacity(t *testing.T) {
	env := setupFloorEnv()
	ctx := context.Background()

	if _, err := env.svc.Merge.Merge(ctx, "tbl-T1", mergeReq("tbl-T2"), testWaiter); err != nil {
		t.Fatalf("Merge should succeed: %v", err)
	}

	clean, err := env.svc.Merge.AuditCapacity(ctx, testOutlet)
	if err != nil {
		t.Fatalf("AuditCapacity should succeed: %v", err)
	}
	if clean.Checked != 3 || len(clean.Drifts) != 0 {
		t.Errorf("expected 3 tables without drift, got %d/%v", clean.Checked, clean.Drifts)
	}

	env.table(t, "tbl-T1").Capacity = 9
	env.table(t, "tbl-T3").Capacity = 5

	report, err := env.svc.Merge.AuditCapacity(ctx, testOutlet)
	if err != nil {
		t.Fatalf("AuditCapacity should succeed: %v", err)
	}
	if len(report.Drifts) != 2 {
		t.Fatalf("expected 2 drifts, got %+v", report.Drifts)
	}
	d := report.Drifts[0]
	if d.TableNumber != "T1" || d.Expected != 6 || d.Actual != 9 || d.MergedSum != 2 {
		t.Errorf("unexpected T1 drift: %+v", d)
	}
	if env.table(t, "tbl-T1").Capacity != 9 {
		t.Error("audit must not repair capacity")
	}
}

func TestMergeService_BroadcastsEverySecondary(t *testing.T) {
	env := setupFloorEnv()
	ctx := context.Background()

	if _, err := env.svc.Merge.Merge(ctx, "tbl-T1", mergeReq("tbl-T2", "tbl-T3"), testWaiter); err != nil {
		t.Fatalf("Merge should succeed: %v", err)
	}
	assertGroupEvents(t, env.broadcaster.events, model.EventTablesMerged, model.TableStatusMerged, "T1", "T2", "T3")

	env.broadcaster.events = nil
	if _, err := env.svc.Merge.Unmerge(ctx, "tbl-T3", testWaiter); err != nil {
		t.Fatalf("Unmerge should succeed: %v", err)
	}
	assertGroupEvents(t, env.broadcaster.events, model.EventTablesUnmerged, model.TableStatusAvailable, "T1", "T2", "T3")
}

// assertGroupEvents primary event first, then one per secondary naming the primary
func assertGroupEvents(t *testing.T, events []*FloorEvent, event, secondaryStatus, primary string, secondaries ...string) {
	t.Helper()
	if len(events) != 1+len(secondaries) {
		t.Fatalf("expected %d events, got %d", 1+len(secondaries), len(events))
	}
	if events[0].TableNumber != primary || events[0].Event != event {
		t.Errorf("expected %s for %s first, got %s for %s", event, primary, events[0].Event, events[0].TableNumber)
	}
	got := map[string]bool{}
	for _, e := range events[1:] {
		if e.Event != event || e.FloorID != testFloorID {
			t.Errorf("unexpected secondary event %+v", e)
		}
		if e.Data["role"] != "secondary" || e.Data["status"] != secondaryStatus || e.Data["primary_table_number"] != primary {
			t.Errorf("unexpected secondary payload %v", e.Data)
		}
		got[e.TableNumber] = true
	}
	for _, n := range secondaries {
		if !got[n] {
			t.Errorf("no event for secondary %s", n)
		}
	}
}
