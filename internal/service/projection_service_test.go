package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/imaker-dev/restro-backend-sub002/internal/dto"
	"github.com/imaker-dev/restro-backend-sub002/internal/model"
)

func seedRunningOrder(t *testing.T, env *testEnv, tableID, orderID string) {
	t.Helper()
	startSession(t, env, tableID, 3)
	if _, err := env.svc.Table.UpdateStatus(context.Background(), tableID, &dto.UpdateStatusRequest{
		Status:  model.TableStatusRunning,
		OrderID: &orderID,
	}, testWaiter); err != nil {
		t.Fatalf("UpdateStatus should succeed: %v", err)
	}
	env.orders.orders[orderID] = &dto.OrderSummary{
		OrderID:     orderID,
		OrderNumber: "A-101",
		Status:      "preparing",
		GrandTotal:  840.5,
		ItemCount:   3,
		KOTs: []dto.KOTSummary{
			{KOTID: "k1", KOTNumber: "K1", Status: "preparing", ItemCount: 2},
			{KOTID: "k2", KOTNumber: "K2", Status: "served", ItemCount: 1},
		},
	}
}

// ── GetFullDetails ──

func TestProjectionService_GetFullDetails_Running(t *testing.T) {
	env := setupFloorEnv()
	seedRunningOrder(t, env, "tbl-T1", "order-1")

	d, err := env.svc.Projection.GetFullDetails(context.Background(), "tbl-T1")
	if err != nil {
		t.Fatalf("GetFullDetails should succeed: %v", err)
	}
	if d.Session == nil || d.Owner != testWaiter {
		t.Errorf("expected session owned by %s, got %+v", testWaiter, d.Session)
	}
	if d.Order == nil || d.Order.OrderNumber != "A-101" {
		t.Errorf("expected order A-101, got %+v", d.Order)
	}
	if len(d.PendingKOTs) != 1 || d.PendingKOTs[0].KOTID != "k1" {
		t.Errorf("expected one pending KOT, got %+v", d.PendingKOTs)
	}
	if d.StatusSummary != "Order A-101 running, 3 items, 1 KOT pending" {
		t.Errorf("unexpected summary %q", d.StatusSummary)
	}
	if len(d.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", d.Warnings)
	}
	if len(d.History) == 0 || d.History[0].EventType != model.EventStatusChanged {
		t.Errorf("expected newest history first, got %+v", d.History)
	}
}

func TestProjectionService_GetFullDetails_Billing(t *testing.T) {
	env := setupFloorEnv()
	seedRunningOrder(t, env, "tbl-T1", "order-1")
	if _, err := env.svc.Table.UpdateStatus(context.Background(), "tbl-T1", status(model.TableStatusBilling), testWaiter); err != nil {
		t.Fatalf("UpdateStatus should succeed: %v", err)
	}
	env.billing.invoices["order-1"] = &dto.InvoiceSummary{InvoiceID: "inv-1", InvoiceNumber: "INV-9", GrandTotal: 840.5}

	d, err := env.svc.Projection.GetFullDetails(context.Background(), "tbl-T1")
	if err != nil {
		t.Fatalf("GetFullDetails should succeed: %v", err)
	}
	if d.Invoice == nil || d.StatusSummary != "Billing, invoice INV-9 for 840.50" {
		t.Errorf("unexpected billing view: invoice=%+v summary=%q", d.Invoice, d.StatusSummary)
	}
}

func TestProjectionService_GetFullDetails_CollaboratorsDown(t *testing.T) {
	env := setupFloorEnv()
	seedRunningOrder(t, env, "tbl-T1", "order-1")
	env.orders.err = errMockBackend
	env.billing.err = errMockBackend

	d, err := env.svc.Projection.GetFullDetails(context.Background(), "tbl-T1")
	if err != nil {
		t.Fatalf("GetFullDetails should degrade, not fail: %v", err)
	}
	if d.Order != nil || d.Invoice != nil {
		t.Errorf("expected empty order and invoice sections, got %+v / %+v", d.Order, d.Invoice)
	}
	if len(d.Warnings) != 2 {
		t.Errorf("expected two warnings, got %v", d.Warnings)
	}
	if d.StatusSummary != "Order running" {
		t.Errorf("unexpected summary %q", d.StatusSummary)
	}
}

func TestProjectionService_GetFullDetails_OwnStoreFailure(t *testing.T) {
	env := setupFloorEnv()
	env.history.err = errMockBackend

	if _, err := env.svc.Projection.GetFullDetails(context.Background(), "tbl-T1"); !errors.Is(err, errMockBackend) {
		t.Errorf("expected store error, got: %v", err)
	}
}

func TestProjectionService_GetFullDetails_MergeGroup(t *testing.T) {
	env := setupFloorEnv()
	ctx := context.Background()
	if _, err := env.svc.Merge.Merge(ctx, "tbl-T1", mergeReq("tbl-T2"), testWaiter); err != nil {
		t.Fatalf("Merge should succeed: %v", err)
	}

	secondary, err := env.svc.Projection.GetFullDetails(ctx, "tbl-T2")
	if err != nil {
		t.Fatalf("GetFullDetails should succeed: %v", err)
	}
	if secondary.MergedInto == nil || secondary.MergedInto.PrimaryTableNumber != "T1" {
		t.Errorf("expected merged into T1, got %+v", secondary.MergedInto)
	}
	if secondary.StatusSummary != "Merged with table T1" {
		t.Errorf("unexpected summary %q", secondary.StatusSummary)
	}

	primary, err := env.svc.Projection.GetFullDetails(ctx, "tbl-T1")
	if err != nil {
		t.Fatalf("GetFullDetails should succeed: %v", err)
	}
	if len(primary.Merges) != 1 || primary.Merges[0].TableNumber != "T2" {
		t.Errorf("expected T2 in merges, got %+v", primary.Merges)
	}
	if primary.StatusSummary != "Available, seats 6" {
		t.Errorf("unexpected summary %q", primary.StatusSummary)
	}
}

func TestProjectionService_GetFullDetails_NotFound(t *testing.T) {
	env := setupFloorEnv()

	if _, err := env.svc.Projection.GetFullDetails(context.Background(), "missing"); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("expected ErrTableNotFound, got: %v", err)
	}
}

// ── GetTablesByFloor ──

func setupSectionedFloor(t *testing.T) *testEnv {
	t.Helper()
	env := setupFloorEnv()
	env.sections.sections["sec-window"] = &model.Section{SectionID: "sec-window", FloorID: testFloorID, Name: "Window", DisplayOrder: 1, IsActive: true}
	env.sections.sections["sec-patio"] = &model.Section{SectionID: "sec-patio", FloorID: testFloorID, Name: "Patio", DisplayOrder: 2, IsActive: true}
	env.table(t, "tbl-T1").SectionID = strPtr("sec-window")
	env.table(t, "tbl-T2").SectionID = strPtr("sec-patio")
	return env
}

func TestProjectionService_GetTablesByFloor_Grouping(t *testing.T) {
	env := setupSectionedFloor(t)
	ctx := context.Background()
	seedRunningOrder(t, env, "tbl-T1", "order-1")
	if _, err := env.svc.Merge.Merge(ctx, "tbl-T1", mergeReq("tbl-T2"), testWaiter); err != nil {
		t.Fatalf("Merge should succeed: %v", err)
	}
	env.orders.calls = nil

	view, err := env.svc.Projection.GetTablesByFloor(ctx, testFloorID)
	if err != nil {
		t.Fatalf("GetTablesByFloor should succeed: %v", err)
	}
	if !view.ShiftOpen || view.TotalTables != 3 {
		t.Errorf("expected open shift and 3 tables, got %t/%d", view.ShiftOpen, view.TotalTables)
	}

	var names []string
	for _, g := range view.Sections {
		names = append(names, g.SectionName)
	}
	if strings.Join(names, ",") != "Window,Patio,Unassigned" {
		t.Fatalf("unexpected section order %v", names)
	}
	if view.Sections[2].SectionID != nil {
		t.Error("expected nil section id on the unsectioned group")
	}

	t1 := view.Sections[0].Tables[0]
	if t1.Session == nil || t1.Order == nil || t1.Order.PendingKOTs != 1 {
		t.Errorf("expected T1 with session and order, got %+v", t1)
	}
	if len(t1.MergedWith) != 1 || t1.MergedWith[0] != "T2" {
		t.Errorf("expected T1 merged with T2, got %v", t1.MergedWith)
	}
	t2 := view.Sections[1].Tables[0]
	if t2.MergedInto == nil || *t2.MergedInto != "tbl-T1" {
		t.Errorf("expected T2 merged into T1, got %v", t2.MergedInto)
	}

	want := map[string]int{model.TableStatusRunning: 1, model.TableStatusMerged: 1, model.TableStatusAvailable: 1, model.TableStatusBlocked: 0}
	for st, n := range want {
		if view.StatusCounts[st] != n {
			t.Errorf("expected %d %s, got %d", n, st, view.StatusCounts[st])
		}
	}
	if len(env.orders.calls) != 1 {
		t.Errorf("expected one batched order lookup, got %d", len(env.orders.calls))
	}
}

func TestProjectionService_GetTablesByFloor_Cache(t *testing.T) {
	env := setupFloorEnv()
	ctx := context.Background()

	if _, err := env.svc.Projection.GetTablesByFloor(ctx, testFloorID); err != nil {
		t.Fatalf("GetTablesByFloor should succeed: %v", err)
	}

	// a direct store change is not visible while the view is cached
	env.table(t, "tbl-T3").Status = model.TableStatusBlocked
	cached, err := env.svc.Projection.GetTablesByFloor(ctx, testFloorID)
	if err != nil {
		t.Fatalf("GetTablesByFloor should succeed: %v", err)
	}
	if cached.StatusCounts[model.TableStatusBlocked] != 0 {
		t.Error("expected cached view")
	}

	// a service mutation invalidates it
	startSession(t, env, "tbl-T1", 2)
	fresh, err := env.svc.Projection.GetTablesByFloor(ctx, testFloorID)
	if err != nil {
		t.Fatalf("GetTablesByFloor should succeed: %v", err)
	}
	if fresh.StatusCounts[model.TableStatusBlocked] != 1 || fresh.StatusCounts[model.TableStatusOccupied] != 1 {
		t.Errorf("expected fresh counts, got %v", fresh.StatusCounts)
	}
}

func TestProjectionService_GetTablesByFloor_StaleBusinessDate(t *testing.T) {
	env := setupFloorEnv()
	stale, _ := json.Marshal(&dto.FloorTablesResponse{BusinessDate: "2000-01-01", TotalTables: 99})
	env.cache.data[floorCacheKey(testFloorID)] = map[string]string{floorViewField: string(stale)}

	view, err := env.svc.Projection.GetTablesByFloor(context.Background(), testFloorID)
	if err != nil {
		t.Fatalf("GetTablesByFloor should succeed: %v", err)
	}
	if view.TotalTables != 3 {
		t.Errorf("expected stale view discarded, got %d tables", view.TotalTables)
	}
}

func TestProjectionService_GetTablesByFloor_InvalidatedDuringLoad(t *testing.T) {
	env := setupFloorEnv()
	ctx := context.Background()

	// a status change commits while the view is being built
	env.cache.afterGeneration = func() {
		env.cache.afterGeneration = nil
		if _, err := env.svc.Table.UpdateStatus(ctx, "tbl-T2", &dto.UpdateStatusRequest{Status: model.TableStatusBlocked}, testWaiter); err != nil {
			t.Fatalf("UpdateStatus should succeed: %v", err)
		}
	}

	if _, err := env.svc.Projection.GetTablesByFloor(ctx, testFloorID); err != nil {
		t.Fatalf("GetTablesByFloor should succeed: %v", err)
	}
	if _, ok := env.cache.data[floorCacheKey(testFloorID)][floorViewField]; ok {
		t.Error("view loaded before the invalidation must not be cached")
	}

	view, err := env.svc.Projection.GetTablesByFloor(ctx, testFloorID)
	if err != nil {
		t.Fatalf("GetTablesByFloor should succeed: %v", err)
	}
	if view.StatusCounts[model.TableStatusBlocked] != 1 {
		t.Errorf("expected the committed status, got %v", view.StatusCounts)
	}
	if _, ok := env.cache.data[floorCacheKey(testFloorID)][floorViewField]; !ok {
		t.Error("expected the fresh view cached")
	}
}

func TestProjectionService_GetTablesByFloor_Degraded(t *testing.T) {
	env := setupFloorEnv()
	seedRunningOrder(t, env, "tbl-T1", "order-1")
	env.orders.err = errMockBackend
	env.shiftLookup.err = errMockBackend
	env.cache.err = errMockBackend

	view, err := env.svc.Projection.GetTablesByFloor(context.Background(), testFloorID)
	if err != nil {
		t.Fatalf("GetTablesByFloor should degrade, not fail: %v", err)
	}
	if view.ShiftOpen {
		t.Error("expected shift reported closed when lookup fails")
	}
	if item := view.Sections[0].Tables[0]; item.Session == nil || item.Order != nil {
		t.Errorf("expected session without order, got %+v", item)
	}
}

func TestProjectionService_GetTablesByFloor_NotFound(t *testing.T) {
	env := setupFloorEnv()

	if _, err := env.svc.Projection.GetTablesByFloor(context.Background(), "floor-x"); !errors.Is(err, ErrFloorNotFound) {
		t.Errorf("expected ErrFloorNotFound, got: %v", err)
	}
}
