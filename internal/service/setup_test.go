package service

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/imaker-dev/restro-backend-sub002/config"
	"github.com/imaker-dev/restro-backend-sub002/internal/dto"
	"github.com/imaker-dev/restro-backend-sub002/internal/model"
	"github.com/imaker-dev/restro-backend-sub002/internal/repository"
)

const (
	testOutlet  = "outlet-1"
	testFloorID = "floor-main"
	testWaiter  = "waiter-1"
	testCaptain = "captain-1"
)

type testEnv struct {
	svc  *Service
	repo *repository.Repository

	floors   *mockFloorRepo
	sections *mockSectionRepo
	tables   *mockTableRepo
	sessions *mockSessionRepo
	merges   *mockMergeRepo
	history  *mockHistoryRepo
	shifts   *mockShiftRepo

	shiftLookup *fakeShiftLookup
	perms       *fakePermissions
	orders      *fakeOrders
	billing     *fakeBilling
	broadcaster *fakeBroadcaster
	cache       *fakeCache
}

func testConfig() *config.Config {
	return &config.Config{
		Floor: config.FloorConfig{
			Timezone:            "UTC",
			ElevatedRoles:       []string{"manager", "captain"},
			HistoryDefaultLimit: 50,
			HistoryMaxLimit:     200,
			DetailHistoryLimit:  20,
			CacheTTL:            time.Minute,
		},
	}
}

// setupTestEnv empty repositories and fakes with an open shift on the main floor
func setupTestEnv() *testEnv {
	floors := newMockFloorRepo()
	sections := newMockSectionRepo()
	tables := newMockTableRepo(floors, sections)

	env := &testEnv{
		floors:      floors,
		sections:    sections,
		tables:      tables,
		sessions:    newMockSessionRepo(),
		merges:      newMockMergeRepo(tables),
		history:     newMockHistoryRepo(),
		shifts:      newMockShiftRepo(),
		shiftLookup: &fakeShiftLookup{open: map[string]bool{testFloorID: true}},
		perms:       &fakePermissions{elevated: map[string]bool{testCaptain: true}},
		orders:      &fakeOrders{orders: map[string]*dto.OrderSummary{}},
		billing:     &fakeBilling{invoices: map[string]*dto.InvoiceSummary{}},
		broadcaster: &fakeBroadcaster{},
		cache:       newFakeCache(),
	}
	env.repo = &repository.Repository{
		Floor:   env.floors,
		Section: env.sections,
		Table:   env.tables,
		Session: env.sessions,
		Merge:   env.merges,
		History: env.history,
		Shift:   env.shifts,
	}
	env.svc = NewService(testConfig(), env.repo, Deps{
		Shifts:      env.shiftLookup,
		Orders:      env.orders,
		Billing:     env.billing,
		Permissions: env.perms,
		Broadcaster: env.broadcaster,
		Cache:       env.cache,
	}, zap.NewNop())

	env.floors.floors[testFloorID] = &model.Floor{
		FloorID:  testFloorID,
		OutletID: testOutlet,
		Name:     "Main Hall",
		IsActive: true,
	}
	return env
}

// setupFloorEnv main floor with T1 (4 seats), T2 (2 seats) and T3 (4 seats)
func setupFloorEnv() *testEnv {
	env := setupTestEnv()
	env.seedTable("T1", 4, testFloorID)
	env.seedTable("T2", 2, testFloorID)
	env.seedTable("T3", 4, testFloorID)
	return env
}

func (e *testEnv) seedTable(number string, capacity int, floorID string) *model.Table {
	t := &model.Table{
		TableID:      "tbl-" + number,
		OutletID:     testOutlet,
		TableNumber:  number,
		BaseCapacity: capacity,
		Capacity:     capacity,
		MinCapacity:  1,
		Shape:        model.TableShapeSquare,
		IsMergeable:  true,
		Status:       model.TableStatusAvailable,
		IsActive:     true,
	}
	t.Version = 1
	if floorID != "" {
		id := floorID
		t.FloorID = &id
	}
	e.tables.tables[t.TableID] = t
	return t
}

// table stored row
func (e *testEnv) table(t *testing.T, id string) *model.Table {
	t.Helper()
	row, ok := e.tables.tables[id]
	if !ok {
		t.Fatalf("table %s not seeded", id)
	}
	return row
}

func (e *testEnv) activeMerges() int {
	return len(e.merges.active())
}
