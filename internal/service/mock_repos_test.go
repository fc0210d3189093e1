package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/imaker-dev/restro-backend-sub002/internal/dto"
	"github.com/imaker-dev/restro-backend-sub002/internal/model"
	"github.com/imaker-dev/restro-backend-sub002/internal/repository"
	pkgerrors "github.com/imaker-dev/restro-backend-sub002/pkg/errors"
)

var errMockBackend = errors.New("mock backend unavailable")

// ── Mock FloorRepository ──

type mockFloorRepo struct {
	floors map[string]*model.Floor
}

func newMockFloorRepo() *mockFloorRepo {
	return &mockFloorRepo{floors: make(map[string]*model.Floor)}
}

func (m *mockFloorRepo) Create(_ context.Context, floor *model.Floor) error {
	if floor.FloorID == "" {
		floor.FloorID = "floor-" + floor.Name
	}
	cp := *floor
	m.floors[floor.FloorID] = &cp
	return nil
}

func (m *mockFloorRepo) GetByID(_ context.Context, id string) (*model.Floor, error) {
	if f, ok := m.floors[id]; ok {
		cp := *f
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFloorRepo) ListByOutlet(_ context.Context, outletID string) ([]model.Floor, error) {
	var result []model.Floor
	for _, f := range m.floors {
		if f.OutletID == outletID {
			result = append(result, *f)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DisplayOrder != result[j].DisplayOrder {
			return result[i].DisplayOrder < result[j].DisplayOrder
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// ── Mock SectionRepository ──

type mockSectionRepo struct {
	sections map[string]*model.Section
}

func newMockSectionRepo() *mockSectionRepo {
	return &mockSectionRepo{sections: make(map[string]*model.Section)}
}

func (m *mockSectionRepo) Create(_ context.Context, section *model.Section) error {
	if section.SectionID == "" {
		section.SectionID = "sec-" + section.Name
	}
	cp := *section
	m.sections[section.SectionID] = &cp
	return nil
}

func (m *mockSectionRepo) GetByID(_ context.Context, id string) (*model.Section, error) {
	if s, ok := m.sections[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSectionRepo) ListByFloor(_ context.Context, floorID string) ([]model.Section, error) {
	var result []model.Section
	for _, s := range m.sections {
		if s.FloorID == floorID {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DisplayOrder != result[j].DisplayOrder {
			return result[i].DisplayOrder < result[j].DisplayOrder
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// ── Mock TableRepository ──

type mockTableRepo struct {
	tables   map[string]*model.Table
	layouts  map[string]*model.TableLayout
	floors   *mockFloorRepo
	sections *mockSectionRepo
}

func newMockTableRepo(floors *mockFloorRepo, sections *mockSectionRepo) *mockTableRepo {
	return &mockTableRepo{
		tables:   make(map[string]*model.Table),
		layouts:  make(map[string]*model.TableLayout),
		floors:   floors,
		sections: sections,
	}
}

func (m *mockTableRepo) live(id string) (*model.Table, bool) {
	t, ok := m.tables[id]
	if !ok || t.DeletedAt.Valid {
		return nil, false
	}
	return t, true
}

// load copies a stored row and fills its associations
func (m *mockTableRepo) load(t *model.Table) model.Table {
	cp := *t
	cp.Floor, cp.Section, cp.Layout = nil, nil, nil
	if cp.FloorID != nil {
		if f, ok := m.floors.floors[*cp.FloorID]; ok {
			fc := *f
			cp.Floor = &fc
		}
	}
	if cp.SectionID != nil {
		if s, ok := m.sections.sections[*cp.SectionID]; ok {
			sc := *s
			cp.Section = &sc
		}
	}
	if l, ok := m.layouts[cp.TableID]; ok {
		lc := *l
		cp.Layout = &lc
	}
	return cp
}

func (m *mockTableRepo) Create(_ context.Context, table *model.Table) error {
	for _, t := range m.tables {
		if !t.DeletedAt.Valid && t.OutletID == table.OutletID && t.TableNumber == table.TableNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	if table.TableID == "" {
		table.TableID = "tbl-" + table.TableNumber
	}
	now := time.Now()
	table.CreatedAt, table.UpdatedAt = now, now
	cp := *table
	cp.Floor, cp.Section, cp.Layout = nil, nil, nil
	m.tables[table.TableID] = &cp
	if table.Layout != nil {
		l := *table.Layout
		l.TableID = table.TableID
		m.layouts[table.TableID] = &l
	}
	return nil
}

func (m *mockTableRepo) GetByID(_ context.Context, id string) (*model.Table, error) {
	if t, ok := m.live(id); ok {
		cp := m.load(t)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTableRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Table, error) {
	t, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Floor, t.Section, t.Layout = nil, nil, nil
	return t, nil
}

func (m *mockTableRepo) ListByIDsForUpdate(_ context.Context, ids []string) ([]model.Table, error) {
	var result []model.Table
	for _, id := range ids {
		if t, ok := m.live(id); ok {
			cp := *t
			result = append(result, cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TableID < result[j].TableID })
	return result, nil
}

func (m *mockTableRepo) GetByOutletAndNumber(_ context.Context, outletID, tableNumber string) (*model.Table, error) {
	for _, t := range m.tables {
		if !t.DeletedAt.Valid && t.OutletID == outletID && t.TableNumber == tableNumber {
			cp := *t
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTableRepo) List(_ context.Context, filter repository.TableFilter) ([]model.Table, error) {
	var result []model.Table
	for _, t := range m.tables {
		if t.DeletedAt.Valid {
			continue
		}
		if filter.OutletID != "" && t.OutletID != filter.OutletID {
			continue
		}
		if filter.FloorID != "" && (t.FloorID == nil || *t.FloorID != filter.FloorID) {
			continue
		}
		if filter.SectionID != "" && (t.SectionID == nil || *t.SectionID != filter.SectionID) {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.IsActive != nil {
			if t.IsActive != *filter.IsActive {
				continue
			}
		} else if !filter.IncludeInactive && !t.IsActive {
			continue
		}
		result = append(result, m.load(t))
	}
	sortTables(result)
	return result, nil
}

func (m *mockTableRepo) ListByFloor(_ context.Context, floorID string) ([]model.Table, error) {
	var result []model.Table
	for _, t := range m.tables {
		if t.DeletedAt.Valid || !t.IsActive || t.FloorID == nil || *t.FloorID != floorID {
			continue
		}
		result = append(result, m.load(t))
	}
	sortTables(result)
	return result, nil
}

func sortTables(tables []model.Table) {
	sort.Slice(tables, func(i, j int) bool {
		if tables[i].DisplayOrder != tables[j].DisplayOrder {
			return tables[i].DisplayOrder < tables[j].DisplayOrder
		}
		return tables[i].TableNumber < tables[j].TableNumber
	})
}

func (m *mockTableRepo) Update(_ context.Context, table *model.Table) error {
	stored, ok := m.live(table.TableID)
	if !ok || stored.Version != table.Version {
		return pkgerrors.ErrOptimisticLock
	}
	for _, t := range m.tables {
		if t.TableID != table.TableID && !t.DeletedAt.Valid &&
			t.OutletID == table.OutletID && t.TableNumber == table.TableNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	table.Version++
	cp := *table
	cp.Floor, cp.Section, cp.Layout = nil, nil, nil
	cp.UpdatedAt = time.Now()
	m.tables[table.TableID] = &cp
	return nil
}

func (m *mockTableRepo) UpdateStatus(_ context.Context, id, status, actorID string) error {
	t, ok := m.live(id)
	if !ok {
		return nil
	}
	t.Status = status
	t.Version++
	if actorID != "" {
		t.UpdatedBy = &actorID
	}
	return nil
}

func (m *mockTableRepo) SetCapacity(_ context.Context, id string, capacity int) error {
	if t, ok := m.live(id); ok {
		t.Capacity = capacity
		t.Version++
	}
	return nil
}

func (m *mockTableRepo) SaveLayout(_ context.Context, layout *model.TableLayout) error {
	cp := *layout
	m.layouts[layout.TableID] = &cp
	return nil
}

func (m *mockTableRepo) SoftDelete(_ context.Context, id, deletedBy string) error {
	if t, ok := m.live(id); ok {
		t.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
		t.DeletedBy = &deletedBy
		t.IsActive = false
	}
	return nil
}

// ── Mock SessionRepository ──

type mockSessionRepo struct {
	sessions map[string]*model.TableSession
	seq      int
	err      error
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*model.TableSession)}
}

func (m *mockSessionRepo) Create(_ context.Context, session *model.TableSession) error {
	for _, s := range m.sessions {
		if s.TableID == session.TableID && s.Status == model.SessionStatusActive {
			return gorm.ErrDuplicatedKey
		}
	}
	m.seq++
	if session.SessionID == "" {
		session.SessionID = fmt.Sprintf("sess-%d", m.seq)
	}
	cp := *session
	m.sessions[session.SessionID] = &cp
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (*model.TableSession, error) {
	if s, ok := m.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSessionRepo) GetActiveByTable(_ context.Context, tableID string) (*model.TableSession, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, s := range m.sessions {
		if s.TableID == tableID && s.Status == model.SessionStatusActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSessionRepo) GetLatestByTable(_ context.Context, tableID string) (*model.TableSession, error) {
	var latest *model.TableSession
	for _, s := range m.sessions {
		if s.TableID == tableID && (latest == nil || s.StartedAt.After(latest.StartedAt)) {
			latest = s
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *mockSessionRepo) ListActiveByTables(_ context.Context, tableIDs []string) ([]model.TableSession, error) {
	want := make(map[string]bool, len(tableIDs))
	for _, id := range tableIDs {
		want[id] = true
	}
	var result []model.TableSession
	for _, s := range m.sessions {
		if want[s.TableID] && s.Status == model.SessionStatusActive {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockSessionRepo) ListByTable(_ context.Context, tableID string, from, to time.Time) ([]model.TableSession, error) {
	var result []model.TableSession
	for _, s := range m.sessions {
		if s.TableID != tableID {
			continue
		}
		if !from.IsZero() && s.StartedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !s.StartedAt.Before(to) {
			continue
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartedAt.Before(result[j].StartedAt) })
	return result, nil
}

func (m *mockSessionRepo) Complete(_ context.Context, sessionID, endedBy string, endedAt time.Time) error {
	if s, ok := m.sessions[sessionID]; ok && s.Status == model.SessionStatusActive {
		s.Status = model.SessionStatusCompleted
		s.EndedBy = &endedBy
		s.EndedAt = &endedAt
	}
	return nil
}

func (m *mockSessionRepo) Reassign(_ context.Context, sessionID, assignedTo string) error {
	if s, ok := m.sessions[sessionID]; ok {
		s.AssignedTo = assignedTo
	}
	return nil
}

func (m *mockSessionRepo) LinkOrder(_ context.Context, sessionID, orderID string) error {
	if s, ok := m.sessions[sessionID]; ok {
		s.OrderID = &orderID
	}
	return nil
}

// ── Mock MergeRepository ──

type mockMergeRepo struct {
	merges map[string]*model.TableMerge
	tables *mockTableRepo
	seq    int
}

func newMockMergeRepo(tables *mockTableRepo) *mockMergeRepo {
	return &mockMergeRepo{merges: make(map[string]*model.TableMerge), tables: tables}
}

func (m *mockMergeRepo) active() []*model.TableMerge {
	var result []*model.TableMerge
	for _, rec := range m.merges {
		if rec.UnmergedAt == nil {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].MergeID < result[j].MergeID })
	return result
}

func (m *mockMergeRepo) Create(_ context.Context, merge *model.TableMerge) error {
	for _, rec := range m.active() {
		if rec.SecondaryTableID == merge.SecondaryTableID {
			return gorm.ErrDuplicatedKey
		}
	}
	m.seq++
	if merge.MergeID == "" {
		merge.MergeID = fmt.Sprintf("merge-%03d", m.seq)
	}
	cp := *merge
	m.merges[merge.MergeID] = &cp
	return nil
}

func (m *mockMergeRepo) ListActiveByPrimary(_ context.Context, primaryID string) ([]model.TableMerge, error) {
	var result []model.TableMerge
	for _, rec := range m.active() {
		if rec.PrimaryTableID != primaryID {
			continue
		}
		cp := *rec
		if t, ok := m.tables.tables[rec.SecondaryTableID]; ok {
			tc := *t
			cp.Secondary = &tc
		}
		result = append(result, cp)
	}
	return result, nil
}

func (m *mockMergeRepo) GetActiveBySecondary(_ context.Context, secondaryID string) (*model.TableMerge, error) {
	for _, rec := range m.active() {
		if rec.SecondaryTableID == secondaryID {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMergeRepo) CountActiveByPrimary(_ context.Context, primaryID string) (int64, error) {
	var n int64
	for _, rec := range m.active() {
		if rec.PrimaryTableID == primaryID {
			n++
		}
	}
	return n, nil
}

func (m *mockMergeRepo) ListActiveByTables(_ context.Context, tableIDs []string) ([]model.TableMerge, error) {
	want := make(map[string]bool, len(tableIDs))
	for _, id := range tableIDs {
		want[id] = true
	}
	var result []model.TableMerge
	for _, rec := range m.active() {
		if want[rec.PrimaryTableID] || want[rec.SecondaryTableID] {
			result = append(result, *rec)
		}
	}
	return result, nil
}

func (m *mockMergeRepo) ListActiveByOutlet(_ context.Context, outletID string) ([]model.TableMerge, error) {
	var result []model.TableMerge
	for _, rec := range m.active() {
		if t, ok := m.tables.tables[rec.PrimaryTableID]; ok && t.OutletID == outletID {
			result = append(result, *rec)
		}
	}
	return result, nil
}

func (m *mockMergeRepo) CountByPrimarySince(_ context.Context, primaryID string, from, to time.Time) (int64, error) {
	var n int64
	for _, rec := range m.merges {
		if rec.PrimaryTableID != primaryID {
			continue
		}
		if !from.IsZero() && rec.MergedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !rec.MergedAt.Before(to) {
			continue
		}
		n++
	}
	return n, nil
}

func (m *mockMergeRepo) MarkUnmerged(_ context.Context, mergeIDs []string, unmergedBy string, at time.Time) error {
	for _, id := range mergeIDs {
		if rec, ok := m.merges[id]; ok && rec.UnmergedAt == nil {
			by, t := unmergedBy, at
			rec.UnmergedBy = &by
			rec.UnmergedAt = &t
		}
	}
	return nil
}

// ── Mock HistoryRepository ──

type mockHistoryRepo struct {
	entries []model.TableHistory
	seq     uint64
	err     error
}

func newMockHistoryRepo() *mockHistoryRepo {
	return &mockHistoryRepo{}
}

func (m *mockHistoryRepo) Create(_ context.Context, entry *model.TableHistory) error {
	m.seq++
	entry.HistoryID = m.seq
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockHistoryRepo) BatchCreate(ctx context.Context, entries []model.TableHistory) error {
	for i := range entries {
		if err := m.Create(ctx, &entries[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockHistoryRepo) ListRecent(_ context.Context, tableID string, limit int) ([]model.TableHistory, error) {
	if m.err != nil {
		return nil, m.err
	}
	var result []model.TableHistory
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].TableID == tableID {
			result = append(result, m.entries[i])
			if limit > 0 && len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

func (m *mockHistoryRepo) CountByEvent(_ context.Context, tableID, eventType string, from, to time.Time) (int64, error) {
	var n int64
	for _, e := range m.entries {
		if e.TableID != tableID || e.EventType != eventType {
			continue
		}
		if !from.IsZero() && e.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !e.CreatedAt.Before(to) {
			continue
		}
		n++
	}
	return n, nil
}

// events event types recorded for tableID, oldest first
func (m *mockHistoryRepo) events(tableID string) []string {
	var result []string
	for _, e := range m.entries {
		if e.TableID == tableID {
			result = append(result, e.EventType)
		}
	}
	return result
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct {
	shifts map[string]*model.ShiftSession
	seq    int
}

func newMockShiftRepo() *mockShiftRepo {
	return &mockShiftRepo{shifts: make(map[string]*model.ShiftSession)}
}

func (m *mockShiftRepo) Create(_ context.Context, shift *model.ShiftSession) error {
	for _, s := range m.shifts {
		if s.Status == model.ShiftStatusOpen && s.FloorID == shift.FloorID && s.BusinessDate == shift.BusinessDate {
			return gorm.ErrDuplicatedKey
		}
	}
	m.seq++
	if shift.ShiftID == "" {
		shift.ShiftID = fmt.Sprintf("shift-%d", m.seq)
	}
	cp := *shift
	m.shifts[shift.ShiftID] = &cp
	return nil
}

func (m *mockShiftRepo) GetOpen(_ context.Context, outletID, floorID, businessDate string) (*model.ShiftSession, error) {
	for _, s := range m.shifts {
		if s.Status == model.ShiftStatusOpen && s.OutletID == outletID && s.FloorID == floorID && s.BusinessDate == businessDate {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) GetLatestByFloor(_ context.Context, floorID string) (*model.ShiftSession, error) {
	var latest *model.ShiftSession
	for _, s := range m.shifts {
		if s.FloorID == floorID && (latest == nil || s.OpenedAt.After(latest.OpenedAt)) {
			latest = s
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *mockShiftRepo) Close(_ context.Context, shiftID, closedBy string, at time.Time) error {
	if s, ok := m.shifts[shiftID]; ok && s.Status == model.ShiftStatusOpen {
		s.Status = model.ShiftStatusClosed
		s.ClosedBy = &closedBy
		s.ClosedAt = &at
	}
	return nil
}

// ═══════════════════════════════════════════════════════════
// collaborator fakes
// ═══════════════════════════════════════════════════════════

type fakeShiftLookup struct {
	open map[string]bool
	err  error
}

func (f *fakeShiftLookup) IsShiftOpen(_ context.Context, _, floorID, _ string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.open[floorID], nil
}

type fakePermissions struct {
	elevated map[string]bool
	err      error
}

func (f *fakePermissions) IsElevated(_ context.Context, actorID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.elevated[actorID], nil
}

type fakeOrders struct {
	orders map[string]*dto.OrderSummary
	err    error
	calls  [][]string
}

func (f *fakeOrders) GetSummaries(_ context.Context, orderIDs []string) (map[string]*dto.OrderSummary, error) {
	f.calls = append(f.calls, orderIDs)
	if f.err != nil {
		return nil, f.err
	}
	result := make(map[string]*dto.OrderSummary)
	for _, id := range orderIDs {
		if o, ok := f.orders[id]; ok {
			result[id] = o
		}
	}
	return result, nil
}

type fakeBilling struct {
	invoices map[string]*dto.InvoiceSummary
	err      error
}

func (f *fakeBilling) GetInvoiceByOrder(_ context.Context, orderID string) (*dto.InvoiceSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.invoices[orderID], nil
}

type fakeBroadcaster struct {
	events []*FloorEvent
	err    error
}

func (f *fakeBroadcaster) Publish(_ context.Context, _, _ string, event *FloorEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeBroadcaster) names() []string {
	names := make([]string, 0, len(f.events))
	for _, e := range f.events {
		names = append(names, e.Event)
	}
	return names
}

type fakeCache struct {
	data        map[string]map[string]string
	gens        map[string]int64
	invalidated []string
	err         error
	// afterGeneration runs between a reader taking the generation and its write-back
	afterGeneration func()
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]map[string]string), gens: make(map[string]int64)}
}

func (f *fakeCache) Get(_ context.Context, key, field string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	v, ok := f.data[key][field]
	return v, ok, nil
}

func (f *fakeCache) Generation(_ context.Context, key string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	gen := f.gens[key]
	if f.afterGeneration != nil {
		f.afterGeneration()
	}
	return gen, nil
}

func (f *fakeCache) Set(_ context.Context, key, field, value string, gen int64, _ time.Duration) error {
	if f.err != nil {
		return f.err
	}
	if gen != f.gens[key] {
		return nil
	}
	if f.data[key] == nil {
		f.data[key] = make(map[string]string)
	}
	f.data[key][field] = value
	return nil
}

func (f *fakeCache) Invalidate(_ context.Context, keys ...string) error {
	f.invalidated = append(f.invalidated, keys...)
	if f.err != nil {
		return f.err
	}
	for _, k := range keys {
		delete(f.data, k)
		f.gens[k]++
	}
	return nil
}

// seed stores a view at the current generation
func (f *fakeCache) seed(key, field, value string) {
	_ = f.Set(context.Background(), key, field, value, f.gens[key], time.Minute)
}
