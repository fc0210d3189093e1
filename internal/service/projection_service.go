package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/imaker-dev/restro-backend-sub002/config"
	"github.com/imaker-dev/restro-backend-sub002/internal/dto"
	"github.com/imaker-dev/restro-backend-sub002/internal/model"
	"github.com/imaker-dev/restro-backend-sub002/internal/repository"
)

// ProjectionService read-only assembled views. Never writes.
type ProjectionService interface {
	GetFullDetails(ctx context.Context, tableID string) (*dto.TableDetailsResponse, error)
	GetTablesByFloor(ctx context.Context, floorID string) (*dto.FloorTablesResponse, error)
}

type projectionService struct {
	repo    *repository.Repository
	gate    *ShiftGate
	orders  OrderLookup
	billing BillingLookup
	cache   Cache
	cfg     *config.FloorConfig
	logger  *zap.Logger
}

// NewProjectionService creates a ProjectionService
func NewProjectionService(
	repo *repository.Repository,
	gate *ShiftGate,
	orders OrderLookup,
	billing BillingLookup,
	cache Cache,
	cfg *config.FloorConfig,
	logger *zap.Logger,
) ProjectionService {
	return &projectionService{
		repo:    repo,
		gate:    gate,
		orders:  orders,
		billing: billing,
		cache:   cache,
		cfg:     cfg,
		logger:  logger,
	}
}

// ═══════════════════════════════════════════════════════════
// GetFullDetails
// ═══════════════════════════════════════════════════════════
//
// Collaborator failures leave their sub-section empty and add a warning;
// only a failure reading our own rows fails the call.

func (s *projectionService) GetFullDetails(ctx context.Context, tableID string) (*dto.TableDetailsResponse, error) {
	table, err := s.repo.Table.GetByID(ctx, tableID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTableNotFound
		}
		s.logger.Error("get table failed", zap.String("id", tableID), zap.Error(err))
		return nil, err
	}

	now := time.Now()
	resp := &dto.TableDetailsResponse{Table: *toTableResponse(table)}

	// ── session ──
	var session *model.TableSession
	if active, err := s.repo.Session.GetActiveByTable(ctx, tableID); err == nil {
		session = active
		resp.Session = toSessionResponse(active, now)
		resp.Owner = active.AssignedTo
	} else if !isNotFound(err) {
		s.logger.Error("get active session failed", zap.String("table_id", tableID), zap.Error(err))
		return nil, err
	}

	// ── merges ──
	records, err := s.repo.Merge.ListActiveByPrimary(ctx, tableID)
	if err != nil {
		s.logger.Error("list merges failed", zap.String("table_id", tableID), zap.Error(err))
		return nil, err
	}
	for i := range records {
		number := ""
		if records[i].Secondary != nil {
			number = records[i].Secondary.TableNumber
		}
		resp.Merges = append(resp.Merges, toMergedTableResponse(&records[i], number))
	}
	if table.Status == model.TableStatusMerged {
		if rec, err := s.repo.Merge.GetActiveBySecondary(ctx, tableID); err == nil {
			into := &dto.MergedIntoResponse{
				MergeID:        rec.MergeID,
				PrimaryTableID: rec.PrimaryTableID,
				MergedAt:       formatTime(rec.MergedAt),
			}
			if primary, err := s.repo.Table.GetByID(ctx, rec.PrimaryTableID); err == nil {
				into.PrimaryTableNumber = primary.TableNumber
			}
			resp.MergedInto = into
		} else if !isNotFound(err) {
			s.logger.Error("get merge record failed", zap.String("table_id", tableID), zap.Error(err))
			return nil, err
		}
	}

	// ── order / billing ──
	if session != nil && session.OrderID != nil && *session.OrderID != "" {
		orderID := *session.OrderID
		summaries, err := s.orders.GetSummaries(ctx, []string{orderID})
		if err != nil {
			s.logger.Warn("order lookup failed", zap.String("order_id", orderID), zap.Error(err))
			resp.Warnings = append(resp.Warnings, "order details unavailable")
		} else if order, ok := summaries[orderID]; ok && order != nil {
			resp.Order = order
			resp.PendingKOTs = order.PendingKOTs()
		}

		invoice, err := s.billing.GetInvoiceByOrder(ctx, orderID)
		if err != nil {
			s.logger.Warn("billing lookup failed", zap.String("order_id", orderID), zap.Error(err))
			resp.Warnings = append(resp.Warnings, "invoice details unavailable")
		} else {
			resp.Invoice = invoice
		}
	}

	// ── history ──
	entries, err := s.repo.History.ListRecent(ctx, tableID, s.cfg.DetailHistoryLimit)
	if err != nil {
		s.logger.Error("list history failed", zap.String("table_id", tableID), zap.Error(err))
		return nil, err
	}
	resp.History = make([]dto.HistoryResponse, 0, len(entries))
	for i := range entries {
		resp.History = append(resp.History, toHistoryResponse(&entries[i]))
	}

	resp.StatusSummary = statusSummary(resp)
	return resp, nil
}

// statusSummary one human readable line per status branch
func statusSummary(d *dto.TableDetailsResponse) string {
	t := d.Table
	switch t.Status {
	case model.TableStatusAvailable:
		return fmt.Sprintf("Available, seats %d", t.Capacity)
	case model.TableStatusReserved:
		return fmt.Sprintf("Reserved, seats %d", t.Capacity)
	case model.TableStatusBlocked:
		return "Blocked"
	case model.TableStatusMerged:
		if d.MergedInto != nil && d.MergedInto.PrimaryTableNumber != "" {
			return fmt.Sprintf("Merged with table %s", d.MergedInto.PrimaryTableNumber)
		}
		return "Merged"
	case model.TableStatusOccupied:
		if d.Session == nil {
			return "Occupied"
		}
		if d.Order == nil {
			return fmt.Sprintf("Occupied by %d guests for %d min, no order yet", d.Session.GuestCount, d.Session.DurationMinutes)
		}
		return fmt.Sprintf("Occupied by %d guests for %d min", d.Session.GuestCount, d.Session.DurationMinutes)
	case model.TableStatusRunning:
		if d.Order == nil {
			return "Order running"
		}
		if n := len(d.PendingKOTs); n > 0 {
			return fmt.Sprintf("Order %s running, %d items, %d KOT pending", orderLabel(d.Order), d.Order.ItemCount, n)
		}
		return fmt.Sprintf("Order %s running, %d items", orderLabel(d.Order), d.Order.ItemCount)
	case model.TableStatusBilling:
		if d.Invoice != nil {
			return fmt.Sprintf("Billing, invoice %s for %.2f", d.Invoice.InvoiceNumber, d.Invoice.GrandTotal)
		}
		if d.Order != nil {
			return fmt.Sprintf("Billing, order %s total %.2f", orderLabel(d.Order), d.Order.GrandTotal)
		}
		return "Billing"
	}
	return t.Status
}

func orderLabel(o *dto.OrderSummary) string {
	if o.OrderNumber != "" {
		return o.OrderNumber
	}
	return o.OrderID
}

// ═══════════════════════════════════════════════════════════
// GetTablesByFloor
// ═══════════════════════════════════════════════════════════

const floorViewField = "view"

func (s *projectionService) GetTablesByFloor(ctx context.Context, floorID string) (*dto.FloorTablesResponse, error) {
	floor, err := s.repo.Floor.GetByID(ctx, floorID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrFloorNotFound
		}
		s.logger.Error("get floor failed", zap.String("floor_id", floorID), zap.Error(err))
		return nil, err
	}

	key := floorCacheKey(floorID)
	if raw, ok, err := s.cache.Get(ctx, key, floorViewField); err != nil {
		s.logger.Warn("floor view cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		var cached dto.FloorTablesResponse
		if err := json.Unmarshal([]byte(raw), &cached); err == nil && cached.BusinessDate == s.gate.LocalDate() {
			return &cached, nil
		}
	}

	gen, cacheable := cacheGeneration(ctx, s.cache, key, s.logger)

	sections, err := s.repo.Section.ListByFloor(ctx, floorID)
	if err != nil {
		s.logger.Error("list sections failed", zap.String("floor_id", floorID), zap.Error(err))
		return nil, err
	}
	tables, err := s.repo.Table.ListByFloor(ctx, floorID)
	if err != nil {
		s.logger.Error("list floor tables failed", zap.String("floor_id", floorID), zap.Error(err))
		return nil, err
	}

	tableIDs := make([]string, 0, len(tables))
	for _, t := range tables {
		tableIDs = append(tableIDs, t.TableID)
	}

	sessions, err := s.repo.Session.ListActiveByTables(ctx, tableIDs)
	if err != nil {
		s.logger.Error("list active sessions failed", zap.String("floor_id", floorID), zap.Error(err))
		return nil, err
	}
	merges, err := s.repo.Merge.ListActiveByTables(ctx, tableIDs)
	if err != nil {
		s.logger.Error("list merges failed", zap.String("floor_id", floorID), zap.Error(err))
		return nil, err
	}

	sessionByTable := make(map[string]*model.TableSession, len(sessions))
	orderIDs := make([]string, 0, len(sessions))
	for i := range sessions {
		sessionByTable[sessions[i].TableID] = &sessions[i]
		if sessions[i].OrderID != nil && *sessions[i].OrderID != "" {
			orderIDs = append(orderIDs, *sessions[i].OrderID)
		}
	}

	numberByID := make(map[string]string, len(tables))
	for _, t := range tables {
		numberByID[t.TableID] = t.TableNumber
	}
	mergedWith := make(map[string][]string)
	mergedInto := make(map[string]string)
	for _, m := range merges {
		mergedWith[m.PrimaryTableID] = append(mergedWith[m.PrimaryTableID], numberByID[m.SecondaryTableID])
		mergedInto[m.SecondaryTableID] = m.PrimaryTableID
	}

	orders := map[string]*dto.OrderSummary{}
	if len(orderIDs) > 0 {
		if got, err := s.orders.GetSummaries(ctx, orderIDs); err != nil {
			s.logger.Warn("order lookup failed", zap.String("floor_id", floorID), zap.Error(err))
		} else {
			orders = got
		}
	}

	shiftOpen, err := s.gate.IsOpen(ctx, floor.OutletID, floor.FloorID)
	if err != nil {
		s.logger.Warn("shift lookup failed", zap.String("floor_id", floorID), zap.Error(err))
	}

	resp := &dto.FloorTablesResponse{
		Floor:        *toFloorResponse(floor),
		BusinessDate: s.gate.LocalDate(),
		ShiftOpen:    shiftOpen,
		StatusCounts: make(map[string]int, len(model.TableStatuses)),
		TotalTables:  len(tables),
	}
	for _, st := range model.TableStatuses {
		resp.StatusCounts[st] = 0
	}

	groups := make([]dto.FloorSectionGroup, 0, len(sections)+1)
	groupIdx := make(map[string]int, len(sections))
	for i := range sections {
		id := sections[i].SectionID
		groupIdx[id] = len(groups)
		groups = append(groups, dto.FloorSectionGroup{
			SectionID:   &id,
			SectionName: sections[i].Name,
			Tables:      []dto.FloorTableItem{},
		})
	}
	var unsectioned []dto.FloorTableItem

	now := time.Now()
	for i := range tables {
		t := &tables[i]
		resp.StatusCounts[t.Status]++

		item := dto.FloorTableItem{TableResponse: *toTableResponse(t)}
		item.FloorName = floor.Name
		if sess, ok := sessionByTable[t.TableID]; ok {
			item.Session = &dto.FloorSessionBrief{
				SessionID:       sess.SessionID,
				GuestCount:      sess.GuestCount,
				AssignedTo:      sess.AssignedTo,
				StartedAt:       formatTime(sess.StartedAt),
				DurationMinutes: minutesBetween(sess.StartedAt, now),
			}
			if sess.OrderID != nil {
				if o, ok := orders[*sess.OrderID]; ok && o != nil {
					item.Order = &dto.FloorOrderBrief{
						OrderID:     o.OrderID,
						OrderNumber: o.OrderNumber,
						Status:      o.Status,
						GrandTotal:  o.GrandTotal,
						ItemCount:   o.ItemCount,
						PendingKOTs: len(o.PendingKOTs()),
					}
				}
			}
		}
		item.MergedWith = mergedWith[t.TableID]
		if p, ok := mergedInto[t.TableID]; ok {
			primary := p
			item.MergedInto = &primary
		}

		if t.SectionID != nil {
			if idx, ok := groupIdx[*t.SectionID]; ok {
				groups[idx].Tables = append(groups[idx].Tables, item)
				continue
			}
		}
		unsectioned = append(unsectioned, item)
	}
	if len(unsectioned) > 0 {
		groups = append(groups, dto.FloorSectionGroup{SectionName: "Unassigned", Tables: unsectioned})
	}
	resp.Sections = groups

	if raw, err := json.Marshal(resp); cacheable && err == nil {
		if err := s.cache.Set(ctx, key, floorViewField, string(raw), gen, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("floor view cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return resp, nil
}
