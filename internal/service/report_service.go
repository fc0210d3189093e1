package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/imaker-dev/restro-backend-sub002/internal/dto"
	"github.com/imaker-dev/restro-backend-sub002/internal/model"
	"github.com/imaker-dev/restro-backend-sub002/internal/repository"
)

var ErrExportGenerateFail = errors.New("failed to generate export file")

// DateRange half-open [From, To); zero bounds are open
type DateRange struct {
	From time.Time
	To   time.Time
}

// ReportService table usage reports and exports
type ReportService interface {
	// ResolveRange parses from/to (YYYY-MM-DD in outlet time, or RFC 3339). A date-only "to" is
	// inclusive. With defaultDays > 0 missing bounds default to the last defaultDays days.
	ResolveRange(from, to string, defaultDays int) (DateRange, error)
	GetTableReport(ctx context.Context, tableID string, rng DateRange) (*dto.TableReportResponse, error)
	GetFloorReport(ctx context.Context, floorID string, rng DateRange) (*dto.FloorReportResponse, error)
	ExportFloorReport(ctx context.Context, floorID string, rng DateRange) (*bytes.Buffer, string, error)
	ExportSessionCalendar(ctx context.Context, tableID string, rng DateRange) ([]byte, string, error)
}

type reportService struct {
	repo   *repository.Repository
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewReportService creates a ReportService; dates are interpreted in loc
func NewReportService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &reportService{repo: repo, loc: loc, now: time.Now, logger: logger}
}

// ────────────────────── ResolveRange ──────────────────────

func (s *reportService) ResolveRange(from, to string, defaultDays int) (DateRange, error) {
	var rng DateRange

	if to != "" {
		t, dateOnly, err := s.parseBound(to)
		if err != nil {
			return rng, ErrInvalidDateRange.Withf("invalid to %q", to)
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1)
		}
		rng.To = t
	}
	if from != "" {
		t, _, err := s.parseBound(from)
		if err != nil {
			return rng, ErrInvalidDateRange.Withf("invalid from %q", from)
		}
		rng.From = t
	}

	if defaultDays > 0 {
		if rng.To.IsZero() {
			y, m, d := s.now().In(s.loc).Date()
			rng.To = time.Date(y, m, d, 0, 0, 0, 0, s.loc).AddDate(0, 0, 1)
		}
		if rng.From.IsZero() {
			rng.From = rng.To.AddDate(0, 0, -defaultDays)
		}
	}

	if !rng.From.IsZero() && !rng.To.IsZero() && !rng.From.Before(rng.To) {
		return rng, ErrInvalidDateRange.WithMessage("from must be before to")
	}
	return rng, nil
}

func (s *reportService) parseBound(v string) (time.Time, bool, error) {
	if t, err := time.ParseInLocation(businessDateLayout, v, s.loc); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	return t, false, err
}

// ────────────────────── GetTableReport ──────────────────────

func (s *reportService) GetTableReport(ctx context.Context, tableID string, rng DateRange) (*dto.TableReportResponse, error) {
	table, err := s.repo.Table.GetByID(ctx, tableID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTableNotFound
		}
		s.logger.Error("get table failed", zap.String("id", tableID), zap.Error(err))
		return nil, err
	}
	return s.tableReport(ctx, table, rng)
}

func (s *reportService) tableReport(ctx context.Context, table *model.Table, rng DateRange) (*dto.TableReportResponse, error) {
	sessions, err := s.repo.Session.ListByTable(ctx, table.TableID, rng.From, rng.To)
	if err != nil {
		s.logger.Error("list sessions failed", zap.String("table_id", table.TableID), zap.Error(err))
		return nil, err
	}
	merges, err := s.repo.Merge.CountByPrimarySince(ctx, table.TableID, rng.From, rng.To)
	if err != nil {
		s.logger.Error("count merges failed", zap.String("table_id", table.TableID), zap.Error(err))
		return nil, err
	}
	changes, err := s.repo.History.CountByEvent(ctx, table.TableID, model.EventStatusChanged, rng.From, rng.To)
	if err != nil {
		s.logger.Error("count status changes failed", zap.String("table_id", table.TableID), zap.Error(err))
		return nil, err
	}

	resp := &dto.TableReportResponse{
		TableID:         table.TableID,
		TableNumber:     table.TableNumber,
		Status:          table.Status,
		From:            s.formatBound(rng.From),
		To:              s.formatBound(rng.To),
		Sessions:        len(sessions),
		MergesAsPrimary: merges,
		StatusChanges:   changes,
	}

	for _, sess := range sessions {
		resp.TotalGuests += sess.GuestCount
		if sess.Status == model.SessionStatusCompleted && sess.EndedAt != nil {
			resp.CompletedSessions++
			resp.TotalSeatedMinutes += minutesBetween(sess.StartedAt, *sess.EndedAt)
		}
	}
	if resp.Sessions > 0 {
		resp.AvgPartySize = round2(float64(resp.TotalGuests) / float64(resp.Sessions))
	}
	if resp.CompletedSessions > 0 {
		resp.AvgSeatedMinutes = round2(float64(resp.TotalSeatedMinutes) / float64(resp.CompletedSessions))
	}
	return resp, nil
}

func (s *reportService) formatBound(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(s.loc).Format(time.RFC3339)
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

// ────────────────────── GetFloorReport ──────────────────────

func (s *reportService) GetFloorReport(ctx context.Context, floorID string, rng DateRange) (*dto.FloorReportResponse, error) {
	floor, err := s.repo.Floor.GetByID(ctx, floorID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrFloorNotFound
		}
		s.logger.Error("get floor failed", zap.String("floor_id", floorID), zap.Error(err))
		return nil, err
	}

	tables, err := s.repo.Table.ListByFloor(ctx, floorID)
	if err != nil {
		s.logger.Error("list floor tables failed", zap.String("floor_id", floorID), zap.Error(err))
		return nil, err
	}

	resp := &dto.FloorReportResponse{
		FloorID:            floor.FloorID,
		FloorName:          floor.Name,
		From:               s.formatBound(rng.From),
		To:                 s.formatBound(rng.To),
		Tables:             make([]dto.TableReportResponse, 0, len(tables)),
		StatusDistribution: make(map[string]int, len(model.TableStatuses)),
	}
	for _, st := range model.TableStatuses {
		resp.StatusDistribution[st] = 0
	}

	for i := range tables {
		report, err := s.tableReport(ctx, &tables[i], rng)
		if err != nil {
			return nil, err
		}
		resp.Tables = append(resp.Tables, *report)
		resp.StatusDistribution[tables[i].Status]++

		resp.Totals.Sessions += report.Sessions
		resp.Totals.TotalGuests += report.TotalGuests
		resp.Totals.TotalSeatedMinutes += report.TotalSeatedMinutes
		resp.Totals.MergesAsPrimary += report.MergesAsPrimary
	}
	if resp.Totals.Sessions > 0 {
		resp.Totals.AvgPartySize = round2(float64(resp.Totals.TotalGuests) / float64(resp.Totals.Sessions))
	}
	return resp, nil
}

// ═══════════════════════════════════════════════════════════
// ExportFloorReport floor report as .xlsx
// ═══════════════════════════════════════════════════════════
//
// One sheet: title row, header row, one row per table, totals row.

func (s *reportService) ExportFloorReport(ctx context.Context, floorID string, rng DateRange) (*bytes.Buffer, string, error) {
	report, err := s.GetFloorReport(ctx, floorID, rng)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Floor Report"
	idx, _ := f.NewSheet(sheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"Table", "Status", "Sessions", "Completed", "Guests", "Avg Party", "Seated Min", "Avg Seated Min", "Merges", "Status Changes"}

	f.SetColWidth(sheet, "A", "A", 12)
	f.SetColWidth(sheet, "B", colName(len(headers)-1), 14)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// title
	title := fmt.Sprintf("%s table report", report.FloorName)
	if report.From != "" || report.To != "" {
		title = fmt.Sprintf("%s (%s to %s)", title, shortDate(report.From), shortDate(report.To))
	}
	f.SetCellValue(sheet, "A1", title)
	f.MergeCell(sheet, "A1", cell(colName(len(headers)-1), 1))

	// header
	for i, h := range headers {
		f.SetCellValue(sheet, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheet, "A2", cell(colName(len(headers)-1), 2), headerStyle)

	// rows
	row := 3
	for _, t := range report.Tables {
		values := []interface{}{
			t.TableNumber, t.Status, t.Sessions, t.CompletedSessions, t.TotalGuests,
			t.AvgPartySize, t.TotalSeatedMinutes, t.AvgSeatedMinutes, t.MergesAsPrimary, t.StatusChanges,
		}
		for i, v := range values {
			f.SetCellValue(sheet, cell(colName(i), row), v)
		}
		row++
	}

	// totals
	f.SetCellValue(sheet, cell("A", row), "Total")
	f.SetCellValue(sheet, cell("C", row), report.Totals.Sessions)
	f.SetCellValue(sheet, cell("E", row), report.Totals.TotalGuests)
	f.SetCellValue(sheet, cell("F", row), report.Totals.AvgPartySize)
	f.SetCellValue(sheet, cell("G", row), report.Totals.TotalSeatedMinutes)
	f.SetCellValue(sheet, cell("I", row), report.Totals.MergesAsPrimary)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write xlsx failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("floor_report_%s.xlsx", sanitizeFilename(report.FloorName))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportSessionCalendar table sessions as iCalendar
// ═══════════════════════════════════════════════════════════
//
// One VEVENT per session; active sessions end "now".

func (s *reportService) ExportSessionCalendar(ctx context.Context, tableID string, rng DateRange) ([]byte, string, error) {
	table, err := s.repo.Table.GetByID(ctx, tableID)
	if err != nil {
		if isNotFound(err) {
			return nil, "", ErrTableNotFound
		}
		s.logger.Error("get table failed", zap.String("id", tableID), zap.Error(err))
		return nil, "", err
	}

	sessions, err := s.repo.Session.ListByTable(ctx, tableID, rng.From, rng.To)
	if err != nil {
		s.logger.Error("list sessions failed", zap.String("table_id", tableID), zap.Error(err))
		return nil, "", err
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].StartedAt.Before(sessions[j].StartedAt) })

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//tableside//table sessions//EN")
	cal.SetName(fmt.Sprintf("Table %s sessions", table.TableNumber))

	now := s.now().UTC()
	for _, sess := range sessions {
		end := now
		if sess.EndedAt != nil {
			end = *sess.EndedAt
		}

		evt := cal.AddEvent(sess.SessionID + "@tableside")
		evt.SetDtStampTime(now)
		evt.SetStartAt(sess.StartedAt.UTC())
		evt.SetEndAt(end.UTC())
		evt.SetSummary(fmt.Sprintf("Table %s: %d guests", table.TableNumber, sess.GuestCount))

		desc := []string{
			"Status: " + sess.Status,
			"Assigned to: " + sess.AssignedTo,
		}
		if sess.GuestName != "" {
			desc = append(desc, "Guest: "+sess.GuestName)
		}
		if sess.OrderID != nil {
			desc = append(desc, "Order: "+*sess.OrderID)
		}
		if sess.Notes != "" {
			desc = append(desc, "Notes: "+sess.Notes)
		}
		evt.SetDescription(strings.Join(desc, "\n"))
		if table.Floor != nil {
			evt.SetLocation(table.Floor.Name)
		}
	}

	filename := fmt.Sprintf("table_%s_sessions.ics", sanitizeFilename(table.TableNumber))
	return []byte(cal.Serialize()), filename, nil
}

// ── helpers ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func shortDate(rfc string) string {
	if len(rfc) >= 10 {
		return rfc[:10]
	}
	return rfc
}

func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}
