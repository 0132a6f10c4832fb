package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/maintenance-tickets/internal/docstore"
	"github.com/spec-kit/maintenance-tickets/internal/domain"
	"github.com/spec-kit/maintenance-tickets/internal/repository"
)

const exportSheet = "Tickets"

// MaxExportRows caps a single spreadsheet export.
const MaxExportRows = 10000

var exportColumns = []string{
	"ID", "Title", "Status", "Priority", "Category", "Subcategory", "Source",
	"Reporter", "Phone", "Assignees", "Location", "Attachments", "Notes",
	"Created At", "Updated At", "Resolved At", "Closed At",
}

// ExportTickets renders every ticket matching filter into an xlsx workbook.
func (s *TicketService) ExportTickets(ctx context.Context, filter repository.TicketFilter) ([]byte, string, error) {
	filter.PageSize = docstore.MaxPageSize
	filter.ContinuationToken = ""
	var rows []domain.Ticket
	err := s.tickets.ForEach(ctx, filter, func(t domain.Ticket) error {
		if len(rows) >= MaxExportRows {
			return errExportFull
		}
		rows = append(rows, t)
		return nil
	})
	if err != nil && !errors.Is(err, errExportFull) {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, "", err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, col)
		f.SetCellStyle(exportSheet, cell, cell, headerStyle)
	}

	for rowIdx, t := range rows {
		for colIdx, v := range exportRow(t) {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(exportSheet, cell, v)
		}
	}
	for i := range exportColumns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(exportSheet, col, col, 18)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("tickets-%s.xlsx", s.now().UTC().Format("20060102-150405"))
	return buffer.Bytes(), filename, nil
}

var errExportFull = errors.New("export row limit reached")

func exportRow(t domain.Ticket) []any {
	assignees := make([]string, 0, len(t.Assignees))
	for _, a := range t.Assignees {
		assignees = append(assignees, a.FullName())
	}
	var reporter, location, category, subcategory string
	if t.Reporter != nil {
		reporter = t.Reporter.FullName()
	}
	if t.Location != nil {
		location = t.Location.Name
	}
	if t.Category != nil {
		category = string(*t.Category)
	}
	if t.Subcategory != nil {
		subcategory = t.Subcategory.DisplayName
	}
	return []any{
		t.ID, t.Title, string(t.Status), string(t.Priority), category, subcategory, string(t.Source),
		reporter, t.PhoneNumber, strings.Join(assignees, ", "), location, len(t.Attachments), len(t.Notes),
		formatTime(&t.CreatedAt), formatTime(&t.UpdatedAt), formatTime(t.ResolvedAt), formatTime(t.ClosedAt),
	}
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}
