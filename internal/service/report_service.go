package service

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const (
	reportSheet   = "Tickets"
	reportMaxRows = 10000
)

var reportHeaders = []any{
	"ID", "Title", "Category", "Impact", "Status", "Customer ID", "Agent ID",
	"Resolution", "Resolved At", "Created At", "Updated At",
}

// ReportService builds spreadsheet exports for administrators.
type ReportService struct {
	tickets repository.TicketRepository
}

// NewReportService constructs the service.
func NewReportService(tickets repository.TicketRepository) *ReportService {
	return &ReportService{tickets: tickets}
}

// TicketReport renders matching tickets as an XLSX workbook.
func (s *ReportService) TicketReport(ctx context.Context, actor domain.Identity, filter TicketListFilter) ([]byte, error) {
	if !actor.Role.IsAdmin() {
		return nil, apperrors.NewForbidden("reports are restricted to administrators")
	}
	repoFilter := filter.repositoryFilter()
	repoFilter.Limit = reportMaxRows
	repoFilter.Offset = 0
	tickets, err := s.tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(reportSheet, "A1", &reportHeaders); err != nil {
		return nil, err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(reportSheet, "A1", "K1", style); err != nil {
		return nil, err
	}

	for i := range tickets {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := reportRow(&tickets[i])
		if err := f.SetSheetRow(reportSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(reportSheet, "B", "B", 40)
	_ = f.SetColWidth(reportSheet, "H", "H", 50)
	_ = f.SetColWidth(reportSheet, "I", "K", 22)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	return buf.Bytes(), nil
}

func reportRow(t *domain.Ticket) []any {
	agent := ""
	if t.AgentID != nil {
		agent = strconv.FormatInt(*t.AgentID, 10)
	}
	resolution := ""
	if t.ResolutionDetails != nil {
		resolution = *t.ResolutionDetails
	}
	resolvedAt := ""
	if t.ResolvedAt != nil {
		resolvedAt = t.ResolvedAt.Format(time.RFC3339)
	}
	return []any{
		t.ID,
		t.Title,
		t.Category,
		string(t.Impact),
		string(t.Status),
		t.CustomerID,
		agent,
		resolution,
		resolvedAt,
		t.CreatedAt.Format(time.RFC3339),
		t.UpdatedAt.Format(time.RFC3339),
	}
}
