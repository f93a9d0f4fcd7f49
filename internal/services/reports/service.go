package reports

import (
	"context"
	"encoding/csv"
	"io"

	"deskmatch/internal/domain"
	"deskmatch/internal/ports"
)

// Service exposes the read models: reconciliation statistics and the
// per-ticket CSV report.
type Service struct {
	tickets ports.TicketRepository
	refs    ports.ReferenceStore
}

func New(tickets ports.TicketRepository, refs ports.ReferenceStore) *Service {
	return &Service{tickets: tickets, refs: refs}
}

// Stats is the dashboard aggregate over both tables.
type Stats struct {
	domain.TicketStats
	ReferenceRecords int
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	ticketStats, err := s.tickets.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	refCount, err := s.refs.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{TicketStats: ticketStats, ReferenceRecords: refCount}, nil
}

var exportHeader = []string{"ticket", "short_description", "eml_domain", "account_number", "account_name", "extraction_status"}

// ExportCSV writes the report rows for the named tickets to w in ticket-id
// order, absent values rendered empty. Unknown ids are skipped. Returns the
// number of rows written.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, tickets []string) (int, error) {
	rows, err := s.tickets.ListByTickets(ctx, tickets)
	if err != nil {
		return 0, err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return 0, err
	}
	for _, t := range rows {
		record := []string{
			t.Ticket,
			t.ShortDescription,
			t.EmailDomain,
			orEmpty(t.AccountNumber),
			orEmpty(t.AccountName),
			string(t.ExtractionStatus),
		}
		if err := writer.Write(record); err != nil {
			return 0, err
		}
	}
	writer.Flush()
	return len(rows), writer.Error()
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
