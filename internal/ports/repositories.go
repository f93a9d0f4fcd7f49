package ports

import (
	"context"

	"deskmatch/internal/domain"
)

// ReferenceStore is the lookup table over ERP open items. Lookups are exact
// string equality; callers normalize codes before calling.
type ReferenceStore interface {
	// Load ingests a batch. With replace set, all prior rows are discarded
	// first; otherwise rows are upserted on (customer, document_number).
	Load(ctx context.Context, records []domain.ReferenceRecord, replace bool) (int, error)
	LookupByCustomer(ctx context.Context, code string) ([]domain.ReferenceRecord, error)
	LookupByDocumentOrReference(ctx context.Context, code string) ([]domain.ReferenceRecord, error)
	Count(ctx context.Context) (int, error)
}

// TicketImport is the slice of a ticket that import is allowed to write.
type TicketImport struct {
	Ticket           string
	ShortDescription string
	EmailDomain      string
}

// TicketRepository manages ticket rows. Field ownership is split between
// import (description, domain), reconciliation (account fields) and
// extraction (text, status); no method crosses those lines.
type TicketRepository interface {
	// UpsertImported creates the ticket or refreshes its description and
	// email domain, never touching the other fields. Reports whether a new
	// row was created.
	UpsertImported(ctx context.Context, imp TicketImport) (created bool, err error)
	Get(ctx context.Context, ticket string) (domain.Ticket, error)
	// List returns every ticket in ticket-id order.
	List(ctx context.Context) ([]domain.Ticket, error)
	// ListByTickets returns the named tickets in ticket-id order, skipping
	// unknown ids.
	ListByTickets(ctx context.Context, tickets []string) ([]domain.Ticket, error)
	// ListPendingExtraction returns tickets with no account binding and no
	// recorded extraction attempt, in ticket-id order.
	ListPendingExtraction(ctx context.Context) ([]domain.Ticket, error)
	SetAccount(ctx context.Context, ticket, number, name string) error
	ClearAccount(ctx context.Context, ticket string) error
	SetEmailBody(ctx context.Context, ticket, body string, status domain.ExtractionStatus) error
	Stats(ctx context.Context) (domain.TicketStats, error)
}
