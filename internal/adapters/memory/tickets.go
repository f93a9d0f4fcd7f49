package memory

import (
	"context"
	"sort"
	"sync"

	"deskmatch/internal/domain"
	"deskmatch/internal/ports"
)

// TicketRepository is an in-memory implementation of ports.TicketRepository.
type TicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]*domain.Ticket
}

func NewTicketRepository() *TicketRepository {
	return &TicketRepository{tickets: make(map[string]*domain.Ticket)}
}

var ErrNotFound = domain.ErrTicketNotFound

func (r *TicketRepository) UpsertImported(ctx context.Context, imp ports.TicketImport) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.tickets[imp.Ticket]; ok {
		t.ShortDescription = imp.ShortDescription
		t.EmailDomain = imp.EmailDomain
		return false, nil
	}
	r.tickets[imp.Ticket] = &domain.Ticket{
		Ticket:           imp.Ticket,
		ShortDescription: imp.ShortDescription,
		EmailDomain:      imp.EmailDomain,
	}
	return true, nil
}

func (r *TicketRepository) Get(ctx context.Context, ticket string) (domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tickets[ticket]
	if !ok {
		return domain.Ticket{}, ErrNotFound
	}
	return *t, nil
}

func (r *TicketRepository) List(ctx context.Context) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Ticket, 0, len(r.tickets))
	for _, t := range r.tickets {
		out = append(out, *t)
	}
	sortTickets(out)
	return out, nil
}

func (r *TicketRepository) ListByTickets(ctx context.Context, tickets []string) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Ticket, 0, len(tickets))
	for _, id := range tickets {
		if t, ok := r.tickets[id]; ok {
			out = append(out, *t)
		}
	}
	sortTickets(out)
	return out, nil
}

func (r *TicketRepository) ListPendingExtraction(ctx context.Context) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Ticket
	for _, t := range r.tickets {
		if !t.Matched() && t.ExtractionStatus == domain.ExtractionUnset {
			out = append(out, *t)
		}
	}
	sortTickets(out)
	return out, nil
}

func (r *TicketRepository) SetAccount(ctx context.Context, ticket, number, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[ticket]
	if !ok {
		return ErrNotFound
	}
	t.AccountNumber = &number
	t.AccountName = &name
	return nil
}

func (r *TicketRepository) ClearAccount(ctx context.Context, ticket string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[ticket]
	if !ok {
		return ErrNotFound
	}
	t.AccountNumber = nil
	t.AccountName = nil
	return nil
}

func (r *TicketRepository) SetEmailBody(ctx context.Context, ticket, body string, status domain.ExtractionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[ticket]
	if !ok {
		return ErrNotFound
	}
	t.ExtractedText = &body
	t.ExtractionStatus = status
	return nil
}

func (r *TicketRepository) Stats(ctx context.Context) (domain.TicketStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var stats domain.TicketStats
	for _, t := range r.tickets {
		stats.TotalTickets++
		if t.Matched() {
			stats.MatchedTickets++
		}
		switch t.ExtractionStatus {
		case domain.Extracted:
			stats.ExtractedCount++
		case domain.NothingToExtract:
			stats.NothingToExtractCount++
		default:
			stats.PendingExtractionCount++
		}
	}
	return stats, nil
}

func sortTickets(tickets []domain.Ticket) {
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].Ticket < tickets[j].Ticket })
}
