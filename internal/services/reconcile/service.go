package reconcile

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"deskmatch/internal/domain"
	"deskmatch/internal/ports"
)

// Matcher is the slice of the matching engine the driver needs.
type Matcher interface {
	FindMatches(ctx context.Context, text string) ([]domain.Match, error)
}

// Service binds tickets to accounts using the matching engine. First match
// wins; a text with no matches clears any prior binding.
type Service struct {
	engine  Matcher
	tickets ports.TicketRepository
	log     *zap.Logger
}

func New(engine Matcher, tickets ports.TicketRepository, log *zap.Logger) *Service {
	return &Service{engine: engine, tickets: tickets, log: log}
}

// Assign runs the engine on text and persists the resulting binding for the
// ticket. Returns whether a binding was set. Idempotent for unchanged text
// and reference data.
func (s *Service) Assign(ctx context.Context, ticket, text string) (bool, error) {
	matches, err := s.engine.FindMatches(ctx, text)
	if err != nil {
		return false, err
	}
	if len(matches) == 0 {
		return false, s.tickets.ClearAccount(ctx, ticket)
	}

	first := matches[0]
	number := first.Record.Customer
	if number == "" {
		number = first.Code
	}
	if err := s.tickets.SetAccount(ctx, ticket, number, first.Record.Name); err != nil {
		return false, err
	}
	s.log.Debug("ticket matched",
		zap.String("ticket", ticket),
		zap.String("account", number),
		zap.String("kind", string(first.Kind)))
	return true, nil
}

// ReconcileAll runs Assign over every ticket's short description and returns
// the number of tickets that received a binding. A failure on one ticket is
// logged and does not stop the pass.
func (s *Service) ReconcileAll(ctx context.Context) (int, error) {
	tickets, err := s.tickets.List(ctx)
	if err != nil {
		return 0, err
	}

	matched := 0
	for _, t := range tickets {
		ok, err := s.Assign(ctx, t.Ticket, t.ShortDescription)
		if err != nil {
			s.log.Warn("reconcile failed", zap.String("ticket", t.Ticket), zap.Error(err))
			continue
		}
		if ok {
			matched++
		}
	}
	return matched, nil
}

// RecordEmailBody stores the fetched email body and its extraction status,
// and reconciles the ticket against the body when there is one. An empty or
// blank body marks the ticket nothing-to-extract.
func (s *Service) RecordEmailBody(ctx context.Context, ticket, body string) error {
	status := domain.NothingToExtract
	if strings.TrimSpace(body) != "" {
		status = domain.Extracted
	}
	if err := s.tickets.SetEmailBody(ctx, ticket, body, status); err != nil {
		return err
	}
	if status != domain.Extracted {
		return nil
	}
	_, err := s.Assign(ctx, ticket, body)
	return err
}
