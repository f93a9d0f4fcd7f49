package extractrunner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"deskmatch/internal/ports"
)

// BodyRecorder is the slice of the reconciliation service the runner needs:
// it persists a fetched body (or the lack of one) and reconciles against it.
type BodyRecorder interface {
	RecordEmailBody(ctx context.Context, ticket, body string) error
}

// Runner drains the pending-extraction queue: tickets with no account
// binding and no recorded extraction attempt. Bodies are fetched from the
// external collaborator one ticket at a time; a fetch failure is recorded as
// an empty body, never propagated.
type Runner struct {
	tickets  ports.TicketRepository
	fetcher  ports.EmailFetcher
	recorder BodyRecorder
	log      *zap.Logger
}

func New(tickets ports.TicketRepository, fetcher ports.EmailFetcher, recorder BodyRecorder, log *zap.Logger) *Runner {
	return &Runner{tickets: tickets, fetcher: fetcher, recorder: recorder, log: log}
}

// RunOnce processes every currently pending ticket and returns how many were
// handled. Per-ticket failures are logged and skipped.
func (r *Runner) RunOnce(ctx context.Context) (int, error) {
	pending, err := r.tickets.ListPendingExtraction(ctx)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, t := range pending {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		body, err := r.fetcher.FetchBody(ctx, t.Ticket)
		if err != nil {
			r.log.Warn("email fetch failed", zap.String("ticket", t.Ticket), zap.Error(err))
			body = ""
		}
		if err := r.recorder.RecordEmailBody(ctx, t.Ticket, body); err != nil {
			r.log.Warn("record email body failed", zap.String("ticket", t.Ticket), zap.Error(err))
			continue
		}
		processed++
	}
	return processed, nil
}

// Run polls for pending tickets until the context is cancelled.
func (r *Runner) Run(ctx context.Context, pollInterval time.Duration) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.RunOnce(ctx)
			if err != nil && ctx.Err() == nil {
				r.log.Warn("extraction pass failed", zap.Error(err))
				continue
			}
			if n > 0 {
				r.log.Info("extraction pass complete", zap.Int("processed", n))
			}
		}
	}
}
