package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"deskmatch/internal/domain"
	"deskmatch/internal/ports"
)

// ports.TicketRepository

const ticketColumns = `ticket, short_description, COALESCE(eml_domain, ''), account_number, account_name, extracted_text, COALESCE(extraction_status, '')`

func (db *DB) UpsertImported(ctx context.Context, imp ports.TicketImport) (bool, error) {
	// Import owns only the description and email domain; account, text and
	// status survive re-imports untouched.
	var created bool
	err := db.Pool.QueryRow(ctx, `
        INSERT INTO tickets (ticket, short_description, eml_domain)
        VALUES ($1, $2, NULLIF($3, ''))
        ON CONFLICT (ticket) DO UPDATE SET
            short_description = EXCLUDED.short_description,
            eml_domain = EXCLUDED.eml_domain
        RETURNING (xmax = 0)
    `, imp.Ticket, imp.ShortDescription, imp.EmailDomain).Scan(&created)
	return created, err
}

func (db *DB) Get(ctx context.Context, ticket string) (domain.Ticket, error) {
	row := db.Pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE ticket = $1`, ticket)
	t, err := scanTicket(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Ticket{}, domain.ErrTicketNotFound
	}
	return t, err
}

func (db *DB) List(ctx context.Context) ([]domain.Ticket, error) {
	return db.queryTickets(ctx, `SELECT `+ticketColumns+` FROM tickets ORDER BY ticket`)
}

func (db *DB) ListByTickets(ctx context.Context, tickets []string) ([]domain.Ticket, error) {
	return db.queryTickets(ctx, `
        SELECT `+ticketColumns+`
        FROM tickets
        WHERE ticket = ANY($1)
        ORDER BY ticket
    `, tickets)
}

func (db *DB) ListPendingExtraction(ctx context.Context) ([]domain.Ticket, error) {
	return db.queryTickets(ctx, `
        SELECT `+ticketColumns+`
        FROM tickets
        WHERE (account_number IS NULL OR account_number = '')
          AND (extraction_status IS NULL OR extraction_status = '')
        ORDER BY ticket
    `)
}

func (db *DB) SetAccount(ctx context.Context, ticket, number, name string) error {
	return db.execTicket(ctx, `
        UPDATE tickets SET account_number = $2, account_name = $3 WHERE ticket = $1
    `, ticket, number, name)
}

func (db *DB) ClearAccount(ctx context.Context, ticket string) error {
	return db.execTicket(ctx, `
        UPDATE tickets SET account_number = NULL, account_name = NULL WHERE ticket = $1
    `, ticket)
}

func (db *DB) SetEmailBody(ctx context.Context, ticket, body string, status domain.ExtractionStatus) error {
	return db.execTicket(ctx, `
        UPDATE tickets SET extracted_text = $2, extraction_status = $3 WHERE ticket = $1
    `, ticket, body, string(status))
}

func (db *DB) Stats(ctx context.Context) (domain.TicketStats, error) {
	var s domain.TicketStats
	err := db.Pool.QueryRow(ctx, `
        SELECT
            COUNT(*),
            COUNT(*) FILTER (WHERE account_number IS NOT NULL AND account_number <> ''),
            COUNT(*) FILTER (WHERE extraction_status = 'extracted'),
            COUNT(*) FILTER (WHERE extraction_status = 'nothing_to_extract'),
            COUNT(*) FILTER (WHERE extraction_status IS NULL OR extraction_status = '')
        FROM tickets
    `).Scan(&s.TotalTickets, &s.MatchedTickets, &s.ExtractedCount, &s.NothingToExtractCount, &s.PendingExtractionCount)
	return s, err
}

func (db *DB) execTicket(ctx context.Context, sql string, args ...any) error {
	tag, err := db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTicketNotFound
	}
	return nil
}

func (db *DB) queryTickets(ctx context.Context, sql string, args ...any) ([]domain.Ticket, error) {
	rows, err := db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTicket(row pgx.Row) (domain.Ticket, error) {
	var t domain.Ticket
	var status string
	err := row.Scan(&t.Ticket, &t.ShortDescription, &t.EmailDomain,
		&t.AccountNumber, &t.AccountName, &t.ExtractedText, &status)
	t.ExtractionStatus = domain.ExtractionStatus(status)
	return t, err
}
