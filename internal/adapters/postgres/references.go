package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"deskmatch/internal/domain"
)

// ports.ReferenceStore

func (db *DB) Load(ctx context.Context, records []domain.ReferenceRecord, replace bool) (int, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if replace {
		if _, err := tx.Exec(ctx, `DELETE FROM reference_records`); err != nil {
			return 0, err
		}
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`
            INSERT INTO reference_records
                (document_number, reference, currency_value, currency_key, name, customer)
            VALUES ($1, $2, $3, $4, $5, $6)
            ON CONFLICT (customer, document_number) DO UPDATE SET
                reference = EXCLUDED.reference,
                currency_value = EXCLUDED.currency_value,
                currency_key = EXCLUDED.currency_key,
                name = EXCLUDED.name
        `, rec.DocumentNumber, rec.Reference, rec.CurrencyValue, rec.CurrencyKey, rec.Name, rec.Customer)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(records), nil
}

func (db *DB) LookupByCustomer(ctx context.Context, code string) ([]domain.ReferenceRecord, error) {
	return db.queryReferences(ctx, `
        SELECT document_number, reference, currency_value, currency_key, name, customer
        FROM reference_records
        WHERE customer = $1
        ORDER BY document_number
    `, code)
}

func (db *DB) LookupByDocumentOrReference(ctx context.Context, code string) ([]domain.ReferenceRecord, error) {
	return db.queryReferences(ctx, `
        SELECT document_number, reference, currency_value, currency_key, name, customer
        FROM reference_records
        WHERE document_number = $1 OR reference = $1
        ORDER BY customer, document_number
    `, code)
}

func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM reference_records`).Scan(&n)
	return n, err
}

func (db *DB) queryReferences(ctx context.Context, sql string, args ...any) ([]domain.ReferenceRecord, error) {
	rows, err := db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ReferenceRecord
	for rows.Next() {
		var rec domain.ReferenceRecord
		if err := rows.Scan(&rec.DocumentNumber, &rec.Reference, &rec.CurrencyValue,
			&rec.CurrencyKey, &rec.Name, &rec.Customer); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
