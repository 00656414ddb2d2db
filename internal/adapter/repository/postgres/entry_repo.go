package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devmarket/escrow/internal/domain"
	"github.com/devmarket/escrow/internal/usecase"
)

const pgErrUniqueViolation = "23505"

const entryColumns = `id, project_id, kind, status, description, reference,
	amount, balance_after, project_version, created_at`

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// Create appends a ledger entry inside the caller's transaction. A duplicate
// payment reference trips the unique index and maps to
// domain.ErrDuplicateReference, the backstop behind HasReference.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO ledger_entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID,
		entry.ProjectID,
		string(entry.Kind),
		string(entry.Status),
		entry.Description,
		nullableText(entry.Reference),
		decimalToNumeric(entry.Amount),
		decimalToNumeric(entry.BalanceAfter),
		entry.ProjectVersion,
		timeToPg(entry.CreatedAt),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			return domain.ErrDuplicateReference
		}

		return err
	}

	return nil
}

// ListByProject lists entries for a project with pagination, newest first.
func (r *EntryRepository) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries
		WHERE project_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3`, projectID, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows, limit)
}

// ListAllByProject returns every entry for a project in append order. Entry
// IDs are ULIDs, so lexical order is creation order.
func (r *EntryRepository) ListAllByProject(ctx context.Context, projectID string) ([]*domain.LedgerEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries
		WHERE project_id = $1
		ORDER BY id ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows, 0)
}

// HasReference reports whether a payment reference was already recorded for
// the project, inside the caller's transaction.
func (r *EntryRepository) HasReference(ctx context.Context, tx usecase.Transaction, projectID, reference string) (bool, error) {
	pgxTx := tx.(*Tx).PgxTx()

	var exists bool

	err := pgxTx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM ledger_entries
			WHERE project_id = $1 AND reference = $2
		)`, projectID, reference).Scan(&exists)

	return exists, err
}

func scanEntries(rows pgx.Rows, sizeHint int) ([]*domain.LedgerEntry, error) {
	entries := make([]*domain.LedgerEntry, 0, sizeHint)

	for rows.Next() {
		var (
			e            domain.LedgerEntry
			kind         string
			status       string
			reference    pgtype.Text
			amount       pgtype.Numeric
			balanceAfter pgtype.Numeric
			createdAt    pgtype.Timestamptz
		)

		err := rows.Scan(
			&e.ID,
			&e.ProjectID,
			&kind,
			&status,
			&e.Description,
			&reference,
			&amount,
			&balanceAfter,
			&e.ProjectVersion,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}

		e.Kind = domain.EntryKind(kind)
		e.Status = domain.EntryStatus(status)
		e.Reference = reference.String
		e.Amount = numericToDecimal(amount)
		e.BalanceAfter = numericToDecimal(balanceAfter)
		e.CreatedAt = createdAt.Time

		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

func nullableText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
