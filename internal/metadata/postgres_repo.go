package metadata

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const recordColumns = "id, external_id, isbn, title, author, author_key, publish_year, page_count, cover_id, last_updated"

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// Upsert inserts the draft, or merges it into the existing row for the same
// external id. Insert and merge happen in one transaction with the row locked,
// so the recency gate always compares against the stored state at the time the
// merge begins. The unique index on external_id is the backstop for the insert
// race; a conflicting insert surfaces as ErrDuplicateExternalID and the engine
// retries once.
func (r *PostgresRepo) Upsert(ctx context.Context, draft Record) (Record, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Record{}, mapStoreErr(err)
	}
	defer tx.Rollback(ctx)

	const insertSQL = `
		INSERT INTO book_details (external_id, isbn, title, author, author_key, publish_year, page_count, cover_id, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (external_id) DO NOTHING
		RETURNING ` + recordColumns

	inserted, err := scanRecord(tx.QueryRow(ctx, insertSQL,
		draft.ExternalID, draft.ISBN, draft.Title, draft.Author, draft.AuthorKey,
		draft.PublishYear, draft.PageCount, draft.CoverID, draft.LastUpdated,
	))
	if err == nil {
		if err := tx.Commit(ctx); err != nil {
			return Record{}, mapStoreErr(err)
		}
		return inserted, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Record{}, mapStoreErr(err)
	}

	// A row for this external id already exists. Lock it and merge.
	const selectSQL = `SELECT ` + recordColumns + ` FROM book_details WHERE external_id = $1 FOR UPDATE`

	stored, err := scanRecord(tx.QueryRow(ctx, selectSQL, draft.ExternalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The conflicting insert never committed; the row is gone.
			return Record{}, fmt.Errorf("%w: %s", ErrDuplicateExternalID, draft.ExternalID)
		}
		return Record{}, mapStoreErr(err)
	}

	merged, changed := Merge(stored, draft)
	if !changed {
		if err := tx.Commit(ctx); err != nil {
			return Record{}, mapStoreErr(err)
		}
		return stored, nil
	}

	const updateSQL = `
		UPDATE book_details
		SET isbn = $2, title = $3, author = $4, author_key = $5,
		    publish_year = $6, page_count = $7, cover_id = $8, last_updated = $9
		WHERE id = $1`

	if _, err := tx.Exec(ctx, updateSQL,
		merged.ID, merged.ISBN, merged.Title, merged.Author, merged.AuthorKey,
		merged.PublishYear, merged.PageCount, merged.CoverID, merged.LastUpdated,
	); err != nil {
		return Record{}, mapStoreErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Record{}, mapStoreErr(err)
	}
	return merged, nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (Record, error) {
	const query = `SELECT ` + recordColumns + ` FROM book_details WHERE id = $1`

	rec, err := scanRecord(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, mapStoreErr(err)
	}
	return rec, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.ExternalID, &rec.ISBN, &rec.Title, &rec.Author, &rec.AuthorKey,
		&rec.PublishYear, &rec.PageCount, &rec.CoverID, &rec.LastUpdated,
	)
	return rec, err
}

func mapStoreErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return fmt.Errorf("%w: %v", ErrDuplicateExternalID, err)
		}
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
