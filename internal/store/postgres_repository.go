/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface. It contains all the SQL needed to query and mutate the `benefits`
 * table, including the exclusive row lock used by balance transfers.
 *
 * Uniqueness of active benefit names is enforced here at the application layer
 * rather than by a database unique index, because the constraint is scoped to
 * active rows only.
 *
 * @dependencies
 * - context, errors, fmt: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/beneflow/benefit-service/internal/domain"
)

var (
	ErrBenefitNotFound = errors.New("benefit not found")
)

const (
	defaultPageSize = 10
	maxPageSize     = 100

	benefitColumns = "id, name, description, balance, active, version"
)

// DBTX is the subset of pgx operations the repository needs. It is satisfied by
// both *pgxpool.Pool and pgx.Tx, which lets the same query methods run inside
// or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// PostgresRepository is the concrete implementation of Repository for PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
	db   DBTX
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool, db: pool}
}

func scanBenefit(row pgx.Row) (*domain.Benefit, error) {
	var b domain.Benefit
	err := row.Scan(&b.ID, &b.Name, &b.Description, &b.Balance, &b.Active, &b.Version)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// FindAll returns an unordered snapshot of every benefit record.
func (r *PostgresRepository) FindAll(ctx context.Context) ([]domain.Benefit, error) {
	query := fmt.Sprintf("SELECT %s FROM benefits", benefitColumns)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var benefits []domain.Benefit
	for rows.Next() {
		var b domain.Benefit
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Balance, &b.Active, &b.Version); err != nil {
			return nil, err
		}
		benefits = append(benefits, b)
	}
	return benefits, rows.Err()
}

// normalizePage clamps the page window so hostile or absurd inputs cannot
// crash a query: negative pages become 0, non-positive sizes fall back to the
// default, and oversized pages are capped.
func normalizePage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

// FindPaged returns the window of benefits matching the filter, ordered by id
// descending, plus the total matching count for pagination metadata.
func (r *PostgresRepository) FindPaged(ctx context.Context, filter domain.BenefitFilter, page, size int) ([]domain.Benefit, int64, error) {
	page, size = normalizePage(page, size)

	spec := NewBenefitSpecification(filter)
	where := spec.WhereClause()

	var total int64
	countQuery := "SELECT COUNT(*) FROM benefits" + where
	if err := r.db.QueryRow(ctx, countQuery, spec.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting benefits: %w", err)
	}

	args := spec.Args()
	query := fmt.Sprintf(
		"SELECT %s FROM benefits%s ORDER BY id DESC LIMIT $%d OFFSET $%d",
		benefitColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, size, page*size)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var benefits []domain.Benefit
	for rows.Next() {
		var b domain.Benefit
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Balance, &b.Active, &b.Version); err != nil {
			return nil, 0, err
		}
		benefits = append(benefits, b)
	}
	return benefits, total, rows.Err()
}

// ExistsByName reports whether any record, active or not, has this exact name.
func (r *PostgresRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM benefits WHERE name = $1)", name).Scan(&exists)
	return exists, err
}

// ExistsActiveByNameExcludingID reports whether an active record other than
// excludedID owns this name. Excluding the caller's own id allows renaming a
// record to its current name.
func (r *PostgresRepository) ExistsActiveByNameExcludingID(ctx context.Context, name string, excludedID int64) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM benefits WHERE name = $1 AND id <> $2 AND active = TRUE)"
	err := r.db.QueryRow(ctx, query, name, excludedID).Scan(&exists)
	return exists, err
}

// FindByID looks a benefit up regardless of its active flag.
func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*domain.Benefit, error) {
	query := fmt.Sprintf("SELECT %s FROM benefits WHERE id = $1", benefitColumns)
	b, err := scanBenefit(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBenefitNotFound
		}
		return nil, err
	}
	return b, nil
}

// FindByIDActive looks a benefit up restricted to active records.
func (r *PostgresRepository) FindByIDActive(ctx context.Context, id int64) (*domain.Benefit, error) {
	query := fmt.Sprintf("SELECT %s FROM benefits WHERE id = $1 AND active = TRUE", benefitColumns)
	b, err := scanBenefit(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBenefitNotFound
		}
		return nil, err
	}
	return b, nil
}

// FindByIDActiveForUpdate looks an active benefit up and acquires an exclusive
// row lock for the duration of the enclosing transaction. Concurrent
// transactions requesting the same lock block until commit or rollback.
func (r *PostgresRepository) FindByIDActiveForUpdate(ctx context.Context, id int64) (*domain.Benefit, error) {
	query := fmt.Sprintf("SELECT %s FROM benefits WHERE id = $1 AND active = TRUE FOR UPDATE", benefitColumns)
	b, err := scanBenefit(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBenefitNotFound
		}
		return nil, err
	}
	return b, nil
}

// Save inserts the benefit when its id is zero, otherwise overwrites the
// existing row by id. The persisted representation is returned, with the
// store-assigned id and version populated on insert.
func (r *PostgresRepository) Save(ctx context.Context, benefit *domain.Benefit) (*domain.Benefit, error) {
	saved := *benefit
	if benefit.ID == 0 {
		query := `
			INSERT INTO benefits (name, description, balance, active, version)
			VALUES ($1, $2, $3, $4, 0)
			RETURNING id, version
		`
		err := r.db.QueryRow(ctx, query,
			benefit.Name, benefit.Description, benefit.Balance, benefit.Active,
		).Scan(&saved.ID, &saved.Version)
		if err != nil {
			return nil, fmt.Errorf("inserting benefit: %w", err)
		}
		return &saved, nil
	}

	query := `
		UPDATE benefits
		SET name = $1, description = $2, balance = $3, active = $4
		WHERE id = $5
	`
	tag, err := r.db.Exec(ctx, query,
		benefit.Name, benefit.Description, benefit.Balance, benefit.Active, benefit.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating benefit %d: %w", benefit.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrBenefitNotFound
	}
	return &saved, nil
}

// Delete removes the row permanently. There is no soft-delete path; the active
// flag is only a query scope.
func (r *PostgresRepository) Delete(ctx context.Context, benefit *domain.Benefit) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM benefits WHERE id = $1", benefit.ID)
	if err != nil {
		return fmt.Errorf("deleting benefit %d: %w", benefit.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBenefitNotFound
	}
	return nil
}

// InTx runs fn against a repository bound to a single transaction. The
// transaction commits when fn returns nil and rolls back in full on any error,
// so a failure after a partial mutation never leaves observable state behind.
// Calling InTx on an already transaction-bound repository reuses the open
// transaction.
func (r *PostgresRepository) InTx(ctx context.Context, fn func(Repository) error) error {
	if _, alreadyInTx := r.db.(pgx.Tx); alreadyInTx {
		return fn(r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&PostgresRepository{pool: r.pool, db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
