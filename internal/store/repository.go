/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for
 * all data access operations required by the benefit-service. Defining an
 * interface decouples the business logic from the PostgreSQL implementation and
 * makes the service testable against an in-memory fake.
 *
 * @dependencies
 * - context: Standard Go library.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"

	"github.com/beneflow/benefit-service/internal/domain"
)

// Repository defines the set of methods for interacting with benefit records.
//
// InTx runs fn against a repository bound to a single database transaction:
// the transaction commits when fn returns nil and rolls back in full on any
// error. FindByIDActiveForUpdate acquires an exclusive row lock and is only
// meaningful on the repository passed to an InTx callback; outside of a
// transaction the lock is released as soon as the statement completes.
type Repository interface {
	FindAll(ctx context.Context) ([]domain.Benefit, error)
	FindPaged(ctx context.Context, filter domain.BenefitFilter, page, size int) ([]domain.Benefit, int64, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	ExistsActiveByNameExcludingID(ctx context.Context, name string, excludedID int64) (bool, error)
	FindByID(ctx context.Context, id int64) (*domain.Benefit, error)
	FindByIDActive(ctx context.Context, id int64) (*domain.Benefit, error)
	FindByIDActiveForUpdate(ctx context.Context, id int64) (*domain.Benefit, error)
	Save(ctx context.Context, benefit *domain.Benefit) (*domain.Benefit, error)
	Delete(ctx context.Context, benefit *domain.Benefit) error
	InTx(ctx context.Context, fn func(Repository) error) error
}
