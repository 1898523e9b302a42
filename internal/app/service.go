/**
 * @description
 * This file contains the core business logic for the benefit-service. The
 * `Service` struct enforces the benefit invariants (name uniqueness, balance
 * minimum, active scoping) and orchestrates the repository under transactional
 * boundaries for every mutating operation.
 *
 * Key features:
 * - Create checks name uniqueness against ALL records, active or not, while
 *   update checks only against other ACTIVE records. This asymmetry is part of
 *   the contract and must not be unified.
 * - Transfers acquire exclusive row locks on both benefits and move value
 *   atomically; any precondition failure rolls the whole transaction back.
 * - The stored `version` field is carried but never compared on update, so
 *   concurrent edits can still overwrite each other (a known, documented gap).
 *
 * @dependencies
 * - context, errors, fmt, log, strconv, strings, time: Standard Go libraries.
 * - github.com/shopspring/decimal: Monetary arithmetic.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/rabbitmq: For publishing lifecycle events.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/beneflow/benefit-service/internal/domain"
	"github.com/beneflow/benefit-service/internal/store"
	"github.com/beneflow/benefit-service/pkg/rabbitmq"
)

var (
	ErrNameRequired        = errors.New("benefit name is required")
	ErrDescriptionRequired = errors.New("benefit description is required")
	ErrBalanceTooLow       = errors.New("benefit balance must be at least 0.01")
	ErrDuplicateName       = errors.New("a benefit with this name already exists")

	ErrSameBenefitTransfer        = errors.New("cannot transfer to the same benefit")
	ErrInvalidTransferAmount      = errors.New("transfer amount must be greater than zero")
	ErrInsufficientBalance        = errors.New("insufficient balance on source benefit")
	ErrSourceBenefitNotFound      = errors.New("source benefit not found or inactive")
	ErrDestinationBenefitNotFound = errors.New("destination benefit not found or inactive")
	ErrTransferRateLimited        = errors.New("transfer rate limit exceeded")
)

// minimumCreateBalance is the inclusive lower bound for a newly created
// benefit's balance. Transfers re-check only non-negativity, not this minimum.
var minimumCreateBalance = decimal.RequireFromString("0.01")

// RateLimiter consumes one unit of a rate-limit budget for a subject within a
// scope and reports the running count for the current window.
type RateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope string, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// Service provides the core business logic for benefits.
type Service struct {
	repo          store.Repository
	events        rabbitmq.Publisher
	eventExchange string

	limiter                    RateLimiter
	transferRateLimitPerMinute int
}

// NewService creates a new benefit service instance. The publisher may be nil,
// in which case no events are emitted.
func NewService(repo store.Repository, events rabbitmq.Publisher, eventExchange string) *Service {
	return &Service{
		repo:          repo,
		events:        events,
		eventExchange: eventExchange,
	}
}

// SetTransferRateLimiter enables distributed rate limiting on transfers. A nil
// limiter or non-positive limit leaves transfers unthrottled.
func (s *Service) SetTransferRateLimiter(limiter RateLimiter, perMinute int) {
	s.limiter = limiter
	s.transferRateLimitPerMinute = perMinute
}

// ListBenefits returns every benefit with no filtering or pagination.
func (s *Service) ListBenefits(ctx context.Context) ([]domain.Benefit, error) {
	return s.repo.FindAll(ctx)
}

// PaginateBenefits answers a dynamic filtered query. Absent criteria contribute
// no constraint, so an empty filter pages over everything.
func (s *Service) PaginateBenefits(ctx context.Context, filter domain.BenefitFilter, page, size int) (*domain.BenefitPage, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 10
	}

	items, total, err := s.repo.FindPaged(ctx, filter, page, size)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Benefit{}
	}
	return &domain.BenefitPage{
		Content:       items,
		Page:          page,
		Size:          size,
		TotalElements: total,
	}, nil
}

func validateBenefitInput(name, description string, balance decimal.Decimal) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(description) == "" {
		return ErrDescriptionRequired
	}
	if balance.LessThan(minimumCreateBalance) {
		return ErrBalanceTooLow
	}
	return nil
}

// CreateBenefit validates the input, rejects duplicate names, and persists a
// new record with version 0. The duplicate check runs against all records
// regardless of the active flag.
func (s *Service) CreateBenefit(ctx context.Context, req domain.CreateBenefitRequest) (*domain.Benefit, error) {
	if err := validateBenefitInput(req.Name, req.Description, req.Balance); err != nil {
		return nil, err
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	var created *domain.Benefit
	err := s.repo.InTx(ctx, func(tx store.Repository) error {
		exists, err := tx.ExistsByName(ctx, req.Name)
		if err != nil {
			return fmt.Errorf("checking name uniqueness: %w", err)
		}
		if exists {
			return ErrDuplicateName
		}

		created, err = tx.Save(ctx, &domain.Benefit{
			Name:        req.Name,
			Description: req.Description,
			Balance:     req.Balance,
			Active:      active,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, "benefit.created", rabbitmq.NewBenefitEvent(created.ID, created.Name))
	return created, nil
}

// UpdateBenefit overwrites name, description, balance, and active on an
// existing ACTIVE record. The duplicate check excludes the record's own id so
// it can keep its current name, and considers only other active records.
func (s *Service) UpdateBenefit(ctx context.Context, id int64, req domain.UpdateBenefitRequest) (*domain.Benefit, error) {
	if err := validateBenefitInput(req.Name, req.Description, req.Balance); err != nil {
		return nil, err
	}

	var updated *domain.Benefit
	err := s.repo.InTx(ctx, func(tx store.Repository) error {
		existing, err := tx.FindByIDActive(ctx, id)
		if err != nil {
			return err
		}

		taken, err := tx.ExistsActiveByNameExcludingID(ctx, req.Name, id)
		if err != nil {
			return fmt.Errorf("checking name uniqueness: %w", err)
		}
		if taken {
			return ErrDuplicateName
		}

		existing.Name = req.Name
		existing.Description = req.Description
		existing.Balance = req.Balance
		existing.Active = req.Active

		updated, err = tx.Save(ctx, existing)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, "benefit.updated", rabbitmq.NewBenefitEvent(updated.ID, updated.Name))
	return updated, nil
}

// DeleteBenefit removes a record permanently. The lookup is unscoped, so even
// inactive records are deletable.
func (s *Service) DeleteBenefit(ctx context.Context, id int64) error {
	var deleted *domain.Benefit
	err := s.repo.InTx(ctx, func(tx store.Repository) error {
		existing, err := tx.FindByID(ctx, id)
		if err != nil {
			return err
		}
		deleted = existing
		return tx.Delete(ctx, existing)
	})
	if err != nil {
		return err
	}

	s.publishEvent(ctx, "benefit.deleted", rabbitmq.NewBenefitEvent(deleted.ID, deleted.Name))
	return nil
}

// Transfer moves amount from one benefit's balance to another's atomically.
// Preconditions are checked in order, first failure wins: distinct accounts,
// strictly positive amount, source lockable, destination lockable, sufficient
// source balance. Any failure rolls the whole transaction back.
//
// Row locks are acquired in ascending id order regardless of transfer
// direction, so two concurrent opposite-direction transfers cannot deadlock on
// each other. Debit and credit are applied by role after both locks are held.
func (s *Service) Transfer(ctx context.Context, fromID, toID int64, amount decimal.Decimal) error {
	if fromID == toID {
		return ErrSameBenefitTransfer
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidTransferAmount
	}
	if err := s.consumeTransferRateLimit(ctx, fromID); err != nil {
		return err
	}

	err := s.repo.InTx(ctx, func(tx store.Repository) error {
		firstID, secondID := fromID, toID
		if secondID < firstID {
			firstID, secondID = secondID, firstID
		}

		first, err := lockBenefitForTransfer(ctx, tx, firstID, fromID)
		if err != nil {
			return err
		}
		second, err := lockBenefitForTransfer(ctx, tx, secondID, fromID)
		if err != nil {
			return err
		}

		from, to := first, second
		if firstID != fromID {
			from, to = second, first
		}

		if from.Balance.LessThan(amount) {
			return ErrInsufficientBalance
		}

		from.Balance = from.Balance.Sub(amount)
		to.Balance = to.Balance.Add(amount)

		if _, err := tx.Save(ctx, from); err != nil {
			return fmt.Errorf("saving source benefit: %w", err)
		}
		if _, err := tx.Save(ctx, to); err != nil {
			return fmt.Errorf("saving destination benefit: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publishEvent(ctx, "benefit.transfer.completed", rabbitmq.NewBenefitTransferEvent(fromID, toID, amount))
	return nil
}

// lockBenefitForTransfer acquires the exclusive lock on one endpoint of a
// transfer and classifies a miss as a source or destination failure.
func lockBenefitForTransfer(ctx context.Context, tx store.Repository, id, fromID int64) (*domain.Benefit, error) {
	benefit, err := tx.FindByIDActiveForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrBenefitNotFound) {
			if id == fromID {
				return nil, ErrSourceBenefitNotFound
			}
			return nil, ErrDestinationBenefitNotFound
		}
		return nil, err
	}
	return benefit, nil
}

func (s *Service) consumeTransferRateLimit(ctx context.Context, fromID int64) error {
	if s.limiter == nil || s.transferRateLimitPerMinute <= 0 {
		return nil
	}

	count, _, err := s.limiter.ConsumeRateLimit(ctx, "transfer", strconv.FormatInt(fromID, 10), s.transferRateLimitPerMinute, time.Minute)
	if err != nil {
		// The limiter is best-effort; a broken limiter must not block transfers.
		log.Printf("level=warn component=service msg=\"transfer rate limiter unavailable\" from_id=%d err=%v", fromID, err)
		return nil
	}
	if count > s.transferRateLimitPerMinute {
		return ErrTransferRateLimited
	}
	return nil
}

// publishEvent emits a topic event after a successful commit. Publish failures
// are logged and never fail the originating operation.
func (s *Service) publishEvent(ctx context.Context, routingKey string, body interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, s.eventExchange, routingKey, body); err != nil {
		log.Printf("level=warn component=service msg=\"event publish failed\" routing_key=%s err=%v", routingKey, err)
	}
}
