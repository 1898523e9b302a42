/**
 * @description
 * This file defines the core domain models for the benefit-service. These structs
 * represent the benefit ledger entity and the data transfer objects used by the
 * service's business logic, database layer, and API layer.
 *
 * @notes
 * - Balances are stored as `decimal.Decimal` (NUMERIC(15,2) in the database) to
 *   avoid floating-point inaccuracies with monetary data.
 * - `Version` is a stored concurrency marker. It is initialized to 0 on creation
 *   and carried through reads and updates, but the update path does not compare
 *   it against the caller's copy; see the service layer for details.
 */

package domain

import "github.com/shopspring/decimal"

// Benefit is the central ledger record: a named account holding a monetary
// balance and an active flag. This struct maps directly to the `benefits` table.
type Benefit struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Balance     decimal.Decimal `json:"balance"`
	Active      bool            `json:"active"`
	Version     int64           `json:"version"`
}

// CreateBenefitRequest is the DTO for incoming benefit creation requests.
// Active is a pointer so an omitted value falls back to the default (true),
// mirroring the column default on the benefits table.
type CreateBenefitRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Balance     decimal.Decimal `json:"balance"`
	Active      *bool           `json:"active,omitempty"`
}

// UpdateBenefitRequest is the DTO for benefit update requests. Every field
// overwrites the stored record; there is no partial update.
type UpdateBenefitRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Balance     decimal.Decimal `json:"balance"`
	Active      bool            `json:"active"`
}

// BenefitFilter holds the optional criteria for a paginated query. A zero-value
// field (blank string, nil pointer) contributes no constraint, so a sparse
// filter degrades gracefully into "list everything".
type BenefitFilter struct {
	Name        string
	Description string
	Balance     *decimal.Decimal
	Active      *bool
	Search      string
}

// BenefitPage is a window of benefits plus the pagination metadata callers need
// to fetch subsequent pages.
type BenefitPage struct {
	Content       []Benefit `json:"content"`
	Page          int       `json:"page"`
	Size          int       `json:"size"`
	TotalElements int64     `json:"totalElements"`
}
