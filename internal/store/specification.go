/**
 * @description
 * This file builds the dynamic WHERE clause for filtered benefit queries. Each
 * criterion is optional: a blank or nil input contributes no constraint, so an
 * empty filter selects every row. Non-empty criteria are combined with AND.
 *
 * @dependencies
 * - fmt, strings: Standard Go libraries.
 * - internal/domain: For the filter input.
 */

package store

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/beneflow/benefit-service/internal/domain"
)

// BenefitSpecification folds the optional filter criteria into a single SQL
// predicate with positional arguments starting at $1.
type BenefitSpecification struct {
	clauses []string
	args    []interface{}
}

// NewBenefitSpecification applies every criterion of the filter in a fixed
// order so the emitted SQL is deterministic for a given filter.
func NewBenefitSpecification(filter domain.BenefitFilter) *BenefitSpecification {
	spec := &BenefitSpecification{}
	spec.hasName(filter.Name)
	spec.hasDescription(filter.Description)
	spec.hasValue(filter.Balance)
	spec.isActive(filter.Active)
	spec.globalSearch(filter.Search)
	return spec
}

// hasName matches a case-insensitive substring of the benefit name.
func (s *BenefitSpecification) hasName(name string) {
	if strings.TrimSpace(name) == "" {
		return
	}
	s.args = append(s.args, name)
	s.clauses = append(s.clauses, fmt.Sprintf("name ILIKE '%%' || $%d || '%%'", len(s.args)))
}

// hasDescription matches a case-insensitive substring of the description.
func (s *BenefitSpecification) hasDescription(description string) {
	if strings.TrimSpace(description) == "" {
		return
	}
	s.args = append(s.args, description)
	s.clauses = append(s.clauses, fmt.Sprintf("description ILIKE '%%' || $%d || '%%'", len(s.args)))
}

// hasValue matches the balance exactly.
func (s *BenefitSpecification) hasValue(balance *decimal.Decimal) {
	if balance == nil {
		return
	}
	s.args = append(s.args, *balance)
	s.clauses = append(s.clauses, fmt.Sprintf("balance = $%d", len(s.args)))
}

// isActive matches the active flag exactly.
func (s *BenefitSpecification) isActive(active *bool) {
	if active == nil {
		return
	}
	s.args = append(s.args, *active)
	s.clauses = append(s.clauses, fmt.Sprintf("active = $%d", len(s.args)))
}

// globalSearch matches a case-insensitive substring of the name OR description.
func (s *BenefitSpecification) globalSearch(term string) {
	if strings.TrimSpace(term) == "" {
		return
	}
	s.args = append(s.args, term)
	pos := len(s.args)
	s.clauses = append(s.clauses,
		fmt.Sprintf("(name ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%d || '%%')", pos, pos))
}

// WhereClause returns the combined predicate with a leading " WHERE ", or the
// empty string when no criterion applies.
func (s *BenefitSpecification) WhereClause() string {
	if len(s.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(s.clauses, " AND ")
}

// Args returns the positional arguments referenced by the clause, in order.
func (s *BenefitSpecification) Args() []interface{} {
	return s.args
}
