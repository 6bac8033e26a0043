package postgres

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"sacra360/pkg/platform/sentinel"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
	codeUndefinedTable      = "42P01"
)

// ConstraintKind names the class of integrity violation.
type ConstraintKind string

const (
	KindUnique     ConstraintKind = "unique"
	KindForeignKey ConstraintKind = "foreign_key"
	KindCheck      ConstraintKind = "check"
	KindNotNull    ConstraintKind = "not_null"
)

// ConstraintError is an integrity violation reported by Postgres. It unwraps
// to the matching sentinel so services can use errors.Is.
type ConstraintError struct {
	Kind       ConstraintKind
	Constraint string
	Detail     string
	Err        error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s violation on %s: %s", e.Kind, e.Constraint, e.Detail)
}

func (e *ConstraintError) Unwrap() []error {
	switch e.Kind {
	case KindUnique:
		return []error{sentinel.ErrAlreadyUsed, e.Err}
	case KindForeignKey:
		return []error{sentinel.ErrInvalidReference, e.Err}
	default:
		return []error{e.Err}
	}
}

// Classify converts integrity violations from lib/pq into *ConstraintError and
// returns every other error unchanged.
func Classify(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	var kind ConstraintKind
	switch string(pqErr.Code) {
	case codeUniqueViolation:
		kind = KindUnique
	case codeForeignKeyViolation:
		kind = KindForeignKey
	case codeCheckViolation:
		kind = KindCheck
	case codeNotNullViolation:
		kind = KindNotNull
	default:
		return err
	}
	detail := pqErr.Detail
	if detail == "" {
		detail = pqErr.Message
	}
	return &ConstraintError{Kind: kind, Constraint: pqErr.Constraint, Detail: detail, Err: err}
}

// AsConstraint returns the *ConstraintError in err's chain.
func AsConstraint(err error) (*ConstraintError, bool) {
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsConstraint reports whether err is a violation of the named constraint.
func IsConstraint(err error, name string) bool {
	ce, ok := AsConstraint(err)
	return ok && ce.Constraint == name
}

// IsUndefinedTable reports whether err is Postgres 42P01.
func IsUndefinedTable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == codeUndefinedTable
}
