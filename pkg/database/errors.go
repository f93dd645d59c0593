package database

import (
	"errors"

	"github.com/lib/pq"
)

// SQLSTATE codes this service reacts to.
const (
	codeUniqueViolation     pq.ErrorCode = "23505"
	codeForeignKeyViolation pq.ErrorCode = "23503"
)

// IsUniqueViolation reports whether err (or anything it wraps) is a
// duplicate-key error from Postgres.
func IsUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	return hasCode(err, codeForeignKeyViolation)
}

// Constraint returns the name of the violated constraint, or "" when err is
// not a Postgres error.
func Constraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}

func hasCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == code
	}
	return false
}
