package repository

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// trimCurrency strips the padding a CHAR(3) column may carry.
func trimCurrency(currency string) string {
	return strings.TrimSpace(currency)
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505" && pqErr.Constraint == constraint
}
