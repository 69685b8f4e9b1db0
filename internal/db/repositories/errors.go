// errors.go holds the row-absence check shared by all repositories.
package repositories

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// isNotFound reports whether a lookup error should be treated as row absence.
// Every primary key in the schema is a UUID column, so an id that fails
// Postgres's uuid parse (invalid_text_representation, 22P02) can never match
// a row; surfacing it as absence keeps malformed ids indistinguishable from
// unknown ones at the API.
func isNotFound(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "22P02"
}
