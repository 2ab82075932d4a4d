package errx

import (
	"database/sql"
	"errors"
	"net/http"
)

// WrapDB maps database/sql errors to AppError. A missing row becomes 404,
// anything else is treated as an unavailable dependency.
func WrapDB(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return New(err, http.StatusNotFound, DatabaseNotFoundMessage)
	}

	return New(err, http.StatusBadGateway, DatabaseErrorMessage)
}
