package store

import (
	"errors"

	"gorm.io/gorm"

	"mt5panel/internal/apperr"
)

// translate maps driver-level errors to the API error taxonomy so that
// nothing above the store layer ever sees a gorm error. Requires the DB
// to be opened with gorm.Config{TranslateError: true}, which makes
// unique-constraint violations portable across postgres and sqlite.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.ErrDuplicate
	default:
		return err
	}
}
