package services

import (
	"errors"
	"strings"
	"time"

	"jobtracker/internal/apperrors"

	"gorm.io/gorm"
)

// wrapDBError passes typed application errors through and turns anything
// else coming out of gorm into a persistence error.
func wrapDBError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Persistence(err)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key")
}

func stampNow(now func() time.Time) time.Time {
	return now().UTC().Truncate(time.Microsecond)
}
