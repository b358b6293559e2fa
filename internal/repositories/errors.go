package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned by non-gorm backed repositories (the identity
// provider) when a record does not exist.
var ErrNotFound = errors.New("record not found")

// IsNotFoundError reports whether err means the record does not exist,
// regardless of which backend produced it.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrNotFound)
}
