// internal/repository/errors.go
package repository

import "errors"

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

// DuplicateError names the unique column that rejected a write.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return "duplicate key: " + e.Field
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}
