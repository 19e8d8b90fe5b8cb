// internal/services/errors.go
package services

import (
	"errors"
	"fmt"

	"github.com/ledrent/ledrent-backend/internal/repository"
)

// NotFoundError reports a missing rental, variant, unit or other resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// InvalidStatusError reports a status outside the closed set, or a move the active policy forbids.
type InvalidStatusError struct {
	Status string
	From   string
}

func (e *InvalidStatusError) Error() string {
	if e.From != "" {
		return fmt.Sprintf("transition from %q to %q is not allowed", e.From, e.Status)
	}
	return fmt.Sprintf("invalid status %q", e.Status)
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// CapacityError reports that a variant cannot cover the requested quantity for a date window.
type CapacityError struct {
	VariantID string
	Requested int64
	Available int64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("variant %s: requested %d, available %d", e.VariantID, e.Requested, e.Available)
}

// ConflictError reports a uniqueness violation or a state that blocks the operation.
type ConflictError struct {
	Resource string
	Field    string
	Reason   string
}

func (e *ConflictError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Reason)
	}
	return fmt.Sprintf("%s with this %s already exists", e.Resource, e.Field)
}

// ForbiddenError reports an authenticated caller acting on a resource they do not own.
type ForbiddenError struct {
	Resource string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("access to %s denied", e.Resource)
}

// translate maps repository sentinels onto the typed errors handlers understand.
func translate(err error, resource, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return &NotFoundError{Resource: resource, ID: id}
	case errors.Is(err, repository.ErrDuplicate):
		return &ConflictError{Resource: resource, Field: duplicateField(err)}
	default:
		return err
	}
}

func duplicateField(err error) string {
	var dup *repository.DuplicateError
	if errors.As(err, &dup) && dup.Field != "" {
		return dup.Field
	}
	return "key"
}
