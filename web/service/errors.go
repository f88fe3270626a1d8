package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("conflict")
)

// ConflictError reports a write rejected by a unique constraint.
type ConflictError struct {
	Field string
	Value any
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %v already exists", e.Field, e.Value)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
