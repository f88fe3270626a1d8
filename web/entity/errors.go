package entity

import (
	"errors"
	"strings"
)

// Kind classifies a validation failure.
type Kind string

const (
	KindShape       Kind = "shape"        // missing field, wrong type, bad enum value, too long
	KindFormat      Kind = "format"       // phone does not match the recognized pattern
	KindEmptyUpdate Kind = "empty_update" // update carries no effective field
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrShape       = errors.New("shape error")
	ErrFormat      = errors.New("format error")
	ErrEmptyUpdate = errors.New("at least one field must be specified for update")
)

// Message ids resolved by the locale package.
const (
	MsgRequired    = "validation.required"
	MsgType        = "validation.type"
	MsgMalformed   = "validation.malformed"
	MsgMaxLength   = "validation.max"
	MsgRole        = "validation.role"
	MsgPhone       = "validation.phone"
	MsgEmptyUpdate = "validation.emptyUpdate"
)

// FieldError is one offending field. Field is empty for errors that concern
// the whole payload.
type FieldError struct {
	Field     string `json:"field"`
	Kind      Kind   `json:"kind"`
	Message   string `json:"message"`
	MessageID string `json:"-"`
	Param     string `json:"-"`
}

// ValidationError lists every field that failed. errors.Is matches
// ErrValidation and the sentinel of each Kind present.
type ValidationError struct {
	Fields []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Field == "" {
			parts = append(parts, f.Message)
			continue
		}
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrValidation:
		return true
	case ErrShape:
		return e.Has(KindShape)
	case ErrFormat:
		return e.Has(KindFormat)
	case ErrEmptyUpdate:
		return e.Has(KindEmptyUpdate)
	}
	return false
}

// Has reports whether any field failed with kind.
func (e *ValidationError) Has(kind Kind) bool {
	for _, f := range e.Fields {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

// Field returns the first error recorded for the named field.
func (e *ValidationError) Field(name string) (FieldError, bool) {
	for _, f := range e.Fields {
		if f.Field == name {
			return f, true
		}
	}
	return FieldError{}, false
}

func emptyUpdateError() *ValidationError {
	return &ValidationError{Fields: []FieldError{{
		Kind:      KindEmptyUpdate,
		Message:   ErrEmptyUpdate.Error(),
		MessageID: MsgEmptyUpdate,
	}}}
}
