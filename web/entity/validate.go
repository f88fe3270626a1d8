package entity

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/dispatchhub/dispatch/database/model"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// phonePattern is the stored phone format: +7 and ten digits.
var phonePattern = regexp.MustCompile(`^\+7\d{10}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation("ruphone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return model.Role(fl.Field().String()).Valid()
	})
	return v
}

// NormalizePhone strips the separators people type between digits.
func NormalizePhone(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
}

// ValidPhone reports whether phone, after normalization, is a stored-format number.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(NormalizePhone(phone))
}

// check runs struct validation and converts failures into a *ValidationError.
func check(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, toFieldError(fe))
	}
	return out
}

func toFieldError(fe validator.FieldError) FieldError {
	f := FieldError{Field: fe.Field(), Kind: KindShape, Param: fe.Param()}
	switch fe.Tag() {
	case "required":
		f.MessageID = MsgRequired
		f.Message = "field required"
	case "max":
		f.MessageID = MsgMaxLength
		f.Message = fmt.Sprintf("must be at most %s characters", fe.Param())
	case "role":
		f.MessageID = MsgRole
		f.Message = "must be one of manager, dispatcher, viewer"
	case "ruphone":
		f.Kind = KindFormat
		f.MessageID = MsgPhone
		f.Message = "must be +7 followed by 10 digits"
	default:
		f.MessageID = MsgMalformed
		f.Message = fmt.Sprintf("failed %q check", fe.Tag())
	}
	return f
}

// Decode unmarshals a JSON object into dst, a pointer to a struct. Malformed
// bodies and values of the wrong primitive type come back as shape errors
// keyed by the JSON field name.
func Decode(data []byte, dst any) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &ValidationError{Fields: []FieldError{wrongType("body", "object")}}
		}
		return malformed(err)
	}

	t := reflect.TypeOf(dst).Elem()
	var fields []FieldError
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := jsonName(f)
		value, ok := raw[name]
		if name == "" || !ok {
			continue
		}
		if err := json.Unmarshal(value, reflect.New(f.Type).Interface()); err != nil {
			fields = append(fields, wrongType(name, typeName(f.Type)))
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	err := json.Unmarshal(data, dst)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := "body"
		if sf, ok := t.FieldByName(typeErr.Field); ok && jsonName(sf) != "" {
			field = jsonName(sf)
		}
		return &ValidationError{Fields: []FieldError{wrongType(field, typeName(typeErr.Type))}}
	}
	return malformed(err)
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func typeName(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "value"
	}
	return t.String()
}

func wrongType(field, expected string) FieldError {
	return FieldError{
		Field:     field,
		Kind:      KindShape,
		Message:   "wrong type, expected " + expected,
		MessageID: MsgType,
		Param:     expected,
	}
}

func malformed(err error) error {
	return &ValidationError{Fields: []FieldError{{
		Field:     "body",
		Kind:      KindShape,
		Message:   "malformed JSON: " + err.Error(),
		MessageID: MsgMalformed,
	}}}
}
