package service

import (
	"errors"
	"strings"
	"unicode"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user does not exist")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError carries one message per offending field. Message is the
// first failure in field order.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

type validator struct {
	order  []string
	fields map[string]string
}

func (v *validator) fail(field, message string) {
	if v.fields == nil {
		v.fields = map[string]string{}
	}
	if _, seen := v.fields[field]; seen {
		return
	}
	v.order = append(v.order, field)
	v.fields[field] = message
}

func (v *validator) require(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		v.fail(field, "Please fill in the "+fieldWords(field)+" field.")
		return false
	}
	return true
}

func (v *validator) err() error {
	if len(v.order) == 0 {
		return nil
	}
	return &ValidationError{Message: v.fields[v.order[0]], Fields: v.fields}
}

// fieldWords turns zipPostal into "zip postal".
func fieldWords(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) && i > 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
