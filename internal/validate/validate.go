// Package validate evaluates explicit per-entity rule lists and returns
// structured field-level errors instead of failing on the first violation.
package validate

import (
	"regexp"
	"strings"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// Rule is one declarative check: Ok is the already-evaluated predicate.
type Rule struct {
	Field   string
	Ok      bool
	Message string
}

// Apply collects every failed rule. A nil return means the entity is valid.
func Apply(rules ...Rule) Errors {
	var errs Errors
	for _, r := range rules {
		if !r.Ok {
			errs = append(errs, FieldError{Field: r.Field, Message: r.Message})
		}
	}
	return errs
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func NotBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}

func Email(s string) bool {
	return emailPattern.MatchString(s)
}

func LenBetween(s string, min, max int) bool {
	return len(s) >= min && len(s) <= max
}

func MinLen(s string, min int) bool {
	return len(s) >= min
}

func Between(v, min, max float64) bool {
	return v >= min && v <= max
}

func OneOf(s string, options ...string) bool {
	for _, opt := range options {
		if s == opt {
			return true
		}
	}
	return false
}
