package dto

import (
	"fmt"
	"net/url"
	"strings"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func ToMap(errs []ValidationError) map[string]string {
	result := make(map[string]string)
	for _, e := range errs {
		result[e.Field] = e.Message
	}
	return result
}

func ToResponse(errs []ValidationError) string {
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func validateRequired(field, value string) []ValidationError {
	if strings.TrimSpace(value) == "" {
		return []ValidationError{{Field: field, Message: "cannot be empty"}}
	}
	return nil
}

func validateURL(field, value string) []ValidationError {
	var errs []ValidationError
	if value != "" {
		if _, err := url.ParseRequestURI(value); err != nil {
			errs = append(errs, ValidationError{Field: field, Message: "invalid URL format"})
		}
	}
	return errs
}

func validateNonNegative(field string, value int) []ValidationError {
	var errs []ValidationError
	if value < 0 {
		errs = append(errs, ValidationError{Field: field, Message: "must not be negative"})
	}
	return errs
}
