package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidPrintID signals a print identifier that is not a UUID.
	ErrInvalidPrintID = errors.New("invalid printid")
	// ErrPrintIDNotFound signals that no cached page exists for an identifier.
	ErrPrintIDNotFound = errors.New("print page not found")
	// ErrPrintFetchFailure signals a page-store read failure other than not-found.
	ErrPrintFetchFailure = errors.New("print page fetch failed")
	// ErrPrintSaveFailure signals that the page store rejected a write.
	ErrPrintSaveFailure = errors.New("print page save failed")

	// ErrInvalidRequestBody signals a generate request body that is not a JSON object.
	ErrInvalidRequestBody = errors.New("unable to parse request body")
	// ErrMissingField signals a required request field that is absent or empty.
	ErrMissingField = errors.New("field is empty or not found")
	// ErrInvalidField signals a request field with a disallowed value.
	ErrInvalidField = errors.New("field has an invalid value")

	// ErrConfiguration signals a required setting that has no value.
	ErrConfiguration = errors.New("configuration error")
	// ErrTrialsAPI signals a failed call to the clinical trials API.
	ErrTrialsAPI = errors.New("clinical trials api error")
)

// Reasons attached to invalid field errors.
const (
	ReasonMustBeAbsolutePath = "Must be an absolute path."
	ReasonInvalidCharacters  = "Field contains invalid characters"
	ReasonWrongType          = "Field has the wrong type"
)

// FieldError describes a generate request field that failed validation.
type FieldError struct {
	Field   string
	Missing bool
	Reason  string
}

// NewMissingField creates a FieldError for an absent field.
func NewMissingField(field string) error {
	return &FieldError{Field: field, Missing: true}
}

// NewInvalidField creates a FieldError for a field with a bad value.
func NewInvalidField(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

func (e *FieldError) Error() string {
	if e.Missing {
		return fmt.Sprintf("Field '%s' not found.", e.Field)
	}
	return fmt.Sprintf("Field '%s' has an invalid value.", e.Field)
}

func (e *FieldError) Unwrap() error {
	if e.Missing {
		return ErrMissingField
	}
	return ErrInvalidField
}

// PrintSaveFailureError reports a page-store write that came back with an error status.
type PrintSaveFailureError struct {
	Key        string
	StatusCode int
	Metadata   bool
	Err        error
}

func (e *PrintSaveFailureError) Error() string {
	target := "document '" + e.Key + "'"
	if e.Metadata {
		target += " metadata"
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("Error saving %s.", target)
	}
	return fmt.Sprintf("Error return code '%d' (%s) saving %s.",
		e.StatusCode, statusName(e.StatusCode), target)
}

// Is matches ErrPrintSaveFailure; Unwrap still exposes the store error.
func (e *PrintSaveFailureError) Is(target error) bool { return target == ErrPrintSaveFailure }

func (e *PrintSaveFailureError) Unwrap() error { return e.Err }

// PrintFetchFailureError reports a page-store read failure other than not-found.
type PrintFetchFailureError struct {
	Key        string
	StatusCode int
	Err        error
}

func (e *PrintFetchFailureError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("Error retrieving page '%s'.", e.Key)
	}
	return fmt.Sprintf("Status %d retrieving page '%s'.", e.StatusCode, e.Key)
}

// Is matches ErrPrintFetchFailure; Unwrap still exposes the store error.
func (e *PrintFetchFailureError) Is(target error) bool { return target == ErrPrintFetchFailure }

func (e *PrintFetchFailureError) Unwrap() error { return e.Err }

// TrialsAPIError reports a non-success response from the clinical trials API.
type TrialsAPIError struct {
	StatusCode int
	Body       string
}

func (e *TrialsAPIError) Error() string {
	return fmt.Sprintf("%s: status %d", ErrTrialsAPI.Error(), e.StatusCode)
}

func (e *TrialsAPIError) Unwrap() error { return ErrTrialsAPI }

// statusName returns the constant-style name for a status, e.g. "NotFound".
func statusName(code int) string {
	text := http.StatusText(code)
	if text == "" {
		return "Unknown"
	}
	out := make([]byte, 0, len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == ' ' || c == '-' || c == '\'' {
			continue
		}
		out = append(out, c)
	}
	return string(out)
}
