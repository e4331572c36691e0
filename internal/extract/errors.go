package extract

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoCompanyName is returned when a company page has no heading
	// carrying the company name. This usually means the page is an
	// error page or its layout changed.
	ErrNoCompanyName = errors.New("company page has no name heading")

	// ErrNoIndexCells is returned when the category index has no cells
	// to read links from.
	ErrNoIndexCells = errors.New("index page has no category cells")
)

// FieldError is a field that was recognised on a page but whose value
// could not be read.
type FieldError struct {
	// Field is the JSON name of the field.
	Field string

	// Text is the captured text that failed to parse.
	Text string

	// Err is the parse failure.
	Err error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s (%q): %v", e.Field, e.Text, e.Err)
}

// Unwrap returns the parse failure.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// PageErrors collects the field errors of one page.
// It is returned together with a usable record.
type PageErrors struct {
	Fields []*FieldError
}

// Error implements the error interface.
func (e *PageErrors) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("%d field(s) could not be read: %s", len(e.Fields), strings.Join(msgs, "; "))
}

// Unwrap returns the field errors so errors.Is and errors.As can
// inspect them.
func (e *PageErrors) Unwrap() []error {
	errs := make([]error, len(e.Fields))
	for i, f := range e.Fields {
		errs[i] = f
	}
	return errs
}
