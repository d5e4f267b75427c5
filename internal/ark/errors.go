package ark

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedRecordStart is returned when a record header appears while
	// another record is still open.
	ErrMalformedRecordStart = errors.New("ark: record started before previous record was closed")

	// ErrUnterminatedRecord is returned when input ends inside a record.
	ErrUnterminatedRecord = errors.New("ark: unterminated record")

	// ErrInconsistentRowWidth is returned when the rows of one matrix differ
	// in column count.
	ErrInconsistentRowWidth = errors.New("ark: inconsistent row width")

	// ErrInvalidNumericToken is returned when a value token is not a float.
	ErrInvalidNumericToken = errors.New("ark: invalid numeric token")

	// ErrDuplicateIdentifier is returned when two records share a header.
	ErrDuplicateIdentifier = errors.New("ark: duplicate identifier")

	// ErrEmptyIdentifier is returned for a header with no token before '['.
	ErrEmptyIdentifier = errors.New("ark: empty identifier")

	// ErrUnexpectedData is returned for data rows or a closing bracket seen
	// outside of any record.
	ErrUnexpectedData = errors.New("ark: data outside of record")

	// ErrInvalidIdentifier is returned when an identifier is empty or
	// contains whitespace.
	ErrInvalidIdentifier = errors.New("ark: invalid identifier")

	// ErrEmptyRow is returned when a matrix is built from a zero-width row.
	ErrEmptyRow = errors.New("ark: empty row")
)

// ParseError locates a parse failure in the input. Kind is one of the
// package sentinels and is what errors.Is matches against.
type ParseError struct {
	Kind   error
	Line   int
	ID     string
	Token  string
	Detail string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	if e.ID != "" {
		fmt.Fprintf(&b, " (record %q)", e.ID)
	}
	if e.Token != "" {
		fmt.Fprintf(&b, ": %q", e.Token)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Kind }
