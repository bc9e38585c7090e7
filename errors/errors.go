// Package errors defines the error kinds produced while loading and resolving
// schema documents.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a loading or resolution failure.
type Kind string

const (
	// FetchFailed indicates the fetch collaborator could not return text for a location.
	FetchFailed Kind = "fetch-failed"
	// ParseFailed indicates fetched text was not a well-formed JSON or YAML document.
	ParseFailed Kind = "parse-failed"
	// DocumentNotFound indicates a location has no associated document.
	DocumentNotFound Kind = "document-not-found"
	// ReferenceNotFound indicates a reference could not be resolved to any node.
	ReferenceNotFound Kind = "reference-not-found"
	// AnchorNotFound indicates the target document does not register the anchor.
	AnchorNotFound Kind = "anchor-not-found"
	// DuplicateRoot indicates one retrieval location was loaded with conflicting content.
	DuplicateRoot Kind = "duplicate-root"
	// InvalidLocation indicates a malformed location string.
	InvalidLocation Kind = "invalid-location"
	// UnknownDialect indicates a $schema tag with no matching dialect and no default.
	UnknownDialect Kind = "unknown-dialect"
	// InvalidDocument indicates a root node of the wrong shape.
	InvalidDocument Kind = "invalid-document"
	// LintFailed indicates a document that loads but breaks its meta-schema
	// or API description rules.
	LintFailed Kind = "lint-failed"
)

// Sentinels for errors.Is comparisons by kind.
var (
	ErrFetchFailed       = &Error{Kind: FetchFailed}
	ErrParseFailed       = &Error{Kind: ParseFailed}
	ErrDocumentNotFound  = &Error{Kind: DocumentNotFound}
	ErrReferenceNotFound = &Error{Kind: ReferenceNotFound}
	ErrAnchorNotFound    = &Error{Kind: AnchorNotFound}
	ErrDuplicateRoot     = &Error{Kind: DuplicateRoot}
	ErrInvalidLocation   = &Error{Kind: InvalidLocation}
	ErrUnknownDialect    = &Error{Kind: UnknownDialect}
	ErrInvalidDocument   = &Error{Kind: InvalidDocument}
	ErrLintFailed        = &Error{Kind: LintFailed}
)

// Error is a loading or resolution failure tied to the location that caused it.
type Error struct {
	Kind     Kind
	Location string
	Message  string
	Err      error
}

// New creates an Error with a formatted message.
func New(kind Kind, location string, format string, args ...any) *Error {
	return &Error{Kind: kind, Location: location, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error that carries an underlying cause.
func Wrap(kind Kind, location string, err error) *Error {
	return &Error{Kind: kind, Location: location, Err: err}
}

// Error formats the error as "kind at location: message: cause".
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Location != "" {
		b.WriteString(" at ")
		b.WriteString(e.Location)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil || e == nil {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsKind reports whether err's chain contains an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}

// List aggregates several errors, typically from checking many documents.
type List []error

// Error returns a compact summary of the list.
func (l List) Error() string {
	if len(l) == 0 {
		return "no errors"
	}
	if len(l) == 1 {
		return l[0].Error()
	}
	return fmt.Sprintf("%s (and %d more)", l[0].Error(), len(l)-1)
}

// Unwrap exposes the aggregated errors to errors.Is and errors.As.
func (l List) Unwrap() []error {
	return l
}

// ErrOrNil returns nil for an empty list.
func (l List) ErrOrNil() error {
	if len(l) == 0 {
		return nil
	}
	return l
}
