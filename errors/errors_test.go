package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("load root: %w", New(AnchorNotFound, "http://x/a#foo", "no anchor %q", "foo"))

	if !errors.Is(err, ErrAnchorNotFound) {
		t.Fatalf("expected errors.Is to match AnchorNotFound, got %v", err)
	}
	if errors.Is(err, ErrReferenceNotFound) {
		t.Errorf("did not expect ReferenceNotFound to match %v", err)
	}
	if !IsKind(err, AnchorNotFound) {
		t.Errorf("IsKind(AnchorNotFound) = false")
	}
	kind, ok := KindOf(err)
	if !ok || kind != AnchorNotFound {
		t.Errorf("KindOf = %q, %v", kind, ok)
	}
}

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(FetchFailed, "http://x/a", cause)

	want := "fetch-failed at http://x/a: connection refused"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected Unwrap to expose the cause")
	}
}

func TestListUnwrap(t *testing.T) {
	var l List
	if l.ErrOrNil() != nil {
		t.Fatalf("empty list should be nil")
	}
	l = append(l, New(ParseFailed, "a.json", "bad"), New(InvalidDocument, "b.json", "bad"))

	err := l.ErrOrNil()
	if !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("expected list to contain InvalidDocument")
	}
	if got := err.Error(); got != "parse-failed at a.json: bad (and 1 more)" {
		t.Errorf("Error() = %q", got)
	}
}
