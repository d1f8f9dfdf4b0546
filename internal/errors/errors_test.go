package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestDomainError_ErrorAndUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Unavailable("cannot reach the job aggregator", cause)

	if err.Error() != "UNAVAILABLE: cannot reach the job aggregator: connection refused" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}
	if !stderrors.Is(err, cause) {
		t.Fatalf("expected Is to find the wrapped cause")
	}
	if len(err.StackTrace()) == 0 {
		t.Fatalf("expected a captured stack")
	}
}

func TestDomainError_NoCause(t *testing.T) {
	err := NotFound("Job not found", nil)
	if err.Error() != "NOT_FOUND: Job not found" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}
	if len(err.StackTrace()) == 0 {
		t.Fatalf("expected a captured stack")
	}
}

func TestTypeOf(t *testing.T) {
	if got := TypeOf(InvalidInput("bad page", nil)); got != ErrTypeInvalidInput {
		t.Fatalf("TypeOf = %s", got)
	}
	wrapped := fmt.Errorf("search: %w", NotFound("Job not found", nil))
	if got := TypeOf(wrapped); got != ErrTypeNotFound {
		t.Fatalf("TypeOf through wrap = %s", got)
	}
	if got := TypeOf(stderrors.New("plain")); got != ErrTypeInternal {
		t.Fatalf("plain errors must classify internal, got %s", got)
	}
	if !IsNotFound(wrapped) {
		t.Fatalf("IsNotFound should see through wrapping")
	}
	if IsUnavailable(wrapped) {
		t.Fatalf("IsUnavailable misclassified a not-found error")
	}
}

func TestDisplay(t *testing.T) {
	if got := Display(Internal("Application not found", nil)); got != "Application not found" {
		t.Fatalf("Display should prefer the domain message, got %q", got)
	}
	if got := Display(stderrors.New("dial tcp: refused")); got != "something went wrong" {
		t.Fatalf("Display fallback, got %q", got)
	}
	if got := Display(&DomainError{Type: ErrTypeInternal}); got != "something went wrong" {
		t.Fatalf("Display with empty message should fall back, got %q", got)
	}
}
