package derrors

import (
	"errors"
	"testing"
)

func TestWrap(t *testing.T) {
	t.Parallel()

	var err error = NotFound
	Wrap(&err, "load(%q)", "pkg")
	if !errors.Is(err, NotFound) {
		t.Errorf("errors.Is(%v, NotFound) = false", err)
	}
	if got, want := err.Error(), `load("pkg"): not found`; got != want {
		t.Errorf("err = %q, want %q", got, want)
	}

	var nilErr error
	Wrap(&nilErr, "ignored")
	if nilErr != nil {
		t.Errorf("Wrap of nil error = %v, want nil", nilErr)
	}
}

func TestInvariant(t *testing.T) {
	t.Parallel()

	if err := Invariant(true, "never"); err != nil {
		t.Errorf("Invariant(true) = %v", err)
	}
	err := Invariant(false, "parameter %d has no parent", 3)
	if !errors.Is(err, Internal) {
		t.Fatalf("Invariant(false) = %v, want Internal", err)
	}
	if got, want := err.Error(), "internal error: parameter 3 has no parent"; got != want {
		t.Errorf("err = %q, want %q", got, want)
	}
}
