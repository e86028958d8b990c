// Package derrors defines error values that categorize the failure modes of
// building a declaration collection.
package derrors

import (
	"errors"
	"fmt"
)

//lint:file-ignore ST1012 prefixing error values with Err would stutter

var (
	// NotFound indicates that a requested entity (a package, a manifest, an
	// entry point file) does not exist.
	NotFound = errors.New("not found")
	// InvalidArgument indicates that caller input is malformed, such as an
	// export pattern with more than one wildcard.
	InvalidArgument = errors.New("invalid argument")
	// Compile indicates that the parser rejected one or more source files.
	Compile = errors.New("compile error")
	// Internal indicates a violated invariant: the input contains a construct
	// the collection does not support.
	Internal = errors.New("internal error")
	// AlreadyInitialized is returned when a build-once handle is
	// initialized a second time.
	AlreadyInitialized = errors.New("already initialized")
	// NotInitialized is returned when a handle is used before Init.
	NotInitialized = errors.New("not initialized")
)

// Wrap adds context to the error and allows
// unwrapping the result to recover the original error.
//
// Example:
//
//	defer derrors.Wrap(&err, "manifest.Load(%q)", path)
func Wrap(errp *error, format string, args ...any) {
	if *errp != nil {
		*errp = fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), *errp)
	}
}

// Invariant returns an Internal error describing the violated assumption when
// cond is false, and nil otherwise.
func Invariant(cond bool, format string, args ...any) error {
	if cond {
		return nil
	}
	return fmt.Errorf("%w: %s", Internal, fmt.Sprintf(format, args...))
}
