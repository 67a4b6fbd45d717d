package nesting

import (
	"errors"
	"fmt"

	errs "github.com/nipafx/LibFX-sub001/internal/errors"
)

var (
	// ErrEmptyChain is returned when a deep nesting is built without steps.
	ErrEmptyChain = errors.New("nesting: step list is empty")

	// ErrMissingOuter is returned when the outer cell is nil.
	ErrMissingOuter = errors.New("nesting: outer cell is missing")

	// ErrMissingStep is returned when a step in the list is the zero Step.
	ErrMissingStep = errors.New("nesting: step is missing")

	// ErrChainTypes is returned when one level's value type cannot feed the
	// next step. It is also the panic value when a value of the wrong
	// dynamic type reaches a step at runtime.
	ErrChainTypes = errors.New("nesting: chain types do not line up")

	// ErrLeafType is returned or panicked when the inner cell is not of the
	// nesting's published type.
	ErrLeafType = errors.New("nesting: inner cell has the wrong type")

	// ErrStopped is returned when starting a detector or sync that was stopped.
	ErrStopped = errors.New("nesting: already stopped")

	// ErrMissingTarget is returned when a cell sync is built without a target
	// cell, or an edge detector without a nesting.
	ErrMissingTarget = errors.New("nesting: target is missing")
)

// ErrorCode returns the code of a usage error returned by this package,
// such as "N001" for an empty chain.
func ErrorCode(err error) (string, bool) {
	var e *errs.Error
	if !errs.As(err, &e) || e.Code == "" {
		return "", false
	}
	return e.Code, true
}

// codedError builds the structured error for a usage failure, wrapping the
// sentinel so callers can match it with errors.Is.
func codedError(code string, sentinel error, format string, args ...any) error {
	return errs.New(code).
		WithDetail(fmt.Sprintf(format, args...)).
		Wrap(sentinel)
}
