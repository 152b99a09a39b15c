package parser

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a statement could not be turned into a record.
type FailureKind string

const (
	// AmbiguousInput means neither tier could classify kind and amount.
	AmbiguousInput FailureKind = "ambiguous_input"
	// InterpreterUnavailable means the text-generation call failed and no
	// deterministic partial was available to fall back to.
	InterpreterUnavailable FailureKind = "interpreter_unavailable"
	// MalformedModelOutput means the completion held no usable JSON object
	// or lacked a required field.
	MalformedModelOutput FailureKind = "malformed_model_output"
	// CoercionSkip marks a stored row skipped during aggregation. It is
	// logged by the stats engine and never returned from Parse.
	CoercionSkip FailureKind = "coercion_skip"
)

// Sentinels matched by Failure.Is.
var (
	ErrAmbiguousInput         = errors.New("could not recognize a transaction")
	ErrInterpreterUnavailable = errors.New("interpreter unavailable")
	ErrMalformedModelOutput   = errors.New("malformed model output")
)

// Failure is the failure branch of a parse.
type Failure struct {
	Kind  FailureKind
	Field string // set when a required field was missing or invalid
	Err   error
}

func (f *Failure) Error() string {
	msg := string(f.Kind)
	if f.Field != "" {
		msg += fmt.Sprintf(" (field %q)", f.Field)
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error { return f.Err }

// Is lets callers match a Failure with errors.Is against the sentinels.
func (f *Failure) Is(target error) bool {
	switch target {
	case ErrAmbiguousInput:
		return f.Kind == AmbiguousInput
	case ErrInterpreterUnavailable:
		return f.Kind == InterpreterUnavailable
	case ErrMalformedModelOutput:
		return f.Kind == MalformedModelOutput
	}
	return false
}

func malformed(field string, err error) *Failure {
	return &Failure{Kind: MalformedModelOutput, Field: field, Err: err}
}

func unavailable(err error) *Failure {
	return &Failure{Kind: InterpreterUnavailable, Err: err}
}

// KindOf returns the failure kind carried by err, or "" when err is not a Failure.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}
