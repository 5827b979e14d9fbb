package apperror

import (
	"errors"
	"fmt"
)

// Kind partitions failures the way callers need to react to them:
// parse failures fall back, upstream failures retry, not-found maps to
// 404, validation maps to 400. Nothing here is fatal to the process.
type Kind string

const (
	KindParse      Kind = "parse_error"
	KindUpstream   Kind = "upstream_error"
	KindNotFound   Kind = "not_found"
	KindValidation Kind = "validation_error"
)

type Error struct {
	Kind  Kind
	Stage string // pipeline stage tag, empty outside the pipeline
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	switch {
	case e.Stage != "" && e.Err != nil:
		return fmt.Sprintf("%s [%s]: %s: %v", e.Kind, e.Stage, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Stage != "":
		return fmt.Sprintf("%s [%s]: %s", e.Kind, e.Stage, e.Msg)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func Parse(msg string, err error) *Error {
	return &Error{Kind: KindParse, Msg: msg, Err: err}
}

func Upstream(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Msg: msg, Err: err}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Msg: msg}
}

// WithStage tags an error with the pipeline stage it failed in,
// preserving the kind when err already is an *Error.
func WithStage(stage string, err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return &Error{Kind: ae.Kind, Stage: stage, Msg: ae.Msg, Err: ae.Err}
	}
	return &Error{Kind: KindUpstream, Stage: stage, Msg: "stage failed", Err: err}
}

func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

func IsNotFound(err error) bool   { return IsKind(err, KindNotFound) }
func IsParse(err error) bool      { return IsKind(err, KindParse) }
func IsUpstream(err error) bool   { return IsKind(err, KindUpstream) }
func IsValidation(err error) bool { return IsKind(err, KindValidation) }
