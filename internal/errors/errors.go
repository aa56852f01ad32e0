package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind identifies the category of a rootcred error.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindEnvironment   Kind = "environment"
	KindValidation    Kind = "validation"
	KindChain         Kind = "chain"
)

// Sentinels for errors.Is checks against a Kind.
var (
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrEnvironment   = &Error{Kind: KindEnvironment}
	ErrValidation    = &Error{Kind: KindValidation}
	ErrChain         = &Error{Kind: KindChain}
)

// Error carries a Kind and a user-facing message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind) + " error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// MissingConfig reports a required configuration value that is not set.
func MissingConfig(name string) error {
	return &Error{
		Kind: KindConfiguration,
		Msg:  fmt.Sprintf("Missing environment variable or configuration value: %s", name),
	}
}

// Configuration wraps err as a configuration failure.
func Configuration(msg string, err error) error {
	return &Error{Kind: KindConfiguration, Msg: msg, Err: err}
}

// Environment reports a runtime environment that cannot sign or reach the chain.
func Environment(msg string) error {
	return &Error{Kind: KindEnvironment, Msg: msg}
}

// Validation reports rejected user input.
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Msg: msg}
}

// Chain wraps an RPC, wallet or contract failure.
func Chain(err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if stderrors.As(err, &existing) {
		return err
	}
	return &Error{Kind: KindChain, Err: err}
}

// KindOf returns the Kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Message returns the text to show for err, falling back when err has none.
func Message(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return fallback
	}
	return msg
}
