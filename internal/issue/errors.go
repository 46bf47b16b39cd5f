// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. The string value doubles as the suffix of the rendered error name
// (e.g. "BlockBuildRuntimeError").
const (
	KindCLI      Kind = "CLIError"
	KindRuntime  Kind = "RuntimeError"
	KindInternal Kind = "InternalError"
	KindUncaught Kind = "UncaughtError"
	KindSchema   Kind = "SchemaError"
)

// Short codes for programmatic identification of build failures.
// CodeNone is only used when the error wraps another error that carries a code.
const (
	CodeNone Code = "NONE"

	CodeCLIParseEqualsAfterDash    Code = "CLI0"
	CodeCLIMissingRequiredArgument Code = "CLI1"
	CodeCLIArgumentUnexpectedType  Code = "CLI2"
	CodeCLIMissingRequiredFlag     Code = "CLI3"
	CodeCLIFlagUnexpectedType      Code = "CLI4"
	CodeCLICommandNotFound         Code = "CLI5"
	CodeCLIInitNoPacks             Code = "CLI6"

	CodeRuntimeArgumentsNoParse     Code = "RT0"
	CodeRuntimeDefinitionOptions    Code = "RT1"
	CodeRuntimeEvalFilter           Code = "RT2"
	CodeRuntimeArgumentsParseFailed Code = "RT3"
	CodeRuntimeMainFailed           Code = "RT4"
	CodeRuntimeExtensionLoad        Code = "RT5"

	CodeInternalFilterNotFound    Code = "I1"
	CodeInternalConfigRead        Code = "I2"
	CodeInternalConfigParse       Code = "I3"
	CodeInternalBPNotFound        Code = "I4"
	CodeInternalRPNotFound        Code = "I5"
	CodeInternalArchiverWarning   Code = "I6"
	CodeInternalArchiverError     Code = "I7"
	CodeInternalPackageTmpExists  Code = "I8"
	CodeInternalOutputPreparation Code = "I9"

	CodeUncaughtCLI Code = "U0"

	CodeSchemaConfig Code = "Z1"
)

// errorPrefix is prepended to every kind when rendering.
const errorPrefix = "BlockBuild"

type (
	// Kind classifies an error by where it originated.
	Kind string

	// Code is the short, stable identifier of a failure.
	Code string

	// Error is a classified build failure. Runtime errors always carry the id
	// of the filter (or namespace) they originate from.
	Error struct {
		Kind     Kind
		Code     Code
		FilterID string
		Message  string
		Cause    error
	}
)

// NewCLIError creates an error caused by bad command-line input.
func NewCLIError(code Code, message string) *Error {
	return &Error{Kind: KindCLI, Code: code, Message: message}
}

// NewRuntimeError creates an error attributed to a filter or extension namespace.
func NewRuntimeError(code Code, filterID, message string, cause error) *Error {
	return &Error{Kind: KindRuntime, Code: code, FilterID: filterID, Message: message, Cause: cause}
}

// NewInternalError creates an error for precondition and I/O failures of the build itself.
func NewInternalError(code Code, message string, cause error) *Error {
	return &Error{Kind: KindInternal, Code: code, Message: message, Cause: cause}
}

// NewSchemaError creates an error for data that failed schema validation.
func NewSchemaError(code Code, message string, cause error) *Error {
	return &Error{Kind: KindSchema, Code: code, Message: message, Cause: cause}
}

// Uncaught wraps an unclassified error. Errors that already are (or wrap) an
// *Error are returned unchanged.
func Uncaught(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindUncaught, Code: CodeUncaughtCLI, Message: err.Error(), Cause: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var msg strings.Builder
	fmt.Fprintf(&msg, "%s%s (%s): ", errorPrefix, e.Kind, e.Code)

	if e.FilterID != "" {
		fmt.Fprintf(&msg, "In `%s`\n\t", e.FilterID)
	}
	msg.WriteString(e.Message)

	if e.Cause != nil && e.Kind != KindUncaught {
		msg.WriteString("\n\t")
		msg.WriteString(e.Cause.Error())
	}

	return msg.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error by kind and code so callers can use errors.Is with
// a template such as &issue.Error{Kind: issue.KindInternal, Code: issue.CodeInternalFilterNotFound}.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return (t.Kind == "" || t.Kind == e.Kind) && (t.Code == "" || t.Code == e.Code)
}

// CodeOf returns the code of the outermost *Error in err's chain that carries
// one, or CodeNone.
func CodeOf(err error) Code {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return CodeNone
		}
		if e.Code != CodeNone && e.Code != "" {
			return e.Code
		}
		err = e.Cause
	}
	return CodeNone
}

// FilterIDOf returns the filter id attached to the first runtime error in err's chain.
func FilterIDOf(err error) string {
	var e *Error
	for err != nil && errors.As(err, &e) {
		if e.FilterID != "" {
			return e.FilterID
		}
		err = e.Cause
	}
	return ""
}
