/*
Package orcerr collects the error taxonomy shared by every pipeline stage
(lexer, parser, project tree builder, glob resolver, alias resolver, rule
construction, rewrite driver). Every Error carries the one-or-more source
positions responsible, following orchid-base's own mk_errv(name, message,
positions) shape.

Errors wrap github.com/go-errors/errors so a stack trace is captured at the
point of construction, the same facility the gruntwork-io-terragrunt
example repo uses its internal/errors package for.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package orcerr

import (
	"fmt"
	"strings"

	goerrors "github.com/go-errors/errors"
	"github.com/orchid-lang/orchid/pos"
)

// Kind names one of the error families. Kept as a plain string (rather than
// an enum) so each stage can mint kinds without a central registry, mirroring
// how mk_errv in the original takes an arbitrary interned name.
type Kind string

const (
	// Lexer
	KindUnterminatedBlockComment Kind = "unterminated block comment"
	KindUnclosedLambda           Kind = "unclosed lambda"
	KindUnclosedParen            Kind = "unclosed paren"
	KindUnrecognizedCharacter    Kind = "unrecognized character"

	// Parser
	KindParseError Kind = "parse error"

	// Project tree builder
	KindMultipleDefinitions Kind = "multiple definitions"
	KindMultipleExports     Kind = "multiple exports"

	// Glob resolver
	KindGlobConflict Kind = "glob conflict"

	// Alias/name resolver
	KindNameResolveCycle         Kind = "name resolution cycle"
	KindNameResolveMissingTarget Kind = "missing name resolution target"
	KindTooManySupers            Kind = "too many super steps"
	KindNotAModule               Kind = "not a module"

	// Macro repository / rule construction
	KindRuleConstruction    Kind = "rule construction error"
	KindMultiplePlaceholder Kind = "placeholder used more than once in pattern"
	KindMissingPlaceholder  Kind = "template references an unbound placeholder"
	KindVecNeighbors        Kind = "two vector placeholders with no separator between them"
	KindTypeMismatch        Kind = "placeholder bound to incompatible shapes"

	// Rewrite driver
	KindConflictingMatches Kind = "conflicting matches"
	KindStepLimitExceeded  Kind = "rewrite step limit exceeded"
)

// Error is the concrete error value produced by every pipeline stage.
type Error struct {
	Kind      Kind
	Msg       string
	Positions []pos.Pos

	cause *goerrors.Error
}

// New constructs an Error, capturing a stack trace at the call site.
func New(kind Kind, msg string, positions ...pos.Pos) *Error {
	return &Error{
		Kind:      kind,
		Msg:       msg,
		Positions: positions,
		cause:     goerrors.Errorf("%s: %s", kind, msg),
	}
}

// Errorf is New with a formatted message.
func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// At attaches positions to an existing Error, returning a new value (the
// receiver is not mutated).
func (e *Error) At(positions ...pos.Pos) *Error {
	cp := *e
	cp.Positions = append(append([]pos.Pos{}, e.Positions...), positions...)
	return &cp
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	for _, p := range e.Positions {
		b.WriteString(" (")
		b.WriteString(p.String())
		b.WriteString(")")
	}
	return b.String()
}

// StackTrace returns the formatted Go stack trace captured at construction,
// for diagnostic logging only (not part of error identity).
func (e *Error) StackTrace() string {
	if e.cause == nil {
		return ""
	}
	return string(e.cause.Stack())
}

// Unwrap exposes the go-errors cause so errors.Is/As keep working across the
// wrap.
func (e *Error) Unwrap() error {
	if e.cause == nil {
		return nil
	}
	return e.cause
}

// List is a non-empty collection of Errors accumulated from a stage that can
// report more than one fault per run (e.g. the glob resolver collecting every
// contended name before giving up). It itself implements error.
type List []*Error

func (l List) Error() string {
	parts := make([]string, len(l))
	for i, e := range l {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// Append adds err to the list; a nil err is a no-op, matching the
// convention of errors.Join in spirit without discarding the Kind/Positions
// structure.
func (l List) Append(err *Error) List {
	if err == nil {
		return l
	}
	return append(l, err)
}
