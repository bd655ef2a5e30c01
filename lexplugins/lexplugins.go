/*
Package lexplugins provides reference lexer.Plugin implementations for the
two literal syntaxes the core lexer (package lexer) knows nothing about:
decimal numeric literals and double-quoted string literals. Both are
compiled once, process-wide, with github.com/timtadh/lexmachine — the same
library the teacher repo's terexlang package uses for its own NUM/STRING
rules (terexlang/scan.go), used here directly rather than through gorgo's
lr/scanner wrapper, since that wrapper is specific to gorgo's own
LR-parsing pipeline and has no role in this one.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package lexplugins

import (
	"strconv"
	"sync"

	"github.com/npillmayer/schuko/tracing"
	"github.com/orchid-lang/orchid/lexer"
	"github.com/orchid-lang/orchid/pos"
	"github.com/orchid-lang/orchid/toktree"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

// tracer traces with key 'orchid.lexplugins'.
func tracer() tracing.Trace {
	return tracing.Select("orchid.lexplugins")
}

// literalKind tags which literal a shared-lexer match belongs to: one
// lexmachine.Lexer recognizes both literal syntaxes at once, and each
// Plugin below filters the shared scan result down to its own kind.
type literalKind int

const (
	kindNumber literalKind = iota
	kindString
)

type literalMatch struct {
	kind  literalKind
	bytes []byte
}

var (
	compileOnce sync.Once
	compiled    *lexmachine.Lexer
	compileErr  error
)

func sharedLexer() (*lexmachine.Lexer, error) {
	compileOnce.Do(func() {
		lx := lexmachine.NewLexer()
		lx.Add([]byte(`[0-9]+(\.[0-9]+)?`), func(_ *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
			return literalMatch{kind: kindNumber, bytes: m.Bytes}, nil
		})
		lx.Add([]byte(`\"[^"]*\"`), func(_ *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
			return literalMatch{kind: kindString, bytes: m.Bytes}, nil
		})
		compileErr = lx.Compile()
		compiled = lx
	})
	return compiled, compileErr
}

// scanOne scans a single literal token starting exactly at byte offset at
// in source. ok is false whenever nothing in the shared grammar matches at
// that position (not an error: it just means neither plugin owns this
// text).
func scanOne(source string, at int) (literalMatch, bool, error) {
	lx, err := sharedLexer()
	if err != nil {
		return literalMatch{}, false, err
	}
	scanner, err := lx.Scanner([]byte(source[at:]))
	if err != nil {
		return literalMatch{}, false, err
	}
	tok, err, eof := scanner.Next()
	if eof || err != nil {
		return literalMatch{}, false, nil
	}
	m, ok := tok.(literalMatch)
	if !ok {
		return literalMatch{}, false, nil
	}
	return m, true, nil
}

// NumberAtom is a decimal numeric literal. It doubles as a rule priority
// (parser.PriorityAtom) so "rule PATTERN =N=> TEMPLATE" can use a plain
// number for N without the parser package depending on this one.
type NumberAtom float64

// Equal implements toktree.AtomValue.
func (n NumberAtom) Equal(other toktree.AtomValue) bool {
	o, ok := other.(NumberAtom)
	return ok && o == n
}

// Priority implements parser.PriorityAtom.
func (n NumberAtom) Priority() float64 { return float64(n) }

// Number is a lexer.Plugin recognizing "[0-9]+(\.[0-9]+)?".
type Number struct{}

// CanLex implements lexer.Plugin.
func (Number) CanLex(c rune) bool { return c >= '0' && c <= '9' }

// Lex implements lexer.Plugin.
func (Number) Lex(source string, at int, _ lexer.Recurse) (toktree.Tree, int, bool, error) {
	m, ok, err := scanOne(source, at)
	if err != nil {
		return toktree.Tree{}, at, false, err
	}
	if !ok || m.kind != kindNumber {
		return toktree.Tree{}, at, false, nil
	}
	v, err := strconv.ParseFloat(string(m.bytes), 64)
	if err != nil {
		return toktree.Tree{}, at, false, nil
	}
	end := at + len(m.bytes)
	tracer().Debugf("lexed number literal %v at %d..%d", v, at, end)
	return toktree.Atom(NumberAtom(v), pos.Range("", at, end)), end, true, nil
}

// StringAtom is a double-quoted string literal's content, with no escape
// processing (the teacher's own STRING rule in terexlang/scan.go is
// equally bare: `"[^"]*"`).
type StringAtom string

// Equal implements toktree.AtomValue.
func (s StringAtom) Equal(other toktree.AtomValue) bool {
	o, ok := other.(StringAtom)
	return ok && o == s
}

// String is a lexer.Plugin recognizing `"..."`.
type String struct{}

// CanLex implements lexer.Plugin.
func (String) CanLex(c rune) bool { return c == '"' }

// Lex implements lexer.Plugin.
func (String) Lex(source string, at int, _ lexer.Recurse) (toktree.Tree, int, bool, error) {
	m, ok, err := scanOne(source, at)
	if err != nil {
		return toktree.Tree{}, at, false, err
	}
	if !ok || m.kind != kindString {
		return toktree.Tree{}, at, false, nil
	}
	end := at + len(m.bytes)
	content := string(m.bytes)
	if len(content) >= 2 {
		content = content[1 : len(content)-1]
	}
	tracer().Debugf("lexed string literal %q at %d..%d", content, at, end)
	return toktree.Atom(StringAtom(content), pos.Range("", at, end)), end, true, nil
}

// Default is the reference plugin set: Number before String, matching the
// core lexer's own dispatch order of trying the cheaper/narrower rule
// first.
func Default() []lexer.Plugin {
	return []lexer.Plugin{Number{}, String{}}
}
