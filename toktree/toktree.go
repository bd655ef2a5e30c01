/*
Package toktree implements the parse-level token tree: the recursively
nested sequence of tokens the lexer produces and the parser consumes.

Every leaf carries a source position (pos.Pos). The tree is a tagged-variant
sum type (Kind selects which fields are meaningful) rather than an interface
hierarchy, per the project's convention of avoiding virtual dispatch for
small, closed variant sets (see terex.Atom in the teacher repo for the same
idea applied to a Lisp cons cell).

This is the "ParsTok" layer: names are still raw, possibly-multi-segment
identifiers joined by NS markers. Once the alias/name resolver has run, the
macro package lowers these into its own tree whose Name leaves carry
resolved name.Sym values (see macro.Lower) — the same two-layer split the
original Orchid implementation draws between ParsTok and MacTok.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package toktree

import (
	"fmt"

	"github.com/orchid-lang/orchid/interner"
	"github.com/orchid-lang/orchid/pos"
)

//go:generate stringer -type Kind

// Kind selects which of Tree's fields are meaningful.
type Kind uint8

const (
	KindName Kind = iota
	KindComment
	KindBR
	KindBracket
	KindLambdaHead
	KindNS
	KindAtom
	KindPlaceholder
	KindExt
)

//go:generate stringer -type Paren

// Paren is the bracket kind of a KindBracket node.
type Paren uint8

const (
	Round Paren = iota
	Square
	Curly
)

func (p Paren) Open() byte {
	switch p {
	case Round:
		return '('
	case Square:
		return '['
	default:
		return '{'
	}
}

func (p Paren) Close() byte {
	switch p {
	case Round:
		return ')'
	case Square:
		return ']'
	default:
		return '}'
	}
}

//go:generate stringer -type PlaceholderKind

// PlaceholderKind distinguishes the three placeholder shapes of §3.
type PlaceholderKind uint8

const (
	// PhName matches exactly one name token.
	PhName PlaceholderKind = iota
	// PhScalar matches exactly one token tree.
	PhScalar
	// PhVector matches a contiguous, possibly-empty subsequence.
	PhVector
)

// Placeholder is a macro metavariable: a named hole in a pattern/template.
type Placeholder struct {
	Name     interner.Token
	Kind     PlaceholderKind
	Priority uint // only meaningful for PhVector; breaks ties among siblings
	NonZero  bool // only meaningful for PhVector; forbids the empty match
}

func (p Placeholder) String() string {
	switch p.Kind {
	case PhName:
		return fmt.Sprintf("$_%v", p.Name)
	case PhScalar:
		return fmt.Sprintf("$%v", p.Name)
	default:
		dots := ".."
		if p.NonZero {
			dots = "..."
		}
		if p.Priority == 0 {
			return fmt.Sprintf("%s$%v", dots, p.Name)
		}
		return fmt.Sprintf("%s$%v:%d", dots, p.Name, p.Priority)
	}
}

// AtomValue is a host-opaque literal value produced by a lex plugin (e.g. a
// parsed number or string). Equal implements the matcher's "host's
// parser-equality hook" (§4.9).
type AtomValue interface {
	Equal(other AtomValue) bool
}

// Tree is one node of a token tree. Kind determines which fields apply:
//
//	KindName       Name
//	KindComment    Comment
//	KindBR         (none)
//	KindBracket    Paren, Body
//	KindLambdaHead Body (the argument trees; the lambda's body follows as
//	               later siblings in the enclosing sequence, not nested here)
//	KindNS         Name (the segment before "::"), NSNext (what follows)
//	KindAtom       Atom
//	KindPlaceholder Ph
//	KindExt        Ext (plugin-specific payload, possibly containing nested
//	               Tree values the plugin itself produced)
type Tree struct {
	Kind Kind
	Pos  pos.Pos

	Name    interner.Token
	Comment string
	Paren   Paren
	Body    []Tree
	NSNext  *Tree
	Atom    AtomValue
	Ph      Placeholder
	Ext     interface{}

	// Done marks material that a rewrite has just spliced in, so that the
	// very next scan over the surrounding sequence does not immediately try
	// to match a rule against it again. The rewrite driver works on
	// macro.Tree and sets that type's field of the same name on every
	// top-level node of an injected template (see macro.Driver.Run).
	Done bool
}

func Name(name interner.Token, p pos.Pos) Tree {
	return Tree{Kind: KindName, Name: name, Pos: p}
}

func Comment(text string, p pos.Pos) Tree {
	return Tree{Kind: KindComment, Comment: text, Pos: p}
}

func BR(p pos.Pos) Tree {
	return Tree{Kind: KindBR, Pos: p}
}

func Bracket(paren Paren, body []Tree, p pos.Pos) Tree {
	return Tree{Kind: KindBracket, Paren: paren, Body: body, Pos: p}
}

func LambdaHead(args []Tree, p pos.Pos) Tree {
	return Tree{Kind: KindLambdaHead, Body: args, Pos: p}
}

func NS(prefix interner.Token, next Tree, p pos.Pos) Tree {
	return Tree{Kind: KindNS, Name: prefix, NSNext: &next, Pos: p}
}

func Atom(v AtomValue, p pos.Pos) Tree {
	return Tree{Kind: KindAtom, Atom: v, Pos: p}
}

func Ph(ph Placeholder, p pos.Pos) Tree {
	return Tree{Kind: KindPlaceholder, Ph: ph, Pos: p}
}

func Ext(payload interface{}, p pos.Pos) Tree {
	return Tree{Kind: KindExt, Ext: payload, Pos: p}
}

// IsFluff reports whether a token carries no semantic weight for expression
// parsing (comments and line breaks), mirroring orchid-base's
// strip_fluff/skip_fluff helpers.
func (t Tree) IsFluff() bool {
	return t.Kind == KindComment || t.Kind == KindBR
}

// StripFluff removes comments and line breaks from a sequence, recursing
// into bracketed and lambda-head bodies.
func StripFluff(seq []Tree) []Tree {
	out := make([]Tree, 0, len(seq))
	for _, t := range seq {
		if t.IsFluff() {
			continue
		}
		switch t.Kind {
		case KindBracket:
			t.Body = StripFluff(t.Body)
		case KindLambdaHead:
			t.Body = StripFluff(t.Body)
		}
		out = append(out, t)
	}
	return out
}

// Display renders a single node for diagnostics/tests. It is intentionally
// terse, not a faithful unparse.
func (t Tree) Display(store *interner.Store) string {
	switch t.Kind {
	case KindName:
		return store.ResolveString(t.Name)
	case KindComment:
		return "--" + t.Comment
	case KindBR:
		return "\\n"
	case KindBracket:
		return fmt.Sprintf("%c%s%c", t.Paren.Open(), DisplaySeq(t.Body, store), t.Paren.Close())
	case KindLambdaHead:
		return "\\" + DisplaySeq(t.Body, store) + "."
	case KindNS:
		return store.ResolveString(t.Name) + "::" + t.NSNext.Display(store)
	case KindAtom:
		return fmt.Sprintf("%v", t.Atom)
	case KindPlaceholder:
		return t.Ph.String()
	case KindExt:
		return fmt.Sprintf("<ext:%v>", t.Ext)
	default:
		return "<?>"
	}
}

// DisplaySeq renders a sequence of nodes space-separated.
func DisplaySeq(seq []Tree, store *interner.Store) string {
	s := ""
	for i, t := range seq {
		if i > 0 {
			s += " "
		}
		s += t.Display(store)
	}
	return s
}

// MarkDone returns a copy of t with Done set, for splicing rewrite output
// back into a target sequence.
func (t Tree) MarkDone() Tree {
	t.Done = true
	return t
}

// MarkSeqDone marks every top-level node of seq as Done, leaving nested
// structure untouched (only the top level of an injected template is
// protected from immediate re-matching).
func MarkSeqDone(seq []Tree) []Tree {
	out := make([]Tree, len(seq))
	for i, t := range seq {
		out[i] = t.MarkDone()
	}
	return out
}

// CollapseNS walks an NS-chain starting at t and returns the full sequence
// of name segments plus the leaf token tree found at the end (per S1: the
// lexer produces NS(foo, NS(bar, Name(baz))) for "foo::bar::baz"). If t is
// not a KindNS or KindName node, ok is false.
func CollapseNS(t Tree) (segs []interner.Token, leaf Tree, ok bool) {
	for t.Kind == KindNS {
		segs = append(segs, t.Name)
		t = *t.NSNext
	}
	if t.Kind != KindName {
		return nil, Tree{}, false
	}
	segs = append(segs, t.Name)
	return segs, t, true
}
