/*
Package parser converts a token-tree sequence (the lexer's output) into a
sequence of source-line entries: comments, export lists, import lists,
constants, rules, and nested module blocks. Operator precedence inside an
expression is deliberately not applied here — only bracket and lambda
structure are significant; the rest of an expression's shape is the macro
layer's concern.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package parser

import (
	"github.com/npillmayer/schuko/tracing"
	"github.com/orchid-lang/orchid/interner"
	"github.com/orchid-lang/orchid/name"
	"github.com/orchid-lang/orchid/orcerr"
	"github.com/orchid-lang/orchid/pos"
	"github.com/orchid-lang/orchid/toktree"
)

// tracer traces with key 'orchid.parser'.
func tracer() tracing.Trace {
	return tracing.Select("orchid.parser")
}

// Snippet is a cursor over a token sequence that remembers the token just
// before its current window, so that an empty window can still report a
// sensible position (the usual case being "end of the previous token").
type Snippet struct {
	all  []toktree.Tree
	prev int // index into all of the "previous" token, or -1
	lo   int // inclusive
	hi   int // exclusive
}

// NewSnippet wraps a full token sequence as a snippet spanning it.
func NewSnippet(tokens []toktree.Tree) Snippet {
	return Snippet{all: tokens, prev: -1, lo: 0, hi: len(tokens)}
}

func (s Snippet) Len() int        { return s.hi - s.lo }
func (s Snippet) IsEmpty() bool   { return s.Len() == 0 }
func (s Snippet) Get(i int) (toktree.Tree, bool) {
	if i < 0 || i >= s.Len() {
		return toktree.Tree{}, false
	}
	return s.all[s.lo+i], true
}

// Slice returns the snippet's tokens as a plain slice.
func (s Snippet) Slice() []toktree.Tree { return s.all[s.lo:s.hi] }

// Pos returns the position spanned by the snippet: the union of its first
// and last token's positions, or the previous token's position if empty.
func (s Snippet) Pos() pos.Pos {
	if s.IsEmpty() {
		if s.prev >= 0 {
			return s.all[s.prev].Pos
		}
		return pos.None
	}
	return s.all[s.lo].Pos.Extend(s.all[s.hi-1].Pos)
}

// SplitAt splits the snippet at offset n: [0,n) and [n,len).
func (s Snippet) SplitAt(n int) (Snippet, Snippet) {
	mid := s.lo + n
	fst := Snippet{all: s.all, prev: s.prev, lo: s.lo, hi: mid}
	newPrev := s.prev
	if n > 0 {
		newPrev = mid - 1
	}
	snd := Snippet{all: s.all, prev: newPrev, lo: mid, hi: s.hi}
	return fst, snd
}

// FindIdx returns the index of the first token satisfying pred, or -1.
func (s Snippet) FindIdx(pred func(toktree.Tree) bool) int {
	for i := 0; i < s.Len(); i++ {
		t, _ := s.Get(i)
		if pred(t) {
			return i
		}
	}
	return -1
}

// PopFront returns the first token and the remainder, if non-empty.
func (s Snippet) PopFront() (toktree.Tree, Snippet, bool) {
	if s.IsEmpty() {
		return toktree.Tree{}, s, false
	}
	t, _ := s.Get(0)
	_, rest := s.SplitAt(1)
	return t, rest, true
}

// SplitOnce splits at the first token satisfying pred, consuming it.
func (s Snippet) SplitOnce(pred func(toktree.Tree) bool) (Snippet, Snippet, bool) {
	i := s.FindIdx(pred)
	if i < 0 {
		return s, Snippet{}, false
	}
	fst, rest := s.SplitAt(i)
	_, snd := rest.SplitAt(1)
	return fst, snd, true
}

// Split breaks the snippet into consecutive pieces divided by tokens
// satisfying pred (the separators themselves are dropped).
func (s Snippet) Split(pred func(toktree.Tree) bool) []Snippet {
	var out []Snippet
	cur := s
	for {
		if cur.IsEmpty() {
			return out
		}
		fst, snd, ok := cur.SplitOnce(pred)
		if !ok {
			return append(out, cur)
		}
		out = append(out, fst)
		cur = snd
	}
}

// SkipFluff drops leading comments (nothing to skip if
// the snippet already starts on meaningful material).
func (s Snippet) SkipFluff() Snippet {
	i := s.FindIdx(func(t toktree.Tree) bool { return t.Kind != toktree.KindComment })
	if i < 0 {
		_, rest := s.SplitAt(s.Len())
		return rest
	}
	_, rest := s.SplitAt(i)
	return rest
}

// Comment is a parsed comment with its position, used both as a standalone
// source line and as a leading-comment attachment for the item that follows.
type Comment struct {
	Text string
	Pos  pos.Pos
}

// LineItem is one BR-delimited line, already unwrapped from a lone
// enclosing round-bracket group, with its leading comments split off.
type LineItem struct {
	Comments []Comment
	Line     Snippet
}

// LineItems splits a token sequence on BR into LineItems, dropping empty
// lines and unwrapping a line that is a single round-bracketed group.
func LineItems(tokens []toktree.Tree) []LineItem {
	var items []LineItem
	var pendingComments []Comment
	for _, line := range NewSnippet(tokens).Split(func(t toktree.Tree) bool { return t.Kind == toktree.KindBR }) {
		if line.Len() == 1 {
			if t, _ := line.Get(0); t.Kind == toktree.KindBracket && t.Paren == toktree.Round {
				line = NewSnippet(t.Body)
			}
		}
		if line.IsEmpty() {
			continue
		}
		i := line.FindIdx(func(t toktree.Tree) bool { return t.Kind != toktree.KindComment })
		if i < 0 {
			for _, t := range line.Slice() {
				pendingComments = append(pendingComments, Comment{Text: t.Comment, Pos: t.Pos})
			}
			continue
		}
		cmts, rest := line.SplitAt(i)
		comments := append([]Comment{}, pendingComments...)
		for _, t := range cmts.Slice() {
			comments = append(comments, Comment{Text: t.Comment, Pos: t.Pos})
		}
		pendingComments = nil
		items = append(items, LineItem{Comments: comments, Line: rest})
	}
	return items
}

// CompName is one leaf of a parsed multiname: a relative path plus either a
// concrete name or nil for a globstar.
type CompName struct {
	Path name.VPath
	Name *interner.Token
	Pos  pos.Pos
}

func isName(t toktree.Tree, store *interner.Store, s string) bool {
	return t.Kind == toktree.KindName && store.ResolveString(t.Name) == s
}

// ParseMultiname parses a multiname grammar: a name, a bracketed group of
// names, a parenthesized comma list of multinames, or a globstar, optionally
// followed by "::" and a further multiname (the leading name is prepended
// to every leaf's path, mirroring a::(b, c) meaning a::b, a::c).
func ParseMultiname(tail Snippet, store *interner.Store) ([]CompName, Snippet, error) {
	head, rest, ok := tail.SkipFluff().PopFront()
	if !ok {
		return nil, tail, orcerr.New(orcerr.KindParseError,
			"expected a name, a list of names, or a globstar", tail.Pos())
	}

	switch head.Kind {
	case toktree.KindNS:
		inner, _, err := ParseMultiname(NewSnippet([]toktree.Tree{*head.NSNext}), store)
		if err != nil {
			return nil, tail, err
		}
		out := make([]CompName, len(inner))
		for i, c := range inner {
			out[i] = CompName{Path: c.Path.Prefix(head.Name), Name: c.Name, Pos: c.Pos}
		}
		return out, rest, nil
	case toktree.KindName:
		txt := store.ResolveString(head.Name)
		if txt == "*" {
			return []CompName{{Pos: head.Pos}}, rest, nil
		}
		n := head.Name
		return []CompName{{Name: &n, Pos: head.Pos}}, rest, nil
	case toktree.KindBracket:
		switch head.Paren {
		case toktree.Square:
			var out []CompName
			for _, t := range toktree.StripFluff(head.Body) {
				if t.Kind != toktree.KindName {
					return nil, tail, orcerr.New(orcerr.KindParseError,
						"only operator names are allowed inside []", t.Pos)
				}
				n := t.Name
				out = append(out, CompName{Name: &n, Pos: t.Pos})
			}
			return out, rest, nil
		case toktree.Round:
			var out []CompName
			for _, part := range NewSnippet(head.Body).Split(func(t toktree.Tree) bool { return isName(t, store, ",") }) {
				sub, surplus, err := ParseMultiname(part, store)
				if err != nil {
					return nil, tail, err
				}
				if !surplus.SkipFluff().IsEmpty() {
					return nil, tail, orcerr.New(orcerr.KindParseError,
						"unexpected token in multiname group", surplus.Pos())
				}
				out = append(out, sub...)
			}
			return out, rest, nil
		}
	}
	return nil, tail, orcerr.New(orcerr.KindParseError, "names cannot end with this token", head.Pos)
}

// LineParser is a pluggable extension to the core line grammar. TryParse is
// offered the whole (comment-stripped) line; returning handled=false means
// "not my syntax, try the next parser, then the core grammar".
type LineParser interface {
	TryParse(line Snippet, store *interner.Store) (lines []SourceLine, handled bool, err error)
}
