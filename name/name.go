/*
Package name implements the three name shapes of the project model: VPath
(possibly empty), VName (non-empty, possibly relative) and Sym (interned,
always absolute).

All three are built on interner.Token so that comparing names is always a
comparison of small comparable values, never a string comparison.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package name

import (
	"strings"

	"github.com/npillmayer/schuko/tracing"
	"github.com/orchid-lang/orchid/interner"
)

// tracer traces with key 'orchid.name'.
func tracer() tracing.Trace {
	return tracing.Select("orchid.name")
}

// ErrEmptyName is returned when a VName or Sym is constructed from zero
// segments.
type ErrEmptyName struct{}

func (ErrEmptyName) Error() string { return "name: sequence of segments must not be empty" }

// VPath is an ordered, possibly-empty sequence of string tokens. It models
// filesystem-like fragments and relative path prefixes that may legitimately
// be empty (e.g. the path accumulated while walking "super::super::foo").
type VPath struct {
	segs []interner.Token
}

// NewVPath builds a VPath from segments, copying them.
func NewVPath(segs ...interner.Token) VPath {
	cp := make([]interner.Token, len(segs))
	copy(cp, segs)
	return VPath{segs: cp}
}

// ParseVPath splits s on "::" and interns each segment. An empty string
// yields the empty VPath.
func ParseVPath(s string, store *interner.Store) VPath {
	if s == "" {
		return VPath{}
	}
	parts := strings.Split(s, "::")
	segs := make([]interner.Token, len(parts))
	for i, p := range parts {
		segs[i] = store.Intern(p)
	}
	return VPath{segs: segs}
}

// Len returns the number of segments.
func (p VPath) Len() int { return len(p.segs) }

// IsEmpty reports whether the path has no segments.
func (p VPath) IsEmpty() bool { return len(p.segs) == 0 }

// Segments returns a copy of the path's segments.
func (p VPath) Segments() []interner.Token {
	cp := make([]interner.Token, len(p.segs))
	copy(cp, p.segs)
	return cp
}

// Prefix returns a new VPath with items prepended.
func (p VPath) Prefix(items ...interner.Token) VPath {
	segs := make([]interner.Token, 0, len(items)+len(p.segs))
	segs = append(segs, items...)
	segs = append(segs, p.segs...)
	return VPath{segs: segs}
}

// Suffix returns a new VPath with items appended.
func (p VPath) Suffix(items ...interner.Token) VPath {
	segs := make([]interner.Token, 0, len(items)+len(p.segs))
	segs = append(segs, p.segs...)
	segs = append(segs, items...)
	return VPath{segs: segs}
}

// ToVName asserts the path is non-empty and converts it. Returns
// ErrEmptyName otherwise.
func (p VPath) ToVName() (VName, error) {
	return NewVName(p.segs...)
}

// Display formats the path by joining segments with "::", resolving each
// token against store.
func (p VPath) Display(store *interner.Store) string {
	parts := make([]string, len(p.segs))
	for i, t := range p.segs {
		parts[i] = store.ResolveString(t)
	}
	return strings.Join(parts, "::")
}

// VName is a non-empty, possibly relative or partially processed
// namespaced name. See Sym for the interned, always-absolute counterpart.
type VName struct {
	segs []interner.Token
}

// NewVName asserts segs is non-empty and wraps it, copying the slice.
func NewVName(segs ...interner.Token) (VName, error) {
	if len(segs) == 0 {
		return VName{}, ErrEmptyName{}
	}
	cp := make([]interner.Token, len(segs))
	copy(cp, segs)
	return VName{segs: cp}, nil
}

// MustVName is NewVName but panics on an empty sequence; for call sites
// that have already established non-emptiness by construction.
func MustVName(segs ...interner.Token) VName {
	v, err := NewVName(segs...)
	if err != nil {
		panic(err)
	}
	return v
}

// ParseVName parses a "::"-separated name; fails with ErrEmptyName on "".
func ParseVName(s string, store *interner.Store) (VName, error) {
	return ParseVPath(s, store).ToVName()
}

// Segments returns a copy of the name's segments.
func (n VName) Segments() []interner.Token {
	cp := make([]interner.Token, len(n.segs))
	copy(cp, n.segs)
	return cp
}

// Len returns the number of segments (always >= 1).
func (n VName) Len() int { return len(n.segs) }

// First returns the first segment.
func (n VName) First() interner.Token { return n.segs[0] }

// Last returns the last segment.
func (n VName) Last() interner.Token { return n.segs[len(n.segs)-1] }

// SplitFirst returns the first segment and the remaining VPath.
func (n VName) SplitFirst() (interner.Token, VPath) {
	return n.segs[0], VPath{segs: n.segs[1:]}
}

// SplitLast returns the VPath of all but the last segment, and the last
// segment.
func (n VName) SplitLast() (VPath, interner.Token) {
	return VPath{segs: n.segs[:len(n.segs)-1]}, n.segs[len(n.segs)-1]
}

// Prefix returns a new VName with items prepended.
func (n VName) Prefix(items ...interner.Token) VName {
	segs := make([]interner.Token, 0, len(items)+len(n.segs))
	segs = append(segs, items...)
	segs = append(segs, n.segs...)
	return VName{segs: segs}
}

// Suffix returns a new VName with items appended.
func (n VName) Suffix(items ...interner.Token) VName {
	segs := make([]interner.Token, 0, len(items)+len(n.segs))
	segs = append(segs, n.segs...)
	segs = append(segs, items...)
	return VName{segs: segs}
}

// IsPrefixOf reports whether n is a (non-strict) prefix of other, i.e.
// whether the partial order defined on VName by segment-prefix holds.
func (n VName) IsPrefixOf(other VName) bool {
	if len(n.segs) > len(other.segs) {
		return false
	}
	for i, s := range n.segs {
		if s != other.segs[i] {
			return false
		}
	}
	return true
}

// ToSym interns the name's segment sequence and wraps it as an absolute
// Sym.
func (n VName) ToSym(store *interner.Store) Sym {
	return Sym{tok: store.InternSeq(n.segs)}
}

// Display formats the name by joining segments with "::".
func (n VName) Display(store *interner.Store) string {
	return VPath{segs: n.segs}.Display(store)
}

// Sym is an interned, always-absolute namespaced identifier: a single
// comparable token standing in for a whole segment sequence. Equal symbols
// compare equal by a single token comparison.
type Sym struct {
	tok interner.Token
}

// SymFromToken wraps an already-interned sequence token as a Sym, asserting
// it denotes a non-empty sequence.
func SymFromToken(tok interner.Token, store *interner.Store) (Sym, error) {
	if len(store.ResolveSeq(tok)) == 0 {
		return Sym{}, ErrEmptyName{}
	}
	return Sym{tok: tok}, nil
}

// NewSym asserts segs is non-empty, interns it, and wraps it as a Sym.
func NewSym(store *interner.Store, segs ...interner.Token) (Sym, error) {
	if len(segs) == 0 {
		return Sym{}, ErrEmptyName{}
	}
	return Sym{tok: store.InternSeq(segs)}, nil
}

// ParseSym parses and interns a "::"-separated absolute name.
func ParseSym(s string, store *interner.Store) (Sym, error) {
	n, err := ParseVName(s, store)
	if err != nil {
		return Sym{}, err
	}
	return n.ToSym(store), nil
}

// Token returns the underlying interner token for the whole sequence.
func (s Sym) Token() interner.Token { return s.tok }

// Id returns a number unique to this symbol suitable for arbitrary
// ordering (not necessarily meaningful beyond that).
func (s Sym) Id() uint32 { return s.tok.Id() }

// ToVName externs the symbol back into an editable VName.
func (s Sym) ToVName(store *interner.Store) VName {
	return VName{segs: store.ResolveSeq(s.tok)}
}

// Segments returns the symbol's segment tokens.
func (s Sym) Segments(store *interner.Store) []interner.Token {
	return store.ResolveSeq(s.tok)
}

// Display formats the symbol by joining its segments with "::".
func (s Sym) Display(store *interner.Store) string {
	return VName{segs: store.ResolveSeq(s.tok)}.Display(store)
}

// Equal reports whether two symbols denote the same name. Equivalent to
// s == other but spelled out because a single "==" is the entire point of
// Sym: comparing two absolute symbols never touches the interner.
func (s Sym) Equal(other Sym) bool { return s.tok == other.tok }
