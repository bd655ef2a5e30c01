/*
Package interner implements a deduplicating store mapping hashable values
to stable, small, comparable Token handles.

One storage location is kept per equivalence class of value: interning the
same value twice (even from different goroutines) returns equal tokens.
Interning is itself supported recursively: a sequence of tokens can be
interned into a single token, and two equal sequences produce equal tokens,
exactly like interning any other value (see Store.InternSeq).

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package interner

import (
	"fmt"
	"sync"

	"github.com/cnf/structhash"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'orchid.interner'.
func tracer() tracing.Trace {
	return tracing.Select("orchid.interner")
}

// Tag distinguishes the typed table a Token belongs to. Tokens from
// different tags are never equal, even if their numeric ids collide.
type Tag uint8

const (
	// StringTag tags tokens interned from plain strings.
	StringTag Tag = iota
	// SeqTag tags tokens interned from a sequence of other tokens.
	SeqTag
)

// Token is an opaque, comparable handle for an interned value. Two tokens
// are equal if and only if the values they were interned from are equal.
// The Id is monotonically increasing within a tag and may be used for
// arbitrary (not necessarily meaningful) ordering.
type Token struct {
	tag Tag
	id  uint32
}

// Tag returns the type tag of the token.
func (t Token) Tag() Tag { return t.tag }

// Id returns the stable monotonic id of the token, usable for ordering.
func (t Token) Id() uint32 { return t.id }

func (t Token) String() string {
	return fmt.Sprintf("#%d:%d", t.tag, t.id)
}

// APIToken is a stable, serializable form of a Token (ToAPI/FromAPI).
type APIToken struct {
	Tag Tag
	Id  uint32
}

// ToAPI converts a Token into its serializable representation.
func ToAPI(t Token) APIToken { return APIToken{Tag: t.tag, Id: t.id} }

// FromAPI reconstructs a Token from its serializable representation. The
// caller is responsible for ensuring the id was actually allocated by the
// corresponding Store; resolving a token whose id that Store never
// allocated panics.
func FromAPI(a APIToken) Token { return Token{tag: a.Tag, id: a.Id} }

// Store is a process-wide-safe interner. The zero value is not usable; use
// New.
type Store struct {
	strings tableOf[string]
	seqs    tableOf[[]Token]
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		strings: newTable[string](StringTag),
		seqs:    newTable[[]Token](SeqTag),
	}
}

// Intern interns a string, returning its stable Token. Concurrent calls
// interning an equal string return equal tokens.
func (s *Store) Intern(v string) Token {
	return s.strings.intern(v, v)
}

// InternSeq interns a sequence of tokens as a single token ("intern of
// intern"): two equal sequences (same length, same tokens in order) yield
// equal tokens, regardless of the tags of their elements.
func (s *Store) InternSeq(v []Token) Token {
	cp := make([]Token, len(v))
	copy(cp, v)
	return s.seqs.intern(seqKey(cp), cp)
}

// ResolveString returns the string a Token was interned from. It panics if
// the token is not a string token or its id was never allocated by this
// Store's string table — token-not-found on resolve is a bug, not a domain
// error. Tokens carry no reference to their Store, so a string token from
// another Store whose id is in range here is not detected and resolves to
// whatever string this Store holds under that id.
func (s *Store) ResolveString(t Token) string {
	if t.tag != StringTag {
		panic(fmt.Sprintf("interner: token %v is not a string token", t))
	}
	v, ok := s.strings.resolve(t)
	if !ok {
		panic(fmt.Sprintf("interner: token %v not found in this store", t))
	}
	return v
}

// ResolveSeq returns the token sequence a SeqTag token was interned from.
func (s *Store) ResolveSeq(t Token) []Token {
	if t.tag != SeqTag {
		panic(fmt.Sprintf("interner: token %v is not a sequence token", t))
	}
	v, ok := s.seqs.resolve(t)
	if !ok {
		panic(fmt.Sprintf("interner: token %v not found in this store", t))
	}
	return v
}

// seqKey hashes a token sequence into a comparable map key. structhash is
// used rather than a hand-rolled join so that the key derivation can't
// silently collide between tokens of different tags (the struct tag is
// part of what gets hashed).
func seqKey(seq []Token) string {
	type hashable struct {
		Tag Tag
		Id  uint32
	}
	hs := make([]hashable, len(seq))
	for i, t := range seq {
		hs[i] = hashable{Tag: t.tag, Id: t.id}
	}
	key, err := structhash.Hash(hs, 1)
	if err != nil {
		// structhash only fails on unhashable reflect kinds; []hashable is
		// always hashable, so this would be a bug in this function, not a
		// domain-level interner error.
		panic(fmt.Sprintf("interner: failed to hash token sequence: %v", err))
	}
	return key
}

// tableOf is one typed sub-store: a bijection between values of type V and
// Tokens tagged tag.
type tableOf[V any] struct {
	tag Tag

	mu      sync.RWMutex
	byKey   map[string]Token
	byToken []V
}

func newTable[V any](tag Tag) tableOf[V] {
	return tableOf[V]{tag: tag, byKey: make(map[string]Token)}
}

// intern returns the existing token for key if present, else allocates a
// fresh one and stores value under it. key and value are supplied
// separately because the map key is sometimes a derived hash (seqKey)
// rather than the value itself.
func (t *tableOf[V]) intern(key string, value V) Token {
	t.mu.RLock()
	if tok, ok := t.byKey[key]; ok {
		t.mu.RUnlock()
		return tok
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if tok, ok := t.byKey[key]; ok {
		return tok
	}
	tok := Token{tag: t.tag, id: uint32(len(t.byToken))}
	t.byToken = append(t.byToken, value)
	t.byKey[key] = tok
	tracer().Debugf("interned %v -> %v", key, tok)
	return tok
}

func (t *tableOf[V]) resolve(tok Token) (V, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(tok.id) >= len(t.byToken) {
		var zero V
		return zero, false
	}
	return t.byToken[tok.id], true
}
