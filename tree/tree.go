/*
Package tree implements the project tree builder (§4.5): it merges the
per-file source-line output of the parser into a single module tree,
attaching comments to the entries they precede, rejecting conflicting
definitions, and recording glob imports in a parallel tree for the later
glob-resolution pass.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package tree

import (
	"sort"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/npillmayer/schuko/tracing"
	"github.com/orchid-lang/orchid/interner"
	"github.com/orchid-lang/orchid/name"
	"github.com/orchid-lang/orchid/orcerr"
	"github.com/orchid-lang/orchid/parser"
	"github.com/orchid-lang/orchid/pos"
	"github.com/orchid-lang/orchid/toktree"
)

// tracer traces with key 'orchid.tree'.
func tracer() tracing.Trace {
	return tracing.Select("orchid.tree")
}

// EntryKind selects which of Entry's fields are meaningful.
type EntryKind uint8

const (
	// EntryNone is a declared-but-not-yet-defined placeholder, created when
	// an "export name" line is seen before the name's definition.
	EntryNone EntryKind = iota
	EntryModule
	EntryConstant
	// EntryAlias is written by the project tree builder for a named import
	// and by the glob resolver for each key a glob import exposes.
	EntryAlias
)

// Rule is a rewrite rule attached to the module it was declared in. Rules
// are not keyed by name: they apply globally to any expression where their
// dependency names are in scope, regardless of export status.
type Rule struct {
	Pattern  []toktree.Tree
	Template []toktree.Tree
	Priority float64
	Pos      pos.Pos
	Comments []parser.Comment
}

// Entry is one binding inside a Module.
type Entry struct {
	Kind      EntryKind
	Exported  bool
	Positions []pos.Pos
	Comments  []parser.Comment

	Sub   *Module        // EntryModule
	Value []toktree.Tree // EntryConstant
	Alias name.Sym       // EntryAlias
}

// Module is one node of the project tree: a mapping from local name to
// entry, plus the rules declared directly inside it.
type Module struct {
	Path name.VPath // absolute path of this module from the project root

	entries map[interner.Token]*Entry
	order   *treeset.Set // token ids, for deterministic iteration

	Rules        []Rule
	FileComments []parser.Comment
	// ExternalRefs is a slot for name references found in constant/rule
	// bodies. Builder never fills it in: it is empty after every build.
	ExternalRefs []name.VName
}

func newModule(path name.VPath) *Module {
	return &Module{
		Path:    path,
		entries: make(map[interner.Token]*Entry),
		order:   treeset.NewWith(uint32Comparator),
	}
}

func uint32Comparator(a, b interface{}) int {
	x, y := a.(uint32), b.(uint32)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// Get looks up a local name, returning (nil, false) if absent.
func (m *Module) Get(local interner.Token) (*Entry, bool) {
	e, ok := m.entries[local]
	return e, ok
}

// Names returns the module's local names in a deterministic (ascending
// token id) order, satisfying §8 invariant 7 (glob-resolution determinism)
// at the data-structure level.
func (m *Module) Names() []interner.Token {
	out := make([]interner.Token, 0, m.order.Size())
	for _, v := range m.order.Values() {
		id := v.(uint32)
		out = append(out, findTokenWithId(m.entries, id))
	}
	return out
}

// findTokenWithId is a small linear helper; module fan-out is small enough
// (source-file scale) that this beats keeping a second parallel index.
func findTokenWithId(entries map[interner.Token]*Entry, id uint32) interner.Token {
	for k := range entries {
		if k.Id() == id {
			return k
		}
	}
	panic("tree: order set references an id with no entry")
}

func (m *Module) set(local interner.Token, e *Entry) {
	if _, existed := m.entries[local]; !existed {
		m.order.Add(local.Id())
	}
	m.entries[local] = e
}

// Set is the exported form of set, for later pipeline stages (the glob and
// alias resolvers) that mutate a module after the project builder has
// produced it.
func (m *Module) Set(local interner.Token, e *Entry) { m.set(local, e) }

// sortedTokens is a convenience for tests and diagnostics that want a
// stable textual ordering rather than id ordering.
func sortedTokens(store *interner.Store, toks []interner.Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = store.ResolveString(t)
	}
	sort.Strings(out)
	return out
}
