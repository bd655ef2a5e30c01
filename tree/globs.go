package tree

import (
	"github.com/orchid-lang/orchid/interner"
	"github.com/orchid-lang/orchid/name"
	"github.com/orchid-lang/orchid/pos"
)

// GlobImportEntry is one "import TARGET::*" recorded against the module that
// declared it. Resolution (turning Target's members into local aliases) is
// the glob resolver's job, not the builder's: the builder only records
// where each glob points and the position responsible, for later
// contention/cycle diagnostics.
type GlobImportEntry struct {
	Target name.VPath
	Pos    pos.Pos
}

// GlobNode mirrors the shape of Module but carries only glob-import
// declarations, keyed by the same path the corresponding Module occupies in
// the project tree. Kept as its own parallel tree (rather than a field on
// Module) because glob resolution is a separate pass over a separate
// concern: it never touches concrete entries, only the list of wildcard
// import targets per module.
type GlobNode struct {
	Imports  []GlobImportEntry
	children map[interner.Token]*GlobNode
}

func newGlobNode() *GlobNode {
	return &GlobNode{children: make(map[interner.Token]*GlobNode)}
}

// record adds a glob import declared by the module at owner, pointing at
// target, descending (and creating) owner's path in the glob tree as
// needed.
func (g *GlobNode) record(owner name.VPath, target name.VPath, p pos.Pos) {
	cur := g
	for _, seg := range owner.Segments() {
		sub, ok := cur.children[seg]
		if !ok {
			sub = newGlobNode()
			cur.children[seg] = sub
		}
		cur = sub
	}
	cur.Imports = append(cur.Imports, GlobImportEntry{Target: target, Pos: p})
}

// At returns the glob node for the given module path, or nil if no glob
// imports were ever recorded anywhere along it.
func (g *GlobNode) At(path name.VPath) *GlobNode {
	cur := g
	for _, seg := range path.Segments() {
		sub, ok := cur.children[seg]
		if !ok {
			return nil
		}
		cur = sub
	}
	return cur
}
