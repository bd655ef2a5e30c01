/*
Package resolve implements the two passes that turn a frozen project tree
into something the macro repository can look names up against: the glob
resolver (§4.6), which expands recorded `import X::*` requests into
concrete local aliases, and the alias/name resolver (§4.7), which walks a
(possibly super/self-relative) name reference down to an absolute symbol.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package resolve

import (
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/npillmayer/schuko/tracing"
	"github.com/orchid-lang/orchid/interner"
	"github.com/orchid-lang/orchid/name"
	"github.com/orchid-lang/orchid/orcerr"
	"github.com/orchid-lang/orchid/pos"
	"github.com/orchid-lang/orchid/tree"
)

// tracer traces with key 'orchid.resolve'.
func tracer() tracing.Trace {
	return tracing.Select("orchid.resolve")
}

// Prelude is an implicit glob import applied to every module whose path
// does not start with Exclude.
type Prelude struct {
	Target  name.VPath
	Exclude []name.VPath
	Owner   string // diagnostic label only
}

// Contention records two aliases (or an alias and a pre-existing
// definition) that both claim the same local name in the same module.
// Per §4.6/§9, a contention is only a fatal error if the name is actually
// referenced later; orchid.Pipeline.Resolve is what turns a recorded
// contention into an error.
type Contention struct {
	Module     name.VPath
	Local      interner.Token
	FirstFrom  name.VPath
	SecondFrom name.VPath
	Positions  []pos.Pos
}

// Glob performs the project-wide glob resolution pass: it mutates proj in
// place, writing EntryAlias entries for every key exposed by each glob
// target, and returns the set of contentions discovered (empty if none).
// env, if non-nil, is an ambient host-provided module whose exported
// entries participate in each glob's key set alongside the project tree's
// own.
func Glob(proj *tree.Module, globs *tree.GlobNode, preludes []Prelude, env *tree.Module, store *interner.Store) ([]Contention, error) {
	tracer().Debugf("glob resolution: starting top-down walk, %d preludes", len(preludes))
	var contentions []Contention
	err := walkTopDown(proj, name.VPath{}, globs, func(mod *tree.Module, path name.VPath, node *tree.GlobNode) error {
		for _, p := range preludes {
			if pathExcluded(path, p.Exclude) {
				continue
			}
			cs, err := applyGlob(proj, env, mod, path, p.Target, pos.Synthetic("prelude:"+p.Owner), store)
			if err != nil {
				return err
			}
			contentions = append(contentions, cs...)
		}
		if node == nil {
			return nil
		}
		for _, entry := range node.Imports {
			cs, err := applyGlob(proj, env, mod, path, entry.Target, entry.Pos, store)
			if err != nil {
				return err
			}
			contentions = append(contentions, cs...)
		}
		return nil
	})
	return contentions, err
}

// walkTopDown visits every module in proj, parent before children, pairing
// each with its glob-import node (nil if none was recorded).
func walkTopDown(mod *tree.Module, path name.VPath, globs *tree.GlobNode, visit func(*tree.Module, name.VPath, *tree.GlobNode) error) error {
	var node *tree.GlobNode
	if globs != nil {
		node = globs.At(path)
	}
	if err := visit(mod, path, node); err != nil {
		return err
	}
	for _, local := range mod.Names() {
		e, _ := mod.Get(local)
		if e.Kind != tree.EntryModule {
			continue
		}
		if err := walkTopDown(e.Sub, path.Suffix(local), globs, visit); err != nil {
			return err
		}
	}
	return nil
}

func pathExcluded(path name.VPath, excludes []name.VPath) bool {
	for _, ex := range excludes {
		if isPrefix(ex, path) {
			return true
		}
	}
	return false
}

func isPrefix(prefix, path name.VPath) bool {
	ps, qs := prefix.Segments(), path.Segments()
	if len(ps) > len(qs) {
		return false
	}
	for i, s := range ps {
		if s != qs[i] {
			return false
		}
	}
	return true
}

// applyGlob expands one glob target into aliases written onto mod at path,
// following §4.6 steps 1-3.
func applyGlob(proj, env *tree.Module, mod *tree.Module, modPath, target name.VPath, p pos.Pos, store *interner.Store) ([]Contention, error) {
	targetMod, err := lookupModule(proj, target)
	if err != nil {
		return nil, orcerr.New(orcerr.KindNotAModule,
			"glob import target is not a module: "+target.Display(store), p)
	}
	keys := treeset.NewWith(uint32Comparator)
	for _, local := range targetMod.Names() {
		e, _ := targetMod.Get(local)
		if e.Exported {
			keys.Add(local.Id())
		}
	}
	envToks := make(map[uint32]interner.Token)
	if env != nil {
		if envMod, err := lookupModule(env, target); err == nil {
			for _, local := range envMod.Names() {
				e, _ := envMod.Get(local)
				if e.Exported {
					keys.Add(local.Id())
					envToks[local.Id()] = local
				}
			}
		}
	}

	var contentions []Contention
	for _, v := range sortedKeys(keys) {
		local, fromEnv := envToks[v]
		if !fromEnv {
			local = findTokenById(targetMod, v)
		}
		aliasTarget, _ := target.Suffix(local).ToVName() // non-empty: suffix always appends one segment
		sym := aliasTarget.ToSym(store)
		existing, ok := mod.Get(local)
		switch {
		case !ok:
			mod.Set(local, &tree.Entry{Kind: tree.EntryAlias, Positions: []pos.Pos{p}, Alias: sym})
		case existing.Kind == tree.EntryNone:
			existing.Kind = tree.EntryAlias
			existing.Alias = sym
			existing.Positions = append(existing.Positions, p)
		case existing.Kind == tree.EntryAlias && existing.Alias.Equal(sym):
			// same alias re-derived from another prelude/glob; not a conflict
			existing.Positions = append(existing.Positions, p)
		default:
			contentions = append(contentions, Contention{
				Module: modPath, Local: local,
				FirstFrom: modPath, SecondFrom: target,
				Positions: append(append([]pos.Pos{}, existing.Positions...), p),
			})
		}
	}
	return contentions, nil
}

func lookupModule(root *tree.Module, path name.VPath) (*tree.Module, error) {
	cur := root
	for _, seg := range path.Segments() {
		e, ok := cur.Get(seg)
		if !ok || e.Kind != tree.EntryModule {
			return nil, orcerr.New(orcerr.KindNotAModule, "not a module")
		}
		cur = e.Sub
	}
	return cur, nil
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

// sortedKeys reads back s's elements: treeset.Set already walks its
// underlying red-black tree in comparator order, so this is a type
// conversion, not a second sort.
func sortedKeys(s *treeset.Set) []uint32 {
	vals := s.Values()
	out := make([]uint32, len(vals))
	for i, v := range vals {
		out[i] = v.(uint32)
	}
	return out
}

// findTokenById recovers the interner.Token with the given id among mod's
// local names; mirrors tree's own internal lookup since Module does not
// expose an id-keyed accessor.
func findTokenById(mod *tree.Module, id uint32) interner.Token {
	for _, t := range mod.Names() {
		if t.Id() == id {
			return t
		}
	}
	panic("resolve: glob key set references an id absent from the target module")
}
