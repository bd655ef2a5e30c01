package resolve

import (
	"strings"

	"github.com/orchid-lang/orchid/interner"
	"github.com/orchid-lang/orchid/name"
	"github.com/orchid-lang/orchid/orcerr"
	"github.com/orchid-lang/orchid/tree"
)

// Resolver walks a name reference (possibly containing "super"/"self") down
// to an absolute symbol against a frozen project tree, per §4.7. Results
// are cached by (origin, name reference): the cache is monotonic, valid for
// as long as the project and glob trees backing it stay frozen.
type Resolver struct {
	root  *tree.Module
	store *interner.Store

	selfTok, superTok interner.Token

	cache map[string]cacheEntry
}

type cacheEntry struct {
	sym name.Sym
	err *orcerr.Error
}

// NewResolver builds a Resolver over root (the project tree, after glob
// resolution has written its aliases).
func NewResolver(root *tree.Module, store *interner.Store) *Resolver {
	return &Resolver{
		root:     root,
		store:    store,
		selfTok:  store.Intern("self"),
		superTok: store.Intern("super"),
		cache:    make(map[string]cacheEntry),
	}
}

// Resolve walks ref relative to origin (the module path containing the
// reference) down to an absolute symbol.
func (r *Resolver) Resolve(origin name.VPath, ref name.VName) (name.Sym, error) {
	key := origin.Display(r.store) + "\x00" + ref.Display(r.store)
	if hit, ok := r.cache[key]; ok {
		if hit.err != nil {
			return name.Sym{}, hit.err
		}
		return hit.sym, nil
	}
	sym, err := r.walk(origin, ref.Segments())
	if err != nil {
		oe, _ := err.(*orcerr.Error)
		r.cache[key] = cacheEntry{err: oe}
		return name.Sym{}, err
	}
	r.cache[key] = cacheEntry{sym: sym}
	return sym, nil
}

// walk performs the actual descent, restarting from the project root
// whenever it crosses an alias (per §4.7), tracking the aliases it has
// already followed to detect a resolution cycle.
func (r *Resolver) walk(origin name.VPath, segs []interner.Token) (name.Sym, error) {
	accum := origin
	visited := map[string]bool{}
	for i := 0; i < len(segs); i++ {
		seg := segs[i]
		switch seg {
		case r.selfTok:
			continue
		case r.superTok:
			if accum.Len() == 0 {
				return name.Sym{}, orcerr.New(orcerr.KindTooManySupers,
					"super steps above the project root while resolving "+
						strings.Join(tokenStrings(segs, r.store), "::"))
			}
			accum, _ = vpathPop(accum)
			continue
		}

		mod, err := lookupModule(r.root, accum)
		if err != nil {
			return name.Sym{}, orcerr.New(orcerr.KindNotAModule,
				accum.Display(r.store)+" is not a module, cannot resolve "+r.store.ResolveString(seg))
		}
		e, ok := mod.Get(seg)
		if !ok {
			return name.Sym{}, orcerr.New(orcerr.KindNameResolveMissingTarget,
				"no such name: "+accum.Suffix(seg).Display(r.store))
		}
		if e.Kind == tree.EntryAlias {
			aliasKey := e.Alias.Display(r.store)
			if visited[aliasKey] {
				return name.Sym{}, orcerr.New(orcerr.KindNameResolveCycle,
					"alias resolution cycle at "+aliasKey)
			}
			visited[aliasKey] = true
			remaining := segs[i+1:]
			newSegs := append(append([]interner.Token{}, e.Alias.Segments(r.store)...), remaining...)
			accum = name.VPath{}
			segs = newSegs
			i = -1
			continue
		}
		accum = accum.Suffix(seg)
	}
	vname, err := accum.ToVName()
	if err != nil {
		return name.Sym{}, orcerr.New(orcerr.KindNameResolveMissingTarget,
			"name reference resolves to the empty path")
	}
	return vname.ToSym(r.store), nil
}

func vpathPop(p name.VPath) (name.VPath, interner.Token) {
	segs := p.Segments()
	last := segs[len(segs)-1]
	return name.NewVPath(segs[:len(segs)-1]...), last
}

func tokenStrings(segs []interner.Token, store *interner.Store) []string {
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = store.ResolveString(s)
	}
	return out
}
