/*
Package macro implements the macro repository, matcher compiler and rewrite
driver (§4.8-§4.11): the stage that takes the alias-resolved project tree and
repeatedly rewrites expressions by pattern/template rules until none apply.

This package works on its own lowered tree type rather than toktree.Tree.
Once the alias resolver has run, every name reference is fully qualified, so
there is no more reason to carry multi-segment NS chains around: macro.Tree
collapses each toktree.KindNS chain (and every bare toktree.KindName) into a
single leaf carrying a resolved name.Sym. This is the "MacTok" layer the
package doc comment of toktree promises, the same ParsTok/MacTok split the
original Orchid implementation draws between its own pre- and
post-resolution token trees.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package macro

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
	"github.com/orchid-lang/orchid/interner"
	"github.com/orchid-lang/orchid/name"
	"github.com/orchid-lang/orchid/pos"
	"github.com/orchid-lang/orchid/toktree"
)

// tracer traces with key 'orchid.macro'.
func tracer() tracing.Trace {
	return tracing.Select("orchid.macro")
}

// Tree is one node of the MacTok layer. It reuses toktree.Kind to select
// which fields are meaningful (KindNS is never produced here; every name
// chain has already been collapsed into a single KindName leaf).
type Tree struct {
	Kind toktree.Kind
	Pos  pos.Pos

	Sym     name.Sym // KindName
	Comment string   // KindComment
	Paren   toktree.Paren
	Body    []Tree
	Atom    toktree.AtomValue
	Ph      toktree.Placeholder
	Ext     interface{}

	// Done marks material a rewrite has just spliced in; see toktree.Tree's
	// field of the same name and Driver.Run.
	Done bool
}

func (t Tree) MarkDone() Tree {
	t.Done = true
	return t
}

// MarkSeqDone marks every top-level node of seq as Done.
func MarkSeqDone(seq []Tree) []Tree {
	out := make([]Tree, len(seq))
	for i, t := range seq {
		out[i] = t.MarkDone()
	}
	return out
}

// IsFluff mirrors toktree.Tree.IsFluff.
func (t Tree) IsFluff() bool {
	return t.Kind == toktree.KindComment || t.Kind == toktree.KindBR
}

// StripFluff mirrors toktree.StripFluff over the MacTok layer.
func StripFluff(seq []Tree) []Tree {
	out := make([]Tree, 0, len(seq))
	for _, t := range seq {
		if t.IsFluff() {
			continue
		}
		switch t.Kind {
		case toktree.KindBracket, toktree.KindLambdaHead:
			t.Body = StripFluff(t.Body)
		}
		out = append(out, t)
	}
	return out
}

// Display renders a single node for diagnostics/tests.
func (t Tree) Display(store *interner.Store) string {
	switch t.Kind {
	case toktree.KindName:
		return t.Sym.Display(store)
	case toktree.KindComment:
		return "--" + t.Comment
	case toktree.KindBR:
		return "\\n"
	case toktree.KindBracket:
		return fmt.Sprintf("%c%s%c", t.Paren.Open(), DisplaySeq(t.Body, store), t.Paren.Close())
	case toktree.KindLambdaHead:
		return "\\" + DisplaySeq(t.Body, store) + "."
	case toktree.KindAtom:
		return fmt.Sprintf("%v", t.Atom)
	case toktree.KindPlaceholder:
		return t.Ph.String()
	case toktree.KindExt:
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

// ResolveFunc resolves a name reference found at origin to an absolute
// symbol. resolve.Resolver.Resolve satisfies this signature; macro depends
// only on the function shape so it need not import package resolve.
type ResolveFunc func(origin name.VPath, ref name.VName) (name.Sym, error)

// Lower rewrites a whole ParsTok sequence into the MacTok layer, resolving
// every name chain found along the way against origin.
func Lower(seq []toktree.Tree, origin name.VPath, resolve ResolveFunc, store *interner.Store) ([]Tree, error) {
	out := make([]Tree, len(seq))
	for i, t := range seq {
		lowered, err := lowerOne(t, origin, resolve, store)
		if err != nil {
			return nil, err
		}
		out[i] = lowered
	}
	return out, nil
}

func lowerOne(t toktree.Tree, origin name.VPath, resolve ResolveFunc, store *interner.Store) (Tree, error) {
	switch t.Kind {
	case toktree.KindName, toktree.KindNS:
		segs, _, ok := toktree.CollapseNS(t)
		if !ok {
			return Tree{}, fmt.Errorf("macro: malformed name chain at %s", t.Pos)
		}
		vn := name.MustVName(segs...)
		sym, err := resolve(origin, vn)
		if err != nil {
			return Tree{}, err
		}
		return Tree{Kind: toktree.KindName, Pos: t.Pos, Sym: sym}, nil

	case toktree.KindComment:
		return Tree{Kind: toktree.KindComment, Comment: t.Comment, Pos: t.Pos}, nil

	case toktree.KindBR:
		return Tree{Kind: toktree.KindBR, Pos: t.Pos}, nil

	case toktree.KindBracket:
		body, err := Lower(t.Body, origin, resolve, store)
		if err != nil {
			return Tree{}, err
		}
		return Tree{Kind: toktree.KindBracket, Paren: t.Paren, Body: body, Pos: t.Pos}, nil

	case toktree.KindLambdaHead:
		body, err := Lower(t.Body, origin, resolve, store)
		if err != nil {
			return Tree{}, err
		}
		return Tree{Kind: toktree.KindLambdaHead, Body: body, Pos: t.Pos}, nil

	case toktree.KindAtom:
		return Tree{Kind: toktree.KindAtom, Atom: t.Atom, Pos: t.Pos}, nil

	case toktree.KindPlaceholder:
		return Tree{Kind: toktree.KindPlaceholder, Ph: t.Ph, Pos: t.Pos}, nil

	case toktree.KindExt:
		return Tree{Kind: toktree.KindExt, Ext: t.Ext, Pos: t.Pos}, nil

	default:
		return Tree{}, fmt.Errorf("macro: unknown token kind %v at %s", t.Kind, t.Pos)
	}
}

// Names returns every name.Sym referenced anywhere in seq (recursing into
// brackets and lambda heads), deduplicated by token id. This is process_exprv's
// "lexicon" of a target expression (§4.8).
func Names(seq []Tree) []name.Sym {
	seen := make(map[uint32]name.Sym)
	collectNames(seq, seen)
	out := make([]name.Sym, 0, len(seen))
	for _, s := range seen {
		out = append(out, s)
	}
	return out
}

func collectNames(seq []Tree, seen map[uint32]name.Sym) {
	for _, t := range seq {
		switch t.Kind {
		case toktree.KindName:
			seen[t.Sym.Id()] = t.Sym
		case toktree.KindBracket, toktree.KindLambdaHead:
			collectNames(t.Body, seen)
		}
	}
}
