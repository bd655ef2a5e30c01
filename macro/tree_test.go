package macro

import (
	"errors"
	"testing"

	"github.com/orchid-lang/orchid/interner"
	"github.com/orchid-lang/orchid/lexer"
	"github.com/orchid-lang/orchid/name"
	"github.com/orchid-lang/orchid/toktree"
)

func identityResolve(store *interner.Store) ResolveFunc {
	return func(_ name.VPath, ref name.VName) (name.Sym, error) {
		return ref.ToSym(store), nil
	}
}

func parseExpr(t *testing.T, src string, store *interner.Store) []toktree.Tree {
	t.Helper()
	toks, err := lexer.Lex(src, "test", nil, store)
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	return toktree.StripFluff(toks)
}

func TestLowerCollapsesNSChainIntoResolvedSymbol(t *testing.T) {
	store := interner.New()
	seq := parseExpr(t, "foo::bar::baz", store)
	lowered, err := Lower(seq, name.VPath{}, identityResolve(store), store)
	if err != nil {
		t.Fatalf("lower error: %v", err)
	}
	if len(lowered) != 1 || lowered[0].Kind != toktree.KindName {
		t.Fatalf("expected a single resolved name, got %+v", lowered)
	}
	if lowered[0].Sym.Display(store) != "foo::bar::baz" {
		t.Fatalf("unexpected symbol: %s", lowered[0].Sym.Display(store))
	}
}

func TestLowerRecursesIntoBrackets(t *testing.T) {
	store := interner.New()
	seq := parseExpr(t, "(a b)", store)
	lowered, err := Lower(seq, name.VPath{}, identityResolve(store), store)
	if err != nil {
		t.Fatalf("lower error: %v", err)
	}
	if len(lowered) != 1 || lowered[0].Kind != toktree.KindBracket {
		t.Fatalf("expected a single bracket, got %+v", lowered)
	}
	if len(lowered[0].Body) != 2 {
		t.Fatalf("expected two names inside the bracket, got %+v", lowered[0].Body)
	}
}

func TestLowerPropagatesResolverError(t *testing.T) {
	store := interner.New()
	seq := parseExpr(t, "a", store)
	boom := func(name.VPath, name.VName) (name.Sym, error) { return name.Sym{}, errors.New("boom") }
	if _, err := Lower(seq, name.VPath{}, boom, store); err == nil {
		t.Fatalf("expected resolver error to propagate")
	}
}

func TestNamesCollectsReferencedSymbolsRecursively(t *testing.T) {
	store := interner.New()
	seq := parseExpr(t, "f (g x) y", store)
	lowered, err := Lower(seq, name.VPath{}, identityResolve(store), store)
	if err != nil {
		t.Fatalf("lower error: %v", err)
	}
	names := Names(lowered)
	if len(names) != 4 {
		t.Fatalf("expected 4 distinct names (f, g, x, y), got %d: %+v", len(names), names)
	}
}
