package ir

import (
	"errors"
	"testing"

	"github.com/orchid-lang/orchid/interner"
	"github.com/orchid-lang/orchid/macro"
	"github.com/orchid-lang/orchid/name"
	"github.com/orchid-lang/orchid/pos"
)

func TestDisplayRendersApplyOfConstantAndLambdaArg(t *testing.T) {
	store := interner.New()
	sym, err := name.ParseSym("f", store)
	if err != nil {
		t.Fatalf("parse sym error: %v", err)
	}
	e := Expr{Value: Apply{
		Fn:  Expr{Value: Constant{Name: sym}},
		Arg: Expr{Value: LambdaArg{Depth: 0}},
	}}
	got := e.Display(store)
	want := "(f #0)"
	if got != want {
		t.Fatalf("Display() = %q, want %q", got, want)
	}
}

func TestDisplayRendersLambdaWrappingApply(t *testing.T) {
	store := interner.New()
	sym, err := name.ParseSym("g", store)
	if err != nil {
		t.Fatalf("parse sym error: %v", err)
	}
	e := Expr{Value: Lambda{Body: Expr{Value: Apply{
		Fn:  Expr{Value: Constant{Name: sym}},
		Arg: Expr{Value: LambdaArg{Depth: 0}},
	}}}}
	got := e.Display(store)
	want := "\\.(g #0)"
	if got != want {
		t.Fatalf("Display() = %q, want %q", got, want)
	}
}

// stubLowerer is a minimal Lowerer implementation confirming the interface
// is satisfiable by a host without importing anything this package doesn't
// already depend on; it never runs as part of this module's own pipeline.
type stubLowerer struct {
	store *interner.Store
}

func (s stubLowerer) Lower(expr []macro.Tree) (Expr, error) {
	if len(expr) != 1 {
		return Expr{}, errors.New("stubLowerer only handles a single bare name")
	}
	return Expr{Value: Constant{Name: expr[0].Sym}, Pos: pos.Synthetic("stub")}, nil
}

func TestLowererInterfaceIsSatisfiableByAHostImplementation(t *testing.T) {
	store := interner.New()
	sym, err := name.ParseSym("x", store)
	if err != nil {
		t.Fatalf("parse sym error: %v", err)
	}
	var l Lowerer = stubLowerer{store: store}
	out, err := l.Lower([]macro.Tree{{Sym: sym}})
	if err != nil {
		t.Fatalf("lower error: %v", err)
	}
	c, ok := out.Value.(Constant)
	if !ok || c.Name.Display(store) != "x" {
		t.Fatalf("unexpected lowered clause: %+v", out.Value)
	}
}
