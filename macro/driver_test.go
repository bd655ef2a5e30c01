package macro

import (
	"testing"

	"github.com/orchid-lang/orchid/interner"
	"github.com/orchid-lang/orchid/orcerr"
	"github.com/orchid-lang/orchid/pos"
	"github.com/orchid-lang/orchid/toktree"
)

func mustRule(t *testing.T, pattern, template []Tree, prio float64) *Rule {
	t.Helper()
	r, err := CompileRule(pattern, template, prio, pos.Synthetic("test"))
	if err != nil {
		t.Fatalf("compile rule error: %v", err)
	}
	return r
}

func TestRunRewritesNamedRuleToFixedPoint(t *testing.T) {
	store := interner.New()
	// rule succ $x => wrap $x
	rule := mustRule(t,
		[]Tree{nameTree(store, "succ"), scalarPh(store, "x")},
		[]Tree{nameTree(store, "wrap"), scalarPh(store, "x")},
		0)
	repo := NewRepository([]*Rule{rule})
	d := NewDriver(repo)

	target := []Tree{nameTree(store, "succ"), nameTree(store, "zero")}
	out, remaining, err := d.Run(target, Unlimited)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if remaining != Unlimited {
		t.Fatalf("expected unlimited budget to report Unlimited remaining, got %d", remaining)
	}
	if len(out) != 2 || out[0].Sym.Display(store) != "wrap" || out[1].Sym.Display(store) != "zero" {
		t.Fatalf("unexpected rewrite result: %+v", out)
	}
}

func TestRunDoesNotReapplyToFreshlySplicedMaterial(t *testing.T) {
	store := interner.New()
	// rule foo $x => foo $x -- would loop forever if Done didn't stop it
	rule := mustRule(t,
		[]Tree{nameTree(store, "foo"), scalarPh(store, "x")},
		[]Tree{nameTree(store, "foo"), scalarPh(store, "x")},
		0)
	repo := NewRepository([]*Rule{rule})
	d := NewDriver(repo)

	target := []Tree{nameTree(store, "foo"), nameTree(store, "zero")}
	out, remaining, err := d.Run(target, 10)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if remaining != 9 {
		t.Fatalf("expected exactly one step to have run (9 remaining of 10), got %d", remaining)
	}
	if out[0].Sym.Display(store) != "foo" || !out[0].Done {
		t.Fatalf("expected the spliced foo to be marked Done, got %+v", out[0])
	}
}

func TestRunFallsBackToPriorityRuleWhenNoNamedRuleMatches(t *testing.T) {
	store := interner.New()
	rule := mustRule(t,
		[]Tree{scalarPh(store, "x"), nameTree(store, "plus"), scalarPh(store, "y")},
		[]Tree{nameTree(store, "added")},
		3)
	repo := NewRepository([]*Rule{rule})
	d := NewDriver(repo)

	target := []Tree{nameTree(store, "a"), nameTree(store, "plus"), nameTree(store, "b")}
	out, _, err := d.Run(target, Unlimited)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if len(out) != 1 || out[0].Sym.Display(store) != "added" {
		t.Fatalf("expected priority rule to fire, got %+v", out)
	}
}

func TestRunRecursesIntoBracketSubShapes(t *testing.T) {
	store := interner.New()
	rule := mustRule(t,
		[]Tree{nameTree(store, "inc"), scalarPh(store, "x")},
		[]Tree{nameTree(store, "wrap"), scalarPh(store, "x")},
		0)
	repo := NewRepository([]*Rule{rule})
	d := NewDriver(repo)

	target := []Tree{
		nameTree(store, "outer"),
		{Kind: toktree.KindBracket, Paren: toktree.Round, Body: []Tree{
			nameTree(store, "inc"), nameTree(store, "zero"),
		}},
	}
	out, _, err := d.Run(target, Unlimited)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if out[1].Body[0].Sym.Display(store) != "wrap" {
		t.Fatalf("expected the bracket's body to be rewritten, got %+v", out[1].Body)
	}
}

func TestRunPanicsOnConflictingMatchesAtSamePosition(t *testing.T) {
	store := interner.New()
	r1 := mustRule(t,
		[]Tree{nameTree(store, "foo"), scalarPh(store, "x")},
		[]Tree{nameTree(store, "a")}, 0)
	r2 := mustRule(t,
		[]Tree{nameTree(store, "foo"), scalarPh(store, "y")},
		[]Tree{nameTree(store, "b")}, 0)
	repo := NewRepository([]*Rule{r1, r2})
	d := NewDriver(repo)

	target := []Tree{nameTree(store, "foo"), nameTree(store, "zero")}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected a panic for conflicting named matches")
		}
		oe, ok := r.(*orcerr.Error)
		if !ok || oe.Kind != orcerr.KindConflictingMatches {
			t.Fatalf("expected KindConflictingMatches panic, got %v", r)
		}
	}()
	d.Run(target, Unlimited)
}

func TestRunWithZeroLimitCancelsImmediately(t *testing.T) {
	store := interner.New()
	rule := mustRule(t,
		[]Tree{nameTree(store, "succ"), scalarPh(store, "x")},
		[]Tree{nameTree(store, "wrap"), scalarPh(store, "x")},
		0)
	repo := NewRepository([]*Rule{rule})
	d := NewDriver(repo)

	target := []Tree{nameTree(store, "succ"), nameTree(store, "zero")}
	out, remaining, err := d.Run(target, 0)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected zero remaining for a zero limit, got %d", remaining)
	}
	if out[0].Sym.Display(store) != "succ" {
		t.Fatalf("expected target to be returned unchanged, got %+v", out)
	}
}

func TestRunStrictReportsStepLimitExceeded(t *testing.T) {
	store := interner.New()
	// rule a $x => tag $x, applied to a target with two independent
	// occurrences: a 1-step budget rewrites only the first, leaving the
	// second pending past the budget.
	rule := mustRule(t,
		[]Tree{nameTree(store, "a"), scalarPh(store, "x")},
		[]Tree{nameTree(store, "tag"), scalarPh(store, "x")},
		0)
	repo := NewRepository([]*Rule{rule})
	d := NewDriver(repo)

	target := []Tree{
		nameTree(store, "a"), nameTree(store, "p"),
		nameTree(store, "a"), nameTree(store, "q"),
	}
	_, err := d.RunStrict(target, 1)
	if err == nil {
		t.Fatalf("expected a step-limit-exceeded error")
	}
	oe, ok := err.(*orcerr.Error)
	if !ok || oe.Kind != orcerr.KindStepLimitExceeded {
		t.Fatalf("expected KindStepLimitExceeded, got %v", err)
	}
}
