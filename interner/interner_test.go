package interner

import (
	"sync"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestInternResolveRoundtrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "orchid.interner")
	defer teardown()

	s := New()
	a := s.Intern("foo")
	b := s.Intern("foo")
	if a != b {
		t.Fatalf("interning the same string twice gave different tokens: %v vs %v", a, b)
	}
	if s.ResolveString(a) != "foo" {
		t.Fatalf("resolve did not round-trip")
	}
	c := s.Intern("bar")
	if a == c {
		t.Fatalf("distinct strings interned to the same token")
	}
}

func TestInternSeqEquality(t *testing.T) {
	s := New()
	x := s.Intern("x")
	y := s.Intern("y")
	seq1 := s.InternSeq([]Token{x, y})
	seq2 := s.InternSeq([]Token{x, y})
	if seq1 != seq2 {
		t.Fatalf("equal sequences interned to different tokens")
	}
	seq3 := s.InternSeq([]Token{y, x})
	if seq1 == seq3 {
		t.Fatalf("different orderings interned to the same token")
	}
	resolved := s.ResolveSeq(seq1)
	if len(resolved) != 2 || resolved[0] != x || resolved[1] != y {
		t.Fatalf("resolved sequence mismatch: %v", resolved)
	}
}

func TestConcurrentInternReturnsEqualTokens(t *testing.T) {
	s := New()
	const n = 64
	toks := make([]Token, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			toks[i] = s.Intern("shared")
		}()
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		if toks[i] != toks[0] {
			t.Fatalf("concurrent interning of the same value produced distinct tokens")
		}
	}
}

func TestResolveUnknownTokenPanics(t *testing.T) {
	s := New()
	other := New()
	tok := other.Intern("x")
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic resolving a token from a different store")
		}
	}()
	s.ResolveString(tok)
}
