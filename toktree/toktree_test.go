package toktree

import (
	"testing"

	"github.com/orchid-lang/orchid/interner"
	"github.com/orchid-lang/orchid/pos"
)

func TestCollapseNSWalksChain(t *testing.T) {
	store := interner.New()
	foo, bar, baz := store.Intern("foo"), store.Intern("bar"), store.Intern("baz")
	p := pos.Synthetic("test")
	tree := NS(foo, NS(bar, Name(baz, p), p), p)

	segs, leaf, ok := CollapseNS(tree)
	if !ok {
		t.Fatalf("expected CollapseNS to succeed on a well-formed NS chain")
	}
	if len(segs) != 3 || segs[0] != foo || segs[1] != bar || segs[2] != baz {
		t.Fatalf("unexpected segments: %v", segs)
	}
	if leaf.Kind != KindName || leaf.Name != baz {
		t.Fatalf("unexpected leaf: %+v", leaf)
	}
}

func TestCollapseNSRejectsNonNameTail(t *testing.T) {
	store := interner.New()
	foo := store.Intern("foo")
	p := pos.Synthetic("test")
	tree := NS(foo, BR(p), p)
	if _, _, ok := CollapseNS(tree); ok {
		t.Fatalf("expected CollapseNS to reject a chain not ending in a name")
	}
}

func TestStripFluffRemovesCommentsAndBreaksRecursively(t *testing.T) {
	store := interner.New()
	x := store.Intern("x")
	p := pos.Synthetic("test")
	seq := []Tree{
		Comment("hi", p),
		Name(x, p),
		BR(p),
		Bracket(Round, []Tree{BR(p), Name(x, p), Comment("nested", p)}, p),
	}
	out := StripFluff(seq)
	if len(out) != 2 {
		t.Fatalf("expected 2 surviving nodes, got %d: %+v", len(out), out)
	}
	if out[0].Kind != KindName {
		t.Fatalf("expected first surviving node to be the name")
	}
	if out[1].Kind != KindBracket || len(out[1].Body) != 1 {
		t.Fatalf("expected bracket body to be stripped down to 1 node, got %+v", out[1].Body)
	}
}

func TestPlaceholderStringForms(t *testing.T) {
	store := interner.New()
	n := store.Intern("xs")
	cases := []struct {
		ph   Placeholder
		want string
	}{
		{Placeholder{Name: n, Kind: PhName}, "$_#0:0"},
		{Placeholder{Name: n, Kind: PhScalar}, "$#0:0"},
		{Placeholder{Name: n, Kind: PhVector}, "..$#0:0"},
		{Placeholder{Name: n, Kind: PhVector, NonZero: true}, "...$#0:0"},
		{Placeholder{Name: n, Kind: PhVector, Priority: 3}, "..$#0:0:3"},
	}
	for _, c := range cases {
		if got := c.ph.String(); got != c.want {
			t.Errorf("Placeholder{%+v}.String() = %q, want %q", c.ph, got, c.want)
		}
	}
}

func TestMarkSeqDoneOnlyAffectsTopLevel(t *testing.T) {
	store := interner.New()
	x := store.Intern("x")
	p := pos.Synthetic("test")
	seq := []Tree{Name(x, p), Bracket(Round, []Tree{Name(x, p)}, p)}
	marked := MarkSeqDone(seq)
	for _, t2 := range marked {
		if !t2.Done {
			t.Fatalf("expected top-level node to be marked Done: %+v", t2)
		}
	}
	if marked[1].Body[0].Done {
		t.Fatalf("expected nested node to be left untouched")
	}
	if seq[0].Done {
		t.Fatalf("MarkSeqDone should not mutate the input")
	}
}

func TestDisplayBracketRoundTripsShape(t *testing.T) {
	store := interner.New()
	x := store.Intern("x")
	p := pos.Synthetic("test")
	tree := Bracket(Square, []Tree{Name(x, p)}, p)
	if got, want := tree.Display(store), "[x]"; got != want {
		t.Fatalf("Display() = %q, want %q", got, want)
	}
}
