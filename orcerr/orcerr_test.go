package orcerr

import (
	"strings"
	"testing"

	"github.com/orchid-lang/orchid/pos"
)

func TestErrorMessageIncludesKindAndPosition(t *testing.T) {
	p := pos.Range("foo.orc", 3, 7)
	err := New(KindUnclosedParen, "this ( has no matching )", p)
	msg := err.Error()
	if !strings.Contains(msg, string(KindUnclosedParen)) {
		t.Fatalf("expected message to contain kind, got %q", msg)
	}
	if !strings.Contains(msg, p.String()) {
		t.Fatalf("expected message to contain position, got %q", msg)
	}
}

func TestAtDoesNotMutateReceiver(t *testing.T) {
	base := New(KindParseError, "bad token")
	if len(base.Positions) != 0 {
		t.Fatalf("expected no positions on base error")
	}
	p := pos.Synthetic("test")
	withPos := base.At(p)
	if len(base.Positions) != 0 {
		t.Fatalf("At mutated the receiver")
	}
	if len(withPos.Positions) != 1 {
		t.Fatalf("expected At to attach one position")
	}
}

func TestListAppendSkipsNil(t *testing.T) {
	var l List
	l = l.Append(nil)
	if len(l) != 0 {
		t.Fatalf("expected nil append to be a no-op")
	}
	l = l.Append(New(KindMultipleExports, "x exported twice"))
	if len(l) != 1 {
		t.Fatalf("expected one element after appending a real error")
	}
}
