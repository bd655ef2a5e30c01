package lexplugins

import (
	"testing"

	"github.com/orchid-lang/orchid/interner"
	"github.com/orchid-lang/orchid/lexer"
	"github.com/orchid-lang/orchid/toktree"
)

func TestNumberPluginLexesDecimalLiteral(t *testing.T) {
	store := interner.New()
	toks, err := lexer.Lex("3.5", "test", Default(), store)
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	if len(toks) != 1 || toks[0].Kind != toktree.KindAtom {
		t.Fatalf("expected a single atom token, got %+v", toks)
	}
	n, ok := toks[0].Atom.(NumberAtom)
	if !ok || float64(n) != 3.5 {
		t.Fatalf("expected NumberAtom(3.5), got %+v", toks[0].Atom)
	}
}

func TestNumberPluginImplementsPriorityAtom(t *testing.T) {
	var n NumberAtom = 7
	if n.Priority() != 7 {
		t.Fatalf("expected Priority() == 7, got %v", n.Priority())
	}
}

func TestStringPluginLexesQuotedLiteral(t *testing.T) {
	store := interner.New()
	toks, err := lexer.Lex(`"hello world"`, "test", Default(), store)
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	if len(toks) != 1 || toks[0].Kind != toktree.KindAtom {
		t.Fatalf("expected a single atom token, got %+v", toks)
	}
	s, ok := toks[0].Atom.(StringAtom)
	if !ok || string(s) != "hello world" {
		t.Fatalf("expected StringAtom(\"hello world\"), got %+v", toks[0].Atom)
	}
}

func TestNumberAndStringPluginsDoNotClaimEachOthersSyntax(t *testing.T) {
	store := interner.New()
	toks, err := lexer.Lex(`1 "two" 3`, "test", Default(), store)
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	if len(toks) != 3 {
		t.Fatalf("expected 3 tokens, got %d: %+v", len(toks), toks)
	}
	if _, ok := toks[0].Atom.(NumberAtom); !ok {
		t.Fatalf("expected token 0 to be a NumberAtom, got %+v", toks[0])
	}
	if _, ok := toks[1].Atom.(StringAtom); !ok {
		t.Fatalf("expected token 1 to be a StringAtom, got %+v", toks[1])
	}
	if _, ok := toks[2].Atom.(NumberAtom); !ok {
		t.Fatalf("expected token 2 to be a NumberAtom, got %+v", toks[2])
	}
}
