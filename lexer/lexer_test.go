package lexer

import (
	"errors"
	"testing"

	"github.com/orchid-lang/orchid/interner"
	"github.com/orchid-lang/orchid/orcerr"
	"github.com/orchid-lang/orchid/pos"
	"github.com/orchid-lang/orchid/toktree"
)

// TestLexNamespaceChain exercises S1: "foo::bar::baz" lexes to
// NS(foo, NS(bar, Name(baz))).
func TestLexNamespaceChain(t *testing.T) {
	store := interner.New()
	out, err := Lex("foo::bar::baz", "test", nil, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected a single top-level tree, got %d", len(out))
	}
	segs, leaf, ok := toktree.CollapseNS(out[0])
	if !ok {
		t.Fatalf("expected an NS chain collapsing to a name leaf")
	}
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}
	if store.ResolveString(leaf.Name) != "baz" {
		t.Fatalf("expected leaf name baz, got %q", store.ResolveString(leaf.Name))
	}
}

func TestLexBlockComment(t *testing.T) {
	store := interner.New()
	out, err := Lex("--[ hello ]--", "test", nil, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].Kind != toktree.KindComment {
		t.Fatalf("expected a single comment node, got %+v", out)
	}
	if out[0].Comment != " hello " {
		t.Fatalf("unexpected comment text: %q", out[0].Comment)
	}
}

func TestLexUnterminatedBlockCommentFails(t *testing.T) {
	store := interner.New()
	_, err := Lex("--[ hello", "test", nil, store)
	assertOrcerrKind(t, err, orcerr.KindUnterminatedBlockComment)
}

func TestLexLineComment(t *testing.T) {
	store := interner.New()
	out, err := Lex("-- hi there\nx", "test", nil, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected comment, BR, name; got %d nodes: %+v", len(out), out)
	}
	if out[0].Kind != toktree.KindComment || out[1].Kind != toktree.KindBR || out[2].Kind != toktree.KindName {
		t.Fatalf("unexpected node kinds: %+v", out)
	}
}

func TestLexLambdaHead(t *testing.T) {
	store := interner.New()
	out, err := Lex(`\x y.x`, "test", nil, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected lambda head + body name, got %+v", out)
	}
	if out[0].Kind != toktree.KindLambdaHead || len(out[0].Body) != 2 {
		t.Fatalf("expected lambda head with 2 args, got %+v", out[0])
	}
}

func TestLexUnclosedLambdaFails(t *testing.T) {
	store := interner.New()
	_, err := Lex(`\x y`, "test", nil, store)
	assertOrcerrKind(t, err, orcerr.KindUnclosedLambda)
}

func TestLexBracketedGroup(t *testing.T) {
	store := interner.New()
	out, err := Lex("(a b)", "test", nil, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].Kind != toktree.KindBracket || out[0].Paren != toktree.Round {
		t.Fatalf("expected a single round bracket node, got %+v", out)
	}
	if len(out[0].Body) != 2 {
		t.Fatalf("expected 2 children inside the brackets, got %d", len(out[0].Body))
	}
}

func TestLexUnclosedParenFails(t *testing.T) {
	store := interner.New()
	_, err := Lex("(a b", "test", nil, store)
	assertOrcerrKind(t, err, orcerr.KindUnclosedParen)
}

func TestLexOperatorToken(t *testing.T) {
	store := interner.New()
	out, err := Lex("a +++ b", "test", nil, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 tokens, got %+v", out)
	}
	if store.ResolveString(out[1].Name) != "+++" {
		t.Fatalf("expected operator token '+++', got %q", store.ResolveString(out[1].Name))
	}
}

func TestLexUnrecognizedCharacterFails(t *testing.T) {
	store := interner.New()
	_, err := Lex("a 1 b", "test", nil, store)
	assertOrcerrKind(t, err, orcerr.KindUnrecognizedCharacter)
}

// stubPlugin always claims '#' and emits a single opaque Ext node,
// exercising the plugin dispatch path and its Recurse callback.
type stubPlugin struct{ recursed bool }

func (p *stubPlugin) CanLex(c rune) bool { return c == '#' }

func (p *stubPlugin) Lex(source string, at int, recurse Recurse) (toktree.Tree, int, bool, error) {
	// "#<expr>" recurses into the core lexer for whatever follows '#'.
	sub, end, err := recurse(at + 1)
	if err != nil {
		return toktree.Tree{}, 0, false, err
	}
	p.recursed = true
	return toktree.Ext(sub, pos.Range("test", at, end)), end, true, nil
}

func TestLexPluginRecursesIntoCore(t *testing.T) {
	store := interner.New()
	plugin := &stubPlugin{}
	out, err := Lex("#x", "test", []Plugin{plugin}, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !plugin.recursed {
		t.Fatalf("expected the plugin's Recurse callback to be exercised")
	}
	if len(out) != 1 || out[0].Kind != toktree.KindExt {
		t.Fatalf("expected a single Ext node, got %+v", out)
	}
}

func TestLexScalarPlaceholder(t *testing.T) {
	store := interner.New()
	out, err := Lex("$x", "test", nil, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].Kind != toktree.KindPlaceholder {
		t.Fatalf("expected a single placeholder node, got %+v", out)
	}
	ph := out[0].Ph
	if ph.Kind != toktree.PhScalar || store.ResolveString(ph.Name) != "x" {
		t.Fatalf("expected scalar placeholder x, got %+v", ph)
	}
}

func TestLexNamePlaceholder(t *testing.T) {
	store := interner.New()
	out, err := Lex("$_x", "test", nil, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].Ph.Kind != toktree.PhName {
		t.Fatalf("expected a name-kind placeholder, got %+v", out)
	}
}

func TestLexVectorPlaceholderWithPriority(t *testing.T) {
	store := interner.New()
	out, err := Lex("...$rest:3", "test", nil, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].Kind != toktree.KindPlaceholder {
		t.Fatalf("expected a single placeholder node, got %+v", out)
	}
	ph := out[0].Ph
	if ph.Kind != toktree.PhVector || !ph.NonZero || ph.Priority != 3 {
		t.Fatalf("expected a non-zero vector placeholder with priority 3, got %+v", ph)
	}
	if store.ResolveString(ph.Name) != "rest" {
		t.Fatalf("expected placeholder name rest, got %q", store.ResolveString(ph.Name))
	}
}

func TestLexEmptyVectorPlaceholder(t *testing.T) {
	store := interner.New()
	out, err := Lex("..$pre", "test", nil, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].Ph.Kind != toktree.PhVector || out[0].Ph.NonZero {
		t.Fatalf("expected an empty-allowed vector placeholder, got %+v", out)
	}
}

func TestLexPlaceholderMissingNameFails(t *testing.T) {
	store := interner.New()
	_, err := Lex("$ x", "test", nil, store)
	assertOrcerrKind(t, err, orcerr.KindUnrecognizedCharacter)
}

func TestLexBareDotFallsThroughToOperator(t *testing.T) {
	store := interner.New()
	out, err := Lex(". x", "test", nil, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 || out[0].Kind != toktree.KindName || store.ResolveString(out[0].Name) != "." {
		t.Fatalf("expected a bare '.' operator token, got %+v", out)
	}
}

func assertOrcerrKind(t *testing.T, err error, kind orcerr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected an error of kind %q, got nil", kind)
	}
	var oe *orcerr.Error
	if !errors.As(err, &oe) {
		t.Fatalf("expected an *orcerr.Error, got %T: %v", err, err)
	}
	if oe.Kind != kind {
		t.Fatalf("expected kind %q, got %q", kind, oe.Kind)
	}
}
