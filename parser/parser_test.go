package parser

import (
	"testing"

	"github.com/orchid-lang/orchid/interner"
	"github.com/orchid-lang/orchid/lexer"
	"github.com/orchid-lang/orchid/pos"
	"github.com/orchid-lang/orchid/toktree"
)

// numAtom is a minimal PriorityAtom used only by these tests, standing in
// for lexplugins' real numeric literal atom.
type numAtom float64

func (n numAtom) Equal(other toktree.AtomValue) bool {
	o, ok := other.(numAtom)
	return ok && o == n
}
func (n numAtom) Priority() float64 { return float64(n) }

// numPlugin recognizes a single ASCII digit and emits a numAtom; enough to
// exercise the rule-priority arrow in source text without depending on
// lexplugins.
type numPlugin struct{}

func (numPlugin) CanLex(c rune) bool { return c >= '0' && c <= '9' }
func (numPlugin) Lex(source string, at int, recurse lexer.Recurse) (toktree.Tree, int, bool, error) {
	end := at
	for end < len(source) && source[end] >= '0' && source[end] <= '9' {
		end++
	}
	var v float64
	for _, c := range source[at:end] {
		v = v*10 + float64(c-'0')
	}
	return toktree.Atom(numAtom(v), pos.Range("test", at, end)), end, true, nil
}

func lex(t *testing.T, src string, store *interner.Store) []toktree.Tree {
	t.Helper()
	out, err := lexer.Lex(src, "test", []lexer.Plugin{numPlugin{}}, store)
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	return out
}

func TestParseImportMultinameGroup(t *testing.T) {
	store := interner.New()
	tokens := lex(t, "import foo::(bar, baz::*)", store)
	lines, err := Parse(tokens, nil, store)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(lines) != 1 || lines[0].Kind != LineImport {
		t.Fatalf("expected a single import line, got %+v", lines)
	}
	imports := lines[0].Imports
	if len(imports) != 2 {
		t.Fatalf("expected 2 imports, got %d: %+v", len(imports), imports)
	}
	if imports[0].Path.Display(store) != "foo" || store.ResolveString(*imports[0].Name) != "bar" {
		t.Fatalf("unexpected first import: %+v", imports[0])
	}
	if imports[1].Name != nil {
		t.Fatalf("expected second import to be a globstar")
	}
	if imports[1].Path.Display(store) != "foo::baz" {
		t.Fatalf("unexpected second import path: %s", imports[1].Path.Display(store))
	}
}

func TestParseRuleLine(t *testing.T) {
	store := interner.New()
	tokens := lex(t, "rule $x =0=> f $x", store)
	lines, err := Parse(tokens, nil, store)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(lines) != 1 || lines[0].Kind != LineRule {
		t.Fatalf("expected a single rule line, got %+v", lines)
	}
	r := lines[0].Rule
	if r.Priority != 0 {
		t.Fatalf("expected priority 0, got %v", r.Priority)
	}
	if len(r.Pattern) != 1 || len(r.Template) != 2 {
		t.Fatalf("unexpected pattern/template split: %+v / %+v", r.Pattern, r.Template)
	}
}

func TestParseConstLine(t *testing.T) {
	store := interner.New()
	tokens := lex(t, "const answer := 42", store)
	lines, err := Parse(tokens, nil, store)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(lines) != 1 || lines[0].Kind != LineConstant {
		t.Fatalf("expected a single constant line, got %+v", lines)
	}
	if store.ResolveString(lines[0].Constant.Name) != "answer" {
		t.Fatalf("unexpected constant name")
	}
	if len(lines[0].Constant.Value) != 1 {
		t.Fatalf("expected a single-token value, got %+v", lines[0].Constant.Value)
	}
}

func TestParseModuleLineRecursesIntoBody(t *testing.T) {
	store := interner.New()
	tokens := lex(t, "module inner {\nconst x := 1\n}", store)
	lines, err := Parse(tokens, nil, store)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(lines) != 1 || lines[0].Kind != LineModule {
		t.Fatalf("expected a single module line, got %+v", lines)
	}
	if len(lines[0].Module.Body) != 1 || lines[0].Module.Body[0].Kind != LineConstant {
		t.Fatalf("expected nested const line, got %+v", lines[0].Module.Body)
	}
}

func TestParseExportedConstant(t *testing.T) {
	store := interner.New()
	tokens := lex(t, "export const x := 1", store)
	lines, err := Parse(tokens, nil, store)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(lines) != 1 || !lines[0].Exported || lines[0].Kind != LineConstant {
		t.Fatalf("expected an exported constant line, got %+v", lines)
	}
}

func TestParseBareExportList(t *testing.T) {
	store := interner.New()
	tokens := lex(t, "export foo", store)
	lines, err := Parse(tokens, nil, store)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(lines) != 1 || lines[0].Kind != LineExport || len(lines[0].Exports) != 1 {
		t.Fatalf("expected a single-name export list, got %+v", lines)
	}
}

func TestParseCommentAttachesToFollowingConstant(t *testing.T) {
	store := interner.New()
	tokens := lex(t, "-- the answer\nconst x := 1", store)
	lines, err := Parse(tokens, nil, store)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected the comment to attach rather than become its own line, got %+v", lines)
	}
	if len(lines[0].Comments) != 1 {
		t.Fatalf("expected one attached comment, got %+v", lines[0].Comments)
	}
}
