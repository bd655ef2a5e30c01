package parser

import (
	"github.com/orchid-lang/orchid/interner"
	"github.com/orchid-lang/orchid/name"
	"github.com/orchid-lang/orchid/orcerr"
	"github.com/orchid-lang/orchid/pos"
	"github.com/orchid-lang/orchid/toktree"
)

// LineKind selects which of SourceLine's fields are meaningful.
type LineKind uint8

const (
	LineComment LineKind = iota
	LineExport
	LineImport
	LineConstant
	LineRule
	LineModule
)

// Import is one parsed import path, either a concrete name or (Name == nil)
// a globstar.
type Import struct {
	Path name.VPath
	Name *interner.Token
	Pos  pos.Pos
}

// Constant is a named expression definition: "const NAME := EXPR".
type Constant struct {
	Name  interner.Token
	Value []toktree.Tree
	Pos   pos.Pos
}

// PriorityAtom is implemented by an Atom value that denotes a rule
// priority. lexplugins' numeric literal atom satisfies this so the parser
// can read a rule's priority without depending on lexplugins concretely.
type PriorityAtom interface {
	toktree.AtomValue
	Priority() float64
}

// Rule is a parsed rewrite rule: "rule PATTERN =PRIO=> TEMPLATE".
type Rule struct {
	Pattern  []toktree.Tree
	Priority float64
	Template []toktree.Tree
	Pos      pos.Pos
}

// ModuleBlock is a nested "module NAME { ... }" block.
type ModuleBlock struct {
	Name interner.Token
	Body []SourceLine
	Pos  pos.Pos
}

// SourceLine is one parsed top-level (or nested-module) entry.
type SourceLine struct {
	Kind LineKind
	Pos  pos.Pos

	Comments []Comment // leading comments attached by LineItems
	Exported bool       // meaningful for Constant/Rule/Module

	Comment  string // LineComment
	Exports  []CompName
	Imports  []Import
	Constant Constant
	Rule     Rule
	Module   ModuleBlock
}

// Parse converts a lexed token sequence into source lines. plugins are
// tried, in order, before the core grammar on every line; the first plugin
// to report handled=true wins.
func Parse(tokens []toktree.Tree, plugins []LineParser, store *interner.Store) ([]SourceLine, error) {
	var out []SourceLine
	for _, item := range LineItems(tokens) {
		lines, err := parseLine(item, plugins, store)
		if err != nil {
			return nil, err
		}
		out = append(out, lines...)
	}
	return out, nil
}

func parseLine(item LineItem, plugins []LineParser, store *interner.Store) ([]SourceLine, error) {
	line := item.Line
	for _, p := range plugins {
		lines, handled, err := p.TryParse(line, store)
		if err != nil {
			return nil, err
		}
		if handled {
			return attachComments(lines, item.Comments), nil
		}
	}

	head, rest, ok := line.SkipFluff().PopFront()
	if !ok {
		// A line that was nothing but comments already became pending
		// comments in LineItems; reaching here with no comments either
		// means a blank line, which LineItems also already dropped.
		return nil, nil
	}

	if head.Kind == toktree.KindName {
		switch store.ResolveString(head.Name) {
		case "import":
			return parseImportLine(rest, item.Comments, store)
		case "export":
			if next, _, ok := rest.SkipFluff().PopFront(); ok && next.Kind == toktree.KindName {
				switch store.ResolveString(next.Name) {
				case "rule", "const", "module":
					return dispatchMember(rest, item.Comments, store, plugins)
				}
			}
			return parseExportLine(rest, item.Comments, store)
		case "rule":
			return parseRuleLine(false, rest, item.Comments, store)
		case "const":
			return parseConstLine(false, rest, item.Comments, store)
		case "module":
			return parseModuleLine(false, rest, item.Comments, store, plugins)
		}
	}

	return nil, orcerr.New(orcerr.KindParseError, "expected import, export, rule, const or module", head.Pos)
}

func attachComments(lines []SourceLine, comments []Comment) []SourceLine {
	if len(lines) == 0 || len(comments) == 0 {
		return lines
	}
	lines[0].Comments = append(append([]Comment{}, comments...), lines[0].Comments...)
	return lines
}

func parseImportLine(rest Snippet, comments []Comment, store *interner.Store) ([]SourceLine, error) {
	names, surplus, err := ParseMultiname(rest, store)
	if err != nil {
		return nil, err
	}
	if !surplus.SkipFluff().IsEmpty() {
		return nil, orcerr.New(orcerr.KindParseError, "extra code after end of line", surplus.Pos())
	}
	imports := make([]Import, len(names))
	for i, c := range names {
		imports[i] = Import{Path: c.Path, Name: c.Name, Pos: c.Pos}
	}
	return []SourceLine{{Kind: LineImport, Imports: imports, Pos: rest.Pos(), Comments: comments}}, nil
}

func parseExportLine(rest Snippet, comments []Comment, store *interner.Store) ([]SourceLine, error) {
	// "export NAME" as a member-qualifying prefix is handled by the member
	// dispatchers (rule/const/module); reaching here means a bare export
	// list: "export ::(a, b, c)" or "export a".
	names, surplus, err := ParseMultiname(rest, store)
	if err != nil {
		return nil, err
	}
	if !surplus.SkipFluff().IsEmpty() {
		return nil, orcerr.New(orcerr.KindParseError, "extra code after end of line", surplus.Pos())
	}
	return []SourceLine{{Kind: LineExport, Exports: names, Pos: rest.Pos(), Comments: comments}}, nil
}

func dispatchMember(rest Snippet, comments []Comment, store *interner.Store, plugins []LineParser) ([]SourceLine, error) {
	head, tail, ok := rest.SkipFluff().PopFront()
	if ok && head.Kind == toktree.KindName {
		switch store.ResolveString(head.Name) {
		case "rule":
			return parseRuleLine(true, tail, comments, store)
		case "const":
			return parseConstLine(true, tail, comments, store)
		case "module":
			return parseModuleLine(true, tail, comments, store, plugins)
		}
	}
	return nil, orcerr.New(orcerr.KindParseError, "export must be followed by rule, const or module", rest.Pos())
}

// parseRuleLine parses "rule PATTERN = PRIO => TEMPLATE", where the
// priority is spelled as an atom produced by a numeric lex plugin flanked by
// the bare operators "=" and "=>".
func parseRuleLine(exported bool, rest Snippet, comments []Comment, store *interner.Store) ([]SourceLine, error) {
	toks := rest.Slice()
	for i := 0; i+2 < len(toks); i++ {
		if !(toks[i].Kind == toktree.KindName && store.ResolveString(toks[i].Name) == "=") {
			continue
		}
		if toks[i+1].Kind != toktree.KindAtom {
			continue
		}
		pr, ok := toks[i+1].Atom.(PriorityAtom)
		if !ok {
			continue
		}
		if !(toks[i+2].Kind == toktree.KindName && store.ResolveString(toks[i+2].Name) == "=>") {
			continue
		}
		pattern := toktree.StripFluff(toks[:i])
		template := toktree.StripFluff(toks[i+3:])
		return []SourceLine{{
			Kind: LineRule, Exported: exported, Pos: rest.Pos(), Comments: comments,
			Rule: Rule{Pattern: pattern, Priority: pr.Priority(), Template: template, Pos: rest.Pos()},
		}}, nil
	}
	return nil, orcerr.New(orcerr.KindParseError, "rule is missing a =PRIO=> arrow", rest.Pos())
}

func parseConstLine(exported bool, rest Snippet, comments []Comment, store *interner.Store) ([]SourceLine, error) {
	head, tail, ok := rest.SkipFluff().PopFront()
	if !ok || head.Kind != toktree.KindName {
		return nil, orcerr.New(orcerr.KindParseError, "expected a name after const", rest.Pos())
	}
	assign, body, found := tail.SplitOnce(func(t toktree.Tree) bool {
		return t.Kind == toktree.KindName && store.ResolveString(t.Name) == ":="
	})
	if !found || !assign.SkipFluff().IsEmpty() {
		return nil, orcerr.New(orcerr.KindParseError, "expected := after const name", rest.Pos())
	}
	value := toktree.StripFluff(body.Slice())
	return []SourceLine{{
		Kind: LineConstant, Exported: exported, Pos: rest.Pos(), Comments: comments,
		Constant: Constant{Name: head.Name, Value: value, Pos: rest.Pos()},
	}}, nil
}

func parseModuleLine(exported bool, rest Snippet, comments []Comment, store *interner.Store, plugins []LineParser) ([]SourceLine, error) {
	head, tail, ok := rest.SkipFluff().PopFront()
	if !ok || head.Kind != toktree.KindName {
		return nil, orcerr.New(orcerr.KindParseError, "expected a name after module", rest.Pos())
	}
	brace, surplus, ok := tail.SkipFluff().PopFront()
	if !ok || brace.Kind != toktree.KindBracket || brace.Paren != toktree.Curly {
		return nil, orcerr.New(orcerr.KindParseError, "expected { ... } after module name", rest.Pos())
	}
	if !surplus.SkipFluff().IsEmpty() {
		return nil, orcerr.New(orcerr.KindParseError, "extra code after end of line", surplus.Pos())
	}
	body, err := Parse(brace.Body, plugins, store)
	if err != nil {
		return nil, err
	}
	return []SourceLine{{
		Kind: LineModule, Exported: exported, Pos: rest.Pos(), Comments: comments,
		Module: ModuleBlock{Name: head.Name, Body: body, Pos: rest.Pos()},
	}}, nil
}
