package macro

import (
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/orchid-lang/orchid/name"
	"github.com/orchid-lang/orchid/pos"
	"github.com/orchid-lang/orchid/toktree"
)

// Rule is one compiled rewrite rule: a pattern matcher paired with the
// template that replaces a match, plus the bookkeeping process_exprv needs
// to pick a rule without trying every one of them against every target
// (§4.8).
type Rule struct {
	Pattern  []Tree
	Template []Tree
	Priority float64
	Pos      pos.Pos

	Matcher *VecMatcher

	// Named is true if the pattern starts with a single name token: such a
	// rule is indexed by that name and only tried against a target whose
	// lexicon contains it. Priority rules (Named == false) are tried, in
	// descending Priority order, against the whole target instead.
	Named bool
	Head  name.Sym // valid when Named

	// Deps is every name.Sym referenced anywhere in the pattern: a named
	// rule is only a candidate for a target whose lexicon is a superset of
	// Deps (§4.8's "deps ⊆ lexicon" policy).
	Deps []name.Sym

	// order is this rule's source-encounter index among priority rules,
	// the treeset comparator's tiebreaker for rules sharing a Priority
	// (§4.8 "stable on equal priorities → source order").
	order int
}

// CompileRule turns a parsed (pattern, template) pair into a Rule, rejecting
// malformed rules at construction time: non-linear patterns, ambiguous
// vector-placeholder neighbors, and template placeholders the pattern never
// binds.
func CompileRule(pattern, template []Tree, priority float64, p pos.Pos) (*Rule, error) {
	matcher, err := Compile(pattern)
	if err != nil {
		return nil, err
	}
	if err := CheckTemplate(template, BoundNames(pattern)); err != nil {
		return nil, err
	}
	r := &Rule{
		Pattern: pattern, Template: template, Priority: priority, Pos: p,
		Matcher: matcher, Deps: Names(pattern),
	}
	if len(pattern) > 0 && pattern[0].Kind == toktree.KindName {
		r.Named = true
		r.Head = pattern[0].Sym
	}
	return r, nil
}

// Repository is the classified set of rules one rewrite driver applies:
// named rules indexed by head symbol, and priority rules sorted by
// descending priority (stable on ties, per §4.8).
type Repository struct {
	named    map[uint32][]*Rule
	priority []*Rule
}

// NewRepository classifies and indexes rules. Priority rules are ordered
// through a treeset.Set (descending priority, source order breaking ties)
// rather than a hand-rolled sort, the same library and comparator
// convention resolve.Glob uses to make its own key ordering deterministic.
func NewRepository(rules []*Rule) *Repository {
	repo := &Repository{named: make(map[uint32][]*Rule)}
	ordered := treeset.NewWith(rulePriorityComparator)
	order := 0
	for _, r := range rules {
		if r.Named {
			repo.named[r.Head.Id()] = append(repo.named[r.Head.Id()], r)
			continue
		}
		r.order = order
		order++
		ordered.Add(r)
	}
	repo.priority = make([]*Rule, 0, ordered.Size())
	for _, v := range ordered.Values() {
		repo.priority = append(repo.priority, v.(*Rule))
	}
	tracer().Debugf("macro: repository holds %d named head(s), %d priority rule(s)",
		len(repo.named), len(repo.priority))
	return repo
}

// rulePriorityComparator orders priority rules by descending Priority,
// breaking ties by ascending source order; it never returns 0 for two
// distinct rules, since treeset.Set drops elements its comparator deems
// equal.
func rulePriorityComparator(a, b interface{}) int {
	x, y := a.(*Rule), b.(*Rule)
	switch {
	case x.Priority > y.Priority:
		return -1
	case x.Priority < y.Priority:
		return 1
	case x.order < y.order:
		return -1
	case x.order > y.order:
		return 1
	default:
		return 0
	}
}

// NamedRulesFor returns the named rules headed by sym.
func (repo *Repository) NamedRulesFor(sym name.Sym) []*Rule {
	return repo.named[sym.Id()]
}

// PriorityRules returns every priority rule, descending-priority order.
func (repo *Repository) PriorityRules() []*Rule {
	return repo.priority
}

// depsSubsetOf reports whether every symbol in deps appears in lexicon.
func depsSubsetOf(deps []name.Sym, lexicon map[uint32]struct{}) bool {
	for _, d := range deps {
		if _, ok := lexicon[d.Id()]; !ok {
			return false
		}
	}
	return true
}

func lexiconOf(seq []Tree) map[uint32]struct{} {
	out := make(map[uint32]struct{})
	for _, s := range Names(seq) {
		out[s.Id()] = struct{}{}
	}
	return out
}
