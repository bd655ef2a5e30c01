package macro

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/orchid-lang/orchid/orcerr"
	"github.com/orchid-lang/orchid/toktree"
)

// Driver runs one Repository's rules to a fixed point over a target
// sequence (§4.11). A Driver is not safe for concurrent Run calls sharing
// the same target slice; the concurrency model (§5) treats one rewrite as
// an exclusive-writer pass.
type Driver struct {
	Repo *Repository
}

// NewDriver wraps repo for repeated Run calls.
func NewDriver(repo *Repository) *Driver {
	return &Driver{Repo: repo}
}

// namedMatch is one candidate named-rule application found while scanning
// a target sequence.
type namedMatch struct {
	pos, width int
	rule       *Rule
	state      BindingState
}

// Unlimited passed as Run's limit means "run to a fixed point", with no
// step budget.
const Unlimited = -1

// Run rewrites target to a fixed point, or until limit steps have been
// taken. limit == Unlimited (any negative value) means no budget; limit ==
// 0 is the cancellation case (§5): it returns target unchanged with zero
// steps taken and zero remaining, without attempting a single step. It
// returns the rewritten sequence and the number of steps left in the
// budget: a positive number (or Unlimited) means the fixed point was
// reached with budget to spare; zero means every step of the budget was
// used, so the returned sequence may be a partial result rather than a
// fixed point (Run does not check which; it never errors just because the
// budget was exhausted — that is the caller's call to make, see
// RunStrict).
func (d *Driver) Run(target []Tree, limit int) ([]Tree, int, error) {
	if limit == 0 {
		return target, 0, nil
	}
	cur := target
	steps := 0
	for limit < 0 || steps < limit {
		next, matched, err := d.step(cur)
		if err != nil {
			return nil, 0, err
		}
		if !matched {
			if limit < 0 {
				return cur, Unlimited, nil
			}
			return cur, limit - steps, nil
		}
		cur = next
		steps++
	}
	return cur, 0, nil
}

// RunStrict is Run, but treats a budget exhausted before the fixed point as
// a KindStepLimitExceeded error instead of a silently partial result.
func (d *Driver) RunStrict(target []Tree, limit int) ([]Tree, error) {
	rewritten, remaining, err := d.Run(target, limit)
	if err != nil {
		return nil, err
	}
	if limit > 0 && remaining == 0 {
		if _, matched, err := d.step(rewritten); err != nil {
			return nil, err
		} else if matched {
			tracer().Errorf("macro: step budget %d exhausted before reaching a fixed point", limit)
			return nil, orcerr.New(orcerr.KindStepLimitExceeded,
				"rewrite did not reach a fixed point within the step budget")
		}
	}
	return rewritten, nil
}

// step performs one rewrite step: process_exprv of §4.8. It tries named
// rules first, then priority rules against the whole sequence, then
// recurses into bracket/lambda sub-shapes. matched is false ("None bubbles
// to the top") when nothing anywhere in target changed.
func (d *Driver) step(target []Tree) ([]Tree, bool, error) {
	if m := d.findNamedMatch(target); m != nil {
		rewritten, err := Write(m.rule.Template, m.state)
		if err != nil {
			return nil, false, err
		}
		out := make([]Tree, 0, len(target)-m.width+len(rewritten))
		out = append(out, target[:m.pos]...)
		out = append(out, MarkSeqDone(rewritten)...)
		out = append(out, target[m.pos+m.width:]...)
		tracer().Debugf("macro: named rule at %s spliced %d token(s) in for %d at pos %d",
			m.rule.Pos, len(rewritten), m.width, m.pos)
		return out, true, nil
	}

	for _, r := range d.Repo.PriorityRules() {
		state, ok := MatchVec(r.Matcher, target)
		if !ok {
			continue
		}
		rewritten, err := Write(r.Template, state)
		if err != nil {
			return nil, false, err
		}
		tracer().Debugf("macro: priority rule at %s matched the whole target, spliced %d token(s)",
			r.Pos, len(rewritten))
		return MarkSeqDone(rewritten), true, nil
	}

	for i, t := range target {
		var body []Tree
		switch t.Kind {
		case toktree.KindBracket, toktree.KindLambdaHead:
			body = t.Body
		default:
			continue
		}
		subRewritten, subMatched, err := d.step(body)
		if err != nil {
			return nil, false, err
		}
		if !subMatched {
			continue
		}
		nt := t
		nt.Body = subRewritten
		out := make([]Tree, len(target))
		copy(out, target)
		out[i] = nt
		return out, true, nil
	}

	return target, false, nil
}

// findNamedMatch scans target left to right for the first position whose
// lexicon-eligible named rules produce any match, returning nil if none do.
// Two rules matching at that same leftmost position is an unresolvable
// ambiguity (§4.8 step 2: "conflict at the same position across rules");
// per §4.8/§3, that is one of the handful of conditions this package
// panics on rather than returning as an error, since it means the rule
// set itself is unsound for this input, not that this particular rewrite
// attempt failed.
func (d *Driver) findNamedMatch(target []Tree) *namedMatch {
	lex := lexiconOf(target)
	tracer().Debugf("macro: target lexicon %v", sortedLexicon(lex))
	for i, t := range target {
		if t.Kind != toktree.KindName || t.Done {
			continue
		}
		var here []namedMatch
		for _, r := range d.Repo.NamedRulesFor(t.Sym) {
			if !depsSubsetOf(r.Deps, lex) {
				continue
			}
			state, width, ok := matchRuleAt(target, i, r)
			if ok {
				here = append(here, namedMatch{pos: i, width: width, rule: r, state: state})
			}
		}
		if len(here) == 0 {
			continue
		}
		if len(here) > 1 {
			tracer().Errorf("macro: conflicting named matches at pos %d: rules at %s and %s",
				i, here[0].rule.Pos, here[1].rule.Pos)
			panic(orcerr.New(orcerr.KindConflictingMatches,
				"more than one named rule matches at the same position", here[0].rule.Pos, here[1].rule.Pos))
		}
		m := here[0]
		tracer().Debugf("macro: named rule at %s matched at pos %d, width %d", m.rule.Pos, m.pos, m.width)
		return &m
	}
	return nil
}

// sortedLexicon turns a lexicon's token-id set into a deterministically
// ordered slice, since map iteration order would otherwise make the same
// target's trace/diagnostic output vary from run to run.
func sortedLexicon(lex map[uint32]struct{}) []uint32 {
	ids := maps.Keys(lex)
	slices.Sort(ids)
	return ids
}

// matchRuleAt tries r's pattern starting exactly at position i in target.
// A fixed-length (no vector placeholder) pattern is tried against the
// exact-width window starting there; a pattern with a vector placeholder
// is tried against the whole remaining suffix, since nothing in the
// pattern itself bounds where such a match should stop short of the
// sequence's end.
func matchRuleAt(target []Tree, i int, r *Rule) (BindingState, int, bool) {
	if r.Matcher.Scalar {
		w := len(r.Matcher.Scalars)
		if i+w > len(target) {
			return nil, 0, false
		}
		state, ok := MatchVec(r.Matcher, target[i:i+w])
		return state, w, ok
	}
	window := target[i:]
	state, ok := MatchVec(r.Matcher, window)
	return state, len(window), ok
}
