package macro

import (
	"github.com/orchid-lang/orchid/interner"
	"github.com/orchid-lang/orchid/orcerr"
	"github.com/orchid-lang/orchid/toktree"
)

// CheckTemplate verifies every placeholder the template references is bound
// by the pattern it is paired with (rule-construction-time error, not a
// run-time one).
func CheckTemplate(template []Tree, bound map[interner.Token]struct{}) error {
	for _, t := range template {
		switch t.Kind {
		case toktree.KindPlaceholder:
			if _, ok := bound[t.Ph.Name]; !ok {
				return orcerr.New(orcerr.KindMissingPlaceholder,
					"template placeholder is not bound by the rule's pattern", t.Pos)
			}
		case toktree.KindBracket, toktree.KindLambdaHead:
			if err := CheckTemplate(t.Body, bound); err != nil {
				return err
			}
		}
	}
	return nil
}

// Write substitutes bindings into template, producing the rewritten
// sequence (§4.10). Name/atom/Done nodes are copied verbatim; a scalar
// placeholder is replaced by its captured tree; a vector placeholder is
// replaced by its captured subsequence spliced in place; brackets and
// lambda heads recurse into their bodies.
func Write(template []Tree, bindings BindingState) ([]Tree, error) {
	var out []Tree
	for _, t := range template {
		switch t.Kind {
		case toktree.KindPlaceholder:
			b, ok := bindings[t.Ph.Name]
			if !ok {
				tracer().Errorf("macro: template placeholder at %s has no binding at rewrite time", t.Pos)
				return nil, orcerr.New(orcerr.KindMissingPlaceholder,
					"template placeholder has no binding at rewrite time", t.Pos)
			}
			if t.Ph.Kind == toktree.PhVector {
				if !b.Vector {
					return nil, orcerr.New(orcerr.KindTypeMismatch,
						"template expects a vector capture for this placeholder", t.Pos)
				}
				out = append(out, b.Seq...)
			} else {
				if b.Vector {
					return nil, orcerr.New(orcerr.KindTypeMismatch,
						"template expects a scalar capture for this placeholder", t.Pos)
				}
				out = append(out, b.Scalar)
			}
		case toktree.KindBracket:
			body, err := Write(t.Body, bindings)
			if err != nil {
				return nil, err
			}
			nt := t
			nt.Body = body
			out = append(out, nt)
		case toktree.KindLambdaHead:
			body, err := Write(t.Body, bindings)
			if err != nil {
				return nil, err
			}
			nt := t
			nt.Body = body
			out = append(out, nt)
		default:
			out = append(out, t)
		}
	}
	return out, nil
}
