/*
Package ir defines the boundary shape between this module's pipeline and an
external interpreter (§4.12, §6). §4.12 puts AST→IR lowering itself out of
scope ("Out of scope; summarized in §6 only"), and the lazy graph-reducing
interpreter that would consume the lowered form is an explicit Non-goal. What
this package does carry is the Clause/Expr data shape such an interpreter
expects, and the Lowerer interface a host plugs in to produce it, mirroring
the original implementation's ir::Clause/ir::Expr (see ir_to_nort.rs) and the
gorgo pack's convention of making a pluggable transformation stage an
interface (terex/termr.TermRewriter) rather than a concrete pass this module
drives itself.

This package never calls Lower; nothing downstream of the rewrite driver is
built here.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package ir

import (
	"fmt"

	"github.com/orchid-lang/orchid/interner"
	"github.com/orchid-lang/orchid/macro"
	"github.com/orchid-lang/orchid/name"
	"github.com/orchid-lang/orchid/pos"
	"github.com/orchid-lang/orchid/toktree"
)

// Clause is one node of the lowered, de-Bruijn-indexed IR (ir::Clause in the
// original). It is a closed sum type: the only implementations are the five
// declared in this file, each marking itself with the unexported isClause
// method so no other package can add a variant.
type Clause interface {
	isClause()
}

// Constant references a named external definition by its fully resolved
// symbol, carried through unchanged from the macro layer (ir::Clause::Constant).
type Constant struct {
	Name name.Sym
}

func (Constant) isClause() {}

// AtomClause wraps a literal atom value produced by a lex plugin
// (ir::Clause::Atom). Unlike the original's Atom::run(), nothing here
// evaluates it; evaluation belongs to the interpreter this package stops
// short of.
type AtomClause struct {
	Atom toktree.AtomValue
}

func (AtomClause) isClause() {}

// LambdaArg is a de-Bruijn reference to the nearest-enclosing Lambda's bound
// argument (ir::Clause::LambdaArg). Depth counts enclosing Lambda nodes
// crossed between this reference and its binder, 0 being the innermost.
type LambdaArg struct {
	Depth int
}

func (LambdaArg) isClause() {}

// Apply is function application (ir::Clause::Apply): Fn applied to Arg.
type Apply struct {
	Fn, Arg Expr
}

func (Apply) isClause() {}

// Lambda is a single-argument abstraction (ir::Clause::Lambda); the bound
// argument has no name of its own, only the de-Bruijn depth LambdaArg
// references inside Body.
type Lambda struct {
	Body Expr
}

func (Lambda) isClause() {}

// Expr pairs a Clause with the source position it lowers from, mirroring
// ir::Expr{value, location}.
type Expr struct {
	Value Clause
	Pos   pos.Pos
}

// Lowerer is the pluggable extension point a host interpreter implements to
// consume this module's output: it converts one fully rewritten macro-layer
// expression (the result of a macro.Driver.Run/RunStrict call that reached a
// fixed point) into this package's Clause shape. Nothing in this module
// implements or calls Lowerer; providing one and driving evaluation from it
// is the external interpreter's job (Non-goal).
type Lowerer interface {
	Lower(expr []macro.Tree) (Expr, error)
}

// Display renders a Clause for diagnostics/tests.
func (e Expr) Display(store *interner.Store) string {
	return displayClause(e.Value, store)
}

func displayClause(c Clause, store *interner.Store) string {
	switch v := c.(type) {
	case Constant:
		return v.Name.Display(store)
	case AtomClause:
		return fmt.Sprintf("<atom %v>", v.Atom)
	case LambdaArg:
		return fmt.Sprintf("#%d", v.Depth)
	case Apply:
		return fmt.Sprintf("(%s %s)", displayClause(v.Fn.Value, store), displayClause(v.Arg.Value, store))
	case Lambda:
		return fmt.Sprintf("\\.%s", displayClause(v.Body.Value, store))
	default:
		return "<?>"
	}
}
